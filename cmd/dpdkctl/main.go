package main

import "github.com/NVIDIA/dpdk-provisioner/pkg/cli"

func main() {
	cli.Execute()
}
