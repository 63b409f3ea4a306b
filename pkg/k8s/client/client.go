// Package client builds a Kubernetes clientset for node labelling.
package client

import (
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

// ResolveKubeconfig returns the kubeconfig path to use. An explicit path
// wins, then KUBECONFIG, then ~/.kube/config when it exists. An empty
// result selects the in-cluster service account.
func ResolveKubeconfig(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv("KUBECONFIG"); env != "" {
		return env
	}
	path := filepath.Join(homedir.HomeDir(), ".kube", "config")
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return ""
}

// New creates a clientset from the resolved kubeconfig.
func New(kubeconfig string) (kubernetes.Interface, error) {
	config, err := clientcmd.BuildConfigFromFlags("", ResolveKubeconfig(kubeconfig))
	if err != nil {
		return nil, fmt.Errorf("failed to build kube config: %w", err)
	}

	cs, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kubernetes client: %w", err)
	}
	return cs, nil
}
