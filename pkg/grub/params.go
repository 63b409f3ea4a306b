package grub

import (
	"slices"
	"strings"

	"github.com/NVIDIA/dpdk-provisioner/pkg/hugepage"
)

// IOMMUToken enables the Intel IOMMU in passthrough mode.
const IOMMUToken = "intel_iommu=on iommu=pt"

// hugePageKeys must all be present for the huge page parameter to count as set.
var hugePageKeys = []string{"default_hugepagesz", "hugepagesz", "hugepages"}

// Parameter is a required kernel command line parameter.
type Parameter struct {
	// Name identifies the parameter in logs and results.
	Name string

	// Token is the literal text inserted when the parameter is absent.
	Token string

	present func(args []string) bool
}

// Present reports whether the parameter is already set in args, the
// whitespace separated command line tokens.
func (p Parameter) Present(args []string) bool {
	return p.present(args)
}

// IOMMUParameter requires every token of IOMMUToken verbatim.
func IOMMUParameter() Parameter {
	return Parameter{
		Name:    "iommu",
		Token:   IOMMUToken,
		present: containsAll(strings.Fields(IOMMUToken)),
	}
}

// HugePageParameter requires the exact key=value tokens of the requested
// reservation. A reservation with other values does not count.
func HugePageParameter(c *hugepage.Config) Parameter {
	return Parameter{
		Name:    "hugepages",
		Token:   c.Token(),
		present: containsAll(strings.Fields(c.Token())),
	}
}

func containsAll(want []string) func(args []string) bool {
	return func(args []string) bool {
		for _, w := range want {
			if !slices.Contains(args, w) {
				return false
			}
		}
		return true
	}
}

// HugePagesSet reports whether args carry a complete huge page reservation
// of any size.
func HugePagesSet(args []string) bool {
	for _, key := range hugePageKeys {
		if _, ok := lookup(args, key); !ok {
			return false
		}
	}
	return true
}

// RequiredParameters returns the parameters to enforce, IOMMU first.
func RequiredParameters(hugePages *hugepage.Config) []Parameter {
	params := []Parameter{IOMMUParameter()}
	if hugePages != nil {
		params = append(params, HugePageParameter(hugePages))
	}
	return params
}

// lookup returns the value of the last key=value token for key.
func lookup(args []string, key string) (string, bool) {
	val, found := "", false
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if ok && k == key {
			val, found = v, true
		}
	}
	return val, found
}
