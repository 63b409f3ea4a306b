package hugepage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultSysfsRoot is where the kernel exposes the huge page pools.
const DefaultSysfsRoot = "/sys/kernel/mm/hugepages"

// Pool is the live state of one huge page size.
type Pool struct {
	PageSizeKB uint64 `json:"pageSizeKB" yaml:"pageSizeKB"`
	Total      uint64 `json:"total" yaml:"total"`
	Free       uint64 `json:"free" yaml:"free"`
}

// Name returns the pool's page size, e.g. "2048kB".
func (p Pool) Name() string {
	return fmt.Sprintf("%dkB", p.PageSizeKB)
}

// ReadSysfs reads every hugepages-<N>kB directory under root, ordered by page size.
func ReadSysfs(root string) ([]Pool, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read huge page pools: %w", err)
	}

	pools := make([]Pool, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || !strings.HasPrefix(name, "hugepages-") || !strings.HasSuffix(name, "kB") {
			continue
		}

		size, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimPrefix(name, "hugepages-"), "kB"), 10, 64)
		if err != nil {
			continue
		}

		dir := filepath.Join(root, name)
		total, err := readCounter(filepath.Join(dir, "nr_hugepages"))
		if err != nil {
			return nil, err
		}
		free, err := readCounter(filepath.Join(dir, "free_hugepages"))
		if err != nil {
			return nil, err
		}

		pools = append(pools, Pool{PageSizeKB: size, Total: total, Free: free})
	}

	sort.Slice(pools, func(i, j int) bool { return pools[i].PageSizeKB < pools[j].PageSizeKB })

	return pools, nil
}

func readCounter(path string) (uint64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return v, nil
}
