// Package hugepage models the huge page reservation requested on the kernel
// command line and reads the live huge page pools from sysfs.
package hugepage

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	cerrors "github.com/NVIDIA/dpdk-provisioner/pkg/errors"
)

// sizePattern accepts a single digit from 1 to 4 followed by a unit letter.
var sizePattern = regexp.MustCompile(`^[1-4][MmGg]$`)

// Config is the requested huge page reservation.
type Config struct {
	// Size is the page size token, e.g. "2M" or "1G".
	Size string `json:"size" yaml:"size"`

	// Count is the number of pages to reserve at boot.
	Count int `json:"count" yaml:"count"`
}

// New validates size and count and returns the resulting Config.
func New(size string, count int) (*Config, error) {
	c := &Config{Size: strings.TrimSpace(size), Count: count}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// ValidateSize reports whether size is an accepted page size token.
func ValidateSize(size string) error {
	if !sizePattern.MatchString(size) {
		return cerrors.New(cerrors.ErrCodeInvalidArgument,
			fmt.Sprintf("invalid huge page size %q: expected a number from 1 to 4 followed by M or G", size))
	}
	return nil
}

// Validate checks the size token and the page count.
func (c *Config) Validate() error {
	if err := ValidateSize(c.Size); err != nil {
		return err
	}
	if c.Count <= 0 {
		return cerrors.New(cerrors.ErrCodeInvalidArgument,
			fmt.Sprintf("invalid huge page count %d: must be greater than zero", c.Count))
	}
	return nil
}

// Token renders the kernel command line parameters for this reservation.
func (c *Config) Token() string {
	return fmt.Sprintf("default_hugepagesz=%s hugepagesz=%s hugepages=%d", c.Size, c.Size, c.Count)
}

// PageBytes returns the size of a single page in bytes.
func (c *Config) PageBytes() uint64 {
	if len(c.Size) < 2 {
		return 0
	}
	n, err := strconv.ParseUint(c.Size[:len(c.Size)-1], 10, 64)
	if err != nil {
		return 0
	}
	switch c.Size[len(c.Size)-1] {
	case 'M', 'm':
		return n * humanize.MiByte
	case 'G', 'g':
		return n * humanize.GiByte
	}
	return 0
}

// Bytes returns the total memory reserved by this configuration.
func (c *Config) Bytes() uint64 {
	return c.PageBytes() * uint64(c.Count)
}

// Human returns the total reservation in human readable IEC units.
func (c *Config) Human() string {
	return humanize.IBytes(c.Bytes())
}

func (c *Config) String() string {
	return fmt.Sprintf("%d x %s (%s)", c.Count, c.Size, c.Human())
}
