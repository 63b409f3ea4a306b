package measurement

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFilterOut(t *testing.T) {
	readings := map[string]Reading{
		"root":        Str("UUID=abc"),
		"rootflags":   Str("subvol=@"),
		"BOOT_IMAGE":  Str("/vmlinuz"),
		"intel_iommu": Str("on"),
		"iommu":       Str("pt"),
		"hugepages":   Int(4),
		"quiet":       Bool(true),
	}

	tests := []struct {
		name     string
		patterns []string
		wantKeys []string
	}{
		{"exact", []string{"root"}, []string{"rootflags", "BOOT_IMAGE", "intel_iommu", "iommu", "hugepages", "quiet"}},
		{"prefix", []string{"root*"}, []string{"BOOT_IMAGE", "intel_iommu", "iommu", "hugepages", "quiet"}},
		{"suffix", []string{"*iommu"}, []string{"root", "rootflags", "BOOT_IMAGE", "hugepages", "quiet"}},
		{"contains", []string{"*_*"}, []string{"root", "rootflags", "iommu", "hugepages", "quiet"}},
		{"several", []string{"root*", "BOOT_IMAGE"}, []string{"intel_iommu", "iommu", "hugepages", "quiet"}},
		{"none", nil, []string{"root", "rootflags", "BOOT_IMAGE", "intel_iommu", "iommu", "hugepages", "quiet"}},
		{"malformed pattern", []string{"[root"}, []string{"root", "rootflags", "BOOT_IMAGE", "intel_iommu", "iommu", "hugepages", "quiet"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FilterOut(readings, tt.patterns)

			var got []string
			for k := range result {
				got = append(got, k)
			}
			slices.Sort(got)
			want := slices.Clone(tt.wantKeys)
			slices.Sort(want)
			assert.Equal(t, want, got)
		})
	}
}

func TestReading_Marshal(t *testing.T) {
	st := &Subtype{
		Name: "cmdline",
		Data: map[string]Reading{
			"iommu":     Str("pt"),
			"hugepages": Int(4),
			"quiet":     Bool(true),
		},
	}

	b, err := json.Marshal(st)
	require.NoError(t, err)
	assert.JSONEq(t, `{"subtype":"cmdline","data":{"iommu":"pt","hugepages":4,"quiet":true}}`, string(b))

	y, err := yaml.Marshal(st)
	require.NoError(t, err)
	assert.Contains(t, string(y), "hugepages: 4")
	assert.Contains(t, string(y), "quiet: true")
}

func TestMeasurement_GetSubtype(t *testing.T) {
	m := &Measurement{
		Type: TypeOS,
		Subtypes: []*Subtype{
			{Name: "kmod", Data: map[string]Reading{"vfio_pci": Bool(true)}},
		},
	}

	st := m.GetSubtype("kmod")
	require.NotNil(t, st)
	r, ok := st.Get("vfio_pci")
	assert.True(t, ok)
	assert.Equal(t, true, r.Any())
	assert.Equal(t, "true", r.String())

	assert.Nil(t, m.GetSubtype("grub"))
}
