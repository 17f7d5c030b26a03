package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDpkgQuery_OnlyInstalled(t *testing.T) {
	out := "rocm-dev\tinstall ok installed\n" +
		"amdgpu-dkms\tdeinstall ok config-files\n" +
		"mesa-vulkan-drivers\tinstall ok installed\n" +
		"half-removed\tinstall ok half-installed\n" +
		"\n"

	items := parseDpkgQuery(out)
	require.Len(t, items, 2)
	assert.Equal(t, "rocm-dev", items[0].Name)
	assert.Equal(t, "mesa-vulkan-drivers", items[1].Name)
	for _, it := range items {
		assert.Equal(t, KindPackage, it.Kind)
	}
}

func TestParseDpkgQuery_MalformedLinesSkipped(t *testing.T) {
	items := parseDpkgQuery("no-tab-here\n\tinstall ok installed\n")
	assert.Empty(t, items)
}
