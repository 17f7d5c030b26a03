package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDKMSStatus_ClassicFormat(t *testing.T) {
	out := "amdgpu/6.3.6, 6.1.0-18-amd64, x86_64: installed\n" +
		"amdgpu/6.3.6, 6.1.0-17-amd64, x86_64: installed\n" +
		"nvidia-current/525.147.05, 6.1.0-18-amd64, x86_64: installed\n"

	items := parseDKMSStatus(out)
	require.Len(t, items, 2)
	assert.Equal(t, "amdgpu", items[0].Name)
	assert.Equal(t, []string{"6.3.6"}, items[0].Versions)
	assert.Equal(t, "nvidia-current", items[1].Name)
}

func TestParseDKMSStatus_ModernFormat(t *testing.T) {
	items := parseDKMSStatus("amdgpu/6.3.6: added\namdgpu/6.2.4: built\n")
	require.Len(t, items, 1)
	assert.Equal(t, KindModuleBuild, items[0].Kind)
	assert.Equal(t, []string{"6.3.6", "6.2.4"}, items[0].Versions)
}

func TestParseDKMSStatus_Empty(t *testing.T) {
	assert.Empty(t, parseDKMSStatus(""))
	assert.Empty(t, parseDKMSStatus("Deprecated feature: README\n"))
}
