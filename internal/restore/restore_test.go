package restore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amdgpu-reset/internal/inventory"
	"amdgpu-reset/internal/syscmd"
)

func TestTargets_Scopes(t *testing.T) {
	full := Targets(inventory.ScopeFull, "debian", "6.1.0-18-amd64")
	assert.Contains(t, full, "linux-image-amd64")
	assert.Contains(t, full, "linux-headers-6.1.0-18-amd64")
	assert.Contains(t, full, "firmware-amd-graphics")
	assert.Contains(t, full, "mesa-vulkan-drivers")

	userland := Targets(inventory.ScopeUserland, "debian", "6.1.0-18-amd64")
	assert.Contains(t, userland, "mesa-vulkan-drivers")
	assert.NotContains(t, userland, "linux-image-amd64")
	for _, tgt := range userland {
		assert.False(t, strings.HasPrefix(tgt, "linux-headers-"))
	}

	// Unknown running kernel: headers are skipped rather than guessed.
	noKernel := Targets(inventory.ScopeFull, "debian", "")
	for _, tgt := range noKernel {
		assert.False(t, strings.HasPrefix(tgt, "linux-headers-"))
	}
}

func TestTargets_DistroKernelNames(t *testing.T) {
	// The kernel meta-package and firmware names differ per distro; the
	// Debian names do not exist on Ubuntu and would fail every full-scope
	// restoration there.
	debian := Targets(inventory.ScopeFull, "debian", "6.1.0-18-amd64")
	assert.Contains(t, debian, "linux-image-amd64")
	assert.Contains(t, debian, "firmware-amd-graphics")

	ubuntu := Targets(inventory.ScopeFull, "ubuntu", "6.8.0-40-generic")
	assert.Contains(t, ubuntu, "linux-image-generic")
	assert.Contains(t, ubuntu, "linux-firmware")
	assert.NotContains(t, ubuntu, "linux-image-amd64")
	assert.NotContains(t, ubuntu, "firmware-amd-graphics")
	assert.Contains(t, ubuntu, "linux-headers-6.8.0-40-generic")

	// Unknown distro falls back to the Debian names.
	unknown := Targets(inventory.ScopeFull, "", "6.1.0-18-amd64")
	assert.Contains(t, unknown, "linux-image-amd64")
}

func TestRestore_FullSequence(t *testing.T) {
	run := syscmd.NewFake()
	run.Outputs["uname -r"] = "6.1.0-18-amd64\n"

	modprobeDir := t.TempDir()
	r := &Restorer{Run: run, Scope: inventory.ScopeFull, ModprobeDir: modprobeDir}
	results := r.Restore(context.Background())

	lines := run.CommandLines()
	assert.Contains(t, lines, "apt-get update")
	assert.Contains(t, lines, "update-initramfs -c -k all")
	assert.Contains(t, lines, "update-grub")
	assert.Contains(t, lines, "modprobe amdgpu")

	var installLine string
	for _, l := range lines {
		if strings.HasPrefix(l, "apt-get install") {
			installLine = l
		}
	}
	require.NotEmpty(t, installLine)
	assert.Contains(t, installLine, "linux-headers-6.1.0-18-amd64")
	assert.Contains(t, installLine, "mesa-vulkan-drivers")

	b, err := os.ReadFile(filepath.Join(modprobeDir, ModprobePreferenceFile))
	require.NoError(t, err)
	assert.Contains(t, string(b), "options amdgpu si_support=1 cik_support=1")
	assert.Contains(t, string(b), "options radeon si_support=0 cik_support=0")

	for _, res := range results {
		assert.True(t, res.OK, "step %s: %s", res.Step, res.Error)
	}
}

func TestRestore_UbuntuInstallsUbuntuKernelStack(t *testing.T) {
	run := syscmd.NewFake()
	run.Outputs["uname -r"] = "6.8.0-40-generic\n"

	r := &Restorer{Run: run, DistroID: "ubuntu", Scope: inventory.ScopeFull, ModprobeDir: t.TempDir()}
	r.Restore(context.Background())

	var installLine string
	for _, l := range run.CommandLines() {
		if strings.HasPrefix(l, "apt-get install") {
			installLine = l
		}
	}
	require.NotEmpty(t, installLine)
	assert.Contains(t, installLine, "linux-image-generic")
	assert.Contains(t, installLine, "linux-firmware")
	assert.NotContains(t, installLine, "linux-image-amd64")
}

func TestRestore_UserlandSkipsBootSteps(t *testing.T) {
	run := syscmd.NewFake()
	modprobeDir := t.TempDir()
	r := &Restorer{Run: run, Scope: inventory.ScopeUserland, ModprobeDir: modprobeDir}
	r.Restore(context.Background())

	for _, l := range run.CommandLines() {
		assert.False(t, strings.HasPrefix(l, "update-initramfs"), "unexpected %q", l)
		assert.False(t, strings.HasPrefix(l, "update-grub"), "unexpected %q", l)
		assert.False(t, strings.HasPrefix(l, "modprobe"), "unexpected %q", l)
	}
	_, err := os.Stat(filepath.Join(modprobeDir, ModprobePreferenceFile))
	assert.True(t, os.IsNotExist(err))
}

func TestRestore_InitramfsCreateFallsBackToUpdate(t *testing.T) {
	run := syscmd.NewFake()
	run.Fail["update-initramfs -c"] = errors.New("-c not supported for existing images")

	r := &Restorer{Run: run, Scope: inventory.ScopeFull, ModprobeDir: t.TempDir()}
	results := r.Restore(context.Background())

	lines := run.CommandLines()
	assert.Contains(t, lines, "update-initramfs -c -k all")
	assert.Contains(t, lines, "update-initramfs -u -k all")

	for _, res := range results {
		if res.Step == "initramfs" {
			assert.True(t, res.OK)
		}
	}
}

func TestRestore_BatchInstallFallsBackPerPackage(t *testing.T) {
	run := syscmd.NewFake()
	run.Outputs["uname -r"] = "6.1.0-18-amd64\n"
	// Fail the batch call and the one genuinely unavailable package; the
	// other single-package retries go through.
	batch := "apt-get install -y --reinstall " + strings.Join(Targets(inventory.ScopeFull, "", "6.1.0-18-amd64"), " ")
	run.Fail[batch] = errors.New("E: Unable to locate package vulkan-tools")
	run.Fail["apt-get install -y --reinstall vulkan-tools"] = errors.New("E: Unable to locate package vulkan-tools")

	r := &Restorer{Run: run, Scope: inventory.ScopeFull, ModprobeDir: t.TempDir()}
	results := r.Restore(context.Background())

	var installs []Result
	for _, res := range results {
		if res.Step == "install" {
			installs = append(installs, res)
		}
	}
	require.Len(t, installs, len(Targets(inventory.ScopeFull, "", "6.1.0-18-amd64")))

	failed := 0
	for _, res := range installs {
		if !res.OK {
			failed++
			assert.Equal(t, "vulkan-tools", res.Detail)
		}
	}
	// Only the genuinely unavailable package failed; the rest installed.
	assert.Equal(t, 1, failed)
}

func TestRestore_ModprobeFailureIsNonFatal(t *testing.T) {
	run := syscmd.NewFake()
	run.Fail["modprobe amdgpu"] = errors.New("Module amdgpu is in use")

	r := &Restorer{Run: run, Scope: inventory.ScopeFull, ModprobeDir: t.TempDir()}
	results := r.Restore(context.Background())

	// The run still reaches the end; the failure is recorded, not raised.
	var loadRes *Result
	for i := range results {
		if results[i].Step == "load_module" {
			loadRes = &results[i]
		}
	}
	require.NotNil(t, loadRes)
	assert.False(t, loadRes.OK)
	assert.Contains(t, loadRes.Error, "in use")
}
