// Package restore reinstates the distro-default graphics stack after
// remediation: stock packages, initramfs, bootloader menu and module-load
// preferences. Targets are static policy — what a clean system should have —
// not derived from anything the classifier found.
package restore

import "amdgpu-reset/internal/inventory"

// userlandTargets is the stock Mesa/libdrm graphics and compute userland.
var userlandTargets = []string{
	"libdrm-amdgpu1",
	"mesa-vulkan-drivers",
	"mesa-opencl-icd",
	"libgl1-mesa-dri",
	"xserver-xorg-video-amdgpu",
	"vulkan-tools",
}

// kernelTargetsByDistro covers the distro kernel stack; the meta-package and
// firmware names differ between Debian and Ubuntu. Headers for the running
// kernel are appended separately since they depend on `uname -r`.
var kernelTargetsByDistro = map[string][]string{
	"debian": {"linux-image-amd64", "firmware-amd-graphics"},
	"ubuntu": {"linux-image-generic", "linux-firmware"},
}

// Targets returns the packages a run of the given scope installs. distroID is
// the /etc/os-release ID; unknown IDs fall back to the Debian names.
// kernelRelease is the running kernel ("6.1.0-18-amd64"); empty when it could
// not be determined, in which case the headers package is skipped.
func Targets(scope inventory.Scope, distroID, kernelRelease string) []string {
	targets := append([]string{}, userlandTargets...)
	if scope != inventory.ScopeFull {
		return targets
	}
	kernel, ok := kernelTargetsByDistro[distroID]
	if !ok {
		kernel = kernelTargetsByDistro["debian"]
	}
	targets = append(targets, kernel...)
	if kernelRelease != "" {
		targets = append(targets, "linux-headers-"+kernelRelease)
	}
	return targets
}

// ModprobePreference is written to /etc/modprobe.d so the in-tree amdgpu
// driver claims Southern/Sea Islands cards instead of the legacy radeon
// driver.
const ModprobePreference = `# Written by amdgpu-reset. Prefer the in-tree amdgpu driver over the
# legacy radeon driver for SI (Southern Islands) and CIK (Sea Islands) GPUs.
options amdgpu si_support=1 cik_support=1
options radeon si_support=0 cik_support=0
`

// ModprobePreferenceFile is the file name; the classifier keeps it off the
// foreign list so re-runs do not quarantine it.
const ModprobePreferenceFile = "amdgpu-reset-prefer-amdgpu.conf"
