package inventory

import (
	"context"

	"amdgpu-reset/internal/syscmd"
)

// Scope selects how much of the driver stack a run touches.
type Scope string

const (
	// ScopeFull removes kernel, compute and userland pieces and restores the
	// distro kernel stack.
	ScopeFull Scope = "full"
	// ScopeUserland removes userland graphics/compute libraries only and
	// leaves the kernel, DKMS and boot configuration alone.
	ScopeUserland Scope = "userland"
)

// Paths are the host locations a collection pass reads. Tests point these at
// temporary directories.
type Paths struct {
	SourcesDir     string
	PreferencesDir string
	ModprobeDir    string
	VulkanICDDirs  []string
	OpenCLVendors  string
	VendorDirs     []string
}

// DefaultPaths returns the standard Debian/Ubuntu locations.
func DefaultPaths() Paths {
	return Paths{
		SourcesDir:     "/etc/apt/sources.list.d",
		PreferencesDir: "/etc/apt/preferences.d",
		ModprobeDir:    "/etc/modprobe.d",
		VulkanICDDirs:  []string{"/usr/share/vulkan/icd.d", "/etc/vulkan/icd.d"},
		OpenCLVendors:  "/etc/OpenCL/vendors",
		VendorDirs:     []string{"/opt/amdgpu", "/opt/amdgpu-pro", "/opt/rocm*"},
	}
}

// Collector produces a Snapshot of the host. It holds no state between runs.
type Collector struct {
	Run   syscmd.Runner
	Paths Paths
	Scope Scope
}

// Collect gathers every category. Individual category failures are recorded
// in Snapshot.Errors and that category is left empty; collection itself never
// fails.
func (c *Collector) Collect(ctx context.Context) *Snapshot {
	snap := &Snapshot{Errors: map[string]string{}}

	add := func(category string, items []Item, err error) {
		if err != nil {
			snap.Errors[category] = err.Error()
			return
		}
		snap.Items = append(snap.Items, items...)
	}
	addFileErrs := func(category string, fileErrs map[string]string) {
		for name, msg := range fileErrs {
			snap.Errors[category+"/"+name] = msg
		}
	}

	pkgs, err := collectPackages(ctx, c.Run)
	add("packages", pkgs, err)

	srcs, srcErrs, err := collectSources(c.Paths.SourcesDir)
	add("sources", srcs, err)
	addFileErrs("sources", srcErrs)

	pins, pinErrs, err := collectPins(c.Paths.PreferencesDir)
	add("pins", pins, err)
	addFileErrs("pins", pinErrs)

	if c.Scope == ScopeFull {
		builds, err := collectModuleBuilds(ctx, c.Run)
		add("module_builds", builds, err)

		confs, err := collectModuleConfigs(c.Paths.ModprobeDir)
		add("module_configs", confs, err)
	}

	snap.Items = append(snap.Items, collectVendorDirs(c.Paths.VendorDirs)...)

	icds, icdErrs := collectVulkanICDs(c.Paths.VulkanICDDirs)
	snap.Items = append(snap.Items, icds...)
	addFileErrs("vulkan_icds", icdErrs)

	ocl, oclErrs, err := collectOpenCLVendors(c.Paths.OpenCLVendors)
	add("opencl_vendors", ocl, err)
	addFileErrs("opencl_vendors", oclErrs)

	if len(snap.Errors) == 0 {
		snap.Errors = nil
	}
	return snap
}
