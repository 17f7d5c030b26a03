// Package inventory takes a read-only snapshot of the host state relevant to
// the GPU driver stack: installed packages, apt sources and pins, DKMS
// registrations, well-known vendor paths, and graphics API driver
// descriptors. Collection never mutates anything; a failing category degrades
// to an empty result rather than aborting the snapshot.
package inventory

// Kind identifies what a discovered item is.
type Kind string

const (
	KindPackage          Kind = "package"
	KindRepositorySource Kind = "repository_source"
	KindPinRule          Kind = "pin_rule"
	KindModuleBuild      Kind = "module_build"
	KindModuleConfigFile Kind = "module_config_file"
	KindCacheDirectory   Kind = "cache_directory"
	KindVulkanICD        Kind = "vulkan_icd"
	KindOpenCLVendorFile Kind = "opencl_vendor_file"
)

// Item is a single discovered artifact. Items are immutable once collected.
type Item struct {
	Kind Kind   `json:"kind"`
	Name string `json:"name"`
	// Path is set for filesystem-backed items (sources, pins, directories,
	// descriptors); empty for packages and module builds.
	Path string `json:"path,omitempty"`
	// Content holds the file body for sources and pins, so classification
	// can match on it without re-reading the host.
	Content string `json:"-"`
	// Status is the dpkg status for packages ("install ok installed").
	Status string `json:"status,omitempty"`
	// Versions lists the registered build versions for module builds.
	Versions []string `json:"versions,omitempty"`
	// LibraryPath is the driver library a Vulkan ICD or OpenCL vendor
	// descriptor points at.
	LibraryPath string `json:"library_path,omitempty"`
}

// Snapshot is everything one collection pass found, plus per-category errors
// for categories that degraded to empty.
type Snapshot struct {
	Items  []Item            `json:"items"`
	Errors map[string]string `json:"errors,omitempty"`
}

// ByKind returns the snapshot items of one kind, in collection order.
func (s *Snapshot) ByKind(k Kind) []Item {
	var out []Item
	for _, it := range s.Items {
		if it.Kind == k {
			out = append(out, it)
		}
	}
	return out
}
