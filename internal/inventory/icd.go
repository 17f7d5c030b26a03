package inventory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// vulkanICD is the subset of the Vulkan loader's ICD manifest we care about.
type vulkanICD struct {
	ICD struct {
		LibraryPath string `json:"library_path"`
	} `json:"ICD"`
}

// collectVulkanICDs reads every ICD manifest in the given directories and
// records the driver library each one declares. Unreadable manifests land in
// fileErrs; one that cannot be read cannot be classified, and an active
// descriptor slipping past classification is exactly the blind spot the
// report has to show.
func collectVulkanICDs(dirs []string) (items []Item, fileErrs map[string]string) {
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
				continue
			}
			p := filepath.Join(dir, e.Name())
			b, err := os.ReadFile(p)
			if err != nil {
				fileErrs = recordFileErr(fileErrs, e.Name(), err)
				continue
			}
			var m vulkanICD
			if err := json.Unmarshal(b, &m); err != nil {
				// An unparseable manifest still gets inventoried; with no
				// library path it will not match the stock allow-list.
				m.ICD.LibraryPath = ""
			}
			items = append(items, Item{
				Kind:        KindVulkanICD,
				Name:        e.Name(),
				Path:        p,
				LibraryPath: m.ICD.LibraryPath,
			})
		}
	}
	return items, fileErrs
}

// collectOpenCLVendors reads /etc/OpenCL/vendors-style .icd files, each of
// which is a single line naming the implementation library.
func collectOpenCLVendors(dir string) (items []Item, fileErrs map[string]string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".icd" {
			continue
		}
		p := filepath.Join(dir, e.Name())
		b, err := os.ReadFile(p)
		if err != nil {
			fileErrs = recordFileErr(fileErrs, e.Name(), err)
			continue
		}
		items = append(items, Item{
			Kind:        KindOpenCLVendorFile,
			Name:        e.Name(),
			Path:        p,
			LibraryPath: strings.TrimSpace(string(b)),
		})
	}
	return items, fileErrs, nil
}
