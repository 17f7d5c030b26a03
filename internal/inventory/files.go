package inventory

import (
	"os"
	"path/filepath"
	"strings"
)

// collectVendorDirs stats each well-known vendor install location. Glob
// patterns ("/opt/rocm*") pick up versioned install trees.
func collectVendorDirs(patterns []string) []Item {
	var items []Item
	for _, pat := range patterns {
		paths := []string{pat}
		if strings.ContainsAny(pat, "*?[") {
			m, err := filepath.Glob(pat)
			if err != nil {
				continue
			}
			paths = m
		}
		for _, p := range paths {
			info, err := os.Stat(p)
			if err != nil || !info.IsDir() {
				continue
			}
			items = append(items, Item{
				Kind: KindCacheDirectory,
				Name: filepath.Base(p),
				Path: p,
			})
		}
	}
	return items
}

// collectModuleConfigs lists modprobe configuration files. Content is not
// read; classification for this kind is by file name.
func collectModuleConfigs(dir string) ([]Item, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var items []Item
	for _, e := range entries {
		if e.IsDir() || strings.Contains(e.Name(), ".disabled.") {
			continue
		}
		items = append(items, Item{
			Kind: KindModuleConfigFile,
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
		})
	}
	return items, nil
}
