package inventory

import (
	"os"
	"path/filepath"
	"strings"
)

// collectSources reads every configured apt source file. The main
// sources.list is deliberately excluded: vendor installers drop their own
// files under sources.list.d, and the distro's primary list must never be a
// remediation candidate. A file that exists but cannot be read is reported in
// fileErrs — it can never be classified, and that blind spot must show up in
// the report.
func collectSources(dir string) (items []Item, fileErrs map[string]string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".list" && ext != ".sources" {
			continue
		}
		p := filepath.Join(dir, e.Name())
		b, err := os.ReadFile(p)
		if err != nil {
			fileErrs = recordFileErr(fileErrs, e.Name(), err)
			continue
		}
		items = append(items, Item{
			Kind:    KindRepositorySource,
			Name:    e.Name(),
			Path:    p,
			Content: string(b),
		})
	}
	return items, fileErrs, nil
}

// collectPins reads every apt preference file. Disabled backups from a
// previous run are skipped so re-running stays idempotent.
func collectPins(dir string) (items []Item, fileErrs map[string]string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir() || strings.Contains(e.Name(), ".disabled.") {
			continue
		}
		p := filepath.Join(dir, e.Name())
		b, err := os.ReadFile(p)
		if err != nil {
			fileErrs = recordFileErr(fileErrs, e.Name(), err)
			continue
		}
		items = append(items, Item{
			Kind:    KindPinRule,
			Name:    e.Name(),
			Path:    p,
			Content: string(b),
		})
	}
	return items, fileErrs, nil
}

func recordFileErr(m map[string]string, name string, err error) map[string]string {
	if m == nil {
		m = map[string]string{}
	}
	m[name] = err.Error()
	return m
}
