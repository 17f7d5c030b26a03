package inventory

import (
	"context"
	"strings"

	"amdgpu-reset/internal/syscmd"
)

// collectModuleBuilds parses `dkms status`. Both output shapes are handled:
//
//	amdgpu/6.3.6, 6.1.0-18-amd64, x86_64: installed
//	amdgpu/6.3.6: added
//
// One item per module name, with every registered version attached.
func collectModuleBuilds(ctx context.Context, run syscmd.Runner) ([]Item, error) {
	out, err := run.Run(ctx, "dkms", "status")
	if err != nil {
		return nil, err
	}
	return parseDKMSStatus(string(out)), nil
}

func parseDKMSStatus(out string) []Item {
	versions := map[string][]string{}
	var order []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		head, _, _ := strings.Cut(line, ":")
		// head is "name/version" optionally followed by ", kernel, arch".
		if i := strings.Index(head, ","); i >= 0 {
			head = head[:i]
		}
		name, ver, ok := strings.Cut(strings.TrimSpace(head), "/")
		if !ok || name == "" {
			continue
		}
		if _, seen := versions[name]; !seen {
			order = append(order, name)
		}
		if ver != "" && !contains(versions[name], ver) {
			versions[name] = append(versions[name], ver)
		}
	}

	var items []Item
	for _, name := range order {
		items = append(items, Item{
			Kind:     KindModuleBuild,
			Name:     name,
			Versions: versions[name],
		})
	}
	return items
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
