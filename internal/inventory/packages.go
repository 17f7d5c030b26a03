package inventory

import (
	"context"
	"strings"

	"amdgpu-reset/internal/syscmd"
)

// collectPackages lists dpkg packages that are actually on disk. Entries in a
// deinstall/config-files state are excluded so the purge step never sees a
// package that is already gone.
func collectPackages(ctx context.Context, run syscmd.Runner) ([]Item, error) {
	out, err := run.Run(ctx, "dpkg-query", "-W", "-f", "${Package}\t${Status}\n")
	if err != nil {
		return nil, err
	}
	return parseDpkgQuery(string(out)), nil
}

func parseDpkgQuery(out string) []Item {
	var items []Item
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, status, ok := strings.Cut(line, "\t")
		if !ok || name == "" {
			continue
		}
		if !strings.HasSuffix(status, " installed") {
			continue
		}
		items = append(items, Item{
			Kind:   KindPackage,
			Name:   name,
			Status: status,
		})
	}
	return items
}
