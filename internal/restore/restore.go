package restore

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"amdgpu-reset/internal/fsutil"
	"amdgpu-reset/internal/inventory"
	"amdgpu-reset/internal/syscmd"
)

// Result is the outcome of one restoration step.
type Result struct {
	Step   string `json:"step"`
	Detail string `json:"detail,omitempty"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// Restorer reinstates the stock configuration. Every step is best-effort:
// failures are recorded and the next step runs anyway, because a partially
// restored system is still strictly better than an aborted restoration.
type Restorer struct {
	Run syscmd.Runner
	Log io.Writer
	// DistroID selects the kernel target names (see Targets).
	DistroID    string
	Scope       inventory.Scope
	ModprobeDir string
	DryRun      bool
}

func (r *Restorer) logf(format string, args ...any) {
	if r.Log != nil {
		fmt.Fprintf(r.Log, format+"\n", args...)
	}
}

// Restore runs the full restoration sequence for the configured scope.
func (r *Restorer) Restore(ctx context.Context) []Result {
	var results []Result
	record := func(step, detail string, err error) {
		res := Result{Step: step, Detail: detail, OK: err == nil}
		if err != nil {
			res.Error = err.Error()
			r.logf("[restore] %s failed: %v", step, err)
		}
		results = append(results, res)
	}

	if r.DryRun {
		for _, t := range Targets(r.Scope, r.DistroID, r.kernelRelease(ctx)) {
			record("install", t, nil)
		}
		return results
	}

	if _, err := r.Run.Run(ctx, "apt-get", "update"); err != nil {
		record("refresh_metadata", "", err)
	} else {
		record("refresh_metadata", "", nil)
	}

	results = append(results, r.installTargets(ctx)...)

	if r.Scope == inventory.ScopeFull {
		record("initramfs", "", r.regenerateInitramfs(ctx))
		_, err := r.Run.Run(ctx, "update-grub")
		record("bootloader", "", err)
		record("module_preference", ModprobePreferenceFile, r.writeModprobePreference())

		// Best-effort: a running display session usually holds the old
		// module, so this is expected to fail until reboot.
		if _, err := r.Run.Run(ctx, "modprobe", "amdgpu"); err != nil {
			r.logf("[restore] modprobe amdgpu failed (expected before reboot): %v", err)
			record("load_module", "amdgpu", err)
		} else {
			record("load_module", "amdgpu", nil)
		}
	}

	return results
}

// installTargets installs the stock set in one batch so apt orders the
// dependencies. If the batch fails, each target is retried on its own so one
// unavailable package does not sink the rest.
func (r *Restorer) installTargets(ctx context.Context) []Result {
	targets := Targets(r.Scope, r.DistroID, r.kernelRelease(ctx))
	args := append([]string{"install", "-y", "--reinstall"}, targets...)
	if _, err := r.Run.Run(ctx, "apt-get", args...); err == nil {
		results := make([]Result, 0, len(targets))
		for _, t := range targets {
			results = append(results, Result{Step: "install", Detail: t, OK: true})
		}
		return results
	}

	r.logf("[restore] batch install failed, retrying per package")
	results := make([]Result, 0, len(targets))
	for _, t := range targets {
		_, err := r.Run.Run(ctx, "apt-get", "install", "-y", "--reinstall", t)
		res := Result{Step: "install", Detail: t, OK: err == nil}
		if err != nil {
			res.Error = err.Error()
			r.logf("[restore] install %s failed: %v", t, err)
		}
		results = append(results, res)
	}
	return results
}

func (r *Restorer) kernelRelease(ctx context.Context) string {
	out, err := r.Run.Run(ctx, "uname", "-r")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// regenerateInitramfs prefers create mode; older update-initramfs builds
// reject -c for existing images, so update mode is the fallback.
func (r *Restorer) regenerateInitramfs(ctx context.Context) error {
	if _, err := r.Run.Run(ctx, "update-initramfs", "-c", "-k", "all"); err == nil {
		return nil
	}
	_, err := r.Run.Run(ctx, "update-initramfs", "-u", "-k", "all")
	return err
}

func (r *Restorer) writeModprobePreference() error {
	path := filepath.Join(r.ModprobeDir, ModprobePreferenceFile)
	return fsutil.WriteFileAtomic(path, []byte(ModprobePreference), 0o644)
}
