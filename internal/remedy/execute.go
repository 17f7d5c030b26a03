package remedy

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"amdgpu-reset/internal/inventory"
	"amdgpu-reset/internal/syscmd"
)

// PhaseOrder is the fixed execution sequence. Sources and pins are disabled
// before metadata refresh so the purge works against a candidate set that no
// longer includes the vendor repository; quarantine runs after DKMS removal
// so module sources are deregistered while their config is still in place.
var PhaseOrder = []ActionKind{
	DisableSource,
	RemovePin,
	RefreshMetadata,
	PurgePackage,
	DeregisterModuleBuild,
	QuarantineFile,
	RemoveDirectory,
	RefreshMetadata,
	AutoRemove,
	AutoClean,
}

// Executor runs a plan against the host.
type Executor struct {
	Run syscmd.Runner
	Log io.Writer
	// BackupDir receives quarantined descriptor files.
	BackupDir string
	// Now stamps backup names; tests pin it.
	Now func() time.Time
	// DryRun records every action as skipped-successful without mutating
	// anything.
	DryRun bool
}

func (e *Executor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Executor) stamp() string {
	return e.now().Format("20060102-150405")
}

func (e *Executor) logf(format string, args ...any) {
	if e.Log != nil {
		fmt.Fprintf(e.Log, format+"\n", args...)
	}
}

// Execute walks the phases in PhaseOrder and runs every matching action.
// Nothing aborts the sequence; each failure becomes a Result and execution
// moves on.
func (e *Executor) Execute(ctx context.Context, plan []Action) []Result {
	var results []Result
	for _, phase := range PhaseOrder {
		switch phase {
		case RefreshMetadata:
			results = append(results, e.maintenance(ctx, RefreshMetadata, "apt-get", "update"))
		case AutoRemove:
			results = append(results, e.maintenance(ctx, AutoRemove, "apt-get", "autoremove", "-y"))
		case AutoClean:
			results = append(results, e.maintenance(ctx, AutoClean, "apt-get", "autoclean"))
		case PurgePackage:
			results = append(results, e.purgePackages(ctx, plan)...)
		default:
			for i := range plan {
				if plan[i].Kind != phase {
					continue
				}
				results = append(results, e.executeOne(ctx, &plan[i]))
			}
		}
	}
	return results
}

func (e *Executor) maintenance(ctx context.Context, kind ActionKind, name string, args ...string) Result {
	act := Action{Kind: kind}
	if e.DryRun {
		return Result{Action: act, OK: true}
	}
	if _, err := e.Run.Run(ctx, name, args...); err != nil {
		e.logf("[remedy] %s failed: %v", kind, err)
		return Result{Action: act, OK: false, Error: err.Error()}
	}
	return Result{Action: act, OK: true}
}

// purgePackages removes the whole foreign package set in one apt call so apt
// resolves inter-package removal ordering. On failure the whole batch is
// reported failed per package; some may already be partially removed, which
// is why the failure stays non-fatal.
func (e *Executor) purgePackages(ctx context.Context, plan []Action) []Result {
	var acts []*Action
	var names []string
	for i := range plan {
		if plan[i].Kind == PurgePackage {
			acts = append(acts, &plan[i])
			names = append(names, plan[i].Item.Name)
		}
	}
	if len(acts) == 0 {
		return nil
	}
	if e.DryRun {
		results := make([]Result, 0, len(acts))
		for _, a := range acts {
			results = append(results, Result{Action: *a, OK: true})
		}
		return results
	}

	e.logf("[remedy] purging %d packages", len(names))
	args := append([]string{"purge", "-y"}, names...)
	_, err := e.Run.Run(ctx, "apt-get", args...)
	results := make([]Result, 0, len(acts))
	for _, a := range acts {
		if err != nil {
			results = append(results, Result{Action: *a, OK: false, Error: err.Error()})
		} else {
			results = append(results, Result{Action: *a, OK: true})
		}
	}
	return results
}

func (e *Executor) executeOne(ctx context.Context, act *Action) Result {
	if e.DryRun {
		return Result{Action: *act, OK: true}
	}

	var err error
	switch act.Kind {
	case DisableSource, RemovePin:
		act.BackupPath, err = disableInPlace(act.Item.Path, e.stamp())
	case QuarantineFile:
		if act.Item.Kind == inventory.KindModuleConfigFile {
			act.BackupPath, err = disableInPlace(act.Item.Path, e.stamp())
		} else {
			act.BackupPath, err = quarantine(act.Item.Path, e.BackupDir)
		}
	case DeregisterModuleBuild:
		err = e.deregister(ctx, act.Item)
	case RemoveDirectory:
		err = os.RemoveAll(act.Item.Path)
	}

	if err != nil {
		e.logf("[remedy] %s %s failed: %v", act.Kind, act.Item.Name, err)
		return Result{Action: *act, OK: false, Error: err.Error()}
	}
	e.logf("[remedy] %s %s done", act.Kind, act.Item.Name)
	return Result{Action: *act, OK: true}
}

// disableInPlace renames a file next to itself with a timestamped suffix, so
// undoing the action is a single manual rename.
func disableInPlace(path, stamp string) (string, error) {
	backup := path + ".disabled." + stamp
	if err := os.Rename(path, backup); err != nil {
		return "", err
	}
	return backup, nil
}

// quarantine moves a file into the backup directory. Descriptor collection
// spans several directories that may hold same-named files, so an occupied
// destination gets a numeric suffix instead of being overwritten; a backup
// must never destroy another backup.
func quarantine(path, backupDir string) (string, error) {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(backupDir, filepath.Base(path))
	for n := 1; ; n++ {
		if _, err := os.Lstat(dest); os.IsNotExist(err) {
			break
		}
		dest = filepath.Join(backupDir, fmt.Sprintf("%s.%d", filepath.Base(path), n))
	}
	if err := os.Rename(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// deregister removes every registered version of a DKMS module. A module in
// a partially-built state may fail for some versions; the first error is
// returned after all versions were attempted.
func (e *Executor) deregister(ctx context.Context, it inventory.Item) error {
	versions := it.Versions
	if len(versions) == 0 {
		versions = []string{""}
	}
	var first error
	for _, v := range versions {
		ref := it.Name
		if v != "" {
			ref = it.Name + "/" + v
		}
		if _, err := e.Run.Run(ctx, "dkms", "remove", ref, "--all"); err != nil && first == nil {
			first = err
		}
	}
	return first
}
