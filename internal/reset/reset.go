// Package reset wires the four stages together and runs them once:
//
//	Start → Collecting → Classifying → Remediating → Restoring → Done
//
// The sequence is strictly linear. Individual remediation and restoration
// failures never abort it; only the preflight checks can stop a run before
// anything is touched.
package reset

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"amdgpu-reset/internal/classify"
	"amdgpu-reset/internal/inventory"
	"amdgpu-reset/internal/remedy"
	"amdgpu-reset/internal/report"
	"amdgpu-reset/internal/restore"
	"amdgpu-reset/internal/syscmd"
)

// Stage names the pipeline states, recorded in the report.
type Stage string

const (
	StageCollecting  Stage = "collecting"
	StageClassifying Stage = "classifying"
	StageRemediating Stage = "remediating"
	StageRestoring   Stage = "restoring"
	StageDone        Stage = "done"
)

// ConfirmFunc asks the operator to approve the rendered plan. Returning
// false aborts cleanly before any mutation.
type ConfirmFunc func(planSummary string, foreignCount int) (bool, error)

// Options configure one run.
type Options struct {
	Scope     inventory.Scope
	Rules     *classify.RuleSet
	Paths     inventory.Paths
	Run syscmd.Runner
	Log io.Writer
	// DistroID is the /etc/os-release ID; it picks the restoration kernel
	// target names.
	DistroID  string
	LogDir    string
	BackupDir string
	// ReportBase names the report file (without extension) so it pairs with
	// the transcript the CLI opened; derived from the start time when empty.
	ReportBase string
	DryRun     bool
	// Confirm is nil when the operator pre-approved (--yes) or in dry runs.
	Confirm ConfirmFunc
	// Now stamps the report; tests pin it.
	Now func() time.Time
}

// Result is what the CLI needs to print the outcome.
type Result struct {
	Report     report.Report
	ReportPath string
}

// Preflight verifies the hard preconditions: elevated privileges and the
// host package manager. These are the only errors that become a non-zero
// exit.
func Preflight(run syscmd.Runner, euid int) error {
	if euid != 0 {
		return fmt.Errorf("must run as root (euid %d)", euid)
	}
	if _, err := run.LookPath("apt-get"); err != nil {
		return fmt.Errorf("apt-get not found on PATH: this tool requires a Debian-family host")
	}
	return nil
}

// DistroID reads the ID field from an os-release file ("debian", "ubuntu");
// empty when the file is missing or carries no ID.
func DistroID(osReleasePath string) string {
	b, err := os.ReadFile(osReleasePath)
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(string(b), "\n") {
		id, ok := strings.CutPrefix(line, "ID=")
		if !ok {
			continue
		}
		return strings.Trim(id, `"`)
	}
	return ""
}

// WarnUnsupportedOS logs an advisory when the distro is not a Debian-family
// one. Advisory only; the apt-get preflight is the hard gate.
func WarnUnsupportedOS(log io.Writer, distroID string) {
	if distroID == "" || distroID == "debian" || distroID == "ubuntu" {
		return
	}
	fmt.Fprintf(log, "[preflight] warning: untested distro %q, proceeding anyway\n", distroID)
}

func (o *Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Run executes the pipeline once and writes the report. The returned error
// covers infrastructure problems only (report not writable); action failures
// live inside the report.
func Run(ctx context.Context, opts Options) (Result, error) {
	started := opts.now().UTC()
	rep := report.Report{
		RunID:     uuid.NewString(),
		Scope:     string(opts.Scope),
		DryRun:    opts.DryRun,
		StartedAt: started.Format(time.RFC3339),
	}
	logf := func(format string, args ...any) {
		if opts.Log != nil {
			fmt.Fprintf(opts.Log, format+"\n", args...)
		}
	}

	// Collecting.
	rep.Stage = string(StageCollecting)
	collector := &inventory.Collector{Run: opts.Run, Paths: opts.Paths, Scope: opts.Scope}
	snap := collector.Collect(ctx)
	rep.ItemCount = len(snap.Items)
	rep.CollectionErrors = snap.Errors
	logf("[collect] %d items, %d category errors", len(snap.Items), len(snap.Errors))

	// Classifying.
	rep.Stage = string(StageClassifying)
	classifier := &classify.Classifier{Rules: opts.Rules, Scope: opts.Scope}
	results := classifier.Classify(snap.Items)
	rep.Foreign = classify.ForeignOf(results)
	rep.ForeignCount = len(rep.Foreign)
	logf("[classify] %d foreign of %d items", rep.ForeignCount, len(results))

	plan := remedy.Plan(results)

	if opts.Confirm != nil && !opts.DryRun {
		ok, err := opts.Confirm(report.RenderPlan(plan), rep.ForeignCount)
		if err != nil {
			// A broken prompt (no TTY, interrupted form) counts as a
			// decline: nothing has been mutated yet and a prompt failure is
			// not a precondition error, so the run still exits zero.
			logf("[confirm] prompt failed, treating as decline: %v", err)
			ok = false
		}
		if !ok {
			rep.Aborted = true
			rep.FinishedAt = opts.now().UTC().Format(time.RFC3339)
			path, werr := writeReport(opts, started, rep)
			if werr != nil {
				return Result{Report: rep}, werr
			}
			return Result{Report: rep, ReportPath: path}, nil
		}
	}

	// Remediating.
	rep.Stage = string(StageRemediating)
	exec := &remedy.Executor{
		Run:       opts.Run,
		Log:       opts.Log,
		BackupDir: opts.BackupDir,
		Now:       opts.Now,
		DryRun:    opts.DryRun,
	}
	rep.Remediation = exec.Execute(ctx, plan)

	// Restoring.
	rep.Stage = string(StageRestoring)
	restorer := &restore.Restorer{
		Run:         opts.Run,
		Log:         opts.Log,
		DistroID:    opts.DistroID,
		Scope:       opts.Scope,
		ModprobeDir: opts.Paths.ModprobeDir,
		DryRun:      opts.DryRun,
	}
	rep.Restoration = restorer.Restore(ctx)

	rep.Stage = string(StageDone)
	rep.FinishedAt = opts.now().UTC().Format(time.RFC3339)
	logf("[done] %d failures recorded", rep.Failures())

	path, err := writeReport(opts, started, rep)
	if err != nil {
		return Result{Report: rep}, err
	}
	return Result{Report: rep, ReportPath: path}, nil
}

func writeReport(opts Options, started time.Time, rep report.Report) (string, error) {
	if opts.LogDir == "" {
		return "", nil
	}
	base := opts.ReportBase
	if base == "" {
		base = "amdgpu-reset-" + started.Format("20060102-150405")
	}
	return report.Write(opts.LogDir, base, rep)
}
