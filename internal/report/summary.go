package report

import (
	"fmt"
	"strings"

	"amdgpu-reset/internal/remedy"
)

var kindHeadings = []struct {
	kind  remedy.ActionKind
	title string
}{
	{remedy.DisableSource, "Disable repository sources"},
	{remedy.RemovePin, "Remove pin rules"},
	{remedy.PurgePackage, "Purge packages"},
	{remedy.DeregisterModuleBuild, "Deregister DKMS modules"},
	{remedy.QuarantineFile, "Quarantine files"},
	{remedy.RemoveDirectory, "Remove directories"},
}

// RenderPlan formats a remediation plan for the operator, grouped in
// execution order. Deterministic for a given plan.
func RenderPlan(plan []remedy.Action) string {
	if len(plan) == 0 {
		return "Nothing foreign found; only stock restoration will run.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Planned remediation (%d actions):\n", len(plan))
	for _, h := range kindHeadings {
		var names []string
		for _, a := range plan {
			if a.Kind == h.kind {
				names = append(names, a.Item.Name)
			}
		}
		if len(names) == 0 {
			continue
		}
		fmt.Fprintf(&b, "  %s:\n", h.title)
		for _, n := range names {
			fmt.Fprintf(&b, "    - %s\n", n)
		}
	}
	return b.String()
}

// RenderOutcome is the final operator-facing summary printed after a run.
func RenderOutcome(rep Report, reportPath, logPath string) string {
	var b strings.Builder
	if rep.Aborted {
		fmt.Fprintf(&b, "Aborted before remediation; nothing was changed.\n")
	} else {
		fmt.Fprintf(&b, "Run complete: %d foreign artifacts handled, %d step failures.\n",
			rep.ForeignCount, rep.Failures())
	}
	fmt.Fprintf(&b, "Report: %s\n", reportPath)
	fmt.Fprintf(&b, "Transcript: %s\n", logPath)
	if !rep.Aborted && !rep.DryRun {
		b.WriteString("Reboot to load the stock driver stack.\n")
	}
	return b.String()
}
