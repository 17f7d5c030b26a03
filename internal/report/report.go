// Package report assembles the durable record of a run: a JSON report next
// to the transcript log. The report, not the process exit code, is where
// per-action failures surface.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"

	"amdgpu-reset/internal/classify"
	"amdgpu-reset/internal/fsutil"
	"amdgpu-reset/internal/remedy"
	"amdgpu-reset/internal/restore"
)

// Report is the full outcome of one run.
type Report struct {
	RunID      string `json:"run_id"`
	Scope      string `json:"scope"`
	DryRun     bool   `json:"dry_run,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	// Stage is the last stage reached; "done" whenever the pipeline ran to
	// completion, whatever the individual action outcomes were.
	Stage string `json:"stage"`
	// Aborted is set when the operator declined the confirmation prompt.
	Aborted bool `json:"aborted,omitempty"`

	ItemCount        int               `json:"item_count"`
	ForeignCount     int               `json:"foreign_count"`
	CollectionErrors map[string]string `json:"collection_errors,omitempty"`

	// Foreign lists every foreign classification with its matching rule, for
	// audit. Stock items are only counted.
	Foreign     []classify.Result `json:"foreign,omitempty"`
	Remediation []remedy.Result   `json:"remediation,omitempty"`
	Restoration []restore.Result  `json:"restoration,omitempty"`
}

// Failures counts remediation and restoration steps that did not succeed.
func (r *Report) Failures() int {
	n := 0
	for _, res := range r.Remediation {
		if !res.OK {
			n++
		}
	}
	for _, res := range r.Restoration {
		if !res.OK {
			n++
		}
	}
	return n
}

// Write stores the report as pretty-printed JSON at dir/<base>.json and
// returns the path.
func Write(dir, base string, rep Report) (string, error) {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, base+".json")
	if err := fsutil.WriteFileAtomic(path, b, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// OpenTranscript creates the timestamped run log under dir.
func OpenTranscript(dir, base string) (*os.File, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", err
	}
	path := filepath.Join(dir, base+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, "", err
	}
	return f, path, nil
}
