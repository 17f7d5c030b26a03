// Package syscmd runs external host commands (apt-get, dpkg-query, dkms,
// update-initramfs, ...) behind a small interface so the pipeline can be
// exercised against a fake host in tests.
package syscmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Runner executes a host command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	LookPath(name string) (string, error)
}

// ExecRunner runs commands on the real host. Every invocation and its full
// output are echoed to Log, which serves as the run transcript.
type ExecRunner struct {
	Log io.Writer
}

func NewExecRunner(log io.Writer) *ExecRunner { return &ExecRunner{Log: log} }

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if r.Log != nil {
		fmt.Fprintf(r.Log, "$ %s %s\n", name, strings.Join(args, " "))
	}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(cmd.Environ(), "DEBIAN_FRONTEND=noninteractive")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	if r.Log != nil && out.Len() > 0 {
		_, _ = r.Log.Write(out.Bytes())
	}
	return out.Bytes(), err
}

func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}
