package syscmd

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Call is a single recorded invocation.
type Call struct {
	Name string
	Args []string
}

func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Fake is an in-memory Runner for tests. Outputs maps a command prefix
// (e.g. "dkms status") to canned output; Fail maps a prefix to an error.
// The longest matching prefix wins. Unmatched commands succeed with no output.
type Fake struct {
	mu      sync.Mutex
	Outputs map[string]string
	Fail    map[string]error
	Missing map[string]bool // names LookPath should not find
	Calls   []Call
}

func NewFake() *Fake {
	return &Fake{
		Outputs: map[string]string{},
		Fail:    map[string]error{},
		Missing: map[string]bool{},
	}
}

func (f *Fake) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Name: name, Args: args})

	full := Call{Name: name, Args: args}.String()
	var out []byte
	var err error
	best := -1
	for prefix, o := range f.Outputs {
		if strings.HasPrefix(full, prefix) && len(prefix) > best {
			best = len(prefix)
			out = []byte(o)
		}
	}
	best = -1
	for prefix, e := range f.Fail {
		if strings.HasPrefix(full, prefix) && len(prefix) > best {
			best = len(prefix)
			err = e
		}
	}
	return out, err
}

func (f *Fake) LookPath(name string) (string, error) {
	if f.Missing[name] {
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}
	return "/usr/bin/" + name, nil
}

// CommandLines returns every recorded call rendered as a shell-like line,
// in execution order.
func (f *Fake) CommandLines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, 0, len(f.Calls))
	for _, c := range f.Calls {
		lines = append(lines, c.String())
	}
	return lines
}
