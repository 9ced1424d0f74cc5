// Package platformtest provides a scripted platform.Runner for tests.
package platformtest

import (
	"context"
	"strings"
	"sync"

	"github.com/polnio/unipac-features/pkg/platform"
)

// Response is the canned result of one command
type Response struct {
	Stdout string
	Err    error
}

// Runner replays canned responses keyed by the full command line
// ("flatpak list --columns=...") and records every invocation.
type Runner struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []platform.Command
}

// New creates an empty scripted runner
func New() *Runner {
	return &Runner{responses: make(map[string]Response)}
}

// On registers the response for a command line
func (r *Runner) On(cmdline string, resp Response) *Runner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses[cmdline] = resp
	return r
}

// Calls returns the recorded command lines
func (r *Runner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, c.String())
	}
	return out
}

// Commands returns the recorded commands
func (r *Runner) Commands() []platform.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]platform.Command(nil), r.calls...)
}

func (r *Runner) lookup(c platform.Command) Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
	resp, ok := r.responses[c.String()]
	if !ok {
		return Response{Err: &platform.CommandError{
			Command:  c.String(),
			ExitCode: 127,
			Err:      errUnscripted,
		}}
	}
	return resp
}

// Output implements platform.Runner
func (r *Runner) Output(_ context.Context, c platform.Command) ([]byte, error) {
	resp := r.lookup(c)
	return []byte(resp.Stdout), resp.Err
}

// Run implements platform.Runner
func (r *Runner) Run(_ context.Context, c platform.Command) error {
	return r.lookup(c).Err
}

// Stream implements platform.Runner
func (r *Runner) Stream(_ context.Context, c platform.Command, fn func(string)) error {
	resp := r.lookup(c)
	if resp.Stdout != "" {
		for _, line := range strings.Split(strings.TrimRight(resp.Stdout, "\n"), "\n") {
			fn(line)
		}
	}
	return resp.Err
}

type unscriptedError struct{}

func (unscriptedError) Error() string { return "command not scripted" }

var errUnscripted error = unscriptedError{}
