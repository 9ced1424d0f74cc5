// pkg/platform/exec.go
package platform

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strings"
)

// Command is an external program invocation
type Command struct {
	Name string
	Args []string
	Dir  string   // Working directory (optional)
	Env  []string // Extra environment variables (optional)
}

// Cmd builds a Command
func Cmd(name string, args ...string) Command {
	return Command{Name: name, Args: args}
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// CommandError reports a failed external command
type CommandError struct {
	Command  string
	ExitCode int // -1 when the process did not run
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.Err)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the exit status of a failed command, or -1
func ExitCode(err error) int {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.ExitCode
	}
	return -1
}

// Runner executes external commands
type Runner interface {
	// Output runs the command and returns its stdout. On failure the
	// captured stdout is still returned alongside the error.
	Output(ctx context.Context, c Command) ([]byte, error)

	// Run runs the command, discarding its output
	Run(ctx context.Context, c Command) error

	// Stream runs the command and calls fn for every stdout line
	Stream(ctx context.Context, c Command, fn func(line string)) error
}

// ExecRunner runs commands through os/exec
type ExecRunner struct {
	Logger *log.Logger
}

// NewExecRunner creates a runner logging invocations to logger (may be nil)
func NewExecRunner(logger *log.Logger) *ExecRunner {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &ExecRunner{Logger: logger}
}

func (r *ExecRunner) command(ctx context.Context, c Command) *exec.Cmd {
	r.Logger.Printf("exec: %s", c)
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(cmd.Environ(), c.Env...)
	}
	return cmd
}

// Output implements Runner
func (r *ExecRunner) Output(ctx context.Context, c Command) ([]byte, error) {
	cmd := r.command(ctx, c)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), wrapExecError(c, err, stderr.String())
}

// Run implements Runner
func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := r.command(ctx, c)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	return wrapExecError(c, cmd.Run(), stderr.String())
}

// Stream implements Runner
func (r *ExecRunner) Stream(ctx context.Context, c Command, fn func(line string)) error {
	cmd := r.command(ctx, c)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return wrapExecError(c, err, "")
	}
	if err := cmd.Start(); err != nil {
		return wrapExecError(c, err, "")
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		fn(scanner.Text())
	}
	// Drain whatever is left so the process never blocks on a full pipe
	_, _ = io.Copy(io.Discard, stdout)

	return wrapExecError(c, cmd.Wait(), stderr.String())
}

func wrapExecError(c Command, err error, stderr string) error {
	if err == nil {
		return nil
	}
	code := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	}
	return &CommandError{
		Command:  c.String(),
		ExitCode: code,
		Stderr:   lastLine(stderr),
		Err:      err,
	}
}

// lastLine keeps error messages to a single line
func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

// Lines splits command output into trimmed, non-empty lines
func Lines(out []byte) []string {
	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
