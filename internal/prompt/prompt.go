// Package prompt asks the user yes/no and multiple-choice questions on a
// terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

var (
	// ErrNotInteractive is returned when an answer is required but input is disabled
	ErrNotInteractive = errors.New("input required in non-interactive mode")

	// ErrNoOptions is returned by Select for an empty option list
	ErrNoOptions = errors.New("nothing to select")
)

// Prompter reads answers from in and writes questions to out
type Prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// New creates a prompter. A non-interactive prompter never reads in.
func New(in io.Reader, out io.Writer, interactive bool) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, interactive: interactive}
}

// IsTerminal reports whether r is a terminal answers can be read from
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Interactive reports whether questions are actually asked
func (p *Prompter) Interactive() bool {
	return p.interactive
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Confirm asks a yes/no question. Without input the default is returned.
func (p *Prompter) Confirm(question string, def bool) (bool, error) {
	if !p.interactive {
		return def, nil
	}

	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	for {
		fmt.Fprintf(p.out, "%s %s ", question, hint)
		answer, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

// Select asks the user to pick one of options and returns its index.
// Without input a single option is picked; more than one is ambiguous.
func (p *Prompter) Select(question string, options []string, def int) (int, error) {
	if len(options) == 0 {
		return 0, ErrNoOptions
	}
	if !p.interactive {
		if len(options) == 1 {
			return 0, nil
		}
		return 0, fmt.Errorf("%d candidates: %w", len(options), ErrNotInteractive)
	}
	if def < 0 || def >= len(options) {
		def = 0
	}

	for i, opt := range options {
		fmt.Fprintf(p.out, "%3d) %s\n", i+1, opt)
	}
	for {
		fmt.Fprintf(p.out, "%s [%d] ", question, def+1)
		answer, err := p.readLine()
		if err != nil {
			return 0, err
		}
		if answer == "" {
			return def, nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(options) {
			return n - 1, nil
		}
		fmt.Fprintf(p.out, "Please enter a number between 1 and %d\n", len(options))
	}
}
