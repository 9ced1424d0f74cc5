// Package hooks holds the per-backend steps run before a package is
// installed, uninstalled or updated.
package hooks

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"

	"github.com/polnio/unipac-features/internal/prompt"
	"github.com/polnio/unipac-features/pkg/core"
)

// ErrCancelled is returned when the user declines to continue
var ErrCancelled = errors.New("cancelled")

// Hook runs before the mutating operations of one backend. A hook may
// prompt; any error aborts the command.
type Hook interface {
	PreInstall(ctx context.Context, pkg core.Package) error
	PreUninstall(ctx context.Context, pkg core.Package) error
	PreUpdate(ctx context.Context, pkgs []core.Package) error
}

// Noop is the hook of backends without one
type Noop struct{}

func (Noop) PreInstall(context.Context, core.Package) error   { return nil }
func (Noop) PreUninstall(context.Context, core.Package) error { return nil }
func (Noop) PreUpdate(context.Context, []core.Package) error  { return nil }

// OpenFunc runs an interactive program (editor, pager) on a file
type OpenFunc func(ctx context.Context, program, path string) error

// Env is what hook bodies may use
type Env struct {
	Options core.Options
	Prompt  *prompt.Prompter
	Editor  string // Falls back to less
	Open    OpenFunc
	Logger  *log.Logger
}

// Factory builds the hook of one backend
type Factory func(env *Env) Hook

var (
	mu        sync.RWMutex
	factories = make(map[core.ID]Factory)
)

// Register installs the hook factory of a backend
func Register(id core.ID, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[id] = f
}

// Set resolves hooks by backend
type Set struct {
	env   *Env
	hooks map[core.ID]Hook
}

// New builds the hooks of every registered backend
func New(env *Env) *Set {
	if env.Open == nil {
		env.Open = OpenTerminal
	}
	if env.Logger == nil {
		env.Logger = log.New(io.Discard, "", 0)
	}

	mu.RLock()
	defer mu.RUnlock()
	s := &Set{env: env, hooks: make(map[core.ID]Hook, len(factories))}
	for id, f := range factories {
		s.hooks[id] = f(env)
	}
	return s
}

// For returns the hook of id, or Noop
func (s *Set) For(id core.ID) Hook {
	if h, ok := s.hooks[id]; ok {
		return h
	}
	return Noop{}
}

// Override replaces the hook of id
func (s *Set) Override(id core.ID, h Hook) {
	s.hooks[id] = h
}

// OpenTerminal runs program on path attached to the process's terminal
func OpenTerminal(ctx context.Context, program, path string) error {
	cmd := exec.CommandContext(ctx, program, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
