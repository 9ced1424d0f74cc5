// unipac.go
//
// Package unipac fans package-manager operations out to every enabled
// backend concurrently and merges the results into per-backend aggregates.
package unipac

import (
	"context"
	"fmt"
	"io"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/polnio/unipac-features/internal/display"
	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/registry"
)

// Re-export core types for convenience
type (
	ID      = core.ID
	Package = core.Package
	Config  = core.Config
)

// Manager runs operations across the enabled backends of one invocation
type Manager struct {
	registry *registry.Registry
	enabled  registry.Set
	config   *core.Config
	logger   *log.Logger

	// display is nil when progress is not rendered
	display io.Writer
}

// Option configures a Manager
type Option func(*Manager)

// WithDisplay renders per-backend progress to w while operations run
func WithDisplay(w io.Writer) Option {
	return func(m *Manager) {
		m.display = w
	}
}

// NewManager creates a manager over the enabled backends of reg
func NewManager(reg *registry.Registry, enabled registry.Set, cfg *core.Config, opts ...Option) *Manager {
	if reg == nil {
		reg = registry.Default
	}
	if cfg == nil {
		cfg = core.DefaultConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	m := &Manager{
		registry: reg,
		enabled:  enabled,
		config:   cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Enabled returns the backends operations fan out to
func (m *Manager) Enabled() registry.Set {
	return m.enabled
}

// Interactive reports whether progress is rendered
func (m *Manager) Interactive() bool {
	return m.display != nil
}

// job is the per-backend body of a fan-out. Jobs of one fan-out have
// distinct ids, so each may fill its own slot without locking.
type job func(ctx context.Context, id core.ID, b core.Backend) (summary string, err error)

// fanOut runs fn once per backend of set, each with a fresh backend
// instance, and waits for all of them. Failures never cancel siblings.
func (m *Manager) fanOut(ctx context.Context, op string, set registry.Set, fn job) Errors {
	ids := set.IDs()
	failures := make([]*BackendError, len(ids))

	var d *display.Display
	done := make(chan struct{})
	if m.display != nil {
		d = display.New(m.display, ids)
		go func() {
			d.Run()
			close(done)
		}()
	} else {
		close(done)
	}

	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			opts := core.Options{Config: m.config, Logger: m.logger}
			var progress chan core.Event
			if d != nil {
				progress = make(chan core.Event, 1)
				opts.Progress = progress
				d.Attach(id, progress)
			}

			summary, err := m.run(ctx, id, opts, fn)
			if progress != nil {
				close(progress)
			}

			if err != nil {
				m.logger.Printf("%s %s failed: %v", op, id, err)
				failures[i] = &BackendError{Backend: id, Op: op, Err: err}
				if d != nil {
					d.Abort(id)
				}
				return nil
			}
			if d != nil {
				d.Finish(id, summary)
			}
			return nil
		})
	}
	_ = g.Wait()
	<-done

	var errs Errors
	for _, f := range failures {
		if f != nil {
			errs = append(errs, f)
		}
	}
	return errs
}

// run constructs the backend of id and calls fn on it
func (m *Manager) run(ctx context.Context, id core.ID, opts core.Options, fn job) (string, error) {
	desc, ok := m.registry.Lookup(id)
	if !ok {
		return "", registry.ErrBackendNotAvailable
	}
	b, err := desc.New(opts)
	if err != nil {
		return "", fmt.Errorf("initializing backend: %w", err)
	}
	return fn(ctx, id, b)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// collect fans out a multi-package operation
func (m *Manager) collect(ctx context.Context, op string, call func(core.Backend, context.Context) ([]core.Package, error)) (*Packages, Errors) {
	out := NewPackages(m.enabled)
	errs := m.fanOut(ctx, op, m.enabled, func(ctx context.Context, id core.ID, b core.Backend) (string, error) {
		pkgs, err := call(b, ctx)
		if err != nil {
			return "", err
		}
		out.Set(id, pkgs)
		return plural(len(pkgs), "package"), nil
	})
	return out, errs
}

// List lists the installed packages of every enabled backend
func (m *Manager) List(ctx context.Context) (*Packages, Errors) {
	return m.collect(ctx, "list", core.Backend.List)
}

// Search searches every enabled backend's catalog
func (m *Manager) Search(ctx context.Context, query string) (*Packages, Errors) {
	return m.collect(ctx, "search", func(b core.Backend, ctx context.Context) ([]core.Package, error) {
		return b.Search(ctx, query)
	})
}

// SearchInstall collects the install candidates for query
func (m *Manager) SearchInstall(ctx context.Context, query string) (*Packages, Errors) {
	return m.collect(ctx, "search", func(b core.Backend, ctx context.Context) ([]core.Package, error) {
		return b.SearchInstall(ctx, query)
	})
}

// ListUpdates lists pending updates of every enabled backend
func (m *Manager) ListUpdates(ctx context.Context) (*Packages, Errors) {
	return m.collect(ctx, "list updates", core.Backend.ListUpdates)
}

// CountUpdates counts pending updates of every enabled backend
func (m *Manager) CountUpdates(ctx context.Context) (*Counts, Errors) {
	out := NewCounts(m.enabled)
	errs := m.fanOut(ctx, "count updates", m.enabled, func(ctx context.Context, id core.ID, b core.Backend) (string, error) {
		n, err := b.CountUpdates(ctx)
		if err != nil {
			return "", err
		}
		out.Set(id, n)
		return plural(n, "update"), nil
	})
	return out, errs
}

// Find looks name up among the installed packages of every enabled backend
func (m *Manager) Find(ctx context.Context, name string) (*Found, Errors) {
	out := NewFound(m.enabled)
	errs := m.fanOut(ctx, "find", m.enabled, func(ctx context.Context, id core.ID, b core.Backend) (string, error) {
		pkg, err := b.Find(ctx, name)
		if err != nil {
			return "", err
		}
		if pkg == nil {
			return "not installed", nil
		}
		out.Set(id, pkg)
		return pkg.PackageName() + " " + pkg.PackageVersion(), nil
	})
	return out, errs
}

// single runs op on the one backend owning sel
func (m *Manager) single(ctx context.Context, op, summary string, sel Selection, call func(core.Backend, context.Context, core.Package) error) error {
	if !m.enabled.Contains(sel.Backend) {
		return &BackendError{Backend: sel.Backend, Op: op, Err: ErrNotEnabled}
	}
	errs := m.fanOut(ctx, op, registry.NewSet(sel.Backend), func(ctx context.Context, _ core.ID, b core.Backend) (string, error) {
		return summary, call(b, ctx, sel.Package)
	})
	return errs.Err()
}

// Install installs the selected package with the backend that produced it
func (m *Manager) Install(ctx context.Context, sel Selection) error {
	return m.single(ctx, "install", "installed "+sel.Package.PackageName(), sel, core.Backend.Install)
}

// Uninstall removes the selected package with the backend that owns it
func (m *Manager) Uninstall(ctx context.Context, sel Selection) error {
	return m.single(ctx, "uninstall", "removed "+sel.Package.PackageName(), sel, core.Backend.Uninstall)
}

// Update upgrades every backend of set. Backends outside the enabled set
// are skipped.
func (m *Manager) Update(ctx context.Context, set registry.Set) Errors {
	set = set.Filter(m.enabled.Contains)
	return m.fanOut(ctx, "update", set, func(ctx context.Context, _ core.ID, b core.Backend) (string, error) {
		return "updated", b.Update(ctx)
	})
}
