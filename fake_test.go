package unipac

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/registry"
)

var errNotFound = errors.New("not found")

type fakePackage struct {
	name    string
	version string
}

func (p fakePackage) PackageName() string    { return p.name }
func (p fakePackage) PackageVersion() string { return p.version }
func (p fakePackage) Columns() []string      { return []string{p.name, p.version} }

func pkgs(names ...string) []core.Package {
	out := make([]core.Package, len(names))
	for i, n := range names {
		out[i] = fakePackage{name: n, version: "1.0"}
	}
	return out
}

// fakeSpec scripts one backend; every instance built from it shares it
type fakeSpec struct {
	id      core.ID
	results []core.Package // returned by every listing operation
	err     error          // returned alongside results
	newErr  error          // returned by the factory
	delay   time.Duration

	mu        sync.Mutex
	built     int
	installed []core.Package
	removed   []core.Package
	updated   int32
}

func (s *fakeSpec) factory(opts core.Options) (core.Backend, error) {
	s.mu.Lock()
	s.built++
	s.mu.Unlock()
	if s.newErr != nil {
		return nil, s.newErr
	}
	return &fakeBackend{spec: s, opts: opts}, nil
}

func (s *fakeSpec) builds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.built
}

type fakeBackend struct {
	spec *fakeSpec
	opts core.Options
}

func (b *fakeBackend) wait(ctx context.Context) {
	if b.spec.delay == 0 {
		return
	}
	select {
	case <-time.After(b.spec.delay):
	case <-ctx.Done():
	}
}

func (b *fakeBackend) listing(ctx context.Context) ([]core.Package, error) {
	b.wait(ctx)
	b.opts.Report(ctx, core.Percent(50, ""))
	return b.spec.results, b.spec.err
}

func (b *fakeBackend) ID() core.ID { return b.spec.id }

func (b *fakeBackend) List(ctx context.Context) ([]core.Package, error) { return b.listing(ctx) }

func (b *fakeBackend) Find(ctx context.Context, name string) (core.Package, error) {
	pkgs, err := b.listing(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range pkgs {
		if p.PackageName() == name {
			return p, nil
		}
	}
	return nil, nil
}

func (b *fakeBackend) Search(ctx context.Context, _ string) ([]core.Package, error) {
	return b.listing(ctx)
}

func (b *fakeBackend) SearchInstall(ctx context.Context, _ string) ([]core.Package, error) {
	return b.listing(ctx)
}

func (b *fakeBackend) Install(ctx context.Context, pkg core.Package) error {
	b.spec.mu.Lock()
	defer b.spec.mu.Unlock()
	b.spec.installed = append(b.spec.installed, pkg)
	return b.spec.err
}

func (b *fakeBackend) Uninstall(ctx context.Context, pkg core.Package) error {
	b.spec.mu.Lock()
	defer b.spec.mu.Unlock()
	b.spec.removed = append(b.spec.removed, pkg)
	return b.spec.err
}

func (b *fakeBackend) ListUpdates(ctx context.Context) ([]core.Package, error) {
	return b.listing(ctx)
}

func (b *fakeBackend) CountUpdates(ctx context.Context) (int, error) {
	pkgs, err := b.listing(ctx)
	return len(pkgs), err
}

func (b *fakeBackend) Update(ctx context.Context) error {
	b.wait(ctx)
	b.opts.Report(ctx, core.Percent(0, ""))
	b.opts.Report(ctx, core.Percent(100, ""))
	atomic.AddInt32(&b.spec.updated, 1)
	return b.spec.err
}

// fakeRegistry registers one spec per backend
func fakeRegistry(specs ...*fakeSpec) *registry.Registry {
	reg := registry.New()
	for _, s := range specs {
		reg.Register(registry.Descriptor{ID: s.id, New: s.factory})
	}
	return reg
}
