//go:build !no_snap

// pkg/backend/snap.go
package backend

import (
	"context"
	"log"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/registry"
	"github.com/polnio/unipac-features/pkg/snap"
)

func init() {
	registry.Register(registry.Descriptor{
		ID:     core.Snap,
		Binary: "snap",
		New:    factory(NewSnapBackend),
	})
}

// SnapPackage is a snap
type SnapPackage struct {
	*snap.Package
}

func (p SnapPackage) PackageName() string    { return p.Name }
func (p SnapPackage) PackageVersion() string { return p.Version }

// Columns returns name, version, publisher and summary
func (p SnapPackage) Columns() []string {
	return []string{p.Name, p.Version, p.Publisher, p.Summary}
}

// SnapBackend implements core.Backend for Snap
type SnapBackend struct {
	manager *snap.PackageManager
	opts    core.Options
	logger  *log.Logger
}

// NewSnapBackend creates a new Snap backend
func NewSnapBackend(opts core.Options) (*SnapBackend, error) {
	logger := opts.Log("[SNAP] ")
	manager := snap.NewPackageManager(&snap.Config{Logger: logger})
	return &SnapBackend{manager: manager, opts: opts, logger: logger}, nil
}

func (b *SnapBackend) ID() core.ID { return core.Snap }

func snapPackage(p *snap.Package) core.Package {
	return SnapPackage{Package: p}
}

func (b *SnapBackend) List(ctx context.Context) ([]core.Package, error) {
	pkgs, err := b.manager.List(ctx)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, snapPackage), nil
}

func (b *SnapBackend) Find(ctx context.Context, name string) (core.Package, error) {
	p, err := b.manager.Find(ctx, name)
	if err != nil || p == nil {
		return nil, err
	}
	return snapPackage(p), nil
}

func (b *SnapBackend) Search(ctx context.Context, query string) ([]core.Package, error) {
	pkgs, err := b.manager.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, snapPackage), nil
}

func (b *SnapBackend) SearchInstall(ctx context.Context, query string) ([]core.Package, error) {
	pkgs, err := b.manager.SearchInstall(ctx, query)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, snapPackage), nil
}

func (b *SnapBackend) Install(ctx context.Context, pkg core.Package) error {
	p, ok := pkg.(SnapPackage)
	if !ok {
		return foreign(core.Snap, pkg)
	}
	return b.manager.Install(ctx, p.Name)
}

func (b *SnapBackend) Uninstall(ctx context.Context, pkg core.Package) error {
	p, ok := pkg.(SnapPackage)
	if !ok {
		return foreign(core.Snap, pkg)
	}
	return b.manager.Uninstall(ctx, p.Name)
}

func (b *SnapBackend) ListUpdates(ctx context.Context) ([]core.Package, error) {
	pkgs, err := b.manager.ListUpdates(ctx)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, snapPackage), nil
}

func (b *SnapBackend) CountUpdates(ctx context.Context) (int, error) {
	return countOf(ctx, b)
}

func (b *SnapBackend) Update(ctx context.Context) error {
	return b.manager.Update(ctx, b.opts.Func(ctx))
}
