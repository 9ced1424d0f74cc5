//go:build !no_flatpak

// pkg/backend/flatpak.go
package backend

import (
	"context"
	"log"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/flatpak"
	"github.com/polnio/unipac-features/pkg/registry"
)

func init() {
	registry.Register(registry.Descriptor{
		ID:     core.Flatpak,
		Binary: "flatpak",
		New:    factory(NewFlatpakBackend),
	})
}

// FlatpakPackage is an application ref
type FlatpakPackage struct {
	*flatpak.Package
}

func (p FlatpakPackage) PackageName() string    { return p.Name }
func (p FlatpakPackage) PackageVersion() string { return p.Version }

// Columns returns application ID, name, version and description
func (p FlatpakPackage) Columns() []string {
	return []string{p.ID, p.Name, p.Version, p.Description}
}

// FlatpakBackend implements core.Backend for Flatpak
type FlatpakBackend struct {
	manager *flatpak.PackageManager
	opts    core.Options
	logger  *log.Logger
}

// NewFlatpakBackend creates a new Flatpak backend
func NewFlatpakBackend(opts core.Options) (*FlatpakBackend, error) {
	cfg := configOf(opts)
	logger := opts.Log("[FLATPAK] ")

	manager := flatpak.NewPackageManager(&flatpak.Config{
		User:   cfg.Flatpak.User,
		Logger: logger,
	})

	return &FlatpakBackend{manager: manager, opts: opts, logger: logger}, nil
}

func (b *FlatpakBackend) ID() core.ID { return core.Flatpak }

func flatpakPackage(p *flatpak.Package) core.Package {
	return FlatpakPackage{Package: p}
}

func (b *FlatpakBackend) List(ctx context.Context) ([]core.Package, error) {
	pkgs, err := b.manager.List(ctx)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, flatpakPackage), nil
}

func (b *FlatpakBackend) Find(ctx context.Context, name string) (core.Package, error) {
	p, err := b.manager.Find(ctx, name)
	if err != nil || p == nil {
		return nil, err
	}
	return flatpakPackage(p), nil
}

func (b *FlatpakBackend) Search(ctx context.Context, query string) ([]core.Package, error) {
	pkgs, err := b.manager.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, flatpakPackage), nil
}

func (b *FlatpakBackend) SearchInstall(ctx context.Context, query string) ([]core.Package, error) {
	pkgs, err := b.manager.SearchInstall(ctx, query)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, flatpakPackage), nil
}

func (b *FlatpakBackend) Install(ctx context.Context, pkg core.Package) error {
	p, ok := pkg.(FlatpakPackage)
	if !ok {
		return foreign(core.Flatpak, pkg)
	}
	return b.manager.Install(ctx, p.ID)
}

func (b *FlatpakBackend) Uninstall(ctx context.Context, pkg core.Package) error {
	p, ok := pkg.(FlatpakPackage)
	if !ok {
		return foreign(core.Flatpak, pkg)
	}
	return b.manager.Uninstall(ctx, p.ID)
}

func (b *FlatpakBackend) ListUpdates(ctx context.Context) ([]core.Package, error) {
	pkgs, err := b.manager.ListUpdates(ctx)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, flatpakPackage), nil
}

func (b *FlatpakBackend) CountUpdates(ctx context.Context) (int, error) {
	return countOf(ctx, b)
}

func (b *FlatpakBackend) Update(ctx context.Context) error {
	return b.manager.Update(ctx, b.opts.Func(ctx))
}
