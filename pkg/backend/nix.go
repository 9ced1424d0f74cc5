//go:build !no_nix

// pkg/backend/nix.go
package backend

import (
	"context"
	"log"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/nix"
	"github.com/polnio/unipac-features/pkg/registry"
)

func init() {
	registry.Register(registry.Descriptor{
		ID:     core.Nix,
		Binary: "nix",
		New:    factory(NewNixBackend),
	})
}

// NixPackage is a profile element or a flake search result
type NixPackage struct {
	*nix.Package
}

func (p NixPackage) PackageName() string    { return p.Name }
func (p NixPackage) PackageVersion() string { return p.Version }

// Columns returns name, version and attribute
func (p NixPackage) Columns() []string {
	return []string{p.Name, p.Version, p.Attr()}
}

// NixBackend implements core.Backend for the user's Nix profile
type NixBackend struct {
	manager *nix.PackageManager
	opts    core.Options
	logger  *log.Logger
}

// NewNixBackend creates a new Nix backend
func NewNixBackend(opts core.Options) (*NixBackend, error) {
	cfg := configOf(opts)
	logger := opts.Log("[NIX] ")

	manager := nix.NewPackageManager(&nix.Config{
		Flake:  cfg.Nix.Flake,
		Logger: logger,
	})

	return &NixBackend{manager: manager, opts: opts, logger: logger}, nil
}

func (b *NixBackend) ID() core.ID { return core.Nix }

func nixPackage(p *nix.Package) core.Package {
	return NixPackage{Package: p}
}

func (b *NixBackend) List(ctx context.Context) ([]core.Package, error) {
	pkgs, err := b.manager.List(ctx)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, nixPackage), nil
}

func (b *NixBackend) Find(ctx context.Context, name string) (core.Package, error) {
	p, err := b.manager.Find(ctx, name)
	if err != nil || p == nil {
		return nil, err
	}
	return nixPackage(p), nil
}

func (b *NixBackend) Search(ctx context.Context, query string) ([]core.Package, error) {
	pkgs, err := b.manager.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, nixPackage), nil
}

func (b *NixBackend) SearchInstall(ctx context.Context, query string) ([]core.Package, error) {
	pkgs, err := b.manager.SearchInstall(ctx, query)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, nixPackage), nil
}

func (b *NixBackend) Install(ctx context.Context, pkg core.Package) error {
	p, ok := pkg.(NixPackage)
	if !ok {
		return foreign(core.Nix, pkg)
	}
	return b.manager.Install(ctx, p.Package)
}

func (b *NixBackend) Uninstall(ctx context.Context, pkg core.Package) error {
	p, ok := pkg.(NixPackage)
	if !ok {
		return foreign(core.Nix, pkg)
	}
	return b.manager.Uninstall(ctx, p.Package)
}

func (b *NixBackend) ListUpdates(ctx context.Context) ([]core.Package, error) {
	pkgs, err := b.manager.ListUpdates(ctx)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, nixPackage), nil
}

func (b *NixBackend) CountUpdates(ctx context.Context) (int, error) {
	return countOf(ctx, b)
}

// Update upgrades the whole profile
func (b *NixBackend) Update(ctx context.Context) error {
	return b.manager.Update(ctx, b.opts.Func(ctx))
}
