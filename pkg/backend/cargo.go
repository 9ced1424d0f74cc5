//go:build !no_cargo

// pkg/backend/cargo.go
package backend

import (
	"context"
	"log"
	"strings"

	"github.com/polnio/unipac-features/pkg/cargo"
	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/registry"
)

func init() {
	registry.Register(registry.Descriptor{
		ID:     core.Cargo,
		Binary: "cargo",
		New:    factory(NewCargoBackend),
	})
}

// CargoPackage is an installed crate or a crates.io search result
type CargoPackage struct {
	*cargo.Package
}

func (p CargoPackage) PackageName() string    { return p.Name }
func (p CargoPackage) PackageVersion() string { return p.Version }

// Columns returns name, version, origin and installed binaries
func (p CargoPackage) Columns() []string {
	origin := p.Repository
	if origin == "" && p.Source != nil {
		origin = p.Source.URL
	}
	return []string{p.Name, p.Version, origin, strings.Join(p.Bins, ", ")}
}

// CargoBackend implements core.Backend for crates installed with cargo install
type CargoBackend struct {
	manager *cargo.PackageManager
	opts    core.Options
	logger  *log.Logger
}

// NewCargoBackend creates a new Cargo backend
func NewCargoBackend(opts core.Options) (*CargoBackend, error) {
	cfg := configOf(opts)
	logger := opts.Log("[CARGO] ")

	manager := cargo.NewPackageManager(&cargo.Config{
		Home:     cfg.Cargo.Home,
		APIURL:   cfg.Cargo.APIURL,
		IndexURL: cfg.Cargo.IndexURL,
		Timeout:  cfg.Timeout,
		Logger:   logger,
	})

	return &CargoBackend{manager: manager, opts: opts, logger: logger}, nil
}

func (b *CargoBackend) ID() core.ID { return core.Cargo }

func cargoPackage(p *cargo.Package) core.Package {
	return CargoPackage{Package: p}
}

func (b *CargoBackend) List(ctx context.Context) ([]core.Package, error) {
	pkgs, err := b.manager.List()
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, cargoPackage), nil
}

func (b *CargoBackend) Find(ctx context.Context, name string) (core.Package, error) {
	p, err := b.manager.Find(name)
	if err != nil || p == nil {
		return nil, err
	}
	return cargoPackage(p), nil
}

func (b *CargoBackend) Search(ctx context.Context, query string) ([]core.Package, error) {
	pkgs, err := b.manager.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, cargoPackage), nil
}

func (b *CargoBackend) SearchInstall(ctx context.Context, query string) ([]core.Package, error) {
	pkgs, err := b.manager.SearchInstall(ctx, query)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, cargoPackage), nil
}

func (b *CargoBackend) Install(ctx context.Context, pkg core.Package) error {
	p, ok := pkg.(CargoPackage)
	if !ok {
		return foreign(core.Cargo, pkg)
	}
	return b.manager.Install(ctx, p.Package)
}

func (b *CargoBackend) Uninstall(ctx context.Context, pkg core.Package) error {
	p, ok := pkg.(CargoPackage)
	if !ok {
		return foreign(core.Cargo, pkg)
	}
	return b.manager.Uninstall(ctx, p.Name)
}

func (b *CargoBackend) ListUpdates(ctx context.Context) ([]core.Package, error) {
	pkgs, err := b.manager.ListUpdates(ctx)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, cargoPackage), nil
}

func (b *CargoBackend) CountUpdates(ctx context.Context) (int, error) {
	return countOf(ctx, b)
}

// Update reinstalls every outdated crate
func (b *CargoBackend) Update(ctx context.Context) error {
	return b.manager.Update(ctx, b.opts.Func(ctx))
}
