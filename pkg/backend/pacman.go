//go:build !no_pacman

// pkg/backend/pacman.go
package backend

import (
	"context"
	"log"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/pacman"
	"github.com/polnio/unipac-features/pkg/registry"
)

func init() {
	registry.Register(registry.Descriptor{
		ID:     core.Pacman,
		Binary: "pacman",
		New:    factory(NewPacmanBackend),
	})
}

// PacmanPackage is a repository package
type PacmanPackage struct {
	*pacman.PackageInfo
	Installed string // Installed version, pending updates only
}

func (p PacmanPackage) PackageName() string    { return p.Name }
func (p PacmanPackage) PackageVersion() string { return p.Version }

// Columns returns repository, name and version
func (p PacmanPackage) Columns() []string {
	return []string{p.Repository, p.Name, upgrade(p.Installed, p.Version)}
}

// PacmanBackend implements core.Backend for the official repositories
type PacmanBackend struct {
	manager *pacman.PackageManager
	opts    core.Options
	logger  *log.Logger
}

// NewPacmanBackend creates a new Pacman backend
func NewPacmanBackend(opts core.Options) (*PacmanBackend, error) {
	cfg := configOf(opts)
	logger := opts.Log("[PACMAN] ")

	manager := pacman.NewPackageManager(&pacman.Config{
		DBPath:     cfg.Pacman.DBPath,
		ConfigFile: cfg.Pacman.ConfigFile,
		Logger:     logger,
	})

	return &PacmanBackend{manager: manager, opts: opts, logger: logger}, nil
}

func (b *PacmanBackend) ID() core.ID { return core.Pacman }

func pacmanPackage(p *pacman.PackageInfo) core.Package {
	return PacmanPackage{PackageInfo: p}
}

func (b *PacmanBackend) List(ctx context.Context) ([]core.Package, error) {
	pkgs, err := b.manager.Installed()
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, pacmanPackage), nil
}

func (b *PacmanBackend) Find(ctx context.Context, name string) (core.Package, error) {
	p, err := b.manager.FindInstalled(name)
	if err != nil || p == nil {
		return nil, err
	}
	return pacmanPackage(p), nil
}

func (b *PacmanBackend) Search(ctx context.Context, query string) ([]core.Package, error) {
	pkgs, err := b.manager.SearchPackages(query)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, pacmanPackage), nil
}

func (b *PacmanBackend) SearchInstall(ctx context.Context, query string) ([]core.Package, error) {
	pkgs, err := b.manager.SearchInstall(query)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, pacmanPackage), nil
}

func (b *PacmanBackend) Install(ctx context.Context, pkg core.Package) error {
	p, ok := pkg.(PacmanPackage)
	if !ok {
		return foreign(core.Pacman, pkg)
	}
	return b.manager.Install(ctx, p.Name)
}

func (b *PacmanBackend) Uninstall(ctx context.Context, pkg core.Package) error {
	p, ok := pkg.(PacmanPackage)
	if !ok {
		return foreign(core.Pacman, pkg)
	}
	return b.manager.Remove(ctx, p.Name)
}

func (b *PacmanBackend) ListUpdates(ctx context.Context) ([]core.Package, error) {
	updates, err := b.manager.ListUpdates(ctx, b.opts.Func(ctx))
	if err != nil {
		return nil, err
	}
	return wrap(updates, func(u *pacman.Update) core.Package {
		return PacmanPackage{PackageInfo: u.PackageInfo, Installed: u.OldVersion}
	}), nil
}

func (b *PacmanBackend) CountUpdates(ctx context.Context) (int, error) {
	return countOf(ctx, b)
}

// Update runs a full system upgrade
func (b *PacmanBackend) Update(ctx context.Context) error {
	return b.manager.Upgrade(ctx, b.opts.Func(ctx))
}
