//go:build !no_aur

// pkg/backend/aur.go
package backend

import (
	"context"
	"log"

	"github.com/polnio/unipac-features/pkg/aur"
	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/pacman"
	"github.com/polnio/unipac-features/pkg/registry"
)

func init() {
	registry.Register(registry.Descriptor{
		ID:     core.AUR,
		Binary: "makepkg",
		New:    factory(NewAURBackend),
	})
}

// AURPackage is an AUR package: an RPC record for search results and
// updates, or the local record of an installed foreign package
type AURPackage struct {
	Name      string
	Version   string
	Installed string       // Installed version, pending updates only
	Remote    *aur.Package // nil for installed packages
}

func (p AURPackage) PackageName() string    { return p.Name }
func (p AURPackage) PackageVersion() string { return p.Version }

// Columns returns name and version
func (p AURPackage) Columns() []string {
	return []string{p.Name, upgrade(p.Installed, p.Version)}
}

// Base returns the package base naming the snapshot
func (p AURPackage) Base() string {
	if p.Remote != nil {
		return p.Remote.Base()
	}
	return p.Name
}

// AURBackend implements core.Backend for the Arch User Repository
type AURBackend struct {
	manager *aur.PackageManager
	opts    core.Options
	logger  *log.Logger
}

// NewAURBackend creates a new AUR backend with its own view of the local
// package database
func NewAURBackend(opts core.Options) (*AURBackend, error) {
	cfg := configOf(opts)
	logger := opts.Log("[AUR] ")

	cacheDir, err := cfg.CacheDir("aur")
	if err != nil {
		return nil, err
	}

	local := pacman.NewPackageManager(&pacman.Config{
		DBPath:     cfg.Pacman.DBPath,
		ConfigFile: cfg.Pacman.ConfigFile,
		Logger:     logger,
	})

	manager := aur.NewPackageManager(&aur.Config{
		URL:      cfg.AUR.URL,
		CacheDir: cacheDir,
		Timeout:  cfg.Timeout,
		Pacman:   local,
		Logger:   logger,
	})

	return &AURBackend{manager: manager, opts: opts, logger: logger}, nil
}

// Manager returns the underlying AUR manager
func (b *AURBackend) Manager() *aur.PackageManager {
	return b.manager
}

func (b *AURBackend) ID() core.ID { return core.AUR }

func installedAUR(p *pacman.PackageInfo) core.Package {
	return AURPackage{Name: p.Name, Version: p.Version}
}

func remoteAUR(p aur.Package) core.Package {
	return AURPackage{Name: p.Name, Version: p.Version, Remote: &p}
}

func (b *AURBackend) List(ctx context.Context) ([]core.Package, error) {
	pkgs, err := b.manager.Installed()
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, installedAUR), nil
}

func (b *AURBackend) Find(ctx context.Context, name string) (core.Package, error) {
	p, err := b.manager.FindInstalled(name)
	if err != nil || p == nil {
		return nil, err
	}
	return installedAUR(p), nil
}

func (b *AURBackend) Search(ctx context.Context, query string) ([]core.Package, error) {
	pkgs, err := b.manager.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, remoteAUR), nil
}

func (b *AURBackend) SearchInstall(ctx context.Context, query string) ([]core.Package, error) {
	pkgs, err := b.manager.SearchInstall(ctx, query)
	if err != nil {
		return nil, err
	}
	return wrap(pkgs, remoteAUR), nil
}

func (b *AURBackend) Install(ctx context.Context, pkg core.Package) error {
	p, ok := pkg.(AURPackage)
	if !ok {
		return foreign(core.AUR, pkg)
	}
	return b.manager.Install(ctx, p.Name)
}

func (b *AURBackend) Uninstall(ctx context.Context, pkg core.Package) error {
	p, ok := pkg.(AURPackage)
	if !ok {
		return foreign(core.AUR, pkg)
	}
	return b.manager.Uninstall(ctx, p.Name)
}

func (b *AURBackend) ListUpdates(ctx context.Context) ([]core.Package, error) {
	updates, err := b.manager.ListUpdates(ctx)
	if err != nil {
		return nil, err
	}
	return wrap(updates, func(u *aur.Update) core.Package {
		return AURPackage{Name: u.Name, Version: u.Version, Installed: u.Installed, Remote: u.Package}
	}), nil
}

func (b *AURBackend) CountUpdates(ctx context.Context) (int, error) {
	return countOf(ctx, b)
}

// Update rebuilds every outdated foreign package
func (b *AURBackend) Update(ctx context.Context) error {
	return b.manager.Update(ctx, b.opts.Func(ctx))
}
