// pkg/nix/manager.go
package nix

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/platform"
)

// NewPackageManager creates a new Nix package manager
func NewPackageManager(cfg *Config) *PackageManager {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Flake == "" {
		cfg.Flake = DefaultFlake
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	runner := cfg.Runner
	if runner == nil {
		runner = platform.NewExecRunner(logger)
	}

	return &PackageManager{config: cfg, runner: runner, logger: logger}
}

// List returns the elements of the user profile
func (pm *PackageManager) List(ctx context.Context) ([]*Package, error) {
	out, err := pm.runner.Output(ctx, platform.Cmd("nix", "profile", "list", "--json"))
	if err != nil {
		return nil, err
	}
	return ParseProfile(out)
}

// Find returns the profile element named name, or nil
func (pm *PackageManager) Find(ctx context.Context, name string) (*Package, error) {
	pkgs, err := pm.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range pkgs {
		if p.Name == name || p.Attr() == name {
			return p, nil
		}
	}
	return nil, nil
}

// Search searches the configured flake
func (pm *PackageManager) Search(ctx context.Context, query string) ([]*Package, error) {
	out, err := pm.runner.Output(ctx, platform.Cmd("nix", "search", pm.config.Flake, query, "--json"))
	if err != nil {
		return nil, err
	}
	pkgs, err := ParseSearch(out)
	if err != nil {
		return nil, err
	}
	for _, p := range pkgs {
		p.Flake = pm.config.Flake
	}
	return pkgs, nil
}

// SearchInstall returns the search result whose attribute is exactly query
func (pm *PackageManager) SearchInstall(ctx context.Context, query string) ([]*Package, error) {
	pkgs, err := pm.Search(ctx, "^"+query+"$")
	if err != nil {
		return nil, err
	}
	for _, p := range pkgs {
		if p.Name == query {
			return []*Package{p}, nil
		}
	}
	return nil, nil
}

func (pm *PackageManager) installable(p *Package) string {
	flake := p.Flake
	if flake == "" {
		flake = pm.config.Flake
	}
	return flake + "#" + p.Attr()
}

// Install adds a package to the profile
func (pm *PackageManager) Install(ctx context.Context, p *Package) error {
	ref := pm.installable(p)
	if err := pm.runner.Run(ctx, platform.Cmd("nix", "profile", "install", ref)); err != nil {
		return fmt.Errorf("installing %s: %w", ref, err)
	}
	return nil
}

// Uninstall removes a profile element by name
func (pm *PackageManager) Uninstall(ctx context.Context, p *Package) error {
	if err := pm.runner.Run(ctx, platform.Cmd("nix", "profile", "remove", p.Name)); err != nil {
		return fmt.Errorf("removing %s: %w", p.Name, err)
	}
	return nil
}

// ListUpdates evaluates the current version of every flake-installed
// element and reports those that differ. The result is kept for the next
// Update.
func (pm *PackageManager) ListUpdates(ctx context.Context) ([]*Package, error) {
	pkgs, err := pm.List(ctx)
	if err != nil {
		pm.setPending(nil, false)
		return nil, err
	}

	var updates []*Package
	for _, p := range pkgs {
		if p.AttrPath == "" || p.Version == "" {
			continue
		}
		out, err := pm.runner.Output(ctx, platform.Cmd("nix", "eval", "--raw", pm.installable(p)+".version"))
		if err != nil {
			pm.logger.Printf("Skipping %s: %v", p.Name, err)
			continue
		}
		latest := strings.TrimSpace(string(out))
		if latest == "" || latest == p.Version {
			continue
		}
		u := *p
		u.Version = latest
		updates = append(updates, &u)
	}

	pm.setPending(updates, true)
	return updates, nil
}

func (pm *PackageManager) setPending(u []*Package, cached bool) {
	pm.mu.Lock()
	pm.pending, pm.cached = u, cached
	pm.mu.Unlock()
}

// Pending returns and clears the list cached by ListUpdates
func (pm *PackageManager) Pending() ([]*Package, bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	p, ok := pm.pending, pm.cached
	pm.pending, pm.cached = nil, false
	return p, ok
}

// Update upgrades every profile element, forwarding nix's status lines
func (pm *PackageManager) Update(ctx context.Context, progress core.ProgressFunc) error {
	pm.Pending()

	err := pm.runner.Stream(ctx, platform.Cmd("nix", "profile", "upgrade", "--all"), func(line string) {
		if line = strings.TrimSpace(line); line != "" && progress != nil {
			progress(core.Status(line))
		}
	})
	if err != nil {
		return fmt.Errorf("upgrading profile: %w", err)
	}
	if progress != nil {
		progress(core.Percent(100, ""))
	}
	return nil
}
