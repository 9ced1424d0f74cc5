// pkg/cargo/manager.go
package cargo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/blang/semver"
	"golang.org/x/sync/errgroup"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/platform"
)

const (
	DefaultAPIURL   = "https://crates.io/api/v1"
	DefaultIndexURL = "https://index.crates.io"

	// updateChecks bounds concurrent index / git requests
	updateChecks = 8
)

func NewPackageManager(cfg *Config) *PackageManager {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.IndexURL == "" {
		cfg.IndexURL = DefaultIndexURL
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	runner := cfg.Runner
	if runner == nil {
		runner = platform.NewExecRunner(logger)
	}
	head := cfg.RemoteHead
	if head == nil {
		head = RemoteHead
	}

	return &PackageManager{
		config: cfg,
		client: platform.NewClient(cfg.Timeout),
		runner: runner,
		logger: logger,
		head:   head,
	}
}

// List returns the installed crates
func (pm *PackageManager) List() ([]*Package, error) {
	return ReadInstalled(pm.config.Home)
}

// Find returns the installed crate name, or nil
func (pm *PackageManager) Find(name string) (*Package, error) {
	pkgs, err := pm.List()
	if err != nil {
		return nil, err
	}
	for _, p := range pkgs {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, nil
}

// Search searches crates.io
func (pm *PackageManager) Search(ctx context.Context, query string) ([]*Package, error) {
	crates, err := pm.searchCrates(ctx, query)
	if err != nil {
		return nil, err
	}
	pkgs := make([]*Package, 0, len(crates))
	for _, c := range crates {
		pkgs = append(pkgs, c.toPackage())
	}
	return pkgs, nil
}

// SearchInstall returns the crate crates.io flags as an exact match
func (pm *PackageManager) SearchInstall(ctx context.Context, query string) ([]*Package, error) {
	crates, err := pm.searchCrates(ctx, query)
	if err != nil {
		return nil, err
	}
	var pkgs []*Package
	for _, c := range crates {
		if c.ExactMatch {
			pkgs = append(pkgs, c.toPackage())
		}
	}
	return pkgs, nil
}

// Install installs p: a pinned registry version, or the git source it was
// installed from
func (pm *PackageManager) Install(ctx context.Context, p *Package) error {
	args := []string{"install", p.Name}
	if p.Source != nil && p.Source.Kind == SourceGit {
		args = []string{"install", "--git", p.Source.URL}
		if p.Source.Branch != "" {
			args = append(args, "--branch", p.Source.Branch)
		} else if p.Source.Tag != "" {
			args = append(args, "--tag", p.Source.Tag)
		}
		args = append(args, "--force", p.Name)
	} else if p.Version != "" {
		args = append(args, "--version", p.Version)
	}

	if err := pm.runner.Run(ctx, platform.Cmd("cargo", args...)); err != nil {
		return fmt.Errorf("installing %s: %w", p.Name, err)
	}
	return nil
}

// Uninstall removes an installed crate
func (pm *PackageManager) Uninstall(ctx context.Context, name string) error {
	if err := pm.runner.Run(ctx, platform.Cmd("cargo", "uninstall", name)); err != nil {
		return fmt.Errorf("uninstalling %s: %w", name, err)
	}
	return nil
}

// ListUpdates checks registry crates against the sparse index and git
// crates against their remote. Crates that cannot be checked are skipped.
// The result is kept for the next Update.
func (pm *PackageManager) ListUpdates(ctx context.Context) ([]*Package, error) {
	installed, err := pm.List()
	if err != nil {
		pm.setPending(nil, false)
		return nil, err
	}

	results := make([]*Package, len(installed))
	var g errgroup.Group
	g.SetLimit(updateChecks)
	for i, p := range installed {
		g.Go(func() error {
			results[i] = pm.checkUpdate(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	var updates []*Package
	for _, u := range results {
		if u != nil {
			updates = append(updates, u)
		}
	}
	pm.setPending(updates, true)
	return updates, nil
}

// checkUpdate returns the updated package, or nil when p is current or
// cannot be checked
func (pm *PackageManager) checkUpdate(ctx context.Context, p *Package) *Package {
	if p.Source == nil {
		return nil
	}

	switch p.Source.Kind {
	case SourceRegistry, SourceSparse:
		current, err := semver.Parse(p.Version)
		if err != nil {
			return nil
		}
		versions, err := pm.indexVersions(ctx, p.Name)
		if errors.Is(err, platform.ErrNotFound) {
			pm.logger.Printf("Skipping %s: not in the index", p.Name)
			return nil
		}
		if err != nil {
			pm.logger.Printf("Skipping %s: %v", p.Name, err)
			return nil
		}
		latest, ok := Latest(current, versions)
		if !ok || !latest.GT(current) {
			return nil
		}
		u := *p
		u.Version = latest.String()
		return &u

	case SourceGit:
		head, err := pm.head(ctx, p.Source)
		if err != nil {
			pm.logger.Printf("Skipping %s: %v", p.Name, err)
			return nil
		}
		if sameCommit(p.Source.Commit, head) {
			return nil
		}
		u := *p
		src := *p.Source
		src.Commit = head
		u.Source = &src
		return &u
	}
	return nil
}

func (pm *PackageManager) setPending(u []*Package, cached bool) {
	pm.mu.Lock()
	pm.pending, pm.cached = u, cached
	pm.mu.Unlock()
}

func (pm *PackageManager) takePending() ([]*Package, bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	p, ok := pm.pending, pm.cached
	pm.pending, pm.cached = nil, false
	return p, ok
}

// Update reinstalls every outdated crate
func (pm *PackageManager) Update(ctx context.Context, progress core.ProgressFunc) error {
	pending, ok := pm.takePending()
	if !ok {
		var err error
		if pending, err = pm.ListUpdates(ctx); err != nil {
			return err
		}
		pm.takePending()
	}

	for i, p := range pending {
		notify(progress, core.Percent(i*100/len(pending), p.Name))
		if err := pm.Install(ctx, p); err != nil {
			return err
		}
	}
	notify(progress, core.Percent(100, ""))
	return nil
}

func notify(progress core.ProgressFunc, ev core.Event) {
	if progress != nil {
		progress(ev)
	}
}
