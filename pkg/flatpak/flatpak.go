// Package flatpak drives the flatpak command-line tool.
package flatpak

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/platform"
)

// Columns requested from every listing command, in parse order
const Columns = "name,application,version,branch,description"

// ErrFormat is returned for output lines that do not have every column
var ErrFormat = errors.New("unexpected flatpak output")

// Package is one flatpak ref
type Package struct {
	ID          string
	Name        string
	Version     string
	Branch      string
	Description string
}

// ParsePackage parses a tab-separated line in Columns order
func ParsePackage(line string) (*Package, error) {
	parts := strings.Split(line, "\t")
	if len(parts) < 5 {
		return nil, fmt.Errorf("%w: %q", ErrFormat, line)
	}
	return &Package{
		Name:        strings.TrimSpace(parts[0]),
		ID:          strings.TrimSpace(parts[1]),
		Version:     strings.TrimSpace(parts[2]),
		Branch:      strings.TrimSpace(parts[3]),
		Description: strings.TrimSpace(parts[4]),
	}, nil
}

// ParseList parses the output of a --columns listing, skipping lines that
// are not tab-separated (headers, "No matches found")
func ParseList(out []byte) ([]*Package, error) {
	var pkgs []*Package
	for _, line := range platform.Lines(out) {
		if !strings.Contains(line, "\t") {
			continue
		}
		p, err := ParsePackage(line)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, p)
	}
	return pkgs, nil
}

// Config configures the Flatpak manager
type Config struct {
	User   bool // Install into the per-user installation
	Runner platform.Runner
	Logger *log.Logger
}

// PackageManager handles Flatpak operations
type PackageManager struct {
	config *Config
	runner platform.Runner
	logger *log.Logger

	// pending is filled by ListUpdates and consumed by Update
	mu      sync.Mutex
	pending []*Package
	cached  bool
}

func NewPackageManager(cfg *Config) *PackageManager {
	if cfg == nil {
		cfg = &Config{}
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

func (pm *PackageManager) query(ctx context.Context, args ...string) ([]*Package, error) {
	args = append(args, "--columns="+Columns)
	out, err := pm.runner.Output(ctx, platform.Cmd("flatpak", args...))
	if err != nil {
		return nil, err
	}
	return ParseList(out)
}

// List returns the installed refs
func (pm *PackageManager) List(ctx context.Context) ([]*Package, error) {
	return pm.query(ctx, "list")
}

// Find returns the installed ref whose name equals name or whose
// application ID contains it, ignoring case
func (pm *PackageManager) Find(ctx context.Context, name string) (*Package, error) {
	pkgs, err := pm.List(ctx)
	if err != nil {
		return nil, err
	}
	name = strings.ToLower(name)
	for _, p := range pkgs {
		if strings.ToLower(p.Name) == name || strings.Contains(strings.ToLower(p.ID), name) {
			return p, nil
		}
	}
	return nil, nil
}

// Search searches the configured remotes
func (pm *PackageManager) Search(ctx context.Context, query string) ([]*Package, error) {
	return pm.query(ctx, "search", query)
}

// SearchInstall keeps the search results whose name contains query
func (pm *PackageManager) SearchInstall(ctx context.Context, query string) ([]*Package, error) {
	pkgs, err := pm.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(query)
	var out []*Package
	for _, p := range pkgs {
		if strings.Contains(strings.ToLower(p.Name), query) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Install installs an application by ID
func (pm *PackageManager) Install(ctx context.Context, id string) error {
	args := []string{"install", "--noninteractive"}
	if pm.config.User {
		args = append(args, "--user")
	}
	args = append(args, id)
	if err := pm.runner.Run(ctx, platform.Cmd("flatpak", args...)); err != nil {
		return fmt.Errorf("installing %s: %w", id, err)
	}
	return nil
}

// Uninstall removes an application by ID
func (pm *PackageManager) Uninstall(ctx context.Context, id string) error {
	if err := pm.runner.Run(ctx, platform.Cmd("flatpak", "uninstall", "--noninteractive", id)); err != nil {
		return fmt.Errorf("uninstalling %s: %w", id, err)
	}
	return nil
}

// ListUpdates lists refs with a pending update and keeps the result for
// the next Update
func (pm *PackageManager) ListUpdates(ctx context.Context) ([]*Package, error) {
	pkgs, err := pm.query(ctx, "remote-ls", "--updates")

	pm.mu.Lock()
	defer pm.mu.Unlock()
	if err != nil {
		pm.pending, pm.cached = nil, false
		return nil, err
	}
	pm.pending, pm.cached = pkgs, true
	return pkgs, nil
}

func (pm *PackageManager) takePending() ([]*Package, bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	p, ok := pm.pending, pm.cached
	pm.pending, pm.cached = nil, false
	return p, ok
}

// Update updates every ref, reporting "N% id" as flatpak reaches each
// pending application
func (pm *PackageManager) Update(ctx context.Context, progress core.ProgressFunc) error {
	pending, ok := pm.takePending()
	if !ok {
		var err error
		if pending, err = pm.ListUpdates(ctx); err != nil {
			return err
		}
		pm.takePending()
	}

	seen := make(map[string]bool, len(pending))
	err := pm.runner.Stream(ctx, platform.Cmd("flatpak", "update", "--noninteractive"), func(line string) {
		for _, p := range pending {
			if seen[p.ID] || !strings.Contains(line, p.ID) {
				continue
			}
			notify(progress, core.Percent(len(seen)*100/len(pending), p.ID))
			seen[p.ID] = true
			return
		}
	})
	if err != nil {
		return fmt.Errorf("updating: %w", err)
	}

	notify(progress, core.Percent(100, ""))
	return nil
}

func notify(progress core.ProgressFunc, ev core.Event) {
	if progress != nil {
		progress(ev)
	}
}
