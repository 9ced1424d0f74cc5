package snap

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/platform"
)

// Package is one snap as printed by snap list, find or refresh --list
type Package struct {
	Name      string
	Version   string
	Revision  string
	Tracking  string
	Publisher string
	Notes     string
	Summary   string
}

// ParseTable parses snap's column-aligned tables. Column boundaries are
// taken from the header line; cells are cut at those positions, counted in
// runes so publisher check marks do not shift later columns.
func ParseTable(out []byte) []*Package {
	lines := platform.Lines(out)
	if len(lines) < 2 {
		return nil
	}

	header := lines[0]
	var names []string
	var starts []int
	inWord := false
	for i, r := range []rune(header) {
		if r != ' ' && !inWord {
			starts = append(starts, i)
		}
		inWord = r != ' '
	}
	for _, f := range strings.Fields(header) {
		names = append(names, strings.ToLower(f))
	}
	if len(names) != len(starts) || len(names) == 0 || names[0] != "name" {
		return nil
	}

	var pkgs []*Package
	for _, line := range lines[1:] {
		row := []rune(line)
		p := &Package{}
		for i, col := range names {
			if starts[i] >= len(row) {
				break
			}
			end := len(row)
			if i+1 < len(starts) && starts[i+1] < end {
				end = starts[i+1]
			}
			cell := strings.TrimSpace(string(row[starts[i]:end]))
			switch col {
			case "name":
				p.Name = cell
			case "version":
				p.Version = cell
			case "rev":
				p.Revision = cell
			case "tracking":
				p.Tracking = cell
			case "publisher":
				p.Publisher = cell
			case "notes":
				p.Notes = cell
			case "summary":
				p.Summary = cell
			}
		}
		if p.Name != "" {
			pkgs = append(pkgs, p)
		}
	}
	return pkgs
}

// Config configures the Snap manager
type Config struct {
	Runner platform.Runner
	Logger *log.Logger
}

// PackageManager handles Snap operations
type PackageManager struct {
	runner platform.Runner
	logger *log.Logger
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
	return &PackageManager{runner: runner, logger: logger}
}

func (pm *PackageManager) table(ctx context.Context, args ...string) ([]*Package, error) {
	out, err := pm.runner.Output(ctx, platform.Cmd("snap", args...))
	if err != nil {
		return nil, err
	}
	return ParseTable(out), nil
}

// List returns the installed snaps
func (pm *PackageManager) List(ctx context.Context) ([]*Package, error) {
	return pm.table(ctx, "list")
}

// Find returns the installed snap named name (case-insensitive), or nil
func (pm *PackageManager) Find(ctx context.Context, name string) (*Package, error) {
	pkgs, err := pm.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range pkgs {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, nil
}

// Search queries the store
func (pm *PackageManager) Search(ctx context.Context, query string) ([]*Package, error) {
	out, err := pm.runner.Output(ctx, platform.Cmd("snap", "find", query))
	if err != nil {
		// snap find exits non-zero when nothing matches
		if len(platform.Lines(out)) == 0 && platform.ExitCode(err) > 0 {
			return nil, nil
		}
		return nil, err
	}
	return ParseTable(out), nil
}

// SearchInstall returns the store snap named exactly query
func (pm *PackageManager) SearchInstall(ctx context.Context, query string) ([]*Package, error) {
	pkgs, err := pm.Search(ctx, query)
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

// Install installs a snap
func (pm *PackageManager) Install(ctx context.Context, name string) error {
	if err := pm.runner.Run(ctx, platform.Cmd("snap", "install", name)); err != nil {
		return fmt.Errorf("installing %s: %w", name, err)
	}
	return nil
}

// Uninstall removes a snap
func (pm *PackageManager) Uninstall(ctx context.Context, name string) error {
	if err := pm.runner.Run(ctx, platform.Cmd("snap", "remove", name)); err != nil {
		return fmt.Errorf("removing %s: %w", name, err)
	}
	return nil
}

// ListUpdates lists snaps with a pending refresh
func (pm *PackageManager) ListUpdates(ctx context.Context) ([]*Package, error) {
	return pm.table(ctx, "refresh", "--list")
}

// Update refreshes every snap, forwarding snap's output as status
func (pm *PackageManager) Update(ctx context.Context, progress core.ProgressFunc) error {
	err := pm.runner.Stream(ctx, platform.Cmd("snap", "refresh"), func(line string) {
		if line = strings.TrimSpace(line); line != "" && progress != nil {
			progress(core.Status(line))
		}
	})
	if err != nil {
		return fmt.Errorf("refreshing: %w", err)
	}
	if progress != nil {
		progress(core.Percent(100, ""))
	}
	return nil
}
