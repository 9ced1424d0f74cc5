// pkg/aur/manager.go
package aur

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/pacman"
	"github.com/polnio/unipac-features/pkg/platform"
)

// ErrNotInAUR is returned when the RPC does not know a package
var ErrNotInAUR = errors.New("package not found in the AUR")

func NewPackageManager(cfg *Config) *PackageManager {
	if cfg == nil {
		cfg = &Config{}
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(os.TempDir(), "unipac", "aur")
	}
	if cfg.BuildUser == "" && os.Geteuid() == 0 {
		// makepkg refuses to run as root
		cfg.BuildUser = os.Getenv("SUDO_USER")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	runner := cfg.Runner
	if runner == nil {
		runner = platform.NewExecRunner(logger)
	}

	pm := cfg.Pacman
	if pm == nil {
		pm = pacman.NewPackageManager(&pacman.Config{Runner: runner, Logger: logger})
	}

	return &PackageManager{
		config: cfg,
		client: NewClient(cfg.URL, cfg.Timeout),
		runner: runner,
		pacman: pm,
		logger: logger,
	}
}

// Client returns the RPC client
func (pm *PackageManager) Client() *Client {
	return pm.client
}

// Installed returns the foreign packages of the local database
func (pm *PackageManager) Installed() ([]*pacman.PackageInfo, error) {
	return pm.pacman.Foreign()
}

// FindInstalled returns the installed foreign package name, or nil
func (pm *PackageManager) FindInstalled(name string) (*pacman.PackageInfo, error) {
	return pm.pacman.FindForeign(name)
}

// Search searches names and descriptions
func (pm *PackageManager) Search(ctx context.Context, query string) ([]Package, error) {
	return pm.client.Search(ctx, query, ByNameDesc)
}

// SearchInstall returns the packages named query, query-bin or query-git
func (pm *PackageManager) SearchInstall(ctx context.Context, query string) ([]Package, error) {
	pkgs, err := pm.client.Search(ctx, query, ByName)
	if err != nil {
		return nil, err
	}

	var out []Package
	for _, p := range pkgs {
		if p.Name == query || p.Name == query+"-bin" || p.Name == query+"-git" {
			out = append(out, p)
		}
	}
	return out, nil
}

// Install builds name from its snapshot with makepkg and installs the
// resulting archive with pacman -U
func (pm *PackageManager) Install(ctx context.Context, name string) error {
	info, err := pm.client.Info(ctx, name)
	if err != nil {
		return err
	}
	if len(info) == 0 {
		return fmt.Errorf("%s: %w", name, ErrNotInAUR)
	}
	pkg := &info[0]

	if err := pm.ensureSnapshot(ctx, pkg.Base()); err != nil {
		return err
	}

	dir := pm.SnapshotDir(pkg.Base())
	build := platform.Cmd("makepkg", "-f", "--noconfirm")
	if pm.config.BuildUser != "" {
		build = platform.Cmd("sudo", "-u", pm.config.BuildUser, "makepkg", "-f", "--noconfirm")
	}
	build.Dir = dir

	pm.logger.Printf("Building %s %s in %s", pkg.Name, pkg.Version, dir)
	if err := pm.runner.Run(ctx, build); err != nil {
		return fmt.Errorf("building %s: %w", name, err)
	}

	file, err := builtPackage(dir, pkg.Name, pkg.Version)
	if err != nil {
		return err
	}
	return pm.pacman.InstallFile(ctx, file)
}

// builtPackage finds the archive makepkg produced for name and checks its
// .PKGINFO matches
func builtPackage(dir, name, version string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, name+"-"+version+"-*.pkg.tar*"))
	if err != nil {
		return "", err
	}
	sort.Strings(matches)

	for _, m := range matches {
		if strings.HasSuffix(m, ".sig") {
			continue
		}
		info, err := pacman.ReadPackageFile(m)
		if err != nil {
			return "", err
		}
		if info.Name != name {
			continue
		}
		return m, nil
	}
	return "", fmt.Errorf("no package archive for %s %s in %s", name, version, dir)
}

// Uninstall removes the package and its cached snapshot
func (pm *PackageManager) Uninstall(ctx context.Context, name string) error {
	if err := pm.pacman.Remove(ctx, name); err != nil {
		return err
	}
	if err := os.RemoveAll(pm.SnapshotDir(name)); err != nil {
		pm.logger.Printf("Failed to remove snapshot of %s: %v", name, err)
	}
	return nil
}

// ListUpdates compares every foreign package with its AUR version. The
// result is kept for the next Update on this instance.
func (pm *PackageManager) ListUpdates(ctx context.Context) ([]*Update, error) {
	db, err := pm.pacman.Database()
	if err != nil {
		return nil, err
	}
	foreign, err := pm.pacman.Foreign()
	if err != nil {
		return nil, err
	}

	installed := make(map[string]string, len(foreign))
	var names []string
	for _, p := range foreign {
		if db.Ignored(p.Name) {
			continue
		}
		installed[p.Name] = p.Version
		names = append(names, p.Name)
	}
	if len(names) == 0 {
		pm.setPending(nil)
		return nil, nil
	}

	remote, err := pm.client.Info(ctx, names...)
	if err != nil {
		pm.clearPending()
		return nil, err
	}

	var updates []*Update
	for i := range remote {
		p := &remote[i]
		local, ok := installed[p.Name]
		if !ok || pacman.Vercmp(local, p.Version) >= 0 {
			continue
		}
		updates = append(updates, &Update{Package: p, Installed: local})
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].Name < updates[j].Name })

	pm.setPending(updates)
	return updates, nil
}

func (pm *PackageManager) setPending(u []*Update) {
	pm.mu.Lock()
	pm.pending, pm.cached = u, true
	pm.mu.Unlock()
}

func (pm *PackageManager) clearPending() {
	pm.mu.Lock()
	pm.pending, pm.cached = nil, false
	pm.mu.Unlock()
}

// takePending returns and clears the cached update list
func (pm *PackageManager) takePending() ([]*Update, bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	u, ok := pm.pending, pm.cached
	pm.pending, pm.cached = nil, false
	return u, ok
}

// Update rebuilds every outdated package, using the list of the last
// ListUpdates when there is one
func (pm *PackageManager) Update(ctx context.Context, progress core.ProgressFunc) error {
	updates, ok := pm.takePending()
	if !ok {
		var err error
		if updates, err = pm.ListUpdates(ctx); err != nil {
			return err
		}
		pm.clearPending()
	}

	notify(progress, core.Percent(0, ""))
	for i, u := range updates {
		if err := pm.Install(ctx, u.Name); err != nil {
			return err
		}
		notify(progress, core.Percent((i+1)*100/len(updates), u.Name))
	}
	notify(progress, core.Percent(100, ""))
	return nil
}

func notify(progress core.ProgressFunc, ev core.Event) {
	if progress != nil {
		progress(ev)
	}
}
