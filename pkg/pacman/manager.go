// pkg/pacman/manager.go
package pacman

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/platform"
)

var (
	packagesLine  = regexp.MustCompile(`Packages \((\d+)\)`)
	upgradingLine = regexp.MustCompile(`upgrading (\S+)`)
)

func NewPackageManager(cfg *Config) *PackageManager {
	if cfg == nil {
		cfg = &Config{}
	}

	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath
	}
	if cfg.ConfigFile == "" {
		cfg.ConfigFile = DefaultConfigFile
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	runner := cfg.Runner
	if runner == nil {
		runner = platform.NewExecRunner(logger)
	}

	return &PackageManager{
		config: cfg,
		runner: runner,
		logger: logger,
		tempDir: func() (string, error) {
			return os.MkdirTemp("", "unipac-pacman-")
		},
	}
}

// Database loads the local and sync databases once per manager
func (pm *PackageManager) Database() (*Database, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.db != nil {
		return pm.db, nil
	}

	db, err := LoadDatabase(pm.config.DBPath, pm.config.ConfigFile)
	if err != nil {
		return nil, err
	}
	pm.logger.Printf("Loaded %d local packages and %d repositories", len(db.Local), len(db.Repos))
	pm.db = db
	return db, nil
}

// LoadDatabase reads <dbPath>/local and the sync databases of every
// repository configured in confPath. Without configured repositories every
// <dbPath>/sync/*.db is read in name order.
func LoadDatabase(dbPath, confPath string) (*Database, error) {
	conf, err := LoadConf(confPath)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", confPath, err)
	}

	local, err := ParseLocalDatabase(filepath.Join(dbPath, LocalDir))
	if err != nil {
		return nil, err
	}

	repos := conf.Repos
	if len(repos) == 0 {
		matches, _ := filepath.Glob(filepath.Join(dbPath, SyncDir, "*.db"))
		sort.Strings(matches)
		for _, m := range matches {
			repos = append(repos, strings.TrimSuffix(filepath.Base(m), ".db"))
		}
	}

	db := &Database{
		Local:     local,
		IgnorePkg: conf.IgnorePkg,
		local:     make(map[string]*PackageInfo, len(local)),
	}
	for _, p := range local {
		db.local[p.Name] = p
	}

	for _, name := range repos {
		pkgs, err := ParseDatabaseFile(filepath.Join(dbPath, SyncDir, name+".db"))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		repo := &Repo{Name: name, Packages: pkgs, index: make(map[string]*PackageInfo, len(pkgs))}
		for _, p := range pkgs {
			repo.index[p.Name] = p
		}
		db.Repos = append(db.Repos, repo)
	}

	return db, nil
}

// SyncPackage finds name in the first sync database carrying it
func (db *Database) SyncPackage(name string) *PackageInfo {
	for _, r := range db.Repos {
		if p, ok := r.index[name]; ok {
			return p
		}
	}
	return nil
}

// LocalPackage finds an installed package by name
func (db *Database) LocalPackage(name string) *PackageInfo {
	return db.local[name]
}

// Ignored reports whether name matches an IgnorePkg glob
func (db *Database) Ignored(name string) bool {
	return matchAny(db.IgnorePkg, name)
}

// withRepo returns a copy of an installed package tagged with its sync repository
func withRepo(p *PackageInfo, repo string) *PackageInfo {
	cp := *p
	cp.Repository = repo
	return &cp
}

// Installed returns the installed packages known to a sync database
func (pm *PackageManager) Installed() ([]*PackageInfo, error) {
	db, err := pm.Database()
	if err != nil {
		return nil, err
	}
	var pkgs []*PackageInfo
	for _, p := range db.Local {
		if s := db.SyncPackage(p.Name); s != nil {
			pkgs = append(pkgs, withRepo(p, s.Repository))
		}
	}
	return pkgs, nil
}

// Foreign returns the installed packages no sync database knows
func (pm *PackageManager) Foreign() ([]*PackageInfo, error) {
	db, err := pm.Database()
	if err != nil {
		return nil, err
	}
	var pkgs []*PackageInfo
	for _, p := range db.Local {
		if db.SyncPackage(p.Name) == nil {
			pkgs = append(pkgs, p)
		}
	}
	return pkgs, nil
}

// FindInstalled returns the installed, repository-backed package name, or nil
func (pm *PackageManager) FindInstalled(name string) (*PackageInfo, error) {
	db, err := pm.Database()
	if err != nil {
		return nil, err
	}
	p := db.LocalPackage(name)
	if p == nil {
		return nil, nil
	}
	s := db.SyncPackage(name)
	if s == nil {
		return nil, nil
	}
	return withRepo(p, s.Repository), nil
}

// FindForeign returns the installed foreign package name, or nil
func (pm *PackageManager) FindForeign(name string) (*PackageInfo, error) {
	db, err := pm.Database()
	if err != nil {
		return nil, err
	}
	p := db.LocalPackage(name)
	if p == nil || db.SyncPackage(name) != nil {
		return nil, nil
	}
	return p, nil
}

// SearchPackages matches query as a case-insensitive regular expression
// against names and descriptions of every sync database. A query that is not
// a valid expression is matched literally.
func (pm *PackageManager) SearchPackages(query string) ([]*PackageInfo, error) {
	db, err := pm.Database()
	if err != nil {
		return nil, err
	}

	re, err := regexp.Compile("(?i)" + query)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
	}

	var results []*PackageInfo
	for _, r := range db.Repos {
		for _, p := range r.Packages {
			if re.MatchString(p.Name) || re.MatchString(p.Description) {
				results = append(results, p)
			}
		}
	}
	return results, nil
}

// SearchInstall returns the sync packages named query, query-git and
// query-bin, in that order
func (pm *PackageManager) SearchInstall(query string) ([]*PackageInfo, error) {
	db, err := pm.Database()
	if err != nil {
		return nil, err
	}

	var results []*PackageInfo
	for _, suffix := range InstallSuffixes {
		if p := db.SyncPackage(query + suffix); p != nil {
			results = append(results, p)
		}
	}
	return results, nil
}

// Install installs a repository package
func (pm *PackageManager) Install(ctx context.Context, name string) error {
	pm.logger.Printf("Installing %s", name)
	if err := pm.runner.Run(ctx, platform.Cmd("pacman", "--noconfirm", "-S", name)); err != nil {
		return fmt.Errorf("installing %s: %w", name, err)
	}
	pm.invalidate()
	return nil
}

// InstallFile installs a locally built package archive
func (pm *PackageManager) InstallFile(ctx context.Context, path string) error {
	pm.logger.Printf("Installing %s", path)
	if err := pm.runner.Run(ctx, platform.Cmd("pacman", "--noconfirm", "-U", path)); err != nil {
		return fmt.Errorf("installing %s: %w", filepath.Base(path), err)
	}
	pm.invalidate()
	return nil
}

// Remove uninstalls a package
func (pm *PackageManager) Remove(ctx context.Context, name string) error {
	pm.logger.Printf("Removing %s", name)
	if err := pm.runner.Run(ctx, platform.Cmd("pacman", "--noconfirm", "-R", name)); err != nil {
		return fmt.Errorf("removing %s: %w", name, err)
	}
	pm.invalidate()
	return nil
}

func (pm *PackageManager) invalidate() {
	pm.mu.Lock()
	pm.db = nil
	pm.mu.Unlock()
}

// ListUpdates refreshes a throw-away copy of the sync databases (the
// system's are left untouched) and asks pacman which repository packages
// are out of date. Packages matching IgnorePkg are dropped.
func (pm *PackageManager) ListUpdates(ctx context.Context, progress core.ProgressFunc) ([]*Update, error) {
	db, err := pm.Database()
	if err != nil {
		return nil, err
	}

	tmp, err := pm.tempDir()
	if err != nil {
		return nil, fmt.Errorf("creating temporary database: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := os.Symlink(filepath.Join(pm.config.DBPath, LocalDir), filepath.Join(tmp, LocalDir)); err != nil {
		return nil, fmt.Errorf("linking local database: %w", err)
	}

	notify(progress, core.Status("syncing databases"))
	refresh := platform.Cmd("fakeroot", "--", "pacman", "-Sy", "--dbpath", tmp, "--logfile", "/dev/null", "--noconfirm")
	if err := pm.runner.Run(ctx, refresh); err != nil {
		return nil, fmt.Errorf("syncing databases: %w", err)
	}

	out, err := pm.runner.Output(ctx, platform.Cmd("pacman", "-Qun", "--dbpath", tmp))
	if err != nil {
		// pacman -Qu exits 1 when nothing is out of date
		if platform.ExitCode(err) == 1 && len(strings.TrimSpace(string(out))) == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("querying updates: %w", err)
	}

	var updates []*Update
	for _, line := range platform.Lines(out) {
		u := parseUpdateLine(line)
		if u == nil || db.Ignored(u.Name) {
			continue
		}
		if s := db.SyncPackage(u.Name); s != nil {
			info := *s
			info.Version = u.Version
			u.PackageInfo = &info
		}
		updates = append(updates, u)
	}
	return updates, nil
}

// parseUpdateLine parses "name old -> new"
func parseUpdateLine(line string) *Update {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	u := &Update{PackageInfo: &PackageInfo{Name: fields[0]}}
	switch len(fields) {
	case 4:
		u.OldVersion = fields[1]
		u.Version = fields[3]
	case 2:
		u.Version = fields[1]
	}
	return u
}

// Upgrade runs a full system upgrade, reporting "N% name" for every
// package pacman upgrades and a final 100%
func (pm *PackageManager) Upgrade(ctx context.Context, progress core.ProgressFunc) error {
	count, done := 0, 0

	err := pm.runner.Stream(ctx, platform.Cmd("pacman", "--noconfirm", "-Syu"), func(line string) {
		if m := packagesLine.FindStringSubmatch(line); m != nil {
			count, _ = strconv.Atoi(m[1])
			return
		}
		if count == 0 {
			return
		}
		if m := upgradingLine.FindStringSubmatch(line); m != nil {
			notify(progress, core.Percent(done*100/count, strings.TrimSuffix(m[1], "...")))
			done++
		}
	})
	if err != nil {
		return fmt.Errorf("upgrading system: %w", err)
	}
	if done < count {
		return fmt.Errorf("upgrading system: only %d of %d packages upgraded", done, count)
	}

	pm.invalidate()
	notify(progress, core.Percent(100, ""))
	return nil
}

func notify(progress core.ProgressFunc, ev core.Event) {
	if progress != nil {
		progress(ev)
	}
}
