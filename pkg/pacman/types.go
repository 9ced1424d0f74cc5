package pacman

import (
	"log"
	"sync"

	"github.com/polnio/unipac-features/pkg/platform"
)

// Config configures the Pacman package manager
type Config struct {
	DBPath     string          // Database root (default /var/lib/pacman)
	ConfigFile string          // pacman.conf (default /etc/pacman.conf)
	Runner     platform.Runner // Executes pacman / fakeroot
	Logger     *log.Logger     // Custom logger
}

// PackageManager handles Pacman package operations
type PackageManager struct {
	config *Config
	runner platform.Runner
	logger *log.Logger

	// tempDir creates the throw-away database path used by ListUpdates
	tempDir func() (string, error)

	mu sync.Mutex
	db *Database
}

// PackageInfo contains metadata from a 'desc' file or a .PKGINFO
type PackageInfo struct {
	Name          string
	Version       string
	Base          string
	Description   string
	URL           string
	Architecture  string
	BuildDate     int64
	InstallDate   int64
	Packager      string
	Size          int64  // Download size (CSIZE)
	InstalledSize int64  // ISIZE
	Filename      string // The .pkg.tar.zst filename
	SHA256Sum     string
	License       []string
	Replaces      []string
	Groups        []string
	Depends       []string
	OptDepends    []string
	MakeDepends   []string
	Conflicts     []string
	Provides      []string
	Repository    string // Which repo this came from (core, extra, local)
}

// Database is an in-memory snapshot of the local and sync databases
type Database struct {
	Local     []*PackageInfo
	Repos     []*Repo
	IgnorePkg []string

	local map[string]*PackageInfo
}

// Repo is one parsed sync database
type Repo struct {
	Name     string
	Packages []*PackageInfo

	index map[string]*PackageInfo
}

// Update is a pending upgrade reported by pacman -Qu
type Update struct {
	*PackageInfo
	OldVersion string
}
