package aur

import (
	"log"
	"sync"
	"time"

	"github.com/polnio/unipac-features/pkg/pacman"
	"github.com/polnio/unipac-features/pkg/platform"
)

// Config configures the AUR package manager
type Config struct {
	URL       string          // AUR base URL (default https://aur.archlinux.org)
	CacheDir  string          // Snapshot directory, one sub-directory per package base
	BuildUser string          // User makepkg runs as when unipac runs as root
	Timeout   time.Duration   // RPC timeout
	Runner    platform.Runner // Executes makepkg / pacman
	Pacman    *pacman.PackageManager
	Logger    *log.Logger
}

// PackageManager handles AUR package operations
type PackageManager struct {
	config *Config
	client *Client
	runner platform.Runner
	pacman *pacman.PackageManager
	logger *log.Logger

	// pending is the update list computed by ListUpdates and consumed by
	// Update; it never outlives this instance
	mu      sync.Mutex
	pending []*Update
	cached  bool
}

// Package is an AUR RPC package record
type Package struct {
	ID             int      `json:"ID"`
	Name           string   `json:"Name"`
	PackageBase    string   `json:"PackageBase"`
	Version        string   `json:"Version"`
	Description    string   `json:"Description"`
	URL            string   `json:"URL"`
	NumVotes       int      `json:"NumVotes"`
	Popularity     float64  `json:"Popularity"`
	OutOfDate      *int64   `json:"OutOfDate"`
	Maintainer     string   `json:"Maintainer"`
	FirstSubmitted int64    `json:"FirstSubmitted"`
	LastModified   int64    `json:"LastModified"`
	URLPath        string   `json:"URLPath"`
	Depends        []string `json:"Depends"`
	MakeDepends    []string `json:"MakeDepends"`
}

// Base returns the package base, which names the snapshot
func (p *Package) Base() string {
	if p.PackageBase != "" {
		return p.PackageBase
	}
	return p.Name
}

// Update is a foreign package with a newer AUR version
type Update struct {
	*Package
	Installed string
}

// rpcResponse is the AUR RPC v5 envelope
type rpcResponse struct {
	Version     int       `json:"version"`
	Type        string    `json:"type"`
	ResultCount int       `json:"resultcount"`
	Results     []Package `json:"results"`
	Error       string    `json:"error"`
}

// SearchBy selects the RPC search field
type SearchBy string

const (
	ByName     SearchBy = "name"
	ByNameDesc SearchBy = "name-desc"
)
