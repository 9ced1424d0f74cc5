// pkg/nix/types.go
package nix

import (
	"log"
	"sync"

	"github.com/polnio/unipac-features/pkg/platform"
)

// Package is an element of the user profile or a search result
type Package struct {
	Name        string   // Profile element name (v3) or attribute name
	Version     string   // Derived from the first store path
	AttrPath    string   // e.g. legacyPackages.x86_64-linux.hello
	Flake       string   // Flake the element was installed from
	Description string   // Search results only
	StorePaths  []string // Profile elements only
	Active      bool
}

// Attr returns the attribute name without the packages.<system> prefix
func (p *Package) Attr() string {
	return AttrName(p.AttrPath)
}

// Config configures the Nix manager
type Config struct {
	Flake  string // Flake searched and installed from (default nixpkgs)
	Runner platform.Runner
	Logger *log.Logger
}

// PackageManager handles Nix profile operations
type PackageManager struct {
	config *Config
	runner platform.Runner
	logger *log.Logger

	// pending is filled by ListUpdates and consumed by Update
	mu      sync.Mutex
	pending []*Package
	cached  bool
}

// profileV2 is `nix profile list --json` before Nix 2.20
type profileV2 struct {
	Version  int              `json:"version"`
	Elements []profileElement `json:"elements"`
}

// profileV3 is `nix profile list --json` from Nix 2.20 on
type profileV3 struct {
	Version  int                       `json:"version"`
	Elements map[string]profileElement `json:"elements"`
}

type profileElement struct {
	Active      bool     `json:"active"`
	AttrPath    string   `json:"attrPath"`
	OriginalURL string   `json:"originalUrl"`
	URL         string   `json:"url"`
	StorePaths  []string `json:"storePaths"`
	Priority    int      `json:"priority"`
}

// searchResult is one value of `nix search --json`
type searchResult struct {
	Pname       string `json:"pname"`
	Version     string `json:"version"`
	Description string `json:"description"`
}
