package cargo

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/polnio/unipac-features/pkg/platform"
)

// SourceKind tells where an installed crate came from
type SourceKind string

const (
	SourceRegistry SourceKind = "registry"
	SourceSparse   SourceKind = "sparse"
	SourceGit      SourceKind = "git"
	SourcePath     SourceKind = "path"
)

// Source is the parsed "(kind+url#rev)" part of an install key
type Source struct {
	Kind   SourceKind
	URL    string
	Branch string // git only, from ?branch=
	Tag    string // git only, from ?tag=
	Commit string // git only, the installed revision
}

// Package is an installed crate or a crates.io search result
type Package struct {
	Name        string
	Version     string
	Description string
	Repository  string
	Source      *Source
	Bins        []string
}

// HeadFunc resolves the commit a git source currently points at
type HeadFunc func(ctx context.Context, src *Source) (string, error)

// Config configures the Cargo manager
type Config struct {
	Home     string // $CARGO_HOME
	APIURL   string // crates.io API root
	IndexURL string // Sparse index root
	Timeout  time.Duration
	Runner   platform.Runner
	Logger   *log.Logger

	// RemoteHead overrides the git lookup, mainly for tests
	RemoteHead HeadFunc
}

// PackageManager handles Cargo operations
type PackageManager struct {
	config *Config
	client *platform.Client
	runner platform.Runner
	logger *log.Logger
	head   HeadFunc

	// pending is filled by ListUpdates and consumed by Update
	mu      sync.Mutex
	pending []*Package
	cached  bool
}

// crates2 is ~/.cargo/.crates2.json
type crates2 struct {
	Installs map[string]crates2Install `json:"installs"`
}

type crates2Install struct {
	VersionReq *string  `json:"version_req"`
	Bins       []string `json:"bins"`
	Features   []string `json:"features"`
	Profile    string   `json:"profile"`
	Target     string   `json:"target"`
}

// cratesResponse is the body of GET /crates?q=
type cratesResponse struct {
	Crates []apiCrate `json:"crates"`
}

type apiCrate struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Description      *string `json:"description"`
	Repository       *string `json:"repository"`
	MaxVersion       string  `json:"max_version"`
	MaxStableVersion *string `json:"max_stable_version"`
	NewestVersion    string  `json:"newest_version"`
	Downloads        int64   `json:"downloads"`
	ExactMatch       bool    `json:"exact_match"`
}

// indexEntry is one line of a sparse index file
type indexEntry struct {
	Name    string `json:"name"`
	Version string `json:"vers"`
	Yanked  bool   `json:"yanked"`
}
