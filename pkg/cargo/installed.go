package cargo

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// ErrNoInstallRecord is returned when neither install record exists
var ErrNoInstallRecord = errors.New("no cargo install record")

// ParseInstallKey parses "name version (source)"
func ParseInstallKey(key string) (*Package, error) {
	parts := strings.SplitN(key, " ", 3)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid install key %q", key)
	}
	p := &Package{Name: parts[0], Version: parts[1]}
	if len(parts) == 3 {
		raw := strings.TrimSuffix(strings.TrimPrefix(parts[2], "("), ")")
		src, err := ParseSource(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid install key %q: %w", key, err)
		}
		p.Source = src
	}
	return p, nil
}

// ParseSource parses a cargo source id such as
// "registry+https://github.com/rust-lang/crates.io-index" or
// "git+https://github.com/o/r?branch=main#0123abcd"
func ParseSource(s string) (*Source, error) {
	kind, rest, ok := strings.Cut(s, "+")
	if !ok {
		return nil, fmt.Errorf("missing kind in source %q", s)
	}

	src := &Source{Kind: SourceKind(kind)}
	switch src.Kind {
	case SourceRegistry, SourceSparse, SourcePath:
		src.URL = rest
	case SourceGit:
		rest, commit, _ := strings.Cut(rest, "#")
		src.Commit = commit
		u, err := url.Parse(rest)
		if err != nil {
			return nil, err
		}
		q := u.Query()
		src.Branch = q.Get("branch")
		src.Tag = q.Get("tag")
		u.RawQuery = ""
		src.URL = u.String()
	default:
		return nil, fmt.Errorf("unknown source kind %q", kind)
	}
	return src, nil
}

func (s *Source) String() string {
	if s == nil {
		return ""
	}
	if s.Kind == SourceGit && s.Commit != "" {
		return fmt.Sprintf("git+%s#%s", s.URL, s.Commit)
	}
	return string(s.Kind) + "+" + s.URL
}

// ReadInstalled reads <home>/.crates2.json, falling back to the older
// <home>/.crates.toml
func ReadInstalled(home string) ([]*Package, error) {
	pkgs, err := readCrates2(filepath.Join(home, ".crates2.json"))
	if err == nil {
		return pkgs, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	pkgs, err = readCratesToml(filepath.Join(home, ".crates.toml"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", home, ErrNoInstallRecord)
	}
	return pkgs, err
}

func readCrates2(path string) ([]*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc crates2
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	pkgs := make([]*Package, 0, len(doc.Installs))
	for key, install := range doc.Installs {
		p, err := ParseInstallKey(key)
		if err != nil {
			return nil, err
		}
		p.Bins = install.Bins
		pkgs = append(pkgs, p)
	}
	sortPackages(pkgs)
	return pkgs, nil
}

func readCratesToml(path string) ([]*Package, error) {
	var doc struct {
		V1 map[string][]string `toml:"v1"`
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, err
	}

	pkgs := make([]*Package, 0, len(doc.V1))
	for key, bins := range doc.V1 {
		p, err := ParseInstallKey(key)
		if err != nil {
			return nil, err
		}
		p.Bins = bins
		pkgs = append(pkgs, p)
	}
	sortPackages(pkgs)
	return pkgs, nil
}

func sortPackages(pkgs []*Package) {
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })
}
