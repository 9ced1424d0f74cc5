// pkg/nix/parser.go
package nix

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	nixpath "zombiezen.com/go/nix"
)

// DefaultFlake is searched and installed from when none is configured
const DefaultFlake = "nixpkgs"

// AttrName strips the (legacyPackages|packages).<system>. prefix of an
// attribute path
func AttrName(attrPath string) string {
	parts := strings.SplitN(attrPath, ".", 3)
	if len(parts) == 3 && (parts[0] == "legacyPackages" || parts[0] == "packages") {
		return parts[2]
	}
	return attrPath
}

// SplitName splits a derivation name the way Nix does: the version starts
// at the first dash followed by a non-letter
func SplitName(name string) (pname, version string) {
	for i := 0; i+1 < len(name); i++ {
		if name[i] != '-' {
			continue
		}
		c := name[i+1]
		if !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
			return name[:i], name[i+1:]
		}
	}
	return name, ""
}

// StorePathVersion extracts the version of a /nix/store/<digest>-<name> path
func StorePathVersion(path string) (string, error) {
	sp, err := nixpath.ParseStorePath(path)
	if err != nil {
		return "", err
	}
	_, version := SplitName(sp.Name())
	return version, nil
}

// ParseProfile parses `nix profile list --json` in either format
func ParseProfile(data []byte) ([]*Package, error) {
	var head struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}

	var pkgs []*Package
	if head.Version >= 3 {
		var p profileV3
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parsing profile: %w", err)
		}
		for name, el := range p.Elements {
			pkgs = append(pkgs, fromElement(name, el))
		}
		sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })
		return pkgs, nil
	}

	var p profileV2
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile: %w", err)
	}
	for _, el := range p.Elements {
		pkgs = append(pkgs, fromElement("", el))
	}
	return pkgs, nil
}

func fromElement(name string, el profileElement) *Package {
	p := &Package{
		Name:       name,
		AttrPath:   el.AttrPath,
		Flake:      strings.TrimPrefix(el.OriginalURL, "flake:"),
		StorePaths: el.StorePaths,
		Active:     el.Active,
	}
	if p.Name == "" {
		p.Name = p.Attr()
	}
	for _, sp := range el.StorePaths {
		if v, err := StorePathVersion(sp); err == nil {
			p.Version = v
			break
		}
	}
	return p
}

// ParseSearch parses `nix search --json`, sorted by attribute name
func ParseSearch(data []byte) ([]*Package, error) {
	var results map[string]searchResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("parsing search results: %w", err)
	}

	pkgs := make([]*Package, 0, len(results))
	for attrPath, r := range results {
		pkgs = append(pkgs, &Package{
			Name:        AttrName(attrPath),
			Version:     r.Version,
			AttrPath:    attrPath,
			Description: r.Description,
		})
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].Name < pkgs[j].Name })
	return pkgs, nil
}
