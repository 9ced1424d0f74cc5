package cargo

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/blang/semver"
)

// IndexPath returns the sparse index path of a crate:
// 1/a, 2/ab, 3/a/abc, ab/cd/abcd...
func IndexPath(name string) string {
	name = strings.ToLower(name)
	switch len(name) {
	case 0:
		return ""
	case 1:
		return "1/" + name
	case 2:
		return "2/" + name
	case 3:
		return "3/" + name[:1] + "/" + name
	default:
		return name[:2] + "/" + name[2:4] + "/" + name
	}
}

// searchCrates queries the crates.io API
func (pm *PackageManager) searchCrates(ctx context.Context, query string) ([]apiCrate, error) {
	u := fmt.Sprintf("%s/crates?%s", strings.TrimSuffix(pm.config.APIURL, "/"), url.Values{
		"q":        {query},
		"per_page": {"50"},
	}.Encode())

	var resp cratesResponse
	if err := pm.client.GetJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("searching crates.io: %w", err)
	}
	return resp.Crates, nil
}

func (c apiCrate) toPackage() *Package {
	p := &Package{Name: c.Name, Version: c.MaxVersion}
	if c.MaxStableVersion != nil && *c.MaxStableVersion != "" {
		p.Version = *c.MaxStableVersion
	}
	if c.Description != nil {
		p.Description = strings.TrimSpace(*c.Description)
	}
	if c.Repository != nil {
		p.Repository = *c.Repository
	}
	return p
}

// indexVersions fetches every non-yanked version of name from the sparse index
func (pm *PackageManager) indexVersions(ctx context.Context, name string) ([]semver.Version, error) {
	u := strings.TrimSuffix(pm.config.IndexURL, "/") + "/" + IndexPath(name)
	resp, err := pm.client.Get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetching index of %s: %w", name, err)
	}
	defer resp.Body.Close()

	var versions []semver.Version
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var e indexEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil || e.Yanked {
			continue
		}
		if v, err := semver.Parse(e.Version); err == nil {
			versions = append(versions, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading index of %s: %w", name, err)
	}
	return versions, nil
}

// Latest picks the highest version. Prereleases only count when current is
// itself a prerelease.
func Latest(current semver.Version, versions []semver.Version) (semver.Version, bool) {
	var best semver.Version
	found := false
	for _, v := range versions {
		if len(current.Pre) == 0 && len(v.Pre) > 0 {
			continue
		}
		if !found || v.GT(best) {
			best, found = v, true
		}
	}
	return best, found
}
