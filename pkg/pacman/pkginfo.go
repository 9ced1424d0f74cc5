package pacman

import (
	"archive/tar"
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadPackageFile extracts the metadata of a built .pkg.tar.{zst,xz,gz}
// from its .PKGINFO entry
func ReadPackageFile(path string) (*PackageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dr, err := Decompress(f)
	if err != nil {
		return nil, err
	}
	defer dr.Close()

	tr := tar.NewReader(dr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("%s: no .PKGINFO entry", path)
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		if strings.TrimPrefix(header.Name, "./") == ".PKGINFO" {
			return parsePkgInfo(tr)
		}
	}
}

// parsePkgInfo parses "key = value" lines
func parsePkgInfo(r io.Reader) (*PackageInfo, error) {
	pkg := &PackageInfo{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "pkgname":
			pkg.Name = value
		case "pkgbase":
			pkg.Base = value
		case "pkgver":
			pkg.Version = value
		case "pkgdesc":
			pkg.Description = value
		case "url":
			pkg.URL = value
		case "arch":
			pkg.Architecture = value
		case "packager":
			pkg.Packager = value
		case "builddate":
			pkg.BuildDate, _ = strconv.ParseInt(value, 10, 64)
		case "size":
			pkg.InstalledSize, _ = strconv.ParseInt(value, 10, 64)
		case "license":
			pkg.License = append(pkg.License, value)
		case "group":
			pkg.Groups = append(pkg.Groups, value)
		case "depend":
			pkg.Depends = append(pkg.Depends, value)
		case "optdepend":
			pkg.OptDepends = append(pkg.OptDepends, value)
		case "makedepend":
			pkg.MakeDepends = append(pkg.MakeDepends, value)
		case "conflict":
			pkg.Conflicts = append(pkg.Conflicts, value)
		case "provides":
			pkg.Provides = append(pkg.Provides, value)
		case "replaces":
			pkg.Replaces = append(pkg.Replaces, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if pkg.Name == "" {
		return nil, fmt.Errorf(".PKGINFO has no pkgname")
	}
	return pkg, nil
}
