package pacman

import (
	"archive/tar"
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ParseDatabase parses a Pacman sync database (.db file: a gzip, zstd or xz
// compressed tar holding one <name>-<version>/desc entry per package)
func ParseDatabase(r io.Reader, repoName string) ([]*PackageInfo, error) {
	dr, err := Decompress(r)
	if err != nil {
		return nil, err
	}
	defer dr.Close()

	tarReader := tar.NewReader(dr)
	var packages []*PackageInfo

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar entry: %w", err)
		}

		if !strings.HasSuffix(header.Name, "/desc") {
			continue
		}
		pkg, err := parseDescFile(tarReader)
		if err != nil || pkg.Name == "" {
			continue
		}
		pkg.Repository = repoName
		packages = append(packages, pkg)
	}

	return packages, nil
}

// ParseDatabaseFile opens and parses <path>, naming the repository after the
// file name without its .db extension
func ParseDatabaseFile(path string) ([]*PackageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	repo := strings.TrimSuffix(filepath.Base(path), ".db")
	pkgs, err := ParseDatabase(f, repo)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return pkgs, nil
}

// ParseLocalDatabase reads every <dir>/<entry>/desc of the local database
func ParseLocalDatabase(dir string) ([]*PackageInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading local database: %w", err)
	}

	var packages []*PackageInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		f, err := os.Open(filepath.Join(dir, e.Name(), "desc"))
		if err != nil {
			continue
		}
		pkg, err := parseDescFile(f)
		f.Close()
		if err != nil || pkg.Name == "" {
			continue
		}
		pkg.Repository = RepoLocal
		packages = append(packages, pkg)
	}
	return packages, nil
}

type descField func(pkg *PackageInfo, value string)

func appendTo(field func(*PackageInfo) *[]string) descField {
	return func(pkg *PackageInfo, value string) {
		list := field(pkg)
		*list = append(*list, value)
	}
}

func intField(field func(*PackageInfo) *int64) descField {
	return func(pkg *PackageInfo, value string) {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			*field(pkg) = n
		}
	}
}

// descFields maps the %SECTION% headers of a desc file to the record.
// Unknown sections are skipped.
var descFields = map[string]descField{
	"NAME":        func(p *PackageInfo, v string) { p.Name = v },
	"VERSION":     func(p *PackageInfo, v string) { p.Version = v },
	"BASE":        func(p *PackageInfo, v string) { p.Base = v },
	"DESC":        func(p *PackageInfo, v string) { p.Description = v },
	"URL":         func(p *PackageInfo, v string) { p.URL = v },
	"ARCH":        func(p *PackageInfo, v string) { p.Architecture = v },
	"PACKAGER":    func(p *PackageInfo, v string) { p.Packager = v },
	"SHA256SUM":   func(p *PackageInfo, v string) { p.SHA256Sum = v },
	"FILENAME":    func(p *PackageInfo, v string) { p.Filename = v },
	"BUILDDATE":   intField(func(p *PackageInfo) *int64 { return &p.BuildDate }),
	"INSTALLDATE": intField(func(p *PackageInfo) *int64 { return &p.InstallDate }),
	"CSIZE":       intField(func(p *PackageInfo) *int64 { return &p.Size }),
	"ISIZE":       intField(func(p *PackageInfo) *int64 { return &p.InstalledSize }),
	"SIZE":        intField(func(p *PackageInfo) *int64 { return &p.InstalledSize }), // local db
	"LICENSE":     appendTo(func(p *PackageInfo) *[]string { return &p.License }),
	"GROUPS":      appendTo(func(p *PackageInfo) *[]string { return &p.Groups }),
	"DEPENDS":     appendTo(func(p *PackageInfo) *[]string { return &p.Depends }),
	"OPTDEPENDS":  appendTo(func(p *PackageInfo) *[]string { return &p.OptDepends }),
	"MAKEDEPENDS": appendTo(func(p *PackageInfo) *[]string { return &p.MakeDepends }),
	"CONFLICTS":   appendTo(func(p *PackageInfo) *[]string { return &p.Conflicts }),
	"PROVIDES":    appendTo(func(p *PackageInfo) *[]string { return &p.Provides }),
	"REPLACES":    appendTo(func(p *PackageInfo) *[]string { return &p.Replaces }),
}

// parseDescFile reads a desc file: %SECTION% headers, each followed by
// one value per line up to a blank line
func parseDescFile(r io.Reader) (*PackageInfo, error) {
	pkg := &PackageInfo{}
	var field descField

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			field = nil
		case len(line) > 2 && line[0] == '%' && line[len(line)-1] == '%':
			field = descFields[line[1:len(line)-1]]
		case field != nil:
			field(pkg, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return pkg, nil
}
