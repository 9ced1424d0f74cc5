package pacman

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// Conf is the subset of pacman.conf unipac needs
type Conf struct {
	DBPath    string
	IgnorePkg []string
	Repos     []string // In file order, [options] excluded
}

// ParseConf reads pacman.conf. Include directives are not followed: they
// only carry mirror servers.
func ParseConf(r io.Reader) (*Conf, error) {
	conf := &Conf{}
	section := ""

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			if section != "options" && section != "" {
				conf.Repos = append(conf.Repos, section)
			}
			continue
		}

		if section != "options" {
			continue
		}

		key, value, _ := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "DBPath":
			conf.DBPath = strings.TrimSuffix(value, "/")
		case "IgnorePkg":
			conf.IgnorePkg = append(conf.IgnorePkg, strings.Fields(value)...)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading pacman.conf: %w", err)
	}
	return conf, nil
}

// LoadConf parses the file at p. A missing file yields an empty Conf.
func LoadConf(p string) (*Conf, error) {
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return &Conf{}, nil
		}
		return nil, err
	}
	defer f.Close()
	return ParseConf(f)
}

// Ignored reports whether name matches one of the IgnorePkg globs
func (c *Conf) Ignored(name string) bool {
	return matchAny(c.IgnorePkg, name)
}

func matchAny(globs []string, name string) bool {
	for _, g := range globs {
		if ok, _ := path.Match(g, name); ok {
			return true
		}
	}
	return false
}
