package aur

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/pacman"
	"github.com/polnio/unipac-features/pkg/platform/platformtest"
)

var catalog = map[string]Package{
	"yay":     {Name: "yay", PackageBase: "yay", Version: "12.0-1", Description: "Yet another yogurt"},
	"yay-bin": {Name: "yay-bin", PackageBase: "yay-bin", Version: "12.0-1", Description: "Yet another yogurt (binary)"},
	"yayfoo":  {Name: "yayfoo", PackageBase: "yayfoo", Version: "1.0-1"},
	"paru":    {Name: "paru", PackageBase: "paru", Version: "2.0-1", Description: "Feature packed AUR helper"},
	"ignored": {Name: "ignored", PackageBase: "ignored", Version: "9.0-1"},
}

func tarball(t *testing.T, files map[string][]byte, compress bool) []byte {
	t.Helper()
	var raw bytes.Buffer
	tw := tar.NewWriter(&raw)
	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0644, Size: int64(len(body)), Typeflag: tar.TypeReg}))
		_, err := tw.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	if !compress {
		return raw.Bytes()
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(raw.Bytes())
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func aurServer(t *testing.T) *httptest.Server {
	t.Helper()
	built := tarball(t, map[string][]byte{
		".PKGINFO": []byte("pkgname = yay\npkgver = 12.0-1\n"),
	}, false)

	mux := http.NewServeMux()
	mux.HandleFunc("/rpc/", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "5", q.Get("v"))

		resp := rpcResponse{Version: 5, Type: q.Get("type")}
		switch q.Get("type") {
		case "search":
			arg := q.Get("arg")
			for _, p := range catalog {
				hay := p.Name
				if q.Get("by") == string(ByNameDesc) {
					hay += " " + p.Description
				}
				if strings.Contains(hay, arg) {
					resp.Results = append(resp.Results, p)
				}
			}
		case "info":
			for _, n := range q["arg[]"] {
				if p, ok := catalog[n]; ok {
					resp.Results = append(resp.Results, p)
				}
			}
		default:
			resp = rpcResponse{Type: "error", Error: "Incorrect request type specified."}
		}
		resp.ResultCount = len(resp.Results)
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/cgit/aur.git/snapshot/yay.tar.gz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(tarball(t, map[string][]byte{
			"yay/PKGBUILD":                    []byte("pkgname=yay\npkgver=12.0\n"),
			"yay/yay-12.0-1-x86_64.pkg.tar":   built,
			"yay/yay-debug-12.0-1-x86_64.pkg": []byte("ignored"),
		}, true))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// localDB creates a pacman database root with foreign packages only
func localDB(t *testing.T, pkgs map[string]string) (dbPath, confPath string) {
	t.Helper()
	root := t.TempDir()
	dbPath = filepath.Join(root, "db")
	require.NoError(t, os.MkdirAll(filepath.Join(dbPath, pacman.LocalDir), 0755))
	for name, version := range pkgs {
		dir := filepath.Join(dbPath, pacman.LocalDir, name+"-"+version)
		require.NoError(t, os.MkdirAll(dir, 0755))
		desc := "%NAME%\n" + name + "\n\n%VERSION%\n" + version + "\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "desc"), []byte(desc), 0644))
	}
	confPath = filepath.Join(root, "pacman.conf")
	require.NoError(t, os.WriteFile(confPath, []byte("[options]\nIgnorePkg = ignored\n"), 0644))
	return dbPath, confPath
}

func newTestManager(t *testing.T, runner *platformtest.Runner, installed map[string]string) *PackageManager {
	srv := aurServer(t)
	dbPath, confPath := localDB(t, installed)
	pm := pacman.NewPackageManager(&pacman.Config{DBPath: dbPath, ConfigFile: confPath, Runner: runner})
	return NewPackageManager(&Config{
		URL:       srv.URL,
		CacheDir:  filepath.Join(t.TempDir(), "aur"),
		BuildUser: "builder",
		Runner:    runner,
		Pacman:    pm,
	})
}

func pkgNames(pkgs []Package) []string {
	var out []string
	for _, p := range pkgs {
		out = append(out, p.Name)
	}
	return out
}

func TestSearch(t *testing.T) {
	pm := newTestManager(t, platformtest.New(), nil)
	ctx := context.Background()

	res, err := pm.Search(ctx, "AUR helper")
	require.NoError(t, err)
	assert.Equal(t, []string{"paru"}, pkgNames(res))

	res, err = pm.SearchInstall(ctx, "yay")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"yay", "yay-bin"}, pkgNames(res), "yayfoo is not a suffix variant")
}

func TestInfoUnknownType(t *testing.T) {
	pm := newTestManager(t, platformtest.New(), nil)
	_, err := pm.client.rpc(context.Background(), map[string][]string{"type": {"bogus"}})
	assert.ErrorIs(t, err, ErrRPC)
}

func TestInstall(t *testing.T) {
	runner := platformtest.New()
	pm := newTestManager(t, runner, nil)
	dir := pm.SnapshotDir("yay")
	runner.
		On("sudo -u builder makepkg -f --noconfirm", platformtest.Response{}).
		On("pacman --noconfirm -U "+filepath.Join(dir, "yay-12.0-1-x86_64.pkg.tar"), platformtest.Response{})

	require.NoError(t, pm.Install(context.Background(), "yay"))
	assert.FileExists(t, pm.PkgbuildPath("yay"))

	cmds := runner.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, dir, cmds[0].Dir, "makepkg runs inside the snapshot")

	err := pm.Install(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, ErrNotInAUR)
}

func TestUninstallRemovesSnapshot(t *testing.T) {
	runner := platformtest.New().On("pacman --noconfirm -R paru", platformtest.Response{})
	pm := newTestManager(t, runner, map[string]string{"paru": "2.0-1"})

	require.NoError(t, os.MkdirAll(pm.SnapshotDir("paru"), 0755))
	require.NoError(t, pm.Uninstall(context.Background(), "paru"))
	assert.NoDirExists(t, pm.SnapshotDir("paru"))
}

func TestListUpdates(t *testing.T) {
	pm := newTestManager(t, platformtest.New(), map[string]string{
		"yay":     "11.2-1",
		"paru":    "2.0-1",
		"ignored": "1.0-1",
		"private": "1.0-1",
	})

	installed, err := pm.Installed()
	require.NoError(t, err)
	assert.Len(t, installed, 4)

	updates, err := pm.ListUpdates(context.Background())
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "yay", updates[0].Name)
	assert.Equal(t, "11.2-1", updates[0].Installed)
	assert.Equal(t, "12.0-1", updates[0].Version)
}

func TestUpdateConsumesCache(t *testing.T) {
	runner := platformtest.New()
	pm := newTestManager(t, runner, map[string]string{"yay": "11.2-1"})
	runner.
		On("sudo -u builder makepkg -f --noconfirm", platformtest.Response{}).
		On("pacman --noconfirm -U "+filepath.Join(pm.SnapshotDir("yay"), "yay-12.0-1-x86_64.pkg.tar"), platformtest.Response{})
	ctx := context.Background()

	_, err := pm.ListUpdates(ctx)
	require.NoError(t, err)

	var events []string
	require.NoError(t, pm.Update(ctx, func(ev core.Event) { events = append(events, ev.String()) }))
	assert.Equal(t, []string{"0%", "100% yay", "100%"}, events)

	_, cached := pm.takePending()
	assert.False(t, cached, "update clears the cache")
}

func TestExtractRejectsEscapes(t *testing.T) {
	data := tarball(t, map[string][]byte{"../evil": []byte("x")}, true)
	err := extractTarball(bytes.NewReader(data), t.TempDir())
	assert.ErrorContains(t, err, "unsafe path")
}

// linkTarball writes headers in order; a non-empty Linkname makes a symlink.
func linkTarball(t *testing.T, headers ...tar.Header) []byte {
	t.Helper()
	var raw bytes.Buffer
	tw := tar.NewWriter(&raw)
	for _, h := range headers {
		h.Mode = 0644
		if h.Linkname != "" {
			h.Typeflag = tar.TypeSymlink
		} else {
			h.Typeflag = tar.TypeReg
			h.Size = 1
		}
		require.NoError(t, tw.WriteHeader(&h))
		if h.Typeflag == tar.TypeReg {
			_, err := tw.Write([]byte("x"))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	return raw.Bytes()
}

func TestExtractRejectsLinkEscapes(t *testing.T) {
	outside := t.TempDir()
	for name, data := range map[string][]byte{
		"absolute link": linkTarball(t,
			tar.Header{Name: "pkg/link", Linkname: outside},
			tar.Header{Name: "pkg/link/owned.txt"}),
		"relative link": linkTarball(t,
			tar.Header{Name: "pkg/link", Linkname: "../../" + filepath.Base(outside)},
			tar.Header{Name: "pkg/link/owned.txt"}),
		"climbing chain": linkTarball(t,
			tar.Header{Name: "self", Linkname: "."},
			tar.Header{Name: "up", Linkname: "self/../" + filepath.Base(outside)}),
	} {
		t.Run(name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "snapshot")
			err := extractTarball(bytes.NewReader(data), dest)
			assert.ErrorContains(t, err, "unsafe link")
			assert.NoFileExists(t, filepath.Join(outside, "owned.txt"))
		})
	}
}

func TestExtractRejectsWritesThroughLinks(t *testing.T) {
	dest := t.TempDir()
	data := linkTarball(t,
		tar.Header{Name: "pkg/real/keep"},
		tar.Header{Name: "pkg/link", Linkname: "real"},
		tar.Header{Name: "pkg/link/owned.txt"})
	err := extractTarball(bytes.NewReader(data), dest)
	assert.ErrorContains(t, err, "crosses a link")
	assert.NoFileExists(t, filepath.Join(dest, "pkg", "real", "owned.txt"))
}

func TestExtractKeepsInnerLinks(t *testing.T) {
	dest := t.TempDir()
	data := linkTarball(t,
		tar.Header{Name: "pkg/PKGBUILD"},
		tar.Header{Name: "pkg/alias", Linkname: "PKGBUILD"})
	require.NoError(t, extractTarball(bytes.NewReader(data), dest))
	link, err := os.Readlink(filepath.Join(dest, "pkg", "alias"))
	require.NoError(t, err)
	assert.Equal(t, "PKGBUILD", link)
}
