package hooks

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polnio/unipac-features/internal/prompt"
	"github.com/polnio/unipac-features/pkg/backend"
	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/snap"
)

func snapshot(t *testing.T, base string) []byte {
	t.Helper()
	var raw bytes.Buffer
	tw := tar.NewWriter(&raw)
	body := []byte("pkgname=" + base + "\npkgver=1\n")
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: base + "/", Mode: 0755, Typeflag: tar.TypeDir}))
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: base + "/PKGBUILD", Mode: 0644, Size: int64(len(body)), Typeflag: tar.TypeReg}))
	_, err := tw.Write(body)
	require.NoError(t, err)
	require.NoError(t, tw.Close())

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err = gz.Write(raw.Bytes())
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

type opened struct {
	mu    sync.Mutex
	calls []string
}

func (o *opened) open(_ context.Context, program, path string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, program+" "+filepath.Base(filepath.Dir(path))+"/"+filepath.Base(path))
	return nil
}

func testEnv(t *testing.T, input string, interactive bool) (*Env, *opened, string) {
	t.Helper()
	tarballs := map[string][]byte{
		"paru": snapshot(t, "paru"),
		"yay":  snapshot(t, "yay"),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/cgit/aur.git/snapshot/", func(w http.ResponseWriter, r *http.Request) {
		body, ok := tarballs[strings.TrimSuffix(filepath.Base(r.URL.Path), ".tar.gz")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := core.DefaultConfig()
	cfg.CachePath = t.TempDir()
	cfg.AUR.URL = srv.URL
	cfg.Pacman.DBPath = t.TempDir()

	o := &opened{}
	env := &Env{
		Options: core.Options{Config: cfg},
		Prompt:  prompt.New(strings.NewReader(input), &bytes.Buffer{}, interactive),
		Editor:  "vim",
		Open:    o.open,
	}
	return env, o, filepath.Join(cfg.CachePath, "aur")
}

func TestSetFallsBackToNoop(t *testing.T) {
	env, _, _ := testEnv(t, "", false)
	s := New(env)
	assert.Equal(t, Noop{}, s.For(core.Pacman))
	assert.IsType(t, &aurHook{}, s.For(core.AUR))

	s.Override(core.Pacman, Noop{})
	assert.NoError(t, s.For(core.Pacman).PreInstall(context.Background(), nil))
}

func TestAURPreInstallNonInteractive(t *testing.T) {
	env, o, cache := testEnv(t, "", false)
	h := New(env).For(core.AUR)

	err := h.PreInstall(context.Background(), backend.AURPackage{Name: "yay", Version: "12.0-1"})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cache, "yay", "PKGBUILD"))
	assert.Empty(t, o.calls)
}

func TestAURPreInstallShowThenCancel(t *testing.T) {
	env, o, _ := testEnv(t, "y\nn\n", true)
	h := New(env).For(core.AUR)

	err := h.PreInstall(context.Background(), backend.AURPackage{Name: "yay"})
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, []string{"vim yay/PKGBUILD"}, o.calls)
}

func TestAURPreInstallShowThenInstall(t *testing.T) {
	env, o, _ := testEnv(t, "y\n\n", true)
	env.Editor = ""
	h := New(env).For(core.AUR)

	require.NoError(t, h.PreInstall(context.Background(), backend.AURPackage{Name: "paru"}))
	assert.Equal(t, []string{"less paru/PKGBUILD"}, o.calls)
}

func TestAURPreInstallReadFailure(t *testing.T) {
	env, _, _ := testEnv(t, "", true)
	h := New(env).For(core.AUR)

	err := h.PreInstall(context.Background(), backend.AURPackage{Name: "yay"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCancelled)
}

func TestAURPreUpdate(t *testing.T) {
	env, o, cache := testEnv(t, "n\ny\n", true)
	h := New(env).For(core.AUR)

	pkgs := []core.Package{
		backend.AURPackage{Name: "paru", Version: "2.0.1-1", Installed: "2.0.0-1"},
		backend.AURPackage{Name: "yay", Version: "12.1-1", Installed: "12.0-1"},
	}
	require.NoError(t, h.PreUpdate(context.Background(), pkgs))

	for _, base := range []string{"paru", "yay"} {
		_, err := os.Stat(filepath.Join(cache, base, "PKGBUILD"))
		assert.NoError(t, err, base)
	}
	assert.Equal(t, []string{"less yay/PKGBUILD"}, o.calls)
}

func TestAURHookRejectsForeignPackages(t *testing.T) {
	env, _, _ := testEnv(t, "", false)
	h := New(env).For(core.AUR)

	err := h.PreInstall(context.Background(), backend.SnapPackage{Package: &snap.Package{Name: "core"}})
	assert.ErrorIs(t, err, core.ErrForeignPackage)
}
