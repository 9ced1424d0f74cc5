package platform

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/registry"
)

func TestCommandString(t *testing.T) {
	assert.Equal(t, "snap", Cmd("snap").String())
	assert.Equal(t, "pacman --noconfirm -S vim", Cmd("pacman", "--noconfirm", "-S", "vim").String())
}

func TestLines(t *testing.T) {
	out := []byte("a\tb\r\n\n   \nc\n")
	assert.Equal(t, []string{"a\tb", "c"}, Lines(out))
}

func TestExitCode(t *testing.T) {
	err := &CommandError{Command: "x", ExitCode: 3, Err: errors.New("boom")}
	assert.Equal(t, 3, ExitCode(err))
	assert.Equal(t, -1, ExitCode(errors.New("plain")))
	assert.Contains(t, err.Error(), "x: boom")
}

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	r := NewExecRunner(nil)
	ctx := context.Background()

	out, err := r.Output(ctx, Cmd("sh", "-c", "echo hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))

	err = r.Run(ctx, Cmd("sh", "-c", "echo oops >&2; exit 4"))
	require.Error(t, err)
	assert.Equal(t, 4, ExitCode(err))
	assert.Contains(t, err.Error(), "oops")

	var lines []string
	err = r.Stream(ctx, Cmd("sh", "-c", "printf 'one\\ntwo\\n'"), func(l string) { lines = append(lines, l) })
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, lines)
}

func TestDetect(t *testing.T) {
	reg := registry.New()
	factory := func(core.Options) (core.Backend, error) { return nil, nil }
	reg.Register(registry.Descriptor{ID: core.Snap, Binary: "definitely-not-a-real-binary-xyz", New: factory})
	reg.Register(registry.Descriptor{ID: core.Cargo, New: factory})

	p := Detect(reg)
	require.Len(t, p.Backends, 2)
	assert.Equal(t, core.Snap, p.Backends[0].ID)
	assert.False(t, p.Backends[0].Available)
	assert.True(t, p.Backends[1].Available)
	assert.Equal(t, []core.ID{core.Cargo}, p.Available())
}

func TestClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.json":
			assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
			w.Write([]byte(`{"name":"ripgrep"}`))
		case "/broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)
	ctx := context.Background()

	var v struct{ Name string }
	require.NoError(t, c.GetJSON(ctx, srv.URL+"/ok.json", &v))
	assert.Equal(t, "ripgrep", v.Name)

	var buf strings.Builder
	require.NoError(t, c.Download(ctx, srv.URL+"/ok.json", &buf))
	assert.Contains(t, buf.String(), "ripgrep")

	err := c.Download(ctx, srv.URL+"/missing", &buf)
	assert.ErrorIs(t, err, ErrNotFound)

	err = c.GetJSON(ctx, srv.URL+"/broken", &v)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "unexpected status 502")
}
