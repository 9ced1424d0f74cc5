package flatpak

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/platform/platformtest"
)

const listOut = "Firefox\torg.mozilla.firefox\t120.0\tstable\tFast, Private & Safe Web Browser\n" +
	"GNOME Builder\torg.gnome.Builder\t45.0\tstable\tIDE for GNOME\n"

func TestParseList(t *testing.T) {
	pkgs, err := ParseList([]byte("No matches found\n" + listOut))
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, Package{
		ID:          "org.mozilla.firefox",
		Name:        "Firefox",
		Version:     "120.0",
		Branch:      "stable",
		Description: "Fast, Private & Safe Web Browser",
	}, *pkgs[0])

	_, err = ParseList([]byte("only\ttwo\n"))
	assert.ErrorIs(t, err, ErrFormat)
}

func TestFind(t *testing.T) {
	runner := platformtest.New().On("flatpak list --columns="+Columns, platformtest.Response{Stdout: listOut})
	pm := NewPackageManager(&Config{Runner: runner})
	ctx := context.Background()

	p, err := pm.Find(ctx, "FIREFOX")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "org.mozilla.firefox", p.ID)

	p, err = pm.Find(ctx, "builder")
	require.NoError(t, err)
	require.NotNil(t, p, "IDs match by containment")
	assert.Equal(t, "GNOME Builder", p.Name)

	p, err = pm.Find(ctx, "chromium")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestSearchInstall(t *testing.T) {
	out := "Firefox\torg.mozilla.firefox\t120.0\tstable\tBrowser\n" +
		"Tor Browser\tcom.github.micahflee.torbrowser-launcher\t0.3\tstable\tFirefox based\n"
	runner := platformtest.New().On("flatpak search firefox --columns="+Columns, platformtest.Response{Stdout: out})
	pm := NewPackageManager(&Config{Runner: runner})

	all, err := pm.Search(context.Background(), "firefox")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pkgs, err := pm.SearchInstall(context.Background(), "firefox")
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "Firefox", pkgs[0].Name)
}

func TestInstallUserFlag(t *testing.T) {
	runner := platformtest.New().
		On("flatpak install --noninteractive --user org.gnome.Builder", platformtest.Response{}).
		On("flatpak uninstall --noninteractive org.gnome.Builder", platformtest.Response{})
	pm := NewPackageManager(&Config{User: true, Runner: runner})

	require.NoError(t, pm.Install(context.Background(), "org.gnome.Builder"))
	require.NoError(t, pm.Uninstall(context.Background(), "org.gnome.Builder"))
}

func TestUpdateUsesCachedList(t *testing.T) {
	updateOut := "Looking for updates…\n" +
		" 1.\t[✓] org.mozilla.firefox\tstable\tu\tflathub\n" +
		" 2.\t[✓] org.gnome.Builder\tstable\tu\tflathub\n" +
		"Updates complete.\n"
	runner := platformtest.New().
		On("flatpak remote-ls --updates --columns="+Columns, platformtest.Response{Stdout: listOut}).
		On("flatpak update --noninteractive", platformtest.Response{Stdout: updateOut})
	pm := NewPackageManager(&Config{Runner: runner})
	ctx := context.Background()

	updates, err := pm.ListUpdates(ctx)
	require.NoError(t, err)
	assert.Len(t, updates, 2)

	var events []string
	require.NoError(t, pm.Update(ctx, func(ev core.Event) { events = append(events, ev.String()) }))
	assert.Equal(t, []string{"0% org.mozilla.firefox", "50% org.gnome.Builder", "100%"}, events)

	assert.Equal(t, []string{
		"flatpak remote-ls --updates --columns=" + Columns,
		"flatpak update --noninteractive",
	}, runner.Calls(), "the cached list is not recomputed")
}
