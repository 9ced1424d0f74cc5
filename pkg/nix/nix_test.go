package nix

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/platform/platformtest"
)

const (
	helloPath = "/nix/store/s66mzxpvicwk07gjbjfw9izjfa797vsw-hello-2.12.1"
	rgPath    = "/nix/store/1bc7ddd6anaj0fw6bvvisgv5nbf3j6xk-ripgrep-14.1.0"
)

const profileV2JSON = `{"version":2,"elements":[
 {"active":true,"attrPath":"legacyPackages.x86_64-linux.hello","originalUrl":"flake:nixpkgs","priority":5,
  "storePaths":["` + helloPath + `"],"url":"github:NixOS/nixpkgs/abc"},
 {"active":true,"attrPath":"legacyPackages.x86_64-linux.ripgrep","originalUrl":"flake:nixpkgs","priority":5,
  "storePaths":["` + rgPath + `"],"url":"github:NixOS/nixpkgs/abc"}
]}`

const profileV3JSON = `{"version":3,"elements":{
 "ripgrep":{"active":true,"attrPath":"legacyPackages.x86_64-linux.ripgrep","originalUrl":"flake:nixpkgs","priority":5,"storePaths":["` + rgPath + `"]},
 "hello":{"active":true,"attrPath":"legacyPackages.x86_64-linux.hello","originalUrl":"flake:nixpkgs","priority":5,"storePaths":["` + helloPath + `"]}
}}`

func TestSplitName(t *testing.T) {
	tests := []struct{ in, pname, version string }{
		{"hello-2.12.1", "hello", "2.12.1"},
		{"gnome-shell-45.2", "gnome-shell", "45.2"},
		{"python3.11-requests-2.31.0", "python3.11-requests", "2.31.0"},
		{"bash-interactive", "bash-interactive", ""},
	}
	for _, tt := range tests {
		pname, version := SplitName(tt.in)
		assert.Equal(t, tt.pname, pname, tt.in)
		assert.Equal(t, tt.version, version, tt.in)
	}
}

func TestAttrName(t *testing.T) {
	assert.Equal(t, "hello", AttrName("legacyPackages.x86_64-linux.hello"))
	assert.Equal(t, "python3Packages.requests", AttrName("legacyPackages.aarch64-darwin.python3Packages.requests"))
	assert.Equal(t, "default", AttrName("packages.x86_64-linux.default"))
	assert.Equal(t, "hello", AttrName("hello"))
}

func TestParseProfileFormats(t *testing.T) {
	for name, data := range map[string]string{"v2": profileV2JSON, "v3": profileV3JSON} {
		t.Run(name, func(t *testing.T) {
			pkgs, err := ParseProfile([]byte(data))
			require.NoError(t, err)
			require.Len(t, pkgs, 2)
			assert.Equal(t, "hello", pkgs[0].Name)
			assert.Equal(t, "2.12.1", pkgs[0].Version)
			assert.Equal(t, "nixpkgs", pkgs[0].Flake)
			assert.Equal(t, "ripgrep", pkgs[1].Name)
			assert.Equal(t, "14.1.0", pkgs[1].Version)
		})
	}

	_, err := ParseProfile([]byte("not json"))
	assert.Error(t, err)
}

func TestStorePathVersionRejectsGarbage(t *testing.T) {
	_, err := StorePathVersion("/usr/bin/hello")
	assert.Error(t, err)
}

func TestSearchInstall(t *testing.T) {
	out := `{"legacyPackages.x86_64-linux.hello":{"description":"A program that produces a familiar, friendly greeting","pname":"hello","version":"2.12.1"},
"legacyPackages.x86_64-linux.hello-wayland":{"description":"Hello world Wayland client","pname":"hello-wayland","version":"0-unstable"}}`
	runner := platformtest.New().On("nix search nixpkgs ^hello$ --json", platformtest.Response{Stdout: out})
	pm := NewPackageManager(&Config{Runner: runner})

	pkgs, err := pm.SearchInstall(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "hello", pkgs[0].Name)
	assert.Equal(t, "nixpkgs", pkgs[0].Flake)
}

func TestInstallUninstall(t *testing.T) {
	runner := platformtest.New().
		On("nix profile install nixpkgs#hello", platformtest.Response{}).
		On("nix profile remove hello", platformtest.Response{})
	pm := NewPackageManager(&Config{Runner: runner})
	ctx := context.Background()

	p := &Package{Name: "hello", AttrPath: "legacyPackages.x86_64-linux.hello"}
	require.NoError(t, pm.Install(ctx, p))
	require.NoError(t, pm.Uninstall(ctx, p))
}

func TestListUpdatesAndUpdate(t *testing.T) {
	runner := platformtest.New().
		On("nix profile list --json", platformtest.Response{Stdout: profileV3JSON}).
		On("nix eval --raw nixpkgs#hello.version", platformtest.Response{Stdout: "2.12.2"}).
		On("nix eval --raw nixpkgs#ripgrep.version", platformtest.Response{Stdout: "14.1.0\n"}).
		On("nix profile upgrade --all", platformtest.Response{Stdout: "upgrading 'hello'\n"})
	pm := NewPackageManager(&Config{Runner: runner})
	ctx := context.Background()

	updates, err := pm.ListUpdates(ctx)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, "hello", updates[0].Name)
	assert.Equal(t, "2.12.2", updates[0].Version)

	var events []string
	require.NoError(t, pm.Update(ctx, func(ev core.Event) { events = append(events, ev.String()) }))
	assert.Equal(t, []string{"upgrading 'hello'", "100%"}, events)

	_, cached := pm.Pending()
	assert.False(t, cached)
}
