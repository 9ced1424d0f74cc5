package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polnio/unipac-features/pkg/core"
)

func factory(core.Options) (core.Backend, error) { return nil, nil }

func newTestRegistry(ids ...core.ID) *Registry {
	r := New()
	for _, id := range ids {
		r.Register(Descriptor{ID: id, New: factory})
	}
	return r
}

func TestIDsAreOrdered(t *testing.T) {
	r := newTestRegistry(core.Cargo, core.Pacman, core.Snap)
	assert.Equal(t, []core.ID{core.Pacman, core.Snap, core.Cargo}, r.IDs())
}

func TestRegisterPanics(t *testing.T) {
	r := newTestRegistry(core.AUR)
	assert.Panics(t, func() { r.Register(Descriptor{ID: core.AUR, New: factory}) })
	assert.Panics(t, func() { r.Register(Descriptor{ID: core.ID(99), New: factory}) })
	assert.Panics(t, func() { r.Register(Descriptor{ID: core.Nix}) })
}

func TestEnableDefaultsToAll(t *testing.T) {
	r := newTestRegistry(core.Flatpak, core.AUR)
	set, err := r.Enable()
	require.NoError(t, err)
	assert.Equal(t, []core.ID{core.AUR, core.Flatpak}, set.IDs())
}

func TestEnableSubset(t *testing.T) {
	r := newTestRegistry(core.Pacman, core.AUR, core.Flatpak, core.Snap)
	set, err := r.Enable(core.Snap, core.Pacman, core.Snap)
	require.NoError(t, err)
	assert.Equal(t, []core.ID{core.Pacman, core.Snap}, set.IDs())
	assert.True(t, set.Contains(core.Snap))
	assert.False(t, set.Contains(core.AUR))
	assert.Equal(t, 2, set.Len())
}

func TestEnableUnknownBackend(t *testing.T) {
	r := newTestRegistry(core.Pacman)
	_, err := r.Enable(core.Cargo)
	assert.ErrorIs(t, err, ErrBackendNotAvailable)
}

func TestSetFilterAndNewSet(t *testing.T) {
	set := NewSet(core.Nix, core.AUR, core.Nix, core.Pacman)
	assert.Equal(t, []core.ID{core.Pacman, core.AUR, core.Nix}, set.IDs())

	sub := set.Filter(func(id core.ID) bool { return id != core.AUR })
	assert.Equal(t, []core.ID{core.Pacman, core.Nix}, sub.IDs())

	// IDs returns a copy
	ids := set.IDs()
	ids[0] = core.Snap
	assert.Equal(t, core.Pacman, set.IDs()[0])
}
