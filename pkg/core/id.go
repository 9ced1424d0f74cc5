// pkg/core/id.go
package core

import (
	"fmt"
	"strings"
)

// ID identifies a package manager backend.
// The numeric order is the enumeration order used for every user-visible
// listing, total and selection.
type ID int

const (
	// Pacman is the local system package database (official repositories)
	Pacman ID = iota
	// AUR is the community build-from-source repository
	AUR
	// Flatpak is the sandboxed app distribution system
	Flatpak
	// Snap is the universal package system
	Snap
	// Cargo is the Rust crates registry
	Cargo
	// Nix is the Nix profile of the current user
	Nix

	idCount
)

var idNames = [idCount]string{
	Pacman:  "Pacman",
	AUR:     "AUR",
	Flatpak: "Flatpak",
	Snap:    "Snap",
	Cargo:   "Cargo",
	Nix:     "Nix",
}

// All returns every known backend identifier in enumeration order
func All() []ID {
	ids := make([]ID, 0, idCount)
	for id := ID(0); id < idCount; id++ {
		ids = append(ids, id)
	}
	return ids
}

// Valid reports whether id is one of the known identifiers
func (id ID) Valid() bool {
	return id >= 0 && id < idCount
}

// String returns the display name (e.g. "Pacman")
func (id ID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("ID(%d)", int(id))
	}
	return idNames[id]
}

// Flag returns the command-line flag name (e.g. "pacman")
func (id ID) Flag() string {
	return strings.ToLower(id.String())
}

// ParseID parses a display or flag name, case-insensitively
func ParseID(s string) (ID, error) {
	for id := ID(0); id < idCount; id++ {
		if strings.EqualFold(idNames[id], s) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("unknown backend: %q", s)
}
