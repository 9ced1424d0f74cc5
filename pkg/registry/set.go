package registry

import "github.com/polnio/unipac-features/pkg/core"

// Set is an ordered, immutable set of enabled backends
type Set struct {
	ids []core.ID
}

// NewSet builds a set from arbitrary identifiers, ordering and de-duplicating them
func NewSet(ids ...core.ID) Set {
	present := make(map[core.ID]bool, len(ids))
	for _, id := range ids {
		present[id] = true
	}
	out := make([]core.ID, 0, len(ids))
	for _, id := range core.All() {
		if present[id] {
			out = append(out, id)
		}
	}
	return Set{ids: out}
}

// IDs returns a copy of the identifiers in enumeration order
func (s Set) IDs() []core.ID {
	out := make([]core.ID, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of enabled backends
func (s Set) Len() int {
	return len(s.ids)
}

// Contains reports whether id is enabled
func (s Set) Contains(id core.ID) bool {
	for _, x := range s.ids {
		if x == id {
			return true
		}
	}
	return false
}

// Filter returns the subset for which keep returns true
func (s Set) Filter(keep func(core.ID) bool) Set {
	out := make([]core.ID, 0, len(s.ids))
	for _, id := range s.ids {
		if keep(id) {
			out = append(out, id)
		}
	}
	return Set{ids: out}
}
