// pkg/registry/registry.go
package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/polnio/unipac-features/pkg/core"
)

// ErrBackendNotAvailable indicates the backend is not compiled into this binary
var ErrBackendNotAvailable = errors.New("backend not available")

// Factory constructs a fresh backend instance bound to the given options
type Factory func(opts core.Options) (core.Backend, error)

// Descriptor describes a compiled-in backend
type Descriptor struct {
	ID     core.ID
	Binary string // External tool the backend drives, for availability checks
	New    Factory
}

// Registry holds the compiled-in backends
type Registry struct {
	mu          sync.RWMutex
	descriptors map[core.ID]Descriptor
}

// Default is populated by backend packages from their init functions
var Default = New()

// New creates an empty registry
func New() *Registry {
	return &Registry{
		descriptors: make(map[core.ID]Descriptor),
	}
}

// Register adds a backend to the default registry
func Register(d Descriptor) {
	Default.Register(d)
}

// Register adds a backend. It panics on an invalid or duplicate identifier.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !d.ID.Valid() {
		panic(fmt.Sprintf("registry: invalid backend id %d", int(d.ID)))
	}
	if d.New == nil {
		panic("registry: Register factory is nil for " + d.ID.String())
	}
	if _, dup := r.descriptors[d.ID]; dup {
		panic("registry: Register called twice for " + d.ID.String())
	}
	r.descriptors[d.ID] = d
}

// Lookup returns the descriptor of a compiled-in backend
func (r *Registry) Lookup(id core.ID) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.descriptors[id]
	return d, ok
}

// IDs returns the compiled-in backends in enumeration order
func (r *Registry) IDs() []core.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]core.ID, 0, len(r.descriptors))
	for id := range r.descriptors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Enable builds the enabled set for one invocation.
// With no identifiers every compiled-in backend is enabled.
func (r *Registry) Enable(ids ...core.ID) (Set, error) {
	if len(ids) == 0 {
		return Set{ids: r.IDs()}, nil
	}

	seen := make(map[core.ID]bool, len(ids))
	for _, id := range ids {
		if _, ok := r.Lookup(id); !ok {
			return Set{}, fmt.Errorf("%w: %s", ErrBackendNotAvailable, id)
		}
		seen[id] = true
	}

	enabled := make([]core.ID, 0, len(seen))
	for _, id := range r.IDs() {
		if seen[id] {
			enabled = append(enabled, id)
		}
	}
	return Set{ids: enabled}, nil
}
