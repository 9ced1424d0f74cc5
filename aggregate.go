// aggregate.go
package unipac

import (
	"slices"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/registry"
)

// Selection is one entry of a flattened result list, resolved back to its
// backend and its position in that backend's slot
type Selection struct {
	Backend core.ID
	Index   int
	Package core.Package
}

// slots holds one value per enabled backend, in enumeration order. Jobs of
// a fan-out write disjoint elements of values, never the slice header.
type slots[T any] struct {
	ids    []core.ID
	values []T
}

func newSlots[T any](set registry.Set) slots[T] {
	ids := set.IDs()
	return slots[T]{ids: ids, values: make([]T, len(ids))}
}

// Slot returns the value of a backend; ok is false when it is not enabled
func (s *slots[T]) Slot(id core.ID) (v T, ok bool) {
	i := slices.Index(s.ids, id)
	if i < 0 {
		return v, false
	}
	return s.values[i], true
}

// Backends returns the enabled backends in enumeration order
func (s *slots[T]) Backends() []core.ID {
	return slices.Clone(s.ids)
}

// Packages is the aggregate of list, search and update listings
type Packages struct {
	slots[[]core.Package]
}

// NewPackages creates empty slots for every backend of set
func NewPackages(set registry.Set) *Packages {
	return &Packages{newSlots[[]core.Package](set)}
}

// Set fills the slot of id. It panics when id is not enabled.
func (p *Packages) Set(id core.ID, pkgs []core.Package) {
	p.values[p.index(id)] = pkgs
}

func (s *slots[T]) index(id core.ID) int {
	i := slices.Index(s.ids, id)
	if i < 0 {
		panic("unipac: backend " + id.String() + " has no slot")
	}
	return i
}

// Total returns the number of packages across backends
func (p *Packages) Total() int {
	n := 0
	for _, pkgs := range p.values {
		n += len(pkgs)
	}
	return n
}

// Each calls fn for every backend in enumeration order, empty slots included
func (p *Packages) Each(fn func(id core.ID, pkgs []core.Package)) {
	for i, id := range p.ids {
		fn(id, p.values[i])
	}
}

// Flatten concatenates the slots in enumeration order
func (p *Packages) Flatten() []Selection {
	out := make([]Selection, 0, p.Total())
	for i, id := range p.ids {
		for j, pkg := range p.values[i] {
			out = append(out, Selection{Backend: id, Index: j, Package: pkg})
		}
	}
	return out
}

// Select resolves entry k of the flattened list
func (p *Packages) Select(k int) (Selection, bool) {
	if k < 0 {
		return Selection{}, false
	}
	i := 0
	for n, id := range p.ids {
		pkgs := p.values[n]
		if k-i < len(pkgs) {
			return Selection{Backend: id, Index: k - i, Package: pkgs[k-i]}, true
		}
		i += len(pkgs)
	}
	return Selection{}, false
}

// NonEmpty returns the backends holding at least one package
func (p *Packages) NonEmpty() registry.Set {
	var ids []core.ID
	for i, id := range p.ids {
		if len(p.values[i]) > 0 {
			ids = append(ids, id)
		}
	}
	return registry.NewSet(ids...)
}

// Filter returns a copy keeping, per backend, the packages keep accepts.
// Every slot survives, possibly empty.
func (p *Packages) Filter(keep func(id core.ID, pkg core.Package) bool) *Packages {
	out := &Packages{slots[[]core.Package]{ids: slices.Clone(p.ids), values: make([][]core.Package, len(p.ids))}}
	for i, id := range p.ids {
		for _, pkg := range p.values[i] {
			if keep(id, pkg) {
				out.values[i] = append(out.values[i], pkg)
			}
		}
	}
	return out
}

// Found is the aggregate of find: at most one package per backend
type Found struct {
	slots[core.Package]
}

// NewFound creates empty slots for every backend of set
func NewFound(set registry.Set) *Found {
	return &Found{newSlots[core.Package](set)}
}

// Set fills the slot of id. It panics when id is not enabled.
func (f *Found) Set(id core.ID, pkg core.Package) {
	f.values[f.index(id)] = pkg
}

// Total returns the number of backends that found the package
func (f *Found) Total() int {
	n := 0
	for _, pkg := range f.values {
		if pkg != nil {
			n++
		}
	}
	return n
}

// Flatten lists the present packages in enumeration order
func (f *Found) Flatten() []Selection {
	var out []Selection
	for i, id := range f.ids {
		if f.values[i] != nil {
			out = append(out, Selection{Backend: id, Package: f.values[i]})
		}
	}
	return out
}

// Select resolves entry k of the flattened list, each present package
// counting as a slot of length one
func (f *Found) Select(k int) (Selection, bool) {
	if k < 0 {
		return Selection{}, false
	}
	i := 0
	for n, id := range f.ids {
		if f.values[n] == nil {
			continue
		}
		if k-i < 1 {
			return Selection{Backend: id, Package: f.values[n]}, true
		}
		i++
	}
	return Selection{}, false
}

// Counts is the aggregate of count-updates
type Counts struct {
	slots[int]
}

// NewCounts creates zero slots for every backend of set
func NewCounts(set registry.Set) *Counts {
	return &Counts{newSlots[int](set)}
}

// Set fills the slot of id. It panics when id is not enabled.
func (c *Counts) Set(id core.ID, n int) {
	c.values[c.index(id)] = n
}

// Total returns the sum of the counts
func (c *Counts) Total() int {
	n := 0
	for _, v := range c.values {
		n += v
	}
	return n
}
