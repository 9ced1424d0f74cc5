// pkg/backend/types.go
//
// Package backend adapts the low-level package managers under pkg/ to the
// core.Backend contract. Every adapter file registers itself into
// registry.Default from init and can be compiled out with a no_<flag> tag.
package backend

import (
	"context"
	"fmt"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/registry"
)

// factory lifts a typed constructor into a registry.Factory
func factory[B core.Backend](fn func(core.Options) (B, error)) registry.Factory {
	return func(opts core.Options) (core.Backend, error) {
		b, err := fn(opts)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// configOf returns the invocation configuration, or the defaults
func configOf(opts core.Options) *core.Config {
	if opts.Config == nil {
		return core.DefaultConfig()
	}
	return opts.Config
}

// foreign reports a package handed to the wrong backend
func foreign(id core.ID, pkg core.Package) error {
	return fmt.Errorf("%s: %T: %w", id, pkg, core.ErrForeignPackage)
}

// wrap converts a slice of backend packages to core.Package values
func wrap[T any](items []T, fn func(T) core.Package) []core.Package {
	if len(items) == 0 {
		return nil
	}
	out := make([]core.Package, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out
}

// countOf implements CountUpdates on top of ListUpdates
func countOf(ctx context.Context, b core.Backend) (int, error) {
	pkgs, err := b.ListUpdates(ctx)
	if err != nil {
		return 0, err
	}
	return len(pkgs), nil
}

// upgrade renders the version column of a pending update
func upgrade(installed, version string) string {
	if installed == "" || installed == version {
		return version
	}
	return installed + " -> " + version
}
