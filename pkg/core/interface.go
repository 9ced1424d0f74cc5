// pkg/core/interface.go
package core

import (
	"context"
	"errors"
)

// ErrForeignPackage is returned when a backend is handed a package produced by another backend
var ErrForeignPackage = errors.New("package belongs to another backend")

// Backend defines the capability contract every package manager backend implements.
//
// A backend instance is owned by a single job: the orchestrator never shares
// one instance between concurrent calls. Errors are backend-local; callers
// only look at their presence and at which backend returned them.
type Backend interface {
	// ID returns the backend identifier
	ID() ID

	// List lists installed packages owned by this backend
	List(ctx context.Context) ([]Package, error)

	// Find looks an installed package up by exact name.
	// Absence is reported as (nil, nil).
	Find(ctx context.Context, name string) (Package, error)

	// Search searches the backend catalog
	Search(ctx context.Context, query string) ([]Package, error)

	// SearchInstall is a narrower search used to pick an install candidate
	SearchInstall(ctx context.Context, query string) ([]Package, error)

	// Install installs a package previously returned by this backend
	Install(ctx context.Context, pkg Package) error

	// Uninstall removes a package previously returned by this backend
	Uninstall(ctx context.Context, pkg Package) error

	// ListUpdates lists installed packages with a newer version available
	ListUpdates(ctx context.Context) ([]Package, error)

	// CountUpdates counts pending updates
	CountUpdates(ctx context.Context) (int, error)

	// Update upgrades every pending package. Implementations report
	// progress and finish with a 100% event on success.
	Update(ctx context.Context) error
}
