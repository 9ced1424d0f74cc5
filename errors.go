// errors.go
package unipac

import (
	"errors"
	"fmt"

	"github.com/polnio/unipac-features/pkg/core"
)

var (
	// ErrNoPackages indicates an empty result where a package was required
	ErrNoPackages = errors.New("no packages found")

	// ErrNotEnabled indicates an operation targeted a backend outside the enabled set
	ErrNotEnabled = errors.New("backend not enabled")
)

// BackendError tags a backend failure with the backend that produced it
type BackendError struct {
	Backend core.ID // Backend whose job failed
	Op      string  // Operation that failed
	Err     error   // Underlying error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Errors are the failures of one fan-out, in backend enumeration order
type Errors []*BackendError

// Err returns nil for no failures, otherwise every failure joined
func (es Errors) Err() error {
	if len(es) == 0 {
		return nil
	}
	errs := make([]error, len(es))
	for i, e := range es {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Failed reports whether id's job failed
func (es Errors) Failed(id core.ID) bool {
	for _, e := range es {
		if e.Backend == id {
			return true
		}
	}
	return false
}
