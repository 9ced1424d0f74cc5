// pkg/platform/detect.go
package platform

import (
	"fmt"
	"runtime"

	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/registry"
)

// Availability reports whether a compiled-in backend's tool was found
type Availability struct {
	ID        core.ID
	Binary    string
	Available bool
}

// Platform represents the detected system platform
type Platform struct {
	OS       string // linux, darwin, ...
	Arch     string // amd64, arm64, ...
	Backends []Availability
}

// Detect detects the current platform and which compiled-in backends have
// their external tool on PATH
func Detect(reg *registry.Registry) *Platform {
	p := &Platform{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
	}

	for _, id := range reg.IDs() {
		d, _ := reg.Lookup(id)
		p.Backends = append(p.Backends, Availability{
			ID:        id,
			Binary:    d.Binary,
			Available: d.Binary == "" || commandExists(d.Binary),
		})
	}

	return p
}

// Available returns the identifiers of the backends whose tool was found
func (p *Platform) Available() []core.ID {
	var ids []core.ID
	for _, b := range p.Backends {
		if b.Available {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

// String returns a string representation of the platform
func (p *Platform) String() string {
	return fmt.Sprintf("%s/%s (available: %v)", p.OS, p.Arch, p.Available())
}
