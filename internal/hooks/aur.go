//go:build !no_aur

package hooks

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/polnio/unipac-features/pkg/aur"
	"github.com/polnio/unipac-features/pkg/backend"
	"github.com/polnio/unipac-features/pkg/core"
)

const pager = "less"

func init() {
	Register(core.AUR, func(env *Env) Hook {
		return &aurHook{env: env}
	})
}

// aurHook fetches build recipes before AUR packages are built and lets
// the user read or edit them
type aurHook struct {
	env *Env

	once    sync.Once
	manager *aur.PackageManager
	err     error
}

func (h *aurHook) aur() (*aur.PackageManager, error) {
	h.once.Do(func() {
		b, err := backend.NewAURBackend(h.env.Options)
		if err != nil {
			h.err = err
			return
		}
		h.manager = b.Manager()
	})
	return h.manager, h.err
}

func (h *aurHook) editor() string {
	if h.env.Editor != "" {
		return h.env.Editor
	}
	return pager
}

func (h *aurHook) PreInstall(ctx context.Context, pkg core.Package) error {
	p, ok := pkg.(backend.AURPackage)
	if !ok {
		return fmt.Errorf("%T: %w", pkg, core.ErrForeignPackage)
	}
	m, err := h.aur()
	if err != nil {
		return err
	}

	if err := m.DownloadSnapshot(ctx, p.Base()); err != nil {
		return fmt.Errorf("downloading %s: %w", p.Name, err)
	}

	show, err := h.env.Prompt.Confirm(fmt.Sprintf("Do you want to show/edit the PKGBUILD for %s?", p.Name), false)
	if err != nil {
		return err
	}
	if !show {
		return nil
	}
	if err := h.env.Open(ctx, h.editor(), m.PkgbuildPath(p.Base())); err != nil {
		h.env.Logger.Printf("Failed to open PKGBUILD: %v", err)
	}

	install, err := h.env.Prompt.Confirm(fmt.Sprintf("Do you want to install %s?", p.Name), true)
	if err != nil {
		return err
	}
	if !install {
		return ErrCancelled
	}
	return nil
}

func (h *aurHook) PreUninstall(context.Context, core.Package) error {
	return nil
}

func (h *aurHook) PreUpdate(ctx context.Context, pkgs []core.Package) error {
	if len(pkgs) == 0 {
		return nil
	}
	m, err := h.aur()
	if err != nil {
		return err
	}

	updates := make([]backend.AURPackage, 0, len(pkgs))
	for _, pkg := range pkgs {
		p, ok := pkg.(backend.AURPackage)
		if !ok {
			return fmt.Errorf("%T: %w", pkg, core.ErrForeignPackage)
		}
		updates = append(updates, p)
	}

	var g errgroup.Group
	for _, p := range updates {
		g.Go(func() error {
			if err := m.DownloadSnapshot(ctx, p.Base()); err != nil {
				return fmt.Errorf("downloading %s: %w", p.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, p := range updates {
		show, err := h.env.Prompt.Confirm(fmt.Sprintf("Do you want to show the PKGBUILD for %s?", p.Name), false)
		if err != nil {
			return err
		}
		if !show {
			continue
		}
		if err := h.env.Open(ctx, pager, m.PkgbuildPath(p.Base())); err != nil {
			h.env.Logger.Printf("Failed to show PKGBUILD: %v", err)
		}
	}
	return nil
}
