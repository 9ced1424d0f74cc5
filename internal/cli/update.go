// internal/cli/update.go
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/polnio/unipac-features/pkg/core"
)

func (a *App) updateCmd() *cobra.Command {
	var list, count bool
	cmd := &cobra.Command{
		Use:   "update [name]",
		Short: "Update installed packages",
		Long: `Show pending updates of every enabled backend and apply them.

Only backends that reported pending updates are updated. With a name, only
backends with a pending update of that package are considered.

Examples:
  unipac update
  unipac update firefox
  unipac update --count`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case list:
				return a.runListUpdates(cmd.Context())
			case count:
				return a.runCountUpdates(cmd.Context())
			}
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			return a.runUpdate(cmd.Context(), name)
		},
	}
	cmd.Flags().BoolVarP(&list, "list", "l", false, "only list pending updates")
	cmd.Flags().BoolVarP(&count, "count", "c", false, "only count pending updates")
	return cmd
}

func (a *App) runCountUpdates(ctx context.Context) error {
	counts, errs := a.manager.CountUpdates(ctx)
	a.printErrors(errs)
	if a.interactive {
		fmt.Fprintf(a.Out, "You have %d updates.\n", counts.Total())
	} else {
		fmt.Fprintln(a.Out, counts.Total())
	}
	return nil
}

func (a *App) runUpdate(ctx context.Context, name string) error {
	pkgs, errs := a.manager.ListUpdates(ctx)
	a.printErrors(errs)

	if name != "" {
		match := make(map[core.ID]bool)
		pkgs.Each(func(id core.ID, list []core.Package) {
			for _, pkg := range list {
				if pkg.PackageName() == name {
					match[id] = true
				}
			}
		})
		pkgs = pkgs.Filter(func(id core.ID, _ core.Package) bool { return match[id] })
	}

	if pkgs.Total() == 0 {
		fmt.Fprintln(a.Out, "No updates available.")
		return nil
	}
	if err := a.printPackages(pkgs); err != nil {
		return err
	}

	// The pending snapshot decides which backends update; nothing is re-checked
	pending := pkgs.NonEmpty()
	for _, id := range pending.IDs() {
		list, _ := pkgs.Slot(id)
		if err := a.hooks.For(id).PreUpdate(ctx, list); err != nil {
			return err
		}
	}

	ok, err := a.prompt.Confirm("Do you want to install these packages?", true)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	a.printErrors(a.manager.Update(ctx, pending))
	return nil
}
