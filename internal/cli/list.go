// internal/cli/list.go
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) listCmd() *cobra.Command {
	var updates bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Long:  `List the packages installed by every enabled backend.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if updates {
				return a.runListUpdates(cmd.Context())
			}
			pkgs, errs := a.manager.List(cmd.Context())
			a.printErrors(errs)
			return a.printPackages(pkgs)
		},
	}
	cmd.Flags().BoolVarP(&updates, "updates", "u", false, "list pending updates instead")
	return cmd
}

func (a *App) runListUpdates(ctx context.Context) error {
	pkgs, errs := a.manager.ListUpdates(ctx)
	a.printErrors(errs)
	if pkgs.Total() == 0 {
		fmt.Fprintln(a.Out, "No updates available.")
		return nil
	}
	return a.printPackages(pkgs)
}

func (a *App) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search every backend's catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pkgs, errs := a.manager.Search(cmd.Context(), args[0])
			a.printErrors(errs)
			return a.printPackages(pkgs)
		},
	}
}
