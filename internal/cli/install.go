// internal/cli/install.go
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	unipac "github.com/polnio/unipac-features"
)

func (a *App) installCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "install <query>",
		Short: "Install a package",
		Long: `Look query up in every enabled backend and install the chosen candidate.

Candidates are the exact name and its -bin/-git variants where the backend
has them. Without a terminal a single candidate is installed directly; more
than one is an error.

Examples:
  unipac install ripgrep
  unipac --aur install paru`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInstall(cmd.Context(), args[0])
		},
	}
}

func (a *App) runInstall(ctx context.Context, query string) error {
	pkgs, errs := a.manager.SearchInstall(ctx, query)
	a.printErrors(errs)

	entries := pkgs.Flatten()
	if len(entries) == 0 {
		fmt.Fprintln(a.Out, "No packages found.")
		return nil
	}

	k, err := a.prompt.Select("Which package do you want to install?", a.options(entries), 0)
	if err != nil {
		return err
	}
	sel, ok := pkgs.Select(k)
	if !ok {
		fmt.Fprintln(a.Out, "No packages found.")
		return nil
	}

	if err := a.hooks.For(sel.Backend).PreInstall(ctx, sel.Package); err != nil {
		return err
	}
	if err := a.manager.Install(ctx, sel); err != nil {
		fmt.Fprintf(a.Err, "Failed to install %s: %v\n", sel.Package.PackageName(), err)
	}
	return nil
}

func (a *App) uninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <name>",
		Short: "Remove an installed package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runUninstall(cmd.Context(), args[0])
		},
	}
}

func (a *App) runUninstall(ctx context.Context, name string) error {
	found, errs := a.manager.Find(ctx, name)
	a.printErrors(errs)

	entries := found.Flatten()
	if len(entries) == 0 {
		fmt.Fprintln(a.Out, "No packages found.")
		return nil
	}

	sel := entries[0]
	if len(entries) > 1 {
		k, err := a.prompt.Select("Which package do you want to uninstall?", a.options(entries), 0)
		if err != nil {
			return err
		}
		sel = entries[k]
	}

	fmt.Fprintln(a.Out, a.option(sel))
	ok, err := a.prompt.Confirm("Do you want to uninstall this package?", true)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := a.hooks.For(sel.Backend).PreUninstall(ctx, sel.Package); err != nil {
		return err
	}
	if err := a.manager.Uninstall(ctx, sel); err != nil {
		fmt.Fprintf(a.Err, "Failed to uninstall %s: %v\n", sel.Package.PackageName(), err)
	}
	return nil
}

func (a *App) options(entries []unipac.Selection) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = a.option(e)
	}
	return out
}
