// internal/cli/backends.go
package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/polnio/unipac-features/pkg/platform"
)

func (a *App) backendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List compiled-in backends",
		Long:  `List the compiled-in backends, whether they are enabled and whether their tool is on PATH.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := platform.Detect(a.Registry)
			enabled := a.manager.Enabled()

			fmt.Fprintf(a.Out, "Platform: %s/%s\n\n", p.OS, p.Arch)
			tw := tabwriter.NewWriter(a.Out, 0, 8, 2, ' ', 0)
			for _, b := range p.Backends {
				state := "disabled"
				if enabled.Contains(b.ID) {
					state = "enabled"
				}
				tool := "not found"
				if b.Available {
					tool = "found"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.ID, state, b.Binary, tool)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			a.logger.Printf("Platform: %s", p)
			return nil
		},
	}
}
