// internal/cli/config.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/polnio/unipac-features/pkg/core"
)

func (a *App) configCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write the configuration",
		Long: `Print the effective configuration as YAML. With --write, save it to
the config file instead, creating the file with every default spelled out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !write {
				data, err := yaml.Marshal(a.config)
				if err != nil {
					return fmt.Errorf("marshaling config: %w", err)
				}
				_, err = a.Out.Write(data)
				return err
			}

			path := a.cfgFile
			if path == "" {
				p, err := core.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = p
			}
			if err := core.SaveConfig(a.config, path); err != nil {
				return err
			}
			a.logger.Printf("Saved configuration to %s", path)
			fmt.Fprintf(a.Out, "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the configuration file")
	return cmd
}
