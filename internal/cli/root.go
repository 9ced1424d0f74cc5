// internal/cli/root.go
package cli

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	unipac "github.com/polnio/unipac-features"
	"github.com/polnio/unipac-features/internal/hooks"
	"github.com/polnio/unipac-features/internal/prompt"
	"github.com/polnio/unipac-features/pkg/core"
	"github.com/polnio/unipac-features/pkg/registry"
)

// App is the environment of one unipac invocation
type App struct {
	Registry   *registry.Registry
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
	IsTerminal func(io.Reader) bool
	Open       hooks.OpenFunc

	cfgFile       string
	debug         bool
	noInteractive bool
	selected      map[core.ID]*bool

	config      *core.Config
	logger      *log.Logger
	manager     *unipac.Manager
	prompt      *prompt.Prompter
	hooks       *hooks.Set
	interactive bool
}

// NewApp creates an app on the process's standard streams and the
// compiled-in backends
func NewApp() *App {
	return &App{
		Registry:   registry.Default,
		In:         os.Stdin,
		Out:        os.Stdout,
		Err:        os.Stderr,
		IsTerminal: prompt.IsTerminal,
		Open:       hooks.OpenTerminal,
	}
}

// Execute runs unipac with the process arguments
func Execute(ctx context.Context) error {
	return NewApp().Run(ctx, os.Args[1:])
}

// Run executes one command line. A hook cancelled by the user is not an error.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd := a.Command()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if errors.Is(err, hooks.ErrCancelled) {
		return nil
	}
	return err
}

// Command builds the command tree
func (a *App) Command() *cobra.Command {
	root := &cobra.Command{
		Use:   "unipac",
		Short: "One front-end for every package manager",
		Long: `unipac - one front-end for every package manager

Lists, searches, installs, removes and updates packages across Pacman, the
AUR, Flatpak, Snap, Cargo and Nix. Backends run concurrently and a failing
backend never hides what the others found.

Without a backend flag every compiled-in backend is enabled.

Examples:
  unipac list
  unipac --flatpak --snap search firefox
  unipac install ripgrep
  unipac update -c`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/unipac/config.yaml)")
	flags.BoolVar(&a.debug, "debug", false, "enable debug logging")
	flags.BoolVarP(&a.noInteractive, "no-interactive", "n", false, "never prompt and print script-friendly output")

	a.selected = make(map[core.ID]*bool)
	for _, id := range a.Registry.IDs() {
		a.selected[id] = flags.Bool(id.Flag(), false, "enable the "+id.String()+" backend")
	}

	root.SetIn(a.In)
	root.SetOut(a.Out)
	root.SetErr(a.Err)

	root.AddCommand(
		a.listCmd(),
		a.searchCmd(),
		a.installCmd(),
		a.uninstallCmd(),
		a.updateCmd(),
		a.backendsCmd(),
		a.configCmd(),
		versionCmd(),
	)
	return root
}

// setup loads the configuration and builds the collaborators of the
// invocation
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := core.LoadConfig(a.cfgFile)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Debug = true
	}
	if a.noInteractive {
		cfg.NoInteractive = true
	}

	a.logger = log.New(io.Discard, "", 0)
	if cfg.Debug {
		a.logger = log.New(a.Err, "[unipac] ", log.LstdFlags)
	}
	cfg.Logger = a.logger
	a.config = cfg

	var ids []core.ID
	for _, id := range a.Registry.IDs() {
		if *a.selected[id] {
			ids = append(ids, id)
		}
	}
	enabled, err := a.Registry.Enable(ids...)
	if err != nil {
		return err
	}
	a.logger.Printf("Enabled backends: %v", enabled.IDs())

	a.interactive = !cfg.NoInteractive && a.IsTerminal != nil && a.IsTerminal(a.In)
	a.prompt = prompt.New(a.In, a.Err, a.interactive)

	var opts []unipac.Option
	if a.interactive {
		opts = append(opts, unipac.WithDisplay(a.Err))
	}
	a.manager = unipac.NewManager(a.Registry, enabled, cfg, opts...)

	a.hooks = hooks.New(&hooks.Env{
		Options: core.Options{Config: cfg, Logger: a.logger},
		Prompt:  a.prompt,
		Editor:  cfg.Editor,
		Open:    a.Open,
		Logger:  a.logger,
	})
	return nil
}
