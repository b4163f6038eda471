// Package cli implements the pagebrowse command line tool, a terminal client
// for the paging and caching packages.
package cli

import (
	"fmt"

	"github.com/goliatone/go-pagecache/pkg/config"
	"github.com/goliatone/go-pagecache/pkg/di"
	"github.com/goliatone/go-pagecache/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries what PersistentPreRunE resolved for the subcommands.
type app struct {
	configPath string
	logLevel   string
	pretty     bool

	cfg       config.Config
	logger    zerolog.Logger
	container *di.Container
}

// NewRootCmd creates the root command and its subcommands.
func NewRootCmd(version string) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "pagebrowse",
		Short:         "Browse a paged collection through the query cache",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # Show the second page of generated series
  pagebrowse browse --page 2

  # Load every record and filter client side
  pagebrowse browse --data series.json --fetch-all --search dark --audio de

  # Refetch a summary every second, three times
  pagebrowse watch --interval 1s --ticks 3`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a config file (default: ./pagecache.yaml when present)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&a.pretty, "pretty", false, "human readable log output")

	cmd.AddCommand(newBrowseCmd(a), newWatchCmd(a))
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	var opts []config.LoadOption
	if a.configPath != "" {
		opts = append(opts, config.WithFile(a.configPath))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Logging.Pretty = a.pretty
	}
	cfg.Logging.Output = cmd.ErrOrStderr()

	a.cfg = cfg
	a.logger = logging.Setup(cfg.Logging)
	return nil
}

// buildContainer creates the container after subcommand flags adjusted cfg.
func (a *app) buildContainer() error {
	container, err := di.NewContainer(a.cfg, di.WithLogger(a.logger))
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	a.container = container
	return nil
}
