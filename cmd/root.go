// Package cmd provides the neorag CLI.
//
// Commands:
//   - provision: create the vector and full-text indexes
//   - ingest: chunk, store, and embed a document
//   - search: faceted similarity and full-text retrieval
//   - cluster: near-duplicate clustering report
//   - count: total stored content elements
//   - delete: cascading delete of a document root
//
// Every command opens its own driver and closes it on exit; commands are
// cancelable via SIGINT through the cobra context.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quillan/neorag/internal/config"
	"github.com/quillan/neorag/internal/log"
)

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd assembles the command tree. Configuration is loaded once in the
// persistent pre-run so subcommands receive a validated config.
func NewRootCmd() *cobra.Command {
	var cfg *config.Config
	var logger *slog.Logger

	root := &cobra.Command{
		Use:           "neorag",
		Short:         "Graph-backed retrieval store for chat content",
		Long:          "neorag ingests documents into a Neo4j graph, attaches embeddings,\nand answers similarity, full-text, and clustering queries over them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			logger = log.New(log.Config{
				Level: log.ParseLevel(cfg.LogLevel),
				JSON:  cfg.LogJSON,
			})
			slog.SetDefault(logger)
			return nil
		},
	}

	// accessors close over the pre-run's result
	getCfg := func() *config.Config { return cfg }
	getLogger := func() *slog.Logger { return logger }

	root.AddCommand(
		NewProvisionCmd(getCfg, getLogger),
		NewIngestCmd(getCfg, getLogger),
		NewSearchCmd(getCfg, getLogger),
		NewClusterCmd(getCfg, getLogger),
		NewCountCmd(getCfg, getLogger),
		NewDeleteCmd(getCfg, getLogger),
		NewVersionCmd(),
	)
	return root
}
