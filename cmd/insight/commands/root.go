// Package commands defines all Cobra CLI commands for the insight binary.
package commands

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/insight-search/insight-go/internal/audit"
	"github.com/insight-search/insight-go/internal/config"
	"github.com/insight-search/insight-go/internal/logging"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "insight",
		Short: "Insight — semantic search over the Bahá'í Writings",
		Long: `Insight indexes the Bahá'í Writings into a Qdrant vector store and
searches them by meaning rather than keyword.

Documents (.docx, .txt, .md) are split into paragraph chunks, embedded,
and stored with their source metadata. Searches embed the query and
return the closest passages, each linked to its page in the Bahá'í
Reference Library. Journal mode restates a personal entry through a
generative model before searching.

Embedding and model backends are selected via environment variables
or a YAML config file (~/.insight/config.yaml).
See 'insight --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// A local .env is a convenience for development; absence is fine.
			_ = godotenv.Load()

			log := logging.New()
			slog.SetDefault(log)

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			// Emit structured audit log for every command invocation.
			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.insight/config.yaml)")

	root.AddCommand(
		NewIngestCmd(),
		NewSearchCmd(),
		NewJournalCmd(),
		NewCompareCmd(),
		NewStatsCmd(),
		NewServeCmd(),
		NewVersionCmd(),
	)

	return root
}
