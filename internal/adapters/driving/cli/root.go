// Package cli implements the command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/contexta-labs/contexta/internal/core/domain"
	"github.com/contexta-labs/contexta/internal/core/ports/driving"
	"github.com/contexta-labs/contexta/internal/logger"
)

// Package-level collaborators, wired by Execute.
var (
	engine  driving.Engine
	version = "dev"
)

// Persistent flags.
var (
	verbose   bool
	tenant    string
	assistant string
)

var rootCmd = &cobra.Command{
	Use:   "contexta",
	Short: "Context engine for retrieval-augmented assistants",
	Long: `Contexta ingests documents into scoped, token-aware chunks and
assembles bounded context blocks for retrieval-augmented generation.
It combines semantic and keyword retrieval with curated exact answers.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&tenant, "tenant", "", "tenant the command operates on")
	rootCmd.PersistentFlags().StringVar(&assistant, "assistant", "", "assistant scope within the tenant")
}

// Execute wires the engine into the command tree and runs it.
func Execute(eng driving.Engine, v string) error {
	engine = eng
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

// currentScope builds the scope from the persistent flags.
func currentScope() domain.Scope {
	return domain.Scope{
		Tenant:    tenant,
		Assistant: assistant,
	}
}
