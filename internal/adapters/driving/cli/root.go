// Package cli provides the cobra command tree for the kestrel binary.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/kestrel-labs/kestrel/internal/core/ports/driving"
	"github.com/kestrel-labs/kestrel/internal/logger"
)

// version is stamped by the composition root before Execute.
var version = "dev"

// Injected services; set once by Wire before any command runs.
var (
	retrievalService    driving.Retrieval
	conversationService driving.Conversation
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "kestrel",
	Short: "Local retrieval-augmented context engine",
	Long: `Kestrel ingests documents into a local vector index and retrieves
the most relevant chunks for a query, entirely on your machine.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Wire injects the services the commands depend on.
func Wire(retrieval driving.Retrieval, conversation driving.Conversation, ver string) {
	retrievalService = retrieval
	conversationService = conversation
	if ver != "" {
		version = ver
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
