package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
)

var (
	queryTopK    int
	queryJSON    bool
	queryAugment bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Retrieve the chunks most relevant to a query",
	Long: `Embeds the query and returns the most similar indexed chunks,
ranked by cosine similarity.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 5, "maximum number of chunks to return")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	queryCmd.Flags().BoolVar(&queryAugment, "augment", false, "print a context-augmented prompt instead of raw results")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	query := args[0]

	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	results, err := retrievalService.Retrieve(context.Background(), query, queryTopK)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if queryAugment {
		cmd.Println(retrievalService.AugmentQuery(query, results))
		return nil
	}

	if queryJSON {
		return outputResultsJSON(cmd, results)
	}
	return outputResultsTable(cmd, results)
}

func outputResultsJSON(cmd *cobra.Command, results []domain.RetrievedResult) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputResultsTable(cmd *cobra.Command, results []domain.RetrievedResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range results {
		cmd.Printf("  [%d] %s (%.3f)\n", i+1, results[i].ChunkID, results[i].Score)
		cmd.Printf("      %s\n", snippet(results[i].Content, 120))
		if fallback, _ := results[i].Metadata["embedding_fallback"].(bool); fallback {
			cmd.Printf("      (indexed with fallback embeddings)\n")
		}
		cmd.Println()
	}
	return nil
}

// snippet truncates text for single-line display.
func snippet(text string, max int) string {
	for i, r := range text {
		if r == '\n' {
			text = text[:i]
			break
		}
	}
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}
