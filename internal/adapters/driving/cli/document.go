package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kestrel-labs/kestrel/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Inspect and manage ingested documents",
}

var documentSummaryCmd = &cobra.Command{
	Use:   "summary [document-id]",
	Short: "Show length, chunk count and preview of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentSummary,
}

var documentRemoveCmd = &cobra.Command{
	Use:   "remove [document-id]",
	Short: "Remove a document and all its chunks from the index",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentRemove,
}

func init() {
	documentCmd.AddCommand(documentSummaryCmd)
	documentCmd.AddCommand(documentRemoveCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentSummary(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	summary, err := retrievalService.DocumentSummary(context.Background(), args[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document %s not found", args[0])
		}
		return fmt.Errorf("summary failed: %w", err)
	}

	cmd.Printf("Document:  %s\n", summary.ID)
	cmd.Printf("Length:    %d characters\n", summary.Length)
	cmd.Printf("Chunks:    %d\n", summary.ChunkCount)
	if !summary.IngestedAt.IsZero() {
		cmd.Printf("Ingested:  %s\n", summary.IngestedAt.Format("2006-01-02 15:04:05"))
	}
	cmd.Printf("Preview:   %s\n", summary.Preview)
	return nil
}

func runDocumentRemove(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	if err := retrievalService.RemoveDocument(context.Background(), args[0]); err != nil {
		return fmt.Errorf("remove failed: %w", err)
	}
	cmd.Printf("Removed %s\n", args[0])
	return nil
}
