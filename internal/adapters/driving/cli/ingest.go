package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	ingestID   string
	ingestMeta []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file|-]",
	Short: "Ingest a document into the index",
	Long: `Chunks, embeds and indexes a document for later retrieval.
Reads from the given file, or from stdin when the argument is "-".`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document identifier (derived from content when empty)")
	ingestCmd.Flags().StringArrayVar(&ingestMeta, "meta", nil, "metadata entry as key=value (repeatable)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	content, id, err := readIngestInput(args[0])
	if err != nil {
		return err
	}
	if ingestID != "" {
		id = ingestID
	}

	metadata, err := parseMetadata(ingestMeta)
	if err != nil {
		return err
	}

	receipt, err := retrievalService.Ingest(context.Background(), content, id, metadata)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingested %s: %d chunks\n", receipt.DocumentID, receipt.ChunkCount)
	if receipt.Degraded {
		cmd.Println("Warning: embedded with fallback model; retrieval quality is reduced.")
	}
	return nil
}

// readIngestInput returns the document content and a default ID.
func readIngestInput(arg string) (content, id string, err error) {
	if arg == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), "", nil
	}

	data, err := os.ReadFile(arg)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", arg, err)
	}
	return string(data), filepath.Base(arg), nil
}

// parseMetadata turns key=value pairs into a map.
func parseMetadata(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	metadata := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata entry %q (want key=value)", pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}
