package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/contexta-labs/contexta/internal/core/domain"
)

var ingestJSON bool

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document into the context store",
	Long: `Reads a text file, splits it into token-aware chunks, generates
embeddings, and persists everything under the given tenant scope.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output result as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if engine == nil {
		return errors.New("engine not configured")
	}

	path := args[0]
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	result, err := engine.Ingest(context.Background(), string(content), filepath.Base(path), currentScope())
	if err != nil {
		if errors.Is(err, domain.ErrMissingScope) {
			return errors.New("ingest requires --tenant")
		}
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		return outputIngestJSON(cmd, result)
	}

	cmd.Printf("Ingested %s\n", filepath.Base(path))
	cmd.Printf("  Document:   %s\n", result.DocumentID)
	cmd.Printf("  Chunks:     %d created, %d stored\n", result.ChunksCreated, result.ChunksStored)
	cmd.Printf("  Tokens:     %d\n", result.TokensIngested)
	if len(result.ChunkTypes) > 0 {
		cmd.Printf("  Types:      %s\n", formatChunkTypes(result.ChunkTypes))
	}
	cmd.Printf("  Embeddings: %d\n", result.EmbeddingsGenerated)
	cmd.Printf("  Took:       %s\n", result.Duration)
	return nil
}

func formatChunkTypes(types map[string]int) string {
	parts := make([]string, 0, len(types))
	for chunkType, n := range types {
		parts = append(parts, fmt.Sprintf("%s=%d", chunkType, n))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}

func outputIngestJSON(cmd *cobra.Command, result *domain.IngestResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
