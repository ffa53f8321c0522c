package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/contexta-labs/contexta/internal/core/domain"
)

var (
	queryMaxChunks int
	queryNoHybrid  bool
	queryJSON      bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Build a context block for a query",
	Long: `Retrieves relevant passages with hybrid semantic and keyword search,
scores the result, and assembles a token-bounded context block.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVarP(&queryMaxChunks, "max-chunks", "n", 5, "maximum number of retrieved chunks")
	queryCmd.Flags().BoolVar(&queryNoHybrid, "no-hybrid", false, "use semantic search only")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output result as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if engine == nil {
		return errors.New("engine not configured")
	}

	opts := domain.RetrieveOptions{
		UseHybrid: !queryNoHybrid,
		MaxChunks: queryMaxChunks,
	}

	out := engine.Retrieve(context.Background(), args[0], currentScope(), opts)

	if queryJSON {
		return outputQueryJSON(cmd, out)
	}

	if out.ContextText == "" {
		cmd.Println("No context available.")
		cmd.Printf("Confidence: %.2f\n", out.Confidence)
		return nil
	}

	cmd.Printf("Context (%d tokens, confidence %.2f):\n\n", out.TokenCount, out.Confidence)
	cmd.Println(out.ContextText)
	cmd.Println()
	if len(out.ContextSources) > 0 {
		cmd.Printf("Sources: %s\n", strings.Join(out.ContextSources, ", "))
	}
	cmd.Printf("Retrieved %d passages in %s\n", out.SourceCount, out.ProcessingTime)
	return nil
}

func outputQueryJSON(cmd *cobra.Command, out *domain.RAGContext) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal context: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
