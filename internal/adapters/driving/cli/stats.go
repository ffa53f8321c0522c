package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show store and cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if engine == nil {
		return errors.New("engine not configured")
	}

	stats, err := engine.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	if statsJSON {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println("Store:")
	cmd.Printf("  Documents: %d\n", stats.Documents)
	cmd.Printf("  Chunks:    %d\n", stats.Chunks)
	cmd.Println("Embedding cache:")
	cmd.Printf("  Size:      %d\n", stats.CacheSize)
	cmd.Printf("  Hits:      %d\n", stats.CacheHits)
	cmd.Printf("  Misses:    %d\n", stats.CacheMisses)
	cmd.Printf("  Hit rate:  %.1f%%\n", stats.CacheHitRate*100)
	if stats.EmbeddingModel != "" {
		cmd.Printf("Model: %s\n", stats.EmbeddingModel)
	}
	return nil
}
