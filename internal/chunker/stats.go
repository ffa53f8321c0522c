package chunker

import "github.com/contexta-labs/contexta/internal/core/domain"

// Stats summarises a set of chunks for observability.
type Stats struct {
	// TotalChunks is the number of chunks.
	TotalChunks int

	// TotalTokens is the sum of all chunk token counts.
	TotalTokens int

	// MinTokens and MaxTokens bound the per-chunk token counts.
	MinTokens int
	MaxTokens int

	// AvgTokens is the mean token count, 0 when empty.
	AvgTokens float64

	// ByType counts chunks per semantic tag.
	ByType map[domain.ChunkType]int
}

// ComputeStats summarises the given chunks.
func ComputeStats(chunks []domain.DocumentChunk) Stats {
	stats := Stats{
		ByType: make(map[domain.ChunkType]int),
	}

	for _, chunk := range chunks {
		stats.TotalChunks++
		stats.TotalTokens += chunk.TokenCount
		stats.ByType[chunk.ChunkType]++

		if stats.MinTokens == 0 || chunk.TokenCount < stats.MinTokens {
			stats.MinTokens = chunk.TokenCount
		}
		if chunk.TokenCount > stats.MaxTokens {
			stats.MaxTokens = chunk.TokenCount
		}
	}

	if stats.TotalChunks > 0 {
		stats.AvgTokens = float64(stats.TotalTokens) / float64(stats.TotalChunks)
	}

	return stats
}
