package driven

import (
	"context"

	"github.com/contexta-labs/contexta/internal/core/domain"
)

// StoredChunk is a chunk row as persisted by a TextStore.
type StoredChunk struct {
	// ChunkID is the chunk's unique identifier.
	ChunkID string

	// DocID is the parent document's identifier.
	DocID string

	// Text is the chunk content.
	Text string

	// Vector is the stored embedding, nil when none was generated.
	Vector []float32

	// Metadata carries the chunk's provenance.
	Metadata map[string]any
}

// TextStore persists documents and chunks and answers scoped queries.
type TextStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores chunks for a document.
	SaveChunks(ctx context.Context, chunks []domain.DocumentChunk) error

	// QueryChunks returns all chunks within the given scope.
	// An empty scope field matches everything for that field.
	QueryChunks(ctx context.Context, scope domain.Scope) ([]StoredChunk, error)

	// KeywordSearch returns chunks whose text contains pattern,
	// case-insensitively, within the given scope.
	KeywordSearch(ctx context.Context, pattern string, scope domain.Scope, limit int) ([]StoredChunk, error)

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)
}

// VectorHit is a similarity match returned by a VectorSearcher.
type VectorHit struct {
	// Chunk is the matched chunk.
	Chunk StoredChunk

	// Similarity is the cosine similarity to the query vector.
	Similarity float64
}

// VectorSearcher is an optional capability a TextStore may implement
// when the underlying store can answer similarity queries itself.
// Stores without it are searched by a local scan with cosine similarity.
type VectorSearcher interface {
	// VectorSearch returns up to limit chunks with similarity to the
	// query vector at or above threshold, sorted descending.
	VectorSearch(ctx context.Context, vector []float32, scope domain.Scope,
		threshold float64, limit int) ([]VectorHit, error)
}
