package domain

import "time"

// ResultSource identifies which retrieval strategy produced a result.
type ResultSource string

// Result sources.
const (
	SourceVector       ResultSource = "vector"
	SourceKeyword      ResultSource = "keyword"
	SourceHybrid       ResultSource = "hybrid"
	SourceTrainingData ResultSource = "training_data"
)

// SearchResult represents a single retrieved passage.
type SearchResult struct {
	// Content is the chunk text.
	Content string

	// Similarity is the relevance score in [0,1].
	Similarity float64

	// Source is the retrieval strategy that produced this result.
	Source ResultSource

	// DocID and ChunkID form the deduplication key across strategies.
	// Either may be empty for results without chunk identity.
	DocID   string
	ChunkID string

	// Metadata carries the chunk's provenance.
	Metadata map[string]any
}

// RetrieveOptions configures a retrieval call.
type RetrieveOptions struct {
	// UseHybrid enables the keyword leg alongside the vector leg.
	UseHybrid bool

	// MaxChunks limits the number of fused results.
	MaxChunks int
}

// DefaultRetrieveOptions returns the standard retrieval configuration.
func DefaultRetrieveOptions() RetrieveOptions {
	return RetrieveOptions{UseHybrid: true, MaxChunks: 5}
}

// RAGContext is the engine's output for one query: a bounded, attributed,
// confidence-scored text block ready for prompt injection. It is
// constructed fresh per call and immutable once returned.
type RAGContext struct {
	// Query is the original query text.
	Query string

	// ContextText is the assembled context block.
	ContextText string

	// Retrieved holds the fused, ranked passages used for assembly.
	Retrieved []SearchResult

	// SourceCount is the number of retrieved passages.
	SourceCount int

	// Confidence estimates in [0,1] how well the context answers the
	// query. Low values signal the caller to defer rather than answer.
	Confidence float64

	// ContextSources lists the contributing source kinds in order,
	// e.g. ["training_data", "hybrid"].
	ContextSources []string

	// TokenCount is the token size of ContextText.
	TokenCount int

	// ProcessingTime is the wall-clock time of the retrieval.
	ProcessingTime time.Duration
}

// EngineStats is the observability surface of the engine.
type EngineStats struct {
	// CacheHits and CacheMisses count embedding cache accesses.
	CacheHits   uint64
	CacheMisses uint64

	// CacheHitRate is hits / (hits + misses), 0 when empty.
	CacheHitRate float64

	// CacheSize is the number of cached vectors.
	CacheSize int

	// Documents and Chunks count rows in the text store.
	Documents int
	Chunks    int

	// EmbeddingModel names the backing embedding model, if any.
	EmbeddingModel string
}
