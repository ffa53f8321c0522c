package domain

import "time"

// Scope identifies whose corpus a document or query belongs to.
// Tenant is required on ingestion; Assistant further narrows the corpus
// when one tenant runs multiple assistants.
type Scope struct {
	// Tenant is the owning account identifier.
	Tenant string

	// Assistant optionally narrows to a single assistant's corpus.
	Assistant string
}

// IsZero reports whether no scope is set at all.
func (s Scope) IsZero() bool {
	return s.Tenant == "" && s.Assistant == ""
}

// Document represents an ingested source document.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Filename is the original file name, used for attribution lines.
	Filename string

	// Content is the full raw text as submitted.
	Content string

	// Scope records which tenant/assistant owns this document.
	Scope Scope

	// Metadata contains arbitrary key-value pairs supplied at ingestion.
	Metadata map[string]any

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time
}

// ChunkType is a coarse semantic tag for a chunk, derived by pattern
// heuristics. It is used only for downstream formatting and is never
// authoritative.
type ChunkType string

// Chunk type tags in order of classification precedence.
const (
	ChunkTypeQAPair     ChunkType = "qa_pair"
	ChunkTypeProcess    ChunkType = "process"
	ChunkTypeDefinition ChunkType = "definition"
	ChunkTypeQuestion   ChunkType = "question"
	ChunkTypeData       ChunkType = "data"
	ChunkTypeExample    ChunkType = "example"
	ChunkTypeList       ChunkType = "list"
	ChunkTypeHeader     ChunkType = "header"
	ChunkTypeGeneral    ChunkType = "general"
)

// DocumentChunk is a contiguous span of a source document, sized for
// embedding and retrieval.
type DocumentChunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Text is the chunk content, non-empty after trimming.
	Text string

	// Index is the stable ordinal position within the parent document.
	Index int

	// TokenCount is recomputed from Text, never trusted from caller input.
	// It may exceed the chunk budget when a single atomic unit could not
	// be split further.
	TokenCount int

	// ChunkType is the heuristic semantic tag.
	ChunkType ChunkType

	// SpanStart and SpanEnd locate the chunk in the cleaned document text.
	// Best-effort: approximate when a chunk was synthesised by merging.
	SpanStart int
	SpanEnd   int

	// Embedding is the vector representation for semantic search.
	Embedding []float32

	// Metadata carries provenance (filename, scope, source id),
	// propagated verbatim from the ingestion call.
	Metadata map[string]any
}

// IngestResult summarises one ingestion call.
type IngestResult struct {
	// DocumentID is the ID assigned to the ingested document.
	DocumentID string

	// ChunksCreated is the number of chunks produced by the chunker.
	ChunksCreated int

	// ChunksStored is the number of chunks persisted.
	ChunksStored int

	// EmbeddingsGenerated counts chunks that received a non-zero vector.
	EmbeddingsGenerated int

	// TokensIngested is the total token count across created chunks.
	TokensIngested int

	// ChunkTypes counts created chunks per semantic tag.
	ChunkTypes map[string]int

	// Duration is the wall-clock time of the ingestion.
	Duration time.Duration
}
