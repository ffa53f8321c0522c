package driving

import (
	"context"

	"github.com/contexta-labs/contexta/internal/core/domain"
)

// Engine is the retrieval façade exposed to the application layer.
type Engine interface {
	// Ingest chunks, embeds and persists a document. It returns an
	// error only for malformed invocations (missing scope tenant) or
	// a failed persist; embedding failures degrade to zero vectors.
	Ingest(ctx context.Context, text, filename string, scope domain.Scope) (*domain.IngestResult, error)

	// Retrieve produces a bounded, attributed, confidence-scored
	// context block for the query. It never fails: any internal error
	// degrades to an exact-only or empty context with reduced
	// confidence.
	Retrieve(ctx context.Context, query string, scope domain.Scope, opts domain.RetrieveOptions) *domain.RAGContext

	// Stats reports cache and store counters for observability.
	Stats(ctx context.Context) (*domain.EngineStats, error)
}
