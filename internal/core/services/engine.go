package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/contexta-labs/contexta/internal/chunker"
	"github.com/contexta-labs/contexta/internal/core/domain"
	"github.com/contexta-labs/contexta/internal/core/ports/driven"
	"github.com/contexta-labs/contexta/internal/core/ports/driving"
	"github.com/contexta-labs/contexta/internal/logger"
)

// Ensure Engine implements the interface.
var _ driving.Engine = (*Engine)(nil)

// DefaultQueryTimeout bounds the whole retrieve-fuse-score-assemble
// chain. Timeout is treated as a failure mode, not a distinct outcome.
const DefaultQueryTimeout = 10 * time.Second

// Fallback confidences when a pipeline step fails.
const (
	fallbackConfidenceWithExact    = 0.5
	fallbackConfidenceWithoutExact = 0.1
)

// Engine orchestrates ingestion and retrieval. Stateless across
// requests; the embedding cache is the only long-lived mutable state
// and lives in the Embedder.
type Engine struct {
	chunker   *chunker.Chunker
	embedder  *Embedder
	retriever *Retriever
	assembler *Assembler
	store     driven.TextStore
	training  driven.TrainingDataSource

	queryTimeout time.Duration
}

// EngineOption configures the engine.
type EngineOption func(*Engine)

// WithQueryTimeout sets the per-query timeout.
func WithQueryTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.queryTimeout = d
		}
	}
}

// WithTrainingData sets the curated training data source.
// Optional: without it, exact-match context is disabled.
func WithTrainingData(source driven.TrainingDataSource) EngineOption {
	return func(e *Engine) {
		e.training = source
	}
}

// WithChunker replaces the default chunker.
func WithChunker(c *chunker.Chunker) EngineOption {
	return func(e *Engine) {
		if c != nil {
			e.chunker = c
		}
	}
}

// WithAssembler replaces the default assembler.
func WithAssembler(a *Assembler) EngineOption {
	return func(e *Engine) {
		if a != nil {
			e.assembler = a
		}
	}
}

// NewEngine composes the engine from its collaborators. The store is
// required; the embedding backend inside embedder may be nil.
func NewEngine(store driven.TextStore, embedder *Embedder, opts ...EngineOption) *Engine {
	e := &Engine{
		chunker:      chunker.New(),
		embedder:     embedder,
		assembler:    NewAssembler(),
		store:        store,
		queryTimeout: DefaultQueryTimeout,
	}
	e.retriever = NewRetriever(store, embedder)

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Retriever exposes the engine's retriever for related-content lookups.
func (e *Engine) Retriever() *Retriever {
	return e.retriever
}

// Ingest chunks, embeds and persists a document. The only hard errors
// are a missing scope tenant (rejected before any I/O) and a failed
// persist; embedding failures degrade to zero vectors.
func (e *Engine) Ingest(
	ctx context.Context, text, filename string, scope domain.Scope,
) (*domain.IngestResult, error) {
	if scope.Tenant == "" {
		return nil, fmt.Errorf("ingest %q: %w", filename, domain.ErrMissingScope)
	}
	if e.store == nil {
		return nil, fmt.Errorf("ingest %q: %w", filename, domain.ErrStoreUnavailable)
	}

	logger.Section("Ingest")
	logger.Debug("File: %q, tenant: %q, assistant: %q", filename, scope.Tenant, scope.Assistant)

	start := time.Now()

	metadata := map[string]any{
		"filename": filename,
		"tenant":   scope.Tenant,
	}
	if scope.Assistant != "" {
		metadata["assistant"] = scope.Assistant
	}

	chunks := e.chunker.Chunk(text, metadata)
	logger.Info("Chunked into %d pieces", len(chunks))

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:        uuid.New().String(),
		Filename:  filename,
		Content:   text,
		Scope:     scope,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	cstats := chunker.ComputeStats(chunks)
	result := &domain.IngestResult{
		DocumentID:     doc.ID,
		ChunksCreated:  len(chunks),
		TokensIngested: cstats.TotalTokens,
		ChunkTypes:     make(map[string]int, len(cstats.ByType)),
	}
	for chunkType, n := range cstats.ByType {
		result.ChunkTypes[string(chunkType)] = n
	}

	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i := range chunks {
			texts[i] = chunks[i].Text
		}

		vectors := e.embedder.EmbedBatch(ctx, texts)
		for i := range chunks {
			chunks[i].DocumentID = doc.ID
			chunks[i].Embedding = vectors[i]
			chunks[i].Metadata["chunk_type"] = string(chunks[i].ChunkType)
			if !isZeroVector(vectors[i]) {
				result.EmbeddingsGenerated++
			}
		}
	}

	if err := e.store.SaveDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if len(chunks) > 0 {
		if err := e.store.SaveChunks(ctx, chunks); err != nil {
			return nil, fmt.Errorf("save chunks: %w", err)
		}
		result.ChunksStored = len(chunks)
	}

	result.Duration = time.Since(start)
	logger.Info("Ingested %s: %d chunks, %d embeddings, %s",
		doc.ID, result.ChunksStored, result.EmbeddingsGenerated, result.Duration)

	return result, nil
}

// Retrieve produces a context block for the query. It never returns an
// error: step failures and timeouts fall back to exact-only context at
// reduced confidence, and a query with no data at all yields an empty
// context at confidence 0.
func (e *Engine) Retrieve(
	ctx context.Context, query string, scope domain.Scope, opts domain.RetrieveOptions,
) *domain.RAGContext {
	logger.Section("Retrieve")
	logger.Debug("Query: %q", query)

	start := time.Now()
	out := &domain.RAGContext{Query: query}

	query = strings.TrimSpace(query)
	if query == "" {
		out.ProcessingTime = time.Since(start)
		return out
	}

	ctx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	// Curated exact context outranks retrieval when present
	exactText := ""
	if e.training != nil {
		text, err := e.training.ExactContext(ctx, query, scope)
		if err != nil {
			logger.Warn("Exact context lookup failed: %v", err)
		} else {
			exactText = text
		}
	}

	results, err := e.retriever.Search(ctx, query, scope, opts.UseHybrid, opts.MaxChunks)
	if err != nil || ctx.Err() != nil {
		logger.Warn("Retrieval failed: %v (ctx: %v), falling back", err, ctx.Err())
		return e.fallback(out, exactText, start)
	}

	if exactText == "" && len(results) == 0 {
		// Nothing anywhere: an empty, zero-confidence context
		logger.Info("No exact context and no retrieval hits")
		out.ProcessingTime = time.Since(start)
		return out
	}

	contextText, tokenCount := e.assembler.Assemble(exactText, results)

	out.ContextText = contextText
	out.Retrieved = results
	out.SourceCount = len(results)
	out.Confidence = ConfidenceScore(query, exactText, results)
	out.ContextSources = contextSources(exactText, results, opts.UseHybrid)
	out.TokenCount = tokenCount
	out.ProcessingTime = time.Since(start)

	logger.Info("Context: %d tokens, %d sources, confidence %.3f",
		out.TokenCount, out.SourceCount, out.Confidence)

	return out
}

// fallback builds the degraded context after a step failure: exact-only
// text at a fixed reduced confidence.
func (e *Engine) fallback(out *domain.RAGContext, exactText string, start time.Time) *domain.RAGContext {
	if exactText != "" {
		text, tokens := e.assembler.Assemble(exactText, nil)
		out.ContextText = text
		out.TokenCount = tokens
		out.Confidence = fallbackConfidenceWithExact
		out.ContextSources = []string{string(domain.SourceTrainingData)}
	} else {
		out.Confidence = fallbackConfidenceWithoutExact
	}
	out.ProcessingTime = time.Since(start)
	return out
}

// Stats reports cache and store counters.
func (e *Engine) Stats(ctx context.Context) (*domain.EngineStats, error) {
	cache := e.embedder.Stats()

	stats := &domain.EngineStats{
		CacheHits:      cache.Hits,
		CacheMisses:    cache.Misses,
		CacheHitRate:   cache.HitRate,
		CacheSize:      cache.Size,
		EmbeddingModel: e.embedder.ModelName(),
	}

	if e.store != nil {
		docs, err := e.store.CountDocuments(ctx)
		if err != nil {
			return nil, fmt.Errorf("count documents: %w", err)
		}
		chunks, err := e.store.CountChunks(ctx)
		if err != nil {
			return nil, fmt.Errorf("count chunks: %w", err)
		}
		stats.Documents = docs
		stats.Chunks = chunks
	}

	return stats, nil
}

// contextSources lists contributing source kinds in assembly order.
func contextSources(exactText string, results []domain.SearchResult, hybrid bool) []string {
	var sources []string
	if exactText != "" {
		sources = append(sources, string(domain.SourceTrainingData))
	}
	if len(results) > 0 {
		if hybrid {
			sources = append(sources, string(domain.SourceHybrid))
		} else {
			sources = append(sources, string(domain.SourceVector))
		}
	}
	return sources
}
