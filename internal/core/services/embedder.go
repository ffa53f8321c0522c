package services

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/contexta-labs/contexta/internal/core/domain"
	"github.com/contexta-labs/contexta/internal/core/ports/driven"
	"github.com/contexta-labs/contexta/internal/logger"
)

// Embedder configuration defaults.
const (
	// DefaultBatchSize is the maximum number of texts per backend call.
	DefaultBatchSize = 10

	// DefaultBatchInterval is the fixed pacing between backend calls.
	// A scheduling policy for external rate limits, not adaptive back-off.
	DefaultBatchInterval = 100 * time.Millisecond

	// fallbackDimensions sizes zero vectors when no backend is configured.
	fallbackDimensions = 1536

	// queryKeepRatio is the minimum fraction of query tokens that must
	// survive stop-word stripping; below it the original query is used.
	queryKeepRatio = 0.3
)

// stopWords stripped from queries before embedding.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true,
	"at": true, "be": true, "by": true, "for": true, "from": true,
	"has": true, "he": true, "in": true, "is": true, "it": true,
	"its": true, "of": true, "on": true, "or": true, "that": true,
	"the": true, "to": true, "was": true, "were": true, "will": true,
	"with": true, "what": true, "how": true, "do": true, "does": true,
}

// CacheStats reports embedding cache effectiveness.
type CacheStats struct {
	Hits    uint64
	Misses  uint64
	HitRate float64
	Size    int
}

// Embedder is a caching client over an EmbeddingBackend. Embedding
// never fails upward: backend errors map to zero vectors, isolated per
// batch. Safe for concurrent use.
type Embedder struct {
	backend driven.EmbeddingBackend
	limiter *rate.Limiter

	batchSize int

	mu     sync.Mutex
	cache  map[uint64][]float32
	hits   uint64
	misses uint64
}

// EmbedderOption configures the embedder.
type EmbedderOption func(*Embedder)

// WithBatchSize sets the maximum texts per backend call.
func WithBatchSize(n int) EmbedderOption {
	return func(e *Embedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithBatchInterval sets the pacing between consecutive backend calls.
func WithBatchInterval(d time.Duration) EmbedderOption {
	return func(e *Embedder) {
		if d > 0 {
			e.limiter = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// NewEmbedder creates a caching embedder over backend.
// A nil backend is allowed: every embedding is then the zero vector
// and retrieval degrades to keyword-only.
func NewEmbedder(backend driven.EmbeddingBackend, opts ...EmbedderOption) *Embedder {
	e := &Embedder{
		backend:   backend,
		batchSize: DefaultBatchSize,
		limiter:   rate.NewLimiter(rate.Every(DefaultBatchInterval), 1),
		cache:     make(map[uint64][]float32),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Dimensions returns the vector length produced by this embedder.
func (e *Embedder) Dimensions() int {
	if e.backend == nil {
		return fallbackDimensions
	}
	return e.backend.Dimensions()
}

// ModelName returns the backing model name, "" when no backend is set.
func (e *Embedder) ModelName() string {
	if e.backend == nil {
		return ""
	}
	return e.backend.ModelName()
}

// Embed returns the embedding for text. Empty or whitespace-only input
// maps to the zero vector without a backend call.
func (e *Embedder) Embed(ctx context.Context, text string) []float32 {
	return e.EmbedBatch(ctx, []string{text})[0]
}

// EmbedBatch returns one vector per input, in input order, regardless
// of the cache-hit pattern. Cache misses are sent to the backend in
// batches; a failed batch yields zero vectors for its texts only.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) [][]float32 {
	dims := e.Dimensions()
	out := make([][]float32, len(texts))

	// Partition into cache hits and misses, preserving order
	var missIdx []int
	e.mu.Lock()
	for i, text := range texts {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			out[i] = make([]float32, dims)
			continue
		}
		if vec, ok := e.cache[cacheKey(trimmed)]; ok {
			e.hits++
			out[i] = vec
			continue
		}
		e.misses++
		missIdx = append(missIdx, i)
	}
	e.mu.Unlock()

	if len(missIdx) == 0 {
		return out
	}

	if e.backend == nil {
		logger.Warn("No embedding backend configured, returning zero vectors for %d texts", len(missIdx))
		for _, i := range missIdx {
			out[i] = make([]float32, dims)
		}
		return out
	}

	logger.Debug("Embedding batch: %d texts, %d cache misses", len(texts), len(missIdx))

	for start := 0; start < len(missIdx); start += e.batchSize {
		end := start + e.batchSize
		if end > len(missIdx) {
			end = len(missIdx)
		}
		batch := missIdx[start:end]

		batchTexts := make([]string, len(batch))
		for j, i := range batch {
			batchTexts[j] = texts[i]
		}

		// Fixed pacing between batches to respect external rate limits
		if err := e.limiter.Wait(ctx); err != nil {
			logger.Warn("Embedding cancelled: %v", err)
			for _, i := range batch {
				out[i] = make([]float32, dims)
			}
			continue
		}

		vectors, err := e.backend.Generate(ctx, batchTexts)
		if err != nil || len(vectors) != len(batchTexts) {
			// Failure is isolated to this batch, never propagated
			logger.Warn("Embedding batch failed (%d texts): %v", len(batchTexts), err)
			for _, i := range batch {
				out[i] = make([]float32, dims)
			}
			continue
		}

		e.mu.Lock()
		for j, i := range batch {
			vec := vectors[j]
			if len(vec) != dims {
				vec = make([]float32, dims)
			}
			out[i] = vec
			if !isZeroVector(vec) {
				e.cache[cacheKey(strings.TrimSpace(texts[i]))] = vec
			}
		}
		e.mu.Unlock()
	}

	return out
}

// EmbedQuery embeds a query after light preprocessing: lower-casing and
// stop-word stripping. The original query is kept whenever stripping
// would remove more than ~70% of the tokens.
func (e *Embedder) EmbedQuery(ctx context.Context, query string) []float32 {
	return e.Embed(ctx, PreprocessQuery(query))
}

// PreprocessQuery lower-cases the query and strips stop words, keeping
// the original when too few tokens survive.
func PreprocessQuery(query string) string {
	lowered := strings.ToLower(strings.TrimSpace(query))
	fields := strings.Fields(lowered)
	if len(fields) == 0 {
		return lowered
	}

	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if !stopWords[strings.Trim(f, "?!.,;:")] {
			kept = append(kept, f)
		}
	}

	if float64(len(kept)) < float64(len(fields))*queryKeepRatio {
		return lowered
	}
	if len(kept) == 0 {
		return lowered
	}

	return strings.Join(kept, " ")
}

// Stats returns cache hit/miss counters.
func (e *Embedder) Stats() CacheStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := CacheStats{
		Hits:   e.hits,
		Misses: e.misses,
		Size:   len(e.cache),
	}
	if total := e.hits + e.misses; total > 0 {
		stats.HitRate = float64(e.hits) / float64(total)
	}
	return stats
}

// Ping checks backend connectivity.
func (e *Embedder) Ping(ctx context.Context) error {
	if e.backend == nil {
		return domain.ErrEmbeddingUnavailable
	}
	return e.backend.Ping(ctx)
}

// HasBackend reports whether a real backend is configured.
func (e *Embedder) HasBackend() bool {
	return e.backend != nil
}

func cacheKey(trimmed string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(trimmed))
	return h.Sum64()
}

func isZeroVector(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
