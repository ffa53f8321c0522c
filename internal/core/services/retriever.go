package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/contexta-labs/contexta/internal/core/domain"
	"github.com/contexta-labs/contexta/internal/core/ports/driven"
	"github.com/contexta-labs/contexta/internal/logger"
)

// Similarity thresholds. Hybrid calls admit weaker vector evidence
// because the keyword leg corroborates; pure semantic calls demand more.
const (
	DefaultHybridThreshold   = 0.5
	DefaultSemanticThreshold = 0.6
)

// keywordScoreCeiling caps the keyword leg's score. Keyword evidence is
// intentionally weaker than semantic evidence.
const keywordScoreCeiling = 0.5

// Retriever runs the two retrieval legs over a TextStore.
type Retriever struct {
	store    driven.TextStore
	embedder *Embedder
}

// NewRetriever creates a retriever over store using embedder for the
// vector leg.
func NewRetriever(store driven.TextStore, embedder *Embedder) *Retriever {
	return &Retriever{
		store:    store,
		embedder: embedder,
	}
}

// Search runs the vector and keyword legs concurrently, fuses the
// results, and returns up to limit passages. A single failed leg
// degrades to empty; the error is non-nil only when both legs failed.
func (r *Retriever) Search(
	ctx context.Context, query string, scope domain.Scope, useHybrid bool, limit int,
) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = domain.DefaultRetrieveOptions().MaxChunks
	}

	if !useHybrid {
		results, err := r.vectorLeg(ctx, query, scope, DefaultSemanticThreshold, limit)
		if err != nil {
			return nil, fmt.Errorf("vector search: %w", err)
		}
		return results, nil
	}

	logger.Debug("Hybrid search: running vector and keyword legs in parallel")

	var vectorResults, keywordResults []domain.SearchResult
	var vectorErr, keywordErr error

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		vectorResults, vectorErr = r.vectorLeg(ctx, query, scope, DefaultHybridThreshold, limit)
	}()

	go func() {
		defer wg.Done()
		keywordResults, keywordErr = r.keywordLeg(ctx, query, scope, limit)
	}()

	wg.Wait()

	if vectorErr != nil && keywordErr != nil {
		logger.Warn("Hybrid search: both legs failed")
		return nil, fmt.Errorf("hybrid search: vector=%w, keyword=%w", vectorErr, keywordErr)
	}
	if vectorErr != nil {
		logger.Warn("Hybrid search: vector leg failed, keyword results only: %v", vectorErr)
		vectorResults = nil
	}
	if keywordErr != nil {
		logger.Warn("Hybrid search: keyword leg failed, vector results only: %v", keywordErr)
		keywordResults = nil
	}

	logger.Debug("Hybrid search: fusing %d vector + %d keyword results",
		len(vectorResults), len(keywordResults))

	return FuseResults(vectorResults, keywordResults,
		DefaultVectorWeight, DefaultKeywordWeight, limit), nil
}

// Similar returns chunks semantically close to text, excluding those
// from excludeDoc. Used for related-content lookups around an existing
// document.
func (r *Retriever) Similar(
	ctx context.Context, text string, scope domain.Scope, limit int, excludeDoc string,
) []domain.SearchResult {
	results, err := r.vectorLeg(ctx, text, scope, DefaultSemanticThreshold, limit+1)
	if err != nil {
		logger.Warn("Similar lookup failed: %v", err)
		return nil
	}

	filtered := make([]domain.SearchResult, 0, len(results))
	for _, res := range results {
		if res.DocID == excludeDoc {
			continue
		}
		filtered = append(filtered, res)
		if len(filtered) >= limit {
			break
		}
	}
	return filtered
}

// vectorLeg embeds the query and ranks chunks by cosine similarity.
// Stores implementing driven.VectorSearcher answer the similarity query
// themselves; everything else gets a local scan over QueryChunks.
func (r *Retriever) vectorLeg(
	ctx context.Context, query string, scope domain.Scope, threshold float64, limit int,
) ([]domain.SearchResult, error) {
	if r.store == nil {
		return nil, domain.ErrStoreUnavailable
	}

	queryVec := r.embedder.EmbedQuery(ctx, query)
	if isZeroVector(queryVec) {
		// A zero query vector matches nothing by definition
		return nil, domain.ErrEmbeddingUnavailable
	}

	if searcher, ok := r.store.(driven.VectorSearcher); ok {
		logger.Debug("Vector leg: store-side similarity search (threshold %.2f)", threshold)
		hits, err := searcher.VectorSearch(ctx, queryVec, scope, threshold, limit)
		if err != nil {
			return nil, fmt.Errorf("store vector search: %w", err)
		}
		results := make([]domain.SearchResult, len(hits))
		for i, hit := range hits {
			results[i] = domain.SearchResult{
				Content:    hit.Chunk.Text,
				Similarity: hit.Similarity,
				Source:     domain.SourceVector,
				DocID:      hit.Chunk.DocID,
				ChunkID:    hit.Chunk.ChunkID,
				Metadata:   hit.Chunk.Metadata,
			}
		}
		return results, nil
	}

	logger.Debug("Vector leg: local scan with cosine similarity (threshold %.2f)", threshold)

	chunks, err := r.store.QueryChunks(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}

	var results []domain.SearchResult
	for _, chunk := range chunks {
		sim := CosineSimilarity(queryVec, chunk.Vector)
		if sim < threshold {
			continue
		}
		results = append(results, domain.SearchResult{
			Content:    chunk.Text,
			Similarity: sim,
			Source:     domain.SourceVector,
			DocID:      chunk.DocID,
			ChunkID:    chunk.ChunkID,
			Metadata:   chunk.Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// keywordLeg matches query tokens against chunk text, case-insensitively.
// The score counts matched tokens, normalised into [0, 0.5].
func (r *Retriever) keywordLeg(
	ctx context.Context, query string, scope domain.Scope, limit int,
) ([]domain.SearchResult, error) {
	if r.store == nil {
		return nil, domain.ErrStoreUnavailable
	}

	tokens := queryTokens(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	seen := make(map[string]driven.StoredChunk)
	var order []string

	for _, token := range tokens {
		chunks, err := r.store.KeywordSearch(ctx, token, scope, limit)
		if err != nil {
			return nil, fmt.Errorf("keyword search %q: %w", token, err)
		}
		for _, chunk := range chunks {
			if _, ok := seen[chunk.ChunkID]; !ok {
				seen[chunk.ChunkID] = chunk
				order = append(order, chunk.ChunkID)
			}
		}
	}

	results := make([]domain.SearchResult, 0, len(order))
	for _, id := range order {
		chunk := seen[id]
		text := strings.ToLower(chunk.Text)

		matched := 0
		for _, token := range tokens {
			if strings.Contains(text, token) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}

		results = append(results, domain.SearchResult{
			Content:    chunk.Text,
			Similarity: float64(matched) / float64(len(tokens)) * keywordScoreCeiling,
			Source:     domain.SourceKeyword,
			DocID:      chunk.DocID,
			ChunkID:    chunk.ChunkID,
			Metadata:   chunk.Metadata,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

// queryTokens lower-cases the query and keeps tokens long enough to be
// discriminative. Falls back to the whole query when nothing survives.
func queryTokens(query string) []string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(query)))

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "?!.,;:\"'")
		if len(f) > 2 {
			tokens = append(tokens, f)
		}
	}

	if len(tokens) == 0 {
		q := strings.ToLower(strings.TrimSpace(query))
		if q != "" {
			tokens = append(tokens, q)
		}
	}

	return tokens
}

// CosineSimilarity computes dot(a,b) / (||a|| * ||b||). A zero-norm
// vector yields 0: never divide by zero, never rank zero vectors.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
