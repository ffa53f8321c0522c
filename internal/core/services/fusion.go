package services

import (
	"sort"

	"github.com/contexta-labs/contexta/internal/core/domain"
)

// Fusion weights. Semantic evidence dominates keyword evidence.
const (
	DefaultVectorWeight  = 0.7
	DefaultKeywordWeight = 0.3
)

// fusionKey deduplicates candidates across the two legs.
type fusionKey struct {
	docID   string
	chunkID string
}

// fusedCandidate tracks a candidate's per-leg scores during fusion.
type fusedCandidate struct {
	result       domain.SearchResult
	vectorScore  float64
	keywordScore float64
	inBoth       bool
	vectorRank   int
}

// FuseResults merges the vector and keyword legs keyed by
// (docID, chunkID). A key present in both legs combines as
// vector*vectorWeight + keyword*keywordWeight; a key in one leg keeps
// the same formula with the missing score as 0, so single-leg hits are
// down-weighted rather than excluded. Ties break by original
// vector-leg rank, then key, so repeated calls are reproducible.
func FuseResults(
	vector, keyword []domain.SearchResult,
	vectorWeight, keywordWeight float64,
	limit int,
) []domain.SearchResult {
	if vectorWeight <= 0 && keywordWeight <= 0 {
		vectorWeight, keywordWeight = DefaultVectorWeight, DefaultKeywordWeight
	}

	merged := make(map[fusionKey]*fusedCandidate, len(vector)+len(keyword))
	var keys []fusionKey

	for rank, res := range vector {
		key := fusionKey{res.DocID, res.ChunkID}
		merged[key] = &fusedCandidate{
			result:      res,
			vectorScore: res.Similarity,
			vectorRank:  rank,
		}
		keys = append(keys, key)
	}

	for _, res := range keyword {
		key := fusionKey{res.DocID, res.ChunkID}
		if cand, ok := merged[key]; ok {
			cand.keywordScore = res.Similarity
			cand.inBoth = true
			continue
		}
		merged[key] = &fusedCandidate{
			result:       res,
			keywordScore: res.Similarity,
			vectorRank:   len(vector), // keyword-only hits rank after all vector hits
		}
		keys = append(keys, key)
	}

	results := make([]domain.SearchResult, 0, len(keys))
	ranks := make(map[fusionKey]int, len(keys))

	for _, key := range keys {
		cand := merged[key]
		res := cand.result
		res.Similarity = clamp01(cand.vectorScore*vectorWeight + cand.keywordScore*keywordWeight)
		if cand.inBoth {
			res.Source = domain.SourceHybrid
		}
		ranks[key] = cand.vectorRank
		results = append(results, res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		ki := fusionKey{results[i].DocID, results[i].ChunkID}
		kj := fusionKey{results[j].DocID, results[j].ChunkID}
		if ranks[ki] != ranks[kj] {
			return ranks[ki] < ranks[kj]
		}
		if ki.docID != kj.docID {
			return ki.docID < kj.docID
		}
		return ki.chunkID < kj.chunkID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	return results
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
