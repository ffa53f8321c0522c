package services

import (
	"strings"

	"github.com/contexta-labs/contexta/internal/core/domain"
)

// Confidence factor weights, in factor order: exact-match presence,
// average top-similarity, diversity bonus, query simplicity. Missing
// factors contribute 0, so the weighted sum always uses all four slots.
const (
	exactMatchWeight = 0.4
	similarityWeight = 0.3
	diversityWeight  = 0.2
	simplicityWeight = 0.1
)

// Per-factor constants.
const (
	// exactMatchScore is the factor value when curated exact context exists.
	exactMatchScore = 0.9

	// similarityTopN is how many fused results feed the similarity factor.
	similarityTopN = 5

	// highSimilarityBar marks a result as strong for the diversity bonus.
	highSimilarityBar = 0.8

	// diversityCap bounds the diversity bonus.
	diversityCap = 0.2

	// simplicityWordScale and simplicityPenalty shape the query-length
	// penalty: longer queries are less reliably matched by single-chunk
	// retrieval.
	simplicityWordScale = 10.0
	simplicityPenalty   = 0.3
)

// ConfidenceScore estimates in [0,1] how well the retrieved context
// answers the query. Four factors, each clamped to [0,1] before
// weighting; the final score is clamped again.
func ConfidenceScore(query, exactText string, results []domain.SearchResult) float64 {
	var exact float64
	if strings.TrimSpace(exactText) != "" {
		exact = exactMatchScore
	}

	similarity := avgTopSimilarity(results, similarityTopN)
	diversity := diversityBonus(results)
	simplicity := querySimplicity(query)

	score := clamp01(exact)*exactMatchWeight +
		clamp01(similarity)*similarityWeight +
		clamp01(diversity)*diversityWeight +
		clamp01(simplicity)*simplicityWeight

	return clamp01(score)
}

// avgTopSimilarity averages the top n result similarities, 0 when empty.
func avgTopSimilarity(results []domain.SearchResult, n int) float64 {
	if len(results) == 0 {
		return 0
	}
	if n > len(results) {
		n = len(results)
	}

	var sum float64
	for _, res := range results[:n] {
		sum += res.Similarity
	}
	return sum / float64(n)
}

// diversityBonus is the fraction of results above the high-similarity
// bar, capped.
func diversityBonus(results []domain.SearchResult) float64 {
	if len(results) == 0 {
		return 0
	}

	strong := 0
	for _, res := range results {
		if res.Similarity > highSimilarityBar {
			strong++
		}
	}

	bonus := float64(strong) / float64(len(results))
	if bonus > diversityCap {
		bonus = diversityCap
	}
	return bonus
}

// querySimplicity is 1.0 - min(words/10, 1.0) * 0.3.
func querySimplicity(query string) float64 {
	words := float64(len(strings.Fields(query)))
	frac := words / simplicityWordScale
	if frac > 1 {
		frac = 1
	}
	return 1.0 - frac*simplicityPenalty
}
