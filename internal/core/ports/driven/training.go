package driven

import (
	"context"

	"github.com/contexta-labs/contexta/internal/core/domain"
)

// TrainingDataSource provides curated, authoritative answers that
// outrank retrieved passages when present.
type TrainingDataSource interface {
	// ExactContext returns curated context matching the query within
	// the given scope, or "" when nothing matches.
	ExactContext(ctx context.Context, query string, scope domain.Scope) (string, error)
}
