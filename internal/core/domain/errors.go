package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingScope indicates an ingestion call without a tenant.
	// This is the one condition rejected before any I/O is attempted.
	ErrMissingScope = errors.New("missing scope")

	// ErrEmbeddingUnavailable indicates the embedding backend is not
	// configured or failed. Vector retrieval degrades to empty.
	ErrEmbeddingUnavailable = errors.New("embedding backend unavailable")

	// ErrStoreUnavailable indicates the text store is not configured.
	ErrStoreUnavailable = errors.New("text store unavailable")

	// ErrTrainingDataUnavailable indicates the training data source
	// is not configured. Exact-match context is disabled.
	ErrTrainingDataUnavailable = errors.New("training data source unavailable")
)
