package driven

import "context"

// EmbeddingBackend generates vector embeddings from text.
// This is an optional service - when nil, vector/semantic retrieval
// is disabled and the engine degrades to keyword-only.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingBackend interface {
	// Generate returns one embedding per input text, in input order.
	// A failure applies to the whole call; the caller isolates it.
	Generate(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
