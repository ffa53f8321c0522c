package services

import (
	"context"
	"strings"

	"github.com/contexta-labs/contexta/internal/core/domain"
	"github.com/contexta-labs/contexta/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockBackend implements driven.EmbeddingBackend for testing.
// It returns a deterministic vector per text and counts calls.
type mockBackend struct {
	dims     int
	calls    int
	genErr   error
	failOnce bool
	vectors  map[string][]float32
}

func newMockBackend(dims int) *mockBackend {
	return &mockBackend{dims: dims, vectors: make(map[string][]float32)}
}

func (m *mockBackend) Generate(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.genErr != nil {
		if m.failOnce {
			err := m.genErr
			m.genErr = nil
			return nil, err
		}
		return nil, m.genErr
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if vec, ok := m.vectors[text]; ok {
			out[i] = vec
			continue
		}
		vec := make([]float32, m.dims)
		for j := range vec {
			vec[j] = float32((len(text)+i+j)%7) + 1
		}
		out[i] = vec
	}
	return out, nil
}

func (m *mockBackend) Dimensions() int              { return m.dims }
func (m *mockBackend) ModelName() string            { return "mock-embed" }
func (m *mockBackend) Ping(_ context.Context) error { return nil }
func (m *mockBackend) Close() error                 { return nil }

// mockTextStore implements driven.TextStore for testing. With blocking
// set, reads wait on the context the way a remote store would.
type mockTextStore struct {
	docs     []domain.Document
	chunks   []driven.StoredChunk
	queryErr error
	kwErr    error
	saveErr  error
	blocking bool
}

func (m *mockTextStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.docs = append(m.docs, *doc)
	return nil
}

func (m *mockTextStore) SaveChunks(_ context.Context, chunks []domain.DocumentChunk) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, c := range chunks {
		m.chunks = append(m.chunks, driven.StoredChunk{
			ChunkID:  c.ID,
			DocID:    c.DocumentID,
			Text:     c.Text,
			Vector:   c.Embedding,
			Metadata: c.Metadata,
		})
	}
	return nil
}

func (m *mockTextStore) QueryChunks(ctx context.Context, _ domain.Scope) ([]driven.StoredChunk, error) {
	if m.blocking {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.chunks, nil
}

func (m *mockTextStore) KeywordSearch(
	ctx context.Context, pattern string, _ domain.Scope, limit int,
) ([]driven.StoredChunk, error) {
	if m.blocking {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.kwErr != nil {
		return nil, m.kwErr
	}
	var out []driven.StoredChunk
	for _, c := range m.chunks {
		if strings.Contains(strings.ToLower(c.Text), strings.ToLower(pattern)) {
			out = append(out, c)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *mockTextStore) CountDocuments(_ context.Context) (int, error) {
	return len(m.docs), nil
}

func (m *mockTextStore) CountChunks(_ context.Context) (int, error) {
	return len(m.chunks), nil
}

// mockVectorStore is a mockTextStore that also answers similarity
// queries itself, exercising the store-side search path.
type mockVectorStore struct {
	mockTextStore
	hits      []driven.VectorHit
	vectorErr error
	called    bool
}

func (m *mockVectorStore) VectorSearch(
	_ context.Context, _ []float32, _ domain.Scope, threshold float64, limit int,
) ([]driven.VectorHit, error) {
	m.called = true
	if m.vectorErr != nil {
		return nil, m.vectorErr
	}
	var out []driven.VectorHit
	for _, h := range m.hits {
		if h.Similarity >= threshold {
			out = append(out, h)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

// mockTraining implements driven.TrainingDataSource for testing.
type mockTraining struct {
	context string
	err     error
}

func (m *mockTraining) ExactContext(_ context.Context, _ string, _ domain.Scope) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.context, nil
}

// Interface compliance.
var (
	_ driven.EmbeddingBackend   = (*mockBackend)(nil)
	_ driven.TextStore          = (*mockTextStore)(nil)
	_ driven.VectorSearcher     = (*mockVectorStore)(nil)
	_ driven.TrainingDataSource = (*mockTraining)(nil)
)
