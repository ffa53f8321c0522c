// Package memory provides in-memory store implementations, used in
// tests and as a fallback when no data directory is available.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/contexta-labs/contexta/internal/core/domain"
	"github.com/contexta-labs/contexta/internal/core/ports/driven"
)

// Ensure TextStore implements the interface.
var _ driven.TextStore = (*TextStore)(nil)

// TextStore is an in-memory implementation of driven.TextStore.
type TextStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    []chunkRow
}

// chunkRow pairs a stored chunk with the scope it was saved under.
type chunkRow struct {
	chunk driven.StoredChunk
	scope domain.Scope
}

// NewTextStore creates a new in-memory text store.
func NewTextStore() *TextStore {
	return &TextStore{
		documents: make(map[string]domain.Document),
	}
}

// SaveDocument stores or updates a document.
func (s *TextStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// SaveChunks stores chunks, inheriting the scope of their parent
// document when it is already stored.
func (s *TextStore) SaveChunks(_ context.Context, chunks []domain.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range chunks {
		s.chunks = append(s.chunks, chunkRow{
			chunk: driven.StoredChunk{
				ChunkID:  c.ID,
				DocID:    c.DocumentID,
				Text:     c.Text,
				Vector:   c.Embedding,
				Metadata: c.Metadata,
			},
			scope: s.scopeForLocked(c),
		})
	}
	return nil
}

// scopeForLocked resolves a chunk's scope from its parent document,
// falling back to the chunk metadata. Caller holds the lock.
func (s *TextStore) scopeForLocked(c domain.DocumentChunk) domain.Scope {
	if doc, ok := s.documents[c.DocumentID]; ok {
		return doc.Scope
	}

	var scope domain.Scope
	if tenant, ok := c.Metadata["tenant"].(string); ok {
		scope.Tenant = tenant
	}
	if assistant, ok := c.Metadata["assistant"].(string); ok {
		scope.Assistant = assistant
	}
	return scope
}

// QueryChunks returns all chunks within the given scope.
func (s *TextStore) QueryChunks(_ context.Context, scope domain.Scope) ([]driven.StoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []driven.StoredChunk
	for _, row := range s.chunks {
		if scopeMatches(scope, row.scope) {
			out = append(out, row.chunk)
		}
	}
	return out, nil
}

// KeywordSearch returns chunks whose text contains pattern,
// case-insensitively, within the given scope.
func (s *TextStore) KeywordSearch(
	_ context.Context, pattern string, scope domain.Scope, limit int,
) ([]driven.StoredChunk, error) {
	pattern = strings.ToLower(pattern)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []driven.StoredChunk
	for _, row := range s.chunks {
		if !scopeMatches(scope, row.scope) {
			continue
		}
		if !strings.Contains(strings.ToLower(row.chunk.Text), pattern) {
			continue
		}
		out = append(out, row.chunk)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// CountDocuments returns the number of stored documents.
func (s *TextStore) CountDocuments(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), nil
}

// CountChunks returns the number of stored chunks.
func (s *TextStore) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// scopeMatches reports whether a row's scope is visible under the
// query scope. An empty query field matches everything for that field.
func scopeMatches(query, row domain.Scope) bool {
	if query.Tenant != "" && query.Tenant != row.Tenant {
		return false
	}
	if query.Assistant != "" && query.Assistant != row.Assistant {
		return false
	}
	return true
}
