package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/contexta-labs/contexta/internal/core/domain"
	"github.com/contexta-labs/contexta/internal/core/ports/driven"
)

// Ensure TrainingStore implements the interface.
var _ driven.TrainingDataSource = (*TrainingStore)(nil)

// TrainingStore holds curated question/answer pairs in memory.
type TrainingStore struct {
	mu    sync.RWMutex
	pairs []trainingPair
}

// trainingPair is one curated question/answer entry.
type trainingPair struct {
	question string
	answer   string
	scope    domain.Scope
}

// NewTrainingStore creates an empty training store.
func NewTrainingStore() *TrainingStore {
	return &TrainingStore{}
}

// Add stores a curated question/answer pair under the given scope.
func (s *TrainingStore) Add(question, answer string, scope domain.Scope) {
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pairs = append(s.pairs, trainingPair{
		question: question,
		answer:   answer,
		scope:    scope,
	})
}

// Len returns the number of stored pairs.
func (s *TrainingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pairs)
}

// ExactContext returns the formatted pairs whose question matches the
// query, or "" when nothing matches. A pair matches when either string
// contains the other, case-insensitively.
func (s *TrainingStore) ExactContext(
	_ context.Context, query string, scope domain.Scope,
) (string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return "", nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var sections []string
	for _, pair := range s.pairs {
		if !scopeMatches(scope, pair.scope) {
			continue
		}
		question := strings.ToLower(pair.question)
		if !strings.Contains(question, query) && !strings.Contains(query, question) {
			continue
		}
		sections = append(sections, fmt.Sprintf("Q: %s\nA: %s", pair.question, pair.answer))
	}

	return strings.Join(sections, "\n\n"), nil
}
