package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScope_IsZero(t *testing.T) {
	tests := []struct {
		name  string
		scope Scope
		want  bool
	}{
		{"empty", Scope{}, true},
		{"tenant only", Scope{Tenant: "acme"}, false},
		{"assistant only", Scope{Assistant: "support"}, false},
		{"both", Scope{Tenant: "acme", Assistant: "support"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.scope.IsZero())
		})
	}
}

func TestDefaultRetrieveOptions(t *testing.T) {
	opts := DefaultRetrieveOptions()

	assert.True(t, opts.UseHybrid)
	assert.Equal(t, 5, opts.MaxChunks)
}

func TestSentinelErrors_WrapAndUnwrap(t *testing.T) {
	wrapped := fmt.Errorf("ingest: %w", ErrMissingScope)

	assert.True(t, errors.Is(wrapped, ErrMissingScope))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
}
