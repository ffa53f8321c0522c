package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApprox_Count(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", "   \n\t  ", 0},
		{"single word", "hello", 2},       // ceil(1 * 1.3)
		{"two words", "hello world", 3},   // ceil(2 * 1.3)
		{"ten words", strings.Repeat("word ", 10), 13},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Approx{}.Count(tt.text))
		})
	}
}

func TestApprox_ScalesWithLength(t *testing.T) {
	short := Approx{}.Count("one two three")
	long := Approx{}.Count(strings.Repeat("one two three ", 50))

	assert.Greater(t, long, short)
}

func TestTiktoken_EmptyText(t *testing.T) {
	counter := NewTiktoken()

	assert.Equal(t, 0, counter.Count(""))
}

func TestTiktoken_CountsArePositive(t *testing.T) {
	counter := NewTiktoken()

	count := counter.Count("The quick brown fox jumps over the lazy dog.")

	assert.Greater(t, count, 0)
}

func TestTiktoken_LongerTextCountsMore(t *testing.T) {
	counter := NewTiktoken()

	short := counter.Count("hello world")
	long := counter.Count(strings.Repeat("hello world ", 100))

	assert.Greater(t, long, short)
}

func TestTiktoken_Deterministic(t *testing.T) {
	counter := NewTiktoken()
	text := "Tokens should count the same every time."

	assert.Equal(t, counter.Count(text), counter.Count(text))
}
