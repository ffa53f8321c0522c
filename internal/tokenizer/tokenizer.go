// Package tokenizer provides token counting for chunk budgeting and
// context assembly. Counts use the cl100k_base encoding so budgets line
// up with what embedding and completion models actually see; when the
// encoding cannot be initialised, counting falls back to a word-count
// approximation rather than failing the pipeline.
package tokenizer

import (
	"math"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/contexta-labs/contexta/internal/logger"
)

// EncodingName is the tiktoken encoding used for all counts.
const EncodingName = "cl100k_base"

// approxTokensPerWord is the fallback ratio. English text averages
// roughly 1.3 BPE tokens per word.
const approxTokensPerWord = 1.3

// Counter counts tokens in a text.
type Counter interface {
	Count(text string) int
}

// Ensure implementations satisfy the interface.
var (
	_ Counter = (*Tiktoken)(nil)
	_ Counter = Approx{}
)

// Tiktoken counts tokens with the cl100k_base encoding. The encoding
// is initialised lazily on first use; if initialisation fails, every
// count falls back to the word approximation.
type Tiktoken struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
	err  error
}

// NewTiktoken creates a tiktoken-backed counter.
func NewTiktoken() *Tiktoken {
	return &Tiktoken{}
}

// Count returns the number of tokens in text.
func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}

	t.once.Do(func() {
		t.enc, t.err = tiktoken.GetEncoding(EncodingName)
		if t.err != nil {
			logger.Warn("Tokenizer init failed: %v (falling back to word approximation)", t.err)
		}
	})

	if t.err != nil {
		return Approx{}.Count(text)
	}

	return len(t.enc.Encode(text, nil, nil))
}

// Approx approximates token counts from word counts. It is an
// approximation, not an exact count; use it in tests or when the
// real encoding is unavailable.
type Approx struct{}

// Count returns ceil(words * 1.3).
func (Approx) Count(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) * approxTokensPerWord))
}
