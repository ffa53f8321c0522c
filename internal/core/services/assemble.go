package services

import (
	"fmt"
	"strings"

	"github.com/contexta-labs/contexta/internal/core/domain"
	"github.com/contexta-labs/contexta/internal/logger"
	"github.com/contexta-labs/contexta/internal/tokenizer"
)

// Assembly constants.
const (
	// DefaultTokenBudget bounds the assembled context.
	DefaultTokenBudget = 3000

	// ContextSeparator joins sections so a downstream prompt-builder
	// can split authoritative from retrieved content.
	ContextSeparator = "\n\n=== CONTEXT SEPARATOR ===\n\n"

	// truncationMinTokens is the smallest remaining budget worth
	// truncating a result into; below it the result is skipped.
	truncationMinTokens = 50

	// capacityStopRatio stops adding results once this fraction of the
	// budget is used.
	capacityStopRatio = 0.9

	// retrievedHeadroomRatio is the minimum budget fraction that must
	// remain after the exact section before retrieved content starts.
	retrievedHeadroomRatio = 0.2

	truncationMarker = "... [truncated]"
)

// Assembler builds the final bounded context string.
type Assembler struct {
	counter tokenizer.Counter
	budget  int
}

// AssemblerOption configures the assembler.
type AssemblerOption func(*Assembler)

// WithTokenBudget sets the context token budget.
func WithTokenBudget(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.budget = n
		}
	}
}

// WithAssemblerCounter sets the token counter.
func WithAssemblerCounter(counter tokenizer.Counter) AssemblerOption {
	return func(a *Assembler) {
		if counter != nil {
			a.counter = counter
		}
	}
}

// NewAssembler creates an assembler with the given options.
func NewAssembler(opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		counter: tokenizer.NewTiktoken(),
		budget:  DefaultTokenBudget,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the context block: exact/authoritative text first,
// then ranked results in descending score order, each behind a compact
// attribution line. A result that would overflow the remaining budget
// is truncated at a word boundary and marked, provided enough budget
// remains; otherwise it is skipped. Separator tokens between sections
// count against the budget; only the truncation marker may nudge the
// final count slightly past it. Returns the block and its token count.
func (a *Assembler) Assemble(exactText string, results []domain.SearchResult) (string, int) {
	var sections []string
	used := 0

	exactText = strings.TrimSpace(exactText)
	if exactText != "" {
		// Exact text always leads, even when it alone is large
		section := "AUTHORITATIVE CONTEXT:\n" + exactText
		tokens := a.counter.Count(section)
		if tokens > a.budget {
			section = a.truncateToTokens(section, a.budget) + truncationMarker
			tokens = a.counter.Count(section)
		}
		sections = append(sections, section)
		used += tokens
	}

	stopAt := int(float64(a.budget) * capacityStopRatio)
	headroom := int(float64(a.budget) * retrievedHeadroomRatio)
	sepTokens := a.counter.Count(ContextSeparator)

	if len(results) > 0 && a.budget-used >= headroom {
		for _, res := range results {
			if used >= stopAt {
				logger.Debug("Assembly stopped at %d/%d tokens", used, a.budget)
				break
			}

			section := attributionLine(res) + "\n" + res.Content
			tokens := a.counter.Count(section)

			// joining a further section spends separator tokens too
			joinCost := 0
			if len(sections) > 0 {
				joinCost = sepTokens
			}
			remaining := a.budget - used - joinCost

			if tokens > remaining {
				if remaining < truncationMinTokens {
					continue
				}
				section = a.truncateToTokens(section, remaining) + truncationMarker
				tokens = a.counter.Count(section)
			}

			sections = append(sections, section)
			used += tokens + joinCost
		}
	}

	if len(sections) == 0 {
		return "", 0
	}

	text := strings.Join(sections, ContextSeparator)
	return text, a.counter.Count(text)
}

// Budget returns the configured token budget.
func (a *Assembler) Budget() int {
	return a.budget
}

// attributionLine formats the compact provenance prefix:
// [source kind | document name | chunk type | relevance score].
func attributionLine(res domain.SearchResult) string {
	docName := "unknown"
	if name, ok := res.Metadata["filename"].(string); ok && name != "" {
		docName = name
	} else if res.DocID != "" {
		docName = res.DocID
	}

	chunkType := string(domain.ChunkTypeGeneral)
	if ct, ok := res.Metadata["chunk_type"].(string); ok && ct != "" {
		chunkType = ct
	}

	return fmt.Sprintf("[%s | %s | %s | %.2f]", res.Source, docName, chunkType, res.Similarity)
}

// truncateToTokens cuts text at a word boundary so it fits within
// maxTokens. Proportional by word count, then tightened by recount.
func (a *Assembler) truncateToTokens(text string, maxTokens int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	total := a.counter.Count(text)
	if total <= maxTokens {
		return text
	}

	keep := int(float64(len(words)) * float64(maxTokens) / float64(total))
	if keep < 1 {
		keep = 1
	}

	candidate := strings.Join(words[:keep], " ")
	for keep > 1 && a.counter.Count(candidate) > maxTokens {
		keep = keep * 9 / 10
		if keep < 1 {
			keep = 1
		}
		candidate = strings.Join(words[:keep], " ")
	}

	return candidate
}
