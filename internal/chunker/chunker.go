// Package chunker splits raw document text into semantically bounded,
// token-budgeted chunks. Document structure is classified first
// (conversational, structured, or plain prose) and each structure gets
// its own splitting strategy.
package chunker

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/contexta-labs/contexta/internal/core/domain"
	"github.com/contexta-labs/contexta/internal/logger"
	"github.com/contexta-labs/contexta/internal/tokenizer"
)

// DefaultMaxChunkTokens is the default token budget per chunk.
const DefaultMaxChunkTokens = 500

// DefaultMinChunkTokens is the floor below which fragments are dropped.
const DefaultMinChunkTokens = 50

// DefaultOverlapSentences is the number of trailing sentences seeded
// into the next chunk by the sentence strategy.
const DefaultOverlapSentences = 2

// Chunker splits document text into DocumentChunks.
type Chunker struct {
	maxTokens int
	minTokens int
	overlap   int
	counter   tokenizer.Counter
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxTokens sets the token budget per chunk.
func WithMaxTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithMinTokens sets the floor below which chunks are dropped.
func WithMinTokens(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.minTokens = n
		}
	}
}

// WithOverlapSentences sets how many trailing sentences seed the next chunk.
func WithOverlapSentences(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// WithTokenCounter sets the token counter.
func WithTokenCounter(counter tokenizer.Counter) Option {
	return func(c *Chunker) {
		if counter != nil {
			c.counter = counter
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		maxTokens: DefaultMaxChunkTokens,
		minTokens: DefaultMinChunkTokens,
		overlap:   DefaultOverlapSentences,
		counter:   tokenizer.NewTiktoken(),
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure the floor stays below the budget
	if c.minTokens >= c.maxTokens {
		c.minTokens = c.maxTokens / 10
	}

	return c
}

// Chunk splits text into token-budgeted chunks. It fails softly:
// empty or whitespace-only input produces no chunks, and malformed
// text never causes an error.
func (c *Chunker) Chunk(text string, metadata map[string]any) []domain.DocumentChunk {
	cleaned := Normalize(text)
	if cleaned == "" {
		return nil
	}

	strategy := ClassifyStrategy(cleaned)
	logger.Debug("Chunking strategy: %s", strategy)

	var pieces []string
	switch strategy {
	case StrategyConversational:
		pieces = c.conversationalSplit(cleaned)
	case StrategyStructured:
		pieces = c.structuredSplit(cleaned)
	default:
		pieces = c.semanticSplit(cleaned)
	}

	chunks := make([]domain.DocumentChunk, 0, len(pieces))
	index := 0
	cursor := 0

	for _, piece := range pieces {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}

		tokens := c.counter.Count(piece)
		if tokens < c.minTokens {
			// Sub-minimum fragments add noise without retrieval value
			continue
		}

		start, end := locateSpan(cleaned, piece, cursor)
		cursor = start

		chunks = append(chunks, domain.DocumentChunk{
			ID:         uuid.New().String(),
			Text:       piece,
			Index:      index,
			TokenCount: tokens,
			ChunkType:  ClassifyChunkType(piece),
			SpanStart:  start,
			SpanEnd:    end,
			Metadata:   copyMetadata(metadata),
		})
		index++
	}

	logger.Debug("Chunked %d chars into %d chunks (%s strategy)", len(cleaned), len(chunks), strategy)

	return chunks
}

// semanticSplit accumulates sentences up to the token budget. Each new
// chunk is seeded with the last sentences of the previous one so
// cross-sentence context survives the boundary. A sentence that alone
// exceeds the budget is split on clause punctuation; if even a clause
// run is over budget it is kept whole, flagged only by its token count.
func (c *Chunker) semanticSplit(text string) []string {
	units := c.sentenceUnits(text)
	if len(units) == 0 {
		return nil
	}

	var chunks []string
	var buf []string
	bufTokens := 0

	flush := func() {
		if len(buf) == 0 {
			return
		}
		chunks = append(chunks, strings.Join(buf, " "))

		// Seed the next chunk with the trailing sentences
		seed := c.overlap
		if seed > len(buf) {
			seed = len(buf)
		}
		next := make([]string, seed)
		copy(next, buf[len(buf)-seed:])

		buf = next
		bufTokens = c.counter.Count(strings.Join(buf, " "))

		// A seed that alone fills the budget would loop forever
		if bufTokens >= c.maxTokens {
			buf = buf[:0]
			bufTokens = 0
		}
	}

	for _, unit := range units {
		tokens := c.counter.Count(unit)

		if bufTokens+tokens > c.maxTokens && len(buf) > 0 {
			flush()
			// If even the overlap seed plus this sentence overflows,
			// start clean rather than emit an over-budget chunk
			if bufTokens+tokens > c.maxTokens {
				buf = buf[:0]
				bufTokens = 0
			}
		}

		buf = append(buf, unit)
		bufTokens += tokens

		// An atomic over-budget unit becomes its own chunk
		if tokens > c.maxTokens {
			chunks = append(chunks, strings.Join(buf, " "))
			buf = buf[:0]
			bufTokens = 0
		}
	}

	if len(buf) > 0 {
		joined := strings.Join(buf, " ")
		// The final buffer may hold only the overlap seed, which is
		// already part of the previous chunk
		if len(chunks) == 0 || !strings.Contains(chunks[len(chunks)-1], joined) {
			chunks = append(chunks, joined)
		}
	}

	return chunks
}

// sentenceUnits splits text into sentences, further splitting any
// sentence over the token budget on clause punctuation.
func (c *Chunker) sentenceUnits(text string) []string {
	sentences := splitSentences(text)

	units := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if c.counter.Count(s) <= c.maxTokens {
			units = append(units, s)
			continue
		}
		units = append(units, c.splitClauses(s)...)
	}

	return units
}

// splitClauses breaks an oversized sentence after commas and semicolons,
// merging clauses greedily back up to the budget.
func (c *Chunker) splitClauses(sentence string) []string {
	var clauses []string
	var current strings.Builder

	for _, r := range sentence {
		current.WriteRune(r)
		if r == ',' || r == ';' {
			if s := strings.TrimSpace(current.String()); s != "" {
				clauses = append(clauses, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		clauses = append(clauses, s)
	}

	if len(clauses) <= 1 {
		// No clause punctuation to split on: keep it whole, over budget
		return []string{sentence}
	}

	var units []string
	var buf []string
	bufTokens := 0

	for _, clause := range clauses {
		tokens := c.counter.Count(clause)
		if bufTokens+tokens > c.maxTokens && len(buf) > 0 {
			units = append(units, strings.Join(buf, " "))
			buf = buf[:0]
			bufTokens = 0
		}
		buf = append(buf, clause)
		bufTokens += tokens
	}
	if len(buf) > 0 {
		units = append(units, strings.Join(buf, " "))
	}

	return units
}

// structuredSplit splits on header boundaries. Sections that exceed the
// budget are sub-split with the sentence strategy.
func (c *Chunker) structuredSplit(text string) []string {
	lines := strings.Split(text, "\n")

	var sections []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		section := strings.TrimSpace(strings.Join(current, "\n"))
		if section != "" {
			sections = append(sections, section)
		}
		current = current[:0]
	}

	for _, line := range lines {
		if isHeaderLine(line) {
			flush()
		}
		current = append(current, line)
	}
	flush()

	var chunks []string
	for _, section := range sections {
		if c.counter.Count(section) <= c.maxTokens {
			chunks = append(chunks, section)
			continue
		}
		chunks = append(chunks, c.semanticSplit(section)...)
	}

	return chunks
}

// conversationalSplit groups consecutive Q/A or dialogue exchanges and
// flushes the running buffer whenever the next exchange would exceed
// the budget. If no dialogue pairs are actually found despite the
// classification, it falls back to the sentence strategy.
func (c *Chunker) conversationalSplit(text string) []string {
	groups := dialogueGroups(text)
	if len(groups) == 0 {
		logger.Debug("No dialogue pairs found, falling back to sentence strategy")
		return c.semanticSplit(text)
	}

	var chunks []string
	var buf []string
	bufTokens := 0

	for _, group := range groups {
		tokens := c.counter.Count(group)

		if bufTokens+tokens > c.maxTokens && len(buf) > 0 {
			chunks = append(chunks, strings.Join(buf, "\n"))
			buf = buf[:0]
			bufTokens = 0
		}

		if tokens > c.maxTokens {
			// One exchange over the whole budget: sub-split it
			chunks = append(chunks, c.semanticSplit(group)...)
			continue
		}

		buf = append(buf, group)
		bufTokens += tokens
	}
	if len(buf) > 0 {
		chunks = append(chunks, strings.Join(buf, "\n"))
	}

	return chunks
}

// dialogueGroups splits text into exchanges, each starting at a Q:
// line (or a speaker line when there are no Q: markers).
func dialogueGroups(text string) []string {
	lines := strings.Split(text, "\n")

	starter := isQuestionLine
	hasQ := false
	for _, line := range lines {
		if isQuestionLine(line) {
			hasQ = true
			break
		}
	}
	if !hasQ {
		starter = isSpeakerLine
	}

	var groups []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		group := strings.TrimSpace(strings.Join(current, "\n"))
		if group != "" {
			groups = append(groups, group)
		}
		current = current[:0]
	}

	started := false
	for _, line := range lines {
		if starter(line) {
			flush()
			started = true
		}
		current = append(current, line)
	}
	flush()

	if !started {
		return nil
	}

	return groups
}

// splitSentences splits content into sentences on common terminators.
func splitSentences(content string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range content {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' || r == '\n' {
			s := strings.TrimSpace(current.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

var (
	repeatedBangRe   = regexp.MustCompile(`!{2,}`)
	repeatedQueryRe  = regexp.MustCompile(`\?{2,}`)
	longEllipsisRe   = regexp.MustCompile(`\.{4,}`)
	horizontalWSRe   = regexp.MustCompile(`[ \t]+`)
	excessNewlinesRe = regexp.MustCompile(`\n{3,}`)
)

var quoteReplacer = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
)

// Normalize cleans raw text before chunking: quote glyphs are unified,
// repeated punctuation is collapsed, and whitespace runs are squeezed
// while line structure is preserved for the classifiers.
func Normalize(text string) string {
	text = quoteReplacer.Replace(text)
	text = repeatedBangRe.ReplaceAllString(text, "!")
	text = repeatedQueryRe.ReplaceAllString(text, "?")
	text = longEllipsisRe.ReplaceAllString(text, "...")
	text = horizontalWSRe.ReplaceAllString(text, " ")
	text = excessNewlinesRe.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// locateSpan finds piece in cleaned text starting near cursor.
// Best-effort: when the joined chunk text no longer appears verbatim
// (sentence joins replace newlines), the previous cursor is reused.
func locateSpan(cleaned, piece string, cursor int) (int, int) {
	prefix := piece
	if idx := strings.IndexAny(prefix, ".!?\n"); idx > 0 {
		prefix = prefix[:idx]
	}
	if len(prefix) > 60 {
		prefix = prefix[:60]
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return cursor, cursor + len(piece)
	}

	from := cursor
	if from > len(cleaned) {
		from = len(cleaned)
	}
	if idx := strings.Index(cleaned[from:], prefix); idx >= 0 {
		start := from + idx
		end := start + len(piece)
		if end > len(cleaned) {
			end = len(cleaned)
		}
		return start, end
	}

	return cursor, cursor + len(piece)
}

func copyMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
