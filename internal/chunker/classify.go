package chunker

import (
	"regexp"
	"strings"

	"github.com/contexta-labs/contexta/internal/core/domain"
)

// Strategy selects how a document is split.
type Strategy string

// Chunking strategies. Earlier-listed strategies win classification ties.
const (
	StrategyConversational Strategy = "conversational"
	StrategyStructured     Strategy = "structured"
	StrategySemantic       Strategy = "semantic"
)

// Classification thresholds. A document is conversational when it has
// more than qaMarkerThreshold Q/A lines or more than dialogueThreshold
// speaker lines; structured when it has more than headerThreshold
// headers or more than listThreshold list items; plain prose otherwise.
const (
	qaMarkerThreshold = 3
	dialogueThreshold = 5
	headerThreshold   = 2
	listThreshold     = 5
)

var (
	qaLineRe         = regexp.MustCompile(`(?i)^\s*[qa]\s*[:.]\s`)
	speakerLineRe    = regexp.MustCompile(`^[A-Z][A-Za-z .'-]{0,30}:\s`)
	markdownHeaderRe = regexp.MustCompile(`^#{1,6}\s+\S`)
	numberedHeaderRe = regexp.MustCompile(`^\d+(?:\.\d+)*[.)]\s+[A-Z]`)
	listItemRe       = regexp.MustCompile(`^\s*(?:[-*\x{2022}]|\d+[.)])\s+\S`)
	questionLineRe   = regexp.MustCompile(`(?i)^\s*q\s*[:.]\s`)
)

// ClassifyStrategy picks a chunking strategy by counting structural
// markers. This is a priority decision list, not independent scores.
func ClassifyStrategy(text string) Strategy {
	var qaLines, speakerLines, headers, listItems int

	for _, line := range strings.Split(text, "\n") {
		switch {
		case qaLineRe.MatchString(line):
			qaLines++
		case isSpeakerLine(line):
			speakerLines++
		}
		if isHeaderLine(line) {
			headers++
		} else if listItemRe.MatchString(line) {
			listItems++
		}
	}

	if qaLines > qaMarkerThreshold || speakerLines > dialogueThreshold {
		return StrategyConversational
	}
	if headers > headerThreshold || listItems > listThreshold {
		return StrategyStructured
	}
	return StrategySemantic
}

func isQuestionLine(line string) bool {
	return questionLineRe.MatchString(line)
}

func isSpeakerLine(line string) bool {
	return speakerLineRe.MatchString(line)
}

func isHeaderLine(line string) bool {
	return markdownHeaderRe.MatchString(line) || numberedHeaderRe.MatchString(line)
}

// Keyword lists for chunk-type tagging. Tunable independently of the
// classification control flow.
var (
	processWords = []string{
		"step", "first,", "then", "next,", "finally",
		"procedure", "process", "how to",
	}
	definitionWords = []string{
		" means ", " refers to ", "defined as", "is a ", "is the ", "known as",
	}
	exampleWords = []string{
		"for example", "e.g.", "for instance", "such as",
	}
)

var (
	qMarkRe = regexp.MustCompile(`(?im)^\s*q\s*[:.]\s`)
	aMarkRe = regexp.MustCompile(`(?im)^\s*a\s*[:.]\s`)
)

// ClassifyChunkType tags a chunk with a coarse semantic type via
// keyword and pattern heuristics, in fixed precedence order. The tag
// is used only for downstream formatting and is never authoritative.
func ClassifyChunkType(text string) domain.ChunkType {
	lower := strings.ToLower(text)

	switch {
	case qMarkRe.MatchString(text) && aMarkRe.MatchString(text):
		return domain.ChunkTypeQAPair
	case containsAny(lower, processWords):
		return domain.ChunkTypeProcess
	case containsAny(lower, definitionWords):
		return domain.ChunkTypeDefinition
	case strings.Contains(text, "?"):
		return domain.ChunkTypeQuestion
	case isNumericHeavy(text):
		return domain.ChunkTypeData
	case containsAny(lower, exampleWords):
		return domain.ChunkTypeExample
	case countListItems(text) >= 2:
		return domain.ChunkTypeList
	case isHeaderChunk(text):
		return domain.ChunkTypeHeader
	default:
		return domain.ChunkTypeGeneral
	}
}

func containsAny(lower string, words []string) bool {
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// isNumericHeavy reports whether at least a quarter of the tokens carry
// digits, with a minimum of three numeric tokens.
func isNumericHeavy(text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}

	numeric := 0
	for _, f := range fields {
		if strings.ContainsAny(f, "0123456789") {
			numeric++
		}
	}

	return numeric >= 3 && float64(numeric)/float64(len(fields)) >= 0.25
}

func countListItems(text string) int {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if listItemRe.MatchString(line) {
			count++
		}
	}
	return count
}

func isHeaderChunk(text string) bool {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	return len(lines) <= 2 && isHeaderLine(lines[0])
}
