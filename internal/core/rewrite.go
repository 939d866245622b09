package core

import (
	"pii-redactor/internal/core/types"
	"strings"
)

// RedactionToken replaces every redacted span. It has no digits, no '@' and is
// not shaped like a name, so redacting already-redacted text changes nothing.
const RedactionToken = "XXXXX"

type RedactionResult struct {
	Text   string
	Spans  []types.Span
	Counts map[types.Category]int
}

// Rewrite expects spans sorted by start and non-overlapping, as produced by
// ReconcileSpans.
func Rewrite(text string, spans []types.Span) RedactionResult {
	result := RedactionResult{
		Spans:  spans,
		Counts: make(map[types.Category]int),
	}

	var b strings.Builder
	b.Grow(len(text))

	cursor := 0
	for _, span := range spans {
		b.WriteString(text[cursor:span.Start])
		b.WriteString(RedactionToken)
		cursor = span.End
		result.Counts[span.Category]++
	}
	b.WriteString(text[cursor:])

	result.Text = b.String()
	return result
}
