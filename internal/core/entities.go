package core

import (
	"pii-redactor/internal/core/types"
)

// EntitySpans merges runs of adjacent tokens that share an entity category into
// one span from the first token's start to the last token's end. Possessive
// clitics are never labeled and always close the current run.
func EntitySpans(sentence []Token, labels []types.Category) []types.Span {
	var spans []types.Span

	n := min(len(sentence), len(labels))
	i := 0
	for i < n {
		label := labels[i]
		if !label.IsEntity() || isPossessive(sentence[i]) {
			i++
			continue
		}

		j := i + 1
		for j < n && labels[j] == label && !isPossessive(sentence[j]) {
			j++
		}

		spans = append(spans, types.Span{
			Start:    sentence[i].Start,
			End:      sentence[j-1].End,
			Category: label,
			Source:   types.EntitySource,
		})
		i = j
	}

	return spans
}
