package core

import (
	"pii-redactor/internal/core/types"
	"sort"
)

// ReconcileSpans turns the pooled detector output into a sorted,
// non-overlapping span set. The pool order matters only for exact ties: spans
// with the same source, start and length keep whichever came first.
func ReconcileSpans(pool []types.Span) []types.Span {
	spans := make([]types.Span, 0, len(pool))
	for _, span := range pool {
		if span.Start < span.End {
			spans = append(spans, span)
		}
	}
	if len(spans) == 0 {
		return nil
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start == spans[j].Start {
			return spans[i].Len() > spans[j].Len()
		}
		return spans[i].Start < spans[j].Start
	})

	accepted := make([]types.Span, 0, len(spans))
	for _, candidate := range spans {
		if len(accepted) == 0 {
			accepted = append(accepted, candidate)
			continue
		}

		last := &accepted[len(accepted)-1]
		if candidate.Start >= last.End {
			accepted = append(accepted, candidate)
			continue
		}

		if wins(candidate, *last) {
			*last = candidate
		}
	}

	return accepted
}

// wins reports whether candidate replaces the already accepted span it
// overlaps. Structured patterns beat entities, then the longer span wins.
func wins(candidate, accepted types.Span) bool {
	if candidate.Source != accepted.Source {
		return candidate.Source == types.PatternSource
	}
	return candidate.Len() > accepted.Len()
}
