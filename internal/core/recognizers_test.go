package core

import (
	"pii-redactor/internal/core/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatchers(t *testing.T) *PatternMatchers {
	t.Helper()
	matchers, err := NewPatternMatchers()
	require.NoError(t, err)
	return matchers
}

func matchedTexts(text string, spans []types.Span) []string {
	out := make([]string, 0, len(spans))
	for _, span := range spans {
		out = append(out, text[span.Start:span.End])
	}
	return out
}

func TestMatch(t *testing.T) {
	matchers := newTestMatchers(t)

	tests := []struct {
		name     string
		category types.Category
		text     string
		bare     bool
		want     []string
	}{
		{
			name:     "phone formats",
			category: types.Phone,
			text:     "Call 555-123-4567, (555) 987 6543 or 1-800-555-1234 x123.",
			want:     []string{"555-123-4567", "(555) 987 6543", "1-800-555-1234 x123"},
		},
		{
			name:     "phone not inside ssn",
			category: types.Phone,
			text:     "SSN 123-45-6789",
			want:     []string{},
		},
		{
			name:     "phone inside rejected match",
			category: types.Phone,
			text:     "ids 123-45-6789 555-1234",
			want:     []string{"555-1234"},
		},
		{
			name:     "phone after bare ssn",
			category: types.Phone,
			text:     "168244880 008-6575 ",
			want:     []string{"008-6575"},
		},
		{
			name:     "email",
			category: types.Email,
			text:     "Reach jane.doe+work@example.co.uk or bob@test.io.",
			want:     []string{"jane.doe+work@example.co.uk", "bob@test.io"},
		},
		{
			name:     "email glued to digits",
			category: types.Email,
			text:     "mail jon@example.co555-123-4567",
			want:     []string{"jon@example.co"},
		},
		{
			name:     "dashed ssn",
			category: types.SSN,
			text:     "SSN 123-45-6789 and 000-12-3456",
			want:     []string{"123-45-6789"},
		},
		{
			name:     "bare ssn disabled",
			category: types.SSN,
			text:     "id 123456789",
			want:     []string{},
		},
		{
			name:     "bare ssn enabled",
			category: types.SSN,
			text:     "id 123456789 and 1234567890",
			bare:     true,
			want:     []string{"123456789"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spans := matchers.Match(tc.text, tc.category, tc.bare)
			assert.Equal(t, tc.want, matchedTexts(tc.text, spans))
			for _, span := range spans {
				assert.Equal(t, tc.category, span.Category)
				assert.Equal(t, types.PatternSource, span.Source)
			}
		})
	}
}

func TestMatchAll_PoolOrderAndGating(t *testing.T) {
	matchers := newTestMatchers(t)
	text := "ssn 123-45-6789 mail a@b.com phone 555-123-4567"

	spans := matchers.MatchAll(text, DefaultCategoryConfig())
	require.Len(t, spans, 3)
	assert.Equal(t, []types.Category{types.Phone, types.Email, types.SSN},
		[]types.Category{spans[0].Category, spans[1].Category, spans[2].Category})

	cfg := DefaultCategoryConfig()
	cfg.Numbers, _ = parseGroup(NumberGroup, []string{"email"})
	spans = matchers.MatchAll(text, cfg)
	assert.Equal(t, []string{"a@b.com"}, matchedTexts(text, spans))
}

func TestLoadRecognizers_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "bad yaml", yaml: "recognizers: ["},
		{name: "entity category", yaml: "recognizers:\n  - name: X\n    category: PERSON\n"},
		{name: "bad regex", yaml: "recognizers:\n  - name: X\n    category: PHONE\n    patterns:\n      - name: p\n        regex: '('\n"},
		{name: "missing categories", yaml: "recognizers:\n  - name: X\n    category: PHONE\n"},
		{name: "duplicate", yaml: "recognizers:\n  - name: X\n    category: PHONE\n  - name: Y\n    category: PHONE\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadRecognizers([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}
