package core

import (
	_ "embed"
	"fmt"
	"log/slog"
	"pii-redactor/internal/core/types"
	"regexp"
	"sort"

	"gopkg.in/yaml.v2"
)

type PatternRegex struct {
	Name  string
	Regex *regexp.Regexp
	// Bare patterns only run when the caller opts into unformatted identifiers.
	Bare bool
}

type PatternRecognizer struct {
	Name     string
	Category types.Category
	Regexps  []PatternRegex
	Validate matchValidator
}

var validators = map[types.Category]matchValidator{
	types.Phone: isValidPhone,
	types.Email: isValidEmail,
	types.SSN:   isValidSSN,
}

//go:embed recognizers.yaml
var recognizersYAML []byte

func loadRecognizers(data []byte) (map[types.Category]*PatternRecognizer, error) {
	raw := struct {
		Recognizers []struct {
			Name     string `yaml:"name"`
			Category string `yaml:"category"`
			Patterns []struct {
				Name  string `yaml:"name"`
				Regex string `yaml:"regex"`
				Bare  bool   `yaml:"bare,omitempty"`
			} `yaml:"patterns"`
		} `yaml:"recognizers"`
	}{}

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("error parsing recognizers: %w", err)
	}

	out := make(map[types.Category]*PatternRecognizer)
	for _, rec := range raw.Recognizers {
		category, err := types.ParseCategory(rec.Category)
		if err != nil || !category.IsNumber() {
			return nil, fmt.Errorf("recognizer %s has invalid category '%s'", rec.Name, rec.Category)
		}
		if _, exists := out[category]; exists {
			return nil, fmt.Errorf("duplicate recognizer for category %s", category)
		}

		pr := &PatternRecognizer{
			Name:     rec.Name,
			Category: category,
			Validate: validators[category],
		}
		for _, p := range rec.Patterns {
			rx, err := regexp.Compile(p.Regex)
			if err != nil {
				return nil, fmt.Errorf("invalid regex %s for %s: %w", p.Name, rec.Name, err)
			}
			pr.Regexps = append(pr.Regexps, PatternRegex{Name: p.Name, Regex: rx, Bare: p.Bare})
		}
		out[category] = pr
	}

	for _, category := range types.NumberCategories {
		if _, ok := out[category]; !ok {
			return nil, fmt.Errorf("no recognizer defined for category %s", category)
		}
	}

	return out, nil
}

// Recognize returns the spans of this recognizer's category, left to right and
// non-overlapping. When two regexps match at the same offset the longer match
// is kept.
func (pr *PatternRecognizer) Recognize(text string, bare bool) []types.Span {
	var spans []types.Span

	// multiple regexps can produce the same match
	seen := make(map[[2]int]struct{})

	for _, rx := range pr.Regexps {
		if rx.Bare && !bare {
			continue
		}
		for _, loc := range pr.scan(rx, text) {
			if _, exists := seen[loc]; exists {
				continue
			}
			seen[loc] = struct{}{}
			spans = append(spans, types.Span{Start: loc[0], End: loc[1], Category: pr.Category, Source: types.PatternSource})
		}
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start == spans[j].Start {
			return spans[i].Len() > spans[j].Len()
		}
		return spans[i].Start < spans[j].Start
	})

	out := spans[:0]
	lastEnd := -1
	for _, span := range spans {
		if span.Start < lastEnd {
			continue
		}
		out = append(out, span)
		lastEnd = span.End
	}
	return out
}

// scan returns the validated matches of rx. A rejected match only moves the
// search one byte forward, so a valid match starting inside it is still found.
func (pr *PatternRecognizer) scan(rx PatternRegex, text string) [][2]int {
	var matches [][2]int
	for pos := 0; pos < len(text); {
		loc := rx.Regex.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if start == end {
			pos = start + 1
			continue
		}
		if pr.Validate != nil && !pr.Validate(text, start, end) {
			slog.Debug("rejected pattern match", "recognizer", pr.Name, "pattern", rx.Name, "start", start, "end", end)
			pos = start + 1
			continue
		}
		matches = append(matches, [2]int{start, end})
		pos = end
	}
	return matches
}

type PatternMatchers struct {
	recognizers map[types.Category]*PatternRecognizer
}

func NewPatternMatchers() (*PatternMatchers, error) {
	recs, err := loadRecognizers(recognizersYAML)
	if err != nil {
		return nil, err
	}
	return &PatternMatchers{recognizers: recs}, nil
}

// Match runs the recognizer for a single structured category.
func (m *PatternMatchers) Match(text string, category types.Category, bare bool) []types.Span {
	pr, ok := m.recognizers[category]
	if !ok {
		return nil
	}
	return pr.Recognize(text, bare)
}

// MatchAll pools the matches of every enabled number category in the fixed
// PHONE, EMAIL, SSN order.
func (m *PatternMatchers) MatchAll(text string, cfg CategoryConfig) []types.Span {
	var spans []types.Span
	for _, category := range types.NumberCategories {
		if !cfg.Enabled(category) {
			continue
		}
		spans = append(spans, m.Match(text, category, cfg.BareSSN)...)
	}
	return spans
}
