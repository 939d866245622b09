package core

import (
	"fmt"
	"pii-redactor/internal/core/types"
)

type CategoryGroup string

const (
	EntityGroup CategoryGroup = "entity"
	NumberGroup CategoryGroup = "number"
)

type ConfigurationError struct {
	Group CategoryGroup
	Name  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s category '%s'", e.Group, e.Name)
}

type categorySet map[types.Category]struct{}

// CategoryConfig is the set of categories a single redaction call will report.
type CategoryConfig struct {
	Entities categorySet
	Numbers  categorySet
	BareSSN  bool
}

func DefaultCategoryConfig() CategoryConfig {
	cfg := CategoryConfig{
		Entities: make(categorySet, len(types.EntityCategories)),
		Numbers:  make(categorySet, len(types.NumberCategories)),
	}
	for _, c := range types.EntityCategories {
		cfg.Entities[c] = struct{}{}
	}
	for _, c := range types.NumberCategories {
		cfg.Numbers[c] = struct{}{}
	}
	return cfg
}

func parseGroup(group CategoryGroup, names []string) (categorySet, error) {
	set := make(categorySet, len(names))
	for _, name := range names {
		c, err := types.ParseCategory(name)
		if err != nil {
			return nil, &ConfigurationError{Group: group, Name: name}
		}
		if (group == EntityGroup && !c.IsEntity()) || (group == NumberGroup && !c.IsNumber()) {
			return nil, &ConfigurationError{Group: group, Name: name}
		}
		set[c] = struct{}{}
	}
	return set, nil
}

func (cfg CategoryConfig) Enabled(c types.Category) bool {
	if c.IsEntity() {
		_, ok := cfg.Entities[c]
		return ok
	}
	if c.IsNumber() {
		_, ok := cfg.Numbers[c]
		return ok
	}
	return false
}

func (cfg CategoryConfig) HasEntities() bool {
	return len(cfg.Entities) > 0
}

// FilterSpans drops spans whose category the caller did not enable. It must run
// before reconciliation so a disabled span can never shadow an enabled one.
func FilterSpans(spans []types.Span, cfg CategoryConfig) []types.Span {
	out := make([]types.Span, 0, len(spans))
	for _, span := range spans {
		if cfg.Enabled(span.Category) {
			out = append(out, span)
		}
	}
	return out
}
