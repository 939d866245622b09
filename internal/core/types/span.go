package types

import (
	"fmt"
	"strings"
)

type Category string

const (
	Person       Category = "PERSON"
	Organization Category = "ORGANIZATION"
	GPE          Category = "GPE"
	Location     Category = "LOCATION"

	Phone Category = "PHONE"
	Email Category = "EMAIL"
	SSN   Category = "SSN"

	// NoCategory is the label a classifier returns for a token that is not PII.
	NoCategory Category = ""
)

var (
	EntityCategories = []Category{Person, Organization, GPE, Location}
	NumberCategories = []Category{Phone, Email, SSN}
)

func (c Category) IsEntity() bool {
	switch c {
	case Person, Organization, GPE, Location:
		return true
	}
	return false
}

func (c Category) IsNumber() bool {
	switch c {
	case Phone, Email, SSN:
		return true
	}
	return false
}

func ParseCategory(name string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(name)))
	if !c.IsEntity() && !c.IsNumber() {
		return NoCategory, fmt.Errorf("unknown category '%s'", name)
	}
	return c, nil
}

type Source int

const (
	PatternSource Source = iota
	EntitySource
)

func (s Source) String() string {
	switch s {
	case PatternSource:
		return "PATTERN"
	case EntitySource:
		return "ENTITY"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// Span is a half-open byte interval [Start, End) into the original text.
type Span struct {
	Start    int
	End      int
	Category Category
	Source   Source
}

func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

func (s Span) String() string {
	return fmt.Sprintf("%s[%d:%d]/%s", s.Category, s.Start, s.End, s.Source)
}
