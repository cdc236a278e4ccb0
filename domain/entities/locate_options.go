package entities

import (
	"fmt"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// MatchMode is the comparison used between a term and candidate content
type MatchMode string

const (
	MatchEquals     MatchMode = "equals"
	MatchContains   MatchMode = "contains"
	MatchStartsWith MatchMode = "startswith"
	MatchEndsWith   MatchMode = "endswith"
)

// ParseMatchMode - converts a textual match mode, "" defaults to equals
func ParseMatchMode(s string) (MatchMode, error) {
	normalized := strings.ToLower(strings.NewReplacer("_", "", "-", "", " ", "").Replace(s))
	switch m := MatchMode(normalized); m {
	case "":
		return MatchEquals, nil
	case MatchEquals, MatchContains, MatchStartsWith, MatchEndsWith:
		return m, nil
	default:
		return "", fmt.Errorf("unknown match mode %q", s)
	}
}

// DefaultElementXPath matches any element.
const DefaultElementXPath = "*"

// LocateOptions is the parsed form of one locate descriptor.
type LocateOptions struct {
	Terms        []string
	Match        MatchMode
	ElementXPath string
	// OuterXPath is prepended to ElementXPath; empty means "descendant::".
	OuterXPath string
	// Index is 0-based.
	Index null.Int
}

// Clone returns a deep copy.
func (o LocateOptions) Clone() LocateOptions {
	c := o
	if o.Terms != nil {
		c.Terms = append([]string(nil), o.Terms...)
	}
	return c
}

// MatchValue returns the match mode, defaulting to equals.
func (o LocateOptions) MatchValue() MatchMode {
	if o.Match == "" {
		return MatchEquals
	}
	return o.Match
}

// ElementXPathValue returns the element XPath, defaulting to "*".
func (o LocateOptions) ElementXPathValue() string {
	if o.ElementXPath == "" {
		return DefaultElementXPath
	}
	return o.ElementXPath
}

// IndexValue returns the index and whether it is set.
func (o LocateOptions) IndexValue() (int, bool) {
	if !o.Index.Valid {
		return 0, false
	}
	return int(o.Index.Int64), true
}

// Validate checks the invariants of the options.
func (o LocateOptions) Validate() error {
	if o.Index.Valid && o.Index.Int64 < 0 {
		return fmt.Errorf("%w: index %d is negative", ErrMalformedDescriptor, o.Index.Int64)
	}
	if _, err := ParseMatchMode(string(o.Match)); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDescriptor, err)
	}
	return nil
}
