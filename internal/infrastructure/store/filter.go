package store

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// fieldNameRegex restricts filterable field names to plain JSON identifiers.
var fieldNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Filter selects documents by equality on JSON field names, optionally
// narrowed by a case-insensitive substring search over SearchFields.
type Filter struct {
	Equals       map[string]any
	Search       string
	SearchFields []string
}

// Where returns a filter matching field == value.
func Where(field string, value any) Filter {
	return Filter{}.And(field, value)
}

// And returns a copy of f that additionally requires field == value.
func (f Filter) And(field string, value any) Filter {
	equals := make(map[string]any, len(f.Equals)+1)
	for k, v := range f.Equals {
		equals[k] = v
	}
	equals[field] = value
	f.Equals = equals
	return f
}

// WithSearch returns a copy of f searching term over fields. An empty term
// leaves the filter unchanged.
func (f Filter) WithSearch(term string, fields ...string) Filter {
	term = strings.TrimSpace(term)
	if term == "" {
		return f
	}
	f.Search = term
	f.SearchFields = fields
	return f
}

func (f Filter) validate() error {
	for k := range f.Equals {
		if !fieldNameRegex.MatchString(k) {
			return fmt.Errorf("%w: %q", ErrInvalidField, k)
		}
	}
	for _, k := range f.SearchFields {
		if !fieldNameRegex.MatchString(k) {
			return fmt.Errorf("%w: %q", ErrInvalidField, k)
		}
	}
	return nil
}

// sortedKeys returns the equality keys in a stable order so generated
// queries are deterministic.
func (f Filter) sortedKeys() []string {
	keys := make([]string, 0, len(f.Equals))
	for k := range f.Equals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// textValue renders a filter value the way it appears as JSON text.
func textValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Page is a 1-based page request. A zero Limit means no limit.
type Page struct {
	Page  int
	Limit int
}

// All requests every matching document.
var All = Page{}

func (p Page) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
