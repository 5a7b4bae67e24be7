// Package query defines the normalized metric query request and the
// helpers that turn raw CLI-style inputs into its fields.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
)

// Request is a normalized metric query. List fields distinguish nil
// (option omitted, let the engine default) from an empty slice (explicitly
// none); constructors keep every element non-empty and trimmed.
type Request struct {
	// RequestID correlates log lines for one invocation. It is never used
	// for equality or ordering.
	RequestID uuid.UUID

	MetricNames  []string
	GroupByNames []string

	TimeConstraintStart *time.Time
	TimeConstraintEnd   *time.Time

	// WhereConstraints holds free-text predicates, nil when no predicate
	// was given.
	WhereConstraints []string

	// OrderByNames keeps the caller's keys verbatim; a leading '-' marks
	// descending order and is interpreted by the engine.
	OrderByNames []string

	Limit *int
}

// NewRequest mints a request with a random request ID.
func NewRequest() *Request {
	return &Request{RequestID: uuid.New()}
}

// ParseCSV normalizes an optional comma-separated list. A nil input stays
// nil (option omitted); an empty string becomes an empty slice (explicitly
// none); otherwise items are split on commas, trimmed, and blank items are
// dropped. Order and duplicates are preserved.
func ParseCSV(value *string) []string {
	if value == nil {
		return nil
	}
	if *value == "" {
		return []string{}
	}
	items := make([]string, 0)
	for _, item := range strings.Split(*value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// ParseOptionalTime parses an optional ISO-8601-flexible timestamp. A nil
// input stays nil; anything else must parse, and failures name the
// offending value.
func ParseOptionalTime(value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := dateparse.ParseAny(*value)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", *value, err)
	}
	return &t, nil
}

// WhereFilters lifts the single CLI predicate into the request's filter
// sequence. An empty predicate yields nil, not an empty slice: nil is the
// engine's signal that no WHERE clause applies. An explicit --where ""
// therefore behaves exactly like omitting the flag.
func WhereFilters(where string) []string {
	if where == "" {
		return nil
	}
	return []string{where}
}
