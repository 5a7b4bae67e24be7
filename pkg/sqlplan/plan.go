// Package sqlplan models a dialect-independent SQL select tree. The explain
// engine lowers a dataflow plan into this form; a dialect renderer turns it
// into literal SQL text.
package sqlplan

import "time"

// SelectColumn is a single projected expression with its output alias.
type SelectColumn struct {
	Expr  string
	Alias string
}

// TableReference names a physical relation in the warehouse.
type TableReference struct {
	// RelationName is the fully qualified name, e.g. "analytics.orders".
	RelationName string
}

// JoinType enumerates supported join kinds.
type JoinType string

const (
	InnerJoin JoinType = "INNER JOIN"
	LeftJoin  JoinType = "LEFT OUTER JOIN"
	FullJoin  JoinType = "FULL OUTER JOIN"
	CrossJoin JoinType = "CROSS JOIN"
)

// JoinDescription attaches one joined source to a select statement.
type JoinDescription struct {
	Type JoinType
	// Exactly one of Table or Subquery is set.
	Table    *TableReference
	Subquery *SelectStatement
	Alias    string
	// OnCondition is the raw join predicate, e.g. "a.user = b.user".
	// Empty for cross joins.
	OnCondition string
}

// OrderByColumn is one ordering key.
type OrderByColumn struct {
	Expr string
	Desc bool
}

// TimeRange is an inclusive time window applied to a time expression.
type TimeRange struct {
	Expr  string
	Start *time.Time
	End   *time.Time
}

// SelectStatement is one level of the query tree. From and Joins reference
// either physical tables or nested statements, so a full query is a tree of
// these rooted at the outermost select.
type SelectStatement struct {
	// Description explains what this level of the query does. Renderers
	// emit it as a leading SQL comment when descriptions are requested.
	Description string

	SelectColumns []SelectColumn

	// Exactly one of FromTable or FromSubquery is set.
	FromTable    *TableReference
	FromSubquery *SelectStatement
	FromAlias    string

	Joins []JoinDescription

	// Where expressions are combined with AND.
	Where []string

	// TimeConstraint, when set, is rendered as an additional range
	// predicate using the dialect's timestamp literal syntax.
	TimeConstraint *TimeRange

	GroupBys []string
	OrderBys []OrderByColumn
	Limit    *int
}
