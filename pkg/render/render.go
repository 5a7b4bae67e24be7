// Package render turns a sqlplan tree into literal SQL text. The rendering
// core is dialect-agnostic and driven by a Config; each supported dialect
// package (pkg/render/postgres, pkg/render/bigquery, ...) supplies its
// Config and a renderer constructor.
package render

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fastpath-labs/mfsql/pkg/dialect"
	"github.com/fastpath-labs/mfsql/pkg/sqlplan"
)

// timestampLayout is the wall-clock layout used inside timestamp literals.
// All four warehouses accept this form when wrapped in an explicit CAST.
const timestampLayout = "2006-01-02 15:04:05"

// Config is a dialect's rendering configuration. This is pure data; the
// PlanRenderer reads it and adjusts literal and identifier syntax.
type Config struct {
	Dialect dialect.Dialect

	// Identifier quoting.
	IdentQuote    string
	IdentQuoteEnd string
	IdentEscape   string

	// TimestampType is the type name used in timestamp literal casts,
	// e.g. TIMESTAMP for Postgres, DATETIME for BigQuery.
	TimestampType string

	// FloatType is the canonical double-precision type name.
	FloatType string
}

// Options control a single rendering pass.
type Options struct {
	// IncludeDescriptions emits each statement's description as leading
	// "--" comment lines.
	IncludeDescriptions bool
}

// PlanRenderer renders sqlplan trees for one dialect. Renderers are
// immutable after construction and safe for reuse.
type PlanRenderer struct {
	cfg Config
}

// New creates a renderer from a dialect configuration.
func New(cfg Config) *PlanRenderer {
	return &PlanRenderer{cfg: cfg}
}

// Dialect reports the dialect this renderer is bound to.
func (r *PlanRenderer) Dialect() dialect.Dialect {
	return r.cfg.Dialect
}

// Render produces the SQL text for a select tree.
func (r *PlanRenderer) Render(stmt *sqlplan.SelectStatement, opts Options) (string, error) {
	if stmt == nil {
		return "", errors.New("nil select statement")
	}
	var b strings.Builder
	if err := r.renderSelect(&b, stmt, 0, opts); err != nil {
		return "", err
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (r *PlanRenderer) renderSelect(b *strings.Builder, stmt *sqlplan.SelectStatement, depth int, opts Options) error {
	pad := strings.Repeat("  ", depth)

	if opts.IncludeDescriptions && stmt.Description != "" {
		for _, line := range strings.Split(stmt.Description, "\n") {
			b.WriteString(pad + "-- " + line + "\n")
		}
	}

	if len(stmt.SelectColumns) == 0 {
		return errors.New("select statement has no columns")
	}
	b.WriteString(pad + "SELECT\n")
	for i, col := range stmt.SelectColumns {
		prefix := "  "
		if i > 0 {
			prefix = "  , "
		}
		expr := col.Expr
		if col.Alias != "" && col.Alias != col.Expr {
			expr += " AS " + col.Alias
		}
		b.WriteString(pad + prefix + expr + "\n")
	}

	switch {
	case stmt.FromTable != nil:
		line := pad + "FROM " + stmt.FromTable.RelationName
		if stmt.FromAlias != "" {
			line += " " + stmt.FromAlias
		}
		b.WriteString(line + "\n")
	case stmt.FromSubquery != nil:
		b.WriteString(pad + "FROM (\n")
		if err := r.renderSelect(b, stmt.FromSubquery, depth+1, opts); err != nil {
			return err
		}
		b.WriteString(pad + ") " + stmt.FromAlias + "\n")
	default:
		return errors.New("select statement has no source")
	}

	for i := range stmt.Joins {
		if err := r.renderJoin(b, &stmt.Joins[i], depth, opts); err != nil {
			return err
		}
	}

	conds := make([]string, 0, len(stmt.Where)+1)
	conds = append(conds, stmt.Where...)
	if stmt.TimeConstraint != nil {
		if tc := r.renderTimeRange(stmt.TimeConstraint); tc != "" {
			conds = append(conds, tc)
		}
	}
	if len(conds) > 0 {
		b.WriteString(pad + "WHERE " + strings.Join(conds, "\n"+pad+"  AND ") + "\n")
	}

	if len(stmt.GroupBys) > 0 {
		b.WriteString(pad + "GROUP BY\n")
		for i, g := range stmt.GroupBys {
			prefix := "  "
			if i > 0 {
				prefix = "  , "
			}
			b.WriteString(pad + prefix + g + "\n")
		}
	}

	if len(stmt.OrderBys) > 0 {
		parts := make([]string, len(stmt.OrderBys))
		for i, o := range stmt.OrderBys {
			parts[i] = o.Expr
			if o.Desc {
				parts[i] += " DESC"
			}
		}
		b.WriteString(pad + "ORDER BY " + strings.Join(parts, ", ") + "\n")
	}

	if stmt.Limit != nil {
		fmt.Fprintf(b, "%sLIMIT %d\n", pad, *stmt.Limit)
	}

	return nil
}

func (r *PlanRenderer) renderJoin(b *strings.Builder, j *sqlplan.JoinDescription, depth int, opts Options) error {
	pad := strings.Repeat("  ", depth)

	switch {
	case j.Table != nil:
		line := pad + string(j.Type) + " " + j.Table.RelationName
		if j.Alias != "" {
			line += " " + j.Alias
		}
		b.WriteString(line + "\n")
	case j.Subquery != nil:
		b.WriteString(pad + string(j.Type) + " (\n")
		if err := r.renderSelect(b, j.Subquery, depth+1, opts); err != nil {
			return err
		}
		b.WriteString(pad + ") " + j.Alias + "\n")
	default:
		return errors.New("join has no source")
	}

	if j.OnCondition != "" {
		b.WriteString(pad + "  ON " + j.OnCondition + "\n")
	}
	return nil
}

func (r *PlanRenderer) renderTimeRange(tc *sqlplan.TimeRange) string {
	switch {
	case tc.Start != nil && tc.End != nil:
		return fmt.Sprintf("%s BETWEEN %s AND %s", tc.Expr, r.TimestampLiteral(*tc.Start), r.TimestampLiteral(*tc.End))
	case tc.Start != nil:
		return fmt.Sprintf("%s >= %s", tc.Expr, r.TimestampLiteral(*tc.Start))
	case tc.End != nil:
		return fmt.Sprintf("%s <= %s", tc.Expr, r.TimestampLiteral(*tc.End))
	}
	return ""
}

// TimestampLiteral renders a time as an explicitly cast literal using the
// dialect's timestamp type.
func (r *PlanRenderer) TimestampLiteral(t time.Time) string {
	return fmt.Sprintf("CAST('%s' AS %s)", t.Format(timestampLayout), r.cfg.TimestampType)
}

// QuoteIdentifier wraps an identifier in the dialect's quote characters,
// escaping embedded quotes.
func (r *PlanRenderer) QuoteIdentifier(name string) string {
	escaped := strings.ReplaceAll(name, r.cfg.IdentQuote, r.cfg.IdentEscape)
	return r.cfg.IdentQuote + escaped + r.cfg.IdentQuoteEnd
}
