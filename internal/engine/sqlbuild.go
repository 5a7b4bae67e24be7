package engine

import (
	"fmt"

	"github.com/fastpath-labs/mfsql/pkg/dataflow"
	"github.com/fastpath-labs/mfsql/pkg/manifest"
	"github.com/fastpath-labs/mfsql/pkg/sqlplan"
)

// sourceSpec is the projection a read node exposes: the select columns
// pulled from the raw relation and the column names visible downstream.
type sourceSpec struct {
	columns []sqlplan.SelectColumn
	outputs []string
}

func (s *sourceSpec) add(name, expr string) {
	for _, existing := range s.outputs {
		if existing == name {
			return
		}
	}
	s.columns = append(s.columns, sqlplan.SelectColumn{Expr: expr, Alias: name})
	s.outputs = append(s.outputs, name)
}

// mainSourceSpec projects everything the query needs from the measure
// model: group-by columns, join keys, the constrained time dimension, and
// the measure inputs.
func mainSourceSpec(res *resolvedQuery) *sourceSpec {
	spec := &sourceSpec{}

	for _, gb := range res.groupBys {
		switch {
		case gb.dimension != nil:
			spec.add(gb.name, gb.dimension.Column())
		case gb.entity != nil:
			spec.add(gb.name, gb.entity.Column())
		}
	}
	for _, join := range res.joins {
		spec.add(join.entity.Name, join.entity.Column())
	}
	if res.timeDimension != nil {
		spec.add(res.timeDimension.Name, res.timeDimension.Column())
	}
	for _, m := range res.metrics {
		spec.add(m.measure.Name, m.measure.Column())
	}
	return spec
}

// joinSourceSpec projects the join key and the requested dimension from a
// joined dimension model.
func joinSourceSpec(join *resolvedJoin) *sourceSpec {
	spec := &sourceSpec{}
	spec.add(join.entity.Name, join.model.Entity(join.entity.Name).Column())
	spec.add(join.dimension.Name, join.dimension.Column())
	return spec
}

// lowerPlan converts a dataflow plan into a select tree, one statement
// layer per plan node.
func lowerPlan(plan *dataflow.Plan, res *resolvedQuery) (*sqlplan.SelectStatement, error) {
	l := &lowerer{res: res}
	stmt, _, err := l.lower(plan.Sink)
	return stmt, err
}

type lowerer struct {
	res *resolvedQuery
	n   int
}

func (l *lowerer) nextAlias() string {
	alias := fmt.Sprintf("subq_%d", l.n)
	l.n++
	return alias
}

// passthrough projects a subquery's outputs unchanged.
func passthrough(alias string, outputs []string) []sqlplan.SelectColumn {
	cols := make([]sqlplan.SelectColumn, len(outputs))
	for i, name := range outputs {
		cols[i] = sqlplan.SelectColumn{Expr: alias + "." + name}
	}
	return cols
}

func (l *lowerer) lower(node dataflow.Node) (*sqlplan.SelectStatement, []string, error) {
	switch n := node.(type) {
	case *dataflow.ReadSourceNode:
		spec, ok := l.res.sources[n.ID]
		if !ok {
			return nil, nil, fmt.Errorf("read node %s has no recorded projection", n.ID)
		}
		stmt := &sqlplan.SelectStatement{
			Description:   n.Description(),
			SelectColumns: spec.columns,
			FromTable:     &sqlplan.TableReference{RelationName: n.Relation},
			FromAlias:     n.ModelName + "_src",
		}
		return stmt, spec.outputs, nil

	case *dataflow.JoinOnEntityNode:
		left, leftOut, err := l.lower(n.Left)
		if err != nil {
			return nil, nil, err
		}
		right, rightOut, err := l.lower(n.Right)
		if err != nil {
			return nil, nil, err
		}
		leftAlias := l.nextAlias()
		rightAlias := l.nextAlias()

		cols := passthrough(leftAlias, leftOut)
		outputs := append([]string(nil), leftOut...)
		for _, name := range rightOut {
			if name == n.Entity || contains(outputs, name) {
				continue
			}
			cols = append(cols, sqlplan.SelectColumn{Expr: rightAlias + "." + name})
			outputs = append(outputs, name)
		}

		stmt := &sqlplan.SelectStatement{
			Description:   n.Description(),
			SelectColumns: cols,
			FromSubquery:  left,
			FromAlias:     leftAlias,
			Joins: []sqlplan.JoinDescription{{
				Type:        sqlplan.LeftJoin,
				Subquery:    right,
				Alias:       rightAlias,
				OnCondition: fmt.Sprintf("%s.%s = %s.%s", leftAlias, n.Entity, rightAlias, n.Entity),
			}},
		}
		return stmt, outputs, nil

	case *dataflow.ConstrainTimeRangeNode:
		input, outputs, err := l.lower(n.Input)
		if err != nil {
			return nil, nil, err
		}
		alias := l.nextAlias()
		stmt := &sqlplan.SelectStatement{
			Description:   n.Description(),
			SelectColumns: passthrough(alias, outputs),
			FromSubquery:  input,
			FromAlias:     alias,
			TimeConstraint: &sqlplan.TimeRange{
				Expr:  alias + "." + n.TimeDimension,
				Start: n.Start,
				End:   n.End,
			},
		}
		return stmt, outputs, nil

	case *dataflow.WhereConstraintNode:
		input, outputs, err := l.lower(n.Input)
		if err != nil {
			return nil, nil, err
		}
		alias := l.nextAlias()
		stmt := &sqlplan.SelectStatement{
			Description:   n.Description(),
			SelectColumns: passthrough(alias, outputs),
			FromSubquery:  input,
			FromAlias:     alias,
			Where:         n.Filters,
		}
		return stmt, outputs, nil

	case *dataflow.AggregateMeasuresNode:
		return l.lowerAggregate(n)

	case *dataflow.ComputeMetricsNode:
		input, _, err := l.lower(n.Input)
		if err != nil {
			return nil, nil, err
		}
		alias := l.nextAlias()

		var cols []sqlplan.SelectColumn
		var outputs []string
		for _, gb := range l.res.groupBys {
			cols = append(cols, sqlplan.SelectColumn{Expr: alias + "." + gb.name})
			outputs = append(outputs, gb.name)
		}
		for _, m := range l.res.metrics {
			cols = append(cols, sqlplan.SelectColumn{
				Expr:  alias + "." + m.measure.Name,
				Alias: m.metric.Name,
			})
			outputs = append(outputs, m.metric.Name)
		}

		stmt := &sqlplan.SelectStatement{
			Description:   n.Description(),
			SelectColumns: cols,
			FromSubquery:  input,
			FromAlias:     alias,
		}
		return stmt, outputs, nil

	case *dataflow.OrderByLimitNode:
		input, outputs, err := l.lower(n.Input)
		if err != nil {
			return nil, nil, err
		}
		alias := l.nextAlias()

		orderBys := make([]sqlplan.OrderByColumn, len(n.OrderBys))
		for i, o := range n.OrderBys {
			orderBys[i] = sqlplan.OrderByColumn{Expr: alias + "." + o.Column, Desc: o.Desc}
		}

		stmt := &sqlplan.SelectStatement{
			Description:   n.Description(),
			SelectColumns: passthrough(alias, outputs),
			FromSubquery:  input,
			FromAlias:     alias,
			OrderBys:      orderBys,
			Limit:         n.Limit,
		}
		return stmt, outputs, nil

	case *dataflow.WriteToResultNode:
		input, outputs, err := l.lower(n.Input)
		if err != nil {
			return nil, nil, err
		}
		alias := l.nextAlias()
		stmt := &sqlplan.SelectStatement{
			Description:   n.Description(),
			SelectColumns: passthrough(alias, outputs),
			FromSubquery:  input,
			FromAlias:     alias,
		}
		return stmt, outputs, nil

	default:
		return nil, nil, fmt.Errorf("unsupported dataflow node %T", node)
	}
}

func (l *lowerer) lowerAggregate(n *dataflow.AggregateMeasuresNode) (*sqlplan.SelectStatement, []string, error) {
	input, _, err := l.lower(n.Input)
	if err != nil {
		return nil, nil, err
	}
	alias := l.nextAlias()

	var cols []sqlplan.SelectColumn
	var groupBys []string
	var outputs []string
	for _, gb := range l.res.groupBys {
		expr := alias + "." + gb.name
		cols = append(cols, sqlplan.SelectColumn{Expr: expr})
		groupBys = append(groupBys, expr)
		outputs = append(outputs, gb.name)
	}

	seen := make(map[string]bool, len(l.res.metrics))
	for _, m := range l.res.metrics {
		if seen[m.measure.Name] {
			continue
		}
		seen[m.measure.Name] = true
		cols = append(cols, sqlplan.SelectColumn{
			Expr:  aggExpr(m.measure, alias),
			Alias: m.measure.Name,
		})
		outputs = append(outputs, m.measure.Name)
	}

	stmt := &sqlplan.SelectStatement{
		Description:   n.Description(),
		SelectColumns: cols,
		FromSubquery:  input,
		FromAlias:     alias,
		GroupBys:      groupBys,
	}
	return stmt, outputs, nil
}

func aggExpr(measure *manifest.Measure, alias string) string {
	return measure.Agg.SQLFunction(alias + "." + measure.Name)
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
