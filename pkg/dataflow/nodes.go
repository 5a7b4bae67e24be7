// Package dataflow models the logical, dialect-independent execution plan
// for a metric query: a tree of nodes from source reads up to the result
// sink. The plan renders to a structural text form for explain output and
// is lowered to SQL by the engine.
package dataflow

import (
	"fmt"
	"strings"
	"time"
)

// Property is one displayed attribute of a node.
type Property struct {
	Key   string
	Value string
}

// Node is a single step of the dataflow plan.
type Node interface {
	// NodeID uniquely identifies the node within its plan.
	NodeID() string
	// DisplayName is the node's type name as shown in structure text.
	DisplayName() string
	// Description is the human-readable summary used for SQL comments.
	Description() string
	// Inputs are the upstream nodes feeding this one.
	Inputs() []Node
	// Properties are displayed node attributes beyond the node ID.
	Properties() []Property
}

// ReadSourceNode reads the columns of one semantic model's relation.
type ReadSourceNode struct {
	ID        string
	ModelName string
	Relation  string
}

func (n *ReadSourceNode) NodeID() string      { return n.ID }
func (n *ReadSourceNode) DisplayName() string { return "ReadSourceNode" }
func (n *ReadSourceNode) Description() string {
	return fmt.Sprintf("Read From Semantic Model '%s'", n.ModelName)
}
func (n *ReadSourceNode) Inputs() []Node { return nil }
func (n *ReadSourceNode) Properties() []Property {
	return []Property{{Key: "relation", Value: n.Relation}}
}

// JoinOnEntityNode joins a dimension source to the measure source through a
// shared entity.
type JoinOnEntityNode struct {
	ID     string
	Left   Node
	Right  Node
	Entity string
}

func (n *JoinOnEntityNode) NodeID() string      { return n.ID }
func (n *JoinOnEntityNode) DisplayName() string { return "JoinOnEntityNode" }
func (n *JoinOnEntityNode) Description() string {
	return fmt.Sprintf("Join Standard Outputs on Entity '%s'", n.Entity)
}
func (n *JoinOnEntityNode) Inputs() []Node { return []Node{n.Left, n.Right} }
func (n *JoinOnEntityNode) Properties() []Property {
	return []Property{{Key: "entity", Value: n.Entity}}
}

// ConstrainTimeRangeNode restricts rows to an inclusive time window on the
// aggregation time dimension.
type ConstrainTimeRangeNode struct {
	ID            string
	Input         Node
	TimeDimension string
	Start         *time.Time
	End           *time.Time
}

func (n *ConstrainTimeRangeNode) NodeID() string      { return n.ID }
func (n *ConstrainTimeRangeNode) DisplayName() string { return "ConstrainTimeRangeNode" }
func (n *ConstrainTimeRangeNode) Description() string {
	return fmt.Sprintf("Constrain Time Range to [%s, %s]", formatBound(n.Start), formatBound(n.End))
}
func (n *ConstrainTimeRangeNode) Inputs() []Node { return []Node{n.Input} }
func (n *ConstrainTimeRangeNode) Properties() []Property {
	return []Property{
		{Key: "time_dimension", Value: n.TimeDimension},
		{Key: "start", Value: formatBound(n.Start)},
		{Key: "end", Value: formatBound(n.End)},
	}
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "..."
	}
	return t.Format("2006-01-02T15:04:05")
}

// WhereConstraintNode applies free-text predicates to its input rows.
type WhereConstraintNode struct {
	ID      string
	Input   Node
	Filters []string
}

func (n *WhereConstraintNode) NodeID() string      { return n.ID }
func (n *WhereConstraintNode) DisplayName() string { return "WhereConstraintNode" }
func (n *WhereConstraintNode) Description() string { return "Constrain Output with WHERE" }
func (n *WhereConstraintNode) Inputs() []Node      { return []Node{n.Input} }
func (n *WhereConstraintNode) Properties() []Property {
	return []Property{{Key: "where", Value: strings.Join(n.Filters, " AND ")}}
}

// AggregateMeasuresNode aggregates measure columns grouped by the query's
// group-by columns.
type AggregateMeasuresNode struct {
	ID       string
	Input    Node
	Measures []string
}

func (n *AggregateMeasuresNode) NodeID() string      { return n.ID }
func (n *AggregateMeasuresNode) DisplayName() string { return "AggregateMeasuresNode" }
func (n *AggregateMeasuresNode) Description() string { return "Aggregate Measures" }
func (n *AggregateMeasuresNode) Inputs() []Node      { return []Node{n.Input} }
func (n *AggregateMeasuresNode) Properties() []Property {
	return []Property{{Key: "measures", Value: strings.Join(n.Measures, ", ")}}
}

// ComputeMetricsNode exposes aggregated measures under their metric names.
type ComputeMetricsNode struct {
	ID      string
	Input   Node
	Metrics []string
}

func (n *ComputeMetricsNode) NodeID() string      { return n.ID }
func (n *ComputeMetricsNode) DisplayName() string { return "ComputeMetricsNode" }
func (n *ComputeMetricsNode) Description() string { return "Compute Metrics via Expressions" }
func (n *ComputeMetricsNode) Inputs() []Node      { return []Node{n.Input} }
func (n *ComputeMetricsNode) Properties() []Property {
	return []Property{{Key: "metrics", Value: strings.Join(n.Metrics, ", ")}}
}

// OrderBySpec is one ordering key at the plan level.
type OrderBySpec struct {
	Column string
	Desc   bool
}

// OrderByLimitNode orders the result and optionally caps the row count.
type OrderByLimitNode struct {
	ID       string
	Input    Node
	OrderBys []OrderBySpec
	Limit    *int
}

func (n *OrderByLimitNode) NodeID() string      { return n.ID }
func (n *OrderByLimitNode) DisplayName() string { return "OrderByLimitNode" }
func (n *OrderByLimitNode) Description() string {
	parts := make([]string, len(n.OrderBys))
	for i, o := range n.OrderBys {
		parts[i] = o.Column
		if o.Desc {
			parts[i] += " DESC"
		}
	}
	desc := "Order By [" + strings.Join(parts, ", ") + "]"
	if n.Limit != nil {
		desc += fmt.Sprintf(" Limit %d", *n.Limit)
	}
	return desc
}
func (n *OrderByLimitNode) Inputs() []Node { return []Node{n.Input} }
func (n *OrderByLimitNode) Properties() []Property {
	props := make([]Property, 0, 2)
	if len(n.OrderBys) > 0 {
		parts := make([]string, len(n.OrderBys))
		for i, o := range n.OrderBys {
			parts[i] = o.Column
			if o.Desc {
				parts[i] += " desc"
			}
		}
		props = append(props, Property{Key: "order_by", Value: strings.Join(parts, ", ")})
	}
	if n.Limit != nil {
		props = append(props, Property{Key: "limit", Value: fmt.Sprintf("%d", *n.Limit)})
	}
	return props
}

// WriteToResultNode is the plan sink: the final projected result set.
type WriteToResultNode struct {
	ID    string
	Input Node
}

func (n *WriteToResultNode) NodeID() string      { return n.ID }
func (n *WriteToResultNode) DisplayName() string { return "WriteToResultNode" }
func (n *WriteToResultNode) Description() string { return "Write to Data Table" }
func (n *WriteToResultNode) Inputs() []Node      { return []Node{n.Input} }
func (n *WriteToResultNode) Properties() []Property {
	return nil
}
