// Package manifest models the dbt-style semantic manifest: the metrics,
// dimensions, entities, and semantic models that form the queryable data
// model. It parses the manifest JSON produced by a dbt build and indexes it
// for metric resolution.
package manifest

import "strings"

// SemanticManifest is the parsed, read-only data model for a run.
type SemanticManifest struct {
	SemanticModels []*SemanticModel `json:"semantic_models"`
	Metrics        []*Metric        `json:"metrics"`
}

// NodeRelation locates a semantic model's backing relation in the warehouse.
type NodeRelation struct {
	SchemaName   string `json:"schema_name"`
	Alias        string `json:"alias"`
	RelationName string `json:"relation_name"`
}

// Qualified returns the fully qualified relation name.
func (n NodeRelation) Qualified() string {
	if n.RelationName != "" {
		return n.RelationName
	}
	if n.SchemaName != "" {
		return n.SchemaName + "." + n.Alias
	}
	return n.Alias
}

// EntityType classifies how an entity participates in joins.
type EntityType string

const (
	EntityPrimary EntityType = "primary"
	EntityUnique  EntityType = "unique"
	EntityForeign EntityType = "foreign"
	EntityNatural EntityType = "natural"
)

// Entity is a join key exposed by a semantic model.
type Entity struct {
	Name string     `json:"name"`
	Type EntityType `json:"type"`
	Expr string     `json:"expr"`
}

// Column returns the SQL expression backing the entity, defaulting to its
// name when no explicit expr is given.
func (e *Entity) Column() string {
	if e.Expr != "" {
		return e.Expr
	}
	return e.Name
}

// DimensionType distinguishes categorical from time dimensions.
type DimensionType string

const (
	DimensionCategorical DimensionType = "categorical"
	DimensionTime        DimensionType = "time"
)

// DimensionTypeParams carries time-dimension settings.
type DimensionTypeParams struct {
	TimeGranularity string `json:"time_granularity"`
}

// Dimension is a groupable attribute of a semantic model.
type Dimension struct {
	Name       string               `json:"name"`
	Type       DimensionType        `json:"type"`
	Expr       string               `json:"expr"`
	TypeParams *DimensionTypeParams `json:"type_params"`
}

// Column returns the SQL expression backing the dimension, defaulting to
// its name when no explicit expr is given.
func (d *Dimension) Column() string {
	if d.Expr != "" {
		return d.Expr
	}
	return d.Name
}

// Aggregation is a measure's aggregation function.
type Aggregation string

const (
	AggSum           Aggregation = "sum"
	AggMin           Aggregation = "min"
	AggMax           Aggregation = "max"
	AggAverage       Aggregation = "average"
	AggCount         Aggregation = "count"
	AggCountDistinct Aggregation = "count_distinct"
)

// SQLFunction returns the SQL aggregate expression for a measure column.
func (a Aggregation) SQLFunction(column string) string {
	switch a {
	case AggAverage:
		return "AVG(" + column + ")"
	case AggCountDistinct:
		return "COUNT(DISTINCT " + column + ")"
	case AggCount:
		return "COUNT(" + column + ")"
	default:
		// sum, min, max map directly.
		return strings.ToUpper(string(a)) + "(" + column + ")"
	}
}

// Measure is an aggregatable quantity defined on a semantic model.
type Measure struct {
	Name             string      `json:"name"`
	Agg              Aggregation `json:"agg"`
	Expr             string      `json:"expr"`
	AggTimeDimension string      `json:"agg_time_dimension"`
	CreateMetric     bool        `json:"create_metric"`
}

// Column returns the SQL expression backing the measure, defaulting to its
// name when no explicit expr is given.
func (m *Measure) Column() string {
	if m.Expr != "" {
		return m.Expr
	}
	return m.Name
}

// SemanticModel groups entities, dimensions, and measures over one relation.
type SemanticModel struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	NodeRelation NodeRelation `json:"node_relation"`
	Entities     []*Entity    `json:"entities"`
	Dimensions   []*Dimension `json:"dimensions"`
	Measures     []*Measure   `json:"measures"`
}

// Dimension returns the named dimension, or nil.
func (m *SemanticModel) Dimension(name string) *Dimension {
	for _, d := range m.Dimensions {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// Entity returns the named entity, or nil.
func (m *SemanticModel) Entity(name string) *Entity {
	for _, e := range m.Entities {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// Measure returns the named measure, or nil.
func (m *SemanticModel) Measure(name string) *Measure {
	for _, ms := range m.Measures {
		if ms.Name == name {
			return ms
		}
	}
	return nil
}

// MetricType classifies a metric definition.
type MetricType string

// MetricSimple is the only metric type the explain fast path resolves.
const MetricSimple MetricType = "simple"

// MeasureReference names the measure a simple metric aggregates.
type MeasureReference struct {
	Name string `json:"name"`
}

// MetricTypeParams carries type-specific metric settings.
type MetricTypeParams struct {
	Measure *MeasureReference `json:"measure"`
}

// Metric is a named, queryable aggregation over a measure.
type Metric struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Type        MetricType       `json:"type"`
	TypeParams  MetricTypeParams `json:"type_params"`
}
