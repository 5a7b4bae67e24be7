// Package engine resolves normalized metric queries against a semantic
// manifest lookup: it builds the logical dataflow plan and renders the SQL
// a warehouse would run, without connecting to one.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/fastpath-labs/mfsql/internal/query"
	"github.com/fastpath-labs/mfsql/pkg/dataflow"
	"github.com/fastpath-labs/mfsql/pkg/manifest"
	"github.com/fastpath-labs/mfsql/pkg/render"
	"github.com/fastpath-labs/mfsql/pkg/sqlclient"
)

// Engine answers explain requests for one manifest/dialect pairing. It is
// built once per invocation and holds no connection state.
type Engine struct {
	lookup *manifest.Lookup
	client *sqlclient.DialectOnlyClient
	logger *slog.Logger
}

// New creates an engine. The client supplies dialect identity and a plan
// renderer only; nothing here can reach a live warehouse.
func New(lookup *manifest.Lookup, client *sqlclient.DialectOnlyClient, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{lookup: lookup, client: client, logger: logger}
}

// SQLStatement is a rendered query offered in two forms.
type SQLStatement struct {
	// SQL is the full rendering with inline per-node descriptions.
	SQL string
	// WithoutDescriptions is the rendering with description comments
	// removed.
	WithoutDescriptions string
}

// ExplainResult is the outcome of resolving a query without executing it.
type ExplainResult struct {
	DataflowPlan *dataflow.Plan
	SQLStatement *SQLStatement
}

// Explain resolves the request to a dataflow plan and its SQL rendering.
func (e *Engine) Explain(ctx context.Context, req *query.Request) (*ExplainResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.logger.Debug("explain start",
		"request_id", req.RequestID,
		"dialect", e.client.Dialect(),
		"metrics", strings.Join(req.MetricNames, ","),
	)

	res, err := e.resolve(req)
	if err != nil {
		return nil, err
	}

	plan := e.buildPlan(req, res)

	stmt, err := lowerPlan(plan, res)
	if err != nil {
		return nil, err
	}

	renderer := e.client.PlanRenderer()
	annotated, err := renderer.Render(stmt, render.Options{IncludeDescriptions: true})
	if err != nil {
		return nil, err
	}
	plain, err := renderer.Render(stmt, render.Options{})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("explain done", "request_id", req.RequestID, "plan_id", plan.PlanID)

	return &ExplainResult{
		DataflowPlan: plan,
		SQLStatement: &SQLStatement{SQL: annotated, WithoutDescriptions: plain},
	}, nil
}

// resolvedMetric pairs a metric with the measure it aggregates.
type resolvedMetric struct {
	metric  *manifest.Metric
	measure *manifest.Measure
}

// resolvedJoin is a one-hop join from the measure model to a dimension
// model through a shared entity.
type resolvedJoin struct {
	model     *manifest.SemanticModel
	entity    *manifest.Entity // on the measure model
	dimension *manifest.Dimension
}

// resolvedGroupBy is one group-by key. Exactly one of dimension, entity,
// or join is set.
type resolvedGroupBy struct {
	name      string
	dimension *manifest.Dimension
	entity    *manifest.Entity
	join      *resolvedJoin
}

// resolvedQuery is the fully resolved form of a request, ready for plan
// construction.
type resolvedQuery struct {
	model         *manifest.SemanticModel
	metrics       []resolvedMetric
	groupBys      []resolvedGroupBy
	joins         []*resolvedJoin
	timeDimension *manifest.Dimension
	orderBys      []dataflow.OrderBySpec
	whereFilters  []string
	limit         *int

	// sources maps read-node IDs to their projections, filled in during
	// plan construction and consumed by SQL lowering.
	sources map[string]*sourceSpec
}

func (e *Engine) resolve(req *query.Request) (*resolvedQuery, error) {
	if len(req.MetricNames) == 0 {
		return nil, fmt.Errorf("at least one metric is required; known metrics: %s", strings.Join(sortedNames(e.lookup.MetricNames()), ", "))
	}
	if req.Limit != nil && *req.Limit < 0 {
		return nil, fmt.Errorf("limit must not be negative, got %d", *req.Limit)
	}

	res := &resolvedQuery{
		whereFilters: req.WhereConstraints,
		limit:        req.Limit,
		sources:      make(map[string]*sourceSpec),
	}

	for _, name := range req.MetricNames {
		metric, ok := e.lookup.Metric(name)
		if !ok {
			return nil, fmt.Errorf("metric %q is not defined in the semantic manifest", name)
		}
		if metric.Type != manifest.MetricSimple {
			return nil, fmt.Errorf("metric %q has type %q; the explain fast path resolves simple metrics only", name, metric.Type)
		}
		measureName := metric.TypeParams.Measure.Name
		owner, ok := e.lookup.MeasureOwner(measureName)
		if !ok {
			return nil, fmt.Errorf("metric %q references unknown measure %q", name, measureName)
		}
		if res.model == nil {
			res.model = owner
		} else if res.model != owner {
			return nil, fmt.Errorf("metrics span semantic models %q and %q; multi-model measure queries are not supported by the explain fast path", res.model.Name, owner.Name)
		}
		res.metrics = append(res.metrics, resolvedMetric{metric: metric, measure: owner.Measure(measureName)})
	}

	for _, name := range req.GroupByNames {
		gb, err := e.resolveGroupBy(res.model, name)
		if err != nil {
			return nil, err
		}
		if gb.join != nil {
			res.joins = append(res.joins, gb.join)
		}
		res.groupBys = append(res.groupBys, gb)
	}

	if req.TimeConstraintStart != nil || req.TimeConstraintEnd != nil {
		dim, err := aggTimeDimension(res.model, res.metrics[0].measure)
		if err != nil {
			return nil, err
		}
		res.timeDimension = dim
	}

	orderBys, err := resolveOrderBys(req, res)
	if err != nil {
		return nil, err
	}
	res.orderBys = orderBys

	return res, nil
}

// resolveGroupBy resolves one group-by name against the measure model,
// falling back to a one-hop entity join into another semantic model.
func (e *Engine) resolveGroupBy(model *manifest.SemanticModel, name string) (resolvedGroupBy, error) {
	if dim := model.Dimension(name); dim != nil {
		return resolvedGroupBy{name: name, dimension: dim}, nil
	}
	if entity := model.Entity(name); entity != nil {
		return resolvedGroupBy{name: name, entity: entity}, nil
	}

	for _, other := range e.lookup.ModelsWithDimension(name) {
		if other == model {
			continue
		}
		for _, entity := range model.Entities {
			if other.Entity(entity.Name) == nil {
				continue
			}
			join := &resolvedJoin{
				model:     other,
				entity:    entity,
				dimension: other.Dimension(name),
			}
			return resolvedGroupBy{name: name, join: join}, nil
		}
	}

	return resolvedGroupBy{}, fmt.Errorf("group-by %q does not resolve to a dimension or entity reachable from semantic model %q", name, model.Name)
}

// aggTimeDimension finds the time dimension a time window constrains.
func aggTimeDimension(model *manifest.SemanticModel, measure *manifest.Measure) (*manifest.Dimension, error) {
	if measure.AggTimeDimension != "" {
		if dim := model.Dimension(measure.AggTimeDimension); dim != nil {
			return dim, nil
		}
		return nil, fmt.Errorf("measure %q names aggregation time dimension %q, which semantic model %q does not define", measure.Name, measure.AggTimeDimension, model.Name)
	}
	for _, dim := range model.Dimensions {
		if dim.Type == manifest.DimensionTime {
			return dim, nil
		}
	}
	return nil, fmt.Errorf("semantic model %q has no time dimension to constrain", model.Name)
}

// resolveOrderBys validates order keys against the query's output columns.
// A leading '-' marks descending order.
func resolveOrderBys(req *query.Request, res *resolvedQuery) ([]dataflow.OrderBySpec, error) {
	if len(req.OrderByNames) == 0 {
		return nil, nil
	}

	outputs := make(map[string]bool, len(res.metrics)+len(res.groupBys))
	for _, m := range res.metrics {
		outputs[m.metric.Name] = true
	}
	for _, gb := range res.groupBys {
		outputs[gb.name] = true
	}

	specs := make([]dataflow.OrderBySpec, 0, len(req.OrderByNames))
	for _, key := range req.OrderByNames {
		column := key
		desc := false
		if strings.HasPrefix(key, "-") {
			column = key[1:]
			desc = true
		}
		if !outputs[column] {
			return nil, fmt.Errorf("order key %q does not match a queried metric or group-by", key)
		}
		specs = append(specs, dataflow.OrderBySpec{Column: column, Desc: desc})
	}
	return specs, nil
}

// buildPlan assembles the dataflow node chain for a resolved query and
// records each read node's projection for SQL lowering.
func (e *Engine) buildPlan(req *query.Request, res *resolvedQuery) *dataflow.Plan {
	ids := newIDGenerator()

	main := &dataflow.ReadSourceNode{
		ID:        ids.next("rss"),
		ModelName: res.model.Name,
		Relation:  res.model.NodeRelation.Qualified(),
	}
	res.sources[main.ID] = mainSourceSpec(res)

	var node dataflow.Node = main
	for _, join := range res.joins {
		right := &dataflow.ReadSourceNode{
			ID:        ids.next("rss"),
			ModelName: join.model.Name,
			Relation:  join.model.NodeRelation.Qualified(),
		}
		res.sources[right.ID] = joinSourceSpec(join)
		node = &dataflow.JoinOnEntityNode{
			ID:     ids.next("jse"),
			Left:   node,
			Right:  right,
			Entity: join.entity.Name,
		}
	}

	if res.timeDimension != nil {
		node = &dataflow.ConstrainTimeRangeNode{
			ID:            ids.next("ctr"),
			Input:         node,
			TimeDimension: res.timeDimension.Name,
			Start:         req.TimeConstraintStart,
			End:           req.TimeConstraintEnd,
		}
	}

	if len(res.whereFilters) > 0 {
		node = &dataflow.WhereConstraintNode{
			ID:      ids.next("wcc"),
			Input:   node,
			Filters: res.whereFilters,
		}
	}

	measures := make([]string, len(res.metrics))
	metrics := make([]string, len(res.metrics))
	for i, m := range res.metrics {
		measures[i] = m.measure.Name
		metrics[i] = m.metric.Name
	}
	node = &dataflow.AggregateMeasuresNode{ID: ids.next("am"), Input: node, Measures: measures}
	node = &dataflow.ComputeMetricsNode{ID: ids.next("cm"), Input: node, Metrics: metrics}

	if len(res.orderBys) > 0 || res.limit != nil {
		node = &dataflow.OrderByLimitNode{
			ID:       ids.next("obl"),
			Input:    node,
			OrderBys: res.orderBys,
			Limit:    res.limit,
		}
	}

	sink := &dataflow.WriteToResultNode{ID: ids.next("wrd"), Input: node}

	return &dataflow.Plan{
		PlanID: "plan_" + req.RequestID.String(),
		Sink:   sink,
	}
}

// idGenerator hands out per-prefix sequential node IDs (rss_0, rss_1, ...).
type idGenerator struct {
	counts map[string]int
}

func newIDGenerator() *idGenerator {
	return &idGenerator{counts: make(map[string]int)}
}

func (g *idGenerator) next(prefix string) string {
	id := fmt.Sprintf("%s_%d", prefix, g.counts[prefix])
	g.counts[prefix]++
	return id
}

func sortedNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
