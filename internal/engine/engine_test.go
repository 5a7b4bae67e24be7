package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastpath-labs/mfsql/internal/query"
	"github.com/fastpath-labs/mfsql/pkg/manifest"
	"github.com/fastpath-labs/mfsql/pkg/sqlclient"
)

const testManifestJSON = `{
  "semantic_models": [
    {
      "name": "orders",
      "description": "Order facts",
      "node_relation": {"schema_name": "analytics", "alias": "orders", "relation_name": "analytics.orders"},
      "entities": [
        {"name": "order_id", "type": "primary", "expr": "id"},
        {"name": "customer_id", "type": "foreign"}
      ],
      "dimensions": [
        {"name": "ds", "type": "time", "expr": "created_at", "type_params": {"time_granularity": "day"}},
        {"name": "order_country", "type": "categorical", "expr": "country"}
      ],
      "measures": [
        {"name": "order_total", "agg": "sum", "expr": "amount", "agg_time_dimension": "ds"},
        {"name": "order_count", "agg": "count", "expr": "1", "agg_time_dimension": "ds", "create_metric": true}
      ]
    },
    {
      "name": "customers",
      "description": "Customer attributes",
      "node_relation": {"schema_name": "analytics", "alias": "customers", "relation_name": "analytics.customers"},
      "entities": [
        {"name": "customer_id", "type": "primary"}
      ],
      "dimensions": [
        {"name": "customer_region", "type": "categorical", "expr": "region"}
      ],
      "measures": []
    }
  ],
  "metrics": [
    {
      "name": "revenue",
      "description": "Total order revenue",
      "type": "simple",
      "type_params": {"measure": {"name": "order_total"}}
    }
  ]
}`

func newTestEngine(t *testing.T, dialectName string) *Engine {
	t.Helper()

	m, err := manifest.Parse([]byte(testManifestJSON), manifest.ParseOptions{})
	require.NoError(t, err)
	lookup, err := manifest.NewLookup(m)
	require.NoError(t, err)
	client, err := sqlclient.FromDialectName(dialectName)
	require.NoError(t, err)

	return New(lookup, client, nil)
}

func explainRequest() *query.Request {
	req := query.NewRequest()
	req.MetricNames = []string{"revenue"}
	req.GroupByNames = []string{"ds"}
	return req
}

func TestExplain_Basic(t *testing.T) {
	eng := newTestEngine(t, "postgres")

	result, err := eng.Explain(context.Background(), explainRequest())
	require.NoError(t, err)

	sql := result.SQLStatement.WithoutDescriptions
	assert.Contains(t, sql, "analytics.orders")
	assert.Contains(t, sql, "revenue")
	assert.Contains(t, sql, "ds")
	assert.Contains(t, sql, "SUM(")
	assert.Contains(t, sql, "GROUP BY")
	assert.NotContains(t, sql, "--")

	annotated := result.SQLStatement.SQL
	assert.Contains(t, annotated, "-- Read From Semantic Model 'orders'")
	assert.Contains(t, annotated, "-- Aggregate Measures")
	assert.Contains(t, annotated, "-- Compute Metrics via Expressions")
	assert.Contains(t, annotated, "-- Write to Data Table")

	// Annotated is a content superset of the stripped rendering.
	for _, line := range strings.Split(sql, "\n") {
		assert.Contains(t, annotated, line)
	}
}

func TestExplain_PlanStructure(t *testing.T) {
	eng := newTestEngine(t, "postgres")

	result, err := eng.Explain(context.Background(), explainRequest())
	require.NoError(t, err)

	text := result.DataflowPlan.StructureText()
	assert.Contains(t, text, "<WriteToResultNode")
	assert.Contains(t, text, "<ComputeMetricsNode")
	assert.Contains(t, text, "<AggregateMeasuresNode")
	assert.Contains(t, text, "<ReadSourceNode")
	assert.Contains(t, text, "relation='analytics.orders'")
	assert.True(t, strings.HasPrefix(result.DataflowPlan.PlanID, "plan_"))
}

func TestExplain_ProxyMetric(t *testing.T) {
	eng := newTestEngine(t, "postgres")

	req := query.NewRequest()
	req.MetricNames = []string{"order_count"}

	result, err := eng.Explain(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, result.SQLStatement.WithoutDescriptions, "COUNT(")
}

func TestExplain_TimeConstraint(t *testing.T) {
	eng := newTestEngine(t, "postgres")

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC)
	req := explainRequest()
	req.TimeConstraintStart = &start
	req.TimeConstraintEnd = &end

	result, err := eng.Explain(context.Background(), req)
	require.NoError(t, err)

	sql := result.SQLStatement.WithoutDescriptions
	assert.Contains(t, sql, "BETWEEN CAST('2020-01-01 00:00:00' AS TIMESTAMP) AND CAST('2020-06-30 00:00:00' AS TIMESTAMP)")
}

func TestExplain_TimeConstraintDialects(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	req := explainRequest()
	req.TimeConstraintStart = &start

	bq, err := newTestEngine(t, "bigquery").Explain(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, bq.SQLStatement.WithoutDescriptions, "AS DATETIME)")

	sf, err := newTestEngine(t, "snowflake").Explain(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, sf.SQLStatement.WithoutDescriptions, "AS TIMESTAMP)")
}

func TestExplain_WhereOrderLimit(t *testing.T) {
	eng := newTestEngine(t, "redshift")

	limit := 100
	req := explainRequest()
	req.GroupByNames = []string{"ds", "order_country"}
	req.WhereConstraints = []string{"order_country = 'US'"}
	req.OrderByNames = []string{"-ds", "revenue"}
	req.Limit = &limit

	result, err := eng.Explain(context.Background(), req)
	require.NoError(t, err)

	sql := result.SQLStatement.WithoutDescriptions
	assert.Contains(t, sql, "WHERE order_country = 'US'")
	assert.Contains(t, sql, "DESC")
	assert.Contains(t, sql, "LIMIT 100")

	// Ordering applies above aggregation: its clause trails the subquery
	// that carries the GROUP BY.
	aggIdx := strings.Index(sql, "GROUP BY")
	orderIdx := strings.Index(sql, "ORDER BY")
	assert.Greater(t, orderIdx, aggIdx)
}

func TestExplain_EntityJoin(t *testing.T) {
	eng := newTestEngine(t, "postgres")

	req := explainRequest()
	req.GroupByNames = []string{"customer_region"}

	result, err := eng.Explain(context.Background(), req)
	require.NoError(t, err)

	sql := result.SQLStatement.WithoutDescriptions
	assert.Contains(t, sql, "analytics.customers")
	assert.Contains(t, sql, "LEFT OUTER JOIN")
	assert.Contains(t, sql, "customer_id")
	assert.Contains(t, sql, "customer_region")

	text := result.DataflowPlan.StructureText()
	assert.Contains(t, text, "<JoinOnEntityNode")
	assert.Contains(t, text, "entity='customer_id'")
}

func TestExplain_GroupByEntity(t *testing.T) {
	eng := newTestEngine(t, "postgres")

	req := explainRequest()
	req.GroupByNames = []string{"customer_id"}

	result, err := eng.Explain(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, result.SQLStatement.WithoutDescriptions, "customer_id")
}

func TestExplain_ResolutionErrors(t *testing.T) {
	eng := newTestEngine(t, "postgres")

	tests := []struct {
		name    string
		mutate  func(*query.Request)
		wantErr string
	}{
		{
			name:    "no metrics",
			mutate:  func(r *query.Request) { r.MetricNames = nil },
			wantErr: "at least one metric",
		},
		{
			name:    "unknown metric",
			mutate:  func(r *query.Request) { r.MetricNames = []string{"nope"} },
			wantErr: `metric "nope"`,
		},
		{
			name:    "unknown group-by",
			mutate:  func(r *query.Request) { r.GroupByNames = []string{"nope"} },
			wantErr: `group-by "nope"`,
		},
		{
			name:    "unknown order key",
			mutate:  func(r *query.Request) { r.OrderByNames = []string{"-nope"} },
			wantErr: `order key "-nope"`,
		},
		{
			name: "negative limit",
			mutate: func(r *query.Request) {
				limit := -1
				r.Limit = &limit
			},
			wantErr: "limit must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := explainRequest()
			tt.mutate(req)

			_, err := eng.Explain(context.Background(), req)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExplain_NoMetricsListsKnown(t *testing.T) {
	eng := newTestEngine(t, "postgres")

	req := query.NewRequest()
	_, err := eng.Explain(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order_count, revenue")
}
