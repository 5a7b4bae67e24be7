package manifest

import (
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalManifestJSON = `{
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

func TestParse_Minimal(t *testing.T) {
	m, err := Parse([]byte(minimalManifestJSON), ParseOptions{})
	require.NoError(t, err)

	require.Len(t, m.SemanticModels, 1)
	model := m.SemanticModels[0]
	assert.Equal(t, "orders", model.Name)
	assert.Equal(t, "analytics.orders", model.NodeRelation.Qualified())

	require.NotNil(t, model.Dimension("ds"))
	assert.Equal(t, DimensionTime, model.Dimension("ds").Type)
	assert.Equal(t, "created_at", model.Dimension("ds").Column())

	require.NotNil(t, model.Measure("order_total"))
	assert.Equal(t, AggSum, model.Measure("order_total").Agg)

	require.NotNil(t, model.Entity("order_id"))
	assert.Equal(t, "id", model.Entity("order_id").Column())
	assert.Equal(t, "customer_id", model.Entity("customer_id").Column(), "entity expr defaults to name")
}

func TestParse_ProxyMetricTransform(t *testing.T) {
	m, err := Parse([]byte(minimalManifestJSON), ParseOptions{})
	require.NoError(t, err)

	// order_count has create_metric set and no metric of its own, so the
	// transform synthesizes one.
	names := make([]string, len(m.Metrics))
	for i, metric := range m.Metrics {
		names[i] = metric.Name
	}
	assert.ElementsMatch(t, []string{"revenue", "order_count"}, names)

	var proxy *Metric
	for _, metric := range m.Metrics {
		if metric.Name == "order_count" {
			proxy = metric
		}
	}
	require.NotNil(t, proxy)
	assert.Equal(t, MetricSimple, proxy.Type)
	require.NotNil(t, proxy.TypeParams.Measure)
	assert.Equal(t, "order_count", proxy.TypeParams.Measure.Name)
}

func TestParse_ProxyMetricTransformLogging(t *testing.T) {
	var buf strings.Builder

	warnLogger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	_, err := Parse([]byte(minimalManifestJSON), ParseOptions{TransformLogger: warnLogger})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "order_count")

	// A logger gated to Error keeps the transform quiet.
	buf.Reset()
	errLogger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}))
	_, err = Parse([]byte(minimalManifestJSON), ParseOptions{TransformLogger: errLogger})
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte("{not json"), ParseOptions{})
	require.Error(t, err)

	// JSON errors pass through unwrapped.
	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr string
	}{
		{
			name:    "model without name",
			json:    `{"semantic_models": [{"node_relation": {"relation_name": "x"}}]}`,
			wantErr: "empty name",
		},
		{
			name: "duplicate models",
			json: `{"semantic_models": [
				{"name": "a", "node_relation": {"relation_name": "x"}},
				{"name": "a", "node_relation": {"relation_name": "y"}}
			]}`,
			wantErr: `duplicate semantic model "a"`,
		},
		{
			name:    "model without relation",
			json:    `{"semantic_models": [{"name": "a"}]}`,
			wantErr: "no node relation",
		},
		{
			name: "measure without agg",
			json: `{"semantic_models": [{"name": "a", "node_relation": {"relation_name": "x"},
				"measures": [{"name": "m"}]}]}`,
			wantErr: "no aggregation",
		},
		{
			name:    "simple metric without measure",
			json:    `{"metrics": [{"name": "m", "type": "simple"}]}`,
			wantErr: "no measure reference",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.json), ParseOptions{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAggregationSQLFunction(t *testing.T) {
	assert.Equal(t, "SUM(amount)", AggSum.SQLFunction("amount"))
	assert.Equal(t, "MIN(amount)", AggMin.SQLFunction("amount"))
	assert.Equal(t, "MAX(amount)", AggMax.SQLFunction("amount"))
	assert.Equal(t, "AVG(amount)", AggAverage.SQLFunction("amount"))
	assert.Equal(t, "COUNT(1)", AggCount.SQLFunction("1"))
	assert.Equal(t, "COUNT(DISTINCT user_id)", AggCountDistinct.SQLFunction("user_id"))
}
