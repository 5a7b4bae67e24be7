package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLookup(t *testing.T) {
	m, err := Parse([]byte(minimalManifestJSON), ParseOptions{})
	require.NoError(t, err)

	lookup, err := NewLookup(m)
	require.NoError(t, err)

	metric, ok := lookup.Metric("revenue")
	require.True(t, ok)
	assert.Equal(t, "order_total", metric.TypeParams.Measure.Name)

	_, ok = lookup.Metric("nope")
	assert.False(t, ok)

	owner, ok := lookup.MeasureOwner("order_total")
	require.True(t, ok)
	assert.Equal(t, "orders", owner.Name)

	dims := lookup.ModelsWithDimension("order_country")
	require.Len(t, dims, 1)
	assert.Equal(t, "orders", dims[0].Name)

	assert.Empty(t, lookup.ModelsWithDimension("nope"))

	ents := lookup.ModelsWithEntity("customer_id")
	require.Len(t, ents, 1)

	assert.ElementsMatch(t, []string{"revenue", "order_count"}, lookup.MetricNames())
	assert.Same(t, m, lookup.Manifest())
}

func TestNewLookup_DuplicateMeasure(t *testing.T) {
	m := &SemanticManifest{
		SemanticModels: []*SemanticModel{
			{Name: "a", Measures: []*Measure{{Name: "m", Agg: AggSum}}},
			{Name: "b", Measures: []*Measure{{Name: "m", Agg: AggSum}}},
		},
	}

	_, err := NewLookup(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `measure "m"`)
}
