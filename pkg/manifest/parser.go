package manifest

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// ParseOptions configure a parse. The zero value is usable.
type ParseOptions struct {
	// TransformLogger receives diagnostics from manifest transformations.
	// The proxy-metric transform emits one warning per synthesized metric,
	// which is noisy on large manifests; callers gate it by handing in a
	// level-restricted logger. Nil discards.
	TransformLogger *slog.Logger
}

// Parse converts raw semantic manifest JSON into a SemanticManifest,
// validates its shape, and applies manifest transformations. JSON decoding
// errors are returned as-is so callers see the underlying position info.
func Parse(data []byte, opts ParseOptions) (*SemanticManifest, error) {
	var m SemanticManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}

	if err := validate(&m); err != nil {
		return nil, err
	}

	logger := opts.TransformLogger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fixProxyMetrics(&m, logger)

	return &m, nil
}

// validate checks the structural invariants metric resolution relies on.
func validate(m *SemanticManifest) error {
	seenModels := make(map[string]bool, len(m.SemanticModels))
	for _, model := range m.SemanticModels {
		if model.Name == "" {
			return fmt.Errorf("semantic model with empty name")
		}
		if seenModels[model.Name] {
			return fmt.Errorf("duplicate semantic model %q", model.Name)
		}
		seenModels[model.Name] = true

		if model.NodeRelation.Qualified() == "" {
			return fmt.Errorf("semantic model %q has no node relation", model.Name)
		}
		for _, measure := range model.Measures {
			if measure.Name == "" {
				return fmt.Errorf("semantic model %q has a measure with empty name", model.Name)
			}
			if measure.Agg == "" {
				return fmt.Errorf("measure %q has no aggregation", measure.Name)
			}
		}
	}

	seenMetrics := make(map[string]bool, len(m.Metrics))
	for _, metric := range m.Metrics {
		if metric.Name == "" {
			return fmt.Errorf("metric with empty name")
		}
		if seenMetrics[metric.Name] {
			return fmt.Errorf("duplicate metric %q", metric.Name)
		}
		seenMetrics[metric.Name] = true

		if metric.Type == "" {
			metric.Type = MetricSimple
		}
		if metric.Type == MetricSimple && metric.TypeParams.Measure == nil {
			return fmt.Errorf("simple metric %q has no measure reference", metric.Name)
		}
	}
	return nil
}

// fixProxyMetrics synthesizes a simple metric for every measure flagged
// create_metric that does not already have a metric of the same name.
func fixProxyMetrics(m *SemanticManifest, logger *slog.Logger) {
	existing := make(map[string]bool, len(m.Metrics))
	for _, metric := range m.Metrics {
		existing[metric.Name] = true
	}

	for _, model := range m.SemanticModels {
		for _, measure := range model.Measures {
			if !measure.CreateMetric || existing[measure.Name] {
				continue
			}
			logger.Warn("synthesizing proxy metric for measure",
				"measure", measure.Name,
				"semantic_model", model.Name,
			)
			m.Metrics = append(m.Metrics, &Metric{
				Name:       measure.Name,
				Type:       MetricSimple,
				TypeParams: MetricTypeParams{Measure: &MeasureReference{Name: measure.Name}},
			})
			existing[measure.Name] = true
		}
	}
}
