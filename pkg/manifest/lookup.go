package manifest

import "fmt"

// Lookup is an immutable index over a SemanticManifest, built once at
// startup and shared read-only for the rest of the run.
type Lookup struct {
	manifest *SemanticManifest

	metrics         map[string]*Metric
	measureOwners   map[string]*SemanticModel
	dimensionOwners map[string][]*SemanticModel
	entityOwners    map[string][]*SemanticModel
}

// NewLookup indexes a parsed manifest. Measure names must be unique across
// semantic models; metric and model name uniqueness is the parser's job.
func NewLookup(m *SemanticManifest) (*Lookup, error) {
	l := &Lookup{
		manifest:        m,
		metrics:         make(map[string]*Metric, len(m.Metrics)),
		measureOwners:   make(map[string]*SemanticModel),
		dimensionOwners: make(map[string][]*SemanticModel),
		entityOwners:    make(map[string][]*SemanticModel),
	}

	for _, metric := range m.Metrics {
		l.metrics[metric.Name] = metric
	}
	for _, model := range m.SemanticModels {
		for _, measure := range model.Measures {
			if other, ok := l.measureOwners[measure.Name]; ok {
				return nil, fmt.Errorf("measure %q defined in both %q and %q", measure.Name, other.Name, model.Name)
			}
			l.measureOwners[measure.Name] = model
		}
		for _, dim := range model.Dimensions {
			l.dimensionOwners[dim.Name] = append(l.dimensionOwners[dim.Name], model)
		}
		for _, entity := range model.Entities {
			l.entityOwners[entity.Name] = append(l.entityOwners[entity.Name], model)
		}
	}
	return l, nil
}

// Manifest returns the underlying manifest.
func (l *Lookup) Manifest() *SemanticManifest {
	return l.manifest
}

// Metric returns the named metric.
func (l *Lookup) Metric(name string) (*Metric, bool) {
	m, ok := l.metrics[name]
	return m, ok
}

// MetricNames returns the names of all indexed metrics.
func (l *Lookup) MetricNames() []string {
	names := make([]string, 0, len(l.metrics))
	for name := range l.metrics {
		names = append(names, name)
	}
	return names
}

// MeasureOwner returns the semantic model defining the named measure.
func (l *Lookup) MeasureOwner(name string) (*SemanticModel, bool) {
	m, ok := l.measureOwners[name]
	return m, ok
}

// ModelsWithDimension returns every semantic model carrying the named
// dimension, in manifest order.
func (l *Lookup) ModelsWithDimension(name string) []*SemanticModel {
	return l.dimensionOwners[name]
}

// ModelsWithEntity returns every semantic model exposing the named entity,
// in manifest order.
func (l *Lookup) ModelsWithEntity(name string) []*SemanticModel {
	return l.entityOwners[name]
}
