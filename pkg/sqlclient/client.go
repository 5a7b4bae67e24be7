// Package sqlclient binds a SQL dialect to its plan renderer without any
// database connectivity. The explain fast path needs dialect identity and
// rendering only; anything requiring a live warehouse is out of reach by
// construction.
package sqlclient

import (
	"fmt"

	"github.com/fastpath-labs/mfsql/pkg/dialect"
	"github.com/fastpath-labs/mfsql/pkg/render"
	"github.com/fastpath-labs/mfsql/pkg/render/bigquery"
	"github.com/fastpath-labs/mfsql/pkg/render/postgres"
	"github.com/fastpath-labs/mfsql/pkg/render/redshift"
	"github.com/fastpath-labs/mfsql/pkg/render/snowflake"
)

// DialectOnlyClient pairs a dialect with its bound plan renderer. It is
// immutable: built once per invocation and handed to the engine as-is.
type DialectOnlyClient struct {
	dialect  dialect.Dialect
	renderer *render.PlanRenderer
}

// FromDialectName resolves a free-text dialect name and constructs the
// client for it. Unknown names fail with the resolver's alias-listing error
// before any renderer is built.
func FromDialectName(name string) (*DialectOnlyClient, error) {
	d, err := dialect.Parse(name)
	if err != nil {
		return nil, err
	}
	return FromDialect(d)
}

// FromDialect constructs the client for a resolved dialect. The mapping is
// closed: each dialect constructs exactly one renderer type.
func FromDialect(d dialect.Dialect) (*DialectOnlyClient, error) {
	var renderer *render.PlanRenderer
	switch d {
	case dialect.BigQuery:
		renderer = bigquery.NewPlanRenderer()
	case dialect.Postgres:
		renderer = postgres.NewPlanRenderer()
	case dialect.Redshift:
		renderer = redshift.NewPlanRenderer()
	case dialect.Snowflake:
		renderer = snowflake.NewPlanRenderer()
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", d)
	}
	return &DialectOnlyClient{dialect: d, renderer: renderer}, nil
}

// Dialect returns the client's dialect.
func (c *DialectOnlyClient) Dialect() dialect.Dialect {
	return c.dialect
}

// PlanRenderer returns the renderer bound to the client's dialect.
func (c *DialectOnlyClient) PlanRenderer() *render.PlanRenderer {
	return c.renderer
}
