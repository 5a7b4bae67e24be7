// Package postgres provides the PostgreSQL plan renderer.
// This package is pure Go with no database driver dependencies.
package postgres

import (
	"github.com/fastpath-labs/mfsql/pkg/dialect"
	"github.com/fastpath-labs/mfsql/pkg/render"
)

// Config is the PostgreSQL rendering configuration. This is pure data;
// the renderer core reads it to adjust literal and identifier syntax.
var Config = render.Config{
	Dialect:       dialect.Postgres,
	IdentQuote:    `"`,
	IdentQuoteEnd: `"`,
	IdentEscape:   `""`,
	TimestampType: "TIMESTAMP",
	FloatType:     "DOUBLE PRECISION",
}

// NewPlanRenderer creates the renderer bound to the Postgres dialect.
func NewPlanRenderer() *render.PlanRenderer {
	return render.New(Config)
}
