// Package redshift provides the Amazon Redshift plan renderer.
// This package is pure Go with no database driver dependencies.
package redshift

import (
	"github.com/fastpath-labs/mfsql/pkg/dialect"
	"github.com/fastpath-labs/mfsql/pkg/render"
)

// Config is the Redshift rendering configuration.
var Config = render.Config{
	Dialect:       dialect.Redshift,
	IdentQuote:    `"`,
	IdentQuoteEnd: `"`,
	IdentEscape:   `""`,
	TimestampType: "TIMESTAMP",
	FloatType:     "DOUBLE PRECISION",
}

// NewPlanRenderer creates the renderer bound to the Redshift dialect.
func NewPlanRenderer() *render.PlanRenderer {
	return render.New(Config)
}
