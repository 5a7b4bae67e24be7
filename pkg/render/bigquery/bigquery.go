// Package bigquery provides the BigQuery plan renderer.
// This package is pure Go with no database driver dependencies.
package bigquery

import (
	"github.com/fastpath-labs/mfsql/pkg/dialect"
	"github.com/fastpath-labs/mfsql/pkg/render"
)

// Config is the BigQuery rendering configuration. BigQuery quotes
// identifiers with backticks and has no plain TIMESTAMP-without-zone type,
// so wall-clock literals cast to DATETIME instead.
var Config = render.Config{
	Dialect:       dialect.BigQuery,
	IdentQuote:    "`",
	IdentQuoteEnd: "`",
	IdentEscape:   "\\`",
	TimestampType: "DATETIME",
	FloatType:     "FLOAT64",
}

// NewPlanRenderer creates the renderer bound to the BigQuery dialect.
func NewPlanRenderer() *render.PlanRenderer {
	return render.New(Config)
}
