// Package snowflake provides the Snowflake plan renderer.
// This package is pure Go with no database driver dependencies.
package snowflake

import (
	"github.com/fastpath-labs/mfsql/pkg/dialect"
	"github.com/fastpath-labs/mfsql/pkg/render"
)

// Config is the Snowflake rendering configuration.
var Config = render.Config{
	Dialect:       dialect.Snowflake,
	IdentQuote:    `"`,
	IdentQuoteEnd: `"`,
	IdentEscape:   `""`,
	TimestampType: "TIMESTAMP",
	FloatType:     "DOUBLE",
}

// NewPlanRenderer creates the renderer bound to the Snowflake dialect.
func NewPlanRenderer() *render.PlanRenderer {
	return render.New(Config)
}
