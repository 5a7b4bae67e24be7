package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Dialect
	}{
		{"bigquery", "bigquery", BigQuery},
		{"bigquery underscore alias", "big_query", BigQuery},
		{"postgres", "postgres", Postgres},
		{"postgresql alias", "postgresql", Postgres},
		{"redshift", "redshift", Redshift},
		{"snowflake", "snowflake", Snowflake},
		{"uppercase", "SNOWFLAKE", Snowflake},
		{"mixed case", "PostgreSQL", Postgres},
		{"surrounding whitespace", "  redshift  ", Redshift},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Unknown(t *testing.T) {
	_, err := Parse("mysql")
	require.Error(t, err)

	// The error is a usability contract: it must name the offending value
	// and list every accepted alias in sorted order.
	assert.Contains(t, err.Error(), `"mysql"`)
	assert.Contains(t, err.Error(), "big_query, bigquery, postgres, postgresql, redshift, snowflake")
}

func TestParse_Empty(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)

	_, err = Parse("   ")
	assert.Error(t, err)
}

func TestAliases_Sorted(t *testing.T) {
	got := Aliases()
	assert.Equal(t, []string{"big_query", "bigquery", "postgres", "postgresql", "redshift", "snowflake"}, got)
}
