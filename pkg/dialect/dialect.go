// Package dialect defines the closed set of SQL dialects that mfsql can
// render plans for. This package is pure Go with no database driver
// dependencies; a dialect here is an identity, not a connection.
package dialect

import (
	"fmt"
	"sort"
	"strings"
)

// Dialect identifies a SQL syntax variant.
type Dialect string

// Supported dialects. Exactly one plan renderer binds to each.
const (
	BigQuery  Dialect = "bigquery"
	Postgres  Dialect = "postgres"
	Redshift  Dialect = "redshift"
	Snowflake Dialect = "snowflake"
)

// aliases maps every accepted dialect name to its Dialect. The map is
// closed: new entries are added here and nowhere else.
var aliases = map[string]Dialect{
	"bigquery":   BigQuery,
	"big_query":  BigQuery,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"redshift":   Redshift,
	"snowflake":  Snowflake,
}

// Parse resolves a free-text dialect name to a Dialect. Matching is
// case-insensitive and ignores surrounding whitespace. Unknown names yield
// an error that enumerates every accepted alias, sorted, so the caller can
// surface it directly to the user.
func Parse(name string) (Dialect, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	d, ok := aliases[normalized]
	if !ok {
		return "", fmt.Errorf("unsupported dialect %q; expected one of: %s", name, strings.Join(Aliases(), ", "))
	}
	return d, nil
}

// Aliases returns all accepted dialect names, sorted.
func Aliases() []string {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String returns the canonical dialect name.
func (d Dialect) String() string {
	return string(d)
}
