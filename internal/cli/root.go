// Package cli provides the command-line interface for mfsql.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fastpath-labs/mfsql/internal/cli/config"
	"github.com/fastpath-labs/mfsql/internal/engine"
	"github.com/fastpath-labs/mfsql/internal/query"
	"github.com/fastpath-labs/mfsql/pkg/manifest"
	"github.com/fastpath-labs/mfsql/pkg/sqlclient"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mfsql",
		Short: "mfsql - Semantic Layer SQL Compiler",
		Long: `mfsql compiles metric queries against a semantic manifest into SQL.

It reads a semantic manifest (JSON, from a file or stdin), resolves the
requested metrics and group-bys into a dataflow plan, and prints the SQL
a warehouse would run. No database connection is made.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().Flags())
			if err != nil {
				return err
			}

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExplain(cmd, cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Semantic-layer SQL compiler
`)

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default: ./mfsql.yaml)")
	rootCmd.Flags().String("semantic-manifest", "", "Semantic manifest JSON file, or '-' to read from stdin")
	rootCmd.Flags().String("dialect", "", "SQL dialect to render (bigquery|postgres|redshift|snowflake)")
	rootCmd.Flags().String("metrics", "", "Comma-separated metric names to query")
	rootCmd.Flags().String("group-by", "", "Comma-separated dimension or entity names to group by")
	rootCmd.Flags().String("where", "", "SQL filter applied before aggregation")
	rootCmd.Flags().String("start-time", "", "Inclusive lower bound for the time constraint")
	rootCmd.Flags().String("end-time", "", "Inclusive upper bound for the time constraint")
	rootCmd.Flags().String("order", "", "Comma-separated sort keys; prefix with '-' for descending")
	rootCmd.Flags().Int("limit", -1, "Maximum number of result rows")
	rootCmd.Flags().Bool("show-dataflow-plan", false, "Print the dataflow plan above the SQL as comments")
	rootCmd.Flags().Bool("show-sql-descriptions", false, "Annotate the SQL with per-layer descriptions")
	rootCmd.Flags().BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("dialect", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"bigquery", "postgres", "redshift", "snowflake"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// runExplain executes the full explain pipeline: load manifest, resolve
// the query, and print the plan and SQL between start/end markers.
func runExplain(cmd *cobra.Command, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	start := time.Now()
	out := cmd.OutOrStdout()
	logger := config.NewLogger(cfg.Verbose)

	fmt.Fprintln(out, "mfsql: query start")

	man, err := manifest.LoadFromSource(cfg.SemanticManifest, cmd.InOrStdin(), manifest.ParseOptions{
		TransformLogger: logger,
	})
	if err != nil {
		return err
	}

	client, err := sqlclient.FromDialectName(cfg.Dialect)
	if err != nil {
		return err
	}

	lookup, err := manifest.NewLookup(man)
	if err != nil {
		return err
	}

	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}

	eng := engine.New(lookup, client, logger)
	result, err := eng.Explain(cmd.Context(), req)
	if err != nil {
		return err
	}

	if cfg.ShowDataflowPlan {
		fmt.Fprint(out, formatPlanBlock(result.DataflowPlan.StructureText()))
		fmt.Fprintln(out)
	}

	sql := result.SQLStatement.WithoutDescriptions
	if cfg.ShowSQLDescriptions {
		sql = result.SQLStatement.SQL
	}
	fmt.Fprintln(out, sql)

	fmt.Fprintf(out, "mfsql: query end (%.2fs)\n", time.Since(start).Seconds())
	return nil
}

// buildRequest normalizes the raw config strings into a query request.
func buildRequest(cfg *config.Config) (*query.Request, error) {
	req := query.NewRequest()
	req.MetricNames = query.ParseCSV(&cfg.Metrics)
	req.GroupByNames = query.ParseCSV(&cfg.GroupBy)
	req.OrderByNames = query.ParseCSV(&cfg.Order)
	req.WhereConstraints = query.WhereFilters(cfg.Where)

	var err error
	req.TimeConstraintStart, err = query.ParseOptionalTime(optional(cfg.StartTime))
	if err != nil {
		return nil, fmt.Errorf("invalid --start-time: %w", err)
	}
	req.TimeConstraintEnd, err = query.ParseOptionalTime(optional(cfg.EndTime))
	if err != nil {
		return nil, fmt.Errorf("invalid --end-time: %w", err)
	}

	if cfg.HasLimit() {
		limit := cfg.Limit
		req.Limit = &limit
	}
	return req, nil
}

// optional maps the empty string, meaning "not provided", to nil.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// formatPlanBlock renders the dataflow plan as a SQL comment block: a
// label line, then the plan indented four spaces, every line prefixed
// with "-- " so the whole output stays pasteable SQL.
func formatPlanBlock(planText string) string {
	var b strings.Builder
	b.WriteString("-- Metric Dataflow Plan:\n")
	for _, line := range strings.Split(strings.TrimRight(planText, "\n"), "\n") {
		b.WriteString(strings.TrimRight("--     "+line, " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
