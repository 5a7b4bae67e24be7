package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet() *pflag.FlagSet {
	f := pflag.NewFlagSet("mfsql", pflag.ContinueOnError)
	f.String("semantic-manifest", "", "")
	f.String("dialect", "", "")
	f.String("metrics", "", "")
	f.String("group-by", "", "")
	f.String("where", "", "")
	f.Int("limit", -1, "")
	f.Bool("show-dataflow-plan", false, "")
	return f
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", newFlagSet())
	require.NoError(t, err)

	assert.Equal(t, "", cfg.SemanticManifest)
	assert.Equal(t, "", cfg.Metrics)
	assert.Equal(t, -1, cfg.Limit)
	assert.False(t, cfg.HasLimit())
	assert.False(t, cfg.ShowDataflowPlan)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mfsql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"dialect: postgres\nmetrics: revenue\nlimit: 5\n"), 0o644))

	cfg, err := Load(path, newFlagSet())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, "revenue", cfg.Metrics)
	assert.Equal(t, 5, cfg.Limit)
	assert.True(t, cfg.HasLimit())
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mfsql.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dialect: postgres\n"), 0o644))

	t.Setenv("MFSQL_DIALECT", "snowflake")
	t.Setenv("MFSQL_GROUP_BY", "ds")

	cfg, err := Load(path, newFlagSet())
	require.NoError(t, err)

	assert.Equal(t, "snowflake", cfg.Dialect)
	assert.Equal(t, "ds", cfg.GroupBy)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("MFSQL_DIALECT", "snowflake")

	f := newFlagSet()
	require.NoError(t, f.Parse([]string{"--dialect", "bigquery", "--limit", "10"}))

	cfg, err := Load("", f)
	require.NoError(t, err)

	assert.Equal(t, "bigquery", cfg.Dialect)
	assert.Equal(t, 10, cfg.Limit)
}

func TestLoad_UnchangedFlagsDoNotOverride(t *testing.T) {
	t.Setenv("MFSQL_METRICS", "revenue")

	// Flag defaults exist but were not set on the command line.
	cfg, err := Load("", newFlagSet())
	require.NoError(t, err)

	assert.Equal(t, "revenue", cfg.Metrics)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing manifest",
			cfg:     Config{Dialect: "postgres"},
			wantErr: "--semantic-manifest is required",
		},
		{
			name:    "missing dialect",
			cfg:     Config{SemanticManifest: "manifest.json"},
			wantErr: "--dialect is required",
		},
		{
			name: "complete",
			cfg:  Config{SemanticManifest: "-", Dialect: "postgres"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	assert.NotNil(t, NewLogger(false))
	assert.NotNil(t, NewLogger(true))
}
