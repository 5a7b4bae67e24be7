// Package config loads mfsql configuration. Precedence (highest to
// lowest): flags > environment variables > config file > defaults, the
// same layering for every key so required values may come from any layer.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix is the prefix for environment variable overrides,
// e.g. MFSQL_DIALECT=postgres.
const envPrefix = "MFSQL_"

// noLimit is the default for limit, meaning "no row cap requested".
const noLimit = -1

// configFileUsed records the config file read by the last Load, if any.
var configFileUsed string

// Config holds all CLI configuration options. Empty strings mean the
// option was not provided anywhere; Limit uses -1 for that.
type Config struct {
	SemanticManifest    string `koanf:"semantic_manifest"`
	Dialect             string `koanf:"dialect"`
	Metrics             string `koanf:"metrics"`
	GroupBy             string `koanf:"group_by"`
	Where               string `koanf:"where"`
	StartTime           string `koanf:"start_time"`
	EndTime             string `koanf:"end_time"`
	Order               string `koanf:"order"`
	Limit               int    `koanf:"limit"`
	ShowDataflowPlan    bool   `koanf:"show_dataflow_plan"`
	ShowSQLDescriptions bool   `koanf:"show_sql_descriptions"`
	Verbose             bool   `koanf:"verbose"`
}

// HasLimit reports whether a row cap was requested.
func (c *Config) HasLimit() bool {
	return c.Limit != noLimit
}

// Validate checks that the values every run needs are present.
func (c *Config) Validate() error {
	if c.SemanticManifest == "" {
		return fmt.Errorf("--semantic-manifest is required (a file path, or '-' for stdin)")
	}
	if c.Dialect == "" {
		return fmt.Errorf("--dialect is required")
	}
	return nil
}

// findConfigFile finds the config file to use.
// Priority: explicit path > mfsql.yaml > mfsql.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"mfsql.yaml", "mfsql.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load merges defaults, the config file, MFSQL_* environment variables,
// and explicitly set flags into a Config.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"metrics":  "",
		"group_by": "",
		"order":    "",
		"limit":    noLimit,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// MFSQL_GROUP_BY -> group_by
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set.
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// NewLogger builds the CLI's diagnostic logger. Quiet runs discard
// everything; verbose runs log at debug to stderr so stdout stays valid
// SQL-with-markers output.
func NewLogger(verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
