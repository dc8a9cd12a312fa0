// Package config loads runtime settings from defaults, an optional YAML
// file, environment variables, and command-line flags, in that precedence
// order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "calclineage.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "calclineage.yml"

// EnvPrefix is the prefix for environment variable overrides, e.g.
// CALCLINEAGE_INDEX_BACKEND=sqlite.
const EnvPrefix = "CALCLINEAGE_"

// IndexBackend selects the membership index storage.
type IndexBackend string

const (
	// BackendMemory keeps membership sets in process memory.
	BackendMemory IndexBackend = "memory"
	// BackendSQLite spills membership sets to a SQLite file for
	// snapshots too large to hold in memory.
	BackendSQLite IndexBackend = "sqlite"
)

// IndexConfig configures the catalog membership index.
type IndexConfig struct {
	Backend IndexBackend `koanf:"backend"`
	// Path is the SQLite database file; ignored for the memory backend.
	Path string `koanf:"path"`
}

// Config holds all runtime settings.
type Config struct {
	// Workers bounds concurrent view resolution; 0 means NumCPU.
	Workers int `koanf:"workers"`
	// Input is the directory holding snapshot JSONL files.
	Input string `koanf:"input"`
	// Output is the directory lineage records are written to.
	Output string      `koanf:"output"`
	Index  IndexConfig `koanf:"index"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
}

func defaults() map[string]any {
	return map[string]any{
		"workers":       0,
		"input":         ".",
		"output":        "lineage",
		"index.backend": string(BackendMemory),
		"index.path":    "calclineage-index.db",
		"log_level":     "info",
	}
}

// Load builds the effective configuration. Flags override environment
// variables, which override the config file, which overrides defaults.
// A missing config file is not an error.
func Load(dir string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(dir); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		flagProvider := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			return flagKey(key), value
		})
		if err := k.Load(flagProvider, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// flagKey maps a flag name to its config key. Flags under a config
// section use the section name as a dash-separated prefix; remaining
// dashes are word separators within a key.
func flagKey(name string) string {
	if rest, ok := strings.CutPrefix(name, "index-"); ok {
		return "index." + strings.ReplaceAll(rest, "-", "_")
	}
	return strings.ReplaceAll(name, "-", "_")
}

// Validate checks field values; called by Load.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	switch c.Index.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Index.Path == "" {
			return fmt.Errorf("index.path is required with the sqlite backend")
		}
	default:
		return fmt.Errorf("unknown index backend %q", c.Index.Backend)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

// findConfigFile finds the config file in the given directory.
// Returns empty string if not found.
func findConfigFile(dir string) string {
	yamlPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}

	ymlPath := filepath.Join(dir, ConfigFileNameAlt)
	if _, err := os.Stat(ymlPath); err == nil {
		return ymlPath
	}

	return ""
}
