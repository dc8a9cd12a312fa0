package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir(), nil)
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Workers)
	assert.Equal(t, ".", cfg.Input)
	assert.Equal(t, "lineage", cfg.Output)
	assert.Equal(t, BackendMemory, cfg.Index.Backend)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
workers: 4
input: snapshot
index:
  backend: sqlite
  path: /tmp/index.db
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))

	cfg, err := Load(dir, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "snapshot", cfg.Input)
	assert.Equal(t, BackendSQLite, cfg.Index.Backend)
	assert.Equal(t, "/tmp/index.db", cfg.Index.Path)
	assert.Equal(t, "lineage", cfg.Output, "unset keys keep defaults")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("workers: 4\n"), 0o644))
	t.Setenv("CALCLINEAGE_WORKERS", "8")
	t.Setenv("CALCLINEAGE_INDEX__BACKEND", "sqlite")

	cfg, err := Load(dir, nil)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, BackendSQLite, cfg.Index.Backend)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("CALCLINEAGE_WORKERS", "8")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("workers", 0, "")
	flags.String("index-backend", "memory", "")
	require.NoError(t, flags.Parse([]string{"--workers=2", "--index-backend=sqlite"}))

	cfg, err := Load(t.TempDir(), flags)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, BackendSQLite, cfg.Index.Backend)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative workers", func(c *Config) { c.Workers = -1 }, "workers"},
		{"unknown backend", func(c *Config) { c.Index.Backend = "redis" }, "backend"},
		{"sqlite without path", func(c *Config) { c.Index.Backend = BackendSQLite; c.Index.Path = "" }, "index.path"},
		{"unknown log level", func(c *Config) { c.LogLevel = "trace" }, "log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Input:    ".",
				Output:   "lineage",
				Index:    IndexConfig{Backend: BackendMemory, Path: "x"},
				LogLevel: "info",
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFlagKey(t *testing.T) {
	assert.Equal(t, "workers", flagKey("workers"))
	assert.Equal(t, "index.backend", flagKey("index-backend"))
	assert.Equal(t, "index.path", flagKey("index-path"))
	assert.Equal(t, "log_level", flagKey("log-level"))
}
