package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves the test into dir and restores the working directory afterwards.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultSourceFile, cfg.Source.Path)
	assert.Equal(t, "2022-04-01", cfg.Dates.Min)
	assert.Equal(t, "2022-04-30", cfg.Dates.Max)
	assert.Equal(t, "test_database.sqlite", cfg.Storage.Target)
	assert.Equal(t, "test_data", cfg.Storage.Table)
	assert.Equal(t, "replace", cfg.Storage.IfExists)
	assert.Equal(t, "first", cfg.Reshape.GroupPolicy)
	assert.Equal(t, []string{"fact", "forecast"}, cfg.Reshape.Metrics)
	assert.True(t, cfg.Export.PrintConsole)
	assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	writeFile(t, filepath.Join(dir, "configs", DefaultConfigFile), `
source:
  path: exports/april.xlsx
  sheet: Data
storage:
  table: from_yaml
  if_exists: append
reshape:
  metrics: [revenue]
  resource_types: [gas, oil]
`)
	writeFile(t, filepath.Join(dir, ".env"), "SHEETETL_STORAGE_TABLE=from_dotenv\nSHEETETL_DATES_SEED=7\n")
	t.Setenv("SHEETETL_STORAGE_TABLE", "from_env")
	t.Setenv("SHEETETL_LOGGING_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	t.Cleanup(func() { os.Unsetenv("SHEETETL_DATES_SEED") })

	assert.Equal(t, "exports/april.xlsx", cfg.Source.Path)
	assert.Equal(t, "Data", cfg.Source.Sheet)
	assert.Equal(t, "append", cfg.Storage.IfExists)
	// Untouched defaults survive the YAML overlay.
	assert.Equal(t, "test_database.sqlite", cfg.Storage.Target)
	assert.Equal(t, []string{"revenue"}, cfg.Reshape.Metrics)
	assert.Equal(t, []string{"gas", "oil"}, cfg.Reshape.ResourceTypes)

	assert.Equal(t, "from_env", cfg.Storage.Table)
	assert.Equal(t, uint64(7), cfg.Dates.Seed)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadExplicitFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "dates:\n  min: \"2023-01-01\"\n  max: \"2023-01-31\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "2023-01-01", cfg.Dates.Min)
	assert.Equal(t, "2023-01-31", cfg.Dates.Max)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	writeFile(t, path, "dates: [not, a, map]\n")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad if-exists", func(c *Config) { c.Storage.IfExists = "upsert" }, "Storage.IfExists"},
		{"bad group policy", func(c *Config) { c.Reshape.GroupPolicy = "mean" }, "Reshape.GroupPolicy"},
		{"bad date format", func(c *Config) { c.Dates.Min = "04/01/2022" }, "Dates.Min"},
		{"inverted range", func(c *Config) { c.Dates.Min, c.Dates.Max = "2022-04-30", "2022-04-01" }, "after max date"},
		{"empty source", func(c *Config) { c.Source.Path = "" }, "Source.Path"},
		{"no metrics", func(c *Config) { c.Reshape.Metrics = nil }, "Reshape.Metrics"},
		{"file logging without path", func(c *Config) {
			c.Logging.Output = "file"
			c.Logging.FilePath = ""
		}, "Logging.FilePath"},
		{"unknown trace exporter", func(c *Config) { c.Telemetry.TraceExporter = "jaeger" }, "Telemetry.TraceExporter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReportsEveryField(t *testing.T) {
	cfg := Default()
	cfg.Storage.IfExists = "upsert"
	cfg.Logging.Level = "trace"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Storage.IfExists")
	assert.Contains(t, err.Error(), "Logging.Level")
}
