package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "employer-cli.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 3, cfg.Batch.MaxConcurrentPostings)
	assert.Equal(t, 5, cfg.Identify.MaxResultsPerQuery)
	assert.Equal(t, 8, cfg.Identify.SearchKeywordLimit)
	assert.Equal(t, 3, cfg.Identify.VerifyTopN)
	assert.Equal(t, 2.0, cfg.Identify.SearchQPS)
	assert.Contains(t, cfg.Identify.ManufacturingTriggers, "cnc")
	assert.Contains(t, cfg.Identify.PhysicalTerms, "shop floor")
	assert.Equal(t, "sonar-pro", cfg.Perplexity.Model)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
store:
  path: /tmp/runs.db
log:
  level: debug
  format: console
identify:
  verify_top_n: 5
batch:
  max_concurrent_postings: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/runs.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 5, cfg.Identify.VerifyTopN)
	assert.Equal(t, 10, cfg.Batch.MaxConcurrentPostings)
	// Untouched keys keep their defaults.
	assert.Equal(t, 5, cfg.Identify.MaxResultsPerQuery)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("EMPLOYER_LOG_LEVEL", "warn")
	t.Setenv("EMPLOYER_ANTHROPIC_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "sk-test", cfg.Anthropic.Key)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouting", Format: "json"})
	assert.Error(t, err)
}
