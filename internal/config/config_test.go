package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/crimson-sun/murmur/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvConfigPath, "MURMUR_SOURCE", "MURMUR_SOURCE_PATH", "MURMUR_COUNT",
		"MURMUR_DATASET", "MURMUR_FAMILY", "MURMUR_SEED", "MURMUR_EPS",
		"MURMUR_MIN_POINTS", "MURMUR_K", "MURMUR_EXPLAIN", "MURMUR_DEDUP_WINDOW",
		"MURMUR_OUTPUT", "MURMUR_OUTPUT_PRETTY", "MURMUR_VERBOSITY", "MURMUR_UNCERTAINTY",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "murmur.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Source.Provider)
	assert.Equal(t, 50, cfg.Source.Count)
	assert.Equal(t, "tree_ensemble", cfg.Engine.Family)
	assert.Equal(t, int64(42), cfg.Engine.Seed)
	assert.Equal(t, 0.5, cfg.Engine.Eps)
	assert.Equal(t, 5, cfg.Engine.MinPoints)
	assert.True(t, cfg.Engine.Explain)
	assert.False(t, cfg.Engine.Uncertainty.Enabled)
	assert.Equal(t, "stdout", cfg.Output.Format)
	assert.False(t, cfg.Output.Pretty)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, `
source:
  provider: static
  count: 20
engine:
  family: linear
  eps: 1.5
  min_points: 3
  dedup_window: 30s
  uncertainty:
    enabled: true
    kernel: matern32
    length_scale: 2
    variance: 1
output:
  verbosity: full
`)
	t.Setenv(EnvConfigPath, path)
	t.Setenv("MURMUR_FAMILY", "naive_bayes")
	t.Setenv("MURMUR_COUNT", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "static", cfg.Source.Provider)
	assert.Equal(t, 7, cfg.Source.Count, "env overrides file")
	assert.Equal(t, "naive_bayes", cfg.Engine.Family, "env overrides file")
	assert.Equal(t, 1.5, cfg.Engine.Eps)
	assert.Equal(t, 3, cfg.Engine.MinPoints)
	assert.Equal(t, 30*time.Second, cfg.Engine.DedupWindow)
	assert.True(t, cfg.Engine.Uncertainty.Enabled)
	assert.Equal(t, "matern32", cfg.Engine.Uncertainty.Kernel)
	assert.Equal(t, "full", cfg.Output.Verbosity)
	assert.Equal(t, 1000, cfg.Engine.MaxFeatures, "unset keys keep defaults")
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("MURMUR_EPS", "not-a-number")
	t.Setenv("MURMUR_EXPLAIN", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Engine.Eps)
	assert.True(t, cfg.Engine.Explain)
}

func TestLoad_RejectsNegativeEps(t *testing.T) {
	clearEnv(t)
	t.Setenv("MURMUR_EPS", "-0.5")

	_, err := Load()
	var cfgErr *model.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "engine.eps", cfgErr.Field)
}

func TestLoad_SourceExtra(t *testing.T) {
	clearEnv(t)
	t.Setenv("MURMUR_SOURCE_PATH", "/tmp/posts.jsonl")
	t.Setenv("MURMUR_SOURCE_FORMAT", "jsonl")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/posts.jsonl", cfg.Source.Path)
	assert.Equal(t, "jsonl", cfg.Source.Extra["format"])
	assert.NotContains(t, cfg.Source.Extra, "path")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown family", func(c *Config) { c.Engine.Family = "svm" }, "engine.family"},
		{"zero min points", func(c *Config) { c.Engine.MinPoints = 0 }, "engine.min_points"},
		{"zero k", func(c *Config) { c.Engine.K = 0 }, "engine.k"},
		{"bad linkage", func(c *Config) { c.Engine.Linkage = "ward" }, "engine.linkage"},
		{"bad metric", func(c *Config) { c.Engine.Metric = "hamming" }, "engine.metric"},
		{"bad norm", func(c *Config) { c.Engine.Norm = "l1" }, "engine.norm"},
		{"test fraction one", func(c *Config) { c.Engine.TestFraction = 1 }, "engine.test_fraction"},
		{"bad provider", func(c *Config) { c.Source.Provider = "twitter" }, "source.provider"},
		{"bad output", func(c *Config) { c.Output.Format = "email" }, "output.format"},
		{"bad verbosity", func(c *Config) { c.Output.Verbosity = "loud" }, "output.verbosity"},
		{"bad kernel", func(c *Config) {
			c.Engine.Uncertainty.Enabled = true
			c.Engine.Uncertainty.Kernel = "periodic"
		}, "engine.uncertainty.kernel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			var cfgErr *model.ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Engine.Eps = 0
	cfg.Engine.K = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine.eps")
	assert.Contains(t, err.Error(), "engine.k")
}

func TestClassifierOptions(t *testing.T) {
	cfg := Default()
	cfg.Engine.Seed = 9
	cfg.Engine.Classifier.Trees = 12
	opts := cfg.Engine.ClassifierOptions()
	assert.Equal(t, int64(9), opts.Seed)
	assert.Equal(t, 12, opts.Trees)
}
