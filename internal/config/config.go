package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/crimson-sun/murmur/internal/engine/classifier"
	"github.com/crimson-sun/murmur/internal/engine/cluster"
	"github.com/crimson-sun/murmur/internal/engine/compactor"
	"github.com/crimson-sun/murmur/internal/engine/gp"
	"github.com/crimson-sun/murmur/internal/model"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the YAML config path.
const EnvConfigPath = "MURMUR_CONFIG"

// Config holds all murmur configuration.
type Config struct {
	Source   SourceConfig  `yaml:"source"`
	Dataset  DatasetConfig `yaml:"dataset"`
	Engine   EngineConfig  `yaml:"engine"`
	Output   OutputConfig  `yaml:"output"`
	Server   ServerConfig  `yaml:"server"`
	LogLevel string        `yaml:"log_level"`
}

// SourceConfig selects the text source collaborator.
type SourceConfig struct {
	Provider string            `yaml:"provider"`
	Path     string            `yaml:"path"`  // file provider input
	Count    int               `yaml:"count"` // documents per request
	Extra    map[string]string `yaml:"extra"`
}

// DatasetConfig points at the labeled training data. An empty path uses the
// embedded seed corpus.
type DatasetConfig struct {
	Path string `yaml:"path"`
}

// EngineConfig holds analysis engine settings.
type EngineConfig struct {
	Family       string        `yaml:"family"` // "tree_ensemble", "linear", "naive_bayes"
	Seed         int64         `yaml:"seed"`
	MaxFeatures  int           `yaml:"max_features"`
	Norm         string        `yaml:"norm"` // "none", "l2"
	TestFraction float64       `yaml:"test_fraction"`
	DedupWindow  time.Duration `yaml:"dedup_window"`

	Explain          bool `yaml:"explain"`
	TopContributions int  `yaml:"top_contributions"`

	Eps       float64 `yaml:"eps"`
	MinPoints int     `yaml:"min_points"`
	K         int     `yaml:"k"`
	Linkage   string  `yaml:"linkage"` // "single", "complete", "average"
	Metric    string  `yaml:"metric"`  // "euclidean", "manhattan", "cosine"

	Classifier  ClassifierConfig  `yaml:"classifier"`
	Uncertainty UncertaintyConfig `yaml:"uncertainty"`
}

// ClassifierConfig holds model hyperparameters. Zero values take the
// classifier defaults.
type ClassifierConfig struct {
	LearningRate float64 `yaml:"learning_rate"`
	Epochs       int     `yaml:"epochs"`
	UpdateEpochs int     `yaml:"update_epochs"`
	L2           float64 `yaml:"l2"`
	Trees        int     `yaml:"trees"`
	MaxDepth     int     `yaml:"max_depth"`
	MinLeaf      int     `yaml:"min_leaf"`
	Workers      int     `yaml:"workers"`
	Alpha        float64 `yaml:"alpha"`
}

// UncertaintyConfig controls the Gaussian-process estimator.
type UncertaintyConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Kernel      string  `yaml:"kernel"` // "rbf", "linear", "matern32"
	LengthScale float64 `yaml:"length_scale"`
	Variance    float64 `yaml:"variance"`
	Sigma0      float64 `yaml:"sigma0"`
	Noise       float64 `yaml:"noise"`
}

// OutputConfig holds output destination settings.
type OutputConfig struct {
	Format    string `yaml:"format"` // "stdout", "file", "both"
	Pretty    bool   `yaml:"pretty"`
	Verbosity string `yaml:"verbosity"` // "minimal", "standard", "full"
	FilePath  string `yaml:"file_path"`
	FileMaxMB int    `yaml:"file_max_mb"` // rotate above this size, 0 disables
	Notify    bool   `yaml:"notify"`      // print the label summary to stderr
}

// ServerConfig holds HTTP settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the configuration used when nothing is supplied.
func Default() Config {
	opts := classifier.DefaultOptions()
	return Config{
		Source: SourceConfig{Provider: "file", Count: 50},
		Engine: EngineConfig{
			Family:           "tree_ensemble",
			Seed:             opts.Seed,
			MaxFeatures:      1000,
			Norm:             "none",
			TestFraction:     0.2,
			Explain:          true,
			TopContributions: 10,
			Eps:              0.5,
			MinPoints:        5,
			K:                3,
			Linkage:          "average",
			Metric:           "euclidean",
			Classifier: ClassifierConfig{
				LearningRate: opts.LearningRate,
				Epochs:       opts.Epochs,
				UpdateEpochs: opts.UpdateEpochs,
				L2:           opts.L2,
				Trees:        opts.Trees,
				MinLeaf:      opts.MinLeaf,
				Alpha:        opts.Alpha,
			},
			Uncertainty: UncertaintyConfig{
				Kernel:      "rbf",
				LengthScale: 1,
				Variance:    1,
				Noise:       0.1,
			},
		},
		Output: OutputConfig{
			Format:    "stdout",
			Verbosity: "standard",
			FilePath:  "murmur.ndjson",
		},
		Server:   ServerConfig{Addr: ":8080"},
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by MURMUR_CONFIG, and MURMUR_* environment variables, in that order, then
// validates it.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv(EnvConfigPath); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile reads a YAML file over the defaults and validates the result.
// Environment variables are not consulted.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Source.Provider = getenv("MURMUR_SOURCE", c.Source.Provider)
	c.Source.Path = getenv("MURMUR_SOURCE_PATH", c.Source.Path)
	c.Source.Count = getenvInt("MURMUR_COUNT", c.Source.Count)
	c.Source.Extra = loadSourceExtra(c.Source.Extra)

	c.Dataset.Path = getenv("MURMUR_DATASET", c.Dataset.Path)

	e := &c.Engine
	e.Family = getenv("MURMUR_FAMILY", e.Family)
	e.Seed = int64(getenvInt("MURMUR_SEED", int(e.Seed)))
	e.MaxFeatures = getenvInt("MURMUR_MAX_FEATURES", e.MaxFeatures)
	e.Norm = getenv("MURMUR_NORM", e.Norm)
	e.TestFraction = getenvFloat("MURMUR_TEST_FRACTION", e.TestFraction)
	e.DedupWindow = getenvDuration("MURMUR_DEDUP_WINDOW", e.DedupWindow)
	e.Explain = getenvBool("MURMUR_EXPLAIN", e.Explain)
	e.TopContributions = getenvInt("MURMUR_TOP_CONTRIBUTIONS", e.TopContributions)
	e.Eps = getenvFloat("MURMUR_EPS", e.Eps)
	e.MinPoints = getenvInt("MURMUR_MIN_POINTS", e.MinPoints)
	e.K = getenvInt("MURMUR_K", e.K)
	e.Linkage = getenv("MURMUR_LINKAGE", e.Linkage)
	e.Metric = getenv("MURMUR_METRIC", e.Metric)
	e.Classifier.Trees = getenvInt("MURMUR_TREES", e.Classifier.Trees)
	e.Uncertainty.Enabled = getenvBool("MURMUR_UNCERTAINTY", e.Uncertainty.Enabled)
	e.Uncertainty.Kernel = getenv("MURMUR_GP_KERNEL", e.Uncertainty.Kernel)
	e.Uncertainty.Noise = getenvFloat("MURMUR_GP_NOISE", e.Uncertainty.Noise)

	c.Output.Format = getenv("MURMUR_OUTPUT", c.Output.Format)
	c.Output.Pretty = getenvBool("MURMUR_OUTPUT_PRETTY", c.Output.Pretty)
	c.Output.Verbosity = getenv("MURMUR_VERBOSITY", c.Output.Verbosity)
	c.Output.FilePath = getenv("MURMUR_OUTPUT_FILE", c.Output.FilePath)
	c.Output.Notify = getenvBool("MURMUR_NOTIFY", c.Output.Notify)

	c.Server.Addr = getenv("MURMUR_ADDR", c.Server.Addr)
	c.LogLevel = getenv("MURMUR_LOG_LEVEL", c.LogLevel)
}

// Validate reports every invalid setting as a *model.ConfigError, joined.
func (c Config) Validate() error {
	var errs []error
	bad := func(field, reason string) {
		errs = append(errs, &model.ConfigError{Field: field, Reason: reason})
	}

	switch c.Source.Provider {
	case "file", "static":
	default:
		bad("source.provider", fmt.Sprintf("unknown provider %q", c.Source.Provider))
	}
	if c.Source.Count < 1 {
		bad("source.count", "must be at least 1")
	}

	e := c.Engine
	if _, err := classifier.ParseFamily(e.Family); err != nil {
		bad("engine.family", err.Error())
	}
	if e.MaxFeatures < 1 {
		bad("engine.max_features", "must be at least 1")
	}
	switch e.Norm {
	case "", "none", "l2":
	default:
		bad("engine.norm", fmt.Sprintf("unknown norm %q", e.Norm))
	}
	if e.TestFraction < 0 || e.TestFraction >= 1 || math.IsNaN(e.TestFraction) {
		bad("engine.test_fraction", "must be in [0, 1)")
	}
	if e.DedupWindow < 0 {
		bad("engine.dedup_window", "must not be negative")
	}
	if e.TopContributions < 0 {
		bad("engine.top_contributions", "must not be negative")
	}
	if math.IsNaN(e.Eps) || math.IsInf(e.Eps, 0) || e.Eps <= 0 {
		bad("engine.eps", "must be a positive finite number")
	}
	if e.MinPoints < 1 {
		bad("engine.min_points", "must be at least 1")
	}
	if e.K < 1 {
		bad("engine.k", "must be at least 1")
	}
	if _, err := cluster.ParseLinkage(e.Linkage); err != nil {
		bad("engine.linkage", err.Error())
	}
	if _, err := cluster.ParseMetric(e.Metric); err != nil {
		bad("engine.metric", err.Error())
	}
	if e.Classifier.MaxDepth < 0 {
		bad("engine.classifier.max_depth", "must not be negative")
	}
	if e.Uncertainty.Enabled {
		u := e.Uncertainty
		if _, err := gp.NewKernel(u.Kernel, u.LengthScale, u.Variance, u.Sigma0); err != nil {
			bad("engine.uncertainty.kernel", err.Error())
		}
		if u.Noise < 0 {
			bad("engine.uncertainty.noise", "must not be negative")
		}
	}

	switch c.Output.Format {
	case "stdout", "file", "both":
	default:
		bad("output.format", fmt.Sprintf("unknown format %q", c.Output.Format))
	}
	if _, err := compactor.ParseVerbosity(c.Output.Verbosity); err != nil {
		bad("output.verbosity", err.Error())
	}
	if c.Output.Format != "stdout" && c.Output.FilePath == "" {
		bad("output.file_path", "required for file output")
	}
	if c.Output.FileMaxMB < 0 {
		bad("output.file_max_mb", "must not be negative")
	}

	return errors.Join(errs...)
}

// ClassifierOptions converts the engine settings to classifier options.
func (e EngineConfig) ClassifierOptions() classifier.Options {
	c := e.Classifier
	return classifier.Options{
		Seed:         e.Seed,
		LearningRate: c.LearningRate,
		Epochs:       c.Epochs,
		UpdateEpochs: c.UpdateEpochs,
		L2:           c.L2,
		Trees:        c.Trees,
		MaxDepth:     c.MaxDepth,
		MinLeaf:      c.MinLeaf,
		Workers:      c.Workers,
		Alpha:        c.Alpha,
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadSourceExtra merges MURMUR_SOURCE_<KEY> variables into extra, keyed by
// the lowercased suffix. Path and count have dedicated fields.
func loadSourceExtra(extra map[string]string) map[string]string {
	const prefix = "MURMUR_SOURCE_"
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, prefix) || v == "" {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(k, prefix))
		if key == "path" {
			continue
		}
		if extra == nil {
			extra = make(map[string]string)
		}
		extra[key] = v
	}
	return extra
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
