package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/crimson-sun/murmur/internal/config"
	"github.com/crimson-sun/murmur/internal/dataset"
	"github.com/crimson-sun/murmur/internal/engine"
	"github.com/crimson-sun/murmur/internal/engine/compactor"
	"github.com/crimson-sun/murmur/internal/logging"
	"github.com/crimson-sun/murmur/internal/output"
	"github.com/crimson-sun/murmur/internal/output/async"
	"github.com/crimson-sun/murmur/internal/output/file"
	"github.com/crimson-sun/murmur/internal/output/multi"
	"github.com/crimson-sun/murmur/internal/output/notify"
	"github.com/crimson-sun/murmur/internal/output/stdout"
	"github.com/crimson-sun/murmur/internal/pipeline"
	"github.com/crimson-sun/murmur/internal/source"
)

// commonFlags are shared by every command that builds an engine.
type commonFlags struct {
	configPath string
	logJSON    bool
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", "", "YAML config file (overrides "+config.EnvConfigPath+")")
	fs.BoolVar(&f.logJSON, "log-json", false, "emit logs as JSON")
}

// app is the wired set of collaborators behind every command.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	engine   *engine.Engine
	report   engine.TrainReport
	pipeline *pipeline.Pipeline
}

func (f *commonFlags) loadConfig() (config.Config, error) {
	if f.configPath != "" {
		return config.LoadFile(f.configPath)
	}
	return config.Load()
}

// newApp loads config, trains the engine on the configured dataset and
// builds the pipeline. async wraps file output so slow disks do not block
// request handling.
func newApp(f *commonFlags, asyncFile bool) (*app, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.Init(f.logJSON, logging.ParseLevel(cfg.LogLevel))

	eng, err := engine.New(cfg.Engine, engine.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	ds, err := loadDataset(cfg.Dataset, eng)
	if err != nil {
		return nil, err
	}
	report, err := eng.Train(ds.Texts, ds.Labels)
	if err != nil {
		return nil, fmt.Errorf("train: %s: %w", engine.UserMessage(err), err)
	}

	ctor, err := source.Get(cfg.Source.Provider)
	if err != nil {
		return nil, err
	}
	out, err := buildOutput(cfg.Output, asyncFile, logger)
	if err != nil {
		return nil, err
	}

	srcCfg := source.Config{
		Provider: cfg.Source.Provider,
		Path:     cfg.Source.Path,
		Extra:    cfg.Source.Extra,
	}
	opts := []pipeline.Option{
		pipeline.WithCount(cfg.Source.Count),
		pipeline.WithLogger(logger),
	}
	if cfg.Output.Notify {
		opts = append(opts, pipeline.WithNotifier(notify.New(os.Stderr)))
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		engine:   eng,
		report:   report,
		pipeline: pipeline.New(ctor(), srcCfg, eng, out, opts...),
	}, nil
}

func loadDataset(cfg config.DatasetConfig, eng *engine.Engine) (dataset.Dataset, error) {
	if cfg.Path == "" {
		return dataset.Seed(eng.Labels())
	}
	return dataset.Load(cfg.Path, eng.Labels())
}

func buildOutput(cfg config.OutputConfig, asyncFile bool, logger *slog.Logger) (output.Output, error) {
	verbosity, err := compactor.ParseVerbosity(cfg.Verbosity)
	if err != nil {
		return nil, err
	}

	var sinks []multi.Sink
	if cfg.Format == "stdout" || cfg.Format == "both" {
		sinks = append(sinks, multi.Sink{Name: "stdout", Output: stdout.New(verbosity, cfg.Pretty)})
	}
	if cfg.Format == "file" || cfg.Format == "both" {
		var fileOpts []file.Option
		if cfg.FileMaxMB > 0 {
			fileOpts = append(fileOpts, file.WithMaxSize(int64(cfg.FileMaxMB)<<20))
		}
		fo, err := file.New(cfg.FilePath, verbosity, fileOpts...)
		if err != nil {
			return nil, fmt.Errorf("open output file: %w", err)
		}
		var o output.Output = fo
		if asyncFile {
			o = async.New(fo, async.WithLogger(logger), async.WithOnError(func(err error) {
				logger.Error("async output write failed", "path", cfg.FilePath, "error", err)
			}))
		}
		sinks = append(sinks, multi.Sink{Name: "file", Output: o})
	}

	out := multi.New(sinks...)
	logger.Debug("outputs configured", "sinks", out.Names())
	return out, nil
}
