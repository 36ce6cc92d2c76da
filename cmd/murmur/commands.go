package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/crimson-sun/murmur/internal/engine"
	"github.com/crimson-sun/murmur/internal/server"
)

type trainCmd struct{ commonFlags }

func (*trainCmd) Name() string     { return "train" }
func (*trainCmd) Synopsis() string { return "train on the configured dataset and print the report" }
func (*trainCmd) Usage() string {
	return "train [-config file]:\n  Train the configured model and print held-out accuracy as JSON.\n"
}
func (c *trainCmd) SetFlags(fs *flag.FlagSet) { c.register(fs) }

func (c *trainCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	a, err := newApp(&c.commonFlags, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "murmur: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.pipeline.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(a.report); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type analyzeCmd struct{ commonFlags }

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "analyze posts for a keyword once" }
func (*analyzeCmd) Usage() string {
	return "analyze [-config file] <keyword>:\n  Fetch posts for keyword, analyze them and write the result.\n"
}
func (c *analyzeCmd) SetFlags(fs *flag.FlagSet) { c.register(fs) }

func (c *analyzeCmd) Execute(ctx context.Context, fs *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	keyword := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if keyword == "" {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	a, err := newApp(&c.commonFlags, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "murmur: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.pipeline.Close()

	if _, err := a.pipeline.Analyze(ctx, keyword); err != nil {
		a.logger.Error("analysis failed", "keyword", keyword, "error", err)
		fmt.Fprintf(os.Stderr, "murmur: %s\n", engine.UserMessage(err))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type watchCmd struct {
	commonFlags
	interval time.Duration
}

func (*watchCmd) Name() string     { return "watch" }
func (*watchCmd) Synopsis() string { return "analyze a keyword repeatedly" }
func (*watchCmd) Usage() string {
	return "watch [-config file] [-interval d] <keyword>:\n  Re-run the analysis every interval until interrupted.\n"
}

func (c *watchCmd) SetFlags(fs *flag.FlagSet) {
	c.register(fs)
	fs.DurationVar(&c.interval, "interval", 5*time.Minute, "time between analyses")
}

func (c *watchCmd) Execute(ctx context.Context, fs *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	keyword := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if keyword == "" || c.interval <= 0 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	a, err := newApp(&c.commonFlags, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "murmur: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.pipeline.Close()

	a.logger.Info("watching", "keyword", keyword, "interval", c.interval)
	if err := a.pipeline.Watch(ctx, keyword, c.interval); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("watch stopped", "error", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type serveCmd struct {
	commonFlags
	addr string
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "serve analyses over HTTP" }
func (*serveCmd) Usage() string {
	return "serve [-config file] [-addr host:port]:\n  Train once, then answer POST /api/analyze and /api/update.\n"
}

func (c *serveCmd) SetFlags(fs *flag.FlagSet) {
	c.register(fs)
	fs.StringVar(&c.addr, "addr", "", "listen address (overrides server.addr)")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	a, err := newApp(&c.commonFlags, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "murmur: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.pipeline.Close()

	addr := a.cfg.Server.Addr
	if c.addr != "" {
		addr = c.addr
	}
	srv := server.New(addr, a.pipeline, a.engine,
		server.WithLogger(a.logger),
		server.WithDefaultCount(a.cfg.Source.Count),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			a.logger.Error("server failed", "error", err)
			return subcommands.ExitFailure
		}
	case <-ctx.Done():
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("shutdown failed", "error", err)
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
