package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"

	// Register source implementations.
	_ "github.com/crimson-sun/murmur/internal/source/file"
	_ "github.com/crimson-sun/murmur/internal/source/static"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&trainCmd{}, "")
	subcommands.Register(&analyzeCmd{}, "")
	subcommands.Register(&watchCmd{}, "")
	subcommands.Register(&serveCmd{}, "")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	status := subcommands.Execute(ctx)
	stop()
	os.Exit(int(status))
}
