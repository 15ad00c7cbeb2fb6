// Package main is the entry point for the teleop robot controller.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/teleop/internal/app"
	"github.com/dshills/teleop/internal/logging"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts, dumpConfig := parseFlags()

	if dumpConfig {
		cfg, err := app.LoadConfig(opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		if err := cfg.WriteTOML(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}

	// Ensure cleanup on all exit paths
	defer func() {
		if err := application.Shutdown(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: shutdown: %v\n", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := application.Run(ctx)

	if application.Config().Loop.Stats {
		// Stats follow the terminal screen, so release it first.
		_ = application.Shutdown()
		if err := application.WriteStats(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		return 1
	}
	return 0
}

func parseFlags() (app.Options, bool) {
	var opts app.Options
	var showVersion, showHelp, dumpConfig bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (default teleop.toml if present)")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.Replay, "replay", "", "Replay a frame script instead of reading the keyboard")
	flag.Uint64Var(&opts.Cycles, "cycles", 0, "Stop after this many cycles (0 runs until interrupted)")
	flag.StringVar(&opts.Auto, "auto", "", "Run this autonomous routine before teleop")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.Stats, "stats", false, "Print command metrics on exit")
	flag.BoolVar(&dumpConfig, "dump-config", false, "Print the effective configuration and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "teleop - gamepad-driven robot controller\n\n")
		fmt.Fprintf(os.Stderr, "Usage: teleop [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  teleop                              Drive from the keyboard\n")
		fmt.Fprintf(os.Stderr, "  teleop -auto drop-and-wait          Run a routine, then drive\n")
		fmt.Fprintf(os.Stderr, "  teleop -replay raise.yaml -stats    Replay a script headless\n")
		fmt.Fprintf(os.Stderr, "  teleop -dump-config > teleop.toml   Start a configuration file\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("teleop %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if opts.LogLevel != "" && !logging.ValidLevel(opts.LogLevel) {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
		os.Exit(1)
	}

	return opts, dumpConfig
}
