// Package main is the entry point for the undotree command.
//
// undotree builds a history tree from a configuration file, runs a Lua
// session script against it and prints the resulting tree and operation
// logs.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/undotree/internal/app"
	"github.com/dshills/undotree/internal/config"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type cliOptions struct {
	app    app.Options
	script string
	dump   string
	watch  bool
	level  slog.Level
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	session := app.Session{
		Options: opts.app,
		Script:  opts.script,
		Dump:    opts.dump,
	}

	if opts.watch {
		return watch(session, opts.level)
	}

	if err := session.Run(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

func parseFlags() cliOptions {
	var opts cliOptions
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.app.ConfigPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&opts.app.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.script, "script", "", "Lua session script to run")
	flag.StringVar(&opts.script, "s", "", "Lua session script to run (shorthand)")
	flag.StringVar(&opts.dump, "dump", app.DumpYAML, "Tree dump format (yaml, toml, text, none)")
	flag.BoolVar(&opts.watch, "watch", false, "Rerun the session whenever the config or script changes")
	flag.BoolVar(&opts.watch, "w", false, "Rerun the session on changes (shorthand)")
	flag.StringVar(&opts.app.LogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "undotree - multi-stack undo/redo coordinator\n\n")
		fmt.Fprintf(os.Stderr, "Usage: undotree [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  undotree -c tree.toml                 Dump the configured tree\n")
		fmt.Fprintf(os.Stderr, "  undotree -c tree.yaml -s session.lua  Run a session and dump the result\n")
		fmt.Fprintf(os.Stderr, "  undotree -s session.lua -dump text    Print an outline instead of YAML\n")
		fmt.Fprintf(os.Stderr, "  undotree -c tree.toml -s s.lua -w     Rerun on every save\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("undotree %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	level, err := parseLogLevel(opts.app.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	opts.level = level

	switch opts.dump {
	case app.DumpYAML, app.DumpTOML, app.DumpText, app.DumpNone:
		// Valid
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid dump format %q (must be yaml, toml, text, or none)\n", opts.dump)
		os.Exit(1)
	}

	// A single positional argument is taken as the script
	if opts.script == "" && flag.NArg() == 1 {
		opts.script = flag.Arg(0)
	}

	return opts
}

// parseLogLevel accepts the same level names as the config file.
func parseLogLevel(level string) (slog.Level, error) {
	return config.LogConfig{Level: level}.SlogLevel()
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// watch reruns the session on file changes until interrupted.
func watch(session app.Session, level slog.Level) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger(os.Stderr, level)
	if err := session.Watch(ctx, os.Stdout, logger, app.DefaultDebounce); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
