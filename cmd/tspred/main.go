// Command tspred runs branch traces through the temporal-stream predictor.
//
// Usage:
//
//	tspred [flags] <trace>...
//
// Traces use the text format of package trace; files ending in .gz are
// decompressed. Without -csv or -json, results are printed as a report on a
// terminal and as CSV otherwise.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/term"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tspred/benchmarks"
	"github.com/sarchlab/tspred/timing/bpred"
	"github.com/sarchlab/tspred/timing/config"
	"github.com/sarchlab/tspred/timing/temporal"
	"github.com/sarchlab/tspred/trace"
)

func main() {
	tty := term.IsTerminal(int(os.Stdout.Fd()))
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, tty))
}

// options holds parsed command-line flags.
type options struct {
	configPath string
	base       string
	buffer     int
	history    uint
	threads    int
	window     int
	warmup     int
	csv        bool
	json       bool
	verbose    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	opts := &options{}

	fs := flag.NewFlagSet("tspred", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to predictor configuration (JSON or YAML)")
	fs.StringVar(&opts.base, "base", "", fmt.Sprintf("Base predictor %v", bpred.Names()))
	fs.IntVar(&opts.buffer, "buffer", 0, "Correctness stream capacity")
	fs.UintVar(&opts.history, "history", 0, "Global history width in bits")
	fs.IntVar(&opts.threads, "threads", 0, "Number of hardware threads")
	fs.IntVar(&opts.window, "window", 8, "Branches in flight before resolution")
	fs.IntVar(&opts.warmup, "warmup", 0, "Branches resolved before statistics are collected")
	fs.BoolVar(&opts.csv, "csv", false, "Output results in CSV format")
	fs.BoolVar(&opts.json, "json", false, "Output results in JSON format")
	fs.BoolVar(&opts.verbose, "v", false, "Log every predictor event")
	fs.Usage = func() {
		_, _ = fmt.Fprintf(stderr, "Usage: tspred [options] <trace>...\n")
		_, _ = fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return nil, nil, fmt.Errorf("no trace given")
	}
	if opts.csv && opts.json {
		return nil, nil, fmt.Errorf("-csv and -json are mutually exclusive")
	}

	return opts, fs.Args(), nil
}

// predictorConfig loads the configuration file, if any, and applies flag
// overrides on top of it.
func predictorConfig(opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	if opts.base != "" {
		cfg.Base = opts.base
	}
	if opts.buffer != 0 {
		cfg.BufferCapacity = opts.buffer
	}
	if opts.history != 0 {
		cfg.HistoryBits = opts.history
	}
	if opts.threads != 0 {
		cfg.Threads = opts.threads
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid predictor config: %w", err)
	}
	return cfg, nil
}

func run(args []string, stdout, stderr io.Writer, tty bool) int {
	opts, paths, err := parseFlags(args, stderr)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := predictorConfig(opts)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error loading predictor config: %v\n", err)
		return 1
	}

	harnessConfig := benchmarks.HarnessConfig{
		Predictor: cfg,
		Window:    opts.window,
		Warmup:    opts.warmup,
		Output:    stdout,
	}
	if opts.verbose {
		harnessConfig.Hooks = []sim.Hook{temporal.NewLogHook(logger)}
	}
	harness := benchmarks.NewHarness(harnessConfig)

	for _, path := range paths {
		t, err := trace.Load(path)
		if err != nil {
			_, _ = fmt.Fprintf(stderr, "Error loading trace: %v\n", err)
			return 1
		}
		logger.Info("loaded trace",
			"path", path,
			"branches", len(t.Branches),
			"conditional", t.Conditional(),
			"threads", t.Threads())

		harness.AddBenchmark(benchmarks.Benchmark{
			Name:  filepath.Base(path),
			Trace: t,
		})
	}

	results, err := harness.RunAll()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error running trace: %v\n", err)
		return 1
	}

	switch {
	case opts.json:
		if err := harness.PrintJSON(results); err != nil {
			_, _ = fmt.Fprintf(stderr, "Error writing results: %v\n", err)
			return 1
		}
	case opts.csv || !tty:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	return 0
}
