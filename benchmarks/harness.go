// Package benchmarks provides trace-driven benchmark infrastructure for the
// temporal-stream predictor.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tspred/timing/bpred"
	"github.com/sarchlab/tspred/timing/config"
	"github.com/sarchlab/tspred/timing/temporal"
	"github.com/sarchlab/tspred/trace"
)

// Version is reported in JSON output.
const Version = "0.1.0"

// BenchmarkResult holds the results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark exercises
	Description string `json:"description"`

	// Branches is the number of branches measured, after warm-up
	Branches uint64 `json:"branches"`

	// Conditional is the number of conditional branches resolved
	Conditional uint64 `json:"conditional"`

	// Instructions is the dynamic instruction count used for MPKI
	Instructions uint64 `json:"instructions"`

	// InstructionsEstimated is set when the trace carries no instruction
	// count. Instructions then counts branches, and MPKI is per thousand
	// branches.
	InstructionsEstimated bool `json:"instructions_estimated"`

	// Incorrect is the number of final mispredictions
	Incorrect uint64 `json:"incorrect"`

	// BaseIncorrect is the number of base predictor mispredictions
	BaseIncorrect uint64 `json:"base_incorrect"`

	// AccuracyPercent is the final prediction accuracy
	AccuracyPercent float64 `json:"accuracy_percent"`

	// BaseAccuracyPercent is the base predictor's accuracy on the same branches
	BaseAccuracyPercent float64 `json:"base_accuracy_percent"`

	// MPKI is final mispredictions per thousand instructions
	MPKI float64 `json:"mpki"`

	// Inversions is the number of predictions where replay overrode the base
	Inversions uint64 `json:"inversions"`

	// InversionAccuracyPercent is the share of resolved inversions that were right
	InversionAccuracyPercent float64 `json:"inversion_accuracy_percent"`

	// ReplayStarts and ReplayStops count replay activations and abandonments
	ReplayStarts uint64 `json:"replay_starts"`
	ReplayStops  uint64 `json:"replay_stops"`

	// TableHits is the number of context table probes that found a position
	TableHits   uint64 `json:"table_hits"`
	TableProbes uint64 `json:"table_probes"`

	// Squashes is the number of wrong-path records discarded
	Squashes uint64 `json:"squashes"`

	// WallTime is the actual time taken to run the trace
	WallTime time.Duration `json:"wall_time_ns"`
}

// Benchmark defines a single branch trace to run.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark exercises
	Description string

	// Trace is the branch trace to drive the predictor with
	Trace *trace.Trace
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// Predictor configures the predictor built for each benchmark
	Predictor *config.Config

	// Window is the number of branches allowed in flight. A window of 1
	// resolves every branch before the next is predicted.
	Window int

	// Warmup is the number of leading branches resolved before statistics
	// are collected
	Warmup int

	// Hooks are attached to every predictor the harness builds
	Hooks []sim.Hook

	// Output is where to write results (default: os.Stdout)
	Output io.Writer
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Predictor: config.Default(),
		Window:    8,
		Output:    os.Stdout,
	}
}

// Harness runs branch benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Predictor == nil {
		def := DefaultConfig()
		config.Predictor = def.Predictor
	}
	if config.Window <= 0 {
		config.Window = 1
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results. It stops at the first
// benchmark that fails.
func (h *Harness) RunAll() ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result, err := h.Run(bench)
		if err != nil {
			return results, fmt.Errorf("benchmark %s: %w", bench.Name, err)
		}
		results = append(results, result)
	}

	return results, nil
}

// Run executes a single benchmark on a freshly built predictor.
func (h *Harness) Run(bench Benchmark) (BenchmarkResult, error) {
	predictorConfig := *h.config.Predictor
	if threads := bench.Trace.Threads(); threads > predictorConfig.Threads {
		predictorConfig.Threads = threads
	}

	p, err := predictorConfig.Build()
	if err != nil {
		return BenchmarkResult{}, err
	}
	for _, hook := range h.config.Hooks {
		p.AcceptHook(hook)
	}

	d := newDriver(p, bench.Trace.Branches, h.config.Window)
	d.warmup = h.config.Warmup

	start := time.Now()
	err = d.run()
	wallTime := time.Since(start)
	if err != nil {
		return BenchmarkResult{}, err
	}

	if n := p.Outstanding(); n != 0 {
		return BenchmarkResult{}, fmt.Errorf("%d prediction records left outstanding", n)
	}

	total := len(bench.Trace.Branches)
	measured := total - max(h.config.Warmup, 0)
	if measured < 0 {
		measured = 0
	}

	insts := bench.Trace.Insts
	estimated := insts == 0
	switch {
	case estimated:
		insts = uint64(measured)
	case measured < total:
		insts = insts * uint64(measured) / uint64(total)
	}

	stats := p.Stats()
	return BenchmarkResult{
		Name:                     bench.Name,
		Description:              bench.Description,
		Branches:                 uint64(measured),
		Conditional:              stats.Resolved,
		Instructions:             insts,
		InstructionsEstimated:    estimated,
		Incorrect:                stats.Incorrect,
		BaseIncorrect:            stats.BaseIncorrect,
		AccuracyPercent:          stats.Accuracy(),
		BaseAccuracyPercent:      stats.BaseAccuracy(),
		MPKI:                     stats.MPKI(insts),
		Inversions:               stats.Inversions,
		InversionAccuracyPercent: stats.InversionAccuracy(),
		ReplayStarts:             stats.ReplayStarts,
		ReplayStops:              stats.ReplayStops,
		TableHits:                stats.TableHits,
		TableProbes:              stats.TableProbes,
		Squashes:                 stats.Squashes,
		WallTime:                 wallTime,
	}, nil
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Temporal-Stream Predictor Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		if r.Description != "" {
			_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		}
		_, _ = fmt.Fprintln(h.config.Output, "  --- Branches ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Branches:       %d\n", r.Branches)
		_, _ = fmt.Fprintf(h.config.Output, "  Conditional:    %d\n", r.Conditional)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions:   %d\n", r.Instructions)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Prediction ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Accuracy:       %.2f%%\n", r.AccuracyPercent)
		_, _ = fmt.Fprintf(h.config.Output, "  Base Accuracy:  %.2f%%\n", r.BaseAccuracyPercent)
		_, _ = fmt.Fprintf(h.config.Output, "  Incorrect:      %d (base %d)\n", r.Incorrect, r.BaseIncorrect)
		if r.InstructionsEstimated {
			_, _ = fmt.Fprintf(h.config.Output, "  MPKI:           %.3f (per 1000 branches, trace has no instruction count)\n", r.MPKI)
		} else {
			_, _ = fmt.Fprintf(h.config.Output, "  MPKI:           %.3f\n", r.MPKI)
		}

		if r.ReplayStarts > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- Replay ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Starts:         %d\n", r.ReplayStarts)
			_, _ = fmt.Fprintf(h.config.Output, "  Stops:          %d\n", r.ReplayStops)
			_, _ = fmt.Fprintf(h.config.Output, "  Inversions:     %d (%.1f%% right)\n",
				r.Inversions, r.InversionAccuracyPercent)
			_, _ = fmt.Fprintf(h.config.Output, "  Table Hits:     %d/%d\n", r.TableHits, r.TableProbes)
		}

		if r.Squashes > 0 {
			_, _ = fmt.Fprintf(h.config.Output, "  Squashed:       %d\n", r.Squashes)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,branches,conditional,instructions,incorrect,base_incorrect,accuracy,base_accuracy,mpki,inversions,replay_starts,replay_stops,squashes,insts_estimated")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%d,%d,%d,%.4f,%.4f,%.4f,%d,%d,%d,%d,%t\n",
			r.Name,
			r.Branches,
			r.Conditional,
			r.Instructions,
			r.Incorrect,
			r.BaseIncorrect,
			r.AccuracyPercent,
			r.BaseAccuracyPercent,
			r.MPKI,
			r.Inversions,
			r.ReplayStarts,
			r.ReplayStops,
			r.Squashes,
			r.InstructionsEstimated,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Version of the predictor package
	Version string `json:"version"`

	// Window is the in-flight window used
	Window int `json:"window"`

	// Predictor is the predictor configuration used
	Predictor *config.Config `json:"predictor"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// TotalConditional is the sum of all resolved conditional branches
	TotalConditional uint64 `json:"total_conditional"`

	// TotalInstructions is the sum of all instruction counts
	TotalInstructions uint64 `json:"total_instructions"`

	// InstructionsEstimated is set when any benchmark lacked an
	// instruction count
	InstructionsEstimated bool `json:"instructions_estimated"`

	// AccuracyPercent is the final accuracy over all benchmarks
	AccuracyPercent float64 `json:"accuracy_percent"`

	// BaseAccuracyPercent is the base accuracy over all benchmarks
	BaseAccuracyPercent float64 `json:"base_accuracy_percent"`

	// MPKI is final mispredictions per thousand instructions over all benchmarks
	MPKI float64 `json:"mpki"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Summarize aggregates results.
func Summarize(results []BenchmarkResult) ReportSummary {
	var agg temporal.Stats
	var totalInsts uint64
	var totalWallTime time.Duration
	estimated := false
	for _, r := range results {
		agg.Resolved += r.Conditional
		agg.Incorrect += r.Incorrect
		agg.BaseIncorrect += r.BaseIncorrect
		totalInsts += r.Instructions
		estimated = estimated || r.InstructionsEstimated
		totalWallTime += r.WallTime
	}

	return ReportSummary{
		TotalBenchmarks:       len(results),
		TotalConditional:      agg.Resolved,
		TotalInstructions:     totalInsts,
		InstructionsEstimated: estimated,
		AccuracyPercent:       agg.Accuracy(),
		BaseAccuracyPercent:   agg.BaseAccuracy(),
		MPKI:                  agg.MPKI(totalInsts),
		TotalWallTime:         totalWallTime,
	}
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   Version,
			Window:    h.config.Window,
			Predictor: h.config.Predictor,
		},
		Results: results,
		Summary: Summarize(results),
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// targetPredictor is implemented by base predictors that carry a BTB.
type targetPredictor interface {
	Target(pc bpred.Addr) (bpred.Addr, bool)
}

type inflight struct {
	index int
	rec   *temporal.Record
	pred  bool
}

// driver plays a trace through a predictor the way an in-order front end
// would: predictions run ahead of resolution by up to window branches, and
// a resolved misprediction squashes the same thread's younger branches,
// which are fetched again.
type driver struct {
	p        *temporal.Predictor
	branches []trace.Branch
	window   int
	warmup   int
	btb      targetPredictor

	next     int
	resolved int
	refetch  []int
	queue    []inflight
}

func newDriver(p *temporal.Predictor, branches []trace.Branch, window int) *driver {
	d := &driver{
		p:        p,
		branches: branches,
		window:   window,
	}
	d.btb, _ = p.Base().(targetPredictor)
	return d
}

func (d *driver) run() error {
	for {
		for len(d.queue) < d.window && d.fetch() {
		}
		if len(d.queue) == 0 {
			return nil
		}
		if err := d.resolveOldest(); err != nil {
			return err
		}
	}
}

// fetch predicts the next branch in program order, refetched branches
// first. It returns false when there is nothing left to fetch.
func (d *driver) fetch() bool {
	var idx int
	switch {
	case len(d.refetch) > 0:
		idx = d.refetch[0]
		d.refetch = d.refetch[1:]
	case d.next < len(d.branches):
		idx = d.next
		d.next++
	default:
		return false
	}

	b := d.branches[idx]
	entry := inflight{index: idx}
	if b.Kind == trace.Uncond {
		entry.rec = d.p.UncondBranch(b.Thread, b.PC)
		entry.pred = true
	} else {
		entry.pred, entry.rec = d.p.Lookup(b.Thread, b.PC)
	}

	d.queue = append(d.queue, entry)
	return true
}

func (d *driver) resolveOldest() error {
	oldest := d.queue[0]
	d.queue = d.queue[1:]
	b := d.branches[oldest.index]
	taken := b.IsTaken()

	if taken && d.btb != nil {
		if _, known := d.btb.Target(b.PC); !known {
			if err := d.p.BTBUpdate(b.Thread, b.PC, oldest.rec); err != nil {
				return err
			}
		}
	}

	if oldest.pred != taken {
		if err := d.squashYounger(b.Thread); err != nil {
			return err
		}
	}

	inst := bpred.StaticInst{PC: b.PC, IsUncond: b.Kind == trace.Uncond}
	if err := d.p.Update(b.Thread, b.PC, taken, oldest.rec, false, inst, b.Target); err != nil {
		return err
	}

	d.resolved++
	if d.resolved == d.warmup {
		d.p.ResetStats()
	}
	return nil
}

// squashYounger discards every in-flight branch of tid, youngest first,
// and queues them to be fetched again in program order.
// The replay head is not rewound, so refetched lookups read later cells.
func (d *driver) squashYounger(tid bpred.ThreadID) error {
	var squashed []int
	kept := d.queue[:0]
	for i := len(d.queue) - 1; i >= 0; i-- {
		e := d.queue[i]
		if d.branches[e.index].Thread != tid {
			continue
		}
		if err := d.p.Squash(tid, e.rec); err != nil {
			return err
		}
		squashed = append(squashed, e.index)
	}
	for _, e := range d.queue {
		if d.branches[e.index].Thread != tid {
			kept = append(kept, e)
		}
	}
	d.queue = kept

	refetch := make([]int, 0, len(squashed)+len(d.refetch))
	for i := len(squashed) - 1; i >= 0; i-- {
		refetch = append(refetch, squashed[i])
	}
	d.refetch = mergeSorted(refetch, d.refetch)
	return nil
}

func mergeSorted(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}
