package benchmarks

import (
	"math/rand/v2"

	"github.com/sarchlab/tspred/timing/bpred"
	"github.com/sarchlab/tspred/trace"
)

// instsPerBranch is the assumed basic block length of synthetic workloads.
const instsPerBranch = 6

// GetWorkloads returns the standard set of synthetic branch workloads.
// Each workload targets a specific kind of branch behaviour.
func GetWorkloads() []Benchmark {
	return []Benchmark{
		nestedLoop(),
		alternating(),
		repeatingPattern(),
		correlatedPair(),
		noisyPattern(),
		callReturn(),
	}
}

// GetCoreWorkloads returns a minimal set of workloads for quick validation.
func GetCoreWorkloads() []Benchmark {
	return []Benchmark{
		nestedLoop(),
		repeatingPattern(),
		callReturn(),
	}
}

// builder accumulates a synthetic trace.
type builder struct {
	t trace.Trace
}

func (b *builder) cond(pc bpred.Addr, taken bool, target bpred.Addr) {
	kind := trace.NotTaken
	if taken {
		kind = trace.Taken
	}
	b.t.Branches = append(b.t.Branches, trace.Branch{PC: pc, Kind: kind, Target: target})
}

func (b *builder) jump(pc, target bpred.Addr) {
	b.t.Branches = append(b.t.Branches, trace.Branch{PC: pc, Kind: trace.Uncond, Target: target})
}

func (b *builder) build() *trace.Trace {
	b.t.Insts = uint64(len(b.t.Branches)) * instsPerBranch
	return &b.t
}

// 1. Nested loop - inner trip count 7, outer back edge unconditional
func nestedLoop() Benchmark {
	var b builder
	for outer := 0; outer < 400; outer++ {
		for inner := 0; inner < 7; inner++ {
			b.cond(0x1040, inner < 6, 0x1020)
		}
		b.jump(0x1060, 0x1000)
	}

	return Benchmark{
		Name:        "nested_loop",
		Description: "inner loop of 7 iterations inside an outer loop - exit branch every 7th",
		Trace:       b.build(),
	}
}

// 2. Alternating - one branch flipping every execution
func alternating() Benchmark {
	var b builder
	for i := 0; i < 4000; i++ {
		b.cond(0x2000, i%2 == 0, 0x2100)
	}

	return Benchmark{
		Name:        "alternating",
		Description: "single branch alternating taken/not-taken",
		Trace:       b.build(),
	}
}

// longPattern has a period longer than short global histories can capture.
var longPattern = []bool{
	true, true, false, true, false, false, false, true,
	true, true, false, true, true, false, false, true,
	false, true, true, false, false, false, true, false,
	true, true, true, false, true, false, false,
}

// 3. Repeating pattern - a long irregular pattern repeated many times
func repeatingPattern() Benchmark {
	var b builder
	for rep := 0; rep < 150; rep++ {
		for i, taken := range longPattern {
			pc := bpred.Addr(0x3000 + 4*(i%4))
			b.cond(pc, taken, 0x3400)
		}
		b.jump(0x3020, 0x3000)
	}

	return Benchmark{
		Name:        "repeating_pattern",
		Description: "31-branch irregular pattern over 4 sites, repeated",
		Trace:       b.build(),
	}
}

// 4. Correlated pair - second branch repeats the first's random outcome
func correlatedPair() Benchmark {
	rng := rand.New(rand.NewPCG(1, 2))

	var b builder
	for i := 0; i < 2000; i++ {
		first := rng.IntN(2) == 0
		b.cond(0x4000, first, 0x4010)
		b.cond(0x4020, first, 0x4030)
	}

	return Benchmark{
		Name:        "correlated_pair",
		Description: "random branch followed by a branch with the same outcome",
		Trace:       b.build(),
	}
}

// 5. Noisy pattern - repeating pattern with 5% of outcomes flipped
func noisyPattern() Benchmark {
	rng := rand.New(rand.NewPCG(3, 4))

	var b builder
	for rep := 0; rep < 150; rep++ {
		for i, taken := range longPattern {
			if rng.IntN(20) == 0 {
				taken = !taken
			}
			pc := bpred.Addr(0x5000 + 4*(i%4))
			b.cond(pc, taken, 0x5400)
		}
		b.jump(0x5020, 0x5000)
	}

	return Benchmark{
		Name:        "noisy_pattern",
		Description: "repeating pattern with 5% of outcomes flipped at random",
		Trace:       b.build(),
	}
}

// 6. Call/return mix - calls and returns around a data-dependent branch
func callReturn() Benchmark {
	var b builder
	for i := 0; i < 1000; i++ {
		b.jump(0x6000, 0x7000)
		b.cond(0x7010, i%3 != 0, 0x7040)
		b.cond(0x7050, i%5 == 0, 0x7080)
		b.jump(0x7090, 0x6004)
	}

	return Benchmark{
		Name:        "call_return",
		Description: "function calls with two conditional branches of period 3 and 5 inside",
		Trace:       b.build(),
	}
}
