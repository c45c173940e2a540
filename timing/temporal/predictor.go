// Package temporal implements a temporal-stream correction predictor.
//
// The predictor wraps a base branch predictor and records, for every
// resolved branch, whether the base predictor was right or wrong. When a
// base misprediction recurs under a context (branch address plus global
// history) that has mispredicted before, the predictor replays the
// correctness sequence recorded after the earlier misprediction, inverting
// the base prediction wherever the base predictor was wrong last time.
// Replay stops as soon as it produces a wrong final prediction.
//
// The global history and the context table are kept per thread. The
// correctness stream and the replay cursor are shared by all threads.
package temporal

import (
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tspred/timing/bpred"
)

// Config holds configuration for the temporal-stream predictor.
type Config struct {
	// BufferCapacity is the number of cells in the correctness stream.
	BufferCapacity int
	// HistoryBits is the width of each thread's global history register,
	// in [1, MaxHistoryBits].
	HistoryBits uint
	// Threads is the number of hardware thread contexts.
	Threads int
	// HeadTableSets and HeadTableWays bound the context table. When both
	// are zero the table is unbounded.
	HeadTableSets int
	HeadTableWays int
	// Base builds the wrapped base predictor.
	Base bpred.Factory
}

// DefaultConfig returns a default configuration wrapping a bi-mode
// predictor.
func DefaultConfig() Config {
	return Config{
		BufferCapacity: 8192,
		HistoryBits:    140,
		Threads:        1,
		Base: func(threads int) bpred.Predictor {
			return bpred.NewBiMode(bpred.DefaultBiModeConfig(), threads)
		},
	}
}

var (
	// ErrInvalidCapacity is returned for a non-positive buffer capacity.
	ErrInvalidCapacity = errors.New("buffer capacity must be > 0")
	// ErrInvalidConfig is returned for any other unusable configuration.
	ErrInvalidConfig = errors.New("invalid temporal predictor config")
)

// Validate checks that the configuration can build a predictor.
func (c Config) Validate() error {
	if c.BufferCapacity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidCapacity, c.BufferCapacity)
	}
	if c.HistoryBits == 0 || c.HistoryBits > MaxHistoryBits {
		return fmt.Errorf("%w: history bits must be in [1, %d], got %d",
			ErrInvalidConfig, MaxHistoryBits, c.HistoryBits)
	}
	if c.Threads <= 0 || c.Threads > bpred.MaxThreads {
		return fmt.Errorf("%w: threads must be in [1, %d], got %d",
			ErrInvalidConfig, bpred.MaxThreads, c.Threads)
	}
	if c.HeadTableSets < 0 || c.HeadTableWays < 0 ||
		(c.HeadTableSets == 0) != (c.HeadTableWays == 0) {
		return fmt.Errorf("%w: head table sets and ways must both be zero or both positive, got %dx%d",
			ErrInvalidConfig, c.HeadTableSets, c.HeadTableWays)
	}
	if c.Base == nil {
		return fmt.Errorf("%w: no base predictor", ErrInvalidConfig)
	}
	return nil
}

// threadState is the part of the predictor private to one thread.
type threadState struct {
	history *GlobalHistory
	table   headTable
}

// Predictor is a temporal-stream predictor wrapping a base predictor.
// It is not safe for concurrent use.
type Predictor struct {
	*sim.HookableBase

	base    bpred.Predictor
	stream  *Stream
	replay  replayController
	threads []*threadState

	outstanding int
	stats       Stats
}

// New creates a temporal-stream predictor.
func New(config Config) (*Predictor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	base := config.Base(config.Threads)
	if base == nil {
		return nil, fmt.Errorf("%w: base factory returned nil", ErrInvalidConfig)
	}

	p := &Predictor{
		HookableBase: sim.NewHookableBase(),
		base:         base,
		stream:       NewStream(config.BufferCapacity),
		threads:      make([]*threadState, config.Threads),
	}
	p.replay.stream = p.stream

	for i := range p.threads {
		ts := &threadState{history: NewGlobalHistory(config.HistoryBits)}
		if config.HeadTableSets > 0 {
			ts.table = newSetAssocHeadTable(config.HeadTableSets, config.HeadTableWays)
		} else {
			ts.table = newMapHeadTable()
		}
		p.threads[i] = ts
	}

	return p, nil
}

// thread returns the state of tid. An out-of-range thread is a caller bug.
func (p *Predictor) thread(tid bpred.ThreadID) *threadState {
	if tid < 0 || int(tid) >= len(p.threads) {
		panic(fmt.Sprintf("temporal: thread %d out of range [0, %d)", tid, len(p.threads)))
	}
	return p.threads[tid]
}

// Lookup predicts the conditional branch at pc. The returned record must
// be passed to exactly one of Update or Squash.
func (p *Predictor) Lookup(tid bpred.ThreadID, pc bpred.Addr) (bool, *Record) {
	p.thread(tid)

	baseTaken, h := p.base.Lookup(tid, pc)
	final := p.replay.decide(baseTaken)

	rec := newRecord(p, tid, pc, h, baseTaken, final, false)
	p.outstanding++
	p.stats.Lookups++
	if rec.Inverted() {
		p.stats.Inversions++
	}

	p.invoke(HookPosLookup, rec, nil)
	return final, rec
}

// UncondBranch records an unconditional branch at pc. No prediction is
// made; the branch is taken by definition.
func (p *Predictor) UncondBranch(tid bpred.ThreadID, pc bpred.Addr) *Record {
	p.thread(tid)

	h := p.base.UncondBranch(tid, pc)
	rec := newRecord(p, tid, pc, h, true, true, true)
	p.outstanding++
	p.stats.Uncond++

	p.invoke(HookPosLookup, rec, nil)
	return rec
}

// BTBUpdate passes a BTB miss for the branch on to the base predictor.
func (p *Predictor) BTBUpdate(tid bpred.ThreadID, pc bpred.Addr, rec *Record) error {
	if err := p.check(tid, rec); err != nil {
		return err
	}

	p.base.BTBUpdate(tid, pc, rec.base)
	return nil
}

// Update resolves the branch behind rec and consumes rec. The base
// predictor is always told. A squashed resolution changes nothing else; a
// non-squashed one records the base predictor's correctness, shifts the
// trusted outcome into the thread's history, and on a base misprediction
// refreshes the context table and possibly starts replay.
func (p *Predictor) Update(
	tid bpred.ThreadID,
	pc bpred.Addr,
	taken bool,
	rec *Record,
	squashed bool,
	inst bpred.StaticInst,
	corrTarget bpred.Addr,
) error {
	if err := p.check(tid, rec); err != nil {
		return err
	}
	p.consume(rec)

	p.base.Update(tid, pc, taken, rec.base, squashed, inst, corrTarget)

	detail := UpdateDetail{Taken: taken, Squashed: squashed}
	if squashed {
		p.stats.SquashedUpdates++
		p.invoke(HookPosUpdate, rec, detail)
		return nil
	}

	ts := p.thread(tid)
	key := contextKey{pc: pc, history: ts.history.Value()}

	p.stream.Append(rec.baseOutcome == taken)
	ts.history.Push(rec.finalOutcome)
	p.countUpdate(rec, taken)

	if rec.finalOutcome != taken && p.replay.stop() {
		p.stats.ReplayStops++
		p.invoke(HookPosReplayStop, rec, nil)
	}

	if rec.baseOutcome != taken {
		p.stats.TableProbes++
		pos := ts.table.lookup(key)
		if pos.Valid() {
			p.stats.TableHits++
		}
		if p.replay.start(pos) {
			p.stats.ReplayStarts++
			p.invoke(HookPosReplayStart, rec, pos)
		}
		ts.table.insert(key, p.stream.Tail())
	}

	p.invoke(HookPosUpdate, rec, detail)
	return nil
}

func (p *Predictor) countUpdate(rec *Record, taken bool) {
	p.stats.Updates++
	if rec.uncond {
		return
	}

	p.stats.Resolved++
	if rec.finalOutcome != taken {
		p.stats.Incorrect++
	}
	if rec.baseOutcome != taken {
		p.stats.BaseIncorrect++
	}
	if !rec.Inverted() {
		return
	}
	p.stats.InversionsResolved++
	if rec.finalOutcome == taken {
		p.stats.InversionsCorrect++
	}
}

// Squash discards rec without touching the stream, the context table, or
// the history. The base predictor releases its own state for the branch.
func (p *Predictor) Squash(tid bpred.ThreadID, rec *Record) error {
	if err := p.check(tid, rec); err != nil {
		return err
	}
	p.consume(rec)

	p.base.Squash(tid, rec.base)
	p.stats.Squashes++

	p.invoke(HookPosSquash, rec, nil)
	return nil
}

func (p *Predictor) check(tid bpred.ThreadID, rec *Record) error {
	p.thread(tid)

	if rec == nil || rec.owner != p {
		return ErrUnknownRecord
	}
	if rec.consumed {
		return fmt.Errorf("%w: %s", ErrRecordConsumed, rec.id)
	}
	if rec.thread != tid {
		return fmt.Errorf("%w: %s issued on thread %d, returned on %d",
			ErrThreadMismatch, rec.id, rec.thread, tid)
	}
	return nil
}

func (p *Predictor) consume(rec *Record) {
	rec.consumed = true
	p.outstanding--
}

func (p *Predictor) invoke(pos *sim.HookPos, rec *Record, detail any) {
	if p.NumHooks() == 0 {
		return
	}

	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    pos,
		Item:   rec,
		Detail: detail,
	})
}

// Base returns the wrapped base predictor.
func (p *Predictor) Base() bpred.Predictor {
	return p.base
}

// ReplayActive reports whether replay is in progress.
func (p *Predictor) ReplayActive() bool {
	return p.replay.active
}

// Head returns the replay read cursor.
func (p *Predictor) Head() Position {
	return p.stream.Head()
}

// Tail returns the correctness stream write cursor.
func (p *Predictor) Tail() Position {
	return p.stream.Tail()
}

// Capacity returns the correctness stream capacity.
func (p *Predictor) Capacity() int {
	return p.stream.Cap()
}

// Cell returns the correctness stream cell at pos.
func (p *Predictor) Cell(pos Position) Cell {
	return p.stream.At(pos)
}

// History returns a snapshot of a thread's global history register.
func (p *Predictor) History(tid bpred.ThreadID) HistoryValue {
	return p.thread(tid).history.Value()
}

// TableEntry returns the stream position recorded for the context, or
// NoPosition if there is none.
func (p *Predictor) TableEntry(
	tid bpred.ThreadID,
	pc bpred.Addr,
	history HistoryValue,
) Position {
	return p.thread(tid).table.lookup(contextKey{pc: pc, history: history})
}

// TableLen returns the number of contexts a thread's table holds.
func (p *Predictor) TableLen(tid bpred.ThreadID) int {
	return p.thread(tid).table.len()
}

// Outstanding returns the number of records not yet updated or squashed.
func (p *Predictor) Outstanding() int {
	return p.outstanding
}

// Stats returns the predictor statistics.
func (p *Predictor) Stats() Stats {
	return p.stats
}

// ResetStats clears the statistics.
func (p *Predictor) ResetStats() {
	p.stats = Stats{}
}

// Reset clears the stream, replay state, histories, context tables, and
// statistics. The base predictor is left alone. Outstanding records stay
// valid.
func (p *Predictor) Reset() {
	p.stream.Reset()
	p.replay.active = false
	for _, ts := range p.threads {
		ts.history.Reset()
		ts.table.reset()
	}
	p.stats = Stats{}
}
