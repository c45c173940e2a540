// Package bpred defines the contract between a branch-direction predictor and
// the components that wrap or drive it, and provides the reference base
// predictors used by the temporal-stream predictor.
package bpred

// Addr is an instruction address.
type Addr uint64

// ThreadID identifies a hardware thread context.
type ThreadID int

// MaxThreads bounds the number of hardware thread contexts a predictor
// keeps state for.
const MaxThreads = 256

// History is the per-branch state a predictor hands out at lookup time. Only
// the predictor that produced it may look inside. It is retired by exactly
// one call to Update or Squash.
type History any

// StaticInst carries the static properties of a branch instruction that a
// predictor may want at update time.
type StaticInst struct {
	PC         Addr
	IsCall     bool
	IsReturn   bool
	IsIndirect bool
	IsUncond   bool
}

// Predictor is a branch-direction predictor that tracks per-branch state
// through an opaque History handle.
type Predictor interface {
	// Lookup predicts the direction of the conditional branch at pc.
	Lookup(tid ThreadID, pc Addr) (taken bool, h History)

	// UncondBranch records an unconditional branch at pc. The branch is
	// taken by definition.
	UncondBranch(tid ThreadID, pc Addr) History

	// BTBUpdate is called when the branch target buffer misses for the
	// branch, so the branch will be treated as not taken.
	BTBUpdate(tid ThreadID, pc Addr, h History)

	// Update resolves the branch. When squashed is set the call only
	// repairs speculative state; otherwise the predictor trains on the
	// outcome. Either way h is retired.
	Update(
		tid ThreadID,
		pc Addr,
		taken bool,
		h History,
		squashed bool,
		inst StaticInst,
		corrTarget Addr,
	)

	// Squash discards the branch and retires h.
	Squash(tid ThreadID, h History)
}
