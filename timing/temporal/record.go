package temporal

import (
	"errors"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/tspred/timing/bpred"
)

var (
	// ErrUnknownRecord is returned when a record was not issued by the
	// predictor it is handed back to.
	ErrUnknownRecord = errors.New("record was not issued by this predictor")

	// ErrRecordConsumed is returned when a record is updated or squashed
	// a second time.
	ErrRecordConsumed = errors.New("record already consumed")

	// ErrThreadMismatch is returned when a record is handed back on a
	// different thread than the one it was issued on.
	ErrThreadMismatch = errors.New("record belongs to another thread")
)

// Record ties a prediction to its eventual update or squash. It is issued
// by Lookup or UncondBranch and consumed exactly once.
type Record struct {
	id     string
	owner  *Predictor
	thread bpred.ThreadID
	pc     bpred.Addr

	base         bpred.History
	baseOutcome  bool
	finalOutcome bool
	uncond       bool

	consumed bool
}

func newRecord(
	owner *Predictor,
	tid bpred.ThreadID,
	pc bpred.Addr,
	base bpred.History,
	baseOutcome, finalOutcome, uncond bool,
) *Record {
	return &Record{
		id:           sim.GetIDGenerator().Generate(),
		owner:        owner,
		thread:       tid,
		pc:           pc,
		base:         base,
		baseOutcome:  baseOutcome,
		finalOutcome: finalOutcome,
		uncond:       uncond,
	}
}

// ID returns a unique identifier for the record.
func (r *Record) ID() string { return r.id }

// Thread returns the thread the record was issued on.
func (r *Record) Thread() bpred.ThreadID { return r.thread }

// PC returns the branch address at lookup time.
func (r *Record) PC() bpred.Addr { return r.pc }

// BaseOutcome returns the base predictor's raw decision.
func (r *Record) BaseOutcome() bool { return r.baseOutcome }

// FinalOutcome returns the decision handed to the caller.
func (r *Record) FinalOutcome() bool { return r.finalOutcome }

// Uncond reports whether the record came from UncondBranch.
func (r *Record) Uncond() bool { return r.uncond }

// Inverted reports whether replay overrode the base decision.
func (r *Record) Inverted() bool { return r.baseOutcome != r.finalOutcome }

// Consumed reports whether the record has been updated or squashed.
func (r *Record) Consumed() bool { return r.consumed }
