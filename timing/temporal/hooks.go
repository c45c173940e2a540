package temporal

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sarchlab/akita/v4/sim"
)

var (
	// HookPosLookup fires after a conditional or unconditional branch is
	// recorded. Item is the *Record.
	HookPosLookup = &sim.HookPos{Name: "TS Lookup"}
	// HookPosUpdate fires after a resolution. Item is the *Record, Detail
	// is an UpdateDetail.
	HookPosUpdate = &sim.HookPos{Name: "TS Update"}
	// HookPosSquash fires after a record is squashed. Item is the *Record.
	HookPosSquash = &sim.HookPos{Name: "TS Squash"}
	// HookPosReplayStart fires when replay activates. Item is the *Record
	// whose resolution triggered it, Detail the head Position.
	HookPosReplayStart = &sim.HookPos{Name: "TS Replay Start"}
	// HookPosReplayStop fires when active replay is abandoned. Item is the
	// *Record whose resolution stopped it.
	HookPosReplayStop = &sim.HookPos{Name: "TS Replay Stop"}
)

// UpdateDetail is the Detail of a HookPosUpdate event.
type UpdateDetail struct {
	Taken    bool
	Squashed bool
}

// LogHook writes every predictor event to a slog logger at debug level.
type LogHook struct {
	logger *slog.Logger
}

// NewLogHook creates a LogHook writing to logger.
func NewLogHook(logger *slog.Logger) *LogHook {
	return &LogHook{logger: logger}
}

// Func implements sim.Hook.
func (h *LogHook) Func(ctx sim.HookCtx) {
	if !h.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}

	rec, ok := ctx.Item.(*Record)
	if !ok {
		return
	}

	attrs := []any{
		"record", rec.ID(),
		"thread", int(rec.Thread()),
		"pc", fmt.Sprintf("%#x", uint64(rec.PC())),
		"base", rec.BaseOutcome(),
		"final", rec.FinalOutcome(),
	}

	switch detail := ctx.Detail.(type) {
	case UpdateDetail:
		attrs = append(attrs, "taken", detail.Taken, "squashed", detail.Squashed)
	case Position:
		attrs = append(attrs, "head", int(detail))
	}

	h.logger.Debug(ctx.Pos.Name, attrs...)
}
