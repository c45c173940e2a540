package temporal

// replayController decides whether to trust or invert the base prediction.
// While active it walks the stream from head, inverting wherever the base
// predictor was wrong last time around.
type replayController struct {
	stream *Stream
	active bool
}

// decide returns the final outcome for a base outcome. It consumes one
// stream cell when replay is active.
func (r *replayController) decide(base bool) bool {
	if !r.active {
		return base
	}

	if r.stream.Next() == CellWrong {
		return !base
	}
	return base
}

// start resumes replay at pos. It does nothing if replay is already active
// or pos is the sentinel, and reports whether replay started.
func (r *replayController) start(pos Position) bool {
	if r.active || !pos.Valid() {
		return false
	}

	r.stream.Seek(pos)
	r.active = true
	return true
}

// stop abandons replay and reports whether it was active.
func (r *replayController) stop() bool {
	wasActive := r.active
	r.active = false
	return wasActive
}
