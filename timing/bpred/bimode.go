package bpred

// BiModeConfig holds configuration for the bi-mode predictor.
type BiModeConfig struct {
	// GlobalSize is the number of counters in each direction table.
	// Must be a power of 2. Default is 8192.
	GlobalSize uint32 `json:"global_size" yaml:"global_size"`
	// ChoiceSize is the number of counters in the choice table.
	// Must be a power of 2. Default is 8192.
	ChoiceSize uint32 `json:"choice_size" yaml:"choice_size"`
}

// DefaultBiModeConfig returns a default configuration.
func DefaultBiModeConfig() BiModeConfig {
	return BiModeConfig{
		GlobalSize: 8192,
		ChoiceSize: 8192,
	}
}

// BiMode is a bi-mode predictor. A PC-indexed choice table selects between a
// taken-biased and a not-taken-biased direction table, both indexed by the PC
// hashed with the thread's global history. The global history is updated
// speculatively at lookup time and repaired on squash, or on a
// misprediction of the youngest branch in flight.
type BiMode struct {
	choice   []Counter
	taken    []Counter
	notTaken []Counter

	choiceMask uint32
	globalMask uint32

	globalHistory []uint32

	// Per thread, oldest first
	inflight [][]*biModeHistory

	stats Stats
}

// biModeHistory is the History handle issued by BiMode.
type biModeHistory struct {
	globalHistory uint32
	takenUsed     bool
	takenPred     bool
	notTakenPred  bool
	finalPred     bool
	uncond        bool
}

// NewBiMode creates a bi-mode predictor for the given number of threads.
func NewBiMode(config BiModeConfig, threads int) *BiMode {
	globalSize := config.GlobalSize
	choiceSize := config.ChoiceSize

	if !isPowerOfTwo(globalSize) {
		globalSize = 8192
	}
	if !isPowerOfTwo(choiceSize) {
		choiceSize = 8192
	}
	if threads < 1 {
		threads = 1
	}

	return &BiMode{
		choice:        newCounters(choiceSize, WeaklyNotTaken),
		taken:         newCounters(globalSize, WeaklyTaken),
		notTaken:      newCounters(globalSize, WeaklyNotTaken),
		choiceMask:    choiceSize - 1,
		globalMask:    globalSize - 1,
		globalHistory: make([]uint32, threads),
		inflight:      make([][]*biModeHistory, threads),
	}
}

func (bp *BiMode) choiceIndex(pc Addr) uint32 {
	return uint32(pc>>2) & bp.choiceMask
}

func (bp *BiMode) globalIndex(pc Addr, history uint32) uint32 {
	return (uint32(pc>>2) ^ history) & bp.globalMask
}

func (bp *BiMode) pushHistory(tid ThreadID, taken bool) {
	h := bp.globalHistory[tid] << 1
	if taken {
		h |= 1
	}
	bp.globalHistory[tid] = h & bp.globalMask
}

func (bp *BiMode) track(tid ThreadID, hist *biModeHistory) {
	bp.inflight[tid] = append(bp.inflight[tid], hist)
}

// retire drops hist from the in-flight list and reports whether it was the
// youngest entry.
func (bp *BiMode) retire(tid ThreadID, hist *biModeHistory) bool {
	list := bp.inflight[tid]
	for i := len(list) - 1; i >= 0; i-- {
		if list[i] == hist {
			bp.inflight[tid] = append(list[:i], list[i+1:]...)
			return i == len(list)-1
		}
	}
	return false
}

// InFlight returns the number of unretired histories of a thread.
func (bp *BiMode) InFlight(tid ThreadID) int {
	return len(bp.inflight[tid])
}

// GlobalHistory returns the current speculative global history of a thread.
func (bp *BiMode) GlobalHistory(tid ThreadID) uint32 {
	return bp.globalHistory[tid]
}

// Lookup predicts the branch and speculatively shifts the prediction into
// the thread's global history.
func (bp *BiMode) Lookup(tid ThreadID, pc Addr) (bool, History) {
	ghr := bp.globalHistory[tid]
	gIdx := bp.globalIndex(pc, ghr)

	hist := &biModeHistory{
		globalHistory: ghr,
		takenUsed:     bp.choice[bp.choiceIndex(pc)].Taken(),
		takenPred:     bp.taken[gIdx].Taken(),
		notTakenPred:  bp.notTaken[gIdx].Taken(),
	}

	if hist.takenUsed {
		hist.finalPred = hist.takenPred
	} else {
		hist.finalPred = hist.notTakenPred
	}

	bp.pushHistory(tid, hist.finalPred)
	bp.track(tid, hist)
	bp.stats.Predictions++

	return hist.finalPred, hist
}

// UncondBranch shifts a taken bit into the global history.
func (bp *BiMode) UncondBranch(tid ThreadID, _ Addr) History {
	hist := &biModeHistory{
		globalHistory: bp.globalHistory[tid],
		takenUsed:     true,
		takenPred:     true,
		notTakenPred:  true,
		finalPred:     true,
		uncond:        true,
	}
	bp.pushHistory(tid, true)
	bp.track(tid, hist)

	return hist
}

// BTBUpdate marks the youngest history bit as not taken.
func (bp *BiMode) BTBUpdate(tid ThreadID, _ Addr, h History) {
	bp.globalHistory[tid] &= bp.globalMask &^ 1
	h.(*biModeHistory).finalPred = false
}

// Update repairs the global history when squashed and trains the tables
// otherwise. A mispredicted branch that is still the youngest in flight
// also has its history bit corrected.
func (bp *BiMode) Update(
	tid ThreadID,
	pc Addr,
	taken bool,
	h History,
	squashed bool,
	_ StaticInst,
	_ Addr,
) {
	hist := h.(*biModeHistory)
	youngest := bp.retire(tid, hist)

	if squashed || (youngest && hist.finalPred != taken) {
		bp.globalHistory[tid] = hist.globalHistory
		bp.pushHistory(tid, taken)
	}

	if squashed || hist.uncond {
		return
	}

	if hist.finalPred == taken {
		bp.stats.Correct++
	} else {
		bp.stats.Mispredictions++
	}

	gIdx := bp.globalIndex(pc, hist.globalHistory)
	cIdx := bp.choiceIndex(pc)

	// Only the selected direction table is trained.
	if hist.takenUsed {
		bp.taken[gIdx] = bp.taken[gIdx].Train(taken)
	} else {
		bp.notTaken[gIdx] = bp.notTaken[gIdx].Train(taken)
	}

	// The choice table is left alone when the prediction was right but
	// the choice disagreed with the outcome.
	if hist.finalPred != taken || hist.takenUsed == taken {
		bp.choice[cIdx] = bp.choice[cIdx].Train(taken)
	}
}

// Squash restores the global history saved at lookup.
func (bp *BiMode) Squash(tid ThreadID, h History) {
	hist := h.(*biModeHistory)
	bp.retire(tid, hist)
	bp.globalHistory[tid] = hist.globalHistory
}

// Stats returns the predictor statistics.
func (bp *BiMode) Stats() Stats {
	return bp.stats
}

// Reset clears all predictor state and statistics.
func (bp *BiMode) Reset() {
	for i := range bp.choice {
		bp.choice[i] = WeaklyNotTaken
	}
	for i := range bp.taken {
		bp.taken[i] = WeaklyTaken
		bp.notTaken[i] = WeaklyNotTaken
	}
	for i := range bp.globalHistory {
		bp.globalHistory[i] = 0
		bp.inflight[i] = nil
	}

	bp.stats = Stats{}
}
