package bpred

// BimodalConfig holds configuration for the bimodal predictor.
type BimodalConfig struct {
	// BHTSize is the number of entries in the Branch History Table.
	// Must be a power of 2. Default is 1024.
	BHTSize uint32 `json:"bht_size" yaml:"bht_size"`
	// BTBSize is the number of entries in the Branch Target Buffer.
	// Must be a power of 2. Default is 256.
	BTBSize uint32 `json:"btb_size" yaml:"btb_size"`
}

// DefaultBimodalConfig returns a default configuration.
func DefaultBimodalConfig() BimodalConfig {
	return BimodalConfig{
		BHTSize: 1024,
		BTBSize: 256,
	}
}

// Stats holds statistics for a base predictor.
type Stats struct {
	// Predictions is the total number of conditional branch predictions made.
	Predictions uint64
	// Correct is the number of correct predictions.
	Correct uint64
	// Mispredictions is the number of incorrect predictions.
	Mispredictions uint64
	// BTBHits is the number of BTB hits.
	BTBHits uint64
	// BTBMisses is the number of BTB misses.
	BTBMisses uint64
}

// Accuracy returns the prediction accuracy as a percentage.
func (s Stats) Accuracy() float64 {
	resolved := s.Correct + s.Mispredictions
	if resolved == 0 {
		return 0
	}
	return float64(s.Correct) / float64(resolved) * 100
}

// MispredictionRate returns the misprediction rate as a percentage.
func (s Stats) MispredictionRate() float64 {
	resolved := s.Correct + s.Mispredictions
	if resolved == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(resolved) * 100
}

// BTBHitRate returns the BTB hit rate as a percentage.
func (s Stats) BTBHitRate() float64 {
	total := s.BTBHits + s.BTBMisses
	if total == 0 {
		return 0
	}
	return float64(s.BTBHits) / float64(total) * 100
}

// Bimodal implements a 2-bit saturating counter (bimodal) predictor
// with a Branch Target Buffer (BTB). The tables are shared by all threads.
type Bimodal struct {
	bht []Counter

	// Branch Target Buffer (BTB)
	// Maps PC to target address
	btb      []btbEntry
	btbValid []bool

	bhtSize uint32
	btbSize uint32

	stats Stats
}

// btbEntry represents an entry in the Branch Target Buffer.
type btbEntry struct {
	pc     Addr // The PC of the branch instruction
	target Addr // The target address
}

// bimodalHistory is the History handle issued by Bimodal.
type bimodalHistory struct {
	predicted bool
	uncond    bool
}

// NewBimodal creates a new bimodal predictor with the given configuration.
func NewBimodal(config BimodalConfig) *Bimodal {
	bhtSize := config.BHTSize
	btbSize := config.BTBSize

	if !isPowerOfTwo(bhtSize) {
		bhtSize = 1024
	}
	if !isPowerOfTwo(btbSize) {
		btbSize = 256
	}

	// Biased towards taken
	return &Bimodal{
		bht:      newCounters(bhtSize, WeaklyTaken),
		btb:      make([]btbEntry, btbSize),
		btbValid: make([]bool, btbSize),
		bhtSize:  bhtSize,
		btbSize:  btbSize,
	}
}

// bhtIndex computes the BHT index for a given PC.
func (bp *Bimodal) bhtIndex(pc Addr) uint32 {
	// Use lower bits of PC (excluding alignment bits)
	return uint32((pc >> 2) & Addr(bp.bhtSize-1))
}

// btbIndex computes the BTB index for a given PC.
func (bp *Bimodal) btbIndex(pc Addr) uint32 {
	return uint32((pc >> 2) & Addr(bp.btbSize-1))
}

// Lookup predicts the branch at pc from its BHT counter.
func (bp *Bimodal) Lookup(_ ThreadID, pc Addr) (bool, History) {
	taken := bp.bht[bp.bhtIndex(pc)].Taken()
	bp.stats.Predictions++
	return taken, &bimodalHistory{predicted: taken}
}

// UncondBranch records an unconditional branch. The BHT is not consulted.
func (bp *Bimodal) UncondBranch(_ ThreadID, _ Addr) History {
	return &bimodalHistory{predicted: true, uncond: true}
}

// BTBUpdate has nothing to repair: the bimodal predictor keeps no
// speculative state.
func (bp *Bimodal) BTBUpdate(_ ThreadID, _ Addr, _ History) {}

// Target returns the cached target of the branch at pc, if any.
func (bp *Bimodal) Target(pc Addr) (Addr, bool) {
	idx := bp.btbIndex(pc)
	if bp.btbValid[idx] && bp.btb[idx].pc == pc {
		bp.stats.BTBHits++
		return bp.btb[idx].target, true
	}

	bp.stats.BTBMisses++
	return 0, false
}

// Update trains the BHT counter and, for taken branches, the BTB.
func (bp *Bimodal) Update(
	_ ThreadID,
	pc Addr,
	taken bool,
	h History,
	squashed bool,
	_ StaticInst,
	corrTarget Addr,
) {
	hist := h.(*bimodalHistory)
	if squashed {
		return
	}

	if !hist.uncond {
		if hist.predicted == taken {
			bp.stats.Correct++
		} else {
			bp.stats.Mispredictions++
		}

		idx := bp.bhtIndex(pc)
		bp.bht[idx] = bp.bht[idx].Train(taken)
	}

	// Update BTB if branch was taken
	if taken {
		idx := bp.btbIndex(pc)
		bp.btb[idx] = btbEntry{pc: pc, target: corrTarget}
		bp.btbValid[idx] = true
	}
}

// Squash drops the branch. No state was changed at lookup time.
func (bp *Bimodal) Squash(_ ThreadID, _ History) {}

// Stats returns the predictor statistics.
func (bp *Bimodal) Stats() Stats {
	return bp.stats
}

// Reset clears all predictor state and statistics.
func (bp *Bimodal) Reset() {
	for i := range bp.bht {
		bp.bht[i] = WeaklyTaken
	}

	for i := range bp.btbValid {
		bp.btbValid[i] = false
	}

	bp.stats = Stats{}
}
