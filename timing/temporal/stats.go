package temporal

// Stats holds statistics for the temporal-stream predictor.
type Stats struct {
	// Lookups is the number of conditional predictions made.
	Lookups uint64
	// Uncond is the number of unconditional branches recorded.
	Uncond uint64
	// Updates is the number of non-squashed resolutions.
	Updates uint64
	// SquashedUpdates is the number of resolutions made while squashing.
	SquashedUpdates uint64
	// Squashes is the number of records discarded by Squash.
	Squashes uint64

	// Resolved is the number of non-squashed conditional resolutions.
	Resolved uint64
	// Incorrect counts resolved conditional branches whose final outcome
	// was wrong.
	Incorrect uint64
	// BaseIncorrect counts resolved conditional branches whose base
	// outcome was wrong.
	BaseIncorrect uint64

	// Inversions is the number of lookups where replay inverted the base.
	Inversions uint64
	// InversionsResolved is the number of inversions resolved without
	// being squashed.
	InversionsResolved uint64
	// InversionsCorrect is the number of resolved inversions that were right.
	InversionsCorrect uint64

	// ReplayStarts is the number of times replay was activated.
	ReplayStarts uint64
	// ReplayStops is the number of times active replay was abandoned.
	ReplayStops uint64

	// TableProbes is the number of head table lookups.
	TableProbes uint64
	// TableHits is the number of probes that found a stream position.
	TableHits uint64
}

// Accuracy returns the final prediction accuracy as a percentage.
func (s Stats) Accuracy() float64 {
	if s.Resolved == 0 {
		return 0
	}
	return float64(s.Resolved-s.Incorrect) / float64(s.Resolved) * 100
}

// BaseAccuracy returns the base predictor's accuracy over the same branches.
func (s Stats) BaseAccuracy() float64 {
	if s.Resolved == 0 {
		return 0
	}
	return float64(s.Resolved-s.BaseIncorrect) / float64(s.Resolved) * 100
}

// MispredictionRate returns the final misprediction rate as a percentage.
func (s Stats) MispredictionRate() float64 {
	if s.Resolved == 0 {
		return 0
	}
	return float64(s.Incorrect) / float64(s.Resolved) * 100
}

// InversionAccuracy returns the share of resolved inversions that were
// right, as a percentage.
func (s Stats) InversionAccuracy() float64 {
	if s.InversionsResolved == 0 {
		return 0
	}
	return float64(s.InversionsCorrect) / float64(s.InversionsResolved) * 100
}

// MPKI returns final mispredictions per thousand instructions.
func (s Stats) MPKI(insts uint64) float64 {
	if insts == 0 {
		return 0
	}
	return float64(s.Incorrect) / float64(insts) * 1000
}
