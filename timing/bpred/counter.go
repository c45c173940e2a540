package bpred

// Counter is a 2-bit saturating counter.
// States: 0=Strongly Not Taken, 1=Weakly Not Taken,
//
//	2=Weakly Taken, 3=Strongly Taken
type Counter uint8

const (
	// StronglyNotTaken is the lowest counter state.
	StronglyNotTaken Counter = 0
	// WeaklyNotTaken predicts not taken with low confidence.
	WeaklyNotTaken Counter = 1
	// WeaklyTaken predicts taken with low confidence.
	WeaklyTaken Counter = 2
	// StronglyTaken is the highest counter state.
	StronglyTaken Counter = 3
)

// Taken reports whether the counter predicts taken.
func (c Counter) Taken() bool {
	return c >= WeaklyTaken
}

// Train moves the counter one step toward the outcome.
func (c Counter) Train(taken bool) Counter {
	if taken {
		if c < StronglyTaken {
			return c + 1
		}
		return c
	}

	if c > StronglyNotTaken {
		return c - 1
	}
	return c
}

func newCounters(n uint32, init Counter) []Counter {
	counters := make([]Counter, n)
	for i := range counters {
		counters[i] = init
	}
	return counters
}

func isPowerOfTwo(n uint32) bool {
	return n != 0 && n&(n-1) == 0
}
