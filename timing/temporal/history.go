package temporal

// MaxHistoryBits is the widest global history register supported.
const MaxHistoryBits = 192

const historyWords = MaxHistoryBits / 64

// HistoryValue is a snapshot of a global history register. Word 0 holds the
// youngest 64 outcomes with the youngest at bit 0. Snapshots are comparable.
type HistoryValue [historyWords]uint64

// Bit returns bit i of the snapshot.
func (v HistoryValue) Bit(i uint) bool {
	if i >= MaxHistoryBits {
		return false
	}
	return v[i/64]>>(i%64)&1 == 1
}

// GlobalHistory is a fixed-width shift register of trusted branch outcomes.
type GlobalHistory struct {
	width uint
	mask  HistoryValue
	value HistoryValue
}

// NewGlobalHistory creates a register holding width bits. Widths outside
// [1, MaxHistoryBits] are clamped.
func NewGlobalHistory(width uint) *GlobalHistory {
	if width == 0 {
		width = 1
	}
	if width > MaxHistoryBits {
		width = MaxHistoryBits
	}

	g := &GlobalHistory{width: width}
	remaining := width
	for i := range g.mask {
		switch {
		case remaining >= 64:
			g.mask[i] = ^uint64(0)
			remaining -= 64
		case remaining > 0:
			g.mask[i] = uint64(1)<<remaining - 1
			remaining = 0
		}
	}

	return g
}

// Width returns the number of bits the register holds.
func (g *GlobalHistory) Width() uint {
	return g.width
}

// Push shifts the register left by one and inserts taken at bit 0. The bit
// shifted past the configured width is dropped.
func (g *GlobalHistory) Push(taken bool) {
	var carry uint64
	if taken {
		carry = 1
	}

	for i := range g.value {
		next := g.value[i] >> 63
		g.value[i] = (g.value[i]<<1 | carry) & g.mask[i]
		carry = next
	}
}

// Value returns a snapshot of the register.
func (g *GlobalHistory) Value() HistoryValue {
	return g.value
}

// Bit returns bit i of the register.
func (g *GlobalHistory) Bit(i uint) bool {
	return g.value.Bit(i)
}

// Reset clears the register.
func (g *GlobalHistory) Reset() {
	g.value = HistoryValue{}
}
