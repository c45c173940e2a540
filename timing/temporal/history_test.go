package temporal_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tspred/timing/temporal"
)

var _ = Describe("GlobalHistory", func() {
	It("should insert at bit 0", func() {
		g := temporal.NewGlobalHistory(8)
		g.Push(true)
		g.Push(false)
		Expect(g.Bit(0)).To(BeFalse())
		Expect(g.Bit(1)).To(BeTrue())
		Expect(g.Value()[0]).To(Equal(uint64(0b10)))
	})

	It("should carry bits across words", func() {
		g := temporal.NewGlobalHistory(140)
		g.Push(true)
		for i := 0; i < 64; i++ {
			g.Push(false)
		}
		Expect(g.Value()[0]).To(Equal(uint64(0)))
		Expect(g.Value()[1]).To(Equal(uint64(1)))
		Expect(g.Bit(64)).To(BeTrue())
	})

	It("should drop bits past the configured width", func() {
		g := temporal.NewGlobalHistory(140)
		g.Push(true)
		for i := 0; i < 139; i++ {
			g.Push(false)
		}
		Expect(g.Bit(139)).To(BeTrue())

		g.Push(false)
		Expect(g.Value()).To(Equal(temporal.HistoryValue{}))
	})

	It("should clamp widths to the supported range", func() {
		Expect(temporal.NewGlobalHistory(0).Width()).To(Equal(uint(1)))
		Expect(temporal.NewGlobalHistory(500).Width()).To(Equal(uint(temporal.MaxHistoryBits)))
	})

	It("should reset to zero", func() {
		g := temporal.NewGlobalHistory(16)
		g.Push(true)
		g.Reset()
		Expect(g.Value()).To(Equal(temporal.HistoryValue{}))
	})
})
