package bpred_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tspred/timing/bpred"
)

// resolve runs a lookup followed by a non-squashed update.
func resolve(p bpred.Predictor, pc bpred.Addr, taken bool, target bpred.Addr) bool {
	pred, h := p.Lookup(0, pc)
	p.Update(0, pc, taken, h, false, bpred.StaticInst{PC: pc}, target)
	return pred
}

var _ = Describe("Bimodal", func() {
	var bp *bpred.Bimodal

	BeforeEach(func() {
		bp = bpred.NewBimodal(bpred.BimodalConfig{
			BHTSize: 16,
			BTBSize: 8,
		})
	})

	Describe("Prediction", func() {
		It("should initially predict taken (biased)", func() {
			taken, _ := bp.Lookup(0, 0x1000)
			Expect(taken).To(BeTrue())
		})

		It("should not know target initially", func() {
			_, known := bp.Target(0x1000)
			Expect(known).To(BeFalse())
		})

		It("should learn branch patterns", func() {
			pc := bpred.Addr(0x1000)
			target := bpred.Addr(0x2000)

			for i := 0; i < 10; i++ {
				resolve(bp, pc, true, target)
			}

			taken, _ := bp.Lookup(0, pc)
			Expect(taken).To(BeTrue())
			got, known := bp.Target(pc)
			Expect(known).To(BeTrue())
			Expect(got).To(Equal(target))
		})

		It("should learn not-taken pattern", func() {
			pc := bpred.Addr(0x1000)

			for i := 0; i < 10; i++ {
				resolve(bp, pc, false, 0)
			}

			taken, _ := bp.Lookup(0, pc)
			Expect(taken).To(BeFalse())
		})
	})

	Describe("2-bit saturating counter", func() {
		It("should require 2 mispredictions to change direction", func() {
			pc := bpred.Addr(0x1000)
			target := bpred.Addr(0x2000)

			// Saturate at strongly taken
			resolve(bp, pc, true, target)
			resolve(bp, pc, true, target)
			resolve(bp, pc, true, target)

			// One not-taken -> still predicts taken (at 2)
			resolve(bp, pc, false, 0)
			taken, _ := bp.Lookup(0, pc)
			Expect(taken).To(BeTrue())

			// Another not-taken -> now predicts not taken (at 1)
			resolve(bp, pc, false, 0)
			taken, _ = bp.Lookup(0, pc)
			Expect(taken).To(BeFalse())
		})

		It("should not train on squashed updates", func() {
			pc := bpred.Addr(0x1000)
			for i := 0; i < 4; i++ {
				_, h := bp.Lookup(0, pc)
				bp.Update(0, pc, false, h, true, bpred.StaticInst{}, 0)
			}

			taken, _ := bp.Lookup(0, pc)
			Expect(taken).To(BeTrue())
			Expect(bp.Stats().Mispredictions).To(Equal(uint64(0)))
		})
	})

	Describe("BTB", func() {
		It("should not cache not-taken branches", func() {
			resolve(bp, 0x1000, false, 0x2000)

			_, known := bp.Target(0x1000)
			Expect(known).To(BeFalse())
		})

		It("should handle BTB conflicts correctly", func() {
			bp = bpred.NewBimodal(bpred.BimodalConfig{
				BHTSize: 16,
				BTBSize: 4, // Small BTB for easy conflicts
			})

			pc1 := bpred.Addr(0x1000)
			target1 := bpred.Addr(0x2000)
			// pc2 conflicts with pc1 (same BTB index)
			pc2 := bpred.Addr(0x1000 + 4*4)
			target2 := bpred.Addr(0x3000)

			resolve(bp, pc1, true, target1)
			got, known := bp.Target(pc1)
			Expect(known).To(BeTrue())
			Expect(got).To(Equal(target1))

			resolve(bp, pc2, true, target2)
			got, known = bp.Target(pc2)
			Expect(known).To(BeTrue())
			Expect(got).To(Equal(target2))

			_, known = bp.Target(pc1)
			Expect(known).To(BeFalse())
		})

		It("should train the BTB on unconditional branches", func() {
			h := bp.UncondBranch(0, 0x1000)
			bp.Update(0, 0x1000, true, h, false, bpred.StaticInst{IsUncond: true}, 0x4000)

			got, known := bp.Target(0x1000)
			Expect(known).To(BeTrue())
			Expect(got).To(Equal(bpred.Addr(0x4000)))
			Expect(bp.Stats().Correct).To(Equal(uint64(0)))
		})
	})

	Describe("Statistics", func() {
		It("should compute accuracy correctly", func() {
			pc := bpred.Addr(0x1000)
			target := bpred.Addr(0x2000)

			// Counter starts at weakly taken
			resolve(bp, pc, true, target)
			resolve(bp, pc, true, target)
			resolve(bp, pc, true, target)
			resolve(bp, pc, false, 0)

			stats := bp.Stats()
			Expect(stats.Predictions).To(Equal(uint64(4)))
			Expect(stats.Correct).To(Equal(uint64(3)))
			Expect(stats.Mispredictions).To(Equal(uint64(1)))
			Expect(stats.Accuracy()).To(BeNumerically("~", 75.0, 0.1))
			Expect(stats.MispredictionRate()).To(BeNumerically("~", 25.0, 0.1))
		})

		It("should track BTB hits and misses", func() {
			bp.Target(0x1000)
			resolve(bp, 0x1000, true, 0x2000)
			bp.Target(0x1000)

			stats := bp.Stats()
			Expect(stats.BTBHits).To(Equal(uint64(1)))
			Expect(stats.BTBMisses).To(Equal(uint64(1)))
			Expect(stats.BTBHitRate()).To(BeNumerically("~", 50.0, 0.1))
		})

		It("should report zero rates with no data", func() {
			stats := bpred.Stats{}
			Expect(stats.Accuracy()).To(Equal(0.0))
			Expect(stats.MispredictionRate()).To(Equal(0.0))
			Expect(stats.BTBHitRate()).To(Equal(0.0))
		})
	})

	Describe("Reset", func() {
		It("should clear all state", func() {
			resolve(bp, 0x1000, true, 0x2000)
			bp.Reset()

			Expect(bp.Stats()).To(Equal(bpred.Stats{}))
			_, known := bp.Target(0x1000)
			Expect(known).To(BeFalse())
		})
	})

	Describe("Configuration", func() {
		It("should use sensible defaults", func() {
			config := bpred.DefaultBimodalConfig()
			Expect(config.BHTSize).To(Equal(uint32(1024)))
			Expect(config.BTBSize).To(Equal(uint32(256)))
		})

		It("should fall back to defaults for sizes that are not powers of 2", func() {
			bp = bpred.NewBimodal(bpred.BimodalConfig{BHTSize: 12, BTBSize: 0})
			taken, _ := bp.Lookup(0, 0xFFFC)
			Expect(taken).To(BeTrue())
		})
	})
})
