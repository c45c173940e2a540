package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tspred/timing/bpred"
	"github.com/sarchlab/tspred/timing/config"
	"github.com/sarchlab/tspred/timing/temporal"
)

var _ = Describe("Config", func() {
	var c *config.Config

	BeforeEach(func() {
		c = config.Default()
	})

	Describe("Defaults", func() {
		It("should wrap a bi-mode predictor", func() {
			Expect(c.Base).To(Equal("bimode"))
			Expect(c.BufferCapacity).To(Equal(8192))
			Expect(c.HistoryBits).To(Equal(uint(140)))
			Expect(c.Threads).To(Equal(1))
			Expect(c.HeadTable).To(Equal(config.HeadTableConfig{}))
		})

		It("should validate", func() {
			Expect(c.Validate()).To(Succeed())
		})
	})

	Describe("Validation", func() {
		It("should reject a non-positive buffer capacity", func() {
			c.BufferCapacity = 0
			Expect(c.Validate()).To(MatchError(ContainSubstring("buffer_capacity")))
		})

		It("should reject unknown base predictors", func() {
			c.Base = "oracle"
			Expect(c.Validate()).To(MatchError(ContainSubstring("unknown base predictor")))
		})

		It("should reject history widths out of range", func() {
			c.HistoryBits = 300
			Expect(c.Validate()).To(MatchError(ContainSubstring("history_bits")))
		})

		It("should reject zero threads", func() {
			c.Threads = 0
			Expect(c.Validate()).To(MatchError(ContainSubstring("threads")))
		})

		It("should reject more threads than supported", func() {
			c.Threads = bpred.MaxThreads + 1
			Expect(c.Validate()).To(MatchError(ContainSubstring("threads")))

			c.Threads = bpred.MaxThreads
			Expect(c.Validate()).To(Succeed())
		})

		It("should reject half-specified head tables", func() {
			c.HeadTable.Ways = 4
			Expect(c.Validate()).To(MatchError(ContainSubstring("head_table")))
		})

		It("should reject table sizes that are not powers of 2", func() {
			c.BiMode.GlobalSize = 1000
			Expect(c.Validate()).To(MatchError(ContainSubstring("bimode")))
		})
	})

	Describe("Build", func() {
		It("should build a predictor around the named base", func() {
			c.Base = "bimodal"
			c.BufferCapacity = 64
			c.Threads = 2
			c.HeadTable = config.HeadTableConfig{Sets: 16, Ways: 4}

			p, err := c.Build()
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Capacity()).To(Equal(64))
			Expect(p.Base()).To(BeAssignableToTypeOf(&bpred.Bimodal{}))

			taken, rec := p.Lookup(1, 0x1000)
			Expect(taken).To(BeTrue())
			Expect(p.Update(1, 0x1000, true, rec, false, bpred.StaticInst{}, 0x2000)).To(Succeed())
			Expect(p.Tail()).To(Equal(temporal.Position(1)))
		})

		It("should refuse an invalid config", func() {
			c.BufferCapacity = -1
			_, err := c.Build()
			Expect(err).To(MatchError(ContainSubstring("invalid predictor config")))
		})
	})

	Describe("Files", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "config-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should round-trip through JSON", func() {
			c.BufferCapacity = 1024
			c.HeadTable = config.HeadTableConfig{Sets: 64, Ways: 8}
			path := filepath.Join(tempDir, "predictor.json")

			Expect(c.Save(path)).To(Succeed())
			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(c))
		})

		It("should round-trip through YAML", func() {
			c.Base = "bimodal"
			c.HistoryBits = 32
			path := filepath.Join(tempDir, "predictor.yaml")

			Expect(c.Save(path)).To(Succeed())
			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(c))
		})

		It("should keep defaults for missing fields", func() {
			path := filepath.Join(tempDir, "partial.yml")
			Expect(os.WriteFile(path, []byte("buffer_capacity: 16\n"), 0644)).To(Succeed())

			loaded, err := config.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.BufferCapacity).To(Equal(16))
			Expect(loaded.Base).To(Equal("bimode"))
			Expect(loaded.HistoryBits).To(Equal(uint(140)))
		})

		It("should fail on a missing file", func() {
			_, err := config.Load("/nonexistent/path/predictor.json")
			Expect(err).To(HaveOccurred())
		})

		It("should fail on malformed JSON", func() {
			path := filepath.Join(tempDir, "bad.json")
			Expect(os.WriteFile(path, []byte("not valid json"), 0644)).To(Succeed())

			_, err := config.Load(path)
			Expect(err).To(MatchError(ContainSubstring("failed to parse")))
		})
	})
})
