package temporal_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tspred/timing/temporal"
)

var _ = Describe("Stream", func() {
	var s *temporal.Stream

	BeforeEach(func() {
		s = temporal.NewStream(3)
	})

	It("should write at tail, then advance", func() {
		Expect(s.Append(true)).To(Equal(temporal.Position(0)))
		Expect(s.Append(false)).To(Equal(temporal.Position(1)))
		Expect(s.Tail()).To(Equal(temporal.Position(2)))
		Expect(s.At(0)).To(Equal(temporal.CellCorrect))
		Expect(s.At(1)).To(Equal(temporal.CellWrong))
		Expect(s.At(2)).To(Equal(temporal.CellUninitialized))
	})

	It("should wrap both cursors", func() {
		for i := 0; i < 4; i++ {
			s.Append(false)
		}
		Expect(s.Tail()).To(Equal(temporal.Position(1)))

		s.Seek(2)
		Expect(s.Next()).To(Equal(temporal.CellWrong))
		Expect(s.Head()).To(Equal(temporal.Position(0)))
	})

	It("should ignore seeks to the sentinel", func() {
		s.Seek(1)
		s.Seek(temporal.NoPosition)
		Expect(s.Head()).To(Equal(temporal.Position(1)))
	})

	It("should wrap positions passed to At", func() {
		s.Append(true)
		Expect(s.At(3)).To(Equal(temporal.CellCorrect))
		Expect(s.At(-3)).To(Equal(temporal.CellCorrect))
	})

	It("should reset cells and cursors", func() {
		s.Append(true)
		s.Seek(2)
		s.Reset()
		Expect(s.Head()).To(Equal(temporal.Position(0)))
		Expect(s.Tail()).To(Equal(temporal.Position(0)))
		Expect(s.At(0)).To(Equal(temporal.CellUninitialized))
	})

	It("should name its cells", func() {
		Expect(temporal.CellWrong.String()).To(Equal("wrong"))
		Expect(temporal.Cell(9).String()).To(Equal("Cell(9)"))
	})
})
