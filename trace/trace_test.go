package trace_test

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/tspred/timing/bpred"
	"github.com/sarchlab/tspred/trace"
)

var _ = Describe("Trace", func() {
	Describe("Parse", func() {
		It("should parse branches, comments and the instruction header", func() {
			src := `# insts 1000
# a loop
0x1000 T 0x0ff0
1000 n

0x2000 U 0x3000 1
`
			t, err := trace.Parse(strings.NewReader(src))
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Insts).To(Equal(uint64(1000)))
			Expect(t.Branches).To(Equal([]trace.Branch{
				{PC: 0x1000, Kind: trace.Taken, Target: 0xff0},
				{PC: 0x1000, Kind: trace.NotTaken},
				{PC: 0x2000, Kind: trace.Uncond, Target: 0x3000, Thread: 1},
			}))
			Expect(t.Conditional()).To(Equal(2))
			Expect(t.Threads()).To(Equal(2))
		})

		It("should report the line of a bad branch kind", func() {
			_, err := trace.Parse(strings.NewReader("0x1000 T\n0x1004 X\n"))
			Expect(err).To(MatchError(ContainSubstring("line 2")))
			Expect(err).To(MatchError(ContainSubstring(`bad branch kind "X"`)))
		})

		It("should reject bad addresses", func() {
			_, err := trace.Parse(strings.NewReader("zzz T\n"))
			Expect(err).To(MatchError(ContainSubstring("bad pc")))

			_, err = trace.Parse(strings.NewReader("0x10 T qq\n"))
			Expect(err).To(MatchError(ContainSubstring("bad target")))
		})

		It("should reject bad thread ids", func() {
			_, err := trace.Parse(strings.NewReader("0x10 T 0x20 -1\n"))
			Expect(err).To(MatchError(ContainSubstring("bad thread")))
		})

		It("should reject thread ids beyond the supported thread count", func() {
			_, err := trace.Parse(strings.NewReader("0x100 T 0x200\n0x100 T 0x200 1099511627776\n"))
			Expect(err).To(MatchError(ContainSubstring("line 2")))
			Expect(err).To(MatchError(ContainSubstring("out of range")))

			t, err := trace.Parse(strings.NewReader(fmt.Sprintf("0x100 T 0x200 %d\n", bpred.MaxThreads-1)))
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Threads()).To(Equal(bpred.MaxThreads))
		})

		It("should reject lines with the wrong number of fields", func() {
			_, err := trace.Parse(strings.NewReader("0x10\n"))
			Expect(err).To(MatchError(ContainSubstring("expected 2 to 4 fields")))
		})

		It("should reject a bad instruction count", func() {
			_, err := trace.Parse(strings.NewReader("# insts many\n"))
			Expect(err).To(MatchError(ContainSubstring("bad instruction count")))
		})

		It("should ignore other comments", func() {
			t, err := trace.Parse(strings.NewReader("# generated by hand\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Branches).To(BeEmpty())
			Expect(t.Threads()).To(Equal(0))
		})
	})

	Describe("Write", func() {
		It("should produce text that parses back", func() {
			orig := &trace.Trace{
				Insts: 42,
				Branches: []trace.Branch{
					{PC: 0x1000, Kind: trace.Taken, Target: 0x1100},
					{PC: 0x1004, Kind: trace.NotTaken},
					{PC: 0x1008, Kind: trace.Uncond, Target: 0x2000, Thread: 3},
				},
			}

			var buf bytes.Buffer
			Expect(trace.Write(&buf, orig)).To(Succeed())
			Expect(buf.String()).To(HavePrefix("# insts 42\n0x1000 T 0x1100\n"))

			got, err := trace.Parse(&buf)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(orig))
		})
	})

	Describe("Load", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("should load a plain trace file", func() {
			path := filepath.Join(dir, "loop.trace")
			Expect(os.WriteFile(path, []byte("0x40 T 0x20\n0x40 N\n"), 0644)).To(Succeed())

			t, err := trace.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Branches).To(HaveLen(2))
			Expect(t.Branches[0].IsTaken()).To(BeTrue())
			Expect(t.Branches[1].IsTaken()).To(BeFalse())
		})

		It("should load a gzip-compressed trace file", func() {
			var buf bytes.Buffer
			gz := gzip.NewWriter(&buf)
			_, err := gz.Write([]byte("0x40 U 0x80\n"))
			Expect(err).NotTo(HaveOccurred())
			Expect(gz.Close()).To(Succeed())

			path := filepath.Join(dir, "call.trace.gz")
			Expect(os.WriteFile(path, buf.Bytes(), 0644)).To(Succeed())

			t, err := trace.Load(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(t.Branches).To(Equal([]trace.Branch{
				{PC: 0x40, Kind: trace.Uncond, Target: bpred.Addr(0x80)},
			}))
		})

		It("should name the file in parse errors", func() {
			path := filepath.Join(dir, "bad.trace")
			Expect(os.WriteFile(path, []byte("0x40 Q\n"), 0644)).To(Succeed())

			_, err := trace.Load(path)
			Expect(err).To(MatchError(ContainSubstring("bad.trace: line 1")))
		})

		It("should fail on a missing file", func() {
			_, err := trace.Load(filepath.Join(dir, "missing.trace"))
			Expect(err).To(MatchError(ContainSubstring("failed to open trace file")))
		})
	})
})
