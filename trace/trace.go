// Package trace reads and writes branch traces.
//
// A trace is a text file with one branch per line:
//
//	<pc> <kind> [<target> [<thread>]]
//
// pc and target are hexadecimal (with or without 0x), kind is T (taken
// conditional), N (not-taken conditional) or U (unconditional), thread is
// decimal, below bpred.MaxThreads, and defaults to 0. Blank lines and lines
// starting with # are ignored, except for an optional "# insts <n>" header
// giving the dynamic instruction count. Files ending in .gz are
// gzip-compressed.
package trace

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/tspred/timing/bpred"
)

// Kind is the kind of a traced branch.
type Kind uint8

const (
	// Taken is a taken conditional branch.
	Taken Kind = iota
	// NotTaken is a not-taken conditional branch.
	NotTaken
	// Uncond is an unconditional branch.
	Uncond
)

func (k Kind) String() string {
	switch k {
	case Taken:
		return "T"
	case NotTaken:
		return "N"
	case Uncond:
		return "U"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Branch is one dynamic branch.
type Branch struct {
	PC     bpred.Addr
	Kind   Kind
	Target bpred.Addr
	Thread bpred.ThreadID
}

// IsTaken reports whether the branch was taken.
func (b Branch) IsTaken() bool {
	return b.Kind != NotTaken
}

// Trace is a sequence of branches.
type Trace struct {
	// Insts is the dynamic instruction count, if known.
	Insts uint64
	// Branches in program order.
	Branches []Branch
}

// Conditional returns the number of conditional branches.
func (t *Trace) Conditional() int {
	n := 0
	for _, b := range t.Branches {
		if b.Kind != Uncond {
			n++
		}
	}
	return n
}

// Threads returns one more than the highest thread id in the trace.
func (t *Trace) Threads() int {
	n := 0
	for _, b := range t.Branches {
		if int(b.Thread) >= n {
			n = int(b.Thread) + 1
		}
	}
	return n
}

// Load reads a trace file.
func Load(path string) (*Trace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open compressed trace: %w", err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	t, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse reads a trace from r.
func Parse(r io.Reader) (*Trace, error) {
	t := &Trace{}
	scanner := bufio.NewScanner(r)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if err := parseHeader(t, line); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			continue
		}

		b, err := parseBranch(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		t.Branches = append(t.Branches, b)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	return t, nil
}

func parseHeader(t *Trace, line string) error {
	fields := strings.Fields(strings.TrimPrefix(line, "#"))
	if len(fields) != 2 || fields[0] != "insts" {
		return nil
	}

	n, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return fmt.Errorf("bad instruction count %q", fields[1])
	}
	t.Insts = n
	return nil
}

func parseBranch(line string) (Branch, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 || len(fields) > 4 {
		return Branch{}, fmt.Errorf("expected 2 to 4 fields, got %d", len(fields))
	}

	var b Branch

	pc, err := parseAddr(fields[0])
	if err != nil {
		return Branch{}, fmt.Errorf("bad pc %q", fields[0])
	}
	b.PC = pc

	switch strings.ToUpper(fields[1]) {
	case "T":
		b.Kind = Taken
	case "N":
		b.Kind = NotTaken
	case "U":
		b.Kind = Uncond
	default:
		return Branch{}, fmt.Errorf("bad branch kind %q", fields[1])
	}

	if len(fields) >= 3 {
		target, err := parseAddr(fields[2])
		if err != nil {
			return Branch{}, fmt.Errorf("bad target %q", fields[2])
		}
		b.Target = target
	}

	if len(fields) == 4 {
		tid, err := strconv.Atoi(fields[3])
		if err != nil || tid < 0 {
			return Branch{}, fmt.Errorf("bad thread %q", fields[3])
		}
		if tid >= bpred.MaxThreads {
			return Branch{}, fmt.Errorf("thread %d out of range [0, %d)", tid, bpred.MaxThreads)
		}
		b.Thread = bpred.ThreadID(tid)
	}

	return b, nil
}

func parseAddr(s string) (bpred.Addr, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 64)
	return bpred.Addr(v), err
}

// Write writes t in the text format read by Parse.
func Write(w io.Writer, t *Trace) error {
	bw := bufio.NewWriter(w)

	if t.Insts > 0 {
		if _, err := fmt.Fprintf(bw, "# insts %d\n", t.Insts); err != nil {
			return err
		}
	}

	for _, b := range t.Branches {
		var err error
		if b.Thread != 0 {
			_, err = fmt.Fprintf(bw, "%#x %s %#x %d\n", uint64(b.PC), b.Kind, uint64(b.Target), b.Thread)
		} else {
			_, err = fmt.Fprintf(bw, "%#x %s %#x\n", uint64(b.PC), b.Kind, uint64(b.Target))
		}
		if err != nil {
			return err
		}
	}

	return bw.Flush()
}
