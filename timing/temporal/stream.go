package temporal

import "fmt"

// Cell is one entry of the correctness stream.
type Cell uint8

const (
	// CellUninitialized marks a cell that has never been written.
	CellUninitialized Cell = iota
	// CellCorrect records that the base predictor was right.
	CellCorrect
	// CellWrong records that the base predictor was wrong.
	CellWrong
)

func (c Cell) String() string {
	switch c {
	case CellUninitialized:
		return "uninitialized"
	case CellCorrect:
		return "correct"
	case CellWrong:
		return "wrong"
	default:
		return fmt.Sprintf("Cell(%d)", uint8(c))
	}
}

// Position is an index into the correctness stream.
type Position int

// NoPosition is the sentinel for "no stream position recorded".
const NoPosition Position = -1

// Valid reports whether p refers to a real stream position.
func (p Position) Valid() bool {
	return p >= 0
}

// Stream is a fixed-capacity circular buffer of correctness cells. Tail is
// the next cell to write; head is the replay read cursor.
type Stream struct {
	cells []Cell
	head  Position
	tail  Position
}

// NewStream creates a stream with the given capacity. Capacity must be
// positive.
func NewStream(capacity int) *Stream {
	return &Stream{cells: make([]Cell, capacity)}
}

// Cap returns the number of cells.
func (s *Stream) Cap() int {
	return len(s.cells)
}

// Head returns the read cursor.
func (s *Stream) Head() Position {
	return s.head
}

// Tail returns the write cursor.
func (s *Stream) Tail() Position {
	return s.tail
}

// At returns the cell at pos, wrapping pos into range.
func (s *Stream) At(pos Position) Cell {
	return s.cells[s.wrap(pos)]
}

// Append writes a verdict at tail and advances tail. It returns the
// position written.
func (s *Stream) Append(correct bool) Position {
	written := s.tail
	if correct {
		s.cells[written] = CellCorrect
	} else {
		s.cells[written] = CellWrong
	}
	s.tail = s.advance(written)

	return written
}

// Next reads the cell at head and advances head.
func (s *Stream) Next() Cell {
	c := s.cells[s.head]
	s.head = s.advance(s.head)
	return c
}

// Seek moves head to pos. Invalid positions are ignored.
func (s *Stream) Seek(pos Position) {
	if !pos.Valid() {
		return
	}
	s.head = s.wrap(pos)
}

// Reset clears every cell and both cursors.
func (s *Stream) Reset() {
	for i := range s.cells {
		s.cells[i] = CellUninitialized
	}
	s.head = 0
	s.tail = 0
}

func (s *Stream) advance(p Position) Position {
	return (p + 1) % Position(len(s.cells))
}

func (s *Stream) wrap(p Position) Position {
	n := Position(len(s.cells))
	return ((p % n) + n) % n
}
