package console

import (
	"sync"

	"teaos/pkg/grid"
)

const (
	ScreenCols = 80
	ScreenRows = 25
)

// Cell is one character position of the text screen.
type Cell struct {
	Char     byte
	Severity Severity
}

// Screen is a VGA-style text buffer. Lines are wrapped at ScreenCols and
// the buffer scrolls up once the last row is used.
type Screen struct {
	mu    sync.Mutex
	cells [ScreenCols * ScreenRows]Cell
	row   int
}

func NewScreen() *Screen {
	s := &Screen{}
	s.Clear()
	return s
}

func (s *Screen) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cells {
		s.cells[i] = Cell{Char: ' '}
	}
	s.row = 0
}

func (s *Screen) Println(text string, sev Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		n := len(text)
		if n > ScreenCols {
			n = ScreenCols
		}
		s.putRow(text[:n], sev)
		text = text[n:]
		if text == "" {
			return
		}
	}
}

func (s *Screen) putRow(text string, sev Severity) {
	if s.row == ScreenRows {
		copy(s.cells[:], s.cells[ScreenCols:])
		s.row--
	}
	for x := 0; x < ScreenCols; x++ {
		c := Cell{Char: ' ', Severity: sev}
		if x < len(text) {
			c.Char = printable(text[x])
		}
		s.cells[grid.Index(x, s.row, ScreenCols)] = c
	}
	s.row++
}

func printable(c byte) byte {
	if c < 0x20 || c > 0x7E {
		return '?'
	}
	return c
}

// Cells returns a copy of the buffer in row-major order.
func (s *Screen) Cells() []Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Cell, len(s.cells))
	copy(out, s.cells[:])
	return out
}

// Row returns the text of row y with trailing blanks removed.
func (s *Screen) Row(y int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if y < 0 || y >= ScreenRows {
		return ""
	}
	buf := make([]byte, ScreenCols)
	end := 0
	for x := 0; x < ScreenCols; x++ {
		buf[x] = s.cells[grid.Index(x, y, ScreenCols)].Char
		if buf[x] != ' ' {
			end = x + 1
		}
	}
	return string(buf[:end])
}

// CursorRow is the row the next line will be written to.
func (s *Screen) CursorRow() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.row
}
