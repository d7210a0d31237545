package render

import (
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const fullBlock = "█"

// TermSurface is a character grid where each cell is one pixel.
type TermSurface struct {
	mu    sync.RWMutex
	cols  int
	rows  int
	cells [][]string
}

// NewTermSurface creates a grid surface of cols x rows cells.
func NewTermSurface(cols, rows int) *TermSurface {
	s := &TermSurface{cols: cols, rows: rows}
	s.cells = makeCells(cols, rows)
	return s
}

func makeCells(cols, rows int) [][]string {
	cells := make([][]string, rows)
	for i := range cells {
		cells[i] = make([]string, cols)
	}
	return cells
}

func (s *TermSurface) Box() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cols, s.rows
}

// SetBox changes the on-screen box, e.g. after the terminal is resized. It
// takes effect for the next session that binds the surface.
func (s *TermSurface) SetBox(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cols, s.rows = cols, rows
}

func (s *TermSurface) Resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells = makeCells(width, height)
}

func (s *TermSurface) Paint(fn func(Canvas)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(termCanvas{cells: s.cells})
}

// String renders the grid with each filled cell coloured by its gradient
// stop. Runs of the same colour share one style.
func (s *TermSurface) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b strings.Builder
	for i, row := range s.cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j := 0; j < len(row); {
			k := j
			for k < len(row) && row[k] == row[j] {
				k++
			}
			if row[j] == "" {
				b.WriteString(strings.Repeat(" ", k-j))
			} else {
				style := lipgloss.NewStyle().Foreground(lipgloss.Color(row[j]))
				b.WriteString(style.Render(strings.Repeat(fullBlock, k-j)))
			}
			j = k
		}
	}
	return b.String()
}

// Filled counts painted cells.
func (s *TermSurface) Filled() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, row := range s.cells {
		for _, c := range row {
			if c != "" {
				n++
			}
		}
	}
	return n
}

type termCanvas struct {
	cells [][]string
}

func (c termCanvas) Clear() {
	for _, row := range c.cells {
		clear(row)
	}
}

func (c termCanvas) FillRect(x, y, w, h float64, g Gradient) {
	if len(c.cells) == 0 {
		return
	}
	x0, x1 := span(x, w, len(c.cells[0]))
	y0, y1 := span(y, h, len(c.cells))

	for py := y0; py < y1; py++ {
		hex := g.At(float64(py) + 0.5).Hex()
		for px := x0; px < x1; px++ {
			c.cells[py][px] = hex
		}
	}
}
