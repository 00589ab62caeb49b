package garden

import (
	"errors"
	"fmt"
)

// Default raised bed size
const (
	DefaultRows = 4
	DefaultCols = 6
)

var ErrOutOfBounds = errors.New("cell out of bounds")

// Layout is a raised bed grid. Each cell is empty ("") or holds a crop name.
// A Layout is not safe for concurrent use; the owning session serializes access.
type Layout struct {
	rows, cols int
	cells      [][]string
}

// Cell is an occupied position in a layout
type Cell struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Crop string `json:"crop"`
}

// NewLayout creates an empty rows x cols layout
func NewLayout(rows, cols int) *Layout {
	if rows < 1 {
		rows = DefaultRows
	}
	if cols < 1 {
		cols = DefaultCols
	}
	l := &Layout{rows: rows, cols: cols}
	l.Reset()
	return l
}

// LayoutFromGrid builds a layout from a rectangular grid
func LayoutFromGrid(grid [][]string) (*Layout, error) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil, errors.New("empty grid")
	}
	l := NewLayout(len(grid), len(grid[0]))
	for r, row := range grid {
		if len(row) != l.cols {
			return nil, fmt.Errorf("row %d: got %d cells, want %d", r, len(row), l.cols)
		}
		copy(l.cells[r], row)
	}
	return l, nil
}

func (l *Layout) Rows() int { return l.rows }
func (l *Layout) Cols() int { return l.cols }

func (l *Layout) check(row, col int) error {
	if row < 0 || row >= l.rows || col < 0 || col >= l.cols {
		return fmt.Errorf("%w: (%d,%d) in %dx%d bed", ErrOutOfBounds, row, col, l.rows, l.cols)
	}
	return nil
}

// Place puts crop into a cell, replacing whatever was there
func (l *Layout) Place(row, col int, crop string) error {
	if err := l.check(row, col); err != nil {
		return err
	}
	l.cells[row][col] = crop
	return nil
}

// ClearCell empties a single cell
func (l *Layout) ClearCell(row, col int) error {
	return l.Place(row, col, "")
}

// Cell returns the crop in a cell, "" when empty
func (l *Layout) Cell(row, col int) (string, error) {
	if err := l.check(row, col); err != nil {
		return "", err
	}
	return l.cells[row][col], nil
}

// Reset empties every cell
func (l *Layout) Reset() {
	l.cells = make([][]string, l.rows)
	for r := range l.cells {
		l.cells[r] = make([]string, l.cols)
	}
}

// Grid returns a copy of the cells
func (l *Layout) Grid() [][]string {
	out := make([][]string, l.rows)
	for r := range l.cells {
		out[r] = append([]string(nil), l.cells[r]...)
	}
	return out
}

// Occupied lists the non-empty cells in row-major order
func (l *Layout) Occupied() []Cell {
	var out []Cell
	for r, row := range l.cells {
		for c, crop := range row {
			if crop != "" {
				out = append(out, Cell{Row: r, Col: c, Crop: crop})
			}
		}
	}
	return out
}

// Clone returns an independent copy of the layout
func (l *Layout) Clone() *Layout {
	return &Layout{rows: l.rows, cols: l.cols, cells: l.Grid()}
}
