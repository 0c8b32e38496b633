// Package buffer implements the live screen grid: a row-indirected matrix of
// cells with O(1) scrolling and per-row dirty tracking, plus a bounded
// scrollback history ring.
package buffer

import "github.com/vtcore/termhost/pkg/cell"

// Grid is the live cols x rows matrix of cells. Rows are stored as a slice
// of row slices rather than one flat array so that scrolling the region is a
// pointer swap, not a memmove of the whole buffer — the same trick the
// teacher's TerminalBuffer.scrollUp relies on ("more efficient than
// allocation").
type Grid struct {
	cols, rows int
	lines      [][]cell.Cell
	dirty      []bool
	anyDirty   bool
}

// NewGrid allocates a cols x rows grid filled with default cells.
func NewGrid(cols, rows int) *Grid {
	g := &Grid{cols: cols, rows: rows}
	g.lines = make([][]cell.Cell, rows)
	for y := range g.lines {
		g.lines[y] = newRow(cols)
	}
	g.dirty = make([]bool, rows)
	return g
}

func newRow(cols int) []cell.Cell {
	row := make([]cell.Cell, cols)
	for i := range row {
		row[i] = cell.Default()
	}
	return row
}

func (g *Grid) Cols() int { return g.cols }
func (g *Grid) Rows() int { return g.rows }

// Row returns the live row slice at y. Callers must not retain it across a
// Resize or ScrollUp/Down, both of which reallocate or swap row pointers.
func (g *Grid) Row(y int) []cell.Cell {
	return g.lines[y]
}

func (g *Grid) Cell(x, y int) cell.Cell {
	return g.lines[y][x]
}

func (g *Grid) SetCell(x, y int, c cell.Cell) {
	g.lines[y][x] = c
	g.markDirty(y)
}

func (g *Grid) markDirty(y int) {
	if y >= 0 && y < len(g.dirty) {
		g.dirty[y] = true
		g.anyDirty = true
	}
}

func (g *Grid) MarkAllDirty() {
	for y := range g.dirty {
		g.dirty[y] = true
	}
	g.anyDirty = true
}

func (g *Grid) AnyDirty() bool { return g.anyDirty }

func (g *Grid) IsDirty(y int) bool { return g.dirty[y] }

// ResetDirty clears the dirty flags; callers must do this only while holding
// whatever lock guards concurrent writers, immediately after taking a
// snapshot, so that no write between snapshot and reset is lost.
func (g *Grid) ResetDirty() {
	for y := range g.dirty {
		g.dirty[y] = false
	}
	g.anyDirty = false
}

// ClearRow resets row y to default cells.
func (g *Grid) ClearRow(y int) {
	g.lines[y] = newRow(g.cols)
	g.markDirty(y)
}

// ClearRowFrom resets columns [x, cols) of row y to default cells.
func (g *Grid) ClearRowFrom(y, x int) {
	row := g.lines[y]
	for i := x; i < len(row); i++ {
		row[i] = cell.Default()
	}
	g.markDirty(y)
}

// ClearRowTo resets columns [0, x] of row y to default cells.
func (g *Grid) ClearRowTo(y, x int) {
	row := g.lines[y]
	for i := 0; i <= x && i < len(row); i++ {
		row[i] = cell.Default()
	}
	g.markDirty(y)
}

// ScrollUp shifts rows [top, bottom] up by n, discarding the top n rows and
// filling the bottom n with default cells. If history is non-nil, the
// discarded rows are pushed into it first. Implemented via row-pointer
// rotation, matching the teacher's scrollUp comment about avoiding
// reallocation.
func (g *Grid) ScrollUp(top, bottom, n int, history *History) {
	if n <= 0 {
		return
	}
	region := bottom - top + 1
	if n > region {
		n = region
	}
	if history != nil {
		for i := 0; i < n; i++ {
			history.Push(g.lines[top+i])
		}
	}
	// rotate: move the surviving rows up, recycle the vacated ones at the
	// bottom of the region as fresh blank rows.
	freed := make([][]cell.Cell, n)
	copy(freed, g.lines[top:top+n])
	copy(g.lines[top:bottom+1-n], g.lines[top+n:bottom+1])
	for i := 0; i < n; i++ {
		row := freed[i]
		for j := range row {
			row[j] = cell.Default()
		}
		g.lines[bottom+1-n+i] = row
	}
	for y := top; y <= bottom; y++ {
		g.markDirty(y)
	}
}

// ScrollDown shifts rows [top, bottom] down by n, discarding the bottom n
// rows and filling the top n with default cells.
func (g *Grid) ScrollDown(top, bottom, n int) {
	if n <= 0 {
		return
	}
	region := bottom - top + 1
	if n > region {
		n = region
	}
	freed := make([][]cell.Cell, n)
	copy(freed, g.lines[bottom+1-n:bottom+1])
	copy(g.lines[top+n:bottom+1], g.lines[top:bottom+1-n])
	for i := 0; i < n; i++ {
		row := freed[i]
		for j := range row {
			row[j] = cell.Default()
		}
		g.lines[top+i] = row
	}
	for y := top; y <= bottom; y++ {
		g.markDirty(y)
	}
}

// Resize reallocates the grid to the new dimensions, copying the overlapping
// top-left region and marking everything dirty. Cursor clamping is the
// caller's responsibility (the terminal state machine owns the cursor).
func (g *Grid) Resize(cols, rows int) {
	newLines := make([][]cell.Cell, rows)
	for y := 0; y < rows; y++ {
		row := newRow(cols)
		if y < len(g.lines) {
			n := cols
			if len(g.lines[y]) < n {
				n = len(g.lines[y])
			}
			copy(row, g.lines[y][:n])
		}
		newLines[y] = row
	}
	g.lines = newLines
	g.cols = cols
	g.rows = rows
	g.dirty = make([]bool, rows)
	g.MarkAllDirty()
}
