package buffer

import "github.com/vtcore/termhost/pkg/cell"

// History is a bounded FIFO ring of scrolled-off rows. Rows are trimmed of
// trailing default cells before storage, matching the teacher's binary
// serialization convention of marking empty trailing cells rather than
// storing them.
type History struct {
	rows    [][]cell.Cell
	max     int
	start   int
	count   int
}

// NewHistory creates a history ring holding at most maxRows rows.
func NewHistory(maxRows int) *History {
	if maxRows < 0 {
		maxRows = 0
	}
	return &History{rows: make([][]cell.Cell, maxRows), max: maxRows}
}

// Push appends row to the history, trimming trailing default cells and
// evicting the oldest row if the ring is full.
func (h *History) Push(row []cell.Cell) {
	if h.max == 0 {
		return
	}
	trimmed := trimTrailingDefault(row)
	stored := make([]cell.Cell, len(trimmed))
	copy(stored, trimmed)

	idx := (h.start + h.count) % h.max
	if h.count == h.max {
		h.start = (h.start + 1) % h.max
	} else {
		h.count++
	}
	h.rows[idx] = stored
}

func trimTrailingDefault(row []cell.Cell) []cell.Cell {
	end := len(row)
	for end > 0 && row[end-1].IsDefault() {
		end--
	}
	return row[:end]
}

// Len returns the number of rows currently stored.
func (h *History) Len() int { return h.count }

// Row returns the i-th oldest stored row (0 is the oldest).
func (h *History) Row(i int) []cell.Cell {
	if i < 0 || i >= h.count {
		return nil
	}
	return h.rows[(h.start+i)%h.max]
}

// MaxRows returns the configured capacity.
func (h *History) MaxRows() int { return h.max }
