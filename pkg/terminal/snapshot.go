package terminal

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/vtcore/termhost/pkg/cell"
)

// snapshotMagic identifies the binary snapshot wire format, matching the
// teacher's "VT" magic for its own buffer serialization.
var snapshotMagic = [2]byte{'V', 'T'}

const snapshotVersion = 1

const (
	rowMarkerEmpty   byte = 0xfe
	rowMarkerContent byte = 0xfd
)

// BufferSnapshot is a point-in-time, render-ready copy of a terminal's
// visible grid plus cursor/title metadata. Emulator.Snapshot builds one
// under the priority lock so the renderer never observes a torn frame.
type BufferSnapshot struct {
	Cols, Rows    int
	CursorX       int
	CursorY       int
	CursorVisible bool
	Title         string

	// Cells holds the full grid content when IsIncremental is false, or
	// only the rows named by ChangedRows (in the same order) when true.
	Cells [][]cell.Cell
	ChangedRows   []int
	IsIncremental bool
	ChangeFlags   ChangeFlag
	SequenceID    uint64
}

// newFullSnapshot copies every row of the active grid.
func newFullSnapshot(s *State) *BufferSnapshot {
	g := s.activeGrid()
	rows := make([][]cell.Cell, g.Rows())
	for y := 0; y < g.Rows(); y++ {
		row := g.Row(y)
		cp := make([]cell.Cell, len(row))
		copy(cp, row)
		rows[y] = cp
	}
	return &BufferSnapshot{
		Cols:          g.Cols(),
		Rows:          g.Rows(),
		CursorX:       s.cur.X,
		CursorY:       s.cur.Y,
		CursorVisible: s.cur.Visible,
		Title:         s.title,
		Cells:         rows,
		IsIncremental: false,
		ChangeFlags:   s.changeFlags,
		SequenceID:    s.sequenceID,
	}
}

// newIncrementalSnapshot copies only the rows the grid has marked dirty.
func newIncrementalSnapshot(s *State) *BufferSnapshot {
	g := s.activeGrid()
	var rows [][]cell.Cell
	var changed []int
	for y := 0; y < g.Rows(); y++ {
		if !g.IsDirty(y) {
			continue
		}
		row := g.Row(y)
		cp := make([]cell.Cell, len(row))
		copy(cp, row)
		rows = append(rows, cp)
		changed = append(changed, y)
	}
	return &BufferSnapshot{
		Cols:          g.Cols(),
		Rows:          g.Rows(),
		CursorX:       s.cur.X,
		CursorY:       s.cur.Y,
		CursorVisible: s.cur.Visible,
		Title:         s.title,
		Cells:         rows,
		ChangedRows:   changed,
		IsIncremental: true,
		ChangeFlags:   s.changeFlags,
		SequenceID:    s.sequenceID,
	}
}

// SerializeToBinary encodes the snapshot into the compact row-trimmed wire
// format transport consumers (pkg/termsocket, pkg/api) send over the
// websocket. Each row is either a single empty marker byte or a content
// marker followed by a uint16 cell count and that many 16-byte cells,
// trailing default cells having been trimmed — the same "mostly blank rows
// cost one byte" strategy the teacher's SerializeToBinary uses, adapted to
// this package's wider Cell.
func (b *BufferSnapshot) SerializeToBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(snapshotMagic[:])
	buf.WriteByte(snapshotVersion)
	flags := byte(0)
	if b.IsIncremental {
		flags |= 1
	}
	if b.CursorVisible {
		flags |= 2
	}
	buf.WriteByte(flags)

	writeU32 := func(v uint32) { _ = binary.Write(&buf, binary.BigEndian, v) }
	writeU32(uint32(b.Cols))
	writeU32(uint32(b.Rows))
	writeU32(uint32(b.CursorX))
	writeU32(uint32(b.CursorY))
	writeU32(uint32(b.ChangeFlags))
	_ = binary.Write(&buf, binary.BigEndian, b.SequenceID)

	titleBytes := []byte(b.Title)
	if len(titleBytes) > 0xffff {
		return nil, fmt.Errorf("title too long to serialize: %d bytes", len(titleBytes))
	}
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(titleBytes)))
	buf.Write(titleBytes)

	if b.IsIncremental {
		_ = binary.Write(&buf, binary.BigEndian, uint16(len(b.ChangedRows)))
		for _, y := range b.ChangedRows {
			_ = binary.Write(&buf, binary.BigEndian, uint16(y))
		}
	}

	for _, row := range b.Cells {
		trimmed := trimTrailingDefaultCells(row)
		if len(trimmed) == 0 {
			buf.WriteByte(rowMarkerEmpty)
			continue
		}
		buf.WriteByte(rowMarkerContent)
		_ = binary.Write(&buf, binary.BigEndian, uint16(len(trimmed)))
		for _, c := range trimmed {
			raw := c.Bytes()
			buf.Write(raw[:])
		}
	}
	return buf.Bytes(), nil
}

func trimTrailingDefaultCells(row []cell.Cell) []cell.Cell {
	end := len(row)
	for end > 0 && row[end-1].IsDefault() {
		end--
	}
	return row[:end]
}
