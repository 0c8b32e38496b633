// Package terminal implements the VT100/ANSI/xterm-256color state machine:
// grid mutation driven by a CSI/OSC/SGR parser, plus the Emulator façade
// that wires a PTY host to that state machine for external consumers.
package terminal

import (
	"github.com/vtcore/termhost/internal/synclock"
	"github.com/vtcore/termhost/pkg/buffer"
	"github.com/vtcore/termhost/pkg/cell"
	"github.com/vtcore/termhost/pkg/palette"
)

// ModeFlag is a bitmask of the terminal modes that affect input/output
// interpretation (as opposed to rendering attributes, which live on Cell).
type ModeFlag uint32

const (
	ModeAppCursorKeys ModeFlag = 1 << iota // DECCKM
	ModeAppKeypad                          // DECKPAM / DECKPNM
	ModeInsert                             // IRM
	ModeOriginMode                         // DECOM
	ModeBracketedPaste
	ModeMouseNormal     // 1000
	ModeMouseButtonEvt  // 1002
	ModeMouseAny        // 1003
	ModeMouseSGR        // 1006
	ModeMouseUTF8       // 1005
	ModeFocusReporting  // 1004
	ModeAltScreen       // 47/1049
	ModeAltScreenCursor // 1049 also saves/restores cursor
)

// Autowrap (DECAWM) is intentionally not a ModeFlag: it is always enabled
// and CSI ?7l is accepted but ignored, matching the source engine this is
// grounded on, which logs the attempt and refuses to honor it.

// Cursor is the terminal's cursor position plus the SGR template new cells
// are stamped with.
type Cursor struct {
	X, Y     int
	Attr     cell.Cell // codepoint ignored; carries fg/bg/attrs/font template
	Visible  bool
	pendWrap bool // lazy-wrap: set when a print reached the last column
	reversed bool // whether SGR 7 (reverse video) is currently applied
}

// CharsetSlot is the character set applied to printed characters. Only
// line-drawing vs. ASCII is modeled: any of ESC ( ) * + sets it directly, and
// separate G0-G3 slots and shifting between them are not modeled.
type CharsetSlot int

const (
	CharsetASCII CharsetSlot = iota
	CharsetLineDrawing
)

// lineDrawingTable holds the 15-entry DEC special graphics translation for
// codepoints 0x6a..0x78 ('j'..'x'); a zero entry means "unmapped, pass
// through unchanged".
var lineDrawingTable [15]rune

func init() {
	set := func(c rune, r rune) { lineDrawingTable[c-0x6a] = r }
	set('j', '┘') // bottom-right corner
	set('k', '┐') // top-right corner
	set('l', '┌') // top-left corner
	set('m', '└') // bottom-left corner
	set('n', '┼') // crossing lines
	set('o', '⎺') // scanline 1
	set('p', '⎻') // scanline 3
	set('q', '─') // horizontal line
	set('r', '⎼') // scanline 7
	set('s', '⎽') // scanline 9
	set('t', '├') // left tee
	set('u', '┤') // right tee
	set('v', '┴') // bottom tee
	set('w', '┬') // top tee
	set('x', '│') // vertical line
}

// translateLineDrawing applies the DEC special graphics translation to r
// when it falls in the 0x6a..0x78 range; otherwise r passes through
// unchanged, per spec's "unmapped entries remain 0" -> pass-through rule.
func translateLineDrawing(r rune) rune {
	if r < 0x6a || r > 0x78 {
		return r
	}
	if mapped := lineDrawingTable[r-0x6a]; mapped != 0 {
		return mapped
	}
	return r
}

// State holds the full mutable terminal state: the live grid, the alternate
// screen grid, scrollback history, cursor, scroll region, modes, and the
// active palette. All mutation happens under lock (see Parser and
// Emulator), mirroring the teacher TerminalBuffer's mutex-guarded design.
type State struct {
	Lock *synclock.PriorityLock

	grid    *buffer.Grid
	altGrid *buffer.Grid
	history *buffer.History

	cur       Cursor
	savedCur  Cursor
	usingAlt  bool

	scrollTop, scrollBottom int
	modes                   ModeFlag
	charset                 CharsetSlot

	palette *palette.Palette

	title string

	// changeFlags/sequenceID drive the incremental-snapshot dedup in
	// snapshot.go, mirroring the teacher's GetSnapshot caching.
	changeFlags  ChangeFlag
	sequenceID   uint64
}

// ChangeFlag records which broad categories of state changed since the last
// snapshot. Each BufferSnapshot carries the flags, as the teacher's
// BufferSnapshot.ChangeFlags does; whether a snapshot is incremental or full
// is chosen by the caller of Emulator.Snapshot, not by these flags.
type ChangeFlag uint32

const (
	ChangedScreen ChangeFlag = 1 << iota
	ChangedCursor
	ChangedTitle
	ChangedSize
)

// NewState allocates terminal state sized cols x rows with maxHistory rows
// of scrollback, using pal for color resolution.
func NewState(cols, rows, maxHistory int, pal *palette.Palette) *State {
	s := &State{
		Lock:          synclock.New(),
		grid:          buffer.NewGrid(cols, rows),
		altGrid:       buffer.NewGrid(cols, rows),
		history:       buffer.NewHistory(maxHistory),
		scrollTop:     0,
		scrollBottom:  rows - 1,
		palette:       pal,
	}
	s.cur.Attr = cell.Default()
	s.cur.Attr.SetForeground(pal.DefaultFg)
	s.cur.Attr.SetBackground(pal.DefaultBg)
	s.cur.Visible = true
	return s
}

func (s *State) activeGrid() *buffer.Grid {
	if s.usingAlt {
		return s.altGrid
	}
	return s.grid
}

func (s *State) markChanged(f ChangeFlag) {
	s.changeFlags |= f
	s.sequenceID++
}

// Cols/Rows report the active grid's dimensions.
func (s *State) Cols() int { return s.activeGrid().Cols() }
func (s *State) Rows() int { return s.activeGrid().Rows() }

// Title returns the most recently set window title (OSC 0/2).
func (s *State) Title() string { return s.title }

// Resize adjusts both grids to the new dimensions, clamps the cursor and
// resets the scroll region to the full screen, matching the teacher Resize's
// overlapping-copy approach.
func (s *State) Resize(cols, rows int) {
	s.grid.Resize(cols, rows)
	s.altGrid.Resize(cols, rows)
	if s.cur.X >= cols {
		s.cur.X = cols - 1
	}
	if s.cur.Y >= rows {
		s.cur.Y = rows - 1
	}
	s.scrollTop = 0
	s.scrollBottom = rows - 1
	s.markChanged(ChangedSize | ChangedScreen)
}
