package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtcore/termhost/pkg/cell"
	"github.com/vtcore/termhost/pkg/palette"
)

func newTestParser(cols, rows int) (*Parser, *State) {
	st := NewState(cols, rows, 100, palette.Default256())
	return NewParser(st), st
}

func glyph(r rune) cell.Cell {
	var c cell.Cell
	c.SetCodepoint(r)
	return c
}

func feed(t *testing.T, p *Parser, s string) {
	t.Helper()
	_, err := p.Write([]byte(s))
	require.NoError(t, err)
}

func TestCursorMovementCommands(t *testing.T) {
	p, s := newTestParser(10, 10)
	s.cur.X, s.cur.Y = 5, 5

	feed(t, p, "\x1b[2A") // CUU
	assert.Equal(t, 3, s.cur.Y)

	feed(t, p, "\x1b[1B") // CUD
	assert.Equal(t, 4, s.cur.Y)

	feed(t, p, "\x1b[3C") // CUF
	assert.Equal(t, 8, s.cur.X)

	feed(t, p, "\x1b[2D") // CUB
	assert.Equal(t, 6, s.cur.X)

	feed(t, p, "\x1b[3;2H") // CUP (1-indexed row;col)
	assert.Equal(t, 1, s.cur.X)
	assert.Equal(t, 2, s.cur.Y)
}

func TestCursorClampsToGrid(t *testing.T) {
	p, s := newTestParser(5, 5)
	feed(t, p, "\x1b[100B")
	assert.Equal(t, 4, s.cur.Y)
	feed(t, p, "\x1b[100C")
	assert.Equal(t, 4, s.cur.X)
}

func TestSGRBasicAndBrightForeground(t *testing.T) {
	p, s := newTestParser(10, 1)
	feed(t, p, "\x1b[31m") // red fg
	assert.Equal(t, s.palette.ResolveBright(1, false), s.cur.Attr.Foreground())

	feed(t, p, "\x1b[0m\x1b[1;91m") // bold + bright red
	assert.Equal(t, s.palette.ResolveBright(1, true), s.cur.Attr.Foreground())
}

func TestSGRExtended256AndTruecolor(t *testing.T) {
	p, s := newTestParser(10, 1)
	feed(t, p, "\x1b[38;5;196m")
	assert.Equal(t, s.palette.Resolve(196), s.cur.Attr.Foreground())

	feed(t, p, "\x1b[48;2;10;20;30m")
	assert.Equal(t, cell.Color{R: 10, G: 20, B: 30, Valid: true}, s.cur.Attr.Background())
}

func TestSGRReverseVideoIsIdempotent(t *testing.T) {
	p, s := newTestParser(10, 1)
	feed(t, p, "\x1b[31;44m") // red on blue
	fg := s.cur.Attr.Foreground()
	bg := s.cur.Attr.Background()

	feed(t, p, "\x1b[7m")
	assert.Equal(t, bg, s.cur.Attr.Foreground())
	assert.Equal(t, fg, s.cur.Attr.Background())

	// Setting reverse again is a no-op, not a second swap.
	feed(t, p, "\x1b[7m")
	assert.Equal(t, bg, s.cur.Attr.Foreground())
	assert.Equal(t, fg, s.cur.Attr.Background())

	feed(t, p, "\x1b[27m")
	assert.Equal(t, fg, s.cur.Attr.Foreground())
	assert.Equal(t, bg, s.cur.Attr.Background())
}

func TestOSCWindowTitle(t *testing.T) {
	p, s := newTestParser(10, 1)
	var got string
	p.onTitleChange = func(title string) { got = title }

	feed(t, p, "\x1b]2;hello world\x07")
	assert.Equal(t, "hello world", s.Title())
	assert.Equal(t, "hello world", got)
}

func TestOSC52ClipboardSetAndQuery(t *testing.T) {
	p, _ := newTestParser(10, 1)
	var setData []byte
	p.onClipboardSet = func(data []byte) { setData = data }
	p.onClipboardQuery = func() []byte { return []byte("copied") }

	// base64("hi") == "aGk="
	feed(t, p, "\x1b]52;c;aGk=\x07")
	assert.Equal(t, []byte("hi"), setData)

	feed(t, p, "\x1b]52;c;?\x07")
	require.NotNil(t, p.pendingOSCReply)
	assert.Equal(t, "\x1b]52;c;Y29waWVk\x07", string(p.pendingOSCReply))
}

func TestEscapeDispatchSaveRestoreAndReset(t *testing.T) {
	p, s := newTestParser(10, 5)
	s.cur.X, s.cur.Y = 3, 2
	feed(t, p, "\x1b7") // DECSC
	s.cur.X, s.cur.Y = 0, 0
	feed(t, p, "\x1b8") // DECRC
	assert.Equal(t, 3, s.cur.X)
	assert.Equal(t, 2, s.cur.Y)

	feed(t, p, "\x1b[31m") // dirty some state
	s.grid.SetCell(4, 1, glyph('x'))
	feed(t, p, "\x1bc") // RIS
	assert.Equal(t, 0, s.cur.X)
	assert.Equal(t, 0, s.cur.Y)
	assert.Equal(t, s.palette.DefaultFg, s.cur.Attr.Foreground())
	assert.True(t, s.grid.Cell(4, 1).IsDefault())
}

func TestReverseIndexScrollsAtTopMargin(t *testing.T) {
	p, s := newTestParser(3, 3)
	for y := 0; y < 3; y++ {
		s.grid.SetCell(0, y, glyph(rune('0' + y)))
	}
	s.cur.Y = 0

	feed(t, p, "\x1bM") // RI at top margin scrolls down
	assert.True(t, s.grid.Cell(0, 0).IsDefault())
	assert.Equal(t, rune('0'), s.grid.Cell(0, 1).Codepoint())
	assert.Equal(t, rune('1'), s.grid.Cell(0, 2).Codepoint())
}

func TestECHCrossesLineBoundary(t *testing.T) {
	p, s := newTestParser(3, 2)
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			s.grid.SetCell(x, y, glyph(rune('a'+y*3+x)))
		}
	}
	s.cur.X, s.cur.Y = 2, 0

	feed(t, p, "\x1b[2X") // erase 2 chars from (2,0): 1 on row 0, 1 spills onto row 1
	assert.True(t, s.grid.Cell(2, 0).IsDefault())
	assert.True(t, s.grid.Cell(0, 1).IsDefault())
	assert.Equal(t, rune('e'), s.grid.Cell(1, 1).Codepoint())
	assert.Equal(t, rune('f'), s.grid.Cell(2, 1).Codepoint())
}

func TestAltScreenSwapRoundTrip(t *testing.T) {
	p, s := newTestParser(5, 5)
	s.grid.SetCell(0, 0, glyph('A'))
	s.cur.X, s.cur.Y = 2, 2

	feed(t, p, "\x1b[?1049h") // enter alt screen, saving cursor
	assert.True(t, s.usingAlt)
	assert.True(t, s.activeGrid().Cell(0, 0).IsDefault())

	feed(t, p, "\x1b[?1049l") // leave alt screen, restoring cursor
	assert.False(t, s.usingAlt)
	assert.Equal(t, 2, s.cur.X)
	assert.Equal(t, 2, s.cur.Y)
	assert.Equal(t, rune('A'), s.grid.Cell(0, 0).Codepoint())
}

func TestScrollRegionConfinesScrolling(t *testing.T) {
	p, s := newTestParser(1, 5)
	for y := 0; y < 5; y++ {
		s.grid.SetCell(0, y, glyph(rune('0' + y)))
	}

	feed(t, p, "\x1b[2;4r") // DECSTBM: region rows 2-4 (1-indexed) -> 1-3
	assert.Equal(t, 1, s.scrollTop)
	assert.Equal(t, 3, s.scrollBottom)
	assert.Equal(t, 0, s.cur.X)
	assert.Equal(t, 0, s.cur.Y)

	s.cur.Y = s.scrollBottom
	feed(t, p, "\n")
	assert.Equal(t, rune('0'), s.grid.Cell(0, 0).Codepoint(), "row outside region untouched")
	assert.Equal(t, rune('2'), s.grid.Cell(0, 1).Codepoint())
	assert.Equal(t, rune('3'), s.grid.Cell(0, 2).Codepoint())
	assert.True(t, s.grid.Cell(0, 3).IsDefault())
	assert.Equal(t, rune('4'), s.grid.Cell(0, 4).Codepoint(), "row outside region untouched")
}

func TestUTF8PartialChunkAcrossWrites(t *testing.T) {
	p, s := newTestParser(10, 1)
	full := []byte("世") // 3-byte UTF-8 sequence
	s.cur.X, s.cur.Y = 0, 0

	n1, err := p.Write(full[:1])
	require.NoError(t, err)
	assert.Equal(t, 1, n1)
	assert.True(t, s.grid.Cell(0, 0).IsDefault(), "incomplete rune not yet printed")

	_, err = p.Write(full[1:])
	require.NoError(t, err)
	assert.Equal(t, '世', s.grid.Cell(0, 0).Codepoint())
}

func TestSnapshotFullIncrementalAndMagicHeader(t *testing.T) {
	p, s := newTestParser(4, 2)
	feed(t, p, "hi")

	full := newFullSnapshot(s)
	assert.False(t, full.IsIncremental)
	assert.Equal(t, 2, full.Rows)
	assert.Equal(t, rune('h'), full.Cells[0][0].Codepoint())

	encoded, err := full.SerializeToBinary()
	require.NoError(t, err)
	assert.Equal(t, byte('V'), encoded[0])
	assert.Equal(t, byte('T'), encoded[1])

	s.grid.ResetDirty()
	s.grid.SetCell(0, 1, glyph('x'))
	inc := newIncrementalSnapshot(s)
	assert.True(t, inc.IsIncremental)
	require.Len(t, inc.ChangedRows, 1)
	assert.Equal(t, 1, inc.ChangedRows[0])
}
