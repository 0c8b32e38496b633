package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtcore/termhost/pkg/cell"
)

func glyph(r rune) cell.Cell {
	var c cell.Cell
	c.SetCodepoint(r)
	return c
}

func TestNewGridIsBlank(t *testing.T) {
	g := NewGrid(10, 5)
	assert.Equal(t, 10, g.Cols())
	assert.Equal(t, 5, g.Rows())
	for y := 0; y < 5; y++ {
		for x := 0; x < 10; x++ {
			assert.True(t, g.Cell(x, y).IsDefault())
		}
	}
	assert.False(t, g.AnyDirty())
}

func TestSetCellMarksDirty(t *testing.T) {
	g := NewGrid(4, 4)
	g.SetCell(1, 2, glyph('x'))
	assert.True(t, g.AnyDirty())
	assert.True(t, g.IsDirty(2))
	assert.False(t, g.IsDirty(0))
	assert.Equal(t, rune('x'), g.Cell(1, 2).Codepoint())

	g.ResetDirty()
	assert.False(t, g.AnyDirty())
	assert.False(t, g.IsDirty(2))
}

func TestClearRowFromAndTo(t *testing.T) {
	g := NewGrid(5, 1)
	for x := 0; x < 5; x++ {
		g.SetCell(x, 0, glyph(rune('a'+x)))
	}
	g.ClearRowFrom(0, 3)
	row := g.Row(0)
	assert.Equal(t, rune('a'), row[0].Codepoint())
	assert.True(t, row[3].IsDefault())
	assert.True(t, row[4].IsDefault())

	g2 := NewGrid(5, 1)
	for x := 0; x < 5; x++ {
		g2.SetCell(x, 0, glyph(rune('a'+x)))
	}
	g2.ClearRowTo(0, 1)
	row2 := g2.Row(0)
	assert.True(t, row2[0].IsDefault())
	assert.True(t, row2[1].IsDefault())
	assert.Equal(t, rune('c'), row2[2].Codepoint())
}

func TestScrollUpPushesToHistory(t *testing.T) {
	g := NewGrid(3, 4)
	for y := 0; y < 4; y++ {
		g.SetCell(0, y, glyph(rune('0'+y)))
	}
	h := NewHistory(10)

	g.ScrollUp(0, 3, 1, h)

	require.Equal(t, 1, h.Len())
	assert.Equal(t, rune('0'), h.Row(0)[0].Codepoint())

	// Row 0 now holds what was row 1, and the new bottom row is blank.
	assert.Equal(t, rune('1'), g.Cell(0, 0).Codepoint())
	assert.Equal(t, rune('2'), g.Cell(0, 1).Codepoint())
	assert.Equal(t, rune('3'), g.Cell(0, 2).Codepoint())
	assert.True(t, g.Cell(0, 3).IsDefault())
}

func TestScrollUpRespectsRegion(t *testing.T) {
	g := NewGrid(1, 5)
	for y := 0; y < 5; y++ {
		g.SetCell(0, y, glyph(rune('0'+y)))
	}
	// Scroll only the middle region [1,3].
	g.ScrollUp(1, 3, 1, nil)

	assert.Equal(t, rune('0'), g.Cell(0, 0).Codepoint(), "row outside region untouched")
	assert.Equal(t, rune('2'), g.Cell(0, 1).Codepoint())
	assert.Equal(t, rune('3'), g.Cell(0, 2).Codepoint())
	assert.True(t, g.Cell(0, 3).IsDefault())
	assert.Equal(t, rune('4'), g.Cell(0, 4).Codepoint(), "row outside region untouched")
}

func TestScrollDownFillsTop(t *testing.T) {
	g := NewGrid(1, 3)
	for y := 0; y < 3; y++ {
		g.SetCell(0, y, glyph(rune('0'+y)))
	}
	g.ScrollDown(0, 2, 1)

	assert.True(t, g.Cell(0, 0).IsDefault())
	assert.Equal(t, rune('0'), g.Cell(0, 1).Codepoint())
	assert.Equal(t, rune('1'), g.Cell(0, 2).Codepoint())
}

func TestResizePreservesOverlap(t *testing.T) {
	g := NewGrid(3, 3)
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			g.SetCell(x, y, glyph(rune('A'+y*3+x)))
		}
	}
	g.ResetDirty()

	g.Resize(2, 2)
	assert.Equal(t, 2, g.Cols())
	assert.Equal(t, 2, g.Rows())
	assert.Equal(t, rune('A'), g.Cell(0, 0).Codepoint())
	assert.Equal(t, rune('B'), g.Cell(1, 0).Codepoint())
	assert.True(t, g.AnyDirty(), "resize must mark everything dirty")

	g.Resize(4, 4)
	assert.Equal(t, rune('A'), g.Cell(0, 0).Codepoint())
	assert.True(t, g.Cell(3, 3).IsDefault())
}
