package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vtcore/termhost/pkg/cell"
)

func row(chars string) []cell.Cell {
	out := make([]cell.Cell, len(chars))
	for i, c := range chars {
		out[i] = glyph(c)
	}
	return out
}

func TestHistoryPushAndOrder(t *testing.T) {
	h := NewHistory(3)
	h.Push(row("a"))
	h.Push(row("b"))
	h.Push(row("c"))

	require.Equal(t, 3, h.Len())
	assert.Equal(t, rune('a'), h.Row(0)[0].Codepoint())
	assert.Equal(t, rune('b'), h.Row(1)[0].Codepoint())
	assert.Equal(t, rune('c'), h.Row(2)[0].Codepoint())
}

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(2)
	h.Push(row("a"))
	h.Push(row("b"))
	h.Push(row("c"))

	require.Equal(t, 2, h.Len())
	assert.Equal(t, rune('b'), h.Row(0)[0].Codepoint())
	assert.Equal(t, rune('c'), h.Row(1)[0].Codepoint())
}

func TestHistoryTrimsTrailingDefault(t *testing.T) {
	h := NewHistory(1)
	r := make([]cell.Cell, 5)
	for i := range r {
		r[i] = cell.Default()
	}
	r[0] = glyph('x')
	h.Push(r)

	stored := h.Row(0)
	assert.Len(t, stored, 1)
	assert.Equal(t, rune('x'), stored[0].Codepoint())
}

func TestHistoryZeroCapacityDiscardsPushes(t *testing.T) {
	h := NewHistory(0)
	h.Push(row("a"))
	assert.Equal(t, 0, h.Len())
	assert.Nil(t, h.Row(0))
}

func TestHistoryRowOutOfRange(t *testing.T) {
	h := NewHistory(2)
	h.Push(row("a"))
	assert.Nil(t, h.Row(-1))
	assert.Nil(t, h.Row(1))
}
