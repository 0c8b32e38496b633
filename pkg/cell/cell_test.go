package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultIsSpace(t *testing.T) {
	c := Default()
	assert.Equal(t, rune(' '), c.Codepoint())
	assert.True(t, c.IsDefault())
}

func TestCodepointRoundTrip(t *testing.T) {
	var c Cell
	c.SetCodepoint('世')
	assert.Equal(t, rune('世'), c.Codepoint())
}

func TestFontFlagsIndependentOfAttrs(t *testing.T) {
	var c Cell
	c.SetFontFlags(FontBold | FontDoubleWidth)
	c.SetAttrs(Underline | Strikethrough)
	c.SetCodepoint('x')

	assert.Equal(t, FontBold|FontDoubleWidth, c.FontFlags())
	assert.Equal(t, Underline|Strikethrough, c.Attrs())
	assert.Equal(t, rune('x'), c.Codepoint())
}

func TestAddRemoveAttrs(t *testing.T) {
	var c Cell
	c.AddAttrs(Underline)
	c.AddAttrs(Strikethrough)
	assert.Equal(t, Underline|Strikethrough, c.Attrs())

	c.RemoveAttrs(Underline)
	assert.Equal(t, Strikethrough, c.Attrs())
}

func TestColorRoundTrip(t *testing.T) {
	var c Cell
	fg := Color{R: 200, G: 100, B: 50, Valid: true}
	bg := Color{R: 10, G: 20, B: 30, Valid: true}
	dec := Color{R: 1, G: 2, B: 3, Valid: true}
	c.SetForeground(fg)
	c.SetBackground(bg)
	c.SetDecorationColor(dec)

	assert.Equal(t, fg, c.Foreground())
	assert.Equal(t, bg, c.Background())
	assert.Equal(t, dec, c.DecorationColor())
}

func TestInvalidColorMeansDefault(t *testing.T) {
	var c Cell
	c.SetForeground(Color{R: 1, G: 2, B: 3, Valid: false})
	assert.False(t, c.Foreground().Valid)
}

func TestBytesRoundTrip(t *testing.T) {
	var c Cell
	c.SetCodepoint('@')
	c.SetFontFlags(FontItalic)
	c.SetAttrs(CurlyUnderline)
	c.SetForeground(Color{R: 255, G: 0, B: 0, Valid: true})
	c.SetBackground(Color{R: 0, G: 255, B: 0, Valid: true})
	c.SetDecorationColor(Color{R: 0, G: 0, B: 255, Valid: true})

	got := FromBytes(c.Bytes())
	assert.True(t, got.Equal(c))
}

func TestEqualAndIsDefault(t *testing.T) {
	a := Default()
	b := Default()
	assert.True(t, a.Equal(b))

	b.SetCodepoint('x')
	assert.False(t, a.Equal(b))
	assert.False(t, b.IsDefault())
}

func TestAttrsVisible(t *testing.T) {
	assert.False(t, Attrs(0).Visible())
	assert.False(t, EndOfLine.Visible())
	assert.True(t, Underline.Visible())
}
