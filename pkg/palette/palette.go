// Package palette provides the 16-color and 256-color ANSI palettes used to
// resolve indexed SGR colors into the RGB triplets pkg/cell stores.
package palette

import "github.com/vtcore/termhost/pkg/cell"

// Palette maps the basic 0-15 and extended 16-255 color indices to RGB, plus
// the terminal's configured default foreground/background.
type Palette struct {
	entries    [256]cell.Color
	DefaultFg  cell.Color
	DefaultBg  cell.Color
	BoldBright bool // when true, SGR 1 (bold) brightens colors 30-37 only
}

// Standard16 returns the classic xterm 16-color table.
func Standard16() [16]cell.Color {
	return [16]cell.Color{
		{R: 0x00, G: 0x00, B: 0x00, Valid: true}, // black
		{R: 0xcd, G: 0x00, B: 0x00, Valid: true}, // red
		{R: 0x00, G: 0xcd, B: 0x00, Valid: true}, // green
		{R: 0xcd, G: 0xcd, B: 0x00, Valid: true}, // yellow
		{R: 0x00, G: 0x00, B: 0xee, Valid: true}, // blue
		{R: 0xcd, G: 0x00, B: 0xcd, Valid: true}, // magenta
		{R: 0x00, G: 0xcd, B: 0xcd, Valid: true}, // cyan
		{R: 0xe5, G: 0xe5, B: 0xe5, Valid: true}, // white
		{R: 0x7f, G: 0x7f, B: 0x7f, Valid: true}, // bright black
		{R: 0xff, G: 0x00, B: 0x00, Valid: true}, // bright red
		{R: 0x00, G: 0xff, B: 0x00, Valid: true}, // bright green
		{R: 0xff, G: 0xff, B: 0x00, Valid: true}, // bright yellow
		{R: 0x5c, G: 0x5c, B: 0xff, Valid: true}, // bright blue
		{R: 0xff, G: 0x00, B: 0xff, Valid: true}, // bright magenta
		{R: 0x00, G: 0xff, B: 0xff, Valid: true}, // bright cyan
		{R: 0xff, G: 0xff, B: 0xff, Valid: true}, // bright white
	}
}

// Default256 builds the full 256-color xterm table: entries 0-15 from
// Standard16, 16-231 a 6x6x6 RGB cube, 232-255 a 24-step grayscale ramp.
func Default256() *Palette {
	p := &Palette{
		DefaultFg:  cell.Color{R: 0xe5, G: 0xe5, B: 0xe5, Valid: true},
		DefaultBg:  cell.Color{R: 0x00, G: 0x00, B: 0x00, Valid: true},
		BoldBright: true,
	}
	std := Standard16()
	copy(p.entries[0:16], std[:])

	steps := [6]uint8{0x00, 0x5f, 0x87, 0xaf, 0xd7, 0xff}
	idx := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				p.entries[idx] = cell.Color{R: steps[r], G: steps[g], B: steps[b], Valid: true}
				idx++
			}
		}
	}
	for i := 0; i < 24; i++ {
		v := uint8(8 + i*10)
		p.entries[232+i] = cell.Color{R: v, G: v, B: v, Valid: true}
	}
	return p
}

// Resolve returns the RGB color for a 0-255 palette index.
func (p *Palette) Resolve(index uint8) cell.Color {
	return p.entries[index]
}

// ResolveBright returns index's color, brightened into the 8-15 range when
// boldBright mode is enabled and index is within the basic 0-7 range. Used
// only by the SGR 30-37 path, never by the 38-extended path, per the
// source terminal's boldIsBright semantics.
func (p *Palette) ResolveBright(index uint8, bold bool) cell.Color {
	if bold && p.BoldBright && index < 8 {
		index += 8
	}
	return p.entries[index]
}
