package terminal

import "github.com/vtcore/termhost/pkg/cell"

// handleSGR applies a parsed CSI m sequence to the cursor's cell template,
// which subsequent printRune calls stamp onto the grid.
func (p *Parser) handleSGR(params []int) {
	s := p.st
	if len(params) == 0 {
		p.sgrReset()
		return
	}
	for i := 0; i < len(params); i++ {
		v := params[i]
		if v < 0 {
			v = 0
		}
		switch {
		case v == 0:
			p.sgrReset()
		case v == 1:
			s.cur.Attr.SetFontFlags(s.cur.Attr.FontFlags() | cell.FontBold)
		case v == 2:
			s.cur.Attr.SetFontFlags(s.cur.Attr.FontFlags() | cell.FontFaint)
		case v == 3:
			s.cur.Attr.SetFontFlags(s.cur.Attr.FontFlags() | cell.FontItalic)
		case v == 4:
			s.cur.Attr.AddAttrs(cell.Underline)
		case v == 5:
			s.cur.Attr.SetFontFlags(s.cur.Attr.FontFlags() | cell.FontBlink)
		case v == 7:
			p.setReversed(true)
		case v == 8:
			s.cur.Attr.SetFontFlags(s.cur.Attr.FontFlags() | cell.FontInvisible)
		case v == 9:
			s.cur.Attr.AddAttrs(cell.Strikethrough)
		case v == 21:
			s.cur.Attr.SetFontFlags(s.cur.Attr.FontFlags() &^ cell.FontBold)
		case v == 22:
			s.cur.Attr.SetFontFlags(s.cur.Attr.FontFlags() &^ (cell.FontBold | cell.FontFaint))
		case v == 23:
			s.cur.Attr.SetFontFlags(s.cur.Attr.FontFlags() &^ cell.FontItalic)
		case v == 24:
			s.cur.Attr.RemoveAttrs(cell.Underline | cell.CurlyUnderline)
		case v == 25:
			s.cur.Attr.SetFontFlags(s.cur.Attr.FontFlags() &^ cell.FontBlink)
		case v == 27:
			p.setReversed(false)
		case v == 28:
			s.cur.Attr.SetFontFlags(s.cur.Attr.FontFlags() &^ cell.FontInvisible)
		case v == 29:
			s.cur.Attr.RemoveAttrs(cell.Strikethrough)
		case v >= 30 && v <= 37:
			s.cur.Attr.SetForeground(s.palette.ResolveBright(uint8(v-30), s.cur.Attr.FontFlags()&cell.FontBold != 0))
		case v == 38:
			i = p.applyExtendedColor(params, i, true)
		case v == 39:
			s.cur.Attr.SetForeground(s.palette.DefaultFg)
		case v >= 40 && v <= 47:
			s.cur.Attr.SetBackground(s.palette.Resolve(uint8(v - 40)))
		case v == 48:
			i = p.applyExtendedColor(params, i, false)
		case v == 49:
			s.cur.Attr.SetBackground(s.palette.DefaultBg)
		case v >= 90 && v <= 97:
			s.cur.Attr.SetForeground(s.palette.Resolve(uint8(v-90) + 8))
		case v >= 100 && v <= 107:
			s.cur.Attr.SetBackground(s.palette.Resolve(uint8(v-100) + 8))
		}
	}
}

func (p *Parser) sgrReset() {
	s := p.st
	s.cur.Attr = cell.Default()
	s.cur.Attr.SetForeground(s.palette.DefaultFg)
	s.cur.Attr.SetBackground(s.palette.DefaultBg)
	s.cur.reversed = false
}

// setReversed applies or removes video-reverse by swapping the template's
// fg/bg, idempotently: repeated "set" or repeated "clear" calls are no-ops,
// matching the source engine's inverseMode toggle.
func (p *Parser) setReversed(on bool) {
	s := p.st
	if s.cur.reversed == on {
		return
	}
	fg := s.cur.Attr.Foreground()
	bg := s.cur.Attr.Background()
	s.cur.Attr.SetForeground(bg)
	s.cur.Attr.SetBackground(fg)
	s.cur.reversed = on
}

// applyExtendedColor handles "38;5;N" (256-color) and "38;2;R;G;B"
// (truecolor) — or the 48-prefixed background equivalents — starting at
// params[i] (the 38/48 itself), returning the index of the last parameter
// consumed.
func (p *Parser) applyExtendedColor(params []int, i int, foreground bool) int {
	if i+1 >= len(params) {
		return i
	}
	switch params[i+1] {
	case 5:
		if i+2 >= len(params) {
			return i + 1
		}
		idx := uint8(paramOr(params, i+2, 0))
		col := p.st.palette.Resolve(idx)
		p.setColor(foreground, col)
		return i + 2
	case 2:
		if i+4 >= len(params) {
			return len(params) - 1
		}
		col := cell.Color{
			R:     uint8(paramOr(params, i+2, 0)),
			G:     uint8(paramOr(params, i+3, 0)),
			B:     uint8(paramOr(params, i+4, 0)),
			Valid: true,
		}
		p.setColor(foreground, col)
		return i + 4
	default:
		return i + 1
	}
}

func (p *Parser) setColor(foreground bool, col cell.Color) {
	if foreground {
		p.st.cur.Attr.SetForeground(col)
	} else {
		p.st.cur.Attr.SetBackground(col)
	}
}
