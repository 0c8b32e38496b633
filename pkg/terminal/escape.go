package terminal

// consumeEscape processes the byte immediately following ESC and returns the
// remaining unconsumed data. CSI ('['), OSC (']') and charset-designate
// introducers hand off to their own collectors; everything else is a
// complete single-byte escape sequence handled here directly.
func (p *Parser) consumeEscape(data []byte) []byte {
	b := data[0]
	switch b {
	case '[':
		p.csi = csiCollector{}
		p.mode = modeCSI
		return data[1:]
	case ']':
		p.osc = oscCollector{}
		p.mode = modeOSC
		return data[1:]
	case '(', ')', '*', '+':
		p.mode = modeCharsetDesignate
		return data[1:]
	case '7': // DECSC: save cursor
		p.st.savedCur = p.st.cur
		p.mode = modeGround
		return data[1:]
	case '8': // DECRC: restore cursor
		p.st.cur = p.st.savedCur
		p.mode = modeGround
		return data[1:]
	case 'M': // reverse index: move up, scrolling down at the top margin
		s := p.st
		if s.cur.Y == s.scrollTop {
			s.activeGrid().ScrollDown(s.scrollTop, s.scrollBottom, 1)
			s.markChanged(ChangedScreen)
		} else if s.cur.Y > 0 {
			s.cur.Y--
		}
		p.mode = modeGround
		return data[1:]
	case 'D': // index: move down, scrolling at bottom margin (same as LF)
		p.newlineAdvance()
		p.mode = modeGround
		return data[1:]
	case 'E': // next line: CR+LF
		p.st.cur.X = 0
		p.newlineAdvance()
		p.mode = modeGround
		return data[1:]
	case 'c': // RIS: full reset
		p.reset()
		p.mode = modeGround
		return data[1:]
	case '=': // DECKPAM: application keypad
		p.st.modes |= ModeAppKeypad
		p.mode = modeGround
		return data[1:]
	case '>': // DECKPNM: numeric keypad
		p.st.modes &^= ModeAppKeypad
		p.mode = modeGround
		return data[1:]
	default:
		// Unrecognized single-byte escape: ignored. The parser has no
		// logger and nothing logs it.
		p.mode = modeGround
		return data[1:]
	}
}

// reset restores State to its just-constructed configuration, used by ESC c
// (RIS). Dimensions, history capacity and palette are preserved.
func (p *Parser) reset() {
	s := p.st
	cols, rows := s.Cols(), s.Rows()
	s.grid.Resize(cols, rows)
	s.altGrid.Resize(cols, rows)
	for y := 0; y < rows; y++ {
		s.grid.ClearRow(y)
		s.altGrid.ClearRow(y)
	}
	s.cur = Cursor{Visible: true}
	s.cur.Attr.SetForeground(s.palette.DefaultFg)
	s.cur.Attr.SetBackground(s.palette.DefaultBg)
	s.savedCur = s.cur
	s.usingAlt = false
	s.scrollTop = 0
	s.scrollBottom = rows - 1
	s.modes = 0
	s.charset = CharsetASCII
	s.markChanged(ChangedScreen | ChangedCursor)
}
