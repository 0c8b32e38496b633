package terminal

import (
	"github.com/vtcore/termhost/pkg/buffer"
	"github.com/vtcore/termhost/pkg/cell"
)

const maxCSILength = 256

// csiCollector accumulates the bytes of a CSI sequence (everything after
// `ESC [`, up to and not including the final byte) until it is complete.
type csiCollector struct {
	raw []byte
}

// consumeCSI feeds bytes into the in-progress CSI sequence, dispatching once
// the final byte (0x40-0x7e) is seen, and returns the unconsumed remainder.
// A nil return means the sequence is still incomplete and more data is
// needed on the next Write call.
func (p *Parser) consumeCSI(data []byte) []byte {
	for i, b := range data {
		if b >= 0x40 && b <= 0x7e {
			p.dispatchCSI(b)
			p.mode = modeGround
			return data[i+1:]
		}
		if len(p.csi.raw) < maxCSILength {
			p.csi.raw = append(p.csi.raw, b)
		}
	}
	return nil
}

// csiParams splits the collected parameter bytes on ';', returning -1 for
// omitted parameters so callers can distinguish "0" from "default".
func csiParams(raw []byte) []int {
	params := []int{}
	cur := -1
	seenDigit := false
	for _, b := range raw {
		switch {
		case b >= '0' && b <= '9':
			if !seenDigit {
				cur = 0
				seenDigit = true
			}
			cur = cur*10 + int(b-'0')
		case b == ';':
			params = append(params, cur)
			cur = -1
			seenDigit = false
		default:
			// sub-parameter separators (':') and intermediates are not
			// modeled; they terminate the current parameter like ';'.
			params = append(params, cur)
			cur = -1
			seenDigit = false
		}
	}
	params = append(params, cur)
	return params
}

func paramOr(params []int, i, def int) int {
	if i >= len(params) || params[i] < 0 {
		return def
	}
	return params[i]
}

func (p *Parser) dispatchCSI(final byte) {
	raw := p.csi.raw
	private := byte(0)
	if len(raw) > 0 && (raw[0] == '?' || raw[0] == '>' || raw[0] == '=') {
		private = raw[0]
		raw = raw[1:]
	}
	params := csiParams(raw)
	s := p.st

	if private == '?' {
		switch final {
		case 'h':
			p.setPrivateModes(params, true)
		case 'l':
			p.setPrivateModes(params, false)
		case 's', 'r':
			// Private mode save/restore: accepted and ignored (not
			// logged) — no caller in this codebase relies on DEC mode
			// restore surviving a nested push/pop.
		}
		return
	}
	if private == '>' {
		// Secondary Device Attributes request; only recorded here (the
		// parser has no channel back to the PTY). Emulator.readLoop sends
		// the reply it gets from PendingReply.
		if final == 'c' {
			p.pendingDA = daSecondary
		}
		return
	}

	switch final {
	case '@': // ICH: insert blank characters
		p.insertBlank(paramOr(params, 0, 1))
	case 'A': // CUU
		p.moveCursor(0, -paramOr(params, 0, 1))
	case 'B': // CUD
		p.moveCursor(0, paramOr(params, 0, 1))
	case 'C': // CUF
		p.moveCursor(paramOr(params, 0, 1), 0)
	case 'D': // CUB
		p.moveCursor(-paramOr(params, 0, 1), 0)
	case 'E': // CNL
		s.cur.X = 0
		p.moveCursor(0, paramOr(params, 0, 1))
	case 'F': // CPL
		s.cur.X = 0
		p.moveCursor(0, -paramOr(params, 0, 1))
	case 'G', '`': // CHA
		p.setCursorCol(paramOr(params, 0, 1) - 1)
	case 'H', 'f': // CUP / HVP: params are row;col, setCursorPos takes x,y
		p.setCursorPos(paramOr(params, 1, 1)-1, paramOr(params, 0, 1)-1)
	case 'I': // CHT: forward tab stops
		for i := 0; i < paramOr(params, 0, 1); i++ {
			p.tab()
		}
	case 'J': // ED
		p.eraseDisplay(paramOr(params, 0, 0))
	case 'K': // EL
		p.eraseLine(paramOr(params, 0, 0))
	case 'L': // IL: insert lines
		p.insertLines(paramOr(params, 0, 1))
	case 'M': // DL: delete lines
		p.deleteLines(paramOr(params, 0, 1))
	case 'P': // DCH: delete characters
		p.deleteChars(paramOr(params, 0, 1))
	case 'S': // SU: scroll up
		s.activeGrid().ScrollUp(s.scrollTop, s.scrollBottom, paramOr(params, 0, 1), historyFor(s))
		s.markChanged(ChangedScreen)
	case 'T': // SD: scroll down
		s.activeGrid().ScrollDown(s.scrollTop, s.scrollBottom, paramOr(params, 0, 1))
		s.markChanged(ChangedScreen)
	case 'X': // ECH: erase characters, crossing line boundaries
		p.eraseCharsCrossingLines(paramOr(params, 0, 1))
	case 'Z': // CBT: backward tab stops
		for i := 0; i < paramOr(params, 0, 1); i++ {
			if s.cur.X == 0 {
				break
			}
			s.cur.X = (s.cur.X - 1) / 8 * 8
		}
	case 'b': // REP: repeat preceding character
		p.repeatPreceding(paramOr(params, 0, 1))
	case 'c': // DA: primary device attributes
		p.pendingDA = daPrimary
	case 'd': // VPA: vertical position absolute
		p.setCursorRow(paramOr(params, 0, 1) - 1)
	case 'g': // TBC: clear tab stops (tab stops are not modeled: no-op)
	case 'h': // SM: ANSI mode set
		p.setANSIModes(params, true)
	case 'l': // RM: ANSI mode reset
		p.setANSIModes(params, false)
	case 'm': // SGR
		p.handleSGR(params)
	case 'n': // DSR: device status report
		if paramOr(params, 0, 0) == 6 {
			p.pendingDA = daCursorPos
		}
	case 'r': // DECSTBM: set scroll region
		top := paramOr(params, 0, 1) - 1
		bottom := paramOr(params, 1, s.Rows()) - 1
		if bottom >= s.Rows() {
			bottom = s.Rows() - 1
		}
		if top < 0 {
			top = 0
		}
		if top < bottom {
			s.scrollTop, s.scrollBottom = top, bottom
		} else {
			s.scrollTop, s.scrollBottom = 0, s.Rows()-1
		}
		p.setCursorPos(0, 0)
	case 't': // window manipulation: accepted and ignored
		// Every CSI t request, including 22/23 (push/pop title), is a
		// no-op.
	default:
		// unhandled final byte: ignored; the parser does not log it.
	}
}

// historyFor returns the scrollback ring to push scrolled-off rows into, or
// nil while the alternate screen is active (the alt screen has no history).
func historyFor(s *State) *buffer.History {
	if s.usingAlt {
		return nil
	}
	return s.history
}

func (p *Parser) setCursorCol(x int) {
	s := p.st
	if x < 0 {
		x = 0
	}
	if x >= s.Cols() {
		x = s.Cols() - 1
	}
	s.cur.X = x
	s.cur.pendWrap = false
}

func (p *Parser) setCursorRow(y int) {
	s := p.st
	if y < 0 {
		y = 0
	}
	if y >= s.Rows() {
		y = s.Rows() - 1
	}
	s.cur.Y = y
}

func (p *Parser) setCursorPos(x, y int) {
	p.setCursorRow(y)
	p.setCursorCol(x)
}

func (p *Parser) eraseDisplay(mode int) {
	s := p.st
	g := s.activeGrid()
	switch mode {
	case 0:
		g.ClearRowFrom(s.cur.Y, s.cur.X)
		for y := s.cur.Y + 1; y < s.Rows(); y++ {
			g.ClearRow(y)
		}
	case 1:
		g.ClearRowTo(s.cur.Y, s.cur.X)
		for y := 0; y < s.cur.Y; y++ {
			g.ClearRow(y)
		}
	case 2, 3:
		for y := 0; y < s.Rows(); y++ {
			g.ClearRow(y)
		}
	}
	s.markChanged(ChangedScreen)
}

func (p *Parser) eraseLine(mode int) {
	s := p.st
	g := s.activeGrid()
	switch mode {
	case 0:
		g.ClearRowFrom(s.cur.Y, s.cur.X)
	case 1:
		g.ClearRowTo(s.cur.Y, s.cur.X)
	case 2:
		g.ClearRow(s.cur.Y)
	}
	s.markChanged(ChangedScreen)
}

// eraseCharsCrossingLines implements ECH (CSI X): erase n characters
// starting at the cursor, spilling into subsequent lines when n exceeds the
// remaining columns on the current line. xterm clips ECH to the current
// line; this engine deliberately reproduces the source engine's
// line-crossing behavior instead, per the Open Question resolution in
// SPEC_FULL.md.
func (p *Parser) eraseCharsCrossingLines(n int) {
	s := p.st
	g := s.activeGrid()
	x, y := s.cur.X, s.cur.Y
	for n > 0 && y < s.Rows() {
		row := g.Row(y)
		remaining := len(row) - x
		if remaining > n {
			remaining = n
		}
		for i := 0; i < remaining; i++ {
			row[x+i] = cell.Default()
		}
		g.MarkAllDirty()
		n -= remaining
		x = 0
		y++
	}
	s.markChanged(ChangedScreen)
}

func (p *Parser) insertLines(n int) {
	s := p.st
	if s.cur.Y < s.scrollTop || s.cur.Y > s.scrollBottom {
		return
	}
	s.activeGrid().ScrollDown(s.cur.Y, s.scrollBottom, n)
	s.markChanged(ChangedScreen)
}

func (p *Parser) deleteLines(n int) {
	s := p.st
	if s.cur.Y < s.scrollTop || s.cur.Y > s.scrollBottom {
		return
	}
	s.activeGrid().ScrollUp(s.cur.Y, s.scrollBottom, n, nil)
	s.markChanged(ChangedScreen)
}

func (p *Parser) deleteChars(n int) {
	s := p.st
	g := s.activeGrid()
	row := g.Row(s.cur.Y)
	cols := len(row)
	if s.cur.X >= cols {
		return
	}
	if n > cols-s.cur.X {
		n = cols - s.cur.X
	}
	copy(row[s.cur.X:cols-n], row[s.cur.X+n:cols])
	for i := cols - n; i < cols; i++ {
		row[i] = cell.Default()
	}
	g.MarkAllDirty()
	s.markChanged(ChangedScreen)
}

func (p *Parser) repeatPreceding(n int) {
	s := p.st
	if s.cur.X == 0 {
		return
	}
	prev := s.activeGrid().Cell(s.cur.X-1, s.cur.Y)
	for i := 0; i < n; i++ {
		p.printRune(prev.Codepoint())
	}
}

// setANSIModes handles non-private (no '?') SM/RM parameters. Only IRM (4)
// is meaningfully supported; others are accepted and ignored.
func (p *Parser) setANSIModes(params []int, set bool) {
	for _, m := range params {
		if m == 4 {
			if set {
				p.st.modes |= ModeInsert
			} else {
				p.st.modes &^= ModeInsert
			}
		}
	}
}

// setPrivateModes handles DEC private mode set/reset (CSI ? ... h / l).
func (p *Parser) setPrivateModes(params []int, set bool) {
	s := p.st
	for _, m := range params {
		switch m {
		case 1: // DECCKM
			setMode(s, ModeAppCursorKeys, set)
		case 4: // smooth scroll: not modeled
		case 5: // DECSCNM reverse video: not modeled as a separate mode
		case 6: // DECOM origin mode
			setMode(s, ModeOriginMode, set)
		case 7: // DECAWM autowrap: always on, never honored (see SPEC_FULL.md)
		case 12: // cursor blink: not modeled
		case 25: // DECTCEM cursor visibility
			s.cur.Visible = set
		case 1000:
			setMode(s, ModeMouseNormal, set)
		case 1002:
			setMode(s, ModeMouseButtonEvt, set)
		case 1003:
			setMode(s, ModeMouseAny, set)
		case 1004:
			setMode(s, ModeFocusReporting, set)
		case 1005:
			setMode(s, ModeMouseUTF8, set)
		case 1006:
			setMode(s, ModeMouseSGR, set)
		case 47, 1049:
			p.setAltScreen(set, m == 1049)
		case 2004:
			setMode(s, ModeBracketedPaste, set)
		}
	}
}

func setMode(s *State, flag ModeFlag, set bool) {
	if set {
		s.modes |= flag
	} else {
		s.modes &^= flag
	}
}

// setAltScreen implements the alternate screen buffer swap (modes 47/1049).
// The source engine this is grounded on left the real swap commented out;
// this engine implements it for real, since spec.md requires a working
// alternate buffer.
func (p *Parser) setAltScreen(enable bool, withCursor bool) {
	s := p.st
	if enable == s.usingAlt {
		return
	}
	if enable {
		if withCursor {
			s.savedCur = s.cur
		}
		s.altGrid.Resize(s.Cols(), s.Rows())
		for y := 0; y < s.altGrid.Rows(); y++ {
			s.altGrid.ClearRow(y)
		}
		s.usingAlt = true
		if withCursor {
			s.cur = Cursor{Visible: true}
			s.cur.Attr.SetForeground(s.palette.DefaultFg)
			s.cur.Attr.SetBackground(s.palette.DefaultBg)
		}
	} else {
		s.usingAlt = false
		if withCursor {
			s.cur = s.savedCur
		}
	}
	s.markChanged(ChangedScreen)
}
