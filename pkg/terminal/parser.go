package terminal

import (
	"unicode/utf8"

	"github.com/vtcore/termhost/pkg/buffer"
	"github.com/vtcore/termhost/pkg/cell"
)

// parseMode names which escape-sequence collector is currently consuming
// bytes, mirroring the source engine's processInput/parseEscapeSequence
// split and the idiomatic Go "parseState func(c rune)" dispatcher pattern
// seen across the pack's VT parsers.
type parseMode int

const (
	modeGround parseMode = iota
	modeEscape
	modeCSI
	modeOSC
	modeCharsetDesignate
)

const maxOSCLength = 16384

// Parser drives State from a byte stream produced by a PTY. It is not
// safe for concurrent use; Emulator serializes all writes through State.Lock.
type Parser struct {
	st *State

	mode parseMode

	// incomplete UTF-8 tail carried across Write calls.
	utf8Buf [utf8.UTFMax]byte
	utf8Len int

	csi csiCollector
	osc oscCollector

	pendingDA       daKind
	pendingOSCReply []byte

	onTitleChange    func(string)
	onBell           func()
	onClipboardSet   func(data []byte)
	onClipboardQuery func() []byte
}

// NewParser creates a parser writing into st.
func NewParser(st *State) *Parser {
	return &Parser{st: st}
}

// Write feeds raw PTY output bytes into the parser, mutating st. Returns the
// number of bytes consumed, which is always len(data); Write never errors,
// matching the teacher's Write signature which only surfaces I/O errors
// from the PTY side, never parse errors.
func (p *Parser) Write(data []byte) (int, error) {
	n := len(data)
	if p.utf8Len > 0 {
		data = append(append([]byte{}, p.utf8Buf[:p.utf8Len]...), data...)
		p.utf8Len = 0
	}
	for len(data) > 0 {
		switch p.mode {
		case modeGround:
			consumed := p.consumeGround(data)
			if consumed == 0 {
				// incomplete UTF-8 sequence at end of buffer; stash it.
				p.utf8Len = copy(p.utf8Buf[:], data)
				data = nil
				break
			}
			data = data[consumed:]
		case modeEscape:
			data = p.consumeEscape(data)
		case modeCSI:
			data = p.consumeCSI(data)
		case modeOSC:
			data = p.consumeOSC(data)
		case modeCharsetDesignate:
			p.handleCharsetDesignate(data[0])
			data = data[1:]
			p.mode = modeGround
		}
	}
	return n, nil
}

// consumeGround processes one ground-state unit (an ESC introducer, a
// control byte, or one printable rune), returning the number of bytes
// consumed. A return of 0 means data ends mid-rune and the caller should
// buffer it.
func (p *Parser) consumeGround(data []byte) int {
	b := data[0]
	switch {
	case b == 0x1b:
		p.mode = modeEscape
		return 1
	case b < 0x20 || b == 0x7f:
		p.handleControl(b)
		return 1
	case b < 0x80:
		p.printRune(rune(b))
		return 1
	default:
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size <= 1 {
			if !utf8.FullRune(data) {
				return 0
			}
			p.printRune(utf8.RuneError)
			return 1
		}
		p.printRune(r)
		return size
	}
}

func (p *Parser) handleControl(b byte) {
	switch b {
	case '\a': // BEL
		if p.onBell != nil {
			p.onBell()
		}
	case '\b': // BS
		if p.st.cur.X == 0 && p.st.cur.Y > 0 {
			p.st.cur.Y--
			p.st.cur.X = p.st.Cols() - 1
		} else {
			p.moveCursor(-1, 0)
		}
	case '\t': // HT
		p.tab()
	case '\n', '\v', '\f': // LF, VT, FF all act as line feed
		p.lineFeed()
	case '\r': // CR
		p.st.cur.X = 0
		p.st.cur.pendWrap = false
	case 0x7f: // DEL is typically ignored
	}
}

func (p *Parser) printRune(r rune) {
	s := p.st
	if s.charset == CharsetLineDrawing {
		r = translateLineDrawing(r)
	}
	width := runeWidth(r)
	if width == 0 {
		return
	}
	g := s.activeGrid()
	cols := g.Cols()

	if s.cur.pendWrap {
		s.cur.X = 0
		p.newlineAdvance()
		s.cur.pendWrap = false
	}
	if s.modes&ModeInsert != 0 {
		p.insertBlank(1)
	}

	c := s.cur.Attr
	c.SetCodepoint(r)
	if width == 2 {
		c.SetFontFlags(c.FontFlags() | cell.FontDoubleWidth)
	}
	g.SetCell(s.cur.X, s.cur.Y, c)
	if width == 2 && s.cur.X+1 < cols {
		blank := cell.Default()
		blank.SetFontFlags(cell.FontDoubleHeightBottom) // marks "continuation" cell
		g.SetCell(s.cur.X+1, s.cur.Y, blank)
	}

	s.markChanged(ChangedScreen)
	advance := 1
	if width == 2 {
		advance = 2
	}
	if s.cur.X+advance >= cols {
		s.cur.X = cols - 1
		s.cur.pendWrap = true
	} else {
		s.cur.X += advance
	}
}

// runeWidth reports the terminal column width of r: 0 for combining/zero
// width marks, 2 for East-Asian wide/fullwidth, 1 otherwise.
func runeWidth(r rune) int {
	if r == 0 {
		return 0
	}
	switch {
	case r >= 0x0300 && r <= 0x036f: // combining diacriticals
		return 0
	case isWideRune(r):
		return 2
	default:
		return 1
	}
}

func isWideRune(r rune) bool {
	switch {
	case r >= 0x1100 && r <= 0x115f: // Hangul Jamo
		return true
	case r >= 0x2e80 && r <= 0xa4cf && r != 0x303f: // CJK radicals .. Yi
		return true
	case r >= 0xac00 && r <= 0xd7a3: // Hangul syllables
		return true
	case r >= 0xf900 && r <= 0xfaff: // CJK compatibility ideographs
		return true
	case r >= 0xff00 && r <= 0xff60: // fullwidth forms
		return true
	case r >= 0xffe0 && r <= 0xffe6:
		return true
	case r >= 0x20000 && r <= 0x3fffd: // CJK extension planes
		return true
	default:
		return false
	}
}

func (p *Parser) tab() {
	s := p.st
	next := (s.cur.X/8 + 1) * 8
	cols := s.Cols()
	if next >= cols {
		next = cols - 1
	}
	s.cur.X = next
}

func (p *Parser) lineFeed() {
	p.newlineAdvance()
}

// newlineAdvance moves the cursor down one row, scrolling the active region
// when the cursor is at the scroll region's bottom margin.
func (p *Parser) newlineAdvance() {
	s := p.st
	if s.cur.Y == s.scrollBottom {
		var hist *buffer.History
		if !s.usingAlt {
			hist = s.history
		}
		s.activeGrid().ScrollUp(s.scrollTop, s.scrollBottom, 1, hist)
		s.markChanged(ChangedScreen)
	} else if s.cur.Y < s.Rows()-1 {
		s.cur.Y++
	}
}

func (p *Parser) moveCursor(dx, dy int) {
	s := p.st
	x := s.cur.X + dx
	y := s.cur.Y + dy
	if x < 0 {
		x = 0
	}
	if x >= s.Cols() {
		x = s.Cols() - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= s.Rows() {
		y = s.Rows() - 1
	}
	s.cur.X, s.cur.Y = x, y
	s.cur.pendWrap = false
}

func (p *Parser) insertBlank(n int) {
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
	copy(row[s.cur.X+n:], row[s.cur.X:cols-n])
	for i := s.cur.X; i < s.cur.X+n && i < cols; i++ {
		row[i] = cell.Default()
	}
	g.MarkAllDirty()
}

func (p *Parser) handleCharsetDesignate(b byte) {
	switch b {
	case '0':
		p.st.charset = CharsetLineDrawing
	case 'B':
		p.st.charset = CharsetASCII
	default:
		// other national charsets are ignored; the parser does not log them.
	}
}
