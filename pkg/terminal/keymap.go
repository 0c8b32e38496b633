package terminal

import "fmt"

// Key identifies a non-printable key the Emulator's KeyDown accepts. The
// caller encodes ordinary printable characters itself via KeyChar/WriteInput
// — Key only covers keys that need an escape sequence.
type Key int

const (
	KeyUnknown Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyBackspace
	KeyTab
	KeyEnter
	KeyEscape
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// Modifier is a bitmask of held modifier keys, matching the VT_MODIFIERS
// convention (1=none, +1 shift, +2 alt, +4 ctrl, so the encoded value is
// 1+shift+2*alt+4*ctrl).
type Modifier int

const (
	ModShift Modifier = 1 << iota
	ModAlt
	ModCtrl
)

func (m Modifier) code() int {
	code := 1
	if m&ModShift != 0 {
		code += 1
	}
	if m&ModAlt != 0 {
		code += 2
	}
	if m&ModCtrl != 0 {
		code += 4
	}
	return code
}

// csiLetterKeys maps arrow/Home/End keys to their final CSI letter.
var csiLetterKeys = map[Key]byte{
	KeyUp:    'A',
	KeyDown:  'B',
	KeyRight: 'C',
	KeyLeft:  'D',
	KeyHome:  'H',
	KeyEnd:   'F',
}

// tildeKeys maps Insert/Delete/PageUp/PageDown/F5-F12 to their CSI ~
// numeric code.
var tildeKeys = map[Key]int{
	KeyInsert:   2,
	KeyDelete:   3,
	KeyPageUp:   5,
	KeyPageDown: 6,
	KeyF5:       15,
	KeyF6:       17,
	KeyF7:       18,
	KeyF8:       19,
	KeyF9:       20,
	KeyF10:      21,
	KeyF11:      23,
	KeyF12:      24,
}

// ssLetterKeys maps F1-F4, which use SS3 (ESC O) rather than CSI, in the
// unmodified case.
var ssLetterKeys = map[Key]byte{
	KeyF1: 'P',
	KeyF2: 'Q',
	KeyF3: 'R',
	KeyF4: 'S',
}

// EncodeKey returns the byte sequence to send to the PTY for key with the
// given modifiers, honoring appCursorKeys (DECCKM) for the arrow/Home/End
// keys the way the source keymap's `[`/`O` swap does.
func EncodeKey(key Key, mods Modifier, appCursorKeys bool) []byte {
	switch key {
	case KeyBackspace:
		if mods&ModAlt != 0 {
			return []byte{0x1b, 0x7f}
		}
		return []byte{0x7f}
	case KeyTab:
		if mods&ModShift != 0 {
			return []byte("\x1b[Z")
		}
		return []byte{'\t'}
	case KeyEnter:
		return []byte{'\r'}
	case KeyEscape:
		return []byte{0x1b}
	}
	if letter, ok := csiLetterKeys[key]; ok {
		prefix := byte('[')
		if appCursorKeys && mods == 0 {
			prefix = 'O'
		}
		if mods == 0 {
			return []byte{0x1b, prefix, letter}
		}
		return []byte(fmt.Sprintf("\x1b[1;%d%c", mods.code(), letter))
	}
	if letter, ok := ssLetterKeys[key]; ok && mods == 0 {
		return []byte{0x1b, 'O', letter}
	}
	if letter, ok := ssLetterKeys[key]; ok {
		return []byte(fmt.Sprintf("\x1b[1;%d%c", mods.code(), letter))
	}
	if n, ok := tildeKeys[key]; ok {
		if mods == 0 {
			return []byte(fmt.Sprintf("\x1b[%d~", n))
		}
		return []byte(fmt.Sprintf("\x1b[%d;%d~", n, mods.code()))
	}
	return nil
}

// EncodeCtrlChar returns the control byte for Ctrl held with an ASCII
// letter (e.g. Ctrl-A -> 0x01), or nil if r is not a controllable letter.
func EncodeCtrlChar(r rune) []byte {
	switch {
	case r >= 'a' && r <= 'z':
		return []byte{byte(r - 'a' + 1)}
	case r >= 'A' && r <= 'Z':
		return []byte{byte(r - 'A' + 1)}
	case r == '[' || r == '\\' || r == ']' || r == '^' || r == '_':
		return []byte{byte(r - '@')}
	case r == '?':
		return []byte{0x7f}
	default:
		return nil
	}
}
