package pty

import (
	"fmt"
	"strconv"
)

// Bypass is a pure, platform-agnostic codec for the backtick-escaped
// framing protocol a bridging helper (an `asciienc`-style process) uses to
// multiplex terminal input and resize commands over a single byte stream —
// grounded on original_source/ui-terminal/bypass_pty.cpp's send()/resize()
// and original_source/asciienc/asciienc.cpp's decodeCommands().
//
// On the wire, a literal backtick is doubled ("``"); any other backtick
// introduces a command. The only command this engine needs is resize:
// "`r<cols>:<rows>;".
type Bypass struct{}

// Encode frames input bound for the child, doubling any literal backticks
// so the decoder on the far end can tell data from commands apart.
func (Bypass) Encode(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for _, b := range data {
		out = append(out, b)
		if b == '`' {
			out = append(out, '`')
		}
	}
	return out
}

// EncodeResize frames a resize command for the child side to decode.
func (Bypass) EncodeResize(cols, rows int) []byte {
	return []byte(fmt.Sprintf("`r%d:%d;", cols, rows))
}

// ResizeCommand is a decoded `r<cols>:<rows>; command.
type ResizeCommand struct {
	Cols, Rows int
}

// Decoder incrementally decodes a bypass-framed byte stream, separating
// plain data from resize commands across arbitrarily chunked Feed calls.
// It mirrors asciienc.cpp's decodeCommands: any trailing, not-yet-complete
// command is buffered and re-presented whole on the next Feed call.
type Decoder struct {
	pending []byte // bytes of an in-progress command, including the leading backtick
}

// Feed decodes data, returning the plain bytes to forward to the child and
// any resize commands recognized within this call.
func (d *Decoder) Feed(data []byte) (plain []byte, resizes []ResizeCommand) {
	buf := data
	if len(d.pending) > 0 {
		buf = append(append([]byte{}, d.pending...), data...)
		d.pending = nil
	}
	i := 0
	for i < len(buf) {
		if buf[i] != '`' {
			plain = append(plain, buf[i])
			i++
			continue
		}
		// backtick introducer: need at least one more byte to know which.
		if i+1 >= len(buf) {
			d.pending = append(d.pending, buf[i:]...)
			return plain, resizes
		}
		switch buf[i+1] {
		case '`':
			plain = append(plain, '`')
			i += 2
		case 'r':
			cmd, consumed, complete := parseResizeCommand(buf[i:])
			if !complete {
				d.pending = append(d.pending, buf[i:]...)
				return plain, resizes
			}
			resizes = append(resizes, cmd)
			i += consumed
		default:
			// Unrecognized command byte: drop the introducer and resume,
			// matching the decoder's tolerance for garbage framing rather
			// than aborting the whole stream.
			i++
		}
	}
	return plain, resizes
}

// parseResizeCommand parses "`r<cols>:<rows>;" starting at buf[0] == '`'.
// Returns the parsed command, the number of bytes consumed, and whether the
// command was complete (false means the caller should buffer buf and wait
// for more data).
func parseResizeCommand(buf []byte) (ResizeCommand, int, bool) {
	i := 2 // skip "`r"
	cols, i, ok := parseNumber(buf, i)
	if !ok {
		return ResizeCommand{}, 0, false
	}
	if i >= len(buf) || buf[i] != ':' {
		if i >= len(buf) {
			return ResizeCommand{}, 0, false
		}
		return ResizeCommand{}, i + 1, true // malformed; skip past the bad byte
	}
	i++
	rows, i, ok := parseNumber(buf, i)
	if !ok {
		return ResizeCommand{}, 0, false
	}
	if i >= len(buf) {
		return ResizeCommand{}, 0, false
	}
	if buf[i] != ';' {
		return ResizeCommand{}, i + 1, true
	}
	i++
	return ResizeCommand{Cols: cols, Rows: rows}, i, true
}

func parseNumber(buf []byte, i int) (int, int, bool) {
	start := i
	for i < len(buf) && buf[i] >= '0' && buf[i] <= '9' {
		i++
	}
	if i >= len(buf) {
		return 0, i, false // ran out of data mid-number; need more
	}
	if i == start {
		return 0, i, true // no digits at all: treat as 0, let caller validate delimiter
	}
	n, err := strconv.Atoi(string(buf[start:i]))
	if err != nil {
		return 0, i, true
	}
	return n, i, true
}
