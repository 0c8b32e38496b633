package terminal

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// oscCollector accumulates the bytes of an OSC sequence (after `ESC ]`),
// which terminates in either BEL or the two-byte ST (`ESC \`).
type oscCollector struct {
	raw    []byte
	sawEsc bool
}

// consumeOSC feeds bytes into the in-progress OSC sequence. It returns the
// unconsumed remainder, or nil if the sequence is still incomplete.
func (p *Parser) consumeOSC(data []byte) []byte {
	for i := 0; i < len(data); i++ {
		b := data[i]
		if p.osc.sawEsc {
			if b == '\\' {
				p.dispatchOSC()
				p.mode = modeGround
				p.osc = oscCollector{}
				return data[i+1:]
			}
			// Not a valid ST: the ESC started a new, unrelated escape
			// sequence. Abandon the OSC and reprocess from the ESC.
			p.mode = modeEscape
			p.osc = oscCollector{}
			return data[i:]
		}
		switch {
		case b == 0x07:
			p.dispatchOSC()
			p.mode = modeGround
			p.osc = oscCollector{}
			return data[i+1:]
		case b == 0x1b:
			p.osc.sawEsc = true
		case len(p.osc.raw) >= maxOSCLength:
			// Oversized OSC: discard and resume top-level dispatch,
			// per the OSC max length resolution in SPEC_FULL.md.
			p.mode = modeGround
			p.osc = oscCollector{}
			return data[i+1:]
		default:
			p.osc.raw = append(p.osc.raw, b)
		}
	}
	return nil
}

func (p *Parser) dispatchOSC() {
	raw := string(p.osc.raw)
	sep := strings.IndexByte(raw, ';')
	var code string
	var rest string
	if sep < 0 {
		code, rest = raw, ""
	} else {
		code, rest = raw[:sep], raw[sep+1:]
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return
	}
	switch n {
	case 0, 1, 2: // icon name / window title / both
		p.st.title = rest
		p.st.markChanged(ChangedTitle)
		if p.onTitleChange != nil {
			p.onTitleChange(rest)
		}
	case 52: // clipboard set/query
		p.handleClipboardOSC(rest)
	}
}

// handleClipboardOSC implements OSC 52: `<selection>;<base64 data>`, where
// data of "?" is a query (answered with the current clipboard contents,
// re-encoded as the same OSC) and anything else is base64-encoded data to
// set the clipboard to.
func (p *Parser) handleClipboardOSC(rest string) {
	sep := strings.IndexByte(rest, ';')
	if sep < 0 {
		return
	}
	selection := rest[:sep]
	payload := rest[sep+1:]
	if payload == "?" {
		if p.onClipboardQuery == nil {
			return
		}
		data := p.onClipboardQuery()
		encoded := base64.StdEncoding.EncodeToString(data)
		p.pendingOSCReply = []byte("\x1b]52;" + selection + ";" + encoded + "\x07")
		return
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return
	}
	if p.onClipboardSet != nil {
		p.onClipboardSet(data)
	}
}
