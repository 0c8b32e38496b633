package terminal

import "strconv"

// daKind enumerates the device-status reports the parser can be asked to
// produce. The parser itself has no channel back to the PTY, so it only
// records the most recent request; Emulator drains PendingReply after each
// Write call and writes the encoded bytes back to the child process.
type daKind int

const (
	daNone daKind = iota
	daPrimary
	daSecondary
	daCursorPos
)

// PendingReply returns and clears any bytes the last Write call generated
// that must be sent back to the PTY: a device-status report and/or a
// clipboard-query (OSC 52) response.
func (p *Parser) PendingReply() []byte {
	kind := p.pendingDA
	p.pendingDA = daNone
	var out []byte
	switch kind {
	case daPrimary:
		out = []byte("\x1b[?6c")
	case daSecondary:
		out = []byte("\x1b[>0;0;0c")
	case daCursorPos:
		row := p.st.cur.Y + 1
		col := p.st.cur.X + 1
		out = []byte("\x1b[" + strconv.Itoa(row) + ";" + strconv.Itoa(col) + "R")
	}
	if p.pendingOSCReply != nil {
		out = append(out, p.pendingOSCReply...)
		p.pendingOSCReply = nil
	}
	return out
}
