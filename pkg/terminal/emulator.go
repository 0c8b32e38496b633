package terminal

import (
	"sync"
	"time"

	"github.com/vtcore/termhost/pkg/palette"
	"github.com/vtcore/termhost/pkg/pty"
)

// Emulator is the C5 façade: it owns one PTY host and one terminal State,
// runs the reader thread that feeds PTY output through the parser, and
// exposes the render- and input-facing operations external consumers
// (the session/transport layers, or a direct embedder) use. Grounded on the
// teacher's TerminalBuffer+session pairing, generalized into a single
// cohesive type per spec.md's C5 description.
type Emulator struct {
	st     *State
	parser *Parser
	host   pty.Host
	fps    int

	handlers EventHandlers

	notify chan struct{}
	done   chan struct{}
	wg     sync.WaitGroup

	closeOnce sync.Once
}

// New spawns spec's command behind a PTY and wires a terminal.State of the
// given dimensions to it, starting the reader and repaint-notification
// threads. fps of 0 disables the repaint ticker (consumers must poll
// Snapshot themselves).
func New(spec pty.Spec, maxHistory int, pal *palette.Palette, handlers EventHandlers, fps int) (*Emulator, error) {
	host, err := pty.Spawn(spec)
	if err != nil {
		return nil, err
	}
	st := NewState(spec.Cols, spec.Rows, maxHistory, pal)
	p := NewParser(st)
	p.onTitleChange = handlers.OnTitleChange
	p.onBell = handlers.OnBell
	p.onClipboardSet = handlers.OnClipboardSet
	p.onClipboardQuery = handlers.OnClipboardRequest

	e := &Emulator{
		st:       st,
		parser:   p,
		host:     host,
		fps:      fps,
		handlers: handlers,
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	e.wg.Add(1)
	go e.readLoop()
	if fps > 0 {
		e.wg.Add(1)
		go e.repaintLoop()
	}
	e.wg.Add(1)
	go e.waitLoop()
	return e, nil
}

// readLoop is the reader thread: it blocks in host.Recv, feeds each chunk
// through the parser under the ordinary (non-priority) lock, and forwards
// any reply bytes the parser generated (DA/cursor-position/clipboard
// responses) back to the child.
func (e *Emulator) readLoop() {
	defer e.wg.Done()
	buf := make([]byte, 65536)
	for {
		n, err := e.host.Recv(buf)
		if n > 0 {
			if e.handlers.OnRawOutput != nil {
				raw := make([]byte, n)
				copy(raw, buf[:n])
				e.handlers.OnRawOutput(raw)
			}
			e.st.Lock.Lock()
			_, _ = e.parser.Write(buf[:n])
			reply := e.parser.PendingReply()
			e.st.Lock.Unlock()
			if len(reply) > 0 {
				_, _ = e.host.Send(reply)
			}
			e.signalDirty()
		}
		if err != nil {
			return
		}
	}
}

// repaintLoop pings notify at fps whenever the grid has unflushed changes,
// mirroring the teacher's frame-rate-limited repaint ticker.
func (e *Emulator) repaintLoop() {
	defer e.wg.Done()
	period := time.Second / time.Duration(e.fps)
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			e.st.Lock.Lock()
			dirty := e.st.activeGrid().AnyDirty() || e.st.changeFlags != 0
			e.st.Lock.Unlock()
			if dirty {
				e.signalDirty()
			}
		case <-e.done:
			return
		}
	}
}

func (e *Emulator) signalDirty() {
	select {
	case e.notify <- struct{}{}:
	default:
	}
}

// Dirty returns a channel that receives a value whenever the terminal may
// have new content to render. It is safe for a single consumer to range
// over; Snapshot itself decides whether there's actually anything new.
func (e *Emulator) Dirty() <-chan struct{} {
	return e.notify
}

func (e *Emulator) waitLoop() {
	defer e.wg.Done()
	code, _ := e.host.Wait()
	close(e.done)
	if e.handlers.OnExit != nil {
		e.handlers.OnExit(code)
	}
}

// Snapshot takes a render-ready copy of the grid under the priority lock,
// so it is never delayed behind a queue of ordinary Lock waiters even while
// the reader thread is busy with a burst of PTY output. full forces a
// complete-grid snapshot; otherwise an incremental snapshot holding only the
// dirty rows is returned (with no rows when nothing changed). Whenever
// anything was dirty, the grid's dirty flags and change flags are cleared
// before the lock is released.
func (e *Emulator) Snapshot(full bool) *BufferSnapshot {
	e.st.Lock.PriorityLock()
	defer e.st.Lock.Unlock()

	g := e.st.activeGrid()
	if !full && !g.AnyDirty() && e.st.changeFlags == 0 {
		return newIncrementalSnapshot(e.st)
	}
	var snap *BufferSnapshot
	if full {
		snap = newFullSnapshot(e.st)
	} else {
		snap = newIncrementalSnapshot(e.st)
	}
	g.ResetDirty()
	e.st.changeFlags = 0
	return snap
}

// Resize adjusts both the terminal state and the underlying PTY to the new
// dimensions.
func (e *Emulator) Resize(cols, rows int) error {
	e.st.Lock.Lock()
	e.st.Resize(cols, rows)
	e.st.Lock.Unlock()
	return e.host.Resize(cols, rows)
}

// WriteInput sends raw bytes (already-encoded keystrokes, pasted text,
// etc.) straight to the child process.
func (e *Emulator) WriteInput(data []byte) (int, error) {
	return e.host.Send(data)
}

// KeyDown encodes and sends a non-printable key, honoring the terminal's
// current application-cursor-keys mode.
func (e *Emulator) KeyDown(key Key, mods Modifier) error {
	e.st.Lock.Lock()
	appCursor := e.st.modes&ModeAppCursorKeys != 0
	e.st.Lock.Unlock()
	seq := EncodeKey(key, mods, appCursor)
	if seq == nil {
		return nil
	}
	_, err := e.host.Send(seq)
	return err
}

// KeyChar encodes and sends a printable character, applying Ctrl/Alt
// modifiers.
func (e *Emulator) KeyChar(r rune, mods Modifier) error {
	var seq []byte
	if mods&ModCtrl != 0 {
		seq = EncodeCtrlChar(r)
	}
	if seq == nil {
		seq = []byte(string(r))
	}
	if mods&ModAlt != 0 {
		seq = append([]byte{0x1b}, seq...)
	}
	_, err := e.host.Send(seq)
	return err
}

// Paste sends data to the child, bracketing it with the bracketed-paste
// markers when that mode is enabled.
func (e *Emulator) Paste(data []byte) error {
	e.st.Lock.Lock()
	bracketed := e.st.modes&ModeBracketedPaste != 0
	e.st.Lock.Unlock()
	if bracketed {
		data = append(append([]byte("\x1b[200~"), data...), []byte("\x1b[201~")...)
	}
	_, err := e.host.Send(data)
	return err
}

// MouseEvent encodes and sends a mouse report if the terminal's current
// tracking mode wants this kind of event.
func (e *Emulator) MouseEvent(x, y int, btn MouseButton, kind MouseEventKind, mods Modifier) error {
	e.st.Lock.Lock()
	modes := e.st.modes
	e.st.Lock.Unlock()

	wantsMotion := modes&ModeMouseAny != 0
	wantsButtonEvt := modes&ModeMouseButtonEvt != 0
	wantsClicks := modes&ModeMouseNormal != 0

	switch kind {
	case MouseMotion:
		if !wantsMotion && !(wantsButtonEvt && btn != MouseNone) {
			return nil
		}
	default:
		if !wantsClicks && !wantsButtonEvt && !wantsMotion {
			return nil
		}
	}

	enc := MouseEncodingDefault
	if modes&ModeMouseSGR != 0 {
		enc = MouseEncodingSGR
	}
	seq := EncodeMouse(x, y, btn, kind, mods, enc)
	_, err := e.host.Send(seq)
	return err
}

// Done returns a channel closed once the child process has exited.
func (e *Emulator) Done() <-chan struct{} {
	return e.done
}

// Pid returns the child process's process ID.
func (e *Emulator) Pid() int {
	return e.host.Pid()
}

// Title returns the terminal's current window title.
func (e *Emulator) Title() string {
	e.st.Lock.Lock()
	defer e.st.Lock.Unlock()
	return e.st.title
}

// Close terminates the child process and releases the PTY. It is safe to
// call more than once.
func (e *Emulator) Close() error {
	var err error
	e.closeOnce.Do(func() {
		_ = e.host.Terminate()
		err = e.host.Close()
		e.wg.Wait()
	})
	return err
}
