package terminal

// EventHandlers bundles the façade-level callbacks an Emulator fires as a
// result of processing PTY output or acting on a keymap/mouse request. All
// fields are optional; a nil handler is simply not called.
type EventHandlers struct {
	// OnRawOutput fires synchronously with every chunk of unparsed PTY
	// output, before it reaches the grid — the hook transports use to
	// forward byte-identical output to a "raw passthrough" consumer
	// without waiting on the parser or the snapshot cadence.
	OnRawOutput func(data []byte)

	// OnTitleChange fires when the window title changes (OSC 0/1/2).
	OnTitleChange func(title string)

	// OnBell fires on BEL.
	OnBell func()

	// OnClipboardSet fires when the child requests the clipboard be set
	// (OSC 52 with literal data).
	OnClipboardSet func(data []byte)

	// OnClipboardRequest is called to satisfy an OSC 52 query ("52;c;?");
	// its return value is sent back to the child as the new clipboard
	// contents. A nil handler causes the query to be silently ignored.
	OnClipboardRequest func() []byte

	// OnExit fires once the PTY's child process has exited, with its exit
	// code (-1 if it could not be determined).
	OnExit func(code int)
}
