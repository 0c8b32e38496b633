package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// newAttachCommand implements the local-attach path: it puts this
// process's own stdin into raw mode (the same termios bits
// original_source/asciienc/asciienc.cpp's RawModeInput flips, reached here
// through golang.org/x/term instead of a raw termios.h RAII wrapper) and
// pumps bytes between the terminal and a session's emulator directly. It
// only works for a session whose PTY lives in this process; since the
// command builds its own session manager, a session started by another
// termhost process is found only as its on-disk record and is refused.
// Attaching to a session owned by another process is the websocket
// client's job, not this command's.
func newAttachCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach <session>",
		Short: "Attach this terminal to a locally-hosted session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd, "attach")
			defer logger.Sync()

			sessions := newManager(cmd, logger)
			defer sessions.Close()

			sess, err := sessions.FindSession(args[0])
			if err != nil {
				return err
			}
			emu := sess.Emulator()
			if emu == nil {
				return fmt.Errorf("session %s has no live terminal in this process; attach over the websocket API instead", sess.ID)
			}

			fd := int(os.Stdin.Fd())
			oldState, err := term.MakeRaw(fd)
			if err != nil {
				return fmt.Errorf("attach: enter raw mode: %w", err)
			}
			defer term.Restore(fd, oldState)

			sessions.RegisterRawPTYCallback(sess.ID, func(_ string, data []byte) {
				_, _ = os.Stdout.Write(data)
			})
			defer sessions.UnregisterRawPTYCallback(sess.ID)

			if cols, rows, err := term.GetSize(fd); err == nil {
				_ = emu.Resize(cols, rows)
			}

			buf := make([]byte, 4096)
			for {
				n, err := os.Stdin.Read(buf)
				if n > 0 {
					if _, werr := emu.WriteInput(buf[:n]); werr != nil {
						return werr
					}
				}
				if err != nil {
					if err == io.EOF {
						return nil
					}
					return err
				}
			}
		},
	}
	return cmd
}
