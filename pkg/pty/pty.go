// Package pty hosts a child process behind a pseudo-terminal, the
// lowest-level collaborator the terminal façade drives.
package pty

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// Host is the interface the terminal façade uses to drive a child process's
// PTY: sending input, receiving output, resizing, and waiting for exit.
type Host interface {
	Send(data []byte) (int, error)
	Recv(buf []byte) (int, error)
	Resize(cols, rows int) error
	Terminate() error
	Wait() (int, error)
	Close() error
	Pid() int
}

// Spec describes the child process to spawn.
type Spec struct {
	Command []string
	Env     []string // additional "KEY=VALUE" entries appended to os.Environ()
	Cols    int
	Rows    int
}

// unixHost wraps github.com/creack/pty, the teacher's own PTY dependency,
// grounded on original_source/vterm/local_pty.cpp's forkpty-based
// LocalPTY — creack/pty is the idiomatic Go equivalent of that forkpty
// call, handling session leadership and controlling-terminal assignment
// internally instead of the raw setsid/TIOCSCTTY calls the C++ makes
// explicit.
type unixHost struct {
	cmd *exec.Cmd
	f   *os.File
}

// Spawn starts spec.Command as a child process attached to a new PTY sized
// spec.Cols x spec.Rows.
func Spawn(spec Spec) (Host, error) {
	if len(spec.Command) == 0 {
		return nil, fmt.Errorf("pty: no command specified")
	}
	cmd := exec.Command(spec.Command[0], spec.Command[1:]...)
	cmd.Env = append(os.Environ(), spec.Env...)
	cmd.Env = append(cmd.Env, "TERM=xterm-256color", "COLORTERM=truecolor")

	f, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: uint16(spec.Cols),
		Rows: uint16(spec.Rows),
	})
	if err != nil {
		return nil, fmt.Errorf("pty: spawn %v: %w", spec.Command, err)
	}
	return &unixHost{cmd: cmd, f: f}, nil
}

func (h *unixHost) Send(data []byte) (int, error) {
	return h.f.Write(data)
}

func (h *unixHost) Recv(buf []byte) (int, error) {
	return h.f.Read(buf)
}

func (h *unixHost) Resize(cols, rows int) error {
	return pty.Setsize(h.f, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}

func (h *unixHost) Terminate() error {
	if h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Kill()
}

func (h *unixHost) Wait() (int, error) {
	err := h.cmd.Wait()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

func (h *unixHost) Close() error {
	return h.f.Close()
}

func (h *unixHost) Pid() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}
