// Package session binds a terminal.Emulator to a persisted on-disk record
// under the control path, so sessions survive a server restart as entries
// that can be listed, re-attached to (while the owning process is still
// alive), or reaped once their child has exited. Grounded on the teacher's
// pkg/session/manager.go, whose Session/Config/Info types this file
// supplies against the new terminal.Emulator API.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vtcore/termhost/pkg/palette"
	"github.com/vtcore/termhost/pkg/pty"
	"github.com/vtcore/termhost/pkg/terminal"
)

// Status is a session's lifecycle state as persisted in info.json.
type Status string

const (
	StatusRunning Status = "running"
	StatusExited  Status = "exited"
)

// Config describes a session to be created.
type Config struct {
	Name           string
	Command        []string
	Env            []string
	Cwd            string
	Cols           int
	Rows           int
	MaxHistoryRows int
	BoldIsBright   bool

	// IsSpawned marks a session that CreateSession records and registers
	// without starting a PTY, after the teacher's spawn-and-attach flow for
	// externally-launched terminals. Nothing in this module supplies a PTY
	// to such a session afterwards, so its Emulator stays nil.
	IsSpawned bool
}

// Info is the subset of session state persisted to info.json; it's also
// what ListSessions returns, so it must stay serializable independent of
// whether the session's emulator is live in this process.
type Info struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Command   []string  `json:"command"`
	Cwd       string    `json:"cwd,omitempty"`
	Cols      int       `json:"cols"`
	Rows      int       `json:"rows"`
	Pid       int       `json:"pid"`
	StartedAt time.Time `json:"startedAt"`
	Status    string    `json:"status"`
	ExitCode  int       `json:"exitCode,omitempty"`
}

// Session pairs a persisted Info record with, when this process is the one
// that spawned it, a live terminal.Emulator.
type Session struct {
	ID   string
	Name string

	dir    string
	config Config

	infoMu sync.RWMutex
	info   *Info

	emulator *terminal.Emulator
	manager  *Manager
	logger   *zap.Logger
}

func infoPath(dir string) string      { return filepath.Join(dir, "info.json") }
func streamOutPath(dir string) string { return filepath.Join(dir, "stream-out") }

func newSession(controlPath string, config Config, m *Manager) (*Session, error) {
	return newSessionWithID(controlPath, uuid.NewString(), config, m)
}

func newSessionWithID(controlPath, id string, config Config, m *Manager) (*Session, error) {
	dir := filepath.Join(controlPath, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session: create dir: %w", err)
	}

	info := &Info{
		ID:        id,
		Name:      config.Name,
		Command:   config.Command,
		Cwd:       config.Cwd,
		Cols:      config.Cols,
		Rows:      config.Rows,
		StartedAt: time.Now(),
		Status:    string(StatusRunning),
	}
	s := &Session{
		ID:      id,
		Name:    config.Name,
		dir:     dir,
		config:  config,
		info:    info,
		manager: m,
		logger:  m.logger.With(zap.String("session", id)),
	}
	if err := s.writeInfo(); err != nil {
		return nil, err
	}
	return s, nil
}

// loadSession reconstructs a Session from its persisted info.json. It has
// no emulator attached: a session loaded this way is read-only metadata
// until re-attached (or is simply a record of a session another process,
// or a prior run of this one, created).
func loadSession(controlPath, id string, m *Manager) (*Session, error) {
	dir := filepath.Join(controlPath, id)
	raw, err := os.ReadFile(infoPath(dir))
	if err != nil {
		return nil, fmt.Errorf("session: read info: %w", err)
	}
	var info Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("session: parse info: %w", err)
	}
	return &Session{
		ID:      info.ID,
		Name:    info.Name,
		dir:     dir,
		info:    &info,
		manager: m,
		logger:  m.logger.With(zap.String("session", id)),
	}, nil
}

// Path returns the session's control directory.
func (s *Session) Path() string { return s.dir }

// StreamOutPath returns the path of the raw-output append log consumers can
// tail to replay everything the child has printed since this session began.
func (s *Session) StreamOutPath() string { return streamOutPath(s.dir) }

func (s *Session) writeInfo() error {
	s.infoMu.RLock()
	raw, err := json.MarshalIndent(s.info, "", "  ")
	s.infoMu.RUnlock()
	if err != nil {
		return err
	}
	return os.WriteFile(infoPath(s.dir), raw, 0o644)
}

// Start spawns the child process behind a PTY and wires its terminal.Emulator.
func (s *Session) Start() error {
	pal := palette.Default256()
	pal.BoldBright = s.config.BoldIsBright

	outFile, err := os.OpenFile(s.StreamOutPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("session: open stream-out: %w", err)
	}

	handlers := terminal.EventHandlers{
		OnRawOutput: func(data []byte) {
			if _, err := outFile.Write(data); err != nil {
				s.logger.Warn("stream-out write failed", zap.Error(err))
			}
			s.manager.NotifyRawPTY(s.ID, data)
			s.manager.NotifyDirectOutput(s.ID, data)
		},
		OnTitleChange: func(title string) {
			s.logger.Debug("title changed", zap.String("title", title))
		},
		OnExit: func(code int) {
			_ = outFile.Close()
			s.infoMu.Lock()
			s.info.Status = string(StatusExited)
			s.info.ExitCode = code
			s.infoMu.Unlock()
			if err := s.writeInfo(); err != nil {
				s.logger.Warn("failed to persist exit status", zap.Error(err))
			}
		},
	}

	emu, err := terminal.New(pty.Spec{
		Command: s.config.Command,
		Env:     s.config.Env,
		Cols:    s.config.Cols,
		Rows:    s.config.Rows,
	}, s.config.MaxHistoryRows, pal, handlers, 60)
	if err != nil {
		_ = outFile.Close()
		return fmt.Errorf("session: start emulator: %w", err)
	}
	s.emulator = emu

	s.infoMu.Lock()
	s.info.Pid = emu.Pid()
	s.info.StartedAt = time.Now()
	s.info.Status = string(StatusRunning)
	s.infoMu.Unlock()
	return s.writeInfo()
}

// Emulator returns the session's live terminal.Emulator, or nil if this
// Session object was loaded from disk rather than started in this process.
func (s *Session) Emulator() *terminal.Emulator { return s.emulator }

// UpdateStatus refreshes the persisted status to reflect reality: a live
// emulator already updates status via its OnExit hook, so this only does
// real work for a Session that was loadSession'd without one.
func (s *Session) UpdateStatus() error {
	if s.emulator != nil {
		return nil
	}
	s.infoMu.RLock()
	alreadyExited := s.info.Status == string(StatusExited)
	pid := s.info.Pid
	s.infoMu.RUnlock()
	if alreadyExited {
		return nil
	}
	if !processAlive(pid) {
		s.infoMu.Lock()
		s.info.Status = string(StatusExited)
		s.infoMu.Unlock()
		return s.writeInfo()
	}
	return nil
}

// IsAlive reports whether the session's child process still exists.
func (s *Session) IsAlive() bool {
	s.infoMu.RLock()
	defer s.infoMu.RUnlock()
	if s.info.Status == string(StatusExited) {
		return false
	}
	return processAlive(s.info.Pid)
}

// Info returns a copy of the session's current persisted metadata.
func (s *Session) Info() Info {
	s.infoMu.RLock()
	defer s.infoMu.RUnlock()
	return *s.info
}
