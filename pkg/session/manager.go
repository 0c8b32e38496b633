package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

// DirectOutputCallback is called when PTY output is available for a session.
type DirectOutputCallback func(sessionID string, data []byte)

// RawPTYCallback is called with byte-identical PTY output, synchronously and
// without the dedup/debounce a DirectOutputCallback consumer may apply —
// used by the raw passthrough websocket mode.
type RawPTYCallback func(sessionID string, data []byte)

// Manager owns the on-disk control path, the registry of sessions this
// process has started, and the callback fan-out that lets the transport
// layer observe PTY output as it arrives.
type Manager struct {
	controlPath         string
	runningSessions     map[string]*Session
	mutex               sync.RWMutex
	doNotAllowColumnSet bool

	directOutputCallbacks map[string][]DirectOutputCallback
	callbackMutex         sync.RWMutex

	rawCallbacks   map[string][]RawPTYCallback
	rawCallbackMtx sync.RWMutex

	logger  *zap.Logger
	watcher *fsnotify.Watcher
}

// NewManager constructs a Manager rooted at controlPath, starting an
// fsnotify watch on it that logs session directories appearing or vanishing.
// The watch does not feed ListSessions, which reads the directory on every
// call.
func NewManager(controlPath string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		controlPath:           controlPath,
		runningSessions:       make(map[string]*Session),
		directOutputCallbacks: make(map[string][]DirectOutputCallback),
		rawCallbacks:          make(map[string][]RawPTYCallback),
		logger:                logger,
	}
	if err := os.MkdirAll(controlPath, 0o755); err == nil {
		if w, err := fsnotify.NewWatcher(); err == nil {
			if err := w.Add(controlPath); err == nil {
				m.watcher = w
				go m.watchControlPath()
			} else {
				_ = w.Close()
			}
		}
	}
	return m
}

// watchControlPath logs control-path churn (session directories appearing
// or vanishing out from under this process) — a pure observability aid; the
// registry of record stays the on-disk directory listing read by
// ListSessions, not anything cached from these events.
func (m *Manager) watchControlPath() {
	for {
		select {
		case ev, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.logger.Debug("control path event", zap.String("name", ev.Name), zap.String("op", ev.Op.String()))
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			m.logger.Warn("control path watch error", zap.Error(err))
		}
	}
}

// Close stops the control-path watcher.
func (m *Manager) Close() error {
	if m.watcher != nil {
		return m.watcher.Close()
	}
	return nil
}

// SetDoNotAllowColumnSet sets the flag to disable terminal resizing for all sessions.
func (m *Manager) SetDoNotAllowColumnSet(value bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.doNotAllowColumnSet = value
}

// GetDoNotAllowColumnSet returns the current value of the resize disable flag.
func (m *Manager) GetDoNotAllowColumnSet() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.doNotAllowColumnSet
}

func (m *Manager) CreateSession(config Config) (*Session, error) {
	if err := os.MkdirAll(m.controlPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create control directory: %w", err)
	}

	sess, err := newSession(m.controlPath, config, m)
	if err != nil {
		return nil, err
	}
	return m.startAndRegister(sess, config)
}

func (m *Manager) CreateSessionWithID(id string, config Config) (*Session, error) {
	if err := os.MkdirAll(m.controlPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create control directory: %w", err)
	}

	sess, err := newSessionWithID(m.controlPath, id, config, m)
	if err != nil {
		return nil, err
	}
	return m.startAndRegister(sess, config)
}

func (m *Manager) startAndRegister(sess *Session, config Config) (*Session, error) {
	// Spawned sessions are registered without starting a PTY; nothing in
	// this module attaches one to them later.
	if !config.IsSpawned {
		if err := sess.Start(); err != nil {
			if removeErr := os.RemoveAll(sess.Path()); removeErr != nil {
				m.logger.Error("failed to remove session path after start failure", zap.Error(removeErr))
			}
			return nil, err
		}
	} else {
		m.logger.Debug("created spawned session, waiting for terminal to attach", zap.String("session", sess.ID))
	}

	m.mutex.Lock()
	m.runningSessions[sess.ID] = sess
	m.mutex.Unlock()

	return sess, nil
}

func (m *Manager) GetSession(id string) (*Session, error) {
	m.mutex.RLock()
	if sess, exists := m.runningSessions[id]; exists {
		m.mutex.RUnlock()
		return sess, nil
	}
	m.mutex.RUnlock()

	// Fall back to loading from disk: a session another process (or a
	// prior run of this one) started.
	return loadSession(m.controlPath, id, m)
}

func (m *Manager) FindSession(nameOrID string) (*Session, error) {
	sessions, err := m.ListSessions()
	if err != nil {
		return nil, err
	}

	for _, s := range sessions {
		if s.ID == nameOrID || s.Name == nameOrID || strings.HasPrefix(s.ID, nameOrID) {
			return m.GetSession(s.ID)
		}
	}

	return nil, fmt.Errorf("session not found: %s", nameOrID)
}

func (m *Manager) ListSessions() ([]*Info, error) {
	entries, err := os.ReadDir(m.controlPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []*Info{}, nil
		}
		return nil, err
	}

	sessions := make([]*Info, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		sess, err := loadSession(m.controlPath, entry.Name(), m)
		if err != nil {
			m.logger.Debug("failed to load session", zap.String("id", entry.Name()), zap.Error(err))
			continue
		}

		// Only re-check liveness if not already marked exited, to reduce
		// how often we shell out to /proc via gopsutil.
		info := sess.Info()
		if info.Status != string(StatusExited) {
			if err := sess.UpdateStatus(); err != nil {
				m.logger.Warn("failed to update session status", zap.String("id", sess.ID), zap.Error(err))
			}
			info = sess.Info()
		}

		sessions = append(sessions, &info)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})

	return sessions, nil
}

// CleanupExitedSessions only refreshes status; use RemoveExitedSessions to
// actually delete exited sessions' on-disk directories.
func (m *Manager) CleanupExitedSessions() error {
	return m.UpdateAllSessionStatuses()
}

// RemoveExitedSessions removes the control directory of every session whose
// process is no longer alive, asking gopsutil for the process status instead
// of shelling out to ps. A zombie counts as not alive; it is not reaped.
func (m *Manager) RemoveExitedSessions() error {
	sessions, err := m.ListSessions()
	if err != nil {
		return err
	}

	var errs []error
	for _, info := range sessions {
		if processAlive(info.Pid) {
			continue
		}
		sessionPath := filepath.Join(m.controlPath, info.ID)
		if err := os.RemoveAll(sessionPath); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", info.ID, err))
			continue
		}
		m.logger.Info("cleaned up exited session", zap.String("id", info.ID))
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// UpdateAllSessionStatuses refreshes every session's persisted status.
func (m *Manager) UpdateAllSessionStatuses() error {
	sessions, err := m.ListSessions()
	if err != nil {
		return err
	}

	for _, info := range sessions {
		if sess, err := m.GetSession(info.ID); err == nil {
			if err := sess.UpdateStatus(); err != nil {
				m.logger.Warn("failed to update session status", zap.String("id", info.ID), zap.Error(err))
			}
		}
	}

	return nil
}

func (m *Manager) RemoveSession(id string) error {
	m.mutex.Lock()
	sess := m.runningSessions[id]
	delete(m.runningSessions, id)
	m.mutex.Unlock()

	if sess != nil && sess.Emulator() != nil {
		_ = sess.Emulator().Close()
	}

	m.callbackMutex.Lock()
	delete(m.directOutputCallbacks, id)
	m.callbackMutex.Unlock()

	m.rawCallbackMtx.Lock()
	delete(m.rawCallbacks, id)
	m.rawCallbackMtx.Unlock()

	sessionPath := filepath.Join(m.controlPath, id)
	return os.RemoveAll(sessionPath)
}

// RegisterDirectOutputCallback registers a callback fired (in its own
// goroutine, so a slow consumer cannot stall the reader thread) whenever
// new PTY output is available for sessionID.
func (m *Manager) RegisterDirectOutputCallback(sessionID string, callback DirectOutputCallback) {
	m.callbackMutex.Lock()
	defer m.callbackMutex.Unlock()
	m.directOutputCallbacks[sessionID] = append(m.directOutputCallbacks[sessionID], callback)
}

// UnregisterDirectOutputCallback clears every direct-output callback
// registered for sessionID.
func (m *Manager) UnregisterDirectOutputCallback(sessionID string) {
	m.callbackMutex.Lock()
	defer m.callbackMutex.Unlock()
	delete(m.directOutputCallbacks, sessionID)
}

// NotifyDirectOutput fans new PTY output out to every registered callback.
func (m *Manager) NotifyDirectOutput(sessionID string, data []byte) {
	m.callbackMutex.RLock()
	callbacks := m.directOutputCallbacks[sessionID]
	m.callbackMutex.RUnlock()

	for _, callback := range callbacks {
		go callback(sessionID, data)
	}
}

// RegisterRawPTYCallback registers a callback for byte-identical PTY output.
func (m *Manager) RegisterRawPTYCallback(sessionID string, callback RawPTYCallback) {
	m.rawCallbackMtx.Lock()
	defer m.rawCallbackMtx.Unlock()
	m.rawCallbacks[sessionID] = append(m.rawCallbacks[sessionID], callback)
}

// UnregisterRawPTYCallback clears every raw-PTY callback for sessionID.
func (m *Manager) UnregisterRawPTYCallback(sessionID string) {
	m.rawCallbackMtx.Lock()
	defer m.rawCallbackMtx.Unlock()
	delete(m.rawCallbacks, sessionID)
}

// NotifyRawPTY calls every registered raw-PTY callback synchronously, in
// registration order, for minimum added latency.
func (m *Manager) NotifyRawPTY(sessionID string, data []byte) {
	m.rawCallbackMtx.RLock()
	callbacks := m.rawCallbacks[sessionID]
	m.rawCallbackMtx.RUnlock()

	for _, callback := range callbacks {
		callback(sessionID, data)
	}
}

// processAlive reports whether pid names a live, non-zombie process, using
// gopsutil's /proc-backed process.NewProcess instead of shelling out to ps.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	statuses, err := proc.Status()
	if err != nil {
		return false
	}
	for _, st := range statuses {
		if st == process.Zombie {
			return false
		}
	}
	return true
}
