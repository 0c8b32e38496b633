// Package termsocket fans a session's terminal.Emulator snapshots out to
// any number of subscribers (websocket connections, in-process renderers),
// debouncing bursts of PTY output the way the teacher's buffer manager
// debounces its own snapshot notifications.
package termsocket

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vtcore/termhost/pkg/session"
	"github.com/vtcore/termhost/pkg/terminal"
)

const notifyDebounce = 50 * time.Millisecond

// SessionBuffer pairs a session with the bookkeeping termsocket needs to
// debounce and dedupe its snapshot notifications.
type SessionBuffer struct {
	Session *session.Session

	mu          sync.RWMutex
	lastSeq     uint64
	haveLastSeq bool
	stopMonitor chan struct{}
}

// Manager fans out terminal.BufferSnapshot notifications for sessions,
// subscribed to by id.
type Manager struct {
	sessionManager *session.Manager
	buffers        map[string]*SessionBuffer
	mu             sync.RWMutex

	subscribers map[string][]chan *terminal.BufferSnapshot
	subMu       sync.RWMutex

	notificationTimers map[string]*time.Timer
	timerMu            sync.RWMutex

	shutdownCh chan struct{}
	wg         sync.WaitGroup
	logger     *zap.Logger
}

// NewManager creates a terminal socket manager backed by sessionManager.
func NewManager(sessionManager *session.Manager, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessionManager:     sessionManager,
		buffers:            make(map[string]*SessionBuffer),
		subscribers:        make(map[string][]chan *terminal.BufferSnapshot),
		notificationTimers: make(map[string]*time.Timer),
		shutdownCh:         make(chan struct{}),
		logger:             logger,
	}
}

// GetOrCreateBuffer returns the SessionBuffer for sessionID, starting its
// monitor goroutine the first time it's requested. The session must have a
// live emulator in this process (i.e. be one this process started, not one
// merely loaded from disk) — otherwise there is nothing to subscribe to.
func (m *Manager) GetOrCreateBuffer(sessionID string) (*SessionBuffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sb, exists := m.buffers[sessionID]; exists {
		return sb, nil
	}

	sess, err := m.sessionManager.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	if sess.Emulator() == nil {
		return nil, fmt.Errorf("session %s has no live terminal in this process", sessionID)
	}

	sb := &SessionBuffer{Session: sess, stopMonitor: make(chan struct{})}
	m.buffers[sessionID] = sb

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.monitorSession(sessionID, sb)
	}()

	return sb, nil
}

// GetBufferSnapshot returns a fresh full snapshot for a session.
func (m *Manager) GetBufferSnapshot(sessionID string) (*terminal.BufferSnapshot, error) {
	sb, err := m.GetOrCreateBuffer(sessionID)
	if err != nil {
		return nil, err
	}
	return sb.Session.Emulator().Snapshot(true), nil
}

// SubscribeToBufferChanges registers callback to be called with every
// debounced snapshot for sessionID, returning an unsubscribe func.
func (m *Manager) SubscribeToBufferChanges(sessionID string, callback func(string, *terminal.BufferSnapshot)) (func(), error) {
	if _, err := m.GetOrCreateBuffer(sessionID); err != nil {
		return nil, err
	}

	ch := make(chan *terminal.BufferSnapshot, 10)
	m.subMu.Lock()
	m.subscribers[sessionID] = append(m.subscribers[sessionID], ch)
	m.subMu.Unlock()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case snapshot := <-ch:
				callback(sessionID, snapshot)
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		m.subMu.Lock()
		defer m.subMu.Unlock()
		subs := m.subscribers[sessionID]
		for i, sub := range subs {
			if sub == ch {
				m.subscribers[sessionID] = append(subs[:i], subs[i+1:]...)
				close(ch)
				break
			}
		}
		if len(m.subscribers[sessionID]) == 0 {
			delete(m.subscribers, sessionID)
		}
	}, nil
}

// monitorSession watches the emulator's Dirty channel and the session's
// liveness, scheduling debounced notifications and tearing itself down
// once the session exits or the manager shuts down.
func (m *Manager) monitorSession(sessionID string, sb *SessionBuffer) {
	emu := sb.Session.Emulator()
	aliveTicker := time.NewTicker(5 * time.Second)
	defer aliveTicker.Stop()

	for {
		select {
		case <-emu.Dirty():
			m.scheduleBufferNotification(sessionID, sb)

		case <-aliveTicker.C:
			if !sb.Session.IsAlive() {
				m.teardownBuffer(sessionID, sb)
				return
			}

		case <-sb.stopMonitor:
			return

		case <-m.shutdownCh:
			m.clearNotificationTimer(sessionID)
			return
		}
	}
}

func (m *Manager) teardownBuffer(sessionID string, sb *SessionBuffer) {
	m.clearNotificationTimer(sessionID)
	m.mu.Lock()
	delete(m.buffers, sessionID)
	m.mu.Unlock()
	_ = sb
}

func (m *Manager) clearNotificationTimer(sessionID string) {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()
	if timer, exists := m.notificationTimers[sessionID]; exists && timer != nil {
		timer.Stop()
		delete(m.notificationTimers, sessionID)
	}
}

// scheduleBufferNotification debounces bursty Dirty signals into at most
// one snapshot-and-fan-out every notifyDebounce, deduping against the
// emulator's own sequence ID so an idle terminal produces no chatter.
func (m *Manager) scheduleBufferNotification(sessionID string, sb *SessionBuffer) {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()

	if timer, exists := m.notificationTimers[sessionID]; exists && timer != nil {
		// A notification is already pending; its snapshot will include
		// this change too.
		return
	}

	m.notificationTimers[sessionID] = time.AfterFunc(notifyDebounce, func() {
		snapshot := sb.Session.Emulator().Snapshot(false)

		sb.mu.Lock()
		changed := !sb.haveLastSeq || sb.lastSeq != snapshot.SequenceID || snapshot.ChangeFlags != 0 || len(snapshot.ChangedRows) > 0
		sb.lastSeq = snapshot.SequenceID
		sb.haveLastSeq = true
		sb.mu.Unlock()

		if changed {
			m.notifySubscribers(sessionID, snapshot)
		}

		m.timerMu.Lock()
		delete(m.notificationTimers, sessionID)
		m.timerMu.Unlock()
	})
}

func (m *Manager) notifySubscribers(sessionID string, snapshot *terminal.BufferSnapshot) {
	m.subMu.RLock()
	subs := m.subscribers[sessionID]
	m.subMu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- snapshot:
		default:
			m.logger.Debug("subscriber channel full, dropping snapshot", zap.String("session", sessionID))
		}
	}
}

// Shutdown stops every monitor goroutine and closes all subscriber channels.
func (m *Manager) Shutdown() {
	m.logger.Info("shutting down terminal socket manager")
	close(m.shutdownCh)
	m.wg.Wait()

	m.subMu.Lock()
	for _, subs := range m.subscribers {
		for _, ch := range subs {
			close(ch)
		}
	}
	m.subscribers = make(map[string][]chan *terminal.BufferSnapshot)
	m.subMu.Unlock()

	m.mu.Lock()
	m.buffers = make(map[string]*SessionBuffer)
	m.mu.Unlock()

	m.logger.Info("terminal socket manager shutdown complete")
}
