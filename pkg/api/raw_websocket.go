package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vtcore/termhost/pkg/session"
)

// RawTerminalWebSocketHandler streams a session's byte-identical PTY output
// over a websocket, bypassing snapshot/diff processing entirely for
// consumers (e.g. a recording pipe) that want the wire bytes untouched.
type RawTerminalWebSocketHandler struct {
	manager *session.Manager
	logger  *zap.Logger
}

func NewRawTerminalWebSocketHandler(manager *session.Manager, logger *zap.Logger) *RawTerminalWebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RawTerminalWebSocketHandler{manager: manager, logger: logger}
}

func (h *RawTerminalWebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			h.logger.Debug("failed to close connection", zap.Error(err))
		}
	}()

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		h.logger.Debug("failed to set read deadline", zap.Error(err))
	}
	conn.SetPongHandler(func(string) error {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			h.logger.Debug("failed to set read deadline in pong handler", zap.Error(err))
		}
		return nil
	})

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	send := make(chan []byte, 256)
	done := make(chan struct{})
	var closeOnce sync.Once
	closeOnceFunc := func() {
		closeOnce.Do(func() {
			close(done)
		})
	}

	go h.writer(conn, send, ticker, done)

	var subscribedSession string
	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("read error", zap.Error(err))
			}
			closeOnceFunc()
			break
		}

		if messageType == websocket.TextMessage {
			if sid := h.handleTextMessage(message, send, done, closeOnceFunc); sid != "" {
				subscribedSession = sid
			}
		}
	}

	if subscribedSession != "" {
		h.manager.UnregisterRawPTYCallback(subscribedSession)
	}
}

// handleTextMessage processes one control message, returning the session ID
// a "subscribe" message started streaming from (so the caller can clean it
// up on disconnect).
func (h *RawTerminalWebSocketHandler) handleTextMessage(message []byte, send chan []byte, done chan struct{}, closeFunc func()) string {
	var msg map[string]interface{}
	if err := json.Unmarshal(message, &msg); err != nil {
		h.logger.Debug("failed to parse message", zap.Error(err))
		return ""
	}

	msgType, ok := msg["type"].(string)
	if !ok {
		return ""
	}

	switch msgType {
	case "ping":
		pong, _ := json.Marshal(map[string]string{"type": "pong"})
		safeSend(send, pong, done)

	case "subscribe":
		sessionID, ok := msg["sessionId"].(string)
		if !ok {
			return ""
		}
		h.subscribeToRawPTY(sessionID, send, done)
		return sessionID

	case "unsubscribe":
		closeFunc()
	}
	return ""
}

// subscribeToRawPTY registers a debounced raw-PTY callback: output arriving
// within the debounce window is appended to one pending buffer and sent as a
// single chunk once 50ms pass without new output, rather than queuing every
// intermediate write, matching the direct-streaming behavior the teacher
// favors over buffered diffing for this mode.
func (h *RawTerminalWebSocketHandler) subscribeToRawPTY(sessionID string, send chan []byte, done chan struct{}) {
	var mu sync.Mutex
	var pending []byte
	var flushTimer *time.Timer

	h.manager.RegisterRawPTYCallback(sessionID, func(sid string, data []byte) {
		mu.Lock()
		defer mu.Unlock()

		pending = append(pending, data...)
		if flushTimer != nil {
			flushTimer.Stop()
		}
		flushTimer = time.AfterFunc(50*time.Millisecond, func() {
			mu.Lock()
			chunk := pending
			pending = nil
			mu.Unlock()
			if len(chunk) > 0 {
				safeSend(send, chunk, done)
			}
		})
	})
}

func (h *RawTerminalWebSocketHandler) writer(conn *websocket.Conn, send chan []byte, ticker *time.Ticker, done chan struct{}) {
	defer close(send)

	for {
		select {
		case message, ok := <-send:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				h.logger.Debug("failed to set write deadline", zap.Error(err))
				return
			}
			if !ok {
				if err := conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					h.logger.Debug("failed to write close message", zap.Error(err))
				}
				return
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				h.logger.Debug("failed to set write deadline for ping", zap.Error(err))
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}
