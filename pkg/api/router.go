package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/vtcore/termhost/pkg/session"
	"github.com/vtcore/termhost/pkg/terminal"
	"github.com/vtcore/termhost/pkg/termsocket"
)

// Router builds the HTTP surface: session lifecycle under /api/sessions,
// a binary snapshot stream at /ws, and the raw passthrough stream at
// /ws/raw. Grounded on the teacher's own REST/websocket split, adapted to
// gorilla/mux (the dependency the rest of the retrieved corpus reaches for
// instead of the standard library's bare ServeMux).
type Router struct {
	sessions   *session.Manager
	sockets    *termsocket.Manager
	logger     *zap.Logger
	defaultCfg session.Config
}

// NewRouter wires a mux.Router against sessions/sockets. defaultCfg supplies
// the Cols/Rows/MaxHistoryRows/BoldIsBright values new sessions start with
// when a create request omits them.
func NewRouter(sessions *session.Manager, sockets *termsocket.Manager, defaultCfg session.Config, logger *zap.Logger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	api := &Router{sessions: sessions, sockets: sockets, logger: logger, defaultCfg: defaultCfg}

	r := mux.NewRouter()
	r.HandleFunc("/api/sessions", api.listSessions).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions", api.createSession).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}", api.getSession).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/{id}", api.deleteSession).Methods(http.MethodDelete)
	r.HandleFunc("/api/sessions/{id}/resize", api.resizeSession).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions/{id}/input", api.writeInput).Methods(http.MethodPost)
	r.Handle("/ws/raw", NewRawTerminalWebSocketHandler(sessions, logger))
	r.HandleFunc("/ws", api.serveSnapshotSocket)
	return r
}

type createSessionRequest struct {
	Name    string   `json:"name"`
	Command []string `json:"command"`
	Cols    int      `json:"cols"`
	Rows    int      `json:"rows"`
}

func (a *Router) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cfg := a.defaultCfg
	cfg.Name = req.Name
	if len(req.Command) > 0 {
		cfg.Command = req.Command
	}
	if req.Cols > 0 {
		cfg.Cols = req.Cols
	}
	if req.Rows > 0 {
		cfg.Rows = req.Rows
	}

	sess, err := a.sessions.CreateSession(cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, sess.Info())
}

func (a *Router) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.sessions.ListSessions()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (a *Router) getSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, err := a.sessions.GetSession(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, sess.Info())
}

func (a *Router) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := a.sessions.RemoveSession(id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type resizeRequest struct {
	Cols int `json:"cols"`
	Rows int `json:"rows"`
}

func (a *Router) resizeSession(w http.ResponseWriter, r *http.Request) {
	if a.sessions.GetDoNotAllowColumnSet() {
		http.Error(w, "terminal resizing is disabled", http.StatusForbidden)
		return
	}
	id := mux.Vars(r)["id"]
	sess, err := a.sessions.GetSession(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if sess.Emulator() == nil {
		http.Error(w, "session has no live terminal in this process", http.StatusConflict)
		return
	}

	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.Emulator().Resize(req.Cols, req.Rows); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type inputRequest struct {
	Data string `json:"data"`
}

func (a *Router) writeInput(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	sess, err := a.sessions.GetSession(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if sess.Emulator() == nil {
		http.Error(w, "session has no live terminal in this process", http.StatusConflict)
		return
	}

	var req inputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := sess.Emulator().WriteInput([]byte(req.Data)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// serveSnapshotSocket streams debounced binary BufferSnapshot frames for
// ?session=<id>, the transport pkg/termsocket drives.
func (a *Router) serveSnapshotSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "missing session query parameter", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("failed to upgrade snapshot socket", zap.Error(err))
		return
	}
	defer conn.Close()

	unsubscribe, err := a.sockets.SubscribeToBufferChanges(sessionID, func(id string, snap *terminal.BufferSnapshot) {
		raw, err := snap.SerializeToBinary()
		if err != nil {
			a.logger.Warn("failed to serialize snapshot", zap.Error(err))
			return
		}
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.BinaryMessage, raw)
	})
	if err != nil {
		a.logger.Warn("failed to subscribe to session", zap.String("session", sessionID), zap.Error(err))
		return
	}
	defer unsubscribe()

	if full, err := a.sockets.GetBufferSnapshot(sessionID); err == nil {
		if raw, err := full.SerializeToBinary(); err == nil {
			_ = conn.WriteMessage(websocket.BinaryMessage, raw)
		}
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
