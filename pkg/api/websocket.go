// Package api exposes sessions over HTTP and websocket transports: a JSON
// REST surface for session lifecycle and two websocket modes — a binary
// snapshot stream (pkg/termsocket's debounced BufferSnapshot feed) and a
// raw PTY passthrough. Grounded on the teacher's pkg/api, whose
// raw_websocket.go this package's shared constants and upgrader complete.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 32 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// safeSend enqueues message on send unless done has already been closed,
// returning false if the connection is going away.
func safeSend(send chan []byte, message []byte, done chan struct{}) bool {
	select {
	case send <- message:
		return true
	case <-done:
		return false
	}
}
