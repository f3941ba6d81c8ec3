package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/pdf2word/backend/internal/progress"
)

// WebSocket message types for the progress feed
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypePong      = "pong"
)

// WSMessage is a control message on the progress feed. Job events are sent
// as progress.Event values.
type WSMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// ProgressFeed pushes conversion progress events to WebSocket clients
type ProgressFeed struct {
	hub      *progress.Hub
	upgrader websocket.Upgrader
}

// NewProgressFeed creates a feed over hub. A nil hub yields a feed that only
// answers pings.
func NewProgressFeed(hub *progress.Hub) *ProgressFeed {
	return &ProgressFeed{
		hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
	}
}

// Serve upgrades the connection and relays hub events until the client leaves.
func (f *ProgressFeed) Serve(c echo.Context) error {
	ws, err := f.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	var events <-chan progress.Event
	if f.hub != nil {
		ch, unsubscribe := f.hub.Subscribe(64)
		defer unsubscribe()
		events = ch
	}

	var writeMu sync.Mutex
	send := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return ws.WriteJSON(v)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg WSMessage
			if err := ws.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type == MsgTypePing {
				if err := send(WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()}); err != nil {
					return
				}
			}
		}
	}()

	if err := send(WSMessage{Type: MsgTypeConnected, Timestamp: time.Now().UnixMilli()}); err != nil {
		return nil
	}

	for {
		select {
		case <-done:
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			if err := send(evt); err != nil {
				return nil
			}
		}
	}
}
