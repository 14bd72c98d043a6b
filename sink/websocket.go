package sink

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hupe1980/roundtable/core"
	"github.com/hupe1980/roundtable/logging"
)

// wsWriteTimeout bounds a single broadcast write per connection.
const wsWriteTimeout = 10 * time.Second

// wsMessage is the JSON payload broadcast for each conversation message.
type wsMessage struct {
	ID        string    `json:"id"`
	Seq       int       `json:"seq"`
	Author    string    `json:"author"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// WebSocketOptions configures a WebSocket sink.
type WebSocketOptions struct {
	// CheckOrigin guards the upgrade handshake. Defaults to allowing all
	// origins.
	CheckOrigin func(r *http.Request) bool
	// Logger receives connection lifecycle events.
	Logger logging.Logger
}

// WebSocket broadcasts conversation messages to connected websocket clients.
//
// It doubles as an http.Handler: mount it on a route, point clients at it
// and every subsequent message is pushed to them as JSON. A connection that
// cannot be written to within the deadline is dropped; the conversation is
// never held up by a dead client.
type WebSocket struct {
	upgrader websocket.Upgrader
	logger   logging.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewWebSocket creates a websocket broadcast sink.
func NewWebSocket(optFns ...func(o *WebSocketOptions)) *WebSocket {
	opts := WebSocketOptions{
		CheckOrigin: func(*http.Request) bool { return true },
		Logger:      logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &WebSocket{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
		logger: opts.Logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request and registers the client for broadcasts.
func (ws *WebSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	ws.mu.Lock()
	ws.conns[conn] = struct{}{}
	ws.mu.Unlock()

	ws.logger.Debug("sink.websocket.connected", "remote", conn.RemoteAddr().String())

	// Reads only detect the peer going away.
	go func() {
		defer ws.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// OnMessage implements Sink by pushing the message to every client.
func (ws *WebSocket) OnMessage(_ context.Context, msg core.Message) {
	payload := wsMessage{
		ID:        msg.ID,
		Seq:       msg.Seq,
		Author:    msg.Author,
		Role:      msg.Content.Role,
		Timestamp: msg.Timestamp.UTC(),
		Text:      msg.Text(),
	}

	for _, conn := range ws.snapshot() {
		if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
			ws.drop(conn)
			continue
		}
		if err := conn.WriteJSON(payload); err != nil {
			ws.logger.Debug("sink.websocket.write_error", "remote", conn.RemoteAddr().String(), "error", err.Error())
			ws.drop(conn)
		}
	}
}

// Close disconnects every client.
func (ws *WebSocket) Close() error {
	for _, conn := range ws.snapshot() {
		ws.drop(conn)
	}
	return nil
}

func (ws *WebSocket) snapshot() []*websocket.Conn {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	conns := make([]*websocket.Conn, 0, len(ws.conns))
	for conn := range ws.conns {
		conns = append(conns, conn)
	}
	return conns
}

func (ws *WebSocket) drop(conn *websocket.Conn) {
	ws.mu.Lock()
	_, known := ws.conns[conn]
	delete(ws.conns, conn)
	ws.mu.Unlock()

	if known {
		_ = conn.Close()
	}
}
