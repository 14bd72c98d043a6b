package sink

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/roundtable/core"
)

func TestWebSocket_BroadcastsMessages(t *testing.T) {
	ws := NewWebSocket()
	defer ws.Close()

	server := httptest.NewServer(ws)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the server a moment to register the connection.
	time.Sleep(50 * time.Millisecond)

	msg := core.NewAssistantMessage("triager", "PAY-17 confirmed.")
	msg.Seq = 3
	ws.OnMessage(context.Background(), msg)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var payload wsMessage
	require.NoError(t, conn.ReadJSON(&payload))

	assert.Equal(t, "triager", payload.Author)
	assert.Equal(t, "PAY-17 confirmed.", payload.Text)
	assert.Equal(t, 3, payload.Seq)
	assert.Equal(t, "assistant", payload.Role)
}

func TestWebSocket_DropsDeadClients(t *testing.T) {
	ws := NewWebSocket()
	defer ws.Close()

	server := httptest.NewServer(ws)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, conn.Close())
	time.Sleep(50 * time.Millisecond)

	// Broadcasting after the client went away must not block or panic.
	ws.OnMessage(context.Background(), core.NewAssistantMessage("triager", "anyone there?"))
}
