package subscription

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func wsTestServer(t *testing.T, handler func(conn *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestReadFailureClosesAndDropsConnection(t *testing.T) {
	url := wsTestServer(t, func(conn *websocket.Conn) {
		conn.Close()
	})

	c, err := NewWSClient(context.Background(), url, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer c.Close()

	// The server hangs up immediately; the read loop must mark the client
	// disconnected and release the dead connection instead of re-polling it.
	require.Eventually(t, func() bool {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return !c.connected && c.conn == nil
	}, time.Second, 10*time.Millisecond)
}

func TestSendFailsWhileDisconnected(t *testing.T) {
	url := wsTestServer(t, func(conn *websocket.Conn) {
		conn.Close()
	})

	c, err := NewWSClient(context.Background(), url, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer c.Close()

	require.Eventually(t, func() bool { return !c.IsConnected() }, time.Second, 10*time.Millisecond)
	_, err = c.SubscribeAccount("11111111111111111111111111111111", nil)
	require.Error(t, err)
}
