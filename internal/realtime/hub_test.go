package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testClient(userID int64, id string, buffer int) *Client {
	return &Client{ID: id, UserID: userID, send: make(chan []byte, buffer)}
}

func TestSendToUserOnlyReachesThatUser(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	alice := testClient(1, "a", 1)
	aliceTab := testClient(1, "a2", 1)
	bob := testClient(2, "b", 1)
	hub.Register(alice)
	hub.Register(aliceTab)
	hub.Register(bob)

	delivered := hub.SendToUser(1, []byte("hello"))

	assert.Equal(t, 2, delivered)
	assert.Equal(t, "hello", string(<-alice.send))
	assert.Equal(t, "hello", string(<-aliceTab.send))
	assert.Len(t, bob.send, 0)
}

func TestSendToUserDropsSlowClient(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	c := testClient(1, "slow", 1)
	hub.Register(c)

	assert.Equal(t, 1, hub.SendToUser(1, []byte("first")))
	assert.Equal(t, 0, hub.SendToUser(1, []byte("second")))
	assert.Equal(t, 0, hub.ConnectedClients(1))

	// buffered message is still readable, then the channel is closed
	assert.Equal(t, "first", string(<-c.send))
	_, ok := <-c.send
	assert.False(t, ok)
}

func TestUnregisterIsIdempotent(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	c := testClient(3, "c", 1)
	hub.Register(c)

	hub.Unregister(c)
	hub.Unregister(c)

	assert.Equal(t, 0, hub.ConnectedClients(3))
	assert.Equal(t, 0, hub.SendToUser(3, []byte("x")))
}

func TestServeConnDeliversOverWebSocket(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t))
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.ServeConn(conn, 7)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ConnectedClients(7) == 1 }, time.Second, 10*time.Millisecond)

	assert.Equal(t, 1, hub.SendToUser(7, []byte(`{"type":"notification"}`)))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"notification"}`, string(msg))

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ConnectedClients(7) == 0 }, 2*time.Second, 10*time.Millisecond)
}
