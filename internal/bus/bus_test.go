package bus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/intent"
	"jarvis/internal/jarvis"
)

type echoHandler struct{}

func (echoHandler) HandleUtterance(_ context.Context, u intent.Utterance) jarvis.Response {
	return jarvis.NewResponse("eco: " + u.Text)
}

// hub upgrades every connection and hands it to serve.
func hub(t *testing.T, serve func(n int, c *ws.Conn)) string {
	t.Helper()
	var (
		up    ws.Upgrader
		conns atomic.Int32
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		serve(int(conns.Add(1)), c)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func runShard(t *testing.T, url string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	s, err := Dial(ctx, Config{Shard: "jarvis", URL: url, Reconn: 10 * time.Millisecond})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, echoHandler{}) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("shard did not stop")
		}
	})
}

func TestShard_RepliesToUtterances(t *testing.T) {
	replies := make(chan Message, 1)

	url := hub(t, func(_ int, c *ws.Conn) {
		// not addressed to us, then not an utterance, then ours
		_ = c.WriteJSON(Message{From: "hub", To: "lumen", Kind: KindUtterance, Content: "x"})
		_ = c.WriteJSON(Message{From: "hub", To: "jarvis", Kind: "ping"})
		_ = c.WriteJSON(Message{From: "hub", To: "jarvis", Kind: KindUtterance, Content: "jarvis abrir chrome"})

		var m Message
		if err := c.ReadJSON(&m); err == nil {
			replies <- m
		}
		_, _, _ = c.ReadMessage()
	})
	runShard(t, url)

	select {
	case m := <-replies:
		assert.Equal(t, Message{From: "jarvis", To: "hub", Kind: KindReply, Content: "eco: jarvis abrir chrome"}, m)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply")
	}
}

func TestShard_Reconnects(t *testing.T) {
	replies := make(chan Message, 1)

	url := hub(t, func(n int, c *ws.Conn) {
		if n == 1 {
			_ = c.WriteMessage(ws.CloseMessage, ws.FormatCloseMessage(ws.CloseGoingAway, "restart"))
			return
		}
		_ = c.WriteJSON(Message{From: "hub", To: Broadcast, Kind: KindUtterance, Content: "hola"})
		var m Message
		if err := c.ReadJSON(&m); err == nil {
			replies <- m
		}
		_, _, _ = c.ReadMessage()
	})
	runShard(t, url)

	select {
	case m := <-replies:
		assert.Equal(t, "eco: hola", m.Content)
	case <-time.After(5 * time.Second):
		t.Fatal("no reply after reconnect")
	}
}

func TestDial_Unreachable(t *testing.T) {
	_, err := Dial(context.Background(), Config{URL: "ws://127.0.0.1:1/ws"})
	assert.Error(t, err)
}
