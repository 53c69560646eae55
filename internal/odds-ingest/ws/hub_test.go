package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/election-odds-ingest/internal/odds-ingest/sink"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func readUpdate(t *testing.T, c *websocket.Conn) sink.CandidateUpdate {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var u sink.CandidateUpdate
	require.NoError(t, c.ReadJSON(&u))
	return u
}

func TestHubSubscribeAndBroadcast(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	smith := dial(t, srv)
	all := dial(t, srv)
	require.NoError(t, smith.WriteJSON(ClientMsg{Type: "subscribe", Candidate: "Smith"}))
	require.NoError(t, all.WriteJSON(ClientMsg{Type: "subscribe", Candidate: Wildcard}))
	waitFor(t, func() bool { return hub.Subscribers("Smith") == 1 && hub.Subscribers(Wildcard) == 1 })

	hub.Broadcast(sink.CandidateUpdate{Candidate: "Jones", Payload: map[string]float64{"p": 1}})
	hub.Broadcast(sink.CandidateUpdate{Candidate: "Smith", Payload: map[string]float64{"p": 62.5}})

	// Smith só recebe a própria atualização; wildcard recebe as duas
	assert.Equal(t, "Smith", readUpdate(t, smith).Candidate)
	assert.Equal(t, "Jones", readUpdate(t, all).Candidate)
	assert.Equal(t, "Smith", readUpdate(t, all).Candidate)
}

func TestHubPingAndUnsubscribe(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	c := dial(t, srv)
	require.NoError(t, c.WriteJSON(ClientMsg{Type: "ping"}))
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	var pong map[string]string
	require.NoError(t, c.ReadJSON(&pong))
	assert.Equal(t, "pong", pong["type"])

	require.NoError(t, c.WriteJSON(ClientMsg{Type: "subscribe", Candidate: "Smith"}))
	waitFor(t, func() bool { return hub.Subscribers("Smith") == 1 })
	require.NoError(t, c.WriteJSON(ClientMsg{Type: "unsubscribe", Candidate: "Smith"}))
	waitFor(t, func() bool { return hub.Subscribers("Smith") == 0 })
}

func TestHubDropsClosedConnections(t *testing.T) {
	hub := NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	c := dial(t, srv)
	require.NoError(t, c.WriteJSON(ClientMsg{Type: "subscribe", Candidate: "Smith"}))
	waitFor(t, func() bool { return hub.Subscribers("Smith") == 1 })

	require.NoError(t, c.Close())
	waitFor(t, func() bool { return hub.Subscribers("Smith") == 0 })
}

func TestRedisSubscriberForwardsToHub(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	hub := NewHub(func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	c := dial(t, srv)
	require.NoError(t, c.WriteJSON(ClientMsg{Type: "subscribe", Candidate: "Smith"}))
	waitFor(t, func() bool { return hub.Subscribers("Smith") == 1 })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartRedisSubscriber(ctx, rdb, "candidates", hub, zap.NewNop())
	waitFor(t, func() bool { return len(mr.PubSubChannels("candidates")) == 1 })

	b, err := json.Marshal(sink.CandidateUpdate{Candidate: "Smith", Payload: map[string]float64{"p": 62.5}})
	require.NoError(t, err)
	require.NoError(t, rdb.Publish(ctx, "candidates", b).Err())

	u := readUpdate(t, c)
	assert.Equal(t, "Smith", u.Candidate)
}
