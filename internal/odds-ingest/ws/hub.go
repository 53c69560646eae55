package ws

import (
	"net/http"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/radieske/election-odds-ingest/internal/odds-ingest/sink"
)

// Hub gerencia conexões WebSocket e assinaturas por candidato
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// candidato -> conexões
	subs map[string]map[*conn]struct{}
}

// conn serializa escritas: gorilla não permite writers concorrentes
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*conn]struct{}),
	}
}

func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &conn{ws: ws}
	defer ws.Close()

	for {
		var msg ClientMsg
		if err := ws.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.Candidate != "" {
				h.subscribe(msg.Candidate, c)
			}
		case "unsubscribe":
			h.unsubscribe(msg.Candidate, c)
		case "ping":
			_ = c.write([]byte(`{"type":"pong"}`))
		}
	}

	h.mu.Lock()
	for key, set := range h.subs {
		delete(set, c)
		if len(set) == 0 {
			delete(h.subs, key)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) subscribe(candidate string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[candidate]; !ok {
		h.subs[candidate] = make(map[*conn]struct{})
	}
	h.subs[candidate][c] = struct{}{}
}

func (h *Hub) unsubscribe(candidate string, c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.subs[candidate]; ok {
		delete(m, c)
		if len(m) == 0 {
			delete(h.subs, candidate)
		}
	}
}

// Broadcast envia a atualização para inscritos no candidato e no wildcard
func (h *Hub) Broadcast(update sink.CandidateUpdate) {
	h.mu.RLock()
	targets := make(map[*conn]struct{})
	for c := range h.subs[update.Candidate] {
		targets[c] = struct{}{}
	}
	for c := range h.subs[Wildcard] {
		targets[c] = struct{}{}
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return
	}

	b, _ := json.Marshal(update)
	for c := range targets {
		_ = c.write(b)
	}
}

// Subscribers devolve quantas conexões assinam o candidato
func (h *Hub) Subscribers(candidate string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[candidate])
}
