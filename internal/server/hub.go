package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AntoineGS/loadtracker/internal/loads"
	"github.com/AntoineGS/loadtracker/internal/push"
)

const (
	sendBuffer = 16
	writeWait  = 5 * time.Second
	joinWait   = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// GroupKey names the hub group for a customer and period.
func GroupKey(customer string, p loads.Period) string {
	return customer + "|" + p.Key()
}

type hubClient struct {
	send  chan push.Message
	id    string
	group string
}

// Hub fans rowUpdated messages out to the clients joined to a group.
type Hub struct {
	groups  map[string]map[string]*hubClient
	logger  *slog.Logger
	metrics *metrics
	mu      sync.Mutex
}

func newHub(logger *slog.Logger, m *metrics) *Hub {
	return &Hub{
		groups:  make(map[string]map[string]*hubClient),
		logger:  logger,
		metrics: m,
	}
}

func (h *Hub) add(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	g, ok := h.groups[c.group]
	if !ok {
		g = make(map[string]*hubClient)
		h.groups[c.group] = g
	}
	g[c.id] = c
	h.metrics.hubClients.Inc()
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	g := h.groups[c.group]
	if _, ok := g[c.id]; !ok {
		return
	}
	delete(g, c.id)
	if len(g) == 0 {
		delete(h.groups, c.group)
	}
	close(c.send)
	h.metrics.hubClients.Dec()
}

// Clients returns the number of clients joined to group.
func (h *Hub) Clients(group string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[group])
}

// Broadcast sends msg to every client of group. Clients that cannot keep
// up miss the message; the poll cycle covers them.
func (h *Hub) Broadcast(group string, msg push.Message) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for _, c := range h.groups[group] {
		select {
		case c.send <- msg:
			sent++
		default:
			h.logger.Warn("hub client is slow, dropping message", "client", c.id, "group", group)
		}
	}
	h.metrics.broadcasts.Add(float64(sent))
	return sent
}

// serve upgrades the request and keeps the client until it disconnects.
// The first frame must be a join.
func (h *Hub) serve(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade the websocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }() //nolint:errcheck,gosec // defer close is best-effort

	_ = conn.SetReadDeadline(time.Now().Add(joinWait)) //nolint:errcheck,gosec // read below reports failures
	var join push.Message
	if err := conn.ReadJSON(&join); err != nil || join.Type != push.TypeJoin {
		h.logger.Info("hub client did not join", "error", err, "type", join.Type)
		return
	}
	_ = conn.SetReadDeadline(time.Time{}) //nolint:errcheck,gosec // clearing the deadline

	hc := &hubClient{
		id:    uuid.New().String(),
		group: join.Group + "|" + join.Period,
		send:  make(chan push.Message, sendBuffer),
	}
	h.add(hc)
	h.logger.Info("hub client joined", "client", hc.id, "group", hc.group)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range hc.send {
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // write below reports failures
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warn("failed to write hub message", "client", hc.id, "error", err)
				_ = conn.Close() //nolint:errcheck,gosec // unblocks the read loop
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.logger.Info("hub client disconnected", "client", hc.id, "error", err)
			break
		}
	}

	h.remove(hc)
	<-done
}
