package bridge

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/tivoctl/internal/logging"
)

const writeWait = 5 * time.Second

// wsClient serializes writes to one WebSocket connection
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// hub tracks WebSocket clients and fans events out to them
type hub struct {
	clients map[*wsClient]struct{}
	mu      sync.RWMutex
	metrics *Metrics
}

func newHub(metrics *Metrics) *hub {
	return &hub{
		clients: make(map[*wsClient]struct{}),
		metrics: metrics,
	}
}

func (h *hub) add(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	h.metrics.wsClients.Inc()
	return client
}

func (h *hub) remove(client *wsClient) {
	h.mu.Lock()
	_, ok := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if ok {
		h.metrics.wsClients.Dec()
		_ = client.conn.Close()
	}
}

// broadcast sends an event to every client, dropping clients that fail
func (h *hub) broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		logging.Error("Failed to encode event", zap.Error(err))
		return
	}

	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.send(data); err != nil {
			logging.Debug("Dropping WebSocket client",
				zap.String("remote_addr", client.conn.RemoteAddr().String()),
				zap.Error(err),
			)
			h.remove(client)
		}
	}
}

// count returns the number of connected clients
func (h *hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAll disconnects every client
func (h *hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*wsClient]struct{})
	h.mu.Unlock()

	for client := range clients {
		h.metrics.wsClients.Dec()
		_ = client.conn.Close()
	}
}
