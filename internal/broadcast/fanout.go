package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/YakymenkoDarii/RealTimeChatApp/internal/domain"
	"github.com/YakymenkoDarii/RealTimeChatApp/internal/metrics"
)

// Fanout tracks the set of live connections and delivers server events to
// one target, all targets, or all-but-one. Per-target delivery is
// independent: enqueueing never blocks, and a full buffer evicts only the
// offending connection.
type Fanout struct {
	mu          sync.RWMutex
	connections map[string]*Conn // conn ID -> conn
}

func NewFanout() *Fanout {
	return &Fanout{connections: make(map[string]*Conn)}
}

// Attach registers a connection for SendToAll-style delivery.
func (f *Fanout) Attach(c *Conn) {
	f.mu.Lock()
	f.connections[c.ID] = c
	f.mu.Unlock()
	metrics.ConnectedClients.Inc()
}

// Detach removes a connection. The caller is responsible for stopping it.
func (f *Fanout) Detach(c *Conn) {
	f.mu.Lock()
	_, tracked := f.connections[c.ID]
	delete(f.connections, c.ID)
	f.mu.Unlock()
	if tracked {
		metrics.ConnectedClients.Dec()
	}
}

// SendTo delivers event to a single connection. A nil target is a no-op, so
// callers can chain a presence lookup without checking for offline users.
func (f *Fanout) SendTo(c *Conn, event domain.ServerFrame) {
	if c == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "event", event.Event, "error", err)
		return
	}
	f.deliver(c, event.Event, payload)
}

// SendToAll delivers event to every attached connection.
func (f *Fanout) SendToAll(event domain.ServerFrame) {
	f.sendToAllExcept("", event)
}

// SendToAllExcept delivers event to every attached connection but one.
func (f *Fanout) SendToAllExcept(excluded *Conn, event domain.ServerFrame) {
	excludedID := ""
	if excluded != nil {
		excludedID = excluded.ID
	}
	f.sendToAllExcept(excludedID, event)
}

func (f *Fanout) sendToAllExcept(excludedID string, event domain.ServerFrame) {
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal event", "event", event.Event, "error", err)
		return
	}

	f.mu.RLock()
	targets := make([]*Conn, 0, len(f.connections))
	for id, c := range f.connections {
		if id == excludedID {
			continue
		}
		targets = append(targets, c)
	}
	f.mu.RUnlock()

	for _, c := range targets {
		f.deliver(c, event.Event, payload)
	}
}

func (f *Fanout) deliver(c *Conn, eventName string, payload []byte) {
	if c.Enqueue(payload) {
		metrics.DeliveriesTotal.WithLabelValues(eventName).Inc()
		return
	}

	metrics.DeliveryDropsTotal.Inc()
	slog.Warn("Dropping delivery to slow or closed connection", "event", eventName, "conn_id", c.ID)
	go c.evict()
}

// Close stops every attached connection. Used on server shutdown.
func (f *Fanout) Close(reason string) {
	f.mu.Lock()
	connections := make([]*Conn, 0, len(f.connections))
	for _, c := range f.connections {
		connections = append(connections, c)
	}
	f.connections = make(map[string]*Conn)
	f.mu.Unlock()

	for _, c := range connections {
		c.StopGraceful(reason)
		metrics.ConnectedClients.Dec()
	}
}
