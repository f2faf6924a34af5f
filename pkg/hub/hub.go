package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Stats is a snapshot of hub counters.
type Stats struct {
	Name     string `json:"name"`
	Clients  int    `json:"clients"`
	Sent     uint64 `json:"sent"`
	Dropped  uint64 `json:"dropped"`
	Evicted  uint64 `json:"evicted"`
	Rejected uint64 `json:"rejected"`
	Running  bool   `json:"running"`
}

// Hub owns the set of subscribers of one stream. Only the Run goroutine
// mutates the client set; Broadcast never blocks.
type Hub struct {
	name   string
	logger *slog.Logger

	clients map[*Client]struct{}
	mu      sync.RWMutex

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	running  atomic.Bool
	sent     atomic.Uint64 // messages queued to a client
	dropped  atomic.Uint64 // broadcasts lost because the hub queue was full
	evicted  atomic.Uint64 // slow clients disconnected
	rejected atomic.Uint64 // registrations after shutdown
}

// New creates a hub. logger may be nil.
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("component", "hub", "hub", name),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the hub loop. It returns when ctx is done, after closing every
// client's queue. A hub runs once.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client connected", "clients", n)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client disconnected", "clients", n)

		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
					h.sent.Add(1)
				default:
					delete(h.clients, c)
					close(c.send)
					h.evicted.Add(1)
					h.logger.Warn("dropped slow client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues msg for every client. When the hub queue is full the
// message is dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.dropped.Add(1)
	}
}

// BroadcastJSON encodes v and broadcasts it.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// BroadcastBinary broadcasts binary data.
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRunning reports whether Run is active.
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// Stats returns the hub counters.
func (h *Hub) Stats() Stats {
	return Stats{
		Name:     h.name,
		Clients:  h.ClientCount(),
		Sent:     h.sent.Load(),
		Dropped:  h.dropped.Load(),
		Evicted:  h.evicted.Load(),
		Rejected: h.rejected.Load(),
		Running:  h.IsRunning(),
	}
}
