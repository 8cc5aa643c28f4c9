package display

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Hub maintains the set of connected renderers and fans messages out to them.
type Hub struct {
	session    string
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	dropped    atomic.Int64
	log        *zap.Logger
}

// NewHub creates a hub. session is announced to every client on connect.
func NewHub(session string, log *zap.Logger) *Hub {
	return &Hub{
		session:    session,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run handles client registration and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			h.log.Info("display hub stopped")
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			if hello, err := (Message{Type: TypeHello, Session: h.session}).Encode(); err == nil {
				c.send <- hello
			}
			h.log.Info("display client connected", zap.String("remote", c.remote))
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.log.Info("display client disconnected", zap.String("remote", c.remote))
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					close(c.send)
					delete(h.clients, c)
					h.log.Warn("display client too slow, dropped", zap.String("remote", c.remote))
				}
			}
			h.mu.Unlock()
		}
	}
}

// join hands a new client to the hub. False once the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues msg for every client. It never blocks the caller; when the
// hub is backed up the message is dropped and counted.
func (h *Hub) Publish(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		h.dropped.Add(1)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Dropped returns how many published messages were discarded.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}
