// ABOUTME: WebSocket state hub broadcasting board changes to GUI clients
// ABOUTME: Per-client write pumps; slow clients are dropped, not waited on
package statehub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second
)

// envelope is the wire format for every hub message
type envelope struct {
	Type string      `json:"type"`
	Ts   time.Time   `json:"ts"`
	Data interface{} `json:"data,omitempty"`
}

// Snapshotter supplies the full board state for the state_init message
type Snapshotter func() interface{}

// Hub tracks connected clients and fans out serialized frames. One slow
// client must never stall the others, so each client owns a buffered send
// queue and is dropped when it fills.
type Hub struct {
	snapshot Snapshotter

	broadcast  chan []byte
	register   chan *client
	unregister chan *client

	mu      sync.Mutex
	clients map[*client]struct{}

	sendBuf int
}

// NewHub constructs a hub; call Run to start it
func NewHub(snapshot Snapshotter) *Hub {
	return &Hub{
		snapshot:   snapshot,
		broadcast:  make(chan []byte, 128),
		register:   make(chan *client, 16),
		unregister: make(chan *client, 16),
		clients:    make(map[*client]struct{}),
		sendBuf:    32,
	}
}

// Run processes hub events until the context is cancelled, then disconnects
// every client
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			log.Printf("State client connected from %s (%d total)", c.remoteAddr, n)

		case c := <-h.unregister:
			h.remove(c, "disconnect")

		case msg := <-h.broadcast:
			var slow []*client

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.remove(c, "slow client")
			}
		}
	}
}

// Broadcast marshals and enqueues one typed event for every client. It never
// blocks; a full hub queue drops the message.
func (h *Hub) Broadcast(msgType string, data interface{}) {
	msg, err := json.Marshal(envelope{
		Type: msgType,
		Ts:   time.Now().UTC(),
		Data: data,
	})
	if err != nil {
		log.Printf("State broadcast marshal failed for %s: %v", msgType, err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		log.Printf("State broadcast queue full, dropping %s", msgType)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
		c.closeSend()
		delete(h.clients, c)
	}
}

func (h *Hub) remove(c *client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		c.conn.Close()
		c.closeSend()
		log.Printf("State client %s removed (%s), %d remain", c.remoteAddr, reason, n)
	}
}
