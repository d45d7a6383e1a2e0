// ABOUTME: Per-connection client pumps and the websocket upgrade handler
package statehub

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// client is one connected GUI. send carries pre-serialized frames.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	remoteAddr string
	closeOnce  sync.Once
}

func (c *client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Handler upgrades the connection, registers the client, and sends the
// state_init snapshot before any broadcasts are observed by the new client.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("State upgrade failed: %v", err)
			return
		}

		c := &client{
			hub:        h,
			conn:       conn,
			send:       make(chan []byte, h.sendBuf),
			remoteAddr: r.RemoteAddr,
		}

		// Queue the snapshot before registering so the init frame is first
		// in the client's queue
		if h.snapshot != nil {
			init, err := json.Marshal(envelope{
				Type: "state_init",
				Ts:   time.Now().UTC(),
				Data: h.snapshot(),
			})
			if err != nil {
				log.Printf("State snapshot marshal failed: %v", err)
				conn.Close()
				return
			}
			c.send <- init
		}

		h.register <- c

		// The pumps outlive the HTTP handler; net/http cancels the request
		// context on return, which would kill the connection early
		go c.writePump()
		go c.readPump()
	}
}

// writePump drains the send queue to the socket, pinging on idle
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; it exists to handle control frames and
// detect disconnects
func (c *client) readPump() {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.hub.unregister <- c
			return
		}
	}
}
