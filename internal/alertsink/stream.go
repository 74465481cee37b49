package alertsink

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub broadcasts alert payloads to every connected WebSocket client,
// grounded on the polymarket market-maker's dashboard event hub
// (internal/api.Hub in the pack): a register/unregister/broadcast channel
// trio guarded by a map of live clients. It exists so an excluded
// dashboard/renderer collaborator can subscribe to the same structured
// payloads the Telegram sink posts, without the core knowing anything
// about how they get drawn.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*client]bool
	broadcast chan Payload
	upgrader  websocket.Upgrader
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*client]bool),
		broadcast: make(chan Payload, 256),
		upgrader:  websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
	}
}

// Run drains the broadcast channel until stop is closed, fanning each
// payload out to every connected client's send buffer. Call it in its own
// goroutine at startup.
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case p := <-h.broadcast:
			data, err := json.Marshal(p)
			if err != nil {
				log.Printf("alertsink: hub marshal failed: %v", err)
				continue
			}
			var dead []*client
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- data:
				default:
					// client can't keep up; drop it rather than block the hub
					dead = append(dead, c)
				}
			}
			h.mu.RUnlock()

			if len(dead) > 0 {
				h.mu.Lock()
				for _, c := range dead {
					if h.clients[c] {
						close(c.send)
						delete(h.clients, c)
					}
				}
				h.mu.Unlock()
			}
		}
	}
}

// ServeHTTP upgrades the connection and registers the client until it
// disconnects. Mount at whatever path the (excluded) dashboard expects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("alertsink: websocket upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 32)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go h.writePump(c)
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.mu.Lock()
			delete(h.clients, c)
			h.mu.Unlock()
			return
		}
	}
}

// PostAlert implements Sink by enqueuing the payload for broadcast. channel
// is ignored — the hub has no per-channel routing, mirroring the pack's
// single-hub dashboard event stream.
func (h *Hub) PostAlert(channel string, p Payload) error {
	p.Channel = channel
	select {
	case h.broadcast <- p:
	default:
		log.Println("alertsink: hub broadcast buffer full, dropping payload")
	}
	return nil
}
