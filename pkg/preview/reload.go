package preview

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// reloadMessage is sent to connected browsers.
type reloadMessage struct {
	Type string `json:"type"`
}

// broadcaster manages the WebSocket connections rebuild notifications are
// pushed over.
type broadcaster struct {
	mu       sync.RWMutex
	clients  map[*websocket.Conn]bool
	upgrader websocket.Upgrader
}

func newBroadcaster() *broadcaster {
	return &broadcaster{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Preview runs on localhost only.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// handleWebSocket upgrades the connection and parks it until the browser
// disconnects.
func (b *broadcaster) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	b.mu.Lock()
	b.clients[conn] = true
	b.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	b.mu.Lock()
	delete(b.clients, conn)
	b.mu.Unlock()
	conn.Close()
}

// notify sends a reload message to every connected browser, dropping
// connections that fail to write.
func (b *broadcaster) notify() {
	b.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(b.clients))
	for conn := range b.clients {
		clients = append(clients, conn)
	}
	b.mu.RUnlock()

	for _, conn := range clients {
		if err := conn.WriteJSON(reloadMessage{Type: "reload"}); err != nil {
			b.mu.Lock()
			delete(b.clients, conn)
			b.mu.Unlock()
			conn.Close()
		}
	}
}

// clientCount returns the number of connected browsers.
func (b *broadcaster) clientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// close disconnects every browser.
func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		conn.Close()
		delete(b.clients, conn)
	}
}
