package ws

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Client couples a websocket connection with the ledger owner it belongs to.
type Client struct {
	Conn   *websocket.Conn
	UserID uuid.UUID
}

// Event is a payload addressed to a single user's open clients. Ledger data
// is private per user, so the hub never fans an event out across owners.
type Event struct {
	UserID  uuid.UUID
	Payload []byte
}

type Hub struct {
	clients    map[*websocket.Conn]uuid.UUID
	Register   chan Client
	Unregister chan *websocket.Conn
	Broadcast  chan Event
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]uuid.UUID),
		Register:   make(chan Client),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan Event),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mutex.Lock()
			h.clients[client.Conn] = client.UserID
			h.mutex.Unlock()
			log.Println("New WS client connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.clients[conn]; ok {
				delete(h.clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case event := <-h.Broadcast:
			h.mutex.Lock()
			for conn, userID := range h.clients {
				if userID != event.UserID {
					continue
				}
				if err := conn.WriteMessage(websocket.TextMessage, event.Payload); err != nil {
					conn.Close()
					delete(h.clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}
