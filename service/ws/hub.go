package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/artcorner/art-corner-server/cmd/models"
	"github.com/artcorner/art-corner-server/cmd/utils"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"gorm.io/gorm"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Client struct {
	UserID uint
	Conn   *websocket.Conn
	Hub    *Hub

	mu sync.Mutex
}

// Hub tracks one live connection per user and pushes chat payloads to
// receivers that are currently online. Persistence happens over the
// REST message routes; the hub only delivers.
type Hub struct {
	clients map[uint]*Client
	mu      sync.RWMutex
	db      *gorm.DB
}

type wsEnvelope struct {
	Type       string          `json:"type"`
	ReceiverID uint            `json:"receiver_id,omitempty"`
	Message    *models.Message `json:"message,omitempty"`
}

func NewHub(db *gorm.DB) *Hub {
	return &Hub{
		clients: make(map[uint]*Client),
		db:      db,
	}
}

func (h *Hub) registerClient(userID uint, conn *websocket.Conn) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[userID]; ok {
		old.Conn.Close()
	}
	client := &Client{
		UserID: userID,
		Conn:   conn,
		Hub:    h,
	}
	h.clients[userID] = client
	return client
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client.UserID] == client {
		delete(h.clients, client.UserID)
	}
}

// DeliverMessage pushes a persisted message to the receiver's open
// connection, if any. Offline receivers rely on notifications instead.
func (h *Hub) DeliverMessage(message *models.Message) {
	h.mu.RLock()
	client, online := h.clients[message.ReceiverID]
	h.mu.RUnlock()
	if !online {
		return
	}

	payload, err := json.Marshal(wsEnvelope{Type: "message", Message: message})
	if err != nil {
		log.Printf("ws: marshal message %d: %v", message.ID, err)
		return
	}
	client.write(payload)
}

func (c *Client) write(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("ws: write to user %d: %v", c.UserID, err)
	}
}

func (c *Client) readLoop() {
	defer func() {
		c.Hub.unregisterClient(c)
		c.Conn.Close()
	}()

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws: user %d: %v", c.UserID, err)
			}
			break
		}

		var env wsEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("ws: unmarshal from user %d: %v", c.UserID, err)
			continue
		}

		// Typing indicators are relayed live and never stored.
		if env.Type == "typing" && env.ReceiverID != 0 {
			c.Hub.relayTyping(c.UserID, env.ReceiverID)
		}
	}
}

func (h *Hub) relayTyping(senderID, receiverID uint) {
	h.mu.RLock()
	client, online := h.clients[receiverID]
	h.mu.RUnlock()
	if !online {
		return
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"type":      "typing",
		"sender_id": senderID,
	})
	client.write(payload)
}

func (h *Hub) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws", h.HandleConnection)
}

func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	userID := utils.OptionalUserID(h.db, r)
	if userID == 0 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws: upgrade: %v", err)
		return
	}

	client := h.registerClient(userID, conn)
	go client.readLoop()
}
