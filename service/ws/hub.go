package ws

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"

	"github.com/KAsare1/Yatube-server/cmd/models"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

const NewPostEvent = "new_post"

type Event struct {
	Type   string `json:"type"`
	PostID uint   `json:"post_id"`
	Author string `json:"author"`
	Text   string `json:"text"`
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	UserID uint
}

// Hub tracks open connections per user. A user may have several tabs open.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint]map[*Client]bool
	logger  *log.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[uint]map[*Client]bool),
		logger:  log.New(os.Stdout, "LiveFeed: ", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*Client]bool)
	}
	h.clients[c.UserID][c] = true
}

// unregister must be called with h.mu held.
func (h *Hub) unregister(c *Client) {
	conns, ok := h.clients[c.UserID]
	if !ok || !conns[c] {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.UserID)
	}
	close(c.send)
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unregister(c)
}

// Connected returns how many connections userID has open.
func (h *Hub) Connected(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// SendToUsers queues payload on every connection of the given users. A connection whose
// buffer is full is dropped instead of blocking the caller.
func (h *Hub) SendToUsers(userIDs []uint, payload []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for _, userID := range userIDs {
		for c := range h.clients[userID] {
			select {
			case c.send <- payload:
				delivered++
			default:
				h.logger.Printf("Dropping slow connection for user %d", userID)
				h.unregister(c)
			}
		}
	}
	return delivered
}

// PublishNewPost tells followers that post was just published.
func (h *Hub) PublishNewPost(followerIDs []uint, post *models.Post, author *models.User) {
	if len(followerIDs) == 0 {
		return
	}
	payload, err := json.Marshal(Event{
		Type:   NewPostEvent,
		PostID: post.ID,
		Author: author.Username,
		Text:   post.String(),
	})
	if err != nil {
		h.logger.Printf("Error encoding event: %v", err)
		return
	}
	h.SendToUsers(followerIDs, payload)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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

// readPump only watches for the connection closing; clients do not send anything.
func (c *Client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Printf("error: %v", err)
			}
			return
		}
	}
}
