package ws

import (
	"net/http"

	"github.com/KAsare1/Yatube-server/cmd/utils"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws/", utils.LoginRequired(h.HandleWebSocket)).Methods("GET")
}

// HandleWebSocket upgrades the connection and subscribes it to the user's live feed.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.GetUserIDFromContext(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		UserID: userID,
	}
	h.hub.register(client)
	h.hub.logger.Printf("WebSocket connection established for user %d", userID)

	go client.writePump()
	go client.readPump()
}
