package websocket

import "github.com/rs/zerolog/log"

// targetedMessage is a message addressed to a single user's connections.
type targetedMessage struct {
	userID  string
	message []byte
}

// Hub maintains the set of active clients and broadcasts messages to them.
// Clients are keyed by the authenticated user so that per-user messages never
// reach another user's connections. All map access happens on the Run
// goroutine; callers only ever touch channels.
type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Inbound messages for global broadcast (system-wide notices).
	Broadcast chan []byte

	// Register requests from the clients.
	Register chan *Client

	// Unregister requests from clients.
	Unregister chan *Client

	// Per-user messages queued by BroadcastTo.
	broadcastTo chan targetedMessage

	// A map of user IDs to the set of that user's connections.
	userClients map[string]map[*Client]bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Broadcast:   make(chan []byte),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		broadcastTo: make(chan targetedMessage, 16),
		clients:     make(map[*Client]bool),
		userClients: make(map[string]map[*Client]bool),
	}
}

// Run starts the Hub's message processing loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			h.addUserClient(client)
			log.Info().Int("total_clients", len(h.clients)).Msg("Client connected")
		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
				h.removeUserClient(client)
				log.Info().Int("total_clients", len(h.clients)).Msg("Client disconnected")
			}
		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
					h.removeUserClient(client)
				}
			}
		case tm := <-h.broadcastTo:
			h.deliverTo(tm.userID, tm.message)
		}
	}
}

// BroadcastTo queues a message for all connections of a specific user.
// Delivery happens on the Run goroutine, so this is safe to call from any
// request goroutine.
func (h *Hub) BroadcastTo(userID string, message []byte) {
	h.broadcastTo <- targetedMessage{userID: userID, message: message}
}

// deliverTo fans a message out to a user's connections. Must only be called
// from Run.
func (h *Hub) deliverTo(userID string, message []byte) {
	if conns, ok := h.userClients[userID]; ok {
		for client := range conns {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(h.clients, client)
				delete(conns, client)
			}
		}
	}
}

func (h *Hub) addUserClient(client *Client) {
	if h.userClients[client.UserID] == nil {
		h.userClients[client.UserID] = make(map[*Client]bool)
	}
	h.userClients[client.UserID][client] = true
}

func (h *Hub) removeUserClient(client *Client) {
	if conns, ok := h.userClients[client.UserID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.userClients, client.UserID)
		}
	}
}
