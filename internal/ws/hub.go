package ws

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

const (
	EventMessage      = "message"
	EventNotification = "notification"
)

// Event is pushed to every open socket of a user.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type delivery struct {
	userID string
	data   []byte
}

type Hub struct {
	// Registered clients.
	clients map[*Client]bool

	// Events addressed to a user.
	deliver chan delivery

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		deliver:    make(chan delivery, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case d := <-h.deliver:
			for client := range h.clients {
				if client.userID != d.userID {
					continue
				}
				select {
				case client.send <- d.data:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// Send queues ev for the sockets of userID. It drops the event once the hub
// has stopped.
func (h *Hub) Send(userID string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("type", ev.Type).Msg("failed to encode event")
		return
	}
	select {
	case h.deliver <- delivery{userID: userID, data: data}:
	case <-h.done:
	}
}

// Stop ends Run and closes every client.
func (h *Hub) Stop() {
	select {
	case <-h.done:
	default:
		close(h.done)
	}
}
