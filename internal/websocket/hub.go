package schedws

import (
	"encoding/json"
	"log"
	"strconv"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
	"github.com/phandinhthai012/stagpower-gym-client-sub001/internal/models"
)

// Hub fans schedule events out to every connected client of the actors a
// session names. A trainer with two open tabs holds two clients under the
// same actor id, and both receive every event.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	events     chan *models.ScheduleEvent
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	id   string
	// actorKey is the role-qualified profile id this connection receives
	// events for. Trainer and member ids come from different sequences, so
	// the bare id alone would collide across roles.
	actorKey string
	send     chan []byte
}

// ActorKey qualifies a profile id with its role.
func ActorKey(role string, actorID int64) string {
	return role + ":" + strconv.FormatInt(actorID, 10)
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan *models.ScheduleEvent, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, actorKey string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		id:       uuid.NewString(),
		actorKey: actorKey,
		send:     make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.actorKey]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.actorKey] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.actorKey]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.actorKey)
			}
		case event := <-h.events:
			h.deliver(event)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish queues an event for delivery to the session's trainer and member.
// Safe to call from any goroutine; never blocks the caller on slow sockets.
func (h *Hub) Publish(event *models.ScheduleEvent) {
	select {
	case h.events <- event:
	default:
		log.Printf("schedule hub: dropping %s for session %d, event queue full", event.Type, event.SessionID)
	}
}

func (h *Hub) deliver(event *models.ScheduleEvent) {
	encoded, err := json.Marshal(event)
	if err != nil {
		log.Printf("schedule hub encode event: %v", err)
		return
	}

	h.sendToActor(ActorKey("trainer", event.TrainerID), encoded)
	h.sendToActor(ActorKey("member", event.MemberID), encoded)
}

func (h *Hub) sendToActor(actorKey string, payload []byte) {
	set, ok := h.clients[actorKey]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, actorKey)
	}
}

// ReadPump drains the connection until it closes. Clients do not send
// schedule commands over the socket; mutations go through the REST API so
// the push stream stays one-directional.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
