package sse

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Leeloo90/storygraph-backend/internal/logger"
)

// Event names the change a canvas client should react to.
type Event string

const (
	EventUnitCreated    Event = "UnitCreated"
	EventUnitUpdated    Event = "UnitUpdated"
	EventUnitDeleted    Event = "UnitDeleted"
	EventHistoryChanged Event = "HistoryChanged"
)

// Message is one change-feed entry, scoped to a project.
type Message struct {
	Project uuid.UUID `json:"project"`
	Event   Event     `json:"event"`
	Data    any       `json:"data,omitempty"`
}

// Client is one connected canvas subscription.
type Client struct {
	ID       uuid.UUID
	Project  uuid.UUID
	Outbound chan Message

	closeOnce sync.Once
	done      chan struct{}
}

// Done is closed when the client is removed from the hub.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Hub fans project change events out to subscribed canvas clients.
// Slow clients drop messages rather than block mutations.
type Hub struct {
	mu   sync.RWMutex
	log  *logger.Logger
	subs map[uuid.UUID]map[*Client]bool
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:  log.With("component", "SSEHub"),
		subs: make(map[uuid.UUID]map[*Client]bool),
	}
}

func (h *Hub) Subscribe(projectID uuid.UUID) *Client {
	client := &Client{
		ID:       uuid.New(),
		Project:  projectID,
		Outbound: make(chan Message, 16),
		done:     make(chan struct{}),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.subs[projectID]
	if !ok {
		clients = make(map[*Client]bool)
		h.subs[projectID] = clients
	}
	clients[client] = true
	h.log.Debug("SSE client subscribed", "client_id", client.ID, "project_id", projectID)
	return client
}

func (h *Hub) Unsubscribe(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.subs[client.Project]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.subs, client.Project)
		}
	}
	client.closeOnce.Do(func() { close(client.done) })
	h.log.Debug("SSE client unsubscribed", "client_id", client.ID)
}

func (h *Hub) Broadcast(projectID uuid.UUID, event Event, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	msg := Message{Project: projectID, Event: event, Data: data}
	for client := range h.subs[projectID] {
		select {
		case client.Outbound <- msg:
		default:
			h.log.Warn("SSE client outbound full, dropping message", "client_id", client.ID, "event", event)
		}
	}
}
