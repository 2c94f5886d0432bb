package hub

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/dimitrije/taskhub-api/pkg/logger"
	"github.com/google/uuid"
)

const (
	EventConnected           = "connected"
	EventProjectNotification = "project-notification"
	EventProjectJoined       = "project_joined"
	EventProjectLeft         = "project_left"

	clientBufferSize    = 256
	broadcastBufferSize = 256
)

// ConnState tracks a live connection through authentication and channel join.
type ConnState int32

const (
	StateUnauthenticated ConnState = iota
	StateAuthenticating
	StateJoined
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticating:
		return "authenticating"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

type Event struct {
	Type      string     `json:"type"`
	ProjectID *uuid.UUID `json:"project_id,omitempty"`
	Data      any        `json:"data,omitempty"`
}

// NotificationData is the payload pushed for every fanned-out task change.
type NotificationData struct {
	Project uuid.UUID  `json:"project"`
	Task    *uuid.UUID `json:"task,omitempty"`
	Action  string     `json:"action"`
}

type Client struct {
	ID       string
	UserID   uuid.UUID
	UserName string
	Projects map[uuid.UUID]bool
	Send     chan []byte

	state      atomic.Int32
	registered chan struct{}
}

func NewClient(userID uuid.UUID, userName string) *Client {
	return &Client{
		ID:       uuid.New().String(),
		UserID:   userID,
		UserName: userName,
		Projects: make(map[uuid.UUID]bool),
		Send:     make(chan []byte, clientBufferSize),

		registered: make(chan struct{}),
	}
}

func (c *Client) State() ConnState {
	return ConnState(c.state.Load())
}

func (c *Client) SetState(s ConnState) {
	c.state.Store(int32(s))
}

type projectMessage struct {
	ProjectID uuid.UUID
	Event     Event
}

// Hub is the in-process registry of live connections, indexed by project.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan *projectMessage
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *projectMessage, broadcastBufferSize),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; !ok {
				h.clients[client.ID] = client
			}
			if client.registered != nil {
				select {
				case <-client.registered:
				default:
					close(client.registered)
				}
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				client.SetState(StateClosed)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Event)
			if err != nil {
				logger.Error().Err(err).Str("event", msg.Event.Type).Msg("failed to encode hub event")
				continue
			}
			h.mu.RLock()
			for _, client := range h.clients {
				if client.Projects[msg.ProjectID] {
					deliver(client, data)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register returns once the run loop has indexed the client, so Join can follow it directly.
func (h *Hub) Register(client *Client) {
	if client.registered == nil {
		client.registered = make(chan struct{})
	}
	h.register <- client
	<-client.registered
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Join subscribes a registered client to the given projects and marks it joined.
func (h *Hub) Join(clientID string, projectIDs []uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[clientID]
	if !ok {
		return
	}
	for _, id := range projectIDs {
		client.Projects[id] = true
	}
	client.SetState(StateJoined)
}

// JoinProject adds the project to every open connection of the user.
func (h *Hub) JoinProject(userID, projectID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	data := encode(Event{Type: EventProjectJoined, ProjectID: &projectID})
	for _, client := range h.clients {
		if client.UserID == userID && !client.Projects[projectID] {
			client.Projects[projectID] = true
			deliver(client, data)
		}
	}
}

// LeaveProject removes the project from every open connection of the user.
func (h *Hub) LeaveProject(userID, projectID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	data := encode(Event{Type: EventProjectLeft, ProjectID: &projectID})
	for _, client := range h.clients {
		if client.UserID == userID && client.Projects[projectID] {
			delete(client.Projects, projectID)
			deliver(client, data)
		}
	}
}

// CloseProject drops the project channel from all connections.
func (h *Hub) CloseProject(projectID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	data := encode(Event{Type: EventProjectLeft, ProjectID: &projectID})
	for _, client := range h.clients {
		if client.Projects[projectID] {
			delete(client.Projects, projectID)
			deliver(client, data)
		}
	}
}

// PublishToProject queues an event for every connection joined to the project.
// It never blocks; when the broadcast queue is full the event is dropped.
func (h *Hub) PublishToProject(projectID uuid.UUID, event Event) {
	if event.ProjectID == nil {
		event.ProjectID = &projectID
	}
	select {
	case h.broadcast <- &projectMessage{ProjectID: projectID, Event: event}:
	default:
		logger.Warn().Str("project_id", projectID.String()).Str("event", event.Type).Msg("hub broadcast queue full, event dropped")
	}
}

// ProjectClients returns how many open connections are joined to the project.
func (h *Hub) ProjectClients(projectID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, client := range h.clients {
		if client.Projects[projectID] {
			n++
		}
	}
	return n
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func encode(event Event) []byte {
	data, _ := json.Marshal(event)
	return data
}

// deliver must be called with h.mu held.
func deliver(client *Client, data []byte) {
	select {
	case client.Send <- data:
	default:
		// client buffer full, skip
	}
}
