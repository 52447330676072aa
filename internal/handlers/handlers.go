package handlers

import (
	"sync"

	"github.com/google/uuid"

	"partygame/internal/config"
	"partygame/internal/rooms"
	"partygame/internal/store"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	gateway  *rooms.Gateway
	store    *store.MemoryStore
	eventBus *EventBus
	hub      *Hub
	cfg      *config.ServerConfig
}

// New creates a new handler. The event bus and hub must both be transports
// of the gateway's broadcaster.
func New(gateway *rooms.Gateway, bus *EventBus, hub *Hub, cfg *config.ServerConfig) *Handler {
	return &Handler{
		gateway:  gateway,
		store:    gateway.Store(),
		eventBus: bus,
		hub:      hub,
		cfg:      cfg,
	}
}

// Store returns the handler's store (for testing)
func (h *Handler) Store() *store.MemoryStore {
	return h.store
}

// Event represents a room event delivered to SSE subscribers
type Event struct {
	Type     string
	RoomCode string
	Data     interface{}
}

// EventBus manages event subscriptions. It is the rooms.Transport behind the
// host dashboard stream.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]chan Event),
	}
}

// Subscribe subscribes to events for a room
func (eb *EventBus) Subscribe(roomCode string) chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	ch := make(chan Event, 16)
	eb.subscribers[roomCode] = append(eb.subscribers[roomCode], ch)
	return ch
}

// Unsubscribe removes a subscription
func (eb *EventBus) Unsubscribe(roomCode string, ch chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subs := eb.subscribers[roomCode]
	for i, sub := range subs {
		if sub == ch {
			eb.subscribers[roomCode] = append(subs[:i], subs[i+1:]...)
			close(ch)
			break
		}
	}
	if len(eb.subscribers[roomCode]) == 0 {
		delete(eb.subscribers, roomCode)
	}
}

// Publish publishes an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for _, ch := range eb.subscribers[event.RoomCode] {
		select {
		case ch <- event:
		default:
			// Channel full, skip
		}
	}
}

// SendToRoom publishes a room-wide message to the room's subscribers
func (eb *EventBus) SendToRoom(code string, msg rooms.Message) error {
	eb.Publish(Event{Type: msg.Type, RoomCode: code, Data: msg.Data})
	return nil
}

// SendToConnection is a no-op: dashboards only follow room-wide traffic.
func (eb *EventBus) SendToConnection(code, connID string, msg rooms.Message) error {
	return nil
}

// newConnectionID returns the id a websocket connection plays under
func newConnectionID() string {
	return uuid.NewString()
}
