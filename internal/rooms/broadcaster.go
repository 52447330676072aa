package rooms

import (
	"github.com/rs/zerolog/log"

	"partygame/internal/game"
	"partygame/internal/store"
)

// MessageRoom carries a room snapshot after every change
const MessageRoom = "room"

// Message is what goes out over a transport
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Transport delivers messages to connections. Connections are addressed by
// the connection id players are keyed by.
type Transport interface {
	SendToRoom(code string, msg Message) error
	SendToConnection(code, connID string, msg Message) error
}

// RoomLookup resolves a room snapshot without queueing
type RoomLookup interface {
	GetRoomSafe(code string) (*store.Room, bool)
}

// Broadcaster turns targeted game events into transport sends
type Broadcaster struct {
	rooms      RoomLookup
	transports []Transport
}

// NewBroadcaster fans events out to every transport
func NewBroadcaster(rooms RoomLookup, transports ...Transport) *Broadcaster {
	return &Broadcaster{rooms: rooms, transports: transports}
}

// Publish delivers events in order. Send failures are logged and skipped so
// one slow client does not hold up the room.
func (b *Broadcaster) Publish(code string, events []game.Event) {
	for _, ev := range events {
		msg := Message{Type: string(ev.Type), Data: ev.Data}
		switch ev.Target {
		case game.TargetPlayer:
			b.toConnection(code, ev.PlayerID, msg)
		case game.TargetHost:
			room, ok := b.rooms.GetRoomSafe(code)
			if !ok || room.HostID == "" {
				log.Debug().Str("room", code).Str("event", msg.Type).Msg("no host to receive event")
				continue
			}
			b.toConnection(code, room.HostID, msg)
		default:
			b.toRoom(code, msg)
		}
	}
}

// PublishRoom sends the room's snapshot to everyone in it
func (b *Broadcaster) PublishRoom(room *store.Room) {
	if room == nil {
		return
	}
	b.toRoom(room.Code, Message{Type: MessageRoom, Data: room.View()})
}

// Send delivers one message to one connection
func (b *Broadcaster) Send(code, connID string, msg Message) {
	b.toConnection(code, connID, msg)
}

func (b *Broadcaster) toRoom(code string, msg Message) {
	for _, t := range b.transports {
		if err := t.SendToRoom(code, msg); err != nil {
			log.Warn().Err(err).Str("room", code).Str("type", msg.Type).Msg("broadcast failed")
		}
	}
}

func (b *Broadcaster) toConnection(code, connID string, msg Message) {
	for _, t := range b.transports {
		if err := t.SendToConnection(code, connID, msg); err != nil {
			log.Warn().Err(err).Str("room", code).Str("conn", connID).Str("type", msg.Type).Msg("send failed")
		}
	}
}

// ErrorMessage wraps an error the way rejected actions are reported
func ErrorMessage(err error) Message {
	ev := game.ErrorEvent("", err)
	return Message{Type: string(ev.Type), Data: ev.Data}
}
