package rooms

import (
	"github.com/rs/zerolog/log"

	"partygame/internal/game"
	"partygame/internal/store"
)

// ConnectionResult describes what a connection or join did to the roster
type ConnectionResult struct {
	Room        *store.Room
	PlayerID    string
	Reconnected bool
	// OldID is the connection id the player had before reconnecting.
	OldID string
}

// ConnectionManager decides whether a connection is a new player, a
// reconnection of a dropped one, or a rejected duplicate name.
type ConnectionManager struct {
	store *store.MemoryStore
}

// NewConnectionManager creates a connection manager over the store
func NewConnectionManager(s *store.MemoryStore) *ConnectionManager {
	return &ConnectionManager{store: s}
}

// HandleConnection accepts a new connection to an existing room. If a player
// in the room is disconnected, the connection takes that player over; the
// host is preferred over everyone else.
func (m *ConnectionManager) HandleConnection(code, connID string) (ConnectionResult, error) {
	room, err := m.store.GetRoom(code)
	if err != nil {
		return ConnectionResult{}, err
	}

	stale, ok := dropped(room)
	if !ok {
		return ConnectionResult{Room: room, PlayerID: connID}, nil
	}
	return m.reconnect(code, stale, connID)
}

// HandleDisconnection marks the player disconnected. It reports false when
// the room or player is gone.
func (m *ConnectionManager) HandleDisconnection(code, connID string) bool {
	if _, err := m.store.UpdatePlayerConnectionStatus(code, connID, false); err != nil {
		log.Debug().Err(err).Str("room", code).Str("conn", connID).Msg("disconnect ignored")
		return false
	}
	log.Info().Str("room", code).Str("player", connID).Msg("player disconnected")
	return true
}

// HandlePlayerJoin adds a named player. A disconnected player with the same
// name is taken over with score and avatar intact; a connected one makes the
// join fail with NameTaken.
func (m *ConnectionManager) HandlePlayerJoin(code, connID, name, avatar string) (ConnectionResult, error) {
	room, err := m.store.GetRoom(code)
	if err != nil {
		return ConnectionResult{}, err
	}

	var res ConnectionResult
	if existing, found := room.PlayerByName(name); found {
		if existing.Connected {
			return ConnectionResult{}, game.NameTaken(code, name)
		}
		res, err = m.reconnect(code, existing, connID)
	} else {
		room, err = m.store.AddPlayer(code, game.NewPlayer(connID, name, avatar))
		res = ConnectionResult{Room: room, PlayerID: connID}
		if err == nil {
			log.Info().Str("room", code).Str("player", connID).Str("name", name).Msg("player joined")
		}
	}
	if err != nil {
		return ConnectionResult{}, err
	}

	if removed, err := m.store.CleanupDuplicatePlayers(code); err != nil {
		log.Warn().Err(err).Str("room", code).Msg("duplicate cleanup failed")
	} else if removed > 0 {
		if latest, ok := m.store.GetRoomSafe(code); ok {
			res.Room = latest
		}
	}
	return res, nil
}

func (m *ConnectionManager) reconnect(code string, stale game.Player, connID string) (ConnectionResult, error) {
	room, err := m.store.ReconnectPlayer(code, stale.ID, connID)
	if err != nil {
		return ConnectionResult{}, err
	}
	return ConnectionResult{
		Room:        room,
		PlayerID:    connID,
		Reconnected: true,
		OldID:       stale.ID,
	}, nil
}

// dropped picks the disconnected player a bare connection should take over
func dropped(room *store.Room) (game.Player, bool) {
	if host, ok := room.Player(room.HostID); ok && !host.Connected {
		return host, true
	}
	for _, p := range room.Players {
		if !p.Connected {
			return p, true
		}
	}
	return game.Player{}, false
}
