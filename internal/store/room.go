package store

import (
	"strings"
	"time"

	"partygame/internal/game"
)

// Room is an immutable snapshot of a room. Every change produces a new
// *Room with a higher Version; snapshots handed out earlier never change.
type Room struct {
	Code         string
	GameType     string
	Players      []game.Player
	HostID       string
	Phase        game.PhaseName
	State        game.State
	CreatedAt    time.Time
	LastActivity time.Time
	Version      int
}

// RoomView is the JSON form of a room sent to clients
type RoomView struct {
	Code         string         `json:"code"`
	GameType     string         `json:"gameType"`
	Players      []game.Player  `json:"players"`
	HostID       string         `json:"hostId"`
	Phase        game.PhaseName `json:"phase"`
	Version      int            `json:"version"`
	LastActivity time.Time      `json:"lastActivity"`
	Game         game.StateView `json:"game"`
}

func newRoom(code, gameType string, state game.State, now time.Time) *Room {
	return &Room{
		Code:         code,
		GameType:     gameType,
		Players:      []game.Player{},
		Phase:        state.PhaseName(),
		State:        state,
		CreatedAt:    now,
		LastActivity: now,
		Version:      1,
	}
}

// View returns the client-facing projection of the room
func (r *Room) View() RoomView {
	v := RoomView{
		Code:         r.Code,
		GameType:     r.GameType,
		Players:      append([]game.Player{}, r.Players...),
		HostID:       r.HostID,
		Phase:        r.Phase,
		Version:      r.Version,
		LastActivity: r.LastActivity,
	}
	if r.State != nil {
		v.Game = r.State.View()
	}
	return v
}

// Player returns the player with the given id
func (r *Room) Player(id string) (game.Player, bool) {
	for _, p := range r.Players {
		if p.ID == id {
			return p, true
		}
	}
	return game.Player{}, false
}

// PlayerByName finds a player by name, ignoring case
func (r *Room) PlayerByName(name string) (game.Player, bool) {
	for _, p := range r.Players {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return game.Player{}, false
}

// ConnectedCount returns the number of connected players
func (r *Room) ConnectedCount() int {
	n := 0
	for _, p := range r.Players {
		if p.Connected {
			n++
		}
	}
	return n
}

// IsHost reports whether the player is the room's host
func (r *Room) IsHost(playerID string) bool {
	return playerID != "" && r.HostID == playerID
}

func (r *Room) next(now time.Time, touch bool) *Room {
	c := *r
	c.Players = append([]game.Player{}, r.Players...)
	c.Version++
	if touch {
		c.LastActivity = now
	}
	return &c
}

// withPlayerAdded appends p. The first player becomes host.
func (r *Room) withPlayerAdded(p game.Player, now time.Time) *Room {
	c := r.next(now, true)
	c.Players = append(c.Players, p)
	if c.HostID == "" {
		c.HostID = p.ID
	}
	return c
}

// withPlayerRemoved drops the player. If the host left, the first remaining
// player becomes host.
func (r *Room) withPlayerRemoved(id string, now time.Time) *Room {
	c := r.next(now, true)
	kept := c.Players[:0]
	for _, p := range c.Players {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	c.Players = kept
	if c.HostID == id {
		c.HostID = ""
		if len(kept) > 0 {
			c.HostID = kept[0].ID
		}
	}
	return c
}

func (r *Room) withPlayerUpdated(id string, now time.Time, fn func(*game.Player)) *Room {
	c := r.next(now, true)
	for i := range c.Players {
		if c.Players[i].ID == id {
			fn(&c.Players[i])
		}
	}
	return c
}

// withState installs a new engine state, copying scores from the engine's
// roster back onto the room's players.
func (r *Room) withState(state game.State, now time.Time, touch bool) *Room {
	c := r.next(now, touch)
	c.State = state
	c.Phase = state.PhaseName()
	for _, p := range state.Roster() {
		for i := range c.Players {
			if c.Players[i].ID == p.ID {
				c.Players[i].Score = p.Score
			}
		}
	}
	return c
}
