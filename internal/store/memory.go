package store

import (
	"crypto/rand"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"partygame/internal/config"
	"partygame/internal/game"
)

// MemoryStore owns every room. Mutations for one room run serially on that
// room's lane; reads only take the map lock and return the current snapshot.
type MemoryStore struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	registry *game.Registry
	queue    *laneQueue

	maxPlayers int
	codeLength int
	now        func() time.Time
}

// Outcome is the result of a mutation that produces events
type Outcome struct {
	Room         *Room
	Events       []game.Event
	Valid        bool
	PhaseChanged bool
}

// RemoveResult describes what RemovePlayer did
type RemoveResult struct {
	Room        *Room // nil when the room is gone
	Removed     bool
	RoomDeleted bool
}

// RoomStats summarizes the store
type RoomStats struct {
	TotalRooms    int            `json:"totalRooms"`
	ActivePlayers int            `json:"activePlayers"`
	GameTypes     map[string]int `json:"gameTypes"`
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(registry *game.Registry, cfg *config.ServerConfig) *MemoryStore {
	return &MemoryStore{
		rooms:      make(map[string]*Room),
		registry:   registry,
		queue:      newLaneQueue(),
		maxPlayers: cfg.Game.MaxPlayers,
		codeLength: cfg.Game.RoomCodeLength,
		now:        time.Now,
	}
}

// Registry returns the engine registry rooms are created from
func (s *MemoryStore) Registry() *game.Registry {
	return s.registry
}

// Close stops accepting mutations and waits for queued ones to finish
func (s *MemoryStore) Close() {
	s.queue.close()
}

func (s *MemoryStore) lookup(code string) (*Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[code]
	return room, ok
}

func (s *MemoryStore) put(room *Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.Code] = room
}

func (s *MemoryStore) remove(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rooms[code]
	delete(s.rooms, code)
	return ok
}

// load returns the room and its engine, for use inside a lane job
func (s *MemoryStore) load(code string) (*Room, game.Engine, error) {
	room, ok := s.lookup(code)
	if !ok {
		return nil, nil, game.RoomNotFound(code)
	}
	engine, err := s.registry.Get(room.GameType)
	if err != nil {
		return nil, nil, err
	}
	return room, engine, nil
}

// CreateRoom creates a lobby room for the game type. An empty code asks the
// store to generate one.
func (s *MemoryStore) CreateRoom(code, gameType string) (*Room, error) {
	engine, err := s.registry.Get(gameType)
	if err != nil {
		return nil, err
	}
	if code == "" {
		code = s.uniqueCode()
	}

	return run(s.queue, code, func() (*Room, error) {
		if _, exists := s.lookup(code); exists {
			return nil, &game.Error{Kind: game.KindRoomExists, RoomCode: code, Message: "room " + code + " already exists"}
		}
		room := newRoom(code, gameType, engine.Initialize(nil), s.now())
		s.put(room)
		log.Info().Str("room", code).Str("gameType", gameType).Msg("room created")
		return room, nil
	})
}

// HasRoom reports whether a room exists
func (s *MemoryStore) HasRoom(code string) bool {
	_, ok := s.lookup(code)
	return ok
}

// GetRoom retrieves a room by code
func (s *MemoryStore) GetRoom(code string) (*Room, error) {
	room, ok := s.lookup(code)
	if !ok {
		return nil, game.RoomNotFound(code)
	}
	return room, nil
}

// GetRoomSafe is GetRoom without the error
func (s *MemoryStore) GetRoomSafe(code string) (*Room, bool) {
	return s.lookup(code)
}

// ListRooms returns every room ordered by code
func (s *MemoryStore) ListRooms() []*Room {
	s.mu.RLock()
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// DeleteRoom removes a room. Deleting a missing room is a no-op that
// returns false.
func (s *MemoryStore) DeleteRoom(code string) bool {
	deleted, err := run(s.queue, code, func() (bool, error) {
		return s.remove(code), nil
	})
	if err != nil {
		return false
	}
	if deleted {
		log.Info().Str("room", code).Msg("room deleted")
	}
	return deleted
}

// AddPlayer appends a player to the room. The first player becomes host and
// initializes the engine state.
func (s *MemoryStore) AddPlayer(code string, player game.Player) (*Room, error) {
	return run(s.queue, code, func() (*Room, error) {
		room, engine, err := s.load(code)
		if err != nil {
			return nil, err
		}

		for _, p := range room.Players {
			if p.ID == player.ID {
				return nil, game.InvalidInput("player %s is already in room %s", player.ID, code)
			}
			if p.Connected && strings.EqualFold(p.Name, player.Name) {
				return nil, game.NameTaken(code, player.Name)
			}
		}
		if s.maxPlayers > 0 && len(room.Players) >= s.maxPlayers {
			return nil, game.RoomFull(code, s.maxPlayers)
		}

		next := room.withPlayerAdded(player, s.now())
		var state game.State
		if len(room.Players) == 0 {
			state = engine.Initialize(next.Players)
		} else {
			state = engine.WithRoster(room.State, next.Players, next.HostID)
		}
		next.State = state

		s.put(next)
		log.Debug().Str("room", code).Str("player", player.ID).Str("name", player.Name).Msg("player added")
		return next, nil
	})
}

// RemovePlayer drops a player. Removing the last player deletes the room.
// Removing from a missing room, or removing a missing player, is a no-op.
func (s *MemoryStore) RemovePlayer(code, playerID string) (RemoveResult, error) {
	return run(s.queue, code, func() (RemoveResult, error) {
		room, engine, err := s.load(code)
		if errors.Is(err, game.ErrRoomNotFound) {
			return RemoveResult{}, nil
		}
		if err != nil {
			return RemoveResult{}, err
		}
		if _, ok := room.Player(playerID); !ok {
			return RemoveResult{Room: room}, nil
		}

		next := room.withPlayerRemoved(playerID, s.now())
		if len(next.Players) == 0 {
			s.remove(code)
			log.Info().Str("room", code).Msg("last player left, room deleted")
			return RemoveResult{Removed: true, RoomDeleted: true}, nil
		}

		next.State = engine.WithRoster(room.State, next.Players, next.HostID)
		s.put(next)
		return RemoveResult{Room: next, Removed: true}, nil
	})
}

// ReconnectPlayer swaps a disconnected player's entry for a connected one
// under newID, keeping name, avatar and score. The new entry goes to the end
// of the roster and keeps the host seat if the old one held it. Answers and
// votes already cast this round follow the player to the new id. The swap runs
// as one job so a room whose only player is reconnecting is never deleted.
func (s *MemoryStore) ReconnectPlayer(code, oldID, newID string) (*Room, error) {
	return run(s.queue, code, func() (*Room, error) {
		room, engine, err := s.load(code)
		if err != nil {
			return nil, err
		}
		old, ok := room.Player(oldID)
		if !ok {
			return nil, game.PlayerNotFound(code, oldID)
		}
		if old.Connected {
			return nil, game.NameTaken(code, old.Name)
		}
		if _, taken := room.Player(newID); taken && newID != oldID {
			return nil, game.InvalidInput("connection id %s is already in use", newID)
		}

		wasHost := room.HostID == oldID
		next := room.withPlayerRemoved(oldID, s.now())
		fresh := old
		fresh.ID = newID
		fresh.Connected = true
		next.Players = append(next.Players, fresh)
		if wasHost || next.HostID == "" {
			next.HostID = newID
		}
		state := engine.RenamePlayer(room.State, oldID, newID)
		next.State = engine.WithRoster(state, next.Players, next.HostID)

		s.put(next)
		log.Info().Str("room", code).Str("oldId", oldID).Str("newId", newID).Str("name", old.Name).Msg("player reconnected")
		return next, nil
	})
}

// UpdatePlayerConnectionStatus marks a player connected or disconnected
func (s *MemoryStore) UpdatePlayerConnectionStatus(code, playerID string, connected bool) (*Room, error) {
	return s.updatePlayer(code, playerID, func(p *game.Player) {
		p.Connected = connected
	})
}

// UpdatePlayerSocketID gives a player a new connection id, keeping the host
// pointer and the current round's answers and votes in step.
func (s *MemoryStore) UpdatePlayerSocketID(code, playerID, newID string) (*Room, error) {
	return run(s.queue, code, func() (*Room, error) {
		room, engine, err := s.load(code)
		if err != nil {
			return nil, err
		}
		if _, ok := room.Player(playerID); !ok {
			return nil, game.PlayerNotFound(code, playerID)
		}
		if _, taken := room.Player(newID); taken && newID != playerID {
			return nil, game.InvalidInput("connection id %s is already in use", newID)
		}

		next := room.withPlayerUpdated(playerID, s.now(), func(p *game.Player) {
			p.ID = newID
			p.Connected = true
		})
		if next.HostID == playerID {
			next.HostID = newID
		}
		state := engine.RenamePlayer(room.State, playerID, newID)
		next.State = engine.WithRoster(state, next.Players, next.HostID)
		s.put(next)
		return next, nil
	})
}

func (s *MemoryStore) updatePlayer(code, playerID string, fn func(*game.Player)) (*Room, error) {
	return run(s.queue, code, func() (*Room, error) {
		room, engine, err := s.load(code)
		if err != nil {
			return nil, err
		}
		if _, ok := room.Player(playerID); !ok {
			return nil, game.PlayerNotFound(code, playerID)
		}
		next := room.withPlayerUpdated(playerID, s.now(), fn)
		next.State = engine.WithRoster(room.State, next.Players, next.HostID)
		s.put(next)
		return next, nil
	})
}

// ProcessAction routes a player action to the room's engine. A rejected
// action leaves the room untouched and yields a single error event for the
// player.
func (s *MemoryStore) ProcessAction(code, playerID string, action game.Action) (Outcome, error) {
	return run(s.queue, code, func() (Outcome, error) {
		room, engine, err := s.load(code)
		if err != nil {
			return Outcome{}, err
		}
		if _, ok := room.Player(playerID); !ok {
			return Outcome{}, game.PlayerNotFound(code, playerID)
		}

		action.PlayerID = playerID
		res := engine.ProcessAction(room.State, action)
		if !res.Valid {
			log.Debug().Str("room", code).Str("player", playerID).Str("action", string(action.Type)).Err(res.Err).Msg("action rejected")
			return Outcome{Room: room, Events: []game.Event{game.ErrorEvent(playerID, res.Err)}}, nil
		}

		next := room.withState(res.State, s.now(), true)
		s.put(next)
		return Outcome{
			Room:         next,
			Events:       res.Events,
			Valid:        true,
			PhaseChanged: next.Phase != room.Phase,
		}, nil
	})
}

// AdvancePhase moves the room's game to its next phase
func (s *MemoryStore) AdvancePhase(code string) (Outcome, error) {
	return run(s.queue, code, func() (Outcome, error) {
		room, engine, err := s.load(code)
		if err != nil {
			return Outcome{}, err
		}
		return s.advance(room, engine), nil
	})
}

func (s *MemoryStore) advance(room *Room, engine game.Engine) Outcome {
	state := engine.AdvancePhase(room.State)
	next := room.withState(state, s.now(), false)
	s.put(next)
	changed := next.Phase != room.Phase
	if changed {
		log.Debug().Str("room", room.Code).Str("from", string(room.Phase)).Str("to", string(next.Phase)).Msg("phase advanced")
	}
	return Outcome{
		Room:         next,
		Events:       engine.PhaseEvents(state),
		Valid:        true,
		PhaseChanged: changed,
	}
}

// UpdateTimer subtracts delta seconds from the phase clock. When the clock
// reaches zero the phase advances in the same job and the new phase's events
// are returned; otherwise a single timer event is. Lobby and game over have no
// clock, so a tick there reports zero and changes nothing.
func (s *MemoryStore) UpdateTimer(code string, delta int) (Outcome, error) {
	return s.updateTimer(code, delta, nil)
}

// UpdateTimerAt is UpdateTimer for a countdown that belongs to one phase of
// one round. If the room has moved on the tick is dropped and an invalid
// Outcome with the current room is returned.
func (s *MemoryStore) UpdateTimerAt(code string, phase game.PhaseName, round, delta int) (Outcome, error) {
	return s.updateTimer(code, delta, func(r *Room) bool {
		return r.Phase == phase && r.State.Round() == round
	})
}

func (s *MemoryStore) updateTimer(code string, delta int, current func(*Room) bool) (Outcome, error) {
	return run(s.queue, code, func() (Outcome, error) {
		room, engine, err := s.load(code)
		if err != nil {
			return Outcome{}, err
		}
		if current != nil && !current(room) {
			return Outcome{Room: room}, nil
		}
		if engine.CurrentPhase(room.State).Duration <= 0 {
			// Untimed phases have nothing to count down or expire.
			return Outcome{Room: room, Events: []game.Event{game.TimerEvent(0)}, Valid: true}, nil
		}

		state := engine.UpdateTimer(room.State, delta)
		next := room.withState(state, s.now(), false)
		if left := engine.TimeLeft(state); left > 0 {
			s.put(next)
			return Outcome{Room: next, Events: []game.Event{game.TimerEvent(left)}, Valid: true}, nil
		}
		out := s.advance(next, engine)
		out.PhaseChanged = out.Room.Phase != room.Phase
		return out, nil
	})
}

// CleanupDuplicatePlayers keeps one player per name, preferring a connected
// player, then the higher score, then the earlier join. It returns how many
// entries were removed.
func (s *MemoryStore) CleanupDuplicatePlayers(code string) (int, error) {
	return run(s.queue, code, func() (int, error) {
		room, engine, err := s.load(code)
		if err != nil {
			return 0, err
		}

		best := make(map[string]int)
		for i, p := range room.Players {
			key := strings.ToLower(p.Name)
			j, seen := best[key]
			if !seen || betterDuplicate(p, room.Players[j]) {
				best[key] = i
			}
		}
		if len(best) == len(room.Players) {
			return 0, nil
		}

		next := room.next(s.now(), false)
		next.Players = next.Players[:0]
		for i, p := range room.Players {
			if best[strings.ToLower(p.Name)] == i {
				next.Players = append(next.Players, p)
			}
		}
		if _, ok := next.Player(next.HostID); !ok && len(next.Players) > 0 {
			next.HostID = next.Players[0].ID
		}
		next.State = engine.WithRoster(room.State, next.Players, next.HostID)
		s.put(next)

		removed := len(room.Players) - len(next.Players)
		log.Info().Str("room", code).Int("removed", removed).Msg("duplicate players cleaned up")
		return removed, nil
	})
}

func betterDuplicate(candidate, current game.Player) bool {
	if candidate.Connected != current.Connected {
		return candidate.Connected
	}
	return candidate.Score > current.Score
}

// CleanupInactiveRooms deletes rooms with no players or no activity for
// longer than maxIdle. Errors are logged, not returned.
func (s *MemoryStore) CleanupInactiveRooms(maxIdle time.Duration) int {
	cleaned := 0
	for _, snapshot := range s.ListRooms() {
		code := snapshot.Code
		deleted, err := run(s.queue, code, func() (bool, error) {
			room, ok := s.lookup(code)
			if !ok {
				return false, nil
			}
			if len(room.Players) > 0 && s.now().Sub(room.LastActivity) <= maxIdle {
				return false, nil
			}
			return s.remove(code), nil
		})
		if err != nil {
			log.Warn().Err(err).Str("room", code).Msg("inactive room cleanup failed")
			continue
		}
		if deleted {
			cleaned++
		}
	}
	if cleaned > 0 {
		log.Info().Int("rooms", cleaned).Msg("cleaned up inactive rooms")
	}
	return cleaned
}

// Stats returns room and player counts
func (s *MemoryStore) Stats() RoomStats {
	stats := RoomStats{GameTypes: make(map[string]int)}
	for _, r := range s.ListRooms() {
		stats.TotalRooms++
		stats.ActivePlayers += r.ConnectedCount()
		stats.GameTypes[r.GameType]++
	}
	return stats
}

// uniqueCode generates a room code not currently in use
func (s *MemoryStore) uniqueCode() string {
	var code string
	for i := 0; i < 10; i++ { // Try up to 10 times
		code = generateRoomCode(s.codeLength)
		if !s.HasRoom(code) {
			break
		}
	}
	return code
}

// generateRoomCode generates an upper-case alphanumeric code
func generateRoomCode(length int) string {
	const chars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	if length <= 0 {
		length = 4
	}
	b := make([]byte, length)
	rand.Read(b)

	for i := range b {
		b[i] = chars[b[i]%byte(len(chars))]
	}

	return string(b)
}
