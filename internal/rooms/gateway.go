package rooms

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"partygame/internal/config"
	"partygame/internal/game"
	"partygame/internal/store"
	"partygame/internal/timer"
)

// MessageJoined tells a connection which player it now is
const MessageJoined = "joined"

// JoinedPayload is the data of a joined message
type JoinedPayload struct {
	PlayerID    string `json:"playerId"`
	Reconnected bool   `json:"reconnected"`
	OldID       string `json:"oldId,omitempty"`
}

// Gateway turns transport requests into store and connection manager calls,
// publishes what comes back, and keeps each room's phase timer in step with
// its game.
type Gateway struct {
	store  *store.MemoryStore
	conns  *ConnectionManager
	timers *timer.Service
	bc     *Broadcaster

	// schedMu orders timer restarts so an older snapshot can never replace
	// the timer of a newer phase.
	schedMu sync.Mutex

	cleanupInterval time.Duration
	inactiveTimeout time.Duration
}

// NewGateway wires a gateway. The timer service should have been created
// with the store's HasRoom as its existence check.
func NewGateway(s *store.MemoryStore, timers *timer.Service, bc *Broadcaster, settings config.GameSettings) *Gateway {
	cleanup := settings.CleanupInterval
	if cleanup <= 0 {
		cleanup = 5 * time.Minute
	}
	inactive := settings.InactiveTimeout
	if inactive <= 0 {
		inactive = 30 * time.Minute
	}
	return &Gateway{
		store:           s,
		conns:           NewConnectionManager(s),
		timers:          timers,
		bc:              bc,
		cleanupInterval: cleanup,
		inactiveTimeout: inactive,
	}
}

// Store returns the underlying room store
func (g *Gateway) Store() *store.MemoryStore {
	return g.store
}

// Timers returns the phase timer service
func (g *Gateway) Timers() *timer.Service {
	return g.timers
}

// CreateRoom creates a room. An empty code gets a generated one.
func (g *Gateway) CreateRoom(code, gameType string) (*store.Room, error) {
	if code != "" {
		var err error
		if code, err = NormalizeRoomCode(code); err != nil {
			return nil, err
		}
	}
	return g.store.CreateRoom(code, gameType)
}

// DeleteRoom removes a room and its timer
func (g *Gateway) DeleteRoom(code string) bool {
	g.timers.Stop(code)
	return g.store.DeleteRoom(code)
}

// Connect registers a fresh connection to a room, taking over a dropped
// player if there is one.
func (g *Gateway) Connect(code, connID string) (ConnectionResult, error) {
	res, err := g.conns.HandleConnection(code, connID)
	if err != nil {
		return ConnectionResult{}, err
	}
	if res.Reconnected {
		g.announce(code, res)
	}
	return res, nil
}

// Join adds a named player to the room
func (g *Gateway) Join(code, connID, nickname, avatar string) (ConnectionResult, error) {
	name, err := ValidateNickname(nickname)
	if err != nil {
		return ConnectionResult{}, err
	}
	res, err := g.conns.HandlePlayerJoin(code, connID, name, avatar)
	if err != nil {
		return ConnectionResult{}, err
	}
	g.announce(code, res)
	return res, nil
}

func (g *Gateway) announce(code string, res ConnectionResult) {
	g.bc.Send(code, res.PlayerID, Message{Type: MessageJoined, Data: JoinedPayload{
		PlayerID:    res.PlayerID,
		Reconnected: res.Reconnected,
		OldID:       res.OldID,
	}})
	g.bc.PublishRoom(res.Room)
}

// Leave removes the player for good. The last one out deletes the room.
func (g *Gateway) Leave(code, connID string) error {
	res, err := g.store.RemovePlayer(code, connID)
	if err != nil {
		return err
	}
	if res.RoomDeleted {
		g.timers.Stop(code)
		return nil
	}
	if res.Removed {
		log.Info().Str("room", code).Str("player", connID).Msg("player left")
		g.bc.PublishRoom(res.Room)
	}
	return nil
}

// Disconnect marks the player as dropped but keeps their seat
func (g *Gateway) Disconnect(code, connID string) {
	if !g.conns.HandleDisconnection(code, connID) {
		return
	}
	if room, ok := g.store.GetRoomSafe(code); ok {
		g.bc.PublishRoom(room)
	}
}

// StartGame starts the room's game on behalf of the host
func (g *Gateway) StartGame(code, connID string) error {
	return g.act(code, connID, game.Action{Type: game.ActionStart})
}

// SubmitAnswer records the player's answer for the current round
func (g *Gateway) SubmitAnswer(code, connID, answer string) error {
	return g.act(code, connID, game.Action{Type: game.ActionSubmitAnswer, Data: game.ActionData{Answer: answer}})
}

// SubmitVote records the player's vote for the current round
func (g *Gateway) SubmitVote(code, connID, choiceID string) error {
	return g.act(code, connID, game.Action{Type: game.ActionSubmitVote, Data: game.ActionData{ChoiceID: choiceID}})
}

// act runs an action. Rejections reach the player as an error event and
// are not returned; only structural failures are.
func (g *Gateway) act(code, connID string, action game.Action) error {
	out, err := g.store.ProcessAction(code, connID, action)
	if err != nil {
		return err
	}
	g.bc.Publish(code, out.Events)
	if !out.Valid {
		return nil
	}
	g.bc.PublishRoom(out.Room)
	if out.PhaseChanged {
		g.schedule(out.Room)
	}
	return nil
}

// Advance moves the room to its next phase now
func (g *Gateway) Advance(code string) error {
	out, err := g.store.AdvancePhase(code)
	if err != nil {
		return err
	}
	if !out.PhaseChanged {
		return nil
	}
	g.bc.Publish(code, out.Events)
	g.bc.PublishRoom(out.Room)
	g.schedule(out.Room)
	return nil
}

// schedule starts the countdown for the phase in snap, replacing the previous
// one. Untimed phases stop it. Callers run outside the room's queue, so a
// snapshot the room has already left is ignored; whoever committed the newer
// phase schedules it.
func (g *Gateway) schedule(snap *store.Room) {
	g.schedMu.Lock()
	defer g.schedMu.Unlock()

	room, ok := g.store.GetRoomSafe(snap.Code)
	if !ok {
		g.timers.Stop(snap.Code)
		return
	}
	if room.Phase != snap.Phase || room.State.Round() != snap.State.Round() {
		log.Debug().Str("room", room.Code).Str("stale", string(snap.Phase)).Str("phase", string(room.Phase)).Msg("skipping stale timer schedule")
		return
	}

	seconds := room.State.Remaining()
	if room.Phase == game.PhaseLobby || room.Phase == game.PhaseGameOver || seconds <= 0 {
		g.timers.Stop(room.Code)
		return
	}
	code, phase, round := room.Code, room.Phase, room.State.Round()
	g.timers.Start(code, seconds, g.tick(code, phase, round), g.expire(code, phase, round))
}

func (g *Gateway) tick(code string, phase game.PhaseName, round int) timer.TickFunc {
	return func(int) error {
		out, err := g.store.UpdateTimerAt(code, phase, round, 1)
		if err != nil {
			return err
		}
		if !out.Valid {
			// The room moved on and a newer timer owns it.
			return nil
		}
		g.bc.Publish(code, out.Events)
		if out.PhaseChanged {
			g.bc.PublishRoom(out.Room)
			g.schedule(out.Room)
		}
		return nil
	}
}

// expire only runs when the ticks did not advance the phase themselves
func (g *Gateway) expire(code string, phase game.PhaseName, round int) func() {
	return func() {
		room, ok := g.store.GetRoomSafe(code)
		if !ok || room.Phase != phase || room.State.Round() != round {
			return
		}
		if err := g.Advance(code); err != nil {
			log.Warn().Err(err).Str("room", code).Msg("advance on timer expiry failed")
		}
	}
}

// Cleanup deletes idle rooms and drops timers that outlived their room
func (g *Gateway) Cleanup() int {
	n := g.store.CleanupInactiveRooms(g.inactiveTimeout)
	g.timers.Sweep()
	return n
}

// Run cleans up idle rooms every cleanup interval until ctx is done
func (g *Gateway) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			g.Cleanup()
		}
	}
}

// Shutdown stops every timer and waits for queued room work
func (g *Gateway) Shutdown() {
	g.timers.StopAll()
	g.store.Close()
}
