package rooms

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partygame/internal/game"
)

// frozen keeps timers from ticking during a test
const frozen = time.Hour

func TestGatewayTriviaRound(t *testing.T) {
	s := newTestStore(t)
	g, rec := newTestGateway(t, s, frozen)

	room, err := g.CreateRoom("ab12", game.TypeBluffTrivia)
	require.NoError(t, err)
	require.Equal(t, "AB12", room.Code)

	_, err = g.Join("AB12", "c-ann", "Ann", "")
	require.NoError(t, err)
	_, err = g.Join("AB12", "c-bob", " Bob ", "")
	require.NoError(t, err)

	joined, ok := rec.last("c-bob", MessageJoined)
	require.True(t, ok)
	assert.Equal(t, JoinedPayload{PlayerID: "c-bob"}, joined.Data)

	require.NoError(t, g.StartGame("AB12", "c-ann"))
	room, _ = s.GetRoom("AB12")
	assert.Equal(t, game.PhasePrompt, room.Phase)
	assert.Equal(t, 1, room.State.Round())
	assert.NotEmpty(t, room.State.View().PromptID)
	assert.True(t, g.Timers().IsRunning("AB12"))
	left, _ := g.Timers().Remaining("AB12")
	assert.Equal(t, 15, left)
	assert.Contains(t, rec.types(""), string(game.EventPrompt))

	require.NoError(t, g.SubmitAnswer("AB12", "c-ann", "pinkness"))
	require.NoError(t, g.SubmitAnswer("AB12", "c-bob", "a parade"))
	assert.Contains(t, rec.types("c-bob"), string(game.EventSubmitted))

	require.NoError(t, g.Advance("AB12"))
	room, _ = s.GetRoom("AB12")
	require.Equal(t, game.PhaseChoose, room.Phase)

	choices := room.State.View().Choices
	ids := make([]string, 0, len(choices))
	for _, c := range choices {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{game.TruthChoiceID(room.State.View().PromptID), "c-ann", "c-bob"}, ids)

	left, _ = g.Timers().Remaining("AB12")
	assert.Equal(t, 20, left, "phase change restarts the countdown")
}

func TestGatewayRejectedActionsReachThePlayer(t *testing.T) {
	s := newTestStore(t)
	g, rec := newTestGateway(t, s, frozen)
	_, err := g.CreateRoom("AB12", game.TypeBluffTrivia)
	require.NoError(t, err)
	_, err = g.Join("AB12", "c-ann", "Ann", "")
	require.NoError(t, err)
	_, err = g.Join("AB12", "c-bob", "Bob", "")
	require.NoError(t, err)

	require.NoError(t, g.StartGame("AB12", "c-bob"))

	msg, ok := rec.last("c-bob", string(game.EventError))
	require.True(t, ok)
	assert.Equal(t, game.KindNotHost, msg.Data.(game.ErrorPayload).Code)
	room, _ := s.GetRoom("AB12")
	assert.Equal(t, game.PhaseLobby, room.Phase)
	assert.False(t, g.Timers().IsRunning("AB12"))

	assert.ErrorIs(t, g.StartGame("NOPE", "c-ann"), game.ErrRoomNotFound)
	assert.ErrorIs(t, g.SubmitAnswer("AB12", "c-ghost", "x"), game.ErrPlayerNotFound)
}

func TestGatewayJoinValidation(t *testing.T) {
	s := newTestStore(t)
	g, _ := newTestGateway(t, s, frozen)
	_, err := g.CreateRoom("AB12", game.TypeBluffTrivia)
	require.NoError(t, err)

	_, err = g.Join("AB12", "c-1", "<script>", "")
	assert.ErrorIs(t, err, game.ErrInvalidInput)

	_, err = g.CreateRoom("A!", game.TypeBluffTrivia)
	assert.ErrorIs(t, err, game.ErrInvalidInput)

	_, err = g.CreateRoom("AB12", game.TypeBluffTrivia)
	assert.ErrorIs(t, err, game.ErrRoomExists)

	_, err = g.CreateRoom("", "chess")
	assert.ErrorIs(t, err, game.ErrUnknownGameType)
}

func TestGatewayTimerDrivesGameToTheEnd(t *testing.T) {
	s := newTestStore(t, game.Options{
		Prompts:   testPrompts,
		IntN:      first,
		MaxRounds: 1,
		Durations: map[game.PhaseName]int{game.PhasePrompt: 2, game.PhaseChoose: 2, game.PhaseScoring: 1},
	})
	g, rec := newTestGateway(t, s, testTick)
	_, err := g.CreateRoom("AB12", game.TypeBluffTrivia)
	require.NoError(t, err)
	_, err = g.Join("AB12", "c-ann", "Ann", "")
	require.NoError(t, err)
	_, err = g.Join("AB12", "c-bob", "Bob", "")
	require.NoError(t, err)

	require.NoError(t, g.StartGame("AB12", "c-ann"))

	assert.Eventually(t, func() bool {
		room, ok := s.GetRoomSafe("AB12")
		return ok && room.Phase == game.PhaseGameOver
	}, 2*time.Second, testTick)
	assert.Eventually(t, func() bool { return !g.Timers().IsRunning("AB12") }, time.Second, testTick)

	types := rec.types("")
	for _, want := range []game.EventType{game.EventTimer, game.EventChoices, game.EventReveal, game.EventScores, game.EventGameOver} {
		assert.Contains(t, types, string(want))
	}
}

func TestGatewayAutoAdvanceRestartsTimer(t *testing.T) {
	s := newTestStore(t)
	g, _ := newTestGateway(t, s, frozen)
	_, err := g.CreateRoom("FIB1", game.TypeFibbingIt)
	require.NoError(t, err)
	_, err = g.Join("FIB1", "c-ann", "Ann", "")
	require.NoError(t, err)
	_, err = g.Join("FIB1", "c-bob", "Bob", "")
	require.NoError(t, err)
	require.NoError(t, g.StartGame("FIB1", "c-ann"))

	left, _ := g.Timers().Remaining("FIB1")
	require.Equal(t, 25, left)

	require.NoError(t, g.SubmitAnswer("FIB1", "c-ann", "two"))
	require.NoError(t, g.SubmitAnswer("FIB1", "c-bob", "nine"))

	room, _ := s.GetRoom("FIB1")
	require.Equal(t, game.PhaseChoose, room.Phase)
	left, _ = g.Timers().Remaining("FIB1")
	assert.Equal(t, 20, left)
}

func TestGatewayStaleScheduleKeepsNewerTimer(t *testing.T) {
	s := newTestStore(t)
	g, _ := newTestGateway(t, s, frozen)
	_, err := g.CreateRoom("FIB1", game.TypeFibbingIt)
	require.NoError(t, err)
	_, err = g.Join("FIB1", "c-ann", "Ann", "")
	require.NoError(t, err)
	_, err = g.Join("FIB1", "c-bob", "Bob", "")
	require.NoError(t, err)
	require.NoError(t, g.StartGame("FIB1", "c-ann"))

	prompt, err := s.GetRoom("FIB1")
	require.NoError(t, err)
	require.Equal(t, game.PhasePrompt, prompt.Phase)

	require.NoError(t, g.Advance("FIB1"))
	left, _ := g.Timers().Remaining("FIB1")
	require.Equal(t, 20, left)

	// A prompt-phase commit whose schedule call lands after the advance.
	g.schedule(prompt)

	room, _ := s.GetRoom("FIB1")
	assert.Equal(t, game.PhaseChoose, room.Phase)
	left, ok := g.Timers().Remaining("FIB1")
	require.True(t, ok)
	assert.Equal(t, 20, left, "choose timer must survive the stale schedule")
}

func TestGatewayScheduleAfterRoomDeletedStopsTimer(t *testing.T) {
	s := newTestStore(t)
	g, _ := newTestGateway(t, s, frozen)
	_, err := g.CreateRoom("AB12", game.TypeBluffTrivia)
	require.NoError(t, err)
	_, err = g.Join("AB12", "c-ann", "Ann", "")
	require.NoError(t, err)
	_, err = g.Join("AB12", "c-bob", "Bob", "")
	require.NoError(t, err)
	require.NoError(t, g.StartGame("AB12", "c-ann"))
	room, _ := s.GetRoom("AB12")
	require.True(t, g.Timers().IsRunning("AB12"))

	require.True(t, s.DeleteRoom("AB12"))
	g.schedule(room)
	assert.False(t, g.Timers().IsRunning("AB12"))
}

func TestGatewayLastPlayerLeavingDeletesRoom(t *testing.T) {
	s := newTestStore(t)
	g, _ := newTestGateway(t, s, frozen)
	_, err := g.CreateRoom("AB12", game.TypeBluffTrivia)
	require.NoError(t, err)
	_, err = g.Join("AB12", "c-ann", "Ann", "")
	require.NoError(t, err)

	require.NoError(t, g.Leave("AB12", "c-ann"))
	assert.False(t, s.HasRoom("AB12"))
	_, err = s.GetRoom("AB12")
	assert.ErrorIs(t, err, game.ErrRoomNotFound)

	assert.NoError(t, g.Leave("AB12", "c-ann"), "leaving a deleted room is a no-op")
}

func TestGatewayDisconnectAndReconnect(t *testing.T) {
	s := newTestStore(t)
	g, rec := newTestGateway(t, s, frozen)
	_, err := g.CreateRoom("AB12", game.TypeBluffTrivia)
	require.NoError(t, err)
	_, err = g.Join("AB12", "c-ann", "Ann", "")
	require.NoError(t, err)
	_, err = g.Join("AB12", "c-bob", "Bob", "")
	require.NoError(t, err)

	g.Disconnect("AB12", "c-bob")
	room, _ := s.GetRoom("AB12")
	p, _ := room.Player("c-bob")
	assert.False(t, p.Connected)

	res, err := g.Connect("AB12", "c-bob-2")
	require.NoError(t, err)
	assert.True(t, res.Reconnected)

	msg, ok := rec.last("c-bob-2", MessageJoined)
	require.True(t, ok)
	assert.Equal(t, JoinedPayload{PlayerID: "c-bob-2", Reconnected: true, OldID: "c-bob"}, msg.Data)
}

func TestGatewayDeleteRoomStopsTimer(t *testing.T) {
	s := newTestStore(t)
	g, _ := newTestGateway(t, s, frozen)
	_, err := g.CreateRoom("AB12", game.TypeBluffTrivia)
	require.NoError(t, err)
	_, err = g.Join("AB12", "c-ann", "Ann", "")
	require.NoError(t, err)
	_, err = g.Join("AB12", "c-bob", "Bob", "")
	require.NoError(t, err)
	require.NoError(t, g.StartGame("AB12", "c-ann"))
	require.True(t, g.Timers().IsRunning("AB12"))

	assert.True(t, g.DeleteRoom("AB12"))
	assert.False(t, g.Timers().IsRunning("AB12"))
	assert.False(t, g.DeleteRoom("AB12"))
}

func TestGatewayCleanup(t *testing.T) {
	s := newTestStore(t)
	g, _ := newTestGateway(t, s, frozen)
	_, err := g.CreateRoom("EMPT", game.TypeBluffTrivia)
	require.NoError(t, err)
	_, err = g.CreateRoom("BUSY", game.TypeBluffTrivia)
	require.NoError(t, err)
	_, err = g.Join("BUSY", "c-ann", "Ann", "")
	require.NoError(t, err)

	assert.Equal(t, 1, g.Cleanup())
	assert.False(t, s.HasRoom("EMPT"))
	assert.True(t, s.HasRoom("BUSY"))
}

func TestGatewayRunStopsWithContext(t *testing.T) {
	g, _ := newTestGateway(t, newTestStore(t), frozen)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
