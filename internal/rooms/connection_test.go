package rooms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partygame/internal/game"
	"partygame/internal/store"
)

func joinAll(t *testing.T, m *ConnectionManager, code string, names ...string) *store.Room {
	t.Helper()
	var res ConnectionResult
	var err error
	for _, n := range names {
		res, err = m.HandlePlayerJoin(code, "c-"+n, n, "")
		require.NoError(t, err)
		require.False(t, res.Reconnected)
	}
	return res.Room
}

func TestHandlePlayerJoin(t *testing.T) {
	s := newTestStore(t)
	m := NewConnectionManager(s)
	_, err := s.CreateRoom("AB12", game.TypeBluffTrivia)
	require.NoError(t, err)

	t.Run("missing room", func(t *testing.T) {
		_, err := m.HandlePlayerJoin("NOPE", "c-x", "Xavier", "")
		assert.ErrorIs(t, err, game.ErrRoomNotFound)
	})

	room := joinAll(t, m, "AB12", "Ann", "Bob")
	require.Len(t, room.Players, 2)
	assert.Equal(t, "c-Ann", room.HostID)
	assert.Equal(t, 0, room.Players[1].Score)

	t.Run("connected name is taken", func(t *testing.T) {
		_, err := m.HandlePlayerJoin("AB12", "c-other", "ann", "")
		assert.ErrorIs(t, err, game.ErrNameTaken)
		var ge *game.Error
		require.ErrorAs(t, err, &ge)
		assert.Equal(t, "low", ge.Severity())
	})

	t.Run("disconnected name is reclaimed", func(t *testing.T) {
		require.True(t, m.HandleDisconnection("AB12", "c-Bob"))
		res, err := m.HandlePlayerJoin("AB12", "c-bob-2", "Bob", "🐸")
		require.NoError(t, err)
		assert.True(t, res.Reconnected)
		assert.Equal(t, "c-Bob", res.OldID)
		assert.Equal(t, "c-bob-2", res.PlayerID)

		p, ok := res.Room.Player("c-bob-2")
		require.True(t, ok)
		assert.True(t, p.Connected)
		assert.Equal(t, game.DefaultAvatar, p.Avatar, "avatar carries over from the old entry")
		assert.Len(t, res.Room.Players, 2)
	})
}

func TestReconnectionPreservesIdentity(t *testing.T) {
	s := newTestStore(t)
	m := NewConnectionManager(s)
	_, err := s.CreateRoom("WORD", game.TypeWordAssociation)
	require.NoError(t, err)
	joinAll(t, m, "WORD", "Ann", "Bob", "Cat")

	_, err = s.ProcessAction("WORD", "c-Ann", game.Action{Type: game.ActionStart})
	require.NoError(t, err)
	for _, id := range []string{"c-Ann", "c-Bob"} {
		out, err := s.ProcessAction("WORD", id, game.Action{Type: game.ActionSubmitAnswer, Data: game.ActionData{Answer: "wave"}})
		require.NoError(t, err)
		require.True(t, out.Valid)
	}
	out, err := s.AdvancePhase("WORD")
	require.NoError(t, err)
	ann, _ := out.Room.Player("c-Ann")
	require.Equal(t, 100, ann.Score)

	require.True(t, m.HandleDisconnection("WORD", "c-Ann"))
	res, err := m.HandlePlayerJoin("WORD", "c-ann-2", "Ann", "")
	require.NoError(t, err)

	assert.True(t, res.Reconnected)
	assert.Equal(t, "c-Ann", res.OldID)
	require.Len(t, res.Room.Players, 3, "reconnecting does not add a seat")

	last := res.Room.Players[2]
	assert.Equal(t, "c-ann-2", last.ID, "rejoining player goes to the end of the roster")
	assert.Equal(t, "Ann", last.Name)
	assert.Equal(t, 100, last.Score)
	assert.Equal(t, "c-ann-2", res.Room.HostID)

	for _, p := range res.Room.State.Roster() {
		if p.ID == "c-ann-2" {
			assert.Equal(t, 100, p.Score, "engine roster keeps the score")
		}
	}
	assert.Equal(t, game.PhaseScoring, res.Room.Phase, "game progress survives the reconnect")
}

func TestHandleConnection(t *testing.T) {
	s := newTestStore(t)
	m := NewConnectionManager(s)

	_, err := m.HandleConnection("NOPE", "c-1")
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
	assert.False(t, s.HasRoom("NOPE"), "connecting never creates rooms")

	_, err = s.CreateRoom("AB12", game.TypeBluffTrivia)
	require.NoError(t, err)
	joinAll(t, m, "AB12", "Ann", "Bob", "Cat")

	t.Run("nobody dropped", func(t *testing.T) {
		res, err := m.HandleConnection("AB12", "c-new")
		require.NoError(t, err)
		assert.False(t, res.Reconnected)
		assert.Len(t, res.Room.Players, 3)
	})

	t.Run("host is taken over first", func(t *testing.T) {
		require.True(t, m.HandleDisconnection("AB12", "c-Bob"))
		require.True(t, m.HandleDisconnection("AB12", "c-Ann"))

		res, err := m.HandleConnection("AB12", "c-host-2")
		require.NoError(t, err)
		assert.True(t, res.Reconnected)
		assert.Equal(t, "c-Ann", res.OldID)
		assert.Equal(t, "c-host-2", res.Room.HostID)
	})

	t.Run("then any dropped player", func(t *testing.T) {
		res, err := m.HandleConnection("AB12", "c-bob-2")
		require.NoError(t, err)
		assert.True(t, res.Reconnected)
		assert.Equal(t, "c-Bob", res.OldID)
		p, _ := res.Room.Player("c-bob-2")
		assert.Equal(t, "Bob", p.Name)
	})
}

func TestHandleDisconnection(t *testing.T) {
	s := newTestStore(t)
	m := NewConnectionManager(s)
	_, err := s.CreateRoom("AB12", game.TypeBluffTrivia)
	require.NoError(t, err)
	joinAll(t, m, "AB12", "Ann")

	assert.False(t, m.HandleDisconnection("NOPE", "c-Ann"))
	assert.False(t, m.HandleDisconnection("AB12", "c-ghost"))
	assert.True(t, m.HandleDisconnection("AB12", "c-Ann"))

	room, err := s.GetRoom("AB12")
	require.NoError(t, err)
	require.Len(t, room.Players, 1, "disconnecting keeps the seat")
	assert.False(t, room.Players[0].Connected)
}
