package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/tilegame/internal/game/lobby"
	"github.com/cory-johannsen/tilegame/internal/game/rules"
	"github.com/cory-johannsen/tilegame/internal/game/session"
)

type fixture struct {
	sessions *session.Registry
	lobbies  *lobby.Registry
	matches  *Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sessions := session.NewRegistry()
	lobbies := lobby.NewRegistry(4)
	dealer := rules.NewEngine(rules.DefaultDeck(), 26, 5, rules.WithSeed(1))
	return &fixture{
		sessions: sessions,
		lobbies:  lobbies,
		matches:  NewRegistry(dealer, lobbies, sessions, 2, zaptest.NewLogger(t)),
	}
}

// readyLobby registers count players, seats them all in a fresh lobby, and
// marks every one ready.
func (f *fixture) readyLobby(t *testing.T, count int) *lobby.Lobby {
	t.Helper()
	l := f.lobbies.Create()
	for i := 1; i <= count; i++ {
		p, err := f.sessions.Register(session.ClientID(i), "player")
		require.NoError(t, err)
		require.NoError(t, l.AddMember(p))
		require.NoError(t, l.SetReady(p.ID(), true))
	}
	return l
}

func TestRegistry_Start(t *testing.T) {
	f := newFixture(t)
	l := f.readyLobby(t, 3)

	g, err := f.matches.Start(l)
	require.NoError(t, err)
	assert.Equal(t, 1, f.matches.Count())
	assert.Equal(t, []session.ClientID{1, 2, 3}, g.State().Participants())

	// The lobby is gone and every member's record points at the game.
	_, err = f.lobbies.Get(l.ID())
	assert.ErrorIs(t, err, lobby.ErrLobbyNotFound)
	for i := 1; i <= 3; i++ {
		p, err := f.sessions.Lookup(session.ClientID(i))
		require.NoError(t, err)
		gameID, inGame := p.Game()
		assert.True(t, inGame)
		assert.Equal(t, g.ID(), gameID)
		_, inLobby := p.Lobby()
		assert.False(t, inLobby)
	}

	got, err := f.matches.Get(g.ID())
	require.NoError(t, err)
	assert.Same(t, g, got)
}

func TestRegistry_Start_NotAllReady(t *testing.T) {
	f := newFixture(t)
	l := f.readyLobby(t, 2)
	require.NoError(t, l.SetReady(2, false))

	_, err := f.matches.Start(l)
	assert.ErrorIs(t, err, lobby.ErrNotAllReady)
	assert.Zero(t, f.matches.Count())

	// The lobby survives a failed start untouched.
	got, err := f.lobbies.Get(l.ID())
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
	p, err := f.sessions.Lookup(1)
	require.NoError(t, err)
	_, inLobby := p.Lobby()
	assert.True(t, inLobby)
}

func TestRegistry_Start_InsufficientPlayers(t *testing.T) {
	f := newFixture(t)
	l := f.readyLobby(t, 1)

	_, err := f.matches.Start(l)
	assert.ErrorIs(t, err, lobby.ErrInsufficientPlayers)
	assert.Zero(t, f.matches.Count())
}

func TestRegistry_Get_Missing(t *testing.T) {
	f := newFixture(t)

	_, err := f.matches.Get(99)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestRegistry_RemoveParticipant_GameContinues(t *testing.T) {
	f := newFixture(t)
	g, err := f.matches.Start(f.readyLobby(t, 3))
	require.NoError(t, err)

	retired, err := f.matches.RemoveParticipant(g.ID(), 2)
	require.NoError(t, err)
	assert.False(t, retired)
	assert.Equal(t, 1, f.matches.Count())
	assert.Equal(t, []session.ClientID{1, 3}, g.State().Participants())
}

func TestRegistry_RemoveParticipant_Retires(t *testing.T) {
	f := newFixture(t)
	g, err := f.matches.Start(f.readyLobby(t, 2))
	require.NoError(t, err)

	retired, err := f.matches.RemoveParticipant(g.ID(), 1)
	require.NoError(t, err)
	assert.True(t, retired)
	assert.Zero(t, f.matches.Count())
	_, err = f.matches.Get(g.ID())
	assert.ErrorIs(t, err, ErrGameNotFound)

	// The survivor is free to join another lobby.
	p, err := f.sessions.Lookup(2)
	require.NoError(t, err)
	assert.True(t, p.Free())
}

func TestRegistry_RemoveParticipant_UnknownGame(t *testing.T) {
	f := newFixture(t)

	_, err := f.matches.RemoveParticipant(7, 1)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestRegistry_RemoveParticipant_NotSeated(t *testing.T) {
	f := newFixture(t)
	g, err := f.matches.Start(f.readyLobby(t, 2))
	require.NoError(t, err)

	_, err = f.matches.RemoveParticipant(g.ID(), 42)
	assert.ErrorIs(t, err, rules.ErrNotParticipant)
	assert.Equal(t, 1, f.matches.Count())
}

func TestRegistry_Start_FreshIDs(t *testing.T) {
	f := newFixture(t)

	first, err := f.matches.Start(f.readyLobby(t, 2))
	require.NoError(t, err)

	l := f.lobbies.Create()
	for i := 10; i <= 11; i++ {
		p, err := f.sessions.Register(session.ClientID(i), "player")
		require.NoError(t, err)
		require.NoError(t, l.AddMember(p))
		require.NoError(t, l.SetReady(p.ID(), true))
	}
	second, err := f.matches.Start(l)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID(), second.ID())
}
