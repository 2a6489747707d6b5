package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/tilegame/internal/game/session"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(DefaultDeck(), 26, 5, WithSeed(1))
}

func startTwoPlayerGame(t *testing.T) *Game {
	t.Helper()
	g, err := testEngine(t).StartGame([]session.ClientID{1, 2})
	require.NoError(t, err)
	return g
}

func TestEngine_StartGame(t *testing.T) {
	g := startTwoPlayerGame(t)

	assert.Equal(t, []session.ClientID{1, 2}, g.Participants())
	assert.Equal(t, session.ClientID(1), g.PlayerInTurn())
	assert.Equal(t, 26, g.BoardSize())

	for _, id := range []session.ClientID{1, 2} {
		hand, err := g.Hand(id)
		require.NoError(t, err)
		assert.Len(t, hand, 5)
	}
}

func TestEngine_StartGame_NoPlayers(t *testing.T) {
	_, err := testEngine(t).StartGame(nil)
	assert.Error(t, err)
}

func TestEngine_StartGame_DeckTooSmall(t *testing.T) {
	def := DeckDefinition{Symbols: []DeckEntry{{Symbol: "A", Count: 3}}}
	e := NewEngine(def, 26, 5, WithSeed(1))

	_, err := e.StartGame([]session.ClientID{1, 2})
	assert.ErrorIs(t, err, ErrInsufficientCards)
}

func TestGame_Place(t *testing.T) {
	g := startTwoPlayerGame(t)
	hand, err := g.Hand(1)
	require.NoError(t, err)

	tile, err := g.Place(1, 0, 3, 7)
	require.NoError(t, err)
	assert.Equal(t, hand[0], tile.Symbol)
	assert.Equal(t, session.ClientID(1), tile.Owner)

	placed, err := g.TileAt(3, 7)
	require.NoError(t, err)
	require.NotNil(t, placed)
	assert.Equal(t, tile, *placed)

	// Turn passed and the hand was refilled.
	assert.Equal(t, session.ClientID(2), g.PlayerInTurn())
	refilled, err := g.Hand(1)
	require.NoError(t, err)
	assert.Len(t, refilled, 5)
}

func TestGame_Place_WrongTurn(t *testing.T) {
	g := startTwoPlayerGame(t)

	_, err := g.Place(2, 0, 0, 0)
	assert.ErrorIs(t, err, ErrWrongTurn)
	assert.Equal(t, session.ClientID(1), g.PlayerInTurn())
}

func TestGame_Place_NotParticipant(t *testing.T) {
	g := startTwoPlayerGame(t)

	_, err := g.Place(99, 0, 0, 0)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestGame_Place_InvalidCard(t *testing.T) {
	g := startTwoPlayerGame(t)

	for _, idx := range []int{-1, 5, 100} {
		_, err := g.Place(1, idx, 0, 0)
		assert.ErrorIs(t, err, ErrInvalidCard)
	}
	// Failed plays consume neither the card nor the turn.
	assert.Equal(t, session.ClientID(1), g.PlayerInTurn())
}

func TestGame_Place_OutOfBounds(t *testing.T) {
	g := startTwoPlayerGame(t)

	tests := []struct{ x, y int }{
		{27, 0},
		{0, 27},
		{26, 0},
		{0, 26},
		{-1, 0},
		{0, -1},
	}
	for _, tt := range tests {
		_, err := g.Place(1, 0, tt.x, tt.y)
		assert.ErrorIs(t, err, ErrOutOfBounds, "(%d, %d)", tt.x, tt.y)
	}
	assert.Equal(t, session.ClientID(1), g.PlayerInTurn())
}

func TestGame_Place_OverwritesOccupiedCell(t *testing.T) {
	g := startTwoPlayerGame(t)

	_, err := g.Place(1, 0, 4, 4)
	require.NoError(t, err)
	second, err := g.Place(2, 0, 4, 4)
	require.NoError(t, err)

	placed, err := g.TileAt(4, 4)
	require.NoError(t, err)
	require.NotNil(t, placed)
	assert.Equal(t, second, *placed)
}

func TestGame_TileAt_OutOfBounds(t *testing.T) {
	g := startTwoPlayerGame(t)

	_, err := g.TileAt(26, 26)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestGame_RemoveParticipant(t *testing.T) {
	e := testEngine(t)
	g, err := e.StartGame([]session.ClientID{1, 2, 3})
	require.NoError(t, err)

	remaining, err := g.RemoveParticipant(2)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
	assert.Equal(t, []session.ClientID{1, 3}, g.Participants())

	_, err = g.Hand(2)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestGame_RemoveParticipant_InTurn(t *testing.T) {
	e := testEngine(t)
	g, err := e.StartGame([]session.ClientID{1, 2, 3})
	require.NoError(t, err)

	// Advance to player 3's turn, then drop them.
	_, err = g.Place(1, 0, 0, 0)
	require.NoError(t, err)
	_, err = g.Place(2, 0, 1, 0)
	require.NoError(t, err)
	require.Equal(t, session.ClientID(3), g.PlayerInTurn())

	remaining, err := g.RemoveParticipant(3)
	require.NoError(t, err)
	assert.Equal(t, 2, remaining)
	assert.Equal(t, session.ClientID(1), g.PlayerInTurn())
}

func TestGame_RemoveParticipant_Unknown(t *testing.T) {
	g := startTwoPlayerGame(t)

	remaining, err := g.RemoveParticipant(42)
	assert.ErrorIs(t, err, ErrNotParticipant)
	assert.Equal(t, 2, remaining)
}

func TestGame_Place_DeckExhaustionShrinksHands(t *testing.T) {
	def := DeckDefinition{Symbols: []DeckEntry{{Symbol: "A", Count: 4}}}
	e := NewEngine(def, 4, 2, WithSeed(1))
	g, err := e.StartGame([]session.ClientID{1, 2})
	require.NoError(t, err)

	// The opening deal consumed the whole deck, so each play shrinks the hand.
	_, err = g.Place(1, 0, 0, 0)
	require.NoError(t, err)
	hand, err := g.Hand(1)
	require.NoError(t, err)
	assert.Len(t, hand, 1)

	_, err = g.Place(2, 0, 1, 0)
	require.NoError(t, err)
	_, err = g.Place(1, 0, 2, 0)
	require.NoError(t, err)

	hand, err = g.Hand(1)
	require.NoError(t, err)
	assert.Empty(t, hand)

	_, err = g.Place(2, 0, 3, 0)
	require.NoError(t, err)
	_, err = g.Place(1, 0, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidCard)
}

func TestGame_TurnRotation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		playerCount := rapid.IntRange(2, 4).Draw(t, "players")
		moves := rapid.IntRange(1, 20).Draw(t, "moves")

		players := make([]session.ClientID, playerCount)
		for i := range players {
			players[i] = session.ClientID(i + 1)
		}
		g, err := NewEngine(DefaultDeck(), 26, 5, WithSeed(1)).StartGame(players)
		if err != nil {
			t.Fatalf("starting game: %v", err)
		}

		for i := 0; i < moves; i++ {
			want := players[i%playerCount]
			if got := g.PlayerInTurn(); got != want {
				t.Fatalf("move %d: player in turn is %d, want %d", i, got, want)
			}
			if _, err := g.Place(want, 0, i%26, i/26); err != nil {
				t.Fatalf("move %d: %v", i, err)
			}
		}
	})
}
