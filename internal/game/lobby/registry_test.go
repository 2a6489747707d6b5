package lobby

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/tilegame/internal/game/session"
)

func TestRegistry_CreateAssignsFreshIDs(t *testing.T) {
	r := NewRegistry(4)
	first := r.Create()
	second := r.Create()
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, 2, r.Count())
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry(4)
	l := r.Create()

	got, err := r.Get(l.ID())
	require.NoError(t, err)
	assert.Same(t, l, got)
}

func TestRegistry_GetMissing(t *testing.T) {
	r := NewRegistry(4)
	_, err := r.Get(99)
	assert.ErrorIs(t, err, ErrLobbyNotFound)
}

func TestRegistry_DestroyIfEmpty(t *testing.T) {
	r := NewRegistry(4)
	l := r.Create()

	assert.True(t, r.DestroyIfEmpty(l.ID()))
	_, err := r.Get(l.ID())
	assert.ErrorIs(t, err, ErrLobbyNotFound)

	// A handle obtained before destruction cannot be rejoined.
	err = l.AddMember(session.NewPlayer(0, "alice"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRegistry_DestroyIfEmpty_SkipsOccupied(t *testing.T) {
	r := NewRegistry(4)
	l := r.Create()
	require.NoError(t, l.AddMember(session.NewPlayer(0, "alice")))

	assert.False(t, r.DestroyIfEmpty(l.ID()))
	_, err := r.Get(l.ID())
	assert.NoError(t, err)
}

func TestRegistry_Remove(t *testing.T) {
	r := NewRegistry(4)
	l := r.Create()
	r.Remove(l.ID())
	_, err := r.Get(l.ID())
	assert.ErrorIs(t, err, ErrLobbyNotFound)
}
