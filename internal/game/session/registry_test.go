package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	p, err := r.Register(0, "alice")
	require.NoError(t, err)
	assert.Equal(t, ClientID(0), p.ID())
	assert.Equal(t, "alice", p.Name())
	assert.Equal(t, 1, r.Count())
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	original, err := r.Register(0, "alice")
	require.NoError(t, err)

	_, err = r.Register(0, "impostor")
	assert.ErrorIs(t, err, ErrAlreadyConnected)

	// The original record is untouched.
	p, err := r.Lookup(0)
	require.NoError(t, err)
	assert.Same(t, original, p)
	assert.Equal(t, "alice", p.Name())
}

func TestRegistry_LookupMissing(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup(42)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestRegistry_Deregister(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(0, "alice")
	require.NoError(t, err)

	p, err := r.Deregister(0)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Name())
	assert.Equal(t, 0, r.Count())

	_, err = r.Lookup(0)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestRegistry_DeregisterTombstonesRecord(t *testing.T) {
	r := NewRegistry()
	p, err := r.Register(0, "alice")
	require.NoError(t, err)
	assert.False(t, p.Gone())

	_, err = r.Deregister(0)
	require.NoError(t, err)

	// A stale pointer from an earlier Lookup must not regain membership.
	assert.True(t, p.Gone())
	assert.ErrorIs(t, p.SetLobby(7), ErrGone)
	assert.ErrorIs(t, p.SetGame(9), ErrGone)
	assert.True(t, p.Free())
}

func TestRegistry_DeregisterMissing(t *testing.T) {
	r := NewRegistry()
	_, err := r.Deregister(0)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestRegistry_DeregisterReturnsMemberships(t *testing.T) {
	r := NewRegistry()
	p, err := r.Register(0, "alice")
	require.NoError(t, err)
	p.SetLobby(7)

	removed, err := r.Deregister(0)
	require.NoError(t, err)
	lobbyID, inLobby, _, inGame := removed.Memberships()
	assert.True(t, inLobby)
	assert.Equal(t, uint32(7), lobbyID)
	assert.False(t, inGame)
}

func TestPlayer_GameClearsLobby(t *testing.T) {
	p := NewPlayer(0, "alice")
	p.SetLobby(3)
	p.SetGame(9)

	_, inLobby := p.Lobby()
	gameID, inGame := p.Game()
	assert.False(t, inLobby)
	assert.True(t, inGame)
	assert.Equal(t, uint32(9), gameID)
}

func TestRegistry_ConcurrentRegisterSameID(t *testing.T) {
	r := NewRegistry()

	const attempts = 32
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Register(1, "racer")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyConnected)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent register must win")
	assert.Equal(t, 1, r.Count())
}

// Property: after any sequence of register/deregister operations, Count
// matches the set of identities currently registered, and lobby/game
// membership on a player are never both set.
func TestPropertyRegistryStateMachine(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := NewRegistry()
		live := make(map[ClientID]bool)

		steps := rapid.IntRange(1, 100).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			id := ClientID(rapid.Uint32Range(0, 7).Draw(t, "id"))
			switch rapid.IntRange(0, 4).Draw(t, "op") {
			case 0, 1:
				_, err := r.Register(id, "p")
				if live[id] && err == nil {
					t.Fatalf("duplicate register of %d accepted", id)
				}
				if !live[id] && err != nil {
					t.Fatalf("fresh register of %d rejected: %v", id, err)
				}
				live[id] = true
			case 2:
				_, err := r.Deregister(id)
				if live[id] && err != nil {
					t.Fatalf("deregister of live %d failed: %v", id, err)
				}
				if !live[id] && err == nil {
					t.Fatalf("deregister of missing %d succeeded", id)
				}
				delete(live, id)
			case 3:
				p, err := r.Lookup(id)
				if live[id] != (err == nil) {
					t.Fatalf("lookup of %d: live=%v err=%v", id, live[id], err)
				}
				if err == nil {
					p.SetLobby(uint32(rapid.Uint32Range(0, 3).Draw(t, "lobby")))
				}
			case 4:
				p, err := r.Lookup(id)
				if err == nil {
					p.SetGame(uint32(rapid.Uint32Range(0, 3).Draw(t, "game")))
				}
			}
		}

		if r.Count() != len(live) {
			t.Fatalf("count %d != expected %d", r.Count(), len(live))
		}
		for id := range live {
			p, err := r.Lookup(id)
			if err != nil {
				t.Fatalf("live id %d missing: %v", id, err)
			}
			_, inLobby := p.Lobby()
			_, inGame := p.Game()
			if inLobby && inGame {
				t.Fatalf("player %d in lobby and game simultaneously", id)
			}
		}
	})
}
