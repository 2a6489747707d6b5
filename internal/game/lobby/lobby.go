// Package lobby provides pre-game waiting rooms: the Lobby aggregate and the
// registry that owns them. Each Lobby serializes its own mutation with a
// per-instance lock so unrelated lobbies never contend.
package lobby

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cory-johannsen/tilegame/internal/game/session"
)

// ErrFull is returned when a lobby is at capacity.
var ErrFull = errors.New("lobby full")

// ErrAlreadyMember is returned when the player already belongs to a lobby
// or a game.
var ErrAlreadyMember = errors.New("player already in a lobby or game")

// ErrNotMember is returned when the player is not a member of the lobby.
var ErrNotMember = errors.New("player not a lobby member")

// ErrClosed is returned when operating on a lobby that has been destroyed
// or transitioned into a game.
var ErrClosed = errors.New("lobby closed")

// ErrNotAllReady is returned when a game start is requested before every
// member is ready.
var ErrNotAllReady = errors.New("not all members ready")

// ErrInsufficientPlayers is returned when a game start is requested with
// fewer members than the configured minimum.
var ErrInsufficientPlayers = errors.New("not enough players")

// Member is a point-in-time view of one lobby member.
type Member struct {
	ID    session.ClientID
	Name  string
	Ready bool
}

// Lobby is a waiting room grouping players who intend to start a game
// together. Member order is join order. All methods are safe for
// concurrent use.
type Lobby struct {
	id       uint32
	capacity int

	mu      sync.Mutex
	members []*memberState
	closed  bool
}

type memberState struct {
	player *session.Player
	ready  bool
}

func newLobby(id uint32, capacity int) *Lobby {
	return &Lobby{id: id, capacity: capacity}
}

// ID returns the lobby identity.
func (l *Lobby) ID() uint32 { return l.id }

// Capacity returns the maximum member count.
func (l *Lobby) Capacity() int { return l.capacity }

// AddMember adds the player to the lobby and records the membership on the
// player record in the same critical section.
//
// Precondition: p must be a live registered player.
// Postcondition: Returns nil and the player is a member, or ErrFull,
// ErrAlreadyMember, ErrClosed, or session.ErrGone if the record was
// deregistered by a concurrent disconnect; on error the lobby is unchanged.
func (l *Lobby) AddMember(p *session.Player) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return fmt.Errorf("joining lobby %d: %w", l.id, ErrClosed)
	}
	if len(l.members) >= l.capacity {
		return fmt.Errorf("joining lobby %d: %w", l.id, ErrFull)
	}
	if !p.Free() {
		return fmt.Errorf("joining lobby %d: %w", l.id, ErrAlreadyMember)
	}
	if err := p.SetLobby(l.id); err != nil {
		return fmt.Errorf("joining lobby %d: %w", l.id, err)
	}

	l.members = append(l.members, &memberState{player: p})
	return nil
}

// RemoveMember removes the player from the lobby and clears the membership
// on the player record.
//
// Postcondition: Returns the remaining member count, or ErrNotMember.
func (l *Lobby) RemoveMember(p *session.Player) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, m := range l.members {
		if m.player.ID() == p.ID() {
			l.members = append(l.members[:i], l.members[i+1:]...)
			p.ClearLobby()
			return len(l.members), nil
		}
	}
	return len(l.members), fmt.Errorf("leaving lobby %d: %w", l.id, ErrNotMember)
}

// SetReady flips the readiness flag for the given member.
//
// Postcondition: Returns nil, or ErrNotMember.
func (l *Lobby) SetReady(id session.ClientID, ready bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, m := range l.members {
		if m.player.ID() == id {
			m.ready = ready
			return nil
		}
	}
	return fmt.Errorf("setting ready in lobby %d: %w", l.id, ErrNotMember)
}

// Len returns the current member count.
func (l *Lobby) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.members)
}

// Members returns a snapshot of the member list in join order.
func (l *Lobby) Members() []Member {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Lobby) snapshotLocked() []Member {
	out := make([]Member, 0, len(l.members))
	for _, m := range l.members {
		out = append(out, Member{ID: m.player.ID(), Name: m.player.Name(), Ready: m.ready})
	}
	return out
}

// CloseForStart validates that the lobby can start a game and, if so,
// atomically closes the lobby and transfers every member's record membership
// from this lobby to the given game. The lobby is unusable afterwards.
//
// Precondition: min >= 2; gameID is a fresh game identity.
// Postcondition: Returns the members handed to the game, or ErrClosed,
// ErrInsufficientPlayers, ErrNotAllReady, or session.ErrGone if a member was
// deregistered by a concurrent disconnect whose lobby eviction has not run
// yet; on error the lobby is unchanged and stays open, so the pending
// eviction can still drain the dead member.
func (l *Lobby) CloseForStart(min int, gameID uint32) ([]Member, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, fmt.Errorf("starting from lobby %d: %w", l.id, ErrClosed)
	}
	if len(l.members) < min {
		return nil, fmt.Errorf("starting from lobby %d with %d members: %w",
			l.id, len(l.members), ErrInsufficientPlayers)
	}
	for _, m := range l.members {
		if !m.ready {
			return nil, fmt.Errorf("starting from lobby %d: %w", l.id, ErrNotAllReady)
		}
		if m.player.Gone() {
			return nil, fmt.Errorf("starting from lobby %d: %w", l.id, session.ErrGone)
		}
	}

	taken := l.snapshotLocked()
	for i, m := range l.members {
		if err := m.player.SetGame(gameID); err != nil {
			// Deregistered between the check above and the transfer; undo
			// the partial transfer and leave the lobby open.
			for _, prev := range l.members[:i] {
				_ = prev.player.SetLobby(l.id)
			}
			return nil, fmt.Errorf("starting from lobby %d: %w", l.id, err)
		}
	}
	l.members = nil
	l.closed = true
	return taken, nil
}

// closeIfEmpty marks an empty lobby closed. Used by the registry's eager
// destruction so a racing join observes ErrClosed instead of resurrecting
// a destroyed lobby.
func (l *Lobby) closeIfEmpty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.members) == 0 {
		l.closed = true
		return true
	}
	return false
}
