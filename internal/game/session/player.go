// Package session provides the online-player registry: one mutable Player
// record per live connection identity.
package session

import (
	"errors"
	"sync"
)

// ErrGone is returned when mutating the membership of a player record that
// has already been deregistered. A stale record can still be read and
// cleaned up, but it must never gain a new lobby or game membership.
var ErrGone = errors.New("player disconnected")

// ClientID is the server-assigned identity of one live client connection.
// IDs are unique for the lifetime of the process and never reused while a
// session is active.
type ClientID uint32

// Player is the mutable record for one connected client. Lobby and game
// membership are mutually exclusive; both may be unset.
//
// All membership accessors are safe for concurrent use. Reads of both
// memberships through Memberships are consistent snapshots.
type Player struct {
	id   ClientID
	name string

	mu      sync.Mutex
	lobbyID uint32
	inLobby bool
	gameID  uint32
	inGame  bool
	gone    bool
}

// NewPlayer creates a Player record with no memberships.
//
// Precondition: name must be non-empty.
func NewPlayer(id ClientID, name string) *Player {
	return &Player{id: id, name: name}
}

// ID returns the connection identity.
func (p *Player) ID() ClientID { return p.id }

// Name returns the display name chosen at connect time.
func (p *Player) Name() string { return p.name }

// Lobby returns the player's lobby membership, if set.
func (p *Player) Lobby() (uint32, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lobbyID, p.inLobby
}

// Game returns the player's game membership, if set.
func (p *Player) Game() (uint32, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gameID, p.inGame
}

// Memberships returns both memberships as one consistent snapshot. The
// disconnect path uses this to decide which aggregates to cascade into.
func (p *Player) Memberships() (lobbyID uint32, inLobby bool, gameID uint32, inGame bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lobbyID, p.inLobby, p.gameID, p.inGame
}

// Free reports whether the player has neither a lobby nor a game membership.
func (p *Player) Free() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.inLobby && !p.inGame
}

// Gone reports whether the record has been invalidated by deregistration.
func (p *Player) Gone() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gone
}

// markGone invalidates the record. Set once by Registry.Deregister; the
// disconnect cascade reads memberships afterwards, so any mutation that
// completed before the mark is visible to the cascade, and any attempted
// after it fails with ErrGone.
func (p *Player) markGone() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gone = true
}

// SetLobby records lobby membership.
//
// Precondition: the player must not already be in a lobby or game.
// Postcondition: Returns nil, or ErrGone if the record was deregistered.
func (p *Player) SetLobby(id uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gone {
		return ErrGone
	}
	p.lobbyID = id
	p.inLobby = true
	return nil
}

// ClearLobby removes lobby membership.
func (p *Player) ClearLobby() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inLobby = false
	p.lobbyID = 0
}

// SetGame records game membership, clearing any lobby membership in the same
// step so the two are never observed set together.
//
// Postcondition: Returns nil, or ErrGone if the record was deregistered.
func (p *Player) SetGame(id uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gone {
		return ErrGone
	}
	p.inLobby = false
	p.lobbyID = 0
	p.gameID = id
	p.inGame = true
	return nil
}

// ClearGame removes game membership.
func (p *Player) ClearGame() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inGame = false
	p.gameID = 0
}
