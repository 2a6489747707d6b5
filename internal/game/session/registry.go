package session

import (
	"errors"
	"fmt"
	"sync"
)

// ErrAlreadyConnected is returned when registering an identity that already
// has a live Player record.
var ErrAlreadyConnected = errors.New("client already connected")

// ErrPlayerNotFound is returned when an identity has no Player record.
var ErrPlayerNotFound = errors.New("player not found")

// Registry tracks all online players keyed by connection identity.
// All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	players map[ClientID]*Player
}

// NewRegistry creates an empty player Registry.
func NewRegistry() *Registry {
	return &Registry{players: make(map[ClientID]*Player)}
}

// Register creates a Player record for the given identity.
//
// Precondition: name must be non-empty.
// Postcondition: Returns the created Player, or ErrAlreadyConnected if the
// identity is already registered; the existing record is left untouched.
func (r *Registry) Register(id ClientID, name string) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.players[id]; exists {
		return nil, fmt.Errorf("registering client %d: %w", id, ErrAlreadyConnected)
	}

	p := NewPlayer(id, name)
	r.players[id] = p
	return p, nil
}

// Lookup returns the Player record for the given identity.
//
// Postcondition: Returns the Player, or ErrPlayerNotFound.
func (r *Registry) Lookup(id ClientID) (*Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[id]
	if !ok {
		return nil, fmt.Errorf("looking up client %d: %w", id, ErrPlayerNotFound)
	}
	return p, nil
}

// Deregister removes and returns the Player record atomically so the caller
// can inspect prior lobby/game membership and cascade cleanup. The record is
// tombstoned before it is returned: a handler holding a stale pointer from an
// earlier Lookup can no longer re-admit it into a lobby or game.
//
// Postcondition: The identity is no longer registered and the record reports
// Gone; returns the removed Player, or ErrPlayerNotFound.
func (r *Registry) Deregister(id ClientID) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[id]
	if !ok {
		return nil, fmt.Errorf("deregistering client %d: %w", id, ErrPlayerNotFound)
	}
	p.markGone()
	delete(r.players, id)
	return p, nil
}

// Count returns the number of online players.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}
