package lobby

import (
	"errors"
	"fmt"
	"sync"
)

// ErrLobbyNotFound is returned when a lobby identity is unknown.
var ErrLobbyNotFound = errors.New("lobby not found")

// Registry creates, looks up, and destroys lobbies. The registry lock only
// protects the identity map; lobby mutation is serialized per instance.
type Registry struct {
	capacity int

	mu      sync.Mutex
	lobbies map[uint32]*Lobby
	nextID  uint32
}

// NewRegistry creates an empty lobby Registry whose lobbies hold at most
// capacity members.
//
// Precondition: capacity >= 2.
func NewRegistry(capacity int) *Registry {
	return &Registry{
		capacity: capacity,
		lobbies:  make(map[uint32]*Lobby),
	}
}

// Create allocates a lobby with a fresh identity and an empty member list.
func (r *Registry) Create() *Lobby {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	l := newLobby(id, r.capacity)
	r.lobbies[id] = l
	return l
}

// Get returns the lobby with the given identity.
//
// Postcondition: Returns the Lobby, or ErrLobbyNotFound.
func (r *Registry) Get(id uint32) (*Lobby, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[id]
	if !ok {
		return nil, fmt.Errorf("lobby %d: %w", id, ErrLobbyNotFound)
	}
	return l, nil
}

// DestroyIfEmpty removes the lobby from the registry if it has no members,
// closing it so concurrent joins fail cleanly.
//
// Postcondition: Returns true if the lobby was destroyed.
func (r *Registry) DestroyIfEmpty(id uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.lobbies[id]
	if !ok {
		return false
	}
	if !l.closeIfEmpty() {
		return false
	}
	delete(r.lobbies, id)
	return true
}

// Remove deletes the lobby from the registry unconditionally. Used when a
// lobby transitions into a game and is retired.
func (r *Registry) Remove(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lobbies, id)
}

// Count returns the number of live lobbies.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lobbies)
}
