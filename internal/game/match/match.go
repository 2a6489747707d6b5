// Package match tracks games in progress and drives the lobby-to-game
// transition. It owns the lifetime of a game: creation from a ready lobby,
// participant departure, and retirement once too few players remain.
package match

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tilegame/internal/game/lobby"
	"github.com/cory-johannsen/tilegame/internal/game/rules"
	"github.com/cory-johannsen/tilegame/internal/game/session"
)

var (
	// ErrGameNotFound indicates a game ID with no live game behind it.
	ErrGameNotFound = fmt.Errorf("game not found")
)

// minimum number of seated players below which a game cannot continue.
const minViableParticipants = 2

// Dealer deals a fresh game state for a set of players.
type Dealer interface {
	StartGame(players []session.ClientID) (*rules.Game, error)
}

// Game is one running game.
type Game struct {
	id    uint32
	state *rules.Game
}

// ID returns the game's identifier.
func (g *Game) ID() uint32 { return g.id }

// State returns the game's rules state.
func (g *Game) State() *rules.Game { return g.state }

// Registry tracks all games in progress.
type Registry struct {
	dealer     Dealer
	lobbies    *lobby.Registry
	sessions   *session.Registry
	minPlayers int
	logger     *zap.Logger

	mu     sync.RWMutex
	games  map[uint32]*Game
	nextID uint32
}

// NewRegistry builds an empty game registry. Games started through it
// require at least minPlayers lobby members.
func NewRegistry(dealer Dealer, lobbies *lobby.Registry, sessions *session.Registry, minPlayers int, logger *zap.Logger) *Registry {
	return &Registry{
		dealer:     dealer,
		lobbies:    lobbies,
		sessions:   sessions,
		minPlayers: minPlayers,
		logger:     logger,
		games:      make(map[uint32]*Game),
	}
}

// Start promotes a lobby into a running game. The lobby must hold at least
// the registry's minimum player count, all of them ready. On success the
// lobby is closed and destroyed, every member's record points at the new
// game, and the game is dealt with the members seated in join order.
//
// Postcondition: on any error the lobby and its members are untouched.
func (r *Registry) Start(l *lobby.Lobby) (*Game, error) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.mu.Unlock()

	members, err := l.CloseForStart(r.minPlayers, id)
	if err != nil {
		return nil, fmt.Errorf("starting game from lobby %d: %w", l.ID(), err)
	}

	players := make([]session.ClientID, len(members))
	for i, m := range members {
		players[i] = m.ID
	}

	state, err := r.dealer.StartGame(players)
	if err != nil {
		// The lobby is already closed, so release the members outright
		// rather than trying to resurrect it.
		for _, pid := range players {
			if p, lookupErr := r.sessions.Lookup(pid); lookupErr == nil {
				p.ClearGame()
			}
		}
		r.lobbies.Remove(l.ID())
		return nil, fmt.Errorf("dealing game %d: %w", id, err)
	}

	g := &Game{id: id, state: state}
	r.mu.Lock()
	r.games[id] = g
	r.mu.Unlock()
	r.lobbies.Remove(l.ID())

	r.logger.Info("game started",
		zap.Uint32("game_id", id),
		zap.Uint32("lobby_id", l.ID()),
		zap.Int("players", len(players)))
	return g, nil
}

// Get returns the running game with the given ID.
func (r *Registry) Get(id uint32) (*Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.games[id]
	if !ok {
		return nil, fmt.Errorf("looking up game %d: %w", id, ErrGameNotFound)
	}
	return g, nil
}

// RemoveParticipant drops a player from a running game. Play continues for
// the rest until fewer than two participants remain, at which point the game
// is retired and the survivors' records are released.
//
// The departing player's own record is the caller's concern: on disconnect
// it is already gone, on any other path the caller clears it.
func (r *Registry) RemoveParticipant(gameID uint32, id session.ClientID) (retired bool, err error) {
	g, err := r.Get(gameID)
	if err != nil {
		return false, err
	}

	remaining, err := g.state.RemoveParticipant(id)
	if err != nil {
		return false, fmt.Errorf("removing client %d from game %d: %w", id, gameID, err)
	}
	if remaining >= minViableParticipants {
		return false, nil
	}

	r.mu.Lock()
	delete(r.games, gameID)
	r.mu.Unlock()

	for _, pid := range g.state.Participants() {
		if p, lookupErr := r.sessions.Lookup(pid); lookupErr == nil {
			p.ClearGame()
		}
	}
	r.logger.Info("game retired",
		zap.Uint32("game_id", gameID),
		zap.Int("remaining", remaining))
	return true, nil
}

// Count returns the number of games in progress.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.games)
}
