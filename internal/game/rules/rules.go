package rules

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/cory-johannsen/tilegame/internal/game/session"
)

var (
	// ErrWrongTurn indicates a play attempted out of turn.
	ErrWrongTurn = fmt.Errorf("not the player's turn")
	// ErrInvalidCard indicates a hand index that does not name a held card.
	ErrInvalidCard = fmt.Errorf("invalid card index")
	// ErrOutOfBounds indicates a placement outside the board.
	ErrOutOfBounds = fmt.Errorf("placement out of bounds")
	// ErrNotParticipant indicates a player that is not seated in the game.
	ErrNotParticipant = fmt.Errorf("player is not a participant")
	// ErrInsufficientCards indicates a deck too small to deal opening hands.
	ErrInsufficientCards = fmt.Errorf("deck has too few cards for the opening deal")
)

// Engine deals games from a deck definition. It is safe for concurrent use;
// each dealt Game guards its own state independently.
type Engine struct {
	def       DeckDefinition
	boardSize int
	handSize  int

	mu  sync.Mutex
	rng *rand.Rand
}

// Option adjusts an Engine at construction time.
type Option func(*Engine)

// WithSeed fixes the shuffle seed. Used by tests.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// NewEngine builds an engine for the given deck and dimensions.
//
// Precondition: def has passed Validate; boardSize and handSize are positive.
func NewEngine(def DeckDefinition, boardSize, handSize int, opts ...Option) *Engine {
	e := &Engine{
		def:       def,
		boardSize: boardSize,
		handSize:  handSize,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StartGame shuffles a fresh deck, deals each player an opening hand, and
// seats the players in the given order. The first player listed leads.
//
// Postcondition: every seat holds exactly the engine's hand size in cards.
func (e *Engine) StartGame(players []session.ClientID) (*Game, error) {
	if len(players) == 0 {
		return nil, fmt.Errorf("starting game: no players")
	}
	deck := e.def.expand()
	if len(deck) < len(players)*e.handSize {
		return nil, fmt.Errorf("starting game for %d players: %w", len(players), ErrInsufficientCards)
	}

	e.mu.Lock()
	e.rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	e.mu.Unlock()

	g := &Game{
		board:    newBoard(e.boardSize),
		handSize: e.handSize,
	}
	for _, id := range players {
		hand := make([]Symbol, e.handSize)
		copy(hand, deck[:e.handSize])
		deck = deck[e.handSize:]
		g.seats = append(g.seats, &seat{id: id, hand: hand})
	}
	g.deck = deck
	return g, nil
}

type seat struct {
	id   session.ClientID
	hand []Symbol
}

// Game is one dealt game in progress. All methods are safe for concurrent
// use.
type Game struct {
	mu       sync.Mutex
	board    *Board
	seats    []*seat
	deck     []Symbol
	turn     int
	handSize int
}

// Participants returns the seated players in turn order, starting from the
// leader of the opening deal.
func (g *Game) Participants() []session.ClientID {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]session.ClientID, len(g.seats))
	for i, s := range g.seats {
		ids[i] = s.id
	}
	return ids
}

// PlayerInTurn returns the player whose move it is.
//
// Precondition: the game has at least one participant.
func (g *Game) PlayerInTurn() session.ClientID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seats[g.turn].id
}

// Hand returns a copy of the player's current hand.
func (g *Game) Hand(id session.ClientID) ([]Symbol, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.seat(id)
	if s == nil {
		return nil, fmt.Errorf("reading hand for client %d: %w", id, ErrNotParticipant)
	}
	hand := make([]Symbol, len(s.hand))
	copy(hand, s.hand)
	return hand, nil
}

// Place validates and applies one move: the player in turn plays the card at
// cardIndex onto (x, y). Checks run in a fixed order so a request failing
// several ways reports the same failure every time: participation, turn,
// card index, bounds. The card is only consumed once every check has passed.
//
// Postcondition: on success the turn has advanced and the hand has been
// refilled from the deck while cards remain.
func (g *Game) Place(id session.ClientID, cardIndex, x, y int) (Tile, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.seat(id)
	if s == nil {
		return Tile{}, fmt.Errorf("placing tile for client %d: %w", id, ErrNotParticipant)
	}
	if g.seats[g.turn].id != id {
		return Tile{}, fmt.Errorf("placing tile for client %d: %w", id, ErrWrongTurn)
	}
	if cardIndex < 0 || cardIndex >= len(s.hand) {
		return Tile{}, fmt.Errorf("placing card %d for client %d: %w", cardIndex, id, ErrInvalidCard)
	}
	if !g.board.InBounds(x, y) {
		return Tile{}, fmt.Errorf("placing tile at (%d, %d): %w", x, y, ErrOutOfBounds)
	}

	tile := Tile{Symbol: s.hand[cardIndex], Owner: id}
	g.board.set(x, y, tile)

	// Replace the played card from the deck, or shrink the hand once the
	// deck runs dry.
	if len(g.deck) > 0 {
		s.hand[cardIndex] = g.deck[0]
		g.deck = g.deck[1:]
	} else {
		s.hand = append(s.hand[:cardIndex], s.hand[cardIndex+1:]...)
	}

	g.turn = (g.turn + 1) % len(g.seats)
	return tile, nil
}

// TileAt returns the tile at (x, y), or nil for an empty cell.
func (g *Game) TileAt(x, y int) (*Tile, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.board.InBounds(x, y) {
		return nil, fmt.Errorf("reading tile at (%d, %d): %w", x, y, ErrOutOfBounds)
	}
	return g.board.At(x, y), nil
}

// BoardSize returns the side length of the game's board.
func (g *Game) BoardSize() int {
	return g.board.Size()
}

// RemoveParticipant unseats a player mid-game and returns the number of
// participants left. Turn order closes over the gap: if the departing
// player was in turn, the move passes to the next seat.
func (g *Game) RemoveParticipant(id session.ClientID) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	idx := -1
	for i, s := range g.seats {
		if s.id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return len(g.seats), fmt.Errorf("removing client %d: %w", id, ErrNotParticipant)
	}

	g.seats = append(g.seats[:idx], g.seats[idx+1:]...)
	if idx < g.turn {
		g.turn--
	}
	if len(g.seats) > 0 && g.turn >= len(g.seats) {
		g.turn = 0
	}
	return len(g.seats), nil
}

// seat returns the seat for id, or nil. Caller holds g.mu.
func (g *Game) seat(id session.ClientID) *seat {
	for _, s := range g.seats {
		if s.id == id {
			return s
		}
	}
	return nil
}
