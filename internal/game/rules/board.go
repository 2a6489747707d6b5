// Package rules owns the board-game logic consumed by the session core:
// boards, decks, hands, and turn order. The core resolves identity and
// membership; everything rule-shaped lives here.
package rules

import (
	"github.com/cory-johannsen/tilegame/internal/game/session"
)

// Symbol is one card face.
type Symbol rune

// Tile is a placed symbol and the player who placed it.
type Tile struct {
	Symbol Symbol
	Owner  session.ClientID
}

// Board is a square grid of placed tiles.
type Board struct {
	size  int
	cells []*Tile
}

func newBoard(size int) *Board {
	return &Board{size: size, cells: make([]*Tile, size*size)}
}

// Size returns the side length of the board.
func (b *Board) Size() int { return b.size }

// InBounds reports whether (x, y) is a valid cell.
func (b *Board) InBounds(x, y int) bool {
	return x >= 0 && x < b.size && y >= 0 && y < b.size
}

// At returns the tile at (x, y), or nil if the cell is empty.
//
// Precondition: (x, y) must be in bounds.
func (b *Board) At(x, y int) *Tile {
	return b.cells[y*b.size+x]
}

func (b *Board) set(x, y int, t Tile) {
	b.cells[y*b.size+x] = &t
}

// PlacedCount returns the number of occupied cells.
func (b *Board) PlacedCount() int {
	n := 0
	for _, c := range b.cells {
		if c != nil {
			n++
		}
	}
	return n
}
