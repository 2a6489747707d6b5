package rules

import (
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidDeck indicates a deck definition that cannot produce a playable deck.
	ErrInvalidDeck = fmt.Errorf("invalid deck definition")
)

// DeckEntry is one symbol and its multiplicity in the deck.
type DeckEntry struct {
	Symbol string `yaml:"symbol"`
	Count  int    `yaml:"count"`
}

// DeckDefinition describes the card multiset a game is dealt from.
type DeckDefinition struct {
	Name    string      `yaml:"name"`
	Symbols []DeckEntry `yaml:"symbols"`
}

// Validate checks that every entry carries a single-rune symbol and a
// positive count, and that the deck is non-empty.
func (d DeckDefinition) Validate() error {
	if len(d.Symbols) == 0 {
		return fmt.Errorf("%w: no symbols", ErrInvalidDeck)
	}
	for i, e := range d.Symbols {
		if utf8.RuneCountInString(e.Symbol) != 1 {
			return fmt.Errorf("%w: entry %d: symbol %q is not a single rune", ErrInvalidDeck, i, e.Symbol)
		}
		if e.Count <= 0 {
			return fmt.Errorf("%w: entry %d: count %d must be positive", ErrInvalidDeck, i, e.Count)
		}
	}
	return nil
}

// TotalCards returns the number of cards the definition expands to.
func (d DeckDefinition) TotalCards() int {
	n := 0
	for _, e := range d.Symbols {
		n += e.Count
	}
	return n
}

// expand flattens the definition into an ordered card multiset. The caller
// shuffles.
func (d DeckDefinition) expand() []Symbol {
	cards := make([]Symbol, 0, d.TotalCards())
	for _, e := range d.Symbols {
		r, _ := utf8.DecodeRuneInString(e.Symbol)
		for i := 0; i < e.Count; i++ {
			cards = append(cards, Symbol(r))
		}
	}
	return cards
}

// LoadDeck reads and validates a deck definition from a YAML file.
//
// Postcondition: the returned definition has passed Validate.
func LoadDeck(path string) (DeckDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DeckDefinition{}, fmt.Errorf("reading deck file: %w", err)
	}
	var def DeckDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return DeckDefinition{}, fmt.Errorf("parsing deck file: %w", err)
	}
	if err := def.Validate(); err != nil {
		return DeckDefinition{}, fmt.Errorf("validating deck file %s: %w", path, err)
	}
	return def, nil
}

// DefaultDeck returns the standard 98-card letter distribution used when no
// deck file is configured.
func DefaultDeck() DeckDefinition {
	counts := map[string]int{
		"A": 9, "B": 2, "C": 2, "D": 4, "E": 12, "F": 2, "G": 3,
		"H": 2, "I": 9, "J": 1, "K": 1, "L": 4, "M": 2, "N": 6,
		"O": 8, "P": 2, "Q": 1, "R": 6, "S": 4, "T": 6, "U": 4,
		"V": 2, "W": 2, "X": 1, "Y": 2, "Z": 1,
	}
	def := DeckDefinition{Name: "standard"}
	for r := 'A'; r <= 'Z'; r++ {
		def.Symbols = append(def.Symbols, DeckEntry{Symbol: string(r), Count: counts[string(r)]})
	}
	return def
}
