// Package dealgen builds deals for tests, batch analysis and the shell.
package dealgen

import (
	"encoding/binary"
	"errors"
	"fmt"

	"lukechampine.com/frand"

	"github.com/domino14/ddsolve/deal"
	"github.com/domino14/ddsolve/deck"
)

var ErrHandSize = errors.New("cards per hand must be between 1 and 13")

// Generator deals random hands. With a seed the sequence of deals is
// reproducible.
type Generator struct {
	rng *frand.RNG
}

// New returns a generator seeded from the system entropy source.
func New() *Generator {
	return &Generator{rng: frand.New()}
}

// NewSeeded returns a generator whose deals depend only on seed.
func NewSeeded(seed uint64) *Generator {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	return &Generator{rng: frand.NewCustom(key[:], 1024, 12)}
}

// Random deals cardsPerHand cards to every seat from a shuffled deck.
func (g *Generator) Random(cardsPerHand int, trump deck.Trump, leader deal.Direction) (*deal.Deal, error) {
	if cardsPerHand < 1 || cardsPerHand > deck.NumRanks {
		return nil, fmt.Errorf("%w: %d", ErrHandSize, cardsPerHand)
	}
	perm := g.rng.Perm(deck.NumCards)
	d := deal.New(trump)
	for i, dir := range deal.Directions {
		cards := make([]deck.Card, cardsPerHand)
		for j := range cards {
			cards[j] = deck.FromIndex(perm[i*cardsPerHand+j])
		}
		d.SetHand(dir, cards...)
	}
	if err := d.SetNextToPlay(leader); err != nil {
		return nil, err
	}
	return d, nil
}

// SingleSuits gives each seat the top cardsPerHand cards of its own suit:
// West spades, North hearts, East diamonds and South clubs.
func SingleSuits(cardsPerHand int, trump deck.Trump, leader deal.Direction) (*deal.Deal, error) {
	if cardsPerHand < 1 || cardsPerHand > deck.NumRanks {
		return nil, fmt.Errorf("%w: %d", ErrHandSize, cardsPerHand)
	}
	d := deal.New(trump)
	for i, dir := range deal.Directions {
		cards := make([]deck.Card, cardsPerHand)
		for j := range cards {
			cards[j] = deck.Of(deck.Ace-deck.Rank(j), deck.Suits[i])
		}
		d.SetHand(dir, cards...)
	}
	if err := d.SetNextToPlay(leader); err != nil {
		return nil, err
	}
	return d, nil
}
