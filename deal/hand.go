package deal

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/domino14/ddsolve/deck"
)

// Hand holds the cards of one seat. The insertion order is kept, since the
// order of legal moves (and therefore the search order) follows it.
type Hand struct {
	cards []deck.Card
	mask  uint64
}

// NewHand creates a hand with the given cards.
func NewHand(cards ...deck.Card) *Hand {
	h := &Hand{}
	for _, c := range cards {
		h.Add(c)
	}
	return h
}

func (h *Hand) Add(c deck.Card) {
	h.cards = append(h.cards, c)
	h.mask |= 1 << uint(c.Index())
}

// Remove takes the card out of the hand, and reports whether it was there.
func (h *Hand) Remove(c deck.Card) bool {
	for i, hc := range h.cards {
		if hc == c {
			h.cards = append(h.cards[:i], h.cards[i+1:]...)
			h.mask &^= 1 << uint(c.Index())
			return true
		}
	}
	return false
}

func (h *Hand) Contains(c deck.Card) bool {
	return h.mask&(1<<uint(c.Index())) != 0
}

func (h *Hand) Len() int {
	return len(h.cards)
}

func (h *Hand) IsEmpty() bool {
	return len(h.cards) == 0
}

// Cards returns the cards in insertion order. The slice must not be
// modified.
func (h *Hand) Cards() []deck.Card {
	return h.cards
}

// Mask is the set of held cards as a bitmask over deck.Card.Index.
func (h *Hand) Mask() uint64 {
	return h.mask
}

// HasSuit reports whether the hand holds any card of suit s.
func (h *Hand) HasSuit(s deck.Suit) bool {
	return lo.ContainsBy(h.cards, func(c deck.Card) bool { return c.Suit == s })
}

// OfSuit returns the cards of suit s in insertion order.
func (h *Hand) OfSuit(s deck.Suit) []deck.Card {
	return lo.Filter(h.cards, func(c deck.Card, _ int) bool { return c.Suit == s })
}

// SuitHighToLow returns the cards of suit s from highest to lowest.
func (h *Hand) SuitHighToLow(s deck.Suit) []deck.Card {
	cards := h.OfSuit(s)
	sort.Slice(cards, func(i, j int) bool { return cards[i].Rank > cards[j].Rank })
	return cards
}

// SuitLength is the number of cards held in suit s.
func (h *Hand) SuitLength(s deck.Suit) int {
	return len(h.OfSuit(s))
}

// CardsHighToLow lists the hand suit by suit in display order, each suit
// from highest to lowest.
func (h *Hand) CardsHighToLow() []deck.Card {
	out := make([]deck.Card, 0, len(h.cards))
	for _, s := range deck.Suits {
		out = append(out, h.SuitHighToLow(s)...)
	}
	return out
}

func (h *Hand) copy() *Hand {
	return &Hand{cards: append([]deck.Card(nil), h.cards...), mask: h.mask}
}

// String displays the hand as "S: A K  H: 10 9  D: -  C: 2".
func (h *Hand) String() string {
	var sb strings.Builder
	for i, s := range deck.Suits {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(s.String() + ":")
		cards := h.SuitHighToLow(s)
		if len(cards) == 0 {
			sb.WriteString(" -")
		}
		for _, c := range cards {
			sb.WriteString(" " + c.Rank.String())
		}
	}
	return sb.String()
}
