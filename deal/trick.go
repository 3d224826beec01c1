package deal

import (
	"strings"

	"github.com/domino14/ddsolve/deck"
)

// Trick is the trick in progress: who led it and the cards played so far,
// in playing order.
type Trick struct {
	Leader Direction
	Cards  []deck.Card
}

func (t *Trick) IsEmpty() bool {
	return len(t.Cards) == 0
}

func (t *Trick) IsComplete() bool {
	return len(t.Cards) == NumPlayers
}

// LedSuit returns the suit of the first card, and false if nothing was led.
func (t *Trick) LedSuit() (deck.Suit, bool) {
	if len(t.Cards) == 0 {
		return 0, false
	}
	return t.Cards[0].Suit, true
}

// PlayerAt returns the seat that played (or will play) position i of the
// trick.
func (t *Trick) PlayerAt(i int) Direction {
	return (t.Leader + Direction(i)) % NumPlayers
}

// NextToPlay is the seat whose turn it is within this trick.
func (t *Trick) NextToPlay() Direction {
	return t.PlayerAt(len(t.Cards))
}

// Winner returns the seat currently winning the trick: the highest trump if
// any trump was played, otherwise the highest card of the led suit.
func (t *Trick) Winner(trump deck.Trump) (Direction, bool) {
	if len(t.Cards) == 0 {
		return 0, false
	}
	best := 0
	for i := 1; i < len(t.Cards); i++ {
		if beats(t.Cards[i], t.Cards[best], trump) {
			best = i
		}
	}
	return t.PlayerAt(best), true
}

// beats reports whether c, played after current, takes over the trick.
func beats(c, current deck.Card, trump deck.Trump) bool {
	if c.Suit == current.Suit {
		return c.Rank > current.Rank
	}
	return trump.IsTrump(c)
}

func (t *Trick) copy() Trick {
	return Trick{Leader: t.Leader, Cards: append([]deck.Card(nil), t.Cards...)}
}

func (t *Trick) String() string {
	if len(t.Cards) == 0 {
		return "(empty)"
	}
	parts := make([]string, len(t.Cards))
	for i, c := range t.Cards {
		parts[i] = t.PlayerAt(i).String()[:1] + ":" + c.String()
	}
	return strings.Join(parts, " ")
}
