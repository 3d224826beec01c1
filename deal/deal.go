// Package deal models a bridge deal in play: the four hands, the trick in
// progress and the running trick tallies. It is the position the solver
// duplicates and plays forward; every operation is deterministic.
package deal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/domino14/ddsolve/deck"
)

var (
	ErrNotInHand    = errors.New("card is not in the hand of the player on turn")
	ErrMustFollow   = errors.New("player must follow suit")
	ErrBadMove      = errors.New("move index out of range")
	ErrDealDone     = errors.New("all cards have been played")
	ErrTrickStarted = errors.New("cannot change the leader of a trick in progress")
	ErrMalformed    = errors.New("malformed deal")
)

// TricksPerDeal is the number of tricks in a full deal.
const TricksPerDeal = 13

// Deal is a position: remaining cards per seat, the trick in progress,
// cumulative tricks per pair and the seat next to act.
type Deal struct {
	trump        deck.Trump
	hands        [NumPlayers]*Hand
	trick        Trick
	tricksTaken  [NumPairs]int
	tricksPlayed int
}

// New creates an empty deal. West is on lead until SetNextToPlay says
// otherwise.
func New(trump deck.Trump) *Deal {
	d := &Deal{trump: trump, trick: Trick{Leader: West}}
	for i := range d.hands {
		d.hands[i] = &Hand{}
	}
	return d
}

// SetHand replaces the cards held by dir.
func (d *Deal) SetHand(dir Direction, cards ...deck.Card) {
	d.hands[dir] = NewHand(cards...)
}

// SetHandSuits sets a hand from per-suit holdings in display order
// (spades, hearts, diamonds, clubs), e.g. SetHandSuits(West, "A,K", "", "2").
func (d *Deal) SetHandSuits(dir Direction, holdings ...string) error {
	if len(holdings) > deck.NumSuits {
		return fmt.Errorf("%w: %d suit holdings", ErrMalformed, len(holdings))
	}
	h := &Hand{}
	for i, holding := range holdings {
		cards, err := deck.ParseSuitHolding(deck.Suits[i], holding)
		if err != nil {
			return err
		}
		for _, c := range cards {
			h.Add(c)
		}
	}
	d.hands[dir] = h
	return nil
}

// SetNextToPlay sets the leader of the next trick.
func (d *Deal) SetNextToPlay(dir Direction) error {
	if !d.trick.IsEmpty() {
		return ErrTrickStarted
	}
	d.trick.Leader = dir
	return nil
}

// SetTricksTaken overrides the running tally for a pair, for positions
// that start in the middle of a deal.
func (d *Deal) SetTricksTaken(p Pair, n int) {
	d.tricksPlayed += n - d.tricksTaken[p]
	d.tricksTaken[p] = n
}

func (d *Deal) Trump() deck.Trump {
	return d.trump
}

func (d *Deal) Hand(dir Direction) *Hand {
	return d.hands[dir]
}

// CurrentTrick returns the trick in progress. It must not be modified.
func (d *Deal) CurrentTrick() *Trick {
	return &d.trick
}

func (d *Deal) NextToPlay() Direction {
	return d.trick.NextToPlay()
}

func (d *Deal) TricksTaken(p Pair) int {
	return d.tricksTaken[p]
}

func (d *Deal) TricksPlayed() int {
	return d.tricksPlayed
}

// TricksRemaining is the number of tricks still to be completed, counting
// the one in progress.
func (d *Deal) TricksRemaining() int {
	n := 0
	for _, h := range d.hands {
		if h.Len() > n {
			n = h.Len()
		}
	}
	return n
}

// IsDone reports whether every card has been played.
func (d *Deal) IsDone() bool {
	for _, h := range d.hands {
		if !h.IsEmpty() {
			return false
		}
	}
	return true
}

// OneTrickLeft reports whether the only play left is the final trick, so
// every remaining card is forced.
func (d *Deal) OneTrickLeft() bool {
	if d.IsDone() {
		return false
	}
	for _, h := range d.hands {
		if h.Len() > 1 {
			return false
		}
	}
	return true
}

// LegalMoves returns the cards the player on turn may play, in hand order:
// cards of the led suit when the player holds any, otherwise every card.
func (d *Deal) LegalMoves() []deck.Card {
	hand := d.hands[d.NextToPlay()]
	if led, ok := d.trick.LedSuit(); ok && hand.HasSuit(led) {
		return hand.OfSuit(led)
	}
	return append([]deck.Card(nil), hand.Cards()...)
}

// Play plays a card for the seat on turn. Completing a trick credits the
// winner's pair and gives the winner the lead.
func (d *Deal) Play(c deck.Card) error {
	if d.IsDone() {
		return ErrDealDone
	}
	player := d.NextToPlay()
	hand := d.hands[player]
	if !hand.Contains(c) {
		return fmt.Errorf("%w: %v does not hold %v", ErrNotInHand, player, c)
	}
	if led, ok := d.trick.LedSuit(); ok && c.Suit != led && hand.HasSuit(led) {
		return fmt.Errorf("%w: %v played %v on a %v lead", ErrMustFollow, player, c, led)
	}
	hand.Remove(c)
	d.trick.Cards = append(d.trick.Cards, c)
	if d.trick.IsComplete() {
		winner, _ := d.trick.Winner(d.trump)
		d.tricksTaken[winner.Pair()]++
		d.tricksPlayed++
		d.trick = Trick{Leader: winner}
	}
	return nil
}

// DoNextCard plays the i-th legal move of the player on turn.
func (d *Deal) DoNextCard(i int) error {
	moves := d.LegalMoves()
	if i < 0 || i >= len(moves) {
		return fmt.Errorf("%w: %d of %d", ErrBadMove, i, len(moves))
	}
	return d.Play(moves[i])
}

// PlayMoves applies a sequence of legal-move indices. Play stops quietly
// once every card is gone.
func (d *Deal) PlayMoves(indices []int) error {
	for _, i := range indices {
		if d.IsDone() {
			return nil
		}
		if err := d.DoNextCard(i); err != nil {
			return err
		}
	}
	return nil
}

// Duplicate returns an independent deep copy.
func (d *Deal) Duplicate() *Deal {
	cp := &Deal{
		trump:        d.trump,
		trick:        d.trick.copy(),
		tricksTaken:  d.tricksTaken,
		tricksPlayed: d.tricksPlayed,
	}
	for i, h := range d.hands {
		cp.hands[i] = h.copy()
	}
	return cp
}

// Validate checks that the deal can be played out: a known trump, no card
// held twice, hand sizes consistent with the trick in progress, and tallies
// that fit in a deal with the cards still to play.
func (d *Deal) Validate() error {
	if !d.trump.Valid() {
		return fmt.Errorf("%w: %v", deck.ErrUnknownTrump, d.trump)
	}
	for p, n := range d.tricksTaken {
		if n < 0 {
			return fmt.Errorf("%w: %v has %d tricks", ErrMalformed, Pair(p), n)
		}
	}
	if total := d.tricksPlayed + d.TricksRemaining(); total > TricksPerDeal {
		return fmt.Errorf("%w: %d tricks taken and %d to play exceed %d",
			ErrMalformed, d.tricksPlayed, d.TricksRemaining(), TricksPerDeal)
	}
	var seen uint64
	for _, h := range d.hands {
		if seen&h.Mask() != 0 {
			return fmt.Errorf("%w: a card is held by two players", ErrMalformed)
		}
		seen |= h.Mask()
	}
	for _, c := range d.trick.Cards {
		bit := uint64(1) << uint(c.Index())
		if seen&bit != 0 {
			return fmt.Errorf("%w: %v is both held and on the table", ErrMalformed, c)
		}
		seen |= bit
	}
	base := d.hands[d.NextToPlay()].Len()
	for i := 0; i < NumPlayers; i++ {
		dir := d.trick.PlayerAt(i)
		want := base
		if i < len(d.trick.Cards) {
			want = base - 1
		}
		if d.hands[dir].Len() != want {
			return fmt.Errorf("%w: %v holds %d cards, expected %d",
				ErrMalformed, dir, d.hands[dir].Len(), want)
		}
	}
	return nil
}

// Signature is the canonical description of a position. Two deals with
// equal signatures have the same future regardless of how they were
// reached.
type Signature struct {
	Hands  [NumPlayers]uint64
	Trick  [NumPlayers]int8
	Leader Direction
	Tricks [NumPairs]uint8
	Trump  deck.Trump
}

func (d *Deal) Signature() Signature {
	sig := Signature{Leader: d.trick.Leader, Trump: d.trump}
	for i, h := range d.hands {
		sig.Hands[i] = h.Mask()
	}
	for i := range sig.Trick {
		sig.Trick[i] = -1
		if i < len(d.trick.Cards) {
			sig.Trick[i] = int8(d.trick.Cards[i].Index())
		}
	}
	sig.Tricks[WestEast] = uint8(d.tricksTaken[WestEast])
	sig.Tricks[NorthSouth] = uint8(d.tricksTaken[NorthSouth])
	return sig
}

func (d *Deal) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Trump: %v\n", d.trump)
	for _, dir := range Directions {
		fmt.Fprintf(&sb, "%-6s %v\n", dir.String()+":", d.hands[dir])
	}
	fmt.Fprintf(&sb, "Trick: %v  (%v to play)\n", d.trick.String(), d.NextToPlay())
	fmt.Fprintf(&sb, "Tricks: %v %d, %v %d\n",
		WestEast, d.tricksTaken[WestEast], NorthSouth, d.tricksTaken[NorthSouth])
	return sb.String()
}
