// Package deck contains the card model shared by the deal and the solver:
// suits, ranks, cards and trump designations.
package deck

import (
	"errors"
	"fmt"
	"strings"
)

// Suit is one of the four card suits. The ordering (spades first) is also
// the order used when hands are built or displayed.
type Suit int8

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

const NumSuits = 4

// Suits lists every suit in display order.
var Suits = [NumSuits]Suit{Spades, Hearts, Diamonds, Clubs}

var suitLetters = [NumSuits]string{"S", "H", "D", "C"}
var suitSymbols = [NumSuits]string{"♠", "♥", "♦", "♣"}

func (s Suit) String() string {
	if s < 0 || s >= NumSuits {
		return "?"
	}
	return suitLetters[s]
}

// Symbol returns the unicode pip for the suit.
func (s Suit) Symbol() string {
	if s < 0 || s >= NumSuits {
		return "?"
	}
	return suitSymbols[s]
}

// Rank is the strength of a card within its suit. Two is the lowest and
// Ace the highest; the numeric value is the pip count (Jack = 11 ... Ace = 14).
type Rank int8

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
)

const NumRanks = 13

func (r Rank) String() string {
	switch r {
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	}
	if r >= Two && r <= Ten {
		return fmt.Sprintf("%d", int(r))
	}
	return "?"
}

// Card is a single playing card.
type Card struct {
	Suit Suit
	Rank Rank
}

const NumCards = NumSuits * NumRanks

// Of is a short constructor, e.g. deck.Of(deck.Queen, deck.Hearts).
func Of(r Rank, s Suit) Card {
	return Card{Suit: s, Rank: r}
}

// Index returns a stable number 0..51 for the card, suit-major.
func (c Card) Index() int {
	return int(c.Suit)*NumRanks + int(c.Rank-Two)
}

// FromIndex is the inverse of Index.
func FromIndex(idx int) Card {
	return Card{Suit: Suit(idx / NumRanks), Rank: Rank(idx%NumRanks) + Two}
}

// Valid reports whether the card is one of the 52 real cards.
func (c Card) Valid() bool {
	return c.Suit >= 0 && c.Suit < NumSuits && c.Rank >= Two && c.Rank <= Ace
}

// Beats reports whether c outranks o inside the same suit.
func (c Card) Beats(o Card) bool {
	return c.Suit == o.Suit && c.Rank > o.Rank
}

func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

var (
	ErrUnknownTrump = errors.New("unknown trump designation")
	ErrBadCard      = errors.New("cannot parse card")
)

// ParseRank accepts 2-9, 10 or T, J, Q, K, A (case-insensitive).
func ParseRank(s string) (Rank, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "2":
		return Two, nil
	case "3":
		return Three, nil
	case "4":
		return Four, nil
	case "5":
		return Five, nil
	case "6":
		return Six, nil
	case "7":
		return Seven, nil
	case "8":
		return Eight, nil
	case "9":
		return Nine, nil
	case "10", "T":
		return Ten, nil
	case "J":
		return Jack, nil
	case "Q":
		return Queen, nil
	case "K":
		return King, nil
	case "A":
		return Ace, nil
	}
	return 0, fmt.Errorf("%w: rank %q", ErrBadCard, s)
}

// ParseSuit accepts a suit letter, name or pip.
func ParseSuit(s string) (Suit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s", "spades", "spade", "♠":
		return Spades, nil
	case "h", "hearts", "heart", "♥":
		return Hearts, nil
	case "d", "diamonds", "diamond", "♦":
		return Diamonds, nil
	case "c", "clubs", "club", "♣":
		return Clubs, nil
	}
	return 0, fmt.Errorf("%w: suit %q", ErrBadCard, s)
}

// ParseCard parses strings like "AS", "10H", "th" or "Q♦". The suit is
// always the final character.
func ParseCard(s string) (Card, error) {
	r := []rune(strings.TrimSpace(s))
	if len(r) < 2 {
		return Card{}, fmt.Errorf("%w: %q", ErrBadCard, s)
	}
	suit, err := ParseSuit(string(r[len(r)-1]))
	if err != nil {
		return Card{}, fmt.Errorf("%w: %q", ErrBadCard, s)
	}
	rank, err := ParseRank(string(r[:len(r)-1]))
	if err != nil {
		return Card{}, fmt.Errorf("%w: %q", ErrBadCard, s)
	}
	return Card{Suit: suit, Rank: rank}, nil
}

// ParseCards parses a whitespace or comma separated list of cards.
func ParseCards(s string) ([]Card, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// ParseSuitHolding parses the ranks held in one suit, e.g. "A,K,10" or
// "AK10". An empty string is a void.
func ParseSuitHolding(suit Suit, holding string) ([]Card, error) {
	holding = strings.TrimSpace(holding)
	if holding == "" || holding == "-" {
		return nil, nil
	}
	var tokens []string
	if strings.ContainsAny(holding, ", ") {
		tokens = strings.FieldsFunc(holding, func(r rune) bool { return r == ',' || r == ' ' })
	} else {
		for i := 0; i < len(holding); i++ {
			if holding[i] == '1' && i+1 < len(holding) && holding[i+1] == '0' {
				tokens = append(tokens, "10")
				i++
				continue
			}
			tokens = append(tokens, string(holding[i]))
		}
	}
	cards := make([]Card, 0, len(tokens))
	for _, t := range tokens {
		r, err := ParseRank(t)
		if err != nil {
			return nil, err
		}
		cards = append(cards, Card{Suit: suit, Rank: r})
	}
	return cards, nil
}

// Trump is the denomination of a contract: one of the suits, or no-trump.
type Trump int8

const (
	TrumpSpades   = Trump(Spades)
	TrumpHearts   = Trump(Hearts)
	TrumpDiamonds = Trump(Diamonds)
	TrumpClubs    = Trump(Clubs)
	NoTrump       = Trump(4)
)

// Suit returns the trump suit, and false for no-trump.
func (t Trump) Suit() (Suit, bool) {
	if t >= TrumpSpades && t <= TrumpClubs {
		return Suit(t), true
	}
	return 0, false
}

// Valid reports whether t is a known denomination.
func (t Trump) Valid() bool {
	return t >= TrumpSpades && t <= NoTrump
}

func (t Trump) String() string {
	switch t {
	case TrumpSpades:
		return "Spades"
	case TrumpHearts:
		return "Hearts"
	case TrumpDiamonds:
		return "Diamonds"
	case TrumpClubs:
		return "Clubs"
	case NoTrump:
		return "NT"
	}
	return fmt.Sprintf("Trump(%d)", int8(t))
}

// IsMajor is true for spades and hearts.
func (t Trump) IsMajor() bool {
	return t == TrumpSpades || t == TrumpHearts
}

// IsMinor is true for diamonds and clubs.
func (t Trump) IsMinor() bool {
	return t == TrumpDiamonds || t == TrumpClubs
}

// ParseTrump never falls back to a default: anything it does not recognise
// is an ErrUnknownTrump.
func ParseTrump(s string) (Trump, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nt", "n", "notrump", "notrumps", "no-trump":
		return NoTrump, nil
	}
	suit, err := ParseSuit(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTrump, s)
	}
	return Trump(suit), nil
}

// IsTrump reports whether card c belongs to the trump suit.
func (t Trump) IsTrump(c Card) bool {
	s, ok := t.Suit()
	return ok && c.Suit == s
}
