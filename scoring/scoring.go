// Package scoring computes the score of a played contract, undoubled and
// non-vulnerable.
package scoring

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/domino14/ddsolve/deck"
)

const (
	bookTricks     = 6
	gameThreshold  = 100
	gameBonus      = 300
	smallSlamBonus = 500
	grandSlamBonus = 1000
	undertrickCost = 50
)

var ErrBadLevel = errors.New("contract level must be between 1 and 7")

// Bid is a contract: how many tricks over book, in which denomination.
type Bid struct {
	Level int
	Trump deck.Trump
}

func (b Bid) String() string {
	if b.Trump == deck.NoTrump {
		return fmt.Sprintf("%dNT", b.Level)
	}
	if s, ok := b.Trump.Suit(); ok {
		return fmt.Sprintf("%d%s", b.Level, s)
	}
	return fmt.Sprintf("%d?", b.Level)
}

// ParseBid parses a contract such as "4S" or "3NT".
func ParseBid(s string) (Bid, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Bid{}, fmt.Errorf("%w: empty bid", ErrBadLevel)
	}
	level, err := strconv.Atoi(s[:1])
	if err != nil || level < 1 || level > 7 {
		return Bid{}, fmt.Errorf("%w: %q", ErrBadLevel, s)
	}
	t, err := deck.ParseTrump(s[1:])
	if err != nil {
		return Bid{}, err
	}
	return Bid{Level: level, Trump: t}, nil
}

// TricksNeeded is the number of tricks declarer must take.
func (b Bid) TricksNeeded() int {
	return b.Level + bookTricks
}

// Result holds the points won by each side. Only one of them is ever
// non-zero.
type Result struct {
	Declarer int
	Defender int
}

func trickValue(t deck.Trump) (perTrick, firstTrickExtra int, err error) {
	switch {
	case t.IsMajor():
		return 30, 0, nil
	case t.IsMinor():
		return 20, 0, nil
	case t == deck.NoTrump:
		return 30, 10, nil
	}
	return 0, 0, fmt.Errorf("%w: %v", deck.ErrUnknownTrump, t)
}

// Score scores bid given the tricks declarer took.
func Score(bid Bid, declarerTricks int) (Result, error) {
	if bid.Level < 1 || bid.Level > 7 {
		return Result{}, fmt.Errorf("%w: %d", ErrBadLevel, bid.Level)
	}
	perTrick, extra, err := trickValue(bid.Trump)
	if err != nil {
		return Result{}, err
	}
	needed := bid.TricksNeeded()
	if declarerTricks < needed {
		return Result{Defender: (needed - declarerTricks) * undertrickCost}, nil
	}
	worth := extra + bid.Level*perTrick
	points := 0
	switch {
	case needed == 13:
		points = grandSlamBonus
	case needed == 12:
		points = smallSlamBonus
	case worth >= gameThreshold:
		points = gameBonus
	}
	points += worth + (declarerTricks-needed)*perTrick
	return Result{Declarer: points}, nil
}
