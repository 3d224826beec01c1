package deal

import (
	"fmt"
	"strings"
)

// Direction is a seat at the table. Play proceeds clockwise, in the
// numeric order of the constants.
type Direction int8

const (
	West Direction = iota
	North
	East
	South
)

const NumPlayers = 4

// Directions lists the seats in playing order starting from West.
var Directions = [NumPlayers]Direction{West, North, East, South}

func (d Direction) Next() Direction {
	return (d + 1) % NumPlayers
}

func (d Direction) Partner() Direction {
	return (d + 2) % NumPlayers
}

func (d Direction) Pair() Pair {
	return Pair(d % 2)
}

func (d Direction) String() string {
	switch d {
	case West:
		return "West"
	case North:
		return "North"
	case East:
		return "East"
	case South:
		return "South"
	}
	return fmt.Sprintf("Direction(%d)", int8(d))
}

// ParseDirection accepts a seat name or its first letter.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "west":
		return West, nil
	case "n", "north":
		return North, nil
	case "e", "east":
		return East, nil
	case "s", "south":
		return South, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Pair is a partnership. Its value indexes the per-pair trick tallies.
type Pair int8

const (
	WestEast Pair = iota
	NorthSouth
)

const NumPairs = 2

func (p Pair) Other() Pair {
	return 1 - p
}

func (p Pair) String() string {
	if p == WestEast {
		return "West/East"
	}
	return "North/South"
}
