package zobrist

import (
	"math/bits"

	"lukechampine.com/frand"

	"github.com/domino14/ddsolve/deal"
	"github.com/domino14/ddsolve/deck"
)

const bignum = 1<<63 - 2

// maxTricks bounds the per-pair tally table; a deal has at most 13 tricks.
const maxTricks = 14

// Zobrist generates a hash for a card-play position.
// https://en.wikipedia.org/wiki/Zobrist_hashing
type Zobrist struct {
	// holder[c][seat] is the key for card c held by seat.
	holder [deck.NumCards][deal.NumPlayers]uint64
	// onTable[c][slot] is the key for card c played at slot of the
	// current trick.
	onTable [deck.NumCards][deal.NumPlayers]uint64
	leader  [deal.NumPlayers]uint64
	tricks  [deal.NumPairs][maxTricks]uint64
	trump   [deck.NumSuits + 1]uint64
}

func (z *Zobrist) Initialize() {
	for c := 0; c < deck.NumCards; c++ {
		for s := 0; s < deal.NumPlayers; s++ {
			z.holder[c][s] = frand.Uint64n(bignum) + 1
			z.onTable[c][s] = frand.Uint64n(bignum) + 1
		}
	}
	for s := 0; s < deal.NumPlayers; s++ {
		z.leader[s] = frand.Uint64n(bignum) + 1
	}
	for p := 0; p < deal.NumPairs; p++ {
		for t := 0; t < maxTricks; t++ {
			z.tricks[p][t] = frand.Uint64n(bignum) + 1
		}
	}
	for t := range z.trump {
		z.trump[t] = frand.Uint64n(bignum) + 1
	}
}

// Hash computes the key of a signature from scratch.
func (z *Zobrist) Hash(sig deal.Signature) uint64 {
	key := uint64(0)
	for seat, mask := range sig.Hands {
		for mask != 0 {
			c := bits.TrailingZeros64(mask)
			key ^= z.holder[c][seat]
			mask &= mask - 1
		}
	}
	for slot, c := range sig.Trick {
		if c < 0 {
			continue
		}
		key ^= z.onTable[c][slot]
	}
	key ^= z.leader[sig.Leader]
	for p, n := range sig.Tricks {
		key ^= z.tricks[p][int(n)%maxTricks]
	}
	if sig.Trump.Valid() {
		key ^= z.trump[sig.Trump]
	}
	return key
}
