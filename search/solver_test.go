package search

import (
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/ddsolve/deal"
	"github.com/domino14/ddsolve/dealgen"
	"github.com/domino14/ddsolve/deck"
)

func card(t *testing.T, s string) deck.Card {
	t.Helper()
	c, err := deck.ParseCard(s)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func cards(t *testing.T, s string) []deck.Card {
	t.Helper()
	cs, err := deck.ParseCards(s)
	if err != nil {
		t.Fatal(err)
	}
	return cs
}

func newTestSolver(t *testing.T, d *deal.Deal, c *Configurator) *Solver {
	t.Helper()
	s, err := NewSolverWithCache(d, c, newPositionCacheWithCapacity(1<<16))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// bruteForce is plain minimax over the deal, with no pruning or reuse.
func bruteForce(d *deal.Deal, maxTricks int) [deal.NumPairs]int {
	if d.IsDone() || d.TricksPlayed() >= maxTricks {
		return [deal.NumPairs]int{d.TricksTaken(deal.WestEast), d.TricksTaken(deal.NorthSouth)}
	}
	pair := d.NextToPlay().Pair()
	var best [deal.NumPairs]int
	for i := range d.LegalMoves() {
		cp := d.Duplicate()
		if err := cp.DoNextCard(i); err != nil {
			panic(err)
		}
		v := bruteForce(cp, maxTricks)
		if i == 0 || v[pair] > best[pair] {
			best = v
		}
	}
	return best
}

// bruteForceBest lists every root card that reaches the optimum.
func bruteForceBest(d *deal.Deal, maxTricks int) []deck.Card {
	pair := d.NextToPlay().Pair()
	want := bruteForce(d, maxTricks)[pair]
	var out []deck.Card
	for i, c := range d.LegalMoves() {
		cp := d.Duplicate()
		if err := cp.DoNextCard(i); err != nil {
			panic(err)
		}
		if bruteForce(cp, maxTricks)[pair] == want {
			out = append(out, c)
		}
	}
	return out
}

func bareConfigurator() *Configurator {
	return &Configurator{MaxTricks: MaxTricks}
}

// twoTricks: North on lead at no-trump.
func twoTricks(t *testing.T) *deal.Deal {
	is := is.New(t)
	d := deal.New(deck.NoTrump)
	is.NoErr(d.SetHandSuits(deal.West, "2", "3"))
	is.NoErr(d.SetHandSuits(deal.North, "3", "2"))
	is.NoErr(d.SetHandSuits(deal.South, "", "K,10"))
	is.NoErr(d.SetHandSuits(deal.East, "A", "", "J"))
	is.NoErr(d.SetNextToPlay(deal.North))
	return d
}

func TestTwoTricks(t *testing.T) {
	is := is.New(t)
	s := newTestSolver(t, twoTricks(t), nil)
	s.Search()
	is.Equal(s.BestMoves(), []deck.Card{card(t, "2H")})
	is.Equal(s.Root().TricksTaken(deal.NorthSouth), 2)
	is.Equal(s.Root().TricksTaken(deal.WestEast), 0)
}

func TestTwoTricksOtherSuit(t *testing.T) {
	is := is.New(t)
	d := deal.New(deck.NoTrump)
	is.NoErr(d.SetHandSuits(deal.West, "3", "2"))
	is.NoErr(d.SetHandSuits(deal.North, "2", "3"))
	is.NoErr(d.SetHandSuits(deal.South, "K,10"))
	is.NoErr(d.SetHandSuits(deal.East, "", "A", "J"))
	is.NoErr(d.SetNextToPlay(deal.North))
	s := newTestSolver(t, d, nil)
	s.Search()
	is.Equal(s.BestMoves(), []deck.Card{card(t, "2S")})
	is.Equal(s.Root().TricksTaken(deal.NorthSouth), 2)
}

func TestOneTrick(t *testing.T) {
	is := is.New(t)
	d := deal.New(deck.NoTrump)
	d.SetHand(deal.West, card(t, "2S"))
	d.SetHand(deal.North, card(t, "AS"))
	d.SetHand(deal.East, card(t, "3S"))
	d.SetHand(deal.South, card(t, "4S"))
	s := newTestSolver(t, d, nil)
	s.Search()
	is.Equal(s.Root().TricksTaken(deal.NorthSouth), 1)
	is.Equal(s.Root().TricksTaken(deal.WestEast), 0)
	is.Equal(s.BestMoves(), []deck.Card{card(t, "2S")})
	is.Equal(len(s.Tree().Children(s.Root())), 0)
}

func TestTricksTallyIsTrickLimit(t *testing.T) {
	is := is.New(t)
	d := deal.New(deck.NoTrump)
	is.NoErr(d.SetHandSuits(deal.West, "3,10,4"))
	is.NoErr(d.SetHandSuits(deal.North, "2,9,6"))
	is.NoErr(d.SetHandSuits(deal.South, "A,5,J"))
	is.NoErr(d.SetHandSuits(deal.East, "K,7,Q"))
	is.NoErr(d.SetNextToPlay(deal.South))
	c := DefaultConfigurator()
	c.MaxTricks = 1
	s := newTestSolver(t, d, c)
	s.Search()
	root := s.Root()
	is.Equal(root.TricksTaken(deal.WestEast)+root.TricksTaken(deal.NorthSouth), 1)
	is.Equal(root.Tricks(), bruteForce(d, 1))
}

func TestBestMoveWhenRootDoesNotStartTrick(t *testing.T) {
	for _, north := range []string{"7S QH", "QH 7S"} {
		t.Run(north, func(t *testing.T) {
			is := is.New(t)
			d := deal.New(deck.NoTrump)
			d.SetHand(deal.West, cards(t, "9C 4S")...)
			d.SetHand(deal.North, cards(t, north)...)
			d.SetHand(deal.East, cards(t, "3C 3H")...)
			d.SetHand(deal.South, cards(t, "4C 2S")...)
			is.NoErr(d.DoNextCard(0))

			s := newTestSolver(t, d, nil)
			s.Search()
			is.Equal(s.BestMoves(), []deck.Card{card(t, "QH")})
			is.Equal(s.Root().TricksTaken(deal.NorthSouth), 1)
		})
	}
}

func TestNorthTrumps(t *testing.T) {
	is := is.New(t)
	d := deal.New(deck.TrumpSpades)
	d.SetHand(deal.West, cards(t, "9C 4C")...)
	d.SetHand(deal.North, cards(t, "2S 2H")...)
	d.SetHand(deal.East, cards(t, "3C 3D")...)
	d.SetHand(deal.South, cards(t, "6C 5D")...)
	is.NoErr(d.DoNextCard(0))

	s := newTestSolver(t, d, nil)
	s.Search()
	is.Equal(s.BestMoves(), []deck.Card{card(t, "2S")})
	is.Equal(s.Root().TricksTaken(deal.NorthSouth), 2)
}

func TestNorthCannotTrumpBecauseHasColor(t *testing.T) {
	is := is.New(t)
	d := deal.New(deck.TrumpSpades)
	d.SetHand(deal.West, cards(t, "9C 4C")...)
	d.SetHand(deal.North, cards(t, "2C 2S")...)
	d.SetHand(deal.East, cards(t, "3C 3D")...)
	d.SetHand(deal.South, cards(t, "6C 5D")...)
	is.NoErr(d.DoNextCard(0))

	s := newTestSolver(t, d, nil)
	s.Search()
	is.True(s.ForcedRoot())
	is.Equal(s.BestMoves(), []deck.Card{card(t, "2C")})
	// Nothing past the root was examined.
	is.Equal(s.Stats().PositionsExamined, 1)
	is.Equal(s.Tree().Size(), 2)
}

func TestForcedRootCanBeSearched(t *testing.T) {
	is := is.New(t)
	d := deal.New(deck.TrumpSpades)
	d.SetHand(deal.West, cards(t, "9C 4C")...)
	d.SetHand(deal.North, cards(t, "2C 2S")...)
	d.SetHand(deal.East, cards(t, "3C 3D")...)
	d.SetHand(deal.South, cards(t, "6C 5D")...)
	is.NoErr(d.DoNextCard(0))

	c := DefaultConfigurator()
	c.TerminateOnForcedRootMove = false
	s := newTestSolver(t, d, c)
	s.Search()
	is.True(!s.ForcedRoot())
	is.Equal(s.BestMoves(), []deck.Card{card(t, "2C")})
	is.Equal(s.Root().Tricks(), bruteForce(d, MaxTricks))
}

func TestAlphaBetaScenario(t *testing.T) {
	is := is.New(t)
	d := deal.New(deck.NoTrump)
	d.SetHand(deal.West, cards(t, "6S 9S")...)
	d.SetHand(deal.North, cards(t, "AS 8S")...)
	d.SetHand(deal.East, cards(t, "10H 3H")...)
	d.SetHand(deal.South, cards(t, "6H 2H")...)
	is.NoErr(d.SetNextToPlay(deal.South))

	pruned := newTestSolver(t, d, nil)
	pruned.Search()
	is.Equal(pruned.Root().TricksTaken(deal.WestEast), 2)

	plain := newTestSolver(t, d, bareConfigurator())
	plain.Search()
	is.Equal(plain.Root().Tricks(), pruned.Root().Tricks())
	is.True(pruned.Stats().PositionsExamined <= plain.Stats().PositionsExamined)
}

func TestTerminalRoot(t *testing.T) {
	is := is.New(t)
	d := deal.New(deck.NoTrump)
	s := newTestSolver(t, d, nil)
	s.Search()
	is.True(s.Root().IsLeaf())
	is.True(s.Root().IsTrimmed())
	is.Equal(len(s.BestMoves()), 0)
}

func TestNewSolverErrors(t *testing.T) {
	is := is.New(t)
	_, err := NewSolver(nil, nil)
	is.Equal(err, ErrNilDeal)

	c := DefaultConfigurator()
	c.MaxTricks = 0
	_, err = NewSolver(twoTricks(t), c)
	assert.ErrorIs(t, err, ErrBadTrickCap)

	bad := deal.New(deck.Trump(7))
	_, err = NewSolver(bad, nil)
	assert.ErrorIs(t, err, deck.ErrUnknownTrump)

	uneven := twoTricks(t)
	uneven.SetHand(deal.West, card(t, "2S"))
	_, err = NewSolver(uneven, nil)
	assert.ErrorIs(t, err, deal.ErrMalformed)
}

func TestSearchIsDeterministic(t *testing.T) {
	is := is.New(t)
	d, err := dealgen.NewSeeded(7).Random(4, deck.TrumpHearts, deal.East)
	is.NoErr(err)
	a := newTestSolver(t, d, nil)
	a.Search()
	b := newTestSolver(t, d, nil)
	b.Search()
	is.Equal(a.BestMoves(), b.BestMoves())
	is.Equal(a.Root().Tricks(), b.Root().Tricks())
	is.Equal(a.Stats().PositionsExamined, b.Stats().PositionsExamined)
	is.Equal(a.OptimalPath(), b.OptimalPath())
}

func configurations() map[string]*Configurator {
	all := DefaultConfigurator()
	all.TerminateOnForcedRootMove = false

	noSeq := DefaultConfigurator()
	noSeq.PruneSequenceSiblings = false
	noSeq.TerminateOnForcedRootMove = false

	noDup := DefaultConfigurator()
	noDup.UseDuplicateRemoval = false
	noDup.TerminateOnForcedRootMove = false

	noAB := DefaultConfigurator()
	noAB.PruningStrategies = nil
	noAB.TerminateOnForcedRootMove = false

	return map[string]*Configurator{
		"bare":         bareConfigurator(),
		"default":      all,
		"no-sequence":  noSeq,
		"no-duplicate": noDup,
		"no-alphabeta": noAB,
	}
}

// The root value never depends on which optimisations are switched on.
func TestRandomDealsMatchMinimax(t *testing.T) {
	gen := dealgen.NewSeeded(2024)
	trumps := []deck.Trump{deck.NoTrump, deck.TrumpSpades, deck.TrumpHearts, deck.TrumpDiamonds, deck.TrumpClubs}
	for i := 0; i < 12; i++ {
		d, err := gen.Random(3, trumps[i%len(trumps)], deal.Directions[i%deal.NumPlayers])
		if err != nil {
			t.Fatal(err)
		}
		want := bruteForce(d, MaxTricks)
		wantBest := bruteForceBest(d, MaxTricks)
		for name, c := range configurations() {
			s := newTestSolver(t, d, c)
			s.Search()
			assert.Equal(t, want, s.Root().Tricks(), "deal %d config %s\n%v", i, name, d)
			if !c.PruneSequenceSiblings {
				assert.Equal(t, wantBest, s.BestMoves(), "deal %d config %s", i, name)
			} else {
				assert.Subset(t, wantBest, s.BestMoves(), "deal %d config %s", i, name)
				assert.NotEmpty(t, s.BestMoves())
			}
		}
	}
}

func TestTrickCapMatchesMinimax(t *testing.T) {
	gen := dealgen.NewSeeded(99)
	for i := 0; i < 6; i++ {
		d, err := gen.Random(4, deck.NoTrump, deal.South)
		if err != nil {
			t.Fatal(err)
		}
		c := DefaultConfigurator()
		c.MaxTricks = 2
		s := newTestSolver(t, d, c)
		s.Search()
		root := s.Root()
		assert.Equal(t, 2, root.TricksTaken(deal.WestEast)+root.TricksTaken(deal.NorthSouth))
		assert.Equal(t, bruteForce(d, 2), root.Tricks())
	}
}

func TestSequencePruningNonDegradation(t *testing.T) {
	is := is.New(t)
	d, err := dealgen.SingleSuits(3, deck.NoTrump, deal.North)
	is.NoErr(err)

	wc := DefaultConfigurator()
	wc.TerminateOnForcedRootMove = false
	with := newTestSolver(t, d, wc)
	with.Search()
	c := DefaultConfigurator()
	c.PruneSequenceSiblings = false
	c.TerminateOnForcedRootMove = false
	without := newTestSolver(t, d, c)
	without.Search()

	is.Equal(with.Root().Tricks(), without.Root().Tricks())
	is.Equal(with.Root().TricksTaken(deal.NorthSouth), 3)
	is.True(with.Stats().PrunedSequence > 0)
	is.Equal(without.Stats().PrunedSequence, 0)
	is.True(with.Stats().PositionsExamined < without.Stats().PositionsExamined)
}

func TestSharedCacheReusesResults(t *testing.T) {
	is := is.New(t)
	d, err := dealgen.NewSeeded(5).Random(3, deck.NoTrump, deal.West)
	is.NoErr(err)
	c := DefaultConfigurator()
	c.TerminateOnForcedRootMove = false
	cache := newPositionCacheWithCapacity(1 << 16)

	first, err := NewSolverWithCache(d, c, cache)
	is.NoErr(err)
	first.Search()
	second, err := NewSolverWithCache(d, c, cache)
	is.NoErr(err)
	second.Search()

	is.Equal(first.Root().Tricks(), second.Root().Tricks())
	is.True(second.Stats().PositionsExamined < first.Stats().PositionsExamined)
	is.True(second.Stats().PrunedDuplicatePosition > 0)
}

// dealFromSignature rebuilds a position so it can be solved independently.
func dealFromSignature(t *testing.T, sig deal.Signature) *deal.Deal {
	t.Helper()
	d := deal.New(sig.Trump)
	var trick []deck.Card
	for _, idx := range sig.Trick {
		if idx >= 0 {
			trick = append(trick, deck.FromIndex(int(idx)))
		}
	}
	for seat, mask := range sig.Hands {
		var held []deck.Card
		for i := 0; i < deck.NumCards; i++ {
			if mask&(1<<uint(i)) != 0 {
				held = append(held, deck.FromIndex(i))
			}
		}
		for i, c := range trick {
			if (sig.Leader+deal.Direction(i))%deal.NumPlayers == deal.Direction(seat) {
				held = append(held, c)
			}
		}
		d.SetHand(deal.Direction(seat), held...)
	}
	if err := d.SetNextToPlay(sig.Leader); err != nil {
		t.Fatal(err)
	}
	for _, c := range trick {
		if err := d.Play(c); err != nil {
			t.Fatal(err)
		}
	}
	d.SetTricksTaken(deal.WestEast, int(sig.Tricks[deal.WestEast]))
	d.SetTricksTaken(deal.NorthSouth, int(sig.Tricks[deal.NorthSouth]))
	return d
}

func TestTranspositionSoundness(t *testing.T) {
	is := is.New(t)
	d, err := dealgen.NewSeeded(11).Random(3, deck.TrumpClubs, deal.North)
	is.NoErr(err)
	c := DefaultConfigurator()
	c.TerminateOnForcedRootMove = false
	s := newTestSolver(t, d, c)
	s.Search()
	is.True(s.Stats().PrunedDuplicatePosition > 0)

	checked := 0
	for _, bucket := range s.Cache().buckets {
		for _, e := range bucket {
			if !e.node.IsTrimmed() || e.node.IsBounded() {
				continue
			}
			pos := dealFromSignature(t, e.sig)
			is.Equal(pos.Signature(), e.sig)
			is.Equal(e.node.Tricks(), bruteForce(pos, MaxTricks))
			checked++
		}
	}
	is.True(checked > 0)
}

func TestOptimalPath(t *testing.T) {
	is := is.New(t)
	s := newTestSolver(t, twoTricks(t), nil)
	s.Search()
	path := s.OptimalPath()
	is.Equal(len(path), 8)
	is.Equal(path[0], Play{Player: deal.North, Card: card(t, "2H")})
	is.Equal(path[1].Player, deal.East)

	replay := twoTricks(t)
	for _, p := range path {
		is.Equal(replay.NextToPlay(), p.Player)
		is.NoErr(replay.Play(p.Card))
	}
	is.True(replay.IsDone())
	is.Equal(replay.TricksTaken(deal.NorthSouth), 2)
	is.True(FormatPath(path) != "")
}

// Lines that reach a position valued by its twin are followed to the end.
func TestOptimalPathThroughTwins(t *testing.T) {
	is := is.New(t)
	gen := dealgen.NewSeeded(31)
	c := DefaultConfigurator()
	c.TerminateOnForcedRootMove = false
	twins := 0
	for i := 0; i < 20; i++ {
		d, err := gen.Random(5, deck.NoTrump, deal.Directions[i%deal.NumPlayers])
		is.NoErr(err)
		s := newTestSolver(t, d, c)
		s.Search()
		twins += s.Stats().PrunedDuplicatePosition
		path := s.OptimalPath()
		is.Equal(len(path), 4*5)

		replay := d.Duplicate()
		for _, p := range path {
			is.Equal(replay.NextToPlay(), p.Player)
			is.NoErr(replay.Play(p.Card))
		}
		is.True(replay.IsDone())
		is.Equal(replay.TricksTaken(deal.WestEast), s.Root().TricksTaken(deal.WestEast))
		is.Equal(replay.TricksTaken(deal.NorthSouth), s.Root().TricksTaken(deal.NorthSouth))
	}
	is.True(twins > 0)
}

// Every resolved exact node splits the tricks of its position between the
// pairs.
func TestTrickConservationOnEveryNode(t *testing.T) {
	gen := dealgen.NewSeeded(17)
	for i := 0; i < 6; i++ {
		d, err := gen.Random(4, deck.TrumpSpades, deal.Directions[i%deal.NumPlayers])
		if err != nil {
			t.Fatal(err)
		}
		total := d.TricksPlayed() + d.TricksRemaining()
		for name, c := range configurations() {
			cfg := *c
			cfg.TerminateOnForcedRootMove = false
			s := newTestSolver(t, d, &cfg)
			s.Search()
			checked := 0
			var walk func(n *Node)
			walk = func(n *Node) {
				if n.IsTrimmed() && !n.IsBounded() && n.PruneReason() == NotPruned {
					assert.Equal(t, total, n.TricksTaken(deal.WestEast)+n.TricksTaken(deal.NorthSouth),
						"deal %d config %s node %v", i, name, n)
					checked++
				}
				for _, ch := range s.Tree().Children(n) {
					walk(ch)
				}
			}
			walk(s.Root())
			assert.Greater(t, checked, 1, "deal %d config %s", i, name)
		}
	}
}

func TestSearchTwiceResetsStats(t *testing.T) {
	is := is.New(t)
	c := DefaultConfigurator()
	c.UseDuplicateRemoval = false
	s := newTestSolver(t, twoTricks(t), c)
	s.Search()
	first := s.Stats().PositionsExamined
	s.Search()
	is.Equal(s.Stats().PositionsExamined, first)
	is.Equal(s.BestMoves(), []deck.Card{card(t, "2H")})
}
