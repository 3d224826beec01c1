package search

import (
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/ddsolve/deal"
	"github.com/domino14/ddsolve/dealgen"
	"github.com/domino14/ddsolve/deck"
)

// finished makes a trimmed child of parent worth we/ns tricks.
func finished(tr *Tree, parent *Node, we, ns int) *Node {
	c := tr.addChild(parent, len(parent.children), deck.Card{}, parent.onTurn)
	c.tricks = [deal.NumPairs]int{we, ns}
	c.trimmed = true
	c.examined = true
	return c
}

func singleSuitSolver(t *testing.T, n int) *Solver {
	t.Helper()
	d, err := dealgen.SingleSuits(n, deck.NoTrump, deal.West)
	if err != nil {
		t.Fatal(err)
	}
	s := newTestSolver(t, d, nil)
	s.tree = NewTree()
	return s
}

func TestMarkPrunedFirstReasonWins(t *testing.T) {
	is := is.New(t)
	n := &Node{}
	is.True(n.MarkPruned(PrunedSequence))
	is.True(!n.MarkPruned(PrunedAlpha))
	is.Equal(n.PruneReason(), PrunedSequence)
	is.True(!(&Node{}).MarkPruned(NotPruned))
}

func TestTrimRoot(t *testing.T) {
	is := is.New(t)
	s := singleSuitSolver(t, 2)
	root := s.tree.Root()
	root.onTurn = deal.West
	poor := finished(s.tree, root, 1, 2)
	good := finished(s.tree, root, 3, 1)

	s.Trim(root)
	is.Equal(s.tree.Children(root), []*Node{good})
	is.Equal(s.tree.Node(poor.id), nil)
	is.Equal(root.children[0], NoNode)
	is.Equal(root.TricksTaken(deal.WestEast), 3)
	is.True(root.IsTrimmed())
}

func TestCollapseRootKeepsEveryBestMove(t *testing.T) {
	is := is.New(t)
	tr := NewTree()
	root := tr.Root()
	root.onTurn = deal.North
	a := finished(tr, root, 2, 1)
	b := finished(tr, root, 1, 2)
	c := finished(tr, root, 1, 2)
	tr.collapse(root)
	is.Equal(tr.Children(root), []*Node{b, c})
	is.Equal(tr.Node(a.id), nil)
	is.Equal(root.TricksTaken(deal.NorthSouth), 2)
	is.Equal(tr.UnprunedChildCount(root), 2)
}

func TestCollapseKeepsFirstBestChild(t *testing.T) {
	is := is.New(t)
	tr := NewTree()
	root := tr.Root()
	root.onTurn = deal.North
	mid := tr.addChild(root, 0, deck.Card{}, deal.North)
	mid.onTurn = deal.East
	finished(tr, mid, 0, 3)
	first := finished(tr, mid, 2, 1)
	finished(tr, mid, 2, 1)
	tr.collapse(mid)
	is.Equal(tr.Children(mid), []*Node{first})
	is.Equal(mid.Tricks(), [deal.NumPairs]int{2, 1})
}

func TestCollapseSkipsCutChildren(t *testing.T) {
	is := is.New(t)
	tr := NewTree()
	root := tr.Root()
	root.onTurn = deal.South
	mid := tr.addChild(root, 0, deck.Card{}, deal.South)
	mid.onTurn = deal.West

	cut := tr.addChild(mid, 0, deck.Card{}, deal.West)
	cut.tricks = [deal.NumPairs]int{3, 0}
	cut.MarkPruned(PrunedAlpha)
	dup := finished(tr, mid, 2, 1)
	dup.MarkPruned(PrunedDuplicatePosition)
	plain := finished(tr, mid, 1, 2)

	is.True(tr.CanFinalize(mid))
	tr.collapse(mid)
	is.Equal(tr.Children(mid), []*Node{dup})
	is.Equal(tr.Node(plain.id), nil)
	is.Equal(mid.Tricks(), [deal.NumPairs]int{2, 1})
}

func TestCollapseWithoutValuedChildren(t *testing.T) {
	is := is.New(t)
	tr := NewTree()
	root := tr.Root()
	root.onTurn = deal.South
	root.tricks = [deal.NumPairs]int{1, 1}
	c := tr.addChild(root, 0, deck.Card{}, deal.South)
	c.MarkPruned(PrunedSequence)
	tr.collapse(root)
	is.Equal(root.Tricks(), [deal.NumPairs]int{1, 1})
	is.Equal(tr.Children(root), []*Node{c})
}

func TestCollapsePropagatesBound(t *testing.T) {
	is := is.New(t)
	tr := NewTree()
	root := tr.Root()
	root.onTurn = deal.South
	mid := tr.addChild(root, 0, deck.Card{}, deal.South)
	mid.onTurn = deal.West
	b := finished(tr, mid, 2, 0)
	b.bounded = true
	finished(tr, mid, 1, 1)
	tr.collapse(mid)
	is.True(mid.IsBounded())
}

func TestLastChildCallsParentTrim(t *testing.T) {
	is := is.New(t)
	s := singleSuitSolver(t, 2)
	s.strategies = nil
	root := s.tree.Root()
	root.onTurn = deal.West
	root.examined = true
	mid := s.tree.addChild(root, 0, deck.Card{}, deal.West)
	mid.onTurn = deal.North
	mid.examined = true
	c1 := s.tree.addChild(mid, 0, deck.Card{}, deal.North)
	c2 := s.tree.addChild(mid, 1, deck.Card{}, deal.North)

	c1.tricks = [deal.NumPairs]int{1, 1}
	s.Trim(c1)
	is.True(c1.IsTrimmed())
	is.True(!mid.IsTrimmed())

	c2.tricks = [deal.NumPairs]int{0, 2}
	s.Trim(c2)
	is.True(mid.IsTrimmed())
	is.True(root.IsTrimmed())
	is.Equal(root.TricksTaken(deal.NorthSouth), 2)
	is.Equal(s.tree.Children(mid), []*Node{c2})
}

func TestTrimWithUnresolvedChildPanics(t *testing.T) {
	s := singleSuitSolver(t, 2)
	root := s.tree.Root()
	s.tree.addChild(root, 0, deck.Card{}, deal.West)
	assert.Panics(t, func() { s.Trim(root) })
}

func TestExaminePositionSetsNextToPlay(t *testing.T) {
	is := is.New(t)
	d, err := dealgen.SingleSuits(2, deck.NoTrump, deal.South)
	is.NoErr(err)
	s := newTestSolver(t, d, nil)
	s.tree = NewTree()
	root := s.tree.Root()
	s.ExaminePosition(root)
	is.Equal(root.OnTurn(), deal.South)
	is.Equal(len(s.tree.Children(root)), 2)
	// AC and KC touch, so only the ace is searched and the root is forced.
	is.True(s.forcedRoot)
	is.Equal(s.tree.UnprunedChildCount(root), 1)
}

func TestExaminePositionPushesChildren(t *testing.T) {
	is := is.New(t)
	d := deal.New(deck.NoTrump)
	is.NoErr(d.SetHandSuits(deal.West, "3,10"))
	is.NoErr(d.SetHandSuits(deal.North, "2,9"))
	is.NoErr(d.SetHandSuits(deal.South, "A,5"))
	is.NoErr(d.SetHandSuits(deal.East, "K,7"))
	is.NoErr(d.SetNextToPlay(deal.South))
	s := newTestSolver(t, d, nil)
	s.tree = NewTree()
	root := s.tree.Root()
	s.ExaminePosition(root)
	children := s.tree.Children(root)
	is.Equal(len(children), 2)
	// The first legal move is on top of the stack.
	is.Equal(s.stack, []NodeID{children[1].id, children[0].id})
}

func TestLastTrickAutoExpands(t *testing.T) {
	is := is.New(t)
	s := singleSuitSolver(t, 1)
	root := s.tree.Root()
	s.ExaminePosition(root)
	is.Equal(len(root.children), 0)
	is.Equal(len(s.stack), 0)
	is.True(root.IsLeaf())
	is.Equal(root.TricksTaken(deal.WestEast), 1)
}

func TestPrunedAncestorNoEvaluation(t *testing.T) {
	is := is.New(t)
	s := singleSuitSolver(t, 2)
	root := s.tree.Root()
	root.MarkPruned(PrunedAlpha)
	child := s.tree.addChild(root, 0, deck.Card{}, deal.West)
	grandChild := s.tree.addChild(child, 0, deck.Card{}, deal.North)

	s.ExaminePosition(child)
	s.ExaminePosition(grandChild)
	is.True(!child.examined)
	is.True(!grandChild.examined)
	is.Equal(len(grandChild.children), 0)
	is.Equal(child.Position(), nil)
}

func TestParentCycleIsFatal(t *testing.T) {
	s := singleSuitSolver(t, 2)
	root := s.tree.Root()
	a := s.tree.addChild(root, 0, deck.Card{}, deal.West)
	b := s.tree.addChild(a, 0, deck.Card{}, deal.North)
	a.parent = b.id
	assert.Panics(t, func() { s.ExaminePosition(b) })
}

func TestDoNotExpandBeyondTrickLimit(t *testing.T) {
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
	s.tree = NewTree()

	n := s.tree.Root()
	n.examined = true
	n.position = d.Duplicate()
	for i := 0; i < 4; i++ {
		n = s.tree.addChild(n, 0, deck.Card{}, deal.South)
	}
	s.ExaminePosition(n)
	is.True(n.IsLeaf())
	is.Equal(len(n.children), 0)
}

func TestSequenceSiblings(t *testing.T) {
	is := is.New(t)
	d := deal.New(deck.NoTrump)
	is.NoErr(d.SetHandSuits(deal.West, "A,K,Q,5", "3"))
	is.NoErr(d.SetHandSuits(deal.North, "2,3,4,6,7"))
	is.NoErr(d.SetHandSuits(deal.East, "", "A,K,Q,J,10"))
	is.NoErr(d.SetHandSuits(deal.South, "", "", "A,K,Q,J,10"))
	s := newTestSolver(t, d, nil)
	s.tree = NewTree()
	root := s.tree.Root()
	s.ExaminePosition(root)

	var kept []deck.Card
	for _, c := range s.tree.Children(root) {
		if !c.IsPruned() {
			kept = append(kept, c.card)
		}
	}
	is.Equal(kept, cards(t, "AS 5S 3H"))
	is.Equal(s.stats.PrunedSequence, 2)
}

func TestMovesPath(t *testing.T) {
	is := is.New(t)
	tr := NewTree()
	root := tr.Root()
	a := tr.addChild(root, 1, deck.Card{}, deal.West)
	b := tr.addChild(a, 0, deck.Card{}, deal.North)
	c := tr.addChild(b, 2, deck.Card{}, deal.East)
	is.Equal(tr.Moves(c), []int{1, 0, 2})
	is.Equal(len(tr.Moves(root)), 0)
}
