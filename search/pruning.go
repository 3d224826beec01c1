package search

// PruningStrategy runs after a node's value is collapsed and before the
// node is marked trimmed. A strategy may prune further nodes but must not
// change any value.
type PruningStrategy interface {
	Name() string
	Prune(s *Solver, n *Node)
}

// AlphaPruning cuts a node's remaining moves once a choice of the root
// player's side above it is already known to be better.
type AlphaPruning struct{}

func (AlphaPruning) Name() string { return "alpha" }

func (AlphaPruning) Prune(s *Solver, n *Node) {
	shallowCutoff(s, n, PrunedAlpha)
}

// BetaPruning is the same cut-off seen from the defending side.
type BetaPruning struct{}

func (BetaPruning) Name() string { return "beta" }

func (BetaPruning) Prune(s *Solver, n *Node) {
	shallowCutoff(s, n, PrunedBeta)
}

// PlayedSequencePruning is registered by the played-sequence toggle. It
// does nothing yet.
// TODO: treat cards as touching when every rank between them has already
// been played, and prune like sequence siblings.
type PlayedSequencePruning struct{}

func (PlayedSequencePruning) Name() string { return "played-sequence" }

func (PlayedSequencePruning) Prune(s *Solver, n *Node) {}

// shallowCutoff looks at c's grandparent g. If the pair choosing at g is
// not the pair choosing at c's parent p, then p can only be worth less to
// g's pair than c is. When that is already below what g has secured from
// an exact, finished child, p's unexplored moves cannot matter.
//
// Only unexamined stubs are cut. Siblings of c are resolved in move order,
// so any sibling still a stub comes after c.
func shallowCutoff(s *Solver, c *Node, reason PruneReason) {
	if c.bounded {
		// c's value for g's pair is only a lower bound.
		return
	}
	t := s.tree
	p := t.Parent(c)
	if p == nil {
		return
	}
	g := t.Parent(p)
	if g == nil {
		return
	}
	gPair := g.onTurn.Pair()
	if p.onTurn.Pair() == gPair {
		return
	}
	want := PrunedBeta
	if gPair == t.Root().onTurn.Pair() {
		want = PrunedAlpha
	}
	if want != reason {
		return
	}
	secured, ok := -1, false
	for _, sib := range t.Children(g) {
		if sib == p || !sib.valued() || sib.bounded {
			continue
		}
		if !ok || sib.tricks[gPair] > secured {
			secured, ok = sib.tricks[gPair], true
		}
	}
	if !ok || c.tricks[gPair] >= secured {
		return
	}
	cut := false
	for _, stub := range t.Children(p) {
		if stub == c || stub.examined || stub.IsPruned() {
			continue
		}
		if s.markPruned(stub, reason) {
			cut = true
		}
	}
	if cut {
		p.bounded = true
	}
}
