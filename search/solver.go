// Package search is a double-dummy solver. It expands the complete tree of
// legal card plays with an explicit stack and folds trick counts back up
// the tree as subtrees finish, so every node ends up with the number of
// tricks each pair takes under best play from there.
package search

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/ddsolve/deal"
	"github.com/domino14/ddsolve/deck"
)

// DefaultCacheMemoryFraction is the share of system memory a solver's own
// position cache may grow to.
const DefaultCacheMemoryFraction = 0.25

var ErrNilDeal = errors.New("solver needs a deal")

// Solver finds optimal play for one deal. It is not safe for concurrent
// use; run one solver per goroutine.
type Solver struct {
	initial    *deal.Deal
	cfg        Configurator
	strategies []PruningStrategy
	cache      *PositionCache

	tree       *Tree
	stack      []NodeID
	stats      Stats
	forcedRoot bool
}

// NewSolver builds a solver with its own position cache.
func NewSolver(d *deal.Deal, c *Configurator) (*Solver, error) {
	return NewSolverWithCache(d, c, nil)
}

// NewSolverWithCache builds a solver that records positions in cache. The
// cache is never cleared by the solver, so a second search (by this or any
// other solver sharing the cache) reuses values found earlier. Only share a
// cache between solvers with the same trick cap. A nil cache gets a fresh
// one. A nil configurator uses DefaultConfigurator.
func NewSolverWithCache(d *deal.Deal, c *Configurator, cache *PositionCache) (*Solver, error) {
	if d == nil {
		return nil, ErrNilDeal
	}
	if c == nil {
		c = DefaultConfigurator()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("invalid deal: %w", err)
	}
	if cache == nil {
		cache = NewPositionCache(DefaultCacheMemoryFraction)
	}
	return &Solver{
		initial:    d.Duplicate(),
		cfg:        *c,
		strategies: c.strategies(),
		cache:      cache,
	}, nil
}

// Search solves the deal. It blocks until the whole tree is resolved.
func (s *Solver) Search() {
	tstart := time.Now()
	s.stats = Stats{}
	s.forcedRoot = false
	s.tree = NewTree()
	s.stack = append(s.stack[:0], s.tree.Root().id)

	log.Debug().
		Int("max-tricks", s.cfg.MaxTricks).
		Bool("duplicate-removal", s.cfg.UseDuplicateRemoval).
		Bool("prune-sequence", s.cfg.PruneSequenceSiblings).
		Bool("terminate-forced-root", s.cfg.TerminateOnForcedRootMove).
		Strs("strategies", strategyNames(s.strategies)).
		Str("leader", s.initial.NextToPlay().String()).
		Str("trump", s.initial.Trump().String()).
		Msg("search-config")

	for len(s.stack) > 0 {
		id := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
		n := s.tree.Node(id)
		if n == nil {
			// released along with a cut-off parent
			continue
		}
		s.ExaminePosition(n)
		s.collectStats(n)
	}
	s.stats.Elapsed = time.Since(tstart)
	s.stats.TreeSize = s.tree.Size()
	s.stats.Cache = s.cache.Stats()

	root := s.tree.Root()
	log.Info().
		Object("stats", s.stats).
		Int("we-tricks", root.tricks[deal.WestEast]).
		Int("ns-tricks", root.tricks[deal.NorthSouth]).
		Bool("forced-root", s.forcedRoot).
		Msg("solve-returning")
}

// ExaminePosition computes n's position and either values it as a leaf or
// expands it into one child per legal move.
func (s *Solver) ExaminePosition(n *Node) {
	if s.prunedInChain(n) {
		return
	}
	pos := s.positionFor(n)
	n.position = pos
	n.examined = true
	n.onTurn = pos.NextToPlay()

	if pos.TricksPlayed() < s.cfg.MaxTricks && pos.OneTrickLeft() {
		if n.IsRoot() {
			n.forced = pos.LegalMoves()[0]
			n.hasForced = true
		}
		playOut(pos)
	}

	if s.cfg.UseDuplicateRemoval && !n.IsRoot() {
		if twin, seen := s.cache.RecordIfNew(n, pos); seen {
			if twin.trimmed && !twin.bounded {
				n.twin = twin
				s.markPruned(n, PrunedDuplicatePosition)
			} else {
				s.cache.markUnusable()
			}
		}
	}

	if n.twin != nil || pos.IsDone() || pos.TricksPlayed() >= s.cfg.MaxTricks {
		n.leaf = true
		if n.twin != nil {
			n.tricks = n.twin.tricks
		} else {
			n.tricks = [deal.NumPairs]int{
				pos.TricksTaken(deal.WestEast),
				pos.TricksTaken(deal.NorthSouth),
			}
		}
		s.Trim(n)
		return
	}

	for i, c := range pos.LegalMoves() {
		s.tree.addChild(n, i, c, n.onTurn)
	}
	children := s.tree.Children(n)
	if s.cfg.PruneSequenceSiblings {
		for _, c := range children {
			s.removeSiblingsInSequence(c)
		}
	}
	if n.IsRoot() && s.cfg.TerminateOnForcedRootMove && s.tree.UnprunedChildCount(n) == 1 {
		s.forcedRoot = true
		return
	}
	// Push in reverse so siblings are examined in move order.
	for i := len(children) - 1; i >= 0; i-- {
		if !children[i].IsPruned() {
			s.stack = append(s.stack, children[i].id)
		}
	}
}

// Trim finalizes n and walks up the tree finalizing every ancestor whose
// children are now all resolved.
func (s *Solver) Trim(n *Node) {
	for _, c := range s.tree.Children(n) {
		if !c.IsPruned() && !c.trimmed {
			panic(fmt.Sprintf("trim of node %d with unresolved child %d", n.id, c.id))
		}
	}
	for cur := n; cur != nil; {
		s.tree.collapse(cur)
		for _, st := range s.strategies {
			st.Prune(s, cur)
		}
		cur.trimmed = true
		if !cur.IsRoot() {
			cur.position = nil
		}
		p := s.tree.Parent(cur)
		if p == nil || p.trimmed || !s.tree.CanFinalize(p) {
			return
		}
		cur = p
	}
}

// removeSiblingsInSequence prunes c when its player also holds the card
// one rank higher in the same suit; both lead to the same result.
func (s *Solver) removeSiblingsInSequence(c *Node) {
	for _, sib := range s.tree.Children(s.tree.Parent(c)) {
		if sib.card.Suit == c.card.Suit && sib.card.Rank-c.card.Rank == 1 {
			s.markPruned(c, PrunedSequence)
			return
		}
	}
}

func (s *Solver) markPruned(n *Node, r PruneReason) bool {
	if !n.MarkPruned(r) {
		return false
	}
	s.stats.count(r)
	return true
}

func (s *Solver) collectStats(n *Node) {
	s.stats.PositionsExamined++
}

// prunedInChain reports whether n or any ancestor is pruned. A parent
// chain longer than the tree means the tree is corrupt.
func (s *Solver) prunedInChain(n *Node) bool {
	limit := s.tree.Size()
	for cur := n; cur != nil; cur = s.tree.Parent(cur) {
		if cur.IsPruned() {
			return true
		}
		limit--
		if limit < 0 {
			panic(fmt.Sprintf("cycle in parent chain of node %d", n.id))
		}
	}
	return false
}

func (s *Solver) positionFor(n *Node) *deal.Deal {
	if p := s.tree.Parent(n); p != nil && p.position != nil {
		pos := p.position.Duplicate()
		if err := pos.DoNextCard(n.move); err != nil {
			panic(fmt.Sprintf("node %d: %v", n.id, err))
		}
		return pos
	}
	pos := s.initial.Duplicate()
	if err := pos.PlayMoves(s.tree.Moves(n)); err != nil {
		panic(fmt.Sprintf("node %d: %v", n.id, err))
	}
	return pos
}

// playOut plays the final trick, where every card is forced.
func playOut(pos *deal.Deal) {
	for !pos.IsDone() {
		if err := pos.DoNextCard(0); err != nil {
			panic(err)
		}
	}
}

// BestMoves returns the optimal cards for the player on turn at the root.
// Every card that achieves the best result is listed, in hand order.
func (s *Solver) BestMoves() []deck.Card {
	if s.tree == nil {
		return nil
	}
	root := s.tree.Root()
	if root.hasForced {
		return []deck.Card{root.forced}
	}
	var out []deck.Card
	for _, c := range s.tree.Children(root) {
		if c.pruned == NotPruned || c.pruned == PrunedDuplicatePosition {
			out = append(out, c.card)
		}
	}
	return out
}

// Root returns the root of the last search, or nil before the first.
func (s *Solver) Root() *Node {
	if s.tree == nil {
		return nil
	}
	return s.tree.Root()
}

func (s *Solver) Tree() *Tree {
	return s.tree
}

func (s *Solver) Stats() Stats {
	return s.stats
}

// ForcedRoot reports whether the last search stopped at the root because
// only one card was worth considering.
func (s *Solver) ForcedRoot() bool {
	return s.forcedRoot
}

func (s *Solver) Cache() *PositionCache {
	return s.cache
}

func (s *Solver) Deal() *deal.Deal {
	return s.initial
}

func strategyNames(ps []PruningStrategy) []string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name()
	}
	return names
}
