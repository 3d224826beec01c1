package search

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/domino14/ddsolve/deal"
	"github.com/domino14/ddsolve/deck"
)

// Play is one card of the optimal line.
type Play struct {
	Player deal.Direction `yaml:"player"`
	Card   deck.Card      `yaml:"card"`
}

func (p Play) String() string {
	return p.Player.String()[:1] + ":" + p.Card.String()
}

// OptimalPath follows the retained children from the root. When the root
// kept several equal moves the first one is followed. A node whose value
// was copied from a twin has no subtree of its own, so the line is
// continued by solving that position again against the same cache. A
// final trick that was played out automatically is appended.
func (s *Solver) OptimalPath() []Play {
	if s.tree == nil {
		return nil
	}
	var path []Play
	pos := s.initial.Duplicate()
	cur := s.tree.Root()
	for {
		next := s.firstRetained(cur)
		if next == nil {
			break
		}
		if err := pos.Play(next.card); err != nil {
			panic(fmt.Sprintf("optimal path: %v", err))
		}
		path = append(path, Play{Player: next.player, Card: next.card})
		cur = next
	}
	if cur.twin != nil {
		return append(path, s.continuation(pos)...)
	}
	if pos.TricksPlayed() < s.cfg.MaxTricks && pos.OneTrickLeft() {
		for !pos.IsDone() {
			player := pos.NextToPlay()
			c := pos.LegalMoves()[0]
			if err := pos.Play(c); err != nil {
				panic(fmt.Sprintf("optimal path: %v", err))
			}
			path = append(path, Play{Player: player, Card: c})
		}
	}
	return path
}

// continuation solves pos, reached at a twin, and returns its line. Most
// of its positions are already in the cache.
func (s *Solver) continuation(pos *deal.Deal) []Play {
	cfg := s.cfg
	cfg.TerminateOnForcedRootMove = false
	sub, err := NewSolverWithCache(pos, &cfg, s.cache)
	if err != nil {
		panic(fmt.Sprintf("optimal path: %v", err))
	}
	sub.Search()
	return sub.OptimalPath()
}

func (s *Solver) firstRetained(n *Node) *Node {
	for _, c := range s.tree.Children(n) {
		if c.valued() {
			return c
		}
	}
	return nil
}

// FormatPath renders a line as space-separated plays.
func FormatPath(path []Play) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ")
}

// LogStats logs the statistics and result of the last search.
func (s *Solver) LogStats() {
	root := s.Root()
	if root == nil {
		return
	}
	kind := "unpruned"
	if len(s.strategies) > 0 {
		kind = "pruned"
	}
	log.Info().
		Str("search", kind).
		Object("stats", s.stats).
		Int("we-tricks", root.tricks[deal.WestEast]).
		Int("ns-tricks", root.tricks[deal.NorthSouth]).
		Msg("search-stats")
}
