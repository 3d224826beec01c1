package search

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/domino14/ddsolve/deal"
	"github.com/domino14/ddsolve/deck"
)

// PruneReason records why a node was cut from the search. A node is pruned
// at most once; the first reason sticks.
type PruneReason uint8

const (
	NotPruned PruneReason = iota
	PrunedAlpha
	PrunedBeta
	PrunedSequence
	PrunedPlayedSequence
	PrunedDuplicatePosition

	numPruneReasons
)

func (r PruneReason) String() string {
	switch r {
	case NotPruned:
		return "none"
	case PrunedAlpha:
		return "alpha"
	case PrunedBeta:
		return "beta"
	case PrunedSequence:
		return "sequence"
	case PrunedPlayedSequence:
		return "played-sequence"
	case PrunedDuplicatePosition:
		return "duplicate-position"
	}
	return fmt.Sprintf("PruneReason(%d)", uint8(r))
}

// NodeID addresses a node inside its Tree.
type NodeID int32

// NoNode marks an absent parent or a released child.
const NoNode NodeID = -1

// Node is one ply of the search: the card a player chose and, once
// examined, the resulting position and its value.
type Node struct {
	id       NodeID
	parent   NodeID
	children []NodeID

	card   deck.Card
	player deal.Direction
	// move is the index of card in the parent's legal moves.
	move int

	position *deal.Deal
	onTurn   deal.Direction
	tricks   [deal.NumPairs]int

	pruned PruneReason
	twin   *Node

	examined bool
	leaf     bool
	trimmed  bool
	// bounded is set when the value came from a cut-off subtree and is
	// therefore not exact.
	bounded bool

	// forced is the card the root's player had to play when the root
	// position was already the final trick.
	forced    deck.Card
	hasForced bool
}

func (n *Node) ID() NodeID {
	return n.id
}

func (n *Node) IsRoot() bool {
	return n.parent == NoNode
}

// Card returns the card played to reach this node; false at the root.
func (n *Node) Card() (deck.Card, bool) {
	return n.card, !n.IsRoot()
}

// Player is the seat that played Card.
func (n *Node) Player() deal.Direction {
	return n.player
}

// OnTurn is the seat to act in this node's position. Valid once examined.
func (n *Node) OnTurn() deal.Direction {
	return n.onTurn
}

// Position is the deal after this node's move. It is nil until the node is
// examined, and is dropped again once a non-root node is trimmed.
func (n *Node) Position() *deal.Deal {
	return n.position
}

func (n *Node) TricksTaken(p deal.Pair) int {
	return n.tricks[p]
}

func (n *Node) Tricks() [deal.NumPairs]int {
	return n.tricks
}

func (n *Node) PruneReason() PruneReason {
	return n.pruned
}

func (n *Node) IsPruned() bool {
	return n.pruned != NotPruned
}

// Twin is the earlier node that reached the same position, if any.
func (n *Node) Twin() *Node {
	return n.twin
}

func (n *Node) IsLeaf() bool {
	return n.leaf
}

func (n *Node) IsTrimmed() bool {
	return n.trimmed
}

func (n *Node) IsBounded() bool {
	return n.bounded
}

// MarkPruned prunes the node for reason r and reports whether it took
// effect. Later calls are ignored.
func (n *Node) MarkPruned(r PruneReason) bool {
	if n.pruned != NotPruned || r == NotPruned {
		return false
	}
	n.pruned = r
	return true
}

// valued reports whether the node holds a value its parent may choose.
// Duplicate-position prunes carry their twin's value.
func (n *Node) valued() bool {
	return n.trimmed && (n.pruned == NotPruned || n.pruned == PrunedDuplicatePosition)
}

func (n *Node) String() string {
	if n.IsRoot() {
		return fmt.Sprintf("root (WE %d, NS %d)", n.tricks[deal.WestEast], n.tricks[deal.NorthSouth])
	}
	return fmt.Sprintf("%v plays %v (WE %d, NS %d)", n.player, n.card,
		n.tricks[deal.WestEast], n.tricks[deal.NorthSouth])
}

// Tree is the arena holding every node of one search.
type Tree struct {
	nodes    []*Node
	released int
}

func NewTree() *Tree {
	t := &Tree{}
	t.newNode(NoNode)
	return t
}

func (t *Tree) newNode(parent NodeID) *Node {
	n := &Node{id: NodeID(len(t.nodes)), parent: parent, move: -1}
	t.nodes = append(t.nodes, n)
	if parent != NoNode {
		p := t.nodes[parent]
		p.children = append(p.children, n.id)
	}
	return n
}

// addChild creates the stub for parent's i-th legal move.
func (t *Tree) addChild(parent *Node, move int, c deck.Card, player deal.Direction) *Node {
	n := t.newNode(parent.id)
	n.move = move
	n.card = c
	n.player = player
	return n
}

// Node returns the node with the given ID, or nil when it was released.
func (t *Tree) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

func (t *Tree) Root() *Node {
	return t.nodes[0]
}

func (t *Tree) Parent(n *Node) *Node {
	return t.Node(n.parent)
}

// Children returns the children that have not been released, in move
// generation order.
func (t *Tree) Children(n *Node) []*Node {
	out := make([]*Node, 0, len(n.children))
	for _, id := range n.children {
		if c := t.Node(id); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Size is the number of nodes ever created in this tree.
func (t *Tree) Size() int {
	return len(t.nodes)
}

// Live is the number of nodes that have not been released.
func (t *Tree) Live() int {
	return len(t.nodes) - t.released
}

func (t *Tree) UnprunedChildCount(n *Node) int {
	return lo.CountBy(t.Children(n), func(c *Node) bool { return !c.IsPruned() })
}

// CanFinalize reports whether every child of n is released, pruned or
// trimmed, so n's value can be computed.
func (t *Tree) CanFinalize(n *Node) bool {
	for _, c := range t.Children(n) {
		if !c.IsPruned() && !c.trimmed {
			return false
		}
	}
	return true
}

// Moves returns the legal-move indices leading from the root to n.
func (t *Tree) Moves(n *Node) []int {
	var moves []int
	for cur := n; cur != nil && !cur.IsRoot(); cur = t.Parent(cur) {
		moves = append(moves, cur.move)
	}
	return lo.Reverse(moves)
}

// collapse keeps the children that determine n's value and releases the
// rest. The root keeps every child that is best for its player's pair;
// any other node keeps the first best child in move order. A node with no
// valued children keeps its current value.
func (t *Tree) collapse(n *Node) {
	children := t.Children(n)
	if n.IsPruned() {
		for _, c := range children {
			t.release(n, c)
		}
		return
	}
	valued := lo.Filter(children, func(c *Node, _ int) bool { return c.valued() })
	if len(valued) == 0 {
		return
	}
	pair := n.onTurn.Pair()
	best := lo.MaxBy(valued, func(a, b *Node) bool { return a.tricks[pair] > b.tricks[pair] })

	var keep []*Node
	if n.IsRoot() {
		keep = lo.Filter(valued, func(c *Node, _ int) bool { return c.tricks[pair] == best.tricks[pair] })
	} else {
		keep = []*Node{best}
	}
	for _, c := range children {
		if !lo.Contains(keep, c) {
			t.release(n, c)
		}
	}
	n.tricks = best.tricks
	if lo.SomeBy(keep, func(c *Node) bool { return c.bounded }) {
		n.bounded = true
	}
}

// release detaches child c from n and drops its subtree from the arena.
func (t *Tree) release(n, c *Node) {
	for i, id := range n.children {
		if id == c.id {
			n.children[i] = NoNode
		}
	}
	stack := []NodeID{c.id}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := t.Node(id)
		if node == nil {
			continue
		}
		stack = append(stack, node.children...)
		t.nodes[id] = nil
		t.released++
	}
}
