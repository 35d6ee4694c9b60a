package mcts

import (
	"math"

	"github.com/domino14/mcts2048/game"
)

// nodeIndex addresses a node in the arena.
type nodeIndex int32

const nilNode nodeIndex = -1

type treeNode struct {
	// game is the position reached by playing action from the parent's
	// position. Its storage is reused when the node is recycled.
	game game.Game
	// action is the edge from the parent, mover the side that played it.
	action game.Action
	mover  game.Side

	parent   nodeIndex
	children []nodeIndex
	// untried holds actions not yet expanded into children. Expansion pops
	// from the tail after swapping a random entry there.
	untried []game.Action

	visit int
	// value is the sum of rollout rewards, always from the player's point
	// of view.
	value float64
	// winRate and expandFactor are kept up to date on every backup so
	// selection only has to do a multiply-add per child.
	winRate      float64
	expandFactor float64
}

func (n *treeNode) reset() {
	n.action = 0
	n.mover = 0
	n.parent = nilNode
	n.children = n.children[:0]
	n.untried = n.untried[:0]
	n.visit = 0
	n.value = 0
	n.winRate = 0
	n.expandFactor = 0
}

// score is the UCB1 score of the node; parentFactor is
// c * sqrt(ln(parent visits)).
func (n *treeNode) score(parentFactor float64) float64 {
	return n.winRate + n.expandFactor*parentFactor
}

// flipsPerspective reports whether a node's win rate is stored as
// 1 - reward. A node's value is judged by the side choosing at its parent,
// which is the root's opponent when the node has the root's side to move.
func flipsPerspective(nodeSide, rootSide game.Side) bool {
	return nodeSide == rootSide
}

// update records one more rollout through the node.
func (n *treeNode) update(reward float64, rootSide game.Side) {
	n.visit++
	n.value += reward
	n.expandFactor = math.Sqrt(1 / float64(n.visit))
	n.winRate = n.value / float64(n.visit)
	if flipsPerspective(n.game.Side(), rootSide) {
		n.winRate = 1 - n.winRate
	}
}

// nodeArena owns every node of every search tree. Nodes refer to each
// other by index, and recycled slots are kept on a free list so later
// searches reuse both the slot and its buffers.
// Pointers into nodes are invalidated by newNode; do not hold one across
// a call to it.
type nodeArena struct {
	nodes []treeNode
	free  []nodeIndex
}

func (a *nodeArena) newNode(parent nodeIndex) nodeIndex {
	if n := len(a.free); n > 0 {
		idx := a.free[n-1]
		a.free = a.free[:n-1]
		a.nodes[idx].parent = parent
		return idx
	}
	a.nodes = append(a.nodes, treeNode{
		parent:   parent,
		children: make([]nodeIndex, 0, 4),
		untried:  make([]game.Action, 0, game.MaxActions),
	})
	return nodeIndex(len(a.nodes) - 1)
}

func (a *nodeArena) recycle(idx nodeIndex) {
	a.nodes[idx].reset()
	a.free = append(a.free, idx)
}

// clear recycles a whole tree, children before parents.
func (a *nodeArena) clear(idx nodeIndex) {
	if idx == nilNode {
		return
	}
	for _, child := range a.nodes[idx].children {
		a.clear(child)
	}
	a.recycle(idx)
}

// inUse is the number of nodes not on the free list.
func (a *nodeArena) inUse() int {
	return len(a.nodes) - len(a.free)
}
