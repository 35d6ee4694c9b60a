package mcts

import (
	"math"

	"github.com/domino14/mcts2048/game"
)

// treePolicy walks from idx to the node that should be simulated next,
// expanding the tree by one node when it finds room. Call with s.mu held.
func (s *Solver) treePolicy(idx nodeIndex, rng game.Rand) nodeIndex {
	for {
		n := &s.arena.nodes[idx]
		if n.game.IsGameFinish() || n.visit < s.params.ExpandThreshold {
			return idx
		}
		if s.preExpand(idx, rng) {
			return s.expand(idx)
		}
		next := s.bestChild(idx, s.params.ExplorationConstant)
		if next == nilNode {
			return idx
		}
		idx = next
	}
}

// preExpand moves a random untried action to the tail of the list, where
// expand will find it. It reports whether any untried action is left.
func (s *Solver) preExpand(idx nodeIndex, rng game.Rand) bool {
	untried := s.arena.nodes[idx].untried
	if len(untried) == 0 {
		return false
	}
	last := len(untried) - 1
	i := rng.Intn(len(untried))
	untried[i], untried[last] = untried[last], untried[i]
	return true
}

// expand pops the last untried action of idx and adds the child it leads
// to.
func (s *Solver) expand(idx nodeIndex) nodeIndex {
	child := s.arena.newNode(idx)
	// newNode may have grown the arena.
	parent := &s.arena.nodes[idx]
	last := len(parent.untried) - 1
	action := parent.untried[last]
	parent.untried = parent.untried[:last]
	parent.children = append(parent.children, child)

	cn := &s.arena.nodes[child]
	cn.game.CopyFrom(&parent.game)
	cn.action = action
	cn.mover = parent.game.Side()
	cn.game.Move(action)
	cn.untried = cn.game.AppendValidActions(cn.untried[:0])
	return child
}

// bestChild returns the child of idx with the highest UCB1 score for
// exploration constant c, or nilNode if idx has no children. With c == 0
// this is a pure win-rate pick.
func (s *Solver) bestChild(idx nodeIndex, c float64) nodeIndex {
	n := &s.arena.nodes[idx]
	parentFactor := 0.0
	if c != 0 && n.visit > 0 {
		parentFactor = c * sqrtLog(n.visit)
	}
	best := nilNode
	bestScore := -1.0
	for _, child := range n.children {
		score := s.arena.nodes[child].score(parentFactor)
		if score > bestScore {
			bestScore = score
			best = child
		}
	}
	return best
}

func sqrtLog(visit int) float64 {
	return math.Sqrt(math.Log(float64(visit)))
}

// defaultPolicy plays g out with cheap rollout moves and returns a reward
// for the player. g is the worker's private copy and is consumed. A game
// that ends, won or lost, scores the finish score of steps/budget.
//
// Once the rollout passes its step budget it is no longer played to the
// end: every further step is scored with the fast-stop score, and after
// FastStopEstimateCount more steps the best of those scores is returned.
func (s *Solver) defaultPolicy(g *game.Game, rng game.Rand) float64 {
	startTurn := g.Turn()
	budget := s.fastStopStepsFor(startTurn)

	steps := 0
	estimates := 0
	best := 0.0
	for !g.IsGameFinish() {
		g.Move(g.NextMove(rng))
		steps++
		if steps <= budget {
			continue
		}
		best = math.Max(best, g.CalcFastStopScore())
		estimates++
		if estimates > s.params.FastStopEstimateCount {
			s.fastStopCount.Add(1)
			s.fastStopSteps.Add(uint64(g.Turn() - startTurn))
			return best
		}
	}
	return g.CalcFinishScore(float64(steps) / float64(budget))
}

// backpropagate adds reward to every node from idx up to the root. Call
// with s.mu held.
func (s *Solver) backpropagate(idx nodeIndex, reward float64) {
	s.rewardStats.Push(reward)
	for idx != nilNode {
		n := &s.arena.nodes[idx]
		n.update(reward, s.rootSide)
		idx = n.parent
	}
}
