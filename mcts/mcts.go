// Package mcts implements a Monte-Carlo Tree Search player for 2048.
// The game is treated as two-sided: the player slides tiles and an
// adversarial spawner places new ones. No evaluation heuristic is used
// beyond the rollout reward, with some minor modifications to plain MCTS:
//  1. Rollouts do not pick uniformly random moves. The player takes the
//     first legal direction of a random priority order, and the spawner
//     favours 4s on crowded boards.
//  2. Rollouts are truncated. Once a rollout runs past a step budget, its
//     position is scored by how much room is left on the board, a few
//     more steps are sampled, and the best of those scores is kept.
//
// Several worker goroutines share one tree. Selection, expansion and
// backup hold a single lock; rollouts run outside it on private copies of
// the game. Nodes live in an arena and are recycled between searches.
package mcts

import (
	"context"
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/domino14/mcts2048/config"
	"github.com/domino14/mcts2048/game"
	"github.com/domino14/mcts2048/stats"
)

// MaxThreads caps the number of search workers.
const MaxThreads = 64

var (
	ErrGameFinished   = errors.New("game is already finished")
	ErrNotPlayerTurn  = errors.New("search only plays for the player")
	ErrNoLegalActions = errors.New("no legal actions at the root")
)

// Params tunes the search.
type Params struct {
	// ExplorationConstant is the UCB1 constant c.
	ExplorationConstant float64
	// The time budget moves from SearchTimeMin towards SearchTimeMax as
	// the board fills up late in the game.
	SearchTimeMin time.Duration
	SearchTimeMax time.Duration
	// ExpandThreshold is the number of visits a node takes before it gets
	// children.
	ExpandThreshold int
	// FastStopEstimateCount is how many extra scores are sampled once a
	// rollout passes its step budget.
	FastStopEstimateCount int
	// Rollout step budgets shrink from FastStopStepsMax to
	// FastStopStepsMin as the game gets longer.
	FastStopStepsMin int
	FastStopStepsMax int
}

// DefaultParams returns the tuning the engine ships with.
func DefaultParams() Params {
	return Params{
		ExplorationConstant:   1.0,
		SearchTimeMin:         50 * time.Millisecond,
		SearchTimeMax:         200 * time.Millisecond,
		ExpandThreshold:       1,
		FastStopEstimateCount: 4,
		FastStopStepsMin:      100,
		FastStopStepsMax:      400,
	}
}

// ParamsFromConfig reads the search parameters out of a config.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		ExplorationConstant:   cfg.GetFloat64(config.ConfigExplorationConstant),
		SearchTimeMin:         cfg.GetDuration(config.ConfigSearchTimeMin),
		SearchTimeMax:         cfg.GetDuration(config.ConfigSearchTimeMax),
		ExpandThreshold:       cfg.GetInt(config.ConfigExpandThreshold),
		FastStopEstimateCount: cfg.GetInt(config.ConfigFastStopEstimateCount),
		FastStopStepsMin:      cfg.GetInt(config.ConfigFastStopStepsMin),
		FastStopStepsMax:      cfg.GetInt(config.ConfigFastStopStepsMax),
	}
}

// SearchStats describes the last finished search.
type SearchStats struct {
	Plan       time.Duration
	Elapsed    time.Duration
	Iterations int
	Depth      int
	WinRate    float64
	FastStops  uint64
	// FastStopSteps is the average length of a truncated rollout.
	FastStopSteps float64
	RewardMean    float64
	RewardCI95    float64
}

// Solver implements the MCTS algorithm.
type Solver struct {
	params  Params
	threads int

	// mu guards arena, root, rootSide and rewardStats while workers run.
	mu          sync.Mutex
	arena       nodeArena
	root        nodeIndex
	rootSide    game.Side
	rewardStats stats.Statistic

	fastStopCount atomic.Uint64
	fastStopSteps atomic.Uint64

	lastStats SearchStats
	logStream io.Writer
}

// NewSolver creates a solver configured from cfg.
func NewSolver(cfg *config.Config) *Solver {
	s := &Solver{}
	s.Init(cfg)
	return s
}

// Init initializes the Solver.
func (s *Solver) Init(cfg *config.Config) {
	s.params = ParamsFromConfig(cfg)
	s.root = nilNode
	threads := cfg.GetInt(config.ConfigThreads)
	if !cfg.GetBool(config.ConfigMultiThreaded) {
		threads = 1
	}
	s.SetThreads(threads)
}

func (s *Solver) SetParams(p Params) {
	s.params = p
}

func (s *Solver) Params() Params {
	return s.params
}

func (s *Solver) SetThreads(threads int) {
	s.threads = lo.Clamp(threads, 1, MaxThreads)
}

func (s *Solver) Threads() int {
	return s.threads
}

// SetLogStream makes every search write a YAML dump of its tree to l.
func (s *Solver) SetLogStream(l io.Writer) {
	s.logStream = l
}

// LastStats returns statistics about the most recent search.
func (s *Solver) LastStats() SearchStats {
	return s.lastStats
}

// Reset drops every pooled node.
func (s *Solver) Reset() {
	s.arena = nodeArena{}
	s.root = nilNode
}

// searchTime picks a budget: fuller boards late in the game get more time.
func (s *Solver) searchTime(g *game.Game) time.Duration {
	boardRatio := float64(lo.Clamp(6-g.ValidCellCount(), 1, 5)) / 5
	turnRatio := lo.Clamp((float64(g.Turn())-400)/800, 0, 1)
	r := boardRatio * turnRatio
	return time.Duration(float64(s.params.SearchTimeMax)*r + float64(s.params.SearchTimeMin)*(1-r))
}

// fastStopStepsFor is the rollout step budget for a rollout starting at
// the given turn; late-game rollouts are cut earlier.
func (s *Solver) fastStopStepsFor(turn int) int {
	r := lo.Clamp((float64(turn)-200)/1000, 0, 1)
	steps := float64(s.params.FastStopStepsMin)*r + float64(s.params.FastStopStepsMax)*(1-r)
	return max(1, int(steps))
}

// Search finds a move for the player. It blocks for the search budget, or
// until ctx is done, and returns the best action found. The tree is
// recycled before returning.
func (s *Solver) Search(ctx context.Context, g *game.Game) (game.Action, error) {
	logger := zerolog.Ctx(ctx)

	if g.IsGameFinish() {
		return 0, ErrGameFinished
	}
	if g.Side() != game.Player {
		return 0, ErrNotPlayerTurn
	}

	plan := s.searchTime(g)
	tstart := time.Now()
	root, err := s.grow(ctx, g, plan)
	defer s.arena.clear(root)
	if err != nil {
		return 0, err
	}

	best := s.bestChild(root, 0)
	if best == nilNode {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, ErrNoLegalActions
	}
	elapsed := time.Since(tstart)
	bn := &s.arena.nodes[best]
	rn := &s.arena.nodes[root]

	fastStops := s.fastStopCount.Load()
	s.lastStats = SearchStats{
		Plan:          plan,
		Elapsed:       elapsed,
		Iterations:    rn.visit,
		Depth:         s.depth(root),
		WinRate:       bn.value / math.Max(1, float64(bn.visit)),
		FastStops:     fastStops,
		FastStopSteps: float64(s.fastStopSteps.Load()) / float64(fastStops+1),
		RewardMean:    s.rewardStats.Mean(),
		RewardCI95:    s.rewardStats.HalfWidth(95),
	}
	mostVisited := lo.MaxBy(rn.children, func(a, b nodeIndex) bool {
		return s.arena.nodes[a].visit > s.arena.nodes[b].visit
	})

	logger.Info().
		Dur("plan", plan).
		Dur("elapsed", elapsed).
		Int("iterations", rn.visit).
		Int("depth", s.lastStats.Depth).
		Str("move", game.ActionString(game.Player, bn.action)).
		Str("most-visited", game.ActionString(game.Player, s.arena.nodes[mostVisited].action)).
		Float64("win", s.lastStats.WinRate*100).
		Float64("best-value", bn.value).
		Int("best-visit", bn.visit).
		Uint64("fast-stop-count", fastStops).
		Float64("fast-stop-steps", s.lastStats.FastStopSteps).
		Float64("reward-mean", s.lastStats.RewardMean).
		Float64("reward-ci95", s.lastStats.RewardCI95).
		Int("threads", s.threads).
		Msg("search-ended")

	if s.logStream != nil {
		if err := s.writeSearchLog(root, g); err != nil {
			logger.Err(err).Msg("writing search log")
		}
	}
	return bn.action, nil
}

// grow builds a tree for g, running the workers until the plan is used up.
// The caller owns the returned root and must clear it.
func (s *Solver) grow(ctx context.Context, g *game.Game, plan time.Duration) (nodeIndex, error) {
	logger := zerolog.Ctx(ctx)

	s.fastStopCount.Store(0)
	s.fastStopSteps.Store(0)
	s.rewardStats.Reset()

	s.rootSide = g.Side()
	s.root = s.arena.newNode(nilNode)
	rn := &s.arena.nodes[s.root]
	rn.game.CopyFrom(g)
	rn.mover = s.rootSide.Other()
	rn.untried = rn.game.AppendValidActions(rn.untried[:0])
	if len(rn.untried) == 0 {
		return s.root, ErrNoLegalActions
	}

	ctx, cancel := context.WithTimeout(ctx, plan)
	defer cancel()

	logger.Debug().Int("threads", s.threads).Dur("plan", plan).Int("turn", g.Turn()).
		Msg("search-started")

	eg := errgroup.Group{}
	for t := 0; t < s.threads; t++ {
		eg.Go(func() error {
			rng := frand.New()
			// Rollouts run on this private copy, outside the lock.
			var scratch game.Game
			for {
				s.mu.Lock()
				leaf := s.treePolicy(s.root, rng)
				scratch.CopyFrom(&s.arena.nodes[leaf].game)
				s.mu.Unlock()

				reward := s.defaultPolicy(&scratch, rng)

				s.mu.Lock()
				s.backpropagate(leaf, reward)
				expanded := len(s.arena.nodes[s.root].children) > 0
				s.mu.Unlock()

				// Keep going until the root has at least one child, so
				// there is always a move to return.
				if expanded && ctx.Err() != nil {
					return nil
				}
			}
		})
	}
	err := eg.Wait()
	return s.root, err
}

// depth is the length of the longest path below idx.
func (s *Solver) depth(idx nodeIndex) int {
	d := 0
	for _, child := range s.arena.nodes[idx].children {
		d = max(d, 1+s.depth(child))
	}
	return d
}
