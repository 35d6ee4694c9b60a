package mcts

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/domino14/mcts2048/board"
	"github.com/domino14/mcts2048/config"
	"github.com/domino14/mcts2048/game"
)

func seededRNG(s string) *frand.RNG {
	seed := make([]byte, 32)
	copy(seed, s)
	return frand.NewCustom(seed, 1024, 12)
}

func testSolver(threads int) *Solver {
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigThreads, threads)
	cfg.Set(config.ConfigSearchTimeMin, 20*time.Millisecond)
	cfg.Set(config.ConfigSearchTimeMax, 40*time.Millisecond)
	return NewSolver(cfg)
}

// checkVisits verifies that every unfinished node was simulated once
// itself plus once per simulation below it.
func checkVisits(t *testing.T, s *Solver, idx nodeIndex) {
	n := &s.arena.nodes[idx]
	if n.game.IsGameFinish() {
		return
	}
	sum := 0
	for _, c := range n.children {
		sum += s.arena.nodes[c].visit
		checkVisits(t, s, c)
	}
	if n.visit != sum+1 {
		t.Errorf("node %d: visit %d, children %d", idx, n.visit, sum)
	}
}

func checkValues(t *testing.T, s *Solver, idx nodeIndex) {
	n := &s.arena.nodes[idx]
	if n.value < 0 || n.value > float64(n.visit)+1e-9 {
		t.Errorf("node %d: value %f out of range for %d visits", idx, n.value, n.visit)
	}
	for _, c := range n.children {
		checkValues(t, s, c)
	}
}

func TestInitThreads(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigThreads, 6)
	s := NewSolver(cfg)
	is.Equal(s.Threads(), 6)

	cfg.Set(config.ConfigMultiThreaded, false)
	s.Init(cfg)
	is.Equal(s.Threads(), 1)

	s.SetThreads(1000)
	is.Equal(s.Threads(), MaxThreads)
	s.SetThreads(0)
	is.Equal(s.Threads(), 1)
}

func TestSearchTime(t *testing.T) {
	s := NewSolver(config.DefaultConfig())
	g := game.NewGame(seededRNG("time"))
	// Early in the game the minimum applies.
	assert.Equal(t, 50*time.Millisecond, s.searchTime(g))

	late := &game.Game{}
	late.SetDebugBoard(board.Sample(board.LateGame))
	// turn 839, one empty cell: (839-400)/800 of the way to the max.
	r := (839.0 - 400) / 800
	want := time.Duration(float64(200*time.Millisecond)*r + float64(50*time.Millisecond)*(1-r))
	assert.Equal(t, want, s.searchTime(late))
}

func TestFastStopSteps(t *testing.T) {
	s := NewSolver(config.DefaultConfig())
	assert.Equal(t, 400, s.fastStopStepsFor(1))
	assert.Equal(t, 400, s.fastStopStepsFor(200))
	assert.Equal(t, 250, s.fastStopStepsFor(700))
	assert.Equal(t, 100, s.fastStopStepsFor(5000))
}

func TestSingleThreadVisitCounts(t *testing.T) {
	is := is.New(t)
	s := testSolver(1)
	g := game.NewGame(seededRNG("visits"))
	root, err := s.grow(context.Background(), g, 20*time.Millisecond)
	is.NoErr(err)
	is.True(s.arena.nodes[root].visit > 1)
	checkVisits(t, s, root)
	checkValues(t, s, root)

	s.arena.clear(root)
	is.Equal(s.arena.inUse(), 0)
}

func TestMultiThreadValues(t *testing.T) {
	is := is.New(t)
	s := testSolver(4)
	g := &game.Game{}
	g.SetDebugBoard(board.Sample(board.MidGame))
	root, err := s.grow(context.Background(), g, 30*time.Millisecond)
	is.NoErr(err)
	checkValues(t, s, root)
	// Several workers can simulate the root before its first backup, so
	// the count is only bounded by the number of workers.
	rn := &s.arena.nodes[root]
	sum := 0
	for _, c := range rn.children {
		sum += s.arena.nodes[c].visit
	}
	is.True(rn.visit > sum)
	is.True(rn.visit <= sum+s.Threads())
	s.arena.clear(root)
}

func TestSearchReturnsLegalMove(t *testing.T) {
	is := is.New(t)
	s := testSolver(2)
	g := game.NewGame(seededRNG("legal"))
	a, err := s.Search(context.Background(), g)
	is.NoErr(err)
	is.True(g.Board().Check(a.Direction()))
	is.Equal(s.arena.inUse(), 0)
	is.True(s.LastStats().Iterations > 0)

	// Pooled nodes are reused by the next search.
	pooled := len(s.arena.nodes)
	g.PlayTurn(a.Direction(), seededRNG("legal2"))
	_, err = s.Search(context.Background(), g)
	is.NoErr(err)
	is.True(len(s.arena.nodes) >= pooled)
	is.Equal(s.arena.inUse(), 0)
}

func TestSearchCrowdedBoard(t *testing.T) {
	is := is.New(t)
	s := testSolver(2)
	g := &game.Game{}
	g.SetDebugBoard(board.Sample(board.OneGap))
	// Only left and down move anything.
	a, err := s.Search(context.Background(), g)
	is.NoErr(err)
	is.True(a.Direction() == board.Left || a.Direction() == board.Down)
}

func TestSearchFindsWin(t *testing.T) {
	is := is.New(t)
	s := testSolver(2)
	g := &game.Game{}
	g.SetDebugBoard(board.Sample(board.AlmostWon))
	a, err := s.Search(context.Background(), g)
	is.NoErr(err)
	is.True(a.Direction() == board.Left || a.Direction() == board.Right)
}

func TestSearchErrors(t *testing.T) {
	is := is.New(t)
	s := testSolver(1)

	lost := &game.Game{}
	lost.SetDebugBoard(board.Sample(board.Stuck))
	_, err := s.Search(context.Background(), lost)
	is.True(errors.Is(err, ErrGameFinished))

	g := game.NewGame(seededRNG("errors"))
	g.PlayerMove(g.NextMove(seededRNG("errors")).Direction())
	is.Equal(g.Side(), game.Spawner)
	_, err = s.Search(context.Background(), g)
	is.True(errors.Is(err, ErrNotPlayerTurn))
}

func TestSearchCancelledContext(t *testing.T) {
	is := is.New(t)
	s := testSolver(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := game.NewGame(seededRNG("cancel"))
	a, err := s.Search(ctx, g)
	// The root always gets a child, so a move is still returned.
	is.NoErr(err)
	is.True(g.Board().Check(a.Direction()))
}

func TestDefaultPolicy(t *testing.T) {
	s := testSolver(1)
	rng := seededRNG("policy")

	// A game that is already over scores the finish score of zero steps.
	won := &game.Game{}
	won.SetDebugBoard(board.Sample(board.AlmostWon))
	won.PlayerMove(board.Left)
	assert.Equal(t, game.Win, won.State())
	assert.Equal(t, 0.0, s.defaultPolicy(won, rng))

	lost := &game.Game{}
	lost.SetDebugBoard(board.Sample(board.Stuck))
	assert.Equal(t, 0.0, s.defaultPolicy(lost, rng))

	// Any rollout move wins here, so the game ends after one step.
	forced := &game.Game{}
	forced.SetDebugBoard(board.Sample(board.ForcedWin))
	budget := s.fastStopStepsFor(forced.Turn())
	want := forced.CalcFinishScore(1 / float64(budget))
	assert.InDelta(t, want, s.defaultPolicy(forced, rng), 1e-12)
	assert.Equal(t, game.Win, forced.State())

	for i := 0; i < 20; i++ {
		g := game.NewGame(rng)
		r := s.defaultPolicy(g, rng)
		assert.GreaterOrEqual(t, r, 0.0)
		assert.LessOrEqual(t, r, 1.0)
	}
}

func TestDefaultPolicyFastStop(t *testing.T) {
	is := is.New(t)
	s := testSolver(1)
	p := s.Params()
	p.FastStopStepsMin = 1
	p.FastStopStepsMax = 1
	s.SetParams(p)
	rng := seededRNG("faststop")

	g := game.NewGame(rng)
	r := s.defaultPolicy(g, rng)
	is.True(r >= 0.8 && r <= 1.0)
	is.Equal(s.fastStopCount.Load(), uint64(1))
	// budget of 1 step, then 5 more estimates
	is.Equal(s.fastStopSteps.Load(), uint64(1+p.FastStopEstimateCount+1))
}

func TestSearchLog(t *testing.T) {
	is := is.New(t)
	s := testSolver(2)
	var buf bytes.Buffer
	s.SetLogStream(&buf)
	g := game.NewGame(seededRNG("log"))
	_, err := s.Search(context.Background(), g)
	is.NoErr(err)

	var logs []SearchLog
	is.NoErr(yaml.Unmarshal(buf.Bytes(), &logs))
	is.Equal(len(logs), 1)
	is.Equal(logs[0].Turn, 1)
	is.True(len(logs[0].Moves) > 0)
	is.True(len(logs[0].Moves) <= logChildrenPerNode)
	for _, m := range logs[0].Moves {
		_, err := board.ParseDirection(m.Move)
		is.NoErr(err)
	}
}

func TestReset(t *testing.T) {
	is := is.New(t)
	s := testSolver(1)
	_, err := s.Search(context.Background(), game.NewGame(seededRNG("reset")))
	is.NoErr(err)
	is.True(len(s.arena.nodes) > 0)
	s.Reset()
	is.Equal(len(s.arena.nodes), 0)
	is.Equal(s.arena.inUse(), 0)
}

func BenchmarkSearch(b *testing.B) {
	s := testSolver(1)
	g := game.NewGame(seededRNG("bench"))
	for i := 0; i < b.N; i++ {
		s.Search(context.Background(), g)
	}
}
