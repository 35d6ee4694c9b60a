package game

import (
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"

	"github.com/domino14/mcts2048/board"
)

func TestRandomGenerateDistribution(t *testing.T) {
	is := is.New(t)
	rng := frand.New()
	var cells [board.NumCells]int
	fours := 0
	const n = 100000
	for i := 0; i < n; i++ {
		g := &Game{}
		g.SetDebugBoard([board.NumCells]uint8{})
		g.turn++
		g.RandomGenerate(rng)
		for c, e := range g.Board().Grids() {
			if e > 0 {
				cells[c]++
				if e == 2 {
					fours++
				}
			}
		}
	}
	// A 4 one time in ten; these bounds fail with negligible probability.
	is.True(fours > 9400 && fours < 10600)
	for _, count := range cells {
		is.True(count > n/16-800 && count < n/16+800)
	}
}

func TestRolloutSpawnPrefersFoursWhenCrowded(t *testing.T) {
	is := is.New(t)
	rng := frand.New()
	count := func(grids [board.NumCells]uint8) float64 {
		g := &Game{}
		g.SetDebugBoard(grids)
		g.turn++
		fours := 0
		const n = 20000
		for i := 0; i < n; i++ {
			if _, e := DecodeAction(g.NextMove(rng)); e == 2 {
				fours++
			}
		}
		return float64(fours) / n
	}
	empty := count([board.NumCells]uint8{})
	crowded := count(board.Sample(board.OneGap))
	// 1/10 with plenty of room, 1/4 with a single empty cell.
	is.True(empty > 0.08 && empty < 0.12)
	is.True(crowded > 0.23 && crowded < 0.27)
}
