package game

import (
	"github.com/samber/lo"

	"github.com/domino14/mcts2048/board"
)

// rolloutOrders are the direction priorities used by the player during a
// rollout. Down is always tried last.
var rolloutOrders = [6][board.NumDirections]board.Direction{
	{board.Left, board.Up, board.Right, board.Down},
	{board.Up, board.Left, board.Right, board.Down},
	{board.Right, board.Up, board.Left, board.Down},
	{board.Up, board.Right, board.Left, board.Down},
	{board.Right, board.Left, board.Up, board.Down},
	{board.Left, board.Right, board.Up, board.Down},
}

// NextMove picks a cheap move for the side to move, for use in rollouts.
// The player takes the first legal direction of a randomly chosen priority
// order. The spawner picks a random empty cell and spawns a 4 with
// probability 1/min(empty+3, 10), so a crowded board sees more 4s.
func (g *Game) NextMove(rng Rand) Action {
	if g.Side() == Player {
		order := &rolloutOrders[rng.Intn(len(rolloutOrders))]
		for _, d := range order {
			if g.board.Check(d) {
				return Action(d)
			}
		}
		panic("no legal direction in an unfinished game")
	}
	cell := g.validCells[rng.Intn(g.validCellCount)]
	exponent := 1
	if rng.Intn(min(g.validCellCount+3, 10)) == 0 {
		exponent = 2
	}
	return EncodeAction(int(cell), exponent)
}

// CalcFinishScore scores a rollout that ended the game. ratio is how much
// of its step budget the rollout used.
func (g *Game) CalcFinishScore(ratio float64) float64 {
	return ratio * 0.8
}

// CalcFastStopScore scores a rollout that was cut short: a full-budget
// finish score plus a bonus for free space on the board.
func (g *Game) CalcFastStopScore() float64 {
	space := float64(lo.Clamp(g.validCellCount, 0, 8)) / 8
	return g.CalcFinishScore(1) + space*0.2
}
