package game

import (
	"fmt"

	"github.com/domino14/mcts2048/board"
)

// Action is a single move by either side. A player action is a
// board.Direction. A spawner action packs a cell index and a tile exponent
// as (cell << 4) | exponent.
type Action uint8

// MaxActions bounds the number of legal actions in any position: every
// empty cell times the two spawnable tiles.
const MaxActions = 2 * board.NumCells

// EncodeAction packs a spawner move.
func EncodeAction(cell, exponent int) Action {
	return Action(cell<<4 | exponent)
}

// DecodeAction unpacks a spawner move.
func DecodeAction(a Action) (cell, exponent int) {
	return int(a >> 4), int(a & 0xf)
}

// Direction interprets a player action.
func (a Action) Direction() board.Direction {
	return board.Direction(a)
}

// ActionString describes an action made by the given side, for example
// "left" or "A1|2".
func ActionString(mover Side, a Action) string {
	if mover == Player {
		return a.Direction().String()
	}
	cell, exponent := DecodeAction(a)
	row, col := board.Id2Coord(cell)
	return fmt.Sprintf("%c%c|%d", 'A'+col, '1'+row, 1<<exponent)
}

// LastActionString describes the last action applied to the game.
func (g *Game) LastActionString() string {
	return ActionString(g.lastMover, g.lastMove)
}

// LastMover is the side that made the last action.
func (g *Game) LastMover() Side {
	return g.lastMover
}

// AppendValidActions appends every legal action for the side to move: the
// playable directions for the player, or each empty cell with either tile
// for the spawner.
func (g *Game) AppendValidActions(dst []Action) []Action {
	if g.Side() == Player {
		for d := board.Direction(0); d < board.NumDirections; d++ {
			if g.board.Check(d) {
				dst = append(dst, Action(d))
			}
		}
		return dst
	}
	for _, cell := range g.validCells[:g.validCellCount] {
		dst = append(dst, EncodeAction(int(cell), 1), EncodeAction(int(cell), 2))
	}
	return dst
}
