// Package game encapsulates the rules of 2048, played as a two-sided game:
// the player slides tiles, and the spawner drops a new 2 or 4 tile on an
// empty cell. The search engine plays both sides against each other.
//
// A Game holds no pointers or slices, so copying the struct is a full,
// independent snapshot. The search tree relies on that.
package game

import (
	"fmt"

	"github.com/domino14/mcts2048/board"
)

// WinCondition is the exponent of the winning tile (2^11 = 2048).
const WinCondition = 11

// Side is the side to move.
type Side uint8

const (
	// Player chooses a slide direction.
	Player Side = iota
	// Spawner chooses an empty cell and a tile value.
	Spawner
)

func (s Side) String() string {
	if s == Player {
		return "player"
	}
	return "spawner"
}

// Other returns the opposing side.
func (s Side) Other() Side {
	return 1 - s
}

// State is the play state of a game.
type State uint8

const (
	Normal State = iota
	Win
	Lose
)

func (s State) String() string {
	switch s {
	case Normal:
		return "normal"
	case Win:
		return "win"
	case Lose:
		return "lose"
	}
	return fmt.Sprintf("State(%d)", s)
}

// Rand is the source of randomness for spawns and rollouts. It is
// satisfied by *frand.RNG.
type Rand interface {
	Intn(n int) int
}

// Game is the full state of a 2048 game.
type Game struct {
	board board.Board
	// turn starts at 1 and counts half-moves. Odd turns belong to the
	// player, even turns to the spawner.
	turn int
	// validCells holds the indices of empty cells; only the first
	// validCellCount entries are live.
	validCells     [board.NumCells]uint8
	validCellCount int
	state          State
	lastMove       Action
	lastMover      Side
}

// NewGame creates a game with two tiles already placed.
func NewGame(rng Rand) *Game {
	board.LineTable()
	g := &Game{}
	g.Init(rng)
	return g
}

// Init resets the game and spawns the two starting tiles.
func (g *Game) Init(rng Rand) {
	g.state = Normal
	g.turn = 1
	g.lastMove = 0
	g.lastMover = Spawner
	g.board.Clear()
	g.updateValidCells()

	g.RandomGenerate(rng)
	g.RandomGenerate(rng)

	g.turn = 1
}

// Copy returns an independent copy of the game.
func (g *Game) Copy() *Game {
	c := *g
	return &c
}

// CopyFrom overwrites g with the contents of other.
func (g *Game) CopyFrom(other *Game) {
	*g = *other
}

// Board returns the game's board. Callers must not modify it.
func (g *Game) Board() *board.Board {
	return &g.board
}

func (g *Game) Turn() int {
	return g.turn
}

func (g *Game) State() State {
	return g.state
}

// ValidCellCount is the number of empty cells.
func (g *Game) ValidCellCount() int {
	return g.validCellCount
}

// ValidCells returns the empty cell indices, in no particular order.
func (g *Game) ValidCells() []uint8 {
	return append([]uint8(nil), g.validCells[:g.validCellCount]...)
}

// LastMove is the last action applied to the game.
func (g *Game) LastMove() Action {
	return g.lastMove
}

// IsGameFinish reports whether the game has been won or lost.
func (g *Game) IsGameFinish() bool {
	return g.state != Normal
}

// Side returns the side to move, derived from the turn number.
func (g *Game) Side() Side {
	if g.turn%2 == 1 {
		return Player
	}
	return Spawner
}

// Move applies an action for the side to move. It returns false if the
// action is an illegal player move, in which case nothing changes.
func (g *Game) Move(a Action) bool {
	if g.Side() == Player {
		return g.PlayerMove(a.Direction())
	}
	cell, value := DecodeAction(a)
	slot := g.cellSlot(cell)
	if slot < 0 {
		panic(fmt.Sprintf("spawn on occupied cell %d", cell))
	}
	g.Generate(slot, value)
	return true
}

// PlayerMove slides the board. On success it refreshes the empty cells,
// checks for a win, and advances the turn; a winning move does not
// advance the turn.
func (g *Game) PlayerMove(d board.Direction) bool {
	if !g.board.Move(d) {
		return false
	}
	g.lastMove = Action(d)
	g.lastMover = Player
	g.updateValidCells()

	if g.board.MaxValue() >= WinCondition {
		g.state = Win
		return true
	}
	g.turn++
	return true
}

// Generate places a tile with the given exponent on the empty cell at
// position slot of the current empty-cell list. The cell is removed from
// the list by swapping it with the last live entry.
func (g *Game) Generate(slot, exponent int) {
	if g.validCellCount == 0 || slot < 0 || slot >= g.validCellCount {
		panic(fmt.Sprintf("no empty cell at slot %d (%d empty)", slot, g.validCellCount))
	}
	cell := g.validCells[slot]
	g.board.SetGrid(int(cell), uint8(exponent))
	g.lastMove = EncodeAction(int(cell), exponent)
	g.lastMover = Spawner

	g.validCellCount--
	g.validCells[slot], g.validCells[g.validCellCount] = g.validCells[g.validCellCount], g.validCells[slot]

	if g.validCellCount == 0 {
		g.checkLoseCondition()
	}
	g.turn++
}

// RandomGenerate spawns a tile the way the real game does: a random empty
// cell gets a 4 one time in ten, and a 2 otherwise.
func (g *Game) RandomGenerate(rng Rand) {
	slot := rng.Intn(g.validCellCount)
	exponent := 1
	if rng.Intn(10) == 0 {
		exponent = 2
	}
	g.Generate(slot, exponent)
}

// PlayTurn is a full player turn as seen from outside the engine: slide,
// then let the spawner drop a random tile if the game goes on.
func (g *Game) PlayTurn(d board.Direction, rng Rand) bool {
	if d >= board.NumDirections {
		return false
	}
	if !g.PlayerMove(d) {
		return false
	}
	if !g.IsGameFinish() {
		g.RandomGenerate(rng)
	}
	return true
}

// SetDebugBoard loads an arbitrary position. The turn number is estimated
// from the tile total, rounded to the player's (odd) parity.
func (g *Game) SetDebugBoard(grids [board.NumCells]uint8) {
	g.board.SetGrids(grids)
	g.state = Normal
	g.updateValidCells()

	total := 0
	for _, e := range grids {
		if e > 0 {
			total += 1 << e
		}
	}
	total = int(float64(total) / 2.2)
	if total%2 == 0 {
		total++
	}
	g.turn = total

	switch {
	case g.board.MaxValue() >= WinCondition:
		g.state = Win
	case g.validCellCount == 0:
		g.checkLoseCondition()
	}
}

func (g *Game) updateValidCells() {
	g.validCellCount = 0
	for id := 0; id < board.NumCells; id++ {
		if g.board.Grid(id) == 0 {
			g.validCells[g.validCellCount] = uint8(id)
			g.validCellCount++
		}
	}
}

// cellSlot finds the position of a board cell in the empty-cell list.
func (g *Game) cellSlot(cell int) int {
	for i := 0; i < g.validCellCount; i++ {
		if int(g.validCells[i]) == cell {
			return i
		}
	}
	return -1
}

func (g *Game) checkLoseCondition() {
	if !g.board.CanMove() {
		g.state = Lose
	}
}
