// Package board implements the 4x4 grid of a 2048 game and the
// table-driven slide-and-merge transition used to move it.
package board

import (
	"fmt"
	"strings"
)

const (
	// Size is the number of cells in a row or column.
	Size = 4
	// NumCells is the number of cells on the board.
	NumCells = Size * Size
)

// Direction is the direction tiles slide in.
type Direction uint8

const (
	Up Direction = iota
	Left
	Right
	Down
	NumDirections
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Left:
		return "left"
	case Right:
		return "right"
	case Down:
		return "down"
	}
	return ""
}

// ParseDirection turns user input such as "w" or "left" into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "w", "u", "up":
		return Up, nil
	case "a", "l", "left":
		return Left, nil
	case "d", "r", "right":
		return Right, nil
	case "s", "down":
		return Down, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// lineCells lists, for every direction, the physical cell indices of each
// of the four lines in traversal order.
var lineCells = func() (cells [NumDirections][Size][Size]uint8) {
	for i := 0; i < Size; i++ {
		for j := 0; j < Size; j++ {
			cells[Up][i][j] = uint8(Coord2Id(j, i))
			cells[Left][i][j] = uint8(Coord2Id(i, j))
			cells[Right][i][j] = uint8(Coord2Id(i, Size-j-1))
			cells[Down][i][j] = uint8(Coord2Id(Size-j-1, i))
		}
	}
	return
}()

// Board is a row-major grid of tile exponents. An exponent of 0 is an
// empty cell; any other exponent e is a tile worth 2^e.
// The zero value is an empty board.
type Board struct {
	grids    [NumCells]uint8
	maxValue uint8
}

// NewBoard returns an empty board, making sure the line table is built.
func NewBoard() *Board {
	LineTable()
	return &Board{}
}

// Clear empties the board.
func (b *Board) Clear() {
	b.grids = [NumCells]uint8{}
	b.maxValue = 0
}

// Grids returns a copy of the cells.
func (b *Board) Grids() [NumCells]uint8 {
	return b.grids
}

// SetGrids overwrites every cell and recomputes the max value.
func (b *Board) SetGrids(grids [NumCells]uint8) {
	b.grids = grids
	b.maxValue = 0
	for _, v := range grids {
		b.maxValue = max(b.maxValue, v)
	}
}

// Grid returns the exponent at cell id.
func (b *Board) Grid(id int) uint8 {
	return b.grids[id]
}

// SetGrid places an exponent at cell id.
func (b *Board) SetGrid(id int, v uint8) {
	b.grids[id] = v
	b.maxValue = max(b.maxValue, v)
}

// MaxValue is the highest exponent on the board.
func (b *Board) MaxValue() uint8 {
	return b.maxValue
}

// Move slides the board in direction d. It returns false, leaving the board
// untouched, if no tile moved.
func (b *Board) Move(d Direction) bool {
	table := LineTable()
	changed := false
	for i := range lineCells[d] {
		ids := &lineCells[d][i]
		var line Line
		for j, id := range ids {
			line[j] = b.grids[id]
		}
		key := Line2Key(line)
		result := table[key]
		if result == key {
			continue
		}
		changed = true
		line = Key2Line(result)
		for j, id := range ids {
			b.grids[id] = line[j]
			b.maxValue = max(b.maxValue, line[j])
		}
	}
	return changed
}

// Check reports whether a move in direction d would change the board,
// without changing it. A line can move if a tile follows an empty cell or
// two equal tiles are adjacent.
func (b *Board) Check(d Direction) bool {
	for i := range lineCells[d] {
		last := -1
		for _, id := range lineCells[d][i] {
			v := int(b.grids[id])
			if v > 0 && (last == 0 || v == last) {
				return true
			}
			last = v
		}
	}
	return false
}

// CanMove reports whether any direction is playable.
func (b *Board) CanMove() bool {
	for d := Direction(0); d < NumDirections; d++ {
		if b.Check(d) {
			return true
		}
	}
	return false
}

// Coord2Id converts a row and column into a cell index.
func Coord2Id(row, col int) int {
	return row*Size + col
}

// Id2Coord converts a cell index into a row and column.
func Id2Coord(id int) (row, col int) {
	return id / Size, id % Size
}
