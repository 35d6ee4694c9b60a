package board

// This file contains some sample boards, used solely for testing.

// SampleBoard names a position stored as row-major exponents.
type SampleBoard string

const (
	// MidGame is a position from the middle of a typical game.
	MidGame SampleBoard = "MidGame"
	// LateGame was pulled from a debugging session; the engine needs a long
	// think here, the board is nearly full.
	LateGame SampleBoard = "LateGame"
	// Stuck has no empty cell and no playable direction.
	Stuck SampleBoard = "Stuck"
	// OneGap is full except for the bottom-left corner.
	OneGap SampleBoard = "OneGap"
	// AlmostWon has two 1024 tiles side by side.
	AlmostWon SampleBoard = "AlmostWon"
	// ForcedWin is full; left and right are its only moves and both
	// merge the 1024 pair.
	ForcedWin SampleBoard = "ForcedWin"
)

var sampleBoards = map[SampleBoard][NumCells]uint8{
	MidGame: {
		1, 0, 0, 2,
		3, 1, 0, 0,
		4, 5, 2, 1,
		6, 7, 3, 2,
	},
	LateGame: {
		1, 7, 10, 9,
		4, 5, 6, 1,
		1, 3, 2, 5,
		0, 3, 1, 3,
	},
	Stuck: {
		1, 2, 1, 2,
		2, 1, 2, 1,
		1, 2, 1, 2,
		2, 1, 2, 1,
	},
	OneGap: {
		1, 2, 1, 2,
		2, 1, 2, 1,
		1, 2, 1, 2,
		0, 3, 4, 3,
	},
	AlmostWon: {
		10, 10, 0, 0,
		1, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
	},
	ForcedWin: {
		10, 10, 1, 2,
		1, 2, 3, 1,
		2, 1, 2, 3,
		1, 2, 1, 2,
	},
}

// Sample returns the exponents of a sample board.
func Sample(name SampleBoard) [NumCells]uint8 {
	return sampleBoards[name]
}

// SampleBoardFor returns a new board holding a sample position.
func SampleBoardFor(name SampleBoard) *Board {
	b := NewBoard()
	b.SetGrids(Sample(name))
	return b
}
