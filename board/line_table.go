package board

import "sync"

// A line is one row or column of the board, listed in the order in which
// tiles slide for a given direction: index 0 is the cell the tiles slide
// towards.
type Line [Size]uint8

// LineKey packs a Line into 16 bits, 4 bits per cell. The least-significant
// nibble holds the first cell of the line.
type LineKey uint16

// LineTableSize is the number of distinct line keys.
const LineTableSize = 1 << (4 * Size)

var (
	lineTableOnce sync.Once
	lineTable     *[LineTableSize]LineKey
)

// Line2Key encodes a line into its key.
func Line2Key(line Line) LineKey {
	var key LineKey
	for i := Size - 1; i >= 0; i-- {
		key = key<<4 | LineKey(line[i]&0xf)
	}
	return key
}

// Key2Line decodes a key back into a line.
func Key2Line(key LineKey) Line {
	var line Line
	for i := 0; i < Size; i++ {
		line[i] = uint8(key & 0xf)
		key >>= 4
	}
	return line
}

// SlideLine performs a single slide-and-merge pass on a line without
// consulting the table. Equal neighbours merge once per pass; a freshly
// merged tile never merges again in the same pass.
func SlideLine(line Line) Line {
	var result Line
	n := 0
	// pending is the last non-empty value that has not merged yet, or 0.
	var pending uint8
	for _, v := range line {
		if v == 0 {
			continue
		}
		switch {
		case pending == 0:
			pending = v
		case pending == v:
			// Exponents saturate at 15, the largest value a nibble can hold.
			result[n] = min(v+1, 15)
			n++
			pending = 0
		default:
			result[n] = pending
			n++
			pending = v
		}
	}
	if pending != 0 {
		result[n] = pending
	}
	return result
}

func computeLineTable() *[LineTableSize]LineKey {
	t := new([LineTableSize]LineKey)
	for k := 0; k < LineTableSize; k++ {
		key := LineKey(k)
		t[key] = Line2Key(SlideLine(Key2Line(key)))
	}
	return t
}

// LineTable returns the process-wide transition table, building it on first
// use. The returned table must be treated as read-only.
func LineTable() *[LineTableSize]LineKey {
	lineTableOnce.Do(func() { lineTable = computeLineTable() })
	return lineTable
}
