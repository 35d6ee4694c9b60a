package board

import (
	"testing"

	"github.com/matryer/is"
)

// naiveSlide recomputes a line move the slow way: compact, merge, compact.
func naiveSlide(line Line) Line {
	var tiles []uint8
	for _, v := range line {
		if v != 0 {
			tiles = append(tiles, v)
		}
	}
	var merged []uint8
	for i := 0; i < len(tiles); i++ {
		if i+1 < len(tiles) && tiles[i] == tiles[i+1] {
			merged = append(merged, min(tiles[i]+1, 15))
			i++
			continue
		}
		merged = append(merged, tiles[i])
	}
	var out Line
	copy(out[:], merged)
	return out
}

func TestLineKeyRoundTrip(t *testing.T) {
	is := is.New(t)
	for k := 0; k < LineTableSize; k++ {
		line := Key2Line(LineKey(k))
		is.Equal(Line2Key(line), LineKey(k))
		is.Equal(Key2Line(Line2Key(line)), line)
	}
}

func TestLineTableMatchesDirectSlide(t *testing.T) {
	is := is.New(t)
	table := LineTable()
	for k := 0; k < LineTableSize; k++ {
		line := Key2Line(LineKey(k))
		expected := naiveSlide(line)
		if table[k] != Line2Key(expected) {
			t.Fatalf("key %d: line %v slid to %v, expected %v", k, line,
				Key2Line(table[k]), expected)
		}
	}
	is.Equal(LineTable(), table) // built only once
}

func TestSlideLine(t *testing.T) {
	is := is.New(t)
	type tc struct {
		in, out Line
	}
	cases := []tc{
		{Line{1, 1, 2, 0}, Line{2, 2, 0, 0}},
		{Line{1, 1, 1, 1}, Line{2, 2, 0, 0}},
		{Line{0, 0, 0, 1}, Line{1, 0, 0, 0}},
		{Line{2, 0, 2, 3}, Line{3, 3, 0, 0}},
		{Line{1, 2, 3, 4}, Line{1, 2, 3, 4}},
		{Line{3, 3, 3, 0}, Line{4, 3, 0, 0}},
		{Line{0, 1, 0, 1}, Line{2, 0, 0, 0}},
		{Line{0, 0, 0, 0}, Line{0, 0, 0, 0}},
		{Line{15, 15, 0, 0}, Line{15, 0, 0, 0}},
	}
	for _, c := range cases {
		is.Equal(SlideLine(c.in), c.out)
	}
}

func TestLineKeyNibbleOrder(t *testing.T) {
	is := is.New(t)
	// The first cell of the line is the least-significant nibble.
	is.Equal(Line2Key(Line{1, 2, 3, 4}), LineKey(0x4321))
}

func BenchmarkBuildLineTable(b *testing.B) {
	for i := 0; i < b.N; i++ {
		computeLineTable()
	}
}
