package board

import (
	"fmt"
	"strings"
)

func hSplitLine(sb *strings.Builder) {
	sb.WriteString(" ")
	for i := 0; i < Size; i++ {
		sb.WriteString("------ ")
	}
	sb.WriteString("\n")
}

func vSplitLine(sb *strings.Builder) {
	sb.WriteString("|")
	for i := 0; i < Size; i++ {
		sb.WriteString("      |")
	}
	sb.WriteString("\n")
}

// ToDisplayText renders the board as a boxed grid of tile values.
func (b *Board) ToDisplayText() string {
	var sb strings.Builder
	hSplitLine(&sb)
	for row := 0; row < Size; row++ {
		vSplitLine(&sb)
		sb.WriteString("|")
		for col := 0; col < Size; col++ {
			e := b.grids[Coord2Id(row, col)]
			if e == 0 {
				sb.WriteString("      |")
				continue
			}
			num := 1 << e
			if num >= 100 {
				fmt.Fprintf(&sb, " %4d |", num)
			} else {
				fmt.Fprintf(&sb, " %3d  |", num)
			}
		}
		sb.WriteString("\n")
		vSplitLine(&sb)
		hSplitLine(&sb)
	}
	return sb.String()
}

func (b *Board) String() string {
	var sb strings.Builder
	for i, e := range b.grids {
		if i > 0 && i%Size == 0 {
			sb.WriteString("/")
		} else if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, "%d", e)
	}
	return sb.String()
}
