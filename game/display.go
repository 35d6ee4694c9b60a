package game

import (
	"fmt"
	"strings"
)

// ToDisplayText turns the current state of the game into a displayable
// string.
func (g *Game) ToDisplayText() string {
	var sb strings.Builder
	sb.WriteString("\n  ===== Current Board =====\n")
	sb.WriteString(g.board.ToDisplayText())
	fmt.Fprintf(&sb, "turn: %d, max tile: %d, last move: %s\n",
		g.turn, 1<<g.board.MaxValue(), g.LastActionString())

	switch g.state {
	case Win:
		sb.WriteString("Congratulations! You Win!\n")
	case Lose:
		sb.WriteString("Sorry! You Lose!\n")
	}
	return sb.String()
}
