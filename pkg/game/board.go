package game

import (
	"fmt"
	"strings"
)

// Board is an 8x8 grid of piece codes. Row 0 is the eighth rank (black's back
// rank), row 7 the first. Uppercase codes are white pieces, lowercase black,
// and the empty string marks an empty square.
type Board [8][8]string

// StartingBoard returns the standard chess starting position.
func StartingBoard() Board {
	return Board{
		{"r", "n", "b", "q", "k", "b", "n", "r"},
		{"p", "p", "p", "p", "p", "p", "p", "p"},
		{"", "", "", "", "", "", "", ""},
		{"", "", "", "", "", "", "", ""},
		{"", "", "", "", "", "", "", ""},
		{"", "", "", "", "", "", "", ""},
		{"P", "P", "P", "P", "P", "P", "P", "P"},
		{"R", "N", "B", "Q", "K", "B", "N", "R"},
	}
}

// FEN serializes the board and side to move into a FEN-equivalent string.
// Castling rights, en passant target, and move counters are not tracked by
// the live state, so the tail is fixed to "KQkq - 0 1" the way the original
// record format does.
func (b Board) FEN(whiteToMove bool) string {
	var sb strings.Builder

	for row := 0; row < 8; row++ {
		empty := 0
		for col := 0; col < 8; col++ {
			piece := b[row][col]
			if piece == "" {
				empty++
				continue
			}
			if empty > 0 {
				fmt.Fprintf(&sb, "%d", empty)
				empty = 0
			}
			sb.WriteString(piece)
		}
		if empty > 0 {
			fmt.Fprintf(&sb, "%d", empty)
		}
		if row < 7 {
			sb.WriteString("/")
		}
	}

	if whiteToMove {
		sb.WriteString(" w")
	} else {
		sb.WriteString(" b")
	}

	sb.WriteString(" KQkq - 0 1")

	return sb.String()
}

// squareName converts board coordinates into algebraic square names, e.g.
// row 4, col 4 -> "e4".
func squareName(row, col int) string {
	return fmt.Sprintf("%c%d", 'a'+rune(col), 8-row)
}

func validSquare(row, col int) bool {
	return row >= 0 && row < 8 && col >= 0 && col < 8
}
