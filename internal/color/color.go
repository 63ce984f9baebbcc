// Package color provides basic color definitions for a chess game
package color

// Color represents a chess side as clients declare it.
type Color string

// Possible color variations in a chess game
const (
	White Color = "white"
	Black Color = "black"
)

// Opp returns the opposite color for the given color.
func (c Color) Opp() Color {
	if c == White {
		return Black
	}

	return White
}

// FromWhiteToMove maps a white-to-move flag to the side to move.
func FromWhiteToMove(whiteToMove bool) Color {
	if whiteToMove {
		return White
	}

	return Black
}

// Valid reports whether c is one of the two known sides.
func (c Color) Valid() bool {
	return c == White || c == Black
}
