package chess

import (
	"fmt"
	"strings"
)

// Color represents a side of the board as it travels on the wire
type Color string

// Possible color variations in a chess game
const (
	NoColor Color = ""
	White   Color = "white"
	Black   Color = "black"
)

// Opp returns the opposite color for the given color.
func (c Color) Opp() Color {
	switch c {
	case White:
		return Black
	case Black:
		return White
	default:
		return NoColor
	}
}

// Valid reports whether c is one of the two board sides
func (c Color) Valid() bool {
	return c == White || c == Black
}

// ParseColor accepts "white"/"black" in any case as well as the FEN letters "w"/"b".
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	}
	return NoColor, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

// TurnFromFEN returns the side to move encoded in the second field of a position string
func TurnFromFEN(fen string) (Color, error) {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return NoColor, fmt.Errorf("%w: missing active color", ErrInvalidPosition)
	}

	switch fields[1] {
	case "w":
		return White, nil
	case "b":
		return Black, nil
	}
	return NoColor, fmt.Errorf("%w: active color %q", ErrInvalidPosition, fields[1])
}
