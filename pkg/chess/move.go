package chess

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned by the move and position helpers
var (
	ErrInvalidSquare   = errors.New("invalid square")
	ErrInvalidMove     = errors.New("invalid coordinate move")
	ErrIllegalMove     = errors.New("illegal move")
	ErrInvalidPosition = errors.New("invalid position")
	ErrInvalidColor    = errors.New("invalid color")
)

// Move is a coordinate move: source square, destination square and an
// optional promotion piece letter (q, r, b or n).
type Move struct {
	From      string
	To        string
	Promotion string
}

// NewMove builds a move from two squares and validates it
func NewMove(from, to, promotion string) (Move, error) {
	m := Move{
		From:      strings.ToLower(from),
		To:        strings.ToLower(to),
		Promotion: strings.ToLower(promotion),
	}
	if err := m.Validate(); err != nil {
		return Move{}, err
	}
	return m, nil
}

// ParseMove decodes the compact form "e2e4" or "e7e8q".
func ParseMove(s string) (Move, error) {
	s = strings.TrimSpace(s)
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, s)
	}
	return NewMove(s[0:2], s[2:4], s[4:])
}

// Validate checks both squares and the promotion letter
func (m Move) Validate() error {
	if !isSquare(m.From) {
		return fmt.Errorf("%w: %q", ErrInvalidSquare, m.From)
	}
	if !isSquare(m.To) {
		return fmt.Errorf("%w: %q", ErrInvalidSquare, m.To)
	}
	if m.From == m.To {
		return fmt.Errorf("%w: %s to itself", ErrInvalidMove, m.From)
	}
	switch m.Promotion {
	case "", "q", "r", "b", "n":
	default:
		return fmt.Errorf("%w: promotion %q", ErrInvalidMove, m.Promotion)
	}
	return nil
}

// String encodes the move as fromSquare + toSquare [+ promotionLetter]
func (m Move) String() string {
	return m.From + m.To + m.Promotion
}

// WithPromotion returns a copy of m promoting to piece
func (m Move) WithPromotion(piece string) Move {
	m.Promotion = piece
	return m
}

// reachesLastRank reports whether the destination lies on rank 1 or 8
func (m Move) reachesLastRank() bool {
	return len(m.To) == 2 && (m.To[1] == '1' || m.To[1] == '8')
}

func isSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}
