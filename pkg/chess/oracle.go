package chess

import (
	"fmt"

	nchess "github.com/corentings/chess/v2"
)

// StartingFEN is the standard initial position
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// DefaultPromotion is used when a pawn reaches the last rank without an explicit choice
const DefaultPromotion = "q"

// RulesOracle validates coordinate moves against a position and produces the
// resulting position. It holds no state between calls.
type RulesOracle struct{}

// NewRulesOracle creates a rules oracle backed by the chess rules engine
func NewRulesOracle() RulesOracle {
	return RulesOracle{}
}

// Apply plays move on the position described by fen and returns the new
// position together with the move actually played. A pawn move to the last
// rank without a promotion letter promotes to a queen.
func (RulesOracle) Apply(fen string, move Move) (string, Move, error) {
	if err := move.Validate(); err != nil {
		return "", Move{}, err
	}

	opt, err := nchess.FEN(fen)
	if err != nil {
		return "", Move{}, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}

	next, err := play(nchess.NewGame(opt), move)
	if err != nil && move.Promotion == "" && move.reachesLastRank() {
		move = move.WithPromotion(DefaultPromotion)
		next, err = play(nchess.NewGame(opt), move)
	}
	if err != nil {
		return "", Move{}, err
	}

	return next, move, nil
}

// Turn returns the side to move in fen after checking that the rules engine accepts it
func (RulesOracle) Turn(fen string) (Color, error) {
	if _, err := nchess.FEN(fen); err != nil {
		return NoColor, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return TurnFromFEN(fen)
}

func play(g *nchess.Game, move Move) (string, error) {
	mv, err := nchess.UCINotation{}.Decode(g.Position(), move.String())
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrIllegalMove, move, err)
	}

	if err := g.Move(mv, nil); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrIllegalMove, move, err)
	}

	return g.FEN(), nil
}
