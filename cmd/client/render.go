package main

import (
	"fmt"
	"strings"

	"github.com/tecu23/gochess-client/pkg/chess"
	"github.com/tecu23/gochess-client/pkg/game"
)

// boardKey is what makes a redraw worthwhile; clock ticks alone do not
type boardKey struct {
	phase    game.Phase
	position string
	syncing  bool
}

func keyOf(s game.State) boardKey {
	return boardKey{phase: s.Phase, position: s.Position, syncing: s.Synchronizing}
}

func renderState(s game.State) string {
	var b strings.Builder

	switch s.Phase {
	case game.PhaseIdle:
		b.WriteString("No game. Use play <bullet|blitz|rapid>.\n")
		return b.String()
	case game.PhaseSeeking:
		fmt.Fprintf(&b, "Looking for a %s opponent...\n", strings.ToLower(string(s.GameType)))
		return b.String()
	}

	top, bottom := s.Remote, s.Local
	fmt.Fprintf(&b, "%s (%s) %s\n", name(top.Identity), top.Color, chess.FormatClockTime(top.RemainingSeconds))
	b.WriteString(renderBoard(s.Position, s.Local.Color))
	fmt.Fprintf(&b, "%s (%s) %s\n", name(bottom.Identity), bottom.Color, chess.FormatClockTime(bottom.RemainingSeconds))

	switch {
	case s.Phase == game.PhaseFinished && s.ResultConfirmed:
		fmt.Fprintf(&b, "Game over: %s (%s)\n", s.Result, s.Reason)
	case s.Phase == game.PhaseFinished:
		fmt.Fprintf(&b, "Game over: %s, waiting for the server\n", s.Result)
	case s.Synchronizing:
		b.WriteString("Synchronizing...\n")
	case s.IsLocalTurn():
		b.WriteString("Your move\n")
	default:
		b.WriteString("Waiting for opponent\n")
	}

	return b.String()
}

// renderBoard draws the placement field of fen from the given side
func renderBoard(fen string, perspective chess.Color) string {
	placement := strings.Fields(fen)
	if len(placement) == 0 {
		return ""
	}

	ranks := strings.Split(placement[0], "/")
	if len(ranks) != 8 {
		return fen + "\n"
	}

	rows := make([]string, 8)
	for i, rank := range ranks {
		var row strings.Builder
		fmt.Fprintf(&row, "%d ", 8-i)
		for _, r := range rank {
			if r >= '1' && r <= '8' {
				row.WriteString(strings.Repeat(". ", int(r-'0')))
				continue
			}
			row.WriteRune(r)
			row.WriteByte(' ')
		}
		rows[i] = strings.TrimRight(row.String(), " ")
	}

	files := "  a b c d e f g h"
	if perspective == chess.Black {
		for i := 0; i < 4; i++ {
			rows[i], rows[7-i] = rows[7-i], rows[i]
		}
		for i, row := range rows {
			rows[i] = row[:2] + reverseSquares(row[2:])
		}
		files = "  h g f e d c b a"
	}

	return strings.Join(rows, "\n") + "\n" + files + "\n"
}

func reverseSquares(row string) string {
	squares := strings.Fields(row)
	for i, j := 0, len(squares)-1; i < j; i, j = i+1, j-1 {
		squares[i], squares[j] = squares[j], squares[i]
	}
	return strings.Join(squares, " ")
}

func name(identity string) string {
	if identity == "" {
		return "?"
	}
	return identity
}
