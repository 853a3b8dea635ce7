// Package game holds the client side view of a single chess game session and
// the pure transition function that moves it between phases.
package game

import (
	"fmt"
	"strings"

	"github.com/tecu23/gochess-client/pkg/chess"
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSeeking    Phase = "seeking"
	PhaseInProgress Phase = "in_progress"
	PhaseFinished   Phase = "finished"
)

// GameType names a time control. The server only knows these three.
type GameType string

const (
	Bullet GameType = "Bullet"
	Blitz  GameType = "Blitz"
	Rapid  GameType = "Rapid"
)

// ParseGameType accepts the type name in any case
func ParseGameType(s string) (GameType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bullet":
		return Bullet, nil
	case "blitz":
		return Blitz, nil
	case "rapid":
		return Rapid, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidGameType, s)
	}
}

func (g GameType) Valid() bool {
	return g == Bullet || g == Blitz || g == Rapid
}

// Duration returns the starting time for each side in seconds
func (g GameType) Duration() int {
	switch g {
	case Bullet:
		return 180
	case Blitz:
		return 300
	case Rapid:
		return 600
	default:
		return 0
	}
}

type Result string

const (
	ResultNone Result = ""
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultDraw Result = "draw"
)

type Player struct {
	Identity         string      `json:"identity"`
	Color            chess.Color `json:"color"`
	RemainingSeconds int         `json:"remaining_seconds"`
}

// State is the whole client view of a game session. It is a plain value:
// copies handed to observers never change underneath them.
type State struct {
	Phase    Phase       `json:"phase"`
	GameType GameType    `json:"game_type,omitempty"`
	GameID   string      `json:"game_id,omitempty"`
	Position string      `json:"position,omitempty"`
	Turn     chess.Color `json:"turn,omitempty"`

	Local  Player `json:"local"`
	Remote Player `json:"remote"`

	Result          Result `json:"result,omitempty"`
	ResultConfirmed bool   `json:"result_confirmed"`
	Reason          string `json:"reason,omitempty"`

	Connected     bool `json:"connected"`
	Synchronizing bool `json:"synchronizing"`

	// PendingMove is the locally applied move still waiting for the server echo.
	PendingMove string `json:"pending_move,omitempty"`

	// LeaveRequested is set after a best-effort queue leave; a match that
	// was already made server side is still accepted.
	LeaveRequested bool `json:"-"`
}

// NewState returns an idle session for the given player identity
func NewState(identity string) State {
	return State{
		Phase: PhaseIdle,
		Local: Player{Identity: identity},
	}
}

// IsLocalTurn reports whether the local player is the side to move
func (s State) IsLocalTurn() bool {
	return s.Phase == PhaseInProgress && s.Turn != chess.NoColor && s.Turn == s.Local.Color
}

// PlayerFor returns the participant playing color
func (s State) PlayerFor(c chess.Color) Player {
	if s.Remote.Color == c {
		return s.Remote
	}
	return s.Local
}

// ClockFor returns the remaining time of color as m:ss
func (s State) ClockFor(c chess.Color) string {
	return chess.FormatClockTime(s.PlayerFor(c).RemainingSeconds)
}

func (s *State) player(c chess.Color) *Player {
	switch c {
	case s.Local.Color:
		return &s.Local
	case s.Remote.Color:
		return &s.Remote
	default:
		return nil
	}
}
