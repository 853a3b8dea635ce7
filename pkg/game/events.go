package game

import "github.com/tecu23/gochess-client/pkg/chess"

// Event is anything that can drive the session: a user action, a decoded
// server message, a connection change or a clock tick.
type Event interface {
	isEvent()
}

// User actions

type SelectGame struct {
	Type GameType
}

type CancelSeek struct{}

type AttemptMove struct {
	Move chess.Move
}

type Resign struct{}

// NewGame returns a finished session to Idle
type NewGame struct{}

// Server messages

type WaitingForOpponent struct{}

type GameFound struct {
	GameID           string
	OpponentIdentity string
	OpponentColor    chess.Color
	// LocalIdentity overrides the identity known at startup when the server sends one
	LocalIdentity string
}

// Times carries authoritative clock values in seconds
type Times struct {
	White int
	Black int
}

// MoveMade is a move broadcast. FEN, when present, is authoritative and wins
// over Move.
type MoveMade struct {
	Move  string
	FEN   string
	Turn  chess.Color
	Times *Times
}

// BoardState replaces the whole position, usually answering a resync request
type BoardState struct {
	FEN   string
	Times *Times
}

type TimeUpdate struct {
	Times Times
}

// GameOver ends the game. An empty Winner is a draw.
type GameOver struct {
	Winner        string
	Reason        string
	FinalPosition string
}

type ServerError struct {
	Message string
}

// Local signals

type ConnectionChanged struct {
	Connected bool
}

type Tick struct{}

func (SelectGame) isEvent()         {}
func (CancelSeek) isEvent()         {}
func (AttemptMove) isEvent()        {}
func (Resign) isEvent()             {}
func (NewGame) isEvent()            {}
func (WaitingForOpponent) isEvent() {}
func (GameFound) isEvent()          {}
func (MoveMade) isEvent()           {}
func (BoardState) isEvent()         {}
func (TimeUpdate) isEvent()         {}
func (GameOver) isEvent()           {}
func (ServerError) isEvent()        {}
func (ConnectionChanged) isEvent()  {}
func (Tick) isEvent()               {}
