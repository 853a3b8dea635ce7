package game

import "errors"

var (
	// ErrBoardInactive rejects board interaction outside a running game. No notice is shown for it.
	ErrBoardInactive     = errors.New("board is not active")
	ErrNotYourTurn       = errors.New("not your turn")
	ErrIllegalMove       = errors.New("illegal move")
	ErrNotConnected      = errors.New("not connected to game server")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrInvalidGameType   = errors.New("invalid game type")
	ErrSynchronizing     = errors.New("board is synchronizing")
	ErrProtocol          = errors.New("unexpected server message")
	ErrDiverged          = errors.New("board diverged from server")
)
