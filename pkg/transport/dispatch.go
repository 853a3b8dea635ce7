package transport

import (
	"errors"
	"fmt"

	"github.com/tecu23/gochess-client/pkg/chess"
	"github.com/tecu23/gochess-client/pkg/game"
	"github.com/tecu23/gochess-client/pkg/messages"
)

var (
	ErrUnknownEvent     = errors.New("unknown event")
	ErrMalformedPayload = errors.New("malformed payload")
)

// Dispatch turns an inbound envelope into the session event it stands for
func Dispatch(msg messages.InboundMessage) (game.Event, error) {
	switch msg.Event {
	case messages.EventWaitingForOpponent:
		return game.WaitingForOpponent{}, nil

	case messages.EventGameFound:
		var payload messages.GameFoundPayload
		if err := decode(msg, &payload); err != nil {
			return nil, err
		}
		opponentColor, err := chess.ParseColor(payload.Opponent.Color)
		if err != nil {
			return nil, malformed(msg, err)
		}
		if payload.GameID == "" {
			return nil, malformed(msg, errors.New("missing gameId"))
		}
		ev := game.GameFound{
			GameID:           payload.GameID,
			OpponentIdentity: payload.Opponent.ID(),
			OpponentColor:    opponentColor,
		}
		if payload.Player != nil {
			ev.LocalIdentity = payload.Player.ID()
		}
		return ev, nil

	case messages.EventMoveMade:
		var payload messages.MoveMadePayload
		if err := decode(msg, &payload); err != nil {
			return nil, err
		}
		ev := game.MoveMade{
			Move:  deref(payload.Move),
			FEN:   deref(payload.FEN),
			Times: times(payload.Player1Time, payload.Player2Time),
		}
		if payload.Turn != nil {
			turn, err := chess.ParseColor(*payload.Turn)
			if err != nil {
				return nil, malformed(msg, err)
			}
			ev.Turn = turn
		}
		return ev, nil

	case messages.EventBoardStateUpdate:
		var payload messages.BoardStatePayload
		if err := decode(msg, &payload); err != nil {
			return nil, err
		}
		if payload.FEN == "" {
			return nil, malformed(msg, errors.New("missing fen"))
		}
		return game.BoardState{
			FEN:   payload.FEN,
			Times: times(payload.Player1Time, payload.Player2Time),
		}, nil

	case messages.EventTimeUpdate:
		var payload messages.TimeUpdatePayload
		if err := decode(msg, &payload); err != nil {
			return nil, err
		}
		t := times(payload.Player1Time, payload.Player2Time)
		if t == nil {
			return nil, malformed(msg, errors.New("both player times are required"))
		}
		return game.TimeUpdate{Times: *t}, nil

	case messages.EventGameOver:
		var payload messages.GameOverPayload
		if err := decode(msg, &payload); err != nil {
			return nil, err
		}
		return game.GameOver{
			Winner:        deref(payload.Winner),
			Reason:        payload.Reason,
			FinalPosition: deref(payload.FinalPosition),
		}, nil

	case messages.EventError:
		var payload messages.ErrorPayload
		if err := decode(msg, &payload); err != nil {
			return nil, err
		}
		if payload.Message == "" {
			payload.Message = "Unknown server error"
		}
		return game.ServerError{Message: payload.Message}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, msg.Event)
	}
}

func decode(msg messages.InboundMessage, v interface{}) error {
	if err := msg.DecodePayload(v); err != nil {
		return malformed(msg, err)
	}
	return nil
}

func malformed(msg messages.InboundMessage, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformedPayload, msg.Event, err)
}

// times maps the wire convention (player1 white, player2 black). Partial
// updates are ignored.
func times(player1, player2 *int) *game.Times {
	if player1 == nil || player2 == nil {
		return nil
	}
	return &game.Times{White: *player1, Black: *player2}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
