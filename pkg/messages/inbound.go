// Package messages defines the JSON envelopes exchanged over the game event channel.
package messages

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound event names
const (
	EventWaitingForOpponent = "waiting_for_opponent"
	EventGameFound          = "game_found"
	EventMoveMade           = "move_made"
	EventBoardStateUpdate   = "board_state_update"
	EventTimeUpdate         = "time_update"
	EventGameOver           = "game_over"
	EventError              = "error"
)

// ErrMalformedMessage is returned when a frame is not a valid envelope
var ErrMalformedMessage = errors.New("malformed message")

// InboundMessage is the generic wrapper for messages coming from the server.
// The "event" field tells us the kind; "payload" is the data we parse further.
type InboundMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeInbound parses one text frame into its envelope
func DecodeInbound(data []byte) (InboundMessage, error) {
	var msg InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return InboundMessage{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.Event == "" {
		return InboundMessage{}, fmt.Errorf("%w: missing event", ErrMalformedMessage)
	}
	return msg, nil
}

// DecodePayload unmarshals the payload into v. An absent payload leaves v untouched.
func (m InboundMessage) DecodePayload(v interface{}) error {
	if len(m.Payload) == 0 || string(m.Payload) == "null" {
		return nil
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrMalformedMessage, m.Event, err)
	}
	return nil
}

// Participant describes one side of a match as announced by the server.
// Email is the legacy identity key some servers still send.
type Participant struct {
	Identity string `json:"identity,omitempty"`
	Email    string `json:"email,omitempty"`
	Color    string `json:"color,omitempty"`
}

// ID returns the opaque identity, falling back to the legacy key
func (p Participant) ID() string {
	if p.Identity != "" {
		return p.Identity
	}
	return p.Email
}

// GameFoundPayload announces a match
type GameFoundPayload struct {
	GameID   string       `json:"gameId"`
	Opponent Participant  `json:"opponent"`
	Player   *Participant `json:"player,omitempty"`
}

// MoveMadePayload reports a move; any field may be absent.
// Player1 is white and player2 is black.
type MoveMadePayload struct {
	Move        *string `json:"move,omitempty"`
	FEN         *string `json:"fen,omitempty"`
	Turn        *string `json:"turn,omitempty"`
	Player1Time *int    `json:"player1_time,omitempty"`
	Player2Time *int    `json:"player2_time,omitempty"`
}

// BoardStatePayload is the full-state response to request_board_state
type BoardStatePayload struct {
	FEN         string  `json:"fen"`
	Turn        *string `json:"turn,omitempty"`
	Player1Time *int    `json:"player1_time,omitempty"`
	Player2Time *int    `json:"player2_time,omitempty"`
}

// TimeUpdatePayload carries authoritative remaining times in seconds
type TimeUpdatePayload struct {
	Player1Time *int `json:"player1_time,omitempty"`
	Player2Time *int `json:"player2_time,omitempty"`
}

// GameOverPayload ends a game. An absent winner means a draw.
type GameOverPayload struct {
	Winner        *string `json:"winner,omitempty"`
	Reason        string  `json:"reason"`
	FinalPosition *string `json:"final_position,omitempty"`
	GameType      string  `json:"game_type,omitempty"`
}

// ErrorPayload is surfaced to the user as-is
type ErrorPayload struct {
	Message string `json:"message"`
}
