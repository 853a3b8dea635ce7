package messages

import (
	"encoding/json"
	"fmt"
)

// Outbound event names
const (
	EventJoinGame          = "join_game"
	EventStopWaiting       = "stop_waiting_for_opponent"
	EventMakeMove          = "make_move"
	EventResignGame        = "resign_game"
	EventRequestBoardState = "request_board_state"
)

// OutboundMessage is how we wrap requests before sending
// them to the game server
type OutboundMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Encode marshals the message into a single text frame
func (m OutboundMessage) Encode() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", m.Event, err)
	}
	return data, nil
}

// JoinGamePayload enters the matchmaking queue for a game type
type JoinGamePayload struct {
	GameType string `json:"gameType"`
}

// StopWaitingPayload asks to leave the matchmaking queue
type StopWaitingPayload struct {
	GameType string `json:"gameType"`
}

// MakeMovePayload carries a coordinate move already applied locally
type MakeMovePayload struct {
	GameID string `json:"gameId"`
	Move   string `json:"move"`
}

// GameRefPayload references a game by id (resign and resync requests)
type GameRefPayload struct {
	GameID string `json:"gameId"`
}

// JoinGame builds the join_game request
func JoinGame(gameType string) OutboundMessage {
	return OutboundMessage{Event: EventJoinGame, Payload: JoinGamePayload{GameType: gameType}}
}

// StopWaiting builds the stop_waiting_for_opponent request
func StopWaiting(gameType string) OutboundMessage {
	return OutboundMessage{Event: EventStopWaiting, Payload: StopWaitingPayload{GameType: gameType}}
}

// MakeMove builds the make_move request
func MakeMove(gameID, move string) OutboundMessage {
	return OutboundMessage{Event: EventMakeMove, Payload: MakeMovePayload{GameID: gameID, Move: move}}
}

// ResignGame builds the resign_game request
func ResignGame(gameID string) OutboundMessage {
	return OutboundMessage{Event: EventResignGame, Payload: GameRefPayload{GameID: gameID}}
}

// RequestBoardState builds the resync request
func RequestBoardState(gameID string) OutboundMessage {
	return OutboundMessage{Event: EventRequestBoardState, Payload: GameRefPayload{GameID: gameID}}
}
