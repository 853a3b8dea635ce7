package game

import "github.com/tecu23/gochess-client/pkg/messages"

// Effect is work the caller performs after a transition
type Effect interface {
	isEffect()
}

// Send writes a message to the game server
type Send struct {
	Message messages.OutboundMessage
}

// StartClock (re)starts the one second cadence
type StartClock struct{}

type StopClock struct{}

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a transient user facing message
type Notice struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}

func (Send) isEffect()       {}
func (StartClock) isEffect() {}
func (StopClock) isEffect()  {}
func (Notice) isEffect()     {}
