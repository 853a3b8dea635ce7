package transport

import "github.com/tecu23/gochess-client/pkg/messages"

// Event is either a StatusChanged or a Message
type Event interface {
	isTransportEvent()
}

// StatusChanged reports a connection state transition. Retry is the
// reconnection attempt it belongs to; Err explains a failed attempt or a drop.
type StatusChanged struct {
	Status Status `json:"status"`
	Retry  int    `json:"retry"`
	Err    error  `json:"-"`
}

// Message is one inbound envelope, only ever delivered while connected
type Message struct {
	Inbound messages.InboundMessage
}

func (StatusChanged) isTransportEvent() {}
func (Message) isTransportEvent()       {}
