package models

import (
	"fmt"

	"github.com/aukilabs/vectorspace/protocol"
	"github.com/aukilabs/vectorspace/store"
)

// A session participant: one view of the widget.
type Participant struct {
	ID uint32

	// Sends messages to the participant host.
	Responder protocol.ResponseSender

	// Queues a message into the participant message loop.
	Deliver func(protocol.Msg)
}

// Origin returns the tag of the store changes made by the participant.
func (p *Participant) Origin() store.Origin {
	return store.Origin(fmt.Sprintf("participant-%d", p.ID))
}
