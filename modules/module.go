package modules

import (
	"context"

	"github.com/aukilabs/vectorspace/engine"
	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/protocol"
)

// Module is the interface that describes a module that extends the widget
// server capabilities.
type Module interface {
	// Returns the module name.
	Name() string

	// Initializes the module with the view of a participant that joined a
	// session.
	Init(*models.Session, *models.Participant, *engine.Engine)

	// Handles a given message. Modules are free to decide whether they handle a
	// message.
	//
	// Returning protocol.ErrModuleMsgSkip indicates that handling a message
	// was skipped.
	//
	// Any other returned errors causes the current WebSocket client to be
	// disconnected.
	HandleMsg(context.Context, protocol.ResponseSender, protocol.Msg) error

	// Handles a client disconnection.
	HandleDisconnect()
}
