// Package commands implements the module running the widget commands:
// camera moves, selection changes and exports.
package commands

import (
	"context"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/vectorspace/engine"
	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/protocol"
)

type Module struct {
	currentSession     *models.Session
	currentParticipant *models.Participant
	engine             *engine.Engine
}

func (m *Module) Name() string {
	return "commands"
}

func (m *Module) Init(s *models.Session, p *models.Participant, e *engine.Engine) {
	m.currentSession = s
	m.currentParticipant = p
	m.engine = e
}

func (m *Module) HandleMsg(ctx context.Context, respond protocol.ResponseSender, msg protocol.Msg) error {
	if msg.Type != protocol.MsgTypeCommand {
		return protocol.ErrModuleMsgSkip
	}

	var req protocol.Command
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if m.engine == nil {
		return errors.New("session not joined").
			WithType(protocol.ErrTypeSessionNotJoined).
			WithTag("msg_type", msg.Type)
	}

	if req.Name == "" {
		respond.Send(protocol.MsgTypeError, msg.RequestID, protocol.ErrorResponse{
			Code:    protocol.ErrorCodeBadRequest,
			Message: "missing command name",
		})
		return nil
	}

	res, err := m.engine.Command(req.Name, req.IDs, req.Variances)
	if errors.IsType(err, engine.ErrTypeUnknownCommand) {
		respond.Send(protocol.MsgTypeError, msg.RequestID, protocol.ErrorResponse{
			Code:    protocol.ErrorCodeBadRequest,
			Message: "unknown command",
		})
		return nil
	}
	if err != nil {
		return errors.New("running command failed").
			WithTag("command", req.Name).
			WithTag("participant_id", m.currentParticipant.ID).
			Wrap(err)
	}

	respond.Send(protocol.MsgTypeCommandResponse, msg.RequestID, protocol.CommandResponse{
		Name:   req.Name,
		Result: res,
	})
	return nil
}

func (m *Module) HandleDisconnect() {
	m.engine = nil
}
