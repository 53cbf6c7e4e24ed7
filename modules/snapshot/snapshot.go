// Package snapshot implements the module that renders the view of a
// participant as a PNG or SVG image.
package snapshot

import (
	"bytes"
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/vectorspace/engine"
	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/protocol"
)

type Module struct {
	// The minimum duration between two snapshots of a session.
	MinInterval time.Duration

	currentSession     *models.Session
	currentParticipant *models.Participant
	engine             *engine.Engine
	state              *State
}

func (m *Module) Name() string {
	return "snapshot"
}

func (m *Module) Init(s *models.Session, p *models.Participant, e *engine.Engine) {
	m.currentSession = s
	m.currentParticipant = p
	m.engine = e

	state, ok := s.ModuleState(m.Name())
	if !ok {
		state = &State{}
		s.SetModuleState(m.Name(), state)
	}
	m.state = state.(*State)
}

func (m *Module) HandleMsg(ctx context.Context, respond protocol.ResponseSender, msg protocol.Msg) error {
	if msg.Type != protocol.MsgTypeSnapshotRequest {
		return protocol.ErrModuleMsgSkip
	}

	var req protocol.SnapshotRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if m.engine == nil {
		return errors.New("session not joined").
			WithType(protocol.ErrTypeSessionNotJoined).
			WithTag("msg_type", msg.Type)
	}

	format := req.Format
	if format == "" {
		format = "png"
	}

	if _, err := engine.Snapshotter(format); err != nil {
		respond.Send(protocol.MsgTypeError, msg.RequestID, protocol.ErrorResponse{
			Code:    protocol.ErrorCodeBadRequest,
			Message: "unknown snapshot format",
		})
		return nil
	}

	if !m.state.Allow(time.Now(), m.MinInterval) {
		respond.Send(protocol.MsgTypeError, msg.RequestID, protocol.ErrorResponse{
			Code: protocol.ErrorCodeTooManyRequests,
		})
		return nil
	}

	var buf bytes.Buffer
	if err := m.engine.Snapshot(&buf, format); err != nil {
		return errors.New("rendering snapshot failed").
			WithTag("format", format).
			Wrap(err)
	}

	respond.Send(protocol.MsgTypeSnapshot, msg.RequestID, protocol.Snapshot{
		Format: format,
		Data:   buf.Bytes(),
	})
	return nil
}

func (m *Module) HandleDisconnect() {
	m.engine = nil
}
