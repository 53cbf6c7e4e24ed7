package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/vectorspace/engine"
	"github.com/aukilabs/vectorspace/featureflag"
	"github.com/aukilabs/vectorspace/interaction"
	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/modules"
	"github.com/aukilabs/vectorspace/protocol"
	"github.com/aukilabs/vectorspace/render"
	"github.com/aukilabs/vectorspace/scene"
	"github.com/aukilabs/vectorspace/store"
	"gonum.org/v1/gonum/spatial/r3"
	"golang.org/x/net/websocket"
)

// HeaderClientID is the header that identifies the client opening a
// connection.
const HeaderClientID = "X-Vectorspace-Client-Id"

// WidgetHandler represents a service that runs one view of a widget session
// per client connection.
type WidgetHandler struct {
	// The interval between each sync clock message sent to the connected
	// client.
	ClientSyncClockInterval time.Duration

	// The time a client is idle before being disconnected.
	ClientIdleTimeout time.Duration

	// The duration of a frame.
	FrameDuration time.Duration

	// The store that contains all the server sessions.
	Sessions *models.SessionStore

	// The modules that expand the widget features.
	Modules []modules.Module

	FeatureFlags featureflag.FeatureFlag

	conn               *websocket.Conn
	currentSession     *models.Session
	currentParticipant *models.Participant
	engine             *engine.Engine

	stopFrameHandling func()

	clientID string
}

func (h *WidgetHandler) HandleConnect(conn *websocket.Conn) {
	h.clientID = conn.Request().Header.Get(HeaderClientID)
	h.conn = conn
}

func (h *WidgetHandler) HandlePing(ctx context.Context, respond protocol.ResponseSender, msg protocol.Msg) error {
	respond.Send(protocol.MsgTypePong, msg.RequestID, nil)
	return nil
}

func (h *WidgetHandler) HandleJoin(ctx context.Context, deliver func(protocol.Msg), handleFrame func(), respond protocol.ResponseSender, msg protocol.Msg) error {
	var req protocol.JoinRequest
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if h.currentSession != nil && h.Sessions.GlobalSessionID(h.currentSession.ID) == req.SessionID {
		respond.Send(protocol.MsgTypeError, msg.RequestID, protocol.ErrorResponse{
			Code: protocol.ErrorCodeSessionAlreadyJoined,
		})
		return nil
	}

	if h.currentParticipant != nil {
		if err := h.leaveSession(); err != nil {
			return err
		}
	}

	session, ok := h.Sessions.GetByGlobalID(req.SessionID)
	if !ok && req.SessionID != "" {
		respond.Send(protocol.MsgTypeError, msg.RequestID, protocol.ErrorResponse{
			Code: protocol.ErrorCodeNotFound,
		})
		return nil
	}

	if !ok {
		session = models.NewSession(h.Sessions.NewID(), h.FrameDuration)
		session.ApplyChanges(nil, store.ChangesFrom(req.State, store.OriginHost))
		h.Sessions.Add(session)
		go session.StartDispatchFrames()
	}

	participant := &models.Participant{
		ID:        session.NewParticipantID(),
		Responder: respond,
		Deliver:   deliver,
	}

	e, err := h.newEngine(session, participant, respond)
	if err != nil {
		if session.ParticipantCount() == 0 {
			h.Sessions.Remove(session)
		}
		respond.Send(protocol.MsgTypeError, msg.RequestID, protocol.ErrorResponse{
			Code: protocol.ErrorCodeInternalServerError,
		})
		return errors.New("creating view failed").
			WithTag("session_id", h.Sessions.GlobalSessionID(session.ID)).
			Wrap(err)
	}

	session.AddParticipant(participant)
	h.stopFrameHandling = session.HandleFrame(handleFrame)

	respond.Send(protocol.MsgTypeJoinResponse, msg.RequestID, protocol.JoinResponse{
		SessionID:     h.Sessions.GlobalSessionID(session.ID),
		SessionUUID:   session.SessionUUID,
		ParticipantID: participant.ID,
	})

	h.currentSession = session
	h.currentParticipant = participant
	h.engine = e

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableStoreState, func() {
		respond.Send(protocol.MsgTypeStoreState, 0, protocol.StoreState{
			Values: session.State(),
		})
	})

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableParticipantJoinBroadcast, func() {
		session.Broadcast(participant, protocol.MsgTypeEvent, protocol.Event{
			Name:          protocol.EventParticipantJoin,
			ParticipantID: participant.ID,
		})
	})

	for _, m := range h.Modules {
		m.Init(session, participant, e)
	}
	return nil
}

func (h *WidgetHandler) newEngine(session *models.Session, participant *models.Participant, respond protocol.ResponseSender) (*engine.Engine, error) {
	replica := &store.Memory{
		Origin: participant.Origin(),
		Flusher: func(changes []store.Change) error {
			respond.Send(protocol.MsgTypeStoreCommit, 0, protocol.StoreChanges{
				Changes: protocolChanges(changes),
			})

			h.FeatureFlags.IfNotSet(featureflag.FlagDisableCommitBroadcast, func() {
				session.ApplyChanges(participant, changes)
			})
			return nil
		},
	}
	replica.Apply(store.ChangesFrom(session.State(), store.OriginHost)...)

	var tooltip func(interaction.Tooltip)
	if !h.FeatureFlags.IsSet(featureflag.FlagDisableTooltip) {
		tooltip = func(t interaction.Tooltip) {
			respond.Send(protocol.MsgTypeTooltip, 0, t)
		}
	}

	e, err := engine.New(engine.Config{
		Store: replica,
		Renderer: &render.Stream{
			Scene: func(d scene.Description) error {
				respond.Send(protocol.MsgTypeScene, 0, d)
				return nil
			},
			Camera: func(position, target r3.Vec) error {
				respond.Send(protocol.MsgTypeCamera, 0, protocol.Camera{
					Position: [3]float64{position.X, position.Y, position.Z},
					Target:   [3]float64{target.X, target.Y, target.Z},
				})
				return nil
			},
			DisableScene: h.FeatureFlags.IsSet(featureflag.FlagDisableSceneStream),
		},
		Tooltip:        tooltip,
		DisableTooltip: h.FeatureFlags.IsSet(featureflag.FlagDisableTooltip),
	})
	if err != nil {
		return nil, err
	}

	e.Machine.OnHover(func(ev interaction.HoverEvent) {
		event := protocol.Event{Name: protocol.EventLeave}
		if ev.Hovering {
			event = protocol.Event{
				Name:    protocol.EventHover,
				PointID: ev.Point.ID,
			}
		}
		respond.Send(protocol.MsgTypeEvent, 0, event)
	})

	e.Machine.OnClick(func(p models.Point) {
		respond.Send(protocol.MsgTypeEvent, 0, protocol.Event{
			Name:    protocol.EventClick,
			PointID: p.ID,
		})
	})

	e.Machine.OnSelection(func(ids []string) {
		respond.Send(protocol.MsgTypeEvent, 0, protocol.Event{
			Name:      protocol.EventSelection,
			Selection: ids,
		})
	})

	return e, nil
}

func (h *WidgetHandler) HandleStoreUpdate(ctx context.Context, respond protocol.ResponseSender, msg protocol.Msg) error {
	var req protocol.StoreChanges
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if !h.joined(respond, msg) {
		return nil
	}

	changes := make([]store.Change, 0, len(req.Changes))
	for _, c := range req.Changes {
		if c.Key == "" {
			continue
		}
		changes = append(changes, store.Change{
			Key:    c.Key,
			Value:  c.Value,
			Origin: store.OriginHost,
		})
	}

	// Host values reach every view of the session, this one included, through
	// their message loop.
	h.currentSession.ApplyChanges(nil, changes)
	return nil
}

func (h *WidgetHandler) HandlePeerCommit(ctx context.Context, msg protocol.Msg) error {
	var commit models.PeerCommit
	if err := msg.DataTo(&commit); err != nil {
		return err
	}

	if h.engine == nil {
		return nil
	}

	origin := store.Origin(commit.Origin)
	changes := make([]store.Change, len(commit.Changes))
	for i, c := range commit.Changes {
		changes[i] = store.Change{
			Key:    c.Key,
			Value:  c.Value,
			Origin: origin,
		}
	}

	h.engine.Store.Apply(changes...)
	return h.engine.Err()
}

func (h *WidgetHandler) HandlePointerMove(ctx context.Context, respond protocol.ResponseSender, msg protocol.Msg) error {
	var req protocol.Pointer
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if !h.joined(respond, msg) {
		return nil
	}
	return h.engine.PointerMove(req.X, req.Y)
}

func (h *WidgetHandler) HandlePointerLeave(ctx context.Context, respond protocol.ResponseSender, msg protocol.Msg) error {
	if !h.joined(respond, msg) {
		return nil
	}
	return h.engine.PointerLeave()
}

func (h *WidgetHandler) HandleClick(ctx context.Context, respond protocol.ResponseSender, msg protocol.Msg) error {
	var req protocol.Pointer
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if !h.joined(respond, msg) {
		return nil
	}
	return h.engine.Click(req.X, req.Y)
}

func (h *WidgetHandler) HandleDrag(ctx context.Context, respond protocol.ResponseSender, msg protocol.Msg) error {
	var req protocol.Drag
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if !h.joined(respond, msg) {
		return nil
	}

	switch req.Mode {
	case protocol.DragModePan:
		h.engine.Pan(req.DX, req.DY)

	case protocol.DragModeRotate, "":
		h.engine.Rotate(req.DX, req.DY)

	default:
		respond.Send(protocol.MsgTypeError, msg.RequestID, protocol.ErrorResponse{
			Code:    protocol.ErrorCodeBadRequest,
			Message: "unknown drag mode",
		})
	}
	return nil
}

func (h *WidgetHandler) HandleWheel(ctx context.Context, respond protocol.ResponseSender, msg protocol.Msg) error {
	var req protocol.Wheel
	if err := msg.DataTo(&req); err != nil {
		return err
	}

	if !h.joined(respond, msg) {
		return nil
	}

	h.engine.Zoom(req.Delta)
	return nil
}

func (h *WidgetHandler) HandleFrame(ctx context.Context) error {
	if h.engine == nil {
		return nil
	}
	return h.engine.Frame()
}

func (h *WidgetHandler) HandleDisconnect(err error) {
	if err := h.leaveSession(); err != nil {
		logs.WithClientID(h.clientID).Error(err)
	}
}

func (h *WidgetHandler) HandleWithModule(ctx context.Context, m modules.Module, respond protocol.ResponseSender, msg protocol.Msg) error {
	if h.CurrentParticipant() == nil || h.CurrentSession() == nil {
		return nil
	}

	err := m.HandleMsg(ctx, respond, msg)
	if errors.IsType(err, protocol.ErrTypeMsgSkip) {
		return nil
	}
	if err != nil {
		return errors.New("handling message with module failed").
			WithTag("module", m.Name()).
			Wrap(err)
	}
	return nil
}

func (h *WidgetHandler) SendSyncClock(ctx context.Context, respond protocol.ResponseSender) error {
	respond.Send(protocol.MsgTypeSyncClock, 0, nil)
	return nil
}

func (h *WidgetHandler) Receiver() protocol.Receiver {
	return func() (protocol.Msg, int, error) {
		return protocol.Receive(h.conn)
	}
}

func (h *WidgetHandler) Sender() protocol.Sender {
	return func(msg protocol.Msg) (int, error) {
		return protocol.Send(h.conn, msg)
	}
}

func (h *WidgetHandler) Close() {
}

func (h *WidgetHandler) SyncClockInterval() time.Duration {
	return h.ClientSyncClockInterval
}

func (h *WidgetHandler) IdleTimeout() time.Duration {
	return h.ClientIdleTimeout
}

func (h *WidgetHandler) GetSessions() *models.SessionStore {
	return h.Sessions
}

func (h *WidgetHandler) GetModules() []modules.Module {
	return h.Modules
}

func (h *WidgetHandler) CurrentSession() *models.Session {
	return h.currentSession
}

func (h *WidgetHandler) CurrentParticipant() *models.Participant {
	return h.currentParticipant
}

func (h *WidgetHandler) GetClientID() string {
	return h.clientID
}

// joined reports whether a session is joined and replies an error to the
// host when it is not.
func (h *WidgetHandler) joined(respond protocol.ResponseSender, msg protocol.Msg) bool {
	if h.engine != nil {
		return true
	}

	respond.Send(protocol.MsgTypeError, msg.RequestID, protocol.ErrorResponse{
		Code: protocol.ErrorCodeSessionNotJoined,
	})
	return false
}

func (h *WidgetHandler) leaveSession() error {
	session := h.currentSession
	participant := h.currentParticipant

	if participant == nil || session == nil {
		return nil
	}

	for _, m := range h.Modules {
		m.HandleDisconnect()
	}

	if h.stopFrameHandling != nil {
		h.stopFrameHandling()
		h.stopFrameHandling = nil
	}
	session.RemoveParticipant(participant)

	h.FeatureFlags.IfNotSet(featureflag.FlagDisableParticipantLeaveBroadcast, func() {
		session.Broadcast(participant, protocol.MsgTypeEvent, protocol.Event{
			Name:          protocol.EventParticipantLeave,
			ParticipantID: participant.ID,
		})
	})

	if session.ParticipantCount() == 0 && !session.Persistent {
		h.Sessions.Remove(session)
	}

	e := h.engine
	h.engine = nil
	h.currentParticipant = nil
	h.currentSession = nil

	if err := e.Close(); err != nil {
		return errors.New("closing view failed").
			WithTag("session_id", h.Sessions.GlobalSessionID(session.ID)).
			WithTag("participant_id", participant.ID).
			Wrap(err)
	}
	return nil
}

func protocolChanges(changes []store.Change) []protocol.Change {
	res := make([]protocol.Change, len(changes))
	for i, c := range changes {
		res[i] = protocol.Change{
			Key:   c.Key,
			Value: c.Value,
		}
	}
	return res
}
