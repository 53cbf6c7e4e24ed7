package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/modules"
	"github.com/aukilabs/vectorspace/protocol"
	"golang.org/x/net/websocket"
)

const (
	sendChanSize = 512
)

// Handler represents a widget connection handler.
type Handler interface {
	// Handles a client connection.
	HandleConnect(conn *websocket.Conn)

	// Handles a ping request.
	HandlePing(ctx context.Context, respond protocol.ResponseSender, msg protocol.Msg) error

	// Handles a request to join a session. deliver queues a message into the
	// connection loop and handleFrame requests a frame.
	HandleJoin(ctx context.Context, deliver func(protocol.Msg), handleFrame func(), respond protocol.ResponseSender, msg protocol.Msg) error

	// Handles store values pushed by the host.
	HandleStoreUpdate(ctx context.Context, respond protocol.ResponseSender, msg protocol.Msg) error

	// Handles changes committed by another view of the session.
	HandlePeerCommit(ctx context.Context, msg protocol.Msg) error

	// Handles a pointer motion over the view.
	HandlePointerMove(ctx context.Context, respond protocol.ResponseSender, msg protocol.Msg) error

	// Handles the pointer leaving the view.
	HandlePointerLeave(ctx context.Context, respond protocol.ResponseSender, msg protocol.Msg) error

	// Handles a click on the view.
	HandleClick(ctx context.Context, respond protocol.ResponseSender, msg protocol.Msg) error

	// Handles a pointer drag that rotates or pans the camera.
	HandleDrag(ctx context.Context, respond protocol.ResponseSender, msg protocol.Msg) error

	// Handles a wheel event that zooms the camera.
	HandleWheel(ctx context.Context, respond protocol.ResponseSender, msg protocol.Msg) error

	// Handles a frame tick.
	HandleFrame(ctx context.Context) error

	// Handles a client's disconnection.
	HandleDisconnect(error)

	// Handle a message with a module.
	HandleWithModule(ctx context.Context, module modules.Module, respond protocol.ResponseSender, msg protocol.Msg) error

	// Sends a sync clock message to the client.
	SendSyncClock(ctx context.Context, send protocol.ResponseSender) error

	// Creates a message receiver used to receive incoming messages.
	Receiver() protocol.Receiver

	// Creates a message sender passed in service methods in order to send
	// messages.
	Sender() protocol.Sender

	// Closes the service and releases its allocated resources.
	Close()

	// The interval between each sync clock message sent to the connected
	// client.
	SyncClockInterval() time.Duration

	// The time a client is idle before being disconnected.
	IdleTimeout() time.Duration

	// Returns the session store.
	GetSessions() *models.SessionStore

	// Returns the modules.
	GetModules() []modules.Module

	// The currently joined session.
	CurrentSession() *models.Session

	// The current participant.
	CurrentParticipant() *models.Participant

	// Get ClientID
	GetClientID() string
}

// Handle handles the given service.
func Handle(ctx context.Context, conn *websocket.Conn, h Handler) {
	handler := handler{
		Conn:    conn,
		Handler: h,
	}

	handler.Handle(ctx)
}

type handler struct {
	// The WebSocket connection.
	Conn *websocket.Conn

	// The widget handler.
	Handler Handler

	sendChan       chan protocol.Msg
	sender         protocol.Sender
	scheduler      *scheduler
	receiver       protocol.Receiver
	disconnectChan chan error
}

func (h *handler) Handle(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	h.Handler.HandleConnect(h.Conn)

	h.disconnectChan = make(chan error, 8)
	defer func() {
		for len(h.disconnectChan) != 0 {
			<-h.disconnectChan
		}
	}()

	var wg sync.WaitGroup

	h.sendChan = make(chan protocol.Msg, sendChanSize)
	h.sender = h.Handler.Sender()

	wg.Add(1)
	go func() {
		defer wg.Done()
		h.startSending(ctx)
	}()

	h.scheduler = newScheduler()
	defer h.scheduler.Close()

	h.receiver = h.Handler.Receiver()
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.startReceiving(ctx)
	}()

	idleTimeout := h.Handler.IdleTimeout()
	idleTimer := time.NewTimer(idleTimeout)
	defer idleTimer.Stop()

	syncClockTicker := time.NewTicker(h.Handler.SyncClockInterval())
	defer syncClockTicker.Stop()

	var responder = responseSender{
		sendMsg:  h.sendMsg,
		clientID: h.Handler.GetClientID,
	}

	for ctx.Err() == nil {
		select {
		case <-ctx.Done():
			h.disconnect(ctx.Err())

		case <-idleTimer.C:
			h.disconnect(errors.New("idle connection").WithTag("duration", h.Handler.IdleTimeout()))

		case <-syncClockTicker.C:
			if err := h.Handler.SendSyncClock(ctx, responder); err != nil {
				h.disconnect(errors.New("sending sync clock failed").Wrap(err))
			}

		case <-h.scheduler.Ready():
			msgs, frame := h.scheduler.Drain()

			if err := h.handleMessages(ctx, msgs, responder, idleTimer, idleTimeout); err != nil {
				h.disconnect(err)
				continue
			}

			if frame {
				if err := h.Handler.HandleFrame(ctx); err != nil {
					h.disconnect(errors.New("handling frame failed").Wrap(err))
				}
			}

		case err := <-h.disconnectChan:
			h.handleDisconnect(err)
			if ctx.Err() == nil {
				// cancel context so go routines can cleanly exit
				cancel()
			}
		}
	}

	wg.Wait()
}

func (h *handler) handleMessages(ctx context.Context, msgs []protocol.Msg, responder protocol.ResponseSender, idleTimer *time.Timer, idleTimeout time.Duration) error {
	for _, msg := range msgs {
		if msg.Type != protocol.MsgTypePeerCommit {
			idleTimer.Stop()
			idleTimer.Reset(idleTimeout)
		}

		if err := h.handleMessage(ctx, msg, responder); err != nil {
			return errors.New("handling message failed").
				WithTag("msg_type", msg.TypeString()).
				Wrap(err)
		}
	}
	return nil
}

func (h *handler) sendMsg(msg protocol.Msg) {
	select {
	case h.sendChan <- msg:
	default:
		instrumentDroppedMsg(msg, droppedSendQueueFull)
		logs.WithTag("msg_type", msg.TypeString()).
			WithClientID(h.Handler.GetClientID()).
			Warn("send queue is full, message dropped")
	}
}

func (h *handler) startSending(ctx context.Context) {
	defer func() {
		for len(h.sendChan) != 0 {
			<-h.sendChan
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case msg := <-h.sendChan:
			if _, err := h.sender(msg); err != nil {
				h.disconnect(errors.New("sending message failed").Wrap(err))
				return
			}
		}
	}
}

func (h *handler) startReceiving(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		default:
			msg, _, err := h.receiver()
			if err != nil {
				h.disconnect(errors.New("receiving message failed").Wrap(err))
				return
			}

			// Internal messages are never accepted from the wire.
			if msg.Type == protocol.MsgTypePeerCommit || msg.Type == protocol.MsgTypeFrame {
				continue
			}

			if err = h.scheduler.Dispatch(msg); err != nil {
				h.disconnect(errors.New("dispatching message failed").Wrap(err))
				return
			}
		}
	}
}

// deliver queues a message emitted by another connection of the session.
func (h *handler) deliver(msg protocol.Msg) {
	if err := h.scheduler.Dispatch(msg); err != nil {
		instrumentDroppedMsg(msg, droppedDispatchFailed)
		logs.WithClientID(h.Handler.GetClientID()).
			WithTag("msg_type", msg.TypeString()).
			Warn(errors.New("delivering message failed").Wrap(err))
	}
}

func (h *handler) handleMessage(ctx context.Context, msg protocol.Msg, responder protocol.ResponseSender) error {
	var err error

	switch msg.Type {
	case protocol.MsgTypePing:
		err = h.Handler.HandlePing(ctx, responder, msg)

	case protocol.MsgTypeJoin:
		err = h.Handler.HandleJoin(ctx,
			h.deliver,
			h.scheduler.HandleFrame,
			responder,
			msg,
		)

	case protocol.MsgTypeStoreUpdate:
		err = h.Handler.HandleStoreUpdate(ctx, responder, msg)

	case protocol.MsgTypePeerCommit:
		err = h.Handler.HandlePeerCommit(ctx, msg)

	case protocol.MsgTypePointerMove:
		err = h.Handler.HandlePointerMove(ctx, responder, msg)

	case protocol.MsgTypePointerLeave:
		err = h.Handler.HandlePointerLeave(ctx, responder, msg)

	case protocol.MsgTypeClick:
		err = h.Handler.HandleClick(ctx, responder, msg)

	case protocol.MsgTypeDrag:
		err = h.Handler.HandleDrag(ctx, responder, msg)

	case protocol.MsgTypeWheel:
		err = h.Handler.HandleWheel(ctx, responder, msg)
	}

	if err != nil {
		return err
	}

	if h.Handler.CurrentParticipant() == nil || h.Handler.CurrentSession() == nil {
		return nil
	}

	for _, m := range h.Handler.GetModules() {
		if err = h.Handler.HandleWithModule(ctx, m, responder, msg); err != nil {
			return err
		}
	}
	return nil
}

func (h *handler) disconnect(err error) {
	select {
	case h.disconnectChan <- err:
	default:
	}
}

func (h *handler) handleDisconnect(err error) {
	h.Conn.Close()
	h.Handler.HandleDisconnect(err)
}

type responseSender struct {
	sendMsg  func(protocol.Msg)
	clientID func() string
}

func (r responseSender) Send(t protocol.MsgType, requestID uint32, data any) {
	msg, err := protocol.MsgFrom(t, requestID, data)
	if err != nil {
		logs.WithTag("msg_type", t).
			WithClientID(r.clientID()).
			Debug(err)
		return
	}
	r.sendMsg(msg)
}

func (r responseSender) SendMsg(msg protocol.Msg) {
	r.sendMsg(msg)
}
