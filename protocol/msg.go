// Package protocol defines the messages exchanged between a widget host and
// the server.
package protocol

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
)

const (
	ErrTypeMsgSkip          = "msg_skip"
	ErrTypeSessionNotJoined = "session_not_joined"
	ErrTypeMsgDecode        = "msg_decode"
)

// ErrModuleMsgSkip is returned by modules that do not handle a message.
var ErrModuleMsgSkip = errors.New("module message skipped").WithType(ErrTypeMsgSkip)

// MsgType identifies the content of a message.
type MsgType string

const (
	// Host to server.
	MsgTypePing            MsgType = "ping"
	MsgTypeJoin            MsgType = "join"
	MsgTypeStoreUpdate     MsgType = "store_update"
	MsgTypePointerMove     MsgType = "pointer_move"
	MsgTypePointerLeave    MsgType = "pointer_leave"
	MsgTypeClick           MsgType = "click"
	MsgTypeDrag            MsgType = "drag"
	MsgTypeWheel           MsgType = "wheel"
	MsgTypeCommand         MsgType = "command"
	MsgTypeSnapshotRequest MsgType = "snapshot_request"

	// Server to host.
	MsgTypePong            MsgType = "pong"
	MsgTypeSyncClock       MsgType = "sync_clock"
	MsgTypeJoinResponse    MsgType = "join_response"
	MsgTypeError           MsgType = "error"
	MsgTypeStoreCommit     MsgType = "store_commit"
	MsgTypeStoreState      MsgType = "store_state"
	MsgTypeScene           MsgType = "scene"
	MsgTypeCamera          MsgType = "camera"
	MsgTypeTooltip         MsgType = "tooltip"
	MsgTypeEvent           MsgType = "event"
	MsgTypeCommandResponse MsgType = "command_response"
	MsgTypeSnapshot        MsgType = "snapshot"

	// Dispatched internally, never sent over the wire.
	MsgTypeFrame      MsgType = "frame"
	MsgTypePeerCommit MsgType = "peer_commit"
)

// Msg is the envelope of every message.
type Msg struct {
	Type      MsgType         `json:"type"`
	RequestID uint32          `json:"request_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MsgFrom creates a message with the given payload.
func MsgFrom(t MsgType, requestID uint32, data any) (Msg, error) {
	msg := Msg{
		Type:      t,
		RequestID: requestID,
		Timestamp: time.Now(),
	}

	if data == nil {
		return msg, nil
	}

	b, err := json.Marshal(data)
	if err != nil {
		return Msg{}, errors.New("encoding message data failed").
			WithType(ErrTypeMsgDecode).
			WithTag("msg_type", t).
			Wrap(err)
	}
	msg.Data = b
	return msg, nil
}

// DataTo decodes the message payload into v.
func (m Msg) DataTo(v any) error {
	if len(m.Data) == 0 {
		return nil
	}

	if err := json.Unmarshal(m.Data, v); err != nil {
		return errors.New("decoding message data failed").
			WithType(ErrTypeMsgDecode).
			WithTag("msg_type", m.Type).
			Wrap(err)
	}
	return nil
}

func (m Msg) TypeString() string {
	if m.Type == "" {
		return "unknown"
	}
	return string(m.Type)
}

// ResponseSender sends messages to a connected host.
type ResponseSender interface {
	// Encodes data and sends it with the given type. Encoding failures are
	// logged and the message dropped.
	Send(t MsgType, requestID uint32, data any)

	// Sends an already encoded message.
	SendMsg(Msg)
}
