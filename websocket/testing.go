package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/vectorspace/featureflag"
	"github.com/aukilabs/vectorspace/models"
	"github.com/aukilabs/vectorspace/modules"
	"github.com/aukilabs/vectorspace/protocol"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

// The time to wait for an expected message.
const testReceiveTimeout = time.Second * 5

// Creates a testing environement to unit test handlers and modules.
func NewTestingEnv(t *testing.T, newHandler func() Handler) (*websocket.Conn, *websocket.Conn, func()) {
	var mutex sync.Mutex
	logger := t.Log

	logs.Encoder = func(v any) ([]byte, error) {
		return json.MarshalIndent(v, "", "  ")
	}

	logs.SetLogger(func(e logs.Entry) {
		mutex.Lock()
		defer mutex.Unlock()

		if logger != nil {
			logger(e)
		}
	})

	errors.Encoder = json.Marshal

	clientA, clientB, close := newTestingEnv(t, newHandler)
	return clientA, clientB, func() {
		mutex.Lock()
		defer mutex.Unlock()
		logger = nil
		close()
	}
}

func newTestingEnv(t *testing.T, newHandler func() Handler) (*websocket.Conn, *websocket.Conn, func()) {
	server := httptest.NewServer(websocket.Server{
		Handshake: func(c *websocket.Config, r *http.Request) error {
			return nil
		},
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			handler := newHandler()
			defer handler.Close()

			Handle(context.Background(), conn, handler)
		},
	})

	newConn := func() *websocket.Conn {
		config, err := websocket.NewConfig(
			strings.ReplaceAll(server.URL, "http://", "ws://"),
			"http://localhost",
		)
		if err != nil {
			t.Fatalf("error initializing web socket: %s", err)
		}

		config.Header.Set("User-Agent", "ted")
		config.Header.Set("X-Forwarded-for", "192.0.0.0")
		config.Header.Set(HeaderClientID, uuid.NewString())

		conn, err := websocket.DialConfig(config)
		if err != nil {
			t.Fatalf("error dialing web socket: %s", err)
		}

		return conn
	}

	clientA := newConn()
	clientB := newConn()

	return clientA, clientB, func() {
		clientA.Close()
		clientB.Close()
		server.Close()
	}
}

// SendTestMsg sends a message from a testing client.
func SendTestMsg(t *testing.T, conn *websocket.Conn, msgType protocol.MsgType, requestID uint32, data any) {
	msg, err := protocol.MsgFrom(msgType, requestID, data)
	if err != nil {
		t.Fatalf("error creating %s message: %s", msgType, err)
	}

	if _, err := protocol.Send(conn, msg); err != nil {
		t.Fatalf("error sending %s message: %s", msgType, err)
	}
}

// ReceiveTestMsgs reads the messages received by a testing client until one
// has the given type. It returns the messages read, the last one being of the
// given type.
func ReceiveTestMsgs(t *testing.T, conn *websocket.Conn, msgType protocol.MsgType) []protocol.Msg {
	conn.SetReadDeadline(time.Now().Add(testReceiveTimeout))
	defer conn.SetReadDeadline(time.Time{})

	var msgs []protocol.Msg
	for {
		msg, _, err := protocol.Receive(conn)
		if err != nil {
			t.Fatalf("error receiving %s message: %s", msgType, err)
		}

		msgs = append(msgs, msg)
		if msg.Type == msgType {
			return msgs
		}
	}
}

// ReceiveTestMsg skips the messages received by a testing client until one has
// the given type and decodes its payload into v when not nil.
func ReceiveTestMsg(t *testing.T, conn *websocket.Conn, msgType protocol.MsgType, v any) protocol.Msg {
	msgs := ReceiveTestMsgs(t, conn, msgType)
	msg := msgs[len(msgs)-1]

	if v != nil {
		if err := msg.DataTo(v); err != nil {
			t.Fatalf("error decoding %s message: %s", msgType, err)
		}
	}
	return msg
}

func newTestHandler(newModule ...func() modules.Module) func() Handler {
	return newTestHandlerWithFlags(nil, newModule...)
}

func newTestHandlerWithFlags(flags []string, newModule ...func() modules.Module) func() Handler {
	sessionStore := &models.SessionStore{}

	return func() Handler {
		modules := make([]modules.Module, len(newModule))
		for i, nm := range newModule {
			modules[i] = nm()
		}

		var h Handler = &WidgetHandler{
			ClientSyncClockInterval: time.Millisecond * 250,
			ClientIdleTimeout:       time.Minute,
			FrameDuration:           time.Millisecond * 20,
			Sessions:                sessionStore,
			Modules:                 modules,
			FeatureFlags:            featureflag.New(flags),
		}

		h = HandlerWithLogs(h, time.Millisecond*100)
		h = HandlerWithMetrics(h, "http://vectorspace-test.local")
		return h
	}
}
