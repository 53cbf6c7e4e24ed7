// Package smoketest checks that a vectorspace endpoint serves widgets: it
// joins a new session, pings it and requests a snapshot.
package smoketest

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/aukilabs/vectorspace/protocol"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

const (
	ErrTypeUnexpectedMsg = "smoketest_unexpected_msg"

	// DefaultTimeout is the time a whole smoke test can take.
	DefaultTimeout = time.Second * 10
)

type Options struct {
	// The endpoint tested, http(s) or ws(s).
	Endpoint string

	// The user agent set on the websocket handshake.
	UserAgent string

	// The time the test can take. Defaults to DefaultTimeout.
	Timeout time.Duration

	// The snapshot format requested.
	Format string
}

type Results struct {
	Endpoint         string        `json:"endpoint"`
	Success          bool          `json:"success"`
	Error            string        `json:"error,omitempty"`
	SessionID        string        `json:"session_id,omitempty"`
	JoinDuration     time.Duration `json:"join_duration"`
	PingDuration     time.Duration `json:"ping_duration"`
	SnapshotDuration time.Duration `json:"snapshot_duration"`
	SnapshotSize     int           `json:"snapshot_size"`
}

// Run runs a smoke test against an endpoint. The results are returned even
// when the test fails.
func Run(ctx context.Context, opts Options) (Results, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Format == "" {
		opts.Format = "png"
	}

	res := Results{Endpoint: opts.Endpoint}
	err := run(ctx, opts, &res)
	if err != nil {
		res.Error = err.Error()
		return res, err
	}
	res.Success = true
	return res, nil
}

func run(ctx context.Context, opts Options, res *Results) error {
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	conn, err := dial(ctx, opts)
	if err != nil {
		return err
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	conn.SetDeadline(deadline)

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	var joinResponse protocol.JoinResponse
	start := time.Now()
	if err := roundTrip(conn, protocol.MsgTypeJoin, 1, protocol.JoinRequest{}, protocol.MsgTypeJoinResponse, &joinResponse); err != nil {
		return errors.New("joining session failed").Wrap(err)
	}
	res.JoinDuration = time.Since(start)
	res.SessionID = joinResponse.SessionID

	start = time.Now()
	if err := roundTrip(conn, protocol.MsgTypePing, 2, nil, protocol.MsgTypePong, nil); err != nil {
		return errors.New("ping failed").Wrap(err)
	}
	res.PingDuration = time.Since(start)

	var snapshot protocol.Snapshot
	start = time.Now()
	if err := roundTrip(conn, protocol.MsgTypeSnapshotRequest, 3, protocol.SnapshotRequest{Format: opts.Format}, protocol.MsgTypeSnapshot, &snapshot); err != nil {
		return errors.New("snapshot failed").Wrap(err)
	}
	res.SnapshotDuration = time.Since(start)
	res.SnapshotSize = len(snapshot.Data)

	if res.SnapshotSize == 0 {
		return errors.New("empty snapshot").
			WithType(ErrTypeUnexpectedMsg).
			WithTag("format", opts.Format)
	}
	return nil
}

func dial(ctx context.Context, opts Options) (*websocket.Conn, error) {
	origin := opts.Endpoint
	endpoint := strings.Replace(opts.Endpoint, "http", "ws", 1)

	config, err := websocket.NewConfig(endpoint, origin)
	if err != nil {
		return nil, errors.New("invalid endpoint").
			WithTag("endpoint", opts.Endpoint).
			Wrap(err)
	}
	if opts.UserAgent != "" {
		config.Header.Set("User-Agent", opts.UserAgent)
	}

	conn, err := config.DialContext(ctx)
	if err != nil {
		return nil, errors.New("dialing endpoint failed").
			WithTag("endpoint", opts.Endpoint).
			Wrap(err)
	}
	return conn, nil
}

// roundTrip sends a request and waits for its response. Messages that are not
// responses to the request are skipped.
func roundTrip(conn *websocket.Conn, t protocol.MsgType, requestID uint32, data any, expected protocol.MsgType, v any) error {
	msg, err := protocol.MsgFrom(t, requestID, data)
	if err != nil {
		return err
	}
	if _, err := protocol.Send(conn, msg); err != nil {
		return err
	}

	for {
		msg, _, err := protocol.Receive(conn)
		if err != nil {
			return err
		}
		if msg.RequestID != requestID {
			continue
		}

		switch msg.Type {
		case expected:
			if v == nil {
				return nil
			}
			return msg.DataTo(v)

		case protocol.MsgTypeError:
			var res protocol.ErrorResponse
			if err := msg.DataTo(&res); err != nil {
				return err
			}
			return errors.New(res.Message).
				WithType(string(res.Code))

		default:
			return errors.New("unexpected message").
				WithType(ErrTypeUnexpectedMsg).
				WithTag("msg_type", msg.Type).
				WithTag("expected", expected)
		}
	}
}

type request struct {
	Endpoint string `json:"endpoint"`
	Timeout  string `json:"timeout"`
	Format   string `json:"format"`
}

// HandleSmokeTest runs a smoke test and responds with its results. The
// request body optionally names the endpoint to test, the default endpoint
// is tested otherwise.
func HandleSmokeTest(ctx context.Context, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "reading body failed", http.StatusBadRequest)
			return
		}

		var req request
		if len(b) != 0 {
			if err := json.Unmarshal(b, &req); err != nil {
				http.Error(w, "invalid smoke test request", http.StatusBadRequest)
				return
			}
		}

		testOpts := opts
		if req.Endpoint != "" {
			testOpts.Endpoint = req.Endpoint
		}
		if req.Format != "" {
			testOpts.Format = req.Format
		}
		if req.Timeout != "" {
			timeout, err := time.ParseDuration(req.Timeout)
			if err != nil {
				http.Error(w, "invalid smoke test timeout", http.StatusBadRequest)
				return
			}
			testOpts.Timeout = timeout
		}

		res, err := Run(ctx, testOpts)
		if err != nil {
			logs.WithTag("endpoint", testOpts.Endpoint).
				Warn(errors.New("smoke test failed").Wrap(err))
		}

		status := http.StatusOK
		if !res.Success {
			status = http.StatusBadGateway
		}

		b, err = json.Marshal(res)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write(b)
	}
}
