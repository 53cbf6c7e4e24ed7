package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/vectorspace/modules"
	"github.com/aukilabs/vectorspace/protocol"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/net/websocket"
)

const (
	metricsNamespace = "vectorspace"
	metricsSubsystem = "ws"

	errTypeLabel        = "error_type"
	msgTypeLabel        = "msg_type"
	moduleLabel         = "module"
	publicEndpointLabel = "public_endpoint"
	reasonLabel         = "reason"

	defaultModule = "vectorspace"

	droppedSendQueueFull  = "send_queue_full"
	droppedDispatchFailed = "dispatch_failed"
)

func wsOpts(name, help string) prometheus.Opts {
	return prometheus.Opts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      name,
		Help:      help,
	}
}

var (
	wsConnectedClients = promauto.NewGaugeVec(
		prometheus.GaugeOpts(wsOpts("connected_clients", "The number of connected widget hosts.")),
		[]string{publicEndpointLabel},
	)

	wsReceivedMsgs = promauto.NewCounterVec(
		prometheus.CounterOpts(wsOpts("received_msgs", "The number of messages received from widget hosts.")),
		[]string{publicEndpointLabel, msgTypeLabel},
	)

	wsReceivedBytes = promauto.NewCounterVec(
		prometheus.CounterOpts(wsOpts("received_bytes", "The number of bytes received from widget hosts.")),
		[]string{publicEndpointLabel, msgTypeLabel},
	)

	wsReceiveErrors = promauto.NewCounterVec(
		prometheus.CounterOpts(wsOpts("receive_errors", "The errors that occurred while receiving a message.")),
		[]string{publicEndpointLabel, errTypeLabel},
	)

	wsSentMsgs = promauto.NewCounterVec(
		prometheus.CounterOpts(wsOpts("sent_msgs", "The number of messages sent to widget hosts.")),
		[]string{publicEndpointLabel, msgTypeLabel},
	)

	wsSentBytes = promauto.NewCounterVec(
		prometheus.CounterOpts(wsOpts("sent_bytes", "The number of bytes sent to widget hosts.")),
		[]string{publicEndpointLabel, msgTypeLabel},
	)

	wsSendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts(wsOpts("send_errors", "The errors that occurred while sending a message.")),
		[]string{publicEndpointLabel, errTypeLabel, msgTypeLabel},
	)

	wsDroppedMsgs = promauto.NewCounterVec(
		prometheus.CounterOpts(wsOpts("dropped_msgs", "The messages dropped by connection queues.")),
		[]string{msgTypeLabel, reasonLabel},
	)

	wsMsgLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "msg_latency",
		Help:      "The time to handle a message, in seconds.",
	}, []string{publicEndpointLabel, msgTypeLabel, moduleLabel})

	wsFrameDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "frame_duration",
		Help:      "The time to update and draw a view frame, in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{publicEndpointLabel})
)

func instrumentDroppedMsg(msg protocol.Msg, reason string) {
	wsDroppedMsgs.
		With(prometheus.Labels{
			msgTypeLabel: msg.TypeString(),
			reasonLabel:  reason,
		}).
		Inc()
}

func HandlerWithMetrics(h Handler, publicEndpoint string) Handler {
	return &handlerWithMetrics{
		Handler:        h,
		publicEndpoint: publicEndpoint,
	}
}

type handlerWithMetrics struct {
	Handler

	publicEndpoint string
}

func (h *handlerWithMetrics) HandleConnect(conn *websocket.Conn) {
	wsConnectedClients.
		With(prometheus.Labels{
			publicEndpointLabel: h.publicEndpoint,
		}).
		Inc()

	h.Handler.HandleConnect(conn)
}

func (h *handlerWithMetrics) HandlePing(ctx context.Context, sender protocol.ResponseSender, msg protocol.Msg) error {
	return h.measureLatency(msg, defaultModule, func() error {
		return h.Handler.HandlePing(ctx, sender, msg)
	})
}

func (h *handlerWithMetrics) HandleJoin(ctx context.Context, deliver func(protocol.Msg), handleFrame func(), sender protocol.ResponseSender, msg protocol.Msg) error {
	return h.measureLatency(msg, defaultModule, func() error {
		return h.Handler.HandleJoin(ctx, deliver, handleFrame, sender, msg)
	})
}

func (h *handlerWithMetrics) HandleDisconnect(err error) {
	wsConnectedClients.
		With(prometheus.Labels{
			publicEndpointLabel: h.publicEndpoint,
		}).
		Dec()

	h.Handler.HandleDisconnect(err)
}

func (h *handlerWithMetrics) HandleStoreUpdate(ctx context.Context, sender protocol.ResponseSender, msg protocol.Msg) error {
	return h.measureLatency(msg, defaultModule, func() error {
		return h.Handler.HandleStoreUpdate(ctx, sender, msg)
	})
}

func (h *handlerWithMetrics) HandlePeerCommit(ctx context.Context, msg protocol.Msg) error {
	return h.measureLatency(msg, defaultModule, func() error {
		return h.Handler.HandlePeerCommit(ctx, msg)
	})
}

func (h *handlerWithMetrics) HandlePointerMove(ctx context.Context, sender protocol.ResponseSender, msg protocol.Msg) error {
	return h.measureLatency(msg, defaultModule, func() error {
		return h.Handler.HandlePointerMove(ctx, sender, msg)
	})
}

func (h *handlerWithMetrics) HandleClick(ctx context.Context, sender protocol.ResponseSender, msg protocol.Msg) error {
	return h.measureLatency(msg, defaultModule, func() error {
		return h.Handler.HandleClick(ctx, sender, msg)
	})
}

func (h *handlerWithMetrics) HandleFrame(ctx context.Context) error {
	start := time.Now()
	err := h.Handler.HandleFrame(ctx)

	wsFrameDuration.
		With(prometheus.Labels{
			publicEndpointLabel: h.publicEndpoint,
		}).
		Observe(time.Since(start).Seconds())
	return err
}

func (h *handlerWithMetrics) HandleWithModule(ctx context.Context, module modules.Module, sender protocol.ResponseSender, msg protocol.Msg) error {
	return h.measureLatency(msg, module.Name(), func() error {
		return h.Handler.HandleWithModule(ctx, module, sender, msg)
	})
}

func (h *handlerWithMetrics) SendSyncClock(ctx context.Context, sender protocol.ResponseSender) error {
	return h.measureLatency(protocol.Msg{Type: protocol.MsgTypeSyncClock}, defaultModule, func() error {
		return h.Handler.SendSyncClock(ctx, sender)
	})
}

func (h *handlerWithMetrics) Receiver() protocol.Receiver {
	receive := h.Handler.Receiver()

	return func() (protocol.Msg, int, error) {
		msg, n, err := receive()
		if err != nil {
			wsReceiveErrors.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					errTypeLabel:        errors.Type(err),
				}).
				Inc()
		} else {
			wsReceivedMsgs.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					msgTypeLabel:        msg.TypeString(),
				}).
				Inc()
		}

		if n != 0 {
			wsReceivedBytes.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					msgTypeLabel:        msg.TypeString(),
				}).
				Add(float64(n))
		}

		return msg, n, err
	}
}

func (h *handlerWithMetrics) Sender() protocol.Sender {
	sender := h.Handler.Sender()

	return func(msg protocol.Msg) (int, error) {
		msgType := msg.TypeString()

		n, err := sender(msg)
		if err != nil {
			wsSendErrors.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					msgTypeLabel:        msgType,
					errTypeLabel:        errors.Type(err),
				}).
				Inc()
		}

		if n != 0 {
			wsSentMsgs.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					msgTypeLabel:        msgType,
				}).
				Inc()
			wsSentBytes.
				With(prometheus.Labels{
					publicEndpointLabel: h.publicEndpoint,
					msgTypeLabel:        msgType,
				}).
				Add(float64(n))
		}

		return n, err
	}
}

func (h *handlerWithMetrics) measureLatency(msg protocol.Msg, module string, f func() error) error {
	start := time.Now()

	err := f()
	if errors.IsType(err, protocol.ErrTypeMsgSkip) {
		return err
	}

	wsMsgLatency.With(prometheus.Labels{
		publicEndpointLabel: h.publicEndpoint,
		msgTypeLabel:        msg.TypeString(),
		moduleLabel:         module,
	}).Observe(time.Since(start).Seconds())

	return err
}
