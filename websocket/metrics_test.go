package websocket

import (
	"testing"
	"time"

	"github.com/aukilabs/vectorspace/protocol"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInstrumentDroppedMsg(t *testing.T) {
	counter := wsDroppedMsgs.WithLabelValues(string(protocol.MsgTypeScene), droppedSendQueueFull)
	before := testutil.ToFloat64(counter)

	instrumentDroppedMsg(protocol.Msg{Type: protocol.MsgTypeScene}, droppedSendQueueFull)
	instrumentDroppedMsg(protocol.Msg{Type: protocol.MsgTypeScene}, droppedSendQueueFull)
	require.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestHandlerWithMetricsConnectedClients(t *testing.T) {
	const endpoint = "http://vectorspace-metrics.local"
	gauge := wsConnectedClients.WithLabelValues(endpoint)

	clientA, _, close := NewTestingEnv(t, func() Handler {
		return HandlerWithMetrics(newTestHandler()(), endpoint)
	})
	defer close()

	join(t, clientA, 1, protocol.JoinRequest{})
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(gauge) == 2
	}, time.Second*5, time.Millisecond*10)
}
