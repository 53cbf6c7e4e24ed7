package websocket

import (
	"sync"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/vectorspace/protocol"
)

const (
	maxQueueSize = 4096

	ErrTypeQueueFull   = "queue_full"
	ErrTypeQueueClosed = "queue_closed"
)

// scheduler queues the messages handled by a connection loop. Frames are
// coalesced: a frame requested while another one is pending is dropped.
type scheduler struct {
	mutex  sync.Mutex
	queue  []protocol.Msg
	frame  bool
	closed bool
	ready  chan struct{}
}

func newScheduler() *scheduler {
	return &scheduler{
		ready: make(chan struct{}, 1),
	}
}

// Dispatch queues a message.
func (s *scheduler) Dispatch(msg protocol.Msg) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed {
		return errors.New("scheduler is closed").
			WithType(ErrTypeQueueClosed).
			WithTag("msg_type", msg.Type)
	}
	if len(s.queue) >= maxQueueSize {
		return errors.New("message queue is full").
			WithType(ErrTypeQueueFull).
			WithTag("msg_type", msg.Type).
			WithTag("size", len(s.queue))
	}

	s.queue = append(s.queue, msg)
	s.notify()
	return nil
}

// HandleFrame requests a frame.
func (s *scheduler) HandleFrame() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.closed || s.frame {
		return
	}
	s.frame = true
	s.notify()
}

// Ready returns a channel that receives a value when messages or a frame are
// pending.
func (s *scheduler) Ready() <-chan struct{} {
	return s.ready
}

// Drain returns the queued messages and whether a frame is pending, then
// resets the queue.
func (s *scheduler) Drain() ([]protocol.Msg, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	msgs := s.queue
	frame := s.frame
	s.queue = nil
	s.frame = false
	return msgs, frame
}

func (s *scheduler) Close() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.closed = true
	s.queue = nil
	s.frame = false
}

func (s *scheduler) notify() {
	select {
	case s.ready <- struct{}{}:
	default:
	}
}
