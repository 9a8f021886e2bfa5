package backend

import (
	"context"
	"sync"

	"github.com/ferat8/sui/pkg/types"
)

// EventResult is one item of an event subscription: an event or the terminal error of the stream.
type EventResult struct {
	Envelope *types.EventEnvelope
	Err      error
}

// EventStream is a lazy, unbounded sequence of events. It cannot be restarted: after a terminal error or Close
// the channel is closed.
type EventStream struct {
	results   chan EventResult
	done      chan struct{}
	closeOnce sync.Once
	onClose   func()
}

// NewEventStream creates a stream and returns the producer side. The producer must stop sending once the
// returned context is done and call finish exactly once.
func NewEventStream(ctx context.Context, onClose func()) (stream *EventStream, producerCtx context.Context, send func(EventResult) bool, finish func()) {
	stream = &EventStream{
		results: make(chan EventResult),
		done:    make(chan struct{}),
		onClose: onClose,
	}

	producerCtx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-stream.done:
		case <-producerCtx.Done():
		}
		cancel()
	}()

	send = func(result EventResult) bool {
		select {
		case stream.results <- result:
			return result.Err == nil
		case <-producerCtx.Done():
			return false
		}
	}

	var finishOnce sync.Once
	finish = func() {
		finishOnce.Do(func() {
			cancel()
			close(stream.results)
		})
	}

	return stream, producerCtx, send, finish
}

// Results returns the channel the items are delivered on.
func (s *EventStream) Results() <-chan EventResult {
	return s.results
}

// Next blocks for the next item. ok is false once the stream ended. If ctx is done first, Next returns ctx.Err()
// with ok true: that error belongs to the call, not to the stream, which stays open and can be read again.
func (s *EventStream) Next(ctx context.Context) (result EventResult, ok bool) {
	select {
	case result, ok = <-s.results:
		return result, ok
	case <-ctx.Done():
		return EventResult{Err: ctx.Err()}, true
	}
}

// Close ends the subscription.
func (s *EventStream) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.onClose != nil {
			s.onClose()
		}
	})
}
