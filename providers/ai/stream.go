package ai

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
)

// ErrStreamEnded is returned by [EventStream.Result] when the stream was
// closed without a terminal result.
var ErrStreamEnded = errors.New("stream ended without a result")

// EventStream is an ordered, unbounded queue of events with a separate
// terminal result. One goroutine pushes, any number of consumers pull; each
// event is delivered to exactly one Next call, in push order.
//
// When an event satisfies the completion predicate the stream resolves its
// result through the extractor and closes: later pushes are silently
// dropped. Consumers keep draining what was queued before the close.
type EventStream[E any, R any] struct {
	isComplete func(E) bool
	extract    func(E) R

	mu       sync.Mutex
	queue    []E
	wake     chan struct{}
	closed   bool
	closedCh chan struct{}

	resolved bool
	result   R
	done     chan struct{}
}

// NewEventStream creates a stream. isComplete and extract may be nil, in
// which case the stream only resolves through End.
func NewEventStream[E any, R any](isComplete func(E) bool, extract func(E) R) *EventStream[E, R] {
	return &EventStream[E, R]{
		isComplete: isComplete,
		extract:    extract,
		wake:       make(chan struct{}),
		closedCh:   make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Push enqueues event. A completing event also resolves the result and
// closes the stream. Pushing to a closed stream is a no-op.
func (s *EventStream[E, R]) Push(event E) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.queue = append(s.queue, event)

	if s.isComplete != nil && s.isComplete(event) {
		if s.extract != nil {
			s.resolve(s.extract(event))
		}
		s.close()
	}
	s.signal()
}

// End force-closes the stream, releasing suspended consumers once the queue
// is drained. A non-nil result resolves the terminal value unless one was
// already resolved.
func (s *EventStream[E, R]) End(result *R) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if result != nil && !s.resolved {
		s.resolve(*result)
	}
	if !s.closed {
		s.close()
	}
	s.signal()
}

// caller holds s.mu
func (s *EventStream[E, R]) resolve(result R) {
	s.result = result
	s.resolved = true
	close(s.done)
}

// caller holds s.mu
func (s *EventStream[E, R]) close() {
	s.closed = true
	close(s.closedCh)
}

// caller holds s.mu
func (s *EventStream[E, R]) signal() {
	close(s.wake)
	s.wake = make(chan struct{})
}

// Next returns the next event, suspending until one is pushed. It returns
// false once the stream is closed and drained, or when ctx is done.
func (s *EventStream[E, R]) Next(ctx context.Context) (E, bool) {
	var zero E
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			event := s.queue[0]
			s.queue[0] = zero
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return event, true
		}
		if s.closed {
			s.mu.Unlock()
			return zero, false
		}
		wake := s.wake
		s.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return zero, false
		}
	}
}

// All returns a lazy, non-restartable sequence over the remaining events.
//
//	for event := range stream.All() {
//	    ...
//	}
func (s *EventStream[E, R]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for {
			event, ok := s.Next(context.Background())
			if !ok || !yield(event) {
				return
			}
		}
	}
}

// Result waits for the terminal result. It may be called before, during or
// after iteration. It fails with ErrStreamEnded when the stream closed
// without a result and with ctx's error when ctx is done first.
func (s *EventStream[E, R]) Result(ctx context.Context) (R, error) {
	var zero R
	select {
	case <-s.done:
		return s.result, nil
	case <-s.closedCh:
		select {
		case <-s.done:
			return s.result, nil
		default:
			return zero, ErrStreamEnded
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Done is closed when the stream stops accepting events.
func (s *EventStream[E, R]) Done() <-chan struct{} {
	return s.closedCh
}

// MessageStream is the EventStream of one streaming call. It completes on
// the first DoneEvent or ErrorEvent and resolves to that event's message.
type MessageStream struct {
	*EventStream[Event, *AssistantMessage]
}

// NewMessageStream creates an empty MessageStream.
func NewMessageStream() *MessageStream {
	return &MessageStream{
		EventStream: NewEventStream(IsTerminal, func(event Event) *AssistantMessage {
			return event.Snapshot()
		}),
	}
}

// StreamError reports a call that ended with stop reason error or aborted.
// Partial is the message as it stood when the call failed.
type StreamError struct {
	Reason  StopReason
	Message string
	Partial *AssistantMessage
}

func (e *StreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("stream %s", e.Reason)
	}
	return fmt.Sprintf("stream %s: %s", e.Reason, e.Message)
}

// Is matches context.Canceled for aborted streams, so callers can test for
// cancellation with errors.Is.
func (e *StreamError) Is(target error) bool {
	return e.Reason == StopReasonAborted && target == context.Canceled
}

// ResultOrError waits for the final message and converts a failed or aborted
// call into a *StreamError that carries the partial message. Any other stop
// reason returns the message with a nil error.
func (s *MessageStream) ResultOrError(ctx context.Context) (*AssistantMessage, error) {
	message, err := s.Result(ctx)
	if err != nil {
		return nil, err
	}
	if message.StopReason.IsFailure() {
		return message, &StreamError{Reason: message.StopReason, Message: message.ErrorMessage, Partial: message}
	}
	return message, nil
}
