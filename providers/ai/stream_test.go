package ai

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIntStream() *EventStream[int, string] {
	return NewEventStream(
		func(v int) bool { return v < 0 },
		func(v int) string { return "done" },
	)
}

func TestEventStream_DeliversInPushOrder(t *testing.T) {
	stream := newIntStream()
	for i := 1; i <= 3; i++ {
		stream.Push(i)
	}
	stream.Push(-1)

	var got []int
	for v := range stream.All() {
		got = append(got, v)
	}
	assert.Equal(t, []int{1, 2, 3, -1}, got)

	result, err := stream.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", result)
}

func TestEventStream_PushAfterCloseIsNoop(t *testing.T) {
	stream := newIntStream()
	stream.Push(-1)
	stream.Push(5)
	stream.End(nil)

	var got []int
	for v := range stream.All() {
		got = append(got, v)
	}
	assert.Equal(t, []int{-1}, got)
}

func TestEventStream_ResultBeforeIteration(t *testing.T) {
	stream := newIntStream()
	go func() {
		stream.Push(1)
		stream.Push(-1)
	}()

	result, err := stream.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", result)

	var got []int
	for v := range stream.All() {
		got = append(got, v)
	}
	assert.Equal(t, []int{1, -1}, got)
}

func TestEventStream_ConsumerSuspendsUntilPush(t *testing.T) {
	stream := newIntStream()
	received := make(chan int, 1)
	go func() {
		v, ok := stream.Next(context.Background())
		if ok {
			received <- v
		}
	}()

	select {
	case <-received:
		t.Fatal("Next returned before anything was pushed")
	case <-time.After(20 * time.Millisecond):
	}

	stream.Push(7)
	select {
	case v := <-received:
		assert.Equal(t, 7, v)
	case <-time.After(time.Second):
		t.Fatal("Next did not wake up after Push")
	}
}

func TestEventStream_EndReleasesConsumers(t *testing.T) {
	stream := newIntStream()
	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := stream.Next(context.Background())
			assert.False(t, ok)
		}()
	}

	time.Sleep(10 * time.Millisecond)
	stream.End(nil)
	wg.Wait()

	_, err := stream.Result(context.Background())
	assert.ErrorIs(t, err, ErrStreamEnded)
}

func TestEventStream_EndWithResult(t *testing.T) {
	stream := newIntStream()
	stream.Push(1)
	result := "forced"
	stream.End(&result)

	got, err := stream.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "forced", got)

	v, ok := stream.Next(context.Background())
	require.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = stream.Next(context.Background())
	assert.False(t, ok)

	other := "ignored"
	stream.End(&other)
	got, err = stream.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "forced", got)
}

func TestEventStream_NextHonoursContext(t *testing.T) {
	stream := newIntStream()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok := stream.Next(ctx)
	assert.False(t, ok)

	_, err := stream.Result(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEventStream_DoneChannel(t *testing.T) {
	stream := newIntStream()
	select {
	case <-stream.Done():
		t.Fatal("stream closed early")
	default:
	}

	stream.Push(-1)
	select {
	case <-stream.Done():
	default:
		t.Fatal("stream not closed after completing event")
	}
}

func TestMessageStream_ResultOrError(t *testing.T) {
	t.Run("done", func(t *testing.T) {
		stream := NewMessageStream()
		message := &AssistantMessage{StopReason: StopReasonLength}
		stream.Push(&DoneEvent{Reason: StopReasonLength, Message: message})

		got, err := stream.ResultOrError(context.Background())
		require.NoError(t, err)
		assert.Same(t, message, got)
	})

	t.Run("error", func(t *testing.T) {
		stream := NewMessageStream()
		message := &AssistantMessage{StopReason: StopReasonError, ErrorMessage: "boom"}
		stream.Push(&ErrorEvent{Reason: StopReasonError, Message: message})

		got, err := stream.ResultOrError(context.Background())
		var streamErr *StreamError
		require.ErrorAs(t, err, &streamErr)
		assert.Equal(t, StopReasonError, streamErr.Reason)
		assert.Equal(t, "boom", streamErr.Message)
		assert.Same(t, message, streamErr.Partial)
		assert.Same(t, message, got)
		assert.Equal(t, "stream error: boom", err.Error())
		assert.False(t, errors.Is(err, context.Canceled))
	})

	t.Run("aborted", func(t *testing.T) {
		stream := NewMessageStream()
		message := &AssistantMessage{StopReason: StopReasonAborted, ErrorMessage: DefaultAbortMessage}
		stream.Push(&ErrorEvent{Reason: StopReasonAborted, Message: message})

		_, err := stream.ResultOrError(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("plain result accessor never fails on error stop reason", func(t *testing.T) {
		stream := NewMessageStream()
		stream.Push(&ErrorEvent{Reason: StopReasonError, Message: &AssistantMessage{StopReason: StopReasonError}})

		got, err := stream.Result(context.Background())
		require.NoError(t, err)
		assert.Equal(t, StopReasonError, got.StopReason)
	})
}
