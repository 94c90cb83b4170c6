package utils

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, input string) []SSEEvent {
	t.Helper()
	scanner := NewSSEScanner(strings.NewReader(input))
	var events []SSEEvent
	for {
		event, err := scanner.Next()
		if err == io.EOF {
			return events
		}
		require.NoError(t, err)
		events = append(events, event)
	}
}

func TestSSEScanner(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []SSEEvent
	}{
		{
			name:  "named events",
			input: "event: message_start\ndata: {\"type\":\"message_start\"}\n\nevent: ping\ndata: {\"type\":\"ping\"}\n\n",
			want: []SSEEvent{
				{Name: "message_start", Data: `{"type":"message_start"}`},
				{Name: "ping", Data: `{"type":"ping"}`},
			},
		},
		{
			name:  "unnamed event",
			input: "data: {\"type\":\"response.created\"}\n\n",
			want:  []SSEEvent{{Data: `{"type":"response.created"}`}},
		},
		{
			name:  "data lines are joined",
			input: "data: a\ndata: b\n\n",
			want:  []SSEEvent{{Data: "a\nb"}},
		},
		{
			name:  "only one leading space is stripped",
			input: "data:  indented\ndata:tight\n\n",
			want:  []SSEEvent{{Data: " indented\ntight"}},
		},
		{
			name:  "comments and other fields are skipped",
			input: ": keep-alive\nid: 7\nretry: 1000\ndata: x\n\n",
			want:  []SSEEvent{{Data: "x"}},
		},
		{
			name:  "name without data does not leak into the next event",
			input: "event: ping\n\ndata: x\n\n",
			want:  []SSEEvent{{Data: "x"}},
		},
		{
			name:  "event cut off at end of body",
			input: "event: message_stop\ndata: {}",
			want:  []SSEEvent{{Name: "message_stop", Data: "{}"}},
		},
		{
			name:  "done sentinel ends the stream",
			input: "data: first\n\ndata: [DONE]\n\ndata: never\n\n",
			want:  []SSEEvent{{Data: "first"}},
		},
		{
			name:  "empty body",
			input: "",
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scanAll(t, tt.input))
		})
	}
}

func TestSSEScanner_LargeLine(t *testing.T) {
	args := strings.Repeat("x", 200<<10)
	events := scanAll(t, "data: "+args+"\n\n")
	require.Len(t, events, 1)
	assert.Len(t, events[0].Data, len(args))
}

func TestSSEScanner_LineTooLong(t *testing.T) {
	scanner := NewSSEScanner(strings.NewReader("data: " + strings.Repeat("x", maxSSELineSize+1) + "\n\n"))
	_, err := scanner.Next()
	require.Error(t, err)
	assert.ErrorIs(t, err, bufio.ErrTooLong)
}

func TestOpenEventStream(t *testing.T) {
	var got struct {
		method  string
		headers http.Header
		body    map[string]any
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.headers = r.Header.Clone()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got.body))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "event: ping\ndata: {}\n\n")
	}))
	t.Cleanup(server.Close)

	body, err := OpenEventStream(context.Background(), server.Client(), server.URL,
		map[string]any{"stream": true},
		BearerAuth("sk-test"),
		HeaderOption{Key: "anthropic-version", Value: "2023-06-01"},
	)
	require.NoError(t, err)
	defer CloseWithLog(body)

	event, err := NewSSEScanner(body).Next()
	require.NoError(t, err)
	assert.Equal(t, SSEEvent{Name: "ping", Data: "{}"}, event)

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "Bearer sk-test", got.headers.Get("Authorization"))
	assert.Equal(t, "2023-06-01", got.headers.Get("anthropic-version"))
	assert.Equal(t, "text/event-stream", got.headers.Get("Accept"))
	assert.Equal(t, "application/json", got.headers.Get("Content-Type"))
	assert.Equal(t, map[string]any{"stream": true}, got.body)
}

func TestOpenEventStream_NoAuthorizationByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
	}))
	t.Cleanup(server.Close)

	body, err := OpenEventStream(context.Background(), nil, server.URL, map[string]any{})
	require.NoError(t, err)
	CloseWithLog(body)
}

func TestOpenEventStream_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"Rate limit reached"}}`+"\n")
	}))
	t.Cleanup(server.Close)

	_, err := OpenEventStream(context.Background(), server.Client(), server.URL, map[string]any{})

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, `{"error":{"message":"Rate limit reached"}}`, statusErr.Body)
	assert.Contains(t, err.Error(), "429")
}

func TestOpenEventStream_Failures(t *testing.T) {
	t.Run("unencodable body", func(t *testing.T) {
		_, err := OpenEventStream(context.Background(), nil, "http://127.0.0.1:1", make(chan int))
		assert.ErrorContains(t, err, "encode request")
	})

	t.Run("unreachable server", func(t *testing.T) {
		_, err := OpenEventStream(context.Background(), nil, "http://127.0.0.1:1", map[string]any{})
		assert.ErrorContains(t, err, "send request")
	})

	t.Run("cancelled context", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		t.Cleanup(server.Close)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := OpenEventStream(ctx, server.Client(), server.URL, map[string]any{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
