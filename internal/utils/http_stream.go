package utils

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leofalp/llmstream/providers/observability"
)

const (
	// maxSSELineSize bounds one SSE line. Tool-call argument events can
	// exceed bufio's 64 KiB default.
	maxSSELineSize = 1 << 20

	// maxErrorBodySize bounds how much of a failed response is read into
	// the returned StatusError.
	maxErrorBodySize = 64 << 10

	doneSentinel = "[DONE]"
)

// StatusError reports a streaming request the backend answered with a
// non-2xx status. Body holds the start of the response body, which is where
// vendors put their error description.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// BearerAuth returns the Authorization header for apiKey.
func BearerAuth(apiKey string) HeaderOption {
	return HeaderOption{Key: "Authorization", Value: "Bearer " + apiKey}
}

// OpenEventStream POSTs body as JSON to url and returns the response body
// positioned at the first server-sent event. The caller closes it. Failed
// requests never leak an open body: a non-2xx response is drained into a
// *StatusError.
func OpenEventStream(ctx context.Context, client *http.Client, url string, body any, headers ...HeaderOption) (io.ReadCloser, error) {
	if client == nil {
		client = http.DefaultClient
	}
	span := observability.SpanFromContext(ctx)

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "text/event-stream")
	for _, header := range headers {
		request.Header.Set(header.Key, header.Value)
	}

	if span != nil {
		span.AddEvent(observability.EventHTTPStreamOpen,
			observability.String(observability.AttrHTTPURL, url),
			observability.Int(observability.AttrHTTPRequestBodySize, len(encoded)),
		)
	}

	start := time.Now()
	response, err := client.Do(request)
	if err != nil {
		if span != nil {
			span.AddEvent(observability.EventHTTPStreamError, observability.Error(err))
		}
		return nil, fmt.Errorf("send request: %w", err)
	}

	if span != nil {
		span.AddEvent(observability.EventHTTPStreamOpened,
			observability.Int(observability.AttrHTTPStatusCode, response.StatusCode),
			observability.Duration(observability.AttrHTTPDuration, time.Since(start)),
		)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		defer CloseWithLog(response.Body)
		detail, _ := io.ReadAll(io.LimitReader(response.Body, maxErrorBodySize))
		return nil, &StatusError{StatusCode: response.StatusCode, Body: strings.TrimSpace(string(detail))}
	}
	return response.Body, nil
}

// SSEEvent is one dispatched server-sent event. Name is empty when the
// server sent no event field.
type SSEEvent struct {
	Name string
	Data string
}

// SSEScanner splits a text/event-stream body into events. Comments and the
// id and retry fields are ignored; several data lines of one event are
// joined with a newline.
type SSEScanner struct {
	lines *bufio.Scanner
}

// NewSSEScanner reads events from r.
func NewSSEScanner(r io.Reader) *SSEScanner {
	lines := bufio.NewScanner(r)
	lines.Buffer(make([]byte, 0, 64<<10), maxSSELineSize)
	return &SSEScanner{lines: lines}
}

// Next returns the next event that carries data. It returns io.EOF at the
// end of the body and on the [DONE] sentinel. An event cut off by the end
// of the body is still returned.
func (s *SSEScanner) Next() (SSEEvent, error) {
	var (
		event SSEEvent
		data  []string
	)
	for s.lines.Scan() {
		line := s.lines.Text()
		if line == "" {
			if len(data) > 0 {
				event.Data = strings.Join(data, "\n")
				return event, nil
			}
			event = SSEEvent{}
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event.Name = value
		case "data":
			if value == doneSentinel {
				return SSEEvent{}, io.EOF
			}
			data = append(data, value)
		}
	}
	if err := s.lines.Err(); err != nil {
		return SSEEvent{}, fmt.Errorf("read event stream: %w", err)
	}
	if len(data) > 0 {
		event.Data = strings.Join(data, "\n")
		return event, nil
	}
	return SSEEvent{}, io.EOF
}
