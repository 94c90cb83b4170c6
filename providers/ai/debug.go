package ai

import (
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"
)

// DebugSink receives the outgoing request payload and the raw vendor events
// of a call for offline inspection. Sinks never influence a call: adapters
// reach them through DebugRequest and DebugEvent, which ignore nil sinks and
// swallow panics.
type DebugSink interface {
	Request(backend Backend, model string, payload any)
	Event(backend Backend, raw []byte)
}

// DebugRequest hands payload to sink.
func DebugRequest(sink DebugSink, backend Backend, model string, payload any) {
	if sink == nil {
		return
	}
	defer recoverDebug(backend)
	sink.Request(backend, model, payload)
}

// DebugEvent hands one raw vendor event to sink.
func DebugEvent(sink DebugSink, backend Backend, raw []byte) {
	if sink == nil {
		return
	}
	defer recoverDebug(backend)
	sink.Event(backend, raw)
}

func recoverDebug(backend Backend) {
	if r := recover(); r != nil {
		slog.Warn("debug sink panicked", "backend", string(backend), "panic", r)
	}
}

// DebugRecord is one line written by a DebugWriter.
type DebugRecord struct {
	Time    time.Time       `json:"time"`
	Kind    string          `json:"kind"`
	Backend Backend         `json:"backend"`
	Model   string          `json:"model,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// DebugWriter is a DebugSink writing one JSON record per line.
type DebugWriter struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewDebugWriter creates a DebugWriter over w.
func NewDebugWriter(w io.Writer) *DebugWriter {
	return &DebugWriter{writer: w}
}

func (d *DebugWriter) Request(backend Backend, model string, payload any) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("failed to encode debug request", "backend", string(backend), "error", err.Error())
		return
	}
	d.write(DebugRecord{Time: time.Now(), Kind: "request", Backend: backend, Model: model, Payload: encoded})
}

func (d *DebugWriter) Event(backend Backend, raw []byte) {
	payload := json.RawMessage(raw)
	if !json.Valid(raw) {
		payload, _ = json.Marshal(string(raw))
	}
	d.write(DebugRecord{Time: time.Now(), Kind: "event", Backend: backend, Payload: payload})
}

func (d *DebugWriter) write(record DebugRecord) {
	line, err := json.Marshal(record)
	if err != nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.writer.Write(append(line, '\n')); err != nil {
		slog.Warn("failed to write debug record", "error", err.Error())
	}
}
