// Package stream serializes turn events onto a server-sent-events channel.
// Events are written and flushed one at a time in arrival order; nothing is
// buffered past an Emit return.
package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Event types, in the only order a turn may emit them:
// session_start, llm_token*, [tool_call_start, tool_call_complete,
// llm_token*]?, session_end.
const (
	TypeSessionStart     = "session_start"
	TypeLLMToken         = "llm_token"
	TypeToolCallStart    = "tool_call_start"
	TypeToolCallComplete = "tool_call_complete"
	TypeSessionEnd       = "session_end"
)

// Event is the wire envelope. Data is encoded as a native JSON value, never
// as a JSON string inside the envelope.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
	TS   int64  `json:"ts"`
}

// NewEvent stamps an event with the current time in unix milliseconds.
func NewEvent(typ string, data any) Event {
	return Event{Type: typ, Data: data, TS: time.Now().UnixMilli()}
}

// Emitter is the sink the turn controller writes to. Emit returns an error
// when the channel is gone; the turn treats that as cancellation.
type Emitter interface {
	Emit(ev Event) error
}

// SSE emits events as text/event-stream frames, flushing after every write.
type SSE struct {
	w http.ResponseWriter
	f http.Flusher
}

// NewSSE prepares the response for event streaming. It fails when the
// underlying writer cannot flush, since unflushed events would violate the
// ordering and latency contract.
func NewSSE(w http.ResponseWriter) (*SSE, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("stream: response writer does not support flushing")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	f.Flush()
	return &SSE{w: w, f: f}, nil
}

// Emit writes one `data:` frame and flushes it.
func (s *SSE) Emit(ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("stream: marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", b); err != nil {
		return fmt.Errorf("stream: write event: %w", err)
	}
	s.f.Flush()
	return nil
}
