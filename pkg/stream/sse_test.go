package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewSSEHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	if _, err := NewSSE(w); err != nil {
		t.Fatalf("NewSSE: %v", err)
	}
	if got := w.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("content type = %q", got)
	}
	if got := w.Header().Get("X-Accel-Buffering"); got != "no" {
		t.Fatalf("x-accel-buffering = %q", got)
	}
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !w.Flushed {
		t.Fatalf("headers not flushed")
	}
}

type noFlush struct{ http.ResponseWriter }

func TestNewSSERequiresFlusher(t *testing.T) {
	if _, err := NewSSE(noFlush{httptest.NewRecorder()}); err == nil {
		t.Fatalf("expected error for non-flushing writer")
	}
}

func TestEmitFrameFormat(t *testing.T) {
	w := httptest.NewRecorder()
	s, err := NewSSE(w)
	if err != nil {
		t.Fatalf("NewSSE: %v", err)
	}
	if err := s.Emit(NewEvent(TypeLLMToken, map[string]string{"content": "你好"})); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	body := w.Body.String()
	if !strings.HasPrefix(body, "data: ") || !strings.HasSuffix(body, "\n\n") {
		t.Fatalf("bad frame: %q", body)
	}

	var ev struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
		TS   int64           `json:"ts"`
	}
	payload := strings.TrimSuffix(strings.TrimPrefix(body, "data: "), "\n\n")
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		t.Fatalf("frame not json: %v", err)
	}
	if ev.Type != TypeLLMToken || ev.TS == 0 {
		t.Fatalf("bad envelope: %+v", ev)
	}
	// Data is a native object, not a re-encoded string.
	var data map[string]string
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		t.Fatalf("data not a native object: %v (%s)", err, ev.Data)
	}
	if data["content"] != "你好" {
		t.Fatalf("content = %q", data["content"])
	}
}
