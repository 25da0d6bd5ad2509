package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type manualTicker struct {
	ticks   chan time.Time
	stopped chan struct{}
}

func newManualTicker() *manualTicker {
	return &manualTicker{ticks: make(chan time.Time), stopped: make(chan struct{})}
}

func (m *manualTicker) start(time.Duration) (<-chan time.Time, func()) {
	return m.ticks, func() { close(m.stopped) }
}

type sseEvent struct {
	name string
	data map[string]any
}

func parseEvents(t *testing.T, raw string) []sseEvent {
	t.Helper()
	var events []sseEvent
	for _, block := range strings.Split(strings.TrimSpace(raw), "\n\n") {
		var ev sseEvent
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				ev.name = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev.data); err != nil {
					t.Fatalf("bad data line %q: %v", line, err)
				}
			}
		}
		events = append(events, ev)
	}
	return events
}

func TestSSEEndpointThenHeartbeats(t *testing.T) {
	ticker := newManualTicker()
	ch := newSSEChannel(mcpPath)
	ch.newTicker = ticker.start

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/sse", nil).WithContext(ctx)
	req.Host = "bridge.example.com"
	req.Header.Set("X-Forwarded-Proto", "https")
	rr := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		ch.ServeHTTP(rr, req)
		close(done)
	}()

	// one 15 s tick, then the peer goes away
	ticker.ticks <- time.Now()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("stream did not close after cancellation")
	}
	select {
	case <-ticker.stopped:
	default:
		t.Fatalf("ticker not stopped")
	}

	h := rr.Header()
	for key, want := range map[string]string{
		"Content-Type":      "text/event-stream",
		"Cache-Control":     "no-cache, no-transform",
		"X-Accel-Buffering": "no",
		"Content-Encoding":  "identity",
	} {
		if got := h.Get(key); got != want {
			t.Fatalf("%s = %q, want %q", key, got, want)
		}
	}
	if h.Get("mcp-session-id") == "" {
		t.Fatalf("missing mcp-session-id")
	}

	events := parseEvents(t, rr.Body.String())
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2 (%q)", len(events), rr.Body.String())
	}
	if events[0].name != "endpoint" || events[0].data["url"] != "https://bridge.example.com/mcp" {
		t.Fatalf("first event = %+v", events[0])
	}
	if events[1].name != "heartbeat" || events[1].data["status"] != "alive" || events[1].data["count"] != float64(1) {
		t.Fatalf("second event = %+v", events[1])
	}
}

func TestSSEHeartbeatCountIncrements(t *testing.T) {
	ticker := newManualTicker()
	ch := newSSEChannel(mcpPath)
	ch.newTicker = ticker.start

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/sse", nil).WithContext(ctx)
	req.Host = "localhost:8000"
	rr := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		ch.ServeHTTP(rr, req)
		close(done)
	}()
	for i := 0; i < 3; i++ {
		ticker.ticks <- time.Now()
	}
	cancel()
	<-done

	events := parseEvents(t, rr.Body.String())
	if len(events) != 4 {
		t.Fatalf("events = %d, want 4", len(events))
	}
	if events[0].data["url"] != "http://localhost:8000/mcp" {
		t.Fatalf("endpoint url = %v", events[0].data["url"])
	}
	for i, ev := range events[1:] {
		if ev.data["count"] != float64(i+1) {
			t.Fatalf("heartbeat %d count = %v", i, ev.data["count"])
		}
	}
}

func TestMCPGetServesStream(t *testing.T) {
	h := newTestHandler(t, &fakeUpstream{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/mcp", nil).WithContext(ctx)
	req.Host = "localhost"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if ct := rr.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}
	events := parseEvents(t, rr.Body.String())
	if len(events) != 1 || events[0].name != "endpoint" {
		t.Fatalf("events = %+v", events)
	}
}

func TestEndpointURLIgnoresUnknownProto(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/sse", nil)
	req.Host = "localhost"
	req.Header.Set("X-Forwarded-Proto", "gopher")
	if got := endpointURL(req, mcpPath); got != "http://localhost/mcp" {
		t.Fatalf("endpointURL = %q", got)
	}
}

func TestStreamStateString(t *testing.T) {
	for state, want := range map[streamState]string{streamOpen: "OPEN", streamStreaming: "STREAMING", streamClosed: "CLOSED"} {
		if state.String() != want {
			t.Fatalf("%d.String() = %q, want %q", state, state.String(), want)
		}
	}
}
