package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

const heartbeatInterval = 15 * time.Second

type streamState int

const (
	streamOpen streamState = iota
	streamStreaming
	streamClosed
)

func (s streamState) String() string {
	switch s {
	case streamOpen:
		return "OPEN"
	case streamStreaming:
		return "STREAMING"
	case streamClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// tickerFunc starts a periodic tick source and returns its stop function.
type tickerFunc func(d time.Duration) (<-chan time.Time, func())

func realTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// sseChannel advertises the JSON-RPC endpoint and then keeps the stream
// warm with heartbeats until the peer goes away.
type sseChannel struct {
	mcpPath   string
	interval  time.Duration
	newTicker tickerFunc
}

func newSSEChannel(mcpPath string) *sseChannel {
	return &sseChannel{mcpPath: mcpPath, interval: heartbeatInterval, newTicker: realTicker}
}

func (s *sseChannel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	sessionID := uuid.New().String()
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	h.Set("Content-Encoding", "identity")
	h.Set("mcp-session-id", sessionID)
	w.WriteHeader(http.StatusOK)

	state := streamOpen
	transition := func(next streamState) {
		log.Printf("<sse> session=%s %s -> %s", sessionID, state, next)
		state = next
	}

	endpoint := endpointURL(r, s.mcpPath)
	if err := writeEvent(w, "endpoint", map[string]any{"url": endpoint}); err != nil {
		transition(streamClosed)
		return
	}
	flusher.Flush()
	transition(streamStreaming)

	ticks, stop := s.newTicker(s.interval)
	defer stop()

	count := 0
	done := r.Context().Done()
	for {
		select {
		case <-done:
			transition(streamClosed)
			return
		case <-ticks:
			count++
			if err := writeEvent(w, "heartbeat", map[string]any{"status": "alive", "count": count}); err != nil {
				log.Printf("<sse> session=%s heartbeat write failed: %v", sessionID, err)
				transition(streamClosed)
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w io.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

// endpointURL derives the absolute JSON-RPC URL from the request's Host.
// The host has already passed the trusted-host check.
func endpointURL(r *http.Request, path string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	switch proto := r.Header.Get("X-Forwarded-Proto"); proto {
	case "http", "https":
		scheme = proto
	}
	return (&url.URL{Scheme: scheme, Host: r.Host, Path: path}).String()
}
