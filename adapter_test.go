package main

import (
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func extractTextContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected one content block, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func TestAdaptSuccessEnvelope(t *testing.T) {
	env := okEnvelope("Post 'T' created successfully", map[string]any{"post_id": int64(123), "url": "https://x/123"})

	result, err := adaptCallResult(env)
	if err != nil {
		t.Fatalf("adapt: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(extractTextContent(t, result)), &decoded); err != nil {
		t.Fatalf("text is not JSON: %v", err)
	}
	if decoded["success"] != true || decoded["post_id"] != float64(123) || decoded["url"] != "https://x/123" {
		t.Fatalf("decoded = %v", decoded)
	}
	structured, ok := result.StructuredContent.(map[string]any)
	if !ok {
		t.Fatalf("structured content = %T", result.StructuredContent)
	}
	if structured["message"] != "Post 'T' created successfully" {
		t.Fatalf("structured message = %v", structured["message"])
	}
	if result.IsError {
		t.Fatalf("success envelope flagged as error")
	}
}

func TestAdaptFailureEnvelopeDropsFields(t *testing.T) {
	env := Envelope{Message: "Post not found", Fields: map[string]any{"post": "stale"}}

	result, err := adaptCallResult(env)
	if err != nil {
		t.Fatalf("adapt: %v", err)
	}

	text := extractTextContent(t, result)
	if text != `{"message":"Post not found","success":false}` {
		t.Fatalf("text = %s", text)
	}
	structured := result.StructuredContent.(map[string]any)
	if _, ok := structured["post"]; ok {
		t.Fatalf("failure envelope leaked fields: %v", structured)
	}
}

func TestEnvelopeGet(t *testing.T) {
	env := okEnvelope("done", map[string]any{"count": 2})
	if env.Get("success") != true || env.Get("message") != "done" || env.Get("count") != 2 {
		t.Fatalf("Get returned unexpected values: %v %v %v", env.Get("success"), env.Get("message"), env.Get("count"))
	}
	if env.Get("missing") != nil {
		t.Fatalf("missing key should be nil")
	}
}
