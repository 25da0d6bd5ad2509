package main

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// adaptCallResult wraps an Envelope as a tools/call result: the serialized
// envelope as one text block, mirrored as structured content.
func adaptCallResult(env Envelope) (*mcp.CallToolResult, error) {
	text, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{mcp.NewTextContent(string(text))},
		StructuredContent: env.Map(),
	}, nil
}
