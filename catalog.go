package main

import (
	"context"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
)

// Tool renders the operation as an MCP tool descriptor.
func (op *Operation) Tool() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(op.Description),
		mcp.WithTitleAnnotation(op.Title),
		mcp.WithReadOnlyHintAnnotation(op.Kind.readOnly()),
		mcp.WithDestructiveHintAnnotation(op.Kind == kindDelete),
		mcp.WithIdempotentHintAnnotation(op.Kind != kindCreate),
		mcp.WithOpenWorldHintAnnotation(true),
	}
	for _, a := range op.Args {
		props := []mcp.PropertyOption{mcp.Description(a.Description)}
		if a.Required {
			props = append(props, mcp.Required())
		}
		switch a.Type {
		case argInt:
			if d, ok := a.Default.(int); ok {
				props = append(props, mcp.DefaultNumber(float64(d)))
			}
			if a.Min != 0 {
				props = append(props, mcp.Min(float64(a.Min)))
			}
			if a.Max != 0 {
				props = append(props, mcp.Max(float64(a.Max)))
			}
			opts = append(opts, mcp.WithNumber(a.Name, props...))
		case argBool:
			if d, ok := a.Default.(bool); ok {
				props = append(props, mcp.DefaultBool(d))
			}
			opts = append(opts, mcp.WithBoolean(a.Name, props...))
		case argIntList:
			props = append(props, mcp.Items(map[string]any{"type": "integer"}))
			opts = append(opts, mcp.WithArray(a.Name, props...))
		default:
			if d, ok := a.Default.(string); ok && d != "" {
				props = append(props, mcp.DefaultString(d))
			}
			if len(a.Enum) > 0 {
				props = append(props, mcp.Enum(a.Enum...))
			}
			opts = append(opts, mcp.WithString(a.Name, props...))
		}
	}
	tool := mcp.NewTool(op.Name, opts...)

	// IDs and counts are integers upstream; mcp-go only offers "number".
	for _, a := range op.Args {
		if a.Type != argInt {
			continue
		}
		if schema, ok := tool.InputSchema.Properties[a.Name].(map[string]any); ok {
			schema["type"] = "integer"
		}
	}
	return tool
}

// toolCatalog is the MCP view of the dispatcher: the operation table with
// overrides applied and disabled tools hidden.
type toolCatalog struct {
	dispatcher *Dispatcher
	overrides  *ToolOverrideSet
}

func newToolCatalog(d *Dispatcher, overrides *ToolOverrideSet) *toolCatalog {
	return &toolCatalog{dispatcher: d, overrides: overrides}
}

func (c *toolCatalog) Tools() []mcp.Tool {
	ops := c.dispatcher.Operations()
	tools := make([]mcp.Tool, 0, len(ops))
	for _, op := range ops {
		if toolEnabled(c.overrides, op.Name) {
			tools = append(tools, op.Tool())
		}
	}
	return tools
}

func (c *toolCatalog) Descriptors() []map[string]any {
	return collectTools(c.Tools(), c.overrides)
}

// Call dispatches a tool invocation; disabled tools behave as unknown.
func (c *toolCatalog) Call(ctx context.Context, name string, args map[string]any) (Envelope, error) {
	if !toolEnabled(c.overrides, name) {
		log.Printf("<catalog> call to disabled tool %s", name)
		return failEnvelope("Unknown operation: " + name), nil
	}
	return c.dispatcher.Dispatch(ctx, name, args)
}
