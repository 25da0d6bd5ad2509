package main

import (
	"context"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// newStdioServer registers every enabled tool on an mcp-go server, each
// routed through the catalog.
func newStdioServer(config *ServerConfig, catalog *toolCatalog) *server.MCPServer {
	s := server.NewMCPServer(
		config.Name,
		config.Version,
		server.WithToolCapabilities(false),
	)
	for _, tool := range catalog.Tools() {
		tool = withOverriddenDescription(tool, catalog.overrides)
		name := tool.Name
		s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			env, err := catalog.Call(ctx, name, req.GetArguments())
			if err != nil {
				log.Printf("<stdio> %s: %v", name, err)
				return mcp.NewToolResultError("Internal error: " + err.Error()), nil
			}
			return adaptCallResult(env)
		})
	}
	return s
}

func withOverriddenDescription(tool mcp.Tool, set *ToolOverrideSet) mcp.Tool {
	if set == nil {
		return tool
	}
	for _, key := range []string{"*", tool.Name} {
		if o := set.ToolOverrides[key]; o != nil && o.Description != nil {
			tool.Description = *o.Description
		}
	}
	return tool
}

func serveStdio(config *ServerConfig, catalog *toolCatalog) error {
	log.Printf("%s %s serving MCP over stdio", config.Name, config.Version)
	return server.ServeStdio(newStdioServer(config, catalog))
}
