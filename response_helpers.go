package main

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
)

const mcpProtocolVersion = "2024-11-05"

func toolDescriptor(tool mcp.Tool) map[string]any {
	descriptor := map[string]any{
		"name": tool.Name,
	}
	if tool.Description != "" {
		descriptor["description"] = tool.Description
	}
	if len(tool.RawInputSchema) > 0 {
		descriptor["inputSchema"] = tool.RawInputSchema
	} else {
		descriptor["inputSchema"] = tool.InputSchema
	}
	descriptor["annotations"] = normalizeToolAnnotations(tool)
	return descriptor
}

// collectTools renders tool descriptors sorted by name with overrides
// applied.
func collectTools(tools []mcp.Tool, overrides *ToolOverrideSet) []map[string]any {
	sorted := append([]mcp.Tool(nil), tools...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	result := make([]map[string]any, 0, len(sorted))
	for _, tool := range sorted {
		result = append(result, applyToolOverride(tool.Name, toolDescriptor(tool), overrides))
	}
	return result
}

func applyToolOverride(name string, descriptor map[string]any, set *ToolOverrideSet) map[string]any {
	if descriptor == nil || set == nil {
		return descriptor
	}
	if master := set.ToolOverrides["*"]; master != nil {
		descriptor = applySingleOverride(descriptor, master)
	}
	if override := set.ToolOverrides[name]; override != nil {
		descriptor = applySingleOverride(descriptor, override)
	}
	return descriptor
}

func applySingleOverride(descriptor map[string]any, override *ToolOverrideConfig) map[string]any {
	if override.Annotations != nil {
		descriptor["annotations"] = applyAnnotationOverride(descriptor["annotations"], override.Annotations)
	}
	if override.Description != nil {
		descriptor["description"] = *override.Description
	}
	return descriptor
}

func applyAnnotationOverride(existing any, override *AnnotationOverrideConfig) map[string]any {
	annotations, _ := existing.(map[string]any)
	if annotations == nil {
		annotations = make(map[string]any)
	}
	if override.Title != nil {
		annotations["title"] = *override.Title
	}
	if override.ReadOnlyHint != nil {
		annotations["readOnlyHint"] = *override.ReadOnlyHint
	}
	if override.DestructiveHint != nil {
		annotations["destructiveHint"] = *override.DestructiveHint
	}
	if override.IdempotentHint != nil {
		annotations["idempotentHint"] = *override.IdempotentHint
	}
	if override.OpenWorldHint != nil {
		annotations["openWorldHint"] = *override.OpenWorldHint
	}
	return annotations
}

func copyStringAnyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func buildInitializeResult(config *ServerConfig) map[string]any {
	serverInfo := map[string]any{
		"name":    defaultServerName,
		"version": defaultServerVersion,
	}
	if config != nil {
		if config.Name != "" {
			serverInfo["name"] = config.Name
		}
		if config.Version != "" {
			serverInfo["version"] = config.Version
		}
	}
	return map[string]any{
		"protocolVersion": mcpProtocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": serverInfo,
	}
}
