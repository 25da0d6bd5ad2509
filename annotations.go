package main

import "github.com/mark3labs/mcp-go/mcp"

func hintValue(v *bool) bool {
	return v != nil && *v
}

// normalizeToolAnnotations always emits all four hints so clients never
// have to guess at absent ones.
func normalizeToolAnnotations(tool mcp.Tool) map[string]any {
	existing := tool.Annotations
	annotations := map[string]any{
		"readOnlyHint":    hintValue(existing.ReadOnlyHint),
		"destructiveHint": hintValue(existing.DestructiveHint),
		"idempotentHint":  hintValue(existing.IdempotentHint),
		"openWorldHint":   hintValue(existing.OpenWorldHint),
	}
	if existing.Title != "" {
		annotations["title"] = existing.Title
	}
	return annotations
}
