package main

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

func TestNormalizeToolAnnotationsDefaults(t *testing.T) {
	tool := mcp.Tool{Name: "example"}

	annotations := normalizeToolAnnotations(tool)

	for _, hint := range []string{"readOnlyHint", "destructiveHint", "idempotentHint", "openWorldHint"} {
		if v, ok := annotations[hint].(bool); !ok || v {
			t.Fatalf("expected %s=false, got %v", hint, annotations[hint])
		}
	}
	if _, ok := annotations["title"]; ok {
		t.Fatalf("expected no title for untitled tool")
	}
}

func TestNormalizeToolAnnotationsPreservesExisting(t *testing.T) {
	trueVal := true
	falseVal := false
	tool := mcp.Tool{
		Name: "example",
		Annotations: mcp.ToolAnnotation{
			Title:           "My Tool",
			ReadOnlyHint:    &trueVal,
			DestructiveHint: &falseVal,
		},
	}

	annotations := normalizeToolAnnotations(tool)

	if annotations["title"] != "My Tool" {
		t.Fatalf("expected title preserved, got %v", annotations["title"])
	}
	if v, ok := annotations["readOnlyHint"].(bool); !ok || !v {
		t.Fatalf("expected readOnlyHint=true, got %v", annotations["readOnlyHint"])
	}
	if v, ok := annotations["destructiveHint"].(bool); !ok || v {
		t.Fatalf("expected destructiveHint=false, got %v", annotations["destructiveHint"])
	}
}

func TestOperationAnnotationsFollowKind(t *testing.T) {
	d := NewDispatcher(&fakeUpstream{}, defaultOperations())

	tests := []struct {
		op                              string
		readOnly, destructive, idempotent bool
	}{
		{"get_posts", true, false, true},
		{"fetch", true, false, true},
		{"create_post", false, false, false},
		{"update_post", false, false, true},
		{"delete_post", false, true, true},
		{"approve_comment", false, false, true},
	}
	for _, tt := range tests {
		op, ok := d.Lookup(tt.op)
		if !ok {
			t.Fatalf("operation %s missing", tt.op)
		}
		annotations := normalizeToolAnnotations(op.Tool())
		if annotations["readOnlyHint"] != tt.readOnly {
			t.Fatalf("%s readOnlyHint = %v, want %v", tt.op, annotations["readOnlyHint"], tt.readOnly)
		}
		if annotations["destructiveHint"] != tt.destructive {
			t.Fatalf("%s destructiveHint = %v, want %v", tt.op, annotations["destructiveHint"], tt.destructive)
		}
		if annotations["idempotentHint"] != tt.idempotent {
			t.Fatalf("%s idempotentHint = %v, want %v", tt.op, annotations["idempotentHint"], tt.idempotent)
		}
		if annotations["openWorldHint"] != true {
			t.Fatalf("%s openWorldHint = %v, want true", tt.op, annotations["openWorldHint"])
		}
		if annotations["title"] != op.Title {
			t.Fatalf("%s title = %v, want %s", tt.op, annotations["title"], op.Title)
		}
	}
}
