package main

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultOperationsCatalog(t *testing.T) {
	ops := defaultOperations()
	seen := make(map[string]bool, len(ops))
	for _, op := range ops {
		require.False(t, seen[op.Name], "duplicate operation %s", op.Name)
		seen[op.Name] = true

		assert.NotEmpty(t, op.Description, op.Name)
		assert.NotEmpty(t, op.Title, op.Name)
		assert.NotEqual(t, "unknown", op.Kind.String(), op.Name)
		if op.Kind != kindFetch {
			assert.NotEmpty(t, op.Path, op.Name)
		}
		for _, a := range op.Args {
			if a.Place == inPath {
				assert.Contains(t, op.Path, "{"+a.Name+"}", "%s path placeholder", op.Name)
			}
		}
		if op.Kind == kindSetStatus {
			assert.NotEmpty(t, op.TargetStatus, op.Name)
		}
	}

	for _, name := range []string{
		"get_posts", "get_post", "create_post", "update_post", "delete_post", "publish_post", "unpublish_post",
		"get_pages", "get_page", "create_page", "update_page", "delete_page",
		"get_categories", "create_category", "delete_category",
		"get_tags", "create_tag", "delete_tag",
		"get_media", "get_users", "get_comments", "approve_comment", "delete_comment",
		"get_site_info", "search", "fetch",
	} {
		assert.True(t, seen[name], "missing operation %s", name)
	}
}

func TestUpdateOperationsUseEditEndpoint(t *testing.T) {
	for _, op := range defaultOperations() {
		if op.Kind == kindUpdate || op.Kind == kindSetStatus {
			assert.Equal(t, http.MethodPost, op.Method, op.Name)
			assert.True(t, strings.HasSuffix(op.Path, "}"), op.Name)
		}
	}
}

func TestBuildRequestSplitsArguments(t *testing.T) {
	d := NewDispatcher(&fakeUpstream{}, defaultOperations())
	op, ok := d.Lookup("update_post")
	require.True(t, ok)

	values, usage := bindArguments(op, map[string]any{
		"post_id":    "12",
		"title":      "New",
		"categories": "3, 4",
		"excerpt":    "",
	})
	require.Empty(t, usage)

	req := buildRequest(op, values)
	assert.Equal(t, "/wp-json/wp/v2/posts/12", req.Path)
	assert.Equal(t, map[string]any{"title": "New", "categories": []int{3, 4}}, req.Body)
}

func TestToolSchemaUsesIntegerTypes(t *testing.T) {
	d := NewDispatcher(&fakeUpstream{}, defaultOperations())
	op, ok := d.Lookup("get_posts")
	require.True(t, ok)

	tool := op.Tool()
	perPage, ok := tool.InputSchema.Properties["per_page"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "integer", perPage["type"])

	status, ok := tool.InputSchema.Properties["status"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", status["type"])

	create, ok := d.Lookup("create_post")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"title", "content"}, create.Tool().InputSchema.Required)
}

func TestCatalogToolsSkipsDisabled(t *testing.T) {
	off := false
	catalog := newToolCatalog(NewDispatcher(&fakeUpstream{}, defaultOperations()), &ToolOverrideSet{
		ToolOverrides: map[string]*ToolOverrideConfig{"search": {Enabled: &off}, "fetch": {Enabled: &off}},
	})

	names := make([]string, 0)
	for _, tool := range catalog.Tools() {
		names = append(names, tool.Name)
	}
	assert.NotContains(t, names, "search")
	assert.NotContains(t, names, "fetch")
	assert.Len(t, names, len(defaultOperations())-2)
}
