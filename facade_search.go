package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// search and fetch are the minimal tool pair chat connectors require.
const (
	facadeSearchToolName = "search"
	facadeFetchToolName  = "fetch"
)

func (d *Dispatcher) search(ctx context.Context, op *Operation, values map[string]any) (Envelope, error) {
	req := buildRequest(op, values)
	// fetch resolves posts and pages only
	req.Query.Set("subtype", "post,page")
	resp, err := d.upstream.Send(ctx, req)
	if err != nil {
		return Envelope{}, err
	}
	results := make([]map[string]any, 0)
	for _, item := range resp.JSON().Array() {
		results = append(results, shapeSearchHit(item))
	}
	return okEnvelope(fmt.Sprintf("Found %d results", len(results)), map[string]any{
		"results": results,
		"count":   len(results),
	}), nil
}

func (d *Dispatcher) fetch(ctx context.Context, values map[string]any) (Envelope, error) {
	raw, _ := values["id"].(string)
	r, id, ok := parseDocumentID(raw)
	if !ok {
		return failEnvelope("Unknown document id: " + raw), nil
	}
	resp, err := d.upstream.Send(ctx, UpstreamRequest{
		Method: http.MethodGet,
		Path:   r.collectionPath() + "/" + strconv.Itoa(id),
	})
	if err != nil {
		return Envelope{}, err
	}
	doc := resp.JSON()
	return okEnvelope(fmt.Sprintf("%s %d retrieved", r.Singular, id), map[string]any{
		"id":    r.Key + ":" + strconv.Itoa(id),
		"title": renderedText(doc, "title"),
		"text":  renderedText(doc, "content"),
		"url":   doc.Get("link").String(),
		"metadata": map[string]any{
			"type":   r.Key,
			"status": doc.Get("status").String(),
			"date":   doc.Get("date").String(),
		},
	}), nil
}

// parseDocumentID accepts "post:12", "page:7" or a bare post id.
func parseDocumentID(raw string) (*resource, int, bool) {
	kind, num, found := strings.Cut(strings.TrimSpace(raw), ":")
	if !found {
		kind, num = "post", kind
	}
	id, err := strconv.Atoi(num)
	if err != nil || id <= 0 {
		return nil, 0, false
	}
	switch kind {
	case "post":
		return postsResource, id, true
	case "page":
		return pagesResource, id, true
	}
	return nil, 0, false
}
