package main

import "github.com/tidwall/gjson"

type shapeFunc func(item gjson.Result) map[string]any

// renderedText flattens WordPress {rendered, raw} objects to a string.
func renderedText(item gjson.Result, key string) string {
	v := item.Get(key)
	if !v.Exists() {
		return ""
	}
	if v.IsObject() {
		if s := v.Get("rendered"); s.Exists() {
			return s.String()
		}
		return v.Get("raw").String()
	}
	return v.String()
}

func intList(v gjson.Result) []int64 {
	out := make([]int64, 0)
	for _, item := range v.Array() {
		out = append(out, item.Int())
	}
	return out
}

func stringList(v gjson.Result) []string {
	out := make([]string, 0)
	for _, item := range v.Array() {
		out = append(out, item.String())
	}
	return out
}

func shapePostSummary(item gjson.Result) map[string]any {
	return map[string]any{
		"id":      item.Get("id").Int(),
		"title":   renderedText(item, "title"),
		"status":  item.Get("status").String(),
		"date":    item.Get("date").String(),
		"url":     item.Get("link").String(),
		"excerpt": renderedText(item, "excerpt"),
	}
}

func shapePostDetail(item gjson.Result) map[string]any {
	return map[string]any{
		"id":         item.Get("id").Int(),
		"title":      renderedText(item, "title"),
		"content":    renderedText(item, "content"),
		"excerpt":    renderedText(item, "excerpt"),
		"status":     item.Get("status").String(),
		"slug":       item.Get("slug").String(),
		"date":       item.Get("date").String(),
		"modified":   item.Get("modified").String(),
		"url":        item.Get("link").String(),
		"categories": intList(item.Get("categories")),
		"tags":       intList(item.Get("tags")),
	}
}

func shapePageSummary(item gjson.Result) map[string]any {
	return map[string]any{
		"id":     item.Get("id").Int(),
		"title":  renderedText(item, "title"),
		"status": item.Get("status").String(),
		"date":   item.Get("date").String(),
		"url":    item.Get("link").String(),
		"parent": item.Get("parent").Int(),
	}
}

func shapePageDetail(item gjson.Result) map[string]any {
	return map[string]any{
		"id":       item.Get("id").Int(),
		"title":    renderedText(item, "title"),
		"content":  renderedText(item, "content"),
		"status":   item.Get("status").String(),
		"slug":     item.Get("slug").String(),
		"date":     item.Get("date").String(),
		"modified": item.Get("modified").String(),
		"url":      item.Get("link").String(),
		"parent":   item.Get("parent").Int(),
	}
}

func shapeTerm(item gjson.Result) map[string]any {
	return map[string]any{
		"id":    item.Get("id").Int(),
		"name":  item.Get("name").String(),
		"slug":  item.Get("slug").String(),
		"count": item.Get("count").Int(),
	}
}

func shapeMedia(item gjson.Result) map[string]any {
	return map[string]any{
		"id":        item.Get("id").Int(),
		"title":     renderedText(item, "title"),
		"url":       item.Get("source_url").String(),
		"mime_type": item.Get("mime_type").String(),
		"date":      item.Get("date").String(),
	}
}

func shapeUser(item gjson.Result) map[string]any {
	return map[string]any{
		"id":       item.Get("id").Int(),
		"name":     item.Get("name").String(),
		"username": item.Get("slug").String(),
		"email":    item.Get("email").String(),
		"roles":    stringList(item.Get("roles")),
	}
}

func shapeComment(item gjson.Result) map[string]any {
	return map[string]any{
		"id":      item.Get("id").Int(),
		"post_id": item.Get("post").Int(),
		"author":  item.Get("author_name").String(),
		"content": renderedText(item, "content"),
		"date":    item.Get("date").String(),
		"status":  item.Get("status").String(),
	}
}

func shapeSiteInfo(item gjson.Result) map[string]any {
	return map[string]any{
		"name":            item.Get("name").String(),
		"description":     item.Get("description").String(),
		"url":             item.Get("url").String(),
		"home":            item.Get("home").String(),
		"gmt_offset":      item.Get("gmt_offset").Value(),
		"timezone_string": item.Get("timezone_string").String(),
	}
}

// shapeSearchHit renders a /search result as a connector hit whose id
// fetch understands.
func shapeSearchHit(item gjson.Result) map[string]any {
	kind := item.Get("subtype").String()
	if kind == "" {
		kind = "post"
	}
	return map[string]any{
		"id":    kind + ":" + item.Get("id").String(),
		"title": renderedText(item, "title"),
		"url":   item.Get("url").String(),
		"type":  kind,
	}
}
