package main

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
)

// restRoute ties a REST route to the operation whose arguments describe it.
type restRoute struct {
	path      string
	method    string
	operation string
	summary   string
}

var restRoutes = []restRoute{
	{"/posts", http.MethodGet, "get_posts", "List posts"},
	{"/posts", http.MethodPost, "create_post", "Create a post"},
	{"/posts/{id}", http.MethodGet, "get_post", "Get a post"},
	{"/posts/{id}", http.MethodPut, "update_post", "Update a post"},
	{"/posts/{id}", http.MethodDelete, "delete_post", "Delete a post"},
	{"/categories", http.MethodGet, "get_categories", "List categories"},
	{"/site-info", http.MethodGet, "get_site_info", "Site information"},
}

// buildOpenAPIDocument describes the REST routes from the operation table.
func buildOpenAPIDocument(server *ServerConfig, d *Dispatcher) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       server.Name,
			Version:     server.Version,
			Description: "REST facade over the WordPress content API",
		},
		Paths: openapi3.NewPaths(),
	}

	envelope := openapi3.NewObjectSchema().
		WithProperty("success", openapi3.NewBoolSchema()).
		WithProperty("message", openapi3.NewStringSchema())
	envelope.AdditionalProperties = openapi3.AdditionalProperties{Has: openapi3.BoolPtr(true)}
	detail := openapi3.NewObjectSchema().WithProperty("detail", openapi3.NewStringSchema())

	for _, route := range restRoutes {
		op := openapi3.NewOperation()
		op.OperationID = route.operation
		op.Summary = route.summary
		op.Tags = []string{"wordpress"}
		op.AddResponse(http.StatusOK, openapi3.NewResponse().WithDescription("Envelope").WithJSONSchema(envelope))
		op.AddResponse(http.StatusInternalServerError, openapi3.NewResponse().WithDescription("Unexpected failure").WithJSONSchema(detail))

		if target, ok := d.Lookup(route.operation); ok {
			describeArguments(op, route, target)
			if target.Description != "" {
				op.Description = target.Description
			}
		}
		if route.path == "/posts/{id}" || op.RequestBody != nil {
			op.AddResponse(http.StatusUnprocessableEntity, openapi3.NewResponse().WithDescription("Malformed id or body").WithJSONSchema(detail))
		}
		doc.AddOperation(route.path, route.method, op)
	}
	return doc
}

func describeArguments(op *openapi3.Operation, route restRoute, target *Operation) {
	hasBody := route.method == http.MethodPost || route.method == http.MethodPut
	body := openapi3.NewObjectSchema()
	var required []string

	for _, a := range target.Args {
		if a.Place == inPath {
			continue
		}
		schema := argumentSchema(a)
		switch {
		case hasBody && a.Place == inBody:
			body.WithProperty(a.Name, schema)
			if a.Required {
				required = append(required, a.Name)
			}
		case !hasBody && a.Place == inQuery:
			p := openapi3.NewQueryParameter(a.Name).WithSchema(schema).WithDescription(a.Description)
			op.AddParameter(p)
		}
	}
	if route.path == "/posts/{id}" {
		op.AddParameter(openapi3.NewPathParameter("id").WithSchema(openapi3.NewIntegerSchema()))
	}
	if hasBody {
		body.Required = required
		op.RequestBody = &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithJSONSchema(body).WithRequired(route.method == http.MethodPost),
		}
	}
}

func argumentSchema(a Argument) *openapi3.Schema {
	var s *openapi3.Schema
	switch a.Type {
	case argInt:
		s = openapi3.NewIntegerSchema()
		if a.Min != 0 {
			s = s.WithMin(float64(a.Min))
		}
		if a.Max != 0 {
			s = s.WithMax(float64(a.Max))
		}
	case argBool:
		s = openapi3.NewBoolSchema()
	case argIntList:
		s = openapi3.NewArraySchema().WithItems(openapi3.NewIntegerSchema())
	default:
		s = openapi3.NewStringSchema()
		for _, v := range a.Enum {
			s.Enum = append(s.Enum, v)
		}
	}
	s.Description = a.Description
	if a.Default != nil {
		s.Default = a.Default
	}
	return s
}
