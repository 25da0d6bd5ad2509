package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
)

const maxRESTBodyBytes = 4 << 20

// restFacade maps plain HTTP routes onto dispatcher operations. Envelopes
// are always written with 200; only faults escaping the dispatcher become 500.
type restFacade struct {
	server  *ServerConfig
	catalog *toolCatalog
}

func (f *restFacade) register(mux *http.ServeMux, dataRoutes bool) {
	mux.HandleFunc("GET /{$}", f.handleRoot)
	mux.HandleFunc("GET /health", f.handleHealth)
	if !dataRoutes {
		return
	}
	mux.HandleFunc("GET /posts", f.handleListPosts)
	mux.HandleFunc("POST /posts", f.handleCreatePost)
	mux.HandleFunc("GET /posts/{id}", f.handleGetPost)
	mux.HandleFunc("PUT /posts/{id}", f.handleUpdatePost)
	mux.HandleFunc("DELETE /posts/{id}", f.handleDeletePost)
	mux.HandleFunc("GET /categories", f.handleListCategories)
	mux.HandleFunc("GET /site-info", f.handleSiteInfo)
	mux.HandleFunc("GET /openapi.json", f.handleOpenAPI)
}

func (f *restFacade) handleRoot(w http.ResponseWriter, _ *http.Request) {
	tools := make([]map[string]any, 0)
	for _, tool := range f.catalog.Tools() {
		tools = append(tools, map[string]any{"name": tool.Name, "description": tool.Description})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":     f.server.Name,
		"version":  f.server.Version,
		"protocol": "MCP over SSE",
		"endpoints": map[string]string{
			"/":             "Server information",
			"/health":       "Health check",
			"/sse":          "SSE endpoint",
			"/mcp":          "MCP JSON-RPC endpoint",
			"/posts":        "List (GET) or create (POST) posts",
			"/posts/{id}":   "Get (GET), update (PUT) or delete (DELETE) a post",
			"/categories":   "List categories",
			"/site-info":    "Site information",
			"/openapi.json": "OpenAPI document for the REST routes",
		},
		"tools": tools,
	})
}

func (f *restFacade) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "service": f.server.Name})
}

func (f *restFacade) handleListPosts(w http.ResponseWriter, r *http.Request) {
	f.dispatch(w, r, "get_posts", queryArgs(r, "per_page", "page", "search", "status"))
}

func (f *restFacade) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	args, ok := decodeBody(w, r)
	if !ok {
		return
	}
	f.dispatch(w, r, "create_post", args)
}

func (f *restFacade) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPostID(w, r)
	if !ok {
		return
	}
	f.dispatch(w, r, "get_post", map[string]any{"post_id": id})
}

func (f *restFacade) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPostID(w, r)
	if !ok {
		return
	}
	args, ok := decodeBody(w, r)
	if !ok {
		return
	}
	args["post_id"] = id
	f.dispatch(w, r, "update_post", args)
}

func (f *restFacade) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathPostID(w, r)
	if !ok {
		return
	}
	args := queryArgs(r, "force")
	args["post_id"] = id
	f.dispatch(w, r, "delete_post", args)
}

func (f *restFacade) handleListCategories(w http.ResponseWriter, r *http.Request) {
	f.dispatch(w, r, "get_categories", queryArgs(r, "per_page", "page", "search"))
}

func (f *restFacade) handleSiteInfo(w http.ResponseWriter, r *http.Request) {
	f.dispatch(w, r, "get_site_info", map[string]any{})
}

func (f *restFacade) handleOpenAPI(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, buildOpenAPIDocument(f.server, f.catalog.dispatcher))
}

func (f *restFacade) dispatch(w http.ResponseWriter, r *http.Request, name string, args map[string]any) {
	env, err := f.catalog.Call(r.Context(), name, args)
	if err != nil {
		log.Printf("<rest> %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, env)
}

// queryArgs copies the named query parameters that are present; coercion
// happens in the dispatcher.
func queryArgs(r *http.Request, names ...string) map[string]any {
	q := r.URL.Query()
	args := make(map[string]any, len(names))
	for _, name := range names {
		if q.Has(name) {
			args[name] = q.Get(name)
		}
	}
	return args
}

func pathPostID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "invalid post id: " + raw})
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	args := map[string]any{}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRESTBodyBytes))
	if err := dec.Decode(&args); err != nil {
		if errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "request body required"})
			return nil, false
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": "invalid JSON body: " + err.Error()})
		return nil, false
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, true
}
