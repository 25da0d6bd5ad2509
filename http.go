package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
)

const (
	mcpPath         = "/mcp"
	maxRPCBodyBytes = 4 << 20
	shutdownTimeout = 5 * time.Second
)

// ===== infra helpers =====

type MiddlewareFunc func(http.Handler) http.Handler

// chainMiddleware wraps h so the last middleware runs first.
func chainMiddleware(h http.Handler, middlewares ...MiddlewareFunc) http.Handler {
	for _, mw := range middlewares {
		h = mw(h)
	}
	return h
}

func newAuthMiddleware(tokens []string) MiddlewareFunc {
	tokenSet := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		tokenSet[token] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// liveness probes stay open
			if len(tokens) == 0 || r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}
			token := r.Header.Get("Authorization")
			token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
			if _, ok := tokenSet[token]; token == "" || !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func loggerMiddleware(prefix string) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("<%s> %s %s", prefix, r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}
}

func recoverMiddleware(prefix string) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.Printf("<%s> panic: %v", prefix, err)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// trustedHostMiddleware rejects requests whose Host (or X-Forwarded-Host)
// is not on the allow-list. Entries may be exact hosts, "*.suffix" or "*".
func trustedHostMiddleware(allowed []string) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hostAllowed(allowed, r.Host) {
				log.Printf("<http> rejected host %q", r.Host)
				http.Error(w, "Forbidden: host not allowed", http.StatusForbidden)
				return
			}
			if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" && !hostAllowed(allowed, fwd) {
				log.Printf("<http> rejected forwarded host %q", fwd)
				http.Error(w, "Forbidden: host not allowed", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hostAllowed(allowed []string, host string) bool {
	name := strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(name); err == nil {
		name = h
	}
	name = strings.ToLower(strings.Trim(name, "[]"))
	if name == "" {
		return false
	}
	for _, entry := range allowed {
		entry = strings.ToLower(strings.TrimSpace(entry))
		switch {
		case entry == "*":
			return true
		case strings.HasPrefix(entry, "*."):
			if strings.HasSuffix(name, entry[1:]) {
				return true
			}
		case entry == name:
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// ===== JSON-RPC helpers =====

type jsonrpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type jsonrpcResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *jsonrpcError `json:"error,omitempty"`
}

func rpcError(id any, code int, msg string) jsonrpcResponse {
	return jsonrpcResponse{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Error:   &jsonrpcError{Code: code, Message: msg},
	}
}

func rpcOK(id any, result any) jsonrpcResponse {
	return jsonrpcResponse{
		JSONRPC: mcp.JSONRPC_VERSION,
		ID:      id,
		Result:  result,
	}
}

func handleNotification(w http.ResponseWriter, req *jsonrpcRequest) bool {
	if req == nil || req.ID != nil {
		return false
	}
	w.WriteHeader(http.StatusNoContent)
	return true
}

// ===== /mcp facade =====

type mcpFacade struct {
	server  *ServerConfig
	catalog *toolCatalog
	stream  http.Handler
}

func (f *mcpFacade) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		f.handlePost(w, r)
	case http.MethodGet:
		f.stream.ServeHTTP(w, r)
	case http.MethodHead:
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache, no-transform")
		w.Header().Set("X-Accel-Buffering", "no")
		w.Header().Set("mcp-session-id", uuid.New().String())
		w.WriteHeader(http.StatusOK)
	case http.MethodOptions:
		w.Header().Set("Allow", "GET, HEAD, POST, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST, OPTIONS")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (f *mcpFacade) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRPCBodyBytes))
	_ = r.Body.Close()
	if err != nil {
		writeJSON(w, http.StatusOK, rpcError(nil, mcp.PARSE_ERROR, "Parse error"))
		return
	}
	body = bytes.TrimSpace(body)

	if len(body) > 0 && body[0] == '[' {
		var batch []jsonrpcRequest
		if err := json.Unmarshal(body, &batch); err != nil {
			log.Printf("<facade> invalid batch: %v", err)
			writeJSON(w, http.StatusOK, rpcError(nil, mcp.PARSE_ERROR, "Parse error"))
			return
		}
		out := make([]jsonrpcResponse, 0, len(batch))
		for _, req := range batch {
			if req.ID == nil {
				continue
			}
			out = append(out, rpcError(req.ID, mcp.METHOD_NOT_FOUND, "Batch not supported"))
		}
		if len(out) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, out)
		return
	}

	var req jsonrpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		log.Printf("<facade> invalid json: %v", err)
		writeJSON(w, http.StatusOK, rpcError(nil, mcp.PARSE_ERROR, "Parse error"))
		return
	}
	if handleNotification(w, &req) {
		log.Printf("<facade> notification %s", req.Method)
		return
	}
	log.Printf("<facade> request method=%s id=%v", req.Method, req.ID)

	switch req.Method {
	case "initialize":
		writeJSON(w, http.StatusOK, rpcOK(req.ID, buildInitializeResult(f.server)))
	case "tools/list":
		writeJSON(w, http.StatusOK, rpcOK(req.ID, map[string]any{"tools": f.catalog.Descriptors()}))
	case "tools/call":
		writeJSON(w, http.StatusOK, f.callTool(r.Context(), &req))
	default:
		log.Printf("<facade> unsupported method=%s", req.Method)
		writeJSON(w, http.StatusOK, rpcError(req.ID, mcp.METHOD_NOT_FOUND, "Method not found: "+req.Method))
	}
}

func (f *mcpFacade) callTool(ctx context.Context, req *jsonrpcRequest) jsonrpcResponse {
	var p struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &p); err != nil {
			return rpcError(req.ID, mcp.INVALID_PARAMS, "Invalid params: "+err.Error())
		}
	}
	if p.Name == "" {
		return rpcError(req.ID, mcp.INVALID_PARAMS, "Missing tool name")
	}
	if p.Arguments == nil {
		p.Arguments = map[string]any{}
	}

	env, err := f.catalog.Call(ctx, p.Name, p.Arguments)
	if err != nil {
		log.Printf("<facade> tools/call tool=%s internal error: %v", p.Name, err)
		return rpcError(req.ID, mcp.INTERNAL_ERROR, "Internal error: "+err.Error())
	}
	result, err := adaptCallResult(env)
	if err != nil {
		return rpcError(req.ID, mcp.INTERNAL_ERROR, "Internal error: "+err.Error())
	}
	log.Printf("<facade> tools/call tool=%s success=%t", p.Name, env.Success)
	return rpcOK(req.ID, result)
}

// ===== main HTTP server =====

func newHTTPHandler(config *Config, catalog *toolCatalog) http.Handler {
	server := config.Server
	mux := http.NewServeMux()

	stream := newSSEChannel(mcpPath)
	mux.Handle(mcpPath, &mcpFacade{server: server, catalog: catalog, stream: stream})
	mux.Handle("GET /sse", stream)

	rest := &restFacade{server: server, catalog: catalog}
	rest.register(mux, server.Options.restEnabled())

	mws := []MiddlewareFunc{
		recoverMiddleware("http"),
		newAuthMiddleware(server.Options.AuthTokens),
	}
	if server.Options.corsEnabled() {
		mws = append(mws, cors.AllowAll().Handler)
	}
	mws = append(mws, trustedHostMiddleware(server.TrustedHosts))
	if server.Options.logEnabled() {
		mws = append(mws, loggerMiddleware("http"))
	}
	return chainMiddleware(mux, mws...)
}

// startHTTPServer serves until ctx ends or SIGINT/SIGTERM arrives, then
// drains for up to shutdownTimeout.
func startHTTPServer(ctx context.Context, config *Config, handler http.Handler) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// open SSE streams end with this context on shutdown
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	httpServer := &http.Server{
		Addr:              config.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Printf("%s %s listening on %s", config.Server.Name, config.Server.Version, config.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", config.Server.Addr, err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		log.Println("Shutdown signal received")
		cancelBase()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return eg.Wait()
}
