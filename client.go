package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	upstreamTimeout = 30 * time.Second
	restPrefix      = "/wp-json/wp/v2"
	maxErrorExcerpt = 200
	maxResponseBody = 16 << 20
)

// Upstream is the single call the Dispatcher needs from the CMS client.
type Upstream interface {
	Send(ctx context.Context, req UpstreamRequest) (*UpstreamResponse, error)
}

type UpstreamRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

type UpstreamResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// JSON returns the parsed response body; an empty body reads as {}.
func (r *UpstreamResponse) JSON() gjson.Result {
	if r == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return gjson.Parse("{}")
	}
	return gjson.ParseBytes(r.Body)
}

// UpstreamError is a non-2xx answer from the CMS.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("HTTP error: %d - %s", e.StatusCode, truncate(e.Body, maxErrorExcerpt))
}

// TransportError covers connection failures and timeouts.
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return "Error: " + truncate(e.Cause.Error(), maxErrorExcerpt)
}

func (e *TransportError) Unwrap() error { return e.Cause }

type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

func NewClient(baseURL, username, password string, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("wordpress base URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid wordpress base URL: %w", err)
	}
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, errors.New("wordpress username and password are required")
	}
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: upstreamTimeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: httpClient,
	}, nil
}

func (c *Client) Send(ctx context.Context, req UpstreamRequest) (*UpstreamResponse, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal upstream request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	target := c.baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if bodyReader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && !gjson.ValidBytes(trimmed) {
		return nil, fmt.Errorf("decode upstream response from %s %s: body is not JSON", req.Method, req.Path)
	}
	return &UpstreamResponse{StatusCode: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

// Close releases pooled connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
