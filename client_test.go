package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(srv.URL+"/", "editor", "app-pass", srv.Client())
	require.NoError(t, err)
	return client
}

func TestClientSendsAuthQueryAndBody(t *testing.T) {
	var (
		gotUser, gotPass, gotPath, gotQuery, gotBody, gotType string
		gotAuth                                               bool
	)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, gotAuth = r.BasicAuth()
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("X-WP-Total", "3")
		_, _ = w.Write([]byte(`{"id":1}`))
	})

	resp, err := client.Send(context.Background(), UpstreamRequest{
		Method: http.MethodPost,
		Path:   "/wp-json/wp/v2/posts",
		Query:  url.Values{"force": {"true"}},
		Body:   map[string]any{"title": "T"},
	})
	require.NoError(t, err)
	assert.True(t, gotAuth)
	assert.Equal(t, "editor", gotUser)
	assert.Equal(t, "app-pass", gotPass)
	assert.Equal(t, "/wp-json/wp/v2/posts", gotPath)
	assert.Equal(t, "force=true", gotQuery)
	assert.Equal(t, "application/json", gotType)
	assert.JSONEq(t, `{"title":"T"}`, gotBody)
	assert.Equal(t, "3", resp.Header.Get("X-WP-Total"))
	assert.Equal(t, int64(1), resp.JSON().Get("id").Int())
}

func TestClientNon2xxIsUpstreamError(t *testing.T) {
	long := strings.Repeat("x", 500)
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, long, http.StatusForbidden)
	})

	_, err := client.Send(context.Background(), UpstreamRequest{Method: http.MethodGet, Path: "/wp-json"})
	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusForbidden, upErr.StatusCode)
	assert.Equal(t, "HTTP error: 403 - "+strings.Repeat("x", 200), upErr.Error())
}

func TestClientInvalidJSONIsUnexpected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	})

	_, err := client.Send(context.Background(), UpstreamRequest{Method: http.MethodGet, Path: "/wp-json"})
	require.Error(t, err)
	_, known := upstreamFailure(err)
	assert.False(t, known)
}

func TestClientEmptyBodyReadsAsObject(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	resp, err := client.Send(context.Background(), UpstreamRequest{Method: http.MethodDelete, Path: "/wp-json/wp/v2/posts/1"})
	require.NoError(t, err)
	assert.True(t, resp.JSON().IsObject())
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := NewClient(base, "editor", "app-pass", nil)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Send(context.Background(), UpstreamRequest{Method: http.MethodGet, Path: "/wp-json"})
	var trErr *TransportError
	require.ErrorAs(t, err, &trErr)
	assert.True(t, strings.HasPrefix(trErr.Error(), "Error: "))
	assert.NotNil(t, errors.Unwrap(trErr))
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("", "u", "p", nil)
	assert.Error(t, err)
	_, err = NewClient("https://blog.example", "", "p", nil)
	assert.Error(t, err)
	_, err = NewClient("https://blog.example", "u", "", nil)
	assert.Error(t, err)
}

func TestTruncateCountsRunes(t *testing.T) {
	assert.Equal(t, "héll", truncate("héllo", 4))
	assert.Equal(t, "abc", truncate("abc", 200))
	assert.Equal(t, "", truncate("abc", 0))
}
