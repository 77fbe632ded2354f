package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON_SendsHeadersQueryAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/signature_requests", r.URL.Path)
		assert.Equal(t, "fr", r.URL.Query().Get("locale"))
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"Convention"}`, string(body))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"sr-1","status":"draft"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, map[string]string{"Authorization": "Bearer token"})
	assert.Equal(t, srv.URL, c.BaseURL())

	resp, err := c.DoJSON(context.Background(), http.MethodPost, "/signature_requests",
		url.Values{"locale": {"fr"}}, map[string]string{"name": "Convention"})
	require.NoError(t, err)
	assert.True(t, resp.OK())

	var out struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, resp.DecodeJSON(&out))
	assert.Equal(t, "sr-1", out.ID)
}

func TestDo_NonSuccessIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("nope"))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, time.Second, nil).DoJSON(context.Background(), http.MethodGet, "/entreprise", nil, nil)
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Error(t, resp.DecodeJSON(&struct{}{}))
}

func TestDo_CustomContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL, time.Second, nil).Do(context.Background(), http.MethodPost, "/documents", nil,
		"multipart/form-data; boundary=x", strings.NewReader("--x--"))
	require.NoError(t, err)
	assert.True(t, resp.OK())
}

func TestDo_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := NewClient(srv.URL, time.Second, nil).DoJSON(context.Background(), http.MethodGet, "/", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute request")
}
