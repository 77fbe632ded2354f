package database

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"monopco-workers/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestElasticsearch(t *testing.T, handler http.HandlerFunc) *ElasticsearchClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := NewElasticsearch(config.ElasticsearchConfig{URL: srv.URL, EstimationIndex: "opco-estimations"})
	require.NoError(t, err)
	return es
}

func TestElasticsearch_IndexEstimation(t *testing.T) {
	var gotPath string
	var gotDoc map[string]interface{}
	es := newTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotDoc)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result":"created"}`))
	})

	err := es.IndexEstimation(context.Background(), "est-1", map[string]interface{}{"siret": "44306184100047", "opco": "ATLAS"})
	require.NoError(t, err)
	assert.Equal(t, "/opco-estimations/_doc/est-1", gotPath)
	assert.Equal(t, "ATLAS", gotDoc["opco"])
}

func TestElasticsearch_IndexEstimationError(t *testing.T) {
	es := newTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"mapper_parsing_exception"}`))
	})

	err := es.IndexEstimation(context.Background(), "est-1", map[string]interface{}{"siret": "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestElasticsearch_Ping(t *testing.T) {
	es := newTestElasticsearch(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version":{"number":"8.11.0"}}`))
	})
	assert.NoError(t, es.Ping(context.Background()))
}
