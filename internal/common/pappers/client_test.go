package pappers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"monopco-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", 2*time.Second)
}

func TestLookup_SiretSuccess(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/entreprise", r.URL.Path)
		assert.Equal(t, "44306184100047", r.URL.Query().Get("siret"))
		assert.Equal(t, "test-key", r.Header.Get("api-key"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"siren": "443061841",
			"nom_entreprise": "GOOGLE FRANCE",
			"forme_juridique": "SARL",
			"code_naf": "62.02A",
			"libelle_code_naf": "Conseil en systèmes et logiciels informatiques",
			"domaine_activite": "Informatique",
			"siege": {"code_postal": "75009", "ville": "PARIS"},
			"entreprise_cessee": false
		}`))
	})

	company, err := client.Lookup(context.Background(), "443 061 841 00047")
	require.NoError(t, err)
	assert.Equal(t, "44306184100047", company.Siret)
	assert.Equal(t, "443061841", company.Siren)
	assert.Equal(t, "GOOGLE FRANCE", company.Name)
	assert.Equal(t, "62.02A", company.NAFCode)
	assert.Equal(t, "PARIS", company.HeadOffice.City)
	assert.Equal(t, "Informatique", company.SectorLabel())
}

func TestLookup_SirenUsesSirenParam(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "443061841", r.URL.Query().Get("siren"))
		assert.Empty(t, r.URL.Query().Get("siret"))
		w.Write([]byte(`{"siren": "443061841", "prenom": "Jean", "nom": "Dupont", "code_naf": "96.02A"}`))
	})

	company, err := client.Lookup(context.Background(), "443061841")
	require.NoError(t, err)
	assert.Empty(t, company.Siret)
	assert.Equal(t, "Jean Dupont", company.Name)
}

func TestLookup_DenominationFallback(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"siren": "443061841", "denomination": "ACME", "code_naf": "47.11A"}`))
	})

	company, err := client.Lookup(context.Background(), "44306184100047")
	require.NoError(t, err)
	assert.Equal(t, "ACME", company.Name)
}

func TestLookup_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		identifier string
		status     int
		wantCode   errors.ErrorCode
		wantMsg    string
		retryable  bool
	}{
		{"not found siret", "44306184100047", http.StatusNotFound, errors.ErrCodeCompanyNotFound, "Entreprise non trouvée avec ce SIRET", false},
		{"not found siren", "443061841", http.StatusNotFound, errors.ErrCodeCompanyNotFound, "Entreprise non trouvée avec ce SIREN", false},
		{"unauthorized", "44306184100047", http.StatusUnauthorized, errors.ErrCodeUpstreamAuth, "Clé API Pappers invalide", false},
		{"forbidden", "44306184100047", http.StatusForbidden, errors.ErrCodeUpstreamAuth, "Clé API Pappers invalide", false},
		{"rate limited", "44306184100047", http.StatusTooManyRequests, errors.ErrCodeUpstreamRateLimit, "Limite de requêtes API atteinte", true},
		{"server error", "44306184100047", http.StatusBadGateway, errors.ErrCodeUpstreamTransport, "Erreur API Pappers: 502", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			company, err := client.Lookup(context.Background(), tt.identifier)
			assert.Nil(t, company)

			stdErr, ok := errors.AsStandardError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.wantMsg, stdErr.Message)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
		})
	}
}

func TestLookup_MissingAPIKey(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "", time.Second)

	_, err := client.Lookup(context.Background(), "44306184100047")

	stdErr, ok := errors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeUpstreamAuth, stdErr.Code)
	assert.Equal(t, "Clé API Pappers non configurée", stdErr.Message)
}

func TestLookup_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, "test-key", time.Second)
	_, err := client.Lookup(context.Background(), "44306184100047")

	assert.True(t, errors.HasCode(err, errors.ErrCodeUpstreamTransport))
}
