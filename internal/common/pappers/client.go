// internal/common/pappers/client.go
package pappers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"monopco-workers/internal/common/errors"
	httpclient "monopco-workers/internal/common/http"
	"monopco-workers/internal/models"
)

const serviceName = "pappers"

// Client looks companies up in the Pappers v2 registry. It does not retry;
// rate limits and transport failures come back as retryable errors for the
// job layer to handle.
type Client struct {
	http   *httpclient.Client
	apiKey string
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		http:   httpclient.NewClient(baseURL, timeout, map[string]string{"api-key": apiKey}),
		apiKey: apiKey,
	}
}

// Lookup fetches a company by SIREN (9 digits) or SIRET (anything else).
// Whitespace in identifier is ignored; format checks belong to the caller.
func (c *Client) Lookup(ctx context.Context, identifier string) (*models.CompanyRecord, error) {
	clean := strings.Join(strings.Fields(identifier), "")

	if c.apiKey == "" {
		return nil, errors.NewUpstreamAuthError(serviceName, "Clé API Pappers non configurée")
	}

	param := "siret"
	if len(clean) == 9 {
		param = "siren"
	}

	resp, err := c.http.DoJSON(ctx, http.MethodGet, "/entreprise", url.Values{param: {clean}}, nil)
	if err != nil {
		return nil, errors.NewUpstreamTransportError(serviceName, "Erreur lors de la recherche", err)
	}

	if !resp.OK() {
		return nil, mapStatus(resp.StatusCode, clean)
	}

	var payload entreprise
	if err := resp.DecodeJSON(&payload); err != nil {
		return nil, errors.NewUpstreamTransportError(serviceName, "Réponse Pappers illisible", err)
	}

	company := payload.CompanyRecord
	if param == "siret" {
		company.Siret = clean
	}
	company.Name = payload.legalName()

	return &company, nil
}

func mapStatus(status int, identifier string) error {
	switch status {
	case http.StatusNotFound:
		return errors.NewCompanyNotFoundError(identifier)
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.NewUpstreamAuthError(serviceName, "Clé API Pappers invalide")
	case http.StatusTooManyRequests:
		return errors.NewUpstreamRateLimitedError(serviceName, "Limite de requêtes API atteinte")
	default:
		return errors.NewUpstreamTransportError(serviceName, fmt.Sprintf("Erreur API Pappers: %d", status), nil)
	}
}

// entreprise is the /entreprise payload. Sole traders carry nom/prenom
// instead of a company name.
type entreprise struct {
	models.CompanyRecord
	Nom    string `json:"nom"`
	Prenom string `json:"prenom"`
}

// legalName falls back to the denomination, then to "prenom nom".
func (e entreprise) legalName() string {
	if e.Name != "" {
		return e.Name
	}
	if e.Denomination != "" {
		return e.Denomination
	}
	return strings.TrimSpace(e.Prenom + " " + e.Nom)
}
