// internal/common/yousign/client.go
package yousign

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"monopco-workers/internal/common/errors"
	httpclient "monopco-workers/internal/common/http"
)

const serviceName = "yousign"

// Signature request statuses.
const (
	StatusDraft    = "draft"
	StatusOngoing  = "ongoing"
	StatusDone     = "done"
	StatusExpired  = "expired"
	StatusCanceled = "canceled"
	StatusDeclined = "declined"
)

// IsTerminal reports whether a request in this status can no longer change.
func IsTerminal(status string) bool {
	switch status {
	case StatusDone, StatusExpired, StatusCanceled, StatusDeclined:
		return true
	}
	return false
}

type Document struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	Nature   string `json:"nature"`
}

type SignerInfo struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Locale      string `json:"locale,omitempty"`
}

type Signer struct {
	ID                          string     `json:"id,omitempty"`
	Info                        SignerInfo `json:"info"`
	SignatureLevel              string     `json:"signature_level"`
	SignatureAuthenticationMode string     `json:"signature_authentication_mode"`
}

type SignatureRequest struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	DeliveryMode    string     `json:"delivery_mode"`
	Timezone        string     `json:"timezone"`
	EmailCustomNote string     `json:"email_custom_note,omitempty"`
	Status          string     `json:"status"`
	Signers         []Signer   `json:"signers"`
	Documents       []Document `json:"documents"`
	CreatedAt       string     `json:"created_at,omitempty"`
	UpdatedAt       string     `json:"updated_at,omitempty"`
	ExpiresAt       string     `json:"expires_at,omitempty"`
}

// CreateParams are the fields sent when opening a request.
type CreateParams struct {
	Name            string `json:"name"`
	DeliveryMode    string `json:"delivery_mode"`
	Timezone        string `json:"timezone"`
	ExpiresAt       string `json:"expires_at,omitempty"`
	EmailCustomNote string `json:"email_custom_note,omitempty"`
}

// Client talks to the Yousign v3 API with a bearer key. It does not retry.
type Client struct {
	http *httpclient.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		http: httpclient.NewClient(baseURL, timeout, map[string]string{
			"Authorization": "Bearer " + apiKey,
		}),
	}
}

// CreateSignatureRequest opens a draft request. Delivery mode defaults to
// email and timezone to Europe/Paris.
func (c *Client) CreateSignatureRequest(ctx context.Context, p CreateParams) (*SignatureRequest, error) {
	if p.DeliveryMode == "" {
		p.DeliveryMode = "email"
	}
	if p.Timezone == "" {
		p.Timezone = "Europe/Paris"
	}

	var out SignatureRequest
	if err := c.call(ctx, http.MethodPost, "/signature_requests", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadDocument attaches a file. nature defaults to signable_document.
func (c *Client) UploadDocument(ctx context.Context, requestID, filename string, content []byte, nature string) (*Document, error) {
	if nature == "" {
		nature = "signable_document"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, errors.NewInternalError("failed to build upload", err)
	}
	if _, err := fw.Write(content); err != nil {
		return nil, errors.NewInternalError("failed to build upload", err)
	}
	if err := mw.WriteField("nature", nature); err != nil {
		return nil, errors.NewInternalError("failed to build upload", err)
	}
	if err := mw.Close(); err != nil {
		return nil, errors.NewInternalError("failed to build upload", err)
	}

	resp, err := c.http.Do(ctx, http.MethodPost, "/signature_requests/"+requestID+"/documents", nil, mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, errors.NewUpstreamTransportError(serviceName, "Yousign API unreachable", err)
	}
	if !resp.OK() {
		return nil, mapStatus(resp)
	}

	var doc Document
	if err := resp.DecodeJSON(&doc); err != nil {
		return nil, errors.NewUpstreamTransportError(serviceName, "Yousign API returned an unreadable body", err)
	}
	return &doc, nil
}

// AddSigner adds one signer. Level defaults to electronic_signature and
// authentication mode to otp_email.
func (c *Client) AddSigner(ctx context.Context, requestID string, s Signer) (*Signer, error) {
	if s.SignatureLevel == "" {
		s.SignatureLevel = "electronic_signature"
	}
	if s.SignatureAuthenticationMode == "" {
		s.SignatureAuthenticationMode = "otp_email"
	}
	s.ID = ""

	var out Signer
	if err := c.call(ctx, http.MethodPost, "/signature_requests/"+requestID+"/signers", s, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Activate sends the request to its signers.
func (c *Client) Activate(ctx context.Context, requestID string) (*SignatureRequest, error) {
	var out SignatureRequest
	if err := c.call(ctx, http.MethodPost, "/signature_requests/"+requestID+"/activate", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Get(ctx context.Context, requestID string) (*SignatureRequest, error) {
	var out SignatureRequest
	if err := c.call(ctx, http.MethodGet, "/signature_requests/"+requestID, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cancel cancels an ongoing request.
func (c *Client) Cancel(ctx context.Context, requestID, reason string) (*SignatureRequest, error) {
	if reason == "" {
		reason = "Annulation par l'utilisateur"
	}

	var out SignatureRequest
	body := map[string]string{"reason": reason}
	if err := c.call(ctx, http.MethodPost, "/signature_requests/"+requestID+"/cancel", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadSignedDocuments returns the signed documents archive.
func (c *Client) DownloadSignedDocuments(ctx context.Context, requestID string) ([]byte, error) {
	resp, err := c.http.Do(ctx, http.MethodGet, "/signature_requests/"+requestID+"/documents/download", nil, "", nil)
	if err != nil {
		return nil, errors.NewUpstreamTransportError(serviceName, "Yousign API unreachable", err)
	}
	if !resp.OK() {
		return nil, mapStatus(resp)
	}
	return resp.Body, nil
}

func (c *Client) call(ctx context.Context, method, path string, in, out interface{}) error {
	resp, err := c.http.DoJSON(ctx, method, path, nil, in)
	if err != nil {
		return errors.NewUpstreamTransportError(serviceName, "Yousign API unreachable", err)
	}
	if !resp.OK() {
		return mapStatus(resp)
	}
	if err := resp.DecodeJSON(out); err != nil {
		return errors.NewUpstreamTransportError(serviceName, "Yousign API returned an unreadable body", err)
	}
	return nil
}

func mapStatus(resp *httpclient.Response) error {
	msg := fmt.Sprintf("Yousign API error: %d - %s", resp.StatusCode, string(resp.Body))

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.NewUpstreamAuthError(serviceName, msg)
	case http.StatusNotFound:
		return errors.NewUpstreamNotFoundError(serviceName, msg)
	case http.StatusTooManyRequests:
		return errors.NewUpstreamRateLimitedError(serviceName, msg)
	default:
		return errors.NewUpstreamTransportError(serviceName, msg, nil)
	}
}
