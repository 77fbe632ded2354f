package createsignaturerequest

import (
	"context"

	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/common/observability"
	"monopco-workers/internal/common/yousign"
)

type Input struct {
	DocumentName string     `json:"documentName"`
	Document     *Document  `json:"document,omitempty"`
	Signers      []SignerIn `json:"signers"`
	CustomNote   string     `json:"customNote,omitempty"`
	ExpiresAt    string     `json:"expiresAt,omitempty"`
}

// Document is the file to sign, base64 encoded.
type Document struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type SignerIn struct {
	FirstName          string `json:"firstName"`
	LastName           string `json:"lastName"`
	Email              string `json:"email"`
	Phone              string `json:"phone,omitempty"`
	SignatureLevel     string `json:"signatureLevel,omitempty"`
	AuthenticationMode string `json:"authenticationMode,omitempty"`
}

type Output struct {
	SignatureRequestID string   `json:"signatureRequestId"`
	Status             string   `json:"status"`
	DocumentID         string   `json:"documentId,omitempty"`
	SignerIDs          []string `json:"signerIds"`
}

// SignatureClient is the part of *yousign.Client the sequence uses.
type SignatureClient interface {
	CreateSignatureRequest(ctx context.Context, p yousign.CreateParams) (*yousign.SignatureRequest, error)
	UploadDocument(ctx context.Context, requestID, filename string, content []byte, nature string) (*yousign.Document, error)
	AddSigner(ctx context.Context, requestID string, s yousign.Signer) (*yousign.Signer, error)
	Activate(ctx context.Context, requestID string) (*yousign.SignatureRequest, error)
}

type ServiceDependencies struct {
	Logger        logger.Logger
	Client        SignatureClient
	Observability *observability.Observability
}
