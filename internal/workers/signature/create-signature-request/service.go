package createsignaturerequest

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"monopco-workers/internal/common/errors"
	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/common/observability"
	"monopco-workers/internal/common/yousign"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Steps reported in SIGNATURE_SEQUENCE_FAILED metadata.
const (
	StepCreate   = "create"
	StepUpload   = "upload_document"
	StepSigner   = "add_signer"
	StepActivate = "activate"
)

type Service struct {
	config *Config
	logger logger.Logger
	client SignatureClient
	obs    *observability.Observability
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{
		config: config,
		logger: deps.Logger,
		client: deps.Client,
		obs:    deps.Observability,
	}
}

// Execute runs create, upload, every signer in order, then activate. It stops
// at the first failing call; signers already added are left in place.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateSigners(input.Signers); err != nil {
		return nil, err
	}
	var content []byte
	if input.Document != nil {
		decoded, err := base64.StdEncoding.DecodeString(input.Document.Content)
		if err != nil {
			return nil, errors.NewValidationError("document.content is not valid base64")
		}
		content = decoded
	}

	ctx, span := s.obs.StartSpan(ctx, "signature.request.create",
		attribute.String("document", input.DocumentName),
		attribute.Int("signers", len(input.Signers)),
	)
	defer span.End()

	req, err := s.client.CreateSignatureRequest(ctx, yousign.CreateParams{
		Name:            input.DocumentName,
		EmailCustomNote: input.CustomNote,
		ExpiresAt:       input.ExpiresAt,
	})
	if err != nil {
		return nil, s.stepFailed(span, StepCreate, "", err)
	}
	out := &Output{SignatureRequestID: req.ID, Status: req.Status, SignerIDs: []string{}}
	span.SetAttributes(attribute.String("signature_request_id", req.ID))

	if input.Document != nil {
		doc, err := s.client.UploadDocument(ctx, req.ID, input.Document.Filename, content, "")
		if err != nil {
			return nil, s.stepFailed(span, StepUpload, req.ID, err)
		}
		out.DocumentID = doc.ID
	}

	for i, in := range input.Signers {
		signer, err := s.client.AddSigner(ctx, req.ID, s.signerPayload(in))
		if err != nil {
			return nil, s.stepFailed(span, fmt.Sprintf("%s[%d]", StepSigner, i), req.ID, err)
		}
		out.SignerIDs = append(out.SignerIDs, signer.ID)
	}

	activated, err := s.client.Activate(ctx, req.ID)
	if err != nil {
		return nil, s.stepFailed(span, StepActivate, req.ID, err)
	}
	out.Status = activated.Status

	s.logger.Info("Signature request activated", map[string]interface{}{
		"signatureRequestId": req.ID,
		"signers":            len(out.SignerIDs),
		"status":             out.Status,
	})
	return out, nil
}

func (s *Service) signerPayload(in SignerIn) yousign.Signer {
	return yousign.Signer{
		Info: yousign.SignerInfo{
			FirstName:   strings.TrimSpace(in.FirstName),
			LastName:    strings.TrimSpace(in.LastName),
			Email:       strings.TrimSpace(in.Email),
			PhoneNumber: strings.TrimSpace(in.Phone),
			Locale:      s.config.SignerLocale,
		},
		SignatureLevel:              in.SignatureLevel,
		SignatureAuthenticationMode: in.AuthenticationMode,
	}
}

func (s *Service) stepFailed(span trace.Span, step, requestID string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, step)

	s.logger.Error("Signature sequence stopped", map[string]interface{}{
		"step":               step,
		"signatureRequestId": requestID,
		"error":              err.Error(),
	})

	stdErr := errors.NewSignatureSequenceError(step, err)
	if requestID != "" {
		stdErr = stdErr.WithMetadata("signatureRequestId", requestID)
	}
	return stdErr
}

func validateSigners(signers []SignerIn) error {
	if len(signers) == 0 {
		return errors.NewValidationError("at least one signer is required")
	}
	for i, sg := range signers {
		switch {
		case strings.TrimSpace(sg.FirstName) == "":
			return errors.NewValidationError(fmt.Sprintf("signers[%d].firstName is required", i))
		case strings.TrimSpace(sg.LastName) == "":
			return errors.NewValidationError(fmt.Sprintf("signers[%d].lastName is required", i))
		case !strings.Contains(sg.Email, "@"):
			return errors.NewValidationError(fmt.Sprintf("signers[%d].email is invalid", i))
		}
	}
	return nil
}
