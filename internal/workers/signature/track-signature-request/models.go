package tracksignaturerequest

import (
	"context"

	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/common/yousign"
)

const (
	ActionStatus = "status"
	ActionCancel = "cancel"
)

type Input struct {
	SignatureRequestID string `json:"signatureRequestId"`
	Action             string `json:"action"`
	Reason             string `json:"reason,omitempty"`
}

type Output struct {
	SignatureRequestID string `json:"signatureRequestId"`
	Status             string `json:"status"`
	Terminal           bool   `json:"terminal"`
	Signed             bool   `json:"signed"`
}

// SignatureClient is the part of *yousign.Client tracking uses.
type SignatureClient interface {
	Get(ctx context.Context, requestID string) (*yousign.SignatureRequest, error)
	Cancel(ctx context.Context, requestID, reason string) (*yousign.SignatureRequest, error)
}

type ServiceDependencies struct {
	Logger logger.Logger
	Client SignatureClient
}
