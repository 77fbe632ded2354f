package tracksignaturerequest

import (
	"context"

	"monopco-workers/internal/common/errors"
	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/common/yousign"
)

type Service struct {
	config *Config
	logger logger.Logger
	client SignatureClient
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	return &Service{config: config, logger: deps.Logger, client: deps.Client}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	var (
		req *yousign.SignatureRequest
		err error
	)

	switch input.Action {
	case ActionCancel:
		reason := input.Reason
		if reason == "" {
			reason = s.config.CancelReason
		}
		req, err = s.client.Cancel(ctx, input.SignatureRequestID, reason)
		if err == nil {
			s.logger.Info("Signature request canceled", map[string]interface{}{
				"signatureRequestId": input.SignatureRequestID,
				"reason":             reason,
			})
		}
	case "", ActionStatus:
		req, err = s.client.Get(ctx, input.SignatureRequestID)
	default:
		return nil, errors.NewValidationError("action must be status or cancel")
	}
	if err != nil {
		return nil, err
	}

	return &Output{
		SignatureRequestID: req.ID,
		Status:             req.Status,
		Terminal:           yousign.IsTerminal(req.Status),
		Signed:             req.Status == yousign.StatusDone,
	}, nil
}
