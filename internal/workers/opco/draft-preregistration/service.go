package draftpreregistration

import (
	"context"

	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/opco"
)

type Service struct {
	logger logger.Logger
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{logger: deps.Logger}
}

func (s *Service) Execute(_ context.Context, input *Input) (*Output, error) {
	draft := opco.FormatDraft(input.Estimation)

	s.logger.Debug("Pre-registration draft built", map[string]interface{}{
		"siret": input.Estimation.Siret,
		"opco":  input.Estimation.OPCO,
	})

	return &Output{Subject: draft.Subject, Body: draft.Body}, nil
}
