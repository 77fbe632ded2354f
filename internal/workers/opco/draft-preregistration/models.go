package draftpreregistration

import (
	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/models"
)

type Input struct {
	Estimation models.LevyEstimation
}

type Output struct {
	Subject string `json:"draftSubject"`
	Body    string `json:"draftBody"`
}

type ServiceDependencies struct {
	Logger logger.Logger
}
