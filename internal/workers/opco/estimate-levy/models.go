package estimatelevy

import (
	"context"

	"monopco-workers/internal/common/database"
	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/common/observability"
	"monopco-workers/internal/models"
	"monopco-workers/internal/opco"
)

type Input struct {
	Identifier string
	Headcount  int
}

type Output struct {
	EstimationID string                 `json:"estimationId"`
	Estimation   *models.LevyEstimation `json:"estimation"`
	Defaulted    bool                   `json:"opcoDefaulted"`
}

// Indexer receives estimations for search. *database.ElasticsearchClient
// implements it.
type Indexer interface {
	IndexEstimation(ctx context.Context, docID string, doc interface{}) error
}

type ServiceDependencies struct {
	Logger        logger.Logger
	Lookup        opco.CompanyLookup
	Estimator     *opco.Estimator
	Store         database.Gateway
	Index         Indexer
	Observability *observability.Observability
}
