package estimatelevy

import (
	"context"
	"time"

	"monopco-workers/internal/common/database"
	"monopco-workers/internal/common/errors"
	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/common/metrics"
	"monopco-workers/internal/common/observability"
	"monopco-workers/internal/models"
	"monopco-workers/internal/opco"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const estimationsTable = "opco_estimations"

type Service struct {
	config    *Config
	logger    logger.Logger
	lookup    opco.CompanyLookup
	estimator *opco.Estimator
	store     database.Gateway
	index     Indexer
	obs       *observability.Observability
	newID     func() string
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	estimator := deps.Estimator
	if estimator == nil {
		estimator = opco.NewEstimator(opco.DefaultLevyPolicy(), nil)
	}
	return &Service{
		config:    config,
		logger:    deps.Logger,
		lookup:    deps.Lookup,
		estimator: estimator,
		store:     deps.Store,
		index:     deps.Index,
		obs:       deps.Observability,
		newID:     func() string { return uuid.New().String() },
	}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, span := s.obs.StartSpan(ctx, "opco.levy.estimate",
		attribute.String("siret", input.Identifier),
		attribute.Int("headcount", input.Headcount),
	)
	defer span.End()

	est, err := s.estimator.EstimateBySiret(ctx, s.lookup, input.Identifier, input.Headcount)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errors.CodeOf(err))
		return nil, err
	}

	defaulted := s.estimator.Classifier().IsDefaulted(est.NAFCode)
	if defaulted {
		metrics.OpcoClassificationFallback.Inc()
		s.logger.Warn("NAF code not mapped, using default OPCO", map[string]interface{}{
			"codeNaf": est.NAFCode,
			"siret":   est.Siret,
			"opco":    est.OPCO,
		})
	}
	metrics.OpcoEstimations.WithLabelValues(est.OPCO).Inc()
	span.SetAttributes(attribute.String("opco", est.OPCO), attribute.Float64("amount", est.Amount))

	id := s.newID()

	if s.config.Persist && s.store != nil {
		if _, err := s.store.Insert(ctx, estimationsTable, estimationRecord(id, est)); err != nil {
			span.RecordError(err)
			return nil, errors.NewDatabaseInsertFailedError(estimationsTable, err)
		}
	}

	if s.config.Index && s.index != nil {
		if err := s.index.IndexEstimation(ctx, id, est); err != nil {
			// indexing is best effort, opco_estimations stays authoritative
			s.logger.Warn("Failed to index estimation", map[string]interface{}{
				"estimationId": id,
				"error":        err.Error(),
			})
		}
	}

	s.logger.Info("Levy estimated", map[string]interface{}{
		"estimationId": id,
		"siret":        est.Siret,
		"opco":         est.OPCO,
		"montant":      est.Amount,
	})

	return &Output{EstimationID: id, Estimation: est, Defaulted: defaulted}, nil
}

func estimationRecord(id string, est *models.LevyEstimation) database.Record {
	siren := est.Siret
	if len(siren) > 9 {
		siren = siren[:9]
	}
	return database.Record{
		"id":              id,
		"siret":           est.Siret,
		"siren":           siren,
		"nom_entreprise":  est.CompanyName,
		"code_naf":        est.NAFCode,
		"secteur":         est.Sector,
		"opco":            est.OPCO,
		"nombre_salaries": est.Headcount,
		"masse_salariale": est.PayrollMass,
		"taux":            est.Rate,
		"montant":         est.Amount,
		"formule":         est.Trace.Formula,
		"created_at":      time.Now().UTC(),
	}
}
