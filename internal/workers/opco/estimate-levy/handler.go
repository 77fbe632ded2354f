package estimatelevy

import (
	"context"
	"fmt"
	"math"
	"time"

	"monopco-workers/internal/common/config"
	"monopco-workers/internal/common/errors"
	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/common/metrics"
	"monopco-workers/internal/common/observability"
	"monopco-workers/internal/common/validation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "opco-levy-estimate"

type executor interface {
	Execute(ctx context.Context, input *Input) (*Output, error)
}

type Handler struct {
	config   *Config
	logger   logger.Logger
	service  executor
	errorsTo *errors.ErrorHandler
	obs      *observability.Observability
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Logger       logger.Logger
	Deps         ServiceDependencies
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Deps.Lookup == nil {
		return nil, fmt.Errorf("%s: company lookup is required", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewStructured("info", "json")
	}
	deps := opts.Deps
	deps.Logger = log

	return &Handler{
		config:   workerConfig,
		logger:   log,
		service:  NewService(deps, workerConfig),
		errorsTo: errors.NewErrorHandler(log),
		obs:      deps.Observability,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing levy estimation", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
		"worker":             TaskType,
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "completed")
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.service.Execute(ctx, input)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInputParsingError(err)
	}

	result := validation.ValidateInput(variables, GetInputSchema())
	if !result.Valid {
		return nil, errors.NewValidationError(fmt.Sprintf("Validation errors: %v", result.GetErrorMessages()))
	}

	identifier, _ := variables["identifier"].(string)
	if identifier == "" {
		identifier, _ = variables["siret"].(string)
	}
	if identifier == "" {
		return nil, errors.NewValidationError("identifier (or siret) is required")
	}

	raw, ok := variables["headcount"].(float64)
	if !ok {
		raw, ok = variables["nombreEmployes"].(float64)
	}
	if !ok {
		return nil, errors.NewValidationError("headcount (or nombreEmployes) is required")
	}
	if raw != math.Trunc(raw) || raw <= 0 || raw > math.MaxInt32 {
		return nil, errors.NewInvalidHeadcountError(int(raw))
	}

	return &Input{Identifier: identifier, Headcount: int(raw)}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	est := output.Estimation
	variables := map[string]interface{}{
		"estimationId":  output.EstimationID,
		"estimation":    est,
		"opco":          est.OPCO,
		"montantEstime": est.Amount,
		"opcoDefaulted": output.Defaulted,
	}

	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(variables)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
			"worker": TaskType,
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
			"worker": TaskType,
		})
		return
	}

	h.logger.Info("Successfully completed levy estimation", map[string]interface{}{
		"jobKey":       job.GetKey(),
		"estimationId": output.EstimationID,
		"worker":       TaskType,
	})
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errors.CodeOf(err)).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.errorsTo.HandleJobError(ctx, client, job, err)
}

func (h *Handler) GetTaskType() string { return TaskType }

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers[TaskType]; exists {
			cfg.Enabled = workerCfg.Enabled
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = config.GetDuration(workerCfg.Timeout)
			}
		}
		cfg.Index = appConfig.Database.Elasticsearch.Enabled()
	}
	return cfg
}
