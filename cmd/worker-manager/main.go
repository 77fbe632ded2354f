// cmd/worker-manager/main.go
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"monopco-workers/internal/changefeed"
	commonaws "monopco-workers/internal/common/aws"
	"monopco-workers/internal/common/camunda"
	"monopco-workers/internal/common/config"
	"monopco-workers/internal/common/database"
	"monopco-workers/internal/common/logger"
	"monopco-workers/internal/common/observability"
	"monopco-workers/internal/common/pappers"
	"monopco-workers/internal/common/yousign"
	"monopco-workers/internal/notify"
	"monopco-workers/internal/opco"
	"monopco-workers/internal/registrycache"
	"monopco-workers/pkg/registry"

	es "monopco-workers/internal/workers/communication/email-send"
	dn "monopco-workers/internal/workers/notification/dispatch-notification"
	dp "monopco-workers/internal/workers/opco/draft-preregistration"
	el "monopco-workers/internal/workers/opco/estimate-levy"
	lc "monopco-workers/internal/workers/opco/lookup-company"
	csr "monopco-workers/internal/workers/signature/create-signature-request"
	tsr "monopco-workers/internal/workers/signature/track-signature-request"
	ep "monopco-workers/internal/workers/templates/extract-placeholders"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

type namedHandler struct {
	taskType string
	handler  camunda.JobHandler
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := registry.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.String("path", cfg.Registry.Path), zap.Error(err))
	}
	if errs := reg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			zapLog.Error("activity registry problem", zap.Error(e))
		}
		zapLog.Fatal("activity registry is invalid", zap.Int("problems", len(errs)))
	}

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: cfg.Camunda.Plaintext,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	store := database.NewPostgresGateway(pg.DB, pg.DSN())

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()

	// --- Elasticsearch (optional) ---
	var indexer el.Indexer
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled() {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, estimations will not be indexed", zap.Error(err))
			esClient = nil
		} else {
			indexer = esClient
		}
	}

	// --- AWS ---
	awsCfg, err := commonaws.LoadConfig(ctx, cfg.Integrations.AWS.Region)
	if err != nil {
		zapLog.Fatal("aws config failed", zap.Error(err))
	}
	mailer := notify.NewSESMailer(
		commonaws.NewSESClient(awsCfg),
		cfg.Integrations.AWS.SES.FromEmail,
		cfg.Integrations.AWS.SES.ConfigurationSet,
	)
	composer, err := notify.NewComposer(cfg.Notifications.DashboardURL, cfg.Notifications.SupportEmail)
	if err != nil {
		zapLog.Fatal("email templates failed to parse", zap.Error(err))
	}

	sinks := []notify.Sink{notify.NewPersistenceSink(store)}
	if cfg.Notifications.Email.Enabled && cfg.Integrations.AWS.SES.Enabled {
		sinks = append(sinks, notify.NewEmailSink(mailer, composer, store))
	}
	if cfg.Notifications.SMS.Enabled && cfg.Integrations.AWS.SNS.Enabled {
		sinks = append(sinks, notify.NewSMSSink(commonaws.NewSNSClient(awsCfg), cfg.Integrations.AWS.SNS.DefaultSMSSenderID, store))
	}
	dispatcher := notify.NewDispatcher(log, sinks...)

	// --- Registry and e-signature clients ---
	companies := registrycache.New(
		pappers.NewClient(cfg.Integrations.Pappers.BaseURL, cfg.Integrations.Pappers.APIKey, config.GetDuration(cfg.Integrations.Pappers.Timeout)),
		rdb.Client,
		time.Duration(cfg.Cache.CompanyTTL)*time.Second,
		cfg.Cache.KeyPrefix,
		log,
	)
	estimator := opco.NewEstimator(opco.LevyPolicy{
		AverageAnnualSalary: cfg.Levy.AverageAnnualSalary,
		SmallCompanyRate:    cfg.Levy.SmallCompanyRate,
		StandardRate:        cfg.Levy.StandardRate,
		HeadcountThreshold:  cfg.Levy.HeadcountThreshold,
	}, nil)
	signatures := yousign.NewClient(cfg.Integrations.Yousign.BaseURL, cfg.Integrations.Yousign.APIKey, config.GetDuration(cfg.Integrations.Yousign.Timeout))

	// --- Handlers ---
	handlers, err := buildHandlers(cfg, log, handlerDeps{
		store:      store,
		companies:  companies,
		estimator:  estimator,
		indexer:    indexer,
		obs:        obs,
		mailer:     mailer,
		composer:   composer,
		dispatcher: dispatcher,
		signatures: signatures,
	})
	if err != nil {
		zapLog.Fatal("failed to create handlers", zap.Error(err))
	}

	taskTypes := make([]string, len(handlers))
	for i, h := range handlers {
		taskTypes[i] = h.taskType
	}
	for _, t := range reg.Missing(taskTypes) {
		zapLog.Warn("task type has no activity registry entry", zap.String("taskType", t))
	}

	var workers []*camunda.Worker
	for _, h := range handlers {
		w := camunda.StartWorker(zeebe.GetClient(), h.taskType, config.GetWorkerConfig(cfg, h.taskType), h.handler, zapLog)
		if w != nil {
			workers = append(workers, w)
		}
	}
	zapLog.Info("Workers registered", zap.Int("started", len(workers)), zap.Int("handlers", len(handlers)))

	// --- Dossier change feed ---
	bridge := changefeed.NewBridge(store, zeebe, log)
	go func() {
		if err := bridge.Run(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
			zapLog.Error("change feed bridge stopped", zap.Error(err))
		}
	}()

	// --- Health & Metrics Server ---
	checks := map[string]readinessCheck{
		"postgres": pg.Ping,
		"redis":    rdb.Ping,
		"zeebe":    zeebe.HealthCheck,
	}
	if esClient != nil {
		checks["elasticsearch"] = esClient.Ping
	}
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           newRouter(checks),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(10 * time.Second)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

type handlerDeps struct {
	store      database.Gateway
	companies  opco.CompanyLookup
	estimator  *opco.Estimator
	indexer    el.Indexer
	obs        *observability.Observability
	mailer     notify.Mailer
	composer   *notify.Composer
	dispatcher *notify.Dispatcher
	signatures *yousign.Client
}

func buildHandlers(cfg *config.Config, log logger.Logger, d handlerDeps) ([]namedHandler, error) {
	var out []namedHandler
	add := func(taskType string, h camunda.JobHandler, err error) error {
		if err != nil {
			return fmt.Errorf("%s: %w", taskType, err)
		}
		out = append(out, namedHandler{taskType: taskType, handler: h})
		return nil
	}

	lookup, err := lc.NewHandler(lc.HandlerOptions{AppConfig: cfg, Logger: log, Lookup: d.companies})
	if err := add(lc.TaskType, lookup, err); err != nil {
		return nil, err
	}

	estimate, err := el.NewHandler(el.HandlerOptions{AppConfig: cfg, Logger: log, Deps: el.ServiceDependencies{
		Lookup:        d.companies,
		Estimator:     d.estimator,
		Store:         d.store,
		Index:         d.indexer,
		Observability: d.obs,
	}})
	if err := add(el.TaskType, estimate, err); err != nil {
		return nil, err
	}

	draft, err := dp.NewHandler(dp.HandlerOptions{AppConfig: cfg, Logger: log})
	if err := add(dp.TaskType, draft, err); err != nil {
		return nil, err
	}

	extract, err := ep.NewHandler(ep.HandlerOptions{AppConfig: cfg, Logger: log, Deps: ep.ServiceDependencies{Store: d.store}})
	if err := add(ep.TaskType, extract, err); err != nil {
		return nil, err
	}

	dispatch, err := dn.NewHandler(dn.HandlerOptions{AppConfig: cfg, Logger: log, Dispatcher: d.dispatcher})
	if err := add(dn.TaskType, dispatch, err); err != nil {
		return nil, err
	}

	email, err := es.NewHandler(es.HandlerOptions{
		AppConfig:  cfg,
		Logger:     log,
		Mailer:     d.mailer,
		Composer:   d.composer,
		Store:      d.store,
		Dispatcher: d.dispatcher,
	})
	if err := add(es.TaskType, email, err); err != nil {
		return nil, err
	}

	create, err := csr.NewHandler(csr.HandlerOptions{AppConfig: cfg, Logger: log, Deps: csr.ServiceDependencies{
		Client:        d.signatures,
		Observability: d.obs,
	}})
	if err := add(csr.TaskType, create, err); err != nil {
		return nil, err
	}

	track, err := tsr.NewHandler(tsr.HandlerOptions{AppConfig: cfg, Logger: log, Deps: tsr.ServiceDependencies{Client: d.signatures}})
	if err := add(tsr.TaskType, track, err); err != nil {
		return nil, err
	}

	return out, nil
}
