package di

import (
	"fmt"

	"marketpulse/internal/domain/repository"
	"marketpulse/internal/handler/api"
	"marketpulse/internal/probe"
	"marketpulse/internal/registry"
	"marketpulse/internal/service/grafana"
	"marketpulse/internal/service/redash"
	"marketpulse/internal/service/session"
	"marketpulse/internal/usecase"
	"marketpulse/pkg/config"
	"marketpulse/pkg/logger"
	"marketpulse/pkg/metrics"
	"marketpulse/pkg/server"
)

// Toolkit bundles what the CLI commands need without the HTTP server.
type Toolkit struct {
	Logger   *logger.Logger
	Registry repository.Registry
	Builder  *usecase.ReportBuilder
}

// ProvideLogger creates the process logger from configuration.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCredentialStore picks the session store backend.
func ProvideCredentialStore(cfg *config.Config) (repository.CredentialStore, error) {
	switch cfg.SessionStore.Type {
	case "redis":
		store, err := session.NewRedisStore(
			cfg.SessionStore.Redis.Addr,
			cfg.SessionStore.Redis.Password,
			cfg.SessionStore.Redis.DB,
		)
		if err != nil {
			return nil, fmt.Errorf("redis session store: %w", err)
		}
		return store, nil
	case "memory":
		return session.NewMemoryStore(), nil
	default:
		return session.NewFileStore(cfg.Dashboard.SessionFile), nil
	}
}

// ProvideRegistry creates the marketplace registry.
func ProvideRegistry(cfg *config.Config, log *logger.Logger) repository.Registry {
	return registry.NewFileRegistry(cfg.Registry.Path, log)
}

// ProvideDashboardBackend creates the dashboard client.
func ProvideDashboardBackend(cfg *config.Config, store repository.CredentialStore, log *logger.Logger) repository.DashboardBackend {
	return grafana.NewClient(
		cfg.Dashboard.BaseURL,
		cfg.Dashboard.Login,
		cfg.Dashboard.Password,
		store,
		cfg.Dashboard.Timeout,
		log,
	)
}

// ProvideJobBackend creates the async-job client.
func ProvideJobBackend(cfg *config.Config, log *logger.Logger) repository.JobBackend {
	return redash.NewClient(cfg.Jobs.BaseURL, cfg.Jobs.APIKey, cfg.Jobs.Timeout, log)
}

// ProvideQueryIDs maps configured query identifiers.
func ProvideQueryIDs(cfg *config.Config) redash.QueryIDs {
	return redash.QueryIDs{
		History:           cfg.Jobs.Queries.HistoryID,
		ProblemRegions:    cfg.Jobs.Queries.ProblemRegionsID,
		Schedules:         cfg.Jobs.Queries.SchedulesID,
		DiscrepancySource: cfg.Jobs.Queries.DiscrepancySourceID,
	}
}

// ProvideJobPoller creates the configured job poller.
func ProvideJobPoller(cfg *config.Config, log *logger.Logger, m repository.Metrics) *probe.JobPoller {
	return probe.NewJobPoller(cfg.Jobs.PollInterval, cfg.Jobs.MaxPolls, log, m)
}

// ProvideReportBuilder assembles the report use case.
func ProvideReportBuilder(
	cfg *config.Config,
	dashboard repository.DashboardBackend,
	jobs repository.JobBackend,
	queries redash.QueryIDs,
	poller *probe.JobPoller,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.ReportBuilder {
	return usecase.NewReportBuilder(usecase.ReportBuilderParams{
		Dashboard: dashboard,
		Jobs:      jobs,
		Queries:   queries,
		Windows:   cfg.Dashboard.Windows,
		Metrics:   m,
		Logger:    log,
	}).WithPoller(poller)
}

// ProvideReportHandler creates the HTTP handler.
func ProvideReportHandler(reg repository.Registry, builder *usecase.ReportBuilder, log *logger.Logger) *api.ReportHandler {
	return api.NewReportHandler(reg, builder, log)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, handler *api.ReportHandler, log *logger.Logger) *server.App {
	return server.New(cfg, handler, log)
}

// ProvideToolkit bundles CLI dependencies.
func ProvideToolkit(log *logger.Logger, reg repository.Registry, builder *usecase.ReportBuilder) *Toolkit {
	return &Toolkit{Logger: log, Registry: reg, Builder: builder}
}
