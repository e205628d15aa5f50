package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"marketpulse/internal/domain/models"
	"marketpulse/internal/domain/repository"
	"marketpulse/internal/probe"
	"marketpulse/internal/service/redash"
	"marketpulse/pkg/logger"
)

// ReportBuilder assembles the consolidated marketplace report. Every
// section runs concurrently and degrades on its own; only a failed login
// takes the whole run down.
type ReportBuilder struct {
	dashboard repository.DashboardBackend
	jobs      repository.JobBackend

	windowProbe   *probe.WindowProbe
	cacheResolver *probe.CacheStatusResolver
	poller        *probe.JobPoller

	queries redash.QueryIDs
	windows []int
	timeout time.Duration

	metrics repository.Metrics
	log     *logger.Logger
	now     func() time.Time
}

type ReportBuilderParams struct {
	Dashboard repository.DashboardBackend
	Jobs      repository.JobBackend
	Queries   redash.QueryIDs
	Windows   []int
	Timeout   time.Duration
	Metrics   repository.Metrics
	Logger    *logger.Logger
}

func NewReportBuilder(p ReportBuilderParams) *ReportBuilder {
	if p.Timeout <= 0 {
		p.Timeout = 10 * time.Minute
	}
	return &ReportBuilder{
		dashboard:     p.Dashboard,
		jobs:          p.Jobs,
		windowProbe:   probe.NewWindowProbe(p.Logger, p.Metrics),
		cacheResolver: probe.NewCacheStatusResolver(p.Logger),
		poller:        probe.NewJobPoller(0, 0, p.Logger, p.Metrics),
		queries:       p.Queries,
		windows:       p.Windows,
		timeout:       p.Timeout,
		metrics:       p.Metrics,
		log:           p.Logger,
		now:           time.Now,
	}
}

// WithPoller replaces the default job poller. Used to tighten poll
// intervals from configuration.
func (b *ReportBuilder) WithPoller(p *probe.JobPoller) *ReportBuilder {
	b.poller = p
	return b
}

// BuildReport runs every section against both backends. The returned
// error is non-nil only when a backend session could not be opened;
// anything that breaks later lands in the report's Degraded map.
func (b *ReportBuilder) BuildReport(ctx context.Context, mp models.Marketplace) (*models.Report, error) {
	started := b.now()
	defer func() {
		if b.metrics != nil {
			b.metrics.RecordReportDuration(time.Since(started).Seconds())
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	dash, err := b.dashboard.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open dashboard session: %w", err)
	}
	defer dash.Close()

	jobs, err := b.jobs.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open jobs session: %w", err)
	}
	defer jobs.Close()

	report := &models.Report{
		Marketplace: mp.Name,
		Env:         mp.Env,
		GeneratedAt: started,
		Degraded:    map[string]string{},
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 9)
	var wg sync.WaitGroup

	run := func(name string, fn func() (interface{}, error)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := fn()
			ch <- item{name, v, err}
		}()
	}

	run("stores", func() (interface{}, error) {
		return dash.StoreCounts(ctx, mp)
	})
	run("cache", func() (interface{}, error) {
		return b.cacheResolver.Resolve(ctx, dash, mp), nil
	})
	for _, signal := range []models.Signal{models.SignalOrders, models.SignalStocks, models.SignalPrices} {
		signal := signal
		run(string(signal), func() (interface{}, error) {
			res, err := b.windowProbe.Probe(ctx, string(signal), func(ctx context.Context, w int) (int, error) {
				return dash.CountSignal(ctx, mp, signal, w)
			}, b.windows)
			if err != nil {
				return nil, err
			}
			return activityFromProbe(res)
		})
	}
	run("history", func() (interface{}, error) {
		rows, err := b.poller.RunFetch(ctx, jobs, b.queries.HistoryJob(mp, b.now()))
		if err != nil {
			return nil, err
		}
		return historyFromRows(rows, b.now()), nil
	})
	run("problem_regions", func() (interface{}, error) {
		rows, err := b.poller.RunFetch(ctx, jobs, b.queries.ProblemRegionsJob(mp))
		if err != nil {
			return nil, err
		}
		return problemRegionsFromRows(rows), nil
	})
	run("schedules", func() (interface{}, error) {
		return b.collectSchedules(ctx, jobs, mp)
	})
	run("discrepancy", func() (interface{}, error) {
		rows, err := b.poller.RunFetch(ctx, jobs, b.queries.DiscrepancyJob(mp))
		if err != nil {
			return nil, err
		}
		return discrepancyFromRows(rows), nil
	})

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			b.log.Warn("report section degraded",
				logger.String("section", it.name),
				logger.String("marketplace", mp.Name),
				logger.Error(it.err),
			)
			report.Degraded[it.name] = it.err.Error()
			continue
		}
		switch it.name {
		case "stores":
			report.Stores = it.val.(map[string]int)
		case "cache":
			report.Cache = it.val.(models.CacheStatus)
		case "orders":
			report.Orders = it.val.(models.Activity)
		case "stocks":
			report.Stocks = it.val.(models.Activity)
		case "prices":
			report.Prices = it.val.(models.Activity)
		case "history":
			report.History = it.val.([]models.HistoryPoint)
		case "problem_regions":
			report.ProblemRegions = it.val.([]models.RegionDynamics)
		case "schedules":
			report.Schedules = it.val.(map[string]int)
		case "discrepancy":
			report.Discrepancy = it.val.(map[string]models.StoreDiscrepancy)
		}
	}

	if len(report.Degraded) == 0 {
		report.Degraded = nil
	}
	return report, nil
}

// collectSchedules runs one schedule job per region and merges the
// per-region counts. A region whose job fails is skipped; the section
// fails only when every region does.
func (b *ReportBuilder) collectSchedules(ctx context.Context, jobs repository.JobSession, mp models.Marketplace) (map[string]int, error) {
	schedules := make(map[string]int)
	failed := 0
	for _, region := range mp.Regions {
		rows, err := b.poller.RunFetch(ctx, jobs, b.queries.ScheduleJob(mp, region))
		if err != nil {
			failed++
			b.log.Warn("schedule job failed for region",
				logger.String("region", region.Code),
				logger.String("marketplace", mp.Name),
				logger.Error(err),
			)
			continue
		}
		schedulesFromRows(rows, schedules)
	}
	if len(mp.Regions) > 0 && failed == len(mp.Regions) {
		return nil, fmt.Errorf("all %d schedule jobs failed", failed)
	}
	return schedules, nil
}

// activityFromProbe converts a sweep result into a report field. A
// backend-error sweep degrades the field.
func activityFromProbe(res models.ProbeResult) (models.Activity, error) {
	switch res.Outcome {
	case models.ProbeFound:
		return models.Activity{Count: res.Count, WindowMinutes: res.WindowMinutes}, nil
	case models.ProbeNotFound:
		return models.Activity{WindowMinutes: res.WindowMinutes, Note: "no recent activity"}, nil
	default:
		return models.Activity{}, fmt.Errorf("backend error (status %d): %s", res.Status, res.Message)
	}
}
