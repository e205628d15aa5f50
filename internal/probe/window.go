package probe

import (
	"context"
	"errors"

	"marketpulse/internal/domain/models"
	"marketpulse/internal/domain/repository"
	"marketpulse/pkg/logger"
)

// maxConsecutiveFailures caps how many failed window queries in a row a
// sweep tolerates before it gives up.
const maxConsecutiveFailures = 3

// CounterFunc counts events inside the last windowMinutes.
type CounterFunc func(ctx context.Context, windowMinutes int) (int, error)

// WindowProbe sweeps an expanding sequence of lookback windows until a
// counter reports activity. The windows must be positive and strictly
// increasing, smallest first, so the result is the tightest bound on how
// recently the signal was alive.
type WindowProbe struct {
	log     *logger.Logger
	metrics repository.Metrics
}

func NewWindowProbe(log *logger.Logger, metrics repository.Metrics) *WindowProbe {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &WindowProbe{log: log, metrics: metrics}
}

// Probe runs the sweep. The first window with a nonzero count wins. A
// failed query moves on to the next window; three failures in a row end
// the sweep with a backend-error result. The error return is reserved for
// a rejected configuration or a cancelled context.
func (p *WindowProbe) Probe(ctx context.Context, name string, count CounterFunc, windows []int) (models.ProbeResult, error) {
	if err := validateWindows(windows); err != nil {
		return models.ProbeResult{}, err
	}

	failures := 0
	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return models.ProbeResult{}, err
		}

		p.metrics.RecordProbeQuery(name)
		n, err := count(ctx, w)
		if err != nil {
			failures++
			p.metrics.RecordError("probe_query")
			p.log.Warn("window query failed",
				logger.String("signal", name),
				logger.Int("window_minutes", w),
				logger.Int("consecutive_failures", failures),
				logger.Error(err),
			)
			if failures >= maxConsecutiveFailures {
				return failedResult(err), nil
			}
			continue
		}

		failures = 0
		if n > 0 {
			p.metrics.RecordProbeWindow(name, w)
			return models.Found(n, w), nil
		}
	}

	return models.NoneFound(windows[len(windows)-1]), nil
}

func validateWindows(windows []int) error {
	if len(windows) == 0 {
		return models.ErrInvalidConfig
	}
	prev := 0
	for _, w := range windows {
		if w <= prev {
			return models.ErrInvalidConfig
		}
		prev = w
	}
	return nil
}

func failedResult(err error) models.ProbeResult {
	var backendErr *models.BackendError
	if errors.As(err, &backendErr) {
		return models.ProbeFailed(backendErr.Status, backendErr.Message)
	}
	return models.ProbeFailed(0, err.Error())
}

// noopMetrics is used when no recorder is wired in.
type noopMetrics struct{}

func (noopMetrics) RecordProbeQuery(string)       {}
func (noopMetrics) RecordProbeWindow(string, int) {}
func (noopMetrics) RecordJobPolls(string, int)    {}
func (noopMetrics) RecordError(string)            {}
func (noopMetrics) RecordReportDuration(float64)  {}
