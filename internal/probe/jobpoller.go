package probe

import (
	"context"
	"fmt"
	"time"

	"marketpulse/internal/domain/models"
	"marketpulse/internal/domain/repository"
	"marketpulse/pkg/logger"
)

// JobRunner is the slice of a job session the poller drives.
type JobRunner interface {
	Submit(ctx context.Context, spec models.JobSpec) (string, error)
	Status(ctx context.Context, jobID string) (models.JobStatus, int, error)
}

// JobPoller submits a job and polls it to a terminal state on a fixed
// interval, bounded by a poll budget.
type JobPoller struct {
	interval time.Duration
	maxPolls int
	log      *logger.Logger
	metrics  repository.Metrics
}

func NewJobPoller(interval time.Duration, maxPolls int, log *logger.Logger, metrics repository.Metrics) *JobPoller {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if maxPolls <= 0 {
		maxPolls = 60
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &JobPoller{interval: interval, maxPolls: maxPolls, log: log, metrics: metrics}
}

// Run drives one job to its outcome. A refused submission returns
// ErrJobNotStarted without any polling. A status fetch that fails mid
// flight resolves the job as cancelled rather than erroring out: the
// backend may have lost it and there is nothing left to wait for. Success
// reported without a result handle is downgraded to cancelled too. When
// the poll budget runs out the error is ErrPollTimeout.
func (p *JobPoller) Run(ctx context.Context, sess JobRunner, spec models.JobSpec) (models.JobOutcome, error) {
	jobID, err := sess.Submit(ctx, spec)
	if err != nil {
		return models.JobOutcome{}, fmt.Errorf("submit %s: %w", spec.Name, err)
	}
	if jobID == "" {
		return models.JobOutcome{}, models.ErrJobNotStarted
	}

	for i := 0; i < p.maxPolls; i++ {
		status, resultID, err := sess.Status(ctx, jobID)
		if err != nil {
			p.metrics.RecordError("job_poll")
			p.log.Warn("job status fetch failed, treating job as cancelled",
				logger.String("job", spec.Name),
				logger.String("job_id", jobID),
				logger.Error(err),
			)
			return models.JobOutcome{Status: models.JobCancelled}, nil
		}

		switch status {
		case models.JobSuccess:
			if resultID == 0 {
				p.log.Warn("job succeeded without a result handle",
					logger.String("job", spec.Name),
					logger.String("job_id", jobID),
				)
				return models.JobOutcome{Status: models.JobCancelled}, nil
			}
			p.metrics.RecordJobPolls(spec.Name, i+1)
			return models.JobOutcome{Status: models.JobSuccess, ResultID: resultID}, nil

		case models.JobFailure, models.JobCancelled:
			p.metrics.RecordJobPolls(spec.Name, i+1)
			return models.JobOutcome{Status: status}, nil
		}

		if i == p.maxPolls-1 {
			break
		}
		if err := sleep(ctx, p.interval); err != nil {
			return models.JobOutcome{}, err
		}
	}

	p.metrics.RecordError("job_poll_timeout")
	return models.JobOutcome{}, models.ErrPollTimeout
}

// RunFetch drives the job and fetches its rows. Any outcome other than
// success surfaces as an error so the caller can degrade the field.
func (p *JobPoller) RunFetch(ctx context.Context, sess repository.JobSession, spec models.JobSpec) ([]models.JobRow, error) {
	outcome, err := p.Run(ctx, sess, spec)
	if err != nil {
		return nil, err
	}
	if outcome.Status != models.JobSuccess {
		return nil, fmt.Errorf("job %s finished %s", spec.Name, outcome.Status)
	}
	return sess.Result(ctx, outcome.ResultID)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
