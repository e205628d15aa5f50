package repository

import (
	"context"

	"marketpulse/internal/domain/models"
)

// DashboardSession is one authenticated session against the
// metrics/dashboard backend. Sessions are owned by a single report run
// and must not be shared across runs.
type DashboardSession interface {
	// StoreCounts returns active store counts per region code.
	StoreCounts(ctx context.Context, mp models.Marketplace) (map[string]int, error)

	// CacheState returns the stock-cache status string.
	CacheState(ctx context.Context, mp models.Marketplace) (string, error)

	// CacheDetail returns the per-region cache breakdown.
	CacheDetail(ctx context.Context, mp models.Marketplace) (map[string]models.CacheDetail, error)

	// CountSignal returns the hit count for a signal within the last
	// windowMinutes. A *models.BackendError means the count is unknown.
	CountSignal(ctx context.Context, mp models.Marketplace, signal models.Signal, windowMinutes int) (int, error)

	Close() error
}

// DashboardBackend opens dashboard sessions. Open fails with
// *models.AuthError when login is rejected.
type DashboardBackend interface {
	Open(ctx context.Context) (DashboardSession, error)
}

// JobSession is one authenticated session against the async-job backend.
type JobSession interface {
	// Submit posts a job and returns its id. A backend-side rejection
	// returns an empty id and a nil error: submission fails softly.
	Submit(ctx context.Context, spec models.JobSpec) (string, error)

	// Status fetches the job state and, on success, the result handle.
	Status(ctx context.Context, jobID string) (models.JobStatus, int, error)

	// Result fetches rows for a completed job. Partial payloads are
	// returned as-is; the caller inspects row contents.
	Result(ctx context.Context, resultID int) ([]models.JobRow, error)

	Close() error
}

// JobBackend opens job sessions.
type JobBackend interface {
	Open(ctx context.Context) (JobSession, error)
}

// CredentialStore persists a session credential across process restarts.
type CredentialStore interface {
	Load(ctx context.Context) (models.Credential, bool, error)
	Save(ctx context.Context, cred models.Credential) error
}

// Registry is the marketplace record store. The core never writes to it
// during a report run.
type Registry interface {
	List(ctx context.Context) ([]models.Marketplace, error)
	Find(ctx context.Context, name string) (models.Marketplace, error)
	Append(ctx context.Context, mp models.Marketplace) error
}

// Metrics abstracts the operational counters recorded by the probes.
type Metrics interface {
	RecordProbeQuery(signal string)
	RecordProbeWindow(signal string, minutes int)
	RecordJobPolls(job string, polls int)
	RecordError(kind string)
	RecordReportDuration(seconds float64)
}
