package probe

import (
	"context"

	"marketpulse/internal/domain/models"
	"marketpulse/pkg/logger"
)

// CacheBackend is the slice of a dashboard session the resolver needs.
type CacheBackend interface {
	CacheState(ctx context.Context, mp models.Marketplace) (string, error)
	CacheDetail(ctx context.Context, mp models.Marketplace) (map[string]models.CacheDetail, error)
}

// CacheStatusResolver fetches the stock-cache status and, when the status
// is anything but the success sentinel, the per-region breakdown.
type CacheStatusResolver struct {
	log *logger.Logger
}

func NewCacheStatusResolver(log *logger.Logger) *CacheStatusResolver {
	return &CacheStatusResolver{log: log}
}

// Resolve never fails: a broken status fetch degrades to the unavailable
// sentinel and a broken detail fetch degrades to a status-only answer.
func (r *CacheStatusResolver) Resolve(ctx context.Context, backend CacheBackend, mp models.Marketplace) models.CacheStatus {
	state, err := backend.CacheState(ctx, mp)
	if err != nil {
		r.log.Warn("cache status fetch failed",
			logger.String("marketplace", mp.Name),
			logger.Error(err),
		)
		return models.CacheStatus{Status: models.CacheStatusUnavailable}
	}

	if state == models.CacheStatusOK {
		return models.CacheStatus{Status: state}
	}

	detail, err := backend.CacheDetail(ctx, mp)
	if err != nil {
		r.log.Warn("cache detail fetch failed, returning status only",
			logger.String("marketplace", mp.Name),
			logger.Error(err),
		)
		return models.CacheStatus{Status: state}
	}
	return models.CacheStatus{Status: state, Detail: detail}
}
