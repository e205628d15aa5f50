package grafana

import (
	"context"
	"sync"
	"time"

	"marketpulse/internal/domain/models"
	"marketpulse/internal/domain/repository"
	"marketpulse/pkg/logger"
)

// LoginFunc performs one full authentication round trip.
type LoginFunc func(ctx context.Context) (models.Credential, error)

// SessionCache hands out a valid credential, reusing the persisted one
// while it lives and logging in again only after expiry. Concurrent
// callers share a single login.
type SessionCache struct {
	store repository.CredentialStore
	login LoginFunc
	log   *logger.Logger
	now   func() time.Time

	mu sync.Mutex
}

func NewSessionCache(store repository.CredentialStore, login LoginFunc, log *logger.Logger) *SessionCache {
	return &SessionCache{
		store: store,
		login: login,
		log:   log,
		now:   time.Now,
	}
}

// Credential returns a credential valid at the time of the call.
func (c *SessionCache) Credential(ctx context.Context) (models.Credential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cred, ok, err := c.store.Load(ctx)
	if err != nil {
		c.log.Warn("session store read failed, re-authenticating", logger.Error(err))
	} else if ok && cred.Valid(c.now()) {
		return cred, nil
	}

	cred, err = c.login(ctx)
	if err != nil {
		return models.Credential{}, err
	}

	if err := c.store.Save(ctx, cred); err != nil {
		// The fresh credential still works for this run.
		c.log.Warn("session store write failed", logger.Error(err))
	}
	return cred, nil
}
