// file: service/revocation.go

package service

import (
	"context"
	"errors"
	"go-contacts-api/logger"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IRevocationLedger tracks access-token jtis that were revoked before
// their natural expiry. Entries self-expire with the token they shadow,
// so the ledger only ever holds currently-valid-but-revoked tokens.
type IRevocationLedger interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const revokedKeyPrefix = "revoked_jti:"

// RedisRevocationLedger keeps revoked jtis in a shared cache with entry
// TTL equal to the remaining token lifetime.
type RedisRevocationLedger struct {
	cache ICacheClient
	now   func() time.Time
}

func NewRedisRevocationLedger(cache ICacheClient) *RedisRevocationLedger {
	return &RedisRevocationLedger{cache: cache, now: time.Now}
}

func (l *RedisRevocationLedger) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(l.now())
	if ttl <= 0 {
		// Already expired; the signature check will reject it anyway.
		return nil
	}
	return l.cache.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err()
}

func (l *RedisRevocationLedger) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := l.cache.Get(ctx, revokedKeyPrefix+jti).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	logger.Log.WithError(err).Error("Failed to query revocation ledger")
	return false, err
}

// MemoryRevocationLedger is a process-local ledger for single-instance
// deployments and tests. Expired entries are dropped lazily on lookup
// and opportunistically on writes.
type MemoryRevocationLedger struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

func NewMemoryRevocationLedger() *MemoryRevocationLedger {
	return &MemoryRevocationLedger{
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (l *MemoryRevocationLedger) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	now := l.now()
	if !expiresAt.After(now) {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, exp := range l.entries {
		if !exp.After(now) {
			delete(l.entries, id)
		}
	}
	l.entries[jti] = expiresAt
	return nil
}

func (l *MemoryRevocationLedger) IsRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.RLock()
	exp, ok := l.entries[jti]
	l.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !exp.After(l.now()) {
		l.mu.Lock()
		delete(l.entries, jti)
		l.mu.Unlock()
		return false, nil
	}
	return true, nil
}
