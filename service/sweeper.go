package service

import (
	"context"
	"go-contacts-api/logger"
	"go-contacts-api/repository"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper periodically purges stale refresh token rows: rows past their
// expiry, and revoked rows older than the retention window.
type Sweeper struct {
	tokenRepo repository.ITokenRepository
	interval  time.Duration
	retention time.Duration
	batchSize int
	now       func() time.Time
}

func NewSweeper(tokenRepo repository.ITokenRepository, interval, retention time.Duration, batchSize int) *Sweeper {
	return &Sweeper{
		tokenRepo: tokenRepo,
		interval:  interval,
		retention: retention,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Run blocks, sweeping on every tick until ctx is cancelled. A failed
// run is logged and retried on the next interval; it never crashes the
// process.
func (s *Sweeper) Run(ctx context.Context) {
	logger.Log.WithFields(logrus.Fields{
		"interval":  s.interval.String(),
		"retention": s.retention.String(),
	}).Info("Refresh token sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Refresh token sweeper stopped")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				logger.Log.WithError(err).Error("Refresh token sweep failed")
			}
		}
	}
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	now := s.now().UTC()
	purged, err := s.tokenRepo.PurgeStale(ctx, now, now.Add(-s.retention), s.batchSize)
	if err != nil {
		return err
	}
	logger.Log.WithField("purged", purged).Info("Expired refresh tokens cleaned up")
	return nil
}
