package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSweeper_RunOnce(t *testing.T) {
	tokenRepo := new(mockTokenRepo)
	sweeper := NewSweeper(tokenRepo, time.Hour, 7*24*time.Hour, 500)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sweeper.now = func() time.Time { return now }

	// Rows expired before now, or revoked more than the retention window
	// ago, are the purge targets.
	tokenRepo.On("PurgeStale", mock.Anything, now, now.Add(-7*24*time.Hour), 500).
		Return(int64(2), nil).Once()

	require.NoError(t, sweeper.RunOnce(context.Background()))
	tokenRepo.AssertExpectations(t)
}

func TestSweeper_RunOnce_PropagatesRepositoryError(t *testing.T) {
	tokenRepo := new(mockTokenRepo)
	sweeper := NewSweeper(tokenRepo, time.Hour, 7*24*time.Hour, 500)

	expected := errors.New("db down")
	tokenRepo.On("PurgeStale", mock.Anything, mock.Anything, mock.Anything, 500).
		Return(int64(0), expected).Once()

	err := sweeper.RunOnce(context.Background())
	assert.ErrorIs(t, err, expected)
}

func TestSweeper_RunStopsOnCancel(t *testing.T) {
	tokenRepo := new(mockTokenRepo)
	sweeper := NewSweeper(tokenRepo, 10*time.Millisecond, 7*24*time.Hour, 500)

	tokenRepo.On("PurgeStale", mock.Anything, mock.Anything, mock.Anything, 500).
		Return(int64(0), nil).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
