package worker

import (
	"context"
	"time"

	applog "fintrack/internal/log"
)

// SessionStore removes sessions whose expiry has passed.
type SessionStore interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// SessionSweeper periodically deletes expired sessions.
type SessionSweeper struct {
	store    SessionStore
	interval time.Duration
	now      func() time.Time
	logger   *applog.Logger
}

func NewSessionSweeper(store SessionStore, interval time.Duration, logger *applog.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = applog.Default(applog.ComponentWorker)
	}
	return &SessionSweeper{
		store:    store,
		interval: interval,
		now:      time.Now,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// Sweep deletes expired sessions once and returns how many were removed.
func (s *SessionSweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "Session sweep failed",
			applog.FieldOperation, applog.OpSweep,
			applog.FieldError, err.Error(),
			applog.FieldErrorType, applog.ErrorTypeDatabase)
		return 0, err
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "Expired sessions removed",
			applog.FieldOperation, applog.OpSweep,
			"count", n)
	}
	return n, nil
}

// Run sweeps immediately and then on every tick until ctx is cancelled.
func (s *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	_, _ = s.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Sweep(ctx)
		}
	}
}
