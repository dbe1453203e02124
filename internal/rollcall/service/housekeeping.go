package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/clock"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/session"
	"github.com/aussiebroadwan/rollcall/internal/rollcall/store"
)

// DefaultResetRetention is how long expired reset requests are kept so a
// late verify still reports "expired" rather than "invalid".
const DefaultResetRetention = 24 * time.Hour

// HousekeepingService periodically purges expired reset state and lets the
// session manager expire a stale device session.
type HousekeepingService struct {
	Store     store.Store
	Sessions  *session.Manager
	Clock     clock.Clock
	Logger    *slog.Logger
	Interval  time.Duration
	Retention time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// CleanupReport counts what one pass removed.
type CleanupReport struct {
	ResetRequests  int64
	ResetTokens    int64
	SessionExpired bool
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to one hour.
func NewHousekeepingService(st store.Store, sessions *session.Manager, c clock.Clock, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HousekeepingService{
		Store:     st,
		Sessions:  sessions,
		Clock:     c,
		Logger:    logger,
		Interval:  interval,
		Retention: DefaultResetRetention,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", slog.Duration("interval", s.Interval))
}

// Stop blocks until any in-progress pass has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	report := s.RunOnce(ctx)
	s.Logger.Info("housekeeping cleanup completed",
		slog.Int64("reset_requests", report.ResetRequests),
		slog.Int64("reset_tokens", report.ResetTokens),
		slog.Bool("session_expired", report.SessionExpired),
	)
}

// RunOnce performs a single pass. Each step is independent, a failure in one
// is logged and does not stop the others.
func (s *HousekeepingService) RunOnce(ctx context.Context) CleanupReport {
	var report CleanupReport

	now, err := readClock(ctx, s.Clock)
	if err != nil {
		s.Logger.Error("housekeeping could not read the clock", slog.Any("error", err))
		return report
	}

	retention := s.Retention
	if retention < 0 {
		retention = 0
	}

	// Expired reset requests past the retention window
	if n, err := s.Store.ResetRequests().DeleteExpiredResetRequests(ctx, now.Add(-retention)); err != nil {
		s.Logger.Error("failed to delete expired reset requests", slog.Any("error", err))
	} else {
		report.ResetRequests = n
	}

	// Expired reset tokens past the retention window
	if n, err := s.Store.Users().ClearExpiredResetTokens(ctx, now.Add(-retention)); err != nil {
		s.Logger.Error("failed to clear expired reset tokens", slog.Any("error", err))
	} else {
		report.ResetTokens = n
	}

	// Stale device session
	if s.Sessions != nil {
		expired, err := s.Sessions.ExpireStale(ctx)
		if err != nil {
			s.Logger.Error("failed to check device session", slog.Any("error", err))
		} else {
			report.SessionExpired = expired
		}
	}

	return report
}
