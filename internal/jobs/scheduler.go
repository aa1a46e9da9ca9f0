package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TripExpirer deactivates trips that were never started long after arrival.
type TripExpirer interface {
	ExpireStaleTrips(ctx context.Context) (int64, error)
}

type Scheduler struct {
	cron    *cron.Cron
	trips   TripExpirer
	timeout time.Duration
	log     *zap.Logger
}

func NewScheduler(trips TripExpirer, log *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		trips:   trips,
		timeout: time.Minute,
		log:     log.With(zap.String("component", "jobs")),
	}
}

// Register adds the housekeeping jobs using a standard five-field cron spec.
func (s *Scheduler) Register(tripExpirySpec string) error {
	if _, err := s.cron.AddFunc(tripExpirySpec, s.ExpireTrips); err != nil {
		return fmt.Errorf("schedule trip expiry %q: %w", tripExpirySpec, err)
	}
	s.log.Info("Trip expiry job scheduled", zap.String("spec", tripExpirySpec))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new runs and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("Jobs still running at shutdown")
	}
}

func (s *Scheduler) ExpireTrips() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	count, err := s.trips.ExpireStaleTrips(ctx)
	if err != nil {
		s.log.Error("Trip expiry job failed", zap.Error(err))
		return
	}

	s.log.Debug("Trip expiry job finished",
		zap.Int64("deactivated", count),
		zap.Duration("duration", time.Since(start)),
	)
}
