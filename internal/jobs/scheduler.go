// Package jobs runs the in-process background schedule: the periodic
// respect decay batch.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/coffeeaccount/respect-service/internal/domain"
)

// Scheduler owns the cron loop. Schedules are evaluated in UTC so the decay
// window lines up with the ledger's UTC day buckets.
type Scheduler struct {
	cron    *cron.Cron
	respect domain.RespectService
	percent float64
}

// NewScheduler creates a scheduler that runs ApplyMonthlyDecay(percent) on
// the given cron expression.
func NewScheduler(respect domain.RespectService, schedule string, percent float64) (*Scheduler, error) {
	c := cron.New(cron.WithLocation(time.UTC))

	s := &Scheduler{
		cron:    c,
		respect: respect,
		percent: percent,
	}

	if _, err := c.AddFunc(schedule, s.runDecay); err != nil {
		return nil, err
	}
	return s, nil
}

// Start launches the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	slog.Info("Decay scheduler started", "percent", s.percent)
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("Decay scheduler stopped")
}

func (s *Scheduler) runDecay() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	slog.Info("Scheduled decay run starting", "percent", s.percent)
	affected, err := s.respect.ApplyMonthlyDecay(ctx, s.percent)
	if err != nil {
		slog.Error("Scheduled decay run failed", "error", err, "affected_users", affected)
		return
	}
	slog.Info("Scheduled decay run finished", "affected_users", affected)
}
