// Package scheduler runs periodic maintenance jobs on a cron spec.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	c       *cron.Cron
	log     *slog.Logger
	timeout time.Duration
}

// New builds a scheduler; overlapping runs of the same job are skipped.
func New(log *slog.Logger, timeout time.Duration) *Scheduler {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))
	return &Scheduler{c: c, log: log, timeout: timeout}
}

// Add registers job under name. Errors are logged; the schedule continues.
func (s *Scheduler) Add(spec, name string, job func(ctx context.Context) error) error {
	_, err := s.c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		start := time.Now()
		if err := job(ctx); err != nil {
			s.log.Error("scheduled job failed", "job", name, "err", err)
			return
		}
		s.log.Debug("scheduled job done", "job", name, "took", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	return nil
}

func (s *Scheduler) Start() { s.c.Start() }

// Stop prevents new runs and waits for running ones, up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.c.Stop().Done():
	case <-ctx.Done():
	}
}
