// Package scheduler запускает фоновые задачи по расписанию cron.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ignatzorin/gig-marketplace/internal/goroutine"
	"github.com/ignatzorin/gig-marketplace/internal/logger"
)

// EscrowReleaser освобождает эскроу заказов, доставленных раньше before.
type EscrowReleaser interface {
	ReleaseDue(ctx context.Context, deliveredBefore time.Time) (int, error)
}

// NotificationPurger удаляет уведомления старше before.
type NotificationPurger interface {
	PurgeOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// Config задаёт расписания и пороги задач.
type Config struct {
	AutoReleaseSchedule string
	AutoReleaseAfter    time.Duration
	CleanupSchedule     string
	NotificationTTL     time.Duration
	JobTimeout          time.Duration
}

// Scheduler владеет экземпляром cron и зарегистрированными задачами.
type Scheduler struct {
	cron     *cron.Cron
	releaser EscrowReleaser
	purger   NotificationPurger
	cfg      Config
	now      func() time.Time
}

// New регистрирует задачи, но не запускает их.
func New(cfg Config, releaser EscrowReleaser, purger NotificationPurger) (*Scheduler, error) {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		releaser: releaser,
		purger:   purger,
		cfg:      cfg,
		now:      time.Now,
	}

	if releaser != nil {
		if _, err := s.cron.AddFunc(cfg.AutoReleaseSchedule, s.wrap("auto_release", s.runAutoRelease)); err != nil {
			return nil, fmt.Errorf("scheduler: auto release schedule %q: %w", cfg.AutoReleaseSchedule, err)
		}
	}
	if purger != nil {
		if _, err := s.cron.AddFunc(cfg.CleanupSchedule, s.wrap("notification_cleanup", s.runCleanup)); err != nil {
			return nil, fmt.Errorf("scheduler: cleanup schedule %q: %w", cfg.CleanupSchedule, err)
		}
	}
	return s, nil
}

// Start запускает cron в отдельной горутине.
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Component("scheduler").WithField("jobs", len(s.cron.Entries())).Info("scheduler started")
}

// Stop останавливает cron и ждёт завершения выполняющихся задач или отмены ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) wrap(name string, job func(ctx context.Context) error) func() {
	return func() {
		goroutine.DefaultRecoveryHandler.Recover(func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.JobTimeout)
			defer cancel()

			start := s.now()
			if err := job(ctx); err != nil {
				logger.Component("scheduler").WithError(err).WithField("job", name).Error("job failed")
				return
			}
			logger.Component("scheduler").WithField("job", name).
				WithField("duration", time.Since(start).String()).Debug("job finished")
		})
	}
}

func (s *Scheduler) runAutoRelease(ctx context.Context) error {
	released, err := s.releaser.ReleaseDue(ctx, s.now().Add(-s.cfg.AutoReleaseAfter))
	if err != nil {
		return err
	}
	if released > 0 {
		logger.Component("scheduler").WithField("released", released).Info("escrow auto-released")
	}
	return nil
}

func (s *Scheduler) runCleanup(ctx context.Context) error {
	removed, err := s.purger.PurgeOlderThan(ctx, s.now().Add(-s.cfg.NotificationTTL))
	if err != nil {
		return err
	}
	if removed > 0 {
		logger.Component("scheduler").WithField("removed", removed).Info("expired notifications removed")
	}
	return nil
}
