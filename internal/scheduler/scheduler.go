// Package scheduler runs the periodic due-maintenance digest.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Digester sends the due-maintenance digest and reports how many users
// were notified.
type Digester interface {
	DueDigest(ctx context.Context) (int, error)
}

// Scheduler handles the periodic background jobs.
type Scheduler struct {
	cron     *cron.Cron
	digester Digester
	timeout  time.Duration
	log      *logrus.Entry
}

// New registers the digest job on schedule, a standard five-field cron
// expression evaluated in UTC.
func New(schedule string, digester Digester, timeout time.Duration, log *logrus.Entry) (*Scheduler, error) {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		digester: digester,
		timeout:  timeout,
		log:      log,
	}
	if _, err := s.cron.AddFunc(schedule, s.runDigest); err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Digest scheduler started")
}

// Stop waits for a running job to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("Digest scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("Digest scheduler stop timed out")
	}
}

func (s *Scheduler) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	sent, err := s.digester.DueDigest(ctx)
	if err != nil {
		s.log.WithError(err).Error("Due digest failed")
		return
	}
	s.log.WithFields(logrus.Fields{
		"users_notified": sent,
		"duration":       time.Since(start).String(),
	}).Info("Due digest completed")
}
