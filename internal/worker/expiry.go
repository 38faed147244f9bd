// Package worker runs the time-driven subscription lifecycle jobs.
package worker

import (
	"context"
	"fmt"
	"time"

	"academy-api/internal/platform/logger"

	"github.com/robfig/cron/v3"
)

type Expirer interface {
	ExpireOverdue(ctx context.Context, grace time.Duration) (int, error)
}

// ExpiryJob expires paid subscriptions whose renewal never settled.
type ExpiryJob struct {
	subs    Expirer
	grace   time.Duration
	timeout time.Duration
	log     *logger.Logger
}

func NewExpiryJob(subs Expirer, grace time.Duration, log *logger.Logger) *ExpiryJob {
	return &ExpiryJob{subs: subs, grace: grace, timeout: 5 * time.Minute, log: log.With("component", "ExpiryJob")}
}

// Run performs one sweep and reports how many subscriptions expired.
func (j *ExpiryJob) Run(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	started := time.Now()
	n, err := j.subs.ExpireOverdue(ctx, j.grace)
	if err != nil {
		j.log.Error("expiry sweep failed", "expired", n, "error", err)
		return n, err
	}
	j.log.Info("expiry sweep finished", "expired", n, "took", time.Since(started).String())
	return n, nil
}

// Schedule registers the job on a new cron scheduler. Overlapping runs are
// skipped. The caller starts and stops the scheduler.
func Schedule(ctx context.Context, spec string, job *ExpiryJob) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(spec, func() { _, _ = job.Run(ctx) }); err != nil {
		return nil, fmt.Errorf("schedule expiry job %q: %w", spec, err)
	}
	return c, nil
}
