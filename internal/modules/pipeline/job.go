package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ScheduledJob adapts the orchestrator to the scheduler's Job interface.
// Each cron slot gets its own instance so morning and evening runs keep
// separate RunKeys.
type ScheduledJob struct {
	orch     *Orchestrator
	schedule string
	timeout  time.Duration
	clock    Clock
}

// NewScheduledJob creates a scheduler job for one schedule slot
func NewScheduledJob(orch *Orchestrator, schedule string, timeout time.Duration) *ScheduledJob {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &ScheduledJob{
		orch:     orch,
		schedule: schedule,
		timeout:  timeout,
		clock:    orch.clock,
	}
}

// Name implements scheduler.Job
func (j *ScheduledJob) Name() string {
	return fmt.Sprintf("pipeline_%s", j.schedule)
}

// Run executes the pipeline for today's RunKey. A slot that already
// completed today is a no-op, not a failure: cron retries and manual
// triggers may race the schedule.
func (j *ScheduledJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	key := NewRunKey(j.clock.Now(), j.schedule)
	_, err := j.orch.Run(ctx, key, false)
	if errors.Is(err, ErrAlreadyCompleted) || errors.Is(err, ErrRunInProgress) {
		return nil
	}
	return err
}
