// Package worker forwards queued notification jobs to the automation webhook.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ciecnow/backend/pkg/queue"
)

// ErrUnknownJob is returned for job types the worker does not forward. Such jobs are dropped.
var ErrUnknownJob = errors.New("unknown job type")

// JobQueue is the part of queue.Queue the worker uses.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Sender delivers one message to the automation webhook.
type Sender interface {
	Send(ctx context.Context, kind string, data any) error
}

// NotificationForwarder drains the notification queue into the webhook.
type NotificationForwarder struct {
	queue   JobQueue
	sender  Sender
	logger  *zap.Logger
	backoff time.Duration
}

// NewNotificationForwarder creates a forwarder.
func NewNotificationForwarder(q JobQueue, sender Sender, logger *zap.Logger) *NotificationForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationForwarder{queue: q, sender: sender, logger: logger, backoff: queue.RetryBackoff}
}

// Process forwards one job. The job payload is sent unchanged with the job type as message kind.
func (p *NotificationForwarder) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeUserInvite, queue.JobTypePasswordReset:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownJob, job.Type)
	}
	if err := p.sender.Send(ctx, string(job.Type), job.Payload); err != nil {
		return fmt.Errorf("forward %s: %w", job.Type, err)
	}
	p.logger.Info("notification forwarded", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *NotificationForwarder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		err = p.Process(ctx, job)
		switch {
		case err == nil:
		case errors.Is(err, ErrUnknownJob):
			p.logger.Error("job dropped", zap.String("job_id", job.ID), zap.Error(err))
		default:
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *NotificationForwarder) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
