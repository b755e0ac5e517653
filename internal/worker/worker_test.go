package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciecnow/backend/pkg/queue"
)

// fakeQueue hands out jobs from a slice and records retries; Dequeue blocks once empty.
type fakeQueue struct {
	mu      sync.Mutex
	jobs    []*queue.Job
	retried []*queue.Job
}

func (q *fakeQueue) Dequeue(ctx context.Context) (*queue.Job, string, error) {
	q.mu.Lock()
	if len(q.jobs) > 0 {
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		q.mu.Unlock()
		return job, queue.QueueNotifications, nil
	}
	q.mu.Unlock()
	<-ctx.Done()
	return nil, "", ctx.Err()
}

func (q *fakeQueue) Retry(ctx context.Context, job *queue.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	job.Attempt++
	q.retried = append(q.retried, job)
	return nil
}

func (q *fakeQueue) retries() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.retried)
}

type recordingSender struct {
	mu    sync.Mutex
	kinds []string
	data  []json.RawMessage
	err   error
}

func (s *recordingSender) Send(ctx context.Context, kind string, data any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.kinds = append(s.kinds, kind)
	s.data = append(s.data, data.(json.RawMessage))
	return nil
}

func (s *recordingSender) sent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.kinds)
}

func inviteJob(t *testing.T) *queue.Job {
	t.Helper()
	job, err := queue.NewJob(queue.JobTypeUserInvite, queue.NotificationPayload{
		UserID: uuid.New(), Email: "ana@ciec.org", Token: "tok",
	})
	require.NoError(t, err)
	return job
}

func TestProcessForwardsPayloadUnchanged(t *testing.T) {
	sender := &recordingSender{}
	p := NewNotificationForwarder(&fakeQueue{}, sender, nil)
	job := inviteJob(t)

	require.NoError(t, p.Process(context.Background(), job))
	assert.Equal(t, []string{"user_invite"}, sender.kinds)
	assert.JSONEq(t, string(job.Payload), string(sender.data[0]))
}

func TestProcessRejectsUnknownType(t *testing.T) {
	p := NewNotificationForwarder(&fakeQueue{}, &recordingSender{}, nil)
	err := p.Process(context.Background(), &queue.Job{ID: "x", Type: "recording_upload"})
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestRunRetriesFailedJobs(t *testing.T) {
	q := &fakeQueue{jobs: []*queue.Job{inviteJob(t)}}
	sender := &recordingSender{err: errors.New("webhook returned 500")}
	p := NewNotificationForwarder(q, sender, nil)
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { p.Run(ctx); close(done) }()

	require.Eventually(t, func() bool { return q.retries() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, 1, q.retried[0].Attempt)
}

func TestRunDropsUnknownAndForwardsTheRest(t *testing.T) {
	reset, err := queue.NewJob(queue.JobTypePasswordReset, queue.NotificationPayload{Email: "luis@ciec.org", Token: "t"})
	require.NoError(t, err)
	q := &fakeQueue{jobs: []*queue.Job{{ID: "old", Type: "recording_upload"}, reset}}
	sender := &recordingSender{}
	p := NewNotificationForwarder(q, sender, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { p.Run(ctx); close(done) }()

	require.Eventually(t, func() bool { return sender.sent() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Equal(t, []string{"password_reset"}, sender.kinds)
	assert.Zero(t, q.retries())
}
