package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dimitrije/taskhub-api/internal/config"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	jobs []FanOutJob
}

func (r *recorder) handle(_ context.Context, job FanOutJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

func TestLocalQueue_ProcessesJobs(t *testing.T) {
	rec := &recorder{}
	q := NewLocalQueue(2, 10, rec.handle)

	projectID := uuid.New()
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(context.Background(), FanOutJob{ProjectID: projectID, Action: models.TaskActionCreated}))
	}

	require.NoError(t, q.Close())
	assert.Equal(t, 5, rec.count())
	assert.Equal(t, projectID, rec.jobs[0].ProjectID)
	assert.False(t, q.IsAsync())
}

func TestLocalQueue_FullQueueRejects(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := NewLocalQueue(1, 1, func(ctx context.Context, job FanOutJob) error {
		started <- struct{}{}
		<-release
		return nil
	})

	require.NoError(t, q.Enqueue(context.Background(), FanOutJob{}))
	<-started
	require.NoError(t, q.Enqueue(context.Background(), FanOutJob{}))

	err := q.Enqueue(context.Background(), FanOutJob{})
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	require.NoError(t, q.Close())
}

func TestLocalQueue_EnqueueAfterClose(t *testing.T) {
	q := NewLocalQueue(1, 1, (&recorder{}).handle)
	require.NoError(t, q.Close())

	err := q.Enqueue(context.Background(), FanOutJob{})
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.NoError(t, q.Close())
}

func TestLocalQueue_HandlerFailureDoesNotStopWorkers(t *testing.T) {
	rec := &recorder{}
	calls := 0
	var mu sync.Mutex
	q := NewLocalQueue(1, 10, func(ctx context.Context, job FanOutJob) error {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			return errors.New("store down")
		}
		if n == 2 {
			panic("boom")
		}
		return rec.handle(ctx, job)
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(context.Background(), FanOutJob{}))
	}

	require.NoError(t, q.Close())
	assert.Equal(t, 1, rec.count())
}

func TestNew_FallsBackToLocalWithoutRedis(t *testing.T) {
	rec := &recorder{}
	d := New(config.QueueConfig{Workers: 1, QueueSize: 4}, rec.handle)
	t.Cleanup(func() { _ = d.Close() })

	_, ok := d.(*LocalQueue)
	assert.True(t, ok)

	require.NoError(t, d.Enqueue(context.Background(), FanOutJob{ProjectID: uuid.New()}))
	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
}
