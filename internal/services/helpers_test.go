package services

import (
	"context"
	"sync"

	"github.com/dimitrije/taskhub-api/internal/hub"
	"github.com/dimitrije/taskhub-api/internal/queue"
	"github.com/google/uuid"
)

type published struct {
	ProjectID uuid.UUID
	Event     hub.Event
}

type membership struct {
	UserID    uuid.UUID
	ProjectID uuid.UUID
}

type fakeChannels struct {
	mu        sync.Mutex
	published []published
	joined    []membership
	left      []membership
	closed    []uuid.UUID
}

func (f *fakeChannels) PublishToProject(projectID uuid.UUID, event hub.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{ProjectID: projectID, Event: event})
}

func (f *fakeChannels) JoinProject(userID, projectID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, membership{UserID: userID, ProjectID: projectID})
}

func (f *fakeChannels) LeaveProject(userID, projectID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left = append(f.left, membership{UserID: userID, ProjectID: projectID})
}

func (f *fakeChannels) CloseProject(projectID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, projectID)
}

// recordingQueue captures enqueued fan-out jobs without running them.
type recordingQueue struct {
	mu   sync.Mutex
	jobs []queue.FanOutJob
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, job queue.FanOutJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) IsAsync() bool { return false }
func (q *recordingQueue) Close() error  { return nil }

func (q *recordingQueue) Jobs() []queue.FanOutJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]queue.FanOutJob(nil), q.jobs...)
}
