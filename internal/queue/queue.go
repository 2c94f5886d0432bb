package queue

import (
	"context"
	"errors"

	"github.com/dimitrije/taskhub-api/internal/config"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/dimitrije/taskhub-api/pkg/logger"
	"github.com/google/uuid"
)

const TypeFanOut = "notification:fanout"

var (
	ErrQueueFull   = errors.New("fan-out queue is full")
	ErrQueueClosed = errors.New("fan-out queue is closed")
)

// FanOutJob asks for a notification to be delivered to every member of a project.
type FanOutJob struct {
	ProjectID uuid.UUID         `json:"project_id"`
	TaskID    *uuid.UUID        `json:"task_id,omitempty"`
	Action    models.TaskAction `json:"action"`
	ActorID   uuid.UUID         `json:"actor_id"`
}

type Handler func(ctx context.Context, job FanOutJob) error

// Dispatcher accepts fan-out jobs and runs them off the request path.
type Dispatcher interface {
	Enqueue(ctx context.Context, job FanOutJob) error
	IsAsync() bool
	Close() error
}

// New returns a Redis-backed dispatcher when Redis is enabled and reachable,
// and a local worker pool otherwise.
func New(cfg config.QueueConfig, handler Handler) Dispatcher {
	if cfg.Redis.Enabled {
		q, err := NewAsynqQueue(cfg.Redis, cfg.Workers, handler)
		if err != nil {
			logger.Warnf("[Queue] Redis unavailable, falling back to local workers: %v", err)
		} else {
			logger.Infof("[Queue] asynq fan-out queue started with Redis at %s", cfg.Redis.Addr)
			return q
		}
	}

	logger.Infof("[Queue] local fan-out queue started with %d workers", cfg.Workers)
	return NewLocalQueue(cfg.Workers, cfg.QueueSize, handler)
}
