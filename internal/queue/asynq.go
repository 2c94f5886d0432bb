package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dimitrije/taskhub-api/internal/config"
	"github.com/dimitrije/taskhub-api/pkg/logger"
	"github.com/hibiken/asynq"
)

// AsynqQueue enqueues jobs into Redis and processes them with an in-process asynq server.
type AsynqQueue struct {
	client  *asynq.Client
	server  *asynq.Server
	handler Handler
}

func NewAsynqQueue(cfg config.RedisConfig, concurrency int, handler Handler) (*AsynqQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}

	if concurrency < 1 {
		concurrency = 1
	}

	q := &AsynqQueue{
		client:  asynq.NewClient(redisOpt),
		handler: handler,
	}

	q.server = asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{"notifications": 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Error().Err(err).Str("task", task.Type()).Msg("fan-out task failed")
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeFanOut, q.handleTask)

	if err := q.server.Start(mux); err != nil {
		_ = q.client.Close()
		return nil, fmt.Errorf("failed to start asynq server: %w", err)
	}

	return q, nil
}

func (q *AsynqQueue) handleTask(ctx context.Context, task *asynq.Task) error {
	var job FanOutJob
	if err := json.Unmarshal(task.Payload(), &job); err != nil {
		return fmt.Errorf("invalid fan-out payload: %v: %w", err, asynq.SkipRetry)
	}
	return q.handler(ctx, job)
}

func (q *AsynqQueue) Enqueue(ctx context.Context, job FanOutJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}

	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(TypeFanOut, payload),
		asynq.Queue("notifications"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Debug().Str("task_id", info.ID).Str("project_id", job.ProjectID.String()).Msg("fan-out task enqueued")
	return nil
}

func (q *AsynqQueue) IsAsync() bool {
	return true
}

func (q *AsynqQueue) Close() error {
	q.server.Shutdown()
	return q.client.Close()
}
