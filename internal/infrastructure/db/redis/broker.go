package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nrednav/cuid2"
	"github.com/redis/go-redis/v9"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

const (
	queueKeyPrefix = "queue:"
	pollTimeout    = 2 * time.Second
)

// listClient is the slice of *redis.Client the broker uses.
type listClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Broker is a Redis list backed job queue: Submit pushes on the left, Next
// pops blocking on the right, so each queue is FIFO.
type Broker struct {
	client listClient
	tasks  ports.TaskStore
	queues []string
	newID  func() string
	now    func() time.Time
}

var _ ports.JobQueue = (*Broker)(nil)

// NewBroker returns a broker that consumes the given queue names.
func NewBroker(client listClient, tasks ports.TaskStore, queues ...string) *Broker {
	return &Broker{
		client: client,
		tasks:  tasks,
		queues: queues,
		newID:  cuid2.Generate,
		now:    time.Now,
	}
}

func queueKey(queue string) string {
	return queueKeyPrefix + queue
}

// Submit records the task as PENDING and pushes it. It never waits for execution.
func (b *Broker) Submit(ctx context.Context, name, queue string, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	job := domain.Job{
		ID:         b.newID(),
		Name:       name,
		Queue:      queue,
		Payload:    raw,
		EnqueuedAt: b.now().UTC(),
	}
	msg, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("encode job: %w", err)
	}

	if err := b.tasks.SetStatus(ctx, job.ID, domain.TaskPending, nil); err != nil {
		return "", err
	}
	if err := b.client.LPush(ctx, queueKey(queue), msg).Err(); err != nil {
		return "", fmt.Errorf("redis lpush: %w", err)
	}
	return job.ID, nil
}

// Next blocks until a job is available on any consumed queue, the poll
// interval passes (nil job, nil error) or ctx is done.
func (b *Broker) Next(ctx context.Context) (*domain.Job, error) {
	keys := make([]string, len(b.queues))
	for i, q := range b.queues {
		keys[i] = queueKey(q)
	}

	res, err := b.client.BRPop(ctx, pollTimeout, keys...).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("redis brpop: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("redis brpop: unexpected reply of %d elements", len(res))
	}

	var job domain.Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}
