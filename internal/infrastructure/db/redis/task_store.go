package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/accounts-api/internal/core/domain"
	"github.com/99minutos/accounts-api/internal/core/ports"
)

const (
	taskKeyPrefix = "task-result:"
	resultTTL     = 24 * time.Hour
)

type kvClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// TaskStore keeps job outcomes as JSON strings that expire after a day.
type TaskStore struct {
	client kvClient
	now    func() time.Time
}

var _ ports.TaskStore = (*TaskStore)(nil)

func NewTaskStore(client kvClient) *TaskStore {
	return &TaskStore{client: client, now: time.Now}
}

type taskRecord struct {
	TaskID   string            `json:"task_id"`
	Status   domain.TaskStatus `json:"status"`
	Result   any               `json:"result"`
	DateDone *time.Time        `json:"date_done,omitempty"`
}

func (s *TaskStore) SetStatus(ctx context.Context, taskID string, status domain.TaskStatus, result any) error {
	rec := taskRecord{TaskID: taskID, Status: status, Result: result}
	if status == domain.TaskSuccess || status == domain.TaskFailure {
		done := s.now().UTC()
		rec.DateDone = &done
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode task result: %w", err)
	}
	if err := s.client.Set(ctx, taskKeyPrefix+taskID, raw, resultTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get returns PENDING with a nil result for ids it has never seen.
func (s *TaskStore) Get(ctx context.Context, taskID string) (*domain.TaskResult, error) {
	raw, err := s.client.Get(ctx, taskKeyPrefix+taskID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &domain.TaskResult{TaskID: taskID, Status: domain.TaskPending}, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var rec taskRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode task result: %w", err)
	}
	return &domain.TaskResult{TaskID: taskID, Status: rec.Status, Result: rec.Result}, nil
}
