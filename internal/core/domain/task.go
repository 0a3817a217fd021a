package domain

import (
	"encoding/json"
	"time"
)

// TaskStatus follows the broker's result-backend vocabulary.
type TaskStatus string

const (
	TaskPending TaskStatus = "PENDING"
	TaskStarted TaskStatus = "STARTED"
	TaskSuccess TaskStatus = "SUCCESS"
	TaskFailure TaskStatus = "FAILURE"
)

const (
	JobSendPasswordResetEmail   = "send_password_reset_email"
	QueueSendPasswordResetEmail = "queue_send_password_reset_email"
)

// Job is a unit of asynchronous work submitted to the broker.
type Job struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Queue      string          `json:"queue"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// PasswordResetPayload is the payload of JobSendPasswordResetEmail.
type PasswordResetPayload struct {
	UserID      string `json:"user_id"`
	NewPassword string `json:"new_password"`
}

// TaskResult is the recorded outcome of a job.
type TaskResult struct {
	TaskID string     `json:"task_id"`
	Status TaskStatus `json:"status"`
	Result any        `json:"result"`
}
