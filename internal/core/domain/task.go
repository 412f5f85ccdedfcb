package domain

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// GenerateID creates a unique random ID.
func GenerateID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// BackgroundTaskType identifies the kind of background task.
type BackgroundTaskType string

const (
	// TaskIngestDocument runs the full ingest pipeline for one document
	TaskIngestDocument BackgroundTaskType = "ingest_document"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task represents a background job to be processed by workers.
type Task struct {
	ID   string             `json:"id"`
	Type BackgroundTaskType `json:"type"`

	// Payload contains task-specific data.
	// For ingest_document: {"document_id": "...", "text": "..."}
	Payload map[string]string `json:"payload"`

	Status      TaskStatus `json:"status"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// MarkProcessing transitions the task to processing and counts the attempt.
func (t *Task) MarkProcessing() {
	now := time.Now()
	t.Status = TaskStatusProcessing
	t.Attempts++
	t.StartedAt = &now
}

// MarkCompleted transitions the task to completed.
func (t *Task) MarkCompleted() {
	now := time.Now()
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
}

// MarkFailed transitions the task to failed with a terminal error.
func (t *Task) MarkFailed(reason string) {
	now := time.Now()
	t.Status = TaskStatusFailed
	t.Error = reason
	t.CompletedAt = &now
}

// CanRetry reports whether the task has attempts remaining.
func (t *Task) CanRetry() bool {
	return t.Attempts < t.MaxAttempts
}

// Retry returns the task to pending for another attempt.
func (t *Task) Retry(reason string) {
	t.Status = TaskStatusPending
	t.Error = reason
	t.StartedAt = nil
}

// NewIngestTask builds a pending ingest task for one document.
func NewIngestTask(documentID, text string) *Task {
	return &Task{
		ID:   GenerateID(),
		Type: TaskIngestDocument,
		Payload: map[string]string{
			"document_id": documentID,
			"text":        text,
		},
		Status:      TaskStatusPending,
		MaxAttempts: 3,
		CreatedAt:   time.Now(),
	}
}
