// Package tasks defines the background email jobs exchanged between the API and the worker through asynq
package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Task types
const (
	TypePasswordReset      = "email:password_reset"
	TypeModerationDecision = "email:moderation_decision"
)

// Queue names, the worker serves them with weights 5 and 1
const (
	QueueImmediate = "immediate"
	QueueDefault   = "default"
)

// PasswordResetPayload carries everything the reset email needs
type PasswordResetPayload struct {
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	ResetLink string    `json:"reset_link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ModerationDecisionPayload notifies an owner about approval or rejection
type ModerationDecisionPayload struct {
	Email      string `json:"email"`
	Username   string `json:"username"`
	StoryID    int    `json:"story_id"`
	StoryTitle string `json:"story_title"`
	// Decision is "approved" or "rejected"
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

// Enqueuer puts email jobs into Redis
type Enqueuer struct {
	client *asynq.Client
	logger *zap.Logger
}

// NewEnqueuer creates an enqueuer using an asynq client
func NewEnqueuer(client *asynq.Client, logger *zap.Logger) *Enqueuer {
	return &Enqueuer{client: client, logger: logger}
}

// EnqueuePasswordReset schedules the reset email on the immediate queue
func (e *Enqueuer) EnqueuePasswordReset(ctx context.Context, payload PasswordResetPayload) error {
	return e.enqueue(ctx, TypePasswordReset, payload, asynq.Queue(QueueImmediate), asynq.MaxRetry(5))
}

// EnqueueModerationDecision schedules the decision email on the default queue
func (e *Enqueuer) EnqueueModerationDecision(ctx context.Context, payload ModerationDecisionPayload) error {
	return e.enqueue(ctx, TypeModerationDecision, payload, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
}

func (e *Enqueuer) enqueue(ctx context.Context, taskType string, payload any, opts ...asynq.Option) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", taskType, err)
	}

	info, err := e.client.EnqueueContext(ctx, asynq.NewTask(taskType, data), opts...)
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", taskType, err)
	}

	e.logger.Debug("task enqueued", zap.String("type", taskType), zap.String("task_id", info.ID), zap.String("queue", info.Queue))
	return nil
}
