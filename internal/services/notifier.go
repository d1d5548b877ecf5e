package services

import (
	"context"
	"fmt"

	"github.com/storykeeper/backend/internal/models"
	"github.com/storykeeper/backend/internal/tasks"
)

// UserGetter loads a user by id.
//
// If the user does not exist, nil is returned together with nil error.
type UserGetter interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// DecisionEnqueuer schedules moderation decision emails
type DecisionEnqueuer interface {
	EnqueueModerationDecision(ctx context.Context, payload tasks.ModerationDecisionPayload) error
}

type decisionNotifier struct {
	users    UserGetter
	enqueuer DecisionEnqueuer
}

// NewDecisionNotifier creates a notifier that emails owners through the task queue
func NewDecisionNotifier(users UserGetter, enqueuer DecisionEnqueuer) *decisionNotifier {
	return &decisionNotifier{users: users, enqueuer: enqueuer}
}

// NotifyDecision enqueues the decision email for the story owner
func (n *decisionNotifier) NotifyDecision(ctx context.Context, story *models.StoryDetail, decision, reason string) error {
	user, err := n.users.GetByID(ctx, story.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("owner %d of story %d: %w", story.UserID, story.ID, ErrUserNotFound)
	}

	return n.enqueuer.EnqueueModerationDecision(ctx, tasks.ModerationDecisionPayload{
		Email:      user.Email,
		Username:   user.Username,
		StoryID:    story.ID,
		StoryTitle: story.Title,
		Decision:   decision,
		Reason:     reason,
	})
}
