package activity

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/textify/internal/domain"
	"github.com/kursadbilgin/textify/internal/repository"
	"go.uber.org/zap"
)

var _ Tracker = (*DatabaseTracker)(nil)

// DatabaseTracker persists activities to textify_activities.
type DatabaseTracker struct {
	repo   repository.ActivityRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewDatabaseTracker(repo repository.ActivityRepository, logger *zap.Logger) *DatabaseTracker {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DatabaseTracker{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

func (t *DatabaseTracker) TrackSending(ctx context.Context, msg domain.Message, provider string) {
	now := t.now().UTC()
	activity := t.activityFor(msg, provider, now)
	activity.Status = domain.ActivityStatusSending

	if err := t.repo.Create(ctx, activity); err != nil {
		t.logger.Error("failed to track sms sending",
			zap.String("messageId", msg.ID),
			zap.String("provider", provider),
			zap.Error(err),
		)
	}
}

func (t *DatabaseTracker) TrackSent(ctx context.Context, msg domain.Message, resp domain.Response, provider string) {
	t.trackOutcome(ctx, msg, resp, provider)
}

func (t *DatabaseTracker) TrackFailed(ctx context.Context, msg domain.Message, resp domain.Response, provider string) {
	t.trackOutcome(ctx, msg, resp, provider)
}

func (t *DatabaseTracker) UpdateStatus(ctx context.Context, messageID string, status string, metadata map[string]any) {
	err := t.repo.UpdateStatus(ctx, messageID, status, metadata)
	if errors.Is(err, domain.ErrNotFound) {
		t.logger.Warn("activity not found for status update",
			zap.String("messageId", messageID),
			zap.String("status", status),
		)
		return
	}
	if err != nil {
		t.logger.Error("failed to update sms activity status",
			zap.String("messageId", messageID),
			zap.String("status", status),
			zap.Error(err),
		)
	}
}

func (t *DatabaseTracker) Activities(ctx context.Context, filter domain.ActivityFilter, limit int) ([]domain.Activity, error) {
	return t.repo.List(ctx, filter, limit)
}

func (t *DatabaseTracker) Stats(ctx context.Context, filter domain.ActivityFilter) (domain.ActivityStats, error) {
	return t.repo.Stats(ctx, filter)
}

func (t *DatabaseTracker) trackOutcome(ctx context.Context, msg domain.Message, resp domain.Response, provider string) {
	now := t.now().UTC()
	activity := t.activityFor(msg, provider, now)

	success := resp.IsSuccessful()
	activity.Success = &success
	activity.Cost = resp.Cost()
	if success {
		activity.Status = domain.ActivityStatusSent
		activity.SentAt = &now
		if activity.Metadata == nil {
			activity.Metadata = map[string]any{}
		}
		activity.Metadata["provider_message_id"] = resp.MessageID()
	} else {
		activity.Status = domain.ActivityStatusFailed
		activity.ErrorCode = resp.ErrorCode()
		activity.ErrorMessage = resp.ErrorMessage()
	}

	if err := t.repo.Upsert(ctx, activity); err != nil {
		t.logger.Error("failed to track sms outcome",
			zap.String("messageId", msg.ID),
			zap.String("provider", provider),
			zap.Bool("success", success),
			zap.Error(err),
		)
	}
}

func (t *DatabaseTracker) activityFor(msg domain.Message, provider string, now time.Time) *domain.Activity {
	return &domain.Activity{
		ID:        uuid.NewString(),
		MessageID: msg.ID,
		Provider:  provider,
		To:        msg.To,
		From:      msg.From,
		Message:   msg.Body,
		Metadata:  maps.Clone(msg.Metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
