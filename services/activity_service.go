package services

import (
	"context"
	"log/slog"

	"github.com/Dosada05/faculty-league/metrics"
	"github.com/Dosada05/faculty-league/models"
	"github.com/Dosada05/faculty-league/repositories"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

type ActivityService interface {
	// Record never fails the caller: write errors are logged and dropped.
	Record(ctx context.Context, actor models.Identity, action, entityType string, entityID int, details map[string]any)
	ListRecent(ctx context.Context, actor models.Identity, limit int) ([]*models.ActivityLog, error)
}

type activityService struct {
	activityRepo repositories.ActivityRepository
	metrics      *metrics.Manager
	logger       *slog.Logger
}

func NewActivityService(activityRepo repositories.ActivityRepository, m *metrics.Manager, logger *slog.Logger) ActivityService {
	return &activityService{activityRepo: activityRepo, metrics: m, logger: logger}
}

func (s *activityService) Record(ctx context.Context, actor models.Identity, action, entityType string, entityID int, details map[string]any) {
	entry := &models.ActivityLog{
		UserID:     actor.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
	// the request context may already be cancelled once the response is written
	if err := s.activityRepo.Create(context.WithoutCancel(ctx), entry); err != nil {
		s.metrics.ActivityDropped()
		s.logger.WarnContext(ctx, "Failed to record activity",
			slog.String("action", action),
			slog.String("entity_type", entityType),
			slog.Int("entity_id", entityID),
			slog.Any("error", err),
		)
	}
}

func (s *activityService) ListRecent(ctx context.Context, actor models.Identity, limit int) ([]*models.ActivityLog, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}
	return s.activityRepo.ListRecent(ctx, limit)
}
