package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"serchadmin/internal/repository"

	"github.com/google/uuid"
)

type Manager struct {
	logger *slog.Logger
	repo   repository.Repository
}

func NewManager(logger *slog.Logger, repo repository.Repository) Manager {
	return Manager{logger: logger, repo: repo}
}

type Notification struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Title     string
	Message   string
	Type      NotificationType
	IsRead    bool
	CreatedAt time.Time
}

type NotificationType string

const (
	NotificationTypeInfo    NotificationType = "info"
	NotificationTypeWarning NotificationType = "warning"
	NotificationTypeError   NotificationType = "error"
)

type NotifyParam struct {
	OwnerID uuid.UUID
	Title   string
	Message string
	Type    NotificationType
}

func (n *Manager) Notify(ctx context.Context, params NotifyParam) error {
	if err := n.repo.CreateNotification(ctx, repository.CreateNotificationParams{
		OwnerID: params.OwnerID,
		Title:   params.Title,
		Message: params.Message,
		Type:    string(params.Type),
	}); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (n *Manager) Unread(ctx context.Context, adminID uuid.UUID) ([]Notification, error) {
	notifications, err := n.repo.ListUnreadNotifications(ctx, adminID, 10)
	if err != nil {
		return nil, err
	}

	result := make([]Notification, len(notifications))
	for i, notif := range notifications {
		result[i] = Notification{
			ID:        notif.ID,
			OwnerID:   notif.OwnerID,
			Title:     notif.Title,
			Message:   notif.Message,
			Type:      NotificationType(notif.Type),
			IsRead:    notif.IsRead,
			CreatedAt: notif.CreatedAt,
		}
	}

	return result, nil
}

// MarkRead is fire-and-forget from the portal's perspective; failures are
// logged, never surfaced.
func (n *Manager) MarkRead(ctx context.Context, id uuid.UUID) {
	if err := n.repo.MarkNotificationRead(ctx, id); err != nil {
		n.logger.Error("failed to mark notification read", "notification_id", id, "error", err)
	}
}
