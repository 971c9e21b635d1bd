package repository

import (
	"context"
	"errors"
	"time"

	"serchadmin/internal/model"

	"github.com/google/uuid"
)

var (
	ErrRequestNotFound = errors.New("permission request not found")
	ErrScopeNotFound   = errors.New("permission scope not found")
	ErrAdminNotFound   = errors.New("admin not found")
	ErrAccountNotFound = errors.New("account not found")
)

type CreateAuditLogEventParams struct {
	ActorID   uuid.UUID
	EventType string
	EventData []byte
}

type CreateNotificationParams struct {
	OwnerID uuid.UUID
	Title   string
	Message string
	Type    string
}

type Notification struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Title     string
	Message   string
	Type      string
	IsRead    bool
	CreatedAt time.Time
}

// Repository defines the persistence contract for the permission service.
type Repository interface {
	// Permission request operations
	CreatePermissionRequest(ctx context.Context, record model.PermissionRequestRecord) error
	GetPermissionRequestByID(ctx context.Context, id uuid.UUID) (model.PermissionRequestRecord, error)
	UpdatePermissionRequest(ctx context.Context, record model.PermissionRequestRecord) error
	ListPermissionRequests(ctx context.Context) ([]model.PermissionRequestRecord, error)
	HasActiveGrant(ctx context.Context, scope string, perm model.Permission, account string, now time.Time) (bool, error)

	// Scope catalog operations
	ListScopes(ctx context.Context) ([]model.PermissionScope, error)
	GetScopeByKey(ctx context.Context, key string) (model.PermissionScope, error)

	// Admin and account operations
	GetAdminByID(ctx context.Context, id uuid.UUID) (model.Admin, error)
	GetAccountByID(ctx context.Context, id string) (model.AccountProfile, error)

	// Audit and notification operations
	CreateAuditLogEvent(ctx context.Context, params CreateAuditLogEventParams) error
	CreateNotification(ctx context.Context, params CreateNotificationParams) error
	ListUnreadNotifications(ctx context.Context, ownerID uuid.UUID, limit int) ([]Notification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) error
}
