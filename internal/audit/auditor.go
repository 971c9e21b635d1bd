package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"serchadmin/internal/repository"

	"github.com/google/uuid"
)

type AuditLogEventType string

const (
	AuditLogEventTypePermissionRequestCreate AuditLogEventType = "permission_request.create"
	AuditLogEventTypePermissionGrant         AuditLogEventType = "permission_request.grant"
	AuditLogEventTypePermissionRevoke        AuditLogEventType = "permission_request.revoke"
	AuditLogEventTypePermissionDecline       AuditLogEventType = "permission_request.decline"
	AuditLogEventTypePermissionCancel        AuditLogEventType = "permission_request.cancel"
	AuditLogEventTypeAccountSearch           AuditLogEventType = "account.search"
)

type Auditor struct {
	logger *slog.Logger
	repo   repository.Repository
}

func NewAuditor(logger *slog.Logger, repo repository.Repository) Auditor {
	return Auditor{logger: logger, repo: repo}
}

type LogEventParam struct {
	ActorID uuid.UUID
	Type    AuditLogEventType
	Data    map[string]any
}

func (a *Auditor) LogEvent(ctx context.Context, params LogEventParam) error {
	data, err := json.Marshal(params.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal audit log event data: %w", err)
	}

	if err = a.repo.CreateAuditLogEvent(ctx, repository.CreateAuditLogEventParams{
		ActorID:   params.ActorID,
		EventType: string(params.Type),
		EventData: data,
	}); err != nil {
		return fmt.Errorf("failed to create audit log event: %w", err)
	}
	return nil
}
