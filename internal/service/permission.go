package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"serchadmin/internal/audit"
	"serchadmin/internal/model"
	"serchadmin/internal/monitoring"
	"serchadmin/internal/notifications"
	"serchadmin/internal/openfga"
	"serchadmin/internal/permission"
	"serchadmin/internal/repository"
	"serchadmin/internal/util"

	"github.com/google/uuid"
)

var ErrActiveGrantExists = errors.New("an active grant already exists for this scope and permission")

// PermissionService owns the server side of the permission request workflow:
// creation, review transitions, and the grouped projection the portal renders.
type PermissionService struct {
	logger    *slog.Logger
	repo      repository.Repository
	authz     *openfga.AuthorizationService
	auditor   audit.Auditor
	notifier  notifications.Manager
	limiter   *RateLimiter
	telemetry monitoring.Telemetry
	composer  *permission.Composer
}

func NewPermissionService(
	logger *slog.Logger,
	repo repository.Repository,
	authz *openfga.AuthorizationService,
	auditor audit.Auditor,
	notifier notifications.Manager,
	limiter *RateLimiter,
	telemetry monitoring.Telemetry,
) *PermissionService {
	return &PermissionService{
		logger:    logger.With("component", "permission_service"),
		repo:      repo,
		authz:     authz,
		auditor:   auditor,
		notifier:  notifier,
		limiter:   limiter,
		telemetry: telemetry,
		composer:  permission.NewComposer(&repoVerifier{repo: repo}),
	}
}

// repoVerifier resolves account identifiers against the accounts table.
type repoVerifier struct {
	repo repository.Repository
}

func (v *repoVerifier) SearchAccount(ctx context.Context, accountID string) (model.AccountProfile, error) {
	return v.repo.GetAccountByID(ctx, accountID)
}

// Groups returns every permission request partitioned by the calendar day it
// was created on, newest day first, newest request first within a day.
func (s *PermissionService) Groups(ctx context.Context) ([]model.PermissionRequestGroup, error) {
	records, err := s.repo.ListPermissionRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list permission requests: %w", err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	var groups []model.PermissionRequestGroup
	for _, record := range records {
		day := record.CreatedAt.UTC().Truncate(24 * time.Hour)
		if len(groups) > 0 && groups[len(groups)-1].CreatedAt.Equal(day) {
			last := &groups[len(groups)-1]
			last.Requests = append(last.Requests, record)
			continue
		}
		groups = append(groups, model.PermissionRequestGroup{
			Label:     day.Format("January 2, 2006"),
			CreatedAt: day,
			Requests:  []model.PermissionRequestRecord{record},
		})
	}

	return groups, nil
}

// Scopes returns the catalog of grantable scopes.
func (s *PermissionService) Scopes(ctx context.Context) ([]model.PermissionScope, error) {
	scopes, err := s.repo.ListScopes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scopes: %w", err)
	}
	return scopes, nil
}

// SearchAccount verifies that an account exists before it can be targeted by
// a specific request. Rate limited per admin and audited.
func (s *PermissionService) SearchAccount(ctx context.Context, actor model.Actor, accountID string) (model.AccountProfile, error) {
	if err := s.limiter.CheckAccountSearch(ctx, actor.ID); err != nil {
		return model.AccountProfile{}, err
	}

	profile, err := s.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		return model.AccountProfile{}, err
	}

	if err := s.auditor.LogEvent(ctx, audit.LogEventParam{
		ActorID: actor.ID,
		Type:    audit.AuditLogEventTypeAccountSearch,
		Data:    map[string]any{"account": accountID},
	}); err != nil {
		s.logger.Error("failed to audit account search", "error", err)
	}

	return profile, nil
}

// Create turns a creation payload into one pending request per selected
// scope and permission pair, all on the actor's behalf.
func (s *PermissionService) Create(ctx context.Context, actor model.Actor, payload model.CreatePermissionPayload) ([]model.PermissionRequestGroup, error) {
	if err := s.composer.Check(payload); err != nil {
		return nil, err
	}

	var records []model.PermissionRequestRecord
	now := time.Now().UTC()

	if payload.Cluster != nil {
		scoped, err := s.buildRecords(ctx, actor, payload.Cluster.Scope, payload.Cluster.Permissions, model.ClusterTarget(), now)
		if err != nil {
			return nil, err
		}
		records = append(records, scoped...)
	}

	if payload.Specific != nil {
		if _, err := s.repo.GetAccountByID(ctx, payload.Specific.Account); err != nil {
			return nil, err
		}
		target := model.SpecificTarget(payload.Specific.Account)
		for _, selection := range payload.Specific.Scopes {
			scoped, err := s.buildRecords(ctx, actor, selection.Scope, selection.Permissions, target, now)
			if err != nil {
				return nil, err
			}
			records = append(records, scoped...)
		}
	}

	for _, record := range records {
		if err := s.repo.CreatePermissionRequest(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to create permission request: %w", err)
		}

		if err := s.auditor.LogEvent(ctx, audit.LogEventParam{
			ActorID: actor.ID,
			Type:    audit.AuditLogEventTypePermissionRequestCreate,
			Data: map[string]any{
				"request_id": record.ID.String(),
				"scope":      record.Scope,
				"permission": string(record.Permission),
			},
		}); err != nil {
			s.logger.Error("failed to audit request creation", "request_id", record.ID, "error", err)
		}

		targetKind := "cluster"
		if record.Target.Kind == model.TargetSpecific {
			targetKind = "specific"
		}
		s.telemetry.RecordRequestCreated(ctx, targetKind)
	}

	s.logger.Info("permission requests created", "admin_id", actor.ID, "count", len(records))

	return s.Groups(ctx)
}

func (s *PermissionService) buildRecords(ctx context.Context, actor model.Actor, scopeKey string, selections []model.PermissionSelection, target model.PermissionTarget, now time.Time) ([]model.PermissionRequestRecord, error) {
	scope, err := s.repo.GetScopeByKey(ctx, scopeKey)
	if err != nil {
		return nil, err
	}

	records := make([]model.PermissionRequestRecord, 0, len(selections))
	for _, selection := range selections {
		records = append(records, model.PermissionRequestRecord{
			ID:          uuid.New(),
			Scope:       scope.Scope,
			ScopeName:   scope.Name,
			Permission:  selection.Permission,
			Target:      target,
			Status:      model.StatusPending,
			RequestedBy: actor,
			Reason:      selection.Reason,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	return records, nil
}

// Transition performs one lifecycle action on a request and returns the full
// refreshed grouped collection. Audit, notification, and tuple mirroring
// failures are logged but do not roll the transition back.
func (s *PermissionService) Transition(ctx context.Context, actor model.Actor, id uuid.UUID, t permission.Transition, expiration util.Optional[time.Time]) ([]model.PermissionRequestGroup, error) {
	if err := s.limiter.CheckTransition(ctx, actor.ID); err != nil {
		return nil, err
	}

	record, err := s.repo.GetPermissionRequestByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	updated, err := permission.Apply(record, t, actor, expiration, now)
	if err != nil {
		s.telemetry.RecordTransition(ctx, string(t), false)
		return nil, err
	}

	if t == permission.TransitionGrant {
		account := ""
		if updated.Target.Kind == model.TargetSpecific {
			account = updated.Target.Account
		}
		exists, err := s.repo.HasActiveGrant(ctx, updated.Scope, updated.Permission, account, now)
		if err != nil {
			return nil, fmt.Errorf("failed to check for active grant: %w", err)
		}
		if exists {
			s.telemetry.RecordTransition(ctx, string(t), false)
			return nil, ErrActiveGrantExists
		}
	}

	if err := s.repo.UpdatePermissionRequest(ctx, updated); err != nil {
		s.telemetry.RecordTransition(ctx, string(t), false)
		return nil, fmt.Errorf("failed to update permission request: %w", err)
	}

	s.telemetry.RecordTransition(ctx, string(t), true)
	s.afterTransition(ctx, actor, updated, t)

	return s.Groups(ctx)
}

// afterTransition runs the side effects that follow a committed transition.
func (s *PermissionService) afterTransition(ctx context.Context, actor model.Actor, record model.PermissionRequestRecord, t permission.Transition) {
	eventTypes := map[permission.Transition]audit.AuditLogEventType{
		permission.TransitionGrant:   audit.AuditLogEventTypePermissionGrant,
		permission.TransitionRevoke:  audit.AuditLogEventTypePermissionRevoke,
		permission.TransitionDecline: audit.AuditLogEventTypePermissionDecline,
		permission.TransitionCancel:  audit.AuditLogEventTypePermissionCancel,
	}

	if err := s.auditor.LogEvent(ctx, audit.LogEventParam{
		ActorID: actor.ID,
		Type:    eventTypes[t],
		Data: map[string]any{
			"request_id": record.ID.String(),
			"scope":      record.Scope,
			"permission": string(record.Permission),
			"status":     string(record.Status),
		},
	}); err != nil {
		s.logger.Error("failed to audit transition", "request_id", record.ID, "transition", t, "error", err)
	}

	if t != permission.TransitionCancel {
		notification := transitionNotification(record, t)
		if err := s.notifier.Notify(ctx, notification); err != nil {
			s.logger.Error("failed to notify requester", "request_id", record.ID, "error", err)
		}
	}

	switch t {
	case permission.TransitionGrant:
		if err := s.authz.MirrorGrant(ctx, record.RequestedBy.ID, record.Permission, record.Scope, record.Target); err != nil {
			s.logger.Error("failed to mirror grant", "request_id", record.ID, "error", err)
		}
	case permission.TransitionRevoke:
		if err := s.authz.MirrorRevoke(ctx, record.RequestedBy.ID, record.Permission, record.Scope, record.Target); err != nil {
			s.logger.Error("failed to mirror revoke", "request_id", record.ID, "error", err)
		}
	}
}

func transitionNotification(record model.PermissionRequestRecord, t permission.Transition) notifications.NotifyParam {
	param := notifications.NotifyParam{
		OwnerID: record.RequestedBy.ID,
		Type:    notifications.NotificationTypeInfo,
	}

	switch t {
	case permission.TransitionGrant:
		param.Title = "Permission granted"
		param.Message = fmt.Sprintf("Your %s request on %s was granted.", record.Permission, record.ScopeName)
	case permission.TransitionRevoke:
		param.Title = "Permission revoked"
		param.Message = fmt.Sprintf("Your %s grant on %s was revoked.", record.Permission, record.ScopeName)
		param.Type = notifications.NotificationTypeWarning
	case permission.TransitionDecline:
		param.Title = "Permission declined"
		param.Message = fmt.Sprintf("Your %s request on %s was declined.", record.Permission, record.ScopeName)
		param.Type = notifications.NotificationTypeWarning
	}

	return param
}
