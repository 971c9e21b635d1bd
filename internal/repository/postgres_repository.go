package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"serchadmin/internal/model"
	"serchadmin/internal/util"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const requestColumns = `
	r.id, r.scope, s.name, r.permission, r.account, r.status,
	r.requested_by, ra.name, r.updated_by, ua.name,
	r.reason, r.message, r.expiration, r.created_at, r.updated_at
`

const requestJoins = `
	FROM permission_requests r
	JOIN permission_scopes s ON s.scope = r.scope
	JOIN admins ra ON ra.id = r.requested_by
	LEFT JOIN admins ua ON ua.id = r.updated_by
`

func (r *PostgresRepository) CreatePermissionRequest(ctx context.Context, record model.PermissionRequestRecord) error {
	var account *string
	if record.Target.Kind == model.TargetSpecific {
		account = &record.Target.Account
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO permission_requests
			(id, scope, permission, account, status, requested_by, reason, message, expiration, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		record.ID, record.Scope, record.Permission, account, record.Status,
		record.RequestedBy.ID, record.Reason, record.Message,
		record.Expiration.Ptr(), record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create permission request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetPermissionRequestByID(ctx context.Context, id uuid.UUID) (model.PermissionRequestRecord, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+requestColumns+requestJoins+` WHERE r.id = $1`, id)

	record, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PermissionRequestRecord{}, ErrRequestNotFound
		}
		return model.PermissionRequestRecord{}, fmt.Errorf("failed to get permission request by ID: %w", err)
	}
	return record, nil
}

func (r *PostgresRepository) UpdatePermissionRequest(ctx context.Context, record model.PermissionRequestRecord) error {
	var updatedBy *uuid.UUID
	if record.UpdatedBy.IsSet {
		id := record.UpdatedBy.Val.ID
		updatedBy = &id
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE permission_requests
		SET status = $2, updated_by = $3, expiration = $4, updated_at = $5
		WHERE id = $1`,
		record.ID, record.Status, updatedBy, record.Expiration.Ptr(), record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update permission request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRequestNotFound
	}
	return nil
}

func (r *PostgresRepository) ListPermissionRequests(ctx context.Context) ([]model.PermissionRequestRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+requestColumns+requestJoins+` ORDER BY r.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list permission requests: %w", err)
	}
	defer rows.Close()

	var records []model.PermissionRequestRecord
	for rows.Next() {
		record, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan permission request: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *PostgresRepository) HasActiveGrant(ctx context.Context, scope string, perm model.Permission, account string, now time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM permission_requests
			WHERE scope = $1
			  AND permission = $2
			  AND COALESCE(account, '') = $3
			  AND status = $4
			  AND (expiration IS NULL OR expiration > $5)
		)`,
		scope, perm, account, model.StatusGranted, now,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check active grant: %w", err)
	}
	return exists, nil
}

func (r *PostgresRepository) ListScopes(ctx context.Context) ([]model.PermissionScope, error) {
	rows, err := r.pool.Query(ctx, `SELECT scope, name FROM permission_scopes ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list permission scopes: %w", err)
	}
	defer rows.Close()

	var scopes []model.PermissionScope
	for rows.Next() {
		var scope model.PermissionScope
		if err := rows.Scan(&scope.Scope, &scope.Name); err != nil {
			return nil, fmt.Errorf("failed to scan permission scope: %w", err)
		}
		scopes = append(scopes, scope)
	}
	return scopes, rows.Err()
}

func (r *PostgresRepository) GetScopeByKey(ctx context.Context, key string) (model.PermissionScope, error) {
	var scope model.PermissionScope
	err := r.pool.QueryRow(ctx, `SELECT scope, name FROM permission_scopes WHERE scope = $1`, key).
		Scan(&scope.Scope, &scope.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PermissionScope{}, ErrScopeNotFound
		}
		return model.PermissionScope{}, fmt.Errorf("failed to get permission scope: %w", err)
	}
	return scope, nil
}

func (r *PostgresRepository) GetAdminByID(ctx context.Context, id uuid.UUID) (model.Admin, error) {
	var admin model.Admin
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, email, role, token_hash, created_at, updated_at
		FROM admins WHERE id = $1`, id).
		Scan(&admin.ID, &admin.Name, &admin.Email, &admin.Role, &admin.TokenHash, &admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Admin{}, ErrAdminNotFound
		}
		return model.Admin{}, fmt.Errorf("failed to get admin by ID: %w", err)
	}
	return admin, nil
}

func (r *PostgresRepository) GetAccountByID(ctx context.Context, id string) (model.AccountProfile, error) {
	var profile model.AccountProfile
	err := r.pool.QueryRow(ctx, `SELECT id, name, avatar FROM accounts WHERE id = $1`, id).
		Scan(&profile.ID, &profile.Name, &profile.Avatar)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.AccountProfile{}, ErrAccountNotFound
		}
		return model.AccountProfile{}, fmt.Errorf("failed to get account by ID: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT s.scope, s.name
		FROM account_scopes ass
		JOIN permission_scopes s ON s.scope = ass.scope
		WHERE ass.account_id = $1
		ORDER BY s.name`, id)
	if err != nil {
		return model.AccountProfile{}, fmt.Errorf("failed to list account scopes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var scope model.PermissionScope
		if err := rows.Scan(&scope.Scope, &scope.Name); err != nil {
			return model.AccountProfile{}, fmt.Errorf("failed to scan account scope: %w", err)
		}
		profile.Scopes = append(profile.Scopes, scope)
	}
	return profile, rows.Err()
}

func (r *PostgresRepository) CreateAuditLogEvent(ctx context.Context, params CreateAuditLogEventParams) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log_events (id, actor_id, event_type, event_data, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New(), params.ActorID, params.EventType, params.EventData, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log event: %w", err)
	}
	return nil
}

func (r *PostgresRepository) CreateNotification(ctx context.Context, params CreateNotificationParams) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, owner_id, title, message, type, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, false, $6)`,
		uuid.New(), params.OwnerID, params.Title, params.Message, params.Type, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListUnreadNotifications(ctx context.Context, ownerID uuid.UUID, limit int) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, title, message, type, is_read, created_at
		FROM notifications
		WHERE owner_id = $1 AND is_read = false
		ORDER BY created_at DESC
		LIMIT $2`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (r *PostgresRepository) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func scanRequest(row pgx.Row) (model.PermissionRequestRecord, error) {
	var (
		record        model.PermissionRequestRecord
		account       *string
		updatedBy     *uuid.UUID
		updatedByName *string
		expiration    *time.Time
	)

	err := row.Scan(
		&record.ID, &record.Scope, &record.ScopeName, &record.Permission, &account, &record.Status,
		&record.RequestedBy.ID, &record.RequestedBy.Name, &updatedBy, &updatedByName,
		&record.Reason, &record.Message, &expiration, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return model.PermissionRequestRecord{}, err
	}

	record.Target = model.ClusterTarget()
	if account != nil && *account != "" {
		record.Target = model.SpecificTarget(*account)
	}
	if updatedBy != nil {
		name := ""
		if updatedByName != nil {
			name = *updatedByName
		}
		record.UpdatedBy = util.Some(model.Actor{ID: *updatedBy, Name: name})
	}
	record.Expiration = util.FromPtr(expiration)

	return record, nil
}
