package service

import (
	"context"
	"testing"
	"time"

	"serchadmin/internal/audit"
	"serchadmin/internal/config"
	"serchadmin/internal/model"
	"serchadmin/internal/monitoring"
	"serchadmin/internal/notifications"
	"serchadmin/internal/openfga"
	"serchadmin/internal/permission"
	"serchadmin/internal/repository"
	"serchadmin/internal/util"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreatePermissionRequest(ctx context.Context, record model.PermissionRequestRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRepository) GetPermissionRequestByID(ctx context.Context, id uuid.UUID) (model.PermissionRequestRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.PermissionRequestRecord), args.Error(1)
}

func (m *MockRepository) UpdatePermissionRequest(ctx context.Context, record model.PermissionRequestRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRepository) ListPermissionRequests(ctx context.Context) ([]model.PermissionRequestRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.PermissionRequestRecord), args.Error(1)
}

func (m *MockRepository) HasActiveGrant(ctx context.Context, scope string, perm model.Permission, account string, now time.Time) (bool, error) {
	args := m.Called(ctx, scope, perm, account, now)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListScopes(ctx context.Context) ([]model.PermissionScope, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.PermissionScope), args.Error(1)
}

func (m *MockRepository) GetScopeByKey(ctx context.Context, key string) (model.PermissionScope, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(model.PermissionScope), args.Error(1)
}

func (m *MockRepository) GetAdminByID(ctx context.Context, id uuid.UUID) (model.Admin, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Admin), args.Error(1)
}

func (m *MockRepository) GetAccountByID(ctx context.Context, id string) (model.AccountProfile, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.AccountProfile), args.Error(1)
}

func (m *MockRepository) CreateAuditLogEvent(ctx context.Context, params repository.CreateAuditLogEventParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockRepository) CreateNotification(ctx context.Context, params repository.CreateNotificationParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockRepository) ListUnreadNotifications(ctx context.Context, ownerID uuid.UUID, limit int) ([]repository.Notification, error) {
	args := m.Called(ctx, ownerID, limit)
	return args.Get(0).([]repository.Notification), args.Error(1)
}

func (m *MockRepository) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestService(t *testing.T, repo *MockRepository) *PermissionService {
	t.Helper()

	telemetry, err := monitoring.NewOpenTelemetry(config.TelemetryConfig{})
	require.NoError(t, err)
	logger := telemetry.Logger()

	authz, err := openfga.NewAuthorizationService(config.OpenFGAConfig{Enabled: false}, logger)
	require.NoError(t, err)

	return NewPermissionService(
		logger,
		repo,
		authz,
		audit.NewAuditor(logger, repo),
		notifications.NewManager(logger, repo),
		NewRateLimiter(nil),
		telemetry,
	)
}

func pendingRecord(requester model.Actor) model.PermissionRequestRecord {
	now := time.Now().UTC()
	return model.PermissionRequestRecord{
		ID:          uuid.New(),
		Scope:       "PAYMENTS",
		ScopeName:   "Payments",
		Permission:  model.PermissionRead,
		Target:      model.ClusterTarget(),
		Status:      model.StatusPending,
		RequestedBy: requester,
		Reason:      "need access",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestPermissionService_Transition(t *testing.T) {
	requester := model.Actor{ID: uuid.New(), Name: "Requester"}
	reviewer := model.Actor{ID: uuid.New(), Name: "Reviewer"}

	tests := []struct {
		name          string
		actor         model.Actor
		transition    permission.Transition
		expiration    util.Optional[time.Time]
		setupMocks    func(*MockRepository, model.PermissionRequestRecord)
		expectedError error
		wantStatus    model.RequestStatus
	}{
		{
			name:       "grant_by_reviewer",
			actor:      reviewer,
			transition: permission.TransitionGrant,
			expiration: util.Some(time.Now().UTC().Add(24 * time.Hour)),
			setupMocks: func(repo *MockRepository, record model.PermissionRequestRecord) {
				repo.On("GetPermissionRequestByID", mock.Anything, record.ID).Return(record, nil)
				repo.On("HasActiveGrant", mock.Anything, "PAYMENTS", model.PermissionRead, "", mock.Anything).Return(false, nil)
				repo.On("UpdatePermissionRequest", mock.Anything, mock.MatchedBy(func(r model.PermissionRequestRecord) bool {
					return r.Status == model.StatusGranted && r.UpdatedBy.IsSet && r.UpdatedBy.Val.ID == reviewer.ID
				})).Return(nil)
				repo.On("CreateAuditLogEvent", mock.Anything, mock.MatchedBy(func(p repository.CreateAuditLogEventParams) bool {
					return p.EventType == "permission_request.grant"
				})).Return(nil)
				repo.On("CreateNotification", mock.Anything, mock.MatchedBy(func(p repository.CreateNotificationParams) bool {
					return p.OwnerID == requester.ID
				})).Return(nil)
				repo.On("ListPermissionRequests", mock.Anything).Return([]model.PermissionRequestRecord{}, nil)
			},
			wantStatus: model.StatusGranted,
		},
		{
			name:       "grant_by_requester_rejected",
			actor:      requester,
			transition: permission.TransitionGrant,
			setupMocks: func(repo *MockRepository, record model.PermissionRequestRecord) {
				repo.On("GetPermissionRequestByID", mock.Anything, record.ID).Return(record, nil)
			},
			expectedError: permission.ErrReviewerIsRequester,
		},
		{
			name:       "grant_blocked_by_existing_grant",
			actor:      reviewer,
			transition: permission.TransitionGrant,
			setupMocks: func(repo *MockRepository, record model.PermissionRequestRecord) {
				repo.On("GetPermissionRequestByID", mock.Anything, record.ID).Return(record, nil)
				repo.On("HasActiveGrant", mock.Anything, "PAYMENTS", model.PermissionRead, "", mock.Anything).Return(true, nil)
			},
			expectedError: ErrActiveGrantExists,
		},
		{
			name:       "cancel_by_requester",
			actor:      requester,
			transition: permission.TransitionCancel,
			setupMocks: func(repo *MockRepository, record model.PermissionRequestRecord) {
				repo.On("GetPermissionRequestByID", mock.Anything, record.ID).Return(record, nil)
				repo.On("UpdatePermissionRequest", mock.Anything, mock.MatchedBy(func(r model.PermissionRequestRecord) bool {
					return r.Status == model.StatusDeclined
				})).Return(nil)
				repo.On("CreateAuditLogEvent", mock.Anything, mock.MatchedBy(func(p repository.CreateAuditLogEventParams) bool {
					return p.EventType == "permission_request.cancel"
				})).Return(nil)
				repo.On("ListPermissionRequests", mock.Anything).Return([]model.PermissionRequestRecord{}, nil)
			},
			wantStatus: model.StatusDeclined,
		},
		{
			name:       "cancel_by_reviewer_rejected",
			actor:      reviewer,
			transition: permission.TransitionCancel,
			setupMocks: func(repo *MockRepository, record model.PermissionRequestRecord) {
				repo.On("GetPermissionRequestByID", mock.Anything, record.ID).Return(record, nil)
			},
			expectedError: permission.ErrNotRequester,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			record := pendingRecord(requester)
			tt.setupMocks(repo, record)

			svc := newTestService(t, repo)
			_, err := svc.Transition(context.Background(), tt.actor, record.ID, tt.transition, tt.expiration)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestPermissionService_Transition_CancelSendsNoNotification(t *testing.T) {
	requester := model.Actor{ID: uuid.New(), Name: "Requester"}
	record := pendingRecord(requester)

	repo := new(MockRepository)
	repo.On("GetPermissionRequestByID", mock.Anything, record.ID).Return(record, nil)
	repo.On("UpdatePermissionRequest", mock.Anything, mock.Anything).Return(nil)
	repo.On("CreateAuditLogEvent", mock.Anything, mock.Anything).Return(nil)
	repo.On("ListPermissionRequests", mock.Anything).Return([]model.PermissionRequestRecord{}, nil)

	svc := newTestService(t, repo)
	_, err := svc.Transition(context.Background(), requester, record.ID, permission.TransitionCancel, util.None[time.Time]())

	require.NoError(t, err)
	repo.AssertNotCalled(t, "CreateNotification", mock.Anything, mock.Anything)
}

func TestPermissionService_Transition_RevokeGrantedRequest(t *testing.T) {
	requester := model.Actor{ID: uuid.New(), Name: "Requester"}
	reviewer := model.Actor{ID: uuid.New(), Name: "Reviewer"}

	record := pendingRecord(requester)
	record.Status = model.StatusGranted
	record.Expiration = util.Some(time.Now().UTC().Add(24 * time.Hour))

	repo := new(MockRepository)
	repo.On("GetPermissionRequestByID", mock.Anything, record.ID).Return(record, nil)
	repo.On("UpdatePermissionRequest", mock.Anything, mock.MatchedBy(func(r model.PermissionRequestRecord) bool {
		return r.Status == model.StatusRevoked
	})).Return(nil)
	repo.On("CreateAuditLogEvent", mock.Anything, mock.MatchedBy(func(p repository.CreateAuditLogEventParams) bool {
		return p.EventType == "permission_request.revoke"
	})).Return(nil)
	repo.On("CreateNotification", mock.Anything, mock.Anything).Return(nil)
	repo.On("ListPermissionRequests", mock.Anything).Return([]model.PermissionRequestRecord{}, nil)

	svc := newTestService(t, repo)
	_, err := svc.Transition(context.Background(), reviewer, record.ID, permission.TransitionRevoke, util.None[time.Time]())

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestPermissionService_Create(t *testing.T) {
	actor := model.Actor{ID: uuid.New(), Name: "Requester"}

	t.Run("cluster_creates_one_record_per_permission", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetScopeByKey", mock.Anything, "PAYMENTS").Return(model.PermissionScope{Scope: "PAYMENTS", Name: "Payments"}, nil)
		repo.On("CreatePermissionRequest", mock.Anything, mock.MatchedBy(func(r model.PermissionRequestRecord) bool {
			return r.Status == model.StatusPending && r.RequestedBy.ID == actor.ID && r.Target.Kind == model.TargetCluster
		})).Return(nil).Twice()
		repo.On("CreateAuditLogEvent", mock.Anything, mock.Anything).Return(nil)
		repo.On("ListPermissionRequests", mock.Anything).Return([]model.PermissionRequestRecord{}, nil)

		svc := newTestService(t, repo)
		_, err := svc.Create(context.Background(), actor, model.CreatePermissionPayload{
			Cluster: &model.ClusterRequest{
				Scope: "PAYMENTS",
				Permissions: []model.PermissionSelection{
					{Permission: model.PermissionRead, Reason: "audit review"},
					{Permission: model.PermissionWrite, Reason: "refund handling"},
				},
			},
		})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("specific_requires_existing_account", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetAccountByID", mock.Anything, "acct-404").Return(model.AccountProfile{}, repository.ErrAccountNotFound)

		svc := newTestService(t, repo)
		_, err := svc.Create(context.Background(), actor, model.CreatePermissionPayload{
			Specific: &model.SpecificRequest{
				Account: "acct-404",
				Scopes: []model.ScopeSelection{
					{Scope: "PAYMENTS", Permissions: []model.PermissionSelection{{Permission: model.PermissionRead}}},
				},
			},
		})

		assert.ErrorIs(t, err, repository.ErrAccountNotFound)
		repo.AssertNotCalled(t, "CreatePermissionRequest", mock.Anything, mock.Anything)
	})

	t.Run("both_targets_rejected", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(t, repo)

		_, err := svc.Create(context.Background(), actor, model.CreatePermissionPayload{
			Cluster:  &model.ClusterRequest{Scope: "PAYMENTS", Permissions: []model.PermissionSelection{{Permission: model.PermissionRead}}},
			Specific: &model.SpecificRequest{Account: "acct-1", Scopes: []model.ScopeSelection{{Scope: "PAYMENTS", Permissions: []model.PermissionSelection{{Permission: model.PermissionRead}}}}},
		})

		assert.ErrorIs(t, err, permission.ErrBothTargetsSet)
	})
}

func TestPermissionService_Groups(t *testing.T) {
	actor := model.Actor{ID: uuid.New(), Name: "Requester"}

	today := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)
	yesterday := today.Add(-24 * time.Hour)

	first := pendingRecord(actor)
	first.CreatedAt = today
	second := pendingRecord(actor)
	second.CreatedAt = today.Add(-2 * time.Hour)
	third := pendingRecord(actor)
	third.CreatedAt = yesterday

	repo := new(MockRepository)
	repo.On("ListPermissionRequests", mock.Anything).Return([]model.PermissionRequestRecord{third, first, second}, nil)

	svc := newTestService(t, repo)
	groups, err := svc.Groups(context.Background())

	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "August 31, 2026", groups[0].Label)
	assert.Len(t, groups[0].Requests, 2)
	assert.Equal(t, first.ID, groups[0].Requests[0].ID)
	assert.Equal(t, second.ID, groups[0].Requests[1].ID)
	assert.Equal(t, "August 30, 2026", groups[1].Label)
	assert.Len(t, groups[1].Requests, 1)
}

func TestPermissionService_SearchAccount(t *testing.T) {
	actor := model.Actor{ID: uuid.New(), Name: "Requester"}
	profile := model.AccountProfile{ID: "acct-1", Name: "Jordan", Scopes: []model.PermissionScope{{Scope: "PAYMENTS", Name: "Payments"}}}

	repo := new(MockRepository)
	repo.On("GetAccountByID", mock.Anything, "acct-1").Return(profile, nil)
	repo.On("CreateAuditLogEvent", mock.Anything, mock.MatchedBy(func(p repository.CreateAuditLogEventParams) bool {
		return p.EventType == "account.search"
	})).Return(nil)

	svc := newTestService(t, repo)
	got, err := svc.SearchAccount(context.Background(), actor, "acct-1")

	require.NoError(t, err)
	assert.Equal(t, profile, got)
	repo.AssertExpectations(t)
}
