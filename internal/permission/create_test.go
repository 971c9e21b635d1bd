package permission

import (
	"context"
	"errors"
	"testing"

	"serchadmin/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	profile model.AccountProfile
	err     error
	calls   int
}

func (s *stubVerifier) SearchAccount(ctx context.Context, accountID string) (model.AccountProfile, error) {
	s.calls++
	if s.err != nil {
		return model.AccountProfile{}, s.err
	}
	return s.profile, nil
}

func TestComposer_Cluster(t *testing.T) {
	composer := NewComposer(&stubVerifier{})

	t.Run("valid_payload", func(t *testing.T) {
		payload, err := composer.Cluster("PAYMENT_TRANSACTIONS", []model.PermissionSelection{
			{Permission: model.PermissionRead, Reason: "audit"},
			{Permission: model.PermissionWrite, Reason: "adjustments"},
		})
		require.NoError(t, err)
		require.NotNil(t, payload.Cluster)
		assert.Nil(t, payload.Specific)
		assert.Equal(t, "PAYMENT_TRANSACTIONS", payload.Cluster.Scope)
		assert.Len(t, payload.Cluster.Permissions, 2)
	})

	t.Run("missing_scope", func(t *testing.T) {
		_, err := composer.Cluster("", []model.PermissionSelection{{Permission: model.PermissionRead}})
		assert.Error(t, err)
	})

	t.Run("lowercase_scope_key", func(t *testing.T) {
		_, err := composer.Cluster("payments", []model.PermissionSelection{{Permission: model.PermissionRead}})
		assert.Error(t, err)
	})

	t.Run("no_permissions", func(t *testing.T) {
		_, err := composer.Cluster("PAYMENT_TRANSACTIONS", nil)
		assert.Error(t, err)
	})

	t.Run("invalid_permission", func(t *testing.T) {
		_, err := composer.Cluster("PAYMENT_TRANSACTIONS", []model.PermissionSelection{{Permission: "EXECUTE"}})
		assert.Error(t, err)
	})

	t.Run("empty_reason_is_not_blocking", func(t *testing.T) {
		_, err := composer.Cluster("PAYMENT_TRANSACTIONS", []model.PermissionSelection{{Permission: model.PermissionRead}})
		assert.NoError(t, err)
	})
}

func TestComposer_Specific(t *testing.T) {
	profile := model.AccountProfile{
		ID:   "U1",
		Name: "User One",
		Scopes: []model.PermissionScope{
			{Scope: "SUPPORT", Name: "Support"},
		},
	}
	composer := NewComposer(&stubVerifier{profile: profile})

	t.Run("valid_payload", func(t *testing.T) {
		payload, err := composer.Specific(profile, []model.ScopeSelection{
			{Scope: "SUPPORT", Permissions: []model.PermissionSelection{{Permission: model.PermissionRead, Reason: "investigate ticket"}}},
		})
		require.NoError(t, err)
		require.NotNil(t, payload.Specific)
		assert.Nil(t, payload.Cluster)
		assert.Equal(t, "U1", payload.Specific.Account)
	})

	t.Run("unverified_account", func(t *testing.T) {
		_, err := composer.Specific(model.AccountProfile{}, []model.ScopeSelection{
			{Scope: "SUPPORT", Permissions: []model.PermissionSelection{{Permission: model.PermissionRead}}},
		})
		assert.ErrorIs(t, err, ErrAccountNotVerified)
	})

	t.Run("no_scopes", func(t *testing.T) {
		_, err := composer.Specific(profile, nil)
		assert.Error(t, err)
	})
}

func TestComposer_Check(t *testing.T) {
	composer := NewComposer(&stubVerifier{})

	t.Run("no_target", func(t *testing.T) {
		err := composer.Check(model.CreatePermissionPayload{})
		assert.ErrorIs(t, err, ErrNoTargetSelected)
	})

	t.Run("both_targets", func(t *testing.T) {
		err := composer.Check(model.CreatePermissionPayload{
			Cluster:  &model.ClusterRequest{Scope: "SUPPORT", Permissions: []model.PermissionSelection{{Permission: model.PermissionRead}}},
			Specific: &model.SpecificRequest{Account: "U1", Scopes: []model.ScopeSelection{{Scope: "SUPPORT", Permissions: []model.PermissionSelection{{Permission: model.PermissionRead}}}}},
		})
		assert.ErrorIs(t, err, ErrBothTargetsSet)
	})
}

func TestComposer_VerifyAccount(t *testing.T) {
	t.Run("resolves_profile", func(t *testing.T) {
		verifier := &stubVerifier{profile: model.AccountProfile{ID: "U1", Name: "User One"}}
		composer := NewComposer(verifier)

		profile, err := composer.VerifyAccount(context.Background(), "U1")
		require.NoError(t, err)
		assert.Equal(t, "User One", profile.Name)
		assert.Equal(t, 1, verifier.calls)
	})

	t.Run("empty_identifier", func(t *testing.T) {
		composer := NewComposer(&stubVerifier{})

		_, err := composer.VerifyAccount(context.Background(), "")
		assert.ErrorIs(t, err, ErrAccountNotVerified)
	})

	t.Run("lookup_failure_wrapped", func(t *testing.T) {
		lookupErr := errors.New("not found")
		composer := NewComposer(&stubVerifier{err: lookupErr})

		_, err := composer.VerifyAccount(context.Background(), "U404")
		assert.ErrorIs(t, err, lookupErr)
	})
}
