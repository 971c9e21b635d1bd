package permission

import (
	"context"
	"errors"
	"fmt"

	"serchadmin/internal/model"
	"serchadmin/internal/validator"
)

var (
	ErrNoTargetSelected   = errors.New("no target selected")
	ErrBothTargetsSet     = errors.New("cluster and specific targets are mutually exclusive")
	ErrAccountNotVerified = errors.New("account must be verified before it can be targeted")
)

// AccountVerifier resolves a raw account identifier into a display profile
// before it can be attached as a Specific target. The lookup is an
// idempotent read and safe to retry.
type AccountVerifier interface {
	SearchAccount(ctx context.Context, accountID string) (model.AccountProfile, error)
}

// Composer assembles creation payloads from an admin's selections and
// validates them before submission. Reasons are recommended, not enforced;
// the server stays authoritative.
type Composer struct {
	validate *validator.Validator
	verifier AccountVerifier
}

func NewComposer(verifier AccountVerifier) *Composer {
	return &Composer{validate: validator.New(), verifier: verifier}
}

// VerifyAccount looks the account up so its profile and available scopes can
// be shown before a Specific request is assembled.
func (c *Composer) VerifyAccount(ctx context.Context, accountID string) (model.AccountProfile, error) {
	if accountID == "" {
		return model.AccountProfile{}, ErrAccountNotVerified
	}

	profile, err := c.verifier.SearchAccount(ctx, accountID)
	if err != nil {
		return model.AccountProfile{}, fmt.Errorf("verify account %q: %w", accountID, err)
	}
	return profile, nil
}

// Cluster assembles a cluster-wide creation payload: one scope, one or more
// permissions each with its own reason.
func (c *Composer) Cluster(scope string, permissions []model.PermissionSelection) (model.CreatePermissionPayload, error) {
	payload := model.CreatePermissionPayload{
		Cluster: &model.ClusterRequest{
			Scope:       scope,
			Permissions: permissions,
		},
	}
	return payload, c.Check(payload)
}

// Specific assembles a payload targeting one verified account, with one or
// more scopes each carrying its own permission selections.
func (c *Composer) Specific(profile model.AccountProfile, scopes []model.ScopeSelection) (model.CreatePermissionPayload, error) {
	if profile.ID == "" {
		return model.CreatePermissionPayload{}, ErrAccountNotVerified
	}

	payload := model.CreatePermissionPayload{
		Specific: &model.SpecificRequest{
			Account: profile.ID,
			Scopes:  scopes,
		},
	}
	return payload, c.Check(payload)
}

// Check validates an assembled payload: exactly one target kind, a fully
// selected target, and at least one valid permission per scope.
func (c *Composer) Check(payload model.CreatePermissionPayload) error {
	if payload.Cluster == nil && payload.Specific == nil {
		return ErrNoTargetSelected
	}
	if payload.Cluster != nil && payload.Specific != nil {
		return ErrBothTargetsSet
	}

	if payload.Cluster != nil {
		if err := c.validate.Validate(payload.Cluster); err != nil {
			return fmt.Errorf("cluster request: %w", err)
		}
	}
	if payload.Specific != nil {
		if err := c.validate.Validate(payload.Specific); err != nil {
			return fmt.Errorf("specific request: %w", err)
		}
	}
	return nil
}
