package permission

import (
	"errors"
	"fmt"
	"time"

	"serchadmin/internal/model"
	"serchadmin/internal/util"

	"github.com/google/uuid"
)

// Transition is one of the four actions that can be taken on a request.
type Transition string

const (
	TransitionGrant   Transition = "grant"
	TransitionRevoke  Transition = "revoke"
	TransitionDecline Transition = "decline"
	TransitionCancel  Transition = "cancel"
)

var (
	ErrIllegalTransition   = errors.New("transition not legal for current status")
	ErrReviewerIsRequester = errors.New("requester cannot review their own request")
	ErrNotRequester        = errors.New("only the requester may cancel a request")
	ErrExpirationNotFuture = errors.New("expiration must be in the future")
)

// Allowed reports whether actorID may perform t on record. It is a pure
// check: the server stays the sole arbiter and callers use this only to gate
// which actions are offered or accepted.
func Allowed(record model.PermissionRequestRecord, t Transition, actorID uuid.UUID) error {
	switch t {
	case TransitionGrant, TransitionDecline:
		if record.Status != model.StatusPending {
			return fmt.Errorf("%s %s request: %w", t, record.Status, ErrIllegalTransition)
		}
		if actorID == record.RequestedBy.ID {
			return ErrReviewerIsRequester
		}
	case TransitionRevoke:
		if record.Status != model.StatusGranted {
			return fmt.Errorf("revoke %s request: %w", record.Status, ErrIllegalTransition)
		}
		if actorID == record.RequestedBy.ID {
			return ErrReviewerIsRequester
		}
	case TransitionCancel:
		if record.Status != model.StatusPending {
			return fmt.Errorf("cancel %s request: %w", record.Status, ErrIllegalTransition)
		}
		if actorID != record.RequestedBy.ID {
			return ErrNotRequester
		}
	default:
		return fmt.Errorf("unknown transition %q: %w", t, ErrIllegalTransition)
	}
	return nil
}

// LegalTransitions lists the transitions actorID may perform on record, in a
// stable order. Used to decide which action buttons a view may offer.
func LegalTransitions(record model.PermissionRequestRecord, actorID uuid.UUID) []Transition {
	var legal []Transition
	for _, t := range []Transition{TransitionGrant, TransitionDecline, TransitionRevoke, TransitionCancel} {
		if Allowed(record, t, actorID) == nil {
			legal = append(legal, t)
		}
	}
	return legal
}

// Apply computes the record that results from actor performing t at time now.
// Only Grant takes an expiration; when set it must be strictly in the future.
// A cancelled request is recorded as Declined with the requester on the audit
// trail; the cancel itself is distinguished in the audit log, not the status.
func Apply(record model.PermissionRequestRecord, t Transition, actor model.Actor, expiration util.Optional[time.Time], now time.Time) (model.PermissionRequestRecord, error) {
	if err := Allowed(record, t, actor.ID); err != nil {
		return record, err
	}

	switch t {
	case TransitionGrant:
		if expiration.IsSet && !expiration.Val.After(now) {
			return record, ErrExpirationNotFuture
		}
		record.Status = model.StatusGranted
		record.Expiration = expiration
	case TransitionRevoke:
		record.Status = model.StatusRevoked
	case TransitionDecline, TransitionCancel:
		record.Status = model.StatusDeclined
	}

	record.UpdatedBy = util.Some(actor)
	record.UpdatedAt = now
	return record, nil
}
