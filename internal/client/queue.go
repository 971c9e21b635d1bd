package client

import (
	"context"
	"fmt"
	"time"

	"serchadmin/internal/model"
	"serchadmin/internal/permission"
	"serchadmin/internal/util"

	"github.com/google/uuid"
)

// ReviewQueue ties the API client to a request store on behalf of one admin.
// Transitions are precondition-checked locally so callers only offer legal
// actions, but nothing is mutated optimistically: the store only moves when
// the server confirms with a fresh snapshot. On any error the store is left
// exactly as it was.
type ReviewQueue struct {
	api   *Client
	store *permission.Store
	actor model.Actor
}

func NewReviewQueue(api *Client, store *permission.Store, actor model.Actor) *ReviewQueue {
	return &ReviewQueue{api: api, store: store, actor: actor}
}

func (q *ReviewQueue) Store() *permission.Store {
	return q.store
}

// Load fetches the full review queue and replaces the store's collection.
func (q *ReviewQueue) Load(ctx context.Context) error {
	groups, err := q.api.Requests(ctx)
	if err != nil {
		return fmt.Errorf("failed to load review queue: %w", err)
	}
	q.store.Ingest(groups)
	return nil
}

// Grant grants a pending request, optionally with an expiration, and returns
// the refreshed record.
func (q *ReviewQueue) Grant(ctx context.Context, id uuid.UUID, expiration util.Optional[time.Time]) (model.PermissionRequestRecord, error) {
	if err := q.check(id, permission.TransitionGrant); err != nil {
		return model.PermissionRequestRecord{}, err
	}

	groups, err := q.api.Grant(ctx, id, expiration)
	if err != nil {
		return model.PermissionRequestRecord{}, err
	}
	return q.absorb(groups, id)
}

func (q *ReviewQueue) Revoke(ctx context.Context, id uuid.UUID) (model.PermissionRequestRecord, error) {
	if err := q.check(id, permission.TransitionRevoke); err != nil {
		return model.PermissionRequestRecord{}, err
	}

	groups, err := q.api.Revoke(ctx, id)
	if err != nil {
		return model.PermissionRequestRecord{}, err
	}
	return q.absorb(groups, id)
}

func (q *ReviewQueue) Decline(ctx context.Context, id uuid.UUID) (model.PermissionRequestRecord, error) {
	if err := q.check(id, permission.TransitionDecline); err != nil {
		return model.PermissionRequestRecord{}, err
	}

	groups, err := q.api.Decline(ctx, id)
	if err != nil {
		return model.PermissionRequestRecord{}, err
	}
	return q.absorb(groups, id)
}

func (q *ReviewQueue) Cancel(ctx context.Context, id uuid.UUID) (model.PermissionRequestRecord, error) {
	if err := q.check(id, permission.TransitionCancel); err != nil {
		return model.PermissionRequestRecord{}, err
	}

	groups, err := q.api.Cancel(ctx, id)
	if err != nil {
		return model.PermissionRequestRecord{}, err
	}
	return q.absorb(groups, id)
}

// Actions lists the transitions this admin may be offered for a record.
func (q *ReviewQueue) Actions(id uuid.UUID) []permission.Transition {
	record, ok := q.store.Find(id)
	if !ok {
		return nil
	}
	return permission.LegalTransitions(record, q.actor.ID)
}

func (q *ReviewQueue) check(id uuid.UUID, t permission.Transition) error {
	record, ok := q.store.Find(id)
	if !ok {
		return fmt.Errorf("request %s not in review queue", id)
	}
	return permission.Allowed(record, t, q.actor.ID)
}

func (q *ReviewQueue) absorb(groups []model.PermissionRequestGroup, id uuid.UUID) (model.PermissionRequestRecord, error) {
	record, ok := q.store.ApplyUpdate(groups, id)
	if !ok {
		return model.PermissionRequestRecord{}, fmt.Errorf("request %s missing from refreshed snapshot", id)
	}
	return record, nil
}
