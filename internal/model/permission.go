package model

import (
	"encoding/json"
	"errors"
	"time"

	"serchadmin/internal/util"

	"github.com/google/uuid"
)

// Permission is one of the four atomic permissions attachable to a scope.
// Closed enumeration, never extended at runtime.
type Permission string

const (
	PermissionRead   Permission = "READ"
	PermissionWrite  Permission = "WRITE"
	PermissionUpdate Permission = "UPDATE"
	PermissionDelete Permission = "DELETE"
)

func Permissions() []Permission {
	return []Permission{PermissionRead, PermissionWrite, PermissionUpdate, PermissionDelete}
}

func (p Permission) Valid() bool {
	switch p {
	case PermissionRead, PermissionWrite, PermissionUpdate, PermissionDelete:
		return true
	}
	return false
}

// RequestStatus is the lifecycle status of a permission request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusGranted  RequestStatus = "GRANTED"
	StatusRevoked  RequestStatus = "REVOKED"
	StatusDeclined RequestStatus = "DECLINED"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusGranted, StatusRevoked, StatusDeclined:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s RequestStatus) Terminal() bool {
	return s == StatusRevoked || s == StatusDeclined
}

// PermissionScope is a catalog entry for a grantable resource area.
// Immutable once fetched.
type PermissionScope struct {
	Scope string `json:"scope"`
	Name  string `json:"name"`
}

type TargetKind int

const (
	TargetCluster TargetKind = iota
	TargetSpecific
)

// PermissionTarget is a tagged union: a grant either applies to a scope
// across the whole organisation (Cluster) or to one named account (Specific).
type PermissionTarget struct {
	Kind    TargetKind
	Account string
}

func ClusterTarget() PermissionTarget {
	return PermissionTarget{Kind: TargetCluster}
}

func SpecificTarget(account string) PermissionTarget {
	return PermissionTarget{Kind: TargetSpecific, Account: account}
}

var (
	ErrSpecificTargetWithoutAccount = errors.New("specific target requires an account identifier")
	ErrClusterTargetWithAccount     = errors.New("cluster target must not carry an account identifier")
)

func (t PermissionTarget) Validate() error {
	switch t.Kind {
	case TargetSpecific:
		if t.Account == "" {
			return ErrSpecificTargetWithoutAccount
		}
	case TargetCluster:
		if t.Account != "" {
			return ErrClusterTargetWithAccount
		}
	}
	return nil
}

// Actor identifies an admin on a request's audit trail.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// PermissionRequestRecord is one outstanding or resolved permission request.
type PermissionRequestRecord struct {
	ID          uuid.UUID
	Scope       string
	ScopeName   string
	Permission  Permission
	Target      PermissionTarget
	Status      RequestStatus
	RequestedBy Actor
	UpdatedBy   util.Optional[Actor]
	Reason      string
	Message     string
	Expiration  util.Optional[time.Time]
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Expired reports whether a granted request's expiration has passed.
func (r PermissionRequestRecord) Expired(now time.Time) bool {
	return r.Status == StatusGranted && r.Expiration.IsSet && !r.Expiration.Val.After(now)
}

// EffectiveStatus folds grant expiry into the displayed status: an expired
// grant reads back as Revoked for authorization purposes.
func (r PermissionRequestRecord) EffectiveStatus(now time.Time) RequestStatus {
	if r.Expired(now) {
		return StatusRevoked
	}
	return r.Status
}

// PermissionRequestGroup is a display partition: a time-bucket label plus the
// ordered requests created in that bucket.
type PermissionRequestGroup struct {
	Label     string                    `json:"label"`
	CreatedAt time.Time                 `json:"createdAt"`
	Requests  []PermissionRequestRecord `json:"requests"`
}

type permissionRequestJSON struct {
	ID              uuid.UUID     `json:"id"`
	Scope           string        `json:"scope"`
	ScopeName       string        `json:"scope_name"`
	Permission      Permission    `json:"permission"`
	Account         *string       `json:"account"`
	Status          RequestStatus `json:"status"`
	RequestedBy     uuid.UUID     `json:"requested_by"`
	RequestedByName string        `json:"requested_by_name"`
	UpdatedBy       *uuid.UUID    `json:"updated_by"`
	UpdatedByName   *string       `json:"updated_by_name"`
	Reason          string        `json:"reason"`
	Message         string        `json:"message"`
	Expiration      *time.Time    `json:"expiration"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (r PermissionRequestRecord) MarshalJSON() ([]byte, error) {
	wire := permissionRequestJSON{
		ID:              r.ID,
		Scope:           r.Scope,
		ScopeName:       r.ScopeName,
		Permission:      r.Permission,
		Status:          r.Status,
		RequestedBy:     r.RequestedBy.ID,
		RequestedByName: r.RequestedBy.Name,
		Reason:          r.Reason,
		Message:         r.Message,
		Expiration:      r.Expiration.Ptr(),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
	if r.Target.Kind == TargetSpecific {
		account := r.Target.Account
		wire.Account = &account
	}
	if r.UpdatedBy.IsSet {
		id := r.UpdatedBy.Val.ID
		name := r.UpdatedBy.Val.Name
		wire.UpdatedBy = &id
		wire.UpdatedByName = &name
	}
	return json.Marshal(wire)
}

func (r *PermissionRequestRecord) UnmarshalJSON(data []byte) error {
	var wire permissionRequestJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	record := PermissionRequestRecord{
		ID:          wire.ID,
		Scope:       wire.Scope,
		ScopeName:   wire.ScopeName,
		Permission:  wire.Permission,
		Target:      ClusterTarget(),
		Status:      wire.Status,
		RequestedBy: Actor{ID: wire.RequestedBy, Name: wire.RequestedByName},
		Reason:      wire.Reason,
		Message:     wire.Message,
		Expiration:  util.FromPtr(wire.Expiration),
		CreatedAt:   wire.CreatedAt,
		UpdatedAt:   wire.UpdatedAt,
	}
	if wire.Account != nil && *wire.Account != "" {
		record.Target = SpecificTarget(*wire.Account)
	}
	if wire.UpdatedBy != nil {
		name := ""
		if wire.UpdatedByName != nil {
			name = *wire.UpdatedByName
		}
		record.UpdatedBy = util.Some(Actor{ID: *wire.UpdatedBy, Name: name})
	}

	*r = record
	return nil
}
