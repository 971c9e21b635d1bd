package model

import "encoding/json"

// Envelope is the wire envelope every API response is wrapped in. On
// IsSuccess=false the message is shown to the operator verbatim and Data is
// empty.
type Envelope struct {
	IsSuccess bool            `json:"isSuccess"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

// AccountProfile is the result of resolving a raw account identifier during
// Specific-target verification: enough to display the account and list which
// scopes can be requested for it.
type AccountProfile struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Avatar string            `json:"avatar"`
	Scopes []PermissionScope `json:"scopes"`
}

// CreatePermissionPayload is the POST body for request creation. Exactly one
// of Cluster or Specific is set.
type CreatePermissionPayload struct {
	Cluster  *ClusterRequest  `json:"cluster"`
	Specific *SpecificRequest `json:"specific"`
}

type PermissionSelection struct {
	Permission Permission `json:"permission" validate:"required,permission"`
	Reason     string     `json:"reason"`
}

type ClusterRequest struct {
	Scope       string                `json:"scope" validate:"required,scope_key"`
	Permissions []PermissionSelection `json:"permissions" validate:"required,min=1,dive"`
}

type ScopeSelection struct {
	Scope       string                `json:"scope" validate:"required,scope_key"`
	Permissions []PermissionSelection `json:"permissions" validate:"required,min=1,dive"`
}

type SpecificRequest struct {
	Account string           `json:"account" validate:"required"`
	Scopes  []ScopeSelection `json:"scopes" validate:"required,min=1,dive"`
}
