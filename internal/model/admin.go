package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is an admin's position on the team ladder. Higher rank means more
// senior.
type Role string

const (
	RoleTeam    Role = "TEAM"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
	RoleSuper   Role = "SUPER"
)

var roleRank = map[Role]int{
	RoleTeam:    0,
	RoleManager: 1,
	RoleAdmin:   2,
	RoleSuper:   3,
}

func Roles() []Role {
	return []Role{RoleTeam, RoleManager, RoleAdmin, RoleSuper}
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// SeniorTo reports whether r outranks other.
func (r Role) SeniorTo(other Role) bool {
	return roleRank[r] > roleRank[other]
}

type Admin struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Role      Role
	TokenHash string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a Admin) Actor() Actor {
	return Actor{ID: a.ID, Name: a.Name}
}
