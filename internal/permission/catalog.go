package permission

import (
	"context"
	"sync"

	"serchadmin/internal/model"
)

// Catalog caches the grantable scope list for the lifetime of a session. The
// first Scopes call fetches; later calls serve the cached copy. A failed
// fetch is surfaced to the caller and nothing is cached, so the next call
// tries again. There is no automatic retry.
type Catalog struct {
	mu     sync.Mutex
	fetch  func(ctx context.Context) ([]model.PermissionScope, error)
	scopes []model.PermissionScope
	loaded bool
}

func NewCatalog(fetch func(ctx context.Context) ([]model.PermissionScope, error)) *Catalog {
	return &Catalog{fetch: fetch}
}

func (c *Catalog) Scopes(ctx context.Context) ([]model.PermissionScope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		scopes, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.scopes = scopes
		c.loaded = true
	}

	out := make([]model.PermissionScope, len(c.scopes))
	copy(out, c.scopes)
	return out, nil
}

// Lookup resolves a scope key against the cached catalog. It never fetches;
// a miss before the first successful Scopes call just reports not found.
func (c *Catalog) Lookup(key string) (model.PermissionScope, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, scope := range c.scopes {
		if scope.Scope == key {
			return scope, true
		}
	}
	return model.PermissionScope{}, false
}

// AssignableRoles lists the roles an actor may hand out: everything strictly
// junior to their own role, most senior first. The actor's own role and
// anything above it are excluded.
func AssignableRoles(actor model.Role) []model.Role {
	var assignable []model.Role
	for _, role := range []model.Role{model.RoleSuper, model.RoleAdmin, model.RoleManager, model.RoleTeam} {
		if actor.SeniorTo(role) {
			assignable = append(assignable, role)
		}
	}
	return assignable
}
