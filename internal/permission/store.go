package permission

import (
	"sync"

	"serchadmin/internal/model"

	"github.com/google/uuid"
)

// Store holds the full known set of request groups for the current admin's
// review queue. It is only ever mutated by whole-collection replacement with
// a server snapshot; it never merges partial updates. After ApplyUpdate any
// previously held record reference is stale and must be re-read via Find.
type Store struct {
	mu     sync.RWMutex
	groups []model.PermissionRequestGroup
}

func NewStore() *Store {
	return &Store{}
}

// Ingest replaces the entire collection, dropping whatever was held before.
func (s *Store) Ingest(groups []model.PermissionRequestGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = cloneGroups(groups)
}

// ApplyUpdate replaces the collection with the fresher snapshot a transition
// call returned, and hands back the record matching id so an open detail view
// can refresh itself.
func (s *Store) ApplyUpdate(groups []model.PermissionRequestGroup, id uuid.UUID) (model.PermissionRequestRecord, bool) {
	s.mu.Lock()
	s.groups = cloneGroups(groups)
	s.mu.Unlock()

	return s.Find(id)
}

// Find returns the record with the given id from the current snapshot.
func (s *Store) Find(id uuid.UUID) (model.PermissionRequestRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, group := range s.groups {
		for _, record := range group.Requests {
			if record.ID == id {
				return record, true
			}
		}
	}
	return model.PermissionRequestRecord{}, false
}

// Groups returns a copy of the current snapshot in original order.
func (s *Store) Groups() []model.PermissionRequestGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneGroups(s.groups)
}

// Len counts records across all groups.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, group := range s.groups {
		n += len(group.Requests)
	}
	return n
}

func cloneGroups(groups []model.PermissionRequestGroup) []model.PermissionRequestGroup {
	out := make([]model.PermissionRequestGroup, len(groups))
	for i, group := range groups {
		out[i] = group
		out[i].Requests = make([]model.PermissionRequestRecord, len(group.Requests))
		copy(out[i].Requests, group.Requests)
	}
	return out
}
