package permission

import (
	"testing"
	"time"

	"serchadmin/internal/model"
	"serchadmin/internal/util"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupsFixture(records ...model.PermissionRequestRecord) []model.PermissionRequestGroup {
	return []model.PermissionRequestGroup{
		{
			Label:     "August 30, 2026",
			CreatedAt: time.Now().Add(-24 * time.Hour),
			Requests:  records,
		},
	}
}

func TestStore_IngestAndFind(t *testing.T) {
	requester := model.Actor{ID: uuid.New(), Name: "Requester B"}
	record := newPendingRecord(requester)
	record.Target = model.SpecificTarget("U1")
	record.Scope = "SUPPORT"

	store := NewStore()
	store.Ingest(groupsFixture(record))

	got, ok := store.Find(record.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, model.SpecificTarget("U1"), got.Target)
	assert.Equal(t, 1, store.Len())

	_, ok = store.Find(uuid.New())
	assert.False(t, ok)
}

func TestStore_IngestReplacesEntireCollection(t *testing.T) {
	requester := model.Actor{ID: uuid.New(), Name: "Requester"}
	first := newPendingRecord(requester)
	second := newPendingRecord(requester)

	store := NewStore()
	store.Ingest(groupsFixture(first))
	store.Ingest(groupsFixture(second))

	_, ok := store.Find(first.ID)
	assert.False(t, ok, "old snapshot should be dropped")

	_, ok = store.Find(second.ID)
	assert.True(t, ok)
}

func TestStore_ApplyUpdateReturnsRefreshedRecord(t *testing.T) {
	requester := model.Actor{ID: uuid.New(), Name: "Requester"}
	reviewer := model.Actor{ID: uuid.New(), Name: "Actor A"}

	record := newPendingRecord(requester)

	store := NewStore()
	store.Ingest(groupsFixture(record))

	// The server confirms the grant and returns a fresh snapshot.
	granted := record
	granted.Status = model.StatusGranted
	granted.UpdatedBy = util.Some(reviewer)

	got, ok := store.ApplyUpdate(groupsFixture(granted), record.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusGranted, got.Status)
	require.True(t, got.UpdatedBy.IsSet)
	assert.Equal(t, reviewer, got.UpdatedBy.Val)

	// The stale reference is gone from the store as well.
	refetched, ok := store.Find(record.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusGranted, refetched.Status)
}

func TestStore_GroupsReturnsCopy(t *testing.T) {
	requester := model.Actor{ID: uuid.New(), Name: "Requester"}
	record := newPendingRecord(requester)

	store := NewStore()
	store.Ingest(groupsFixture(record))

	groups := store.Groups()
	groups[0].Requests[0].Status = model.StatusDeclined

	got, ok := store.Find(record.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusPending, got.Status, "mutating the copy must not touch the store")
}

func TestStore_IngestCopiesInput(t *testing.T) {
	requester := model.Actor{ID: uuid.New(), Name: "Requester"}
	record := newPendingRecord(requester)

	input := groupsFixture(record)
	store := NewStore()
	store.Ingest(input)

	input[0].Requests[0].Status = model.StatusRevoked

	got, ok := store.Find(record.ID)
	require.True(t, ok)
	assert.Equal(t, model.StatusPending, got.Status)
}
