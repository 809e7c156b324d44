package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/grantflow/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	grantID := "g1"
	entry1 := &activity.ActivityEntry{
		EntityID:     "family-foundation",
		GrantID:      &grantID,
		ActivityType: activity.TypeGrantCreated,
		Summary:      "Created grant",
		Details:      `{"id":"g1"}`,
	}
	entry2 := &activity.ActivityEntry{
		EntityID:     "family-foundation",
		GrantID:      &grantID,
		ActivityType: activity.TypeStageTransition,
		Actor:        "officer",
		Summary:      "draft -> submitted",
	}

	require.NoError(t, repo.Log(ctx, "client1", entry1))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.Log(ctx, "client1", entry2))
	require.NotZero(t, entry2.ID)

	entries, err := repo.List(ctx, "client1", activity.ListActivityOptions{GrantID: &grantID})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entry2.ActivityType, entries[0].ActivityType)
	require.Equal(t, "officer", entries[0].Actor)
	require.Equal(t, entry1.ActivityType, entries[1].ActivityType)
}

func TestActivityRepository_FiltersAndClientIsolation(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	grantID := "g1"
	require.NoError(t, repo.Log(ctx, "client1", &activity.ActivityEntry{
		EntityID: "e1", GrantID: &grantID, ActivityType: activity.TypeTransitionBlocked, Summary: "blocked",
	}))
	require.NoError(t, repo.Log(ctx, "client1", &activity.ActivityEntry{
		EntityID: "e1", ActivityType: activity.TypeBudgetSet, Summary: "budget",
	}))
	require.NoError(t, repo.Log(ctx, "client2", &activity.ActivityEntry{
		EntityID: "e1", ActivityType: activity.TypeBudgetSet, Summary: "other client",
	}))

	blocked := activity.TypeTransitionBlocked
	entries, err := repo.List(ctx, "client1", activity.ListActivityOptions{EntityID: "e1", ActivityType: &blocked})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "g1", *entries[0].GrantID)

	entries, err = repo.List(ctx, "client1", activity.ListActivityOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Nil(t, entries[0].GrantID)

	entries, err = repo.List(ctx, "client2", activity.ListActivityOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
