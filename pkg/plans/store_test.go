package plans_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welli-app/retention-go/pkg/coach"
	"github.com/welli-app/retention-go/pkg/plans"
)

func setupPlanStore(t *testing.T) *plans.Store {
	t.Helper()

	store, err := plans.NewStore(&plans.Config{
		DBPath: filepath.Join(t.TempDir(), "test_plans.db"),
	})
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() { _ = store.Close() })

	return store
}

func testPlan(id int64, userID, planDate string) *coach.Plan {
	return &coach.Plan{
		ID:                  id,
		UserID:              userID,
		PlanDate:            planDate,
		MotivationalMessage: "Small steps add up.",
		DailyItems: []coach.PlanItem{
			{
				Activity:        "Morning breathing exercise",
				DurationMinutes: 10,
				Description:     "Ten slow breaths before checking your phone",
				Category:        "meditation",
			},
		},
		EstimatedTotalTime: 10,
		FollowUpTime:       "evening",
	}
}

func TestStore_SaveAndGet(t *testing.T) {
	store := setupPlanStore(t)
	ctx := context.Background()

	plan := testPlan(1001, "user_42", "2026-03-15")
	require.NoError(t, store.Save(ctx, plan))

	record, err := store.Get(ctx, 1001)
	require.NoError(t, err)
	require.NotNil(t, record.Plan)

	assert.Equal(t, plan.UserID, record.Plan.UserID)
	assert.Equal(t, plan.PlanDate, record.Plan.PlanDate)
	assert.Equal(t, plan.MotivationalMessage, record.Plan.MotivationalMessage)
	assert.Equal(t, plan.DailyItems, record.Plan.DailyItems)
	assert.False(t, record.Completed)
	assert.True(t, record.CompletedAt.IsZero())
}

func TestStore_SaveRequiresID(t *testing.T) {
	store := setupPlanStore(t)

	err := store.Save(context.Background(), testPlan(0, "user_42", "2026-03-15"))
	assert.Error(t, err)

	err = store.Save(context.Background(), nil)
	assert.Error(t, err)
}

func TestStore_GetNotFound(t *testing.T) {
	store := setupPlanStore(t)

	_, err := store.Get(context.Background(), 999)
	assert.ErrorIs(t, err, plans.ErrNotFound)
}

func TestStore_Complete(t *testing.T) {
	store := setupPlanStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testPlan(2001, "user_42", "2026-03-15")))

	err := store.Complete(ctx, 2001)
	assert.NoError(t, err)

	record, err := store.Get(ctx, 2001)
	require.NoError(t, err)
	assert.True(t, record.Completed)
	assert.False(t, record.CompletedAt.IsZero())
}

func TestStore_CompleteNotFound(t *testing.T) {
	store := setupPlanStore(t)

	err := store.Complete(context.Background(), 999)
	assert.ErrorIs(t, err, plans.ErrNotFound)
}

func TestStore_ListByUser(t *testing.T) {
	store := setupPlanStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testPlan(1, "user_a", "2026-03-13")))
	require.NoError(t, store.Save(ctx, testPlan(2, "user_a", "2026-03-15")))
	require.NoError(t, store.Save(ctx, testPlan(3, "user_a", "2026-03-14")))
	require.NoError(t, store.Save(ctx, testPlan(4, "user_b", "2026-03-15")))

	records, err := store.ListByUser(ctx, "user_a", 0)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Most recent plan date first.
	assert.Equal(t, "2026-03-15", records[0].Plan.PlanDate)
	assert.Equal(t, "2026-03-14", records[1].Plan.PlanDate)
	assert.Equal(t, "2026-03-13", records[2].Plan.PlanDate)
}

func TestStore_ListByUserLimit(t *testing.T) {
	store := setupPlanStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testPlan(1, "user_a", "2026-03-13")))
	require.NoError(t, store.Save(ctx, testPlan(2, "user_a", "2026-03-15")))

	records, err := store.ListByUser(ctx, "user_a", 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "2026-03-15", records[0].Plan.PlanDate)
}

func TestStore_ListByUserEmpty(t *testing.T) {
	store := setupPlanStore(t)

	records, err := store.ListByUser(context.Background(), "nobody", 0)
	assert.NoError(t, err)
	assert.Empty(t, records)
}
