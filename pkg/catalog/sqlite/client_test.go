package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welli-app/retention-go/pkg/catalog"
	sqliteCatalog "github.com/welli-app/retention-go/pkg/catalog/sqlite"
)

func setupSQLiteTest(t *testing.T) catalog.Store {
	t.Helper()

	config := &sqliteCatalog.Config{
		DBPath:             filepath.Join(t.TempDir(), "test_welli.db"),
		TableName:          "content_catalog",
		EmbeddingModelDims: 3,
	}

	store, err := sqliteCatalog.NewClient(config)
	require.NoError(t, err)
	require.NotNil(t, store)

	t.Cleanup(func() { _ = store.Close() })

	return store
}

func testItem(id string, embedding []float64) *catalog.Item {
	return &catalog.Item{
		ID:          id,
		Title:       "Morning Meditation",
		Description: "A short guided meditation to start the day",
		Category:    "meditation",
		Tags:        []string{"stress", "morning"},
		Embedding:   embedding,
	}
}

func TestSQLiteClient_Insert(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	err := store.Insert(ctx, testItem("content_001", []float64{0.1, 0.2, 0.3}))
	assert.NoError(t, err)

	count, err := store.Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSQLiteClient_InsertReplacesExisting(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	item := testItem("content_001", []float64{0.1, 0.2, 0.3})
	require.NoError(t, store.Insert(ctx, item))

	item.Title = "Evening Meditation"
	require.NoError(t, store.Insert(ctx, item))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	retrieved, err := store.Get(ctx, "content_001")
	require.NoError(t, err)
	assert.Equal(t, "Evening Meditation", retrieved.Title)
}

func TestSQLiteClient_InsertBatch(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	items := []*catalog.Item{
		testItem("content_001", []float64{1, 0, 0}),
		testItem("content_002", []float64{0, 1, 0}),
		testItem("content_003", []float64{0, 0, 1}),
	}

	err := store.InsertBatch(ctx, items)
	assert.NoError(t, err)

	count, err := store.Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestSQLiteClient_Get(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	item := testItem("content_001", []float64{0.1, 0.2, 0.3})
	require.NoError(t, store.Insert(ctx, item))

	retrieved, err := store.Get(ctx, "content_001")
	assert.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, item.ID, retrieved.ID)
	assert.Equal(t, item.Title, retrieved.Title)
	assert.Equal(t, item.Description, retrieved.Description)
	assert.Equal(t, item.Category, retrieved.Category)
	assert.Equal(t, item.Tags, retrieved.Tags)
	assert.Equal(t, item.Embedding, retrieved.Embedding)
}

func TestSQLiteClient_GetNotFound(t *testing.T) {
	store := setupSQLiteTest(t)

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)
}

func TestSQLiteClient_Search(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, store.InsertBatch(ctx, []*catalog.Item{
		testItem("content_001", []float64{1, 0, 0}),
		testItem("content_002", []float64{0.9, 0.1, 0}),
		testItem("content_003", []float64{0, 1, 0}),
	}))

	results, err := store.Search(ctx, []float64{1, 0, 0}, &catalog.SearchOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Results are ordered by cosine similarity, best match first.
	assert.Equal(t, "content_001", results[0].ID)
	assert.Equal(t, "content_002", results[1].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestSQLiteClient_SearchCategoryFilter(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	meditation := testItem("content_001", []float64{1, 0, 0})
	exercise := testItem("content_002", []float64{1, 0, 0})
	exercise.Category = "exercise"
	require.NoError(t, store.InsertBatch(ctx, []*catalog.Item{meditation, exercise}))

	results, err := store.Search(ctx, []float64{1, 0, 0}, &catalog.SearchOptions{
		Category: "exercise",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "content_002", results[0].ID)
}

func TestSQLiteClient_SearchMinScore(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, store.InsertBatch(ctx, []*catalog.Item{
		testItem("content_001", []float64{1, 0, 0}),
		testItem("content_002", []float64{0, 1, 0}),
	}))

	results, err := store.Search(ctx, []float64{1, 0, 0}, &catalog.SearchOptions{
		MinScore: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "content_001", results[0].ID)
}

func TestSQLiteClient_Delete(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testItem("content_001", []float64{0.1, 0.2, 0.3})))

	err := store.Delete(ctx, "content_001")
	assert.NoError(t, err)

	_, err = store.Get(ctx, "content_001")
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)
}

func TestSQLiteClient_DeleteNotFound(t *testing.T) {
	store := setupSQLiteTest(t)

	err := store.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, catalog.ErrItemNotFound)
}

func TestSQLiteClient_Clear(t *testing.T) {
	store := setupSQLiteTest(t)
	ctx := context.Background()

	require.NoError(t, store.InsertBatch(ctx, []*catalog.Item{
		testItem("content_001", []float64{1, 0, 0}),
		testItem("content_002", []float64{0, 1, 0}),
	}))

	err := store.Clear(ctx)
	assert.NoError(t, err)

	count, err := store.Count(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}
