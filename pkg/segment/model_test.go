package segment_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welli-app/retention-go/pkg/features"
	"github.com/welli-app/retention-go/pkg/segment"
)

// twoGroups returns clearly separable behavioral feature vectors.
func twoGroups() [][]float64 {
	return [][]float64{
		// Highly engaged users
		{30, 20, 14, 0, 0.9, 0.8},
		{28, 18, 12, 0, 0.85, 0.75},
		{32, 22, 15, 1, 0.95, 0.9},
		// Disengaged users
		{2, 3, 0, 2, 0.1, 0.05},
		{1, 2, 1, 2, 0.05, 0.1},
		{3, 4, 0, 1, 0.15, 0.0},
	}
}

func TestFit_SeparatesGroups(t *testing.T) {
	km, err := segment.Fit(twoGroups(), segment.FitOptions{K: 2, Seed: 42})
	require.NoError(t, err)
	require.Equal(t, 2, km.K())

	// All engaged users land in one cluster, all disengaged in the other
	engaged, _ := km.Predict([]float64{29, 19, 13, 0, 0.9, 0.8})
	disengaged, _ := km.Predict([]float64{2, 3, 0, 2, 0.1, 0.05})
	assert.NotEqual(t, engaged, disengaged)
}

func TestFit_Errors(t *testing.T) {
	_, err := segment.Fit(nil, segment.FitOptions{K: 2})
	assert.Error(t, err)

	_, err = segment.Fit([][]float64{{1, 2}}, segment.FitOptions{K: 3})
	assert.Error(t, err)
}

func TestTrain_Assign(t *testing.T) {
	model, err := segment.Train(twoGroups(), segment.FitOptions{K: 2, Seed: 1})
	require.NoError(t, err)
	model.Clusters = map[string]segment.ClusterMeta{
		"0": {Name: "Segment A", Description: "First segment"},
		"1": {Name: "Segment B", Description: "Second segment"},
	}

	assignment, err := model.Assign(features.UserBehavior{
		UserID:                   "user_001",
		SessionCount:             30,
		AvgSessionDuration:       20,
		StreakLength:             14,
		PreferredTimeOfDay:       "morning",
		ContentEngagementRate:    0.9,
		NotificationResponseRate: 0.8,
	})
	require.NoError(t, err)

	assert.Equal(t, "user_001", assignment.UserID)
	assert.Contains(t, []int{0, 1}, assignment.ClusterID)
	assert.NotEmpty(t, assignment.ClusterName)
	assert.GreaterOrEqual(t, assignment.ConfidenceScore, 0.0)
	assert.LessOrEqual(t, assignment.ConfidenceScore, 1.0)
}

func TestAssign_UnknownClusterMeta(t *testing.T) {
	model, err := segment.Train(twoGroups(), segment.FitOptions{K: 2, Seed: 1})
	require.NoError(t, err)
	// No cluster metadata configured

	assignment, err := model.Assign(features.UserBehavior{
		UserID:       "user_002",
		SessionCount: 2,
	})
	require.NoError(t, err)

	assert.Contains(t, assignment.ClusterName, "Cluster")
	assert.Equal(t, "Unknown cluster", assignment.ClusterDescription)
}

func TestModel_SaveLoad(t *testing.T) {
	model, err := segment.Train(twoGroups(), segment.FitOptions{K: 2, Seed: 7})
	require.NoError(t, err)
	model.Clusters = map[string]segment.ClusterMeta{
		"0": {Name: "Morning Larks", Description: "Early consistent users"},
	}

	path := filepath.Join(t.TempDir(), "clustering", "clustering_model.json")
	require.NoError(t, model.Save(path))

	loaded, err := segment.LoadModel(path)
	require.NoError(t, err)

	assert.Equal(t, model.KMeans.Centroids, loaded.KMeans.Centroids)
	assert.Equal(t, "Morning Larks", loaded.Clusters["0"].Name)

	// Loaded model assigns identically
	b := features.UserBehavior{UserID: "u", SessionCount: 30, AvgSessionDuration: 20, StreakLength: 14, ContentEngagementRate: 0.9, NotificationResponseRate: 0.8}
	orig, err := model.Assign(b)
	require.NoError(t, err)
	reloaded, err := loaded.Assign(b)
	require.NoError(t, err)
	assert.Equal(t, orig.ClusterID, reloaded.ClusterID)
	assert.InDelta(t, orig.ConfidenceScore, reloaded.ConfidenceScore, 1e-9)
}

func TestLoadModel_Missing(t *testing.T) {
	_, err := segment.LoadModel(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
