package features_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welli-app/retention-go/pkg/features"
)

func TestEncodeTimeOfDay(t *testing.T) {
	assert.Equal(t, 0.0, features.EncodeTimeOfDay("morning"))
	assert.Equal(t, 1.0, features.EncodeTimeOfDay("afternoon"))
	assert.Equal(t, 2.0, features.EncodeTimeOfDay("evening"))

	// Unknown values default to morning
	assert.Equal(t, 0.0, features.EncodeTimeOfDay("midnight"))
	assert.Equal(t, 0.0, features.EncodeTimeOfDay(""))
}

func TestUserBehavior_Vector(t *testing.T) {
	b := features.UserBehavior{
		UserID:                   "user_001",
		SessionCount:             12,
		AvgSessionDuration:       8.5,
		StreakLength:             4,
		PreferredTimeOfDay:       "evening",
		ContentEngagementRate:    0.75,
		NotificationResponseRate: 0.4,
	}

	v := b.Vector()
	require.Len(t, v, features.ClusteringFeatureCount)
	assert.Equal(t, []float64{12, 8.5, 4, 2, 0.75, 0.4}, v)
}

func TestFitScaler(t *testing.T) {
	X := [][]float64{
		{1, 10},
		{3, 20},
		{5, 30},
	}

	scaler := features.FitScaler(X)
	require.NotNil(t, scaler)
	assert.Equal(t, []float64{3, 20}, scaler.Mean)

	// Scaled data has zero mean
	scaled := scaler.TransformAll(X)
	for col := 0; col < 2; col++ {
		var sum float64
		for _, row := range scaled {
			sum += row[col]
		}
		assert.InDelta(t, 0.0, sum, 1e-9)
	}
}

func TestFitScaler_ZeroVariance(t *testing.T) {
	X := [][]float64{
		{5, 1},
		{5, 2},
		{5, 3},
	}

	scaler := features.FitScaler(X)
	require.NotNil(t, scaler)

	// A constant column must not divide by zero
	scaled := scaler.Transform([]float64{5, 2})
	assert.Equal(t, 0.0, scaled[0])
	assert.InDelta(t, 0.0, scaled[1], 1e-9)
}

func TestScaler_NilTransform(t *testing.T) {
	var scaler *features.Scaler
	x := []float64{1, 2, 3}

	// A nil scaler passes input through unchanged
	assert.Equal(t, x, scaler.Transform(x))
}

func TestEuclideanDistance(t *testing.T) {
	assert.InDelta(t, 5.0, features.EuclideanDistance([]float64{0, 0}, []float64{3, 4}), 1e-9)
	assert.Equal(t, 0.0, features.EuclideanDistance([]float64{1, 1}, []float64{1, 1}))
}
