package churn_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welli-app/retention-go/pkg/churn"
	"github.com/welli-app/retention-go/pkg/features"
)

// identityModel returns a model whose scaler is a no-op and whose
// classifier output depends only on the bias, so tests can pin the
// probability exactly.
func identityModel(bias float64) *churn.Model {
	return &churn.Model{
		LogisticRegression: &churn.LogisticRegression{
			Weights: make([]float64, churn.FeatureCount),
			Bias:    bias,
		},
		Scaler: &features.Scaler{},
	}
}

// engagedFeatures returns features that trigger no risk factor rules.
func engagedFeatures() churn.Features {
	return churn.Features{
		UserID:                   "user_001",
		DaysSinceSignup:          30,
		TotalSessions:            25,
		AvgSessionDuration:       12,
		StreakLength:             8,
		LastLoginDaysAgo:         1,
		ContentCompletionRate:    0.8,
		NotificationResponseRate: 0.6,
		GoalProgressPercentage:   0.5,
	}
}

func TestPredict_RiskLevels(t *testing.T) {
	tests := []struct {
		name string
		bias float64
		want string
	}{
		{"high risk", 2.0, churn.RiskHigh},     // sigmoid(2) ~ 0.881
		{"medium risk", 0.0, churn.RiskMedium}, // sigmoid(0) = 0.5
		{"low risk", -2.0, churn.RiskLow},      // sigmoid(-2) ~ 0.119
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := identityModel(tt.bias)
			prediction := model.Predict(engagedFeatures())
			assert.Equal(t, tt.want, prediction.RiskLevel)
		})
	}
}

func TestPredict_ProbabilityRounded(t *testing.T) {
	model := identityModel(2.0)
	prediction := model.Predict(engagedFeatures())

	// sigmoid(2) = 0.8807970779..., rounded to 3 decimals
	assert.Equal(t, 0.881, prediction.ChurnProbability)
	assert.Equal(t, "user_001", prediction.UserID)
}

func TestPredict_RiskFactors(t *testing.T) {
	model := identityModel(0.0)

	f := engagedFeatures()
	f.LastLoginDaysAgo = 10
	f.TotalSessions = 1
	f.DaysSinceSignup = 14
	f.ContentCompletionRate = 0.1
	f.NotificationResponseRate = 0.1
	f.GoalProgressPercentage = 0.1

	prediction := model.Predict(f)
	assert.Equal(t, []string{
		"Extended period without app usage",
		"Low session count relative to signup time",
		"Low content completion rate",
		"Poor notification engagement",
		"Limited progress toward wellness goals",
	}, prediction.Factors)
}

func TestPredict_RecentButSlippingLogin(t *testing.T) {
	model := identityModel(0.0)

	f := engagedFeatures()
	f.LastLoginDaysAgo = 5

	prediction := model.Predict(f)
	assert.Contains(t, prediction.Factors, "Several days since last login")
	assert.NotContains(t, prediction.Factors, "Extended period without app usage")
}

func TestPredict_GeneralDeclineFallback(t *testing.T) {
	// No rule fires, but probability is above 0.5
	model := identityModel(1.0)
	prediction := model.Predict(engagedFeatures())

	assert.Equal(t, []string{"General engagement decline patterns"}, prediction.Factors)
}

func TestPredict_NoFactorsWhenHealthy(t *testing.T) {
	model := identityModel(-2.0)
	prediction := model.Predict(engagedFeatures())

	assert.Empty(t, prediction.Factors)
}

func TestPredict_Interventions(t *testing.T) {
	t.Run("high risk with extended absence", func(t *testing.T) {
		f := engagedFeatures()
		f.LastLoginDaysAgo = 14
		prediction := identityModel(2.0).Predict(f)
		assert.Equal(t, "Send personalized re-engagement campaign with wellness goal reminder",
			prediction.RecommendedIntervention)
	})

	t.Run("high risk with low completion", func(t *testing.T) {
		f := engagedFeatures()
		f.ContentCompletionRate = 0.1
		prediction := identityModel(2.0).Predict(f)
		assert.Equal(t, "Offer shorter, easier content options with immediate rewards",
			prediction.RecommendedIntervention)
	})

	t.Run("high risk otherwise", func(t *testing.T) {
		prediction := identityModel(2.0).Predict(engagedFeatures())
		assert.Equal(t, "Provide one-on-one check-in with personalized motivation",
			prediction.RecommendedIntervention)
	})

	t.Run("medium risk with notification factor", func(t *testing.T) {
		f := engagedFeatures()
		f.NotificationResponseRate = 0.1
		prediction := identityModel(0.0).Predict(f)
		assert.Equal(t, "Optimize notification timing and personalize message content",
			prediction.RecommendedIntervention)
	})

	t.Run("medium risk otherwise", func(t *testing.T) {
		prediction := identityModel(0.0).Predict(engagedFeatures())
		assert.Equal(t, "Introduce streak-building challenges with social elements",
			prediction.RecommendedIntervention)
	})

	t.Run("low risk", func(t *testing.T) {
		prediction := identityModel(-2.0).Predict(engagedFeatures())
		assert.Equal(t, "Continue current engagement patterns with occasional check-ins",
			prediction.RecommendedIntervention)
	})
}

func TestTrain_SeparatesClasses(t *testing.T) {
	// Churned users: long absences, few sessions. Retained: the opposite.
	var X [][]float64
	var y []float64
	churned := churn.Features{DaysSinceSignup: 30, TotalSessions: 2, AvgSessionDuration: 2, LastLoginDaysAgo: 14, ContentCompletionRate: 0.1, NotificationResponseRate: 0.05, GoalProgressPercentage: 0.1}
	retained := churn.Features{DaysSinceSignup: 30, TotalSessions: 40, AvgSessionDuration: 15, StreakLength: 10, LastLoginDaysAgo: 0, ContentCompletionRate: 0.9, NotificationResponseRate: 0.7, GoalProgressPercentage: 0.8}
	for i := 0; i < 10; i++ {
		X = append(X, churned.Vector())
		y = append(y, 1)
		X = append(X, retained.Vector())
		y = append(y, 0)
	}

	model, err := churn.Train(X, y, churn.TrainOptions{Epochs: 500, LearningRate: 0.5})
	require.NoError(t, err)

	churnedPrediction := model.Predict(churned)
	retainedPrediction := model.Predict(retained)
	assert.Greater(t, churnedPrediction.ChurnProbability, retainedPrediction.ChurnProbability)
}

func TestTrain_InputErrors(t *testing.T) {
	_, err := churn.FitLogistic(nil, nil, churn.TrainOptions{})
	assert.Error(t, err)

	_, err = churn.FitLogistic([][]float64{{1}}, []float64{1, 0}, churn.TrainOptions{})
	assert.Error(t, err)
}

func TestModel_SaveLoad(t *testing.T) {
	model, err := churn.Train(
		[][]float64{
			{30, 2, 2, 0, 14, 0.1, 0.05, 0.1},
			{30, 40, 15, 10, 0, 0.9, 0.7, 0.8},
		},
		[]float64{1, 0},
		churn.TrainOptions{},
	)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "churn_classification", "churn_model.json")
	require.NoError(t, model.Save(path))

	loaded, err := churn.LoadModel(path)
	require.NoError(t, err)
	assert.Equal(t, model.LogisticRegression.Weights, loaded.LogisticRegression.Weights)
	assert.Equal(t, model.LogisticRegression.Bias, loaded.LogisticRegression.Bias)

	f := engagedFeatures()
	assert.Equal(t, model.Predict(f).ChurnProbability, loaded.Predict(f).ChurnProbability)
}

func TestLoadModel_Missing(t *testing.T) {
	_, err := churn.LoadModel(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
