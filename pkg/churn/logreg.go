// Package churn estimates the probability that a user disengages, from
// tabular behavioral features, and turns that probability into a risk level,
// contributing factors, and an intervention recommendation.
package churn

import (
	"errors"
	"math"
)

// LogisticRegression is a fitted binary classifier over scaled features.
type LogisticRegression struct {
	// Weights holds the per-feature coefficients.
	Weights []float64 `json:"weights"`

	// Bias is the intercept term.
	Bias float64 `json:"bias"`
}

// PredictProba returns the probability of the positive class (churn)
// for a scaled feature vector: sigmoid(w·x + b).
func (m *LogisticRegression) PredictProba(x []float64) float64 {
	z := m.Bias
	for i, w := range m.Weights {
		if i < len(x) {
			z += w * x[i]
		}
	}
	return sigmoid(z)
}

// TrainOptions controls logistic regression training.
type TrainOptions struct {
	// Epochs is the number of passes over the dataset. Default 200.
	Epochs int

	// LearningRate is the gradient descent step size. Default 0.1.
	LearningRate float64
}

// FitLogistic trains a logistic regression classifier with batch gradient
// descent on a scaled dataset.
//
// Parameters:
//   - X: Scaled feature vectors
//   - y: Labels (1 = churned, 0 = retained), same length as X
//   - opts: Training options
//
// Returns the fitted classifier, or an error on empty or mismatched input.
func FitLogistic(X [][]float64, y []float64, opts TrainOptions) (*LogisticRegression, error) {
	if len(X) == 0 {
		return nil, errors.New("churn: empty training set")
	}
	if len(X) != len(y) {
		return nil, errors.New("churn: feature/label length mismatch")
	}

	epochs := opts.Epochs
	if epochs <= 0 {
		epochs = 200
	}
	lr := opts.LearningRate
	if lr <= 0 {
		lr = 0.1
	}

	dims := len(X[0])
	model := &LogisticRegression{Weights: make([]float64, dims)}
	n := float64(len(X))

	for epoch := 0; epoch < epochs; epoch++ {
		gradW := make([]float64, dims)
		var gradB float64

		for i, x := range X {
			err := model.PredictProba(x) - y[i]
			for j := 0; j < dims && j < len(x); j++ {
				gradW[j] += err * x[j]
			}
			gradB += err
		}

		for j := range model.Weights {
			model.Weights[j] -= lr * gradW[j] / n
		}
		model.Bias -= lr * gradB / n
	}

	return model, nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// Features contains the behavioral inputs to churn prediction.
type Features struct {
	// UserID identifies the user.
	UserID string `json:"user_id"`

	// DaysSinceSignup is the account age in days.
	DaysSinceSignup int `json:"days_since_signup"`

	// TotalSessions is the lifetime session count.
	TotalSessions int `json:"total_sessions"`

	// AvgSessionDuration is the average session duration in minutes.
	AvgSessionDuration float64 `json:"avg_session_duration"`

	// StreakLength is the current streak in days.
	StreakLength int `json:"streak_length"`

	// LastLoginDaysAgo is the number of days since the last login.
	LastLoginDaysAgo int `json:"last_login_days_ago"`

	// ContentCompletionRate is the fraction of started content completed (0-1).
	ContentCompletionRate float64 `json:"content_completion_rate"`

	// NotificationResponseRate is the fraction of notifications acted upon (0-1).
	NotificationResponseRate float64 `json:"notification_response_rate"`

	// GoalProgressPercentage is progress toward the stated goal (0-1).
	GoalProgressPercentage float64 `json:"goal_progress_percentage"`
}

// Vector returns the churn feature vector in the fixed order the
// classifier was trained with.
func (f Features) Vector() []float64 {
	return []float64{
		float64(f.DaysSinceSignup),
		float64(f.TotalSessions),
		f.AvgSessionDuration,
		float64(f.StreakLength),
		float64(f.LastLoginDaysAgo),
		f.ContentCompletionRate,
		f.NotificationResponseRate,
		f.GoalProgressPercentage,
	}
}

// FeatureCount is the dimensionality of the churn feature vector.
const FeatureCount = 8
