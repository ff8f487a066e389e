package churn

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/welli-app/retention-go/pkg/features"
)

// Risk levels assigned from churn probability.
const (
	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskLow    = "low"
)

// Model is a persisted churn prediction artifact: a logistic regression
// classifier plus the scaler it was trained with.
type Model struct {
	// LogisticRegression is the fitted classifier.
	LogisticRegression *LogisticRegression `json:"logistic_regression"`

	// Scaler normalizes raw features before classification.
	Scaler *features.Scaler `json:"scaler"`
}

// Prediction is the outcome of a churn risk evaluation for one user.
type Prediction struct {
	// UserID identifies the user.
	UserID string `json:"user_id"`

	// ChurnProbability is the estimated probability of churn, rounded
	// to three decimal places.
	ChurnProbability float64 `json:"churn_probability"`

	// RiskLevel is "high", "medium" or "low".
	RiskLevel string `json:"risk_level"`

	// RecommendedIntervention is a retention action suggested for
	// this risk level and factor combination.
	RecommendedIntervention string `json:"recommended_intervention"`

	// Factors lists the behavioral signals contributing to the risk.
	Factors []string `json:"factors_contributing_to_risk"`
}

// LoadModel reads a churn model artifact from a JSON file.
//
// Parameters:
//   - path: Path to the artifact file
//
// Returns the model, or an error if the file is missing or malformed.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read churn model: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse churn model: %w", err)
	}
	if m.LogisticRegression == nil || len(m.LogisticRegression.Weights) == 0 {
		return nil, fmt.Errorf("churn model %s has no classifier weights", path)
	}

	return &m, nil
}

// Save writes the model artifact to a JSON file, creating parent
// directories as needed.
func (m *Model) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode churn model: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Train fits a churn model on raw feature vectors: the scaler is fitted
// first and the classifier is trained on the scaled data.
//
// Parameters:
//   - X: Raw feature vectors (see Features.Vector for the column order)
//   - y: Labels (1 = churned, 0 = retained)
//   - opts: Training options
//
// Returns the fitted model or an error.
func Train(X [][]float64, y []float64, opts TrainOptions) (*Model, error) {
	scaler := features.FitScaler(X)

	lr, err := FitLogistic(scaler.TransformAll(X), y, opts)
	if err != nil {
		return nil, err
	}

	return &Model{LogisticRegression: lr, Scaler: scaler}, nil
}

// Predict evaluates churn risk for one user.
//
// The probability comes from the classifier over scaled features; the
// contributing factors come from threshold rules over the raw features,
// so they stay interpretable regardless of the fitted scaler.
func (m *Model) Predict(f Features) *Prediction {
	raw := f.Vector()
	prob := m.LogisticRegression.PredictProba(m.Scaler.Transform(raw))

	var level string
	switch {
	case prob >= 0.7:
		level = RiskHigh
	case prob >= 0.4:
		level = RiskMedium
	default:
		level = RiskLow
	}

	factors := riskFactors(f, prob)

	return &Prediction{
		UserID:                  f.UserID,
		ChurnProbability:        math.Round(prob*1000) / 1000,
		RiskLevel:               level,
		RecommendedIntervention: intervention(level, factors),
		Factors:                 factors,
	}
}

// riskFactors identifies the behavioral signals contributing to the
// churn probability.
func riskFactors(f Features, prob float64) []string {
	factors := []string{}

	if f.LastLoginDaysAgo > 7 {
		factors = append(factors, "Extended period without app usage")
	} else if f.LastLoginDaysAgo > 3 {
		factors = append(factors, "Several days since last login")
	}

	if f.TotalSessions < 3 && f.DaysSinceSignup > 7 {
		factors = append(factors, "Low session count relative to signup time")
	}

	if f.ContentCompletionRate < 0.3 {
		factors = append(factors, "Low content completion rate")
	}

	if f.NotificationResponseRate < 0.2 {
		factors = append(factors, "Poor notification engagement")
	}

	if f.GoalProgressPercentage < 0.2 {
		factors = append(factors, "Limited progress toward wellness goals")
	}

	if len(factors) == 0 && prob > 0.5 {
		factors = append(factors, "General engagement decline patterns")
	}

	return factors
}

// intervention maps a risk level and its factors to a retention action.
func intervention(level string, factors []string) string {
	switch level {
	case RiskHigh:
		if containsFactor(factors, "Extended period without app usage") {
			return "Send personalized re-engagement campaign with wellness goal reminder"
		}
		if containsFactor(factors, "Low content completion rate") {
			return "Offer shorter, easier content options with immediate rewards"
		}
		return "Provide one-on-one check-in with personalized motivation"

	case RiskMedium:
		if strings.Contains(strings.ToLower(strings.Join(factors, " ")), "notification engagement") {
			return "Optimize notification timing and personalize message content"
		}
		return "Introduce streak-building challenges with social elements"

	default:
		return "Continue current engagement patterns with occasional check-ins"
	}
}

func containsFactor(factors []string, want string) bool {
	for _, f := range factors {
		if f == want {
			return true
		}
	}
	return false
}
