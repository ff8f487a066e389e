// Package features prepares behavioral feature vectors for the segment and
// churn models, and provides the standard scaler both models share.
package features

import "math"

// Time-of-day encoding for the preferred_time_of_day feature.
const (
	timeMorning   = 0
	timeAfternoon = 1
	timeEvening   = 2
)

// EncodeTimeOfDay encodes a time-of-day string as an ordinal feature.
// Unknown values fall back to morning.
func EncodeTimeOfDay(t string) float64 {
	switch t {
	case "afternoon":
		return timeAfternoon
	case "evening":
		return timeEvening
	default:
		return timeMorning
	}
}

// UserBehavior contains a user's early engagement metrics, the input to
// behavioral clustering.
type UserBehavior struct {
	// UserID identifies the user.
	UserID string `json:"user_id"`

	// SessionCount is the number of app sessions.
	SessionCount int `json:"session_count"`

	// AvgSessionDuration is the average session duration in minutes.
	AvgSessionDuration float64 `json:"avg_session_duration"`

	// StreakLength is the current streak in days.
	StreakLength int `json:"streak_length"`

	// PreferredTimeOfDay is when the user tends to open the app:
	// "morning", "afternoon", or "evening".
	PreferredTimeOfDay string `json:"preferred_time_of_day"`

	// ContentEngagementRate is the fraction of started content completed (0-1).
	ContentEngagementRate float64 `json:"content_engagement_rate"`

	// NotificationResponseRate is the fraction of notifications acted upon (0-1).
	NotificationResponseRate float64 `json:"notification_response_rate"`
}

// Vector returns the clustering feature vector for a user, in the fixed
// order the segment model was trained with.
func (b UserBehavior) Vector() []float64 {
	return []float64{
		float64(b.SessionCount),
		b.AvgSessionDuration,
		float64(b.StreakLength),
		EncodeTimeOfDay(b.PreferredTimeOfDay),
		b.ContentEngagementRate,
		b.NotificationResponseRate,
	}
}

// ClusteringFeatureCount is the dimensionality of the clustering vector.
const ClusteringFeatureCount = 6

// Scaler standardizes features to zero mean and unit variance,
// matching the scaling the models were fitted with.
type Scaler struct {
	// Mean holds the per-feature means.
	Mean []float64 `json:"mean"`

	// Std holds the per-feature standard deviations.
	Std []float64 `json:"std"`
}

// FitScaler computes per-feature mean and standard deviation over a dataset.
//
// Features with zero variance get a standard deviation of 1 so that
// Transform leaves them centered but unscaled.
func FitScaler(X [][]float64) *Scaler {
	if len(X) == 0 {
		return &Scaler{}
	}

	n := float64(len(X))
	dims := len(X[0])

	mean := make([]float64, dims)
	for _, row := range X {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= n
	}

	std := make([]float64, dims)
	for _, row := range X {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] == 0 {
			std[j] = 1
		}
	}

	return &Scaler{Mean: mean, Std: std}
}

// Transform standardizes a single feature vector.
//
// A nil or empty scaler returns the vector unchanged, so models trained
// on raw features keep working.
func (s *Scaler) Transform(x []float64) []float64 {
	if s == nil || len(s.Mean) == 0 {
		return x
	}

	out := make([]float64, len(x))
	for i, v := range x {
		if i < len(s.Mean) && i < len(s.Std) {
			out[i] = (v - s.Mean[i]) / s.Std[i]
		} else {
			out[i] = v
		}
	}
	return out
}

// TransformAll standardizes a dataset row by row.
func (s *Scaler) TransformAll(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = s.Transform(row)
	}
	return out
}

// EuclideanDistance computes the Euclidean distance between two vectors.
// Mismatched lengths compare only the shared prefix.
func EuclideanDistance(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var sum float64
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
