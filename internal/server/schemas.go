package server

import (
	"github.com/welli-app/retention-go/pkg/coach"
)

// goalMatchRequest is the body for POST /api/v1/match-goal.
type goalMatchRequest struct {
	// Goal is the user's wellness goal in natural language.
	Goal string `json:"goal" validate:"required"`

	// Limit is the number of content recommendations to return.
	Limit int `json:"limit" validate:"omitempty,min=1,max=50"`
}

// clusterUserRequest is the body for POST /api/v1/cluster-user.
type clusterUserRequest struct {
	UserID                   string  `json:"user_id" validate:"required"`
	SessionCount             int     `json:"session_count" validate:"min=0"`
	AvgSessionDuration       float64 `json:"avg_session_duration" validate:"min=0"`
	StreakLength             int     `json:"streak_length" validate:"min=0"`
	PreferredTimeOfDay       string  `json:"preferred_time_of_day" validate:"required,oneof=morning afternoon evening"`
	ContentEngagementRate    float64 `json:"content_engagement_rate" validate:"min=0,max=1"`
	NotificationResponseRate float64 `json:"notification_response_rate" validate:"min=0,max=1"`
}

// churnPredictionRequest is the body for POST /api/v1/predict-churn.
type churnPredictionRequest struct {
	UserID                   string  `json:"user_id" validate:"required"`
	DaysSinceSignup          int     `json:"days_since_signup" validate:"min=0"`
	TotalSessions            int     `json:"total_sessions" validate:"min=0"`
	AvgSessionDuration       float64 `json:"avg_session_duration" validate:"min=0"`
	StreakLength             int     `json:"streak_length" validate:"min=0"`
	LastLoginDaysAgo         int     `json:"last_login_days_ago" validate:"min=0"`
	ContentCompletionRate    float64 `json:"content_completion_rate" validate:"min=0,max=1"`
	NotificationResponseRate float64 `json:"notification_response_rate" validate:"min=0,max=1"`
	GoalProgressPercentage   float64 `json:"goal_progress_percentage" validate:"min=0,max=1"`
}

// dailyPlanRequest is the body for POST /api/v1/daily-plan.
type dailyPlanRequest struct {
	UserID               string   `json:"user_id" validate:"required"`
	Goal                 string   `json:"goal" validate:"required"`
	CurrentStreak        int      `json:"current_streak" validate:"min=0"`
	RecentActivities     []string `json:"recent_activities"`
	AvailableTimeMinutes int      `json:"available_time_minutes" validate:"omitempty,min=1"`
	PreferredTime        string   `json:"preferred_time" validate:"omitempty,oneof=morning afternoon evening"`
	Mood                 string   `json:"mood"`
}

func (r *dailyPlanRequest) toPlanRequest() *coach.PlanRequest {
	return &coach.PlanRequest{
		UserID:               r.UserID,
		Goal:                 r.Goal,
		CurrentStreak:        r.CurrentStreak,
		RecentActivities:     r.RecentActivities,
		AvailableTimeMinutes: r.AvailableTimeMinutes,
		PreferredTime:        r.PreferredTime,
		Mood:                 r.Mood,
	}
}

// errorResponse is the JSON body for error statuses.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// rootResponse is the body for GET /.
type rootResponse struct {
	Message   string   `json:"message"`
	Version   string   `json:"version"`
	Endpoints []string `json:"endpoints"`
}

// healthResponse is the body for GET /health.
type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// modelsHealthResponse is the body for GET /api/v1/models/health.
type modelsHealthResponse struct {
	Status string          `json:"status"`
	Models map[string]bool `json:"models"`
}
