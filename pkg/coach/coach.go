// Package coach generates personalized daily wellness plans with an LLM.
//
// The coach sends the user's goal, streak and recent activity context to
// the model with a strict JSON contract, decodes the response, and fills
// in plan metadata like the date and the total time estimate.
package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/welli-app/retention-go/pkg/llm"
)

// Plan item categories the coach may choose from.
const (
	CategoryMeditation   = "meditation"
	CategoryExercise     = "exercise"
	CategoryNutrition    = "nutrition"
	CategorySleep        = "sleep"
	CategoryMentalHealth = "mental_health"
)

// PlanRequest carries the user context a daily plan is built from.
type PlanRequest struct {
	// UserID identifies the user.
	UserID string `json:"user_id"`

	// Goal is the user's stated wellness goal.
	Goal string `json:"goal"`

	// CurrentStreak is the user's streak in days.
	CurrentStreak int `json:"current_streak"`

	// RecentActivities lists activities completed recently.
	RecentActivities []string `json:"recent_activities"`

	// AvailableTimeMinutes is how much time the user has today.
	// Defaults to 15 when unset.
	AvailableTimeMinutes int `json:"available_time_minutes"`

	// PreferredTime is when the user prefers to practice
	// ("morning", "afternoon" or "evening"). Defaults to "morning".
	PreferredTime string `json:"preferred_time"`

	// Mood is an optional self-reported mood.
	Mood string `json:"mood,omitempty"`
}

// PlanItem is one activity in a daily plan.
type PlanItem struct {
	// Activity is the activity name.
	Activity string `json:"activity"`

	// DurationMinutes is the time estimate for the activity.
	DurationMinutes int `json:"duration_minutes"`

	// Description explains what to do.
	Description string `json:"description"`

	// Category is one of the plan item categories.
	Category string `json:"category"`
}

// Plan is a generated daily wellness plan.
type Plan struct {
	// ID is assigned when the plan is persisted.
	ID int64 `json:"id,omitempty"`

	// UserID identifies the user the plan was generated for.
	UserID string `json:"user_id"`

	// PlanDate is the plan's date in YYYY-MM-DD format.
	PlanDate string `json:"plan_date"`

	// MotivationalMessage is a short encouraging message.
	MotivationalMessage string `json:"motivational_message"`

	// DailyItems are the planned activities.
	DailyItems []PlanItem `json:"daily_items"`

	// EstimatedTotalTime is the sum of item durations in minutes.
	EstimatedTotalTime int `json:"estimated_total_time"`

	// FollowUpTime is when to check back in ("morning", "afternoon"
	// or "evening").
	FollowUpTime string `json:"follow_up_time"`
}

// planResponse is the JSON shape the model is asked to produce.
type planResponse struct {
	MotivationalMessage string     `json:"motivational_message"`
	DailyItems          []PlanItem `json:"daily_items"`
	FollowUpTime        string     `json:"follow_up_time"`
}

// Coach generates daily plans through an LLM provider.
type Coach struct {
	llm llm.Provider

	// now is swappable for tests.
	now func() time.Time
}

// NewCoach creates a coach backed by the given LLM provider.
func NewCoach(provider llm.Provider) *Coach {
	return &Coach{
		llm: provider,
		now: time.Now,
	}
}

// GenerateDailyPlan builds a personalized plan for today.
//
// Parameters:
//   - ctx: Context for cancellation
//   - req: User context for the plan
//
// Returns the generated plan, or an error if the model call fails or the
// response is not the expected JSON.
func (c *Coach) GenerateDailyPlan(ctx context.Context, req *PlanRequest) (*Plan, error) {
	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: buildUserPrompt(req)},
	}

	response, err := c.llm.GenerateWithMessages(ctx, messages,
		llm.WithTemperature(0.7),
		llm.WithMaxTokens(500),
	)
	if err != nil {
		return nil, fmt.Errorf("generate daily plan: %w", err)
	}

	var parsed planResponse
	if err := json.Unmarshal([]byte(removeCodeBlocks(response)), &parsed); err != nil {
		return nil, fmt.Errorf("parse daily plan response: %w", err)
	}

	if parsed.MotivationalMessage == "" {
		parsed.MotivationalMessage = "Have a great wellness day!"
	}
	if parsed.FollowUpTime == "" {
		parsed.FollowUpTime = "evening"
	}
	if parsed.DailyItems == nil {
		parsed.DailyItems = []PlanItem{}
	}

	totalTime := 0
	for _, item := range parsed.DailyItems {
		totalTime += item.DurationMinutes
	}

	return &Plan{
		UserID:              req.UserID,
		PlanDate:            c.now().Format("2006-01-02"),
		MotivationalMessage: parsed.MotivationalMessage,
		DailyItems:          parsed.DailyItems,
		EstimatedTotalTime:  totalTime,
		FollowUpTime:        parsed.FollowUpTime,
	}, nil
}

// removeCodeBlocks removes code blocks (```json ... ```) from response.
func removeCodeBlocks(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")
	return strings.TrimSpace(response)
}
