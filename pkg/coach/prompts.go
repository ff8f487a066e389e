package coach

import (
	"fmt"
	"strings"
)

// systemPrompt instructs the model to act as a wellness micro-coach and
// to respond with strict JSON the planner can decode.
const systemPrompt = `You are a supportive wellness micro-coach. Your role is to create personalized,
achievable daily wellness plans that help users build sustainable habits.

Guidelines:
- Keep plans simple with 1-2 activities maximum
- Focus on small wins and building momentum
- Be encouraging and supportive in tone
- Consider the user's available time and current streak
- Adapt recommendations based on recent activities
- Include specific, actionable items with time estimates
- Provide a motivational message

Respond ONLY with valid JSON in this exact format:
{
    "motivational_message": "Brief, encouraging message",
    "daily_items": [
        {
            "activity": "Specific activity name",
            "duration_minutes": 10,
            "description": "Clear description of what to do",
            "category": "meditation|exercise|nutrition|sleep|mental_health"
        }
    ],
    "follow_up_time": "evening"
}`

// buildUserPrompt renders the per-user planning prompt from the request
// context, applying defaults for missing fields.
func buildUserPrompt(req *PlanRequest) string {
	goal := req.Goal
	if goal == "" {
		goal = "improve overall wellness"
	}
	availableTime := req.AvailableTimeMinutes
	if availableTime <= 0 {
		availableTime = 15
	}
	preferredTime := req.PreferredTime
	if preferredTime == "" {
		preferredTime = "morning"
	}
	recent := "None"
	if len(req.RecentActivities) > 0 {
		recent = strings.Join(req.RecentActivities, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Create a personalized wellness plan for today.

User Context:
- Goal: %s
- Current streak: %d days
- Recent activities: %s
- Available time: %d minutes
- Preferred time: %s`, goal, req.CurrentStreak, recent, availableTime, preferredTime)

	if req.Mood != "" {
		fmt.Fprintf(&b, "\n- Current mood: %s", req.Mood)
	}

	fmt.Fprintf(&b, `

Create a plan that:
- Fits within %d minutes
- Builds on their %d-day streak
- Complements recent activities: %s
- Aligns with their goal: %s`, availableTime, req.CurrentStreak, recent, goal)

	return b.String()
}
