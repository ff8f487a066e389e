package coach_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welli-app/retention-go/pkg/coach"
	"github.com/welli-app/retention-go/pkg/llm"
)

// mockLLM returns a scripted response and records the messages it was
// called with.
type mockLLM struct {
	response string
	err      error
	messages []llm.Message
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts ...llm.GenerateOption) (string, error) {
	return m.GenerateWithMessages(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func (m *mockLLM) GenerateWithMessages(ctx context.Context, messages []llm.Message, opts ...llm.GenerateOption) (string, error) {
	m.messages = messages
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) Close() error { return nil }

const planJSON = `{
	"motivational_message": "Day 5 of your streak, keep the momentum going!",
	"daily_items": [
		{"activity": "Morning breathing", "duration_minutes": 5, "description": "Box breathing by an open window.", "category": "meditation"},
		{"activity": "Desk stretch", "duration_minutes": 10, "description": "Neck and shoulder release.", "category": "exercise"}
	],
	"follow_up_time": "evening"
}`

func TestGenerateDailyPlan(t *testing.T) {
	mock := &mockLLM{response: planJSON}
	c := coach.NewCoach(mock)

	plan, err := c.GenerateDailyPlan(context.Background(), &coach.PlanRequest{
		UserID:               "user_001",
		Goal:                 "reduce stress",
		CurrentStreak:        4,
		RecentActivities:     []string{"evening walk"},
		AvailableTimeMinutes: 20,
		PreferredTime:        "morning",
	})
	require.NoError(t, err)

	assert.Equal(t, "user_001", plan.UserID)
	assert.Equal(t, "Day 5 of your streak, keep the momentum going!", plan.MotivationalMessage)
	require.Len(t, plan.DailyItems, 2)
	assert.Equal(t, coach.CategoryMeditation, plan.DailyItems[0].Category)
	assert.Equal(t, 15, plan.EstimatedTotalTime)
	assert.Equal(t, "evening", plan.FollowUpTime)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, plan.PlanDate)

	// The prompt carries the user context
	require.Len(t, mock.messages, 2)
	assert.Equal(t, "system", mock.messages[0].Role)
	assert.Contains(t, mock.messages[1].Content, "reduce stress")
	assert.Contains(t, mock.messages[1].Content, "4-day streak")
	assert.Contains(t, mock.messages[1].Content, "evening walk")
}

func TestGenerateDailyPlan_CodeFences(t *testing.T) {
	mock := &mockLLM{response: "```json\n" + planJSON + "\n```"}
	c := coach.NewCoach(mock)

	plan, err := c.GenerateDailyPlan(context.Background(), &coach.PlanRequest{UserID: "u"})
	require.NoError(t, err)
	assert.Len(t, plan.DailyItems, 2)
}

func TestGenerateDailyPlan_Defaults(t *testing.T) {
	mock := &mockLLM{response: `{"daily_items": []}`}
	c := coach.NewCoach(mock)

	plan, err := c.GenerateDailyPlan(context.Background(), &coach.PlanRequest{UserID: "u"})
	require.NoError(t, err)

	assert.Equal(t, "Have a great wellness day!", plan.MotivationalMessage)
	assert.Equal(t, "evening", plan.FollowUpTime)
	assert.Equal(t, 0, plan.EstimatedTotalTime)
	assert.NotNil(t, plan.DailyItems)

	// Missing request fields fall back to prompt defaults
	assert.Contains(t, mock.messages[1].Content, "improve overall wellness")
	assert.Contains(t, mock.messages[1].Content, "15 minutes")
	assert.Contains(t, mock.messages[1].Content, "morning")
}

func TestGenerateDailyPlan_InvalidJSON(t *testing.T) {
	mock := &mockLLM{response: "Here is your plan: take a walk!"}
	c := coach.NewCoach(mock)

	_, err := c.GenerateDailyPlan(context.Background(), &coach.PlanRequest{UserID: "u"})
	assert.Error(t, err)
}

func TestGenerateDailyPlan_LLMError(t *testing.T) {
	mock := &mockLLM{err: errors.New("rate limited")}
	c := coach.NewCoach(mock)

	_, err := c.GenerateDailyPlan(context.Background(), &coach.PlanRequest{UserID: "u"})
	assert.ErrorContains(t, err, "rate limited")
}
