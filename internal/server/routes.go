package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/welli-app/retention-go/internal/logging"
	"github.com/welli-app/retention-go/pkg/churn"
	"github.com/welli-app/retention-go/pkg/core"
	"github.com/welli-app/retention-go/pkg/features"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Message: "Welli API is running",
		Version: s.version,
		Endpoints: []string{
			"/api/v1/match-goal",
			"/api/v1/cluster-user",
			"/api/v1/predict-churn",
			"/api/v1/daily-plan",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Service: "welli-api",
	})
}

func (s *Server) handleMatchGoal(w http.ResponseWriter, r *http.Request) {
	var req goalMatchRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	logging.Info().Str("goal", req.Goal).Msg("matching goal")

	result, err := s.engine.MatchGoal(r.Context(), req.Goal, req.Limit)
	if err != nil {
		s.writeEngineError(w, "goal matching failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleClusterUser(w http.ResponseWriter, r *http.Request) {
	var req clusterUserRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	logging.Info().Str("user_id", req.UserID).Msg("clustering user")

	assignment, err := s.engine.ClusterUser(r.Context(), features.UserBehavior{
		UserID:                   req.UserID,
		SessionCount:             req.SessionCount,
		AvgSessionDuration:       req.AvgSessionDuration,
		StreakLength:             req.StreakLength,
		PreferredTimeOfDay:       req.PreferredTimeOfDay,
		ContentEngagementRate:    req.ContentEngagementRate,
		NotificationResponseRate: req.NotificationResponseRate,
	})
	if err != nil {
		s.writeEngineError(w, "user clustering failed", err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

func (s *Server) handlePredictChurn(w http.ResponseWriter, r *http.Request) {
	var req churnPredictionRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	logging.Info().Str("user_id", req.UserID).Msg("predicting churn")

	prediction, err := s.engine.PredictChurn(r.Context(), churn.Features{
		UserID:                   req.UserID,
		DaysSinceSignup:          req.DaysSinceSignup,
		TotalSessions:            req.TotalSessions,
		AvgSessionDuration:       req.AvgSessionDuration,
		StreakLength:             req.StreakLength,
		LastLoginDaysAgo:         req.LastLoginDaysAgo,
		ContentCompletionRate:    req.ContentCompletionRate,
		NotificationResponseRate: req.NotificationResponseRate,
		GoalProgressPercentage:   req.GoalProgressPercentage,
	})
	if err != nil {
		s.writeEngineError(w, "churn prediction failed", err)
		return
	}

	churnPredictions.WithLabelValues(prediction.RiskLevel).Inc()
	writeJSON(w, http.StatusOK, prediction)
}

func (s *Server) handleDailyPlan(w http.ResponseWriter, r *http.Request) {
	var req dailyPlanRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	logging.Info().Str("user_id", req.UserID).Msg("generating daily plan")

	plan, err := s.engine.DailyPlan(r.Context(), req.toPlanRequest())
	if err != nil {
		s.writeEngineError(w, "daily plan generation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleCompletePlan(w http.ResponseWriter, r *http.Request) {
	planID, err := strconv.ParseInt(chi.URLParam(r, "planID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "plan ID must be an integer")
		return
	}

	if err := s.engine.CompletePlan(r.Context(), planID); err != nil {
		s.writeEngineError(w, "plan completion failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": planID, "completed": true})
}

func (s *Server) handlePlanHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id query parameter is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	records, err := s.engine.PlanHistory(r.Context(), userID, limit)
	if err != nil {
		s.writeEngineError(w, "plan history lookup failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"plans":   records,
	})
}

func (s *Server) handleModelsHealth(w http.ResponseWriter, r *http.Request) {
	readiness, err := s.engine.CheckReadiness(r.Context())
	if err != nil {
		s.writeEngineError(w, "model health check failed", err)
		return
	}

	status := "healthy"
	if !readiness.AllReady() {
		status = "degraded"
	}

	writeJSON(w, http.StatusOK, modelsHealthResponse{
		Status: status,
		Models: map[string]bool{
			"content_matcher": readiness.ContentMatcher,
			"user_clusterer":  readiness.Clustering,
			"churn_predictor": readiness.ChurnPredictor,
			"micro_coach":     readiness.MicroCoach,
		},
	})
}

// decodeAndValidate decodes the request body into dst and validates it.
// On failure it writes a 400 response and returns false.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return false
	}
	return true
}

// writeEngineError maps engine errors to HTTP statuses.
func (s *Server) writeEngineError(w http.ResponseWriter, msg string, err error) {
	logging.Error().Err(err).Msg(msg)

	switch {
	case errors.Is(err, core.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, core.ErrModelNotReady):
		writeError(w, http.StatusServiceUnavailable, "model_not_ready", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", msg+": "+err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("encoding response failed")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error:   code,
		Message: message,
	})
}
