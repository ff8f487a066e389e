// Package server exposes the retention engine over HTTP.
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/welli-app/retention-go/pkg/churn"
	"github.com/welli-app/retention-go/pkg/coach"
	"github.com/welli-app/retention-go/pkg/core"
	"github.com/welli-app/retention-go/pkg/features"
	"github.com/welli-app/retention-go/pkg/matcher"
	"github.com/welli-app/retention-go/pkg/plans"
	"github.com/welli-app/retention-go/pkg/segment"
)

// Engine is the subset of the retention engine the HTTP layer needs.
// It is satisfied by *core.Engine.
type Engine interface {
	MatchGoal(ctx context.Context, goal string, limit int) (*matcher.Result, error)
	ClusterUser(ctx context.Context, behavior features.UserBehavior) (*segment.Assignment, error)
	PredictChurn(ctx context.Context, f churn.Features) (*churn.Prediction, error)
	DailyPlan(ctx context.Context, req *coach.PlanRequest) (*coach.Plan, error)
	CompletePlan(ctx context.Context, planID int64) error
	PlanHistory(ctx context.Context, userID string, limit int) ([]*plans.Record, error)
	CheckReadiness(ctx context.Context) (*core.Readiness, error)
}

// Server is the retention engine HTTP API server.
type Server struct {
	engine   Engine
	router   chi.Router
	validate *validator.Validate
	version  string
}

// New creates a new Server over the given engine.
func New(engine Engine, version string) *Server {
	s := &Server{
		engine:   engine,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		version:  version,
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/match-goal", s.handleMatchGoal)
		r.Post("/cluster-user", s.handleClusterUser)
		r.Post("/predict-churn", s.handlePredictChurn)
		r.Post("/daily-plan", s.handleDailyPlan)
		r.Post("/plans/{planID}/complete", s.handleCompletePlan)
		r.Get("/plans", s.handlePlanHistory)
		r.Get("/models/health", s.handleModelsHealth)
	})

	s.router = r
}
