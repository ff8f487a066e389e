package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"

	"github.com/welli-app/retention-go/pkg/catalog"
	mysqlCatalog "github.com/welli-app/retention-go/pkg/catalog/mysql"
	postgresCatalog "github.com/welli-app/retention-go/pkg/catalog/postgres"
	sqliteCatalog "github.com/welli-app/retention-go/pkg/catalog/sqlite"
	"github.com/welli-app/retention-go/pkg/churn"
	"github.com/welli-app/retention-go/pkg/coach"
	"github.com/welli-app/retention-go/pkg/embedder"
	openaiEmbedder "github.com/welli-app/retention-go/pkg/embedder/openai"
	"github.com/welli-app/retention-go/pkg/features"
	"github.com/welli-app/retention-go/pkg/llm"
	openaiLLM "github.com/welli-app/retention-go/pkg/llm/openai"
	"github.com/welli-app/retention-go/pkg/matcher"
	"github.com/welli-app/retention-go/pkg/plans"
	"github.com/welli-app/retention-go/pkg/segment"
)

// Model artifact file names under ModelsDir.
const (
	ClusteringModelFile = "clustering/clustering_model.json"
	ChurnModelFile      = "churn_classification/churn_model.json"
)

// Engine is the main retention engine.
//
// It wires together the four retention capabilities:
//   - Goal-to-content matching (embeddings + vector search)
//   - Behavioral user clustering (k-means artifact)
//   - Churn risk prediction (logistic regression artifact)
//   - Daily plan coaching (LLM)
//
// The engine is thread-safe and can be used concurrently from multiple
// goroutines.
//
// Example usage:
//
//	config, _ := core.LoadConfigFromEnv()
//	engine, _ := core.NewEngine(config)
//	defer engine.Close()
//
//	result, _ := engine.MatchGoal(ctx, "reduce stress and sleep better", 5)
type Engine struct {
	// config contains the engine configuration.
	config *Config

	// catalog is the content catalog vector store.
	catalog catalog.Store

	// embedder is the embedding provider for goal matching.
	embedder embedder.Provider

	// llm is the LLM provider for coaching.
	llm llm.Provider

	// matcher performs goal-to-content matching.
	matcher *matcher.Matcher

	// coach generates daily plans.
	coach *coach.Coach

	// clusteringModel is the trained clustering artifact (nil until trained).
	clusteringModel *segment.Model

	// churnModel is the trained churn artifact (nil until trained).
	churnModel *churn.Model

	// plans persists generated daily plans.
	plans *plans.Store

	// snowflakeNode generates unique IDs for plans.
	snowflakeNode *snowflake.Node

	// mu protects concurrent access to the engine.
	mu sync.RWMutex
}

// NewEngine creates a new retention engine.
//
// The engine is initialized with:
//   - Content catalog store (SQLite, PostgreSQL, or MySQL)
//   - OpenAI embedder and LLM
//   - Plan history store
//   - Trained model artifacts loaded from ModelsDir when present
//
// Missing model artifacts are not an error at construction time: the
// clustering and churn operations report ErrModelNotReady until the
// artifacts exist.
//
// Parameters:
//   - cfg: Configuration containing OpenAI, catalog, and model settings
//
// Returns a new Engine instance, or an error if initialization fails.
func NewEngine(cfg *Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := initCatalog(cfg)
	if err != nil {
		return nil, err
	}

	embedderProvider, err := openaiEmbedder.NewClient(&openaiEmbedder.Config{
		APIKey:     cfg.OpenAI.APIKey,
		Model:      cfg.OpenAI.EmbeddingModel,
		BaseURL:    cfg.OpenAI.BaseURL,
		Dimensions: cfg.OpenAI.EmbeddingDims,
	})
	if err != nil {
		return nil, NewEngineError("NewEngine", err)
	}

	llmProvider, err := openaiLLM.NewClient(&openaiLLM.Config{
		APIKey:  cfg.OpenAI.APIKey,
		Model:   cfg.OpenAI.LLMModel,
		BaseURL: cfg.OpenAI.BaseURL,
	})
	if err != nil {
		return nil, NewEngineError("NewEngine", err)
	}

	planStore, err := plans.NewStore(&plans.Config{DBPath: cfg.PlansDBPath})
	if err != nil {
		return nil, NewEngineError("NewEngine", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, NewEngineError("NewEngine", err)
	}

	engine := &Engine{
		config:        cfg,
		catalog:       store,
		embedder:      embedderProvider,
		llm:           llmProvider,
		matcher:       matcher.NewMatcher(embedderProvider, store),
		coach:         coach.NewCoach(llmProvider),
		plans:         planStore,
		snowflakeNode: node,
	}

	// Load model artifacts when present. Absence is reported per
	// operation through ErrModelNotReady.
	if model, err := segment.LoadModel(filepath.Join(cfg.ModelsDir, ClusteringModelFile)); err == nil {
		engine.clusteringModel = model
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, NewEngineError("NewEngine", err)
	}
	if model, err := churn.LoadModel(filepath.Join(cfg.ModelsDir, ChurnModelFile)); err == nil {
		engine.churnModel = model
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, NewEngineError("NewEngine", err)
	}

	return engine, nil
}

// MatchGoal matches a user's wellness goal against the content catalog.
//
// Parameters:
//   - ctx: Context for cancellation
//   - goal: The goal in natural language
//   - limit: Maximum matches to return (default 5 when <= 0)
//
// Returns the ranked matches, or an error if the goal is empty or the
// search fails.
func (e *Engine) MatchGoal(ctx context.Context, goal string, limit int) (*matcher.Result, error) {
	if strings.TrimSpace(goal) == "" {
		return nil, NewEngineError("MatchGoal", ErrInvalidInput)
	}

	result, err := e.matcher.MatchGoal(ctx, goal, limit)
	if err != nil {
		return nil, NewEngineError("MatchGoal", err)
	}
	return result, nil
}

// ClusterUser assigns a user to a behavioral segment.
//
// Parameters:
//   - ctx: Context for cancellation
//   - behavior: The user's behavioral features
//
// Returns the cluster assignment, or ErrModelNotReady if no clustering
// artifact is loaded.
func (e *Engine) ClusterUser(ctx context.Context, behavior features.UserBehavior) (*segment.Assignment, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	e.mu.RLock()
	model := e.clusteringModel
	e.mu.RUnlock()

	if model == nil {
		return nil, NewEngineError("ClusterUser", ErrModelNotReady)
	}

	assignment, err := model.Assign(behavior)
	if err != nil {
		return nil, NewEngineError("ClusterUser", err)
	}
	return assignment, nil
}

// PredictChurn evaluates churn risk for a user.
//
// Parameters:
//   - ctx: Context for cancellation
//   - f: The user's churn features
//
// Returns the prediction, or ErrModelNotReady if no churn artifact is
// loaded.
func (e *Engine) PredictChurn(ctx context.Context, f churn.Features) (*churn.Prediction, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	e.mu.RLock()
	model := e.churnModel
	e.mu.RUnlock()

	if model == nil {
		return nil, NewEngineError("PredictChurn", ErrModelNotReady)
	}
	return model.Predict(f), nil
}

// DailyPlan generates and persists a daily wellness plan.
//
// Parameters:
//   - ctx: Context for cancellation
//   - req: User context for the plan
//
// Returns the generated plan with its assigned ID, or an error if
// generation or persistence fails.
func (e *Engine) DailyPlan(ctx context.Context, req *coach.PlanRequest) (*coach.Plan, error) {
	if req == nil || req.UserID == "" {
		return nil, NewEngineError("DailyPlan", ErrInvalidInput)
	}

	plan, err := e.coach.GenerateDailyPlan(ctx, req)
	if err != nil {
		return nil, NewEngineError("DailyPlan", err)
	}

	plan.ID = e.snowflakeNode.Generate().Int64()
	if err := e.plans.Save(ctx, plan); err != nil {
		return nil, NewEngineError("DailyPlan", err)
	}

	return plan, nil
}

// CompletePlan marks a stored plan as done.
//
// Returns ErrNotFound if no plan exists with the given ID.
func (e *Engine) CompletePlan(ctx context.Context, planID int64) error {
	if err := e.plans.Complete(ctx, planID); err != nil {
		if err == plans.ErrNotFound {
			return NewEngineError("CompletePlan", ErrNotFound)
		}
		return NewEngineError("CompletePlan", err)
	}
	return nil
}

// PlanHistory returns a user's stored plans, most recent first.
func (e *Engine) PlanHistory(ctx context.Context, userID string, limit int) ([]*plans.Record, error) {
	if userID == "" {
		return nil, NewEngineError("PlanHistory", ErrInvalidInput)
	}
	records, err := e.plans.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, NewEngineError("PlanHistory", err)
	}
	return records, nil
}

// SeedCatalog embeds and stores content items in the catalog.
//
// Each item's embedding is generated from its title, description and
// tags before insertion. Seeding replaces the whole collection: the
// existing catalog is cleared once the embeddings are in hand, so items
// dropped from the catalog file do not survive a re-seed. After
// insertion a vector index is created on backends that support one.
//
// Parameters:
//   - ctx: Context for cancellation
//   - items: Catalog items to embed and store
//
// Returns the number of items stored, or an error.
func (e *Engine) SeedCatalog(ctx context.Context, items []*catalog.Item) (int, error) {
	if len(items) == 0 {
		return 0, NewEngineError("SeedCatalog", ErrInvalidInput)
	}

	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.EmbeddingText()
	}

	embeddings, err := e.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, NewEngineError("SeedCatalog", err)
	}
	if len(embeddings) != len(items) {
		return 0, NewEngineError("SeedCatalog", ErrEmbeddingFailed)
	}

	for i, item := range items {
		item.Embedding = embeddings[i]
	}

	if err := e.catalog.Clear(ctx); err != nil {
		return 0, NewEngineError("SeedCatalog", err)
	}
	if err := e.catalog.InsertBatch(ctx, items); err != nil {
		return 0, NewEngineError("SeedCatalog", err)
	}
	if err := e.catalog.CreateIndex(ctx, e.vectorIndexConfig()); err != nil {
		return 0, NewEngineError("SeedCatalog", err)
	}
	return len(items), nil
}

// vectorIndexConfig builds the index definition for the configured
// catalog table. Backends without native vector indexes ignore it.
func (e *Engine) vectorIndexConfig() *catalog.VectorIndexConfig {
	r := &catalogConfigReader{values: e.config.Catalog.Config}
	tableName := r.strOr("table_name", "content_items")

	return &catalog.VectorIndexConfig{
		IndexName:   "idx_" + tableName + "_embedding",
		TableName:   tableName,
		VectorField: "embedding",
		IndexType:   catalog.IndexTypeHNSW,
		MetricType:  catalog.MetricCosine,
		HNSWParams: &catalog.HNSWParams{
			M:              16,
			EfConstruction: 64,
		},
	}
}

// TrainClustering fits a clustering model on behavioral samples and
// installs it as the active artifact, persisting it to ModelsDir.
func (e *Engine) TrainClustering(ctx context.Context, samples []features.UserBehavior, opts segment.FitOptions, clusters map[string]segment.ClusterMeta) (*segment.Model, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	X := make([][]float64, len(samples))
	for i, s := range samples {
		X[i] = s.Vector()
	}

	model, err := segment.Train(X, opts)
	if err != nil {
		return nil, NewEngineError("TrainClustering", err)
	}
	model.Clusters = clusters

	if err := model.Save(filepath.Join(e.config.ModelsDir, ClusteringModelFile)); err != nil {
		return nil, NewEngineError("TrainClustering", err)
	}

	e.mu.Lock()
	e.clusteringModel = model
	e.mu.Unlock()

	return model, nil
}

// TrainChurn fits a churn model on labeled samples and installs it as
// the active artifact, persisting it to ModelsDir.
func (e *Engine) TrainChurn(ctx context.Context, samples []churn.Features, labels []float64, opts churn.TrainOptions) (*churn.Model, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	X := make([][]float64, len(samples))
	for i, s := range samples {
		X[i] = s.Vector()
	}

	model, err := churn.Train(X, labels, opts)
	if err != nil {
		return nil, NewEngineError("TrainChurn", err)
	}

	if err := model.Save(filepath.Join(e.config.ModelsDir, ChurnModelFile)); err != nil {
		return nil, NewEngineError("TrainChurn", err)
	}

	e.mu.Lock()
	e.churnModel = model
	e.mu.Unlock()

	return model, nil
}

// Readiness reports which engine capabilities are ready to serve.
type Readiness struct {
	// ContentMatcher is true when the catalog holds embedded content.
	ContentMatcher bool `json:"content_matcher"`

	// Clustering is true when a clustering artifact is loaded.
	Clustering bool `json:"clustering"`

	// ChurnPredictor is true when a churn artifact is loaded.
	ChurnPredictor bool `json:"churn_predictor"`

	// MicroCoach is true when the LLM provider is configured.
	MicroCoach bool `json:"micro_coach"`
}

// AllReady reports whether every capability is ready.
func (r Readiness) AllReady() bool {
	return r.ContentMatcher && r.Clustering && r.ChurnPredictor && r.MicroCoach
}

// CheckReadiness reports per-capability readiness.
func (e *Engine) CheckReadiness(ctx context.Context) (*Readiness, error) {
	status, err := e.matcher.Status(ctx)
	if err != nil {
		return nil, NewEngineError("CheckReadiness", err)
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	return &Readiness{
		ContentMatcher: status.FullyReady,
		Clustering:     e.clusteringModel != nil,
		ChurnPredictor: e.churnModel != nil,
		MicroCoach:     e.llm != nil,
	}, nil
}

// Close releases all engine resources.
func (e *Engine) Close() error {
	var firstErr error
	if err := e.catalog.Close(); err != nil {
		firstErr = err
	}
	if err := e.plans.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.embedder.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := e.llm.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return NewEngineError("Close", firstErr)
}

// catalogConfigReader reads typed values out of a provider config map.
// JSON-decoded configs carry every number as float64, so numeric reads
// accept both int and float64. A missing required key is recorded as a
// sticky error.
type catalogConfigReader struct {
	values map[string]interface{}
	err    error
}

func (r *catalogConfigReader) str(key string) string {
	v, ok := r.values[key].(string)
	if !ok && r.err == nil {
		r.err = fmt.Errorf("%w: catalog config missing %q", ErrInvalidConfig, key)
	}
	return v
}

func (r *catalogConfigReader) strOr(key, fallback string) string {
	if v, ok := r.values[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func (r *catalogConfigReader) numOr(key string, fallback int) int {
	switch v := r.values[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

// initCatalog initializes the content catalog store.
func initCatalog(cfg *Config) (catalog.Store, error) {
	r := &catalogConfigReader{values: cfg.Catalog.Config}

	switch cfg.Catalog.Provider {
	case "sqlite":
		clientConfig := &sqliteCatalog.Config{
			DBPath:             r.str("db_path"),
			TableName:          r.strOr("table_name", "content_items"),
			EmbeddingModelDims: r.numOr("embedding_model_dims", cfg.OpenAI.EmbeddingDims),
		}
		if r.err != nil {
			return nil, NewEngineError("initCatalog", r.err)
		}
		return sqliteCatalog.NewClient(clientConfig)
	case "postgres":
		clientConfig := &postgresCatalog.Config{
			Host:               r.strOr("host", "localhost"),
			Port:               r.numOr("port", 5432),
			User:               r.str("user"),
			Password:           r.strOr("password", ""),
			DBName:             r.str("db_name"),
			TableName:          r.strOr("table_name", "content_items"),
			EmbeddingModelDims: r.numOr("embedding_model_dims", cfg.OpenAI.EmbeddingDims),
			SSLMode:            r.strOr("ssl_mode", "disable"),
		}
		if r.err != nil {
			return nil, NewEngineError("initCatalog", r.err)
		}
		return postgresCatalog.NewClient(clientConfig)
	case "mysql":
		clientConfig := &mysqlCatalog.Config{
			Host:               r.strOr("host", "localhost"),
			Port:               r.numOr("port", 3306),
			User:               r.str("user"),
			Password:           r.strOr("password", ""),
			DBName:             r.str("db_name"),
			TableName:          r.strOr("table_name", "content_items"),
			EmbeddingModelDims: r.numOr("embedding_model_dims", cfg.OpenAI.EmbeddingDims),
		}
		if r.err != nil {
			return nil, NewEngineError("initCatalog", r.err)
		}
		return mysqlCatalog.NewClient(clientConfig)
	default:
		return nil, NewEngineError("initCatalog", ErrInvalidConfig)
	}
}
