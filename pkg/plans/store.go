// Package plans persists generated daily wellness plans so users can
// review and complete them later.
package plans

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/welli-app/retention-go/pkg/coach"
)

// ErrNotFound is returned when a plan does not exist.
var ErrNotFound = errors.New("plans: plan not found")

// Record is a stored daily plan with completion state.
type Record struct {
	// Plan is the generated plan.
	Plan *coach.Plan `json:"plan"`

	// Completed reports whether the user marked the plan done.
	Completed bool `json:"completed"`

	// CompletedAt is when the plan was completed, zero if it wasn't.
	CompletedAt time.Time `json:"completed_at,omitempty"`

	// CreatedAt is when the plan was stored.
	CreatedAt time.Time `json:"created_at"`
}

// Store persists plans in SQLite.
type Store struct {
	db        *sql.DB
	tableName string
}

// Config contains plan store settings.
type Config struct {
	// DBPath is the SQLite database file path.
	DBPath string

	// TableName is the table plans are stored in. Default "daily_plans".
	TableName string
}

// NewStore opens (or creates) the plan history database.
//
// Parameters:
//   - cfg: Store configuration
//
// Returns the store, or an error if the database cannot be opened.
func NewStore(cfg *Config) (*Store, error) {
	if cfg == nil || cfg.DBPath == "" {
		return nil, errors.New("plans: db path is required")
	}
	tableName := cfg.TableName
	if tableName == "" {
		tableName = "daily_plans"
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=1&_journal_mode=WAL", cfg.DBPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open plans db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping plans db: %w", err)
	}

	s := &Store{db: db, tableName: tableName}
	if err := s.createTable(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createTable() error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY,
			user_id TEXT NOT NULL,
			plan_date TEXT NOT NULL,
			plan_json TEXT NOT NULL,
			completed INTEGER NOT NULL DEFAULT 0,
			completed_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, s.tableName)
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create plans table: %w", err)
	}

	indexQuery := fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS idx_%s_user_date ON %s(user_id, plan_date)",
		s.tableName, s.tableName,
	)
	if _, err := s.db.Exec(indexQuery); err != nil {
		return fmt.Errorf("create plans index: %w", err)
	}
	return nil
}

// Save stores a plan. The plan must already carry an ID.
func (s *Store) Save(ctx context.Context, plan *coach.Plan) error {
	if plan == nil || plan.ID == 0 {
		return errors.New("plans: plan with ID is required")
	}

	planJSON, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s (id, user_id, plan_date, plan_json)
		VALUES (?, ?, ?, ?)
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query, plan.ID, plan.UserID, plan.PlanDate, string(planJSON)); err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

// Get retrieves a stored plan by ID.
func (s *Store) Get(ctx context.Context, id int64) (*Record, error) {
	query := fmt.Sprintf(`
		SELECT plan_json, completed, completed_at, created_at
		FROM %s WHERE id = ?
	`, s.tableName)

	var (
		planJSON    string
		completed   int
		completedAt sql.NullTime
		createdAt   time.Time
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&planJSON, &completed, &completedAt, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query plan: %w", err)
	}

	return scanRecord(planJSON, completed, completedAt, createdAt)
}

// Complete marks a plan as done.
func (s *Store) Complete(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`
		UPDATE %s SET completed = 1, completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, s.tableName)

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("complete plan: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete plan: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns a user's plans, most recent first.
//
// Parameters:
//   - ctx: Context for cancellation
//   - userID: User to list plans for
//   - limit: Maximum records to return (unlimited when <= 0)
func (s *Store) ListByUser(ctx context.Context, userID string, limit int) ([]*Record, error) {
	query := fmt.Sprintf(`
		SELECT plan_json, completed, completed_at, created_at
		FROM %s WHERE user_id = ?
		ORDER BY plan_date DESC, id DESC
	`, s.tableName)
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var (
			planJSON    string
			completed   int
			completedAt sql.NullTime
			createdAt   time.Time
		)
		if err := rows.Scan(&planJSON, &completed, &completedAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		record, err := scanRecord(planJSON, completed, completedAt, createdAt)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func scanRecord(planJSON string, completed int, completedAt sql.NullTime, createdAt time.Time) (*Record, error) {
	var plan coach.Plan
	if err := json.Unmarshal([]byte(planJSON), &plan); err != nil {
		return nil, fmt.Errorf("unmarshal plan: %w", err)
	}

	record := &Record{
		Plan:      &plan,
		Completed: completed != 0,
		CreatedAt: createdAt,
	}
	if completedAt.Valid {
		record.CompletedAt = completedAt.Time
	}
	return record, nil
}
