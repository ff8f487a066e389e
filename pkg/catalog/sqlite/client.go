// Package sqlite provides the SQLite implementation of the content catalog.
//
// SQLite is a lightweight, file-based database suitable for local development
// and single-node deployments. Vectors are stored as JSON strings in TEXT
// fields, and similarity search uses in-memory cosine similarity calculation.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/welli-app/retention-go/pkg/catalog"
)

// Client implements catalog.Store using SQLite as the backend.
type Client struct {
	// db is the SQLite database connection.
	db *sql.DB

	// tableName is the name of the table storing catalog items.
	tableName string

	// dimensions is the dimension of embedding vectors.
	dimensions int
}

// Config contains configuration for creating a SQLite catalog store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// TableName is the name of the table to use.
	TableName string

	// EmbeddingModelDims is the dimension of embedding vectors.
	EmbeddingModelDims int
}

// NewClient creates a new SQLite catalog client.
//
// Parameters:
//   - cfg: Configuration containing database path, table name, and embedding dimensions
//
// Returns:
//   - *Client: The SQLite client instance
//   - error: Error if database connection or table creation fails
func NewClient(cfg *Config) (*Client, error) {
	dbDir := filepath.Dir(cfg.DBPath)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			return nil, fmt.Errorf("NewSQLiteClient: failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewSQLiteClient: %w", err)
	}

	client := &Client{
		db:         db,
		tableName:  cfg.TableName,
		dimensions: cfg.EmbeddingModelDims,
	}

	if err := client.initTables(context.Background()); err != nil {
		return nil, err
	}

	return client, nil
}

// initTables initializes the database table structure.
//
// SQLite stores vectors and tags as JSON strings in TEXT fields.
func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			category TEXT NOT NULL,
			tags TEXT,
			embedding TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`, c.tableName)

	_, err := c.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	indexQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_category ON %s(category)
	`, c.tableName, c.tableName)
	_, err = c.db.ExecContext(ctx, indexQuery)
	if err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	return nil
}

// Insert inserts an item into the catalog.
func (c *Client) Insert(ctx context.Context, item *catalog.Item) error {
	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s
		(id, title, description, category, tags, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.tableName)

	embeddingJSON, err := json.Marshal(item.Embedding)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

	tagsJSON, err := json.Marshal(item.Tags)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

	_, err = c.db.ExecContext(ctx, query,
		item.ID,
		item.Title,
		item.Description,
		item.Category,
		string(tagsJSON),
		string(embeddingJSON),
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("Insert: %w", err)
	}

	return nil
}

// InsertBatch inserts multiple items inside a single transaction.
func (c *Client) InsertBatch(ctx context.Context, items []*catalog.Item) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("InsertBatch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := fmt.Sprintf(`
		INSERT OR REPLACE INTO %s
		(id, title, description, category, tags, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.tableName)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("InsertBatch: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now()
	for _, item := range items {
		embeddingJSON, err := json.Marshal(item.Embedding)
		if err != nil {
			return fmt.Errorf("InsertBatch: %w", err)
		}
		tagsJSON, err := json.Marshal(item.Tags)
		if err != nil {
			return fmt.Errorf("InsertBatch: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			item.ID, item.Title, item.Description, item.Category,
			string(tagsJSON), string(embeddingJSON), now,
		); err != nil {
			return fmt.Errorf("InsertBatch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("InsertBatch: %w", err)
	}

	return nil
}

// Search performs vector similarity search using cosine similarity.
//
// SQLite does not have native vector operations, so similarity is calculated
// in memory after loading all matching records. The catalog is small (hundreds
// of items), so a full scan is acceptable.
func (c *Client) Search(ctx context.Context, embedding []float64, opts *catalog.SearchOptions) ([]*catalog.Item, error) {
	if opts == nil {
		opts = &catalog.SearchOptions{}
	}

	whereClause, args := buildWhereClause(opts.Category)

	query := fmt.Sprintf(`
		SELECT id, title, description, category, tags, embedding, created_at, updated_at
		FROM %s
		%s
		ORDER BY id
	`, c.tableName, whereClause)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*catalog.Item
	for rows.Next() {
		item, err := c.scanItem(rows)
		if err != nil {
			return nil, err
		}

		score := cosineSimilarity(embedding, item.Embedding)
		item.Score = score

		if score >= opts.MinScore {
			items = append(items, item)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sortByScore(items, opts.Limit), nil
}

// Get retrieves an item by ID.
func (c *Client) Get(ctx context.Context, id string) (*catalog.Item, error) {
	query := fmt.Sprintf(`
		SELECT id, title, description, category, tags, embedding, created_at, updated_at
		FROM %s
		WHERE id = ?
	`, c.tableName)

	row := c.db.QueryRowContext(ctx, query, id)

	item, err := c.scanItem(row)
	if err == sql.ErrNoRows {
		return nil, catalog.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	return item, nil
}

// Delete deletes an item by ID.
func (c *Client) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", c.tableName)

	result, err := c.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	if rowsAffected == 0 {
		return catalog.ErrItemNotFound
	}

	return nil
}

// Count returns the number of items in the catalog.
func (c *Client) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", c.tableName)

	var count int
	if err := c.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}

	return count, nil
}

// Clear removes all items from the catalog.
func (c *Client) Clear(ctx context.Context) error {
	query := fmt.Sprintf("DELETE FROM %s", c.tableName)

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("Clear: %w", err)
	}

	return nil
}

// CreateIndex creates a vector index.
//
// SQLite does not support vector indexes, so this method is a no-op.
// Similarity search uses full table scan with in-memory calculation.
func (c *Client) CreateIndex(ctx context.Context, config *catalog.VectorIndexConfig) error {
	return nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// scanItem scans an item from a database row or rows.
func (c *Client) scanItem(scanner interface{}) (*catalog.Item, error) {
	var item catalog.Item
	var tagsStr sql.NullString
	var embeddingStr string

	var err error
	switch s := scanner.(type) {
	case *sql.Row:
		err = s.Scan(
			&item.ID,
			&item.Title,
			&item.Description,
			&item.Category,
			&tagsStr,
			&embeddingStr,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
	case *sql.Rows:
		err = s.Scan(
			&item.ID,
			&item.Title,
			&item.Description,
			&item.Category,
			&tagsStr,
			&embeddingStr,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
	default:
		return nil, fmt.Errorf("unsupported scanner type")
	}

	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(embeddingStr), &item.Embedding); err != nil {
		return nil, fmt.Errorf("parse embedding: %w", err)
	}

	if tagsStr.Valid && tagsStr.String != "" {
		if err := json.Unmarshal([]byte(tagsStr.String), &item.Tags); err != nil {
			return nil, fmt.Errorf("parse tags: %w", err)
		}
	}

	return &item, nil
}

// cosineSimilarity calculates the cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// sortByScore sorts items by score (descending) and limits the number of results.
func sortByScore(items []*catalog.Item, limit int) []*catalog.Item {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})

	if limit > 0 && len(items) > limit {
		return items[:limit]
	}

	return items
}
