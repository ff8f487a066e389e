// Package mysql provides the MySQL implementation of the content catalog.
//
// MySQL has no native vector type in the versions we target, so vectors are
// stored as JSON strings and similarity is calculated in memory, the same
// strategy the SQLite backend uses. It exists for deployments that already
// run MySQL and don't want a second database for the catalog.
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/welli-app/retention-go/pkg/catalog"
)

// Client implements catalog.Store using MySQL as the backend.
type Client struct {
	db         *sql.DB
	tableName  string
	dimensions int
}

// Config contains MySQL configuration.
type Config struct {
	Host               string
	Port               int
	User               string
	Password           string
	DBName             string
	TableName          string
	EmbeddingModelDims int
}

// NewClient creates a new MySQL catalog client.
func NewClient(cfg *Config) (*Client, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewMySQLClient: %w", err)
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

// initTables initializes the catalog table.
func (c *Client) initTables(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(255) PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			category VARCHAR(255) NOT NULL,
			tags TEXT,
			embedding LONGTEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_category (category)
		)
	`, c.tableName)

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("initTables: %w", err)
	}

	return nil
}

// Insert inserts an item into the catalog.
func (c *Client) Insert(ctx context.Context, item *catalog.Item) error {
	query := fmt.Sprintf(`
		REPLACE INTO %s (id, title, description, category, tags, embedding, created_at)
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
		REPLACE INTO %s (id, title, description, category, tags, embedding, created_at)
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

// Search performs vector similarity search using in-memory cosine similarity.
func (c *Client) Search(ctx context.Context, embedding []float64, opts *catalog.SearchOptions) ([]*catalog.Item, error) {
	if opts == nil {
		opts = &catalog.SearchOptions{}
	}

	whereClause := ""
	var args []interface{}
	if opts.Category != "" {
		whereClause = "WHERE category = ?"
		args = append(args, opts.Category)
	}

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
		item, err := scanItem(rows)
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

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})

	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}

	return items, nil
}

// Get retrieves an item by ID.
func (c *Client) Get(ctx context.Context, id string) (*catalog.Item, error) {
	query := fmt.Sprintf(`
		SELECT id, title, description, category, tags, embedding, created_at, updated_at
		FROM %s
		WHERE id = ?
	`, c.tableName)

	rows, err := c.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		return nil, catalog.ErrItemNotFound
	}

	item, err := scanItem(rows)
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
// MySQL does not support vector indexes, so this method is a no-op.
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

// scanItem scans an item from query rows.
func scanItem(rows *sql.Rows) (*catalog.Item, error) {
	var item catalog.Item
	var tagsStr sql.NullString
	var embeddingStr string

	err := rows.Scan(
		&item.ID,
		&item.Title,
		&item.Description,
		&item.Category,
		&tagsStr,
		&embeddingStr,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
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
