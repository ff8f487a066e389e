// Package postgres provides the PostgreSQL + pgvector implementation of the
// content catalog. Similarity search is pushed down to pgvector's cosine
// distance operator, so the catalog can grow beyond what an in-memory scan
// handles comfortably.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/welli-app/retention-go/pkg/catalog"
)

// Client is a PostgreSQL + pgvector catalog client.
type Client struct {
	db         *sql.DB
	tableName  string
	dimensions int
}

// Config contains PostgreSQL configuration.
type Config struct {
	Host               string
	Port               int
	User               string
	Password           string
	DBName             string
	TableName          string
	EmbeddingModelDims int
	SSLMode            string
}

// NewClient creates a new PostgreSQL catalog client.
func NewClient(cfg *Config) (*Client, error) {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, sslMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("NewPostgresClient: %w", err)
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

// initTables enables the pgvector extension and creates the catalog table.
func (c *Client) initTables(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("initTables: create extension: %w", err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id VARCHAR(255) PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL,
			category VARCHAR(255) NOT NULL,
			tags JSONB,
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`, c.tableName, c.dimensions)

	_, err = c.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("initTables: create table: %w", err)
	}

	indexQuery := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS idx_%s_category ON %s(category)
	`, c.tableName, c.tableName)
	_, err = c.db.ExecContext(ctx, indexQuery)
	if err != nil {
		return fmt.Errorf("initTables: create index: %w", err)
	}

	return nil
}

// Insert inserts an item into the catalog.
func (c *Client) Insert(ctx context.Context, item *catalog.Item) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, title, description, category, tags, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			tags = EXCLUDED.tags,
			embedding = EXCLUDED.embedding,
			updated_at = CURRENT_TIMESTAMP
	`, c.tableName)

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
		vectorToString(item.Embedding),
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
		INSERT INTO %s (id, title, description, category, tags, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			tags = EXCLUDED.tags,
			embedding = EXCLUDED.embedding,
			updated_at = CURRENT_TIMESTAMP
	`, c.tableName)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("InsertBatch: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now()
	for _, item := range items {
		tagsJSON, err := json.Marshal(item.Tags)
		if err != nil {
			return fmt.Errorf("InsertBatch: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			item.ID, item.Title, item.Description, item.Category,
			string(tagsJSON), vectorToString(item.Embedding), now,
		); err != nil {
			return fmt.Errorf("InsertBatch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("InsertBatch: %w", err)
	}

	return nil
}

// Search performs vector search using pgvector's cosine distance operator.
func (c *Client) Search(ctx context.Context, embedding []float64, opts *catalog.SearchOptions) ([]*catalog.Item, error) {
	if opts == nil {
		opts = &catalog.SearchOptions{}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 5
	}

	// $1 is the query vector; the category filter, if any, starts at $2.
	whereClause := ""
	args := []interface{}{vectorToString(embedding)}
	if opts.Category != "" {
		whereClause = "WHERE category = $2"
		args = append(args, opts.Category)
	}

	// 1 - (embedding <=> $1) converts cosine distance to cosine similarity.
	query := fmt.Sprintf(`
		SELECT id, title, description, category, tags,
		       created_at, updated_at,
		       1 - (embedding <=> $1) AS similarity
		FROM %s
		%s
		ORDER BY embedding <=> $1
		LIMIT $%d
	`, c.tableName, whereClause, len(args)+1)

	args = append(args, limit)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*catalog.Item
	for rows.Next() {
		var item catalog.Item
		var tagsJSON []byte
		var similarity float64

		err := rows.Scan(
			&item.ID,
			&item.Title,
			&item.Description,
			&item.Category,
			&tagsJSON,
			&item.CreatedAt,
			&item.UpdatedAt,
			&similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("Search: %w", err)
		}

		if len(tagsJSON) > 0 {
			if err := json.Unmarshal(tagsJSON, &item.Tags); err != nil {
				return nil, fmt.Errorf("parse tags: %w", err)
			}
		}

		item.Score = similarity
		if similarity >= opts.MinScore {
			items = append(items, &item)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// Get retrieves an item by ID.
func (c *Client) Get(ctx context.Context, id string) (*catalog.Item, error) {
	query := fmt.Sprintf(`
		SELECT id, title, description, category, tags, embedding, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, c.tableName)

	row := c.db.QueryRowContext(ctx, query, id)

	var item catalog.Item
	var tagsJSON []byte
	var embeddingStr string

	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Description,
		&item.Category,
		&tagsJSON,
		&embeddingStr,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, catalog.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}

	embedding, err := parseVectorString(embeddingStr)
	if err != nil {
		return nil, fmt.Errorf("parse embedding: %w", err)
	}
	item.Embedding = embedding

	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &item.Tags); err != nil {
			return nil, fmt.Errorf("parse tags: %w", err)
		}
	}

	return &item, nil
}

// Delete deletes an item by ID.
func (c *Client) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", c.tableName)

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

// CreateIndex creates a pgvector index (HNSW or IVFFlat).
func (c *Client) CreateIndex(ctx context.Context, config *catalog.VectorIndexConfig) error {
	switch config.IndexType {
	case catalog.IndexTypeHNSW:
		query := fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s
			USING hnsw (%s vector_cosine_ops)
			WITH (m = %d, ef_construction = %d)
		`, config.IndexName, config.TableName, config.VectorField,
			config.HNSWParams.M, config.HNSWParams.EfConstruction)
		_, err := c.db.ExecContext(ctx, query)
		return err
	case catalog.IndexTypeIVFFlat:
		query := fmt.Sprintf(`
			CREATE INDEX IF NOT EXISTS %s ON %s
			USING ivfflat (%s vector_cosine_ops)
			WITH (lists = %d)
		`, config.IndexName, config.TableName, config.VectorField, config.IVFParams.Nlist)
		_, err := c.db.ExecContext(ctx, query)
		return err
	default:
		return fmt.Errorf("unsupported index type: %s", config.IndexType)
	}
}

// Close closes the database connection.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
