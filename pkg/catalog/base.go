// Package catalog provides interfaces and types for content catalog storage backends.
//
// It defines the Store interface that all backends must satisfy, along with
// the content item type and search options. The catalog holds the wellness
// content library (meditations, workouts, sleep stories, ...) together with
// the embedding vector each item's text was encoded to, and answers
// nearest-neighbor queries for goal-to-content matching.
package catalog

import (
	"context"
	"errors"
	"time"
)

// ErrItemNotFound is returned by Store.Get when no item exists with the
// requested ID.
var ErrItemNotFound = errors.New("catalog: item not found")

// Item represents a single piece of wellness content in the catalog.
type Item struct {
	// ID is the catalog identifier of the item (e.g. "content_001").
	ID string

	// Title is the display title of the item.
	Title string

	// Description is the item's long-form description.
	Description string

	// Category is the content category (meditation, exercise, nutrition, ...).
	Category string

	// Tags are free-form keywords attached to the item.
	Tags []string

	// Embedding is the vector the item's text was encoded to.
	Embedding []float64

	// CreatedAt is when the item was inserted into the catalog.
	CreatedAt time.Time

	// UpdatedAt is when the item was last updated.
	UpdatedAt time.Time

	// Score is the similarity score from search operations (0.0-1.0).
	Score float64
}

// EmbeddingText returns the text an item is embedded from: title, description
// and tags joined with spaces.
func (i *Item) EmbeddingText() string {
	text := i.Title + " " + i.Description
	for _, tag := range i.Tags {
		text += " " + tag
	}
	return text
}

// VectorIndexType defines the type of vector index for efficient similarity search.
type VectorIndexType string

const (
	// IndexTypeHNSW uses Hierarchical Navigable Small World graph.
	IndexTypeHNSW VectorIndexType = "HNSW"

	// IndexTypeIVFFlat uses Inverted File Index with flat vectors.
	IndexTypeIVFFlat VectorIndexType = "IVF_FLAT"
)

// MetricType defines the distance metric for vector similarity.
type MetricType string

const (
	// MetricCosine uses cosine similarity.
	MetricCosine MetricType = "cosine"

	// MetricL2 uses Euclidean distance (L2 norm).
	MetricL2 MetricType = "l2"
)

// HNSWParams contains parameters for HNSW index configuration.
type HNSWParams struct {
	// M is the maximum number of connections for each node.
	M int

	// EfConstruction is the search depth during index construction.
	EfConstruction int
}

// IVFParams contains parameters for IVF (Inverted File) index configuration.
type IVFParams struct {
	// Nlist is the number of clusters (centroids).
	Nlist int
}

// VectorIndexConfig contains configuration for creating a vector index.
type VectorIndexConfig struct {
	// IndexName is the name of the index.
	IndexName string

	// TableName is the name of the table/collection to index.
	TableName string

	// VectorField is the name of the vector field to index.
	VectorField string

	// IndexType is the type of index to create.
	IndexType VectorIndexType

	// MetricType is the distance metric to use.
	MetricType MetricType

	// HNSWParams contains HNSW-specific parameters (if IndexType is HNSW).
	HNSWParams *HNSWParams

	// IVFParams contains IVF-specific parameters (if IndexType is IVF_FLAT).
	IVFParams *IVFParams
}

// Store defines the interface for content catalog backends.
//
// All storage implementations (SQLite, PostgreSQL, MySQL) must implement
// this interface.
type Store interface {
	// Insert inserts an item into the catalog.
	Insert(ctx context.Context, item *Item) error

	// InsertBatch inserts multiple items. Used by catalog seeding.
	InsertBatch(ctx context.Context, items []*Item) error

	// Search performs vector similarity search.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - embedding: Query embedding vector
	//   - opts: Search options (Category, Limit, MinScore)
	//
	// Returns matching items sorted by similarity (highest first).
	Search(ctx context.Context, embedding []float64, opts *SearchOptions) ([]*Item, error)

	// Get retrieves an item by ID.
	Get(ctx context.Context, id string) (*Item, error)

	// Delete deletes an item by ID.
	Delete(ctx context.Context, id string) error

	// Count returns the number of items in the catalog.
	Count(ctx context.Context) (int, error)

	// Clear removes all items. Used before re-seeding.
	Clear(ctx context.Context) error

	// CreateIndex creates a vector index for improved search performance.
	// Backends without native vector indexes treat this as a no-op.
	CreateIndex(ctx context.Context, config *VectorIndexConfig) error

	// Close closes the store and releases resources.
	Close() error
}

// SearchOptions contains options for search operations.
type SearchOptions struct {
	// Category filters results to a specific content category.
	Category string

	// Limit sets the maximum number of results to return.
	Limit int

	// MinScore sets the minimum similarity score for results.
	MinScore float64
}
