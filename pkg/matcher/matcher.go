// Package matcher performs semantic goal-to-content matching.
//
// A user's natural-language wellness goal is embedded and searched against
// the content catalog's vector store; matches come back ranked by cosine
// similarity.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/welli-app/retention-go/pkg/catalog"
	"github.com/welli-app/retention-go/pkg/embedder"
)

// DefaultLimit is the number of matches returned when no limit is given.
const DefaultLimit = 5

// ContentMatch is one catalog item matched to a goal.
type ContentMatch struct {
	// ID is the catalog item ID.
	ID string `json:"id"`

	// Title is the item title.
	Title string `json:"title"`

	// Description is the item description.
	Description string `json:"description"`

	// Category is the item category.
	Category string `json:"category"`

	// SimilarityScore is the cosine similarity between the goal and
	// the item, higher is closer.
	SimilarityScore float64 `json:"similarity_score"`
}

// Result is the outcome of matching a goal against the catalog.
type Result struct {
	// UserGoal echoes the goal that was matched.
	UserGoal string `json:"user_goal"`

	// Matched holds the ranked matches.
	Matched []ContentMatch `json:"matched_content"`

	// TotalResults is the number of matches returned.
	TotalResults int `json:"total_results"`
}

// Matcher matches goals to content through an embedder and a vector store.
type Matcher struct {
	embedder embedder.Provider
	store    catalog.Store
}

// NewMatcher creates a matcher over the given embedder and catalog store.
func NewMatcher(provider embedder.Provider, store catalog.Store) *Matcher {
	return &Matcher{
		embedder: provider,
		store:    store,
	}
}

// MatchGoal finds catalog items semantically similar to a wellness goal.
//
// Parameters:
//   - ctx: Context for cancellation
//   - goal: The user's goal in natural language
//   - limit: Maximum matches to return (DefaultLimit when <= 0)
//
// Returns the ranked matches, or an error if the goal is empty, the
// embedding call fails, or the store search fails.
func (m *Matcher) MatchGoal(ctx context.Context, goal string, limit int) (*Result, error) {
	if strings.TrimSpace(goal) == "" {
		return nil, errors.New("matcher: goal must not be empty")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	embedding, err := m.embedder.Embed(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("embed goal: %w", err)
	}

	items, err := m.store.Search(ctx, embedding, &catalog.SearchOptions{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("search catalog: %w", err)
	}

	matched := make([]ContentMatch, 0, len(items))
	for _, item := range items {
		matched = append(matched, ContentMatch{
			ID:              item.ID,
			Title:           item.Title,
			Description:     item.Description,
			Category:        item.Category,
			SimilarityScore: item.Score,
		})
	}

	return &Result{
		UserGoal:     goal,
		Matched:      matched,
		TotalResults: len(matched),
	}, nil
}

// IndexStatus reports readiness information about the backing catalog.
type IndexStatus struct {
	ContentItemsLoaded int  `json:"content_items_loaded"`
	FullyReady         bool `json:"fully_ready"`
}

// Status returns the catalog's readiness for matching.
func (m *Matcher) Status(ctx context.Context) (*IndexStatus, error) {
	count, err := m.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count catalog: %w", err)
	}
	return &IndexStatus{
		ContentItemsLoaded: count,
		FullyReady:         count > 0,
	}, nil
}
