// ABOUTME: Store interface and data types for search-history persistence
// ABOUTME: Defines the Search record and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Search represents one completed query, recorded by both the web app
// and the chat bot so history is shared across frontends.
type Search struct {
	ID           string
	SearchType   string // query kind: user_details, user_top, subreddit_hot, subreddit_top
	Username     string
	Subreddit    string
	Keywords     string
	PeriodDays   int
	LimitValue   int
	IncludeLinks bool
	ResultsJSON  string // fetched result set, serialized for replay on the results page
	CreatedAt    time.Time
}

// Store defines the interface for search-history persistence
type Store interface {
	CreateSearch(ctx context.Context, search *Search) error
	GetSearch(ctx context.Context, id string) (*Search, error)
	// ListSearches returns the most recent searches, newest first.
	ListSearches(ctx context.Context, limit int) ([]*Search, error)
	Close() error
}
