// ABOUTME: Query kinds, parameters and result types for Reddit lookups
// ABOUTME: Defines the Fetcher interface consumed by the web and chat frontends

package reddit

import "context"

// Kind identifies one of the supported query shapes.
type Kind string

// Supported query kinds.
const (
	KindUserDetails  Kind = "user_details"
	KindUserTop      Kind = "user_top"
	KindSubredditHot Kind = "subreddit_hot"
	KindSubredditTop Kind = "subreddit_top"
)

// Valid reports whether k is one of the supported query kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindUserDetails, KindUserTop, KindSubredditHot, KindSubredditTop:
		return true
	}
	return false
}

// Params carries the fully assembled inputs for a single query.
// Which fields are meaningful depends on the Kind.
type Params struct {
	Username   string
	Subreddit  string
	Keywords   string // comma-separated title filter, blank means no filter
	PeriodDays int    // user_details only
	Limit      int    // list kinds only
}

// Post is one submission as returned by the listing endpoints.
// Immutable once received; ordering is the API's relevance ranking.
type Post struct {
	Title     string
	Upvotes   int
	Subreddit string
	Permalink string
}

// AccountDetails summarizes an account and its recent activity.
type AccountDetails struct {
	Username       string
	AccountAgeDays int
	PostKarma      int
	CommentKarma   int

	// Aggregates over the requested period.
	PeriodDays     int
	PostsSubmitted int
	TotalUpvotes   int
	TotalComments  int
	DeletedPosts   int
	RemovedByMods  int
	RemovedBySpam  int
	RemovedByRules int

	// HighestPosts holds up to five period posts by descending score.
	HighestPosts []Post
	RemovedPosts []Post
}

// ResultSet is the outcome of one completed query.
type ResultSet struct {
	Kind   Kind
	Params Params

	// Account is set for KindUserDetails, Posts for the list kinds.
	Account *AccountDetails
	Posts   []Post
}

// Fetcher is the synchronous query entry point. Failures are returned as
// error values carrying a human-readable description; implementations must
// not panic.
type Fetcher interface {
	Fetch(ctx context.Context, kind Kind, p Params) (*ResultSet, error)
}
