// ABOUTME: Fetch service implementing the four query kinds over the API client
// ABOUTME: Aggregates account details and filters listings by title keywords

package reddit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// maxHighlightedPosts caps the highest-scored posts shown in account details.
const maxHighlightedPosts = 5

// Service implements Fetcher on top of the API client.
type Service struct {
	client *Client
	logger *slog.Logger

	// now is stubbed in tests.
	now func() time.Time
}

// NewService creates a fetch service around the given client.
func NewService(client *Client) *Service {
	return &Service{
		client: client,
		logger: slog.Default().With("component", "reddit"),
		now:    time.Now,
	}
}

// Fetch runs the query described by kind and p.
// All upstream failures come back as plain error values with a readable
// description; callers surface them to the end user.
func (s *Service) Fetch(ctx context.Context, kind Kind, p Params) (*ResultSet, error) {
	start := s.now()
	var (
		rs  *ResultSet
		err error
	)
	switch kind {
	case KindUserDetails:
		rs, err = s.accountDetails(ctx, p)
	case KindUserTop:
		rs, err = s.userTop(ctx, p)
	case KindSubredditHot:
		rs, err = s.subredditPosts(ctx, KindSubredditHot, "hot", p)
	case KindSubredditTop:
		rs, err = s.subredditPosts(ctx, KindSubredditTop, "top", p)
	default:
		return nil, fmt.Errorf("unknown query kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("reddit api error: %w", err)
	}

	s.logger.Debug("fetch complete",
		"kind", string(kind),
		"duration", s.now().Sub(start),
	)
	return rs, nil
}

// accountDetails aggregates a user's submissions over the requested period.
// Listings are newest-first, so paging stops at the first post older than
// the cutoff.
func (s *Service) accountDetails(ctx context.Context, p Params) (*ResultSet, error) {
	about, err := s.client.AboutUser(ctx, p.Username)
	if err != nil {
		return nil, err
	}

	periodDays := p.PeriodDays
	if periodDays <= 0 {
		periodDays = 1
	}
	now := s.now().UTC()
	created := time.Unix(int64(about.Data.CreatedUTC), 0).UTC()
	cutoff := now.AddDate(0, 0, -periodDays)

	details := &AccountDetails{
		Username:       p.Username,
		AccountAgeDays: int(now.Sub(created).Hours() / 24),
		PostKarma:      about.Data.LinkKarma,
		CommentKarma:   about.Data.CommentKarma,
		PeriodDays:     periodDays,
	}

	after := ""
	for {
		page, err := s.client.UserSubmitted(ctx, p.Username, "new", listingPageMax, after)
		if err != nil {
			return nil, err
		}
		done := false
		for _, sub := range page.Children {
			postedAt := time.Unix(int64(sub.CreatedUTC), 0).UTC()
			if !postedAt.After(cutoff) {
				done = true
				break
			}
			details.PostsSubmitted++
			details.TotalUpvotes += sub.Score
			details.TotalComments += sub.NumComments
			details.HighestPosts = append(details.HighestPosts, toPost(sub))
			if sub.RemovedByCategory != "" {
				details.DeletedPosts++
				switch sub.RemovedByCategory {
				case "moderator":
					details.RemovedByMods++
				case "spam":
					details.RemovedBySpam++
				case "subreddit":
					details.RemovedByRules++
				}
				details.RemovedPosts = append(details.RemovedPosts, toPost(sub))
			}
		}
		if done || page.After == "" {
			break
		}
		after = page.After
	}

	sort.SliceStable(details.HighestPosts, func(i, j int) bool {
		return details.HighestPosts[i].Upvotes > details.HighestPosts[j].Upvotes
	})
	if len(details.HighestPosts) > maxHighlightedPosts {
		details.HighestPosts = details.HighestPosts[:maxHighlightedPosts]
	}

	return &ResultSet{Kind: KindUserDetails, Params: p, Account: details}, nil
}

// userTop returns a user's top submissions, optionally filtered by keywords.
func (s *Service) userTop(ctx context.Context, p Params) (*ResultSet, error) {
	posts, err := s.collectPosts(ctx, p, func(ctx context.Context, limit int, after string) (listing, error) {
		return s.client.UserSubmitted(ctx, p.Username, "top", limit, after)
	})
	if err != nil {
		return nil, err
	}
	return &ResultSet{Kind: KindUserTop, Params: p, Posts: posts}, nil
}

// subredditPosts returns a subreddit listing, optionally filtered by keywords.
func (s *Service) subredditPosts(ctx context.Context, kind Kind, sortOrder string, p Params) (*ResultSet, error) {
	posts, err := s.collectPosts(ctx, p, func(ctx context.Context, limit int, after string) (listing, error) {
		return s.client.SubredditListing(ctx, p.Subreddit, sortOrder, limit, after)
	})
	if err != nil {
		return nil, err
	}
	return &ResultSet{Kind: kind, Params: p, Posts: posts}, nil
}

type pageFunc func(ctx context.Context, limit int, after string) (listing, error)

// collectPosts gathers up to p.Limit posts from a listing. Without keywords
// a single request for exactly the limit suffices; with keywords it pages
// through the listing until enough titles match or the listing ends.
func (s *Service) collectPosts(ctx context.Context, p Params, fetchPage pageFunc) ([]Post, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = listingPageMax
	}
	matcher := newKeywordMatcher(p.Keywords)

	posts := make([]Post, 0, limit)
	after := ""
	for {
		pageLimit := limit
		if matcher.active() {
			pageLimit = listingPageMax
		}
		page, err := fetchPage(ctx, pageLimit, after)
		if err != nil {
			return nil, err
		}
		for _, sub := range page.Children {
			if !matcher.matches(sub.Title) {
				continue
			}
			posts = append(posts, toPost(sub))
			if len(posts) >= limit {
				return posts, nil
			}
		}
		if page.After == "" || !matcher.active() {
			return posts, nil
		}
		after = page.After
	}
}

// keywordMatcher implements the comma-separated, case-insensitive,
// any-match title filter.
type keywordMatcher struct {
	keywords []string
}

func newKeywordMatcher(raw string) keywordMatcher {
	var kws []string
	for _, kw := range strings.Split(raw, ",") {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	return keywordMatcher{keywords: kws}
}

func (m keywordMatcher) active() bool { return len(m.keywords) > 0 }

func (m keywordMatcher) matches(title string) bool {
	if !m.active() {
		return true
	}
	lower := strings.ToLower(title)
	for _, kw := range m.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func toPost(sub submission) Post {
	return Post{
		Title:     sub.Title,
		Upvotes:   sub.Score,
		Subreddit: sub.Subreddit,
		Permalink: sub.Permalink,
	}
}
