// ABOUTME: Formats a fetched ResultSet into escaped, human-readable blocks
// ABOUTME: One block per post; account details get a summary block plus highlights

package render

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/aljazleben/eyecandyredditbot/internal/reddit"
)

// permalinkBase prefixes the relative permalinks returned by the API.
const permalinkBase = "https://www.reddit.com"

// noSubredditPlaceholder is rendered when a post carries no subreddit.
const noSubredditPlaceholder = "(no subreddit)"

// Header returns a one-line description of the completed query, suitable
// as a standalone message ahead of the result blocks.
func Header(rs *reddit.ResultSet, d Dialect) string {
	var parts []string
	if rs.Params.Username != "" {
		parts = append(parts, "u/"+rs.Params.Username)
	}
	if rs.Params.Subreddit != "" {
		parts = append(parts, "r/"+rs.Params.Subreddit)
	}
	switch rs.Kind {
	case reddit.KindUserDetails:
		parts = append(parts, fmt.Sprintf("last %d day(s)", rs.Params.PeriodDays))
	case reddit.KindUserTop:
		parts = append(parts, "top posts")
	case reddit.KindSubredditHot:
		parts = append(parts, "hot posts")
	case reddit.KindSubredditTop:
		parts = append(parts, "all-time top posts")
	}
	if rs.Params.Keywords != "" {
		parts = append(parts, "keywords: "+rs.Params.Keywords)
	}
	return d.Bold(strings.Join(parts, " | "))
}

// Format turns a ResultSet into ordered, escaped blocks. Each block is an
// atomic unit for chunking. A successful fetch never yields zero blocks:
// empty list results produce a single no-results notice.
func Format(rs *reddit.ResultSet, includeLinks bool, d Dialect) []string {
	if rs.Kind == reddit.KindUserDetails && rs.Account != nil {
		return formatAccount(rs.Account, includeLinks, d)
	}
	return formatPosts(rs, includeLinks, d)
}

func formatPosts(rs *reddit.ResultSet, includeLinks bool, d Dialect) []string {
	posts := rs.Posts
	// The fetch already respects the limit; enforce it again here so a
	// misbehaving upstream cannot flood the transport.
	if rs.Params.Limit > 0 && len(posts) > rs.Params.Limit {
		posts = posts[:rs.Params.Limit]
	}

	if len(posts) == 0 {
		return []string{d.Escape("No results.")}
	}

	blocks := make([]string, 0, len(posts))
	for i, p := range posts {
		blocks = append(blocks, postBlock(i+1, p, includeLinks, d))
	}
	return blocks
}

// postBlock renders one post as a numbered, escaped block.
func postBlock(n int, p reddit.Post, includeLinks bool, d Dialect) string {
	sub := noSubredditPlaceholder
	if p.Subreddit != "" {
		sub = "r/" + p.Subreddit
	}

	var b strings.Builder
	b.WriteString(d.Escape(fmt.Sprintf("%d.", n)))
	b.WriteString(" ")
	b.WriteString(d.Bold("(" + humanize.Comma(int64(p.Upvotes)) + ")"))
	b.WriteString(" ")
	b.WriteString(d.Escape(sub + ": " + p.Title))
	if includeLinks && p.Permalink != "" {
		url := permalinkBase + p.Permalink
		b.WriteString("\n")
		b.WriteString(d.Link(url, url))
	}
	return b.String()
}

// formatAccount renders the account summary followed by up to five
// highlighted posts, each as its own block.
func formatAccount(a *reddit.AccountDetails, includeLinks bool, d Dialect) []string {
	comma := func(n int) string { return humanize.Comma(int64(n)) }

	var s strings.Builder
	s.WriteString(d.Bold("User:"))
	s.WriteString(" " + d.Escape("u/"+a.Username) + "\n")
	s.WriteString(d.Bold("Account age:"))
	s.WriteString(" " + d.Escape(comma(a.AccountAgeDays)+" days") + "\n")
	s.WriteString(d.Bold("Post karma:"))
	s.WriteString(" " + d.Escape(comma(a.PostKarma)))
	s.WriteString(d.Escape(" | "))
	s.WriteString(d.Bold("Comment karma:"))
	s.WriteString(" " + d.Escape(comma(a.CommentKarma)) + "\n")
	s.WriteString(d.Escape(fmt.Sprintf("Posts in %dd: %s | Upvotes: %s | Comments: %s",
		a.PeriodDays, comma(a.PostsSubmitted), comma(a.TotalUpvotes), comma(a.TotalComments))))
	s.WriteString("\n")
	s.WriteString(d.Escape(fmt.Sprintf("Removed: %s (mods: %s, spam: %s, rules: %s)",
		comma(a.DeletedPosts), comma(a.RemovedByMods), comma(a.RemovedBySpam), comma(a.RemovedByRules))))

	if len(a.HighestPosts) > 0 {
		s.WriteString("\n")
		s.WriteString(d.Bold("Top posts:"))
	}

	blocks := []string{s.String()}
	for i, p := range a.HighestPosts {
		blocks = append(blocks, postBlock(i+1, p, includeLinks, d))
	}
	return blocks
}
