// Package reddit provides a read-only Reddit API client and the fetch
// service that answers account and subreddit queries for the frontends.
package reddit
