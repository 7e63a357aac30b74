// ABOUTME: Tests for the web form handlers
// ABOUTME: Uses httptest with a fake fetcher and a real SQLite store

package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aljazleben/eyecandyredditbot/internal/reddit"
	"github.com/aljazleben/eyecandyredditbot/internal/store"
)

type fakeFetcher struct {
	calls     int
	gotKind   reddit.Kind
	gotParams reddit.Params
	posts     []reddit.Post
	err       error
}

func (f *fakeFetcher) Fetch(_ context.Context, kind reddit.Kind, p reddit.Params) (*reddit.ResultSet, error) {
	f.calls++
	f.gotKind = kind
	f.gotParams = p
	if f.err != nil {
		return nil, f.err
	}
	return &reddit.ResultSet{Kind: kind, Params: p, Posts: f.posts}, nil
}

func newTestApp(t *testing.T, fetcher *fakeFetcher) (*App, store.Store) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "web.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewApp(fetcher, st, nil), st
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t, &fakeFetcher{})

	rec := get(t, app.Routes(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestIndex(t *testing.T) {
	app, _ := newTestApp(t, &fakeFetcher{})

	rec := get(t, app.Routes(), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Reddit Activity")
}

func TestFormPages(t *testing.T) {
	app, _ := newTestApp(t, &fakeFetcher{})
	routes := app.Routes()

	for path, want := range map[string]string{
		"/user-details":  "Account Details",
		"/user-top":      "Top Posts by User",
		"/subreddit-hot": "Hot Posts in Subreddit",
		"/subreddit-top": "All-Time Top Posts in Subreddit",
	} {
		rec := get(t, routes, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Contains(t, rec.Body.String(), want, path)
	}
}

func TestSubmitUserTop_RedirectsToResults(t *testing.T) {
	fetcher := &fakeFetcher{posts: []reddit.Post{
		{Title: "winning post", Upvotes: 1234, Subreddit: "golang", Permalink: "/r/golang/1"},
	}}
	app, _ := newTestApp(t, fetcher)
	routes := app.Routes()

	rec := postForm(t, routes, "/user-top", url.Values{
		"username": {"alice"},
		"keywords": {""},
		"limit":    {"30"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	location := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(location, "/results/"))

	assert.Equal(t, reddit.KindUserTop, fetcher.gotKind)
	assert.Equal(t, reddit.Params{Username: "alice", Limit: 30}, fetcher.gotParams)

	results := get(t, routes, location)
	assert.Equal(t, http.StatusOK, results.Code)
	assert.Contains(t, results.Body.String(), "winning post")
	assert.Contains(t, results.Body.String(), "1,234")
}

func TestSubmit_BlankNumbersTakeDefaults(t *testing.T) {
	fetcher := &fakeFetcher{}
	app, _ := newTestApp(t, fetcher)

	rec := postForm(t, app.Routes(), "/user-details", url.Values{
		"username": {"u/alice"},
		"days":     {""},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, reddit.Params{Username: "alice", PeriodDays: 1}, fetcher.gotParams)
}

func TestSubmit_MissingUsername(t *testing.T) {
	fetcher := &fakeFetcher{}
	app, _ := newTestApp(t, fetcher)

	rec := postForm(t, app.Routes(), "/user-top", url.Values{"limit": {"30"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "username is required")
	assert.Equal(t, 0, fetcher.calls)
}

func TestSubmit_InvalidDays(t *testing.T) {
	fetcher := &fakeFetcher{}
	app, _ := newTestApp(t, fetcher)

	rec := postForm(t, app.Routes(), "/user-details", url.Values{
		"username": {"alice"},
		"days":     {"abc"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "days must be a positive number")
	assert.Equal(t, 0, fetcher.calls)
}

func TestSubmit_FetchErrorRerendersForm(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("reddit api error: user not found")}
	app, st := newTestApp(t, fetcher)

	rec := postForm(t, app.Routes(), "/user-top", url.Values{
		"username": {"ghost"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "user not found")
	// Sticky input survives the error.
	assert.Contains(t, rec.Body.String(), `value="ghost"`)

	searches, err := st.ListSearches(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, searches, "failed fetches are not recorded")
}

func TestSubmit_LinksCheckboxPersisted(t *testing.T) {
	fetcher := &fakeFetcher{}
	app, st := newTestApp(t, fetcher)
	routes := app.Routes()
	ctx := context.Background()

	rec := postForm(t, routes, "/subreddit-hot", url.Values{
		"subreddit": {"golang"},
		"links":     {"on"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = postForm(t, routes, "/subreddit-hot", url.Values{
		"subreddit": {"golang"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	searches, err := st.ListSearches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, searches, 2)
	// Newest first: the second submit had the checkbox unchecked.
	assert.False(t, searches[0].IncludeLinks)
	assert.True(t, searches[1].IncludeLinks)
	assert.Equal(t, 20, searches[0].LimitValue, "blank limit takes the default")
}

func TestHistory(t *testing.T) {
	fetcher := &fakeFetcher{}
	app, _ := newTestApp(t, fetcher)
	routes := app.Routes()

	rec := postForm(t, routes, "/subreddit-top", url.Values{"subreddit": {"pics"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	hist := get(t, routes, "/history")
	assert.Equal(t, http.StatusOK, hist.Code)
	assert.Contains(t, hist.Body.String(), "r/pics")
	assert.Contains(t, hist.Body.String(), "subreddit_top")
}

func TestResults_NotFound(t *testing.T) {
	app, _ := newTestApp(t, &fakeFetcher{})

	rec := get(t, app.Routes(), "/results/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResults_EscapesTitles(t *testing.T) {
	fetcher := &fakeFetcher{posts: []reddit.Post{
		{Title: "<script>alert(1)</script>", Upvotes: 1, Subreddit: "test"},
	}}
	app, _ := newTestApp(t, fetcher)
	routes := app.Routes()

	rec := postForm(t, routes, "/subreddit-hot", url.Values{"subreddit": {"test"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	results := get(t, routes, rec.Header().Get("Location"))
	assert.NotContains(t, results.Body.String(), "<script>alert(1)</script>")
	assert.Contains(t, results.Body.String(), "&lt;script&gt;")
}

func TestHelp(t *testing.T) {
	app, _ := newTestApp(t, &fakeFetcher{})
	routes := app.Routes()

	rec := get(t, routes, "/help")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Getting Started")

	rec = get(t, routes, "/help?topic=chat-bot")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/user_details")

	rec = get(t, routes, "/help?topic=missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFormatHelpTitle(t *testing.T) {
	assert.Equal(t, "Getting Started", formatHelpTitle("getting-started"))
	assert.Equal(t, "Chat Bot", formatHelpTitle("chat-bot"))
}
