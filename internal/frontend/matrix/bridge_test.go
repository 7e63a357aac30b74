// ABOUTME: Tests for the Matrix bridge message routing
// ABOUTME: Drives repliesFor directly; no homeserver involved

package matrix

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"maunium.net/go/mautrix/id"

	"github.com/aljazleben/eyecandyredditbot/internal/dialog"
	"github.com/aljazleben/eyecandyredditbot/internal/reddit"
	"github.com/aljazleben/eyecandyredditbot/internal/render"
)

type fakeFetcher struct {
	gotParams reddit.Params
	posts     []reddit.Post
}

func (f *fakeFetcher) Fetch(_ context.Context, kind reddit.Kind, p reddit.Params) (*reddit.ResultSet, error) {
	f.gotParams = p
	return &reddit.ResultSet{Kind: kind, Params: p, Posts: f.posts}, nil
}

func newTestBridge(t *testing.T, fetcher reddit.Fetcher) *Bridge {
	t.Helper()
	engine := dialog.NewEngine(dialog.NewMemoryStore(16), fetcher, dialog.Options{
		Dialect: render.HTML{},
	})
	return &Bridge{
		config: Config{UserID: "@bot:example.org"},
		engine: engine,
		logger: slog.Default(),
		queues: make(map[id.RoomID]chan string),
	}
}

func TestBridge_HelpCommand(t *testing.T) {
	b := newTestBridge(t, &fakeFetcher{})

	replies := b.repliesFor(context.Background(), "!room:example.org", "!help")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "!user_details")
	assert.Contains(t, replies[0], "!subreddit_top")
}

func TestBridge_UnknownCommand(t *testing.T) {
	b := newTestBridge(t, &fakeFetcher{})

	replies := b.repliesFor(context.Background(), "!room:example.org", "!frobnicate")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "Unknown command")
}

func TestBridge_FreeTextWithoutSessionStaysQuiet(t *testing.T) {
	b := newTestBridge(t, &fakeFetcher{})

	replies := b.repliesFor(context.Background(), "!room:example.org", "just chatting")
	assert.Empty(t, replies)
}

func TestBridge_FullDialogue(t *testing.T) {
	fetcher := &fakeFetcher{posts: []reddit.Post{
		{Title: "great post", Upvotes: 10, Subreddit: "pics", Permalink: "/r/pics/1"},
	}}
	b := newTestBridge(t, fetcher)
	ctx := context.Background()
	room := "!room:example.org"

	replies := b.repliesFor(ctx, room, "!subreddit_hot")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "subreddit")

	b.repliesFor(ctx, room, "pics")
	limitPrompt := b.repliesFor(ctx, room, "")
	require.Len(t, limitPrompt, 1)
	assert.Contains(t, limitPrompt[0], "Reply with one of:")
	assert.Contains(t, limitPrompt[0], "<code>10</code>")

	b.repliesFor(ctx, room, "10")
	final := b.repliesFor(ctx, room, "yes")

	assert.Equal(t, reddit.Params{Subreddit: "pics", Limit: 10}, fetcher.gotParams)
	joined := strings.Join(final, "\n")
	assert.Contains(t, joined, "great post")
	assert.Contains(t, joined, "https://www.reddit.com/r/pics/1")
}

func TestBridge_Cancel(t *testing.T) {
	b := newTestBridge(t, &fakeFetcher{})
	ctx := context.Background()
	room := "!room:example.org"

	b.repliesFor(ctx, room, "!user_top")
	replies := b.repliesFor(ctx, room, "!cancel")
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "Cancelled")

	// Session gone: free text is ignored again.
	assert.Empty(t, b.repliesFor(ctx, room, "alice"))
}

func TestBridge_RoomsAreIndependent(t *testing.T) {
	b := newTestBridge(t, &fakeFetcher{})
	ctx := context.Background()

	b.repliesFor(ctx, "!one:example.org", "!user_top")
	assert.Empty(t, b.repliesFor(ctx, "!two:example.org", "alice"))
}

func TestIsRoomAllowed(t *testing.T) {
	b := newTestBridge(t, &fakeFetcher{})
	assert.True(t, b.isRoomAllowed("!any:example.org"))

	b.config.AllowedRooms = []string{"!yes:example.org"}
	assert.True(t, b.isRoomAllowed("!yes:example.org"))
	assert.False(t, b.isRoomAllowed("!no:example.org"))
}

func TestBridge_RoomMessagesHandledInOrder(t *testing.T) {
	fetched := make(chan reddit.Params, 1)
	fetcher := &orderedFetcher{fetched: fetched}
	b := newTestBridge(t, fetcher)
	b.sendFunc = func(_ id.RoomID, htmlBody string) {
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	room := id.RoomID("!room:example.org")

	// One sync response delivering a whole dialogue. Were any two of
	// these swapped, the engine would collect the wrong field values.
	for _, body := range []string{"!user_top", "alice", "", "30"} {
		b.enqueue(ctx, room, body)
	}

	select {
	case params := <-fetched:
		assert.Equal(t, reddit.Params{Username: "alice", Limit: 30}, params)
	case <-time.After(5 * time.Second):
		t.Fatal("dialogue never reached the fetch")
	}
}

type orderedFetcher struct {
	fetched chan reddit.Params
}

func (f *orderedFetcher) Fetch(_ context.Context, kind reddit.Kind, p reddit.Params) (*reddit.ResultSet, error) {
	f.fetched <- p
	return &reddit.ResultSet{Kind: kind, Params: p}, nil
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "bold & plain\nnext", stripTags("<b>bold &amp; plain</b><br>next"))
	assert.Equal(t, "r/pics", stripTags(`<a href="https://example.org">r/pics</a>`))
}
