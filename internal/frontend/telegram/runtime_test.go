// ABOUTME: Tests for the per-chat update queues
// ABOUTME: Dispatches batches directly; no polling or HTTP involved

package telegram

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aljazleben/eyecandyredditbot/internal/dialog"
	"github.com/aljazleben/eyecandyredditbot/internal/reddit"
	"github.com/aljazleben/eyecandyredditbot/internal/render"
)

// slowSender records messages under a lock and makes every send take a
// while, so out-of-order handling of a batch would be visible.
type slowSender struct {
	mu   sync.Mutex
	sent []string
}

func (s *slowSender) SendMessage(_ context.Context, _ int64, text string, _ *Keyboard) error {
	time.Sleep(5 * time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, text)
	return nil
}

func (s *slowSender) AnswerCallbackQuery(_ context.Context, _ string) error { return nil }

type signallingFetcher struct {
	mu        sync.Mutex
	gotParams reddit.Params
	fetched   chan struct{}
}

func (f *signallingFetcher) Fetch(_ context.Context, kind reddit.Kind, p reddit.Params) (*reddit.ResultSet, error) {
	f.mu.Lock()
	f.gotParams = p
	f.mu.Unlock()
	close(f.fetched)
	return &reddit.ResultSet{Kind: kind, Params: p}, nil
}

func newTestRuntime(fetcher reddit.Fetcher) (*Runtime, *slowSender) {
	engine := dialog.NewEngine(dialog.NewMemoryStore(16), fetcher, dialog.Options{
		Dialect: render.MarkdownV2{},
	})
	sender := &slowSender{}
	router := NewRouter(engine, sender, nil)
	return NewRuntime(nil, router, nil), sender
}

func TestRuntime_ChatUpdatesHandledInOrder(t *testing.T) {
	fetcher := &signallingFetcher{fetched: make(chan struct{})}
	rt, _ := newTestRuntime(fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One poll batch covering a whole dialogue. Were any two of these
	// swapped, the engine would collect the wrong field values.
	batch := []Update{
		textUpdate(1, "/user_top"),
		textUpdate(1, "alice"),
		textUpdate(1, ""),
		textUpdate(1, "30"),
	}
	for _, u := range batch {
		chatID, ok := updateChatID(u)
		require.True(t, ok)
		rt.dispatch(ctx, chatID, u)
	}

	select {
	case <-fetcher.fetched:
	case <-time.After(5 * time.Second):
		t.Fatal("dialogue never reached the fetch")
	}

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	assert.Equal(t, reddit.Params{Username: "alice", Limit: 30}, fetcher.gotParams)
}

func TestRuntime_ChatsDoNotShareQueues(t *testing.T) {
	fetcher := &signallingFetcher{fetched: make(chan struct{})}
	rt, sender := newTestRuntime(fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt.dispatch(ctx, 1, textUpdate(1, "/user_top"))
	rt.dispatch(ctx, 2, textUpdate(2, "alice"))

	// Chat 2 has no session, so its worker answers with the hint
	// regardless of what chat 1 is doing.
	require.Eventually(t, func() bool {
		sender.mu.Lock()
		defer sender.mu.Unlock()
		for _, text := range sender.sent {
			if strings.Contains(text, "No search in progress") {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)
}
