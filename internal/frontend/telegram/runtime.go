// ABOUTME: Long-poll loop for the Telegram frontend
// ABOUTME: Routes updates through per-chat FIFO queues; chats run concurrently

package telegram

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// MaxMessageLen is the Bot API limit for one message's text.
	MaxMessageLen = 4096
	// MaxBlocksPerMessage caps result blocks packed into one message.
	MaxBlocksPerMessage = 20

	pollTimeout = 30 * time.Second
	errorPause  = 2 * time.Second

	// chatQueueSize bounds the updates waiting per chat. A user who
	// outruns the bot by this much loses the overflow rather than
	// having it reordered or held indefinitely.
	chatQueueSize = 16
)

// Runtime owns the getUpdates loop. Each chat gets its own worker
// goroutine draining a FIFO queue, so events for one chat are handled
// strictly in arrival order while chats never block each other.
type Runtime struct {
	api    *API
	router *Router
	logger *slog.Logger

	mu     sync.Mutex
	queues map[int64]chan Update
}

func NewRuntime(api *API, router *Router, logger *slog.Logger) *Runtime {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{
		api:    api,
		router: router,
		logger: logger.With("component", "telegram"),
		queues: make(map[int64]chan Update),
	}
}

// Run polls until the context is cancelled.
func (rt *Runtime) Run(ctx context.Context) error {
	me, err := rt.api.GetMe(ctx)
	if err != nil {
		return err
	}
	rt.logger.Info("telegram frontend connected", "username", me.Username, "bot_id", me.ID)

	var offset int64
	for {
		updates, next, err := rt.api.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !IsPollTimeout(err) {
				rt.logger.Warn("getUpdates failed", "error", err)
				select {
				case <-time.After(errorPause):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			continue
		}
		offset = next

		for _, update := range updates {
			chatID, ok := updateChatID(update)
			if !ok {
				continue
			}
			rt.dispatch(ctx, chatID, update)
		}
	}
}

// dispatch enqueues an update for its chat's worker. Enqueueing from
// the single poll loop keeps per-chat order identical to arrival order.
// A full queue drops the update instead of blocking the poll loop.
func (rt *Runtime) dispatch(ctx context.Context, chatID int64, u Update) {
	select {
	case rt.chatQueue(ctx, chatID) <- u:
	default:
		rt.logger.Warn("chat queue full, dropping update", "chat_id", chatID)
	}
}

// chatQueue returns the chat's queue, starting its worker on first use.
// Workers live until the context ends; the map is bounded by the number
// of chats seen, same as the session store.
func (rt *Runtime) chatQueue(ctx context.Context, chatID int64) chan Update {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	q, ok := rt.queues[chatID]
	if !ok {
		q = make(chan Update, chatQueueSize)
		rt.queues[chatID] = q
		go rt.drainChat(ctx, q)
	}
	return q
}

func (rt *Runtime) drainChat(ctx context.Context, q chan Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case u := <-q:
			rt.router.HandleUpdate(ctx, u)
		}
	}
}

func updateChatID(u Update) (int64, bool) {
	switch {
	case u.Message != nil && u.Message.Chat != nil:
		return u.Message.Chat.ID, true
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil && u.CallbackQuery.Message.Chat != nil:
		return u.CallbackQuery.Message.Chat.ID, true
	}
	return 0, false
}
