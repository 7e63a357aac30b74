// ABOUTME: Maps inbound Telegram updates to dialogue engine events
// ABOUTME: Commands start dialogues; free text and button presses submit fields

package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aljazleben/eyecandyredditbot/internal/dialog"
	"github.com/aljazleben/eyecandyredditbot/internal/reddit"
	"github.com/aljazleben/eyecandyredditbot/internal/render"
)

// Sender is the outbound side of the transport, split out so the router
// can be tested without HTTP.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *Keyboard) error
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
}

// commands maps slash commands to the query kind they start.
var commands = map[string]reddit.Kind{
	"/user_details":  reddit.KindUserDetails,
	"/user_top":      reddit.KindUserTop,
	"/subreddit_hot": reddit.KindSubredditHot,
	"/subreddit_top": reddit.KindSubredditTop,
}

// Router dispatches one update at a time per chat. It is stateless; all
// dialogue state lives in the engine's session store.
type Router struct {
	engine *dialog.Engine
	sender Sender
	logger *slog.Logger
}

func NewRouter(engine *dialog.Engine, sender Sender, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		engine: engine,
		sender: sender,
		logger: logger.With("component", "telegram"),
	}
}

// HandleUpdate processes one inbound update to completion. The caller
// must not run two updates for the same chat concurrently.
func (r *Router) HandleUpdate(ctx context.Context, u Update) {
	switch {
	case u.CallbackQuery != nil:
		r.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		r.handleMessage(ctx, u.Message)
	}
}

func (r *Router) handleMessage(ctx context.Context, msg *Message) {
	if msg.Chat == nil || (msg.From != nil && msg.From.IsBot) {
		return
	}
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	if strings.HasPrefix(text, "/") {
		r.handleCommand(ctx, chatID, text)
		return
	}
	r.submit(ctx, chatID, msg.Text)
}

func (r *Router) handleCallback(ctx context.Context, cb *CallbackQuery) {
	if err := r.sender.AnswerCallbackQuery(ctx, cb.ID); err != nil {
		r.logger.Warn("failed to answer callback query", "error", err)
	}
	if cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	r.submit(ctx, cb.Message.Chat.ID, cb.Data)
}

func (r *Router) handleCommand(ctx context.Context, chatID int64, text string) {
	command := strings.Fields(text)[0]
	// Group chats address commands as /command@botname.
	if i := strings.Index(command, "@"); i > 0 {
		command = command[:i]
	}

	switch command {
	case "/start", "/help":
		r.send(ctx, chatID, dialog.Reply{Messages: []string{helpText()}})
		return
	case "/cancel":
		r.send(ctx, chatID, r.engine.Cancel(sessionID(chatID)))
		return
	}

	kind, ok := commands[command]
	if !ok {
		d := render.MarkdownV2{}
		r.send(ctx, chatID, dialog.Reply{Messages: []string{
			d.Escape("Unknown command. ") + helpText(),
		}})
		return
	}

	reply, err := r.engine.Start(sessionID(chatID), kind)
	if err != nil {
		r.logger.Error("failed to start dialogue", "command", command, "error", err)
		return
	}
	r.send(ctx, chatID, reply)
}

func (r *Router) submit(ctx context.Context, chatID int64, input string) {
	reply, err := r.engine.Submit(ctx, sessionID(chatID), input)
	if errors.Is(err, dialog.ErrNoActiveSession) {
		d := render.MarkdownV2{}
		r.send(ctx, chatID, dialog.Reply{Messages: []string{
			d.Escape("No search in progress. ") + helpText(),
		}})
		return
	}
	if err != nil {
		r.logger.Error("failed to handle input", "error", err)
		return
	}
	r.send(ctx, chatID, reply)
}

// send delivers a reply in order, attaching the choice keyboard to the
// final message only.
func (r *Router) send(ctx context.Context, chatID int64, reply dialog.Reply) {
	for i, text := range reply.Messages {
		var keyboard *Keyboard
		if i == len(reply.Messages)-1 && len(reply.Choices) > 0 {
			keyboard = keyboardFor(reply.Choices)
		}
		if err := r.sender.SendMessage(ctx, chatID, text, keyboard); err != nil {
			r.logger.Error("failed to send message", "chat_id", chatID, "error", err)
			return
		}
	}
}

// keyboardFor lays the choices out as one row of buttons.
func keyboardFor(choices []dialog.Choice) *Keyboard {
	row := make([]Button, 0, len(choices))
	for _, c := range choices {
		row = append(row, Button{Text: c.Label, CallbackData: c.Value})
	}
	return &Keyboard{InlineKeyboard: [][]Button{row}}
}

func sessionID(chatID int64) string {
	return "telegram:" + strconv.FormatInt(chatID, 10)
}

func helpText() string {
	d := render.MarkdownV2{}
	var b strings.Builder
	b.WriteString(d.Bold("Reddit activity bot") + "\n")
	b.WriteString(d.Escape("Pick a search:") + "\n")
	b.WriteString(d.Code("/user_details") + d.Escape(" - account karma, age and recent activity") + "\n")
	b.WriteString(d.Code("/user_top") + d.Escape(" - a user's top posts") + "\n")
	b.WriteString(d.Code("/subreddit_hot") + d.Escape(" - hot posts in a subreddit") + "\n")
	b.WriteString(d.Code("/subreddit_top") + d.Escape(" - a subreddit's all-time top posts") + "\n")
	b.WriteString(d.Code("/cancel") + d.Escape(" - abandon the current search"))
	return b.String()
}
