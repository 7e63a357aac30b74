// ABOUTME: Matrix frontend for the guided query dialogue
// ABOUTME: Syncs via mautrix, routes room messages to the engine, replies as HTML

package matrix

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"

	"github.com/aljazleben/eyecandyredditbot/internal/dialog"
	"github.com/aljazleben/eyecandyredditbot/internal/reddit"
)

// Config holds the Matrix connection and room policy settings.
type Config struct {
	Homeserver      string
	UserID          string
	AccessToken     string
	AllowedRooms    []string
	TypingIndicator bool
}

// commands maps bang commands to the query kind they start.
var commands = map[string]reddit.Kind{
	"!user_details":  reddit.KindUserDetails,
	"!user_top":      reddit.KindUserTop,
	"!subreddit_hot": reddit.KindSubredditHot,
	"!subreddit_top": reddit.KindSubredditTop,
}

// networkTimeout is the timeout for Matrix API calls.
const networkTimeout = 10 * time.Second

// typingTimeout is the duration the typing indicator shows.
const typingTimeout = 30 * time.Second

// roomQueueSize bounds the messages waiting per room. Overflow is
// dropped rather than reordered or held indefinitely.
const roomQueueSize = 16

// Bridge connects a Matrix account to the dialogue engine. One session
// per room; choice fields are answered by typing one of the offered
// values.
type Bridge struct {
	config Config
	matrix *mautrix.Client
	engine *dialog.Engine
	logger *slog.Logger

	// sendFunc is swapped out in tests.
	sendFunc func(roomID id.RoomID, htmlBody string)

	mu     sync.Mutex
	queues map[id.RoomID]chan string

	ctx    context.Context
	cancel context.CancelFunc
}

// NewBridge creates a new Matrix bridge.
func NewBridge(cfg Config, engine *dialog.Engine, logger *slog.Logger) (*Bridge, error) {
	client, err := mautrix.NewClient(cfg.Homeserver, id.UserID(cfg.UserID), cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("creating matrix client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	b := &Bridge{
		config: cfg,
		matrix: client,
		engine: engine,
		logger: logger.With("component", "matrix"),
		queues: make(map[id.RoomID]chan string),
	}
	b.sendFunc = b.sendHTML
	return b, nil
}

// Run starts the sync loop and blocks until the context is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	b.logger.Info("starting matrix frontend",
		"homeserver", b.config.Homeserver,
		"user_id", b.config.UserID,
	)

	b.ctx, b.cancel = context.WithCancel(ctx)
	defer b.cancel()

	syncer, ok := b.matrix.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return fmt.Errorf("unexpected syncer type: %T", b.matrix.Syncer)
	}
	syncer.OnEventType(event.EventMessage, b.handleMessageEvent)

	syncErr := make(chan error, 1)
	go func() {
		syncErr <- b.matrix.SyncWithContext(b.ctx)
	}()

	b.logger.Info("matrix frontend running")

	select {
	case <-ctx.Done():
		b.logger.Info("shutting down matrix frontend")
		b.cancel()
		return nil
	case err := <-syncErr:
		return fmt.Errorf("matrix sync failed: %w", err)
	}
}

// handleMessageEvent processes incoming Matrix messages.
func (b *Bridge) handleMessageEvent(ctx context.Context, evt *event.Event) {
	// Ignore our own messages
	if evt.Sender == id.UserID(b.config.UserID) {
		return
	}

	content, ok := evt.Content.Parsed.(*event.MessageEventContent)
	if !ok || content.MsgType != event.MsgText {
		return
	}

	roomID := evt.RoomID.String()
	if !b.isRoomAllowed(roomID) {
		b.logger.Debug("ignoring message from non-allowed room", "room", roomID)
		return
	}

	// Enqueue for the room's worker so the sync loop never blocks and
	// events for one room are handled strictly in arrival order.
	b.enqueue(b.ctx, evt.RoomID, content.Body)
}

// enqueue hands a message to its room's FIFO worker. A full queue
// drops the message instead of blocking the sync loop.
func (b *Bridge) enqueue(ctx context.Context, roomID id.RoomID, body string) {
	select {
	case b.roomQueue(ctx, roomID) <- body:
	default:
		b.logger.Warn("room queue full, dropping message", "room", roomID.String())
	}
}

// roomQueue returns the room's queue, starting its worker on first use.
// Workers live until the context ends; the map is bounded by the number
// of rooms seen.
func (b *Bridge) roomQueue(ctx context.Context, roomID id.RoomID) chan string {
	b.mu.Lock()
	defer b.mu.Unlock()
	q, ok := b.queues[roomID]
	if !ok {
		q = make(chan string, roomQueueSize)
		b.queues[roomID] = q
		go b.drainRoom(ctx, roomID, q)
	}
	return q
}

func (b *Bridge) drainRoom(ctx context.Context, roomID id.RoomID, q chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case body := <-q:
			b.processMessage(ctx, roomID, body)
		}
	}
}

func (b *Bridge) processMessage(ctx context.Context, roomID id.RoomID, body string) {
	if b.config.TypingIndicator {
		b.setTyping(roomID, true)
		defer b.setTyping(roomID, false)
	}

	for _, msg := range b.repliesFor(ctx, roomID.String(), body) {
		b.sendFunc(roomID, msg)
	}
}

// repliesFor routes one message body through the engine and returns the
// HTML messages to send back. Free text in a room with no active
// session is ignored so the bot stays quiet in busy rooms.
func (b *Bridge) repliesFor(ctx context.Context, roomID, body string) []string {
	body = strings.TrimSpace(body)

	if strings.HasPrefix(body, "!") {
		return b.handleCommand(roomID, body)
	}

	reply, err := b.engine.Submit(ctx, sessionID(roomID), body)
	if errors.Is(err, dialog.ErrNoActiveSession) {
		return nil
	}
	if err != nil {
		b.logger.Error("failed to handle input", "room", roomID, "error", err)
		return nil
	}
	return withChoiceHints(reply)
}

func (b *Bridge) handleCommand(roomID, body string) []string {
	command := strings.Fields(body)[0]

	switch command {
	case "!help":
		return []string{helpHTML()}
	case "!cancel":
		return withChoiceHints(b.engine.Cancel(sessionID(roomID)))
	}

	kind, ok := commands[command]
	if !ok {
		return []string{"Unknown command. " + helpHTML()}
	}

	reply, err := b.engine.Start(sessionID(roomID), kind)
	if err != nil {
		b.logger.Error("failed to start dialogue", "command", command, "error", err)
		return nil
	}
	return withChoiceHints(reply)
}

// withChoiceHints appends the offered values to the final message, since
// Matrix has no inline buttons.
func withChoiceHints(reply dialog.Reply) []string {
	if len(reply.Messages) == 0 {
		return nil
	}
	if len(reply.Choices) == 0 {
		return reply.Messages
	}

	labels := make([]string, 0, len(reply.Choices))
	for _, c := range reply.Choices {
		labels = append(labels, "<code>"+html.EscapeString(c.Value)+"</code>")
	}
	messages := append([]string{}, reply.Messages...)
	messages[len(messages)-1] += "<br>Reply with one of: " + strings.Join(labels, " ")
	return messages
}

// isRoomAllowed checks if the room is in the allowed list.
func (b *Bridge) isRoomAllowed(roomID string) bool {
	if len(b.config.AllowedRooms) == 0 {
		return true // Allow all if no filter
	}
	for _, allowed := range b.config.AllowedRooms {
		if allowed == roomID {
			return true
		}
	}
	return false
}

// setTyping sends the typing indicator to a room.
func (b *Bridge) setTyping(roomID id.RoomID, typing bool) {
	var timeout time.Duration
	if typing {
		timeout = typingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), networkTimeout)
	defer cancel()
	if _, err := b.matrix.UserTyping(ctx, roomID, typing, timeout); err != nil {
		b.logger.Debug("failed to set typing indicator", "room", roomID.String(), "error", err)
	}
}

// sendHTML sends one formatted message, with a plain-text body for
// clients that don't render HTML.
func (b *Bridge) sendHTML(roomID id.RoomID, htmlBody string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	content := event.MessageEventContent{
		MsgType:       event.MsgText,
		Body:          stripTags(htmlBody),
		Format:        event.FormatHTML,
		FormattedBody: htmlBody,
	}
	if _, err := b.matrix.SendMessageEvent(ctx, roomID, event.EventMessage, &content); err != nil {
		b.logger.Error("failed to send message", "room", roomID.String(), "error", err)
	}
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// stripTags produces the plain-text fallback body for an HTML message.
func stripTags(s string) string {
	s = strings.ReplaceAll(s, "<br>", "\n")
	return html.UnescapeString(tagPattern.ReplaceAllString(s, ""))
}

func sessionID(roomID string) string {
	return "matrix:" + roomID
}

func helpHTML() string {
	return "<b>Reddit activity bot</b><br>Pick a search:<br>" +
		"<code>!user_details</code> - account karma, age and recent activity<br>" +
		"<code>!user_top</code> - a user's top posts<br>" +
		"<code>!subreddit_hot</code> - hot posts in a subreddit<br>" +
		"<code>!subreddit_top</code> - a subreddit's all-time top posts<br>" +
		"<code>!cancel</code> - abandon the current search"
}
