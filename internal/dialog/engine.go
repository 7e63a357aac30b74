// ABOUTME: State machine driving one guided query per session
// ABOUTME: Prompts for fields in order, validates input, dispatches the fetch

package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aljazleben/eyecandyredditbot/internal/reddit"
	"github.com/aljazleben/eyecandyredditbot/internal/render"
	"github.com/aljazleben/eyecandyredditbot/internal/store"
)

// ErrNoActiveSession is returned by Submit when the id has no session.
// Callers surface it as a "start a command first" hint, never a crash.
var ErrNoActiveSession = errors.New("no active session")

// Reply is the engine's answer to one inbound event: the ordered
// messages to send, the choices to offer for the current prompt (empty
// for free-text fields), and whether the dialogue has ended.
type Reply struct {
	Messages []string
	Choices  []Choice
	Done     bool
}

// Options tunes an Engine for one transport.
type Options struct {
	// Dialect escapes everything user-visible. Required.
	Dialect render.Dialect
	// MaxMessageLen caps one outbound message in bytes. Defaults to 4096.
	MaxMessageLen int
	// MaxBlocksPerMessage caps result blocks per message. Defaults to 20.
	MaxBlocksPerMessage int
	// History records completed searches when set. Best effort: a write
	// failure is logged, never surfaced to the user.
	History store.Store
	Logger  *slog.Logger
}

// Engine drives guided multi-turn queries. One Engine serves many
// sessions; each session's events must be serialized by the caller.
type Engine struct {
	store     Store
	fetcher   reddit.Fetcher
	d         render.Dialect
	maxLen    int
	maxBlocks int
	history   store.Store
	logger    *slog.Logger
	now       func() time.Time
}

func NewEngine(store Store, fetcher reddit.Fetcher, opts Options) *Engine {
	if opts.MaxMessageLen <= 0 {
		opts.MaxMessageLen = 4096
	}
	if opts.MaxBlocksPerMessage <= 0 {
		opts.MaxBlocksPerMessage = 20
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:     store,
		fetcher:   fetcher,
		d:         opts.Dialect,
		maxLen:    opts.MaxMessageLen,
		maxBlocks: opts.MaxBlocksPerMessage,
		history:   opts.History,
		logger:    logger.With("component", "dialog"),
		now:       time.Now,
	}
}

// Start begins a fresh dialogue for id, discarding any in-progress one
// (last-write-wins, no queueing), and returns the first prompt.
func (e *Engine) Start(id string, kind reddit.Kind) (Reply, error) {
	fields := Spec(kind)
	if fields == nil {
		return Reply{}, fmt.Errorf("unknown query kind %q", kind)
	}
	e.store.Put(&Session{ID: id, Kind: kind, CreatedAt: e.now()})
	e.logger.Debug("dialogue started", "session", id, "kind", string(kind))
	return e.prompt(fields[0]), nil
}

// Submit applies one user input to the session's current field. Invalid
// input re-emits the same prompt without advancing. Filling the last
// field dispatches the fetch; the session is destroyed before the fetch
// runs, so a session is strictly single-use.
func (e *Engine) Submit(ctx context.Context, id, input string) (Reply, error) {
	s, ok := e.store.Get(id)
	if !ok {
		return Reply{}, ErrNoActiveSession
	}
	fields := Spec(s.Kind)
	field := fields[len(s.Collected)]

	value, valid := field.Parse(input)
	if !valid {
		return e.prompt(field), nil
	}

	s.Collected = append(s.Collected, value)
	if len(s.Collected) < len(fields) {
		e.store.Put(s)
		return e.prompt(fields[len(s.Collected)]), nil
	}

	params, includeLinks := assemble(fields, s.Collected)
	e.store.Delete(id)
	return e.dispatch(ctx, s.Kind, params, includeLinks), nil
}

// Cancel removes the session if present. Idempotent.
func (e *Engine) Cancel(id string) Reply {
	e.store.Delete(id)
	return Reply{
		Messages: []string{e.d.Escape("Cancelled. Send a command to start a new search.")},
		Done:     true,
	}
}

func (e *Engine) prompt(f Field) Reply {
	return Reply{
		Messages: []string{e.d.Escape(f.Prompt)},
		Choices:  f.Choices,
	}
}

func (e *Engine) dispatch(ctx context.Context, kind reddit.Kind, params reddit.Params, includeLinks bool) Reply {
	rs, err := e.fetcher.Fetch(ctx, kind, params)
	if err != nil {
		e.logger.Error("fetch failed", "kind", string(kind), "error", err)
		return Reply{
			Messages: []string{e.d.Escape("Sorry, that search failed: " + err.Error())},
			Done:     true,
		}
	}

	e.recordSearch(rs, includeLinks)

	blocks := render.Format(rs, includeLinks, e.d)
	messages, truncated := render.Chunk(blocks, e.maxLen, e.maxBlocks)
	if truncated {
		e.logger.Warn("result truncated to fit transport limits", "kind", string(kind))
	}
	return Reply{
		Messages: append([]string{render.Header(rs, e.d)}, messages...),
		Done:     true,
	}
}

// recordSearch writes a completed search to the shared history with a
// separate timeout context, so a slow database never delays the reply.
func (e *Engine) recordSearch(rs *reddit.ResultSet, includeLinks bool) {
	if e.history == nil {
		return
	}

	resultsJSON, err := json.Marshal(rs)
	if err != nil {
		e.logger.Error("failed to serialize results for history", "error", err)
		return
	}

	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	search := &store.Search{
		ID:           uuid.New().String(),
		SearchType:   string(rs.Kind),
		Username:     rs.Params.Username,
		Subreddit:    rs.Params.Subreddit,
		Keywords:     rs.Params.Keywords,
		PeriodDays:   rs.Params.PeriodDays,
		LimitValue:   rs.Params.Limit,
		IncludeLinks: includeLinks,
		ResultsJSON:  string(resultsJSON),
		CreatedAt:    e.now(),
	}
	if err := e.history.CreateSearch(saveCtx, search); err != nil {
		e.logger.Error("failed to record search", "error", err, "kind", string(rs.Kind))
	}
}

// assemble maps collected values onto fetch parameters. The links field
// is a formatter toggle, not a fetch parameter; kinds without one always
// include links.
func assemble(fields []Field, values []string) (reddit.Params, bool) {
	var p reddit.Params
	includeLinks := true
	for i, f := range fields {
		v := values[i]
		switch f.Name {
		case fieldUsername:
			p.Username = strings.TrimPrefix(v, "u/")
		case fieldSubreddit:
			p.Subreddit = strings.TrimPrefix(v, "r/")
		case fieldKeywords:
			p.Keywords = v
		case fieldDays:
			p.PeriodDays, _ = strconv.Atoi(v)
		case fieldLimit:
			p.Limit, _ = strconv.Atoi(v)
		case fieldLinks:
			includeLinks = v == "yes"
		}
	}
	return p, includeLinks
}
