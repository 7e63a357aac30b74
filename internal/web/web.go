// ABOUTME: HTTP handlers for the web form application
// ABOUTME: Query forms, results replay, shared search history and help pages

package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/aljazleben/eyecandyredditbot/internal/reddit"
	"github.com/aljazleben/eyecandyredditbot/internal/render"
	"github.com/aljazleben/eyecandyredditbot/internal/store"
)

const historyPageSize = 100

// App serves the web form frontend. It shares the Fetcher and the
// search-history store with the chat bot.
type App struct {
	fetcher reddit.Fetcher
	store   store.Store
	logger  *slog.Logger
}

func NewApp(fetcher reddit.Fetcher, st store.Store, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		fetcher: fetcher,
		store:   st,
		logger:  logger.With("component", "web"),
	}
}

// Routes returns the handler for all web UI endpoints.
func (a *App) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", a.handleIndex)
	mux.HandleFunc("GET /user-details", a.formHandler(reddit.KindUserDetails))
	mux.HandleFunc("POST /user-details", a.submitHandler(reddit.KindUserDetails))
	mux.HandleFunc("GET /user-top", a.formHandler(reddit.KindUserTop))
	mux.HandleFunc("POST /user-top", a.submitHandler(reddit.KindUserTop))
	mux.HandleFunc("GET /subreddit-hot", a.formHandler(reddit.KindSubredditHot))
	mux.HandleFunc("POST /subreddit-hot", a.submitHandler(reddit.KindSubredditHot))
	mux.HandleFunc("GET /subreddit-top", a.formHandler(reddit.KindSubredditTop))
	mux.HandleFunc("POST /subreddit-top", a.submitHandler(reddit.KindSubredditTop))
	mux.HandleFunc("GET /results/{id}", a.handleResults)
	mux.HandleFunc("GET /history", a.handleHistory)
	mux.HandleFunc("GET /help", a.handleHelp)
	mux.HandleFunc("GET /health", a.handleHealth)

	return mux
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	recent, err := a.store.ListSearches(r.Context(), 10)
	if err != nil {
		a.logger.Error("failed to list recent searches", "error", err)
	}
	a.render(w, "index.html", indexData{Title: "Reddit Activity", Recent: recent})
}

// formFor builds the empty form description for a query kind.
func formFor(kind reddit.Kind) formData {
	switch kind {
	case reddit.KindUserDetails:
		return formData{
			Title:        "Account Details",
			Action:       "/user-details",
			ShowUsername: true,
			ShowDays:     true,
			DefaultDays:  1,
			Values:       map[string]string{},
		}
	case reddit.KindUserTop:
		return formData{
			Title:        "Top Posts by User",
			Action:       "/user-top",
			ShowUsername: true,
			ShowKeywords: true,
			ShowLimit:    true,
			LimitOptions: []int{10, 30, 50},
			DefaultLimit: 30,
			Values:       map[string]string{},
		}
	case reddit.KindSubredditHot:
		return formData{
			Title:         "Hot Posts in Subreddit",
			Action:        "/subreddit-hot",
			ShowSubreddit: true,
			ShowKeywords:  true,
			ShowLimit:     true,
			ShowLinks:     true,
			LimitOptions:  []int{10, 20, 50},
			DefaultLimit:  20,
			Values:        map[string]string{},
		}
	default:
		return formData{
			Title:         "All-Time Top Posts in Subreddit",
			Action:        "/subreddit-top",
			ShowSubreddit: true,
			ShowKeywords:  true,
			ShowLimit:     true,
			ShowLinks:     true,
			LimitOptions:  []int{10, 20, 50},
			DefaultLimit:  20,
			Values:        map[string]string{},
		}
	}
}

func (a *App) formHandler(kind reddit.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.render(w, "search_form.html", formFor(kind))
	}
}

func (a *App) submitHandler(kind reddit.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}

		form := formFor(kind)
		for _, key := range []string{"username", "subreddit", "keywords", "days", "limit"} {
			form.Values[key] = strings.TrimSpace(r.PostFormValue(key))
		}

		params, includeLinks, err := paramsFromForm(kind, form, r.PostFormValue("links") != "")
		if err != nil {
			form.Error = err.Error()
			a.render(w, "search_form.html", form)
			return
		}

		rs, err := a.fetcher.Fetch(r.Context(), kind, params)
		if err != nil {
			a.logger.Error("fetch failed", "kind", string(kind), "error", err)
			form.Error = err.Error()
			a.render(w, "search_form.html", form)
			return
		}

		id, err := a.recordSearch(r, kind, params, includeLinks, rs)
		if err != nil {
			a.logger.Error("failed to record search", "error", err)
			http.Error(w, "failed to save search", http.StatusInternalServerError)
			return
		}

		http.Redirect(w, r, "/results/"+id, http.StatusSeeOther)
	}
}

// paramsFromForm validates form input. Blank numeric inputs fall back to
// the kind's defaults; malformed numbers are an error shown on the form.
func paramsFromForm(kind reddit.Kind, form formData, links bool) (reddit.Params, bool, error) {
	var p reddit.Params
	includeLinks := true

	if form.ShowUsername {
		p.Username = strings.TrimPrefix(form.Values["username"], "u/")
		if p.Username == "" {
			return p, false, fmt.Errorf("username is required")
		}
	}
	if form.ShowSubreddit {
		p.Subreddit = strings.TrimPrefix(form.Values["subreddit"], "r/")
		if p.Subreddit == "" {
			return p, false, fmt.Errorf("subreddit is required")
		}
	}
	if form.ShowKeywords {
		p.Keywords = form.Values["keywords"]
	}
	if form.ShowDays {
		n, err := intOrDefault(form.Values["days"], form.DefaultDays)
		if err != nil {
			return p, false, fmt.Errorf("days must be a positive number")
		}
		p.PeriodDays = n
	}
	if form.ShowLimit {
		n, err := intOrDefault(form.Values["limit"], form.DefaultLimit)
		if err != nil {
			return p, false, fmt.Errorf("limit must be a positive number")
		}
		p.Limit = n
	}
	if form.ShowLinks {
		includeLinks = links
	}
	return p, includeLinks, nil
}

func intOrDefault(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return n, nil
}

func (a *App) recordSearch(r *http.Request, kind reddit.Kind, params reddit.Params, includeLinks bool, rs *reddit.ResultSet) (string, error) {
	resultsJSON, err := json.Marshal(rs)
	if err != nil {
		return "", fmt.Errorf("serializing results: %w", err)
	}

	search := &store.Search{
		ID:           uuid.New().String(),
		SearchType:   string(kind),
		Username:     params.Username,
		Subreddit:    params.Subreddit,
		Keywords:     params.Keywords,
		PeriodDays:   params.PeriodDays,
		LimitValue:   params.Limit,
		IncludeLinks: includeLinks,
		ResultsJSON:  string(resultsJSON),
	}
	if err := a.store.CreateSearch(r.Context(), search); err != nil {
		return "", err
	}
	return search.ID, nil
}

func (a *App) handleResults(w http.ResponseWriter, r *http.Request) {
	search, err := a.store.GetSearch(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		a.logger.Error("failed to load search", "error", err)
		http.Error(w, "failed to load search", http.StatusInternalServerError)
		return
	}

	var rs reddit.ResultSet
	if err := json.Unmarshal([]byte(search.ResultsJSON), &rs); err != nil {
		a.logger.Error("failed to decode stored results", "id", search.ID, "error", err)
		http.Error(w, "stored results are unreadable", http.StatusInternalServerError)
		return
	}

	dialect := render.HTML{}
	blocks := render.Format(&rs, search.IncludeLinks, dialect)
	htmlBlocks := make([]template.HTML, 0, len(blocks))
	for _, b := range blocks {
		htmlBlocks = append(htmlBlocks, template.HTML(b))
	}

	a.render(w, "results.html", resultsData{
		Title:  "Results",
		Search: search,
		Header: template.HTML(render.Header(&rs, dialect)),
		Blocks: htmlBlocks,
	})
}

func (a *App) handleHistory(w http.ResponseWriter, r *http.Request) {
	searches, err := a.store.ListSearches(r.Context(), historyPageSize)
	if err != nil {
		a.logger.Error("failed to list searches", "error", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	a.render(w, "history.html", historyData{Title: "Search History", Searches: searches})
}

func (a *App) handleHelp(w http.ResponseWriter, r *http.Request) {
	selected := r.URL.Query().Get("topic")
	if selected == "" {
		selected = "getting-started"
	}

	entries, err := helpDocsFS.ReadDir("docs/help")
	if err != nil {
		a.logger.Error("failed to read help docs", "error", err)
		http.Error(w, "failed to load help", http.StatusInternalServerError)
		return
	}

	var topics []helpTopic
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		slug := strings.TrimSuffix(entry.Name(), ".md")
		topics = append(topics, helpTopic{
			Slug:   slug,
			Title:  formatHelpTitle(slug),
			Active: slug == selected,
		})
	}

	topicOrder := map[string]int{
		"getting-started": 1,
		"web-forms":       2,
		"chat-bot":        3,
		"configuration":   4,
	}
	sort.Slice(topics, func(i, j int) bool {
		orderI, okI := topicOrder[topics[i].Slug]
		orderJ, okJ := topicOrder[topics[j].Slug]
		if !okI {
			orderI = 100
		}
		if !okJ {
			orderJ = 100
		}
		if orderI != orderJ {
			return orderI < orderJ
		}
		return topics[i].Slug < topics[j].Slug
	})

	mdContent, err := helpDocsFS.ReadFile("docs/help/" + selected + ".md")
	if err != nil {
		http.NotFound(w, r)
		return
	}

	var htmlBuf bytes.Buffer
	if err := goldmark.Convert(mdContent, &htmlBuf); err != nil {
		a.logger.Error("failed to convert markdown", "error", err)
		htmlBuf.WriteString("<p>Failed to render help content.</p>")
	}

	a.render(w, "help.html", helpData{
		Title:   "Help",
		Topics:  topics,
		Content: template.HTML(htmlBuf.String()),
	})
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

// formatHelpTitle turns a slug like "getting-started" into "Getting Started"
func formatHelpTitle(slug string) string {
	words := strings.Split(slug, "-")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
