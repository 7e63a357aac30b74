// ABOUTME: Template data types and rendering functions for the web UI
// ABOUTME: Loads templates from the embedded filesystem and renders them

package web

import (
	"html/template"
	"net/http"

	"github.com/aljazleben/eyecandyredditbot/internal/store"
)

// formData drives the shared search form template. The Show* flags pick
// which inputs a query kind needs; Values keeps submitted input sticky
// when the form re-renders with an error.
type formData struct {
	Title         string
	Action        string
	ShowUsername  bool
	ShowSubreddit bool
	ShowKeywords  bool
	ShowDays      bool
	ShowLimit     bool
	ShowLinks     bool
	DefaultDays   int
	LimitOptions  []int
	DefaultLimit  int
	Error         string
	Values        map[string]string
}

type indexData struct {
	Title  string
	Recent []*store.Search
}

type resultsData struct {
	Title  string
	Search *store.Search
	Header template.HTML
	Blocks []template.HTML
}

type historyData struct {
	Title    string
	Searches []*store.Search
}

type helpTopic struct {
	Slug   string
	Title  string
	Active bool
}

type helpData struct {
	Title   string
	Topics  []helpTopic
	Content template.HTML
}

func (a *App) render(w http.ResponseWriter, page string, data any) {
	tmpl := template.Must(template.ParseFS(templateFS, "templates/base.html", "templates/"+page))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.Execute(w, data); err != nil {
		a.logger.Error("failed to render page", "page", page, "error", err)
	}
}
