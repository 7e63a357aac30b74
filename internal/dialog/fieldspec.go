// ABOUTME: Table-driven field declarations for each guided query kind
// ABOUTME: One ordered list per kind with prompts, defaults and choice sets

package dialog

import (
	"strconv"
	"strings"

	"github.com/aljazleben/eyecandyredditbot/internal/reddit"
)

// FieldKind selects the parser applied to a submitted value.
type FieldKind int

const (
	// FieldText accepts any text; blank is rejected when Required.
	FieldText FieldKind = iota
	// FieldInt accepts positive integers; blank falls back to the default.
	FieldInt
	// FieldChoice accepts only the enumerated choices; blank falls back to
	// the default when one is set.
	FieldChoice
)

// Choice is one selectable option for a choice field. Value is the opaque
// token transports send back (button callbacks use it verbatim).
type Choice struct {
	Label string
	Value string
}

// Field declares one input a query kind collects, in dialogue order.
type Field struct {
	Name     string
	Prompt   string
	Kind     FieldKind
	Required bool
	Default  string
	Choices  []Choice
}

const (
	fieldUsername  = "username"
	fieldSubreddit = "subreddit"
	fieldKeywords  = "keywords"
	fieldDays      = "days"
	fieldLimit     = "limit"
	fieldLinks     = "links"
)

// Spec returns the ordered field list for a query kind, or nil for an
// unknown kind. The engine asks for fields strictly in this order.
func Spec(kind reddit.Kind) []Field {
	username := Field{
		Name:     fieldUsername,
		Kind:     FieldText,
		Required: true,
		Prompt:   "Which account? Send the username (without u/).",
	}
	subreddit := Field{
		Name:     fieldSubreddit,
		Kind:     FieldText,
		Required: true,
		Prompt:   "Which subreddit? Send the name (without r/).",
	}
	keywords := Field{
		Name:   fieldKeywords,
		Kind:   FieldText,
		Prompt: "Any title keywords to filter by? Comma-separated, or send a blank message for all posts.",
	}
	links := Field{
		Name:    fieldLinks,
		Kind:    FieldChoice,
		Default: "yes",
		Prompt:  "Include links to the posts?",
		Choices: []Choice{{Label: "Yes", Value: "yes"}, {Label: "No", Value: "no"}},
	}

	switch kind {
	case reddit.KindUserDetails:
		return []Field{username, {
			Name:    fieldDays,
			Kind:    FieldInt,
			Default: "1",
			Prompt:  "How many days back should I look? Send a number (default 1).",
		}}
	case reddit.KindUserTop:
		return []Field{username, keywords, limitField("30", 10, 30, 50)}
	case reddit.KindSubredditHot:
		return []Field{subreddit, keywords, limitField("20", 10, 20, 50), links}
	case reddit.KindSubredditTop:
		return []Field{subreddit, keywords, limitField("20", 10, 20, 50), links}
	}
	return nil
}

func limitField(def string, options ...int) Field {
	choices := make([]Choice, 0, len(options))
	for _, n := range options {
		s := strconv.Itoa(n)
		choices = append(choices, Choice{Label: s, Value: s})
	}
	return Field{
		Name:    fieldLimit,
		Kind:    FieldChoice,
		Default: def,
		Prompt:  "How many posts? (default " + def + ")",
		Choices: choices,
	}
}

// Parse validates and normalizes a raw submission for this field. The
// second return is false when the input is invalid and the same field
// should be asked again.
func (f Field) Parse(raw string) (string, bool) {
	in := strings.TrimSpace(raw)
	switch f.Kind {
	case FieldText:
		if in == "" && f.Required {
			return "", false
		}
		return in, true
	case FieldInt:
		if in == "" {
			return f.Default, true
		}
		n, err := strconv.Atoi(in)
		if err != nil || n < 1 {
			return "", false
		}
		return strconv.Itoa(n), true
	case FieldChoice:
		if in == "" && f.Default != "" {
			return f.Default, true
		}
		for _, c := range f.Choices {
			if strings.EqualFold(in, c.Value) || strings.EqualFold(in, c.Label) {
				return c.Value, true
			}
		}
		return "", false
	}
	return "", false
}
