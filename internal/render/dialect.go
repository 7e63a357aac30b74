// ABOUTME: Markup dialects for outbound chat messages
// ABOUTME: Telegram MarkdownV2 and Matrix HTML escaping, bold and links

package render

import (
	"html"
	"strings"
)

// Dialect is the markup boundary for one chat transport. Escape must be
// applied to every piece of user- or Reddit-supplied text before it is
// embedded in a message; Bold and Link escape their text arguments
// themselves.
type Dialect interface {
	// Name identifies the dialect in logs.
	Name() string

	// Escape makes raw text safe to embed in the dialect's markup.
	Escape(s string) string

	// Bold returns s escaped and wrapped in bold markup.
	Bold(s string) string

	// Link returns a hyperlink with an escaped label.
	Link(label, url string) string

	// Code returns s escaped and wrapped in inline-code markup.
	Code(s string) string
}

// MarkdownV2 is the Telegram MarkdownV2 dialect.
type MarkdownV2 struct{}

func (MarkdownV2) Name() string { return "markdownv2" }

// Escape backslash-escapes every character MarkdownV2 treats as markup.
func (MarkdownV2) Escape(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)
	for _, r := range s {
		switch r {
		case '\\', '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d MarkdownV2) Bold(s string) string {
	return "*" + d.Escape(s) + "*"
}

// Code wraps s in backticks. Inside a code span only '`' and '\' are
// markup, so only those are escaped.
func (MarkdownV2) Code(s string) string {
	return "`" + strings.NewReplacer("\\", "\\\\", "`", "\\`").Replace(s) + "`"
}

func (d MarkdownV2) Link(label, url string) string {
	// Inside the URL part only ')' and '\' need escaping.
	u := strings.NewReplacer(`\`, `\\`, `)`, `\)`).Replace(url)
	return "[" + d.Escape(label) + "](" + u + ")"
}

// HTML is the Matrix formatted-body dialect.
type HTML struct{}

func (HTML) Name() string { return "html" }

func (HTML) Escape(s string) string { return html.EscapeString(s) }

func (d HTML) Bold(s string) string {
	return "<b>" + d.Escape(s) + "</b>"
}

func (d HTML) Code(s string) string {
	return "<code>" + d.Escape(s) + "</code>"
}

func (d HTML) Link(label, url string) string {
	return `<a href="` + html.EscapeString(url) + `">` + d.Escape(label) + `</a>`
}
