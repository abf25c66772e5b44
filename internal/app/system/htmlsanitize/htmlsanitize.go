// internal/app/system/htmlsanitize/htmlsanitize.go
//
// Package htmlsanitize normalizes user-authored rich text before storage and
// display. Connection messages accept a limited HTML vocabulary (formatting,
// lists, tables, links, images); everything else, in particular scripts and
// event handlers, is stripped.
package htmlsanitize

import (
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	// Text structure and formatting.
	p.AllowElements(
		"p", "br", "hr",
		"strong", "em", "b", "i", "u", "s",
		"sub", "sup", "mark",
		"h1", "h2", "h3",
		"blockquote", "pre", "code",
		"ul", "ol", "li",
	)

	// Tables, including layout attributes editors commonly emit.
	p.AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td")
	p.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
	p.AllowAttrs("class", "style").OnElements("table", "thead", "tbody", "tfoot", "tr", "th", "td")

	// Links and images, restricted to fetchable schemes. data: URLs are
	// rejected by the scheme allowlist.
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	p.RequireNoFollowOnLinks(true)

	// Drop the contents of containers we never render, not just the tags.
	p.SkipElementsContent("script", "style", "iframe", "object", "embed", "form")

	return p
}

// Sanitize returns s with all disallowed HTML removed.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// SanitizeToHTML sanitizes s and marks the result safe for template
// interpolation.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

// IsPlainText reports whether s contains no HTML markup. A lone < or >
// (comparisons, arrows) does not count as markup.
func IsPlainText(s string) bool {
	return !(strings.Contains(s, "<") && strings.Contains(s, ">"))
}

// PlainTextToHTML converts plain text to a minimal HTML rendering: entities
// escaped, newlines as <br>, wrapped in a paragraph.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

// PrepareForDisplay renders stored message content for a template: plain text
// is converted to HTML, anything with markup is sanitized.
func PrepareForDisplay(s string) template.HTML {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return SanitizeToHTML(s)
}
