// Package sanitize turns user supplied rich text into plain text for
// documents and text email bodies.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	breakTagRegex   = regexp.MustCompile(`(?i)<br\s*/?>|</p>`)
	blankLinesRegex = regexp.MustCompile(`\n{3,}`)
	entityReplacer  = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&", "&quot;", `"`, "&#39;", "'", "&nbsp;", " ")
)

// StripHTML removes all HTML tags from a string.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entityReplacer.Replace(result)
	// entities may have decoded into new tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text strips markup but keeps paragraph and line breaks, collapsing runs of
// blank lines.
func Text(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = breakTagRegex.ReplaceAllString(s, "\n")
	s = StripHTML(s)
	return blankLinesRegex.ReplaceAllString(s, "\n\n")
}
