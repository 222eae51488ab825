package sanitize

import (
	"regexp"
	"strings"
)

var (
	emptyParaRe   = regexp.MustCompile(`<p(?:\s[^>]*)?>\s*</p>`)
	nestedOpenRe  = regexp.MustCompile(`<p>\s*<p>`)
	nestedCloseRe = regexp.MustCompile(`</p>\s*</p>`)
)

// postprocess tidies purifier output: empty paragraphs go, doubled
// paragraph tags collapse to one, and whitespace is collapsed and trimmed.
func postprocess(html string) string {
	html = emptyParaRe.ReplaceAllString(html, "")
	html = nestedOpenRe.ReplaceAllString(html, "<p>")
	html = nestedCloseRe.ReplaceAllString(html, "</p>")
	html = whitespaceRe.ReplaceAllString(html, " ")
	return strings.TrimSpace(html)
}
