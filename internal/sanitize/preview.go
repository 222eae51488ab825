package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// PreviewMarker is appended to a truncated preview.
const PreviewMarker = "..."

// TextPreview strips all markup from h, decodes entities, collapses
// whitespace and cuts the result to maxLen characters, appending
// PreviewMarker when anything was cut. Block-level tags and line breaks
// separate words so adjacent paragraphs do not run together.
func TextPreview(h string, maxLen int) string {
	if maxLen < 0 {
		maxLen = 0
	}

	text := strings.Join(strings.Fields(plainText(h)), " ")

	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + PreviewMarker
}

func plainText(h string) string {
	var b strings.Builder
	skip := 0

	z := html.NewTokenizer(strings.NewReader(h))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()

		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}

		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "script" || tag == "style":
				skip++
			case !inlineElements[tag] || tag == "br":
				b.WriteByte(' ')
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "script" || tag == "style":
				if skip > 0 {
					skip--
				}
			case !inlineElements[tag]:
				b.WriteByte(' ')
			}

		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			if !inlineElements[string(name)] || string(name) == "br" {
				b.WriteByte(' ')
			}
		}
	}
}
