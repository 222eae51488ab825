package sanitize

import (
	"errors"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)

	typography = strings.NewReplacer(
		"–", "-", // en dash
		"—", "-", // em dash
		"“", `"`,
		"”", `"`,
		"‘", "'",
		"’", "'",
	)
)

// NormalizeText maps typographic dashes and quotes to ASCII and composes
// the result to NFC. The purifier applies it to every decoded text node
// and attribute value so entity-encoded input ends up in the same form as
// literal input.
func NormalizeText(s string) string {
	return norm.NFC.String(typography.Replace(s))
}

// preprocess removes word-processor residue before purification:
//   - XML prologues and every other comment, including conditional blocks
//     (<!--[if ...]>...<![endif]-->) and the downlevel-revealed form
//     (<![if ...]>...<![endif]>) together with what they enclose
//   - namespaced tags such as <o:p> and <w:WordDocument> (content kept)
//   - style attributes, which carry the mso-* vendor declarations
//
// It then normalizes typography and collapses whitespace runs, newlines
// included, to a single space.
func preprocess(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	// Content between an opening [if ...] comment and its [endif] is held
	// back and restored if the closing comment never shows up.
	var held strings.Builder
	holding := false
	out := &b

	z := html.NewTokenizer(strings.NewReader(raw))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if !errors.Is(z.Err(), io.EOF) {
				// Tokenizer gave up; keep the rest verbatim and let the
				// purifier deal with it.
				out.Write(z.Raw())
			}
			break
		}

		rawTok := string(z.Raw())

		switch tt {
		case html.CommentToken:
			data := strings.ToLower(strings.TrimSpace(string(z.Text())))
			switch {
			case strings.HasPrefix(data, "[if") && !strings.HasSuffix(data, "[endif]"):
				if !holding {
					holding = true
					held.Reset()
					out = &held
				}
			case data == "[endif]" || strings.HasPrefix(data, "[endif"):
				if holding {
					holding = false
					out = &b
				}
			}
			continue

		case html.DoctypeToken:
			continue

		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if strings.ContainsRune(tok.Data, ':') {
				continue
			}
			if kept := dropAttr(tok.Attr, "style"); len(kept) != len(tok.Attr) {
				tok.Attr = kept
				out.WriteString(tok.String())
				continue
			}
		}

		out.WriteString(rawTok)
	}

	if holding {
		b.WriteString(held.String())
	}

	s := NormalizeText(b.String())
	return whitespaceRe.ReplaceAllString(s, " ")
}

func dropAttr(attrs []html.Attribute, key string) []html.Attribute {
	var kept []html.Attribute
	for _, a := range attrs {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		kept = append(kept, a)
	}
	return kept
}
