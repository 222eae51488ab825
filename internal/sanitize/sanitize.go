// Package sanitize turns untrusted rich-text HTML, typically pasted from a
// word processor, into a bounded allow-listed subset, and derives plain-text
// previews from the result.
//
// Sanitize runs three stages in order: preprocess strips word-processor
// residue and normalizes characters and whitespace, a Purifier enforces the
// element and attribute allow-list, and postprocess tidies paragraphs and
// whitespace. The result is idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
package sanitize

import "strings"

// Purifier reduces HTML to an allow-listed subset. Implementations must not
// fail on malformed input.
type Purifier interface {
	Purify(html string) string
}

type Pipeline struct {
	purifier Purifier
}

// New returns a pipeline around the given purifier.
func New(p Purifier) *Pipeline {
	return &Pipeline{purifier: p}
}

// Default returns a pipeline enforcing DefaultPolicy.
func Default() *Pipeline {
	return New(NewPolicyPurifier(DefaultPolicy(), NormalizeText))
}

// Sanitize never fails: malformed markup degrades to whatever could be
// recovered, and an internal panic yields "".
func (p *Pipeline) Sanitize(raw string) (clean string) {
	defer func() {
		if r := recover(); r != nil {
			clean = ""
		}
	}()

	if strings.TrimSpace(raw) == "" {
		return ""
	}

	html := preprocess(strings.ToValidUTF8(raw, "\uFFFD"))
	html = p.purifier.Purify(html)
	return postprocess(html)
}
