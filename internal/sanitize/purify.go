package sanitize

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	// Dropped together with everything inside them.
	dropElements = map[string]bool{
		"script": true, "style": true, "iframe": true, "frame": true, "frameset": true,
		"object": true, "embed": true, "applet": true, "noscript": true, "noembed": true,
		"noframes": true, "template": true, "head": true, "title": true, "meta": true,
		"link": true, "base": true, "textarea": true, "select": true, "option": true,
		"button": true, "input": true, "svg": true, "math": true, "xml": true,
	}

	inlineElements = map[string]bool{
		"a": true, "img": true, "br": true, "strong": true, "b": true, "em": true,
		"i": true, "u": true, "s": true, "strike": true, "del": true, "code": true,
	}

	voidElements = map[string]bool{"br": true, "hr": true, "img": true}

	// Unwrapped elements that still separate the text around them.
	breakingElements = map[string]bool{
		"div": true, "section": true, "article": true, "header": true, "footer": true,
		"main": true, "nav": true, "aside": true, "address": true, "center": true,
		"figure": true, "figcaption": true, "dl": true, "dt": true, "dd": true,
		"details": true, "summary": true, "form": true, "fieldset": true, "legend": true,
		"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"ul": true, "ol": true, "li": true, "blockquote": true, "pre": true, "hr": true,
		"table": true, "caption": true, "tr": true, "td": true, "th": true,
	}
)

// contentModel says what a parent may hold. It mirrors what the HTML
// parser itself permits, which keeps output stable across a reparse.
type contentModel int

const (
	modeTop      contentModel = iota // body: blocks; loose inline content gets a <p>
	modeFlow                         // li, blockquote, td, th, caption
	modePhrasing                     // p, headings, pre, inline elements
	modeList                         // ul, ol
	modeTable
	modeRowGroup // thead, tbody, tfoot
	modeRow
)

// structural models hold no text and drop what they cannot hold, since
// anything else would be moved out of the table on a reparse.
func (m contentModel) structural() bool {
	return m == modeTable || m == modeRowGroup || m == modeRow
}

func childModel(tag string) contentModel {
	switch tag {
	case "ul", "ol":
		return modeList
	case "li", "blockquote", "td", "th", "caption":
		return modeFlow
	case "table":
		return modeTable
	case "thead", "tbody", "tfoot":
		return modeRowGroup
	case "tr":
		return modeRow
	default:
		return modePhrasing
	}
}

func permitted(tag string, m contentModel) bool {
	switch m {
	case modePhrasing:
		return inlineElements[tag]
	case modeList:
		return tag == "li" || permitted(tag, modeFlow)
	case modeTable:
		switch tag {
		case "caption", "thead", "tbody", "tfoot", "tr":
			return true
		}
		return false
	case modeRowGroup:
		return tag == "tr"
	case modeRow:
		return tag == "td" || tag == "th"
	default:
		switch tag {
		case "li", "caption", "thead", "tbody", "tfoot", "tr", "td", "th":
			return false
		}
		return true
	}
}

type attribute struct {
	key, val string
}

// node is the purified tree: an element, a text node, or a boundary left
// behind by an unwrapped block element.
type node struct {
	tag   string
	text  string
	attrs []attribute
	kids  []*node
	brk   bool
}

func (n *node) isText() bool { return n.tag == "" && !n.brk }

func textNode(s string) *node { return &node{text: s} }

func boundaryNode() *node { return &node{brk: true} }

func isBlank(s string) bool { return strings.TrimFunc(s, unicode.IsSpace) == "" }

func isInlineNode(n *node) bool { return n.isText() || inlineElements[n.tag] }

// PolicyPurifier enforces a Policy using the HTML5 parser from
// golang.org/x/net/html, so malformed input is repaired the way a browser
// would repair it before the allow-list is applied.
type PolicyPurifier struct {
	policy *Policy
	text   func(string) string
}

// NewPolicyPurifier applies textFn, when non-nil, to every decoded text
// node and attribute value.
func NewPolicyPurifier(policy *Policy, textFn func(string) string) *PolicyPurifier {
	if textFn == nil {
		textFn = func(s string) string { return s }
	}
	return &PolicyPurifier{policy: policy, text: textFn}
}

func (p *PolicyPurifier) Purify(src string) string {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	parsed, err := html.ParseFragment(strings.NewReader(src), body)
	if err != nil {
		return ""
	}

	var kids []*node
	for _, n := range parsed {
		kids = append(kids, p.visit(n, modeTop, false)...)
	}

	var b strings.Builder
	render(&b, p.settle(kids, modeTop))
	return b.String()
}

func (p *PolicyPurifier) children(n *html.Node, m contentModel, inLink bool) []*node {
	var out []*node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, p.visit(c, m, inLink)...)
	}
	return out
}

// visit purifies n for a parent with content model m. inLink is set below
// an <a>, where a nested link is unwrapped: the parser accepts one inside a
// table cell, and unwrapping the table would leave the two links nested.
func (p *PolicyPurifier) visit(n *html.Node, m contentModel, inLink bool) []*node {
	switch n.Type {
	case html.TextNode:
		if m.structural() || (m == modeList && isBlank(n.Data)) {
			return nil
		}
		return []*node{textNode(p.text(n.Data))}
	case html.ElementNode:
	default:
		return nil
	}

	tag := n.Data
	if n.Namespace != "" || dropElements[tag] {
		return nil
	}

	if p.policy.allows(tag) && permitted(tag, m) && !(inLink && tag == "a") {
		attrs, ok := p.policy.filterAttrs(tag, p.attributes(n))
		if ok {
			if el := p.element(n, tag, attrs, inLink); el != nil {
				return []*node{el}
			}
			return nil
		}
		if voidElements[tag] {
			return nil
		}
	}

	if m.structural() {
		return nil
	}

	kids := p.children(n, m, inLink)
	if breakingElements[tag] {
		kids = append(append([]*node{boundaryNode()}, kids...), boundaryNode())
	}
	return kids
}

func (p *PolicyPurifier) attributes(n *html.Node) []attribute {
	attrs := make([]attribute, 0, len(n.Attr))
	for _, a := range n.Attr {
		if a.Namespace != "" {
			continue
		}
		attrs = append(attrs, attribute{key: a.Key, val: p.text(a.Val)})
	}
	return attrs
}

// element builds an allowed element, or returns nil when it ends up empty.
func (p *PolicyPurifier) element(n *html.Node, tag string, attrs []attribute, inLink bool) *node {
	if voidElements[tag] {
		return &node{tag: tag, attrs: attrs}
	}

	m := childModel(tag)
	kids := p.settle(p.children(n, m, inLink || tag == "a"), m)
	if !hasContent(kids) {
		return nil
	}
	return &node{tag: tag, attrs: attrs, kids: kids}
}

// settle resolves boundary markers for the given content model: at the
// top level they end a paragraph run, inside phrasing and flow content they
// become a single space between neighbours, elsewhere they vanish.
func (p *PolicyPurifier) settle(kids []*node, m contentModel) []*node {
	if m == modeTop {
		return wrapTop(kids)
	}

	out := make([]*node, 0, len(kids))
	pending := false
	for _, k := range kids {
		if k.brk {
			pending = true
			continue
		}
		if pending && len(out) > 0 && (m == modePhrasing || m == modeFlow) {
			out = append(out, textNode(" "))
		}
		pending = false
		out = append(out, k)
	}
	return out
}

// wrapTop wraps each run of loose inline content at the top level in a
// paragraph, dropping runs with nothing visible in them.
func wrapTop(kids []*node) []*node {
	var out, run []*node

	flush := func() {
		run = trimRun(run)
		if hasContent(run) {
			out = append(out, &node{tag: "p", kids: run})
		}
		run = nil
	}

	for _, k := range kids {
		switch {
		case k.brk:
			flush()
		case isInlineNode(k):
			run = append(run, k)
		default:
			flush()
			out = append(out, k)
		}
	}
	flush()

	return out
}

func trimRun(run []*node) []*node {
	for len(run) > 0 && run[0].isText() {
		t := strings.TrimLeftFunc(run[0].text, unicode.IsSpace)
		if t != "" {
			run[0] = textNode(t)
			break
		}
		run = run[1:]
	}
	for len(run) > 0 && run[len(run)-1].isText() {
		last := len(run) - 1
		t := strings.TrimRightFunc(run[last].text, unicode.IsSpace)
		if t != "" {
			run[last] = textNode(t)
			break
		}
		run = run[:last]
	}
	return run
}

// hasContent reports whether nodes hold visible text, an image or a rule.
// Line breaks alone do not count.
func hasContent(nodes []*node) bool {
	for _, n := range nodes {
		switch {
		case n.brk:
		case n.isText():
			if !isBlank(n.text) {
				return true
			}
		case n.tag != "br":
			return true
		}
	}
	return false
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#39;")
)

func render(b *strings.Builder, nodes []*node) {
	for _, n := range nodes {
		if n.isText() {
			b.WriteString(textEscaper.Replace(n.text))
			continue
		}
		if n.brk {
			continue
		}

		b.WriteByte('<')
		b.WriteString(n.tag)
		for _, a := range n.attrs {
			b.WriteByte(' ')
			b.WriteString(a.key)
			b.WriteString(`="`)
			b.WriteString(attrEscaper.Replace(a.val))
			b.WriteByte('"')
		}
		b.WriteByte('>')

		if voidElements[n.tag] {
			continue
		}

		render(b, n.kids)
		b.WriteString("</")
		b.WriteString(n.tag)
		b.WriteByte('>')
	}
}
