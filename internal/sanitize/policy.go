package sanitize

import (
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// attrCheck validates an attribute value and returns the value to keep.
type attrCheck func(val string) (string, bool)

// Policy is an element and attribute allow-list. Elements not listed are
// unwrapped or, for executable and opaque elements, dropped with their
// content.
type Policy struct {
	elements map[string]map[string]attrCheck
	// required names the attribute an element is useless without.
	required map[string]string
	// finish adjusts the kept attributes of an element after filtering.
	finish map[string]func([]attribute) []attribute
}

// DefaultPolicy allows basic formatting, headings, lists, blockquotes,
// tables, preformatted text, rules, links and images.
func DefaultPolicy() *Policy {
	none := map[string]attrCheck{}
	span := map[string]attrCheck{"colspan": matches(spanRe), "rowspan": matches(spanRe)}

	p := &Policy{
		elements: map[string]map[string]attrCheck{
			"a": {
				"href":   safeURL("http", "https", "mailto"),
				"title":  anyValue,
				"target": oneOf("_blank", "_self", "_parent", "_top"),
			},
			"img": {
				"src":    safeURL("http", "https"),
				"alt":    anyValue,
				"title":  anyValue,
				"width":  matches(dimensionRe),
				"height": matches(dimensionRe),
			},
			"td": span,
			"th": span,
		},
		required: map[string]string{
			"a":   "href",
			"img": "src",
		},
		finish: map[string]func([]attribute) []attribute{
			"a": noopener,
		},
	}

	for _, tag := range []string{
		"p", "br", "strong", "b", "em", "i", "u", "s", "strike", "del",
		"h1", "h2", "h3", "h4", "h5", "h6",
		"ul", "ol", "li", "blockquote",
		"table", "caption", "thead", "tbody", "tfoot", "tr",
		"pre", "code", "hr",
	} {
		p.elements[tag] = none
	}

	return p
}

func (p *Policy) allows(tag string) bool {
	_, ok := p.elements[tag]
	return ok
}

// filterAttrs returns the permitted attributes of tag in source order. ok is
// false when a required attribute is missing or invalid.
func (p *Policy) filterAttrs(tag string, attrs []attribute) (kept []attribute, ok bool) {
	checks := p.elements[tag]
	for _, a := range attrs {
		check, allowed := checks[a.key]
		if !allowed {
			continue
		}
		if v, valid := check(a.val); valid {
			kept = append(kept, attribute{key: a.key, val: v})
		}
	}

	if fn, has := p.finish[tag]; has {
		kept = fn(kept)
	}

	if req, has := p.required[tag]; has {
		ok = slices.ContainsFunc(kept, func(a attribute) bool { return a.key == req })
		return kept, ok
	}
	return kept, true
}

// noopener adds rel="noopener noreferrer" to links opening a new window.
// Any rel from the input was already dropped by the allow-list.
func noopener(attrs []attribute) []attribute {
	for _, a := range attrs {
		if a.key == "target" && a.val == "_blank" {
			return append(attrs, attribute{key: "rel", val: "noopener noreferrer"})
		}
	}
	return attrs
}

var (
	spanRe      = regexp.MustCompile(`^[1-9][0-9]{0,2}$`)
	dimensionRe = regexp.MustCompile(`^[0-9]{1,4}%?$`)
)

func anyValue(v string) (string, bool) { return v, true }

func matches(re *regexp.Regexp) attrCheck {
	return func(v string) (string, bool) {
		v = strings.TrimSpace(v)
		return v, re.MatchString(v)
	}
}

func oneOf(values ...string) attrCheck {
	return func(v string) (string, bool) {
		v = strings.ToLower(strings.TrimSpace(v))
		return v, slices.Contains(values, v)
	}
}

// safeURL accepts relative URLs and absolute URLs in the given schemes.
func safeURL(schemes ...string) attrCheck {
	return func(v string) (string, bool) {
		v = strings.TrimSpace(v)
		if v == "" {
			return "", false
		}
		for _, r := range v {
			if r < 0x20 || r == 0x7f {
				return "", false
			}
		}

		u, err := url.Parse(v)
		if err != nil {
			return "", false
		}
		if u.Scheme == "" {
			return v, true
		}
		return v, slices.Contains(schemes, strings.ToLower(u.Scheme))
	}
}
