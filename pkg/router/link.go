package router

import (
	"strings"

	"github.com/vango-dev/carbon/pkg/routepath"
)

// Link describes a clicked anchor.
type Link struct {
	// Href is the anchor's resolved href.
	Href string

	// Attrs are the anchor's attributes. "class" holds the class list.
	Attrs map[string]string

	// Modified is set for clicks that should open a new tab or window:
	// modifier keys held or a non-primary button.
	Modified bool
}

// InterceptLink navigates to l.Href and reports true if the click should
// be handled by the router instead of a full page load.
//
// Only unmodified clicks on same-origin anchors without a foreign target or
// a download attribute are intercepted. The anchor must also match the
// configured LinkSelector, unless Greedy is set.
func (r *Router) InterceptLink(l Link) bool {
	if l.Modified || l.Href == "" {
		return false
	}
	if target := l.Attrs["target"]; target != "" && target != "_self" {
		return false
	}
	if _, ok := l.Attrs["download"]; ok {
		return false
	}
	if !routepath.SameOrigin(r.originFor(), l.Href) {
		return false
	}

	r.mu.RLock()
	selector, greedy := r.config.LinkSelector, r.config.Greedy
	r.mu.RUnlock()

	if !greedy && !MatchSelector(selector, l) {
		return false
	}
	r.GoURL(l.Href)
	return true
}

// MatchSelector reports whether the anchor l matches selector.
//
// Supported is a comma-separated list of compound selectors made of an
// optional "a" or "*" type selector followed by any number of ".class",
// "#id", "[attr]" and "[attr=value]" parts. An empty selector matches
// nothing.
func MatchSelector(selector string, l Link) bool {
	for _, part := range strings.Split(selector, ",") {
		part = strings.TrimSpace(part)
		if part != "" && matchCompound(part, l) {
			return true
		}
	}
	return false
}

func matchCompound(sel string, l Link) bool {
	switch {
	case strings.HasPrefix(sel, "a"):
		sel = sel[1:]
	case strings.HasPrefix(sel, "*"):
		sel = sel[1:]
	case sel[0] != '.' && sel[0] != '#' && sel[0] != '[':
		// Any other type selector names a non-anchor element.
		return false
	}

	for sel != "" {
		switch sel[0] {
		case '.':
			name, rest := cutIdent(sel[1:])
			if name == "" || !hasClass(l.Attrs["class"], name) {
				return false
			}
			sel = rest
		case '#':
			name, rest := cutIdent(sel[1:])
			if name == "" || l.Attrs["id"] != name {
				return false
			}
			sel = rest
		case '[':
			end := strings.IndexByte(sel, ']')
			if end < 0 || !matchAttr(sel[1:end], l.Attrs) {
				return false
			}
			sel = sel[end+1:]
		default:
			return false
		}
	}
	return true
}

func cutIdent(s string) (ident, rest string) {
	i := strings.IndexAny(s, ".#[")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func hasClass(classes, name string) bool {
	for _, c := range strings.Fields(classes) {
		if c == name {
			return true
		}
	}
	return false
}

func matchAttr(expr string, attrs map[string]string) bool {
	name, want, hasValue := strings.Cut(expr, "=")
	name = strings.TrimSpace(name)
	got, ok := attrs[name]
	if !ok {
		return false
	}
	if !hasValue {
		return true
	}
	want = strings.Trim(strings.TrimSpace(want), `"'`)
	return got == want
}
