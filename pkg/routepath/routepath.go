// Package routepath normalizes the URLs handed to the router.
//
// The router keeps an origin-relative path ("/users/1?tab=a") in its active
// URL cell. Links and history entries often carry absolute URLs instead
// ("http://localhost:3000/users/1"); Normalize strips the origin from those
// and rejects URLs that point elsewhere. Paths are not decoded or collapsed:
// "//b" stays "//b" so that empty segments keep failing to match.
package routepath

import (
	"errors"
	"strings"
)

// Normalization errors.
var (
	ErrForeignOrigin   = errors.New("url does not belong to the origin")
	ErrBackslashInPath = errors.New("path contains backslash")
	ErrNullByteInPath  = errors.New("path contains null byte")
)

// Normalize turns href into an origin-relative URL with a leading slash.
//
// href may be absolute ("http://host/x"), protocol-relative to the origin's
// host ("//host/x"), origin-relative ("/x") or relative ("x", treated as
// "/x"). Absolute URLs must start with origin, otherwise ErrForeignOrigin is
// returned. Any other "//" prefix is kept as an (empty-segment) path.
func Normalize(origin, href string) (string, error) {
	if href == "" {
		return "/", nil
	}

	if hasScheme(href) || isProtocolRelativeOf(origin, href) {
		rest, ok := StripOrigin(origin, href)
		if !ok {
			return "", ErrForeignOrigin
		}
		href = rest
	}

	path, _, _ := Split(href)
	if strings.Contains(path, "\\") {
		return "", ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return "", ErrNullByteInPath
	}

	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return href, nil
}

// StripOrigin removes origin from the front of href and returns the
// remainder with a leading slash. It reports false if href is not under
// origin. A trailing slash on origin is ignored.
func StripOrigin(origin, href string) (string, bool) {
	origin = strings.TrimSuffix(origin, "/")
	if origin == "" {
		return "", false
	}
	if isProtocolRelativeOf(origin, href) {
		href = schemeOf(origin) + ":" + href
	}
	if !strings.HasPrefix(href, origin) {
		return "", false
	}
	rest := href[len(origin):]
	switch {
	case rest == "":
		return "/", true
	case rest[0] == '/':
		return rest, true
	case rest[0] == '?' || rest[0] == '#':
		return "/" + rest, true
	default:
		// "http://host:3000" must not claim "http://host:30001/x".
		return "", false
	}
}

// SameOrigin reports whether href navigates within origin. Origin-relative
// hrefs are always same-origin; absolute hrefs must start with origin.
func SameOrigin(origin, href string) bool {
	if href == "" || strings.HasPrefix(href, "#") {
		return false
	}
	if !hasScheme(href) && !strings.HasPrefix(href, "//") {
		return !strings.HasPrefix(href, "javascript:") && !strings.HasPrefix(href, "mailto:")
	}
	_, ok := StripOrigin(origin, href)
	return ok
}

// Absolute joins origin and an origin-relative path.
func Absolute(origin, path string) string {
	origin = strings.TrimSuffix(origin, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return origin + path
}

// Origin returns the "scheme://host" part of an absolute URL, or "".
func Origin(href string) string {
	if !hasScheme(href) {
		return ""
	}
	i := strings.Index(href, "://") + 3
	if j := strings.IndexAny(href[i:], "/?#"); j >= 0 {
		return href[:i+j]
	}
	return href
}

// Split separates url into path, raw query (without "?") and fragment
// (without "#"). Nothing is decoded.
func Split(url string) (path, query, fragment string) {
	path, fragment, _ = strings.Cut(url, "#")
	path, query, _ = strings.Cut(path, "?")
	return path, query, fragment
}

// Path returns the path component of url.
func Path(url string) string {
	path, _, _ := Split(url)
	return path
}

func hasScheme(href string) bool {
	i := strings.Index(href, "://")
	if i <= 0 {
		return false
	}
	for _, r := range href[:i] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

func schemeOf(origin string) string {
	scheme, _, ok := strings.Cut(origin, "://")
	if !ok {
		return "http"
	}
	return scheme
}

// isProtocolRelativeOf reports whether href is "//host/..." for origin's host.
func isProtocolRelativeOf(origin, href string) bool {
	if !strings.HasPrefix(href, "//") {
		return false
	}
	_, host, ok := strings.Cut(strings.TrimSuffix(origin, "/"), "://")
	if !ok || host == "" {
		return false
	}
	rest := href[2:]
	if !strings.HasPrefix(rest, host) {
		return false
	}
	tail := rest[len(host):]
	return tail == "" || strings.ContainsRune("/?#", rune(tail[0]))
}
