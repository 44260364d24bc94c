// Package locale decides which UI language serves a request.
//
// Locales are carried as an optional first path segment. The default locale
// is never prefixed: "/list" is English, "/zh/list" is Chinese, and
// "/en/list" is redirected to "/list".
package locale

import (
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

// Result is the outcome of negotiating one request.
type Result struct {
	// Locale is always one of the supported codes.
	Locale string
	// Prefixed reports whether the path carried a locale segment.
	Prefixed bool
	// Stripped is the path without its locale segment, never empty.
	Stripped string
	// Redirect is set when the path must be normalised first.
	Redirect string
	// Cookies the negotiator wants written on the response.
	Cookies []*http.Cookie
}

// Negotiator resolves the effective locale of a request.
type Negotiator interface {
	Negotiate(r *http.Request) Result
	// Split detaches a supported locale segment from path without
	// negotiating; unmatched paths report the default locale.
	Split(path string) (loc, rest string, matched, canonical bool)
	// Localize builds the public path of path in loc.
	Localize(loc, path string) string
}

// Options configures a PathNegotiator.
type Options struct {
	Locales   []string
	Default   string
	Detection bool
	Cookie    string
}

// PathNegotiator implements the as-needed prefix strategy.
type PathNegotiator struct {
	locales   []string
	def       string
	detection bool
	cookie    string
	matcher   language.Matcher
}

// cookieMaxAge keeps the locale preference for a year
const cookieMaxAge = 365 * 24 * 60 * 60

// NewPathNegotiator validates the locale list and builds a negotiator.
func NewPathNegotiator(opts Options) (*PathNegotiator, error) {
	if len(opts.Locales) == 0 {
		return nil, fmt.Errorf("at least one locale is required")
	}

	// The default locale goes first so the matcher falls back to it.
	locales := []string{opts.Default}
	tags := make([]language.Tag, 0, len(opts.Locales))
	for _, code := range opts.Locales {
		if code != opts.Default {
			locales = append(locales, code)
		}
	}
	for _, code := range locales {
		tag, err := language.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("invalid locale %q: %w", code, err)
		}
		tags = append(tags, tag)
	}
	if len(locales) != len(opts.Locales) {
		return nil, fmt.Errorf("default locale %q is not in %v", opts.Default, opts.Locales)
	}

	return &PathNegotiator{
		locales:   locales,
		def:       opts.Default,
		detection: opts.Detection,
		cookie:    opts.Cookie,
		matcher:   language.NewMatcher(tags),
	}, nil
}

// Default returns the unprefixed locale.
func (n *PathNegotiator) Default() string {
	return n.def
}

// Split detaches a supported locale segment from path.
// canonical is false when the segment matched only case-insensitively.
func (n *PathNegotiator) Split(path string) (loc, rest string, matched, canonical bool) {
	trimmed := strings.TrimPrefix(path, "/")
	segment, remainder, hasMore := strings.Cut(trimmed, "/")
	for _, code := range n.locales {
		if strings.EqualFold(segment, code) {
			rest = "/"
			if hasMore {
				rest = "/" + remainder
			}
			return code, rest, true, segment == code
		}
	}
	if path == "" {
		path = "/"
	}
	return n.def, path, false, true
}

// Negotiate implements Negotiator.
func (n *PathNegotiator) Negotiate(r *http.Request) Result {
	path := r.URL.Path
	loc, rest, matched, canonical := n.Split(path)

	var res Result
	switch {
	case matched && loc == n.def:
		res = Result{Locale: loc, Prefixed: true, Stripped: rest, Redirect: withQuery(rest, r)}
	case matched && !canonical:
		res = Result{Locale: loc, Prefixed: true, Stripped: rest, Redirect: withQuery(n.Localize(loc, rest), r)}
	case matched:
		res = Result{Locale: loc, Prefixed: true, Stripped: rest}
	default:
		res = Result{Locale: n.def, Stripped: rest}
		if n.detection {
			if detected := n.detect(r); detected != n.def {
				res.Locale = detected
				res.Redirect = withQuery(n.Localize(detected, rest), r)
			}
		}
	}

	if cookie := n.localeCookie(r, res.Locale); cookie != nil {
		res.Cookies = append(res.Cookies, cookie)
	}
	return res
}

// Localize prefixes path with loc unless loc is the default locale.
func (n *PathNegotiator) Localize(loc, path string) string {
	if loc == n.def {
		return path
	}
	if path == "" || path == "/" {
		return "/" + loc
	}
	return "/" + loc + path
}

// detect picks a locale from the preference cookie, then Accept-Language.
func (n *PathNegotiator) detect(r *http.Request) string {
	if n.cookie != "" {
		if c, err := r.Cookie(n.cookie); err == nil {
			for _, code := range n.locales {
				if c.Value == code {
					return code
				}
			}
		}
	}

	header := r.Header.Get("Accept-Language")
	if header == "" {
		return n.def
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return n.def
	}
	_, index, confidence := n.matcher.Match(tags...)
	if confidence == language.No {
		return n.def
	}
	return n.locales[index]
}

// localeCookie remembers the locale for detection, the only reader of the cookie
func (n *PathNegotiator) localeCookie(r *http.Request, loc string) *http.Cookie {
	if !n.detection || n.cookie == "" {
		return nil
	}
	if c, err := r.Cookie(n.cookie); err == nil && c.Value == loc {
		return nil
	}
	return &http.Cookie{
		Name:     n.cookie,
		Value:    loc,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		SameSite: http.SameSiteLaxMode,
	}
}

func withQuery(path string, r *http.Request) string {
	if r.URL.RawQuery == "" {
		return path
	}
	return path + "?" + r.URL.RawQuery
}
