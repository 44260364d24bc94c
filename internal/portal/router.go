// Package portal routes page requests of the customer portal: it gates
// authenticated areas, normalises the locale, picks the tenant template and
// rewrites the path to the template-namespaced route the renderer serves.
package portal

import (
	"fmt"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"portal_gateway/internal/locale"
	"portal_gateway/internal/metrics"
	"portal_gateway/internal/session"
	"portal_gateway/internal/tenant"

	"github.com/sirupsen/logrus"
)

// TemplateRoutePrefix namespaces template routes below the locale segment
const TemplateRoutePrefix = "/tpl/"

// LocaleHeader carries the negotiated locale to the renderer
const LocaleHeader = "X-Locale"

var templateName = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Options configures a Router
type Options struct {
	ProtectedPaths  []string
	AuthPages       []string
	LoginPath       string
	Templates       []string
	DefaultTemplate string
	TemplateCookie  string
	TemplateHeader  string
	TemplateParam   string
	SkipPrefixes    []string
	// Production marks the template cookie HttpOnly
	Production    bool
	LookupTimeout time.Duration
}

// Router makes one routing decision per request. It holds no per-request
// state and is safe for concurrent use.
type Router struct {
	opts       Options
	templates  map[string]struct{}
	negotiator locale.Negotiator
	sessions   session.Checker
	resolver   tenant.Resolver
	logger     *logrus.Entry
	metrics    *metrics.RouterMetrics
}

// New validates opts and builds a Router. resolver and m may be nil.
func New(
	opts Options,
	negotiator locale.Negotiator,
	sessions session.Checker,
	resolver tenant.Resolver,
	logger *logrus.Entry,
	m *metrics.RouterMetrics,
) (*Router, error) {
	if negotiator == nil {
		return nil, fmt.Errorf("locale negotiator is required")
	}
	if sessions == nil {
		sessions = session.NewCookieChecker(session.DefaultCookie)
	}
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	if opts.LoginPath == "" {
		opts.LoginPath = "/login"
	}
	if !strings.HasPrefix(opts.LoginPath, "/") {
		return nil, fmt.Errorf("login path %q must start with /", opts.LoginPath)
	}
	if opts.TemplateCookie == "" {
		opts.TemplateCookie = "template"
	}
	if opts.TemplateHeader == "" {
		opts.TemplateHeader = "x-template"
	}
	if opts.TemplateParam == "" {
		opts.TemplateParam = "template"
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = 300 * time.Millisecond
	}

	templates := make(map[string]struct{}, len(opts.Templates))
	for _, tpl := range opts.Templates {
		if !templateName.MatchString(tpl) {
			return nil, fmt.Errorf("invalid template name %q", tpl)
		}
		templates[tpl] = struct{}{}
	}
	if _, ok := templates[opts.DefaultTemplate]; !ok {
		return nil, fmt.Errorf("default template %q is not in %v", opts.DefaultTemplate, opts.Templates)
	}

	for _, p := range opts.ProtectedPaths {
		if !strings.HasPrefix(p, "/") {
			return nil, fmt.Errorf("protected path %q must start with /", p)
		}
	}

	return &Router{
		opts:       opts,
		templates:  templates,
		negotiator: negotiator,
		sessions:   sessions,
		resolver:   resolver,
		logger:     logger.WithField("component", "portal-router"),
		metrics:    m,
	}, nil
}

// evaluation is the scratch state of one Decide call
type evaluation struct {
	req           *http.Request
	authenticated bool
	locale        locale.Result
	template      string
	source        string
}

// rule inspects the evaluation; a non-nil Decision ends routing
type rule struct {
	name  string
	apply func(*Router, *evaluation) *Decision
}

// rules run in order; the first terminal rule wins
var rules = []rule{
	{"clean-path", (*Router).cleanPathRule},
	{"authenticated-auth-page", (*Router).authPageRule},
	{"protected-path", (*Router).protectedPathRule},
	{"locale", (*Router).localeRule},
	{"template", (*Router).templateRule},
	{"template-route", (*Router).templateRouteRule},
	{"rewrite", (*Router).rewriteRule},
}

// Decide routes one request
func (rt *Router) Decide(r *http.Request) *Decision {
	ev := &evaluation{
		req:           r,
		authenticated: rt.sessions.HasValidSession(r),
	}

	for _, rl := range rules {
		d := rl.apply(rt, ev)
		if d == nil {
			continue
		}
		d.Rule = rl.name
		if d.Kind != KindRedirect {
			d.Locale = ev.locale.Locale
		}
		rt.metrics.ObserveDecision(d.Rule, string(d.Kind))
		rt.logger.WithFields(logrus.Fields{
			"path":     r.URL.Path,
			"rule":     d.Rule,
			"kind":     d.Kind,
			"location": d.Location,
			"target":   d.Path,
			"template": d.Template,
		}).Debug("Routed request")
		return d
	}

	// rewriteRule always decides
	panic("portal: no rule produced a decision")
}

// Skip reports whether path bypasses the router entirely: framework
// internals, API calls and anything that looks like a file.
func (rt *Router) Skip(path string) bool {
	if strings.Contains(path, ".") {
		return true
	}
	for _, prefix := range rt.opts.SkipPrefixes {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

// cleanPathRule sends non-canonical paths ("//list", "/x/../list") to their
// cleaned form before any path-based rule looks at them.
func (rt *Router) cleanPathRule(ev *evaluation) *Decision {
	p := ev.req.URL.Path
	cleaned := CleanPath(p)
	if cleaned == p {
		return nil
	}
	target := &url.URL{Path: cleaned, RawQuery: ev.req.URL.RawQuery}
	return redirect(http.StatusPermanentRedirect, target.String(), nil)
}

// CleanPath resolves dot segments and repeated slashes, keeping a trailing
// slash. An empty path becomes "/".
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	cleaned := path.Clean("/" + p)
	if strings.HasSuffix(p, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned
}

func (rt *Router) authPageRule(ev *evaluation) *Decision {
	if !ev.authenticated || !rt.isAuthPage(ev.req.URL.Path) {
		return nil
	}
	return redirect(http.StatusTemporaryRedirect, withQuery("/", ev.req.URL.Query()), nil)
}

func (rt *Router) protectedPathRule(ev *evaluation) *Decision {
	if ev.authenticated {
		return nil
	}
	path := ev.req.URL.Path
	loc, rest, _, _ := rt.negotiator.Split(path)
	if !rt.isProtected(withoutTemplateRoute(rest)) {
		return nil
	}

	query := ev.req.URL.Query()
	query.Set(session.CallbackParam, path)
	login := rt.negotiator.Localize(loc, rt.opts.LoginPath)
	return redirect(http.StatusTemporaryRedirect, withQuery(login, query), nil)
}

func (rt *Router) localeRule(ev *evaluation) *Decision {
	ev.locale = rt.negotiator.Negotiate(ev.req)
	if ev.locale.Redirect == "" {
		return nil
	}
	return redirect(http.StatusTemporaryRedirect, ev.locale.Redirect, ev.locale.Cookies)
}

func (rt *Router) templateRule(ev *evaluation) *Decision {
	ev.template, ev.source = rt.resolveTemplate(ev.req)
	rt.metrics.ObserveTemplate(ev.source, ev.template)
	return nil
}

func (rt *Router) templateRouteRule(ev *evaluation) *Decision {
	if !strings.HasPrefix(ev.locale.Stripped, TemplateRoutePrefix) {
		return nil
	}
	return &Decision{
		Kind:    KindPass,
		Path:    "/" + ev.locale.Locale + ev.locale.Stripped,
		Cookies: ev.locale.Cookies,
	}
}

func (rt *Router) rewriteRule(ev *evaluation) *Decision {
	rest := ev.locale.Stripped
	if rest == "" {
		rest = "/"
	}

	cookies := make([]*http.Cookie, 0, len(ev.locale.Cookies)+1)
	cookies = append(cookies, ev.locale.Cookies...)
	cookies = append(cookies, &http.Cookie{
		Name:     rt.opts.TemplateCookie,
		Value:    ev.template,
		Path:     "/",
		HttpOnly: rt.opts.Production,
	})

	header := make(http.Header)
	header.Set(rt.opts.TemplateHeader, ev.template)

	return &Decision{
		Kind:           KindRewrite,
		Path:           "/" + ev.locale.Locale + "/tpl/" + ev.template + rest,
		Template:       ev.template,
		TemplateSource: ev.source,
		Cookies:        cookies,
		Header:         header,
	}
}

func (rt *Router) isAuthPage(path string) bool {
	for _, page := range rt.opts.AuthPages {
		if path == page || strings.HasSuffix(path, page) {
			return true
		}
	}
	return false
}

func (rt *Router) isProtected(path string) bool {
	for _, prefix := range rt.opts.ProtectedPaths {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

// withoutTemplateRoute drops a leading "/tpl/{name}" so already-templated
// paths are gated like the public page they render.
func withoutTemplateRoute(path string) string {
	if !strings.HasPrefix(path, TemplateRoutePrefix) {
		return path
	}
	_, rest, ok := strings.Cut(strings.TrimPrefix(path, TemplateRoutePrefix), "/")
	if !ok {
		return "/"
	}
	return "/" + rest
}

func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}
