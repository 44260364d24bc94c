package portal

import (
	"context"
	"errors"
	"net/http"

	"portal_gateway/internal/tenant"

	"github.com/sirupsen/logrus"
)

// templateSource yields a candidate template name, or ""
type templateSource struct {
	name   string
	lookup func(*Router, *http.Request) string
}

// templateSources in precedence order; the first known template wins
var templateSources = []templateSource{
	{SourceQuery, (*Router).templateFromQuery},
	{SourceCookie, (*Router).templateFromCookie},
	{SourceHost, (*Router).templateFromHost},
}

// resolveTemplate never fails: unknown or missing candidates fall through
// to the next source and finally to the default template.
func (rt *Router) resolveTemplate(r *http.Request) (template, source string) {
	for _, src := range templateSources {
		candidate := src.lookup(rt, r)
		if candidate == "" {
			continue
		}
		if _, ok := rt.templates[candidate]; !ok {
			rt.logger.WithFields(logrus.Fields{
				"source":   src.name,
				"template": candidate,
			}).Debug("Ignoring unknown template")
			continue
		}
		return candidate, src.name
	}
	return rt.opts.DefaultTemplate, SourceDefault
}

func (rt *Router) templateFromQuery(r *http.Request) string {
	return r.URL.Query().Get(rt.opts.TemplateParam)
}

func (rt *Router) templateFromCookie(r *http.Request) string {
	c, err := r.Cookie(rt.opts.TemplateCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func (rt *Router) templateFromHost(r *http.Request) string {
	if rt.resolver == nil || r.Host == "" {
		return ""
	}

	ctx, cancel := context.WithTimeout(r.Context(), rt.opts.LookupTimeout)
	defer cancel()

	tpl, err := rt.resolver.ResolveTemplateForHost(ctx, r.Host)
	if err != nil {
		if !errors.Is(err, tenant.ErrNotFound) {
			rt.metrics.ObserveLookupError()
			rt.logger.WithError(err).WithField("host", r.Host).Warn("Template lookup failed, using default")
		}
		return ""
	}
	return tpl
}
