package portal

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DecisionKey is the gin context key holding the *Decision of a request
const DecisionKey = "portal_decision"

// Middleware applies routing decisions to gin requests. Redirects abort the
// chain; rewrites and passes change the request path and continue to the
// downstream (renderer) handler.
func (rt *Router) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Only the gateway may tell the renderer which template to use.
		c.Request.Header.Del(rt.opts.TemplateHeader)

		p := c.Request.URL.Path
		if rt.Skip(p) && CleanPath(p) == p {
			c.Next()
			return
		}

		d := rt.Decide(c.Request)
		c.Set(DecisionKey, d)

		for _, cookie := range d.Cookies {
			http.SetCookie(c.Writer, cookie)
		}
		for name, values := range d.Header {
			for _, v := range values {
				c.Writer.Header().Add(name, v)
			}
		}

		switch d.Kind {
		case KindRedirect:
			c.Redirect(d.Status, d.Location)
			c.Abort()
			return
		case KindRewrite:
			c.Request.Header.Set(rt.opts.TemplateHeader, d.Template)
		}

		c.Request.URL.Path = d.Path
		c.Request.URL.RawPath = ""
		c.Request.Header.Set(LocaleHeader, d.Locale)
		c.Next()
	}
}

// DecisionFrom returns the decision stored by Middleware, if any
func DecisionFrom(c *gin.Context) (*Decision, bool) {
	v, ok := c.Get(DecisionKey)
	if !ok {
		return nil, false
	}
	d, ok := v.(*Decision)
	return d, ok
}
