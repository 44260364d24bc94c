// Package upstream forwards gateway traffic to the page renderer and the
// business API.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"portal_gateway/internal/httpx"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Options tunes a Proxy
type Options struct {
	// StripPrefix is removed from the request path before forwarding
	StripPrefix string
	// ResponseTimeout bounds the wait for upstream response headers
	ResponseTimeout time.Duration
	// PreserveHost forwards the client Host instead of the target host
	PreserveHost bool
}

// Proxy is a reverse proxy mounted as a gin handler
type Proxy struct {
	target *url.URL
	opts   Options
	rp     *httputil.ReverseProxy
	logger *logrus.Entry
}

type ginContextKey struct{}

// New builds a Proxy to target
func New(target string, opts Options, logger *logrus.Entry) (*Proxy, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream %q: %w", target, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream %q: need http(s)://host", target)
	}
	if opts.ResponseTimeout <= 0 {
		opts.ResponseTimeout = 30 * time.Second
	}

	p := &Proxy{
		target: u,
		opts:   opts,
		logger: entry(logger).WithField("upstream", u.Host),
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = opts.ResponseTimeout

	p.rp = &httputil.ReverseProxy{
		Rewrite:      p.rewrite,
		Transport:    transport,
		ErrorHandler: p.handleError,
	}
	return p, nil
}

// NewRenderProxy forwards page requests to the renderer under the client Host
func NewRenderProxy(target string, timeout time.Duration, logger *logrus.Entry) (*Proxy, error) {
	return New(target, Options{PreserveHost: true, ResponseTimeout: timeout}, entry(logger).WithField("component", "render-proxy"))
}

// NewAPIProxy forwards prefix-mounted API calls to the backend
func NewAPIProxy(target, prefix string, timeout time.Duration, logger *logrus.Entry) (*Proxy, error) {
	return New(target, Options{StripPrefix: prefix, ResponseTimeout: timeout}, entry(logger).WithField("component", "api-proxy"))
}

// Handler serves the proxy inside a gin chain
func (p *Proxy) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.WithValue(c.Request.Context(), ginContextKey{}, c)
		p.rp.ServeHTTP(c.Writer, c.Request.WithContext(ctx))
	}
}

func (p *Proxy) rewrite(pr *httputil.ProxyRequest) {
	pr.Out.URL.Path = stripPrefix(pr.In.URL.Path, p.opts.StripPrefix)
	pr.Out.URL.RawPath = ""
	pr.SetURL(p.target)
	pr.SetXForwarded()
	if p.opts.PreserveHost {
		pr.Out.Host = pr.In.Host
	}
}

func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		// client went away
		return
	}

	appErr := httpx.ErrUpstream("upstream unavailable", err)
	if isTimeout(err) {
		appErr = httpx.ErrUpstreamTimeout("upstream timed out", err)
	}

	c, ok := r.Context().Value(ginContextKey{}).(*gin.Context)
	if !ok {
		p.logger.WithError(err).WithField("path", r.URL.Path).Error("Upstream request failed")
		http.Error(w, appErr.Message, appErr.HTTPStatus)
		return
	}
	httpx.FailErr(c, appErr)
}

func entry(logger *logrus.Entry) *logrus.Entry {
	if logger == nil {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return logger
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// stripPrefix removes prefix from path at a segment boundary
func stripPrefix(path, prefix string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return path
	}
	if path == prefix {
		return "/"
	}
	if strings.HasPrefix(path, prefix+"/") {
		return path[len(prefix):]
	}
	return path
}
