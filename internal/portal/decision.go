package portal

import "net/http"

// Kind is the outcome of routing one request
type Kind string

const (
	// KindRedirect answers with a Location and stops
	KindRedirect Kind = "redirect"
	// KindRewrite forwards under a template-namespaced path
	KindRewrite Kind = "rewrite"
	// KindPass forwards the locale-internal path untouched
	KindPass Kind = "pass"
)

// Template sources, in precedence order
const (
	SourceQuery   = "query"
	SourceCookie  = "cookie"
	SourceHost    = "host"
	SourceDefault = "default"
)

// Decision describes what to do with a request
type Decision struct {
	Kind Kind
	// Rule is the name of the rule that decided
	Rule string
	// Status and Location are set for redirects
	Status   int
	Location string
	// Path is the path forwarded downstream for rewrites and passes
	Path           string
	Locale         string
	Template       string
	TemplateSource string
	// Cookies and Header are written on the response
	Cookies []*http.Cookie
	Header  http.Header
}

func redirect(status int, location string, cookies []*http.Cookie) *Decision {
	return &Decision{
		Kind:     KindRedirect,
		Status:   status,
		Location: location,
		Cookies:  cookies,
	}
}
