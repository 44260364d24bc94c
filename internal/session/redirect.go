package session

import (
	"net/url"
	"strings"
)

// CallbackParam is the query parameter carrying the post-login target
const CallbackParam = "callbackUrl"

// SafeRedirect returns callback when it is a same-site relative path,
// fallback otherwise.
func SafeRedirect(callback, fallback string) string {
	if fallback == "" {
		fallback = "/"
	}
	callback = strings.TrimSpace(callback)
	if callback == "" {
		return fallback
	}
	// "//evil.com" and "/\evil.com" are treated as hosts by browsers
	if strings.HasPrefix(callback, "//") || strings.HasPrefix(callback, `/\`) || strings.ContainsAny(callback, "\r\n") {
		return fallback
	}
	u, err := url.Parse(callback)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	if !strings.HasPrefix(callback, "/") {
		return "/" + callback
	}
	return callback
}
