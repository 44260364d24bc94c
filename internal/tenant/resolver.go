// Package tenant maps a request host to the portal template (tenant UI
// variant) it should be served with.
package tenant

import (
	"context"
	"errors"
	"net"
	"strings"

	"portal_gateway/internal/domainutil"
)

// ErrNotFound means the host has no template binding
var ErrNotFound = errors.New("no template for host")

// Resolver looks up the template bound to a host
type Resolver interface {
	ResolveTemplateForHost(ctx context.Context, host string) (string, error)
}

// ResolverFunc adapts a function to Resolver
type ResolverFunc func(ctx context.Context, host string) (string, error)

// ResolveTemplateForHost implements Resolver
func (f ResolverFunc) ResolveTemplateForHost(ctx context.Context, host string) (string, error) {
	return f(ctx, host)
}

// NormalizeHost lowercases host and strips any port and trailing dot
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	return strings.ToLower(host)
}

// Candidates lists the patterns that may match host, most specific first:
// the host itself, then "*.parent" for every parent domain down to the
// registrable domain. Public suffixes such as "*.co.uk" are never produced.
func Candidates(host string) []string {
	if host == "" {
		return nil
	}
	out := []string{host}
	apex, err := domainutil.EffectiveApex(host)
	if err != nil {
		return out
	}
	rest := host
	for rest != apex {
		_, parent, ok := strings.Cut(rest, ".")
		if !ok {
			break
		}
		out = append(out, "*."+parent)
		rest = parent
	}
	return out
}
