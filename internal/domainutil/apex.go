package domainutil

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Normalize canonicalises a request host or host pattern:
//   - lowercase, trimmed, trailing dot removed
//   - port removed (example.com:443)
//   - IP addresses, empty hosts and invalid characters rejected
//
// A leading "*." wildcard label is allowed.
func Normalize(host string) (string, error) {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return "", fmt.Errorf("domain must not be empty")
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", fmt.Errorf("domain must not be empty after normalization")
	}

	if net.ParseIP(strings.Trim(host, "[]")) != nil {
		return "", fmt.Errorf("IP address is not allowed as domain: %s", host)
	}

	name := strings.TrimPrefix(host, "*.")
	for _, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '.' || r == '-') {
			return "", fmt.Errorf("domain contains invalid character: %c in %s", r, host)
		}
	}
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "-") || strings.Contains(name, "..") {
		return "", fmt.Errorf("domain is malformed: %s", host)
	}
	if !strings.Contains(name, ".") {
		return "", fmt.Errorf("domain must contain at least one dot: %s", host)
	}

	return host, nil
}

// EffectiveApex returns the registrable domain (eTLD+1) of domain:
//   - www.example.com -> example.com
//   - a.b.example.co.uk -> example.co.uk
//   - *.example.com -> example.com
func EffectiveApex(domain string) (string, error) {
	normalized, err := Normalize(domain)
	if err != nil {
		return "", fmt.Errorf("normalize failed for %s: %w", domain, err)
	}
	normalized = strings.TrimPrefix(normalized, "*.")

	apex, err := publicsuffix.EffectiveTLDPlusOne(normalized)
	if err != nil {
		return "", fmt.Errorf("PSL lookup failed for %s: %w", domain, err)
	}
	return apex, nil
}

// ValidatePattern checks a tenant host pattern: an exact host, or a
// "*.suffix" wildcard whose suffix is at least a registrable domain, so
// "*.example.com" is accepted and "*.com" or "*.co.uk" are not.
func ValidatePattern(pattern string) (string, error) {
	normalized, err := Normalize(pattern)
	if err != nil {
		return "", err
	}
	if _, err := EffectiveApex(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
