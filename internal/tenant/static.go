package tenant

import (
	"context"
)

// StaticResolver serves a fixed {hostPattern: template} table.
// Patterns are exact hosts or "*.example.com" wildcards.
type StaticResolver struct {
	table map[string]string
}

// NewStaticResolver copies and normalises table
func NewStaticResolver(table map[string]string) *StaticResolver {
	normalized := make(map[string]string, len(table))
	for pattern, tpl := range table {
		normalized[NormalizeHost(pattern)] = tpl
	}
	return &StaticResolver{table: normalized}
}

// ResolveTemplateForHost implements Resolver
func (s *StaticResolver) ResolveTemplateForHost(_ context.Context, host string) (string, error) {
	for _, candidate := range Candidates(NormalizeHost(host)) {
		if tpl, ok := s.table[candidate]; ok {
			return tpl, nil
		}
	}
	return "", ErrNotFound
}
