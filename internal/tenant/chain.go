package tenant

import (
	"context"
	"errors"
)

// Chain consults resolvers in order; the first binding wins. A hard error
// from one resolver does not stop the walk and is only returned when no
// later resolver finds a binding.
type Chain []Resolver

// ResolveTemplateForHost implements Resolver
func (ch Chain) ResolveTemplateForHost(ctx context.Context, host string) (string, error) {
	var lastErr error
	for _, r := range ch {
		tpl, err := r.ResolveTemplateForHost(ctx, host)
		if err == nil {
			return tpl, nil
		}
		if !errors.Is(err, ErrNotFound) {
			lastErr = err
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", ErrNotFound
}
