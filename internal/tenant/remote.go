package tenant

import (
	"context"
	"errors"
	"net/http"

	"portal_gateway/internal/apiclient"
)

// SiteConfigPath is the merchant configuration endpoint queried by domain
const SiteConfigPath = "/merchant/site-config"

// codeMerchantNotFound is the backend business code for an unknown domain
const codeMerchantNotFound = 3001

// SiteConfig is the part of the merchant site configuration the gateway needs
type SiteConfig struct {
	Template string `json:"template"`
}

// RemoteResolver asks the merchant configuration service
type RemoteResolver struct {
	client *apiclient.Client
}

// NewRemoteResolver creates an API-backed resolver
func NewRemoteResolver(client *apiclient.Client) *RemoteResolver {
	return &RemoteResolver{client: client}
}

// ResolveTemplateForHost implements Resolver
func (r *RemoteResolver) ResolveTemplateForHost(ctx context.Context, host string) (string, error) {
	host = NormalizeHost(host)
	if host == "" {
		return "", ErrNotFound
	}

	var cfg SiteConfig
	err := r.client.Get(ctx, SiteConfigPath, map[string]string{"domain": host}, &cfg)
	if err != nil {
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.Code == codeMerchantNotFound {
			return "", ErrNotFound
		}
		var httpErr *apiclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == http.StatusNotFound {
			return "", ErrNotFound
		}
		return "", err
	}
	if cfg.Template == "" {
		return "", ErrNotFound
	}
	return cfg.Template, nil
}
