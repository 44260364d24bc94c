package tenant

import (
	"context"
	"fmt"

	"portal_gateway/internal/model"

	"gorm.io/gorm"
)

// StoreResolver reads bindings from the merchant_sites table
type StoreResolver struct {
	db *gorm.DB
}

// NewStoreResolver creates a database-backed resolver
func NewStoreResolver(db *gorm.DB) *StoreResolver {
	return &StoreResolver{db: db}
}

// ResolveTemplateForHost implements Resolver
func (s *StoreResolver) ResolveTemplateForHost(ctx context.Context, host string) (string, error) {
	candidates := Candidates(NormalizeHost(host))
	if len(candidates) == 0 {
		return "", ErrNotFound
	}

	var sites []model.MerchantSite
	if err := s.db.WithContext(ctx).
		Where("host IN ? AND enabled = ?", candidates, true).
		Find(&sites).Error; err != nil {
		return "", fmt.Errorf("failed to query merchant sites: %w", err)
	}

	byHost := make(map[string]string, len(sites))
	for _, site := range sites {
		byHost[site.Host] = site.Template
	}
	for _, candidate := range candidates {
		if tpl, ok := byHost[candidate]; ok && tpl != "" {
			return tpl, nil
		}
	}
	return "", ErrNotFound
}
