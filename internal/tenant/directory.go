package tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"gorm.io/gorm"

	"github.com/backendkit/backendkit/internal/models"
)

var ErrTenantNotFound = errors.New("tenant not found")

// Directory resolves API keys to tenants. Lookups are cached in-process;
// API keys never change, so an entry only goes stale when the tenant row
// itself is updated, which callers signal through Invalidate.
type Directory struct {
	db    *gorm.DB
	cache *ristretto.Cache[string, models.Tenant]
	ttl   time.Duration
}

func NewDirectory(db *gorm.DB, ttl time.Duration) (*Directory, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, models.Tenant]{
		NumCounters: 100_000,
		MaxCost:     10_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create tenant cache: %w", err)
	}
	return &Directory{db: db, cache: cache, ttl: ttl}, nil
}

// Resolve returns the tenant owning apiKey, or ErrTenantNotFound.
func (d *Directory) Resolve(ctx context.Context, apiKey string) (*models.Tenant, error) {
	if !ValidAPIKeyFormat(apiKey) {
		return nil, ErrTenantNotFound
	}

	if cached, ok := d.cache.Get(apiKey); ok {
		t := cached
		return &t, nil
	}

	var t models.Tenant
	if err := d.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, fmt.Errorf("resolve tenant: %w", err)
	}

	d.cache.SetWithTTL(apiKey, t, 1, d.ttl)
	return &t, nil
}

func (d *Directory) Invalidate(apiKey string) {
	d.cache.Del(apiKey)
}

func (d *Directory) Close() {
	d.cache.Close()
}
