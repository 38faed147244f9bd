package tiers

import (
	"context"
	"time"

	"academy-api/internal/platform/apperr"
	"academy-api/internal/platform/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const cacheKeyActiveTiers = "tiers:active"

// Cache is the optional read-through cache in front of the catalog.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Catalog struct {
	db    *gorm.DB
	log   *logger.Logger
	cache Cache
	ttl   time.Duration
}

type Option func(*Catalog)

func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Catalog) {
		c.cache = cache
		c.ttl = ttl
	}
}

func NewCatalog(db *gorm.DB, log *logger.Logger, opts ...Option) *Catalog {
	c := &Catalog{db: db, log: log.With("component", "TierCatalog")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns the active tiers ordered by access level ascending.
func (c *Catalog) List(ctx context.Context) ([]Tier, error) {
	if c.cache != nil {
		var cached []Tier
		hit, err := c.cache.Get(ctx, cacheKeyActiveTiers, &cached)
		if err != nil {
			c.log.Warn("tier cache read failed", "error", err)
		} else if hit {
			return cached, nil
		}
	}

	var list []Tier
	if err := c.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("access_level ASC").
		Find(&list).Error; err != nil {
		return nil, apperr.Unexpected("list tiers", err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKeyActiveTiers, list, c.ttl); err != nil {
			c.log.Warn("tier cache write failed", "error", err)
		}
	}
	return list, nil
}

// Get fails with NotFound if the tier is unknown or inactive.
func (c *Catalog) Get(ctx context.Context, id uuid.UUID) (*Tier, error) {
	var t Tier
	if err := c.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&t).Error; err != nil {
		return nil, apperr.FromDB("get tier", err, "Subscription tier not found")
	}
	return &t, nil
}

// Seed upserts the given tiers by code. Safe to run on every start-up.
func (c *Catalog) Seed(ctx context.Context, list []Tier) error {
	if len(list) == 0 {
		return nil
	}
	err := c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "access_level", "price_bwp", "price_zar",
			"region_restricted", "region_code", "webinar_credits",
			"includes_insurance", "funeral_cover", "life_cover",
			"description", "is_active", "updated_at",
		}),
	}).Create(&list).Error
	if err != nil {
		return apperr.Unexpected("seed tiers", err)
	}

	if c.cache != nil {
		if err := c.cache.Delete(ctx, cacheKeyActiveTiers); err != nil {
			c.log.Warn("tier cache invalidation failed", "error", err)
		}
	}
	c.log.Info("tier catalog seeded", "count", len(list))
	return nil
}
