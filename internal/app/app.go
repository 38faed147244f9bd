// Package app wires the domain services shared by the API server and the
// lifecycle worker.
package app

import (
	"context"
	"time"

	"academy-api/config"
	"academy-api/database"
	"academy-api/internal/domain/access"
	"academy-api/internal/domain/billing"
	"academy-api/internal/domain/courses"
	"academy-api/internal/domain/insurance"
	"academy-api/internal/domain/subscriptions"
	"academy-api/internal/domain/tiers"
	"academy-api/internal/infra/cache"
	"academy-api/internal/infra/underwriter"
	"academy-api/internal/platform/logger"

	"gorm.io/gorm"
)

type Options struct {
	FailedPaymentThreshold int
	TierCache              tiers.Cache
	TierCacheTTL           time.Duration
	Underwriter            insurance.Underwriter
}

type Services struct {
	DB            *gorm.DB
	Catalog       *tiers.Catalog
	Subscriptions *subscriptions.Service
	Access        *access.Evaluator
	Courses       *courses.Service
	Payments      *billing.Bridge
	Insurance     *insurance.Service

	closers []func()
}

// NewServices builds the service graph over db. The insurance trigger is
// registered as a subscription lifecycle listener.
func NewServices(db *gorm.DB, log *logger.Logger, opts Options) *Services {
	var catalogOpts []tiers.Option
	if opts.TierCache != nil {
		catalogOpts = append(catalogOpts, tiers.WithCache(opts.TierCache, opts.TierCacheTTL))
	}
	if opts.Underwriter == nil {
		opts.Underwriter = underwriter.New(underwriter.Config{})
	}

	s := &Services{DB: db}
	s.Catalog = tiers.NewCatalog(db, log, catalogOpts...)
	s.Subscriptions = subscriptions.NewService(db, s.Catalog, log, subscriptions.Options{
		FailedPaymentThreshold: opts.FailedPaymentThreshold,
	})
	s.Access = access.NewEvaluator(s.Subscriptions)
	s.Courses = courses.NewService(db, s.Access, log)
	s.Payments = billing.NewBridge(db, s.Subscriptions, log)
	s.Insurance = insurance.NewService(db, opts.Underwriter, log)
	s.Subscriptions.AddListener(s.Insurance)
	return s
}

// Open connects the store and optional Redis cache from cfg, migrates the
// schema and seeds the tier catalog when configured.
func Open(ctx context.Context, cfg config.Config, log *logger.Logger) (*Services, error) {
	db, err := database.Open(cfg.DBURL, !cfg.IsProduction())
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}

	opts := Options{
		FailedPaymentThreshold: cfg.FailedPaymentThreshold,
		TierCacheTTL:           cfg.TierCacheTTL,
		Underwriter: underwriter.New(underwriter.Config{
			BaseURL: cfg.UnderwriterURL,
			APIKey:  cfg.UnderwriterKey,
			Timeout: cfg.UnderwriterTimeout,
		}),
	}

	var closers []func()
	if cfg.RedisURL != "" {
		client, err := cache.Connect(ctx, cfg.RedisURL, 5*time.Second)
		if err != nil {
			// The catalog works without the cache.
			log.Warn("redis unavailable, tier cache disabled", "error", err)
		} else {
			opts.TierCache = cache.NewJSON(client, "academy:")
			closers = append(closers, func() { _ = client.Close() })
		}
	}

	s := NewServices(db, log, opts)
	s.closers = closers

	if cfg.SeedTiers {
		if err := s.Catalog.Seed(ctx, tiers.DefaultCatalog()); err != nil {
			s.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *Services) Close() {
	for _, c := range s.closers {
		c()
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
