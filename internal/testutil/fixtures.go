package testutil

import (
	"context"
	"testing"

	"academy-api/internal/domain/tiers"
	"academy-api/internal/platform/logger"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SeedTiers loads the default catalog and returns it keyed by tier code.
func SeedTiers(t testing.TB, db *gorm.DB) map[string]tiers.Tier {
	t.Helper()

	catalog := tiers.NewCatalog(db, logger.Nop())
	require.NoError(t, catalog.Seed(context.Background(), tiers.DefaultCatalog()))

	list, err := catalog.List(context.Background())
	require.NoError(t, err)

	byCode := make(map[string]tiers.Tier, len(list))
	for _, tier := range list {
		byCode[tier.Code] = tier
	}
	return byCode
}
