package tiers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"academy-api/internal/domain/tiers"
	"academy-api/internal/platform/apperr"
	"academy-api/internal/platform/logger"
	"academy-api/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memCache struct {
	data    map[string][]byte
	gets    int
	failGet bool
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (m *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	m.gets++
	if m.failGet {
		return false, errors.New("connection refused")
	}
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *memCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	raw, err := json.Marshal(value)
	m.data[key] = raw
	return err
}

func (m *memCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func TestList_OrderedByLevel(t *testing.T) {
	db := testutil.NewDB(t)
	catalog := tiers.NewCatalog(db, logger.Nop())
	require.NoError(t, catalog.Seed(context.Background(), tiers.DefaultCatalog()))

	list, err := catalog.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, code := range []string{tiers.CodeEntry, tiers.CodePremium, tiers.CodePremiumPlus} {
		assert.Equal(t, code, list[i].Code)
		assert.Equal(t, i+1, list[i].AccessLevel)
	}
	assert.True(t, list[2].RegionRestricted)
	require.NotNil(t, list[2].LifeCover)
}

func TestSeed_IsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	catalog := tiers.NewCatalog(db, logger.Nop())
	ctx := context.Background()
	require.NoError(t, catalog.Seed(ctx, tiers.DefaultCatalog()))
	first, err := catalog.List(ctx)
	require.NoError(t, err)

	updated := tiers.DefaultCatalog()
	updated[1].PriceBWP = 175
	require.NoError(t, catalog.Seed(ctx, updated))

	second, err := catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, second, 3)
	assert.Equal(t, first[1].ID, second[1].ID)
	assert.Equal(t, 175.0, second[1].PriceBWP)
}

func TestGet(t *testing.T) {
	db := testutil.NewDB(t)
	seeded := testutil.SeedTiers(t, db)
	catalog := tiers.NewCatalog(db, logger.Nop())

	got, err := catalog.Get(context.Background(), seeded[tiers.CodePremium].ID)
	require.NoError(t, err)
	assert.Equal(t, "Premium Package", got.Name)

	_, err = catalog.Get(context.Background(), uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.NoError(t, db.Model(&tiers.Tier{}).Where("code = ?", tiers.CodePremium).Update("is_active", false).Error)
	_, err = catalog.Get(context.Background(), seeded[tiers.CodePremium].ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestList_ReadThroughCache(t *testing.T) {
	db := testutil.NewDB(t)
	mem := newMemCache()
	catalog := tiers.NewCatalog(db, logger.Nop(), tiers.WithCache(mem, time.Minute))
	ctx := context.Background()
	require.NoError(t, catalog.Seed(ctx, tiers.DefaultCatalog()))

	_, err := catalog.List(ctx)
	require.NoError(t, err)
	require.Contains(t, mem.data, "tiers:active")

	// Served from cache even after the table changes underneath.
	require.NoError(t, db.Where("1 = 1").Delete(&tiers.Tier{}).Error)
	cached, err := catalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 3)

	require.NoError(t, catalog.Seed(ctx, tiers.DefaultCatalog()[:1]))
	assert.NotContains(t, mem.data, "tiers:active")
}

func TestList_CacheFailureFallsBackToStore(t *testing.T) {
	db := testutil.NewDB(t)
	mem := newMemCache()
	mem.failGet = true
	catalog := tiers.NewCatalog(db, logger.Nop(), tiers.WithCache(mem, time.Minute))
	require.NoError(t, catalog.Seed(context.Background(), tiers.DefaultCatalog()))

	list, err := catalog.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 3)
	assert.Equal(t, 1, mem.gets)
}

func TestPriceAndEligibility(t *testing.T) {
	plus := tiers.DefaultCatalog()[2]

	price, ok := plus.Price("bwp")
	assert.True(t, ok)
	assert.Equal(t, 250.0, price)
	_, ok = plus.Price("USD")
	assert.False(t, ok)

	assert.True(t, plus.EligibleIn("BW"))
	assert.False(t, plus.EligibleIn("ZA"))
	assert.True(t, tiers.DefaultCatalog()[1].EligibleIn("ZA"))
	assert.Equal(t, "Premium+", tiers.LevelName(3))
	assert.Equal(t, "Level 7", tiers.LevelName(7))
}
