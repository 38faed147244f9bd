package cache_test

import (
	"context"
	"os"
	"testing"
	"time"

	"academy-api/internal/infra/cache"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Needs a live server: TEST_REDIS_URL=redis://localhost:6379/15
func TestJSON_RoundTrip(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	client, err := cache.Connect(ctx, url, 2*time.Second)
	require.NoError(t, err)
	defer client.Close()

	c := cache.NewJSON(client, "test:"+uuid.NewString()+":")
	type entry struct {
		Name  string `json:"name"`
		Level int    `json:"level"`
	}

	var got []entry
	hit, err := c.Get(ctx, "tiers", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "tiers", []entry{{"Entry", 1}, {"Premium", 2}}, time.Minute))
	hit, err = c.Get(ctx, "tiers", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []entry{{"Entry", 1}, {"Premium", 2}}, got)

	require.NoError(t, c.Delete(ctx, "tiers"))
	hit, err = c.Get(ctx, "tiers", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestConnect_BadURL(t *testing.T) {
	_, err := cache.Connect(context.Background(), "not-a-url", time.Second)
	assert.Error(t, err)
}
