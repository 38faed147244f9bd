package worker_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"academy-api/internal/domain/subscriptions"
	"academy-api/internal/domain/tiers"
	"academy-api/internal/platform/logger"
	"academy-api/internal/testutil"
	"academy-api/internal/worker"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExpirer struct {
	grace time.Duration
	n     int
	err   error
}

func (s *stubExpirer) ExpireOverdue(_ context.Context, grace time.Duration) (int, error) {
	s.grace = grace
	return s.n, s.err
}

func TestExpiryJob_PassesGrace(t *testing.T) {
	stub := &stubExpirer{n: 4}
	n, err := worker.NewExpiryJob(stub, 72*time.Hour, logger.Nop()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 72*time.Hour, stub.grace)

	stub.err = errors.New("db down")
	_, err = worker.NewExpiryJob(stub, time.Hour, logger.Nop()).Run(context.Background())
	assert.Error(t, err)
}

func TestExpiryJob_ExpiresOverdueSubscriptions(t *testing.T) {
	db := testutil.NewDB(t)
	catalog := testutil.SeedTiers(t, db)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := subscriptions.NewService(db, tiers.NewCatalog(db, logger.Nop()), logger.Nop(), subscriptions.Options{
		Now: func() time.Time { return now },
	})
	ctx := context.Background()

	paid, err := svc.Subscribe(ctx, subscriptions.SubscribeInput{UserID: uuid.New(), Region: "BW", TierID: catalog[tiers.CodePremium].ID})
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(ctx, paid.ID)
	require.NoError(t, err)
	free, err := svc.Subscribe(ctx, subscriptions.SubscribeInput{UserID: uuid.New(), Region: "BW", TierID: catalog[tiers.CodeEntry].ID})
	require.NoError(t, err)

	now = now.AddDate(0, 2, 0)
	n, err := worker.NewExpiryJob(svc, 24*time.Hour, logger.Nop()).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := svc.Get(ctx, paid.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptions.StatusExpired, got.Status)
	got, err = svc.Get(ctx, free.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptions.StatusActive, got.Status)
}

func TestSchedule(t *testing.T) {
	job := worker.NewExpiryJob(&stubExpirer{}, time.Hour, logger.Nop())

	c, err := worker.Schedule(context.Background(), "@hourly", job)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)

	_, err = worker.Schedule(context.Background(), "not a schedule", job)
	assert.Error(t, err)
}
