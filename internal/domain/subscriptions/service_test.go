package subscriptions_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"academy-api/internal/domain/subscriptions"
	"academy-api/internal/domain/tiers"
	"academy-api/internal/platform/apperr"
	"academy-api/internal/platform/logger"
	"academy-api/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type transitionLog struct {
	mu   sync.Mutex
	seen []string
}

func (l *transitionLog) SubscriptionChanged(_ context.Context, _ subscriptions.Subscription, from, to subscriptions.Status) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, string(from)+"->"+string(to))
}

type fixture struct {
	db      *gorm.DB
	svc     *subscriptions.Service
	tiers   map[string]tiers.Tier
	changes *transitionLog
	now     time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:      db,
		tiers:   testutil.SeedTiers(t, db),
		changes: &transitionLog{},
		now:     fixedNow,
	}
	f.svc = subscriptions.NewService(db, tiers.NewCatalog(db, logger.Nop()), logger.Nop(), subscriptions.Options{
		FailedPaymentThreshold: 3,
		Now:                    func() time.Time { return f.now },
	})
	f.svc.AddListener(f.changes)
	return f
}

func (f *fixture) subscribe(t *testing.T, userID uuid.UUID, code, region string) *subscriptions.Subscription {
	t.Helper()
	sub, err := f.svc.Subscribe(context.Background(), subscriptions.SubscribeInput{
		UserID: userID,
		Region: region,
		TierID: f.tiers[code].ID,
	})
	require.NoError(t, err)
	return sub
}

func TestSubscribe_FreeTierIsActiveImmediately(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	sub := f.subscribe(t, user, tiers.CodeEntry, "ZA")

	assert.Equal(t, subscriptions.StatusActive, sub.Status)
	assert.Equal(t, 0.0, sub.Amount)
	assert.Equal(t, tiers.CurrencyZAR, sub.Currency)
	assert.True(t, sub.AutoRenew)
	require.NotNil(t, sub.NextBillingDate)
	assert.Equal(t, fixedNow.AddDate(0, 1, 0), *sub.NextBillingDate)
	assert.Equal(t, *sub.NextBillingDate, *sub.CurrentPeriodEnd)
	assert.Equal(t, []string{"->active"}, f.changes.seen)
}

func TestSubscribe_PaidTierStartsPending(t *testing.T) {
	f := newFixture(t)

	sub, err := f.svc.Subscribe(context.Background(), subscriptions.SubscribeInput{
		UserID:    uuid.New(),
		Region:    "BW",
		TierID:    f.tiers[tiers.CodePremium].ID,
		Frequency: subscriptions.FrequencyAnnual,
	})
	require.NoError(t, err)

	assert.Equal(t, subscriptions.StatusPending, sub.Status)
	assert.Equal(t, tiers.CurrencyBWP, sub.Currency)
	assert.Equal(t, 150.0, sub.Amount)
	assert.Equal(t, 4, sub.WebinarCreditsRemaining)
	assert.Equal(t, fixedNow.AddDate(1, 0, 0), *sub.NextBillingDate)
	assert.Empty(t, f.changes.seen)
}

func TestSubscribe_ExplicitCurrency(t *testing.T) {
	f := newFixture(t)

	sub, err := f.svc.Subscribe(context.Background(), subscriptions.SubscribeInput{
		UserID:   uuid.New(),
		Region:   "BW",
		TierID:   f.tiers[tiers.CodePremium].ID,
		Currency: "zar",
	})
	require.NoError(t, err)
	assert.Equal(t, tiers.CurrencyZAR, sub.Currency)
	assert.Equal(t, 180.0, sub.Amount)

	_, err = f.svc.Subscribe(context.Background(), subscriptions.SubscribeInput{
		UserID:   uuid.New(),
		Region:   "BW",
		TierID:   f.tiers[tiers.CodePremium].ID,
		Currency: "USD",
	})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSubscribe_RegionRestriction(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Subscribe(context.Background(), subscriptions.SubscribeInput{
		UserID: uuid.New(),
		Region: "ZA",
		TierID: f.tiers[tiers.CodePremiumPlus].ID,
	})
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "BW")

	sub := f.subscribe(t, uuid.New(), tiers.CodePremiumPlus, "bw")
	assert.Equal(t, subscriptions.StatusPending, sub.Status)
}

func TestSubscribe_UnknownTier(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Subscribe(context.Background(), subscriptions.SubscribeInput{
		UserID: uuid.New(),
		Region: "BW",
		TierID: uuid.New(),
	})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSubscribe_SecondActiveIsConflict(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	f.subscribe(t, user, tiers.CodeEntry, "BW")

	_, err := f.svc.Subscribe(context.Background(), subscriptions.SubscribeInput{
		UserID: user,
		Region: "BW",
		TierID: f.tiers[tiers.CodeEntry].ID,
	})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestSubscribe_ConcurrentRequestsLeaveOneActive(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Subscribe(context.Background(), subscriptions.SubscribeInput{
				UserID: user,
				Region: "BW",
				TierID: f.tiers[tiers.CodeEntry].ID,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	}
	assert.Equal(t, 1, succeeded)

	var active int64
	require.NoError(t, f.db.Model(&subscriptions.Subscription{}).
		Where("user_id = ? AND status = ?", user, subscriptions.StatusActive).
		Count(&active).Error)
	assert.EqualValues(t, 1, active)
}

func TestStore_RejectsSecondActiveRow(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	row := func() *subscriptions.Subscription {
		return &subscriptions.Subscription{
			UserID:             user,
			TierID:             f.tiers[tiers.CodeEntry].ID,
			Status:             subscriptions.StatusActive,
			Frequency:          subscriptions.FrequencyMonthly,
			Currency:           tiers.CurrencyBWP,
			CurrentPeriodStart: fixedNow,
		}
	}

	require.NoError(t, f.db.Create(row()).Error)
	err := f.db.Create(row()).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestConfirmPayment(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	sub := f.subscribe(t, user, tiers.CodePremium, "BW")

	confirmed, err := f.svc.ConfirmPayment(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptions.StatusActive, confirmed.Status)
	assert.Equal(t, 0, confirmed.ConsecutiveFailedPayments)
	require.NotNil(t, confirmed.Tier)
	assert.Equal(t, tiers.CodePremium, confirmed.Tier.Code)

	again, err := f.svc.ConfirmPayment(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptions.StatusActive, again.Status)
	assert.Equal(t, []string{"pending->active"}, f.changes.seen)

	_, err = f.svc.ConfirmPayment(context.Background(), uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestConfirmPayment_TerminalIsConflict(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	sub := f.subscribe(t, user, tiers.CodeEntry, "BW")

	_, err := f.svc.Cancel(context.Background(), user)
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(context.Background(), sub.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestConfirmPayment_WhileAnotherIsActive(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	pending := f.subscribe(t, user, tiers.CodePremium, "BW")
	f.subscribe(t, user, tiers.CodeEntry, "BW")

	_, err := f.svc.ConfirmPayment(context.Background(), pending.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	f.subscribe(t, user, tiers.CodeEntry, "BW")

	f.now = fixedNow.Add(48 * time.Hour)
	cancelled, err := f.svc.Cancel(context.Background(), user)
	require.NoError(t, err)

	assert.Equal(t, subscriptions.StatusCancelled, cancelled.Status)
	assert.False(t, cancelled.AutoRenew)
	require.NotNil(t, cancelled.CancelledAt)
	assert.True(t, f.now.Equal(*cancelled.CancelledAt))
	assert.True(t, f.now.Equal(*cancelled.CurrentPeriodEnd))

	active, err := f.svc.GetActive(context.Background(), user)
	require.NoError(t, err)
	assert.Nil(t, active)

	_, err = f.svc.Cancel(context.Background(), user)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCancel_AllowsResubscribe(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	f.subscribe(t, user, tiers.CodeEntry, "BW")
	_, err := f.svc.Cancel(context.Background(), user)
	require.NoError(t, err)

	sub := f.subscribe(t, user, tiers.CodeEntry, "BW")
	assert.Equal(t, subscriptions.StatusActive, sub.Status)
}

func TestMarkPaymentFailed_ExpiresAtThreshold(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	sub := f.subscribe(t, user, tiers.CodePremium, "BW")
	_, err := f.svc.ConfirmPayment(context.Background(), sub.ID)
	require.NoError(t, err)

	for i := 1; i < 3; i++ {
		got, err := f.svc.MarkPaymentFailed(context.Background(), sub.ID, "card declined")
		require.NoError(t, err)
		assert.Equal(t, i, got.ConsecutiveFailedPayments)
		assert.Equal(t, subscriptions.StatusActive, got.Status)
		require.NotNil(t, got.LastPaymentAttemptAt)
	}

	got, err := f.svc.MarkPaymentFailed(context.Background(), sub.ID, "card declined")
	require.NoError(t, err)
	assert.Equal(t, subscriptions.StatusExpired, got.Status)
	assert.False(t, got.AutoRenew)
	assert.Equal(t, []string{"pending->active", "active->expired"}, f.changes.seen)
}

func TestMarkPaymentFailed_PendingStaysPending(t *testing.T) {
	f := newFixture(t)
	sub := f.subscribe(t, uuid.New(), tiers.CodePremium, "BW")

	for i := 0; i < 4; i++ {
		_, err := f.svc.MarkPaymentFailed(context.Background(), sub.ID, "insufficient funds")
		require.NoError(t, err)
	}
	got, err := f.svc.Get(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptions.StatusPending, got.Status)
	assert.Equal(t, 4, got.ConsecutiveFailedPayments)
}

func TestRenew_AdvancesPeriod(t *testing.T) {
	f := newFixture(t)
	sub := f.subscribe(t, uuid.New(), tiers.CodePremium, "BW")
	_, err := f.svc.ConfirmPayment(context.Background(), sub.ID)
	require.NoError(t, err)
	_, err = f.svc.MarkPaymentFailed(context.Background(), sub.ID, "declined")
	require.NoError(t, err)

	renewed, err := f.svc.Renew(context.Background(), sub.ID)
	require.NoError(t, err)

	firstPeriodEnd := fixedNow.AddDate(0, 1, 0)
	assert.True(t, firstPeriodEnd.Equal(renewed.CurrentPeriodStart))
	assert.True(t, firstPeriodEnd.AddDate(0, 1, 0).Equal(*renewed.NextBillingDate))
	assert.Equal(t, 0, renewed.ConsecutiveFailedPayments)
}

func TestRenew_PendingIsConfirmed(t *testing.T) {
	f := newFixture(t)
	sub := f.subscribe(t, uuid.New(), tiers.CodePremium, "BW")

	renewed, err := f.svc.Renew(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptions.StatusActive, renewed.Status)
}

func TestExpire(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	sub := f.subscribe(t, user, tiers.CodeEntry, "BW")

	expired, err := f.svc.Expire(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptions.StatusExpired, expired.Status)

	_, err = f.svc.Expire(context.Background(), sub.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestExpireOverdue(t *testing.T) {
	f := newFixture(t)

	overdue := f.subscribe(t, uuid.New(), tiers.CodePremium, "BW")
	_, err := f.svc.ConfirmPayment(context.Background(), overdue.ID)
	require.NoError(t, err)
	free := f.subscribe(t, uuid.New(), tiers.CodeEntry, "BW")

	f.now = fixedNow.AddDate(0, 1, 3)
	n, err := f.svc.ExpireOverdue(context.Background(), 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	f.now = fixedNow.AddDate(0, 1, 8)
	n, err = f.svc.ExpireOverdue(context.Background(), 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.svc.Get(context.Background(), overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptions.StatusExpired, got.Status)

	got, err = f.svc.Get(context.Background(), free.ID)
	require.NoError(t, err)
	assert.Equal(t, subscriptions.StatusActive, got.Status)
}

func TestHistory_NewestFirst(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()

	first := f.subscribe(t, user, tiers.CodeEntry, "BW")
	_, err := f.svc.Cancel(context.Background(), user)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second := f.subscribe(t, user, tiers.CodePremium, "BW")

	list, err := f.svc.History(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	require.NotNil(t, list[0].Tier)

	other, err := f.svc.History(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestCanTransition(t *testing.T) {
	all := []subscriptions.Status{
		subscriptions.StatusPending, subscriptions.StatusActive,
		subscriptions.StatusCancelled, subscriptions.StatusExpired,
	}
	allowed := map[[2]subscriptions.Status]bool{
		{subscriptions.StatusPending, subscriptions.StatusActive}:   true,
		{subscriptions.StatusActive, subscriptions.StatusCancelled}: true,
		{subscriptions.StatusActive, subscriptions.StatusExpired}:   true,
	}
	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[[2]subscriptions.Status{from, to}], subscriptions.CanTransition(from, to), "%s -> %s", from, to)
		}
	}
	assert.True(t, subscriptions.StatusCancelled.Terminal())
	assert.False(t, subscriptions.StatusPending.Terminal())
}

func TestActiveByTier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.subscribe(t, uuid.New(), tiers.CodeEntry, "ZA")
	f.subscribe(t, uuid.New(), tiers.CodeEntry, "BW")
	pending := f.subscribe(t, uuid.New(), tiers.CodePremium, "BW")
	require.Equal(t, subscriptions.StatusPending, pending.Status)

	counts, err := f.svc.ActiveByTier(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{tiers.CodeEntry: 2}, counts)

	_, err = f.svc.ConfirmPayment(ctx, pending.ID)
	require.NoError(t, err)
	counts, err = f.svc.ActiveByTier(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[tiers.CodePremium])
}
