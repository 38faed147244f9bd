package insurance_test

import (
	"context"
	"errors"
	"testing"

	"academy-api/internal/domain/insurance"
	"academy-api/internal/domain/subscriptions"
	"academy-api/internal/domain/tiers"
	"academy-api/internal/infra/underwriter"
	"academy-api/internal/platform/apperr"
	"academy-api/internal/platform/logger"
	"academy-api/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUnderwriter struct {
	enabled   bool
	review    *underwriter.Review
	err       error
	submitted []underwriter.Submission
}

func (f *fakeUnderwriter) Enabled() bool { return f.enabled }

func (f *fakeUnderwriter) Submit(_ context.Context, s underwriter.Submission) (*underwriter.Review, error) {
	f.submitted = append(f.submitted, s)
	return f.review, f.err
}

type fixture struct {
	subs    *subscriptions.Service
	svc     *insurance.Service
	uw      *fakeUnderwriter
	catalog map[string]tiers.Tier
}

func newFixture(t *testing.T, uw *fakeUnderwriter) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{catalog: testutil.SeedTiers(t, db), uw: uw}
	f.subs = subscriptions.NewService(db, tiers.NewCatalog(db, logger.Nop()), logger.Nop(), subscriptions.Options{})
	f.svc = insurance.NewService(db, uw, logger.Nop())
	f.subs.AddListener(f.svc)
	return f
}

// activate subscribes a Botswana user to code and confirms the payment.
func (f *fixture) activate(t *testing.T, code string) *subscriptions.Subscription {
	t.Helper()
	ctx := context.Background()
	sub, err := f.subs.Subscribe(ctx, subscriptions.SubscribeInput{UserID: uuid.New(), Region: "BW", TierID: f.catalog[code].ID})
	require.NoError(t, err)
	sub, err = f.subs.ConfirmPayment(ctx, sub.ID)
	require.NoError(t, err)
	return sub
}

func (f *fixture) policies(t *testing.T, userID uuid.UUID) []insurance.Policy {
	t.Helper()
	list, err := f.svc.ListForUser(context.Background(), userID)
	require.NoError(t, err)
	return list
}

func TestActivation_ApprovedPolicy(t *testing.T) {
	f := newFixture(t, &fakeUnderwriter{
		enabled: true,
		review:  &underwriter.Review{UnderwriterID: "uw-1", RiskScore: 0.1, Decision: underwriter.DecisionApproved},
	})

	sub := f.activate(t, tiers.CodePremiumPlus)

	list := f.policies(t, sub.UserID)
	require.Len(t, list, 1)
	p := list[0]
	assert.Equal(t, insurance.StatusActive, p.Status)
	assert.Equal(t, sub.ID, p.SubscriptionID)
	assert.Equal(t, 50000.0, p.FuneralCover)
	assert.Equal(t, 250000.0, p.LifeCover)
	require.NotNil(t, p.PolicyNumber)
	assert.Regexp(t, `^FUN-[0-9A-F]{12}$`, *p.PolicyNumber)
	require.NotNil(t, p.StartDate)
	require.NotNil(t, p.EndDate)
	assert.True(t, p.StartDate.AddDate(1, 0, 0).Equal(*p.EndDate))
	assert.Contains(t, string(p.UnderwriterData), "uw-1")
	assert.Contains(t, string(p.UnderwriterData), "approvedAt")

	require.Len(t, f.uw.submitted, 1)
	assert.Equal(t, p.ID, f.uw.submitted[0].PolicyID)
}

func TestActivation_RejectedPolicy(t *testing.T) {
	f := newFixture(t, &fakeUnderwriter{
		enabled: true,
		review:  &underwriter.Review{Notes: "incomplete beneficiary data", Decision: underwriter.DecisionRejected},
	})

	sub := f.activate(t, tiers.CodePremiumPlus)

	list := f.policies(t, sub.UserID)
	require.Len(t, list, 1)
	assert.Equal(t, insurance.StatusRejected, list[0].Status)
	assert.Equal(t, "incomplete beneficiary data", list[0].Notes)
	assert.Nil(t, list[0].PolicyNumber)
}

func TestActivation_SubmissionErrorLeavesPending(t *testing.T) {
	f := newFixture(t, &fakeUnderwriter{enabled: true, err: errors.New("timeout")})

	sub := f.activate(t, tiers.CodePremiumPlus)

	list := f.policies(t, sub.UserID)
	require.Len(t, list, 1)
	assert.Equal(t, insurance.StatusPending, list[0].Status)
}

func TestActivation_UninsuredTierHasNoPolicy(t *testing.T) {
	f := newFixture(t, &fakeUnderwriter{enabled: true})

	sub := f.activate(t, tiers.CodePremium)

	assert.Empty(t, f.policies(t, sub.UserID))
	assert.Empty(t, f.uw.submitted)
}

func TestOpen_OnePolicyPerSubscription(t *testing.T) {
	f := newFixture(t, &fakeUnderwriter{})
	sub := f.activate(t, tiers.CodePremiumPlus)

	again, err := f.svc.Open(context.Background(), *sub)
	require.NoError(t, err)
	assert.Equal(t, insurance.StatusPending, again.Status)
	assert.Len(t, f.policies(t, sub.UserID), 1)
}

func TestCancellationCancelsCover(t *testing.T) {
	f := newFixture(t, &fakeUnderwriter{
		enabled: true,
		review:  &underwriter.Review{Decision: underwriter.DecisionApproved},
	})
	sub := f.activate(t, tiers.CodePremiumPlus)

	_, err := f.subs.Cancel(context.Background(), sub.UserID)
	require.NoError(t, err)

	list := f.policies(t, sub.UserID)
	require.Len(t, list, 1)
	assert.Equal(t, insurance.StatusCancelled, list[0].Status)
}

func TestManualDecisions(t *testing.T) {
	f := newFixture(t, &fakeUnderwriter{})
	ctx := context.Background()
	sub := f.activate(t, tiers.CodePremiumPlus)
	pending := f.policies(t, sub.UserID)[0]

	approved, err := f.svc.Approve(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, insurance.StatusActive, approved.Status)

	_, err = f.svc.Reject(ctx, pending.ID, "too late")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = f.svc.Approve(ctx, uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestHolderGetAndCancel(t *testing.T) {
	f := newFixture(t, &fakeUnderwriter{})
	ctx := context.Background()
	sub := f.activate(t, tiers.CodePremiumPlus)
	p := f.policies(t, sub.UserID)[0]
	assert.Equal(t, 250.0, p.Premium)

	got, err := f.svc.Get(ctx, p.ID, sub.UserID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	_, err = f.svc.Get(ctx, p.ID, uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = f.svc.Cancel(ctx, p.ID, sub.UserID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err), "pending policies cannot be cancelled")

	_, err = f.svc.Approve(ctx, p.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, p.ID, uuid.New())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	cancelled, err := f.svc.Cancel(ctx, p.ID, sub.UserID)
	require.NoError(t, err)
	assert.Equal(t, insurance.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.EndDate)

	_, err = f.svc.Cancel(ctx, p.ID, sub.UserID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Contains(t, apperr.PublicReason(err), "already cancelled")
}

func TestAdminListsAndStatistics(t *testing.T) {
	f := newFixture(t, &fakeUnderwriter{})
	ctx := context.Background()
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		sub := f.activate(t, tiers.CodePremiumPlus)
		ids = append(ids, f.policies(t, sub.UserID)[0].ID)
	}

	pending, err := f.svc.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	_, err = f.svc.Approve(ctx, ids[0])
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, ids[1], "missing documents")
	require.NoError(t, err)

	pending, err = f.svc.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ids[2], pending[0].ID)

	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	st, err := f.svc.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.TotalPolicies)
	assert.Equal(t, int64(1), st.ActivePolicies)
	assert.Equal(t, int64(1), st.PendingPolicies)
	assert.InDelta(t, 250.0, st.TotalPremiums, 0.001)
}
