package users

import (
	"testing"
	"time"

	"academy-api/internal/domain/courses"
	"academy-api/internal/domain/subscriptions"
	"academy-api/internal/domain/tiers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRenewalDTO(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	next := now.Add(10*24*time.Hour + time.Hour)

	assert.Nil(t, BuildRenewalDTO(now, nil))
	assert.Nil(t, BuildRenewalDTO(now, &subscriptions.Subscription{Amount: 0, NextBillingDate: &next}))

	r := BuildRenewalDTO(now, &subscriptions.Subscription{Amount: 150, NextBillingDate: &next, AutoRenew: true, ConsecutiveFailedPayments: 1})
	require.NotNil(t, r)
	require.NotNil(t, r.DaysLeft)
	assert.Equal(t, 10, *r.DaysLeft)
	assert.True(t, r.AutoRenew)
	assert.Equal(t, 1, r.FailedPayments)

	past := now.Add(-48 * time.Hour)
	r = BuildRenewalDTO(now, &subscriptions.Subscription{Amount: 150, NextBillingDate: &past})
	assert.Equal(t, 0, *r.DaysLeft)
}

func TestBuildAccessDTO(t *testing.T) {
	none := BuildAccessDTO(nil)
	assert.Equal(t, "none", none.State)
	assert.Empty(t, none.Capabilities)

	premium := tiers.DefaultCatalog()[1]
	got := BuildAccessDTO(&subscriptions.Subscription{Tier: &premium})
	assert.Equal(t, "active", got.State)
	assert.Equal(t, tiers.LevelPremium, got.Level)
	assert.Contains(t, got.Capabilities, "full_courses")
	assert.Contains(t, got.Capabilities, "webinars")
}

func TestBuildLearningDTO(t *testing.T) {
	got := BuildLearningDTO([]courses.Enrollment{
		{Status: courses.EnrollmentActive},
		{Status: courses.EnrollmentCompleted},
		{Status: courses.EnrollmentCompleted},
	})
	assert.Equal(t, LearningDTO{Enrolled: 3, Completed: 2}, got)
}
