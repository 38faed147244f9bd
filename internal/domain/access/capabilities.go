package access

import "academy-api/internal/domain/tiers"

// CapabilitiesFor lists what a subscriber of tier may use, for display.
func CapabilitiesFor(tier *tiers.Tier) []string {
	if tier == nil {
		return []string{}
	}

	caps := []string{"course_briefs"}
	if tier.AccessLevel >= tiers.LevelPremium {
		caps = append(caps, "full_courses")
	}
	if tier.WebinarCredits > 0 {
		caps = append(caps, "webinars")
	}
	if tier.IncludesInsurance {
		caps = append(caps, "insurance")
	}
	return caps
}
