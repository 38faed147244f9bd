package tiers

import "fmt"

// Tier codes (single source of truth)
const (
	CodeEntry       = "ENTRY"
	CodePremium     = "PREMIUM"
	CodePremiumPlus = "PREMIUM_PLUS"
)

// Access levels of the seeded catalog. Level N implies every entitlement of
// the levels below it.
const (
	LevelEntry       = 1
	LevelPremium     = 2
	LevelPremiumPlus = 3
)

// LevelName returns the display name for an access level.
func LevelName(level int) string {
	switch level {
	case LevelEntry:
		return "Entry"
	case LevelPremium:
		return "Premium"
	case LevelPremiumPlus:
		return "Premium+"
	default:
		return fmt.Sprintf("Level %d", level)
	}
}

// DefaultCatalog is the catalog seeded on start-up.
func DefaultCatalog() []Tier {
	funeral := 50000.0
	life := 250000.0
	return []Tier{
		{
			Code:        CodeEntry,
			Name:        "Entry Package",
			AccessLevel: LevelEntry,
			Description: "Free tier with access to course briefs, short videos, and digital tools",
			IsActive:    true,
		},
		{
			Code:           CodePremium,
			Name:           "Premium Package",
			AccessLevel:    LevelPremium,
			PriceBWP:       150,
			PriceZAR:       180,
			WebinarCredits: 4,
			Description:    "Premium access with full courses, webinars, and discounts",
			IsActive:       true,
		},
		{
			Code:              CodePremiumPlus,
			Name:              "Premium+ Package",
			AccessLevel:       LevelPremiumPlus,
			PriceBWP:          250,
			PriceZAR:          300,
			RegionRestricted:  true,
			RegionCode:        "BW",
			WebinarCredits:    4,
			IncludesInsurance: true,
			FuneralCover:      &funeral,
			LifeCover:         &life,
			Description:       "Premium+ with insurance coverage (Botswana citizens only)",
			IsActive:          true,
		},
	}
}
