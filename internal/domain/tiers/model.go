package tiers

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CurrencyBWP = "BWP"
	CurrencyZAR = "ZAR"
)

type Tier struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string    `gorm:"column:code;not null;uniqueIndex:idx_tiers_code" json:"code"`
	Name        string    `gorm:"not null" json:"name"`
	AccessLevel int       `gorm:"column:access_level;not null;uniqueIndex:idx_tiers_access_level" json:"access_level"`
	PriceBWP    float64   `gorm:"column:price_bwp;type:numeric(10,2);not null;default:0" json:"price_bwp"`
	PriceZAR    float64   `gorm:"column:price_zar;type:numeric(10,2);not null;default:0" json:"price_zar"`

	RegionRestricted bool   `gorm:"not null;default:false" json:"region_restricted"`
	RegionCode       string `gorm:"type:varchar(2)" json:"region_code,omitempty"`

	WebinarCredits    int      `gorm:"not null;default:0" json:"webinar_credits"`
	IncludesInsurance bool     `gorm:"not null;default:false" json:"includes_insurance"`
	FuneralCover      *float64 `gorm:"type:numeric(12,2)" json:"funeral_cover,omitempty"`
	LifeCover         *float64 `gorm:"type:numeric(12,2)" json:"life_cover,omitempty"`

	Description string `json:"description"`
	IsActive    bool   `gorm:"not null" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Tier) BeforeCreate(*gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Price returns the tier price in the given currency.
func (t Tier) Price(currency string) (float64, bool) {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case CurrencyBWP:
		return t.PriceBWP, true
	case CurrencyZAR:
		return t.PriceZAR, true
	default:
		return 0, false
	}
}

// EligibleIn reports whether a caller from region may hold this tier.
func (t Tier) EligibleIn(region string) bool {
	if !t.RegionRestricted {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(region), t.RegionCode)
}
