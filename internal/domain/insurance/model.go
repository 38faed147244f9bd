package insurance

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

const TypeFuneralLife = "funeral_life"

// Policy is the insurance cover attached to a subscription of an insured
// tier. There is at most one per subscription.
type Policy struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	SubscriptionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_insurance_policies_subscription" json:"subscription_id"`
	Type           string    `gorm:"type:varchar(30);not null" json:"type"`
	Status         Status    `gorm:"type:varchar(20);not null;index" json:"status"`
	// Assigned on approval; uniqueness is enforced by a partial index.
	PolicyNumber *string `gorm:"type:varchar(40)" json:"policy_number"`

	// Monthly or annual charge of the covering subscription.
	Premium      float64    `gorm:"type:numeric(10,2);not null;default:0" json:"premium"`
	FuneralCover float64    `gorm:"type:numeric(12,2);not null;default:0" json:"funeral_cover"`
	LifeCover    float64    `gorm:"type:numeric(12,2);not null;default:0" json:"life_cover"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`

	UnderwriterData datatypes.JSON `json:"underwriter_data,omitempty"`
	Notes           string         `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Statistics summarises the policy book.
type Statistics struct {
	TotalPolicies   int64   `json:"total_policies"`
	ActivePolicies  int64   `json:"active_policies"`
	PendingPolicies int64   `json:"pending_policies"`
	TotalPremiums   float64 `json:"total_premiums"`
}

func (Policy) TableName() string { return "insurance_policies" }

func (p *Policy) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
