package insurance

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"academy-api/internal/domain/subscriptions"
	"academy-api/internal/infra/underwriter"
	"academy-api/internal/platform/apperr"
	"academy-api/internal/platform/logger"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Underwriter interface {
	Enabled() bool
	Submit(ctx context.Context, s underwriter.Submission) (*underwriter.Review, error)
}

type Service struct {
	db  *gorm.DB
	uw  Underwriter
	log *logger.Logger
	now func() time.Time
}

func NewService(db *gorm.DB, uw Underwriter, log *logger.Logger) *Service {
	return &Service{
		db:  db,
		uw:  uw,
		log: log.With("component", "InsuranceService"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// SubscriptionChanged opens cover when an insured subscription becomes active
// and cancels it when the subscription ends. Failures are logged only.
func (s *Service) SubscriptionChanged(ctx context.Context, sub subscriptions.Subscription, _, to subscriptions.Status) {
	switch to {
	case subscriptions.StatusActive:
		if sub.Tier == nil || !sub.Tier.IncludesInsurance {
			return
		}
		if _, err := s.Open(ctx, sub); err != nil {
			s.log.Error("open insurance policy failed", "subscription_id", sub.ID, "error", err)
		}
	case subscriptions.StatusCancelled, subscriptions.StatusExpired:
		n, err := s.CancelForSubscription(ctx, sub.ID)
		if err != nil {
			s.log.Error("cancel insurance policy failed", "subscription_id", sub.ID, "error", err)
			return
		}
		if n > 0 {
			s.log.Info("insurance policy cancelled", "subscription_id", sub.ID, "reason", to)
		}
	}
}

// Open creates the pending policy of sub, if it has none yet, and submits it
// to the underwriter.
func (s *Service) Open(ctx context.Context, sub subscriptions.Subscription) (*Policy, error) {
	p := &Policy{
		UserID:         sub.UserID,
		SubscriptionID: sub.ID,
		Type:           TypeFuneralLife,
		Status:         StatusPending,
		Premium:        sub.Amount,
	}
	if sub.Tier != nil {
		if sub.Tier.FuneralCover != nil {
			p.FuneralCover = *sub.Tier.FuneralCover
		}
		if sub.Tier.LifeCover != nil {
			p.LifeCover = *sub.Tier.LifeCover
		}
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subscription_id"}},
		DoNothing: true,
	}).Create(p)
	if res.Error != nil {
		return nil, apperr.Unexpected("create insurance policy", res.Error)
	}
	if res.RowsAffected == 0 {
		var existing Policy
		if err := s.db.WithContext(ctx).Where("subscription_id = ?", sub.ID).First(&existing).Error; err != nil {
			return nil, apperr.FromDB("load insurance policy", err, "Insurance policy not found")
		}
		return &existing, nil
	}
	s.log.Info("insurance policy opened", "policy_id", p.ID, "subscription_id", sub.ID)

	return s.submit(ctx, p)
}

func (s *Service) submit(ctx context.Context, p *Policy) (*Policy, error) {
	if !s.uw.Enabled() {
		s.log.Warn("underwriter not configured, policy left pending", "policy_id", p.ID)
		return p, nil
	}

	review, err := s.uw.Submit(ctx, underwriter.Submission{
		PolicyID:       p.ID,
		UserID:         p.UserID,
		SubscriptionID: p.SubscriptionID,
		Type:           p.Type,
		FuneralCover:   p.FuneralCover,
		LifeCover:      p.LifeCover,
	})
	if err != nil {
		s.log.Error("underwriter submission failed", "policy_id", p.ID, "error", err)
		return p, nil
	}

	data, err := mergeData(p.UnderwriterData, map[string]any{
		"underwriterId": review.UnderwriterID,
		"riskScore":     review.RiskScore,
		"notes":         review.Notes,
		"decision":      review.Decision,
	})
	if err != nil {
		return nil, apperr.Unexpected("encode underwriter data", err)
	}
	if err := s.db.WithContext(ctx).Model(p).Update("underwriter_data", data).Error; err != nil {
		return nil, apperr.Unexpected("store underwriter data", err)
	}
	p.UnderwriterData = data

	switch review.Decision {
	case underwriter.DecisionApproved:
		return s.Approve(ctx, p.ID)
	case underwriter.DecisionRejected:
		return s.Reject(ctx, p.ID, review.Notes)
	default:
		return p, nil
	}
}

// Approve activates a pending policy for one year from today.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*Policy, error) {
	var p Policy
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.loadPending(tx, id, &p); err != nil {
			return err
		}
		now := s.now()
		end := now.AddDate(1, 0, 0)
		number := policyNumber(p.Type)
		data, err := mergeData(p.UnderwriterData, map[string]any{"approvedAt": now})
		if err != nil {
			return apperr.Unexpected("encode underwriter data", err)
		}
		if err := tx.Model(&p).Updates(map[string]any{
			"status":           StatusActive,
			"policy_number":    number,
			"start_date":       now,
			"end_date":         end,
			"underwriter_data": data,
		}).Error; err != nil {
			return apperr.FromDB("approve insurance policy", err, "")
		}
		p.Status, p.PolicyNumber, p.StartDate, p.EndDate, p.UnderwriterData = StatusActive, &number, &now, &end, data
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("insurance policy approved", "policy_id", p.ID, "policy_number", *p.PolicyNumber)
	return &p, nil
}

func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string) (*Policy, error) {
	var p Policy
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.loadPending(tx, id, &p); err != nil {
			return err
		}
		if err := tx.Model(&p).Updates(map[string]any{
			"status": StatusRejected,
			"notes":  reason,
		}).Error; err != nil {
			return apperr.Unexpected("reject insurance policy", err)
		}
		p.Status, p.Notes = StatusRejected, reason
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("insurance policy rejected", "policy_id", p.ID)
	return &p, nil
}

// CancelForSubscription cancels the pending or active cover of a
// subscription and reports how many policies changed.
func (s *Service) CancelForSubscription(ctx context.Context, subscriptionID uuid.UUID) (int64, error) {
	res := s.db.WithContext(ctx).Model(&Policy{}).
		Where("subscription_id = ? AND status IN ?", subscriptionID, []Status{StatusPending, StatusActive}).
		Updates(map[string]any{
			"status":   StatusCancelled,
			"end_date": s.now(),
		})
	if res.Error != nil {
		return 0, apperr.Unexpected("cancel insurance policies", res.Error)
	}
	return res.RowsAffected, nil
}

// ListForUser returns the user's policies, newest first.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]Policy, error) {
	var list []Policy
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, apperr.Unexpected("list insurance policies", err)
	}
	return list, nil
}

// Get returns one of the user's policies.
func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*Policy, error) {
	var p Policy
	if err := s.db.WithContext(ctx).First(&p, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, apperr.FromDB("load insurance policy", err, "Insurance policy not found")
	}
	return &p, nil
}

// Cancel ends an active policy at the holder's request.
func (s *Service) Cancel(ctx context.Context, id, userID uuid.UUID) (*Policy, error) {
	var p Policy
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			return apperr.FromDB("load insurance policy", err, "Insurance policy not found")
		}
		switch p.Status {
		case StatusActive:
		case StatusCancelled:
			return apperr.Conflict("Policy is already cancelled")
		default:
			return apperr.Conflict("Only active policies can be cancelled")
		}
		now := s.now()
		res := tx.Model(&Policy{}).
			Where("id = ? AND status = ?", p.ID, StatusActive).
			Updates(map[string]any{"status": StatusCancelled, "end_date": now})
		if res.Error != nil {
			return apperr.Unexpected("cancel insurance policy", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("Policy was modified concurrently")
		}
		p.Status, p.EndDate = StatusCancelled, &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("insurance policy cancelled by holder", "policy_id", p.ID)
	return &p, nil
}

// List returns every policy, newest first.
func (s *Service) List(ctx context.Context) ([]Policy, error) {
	var list []Policy
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, apperr.Unexpected("list insurance policies", err)
	}
	return list, nil
}

// Pending returns the policies awaiting a decision, oldest first.
func (s *Service) Pending(ctx context.Context) ([]Policy, error) {
	var list []Policy
	if err := s.db.WithContext(ctx).
		Where("status = ?", StatusPending).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, apperr.Unexpected("list pending insurance policies", err)
	}
	return list, nil
}

func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	type statusCount struct {
		Status   Status
		Count    int64
		Premiums float64
	}
	var rows []statusCount
	if err := s.db.WithContext(ctx).Model(&Policy{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(premium), 0) AS premiums").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, apperr.Unexpected("summarise insurance policies", err)
	}

	var st Statistics
	for _, r := range rows {
		st.TotalPolicies += r.Count
		switch r.Status {
		case StatusActive:
			st.ActivePolicies = r.Count
			st.TotalPremiums = r.Premiums
		case StatusPending:
			st.PendingPolicies = r.Count
		}
	}
	return &st, nil
}

func (s *Service) loadPending(tx *gorm.DB, id uuid.UUID, p *Policy) error {
	if err := tx.First(p, "id = ?", id).Error; err != nil {
		return apperr.FromDB("load insurance policy", err, "Insurance policy not found")
	}
	if p.Status != StatusPending {
		return apperr.Conflict("Only pending policies can be decided; policy is %s", p.Status)
	}
	return nil
}

func mergeData(existing datatypes.JSON, fields map[string]any) (datatypes.JSON, error) {
	merged := map[string]any{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &merged); err != nil {
			return nil, err
		}
	}
	for k, v := range fields {
		merged[k] = v
	}
	raw, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func policyNumber(policyType string) string {
	prefix := strings.ToUpper(policyType)
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:12]
	return prefix + "-" + suffix
}
