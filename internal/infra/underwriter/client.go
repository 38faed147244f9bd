// Package underwriter is the HTTP client for the external insurance
// underwriter that reviews new policies.
package underwriter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

var ErrNotConfigured = errors.New("underwriter api url not configured")

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
	// DecisionReview means the underwriter has not decided yet.
	DecisionReview Decision = "review"
)

type Submission struct {
	PolicyID       uuid.UUID `json:"policyId"`
	UserID         uuid.UUID `json:"userId"`
	SubscriptionID uuid.UUID `json:"subscriptionId"`
	Type           string    `json:"type"`
	FuneralCover   float64   `json:"funeralCover"`
	LifeCover      float64   `json:"lifeCover"`
}

type Review struct {
	UnderwriterID string   `json:"underwriterId"`
	RiskScore     float64  `json:"riskScore"`
	Notes         string   `json:"notes"`
	Decision      Decision `json:"decision"`
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	http    *resty.Client
	enabled bool
}

func New(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	rc := resty.New().
		SetBaseURL(base).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		rc.SetAuthToken(cfg.APIKey)
	}
	return &Client{http: rc, enabled: base != ""}
}

func (c *Client) Enabled() bool { return c.enabled }

// Submit sends a policy for review and returns the underwriter's answer.
func (c *Client) Submit(ctx context.Context, s Submission) (*Review, error) {
	if !c.enabled {
		return nil, ErrNotConfigured
	}

	var review Review
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(s).
		SetResult(&review).
		Post("/policies/review")
	if err != nil {
		return nil, fmt.Errorf("submit policy %s: %w", s.PolicyID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("submit policy %s: underwriter returned %d: %s", s.PolicyID, resp.StatusCode(), resp.String())
	}
	if review.Decision == "" {
		review.Decision = DecisionReview
	}
	return &review, nil
}
