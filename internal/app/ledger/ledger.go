// Package ledger implements the contribution ledger service: identity and
// amount resolution for incoming billing events, exactly-once recording,
// and the derived monthly pool summary.
package ledger

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ecopool-network/ecopool/internal/domain"
	"github.com/ecopool-network/ecopool/internal/infra/observability"
)

// Service is the contribution ledger application service.
type Service struct {
	store   domain.ContributionStore
	tiers   map[string]int64 // tier id → USD cents
	metrics *observability.Metrics
	now     func() time.Time
}

// NewService creates the ledger service. tiers maps tier ids to cent
// amounts for inputs that reference a billing tier; metrics may be nil.
func NewService(store domain.ContributionStore, tiers map[string]int64, metrics *observability.Metrics) *Service {
	return &Service{store: store, tiers: tiers, metrics: metrics, now: time.Now}
}

// SetNow overrides the clock (test hook).
func (s *Service) SetNow(now func() time.Time) { s.now = now }

// RecordInput is one incoming billing event. Billing webhooks may deliver
// the same event more than once; ExternalEventID makes redelivery safe.
type RecordInput struct {
	UserID     string `json:"user_id,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
	Email      string `json:"email,omitempty"`

	AmountUsdCents int64   `json:"amount_usd_cents,omitempty"`
	AmountUsd      float64 `json:"amount_usd,omitempty"`
	TierID         string  `json:"tier_id,omitempty"`

	ContributedAt   time.Time `json:"contributed_at,omitempty"`
	ExternalEventID string    `json:"external_event_id,omitempty"`
	Source          string    `json:"source,omitempty"`
}

// RecordResult reports the stored record and whether it was a redelivery.
type RecordResult struct {
	Record    domain.ContributionRecord `json:"record"`
	Duplicate bool                      `json:"duplicate"`
}

// RecordContribution resolves identity and amount, then appends exactly
// once. Identity resolves from (userId | customerId | email) in priority
// order; amount from (amountUsdCents | amountUsd | tierId).
func (s *Service) RecordContribution(input RecordInput) (RecordResult, error) {
	userID, err := s.resolveUserID(input)
	if err != nil {
		return RecordResult{}, err
	}
	cents, err := s.resolveAmount(input)
	if err != nil {
		return RecordResult{}, err
	}

	ts := input.ContributedAt
	if ts.IsZero() {
		ts = s.now()
	}
	ts = ts.UTC()

	rec := domain.ContributionRecord{
		ID:              uuid.NewString(),
		UserID:          userID,
		Email:           strings.ToLower(strings.TrimSpace(input.Email)),
		CustomerID:      input.CustomerID,
		AmountUsdCents:  cents,
		ContributedAt:   ts,
		Month:           domain.MonthOf(ts),
		ExternalEventID: input.ExternalEventID,
		Source:          input.Source,
	}

	stored, duplicate, err := s.store.AppendContribution(rec)
	if err != nil {
		return RecordResult{}, fmt.Errorf("append contribution: %w", err)
	}
	if duplicate {
		log.Printf("[ledger] duplicate billing event %s suppressed (record %s)",
			stored.ExternalEventID, stored.ID)
		s.metrics.ContributionDuplicate()
	} else {
		log.Printf("[ledger] recorded %d cents from %s for %s", cents, userID, rec.Month)
		s.metrics.ContributionRecorded(cents)
	}
	return RecordResult{Record: stored, Duplicate: duplicate}, nil
}

// MonthlySummary recomputes the pool aggregate for one month.
// Contributors are sorted by descending contribution; equal totals order
// by user id so the output is stable.
func (s *Service) MonthlySummary(month string) (*domain.MonthlyPoolSummary, error) {
	if !domain.ValidMonth(month) {
		return nil, domain.NewValidationError("month", "must match YYYY-MM")
	}

	recs, err := s.store.ContributionsByMonth(month)
	if err != nil {
		return nil, fmt.Errorf("read contributions: %w", err)
	}

	totals := make(map[string]int64)
	var grand int64
	for _, rec := range recs {
		totals[rec.UserID] += rec.AmountUsdCents
		grand += rec.AmountUsdCents
	}

	contributors := make([]domain.ContributorTotal, 0, len(totals))
	for userID, total := range totals {
		contributors = append(contributors, domain.ContributorTotal{UserID: userID, TotalUsdCents: total})
	}
	sort.Slice(contributors, func(i, j int) bool {
		if contributors[i].TotalUsdCents != contributors[j].TotalUsdCents {
			return contributors[i].TotalUsdCents > contributors[j].TotalUsdCents
		}
		return contributors[i].UserID < contributors[j].UserID
	})

	return &domain.MonthlyPoolSummary{
		Month:             month,
		ContributionCount: len(recs),
		Contributors:      contributors,
		TotalUsdCents:     grand,
	}, nil
}

// resolveUserID picks the stable contributor identity.
func (s *Service) resolveUserID(input RecordInput) (string, error) {
	switch {
	case input.UserID != "":
		return input.UserID, nil
	case input.CustomerID != "":
		return "customer:" + input.CustomerID, nil
	case strings.TrimSpace(input.Email) != "":
		return "email:" + strings.ToLower(strings.TrimSpace(input.Email)), nil
	}
	return "", domain.NewValidationError("identity", "one of userId, customerId, or email is required")
}

// resolveAmount picks the contribution amount in cents.
// AmountUsd is a boundary conversion only: rounded to the nearest cent
// here, integer cents everywhere after.
func (s *Service) resolveAmount(input RecordInput) (int64, error) {
	switch {
	case input.AmountUsdCents != 0:
		if input.AmountUsdCents < 0 {
			return 0, domain.NewValidationError("amountUsdCents", "must be positive")
		}
		return input.AmountUsdCents, nil

	case input.AmountUsd != 0:
		cents := int64(math.Round(input.AmountUsd * 100))
		if cents <= 0 {
			return 0, domain.NewValidationError("amountUsd", "must be positive")
		}
		return cents, nil

	case input.TierID != "":
		cents, ok := s.tiers[input.TierID]
		if !ok {
			return 0, domain.NewValidationError("tierId", fmt.Sprintf("unknown tier %q", input.TierID))
		}
		if cents <= 0 {
			return 0, domain.NewValidationError("tierId", fmt.Sprintf("tier %q has non-positive amount", input.TierID))
		}
		return cents, nil
	}
	return 0, domain.NewValidationError("amount", "one of amountUsdCents, amountUsd, or tierId is required")
}
