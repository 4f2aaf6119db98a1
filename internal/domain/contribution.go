// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import (
	"regexp"
	"time"
)

// ─── Money Units ────────────────────────────────────────────────────────────
// All amounts are integers. USD is carried in cents; on-chain amounts are
// carried in micro units (1 unit = 1_000_000 micro). Floats never touch money.

// MicroPerCent converts USD cents to micro-USD (1 USD = 100 cents = 1e6 micro).
const MicroPerCent int64 = 10_000

// MicroPerUnit is the number of micro units in one whole credit or token.
const MicroPerUnit int64 = 1_000_000

// CentsToMicro converts USD cents to micro-USD.
func CentsToMicro(cents int64) int64 { return cents * MicroPerCent }

// MicroToCentsCeil converts micro-USD to cents, rounding up.
// Charging is conservative: a partial cent spent is a whole cent attributed.
func MicroToCentsCeil(micro int64) int64 {
	return (micro + MicroPerCent - 1) / MicroPerCent
}

// ─── Contribution Types ─────────────────────────────────────────────────────

// ContributionRecord is one USD contribution to the monthly pool.
// Records are append-only: written once by a billing event, never mutated.
type ContributionRecord struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	Email           string    `json:"email,omitempty"`
	CustomerID      string    `json:"customer_id,omitempty"`
	AmountUsdCents  int64     `json:"amount_usd_cents"`
	ContributedAt   time.Time `json:"contributed_at"`
	Month           string    `json:"month"` // YYYY-MM, derived from ContributedAt
	ExternalEventID string    `json:"external_event_id,omitempty"`
	Source          string    `json:"source,omitempty"`
}

// ContributorTotal aggregates one contributor's pool share for a month.
type ContributorTotal struct {
	UserID        string `json:"user_id"`
	TotalUsdCents int64  `json:"total_usd_cents"`
}

// MonthlyPoolSummary is the derived view of a month's pool.
// It is recomputed on read and never persisted independently.
// Invariant: sum of Contributors[i].TotalUsdCents == TotalUsdCents.
type MonthlyPoolSummary struct {
	Month             string             `json:"month"`
	ContributionCount int                `json:"contribution_count"`
	Contributors      []ContributorTotal `json:"contributors"`
	TotalUsdCents     int64              `json:"total_usd_cents"`
}

var monthPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// ValidMonth reports whether s is a YYYY-MM month key.
func ValidMonth(s string) bool { return monthPattern.MatchString(s) }

// MonthOf derives the YYYY-MM pool key from a contribution timestamp.
// Equivalent to the first 7 characters of the RFC 3339 form in UTC.
func MonthOf(t time.Time) string { return t.UTC().Format("2006-01") }
