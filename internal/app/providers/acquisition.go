// Package providers implements the pluggable fee-skim conversion steps:
// acquiring the secondary token with the protocol fee, and burning what was
// acquired. Each step has three interchangeable strategies — disabled,
// simulated, and live — selected once at construction from configuration.
//
// Plan never mutates external state; Execute does. The orchestrator calls
// Plan during dry runs and Execute only after a successful credit purchase.
package providers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ecopool-network/ecopool/internal/domain"
)

// AcquisitionProvider converts a protocol fee skim into the secondary token.
type AcquisitionProvider interface {
	PlanAcquisition(ctx context.Context, feeUsdCents int64) (*domain.RegenAcquisitionRecord, error)
	ExecuteAcquisition(ctx context.Context, feeUsdCents int64) (*domain.RegenAcquisitionRecord, error)
}

// Strategy names accepted by configuration.
const (
	StrategyDisabled  = "disabled"
	StrategySimulated = "simulated"
	StrategyLive      = "live"
)

// ─── Disabled Acquisition ───────────────────────────────────────────────────

// DisabledAcquisition always skips. It performs no I/O.
type DisabledAcquisition struct{}

func (DisabledAcquisition) PlanAcquisition(ctx context.Context, feeUsdCents int64) (*domain.RegenAcquisitionRecord, error) {
	return skippedAcquisition(feeUsdCents), nil
}

func (DisabledAcquisition) ExecuteAcquisition(ctx context.Context, feeUsdCents int64) (*domain.RegenAcquisitionRecord, error) {
	return skippedAcquisition(feeUsdCents), nil
}

func skippedAcquisition(feeUsdCents int64) *domain.RegenAcquisitionRecord {
	return &domain.RegenAcquisitionRecord{
		Status:      domain.ProviderSkipped,
		FeeUsdCents: feeUsdCents,
		Message:     "acquisition provider disabled by configuration",
	}
}

// ─── Simulated Acquisition ──────────────────────────────────────────────────

// SimulatedAcquisition converts at a fixed configured rate in memory and
// fabricates a reference id. Deterministic apart from the reference.
type SimulatedAcquisition struct {
	Denom string
	// RateMicroPerCent is micro-tokens acquired per fee cent.
	RateMicroPerCent int64
}

func (p SimulatedAcquisition) PlanAcquisition(ctx context.Context, feeUsdCents int64) (*domain.RegenAcquisitionRecord, error) {
	rec := p.convert(feeUsdCents)
	rec.Status = domain.ProviderPlanned
	rec.Message = fmt.Sprintf("would acquire %d micro %s for %d fee cents (simulated)",
		rec.AcquiredAmountMicro, p.Denom, feeUsdCents)
	return rec, nil
}

func (p SimulatedAcquisition) ExecuteAcquisition(ctx context.Context, feeUsdCents int64) (*domain.RegenAcquisitionRecord, error) {
	rec := p.convert(feeUsdCents)
	rec.Status = domain.ProviderExecuted
	rec.TxReference = "sim-acq-" + uuid.NewString()
	rec.Message = fmt.Sprintf("acquired %d micro %s for %d fee cents (simulated)",
		rec.AcquiredAmountMicro, p.Denom, feeUsdCents)
	return rec, nil
}

func (p SimulatedAcquisition) convert(feeUsdCents int64) *domain.RegenAcquisitionRecord {
	return &domain.RegenAcquisitionRecord{
		FeeUsdCents:         feeUsdCents,
		AcquiredAmountMicro: feeUsdCents * p.RateMicroPerCent,
		Denom:               p.Denom,
	}
}

// ─── Live Acquisition ───────────────────────────────────────────────────────

// LiveAcquisition buys the secondary token through the signer.
// The configured rate estimates the acquired amount; the broadcast outcome
// carries the authoritative transaction reference.
type LiveAcquisition struct {
	Signer           domain.SignerService
	Denom            string
	RateMicroPerCent int64
}

func (p LiveAcquisition) PlanAcquisition(ctx context.Context, feeUsdCents int64) (*domain.RegenAcquisitionRecord, error) {
	return &domain.RegenAcquisitionRecord{
		Status:              domain.ProviderPlanned,
		FeeUsdCents:         feeUsdCents,
		AcquiredAmountMicro: feeUsdCents * p.RateMicroPerCent,
		Denom:               p.Denom,
		Message:             fmt.Sprintf("would buy %s with %d fee cents", p.Denom, feeUsdCents),
	}, nil
}

func (p LiveAcquisition) ExecuteAcquisition(ctx context.Context, feeUsdCents int64) (*domain.RegenAcquisitionRecord, error) {
	rec := &domain.RegenAcquisitionRecord{
		FeeUsdCents:         feeUsdCents,
		AcquiredAmountMicro: feeUsdCents * p.RateMicroPerCent,
		Denom:               p.Denom,
	}
	res, err := p.Signer.BroadcastTokenBuy(ctx, p.Denom, feeUsdCents)
	if err != nil {
		rec.Status = domain.ProviderFailed
		rec.Message = fmt.Sprintf("token buy broadcast failed: %v", err)
		return rec, nil
	}
	if res.Code != 0 {
		rec.Status = domain.ProviderFailed
		rec.Message = fmt.Sprintf("token buy rejected with code %d: %s", res.Code, res.RawLog)
		return rec, nil
	}
	rec.Status = domain.ProviderExecuted
	rec.TxReference = res.TxHash
	rec.Message = fmt.Sprintf("acquired %s with %d fee cents", p.Denom, feeUsdCents)
	return rec, nil
}
