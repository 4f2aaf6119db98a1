package providers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ecopool-network/ecopool/internal/domain"
)

// BurnProvider destroys the token amount an acquisition produced.
type BurnProvider interface {
	PlanBurn(ctx context.Context, acq *domain.RegenAcquisitionRecord) (*domain.RegenBurnRecord, error)
	ExecuteBurn(ctx context.Context, acq *domain.RegenAcquisitionRecord) (*domain.RegenBurnRecord, error)
}

// ─── Disabled Burn ──────────────────────────────────────────────────────────

// DisabledBurn always skips. It performs no I/O.
type DisabledBurn struct{}

func (DisabledBurn) PlanBurn(ctx context.Context, acq *domain.RegenAcquisitionRecord) (*domain.RegenBurnRecord, error) {
	return &domain.RegenBurnRecord{
		Status:  domain.ProviderSkipped,
		Message: "burn provider disabled by configuration",
	}, nil
}

func (DisabledBurn) ExecuteBurn(ctx context.Context, acq *domain.RegenAcquisitionRecord) (*domain.RegenBurnRecord, error) {
	return &domain.RegenBurnRecord{
		Status:  domain.ProviderSkipped,
		Message: "burn provider disabled by configuration",
	}, nil
}

// ─── Simulated Burn ─────────────────────────────────────────────────────────

// SimulatedBurn records a burn of the acquired amount without touching any
// chain, fabricating a reference id.
type SimulatedBurn struct {
	BurnAddress string
}

func (p SimulatedBurn) PlanBurn(ctx context.Context, acq *domain.RegenAcquisitionRecord) (*domain.RegenBurnRecord, error) {
	rec := p.from(acq)
	rec.Status = domain.ProviderPlanned
	rec.Message = fmt.Sprintf("would burn %d micro %s (simulated)", rec.BurnedAmountMicro, rec.Denom)
	return rec, nil
}

func (p SimulatedBurn) ExecuteBurn(ctx context.Context, acq *domain.RegenAcquisitionRecord) (*domain.RegenBurnRecord, error) {
	rec := p.from(acq)
	if acq == nil || acq.Status != domain.ProviderExecuted {
		rec.Status = domain.ProviderSkipped
		rec.Message = "nothing to burn: acquisition did not execute"
		return rec, nil
	}
	rec.Status = domain.ProviderExecuted
	rec.TxReference = "sim-burn-" + uuid.NewString()
	rec.Message = fmt.Sprintf("burned %d micro %s (simulated)", rec.BurnedAmountMicro, rec.Denom)
	return rec, nil
}

func (p SimulatedBurn) from(acq *domain.RegenAcquisitionRecord) *domain.RegenBurnRecord {
	rec := &domain.RegenBurnRecord{BurnAddress: p.BurnAddress}
	if acq != nil {
		rec.BurnedAmountMicro = acq.AcquiredAmountMicro
		rec.Denom = acq.Denom
	}
	return rec
}

// ─── Live Burn ──────────────────────────────────────────────────────────────

// LiveBurn sends the acquired amount to the configured burn address through
// the signer.
type LiveBurn struct {
	Signer      domain.SignerService
	BurnAddress string
}

func (p LiveBurn) PlanBurn(ctx context.Context, acq *domain.RegenAcquisitionRecord) (*domain.RegenBurnRecord, error) {
	rec := &domain.RegenBurnRecord{
		Status:      domain.ProviderPlanned,
		BurnAddress: p.BurnAddress,
	}
	if acq != nil {
		rec.BurnedAmountMicro = acq.AcquiredAmountMicro
		rec.Denom = acq.Denom
	}
	rec.Message = fmt.Sprintf("would burn %d micro %s to %s", rec.BurnedAmountMicro, rec.Denom, p.BurnAddress)
	return rec, nil
}

func (p LiveBurn) ExecuteBurn(ctx context.Context, acq *domain.RegenAcquisitionRecord) (*domain.RegenBurnRecord, error) {
	rec := &domain.RegenBurnRecord{BurnAddress: p.BurnAddress}
	if acq == nil || acq.Status != domain.ProviderExecuted {
		rec.Status = domain.ProviderSkipped
		rec.Message = "nothing to burn: acquisition did not execute"
		return rec, nil
	}
	rec.BurnedAmountMicro = acq.AcquiredAmountMicro
	rec.Denom = acq.Denom

	res, err := p.Signer.BroadcastBurn(ctx, acq.Denom, acq.AcquiredAmountMicro, p.BurnAddress)
	if err != nil {
		rec.Status = domain.ProviderFailed
		rec.Message = fmt.Sprintf("burn broadcast failed: %v", err)
		return rec, nil
	}
	if res.Code != 0 {
		rec.Status = domain.ProviderFailed
		rec.Message = fmt.Sprintf("burn rejected with code %d: %s", res.Code, res.RawLog)
		return rec, nil
	}
	rec.Status = domain.ProviderExecuted
	rec.TxReference = res.TxHash
	rec.Message = fmt.Sprintf("burned %d micro %s to %s", rec.BurnedAmountMicro, rec.Denom, p.BurnAddress)
	return rec, nil
}
