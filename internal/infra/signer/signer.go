// Package signer provides the wallet implementations this core ships with:
// an unconfigured placeholder and a deterministic simulator. A production
// chain signer implements domain.SignerService outside this core; key
// management never lives here.
package signer

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ecopool-network/ecopool/internal/domain"
)

// ─── Unconfigured Signer ────────────────────────────────────────────────────

// Unconfigured is the signer used when no wallet is set up. The
// orchestrator checks IsConfigured before any live broadcast, so the
// broadcast methods only defend against misuse.
type Unconfigured struct{}

func (Unconfigured) IsConfigured() bool { return false }
func (Unconfigured) Address() string    { return "" }

func (Unconfigured) BroadcastRetirement(ctx context.Context, tx domain.RetirementTx) (*domain.BroadcastResult, error) {
	return nil, domain.ErrSignerNotConfigured
}

func (Unconfigured) BroadcastTokenBuy(ctx context.Context, denom string, spendUsdCents int64) (*domain.BroadcastResult, error) {
	return nil, domain.ErrSignerNotConfigured
}

func (Unconfigured) BroadcastBurn(ctx context.Context, denom string, amountMicro int64, burnAddress string) (*domain.BroadcastResult, error) {
	return nil, domain.ErrSignerNotConfigured
}

// ─── Simulated Signer ───────────────────────────────────────────────────────

// Simulated accepts every broadcast, fabricating tx hashes and heights.
// It lets the whole pipeline run end-to-end with no chain.
type Simulated struct {
	Addr string

	mu     sync.Mutex
	height int64
	txs    map[string]int64 // tx hash → height
}

// NewSimulated creates a simulated signer with the given bech32-style
// address (any non-empty string works).
func NewSimulated(addr string) *Simulated {
	return &Simulated{Addr: addr, height: 1_000_000, txs: make(map[string]int64)}
}

func (s *Simulated) IsConfigured() bool { return s.Addr != "" }
func (s *Simulated) Address() string    { return s.Addr }

func (s *Simulated) BroadcastRetirement(ctx context.Context, tx domain.RetirementTx) (*domain.BroadcastResult, error) {
	return s.accept("retire"), nil
}

func (s *Simulated) BroadcastTokenBuy(ctx context.Context, denom string, spendUsdCents int64) (*domain.BroadcastResult, error) {
	return s.accept("buy"), nil
}

func (s *Simulated) BroadcastBurn(ctx context.Context, denom string, amountMicro int64, burnAddress string) (*domain.BroadcastResult, error) {
	return s.accept("burn"), nil
}

func (s *Simulated) accept(kind string) *domain.BroadcastResult {
	hash := strings.ToUpper("sim-" + kind + "-" + uuid.NewString())
	s.mu.Lock()
	s.height++
	height := s.height
	if s.txs == nil {
		s.txs = make(map[string]int64)
	}
	s.txs[hash] = height
	s.mu.Unlock()
	return &domain.BroadcastResult{
		Code:   0,
		TxHash: hash,
		Height: height,
	}
}

// LookupTx is the confirmation lookup for Poller: every hash this signer
// broadcast confirms at its broadcast height; anything else is "not yet".
func (s *Simulated) LookupTx(ctx context.Context, txHash string) (*domain.TxConfirmation, error) {
	s.mu.Lock()
	height, ok := s.txs[txHash]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return &domain.TxConfirmation{
		TxHash:      txHash,
		Height:      height,
		ConfirmedAt: time.Now().UTC(),
	}, nil
}

// ─── Confirmation Polling ───────────────────────────────────────────────────

// LookupFn fetches one confirmation attempt. nil, nil means "not yet".
type LookupFn func(ctx context.Context, txHash string) (*domain.TxConfirmation, error)

// Poller implements domain.ConfirmationService with bounded attempts.
// Exhausting the attempts returns nil, nil — confirmation is best effort
// and its absence never downgrades a run.
type Poller struct {
	Lookup   LookupFn
	Attempts int
	Interval time.Duration
}

func (p Poller) WaitForConfirmation(ctx context.Context, txHash string) (*domain.TxConfirmation, error) {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.Interval):
			}
		}
		conf, err := p.Lookup(ctx, txHash)
		if err != nil {
			// Transient lookup failures just consume an attempt.
			continue
		}
		if conf != nil {
			return conf, nil
		}
	}
	return nil, nil
}

// ImmediateConfirmer confirms every hash on the first attempt, paired with
// the simulated signer.
type ImmediateConfirmer struct{}

func (ImmediateConfirmer) WaitForConfirmation(ctx context.Context, txHash string) (*domain.TxConfirmation, error) {
	return &domain.TxConfirmation{
		TxHash:      txHash,
		Height:      1_000_001,
		ConfirmedAt: time.Now().UTC(),
	}, nil
}
