package signer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ecopool-network/ecopool/internal/domain"
)

func TestUnconfigured(t *testing.T) {
	var s Unconfigured
	if s.IsConfigured() {
		t.Error("IsConfigured() = true, want false")
	}
	if _, err := s.BroadcastRetirement(context.Background(), domain.RetirementTx{}); !errors.Is(err, domain.ErrSignerNotConfigured) {
		t.Errorf("BroadcastRetirement error = %v, want ErrSignerNotConfigured", err)
	}
}

func TestSimulatedBroadcastAndLookup(t *testing.T) {
	s := NewSimulated("ecopool1simaddr")
	if !s.IsConfigured() {
		t.Fatal("IsConfigured() = false, want true")
	}

	res, err := s.BroadcastRetirement(context.Background(), domain.RetirementTx{})
	if err != nil || res.Code != 0 || res.TxHash == "" {
		t.Fatalf("BroadcastRetirement = %+v, %v, want accepted with hash", res, err)
	}

	conf, err := s.LookupTx(context.Background(), res.TxHash)
	if err != nil {
		t.Fatalf("LookupTx: %v", err)
	}
	if conf == nil || conf.TxHash != res.TxHash || conf.Height != res.Height {
		t.Errorf("LookupTx = %+v, want confirmation at broadcast height %d", conf, res.Height)
	}

	// Unknown hashes are "not yet", not an error.
	conf, err = s.LookupTx(context.Background(), "DEADBEEF")
	if err != nil || conf != nil {
		t.Errorf("LookupTx(unknown) = %+v, %v, want nil, nil", conf, err)
	}
}

func TestPollerConfirms(t *testing.T) {
	s := NewSimulated("ecopool1simaddr")
	res, _ := s.BroadcastBurn(context.Background(), "uregen", 1000, "regen1burn")

	p := Poller{Lookup: s.LookupTx, Attempts: 3, Interval: time.Millisecond}
	conf, err := p.WaitForConfirmation(context.Background(), res.TxHash)
	if err != nil {
		t.Fatalf("WaitForConfirmation: %v", err)
	}
	if conf == nil || conf.Height != res.Height {
		t.Errorf("confirmation = %+v, want height %d", conf, res.Height)
	}
}

func TestPollerGivesUpAfterBoundedAttempts(t *testing.T) {
	calls := 0
	p := Poller{
		Lookup: func(ctx context.Context, txHash string) (*domain.TxConfirmation, error) {
			calls++
			return nil, nil
		},
		Attempts: 4,
		Interval: time.Millisecond,
	}

	conf, err := p.WaitForConfirmation(context.Background(), "ABC")
	if err != nil {
		t.Fatalf("WaitForConfirmation: %v", err)
	}
	if conf != nil {
		t.Errorf("confirmation = %+v, want nil after giving up", conf)
	}
	if calls != 4 {
		t.Errorf("lookup called %d times, want exactly 4", calls)
	}
}

func TestPollerTransientErrorsConsumeAttempts(t *testing.T) {
	calls := 0
	p := Poller{
		Lookup: func(ctx context.Context, txHash string) (*domain.TxConfirmation, error) {
			calls++
			if calls < 3 {
				return nil, errors.New("rpc unreachable")
			}
			return &domain.TxConfirmation{TxHash: txHash, Height: 42}, nil
		},
		Attempts: 5,
		Interval: time.Millisecond,
	}

	conf, err := p.WaitForConfirmation(context.Background(), "ABC")
	if err != nil {
		t.Fatalf("WaitForConfirmation: %v", err)
	}
	if conf == nil || conf.Height != 42 {
		t.Errorf("confirmation = %+v, want success on the third attempt", conf)
	}
}

func TestPollerHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := Poller{
		Lookup: func(ctx context.Context, txHash string) (*domain.TxConfirmation, error) {
			return nil, nil
		},
		Attempts: 10,
		Interval: time.Second,
	}
	if _, err := p.WaitForConfirmation(ctx, "ABC"); !errors.Is(err, context.Canceled) {
		t.Errorf("WaitForConfirmation error = %v, want context.Canceled", err)
	}
}
