package domain

import (
	"context"
	"time"
)

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// ContributionStore persists the append-only contribution ledger.
// Dedup and append must be atomic under the store's exclusive-mutation
// discipline: two concurrent appends with the same external event id
// resolve to exactly one stored record.
type ContributionStore interface {
	// AppendContribution stores rec unless an earlier record carries the
	// same non-empty ExternalEventID, in which case the existing record is
	// returned with duplicate=true and nothing is written.
	AppendContribution(rec ContributionRecord) (stored ContributionRecord, duplicate bool, err error)

	// ContributionsByMonth returns every contribution in the given month,
	// in append order.
	ContributionsByMonth(month string) ([]ContributionRecord, error)
}

// ExecutionStore persists the append-only batch execution ledger.
type ExecutionStore interface {
	AppendExecution(rec BatchExecutionRecord) error

	// HasSuccessfulExecution is the idempotency gate: a prior success
	// record for (month, creditType) blocks re-execution unless forced.
	HasSuccessfulExecution(month, creditType string) (bool, error)

	// ListExecutions returns execution records in append order.
	// An empty month returns the full history.
	ListExecutions(month string) ([]BatchExecutionRecord, error)
}

// NamedLock is a held mutual-exclusion lease on one logical key.
type NamedLock interface {
	// Release frees the lock. A release after the lease expired and was
	// reclaimed by another holder is a no-op, never a theft.
	Release() error
}

// LockManager hands out named mutual-exclusion leases.
type LockManager interface {
	// Acquire takes the lock for key without waiting.
	// Returns ErrLockHeld when another holder has an unexpired lease.
	Acquire(key string) (NamedLock, error)

	// AcquireWait retries Acquire on an interval until maxWait elapses,
	// then returns ErrLockTimeout.
	AcquireWait(ctx context.Context, key string, maxWait time.Duration) (NamedLock, error)
}

// MarketDataService fetches the currently open sell-order book.
type MarketDataService interface {
	OpenSellOrders(ctx context.Context) ([]SellOrder, error)
}

// SignerService abstracts the wallet that signs and broadcasts
// transactions. Initialized once and reused; individual broadcasts are
// independent RPCs with no cross-call ordering beyond submit-then-poll.
type SignerService interface {
	IsConfigured() bool
	Address() string

	// BroadcastRetirement submits a buy-and-retire transaction.
	BroadcastRetirement(ctx context.Context, tx RetirementTx) (*BroadcastResult, error)

	// BroadcastTokenBuy spends spendUsdCents on the secondary token.
	BroadcastTokenBuy(ctx context.Context, denom string, spendUsdCents int64) (*BroadcastResult, error)

	// BroadcastBurn sends amountMicro of denom to the burn address.
	BroadcastBurn(ctx context.Context, denom string, amountMicro int64, burnAddress string) (*BroadcastResult, error)
}

// ConfirmationService polls for on-chain confirmation of a broadcast.
// A nil confirmation with nil error means polling gave up; the absence of
// a confirmation never downgrades a run.
type ConfirmationService interface {
	WaitForConfirmation(ctx context.Context, txHash string) (*TxConfirmation, error)
}
