// Package batch composes the monthly pipeline into one state-machine run:
// read the pool, split the fee, plan the purchase, attribute shares,
// execute, and append exactly one execution record — all guarded by the
// month's run lock so concurrent invocations cannot double-spend.
package batch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/ecopool-network/ecopool/internal/app/allocator"
	"github.com/ecopool-network/ecopool/internal/app/ledger"
	"github.com/ecopool-network/ecopool/internal/app/providers"
	"github.com/ecopool-network/ecopool/internal/domain"
	"github.com/ecopool-network/ecopool/internal/infra/observability"
)

// Config carries the orchestrator's policy knobs.
type Config struct {
	FeeBps              int64
	PaymentDenom        string
	CreditTypes         [2]string // balanced-mix candidates when no type is named
	DefaultJurisdiction string
	DefaultReason       string
	LockWait            time.Duration
}

// Runner orchestrates one monthly batch execution.
type Runner struct {
	cfg         Config
	ledger      *ledger.Service
	executions  domain.ExecutionStore
	locks       domain.LockManager
	selector    *allocator.Selector
	mix         *allocator.BalancedMix
	signer      domain.SignerService
	confirmer   domain.ConfirmationService
	acquisition providers.AcquisitionProvider
	burn        providers.BurnProvider
	metrics     *observability.Metrics
	now         func() time.Time
}

// NewRunner wires the orchestrator. metrics may be nil.
func NewRunner(cfg Config, svc *ledger.Service, executions domain.ExecutionStore,
	locks domain.LockManager, selector *allocator.Selector,
	signer domain.SignerService, confirmer domain.ConfirmationService,
	acquisition providers.AcquisitionProvider, burn providers.BurnProvider,
	metrics *observability.Metrics) *Runner {
	if cfg.LockWait <= 0 {
		cfg.LockWait = 30 * time.Second
	}
	return &Runner{
		cfg:         cfg,
		ledger:      svc,
		executions:  executions,
		locks:       locks,
		selector:    selector,
		mix:         allocator.NewBalancedMix(selector, cfg.CreditTypes[0], cfg.CreditTypes[1]),
		signer:      signer,
		confirmer:   confirmer,
		acquisition: acquisition,
		burn:        burn,
		metrics:     metrics,
		now:         time.Now,
	}
}

// SetNow overrides the clock (test hook).
func (r *Runner) SetNow(now func() time.Time) { r.now = now }

// RunRequest are the caller-facing knobs of one batch invocation.
type RunRequest struct {
	Month             string
	CreditType        string // empty selects the balanced mix
	MaxBudgetUsdCents int64  // 0 means the full pool
	DryRun            bool
	Force             bool
	Jurisdiction      string
	Reason            string
}

// RunResult is the structured outcome every invocation returns.
// Only pure input-validation failures surface as errors instead.
type RunResult struct {
	Outcome      domain.RunOutcome             `json:"outcome"`
	Message      string                        `json:"message"`
	Summary      *domain.MonthlyPoolSummary    `json:"summary,omitempty"`
	Fee          *domain.ProtocolFeeBreakdown  `json:"fee,omitempty"`
	Selection    *domain.BudgetOrderSelection  `json:"selection,omitempty"`
	Strategy     string                        `json:"strategy,omitempty"`
	Record       *domain.BatchExecutionRecord  `json:"record,omitempty"`
	Attributions []domain.ContributorAttribution `json:"attributions,omitempty"`
}

// Run executes the monthly batch state machine for req.
func (r *Runner) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if !domain.ValidMonth(req.Month) {
		return nil, domain.NewValidationError("month", "must match YYYY-MM")
	}

	creditType := req.CreditType
	if creditType == "" {
		creditType = "mixed"
	}
	started := r.now()

	lockStart := r.now()
	lock, err := r.locks.AcquireWait(ctx, req.Month+":"+creditType, r.cfg.LockWait)
	if err != nil {
		return nil, fmt.Errorf("acquire run lock for %s:%s: %w", req.Month, creditType, err)
	}
	r.metrics.LockWaited(r.now().Sub(lockStart))
	defer lock.Release()

	result, err := r.run(ctx, req, creditType)
	if err != nil {
		return nil, err
	}
	r.metrics.RunFinished(string(result.Outcome), r.now().Sub(started))
	log.Printf("[batch] %s %s: %s", req.Month, creditType, result.Outcome)
	return result, nil
}

func (r *Runner) run(ctx context.Context, req RunRequest, creditType string) (*RunResult, error) {
	// Idempotency gate.
	if !req.Force {
		done, err := r.executions.HasSuccessfulExecution(req.Month, creditType)
		if err != nil {
			return nil, fmt.Errorf("check idempotency gate: %w", err)
		}
		if done {
			return &RunResult{
				Outcome: domain.OutcomeAlreadyExecuted,
				Message: fmt.Sprintf("a successful run for %s (%s) already exists; use force to re-execute", req.Month, creditType),
			}, nil
		}
	}

	// Pool aggregate.
	summary, err := r.ledger.MonthlySummary(req.Month)
	if err != nil {
		return nil, err
	}
	if summary.ContributionCount == 0 {
		return &RunResult{
			Outcome: domain.OutcomeNoContributions,
			Message: fmt.Sprintf("no contributions recorded for %s", req.Month),
			Summary: summary,
		}, nil
	}

	// Fee split, on the capped pool.
	gross := summary.TotalUsdCents
	if req.MaxBudgetUsdCents > 0 && req.MaxBudgetUsdCents < gross {
		gross = req.MaxBudgetUsdCents
	}
	fee, err := domain.ComputeProtocolFee(gross, r.cfg.FeeBps)
	if err != nil {
		return nil, err
	}
	if fee.CreditBudgetUsdCents == 0 {
		return &RunResult{
			Outcome: domain.OutcomeNoOrders,
			Message: fmt.Sprintf("no credit budget remains from %d cents at %d bps", gross, r.cfg.FeeBps),
			Summary: summary,
			Fee:     &fee,
		}, nil
	}

	// Purchase plan.
	budgetMicro := domain.CentsToMicro(fee.CreditBudgetUsdCents)
	var selection domain.BudgetOrderSelection
	var strategy string
	if req.CreditType != "" {
		selection, err = r.selector.SelectOrdersForBudget(ctx, req.CreditType, budgetMicro, r.cfg.PaymentDenom)
		strategy = fmt.Sprintf("single: full budget to %s", req.CreditType)
	} else {
		var plan allocator.MixPlan
		plan, err = r.mix.Plan(ctx, budgetMicro, r.cfg.PaymentDenom)
		selection, strategy = plan.Selection, plan.Strategy
	}
	if err != nil {
		return nil, fmt.Errorf("plan order selection: %w", err)
	}
	if selection.TotalQuantityMicro == 0 {
		return &RunResult{
			Outcome:  domain.OutcomeNoOrders,
			Message:  fmt.Sprintf("no matching sell orders for %s (%s)", req.Month, creditType),
			Summary:  summary,
			Fee:      &fee,
			Strategy: strategy,
		}, nil
	}

	// Exact fractional shares of what will actually be spent and retired.
	spentCents := domain.MicroToCentsCeil(selection.TotalCostMicro)
	attributions := domain.ComputeAttributions(summary.Contributors, spentCents, selection.TotalQuantityMicro)

	jurisdiction := req.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = r.cfg.DefaultJurisdiction
	}
	reason := req.Reason
	if reason == "" {
		reason = r.cfg.DefaultReason
	}

	rec := domain.BatchExecutionRecord{
		ID:                   uuid.NewString(),
		Month:                req.Month,
		CreditType:           creditType,
		DryRun:               req.DryRun,
		Fee:                  fee,
		SpentUsdCents:        spentCents,
		TotalCostMicro:       selection.TotalCostMicro,
		RetiredQuantityMicro: selection.TotalQuantityMicro,
		PaymentDenom:         selection.PaymentDenom,
		Strategy:             strategy,
		Jurisdiction:         jurisdiction,
		Reason:               reason,
		Orders:               selection.Orders,
		Attributions:         attributions,
	}

	result := &RunResult{
		Summary:      summary,
		Fee:          &fee,
		Selection:    &selection,
		Strategy:     strategy,
		Attributions: attributions,
	}

	// Dry run: record the plan, touch nothing external.
	if req.DryRun {
		rec.Status = domain.ExecDryRun
		rec.Acquisition, _ = r.acquisition.PlanAcquisition(ctx, fee.FeeUsdCents)
		rec.Burn, _ = r.burn.PlanBurn(ctx, rec.Acquisition)
		rec.Message = fmt.Sprintf("dry run: would retire %d micro-credits for %d cents", selection.TotalQuantityMicro, spentCents)
		rec.ExecutedAt = r.now().UTC()
		if err := r.executions.AppendExecution(rec); err != nil {
			return nil, fmt.Errorf("append dry-run record: %w", err)
		}
		result.Outcome = domain.OutcomeDryRun
		result.Message = rec.Message
		result.Record = &rec
		return result, nil
	}

	// Live run requires a wallet.
	if r.signer == nil || !r.signer.IsConfigured() {
		result.Outcome = domain.OutcomeWalletNotConfigured
		result.Message = "signer wallet is not configured; set up a wallet or run with dry-run"
		return result, nil
	}

	// Submit the purchase.
	broadcast, err := r.signer.BroadcastRetirement(ctx, domain.RetirementTx{
		Orders:       selection.Orders,
		PaymentDenom: selection.PaymentDenom,
		Jurisdiction: jurisdiction,
		Reason:       reason,
	})
	if err != nil || broadcast.Code != 0 {
		rec.Status = domain.ExecFailed
		if err != nil {
			rec.Error = err.Error()
		} else {
			rec.Error = fmt.Sprintf("broadcast rejected with code %d: %s", broadcast.Code, broadcast.RawLog)
			rec.TxReference = broadcast.TxHash
		}
		rec.Acquisition = &domain.RegenAcquisitionRecord{
			Status:      domain.ProviderSkipped,
			FeeUsdCents: fee.FeeUsdCents,
			Message:     "skipped: credit purchase failed",
		}
		rec.Burn = &domain.RegenBurnRecord{
			Status:  domain.ProviderSkipped,
			Message: "skipped: credit purchase failed",
		}
		rec.Message = "credit purchase failed: " + rec.Error
		rec.ExecutedAt = r.now().UTC()
		if aerr := r.executions.AppendExecution(rec); aerr != nil {
			return nil, fmt.Errorf("append failed record: %w", aerr)
		}
		result.Outcome = domain.OutcomeFailed
		result.Message = rec.Message
		result.Record = &rec
		return result, nil
	}
	rec.TxReference = broadcast.TxHash
	rec.BlockHeight = broadcast.Height

	// Best-effort confirmation; its absence never downgrades the run.
	if r.confirmer != nil {
		if conf, cerr := r.confirmer.WaitForConfirmation(ctx, broadcast.TxHash); cerr == nil && conf != nil {
			rec.BlockHeight = conf.Height
		} else {
			log.Printf("[batch] confirmation not observed for %s (continuing)", broadcast.TxHash)
		}
	}

	// Fee conversion and burn run after the purchase and tolerate failure.
	subFailures := ""
	rec.Acquisition, err = r.acquisition.ExecuteAcquisition(ctx, fee.FeeUsdCents)
	if err != nil {
		rec.Acquisition = &domain.RegenAcquisitionRecord{
			Status: domain.ProviderFailed, FeeUsdCents: fee.FeeUsdCents, Message: err.Error(),
		}
	}
	if rec.Acquisition.Status == domain.ProviderFailed {
		subFailures = "; acquisition failed: " + rec.Acquisition.Message
	}

	rec.Burn, err = r.burn.ExecuteBurn(ctx, rec.Acquisition)
	if err != nil {
		rec.Burn = &domain.RegenBurnRecord{Status: domain.ProviderFailed, Message: err.Error()}
	}
	if rec.Burn.Status == domain.ProviderFailed {
		subFailures += "; burn failed: " + rec.Burn.Message
	}

	rec.Status = domain.ExecSuccess
	rec.Message = fmt.Sprintf("retired %d micro-credits for %d cents (tx %s)%s",
		selection.TotalQuantityMicro, spentCents, rec.TxReference, subFailures)
	rec.ExecutedAt = r.now().UTC()
	if err := r.executions.AppendExecution(rec); err != nil {
		return nil, fmt.Errorf("append success record: %w", err)
	}

	r.metrics.PurchaseSettled(spentCents, selection.TotalQuantityMicro)
	result.Outcome = domain.OutcomeSuccess
	result.Message = rec.Message
	result.Record = &rec
	return result, nil
}
