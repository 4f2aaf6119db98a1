package cli

import (
	"fmt"
	"path/filepath"

	"github.com/ecopool-network/ecopool/internal/app/allocator"
	"github.com/ecopool-network/ecopool/internal/app/batch"
	"github.com/ecopool-network/ecopool/internal/app/ledger"
	"github.com/ecopool-network/ecopool/internal/app/providers"
	"github.com/ecopool-network/ecopool/internal/daemon"
	"github.com/ecopool-network/ecopool/internal/domain"
	"github.com/ecopool-network/ecopool/internal/infra/ledgerfile"
	"github.com/ecopool-network/ecopool/internal/infra/market"
	"github.com/ecopool-network/ecopool/internal/infra/observability"
	"github.com/ecopool-network/ecopool/internal/infra/runlock"
	"github.com/ecopool-network/ecopool/internal/infra/signer"
	"github.com/ecopool-network/ecopool/internal/infra/sqlite"
)

// runtime is the fully wired application: stores, services, and the batch
// runner, built from one loaded config.
type runtime struct {
	cfg           daemon.Config
	contributions domain.ContributionStore
	executions    domain.ExecutionStore
	ledger        *ledger.Service
	runner        *batch.Runner
	signer        domain.SignerService
	close         func() error
}

// openRuntime loads the config and wires every component behind it.
// metrics may be nil for one-shot commands.
func openRuntime(metrics *observability.Metrics) (*runtime, error) {
	cfg, err := daemon.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, close: func() error { return nil }}

	switch cfg.Ledger.Backend {
	case "sqlite":
		db, err := sqlite.Open(filepath.Join(cfg.DataDir(), "ecopool.db"))
		if err != nil {
			return nil, fmt.Errorf("open sqlite ledger: %w", err)
		}
		rt.contributions, rt.executions = db, db
		rt.close = db.Close
	default: // "json", enforced by Validate
		store, err := ledgerfile.Open(cfg.DataDir())
		if err != nil {
			return nil, fmt.Errorf("open ledger files: %w", err)
		}
		rt.contributions, rt.executions = store, store
	}

	rt.ledger = ledger.NewService(rt.contributions, cfg.Tiers, metrics)

	switch cfg.Signer.Mode {
	case "simulated":
		rt.signer = signer.NewSimulated(cfg.Signer.Address)
	default: // "none"
		rt.signer = signer.Unconfigured{}
	}

	var acquisition providers.AcquisitionProvider
	switch cfg.Acquisition.Provider {
	case "simulated":
		acquisition = providers.SimulatedAcquisition{
			Denom:            cfg.Acquisition.Denom,
			RateMicroPerCent: cfg.Acquisition.RateMicroPerCent,
		}
	case "live":
		acquisition = providers.LiveAcquisition{
			Signer:           rt.signer,
			Denom:            cfg.Acquisition.Denom,
			RateMicroPerCent: cfg.Acquisition.RateMicroPerCent,
		}
	default:
		acquisition = providers.DisabledAcquisition{}
	}

	var burn providers.BurnProvider
	switch cfg.Burn.Provider {
	case "simulated":
		burn = providers.SimulatedBurn{BurnAddress: cfg.Burn.BurnAddress}
	case "live":
		burn = providers.LiveBurn{Signer: rt.signer, BurnAddress: cfg.Burn.BurnAddress}
	default:
		burn = providers.DisabledBurn{}
	}

	locks, err := runlock.NewManager(filepath.Join(cfg.DataDir(), "runlocks"))
	if err != nil {
		return nil, err
	}

	creditTypes := [2]string{cfg.Market.CreditTypes[0], cfg.Market.CreditTypes[1]}
	rt.runner = batch.NewRunner(batch.Config{
		FeeBps:              cfg.Fees.FeeBps,
		PaymentDenom:        cfg.Market.PaymentDenom,
		CreditTypes:         creditTypes,
		DefaultJurisdiction: cfg.Fees.DefaultJurisdiction,
		DefaultReason:       cfg.Fees.DefaultReason,
	}, rt.ledger, rt.executions, locks,
		allocator.NewSelector(market.NewFileProvider(cfg.OrdersFile())),
		rt.signer, buildConfirmer(cfg, rt.signer), acquisition, burn, metrics)

	return rt, nil
}

// buildConfirmer selects the confirmation service for the configured
// signer: bounded polling per the [confirm] section against any signer
// that can look up its own transactions, immediate confirmation otherwise
// (the unconfigured signer never broadcasts, so there is nothing to poll).
func buildConfirmer(cfg daemon.Config, sgn domain.SignerService) domain.ConfirmationService {
	if sim, ok := sgn.(*signer.Simulated); ok {
		return signer.Poller{
			Lookup:   sim.LookupTx,
			Attempts: cfg.Confirm.Attempts,
			Interval: cfg.ConfirmInterval(),
		}
	}
	return signer.ImmediateConfirmer{}
}
