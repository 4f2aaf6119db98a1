// Package allocator plans credit purchases: a price-ordered greedy selector
// fills a budget against the open sell-order book, and the balanced mix
// policy splits a budget across credit types by probing prices.
//
// All arithmetic is integer micro units; intermediate products go through
// big.Int so no quantity-times-price can overflow, and costs round up so a
// selection never undercharges.
package allocator

import (
	"context"
	"math/big"
	"sort"
	"time"

	"github.com/ecopool-network/ecopool/internal/domain"
)

// Selector fills budgets against the live sell-order book.
type Selector struct {
	market domain.MarketDataService
	now    func() time.Time
}

// NewSelector creates a Selector over the given market data source.
func NewSelector(market domain.MarketDataService) *Selector {
	return &Selector{market: market, now: time.Now}
}

// SetNow overrides the clock used for expiry checks (test hook).
func (s *Selector) SetNow(now func() time.Time) { s.now = now }

// SelectOrdersForBudget greedily fills budgetMicro against eligible sell
// orders, cheapest first. Eligible means auto-retire is allowed, the price
// denom matches, the order is unexpired, and (when creditType is non-empty)
// the credit-type abbreviation matches.
//
// Zero matches is not an error: the result is an empty selection.
func (s *Selector) SelectOrdersForBudget(ctx context.Context, creditType string, budgetMicro int64, paymentDenom string) (domain.BudgetOrderSelection, error) {
	sel := domain.BudgetOrderSelection{PaymentDenom: paymentDenom}
	if budgetMicro <= 0 {
		return sel, nil
	}

	book, err := s.market.OpenSellOrders(ctx)
	if err != nil {
		return sel, err
	}

	now := s.now()
	eligible := make([]domain.SellOrder, 0, len(book))
	for _, o := range book {
		if o.DisableAutoRetire {
			continue
		}
		if o.PaymentDenom != paymentDenom {
			continue
		}
		if o.Expired(now) {
			continue
		}
		if creditType != "" && o.CreditType != creditType {
			continue
		}
		if o.QuantityMicro <= 0 || o.UnitPriceMicro <= 0 {
			continue
		}
		eligible = append(eligible, o)
	}

	// Cheapest first; stable sort preserves encounter order on price ties.
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].UnitPriceMicro < eligible[j].UnitPriceMicro
	})

	remaining := budgetMicro
	for _, o := range eligible {
		affordable := affordableQuantity(remaining, o.UnitPriceMicro)
		if affordable == 0 {
			// Cannot buy a single micro-credit at this price, and every
			// later order costs at least as much.
			sel.ExhaustedBudget = true
			break
		}

		take := affordable
		if o.QuantityMicro < take {
			take = o.QuantityMicro
		}
		cost := ceilCost(take, o.UnitPriceMicro)

		sel.Orders = append(sel.Orders, domain.SelectedOrder{
			SellOrderID:    o.ID,
			BatchDenom:     o.BatchDenom,
			QuantityMicro:  take,
			UnitPriceMicro: o.UnitPriceMicro,
			CostMicro:      cost,
		})
		sel.TotalQuantityMicro += take
		sel.TotalCostMicro += cost
		remaining -= cost

		if take < o.QuantityMicro || remaining == 0 {
			sel.ExhaustedBudget = true
			break
		}
	}
	return sel, nil
}

// affordableQuantity returns the largest micro-credit quantity whose
// ceiling-rounded cost fits in budgetMicro at unitPriceMicro per credit.
func affordableQuantity(budgetMicro, unitPriceMicro int64) int64 {
	q := new(big.Int).Mul(big.NewInt(budgetMicro), big.NewInt(domain.MicroPerUnit))
	q.Quo(q, big.NewInt(unitPriceMicro))
	if !q.IsInt64() {
		// Budget covers more micro-credits than int64 can hold; callers
		// are bounded by order quantities long before this point.
		return 1<<63 - 1
	}
	return q.Int64()
}

// ceilCost computes quantityMicro * unitPriceMicro / MicroPerUnit, rounded
// up. Rounding up keeps the charge conservative.
func ceilCost(quantityMicro, unitPriceMicro int64) int64 {
	prod := new(big.Int).Mul(big.NewInt(quantityMicro), big.NewInt(unitPriceMicro))
	unit := big.NewInt(domain.MicroPerUnit)
	q, r := new(big.Int).QuoRem(prod, unit, new(big.Int))
	if r.Sign() != 0 {
		q.Add(q, big.NewInt(1))
	}
	return q.Int64()
}
