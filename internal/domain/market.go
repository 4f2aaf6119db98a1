package domain

import "time"

// ─── Marketplace Types ──────────────────────────────────────────────────────

// SellOrder is an open offer to sell a quantity of one credit batch.
// Quantities and prices are in micro units (see contribution.go).
type SellOrder struct {
	ID                string     `json:"id"`
	CreditType        string     `json:"credit_type"` // abbreviation, e.g. "C", "BT"
	BatchDenom        string     `json:"batch_denom"`
	Seller            string     `json:"seller,omitempty"`
	QuantityMicro     int64      `json:"quantity_micro"`
	UnitPriceMicro    int64      `json:"unit_price_micro"` // ask price per whole credit
	PaymentDenom      string     `json:"payment_denom"`
	DisableAutoRetire bool       `json:"disable_auto_retire"`
	Expiration        *time.Time `json:"expiration,omitempty"`
}

// Expired reports whether the order is past its expiration at time now.
func (o SellOrder) Expired(now time.Time) bool {
	return o.Expiration != nil && !o.Expiration.After(now)
}

// SelectedOrder is one filled slice of a sell order within a selection.
type SelectedOrder struct {
	SellOrderID    string `json:"sell_order_id"`
	BatchDenom     string `json:"batch_denom,omitempty"`
	QuantityMicro  int64  `json:"quantity_micro"`
	UnitPriceMicro int64  `json:"unit_price_micro"`
	CostMicro      int64  `json:"cost_micro"`
}

// BudgetOrderSelection is the result of filling a budget against the book.
// Invariants: TotalCostMicro == sum(Orders[i].CostMicro) and
// TotalCostMicro never exceeds the requested budget.
type BudgetOrderSelection struct {
	Orders             []SelectedOrder `json:"orders"`
	TotalQuantityMicro int64           `json:"total_quantity_micro"`
	TotalCostMicro     int64           `json:"total_cost_micro"`
	PaymentDenom       string          `json:"payment_denom"`
	ExhaustedBudget    bool            `json:"exhausted_budget"`
}

// Empty reports whether the selection filled nothing.
func (s BudgetOrderSelection) Empty() bool { return len(s.Orders) == 0 }

// RetirementTx is the purchase-and-retire transaction handed to the signer.
type RetirementTx struct {
	Orders       []SelectedOrder
	PaymentDenom string
	Jurisdiction string
	Reason       string
}

// BroadcastResult reports the outcome of a signed broadcast.
// Code zero means the transaction was accepted.
type BroadcastResult struct {
	Code   uint32 `json:"code"`
	TxHash string `json:"tx_hash"`
	Height int64  `json:"height,omitempty"`
	RawLog string `json:"raw_log,omitempty"`
}

// TxConfirmation is a best-effort on-chain confirmation of a broadcast.
type TxConfirmation struct {
	TxHash      string    `json:"tx_hash"`
	Height      int64     `json:"height"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}
