package model

import "github.com/shopspring/decimal"

// PoolReserves holds the two-asset reserve pair of a liquidity pool in
// human units, ordered as (base, quote) regardless of the pool's own
// token ordering. Recomputed before every quote.
type PoolReserves struct {
	ReserveBase  decimal.Decimal `json:"reserve_base"`
	ReserveQuote decimal.Decimal `json:"reserve_quote"`

	// Degraded marks reserves taken from the hardcoded fallback pair
	// instead of an on-chain query.
	Degraded bool   `json:"degraded,omitempty"`
	Reason   string `json:"reason,omitempty"`
}
