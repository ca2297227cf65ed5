// Package fund implements the vault creation flow: the multi-step
// form, the fee/policy configuration payloads, and the factory
// submission.
package fund

import (
	"math"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/RonShih/onchainfund-platform/internal/chainerr"
	"github.com/RonShih/onchainfund-platform/internal/contracts"
)

// bpsBase is the contract's fixed-point fee basis: 1% = 100 parts per
// 10000.
const bpsBase = 10000

// FeeSetting is one optional percentage fee.
type FeeSetting struct {
	Enabled bool
	Rate    float64 // percent
}

// EntranceFee is the deposit fee with an optional recipient override.
type EntranceFee struct {
	Enabled   bool
	Rate      float64        // percent
	Recipient common.Address // zero means the connecting account
}

// Whitelist restricts deposits to a fixed address list. Addresses are
// held in checksummed form and de-duplicated on entry.
type Whitelist struct {
	Enabled   bool
	Addresses []common.Address
}

// Add parses, checksums, and appends one address, rejecting malformed
// input and duplicates regardless of casing.
func (w *Whitelist) Add(raw string) error {
	if !common.IsHexAddress(raw) {
		return chainerr.NewValidation("whitelist", "malformed address %q", raw)
	}
	addr := common.HexToAddress(raw)
	for _, existing := range w.Addresses {
		if existing == addr {
			return chainerr.NewValidation("whitelist", "duplicate address %s", addr.Hex())
		}
	}
	w.Addresses = append(w.Addresses, addr)
	return nil
}

// Checksummed returns the EIP-55 form of every whitelist entry.
func (w *Whitelist) Checksummed() []string {
	out := make([]string, 0, len(w.Addresses))
	for _, addr := range w.Addresses {
		out = append(out, addr.Hex())
	}
	return out
}

// Form collects the vault parameters over the wizard's lifetime and is
// consumed once at submission.
type Form struct {
	Name              string
	Symbol            string
	DenominationAsset common.Address
	ShareLockupHours  uint64

	ManagementFee  FeeSetting
	PerformanceFee FeeSetting
	EntranceFee    EntranceFee
	ExitFeeEnabled bool

	Whitelist Whitelist
}

// DefaultForm mirrors the dashboard defaults: 24h lock-up, 1%
// management and 10% performance fee enabled, entrance fee prepared but
// disabled with the connecting account as recipient.
func DefaultForm(account common.Address) Form {
	return Form{
		DenominationAsset: contracts.DefaultDenominationAsset,
		ShareLockupHours:  24,
		ManagementFee:     FeeSetting{Enabled: true, Rate: 1},
		PerformanceFee:    FeeSetting{Enabled: true, Rate: 10},
		EntranceFee:       EntranceFee{Enabled: false, Rate: 1, Recipient: account},
	}
}

// Validate checks the terminal-submission invariants. Navigation between
// steps is free; only submission validates.
func (f *Form) Validate() error {
	if f.Name == "" {
		return chainerr.NewValidation("name", "fund name is required")
	}
	if f.Symbol == "" {
		return chainerr.NewValidation("symbol", "fund symbol is required")
	}
	if f.DenominationAsset == (common.Address{}) {
		return chainerr.NewValidation("denomination-asset", "denomination asset address is required")
	}
	if _, err := RateToBps(f.EntranceFee.Rate); f.EntranceFee.Enabled && err != nil {
		return err
	}
	if _, err := RateToBps(f.ManagementFee.Rate); f.ManagementFee.Enabled && err != nil {
		return err
	}
	if _, err := RateToBps(f.PerformanceFee.Rate); f.PerformanceFee.Enabled && err != nil {
		return err
	}
	return nil
}

// LockupSeconds converts the lock-up period to the contract's seconds
// unit.
func (f *Form) LockupSeconds() *big.Int {
	return new(big.Int).SetUint64(f.ShareLockupHours * 3600)
}

// RateToBps maps a percentage to the contract's parts-per-10000 basis:
// 1% becomes 100.
func RateToBps(percent float64) (*big.Int, error) {
	bps := int64(math.Floor(percent * 100))
	if bps < 0 || bps > bpsBase {
		return nil, chainerr.NewValidation("rate", "fee rate %v%% out of range", percent)
	}
	return big.NewInt(bps), nil
}
