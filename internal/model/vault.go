package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenMeta describes an ERC-20 asset.
type TokenMeta struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name,omitempty"`
	Decimals uint8          `json:"decimals"`
}

// VaultInfo is a read-only snapshot of one deployed vault plus the
// caller's position in it. A fetch either produces a complete snapshot
// or none; partially filled snapshots are never handed out.
type VaultInfo struct {
	VaultAddress       common.Address `json:"vault_address"`
	ComptrollerAddress common.Address `json:"comptroller_address"`
	Name               string         `json:"name"`
	Symbol             string         `json:"symbol"`
	TotalSupply        *big.Int       `json:"total_supply"`
	DenominationAsset  TokenMeta      `json:"denomination_asset"`

	// GrossAssetValue and ShareValue are in the denomination asset's
	// smallest unit and 1e18 share-price units respectively. When the
	// on-chain calc reverts they hold the documented substitutes
	// (zero GAV, 1.0 share value) and Degraded is set.
	GrossAssetValue *big.Int `json:"gross_asset_value"`
	ShareValue      *big.Int `json:"share_value"`
	Degraded        bool     `json:"degraded,omitempty"`

	CallerShareBalance *big.Int `json:"caller_share_balance"`
	CallerDenomBalance *big.Int `json:"caller_denom_balance"`
	CallerAllowance    *big.Int `json:"caller_allowance"`

	// CustomGAV is the supplementary gross asset value recomputed from
	// pool reserves. Enrichment only; never required for a fetch.
	CustomGAV        Figure `json:"custom_gav"`
	CustomShareValue Figure `json:"custom_share_value"`
}

// FundRecord is one discovered fund from the factory's creation events,
// as persisted by the fund registry storage.
type FundRecord struct {
	ChainID            uint64 `json:"chain_id"`
	VaultAddress       string `json:"vault_address"`
	ComptrollerAddress string `json:"comptroller_address"`
	Creator            string `json:"creator"`
	Name               string `json:"name"`
	Symbol             string `json:"symbol"`
	DenomAsset         string `json:"denom_asset"`
	DenomSymbol        string `json:"denom_symbol"`
	TotalSupply        string `json:"total_supply"`
	BlockNumber        uint64 `json:"block_number"`
	TxHash             string `json:"tx_hash"`
}
