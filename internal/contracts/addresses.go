// Package contracts holds the ABI surface and the Sepolia deployment
// addresses of the fund platform contracts. Everything here is
// overridable through configuration; the constants are the known test
// deployment.
package contracts

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Sepolia test network parameters.
const (
	SepoliaChainID     = 11155111
	SepoliaChainName   = "Sepolia Testnet"
	SepoliaExplorerURL = "https://sepolia.etherscan.io"
)

// Deployment addresses on Sepolia.
var (
	FundFactoryAddress           = common.HexToAddress("0x9D2C19a267caDA33da70d74aaBF9d2f75D3CdC14")
	EntranceRateDirectFeeAddress = common.HexToAddress("0xA7259E45c7Be47a5bED94EDc252FADB09769a326")
	AllowedDepositRecipientsAddr = common.HexToAddress("0x0eD7E38C4535989e392843884326925B4469EB5A")
	AddressListRegistryAddress   = common.HexToAddress("0x1c6a1a0a205e0e2bd4ac30a10e1a0cbe9ddb46b1")
	IntegrationManagerAddress    = common.HexToAddress("0x3db3c0a2d14b4297f5f3629c8c8a8ef9e0f7a42b")
	UniswapV2ExchangeAdapterAddr = common.HexToAddress("0x8481a6ebaf5c7dabc3f7e09e44a89bf131bf9942")
	ASVTWETHPoolAddress          = common.HexToAddress("0x9dA90247B544fF9103C5B3909dE1B87c4487ae46")
)

// Known token addresses on Sepolia.
var (
	ASVTAddress = common.HexToAddress("0x932b08d5553b7431FB579cF27565c7Cd2d4b8fE0")
	USDCAddress = common.HexToAddress("0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238")
	WETHAddress = common.HexToAddress("0xfFf9976782d46CC05630D1f6eBAb18b2324d6B14")
)

// DenominationAsset is one selectable pricing asset.
type DenominationAsset struct {
	Symbol   string
	Name     string
	Address  common.Address
	Decimals uint8
}

// DenominationAssets lists the assets a new vault may be denominated in.
// ASVT is the default.
var DenominationAssets = []DenominationAsset{
	{Symbol: "ASVT", Name: "ASVT Token", Address: ASVTAddress, Decimals: 18},
	{Symbol: "USDC", Name: "USD Coin", Address: USDCAddress, Decimals: 6},
	{Symbol: "WETH", Name: "Wrapped Ether", Address: WETHAddress, Decimals: 18},
}

// DefaultDenominationAsset is the pre-selected denomination asset.
var DefaultDenominationAsset = ASVTAddress

// TakeOrderSignature is the adapter method routed through the
// integration manager for swaps.
const TakeOrderSignature = "takeOrder(address,bytes,bytes)"

// SharesDecimals is the fixed decimal count of vault share tokens.
const SharesDecimals = 18

// SharesUnit is 10^18, the smallest-unit scale of share amounts and
// share prices.
var SharesUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// ExplorerAddressURL builds a block-explorer link for an address.
func ExplorerAddressURL(addr common.Address) string {
	return fmt.Sprintf("%s/address/%s", SepoliaExplorerURL, addr.Hex())
}

// ExplorerTxURL builds a block-explorer link for a transaction hash.
func ExplorerTxURL(txHash common.Hash) string {
	return fmt.Sprintf("%s/tx/%s", SepoliaExplorerURL, txHash.Hex())
}
