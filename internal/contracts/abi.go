package contracts

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

const fundFactoryABIJSON = `[
  {"inputs": [
    {"name": "_fundOwner", "type": "address"},
    {"name": "_fundName", "type": "string"},
    {"name": "_fundSymbol", "type": "string"},
    {"name": "_denominationAsset", "type": "address"},
    {"name": "_sharesActionTimelock", "type": "uint256"},
    {"name": "_feeManagerConfigData", "type": "bytes"},
    {"name": "_policyManagerConfigData", "type": "bytes"}
  ], "name": "createNewFund", "outputs": [
    {"name": "comptrollerProxy_", "type": "address"},
    {"name": "vaultProxy_", "type": "address"}
  ], "stateMutability": "nonpayable", "type": "function"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "creator", "type": "address"},
    {"indexed": false, "name": "vaultProxy", "type": "address"},
    {"indexed": false, "name": "comptrollerProxy", "type": "address"}
  ], "name": "NewFundCreated", "type": "event"}
]`

const vaultProxyABIJSON = `[
  {"inputs": [], "name": "getAccessor", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "totalSupply", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

const comptrollerABIJSON = `[
  {"inputs": [], "name": "calcGav", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "calcGrossShareValue", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "getDenominationAsset", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [
    {"name": "_investmentAmount", "type": "uint256"},
    {"name": "_minSharesQuantity", "type": "uint256"}
  ], "name": "buyShares", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [
    {"name": "_recipient", "type": "address"},
    {"name": "_sharesQuantity", "type": "uint256"},
    {"name": "_additionalAssets", "type": "address[]"},
    {"name": "_assetsToSkip", "type": "address[]"}
  ], "name": "redeemSharesInKind", "outputs": [], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [
    {"name": "_extension", "type": "address"},
    {"name": "_actionId", "type": "uint256"},
    {"name": "_callArgs", "type": "bytes"}
  ], "name": "callOnExtension", "outputs": [], "stateMutability": "nonpayable", "type": "function"}
]`

const erc20ABIJSON = `[
  {"inputs": [], "name": "name", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "symbol", "outputs": [{"type": "string"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"},
  {"inputs": [{"name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [
    {"name": "owner", "type": "address"},
    {"name": "spender", "type": "address"}
  ], "name": "allowance", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [
    {"name": "spender", "type": "address"},
    {"name": "amount", "type": "uint256"}
  ], "name": "approve", "outputs": [{"type": "bool"}], "stateMutability": "nonpayable", "type": "function"},
  {"inputs": [
    {"name": "to", "type": "address"},
    {"name": "amount", "type": "uint256"}
  ], "name": "transfer", "outputs": [{"type": "bool"}], "stateMutability": "nonpayable", "type": "function"}
]`

const addressListRegistryABIJSON = `[
  {"inputs": [
    {"name": "_owner", "type": "address"},
    {"name": "_updateType", "type": "uint8"},
    {"name": "_initialItems", "type": "address[]"}
  ], "name": "createList", "outputs": [{"name": "id_", "type": "uint256"}], "stateMutability": "nonpayable", "type": "function"},
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "creator", "type": "address"},
    {"indexed": true, "name": "owner", "type": "address"},
    {"indexed": false, "name": "id", "type": "uint256"},
    {"indexed": false, "name": "updateType", "type": "uint8"}
  ], "name": "ListCreated", "type": "event"}
]`

const pairABIJSON = `[
  {"inputs": [], "name": "getReserves", "outputs": [
    {"name": "reserve0", "type": "uint112"},
    {"name": "reserve1", "type": "uint112"},
    {"name": "blockTimestampLast", "type": "uint32"}
  ], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "token0", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "token1", "outputs": [{"type": "address"}], "stateMutability": "view", "type": "function"}
]`

var (
	fundFactoryABI   abi.ABI
	fundFactoryOnce  sync.Once
	fundFactoryErr   error
	vaultProxyABI    abi.ABI
	vaultProxyOnce   sync.Once
	vaultProxyErr    error
	comptrollerABI   abi.ABI
	comptrollerOnce  sync.Once
	comptrollerErr   error
	erc20ABI         abi.ABI
	erc20Once        sync.Once
	erc20Err         error
	listRegistryABI  abi.ABI
	listRegistryOnce sync.Once
	listRegistryErr  error
	pairABI          abi.ABI
	pairOnce         sync.Once
	pairErr          error
)

// FundFactoryABI returns the parsed fund factory ABI.
func FundFactoryABI() (abi.ABI, error) {
	fundFactoryOnce.Do(func() {
		fundFactoryABI, fundFactoryErr = abi.JSON(strings.NewReader(fundFactoryABIJSON))
	})
	return fundFactoryABI, fundFactoryErr
}

// VaultProxyABI returns the parsed vault proxy ABI.
func VaultProxyABI() (abi.ABI, error) {
	vaultProxyOnce.Do(func() {
		vaultProxyABI, vaultProxyErr = abi.JSON(strings.NewReader(vaultProxyABIJSON))
	})
	return vaultProxyABI, vaultProxyErr
}

// ComptrollerABI returns the parsed comptroller ABI.
func ComptrollerABI() (abi.ABI, error) {
	comptrollerOnce.Do(func() {
		comptrollerABI, comptrollerErr = abi.JSON(strings.NewReader(comptrollerABIJSON))
	})
	return comptrollerABI, comptrollerErr
}

// ERC20ABI returns the parsed ERC-20 ABI.
func ERC20ABI() (abi.ABI, error) {
	erc20Once.Do(func() {
		erc20ABI, erc20Err = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	return erc20ABI, erc20Err
}

// AddressListRegistryABI returns the parsed address list registry ABI.
func AddressListRegistryABI() (abi.ABI, error) {
	listRegistryOnce.Do(func() {
		listRegistryABI, listRegistryErr = abi.JSON(strings.NewReader(addressListRegistryABIJSON))
	})
	return listRegistryABI, listRegistryErr
}

// PairABI returns the parsed V2 pair ABI.
func PairABI() (abi.ABI, error) {
	pairOnce.Do(func() {
		pairABI, pairErr = abi.JSON(strings.NewReader(pairABIJSON))
	})
	return pairABI, pairErr
}

// Selector returns the 4-byte function selector for a canonical
// signature such as "takeOrder(address,bytes,bytes)".
func Selector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(signature))[:4])
	return sel
}
