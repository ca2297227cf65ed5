package contracts

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestAsAddress(t *testing.T) {
	want := common.HexToAddress("0x932b08d5553b7431FB579cF27565c7Cd2d4b8fE0")

	got, err := AsAddress(want)
	if err != nil || got != want {
		t.Fatalf("AsAddress(value) = %v, %v", got, err)
	}
	got, err = AsAddress(&want)
	if err != nil || got != want {
		t.Fatalf("AsAddress(pointer) = %v, %v", got, err)
	}
	if _, err := AsAddress("0xnope"); err == nil {
		t.Fatalf("AsAddress(string) should fail")
	}
}

func TestAsBigInt(t *testing.T) {
	original := big.NewInt(42)
	got, err := AsBigInt(original)
	if err != nil || got.Int64() != 42 {
		t.Fatalf("AsBigInt(*big.Int) = %v, %v", got, err)
	}
	// The result must be a copy, not an alias.
	got.SetInt64(7)
	if original.Int64() != 42 {
		t.Fatalf("AsBigInt aliased its input")
	}

	for _, value := range []interface{}{uint8(3), uint16(3), uint32(3), uint64(3), int8(3), int16(3), int32(3), int64(3)} {
		got, err := AsBigInt(value)
		if err != nil || got.Int64() != 3 {
			t.Fatalf("AsBigInt(%T) = %v, %v", value, got, err)
		}
	}

	if _, err := AsBigInt("42"); err == nil {
		t.Fatalf("AsBigInt(string) should fail")
	}
}

func TestAsUint8(t *testing.T) {
	got, err := AsUint8(uint8(18))
	if err != nil || got != 18 {
		t.Fatalf("AsUint8(uint8) = %v, %v", got, err)
	}
	got, err = AsUint8(big.NewInt(6))
	if err != nil || got != 6 {
		t.Fatalf("AsUint8(*big.Int) = %v, %v", got, err)
	}
	if _, err := AsUint8("18"); err == nil {
		t.Fatalf("AsUint8(string) should fail")
	}
}

func TestAsString(t *testing.T) {
	got, err := AsString("ASVT")
	if err != nil || got != "ASVT" {
		t.Fatalf("AsString(string) = %q, %v", got, err)
	}

	var padded [32]byte
	copy(padded[:], "WETH")
	got, err = AsString(padded)
	if err != nil || got != "WETH" {
		t.Fatalf("AsString(bytes32) = %q, %v", got, err)
	}

	if _, err := AsString(77); err == nil {
		t.Fatalf("AsString(int) should fail")
	}
}

func TestSelectorLength(t *testing.T) {
	a := Selector("takeOrder(address,bytes,bytes)")
	b := Selector("transfer(address,uint256)")
	if a == b {
		t.Fatalf("distinct signatures produced identical selectors")
	}
	// transfer(address,uint256) has the well-known selector 0xa9059cbb.
	if b != [4]byte{0xa9, 0x05, 0x9c, 0xbb} {
		t.Fatalf("Selector(transfer) = %x", b)
	}
}

func TestABIAccessorsParse(t *testing.T) {
	if _, err := FundFactoryABI(); err != nil {
		t.Fatalf("factory abi: %v", err)
	}
	if _, err := VaultProxyABI(); err != nil {
		t.Fatalf("vault abi: %v", err)
	}
	if _, err := ComptrollerABI(); err != nil {
		t.Fatalf("comptroller abi: %v", err)
	}
	if _, err := ERC20ABI(); err != nil {
		t.Fatalf("erc20 abi: %v", err)
	}
	if _, err := AddressListRegistryABI(); err != nil {
		t.Fatalf("registry abi: %v", err)
	}
	if _, err := PairABI(); err != nil {
		t.Fatalf("pair abi: %v", err)
	}
}
