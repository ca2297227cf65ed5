package fund

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// The fee and policy manager configs are opaque byte payloads the
// factory forwards to its sub-managers:
//
//	feeConfig    = abi.encode(address[] fees, bytes[] settings)
//	feeSettings  = abi.encode(uint256 rateBps, address recipient)
//	policyConfig = abi.encode(address[] policies, bytes[] settings)
//	policySet    = abi.encode(uint256[] listIds, bytes[] newListsData)
//
// An empty payload (zero bytes, "0x" on the wire) means no fees or no
// policies at all.

var (
	managerConfigArgs    abi.Arguments
	entranceSettingsArgs abi.Arguments
	policySettingsArgs   abi.Arguments
	payloadArgsOnce      sync.Once
	payloadArgsErr       error
)

func payloadArguments() error {
	payloadArgsOnce.Do(func() {
		addressSlice, err := abi.NewType("address[]", "", nil)
		if err != nil {
			payloadArgsErr = err
			return
		}
		bytesSlice, err := abi.NewType("bytes[]", "", nil)
		if err != nil {
			payloadArgsErr = err
			return
		}
		uint256Type, err := abi.NewType("uint256", "", nil)
		if err != nil {
			payloadArgsErr = err
			return
		}
		addressType, err := abi.NewType("address", "", nil)
		if err != nil {
			payloadArgsErr = err
			return
		}
		uint256Slice, err := abi.NewType("uint256[]", "", nil)
		if err != nil {
			payloadArgsErr = err
			return
		}

		managerConfigArgs = abi.Arguments{{Type: addressSlice}, {Type: bytesSlice}}
		entranceSettingsArgs = abi.Arguments{{Type: uint256Type}, {Type: addressType}}
		policySettingsArgs = abi.Arguments{{Type: uint256Slice}, {Type: bytesSlice}}
	})
	return payloadArgsErr
}

// BuildFeeConfig packs the fee manager payload. Empty unless the
// entrance fee is enabled; the recipient defaults to the connecting
// account when left blank.
func BuildFeeConfig(form *Form, feeAddress, account common.Address) ([]byte, error) {
	if !form.EntranceFee.Enabled {
		return []byte{}, nil
	}
	if err := payloadArguments(); err != nil {
		return nil, fmt.Errorf("payload abi types: %w", err)
	}

	rate, err := RateToBps(form.EntranceFee.Rate)
	if err != nil {
		return nil, err
	}
	recipient := form.EntranceFee.Recipient
	if recipient == (common.Address{}) {
		recipient = account
	}

	settings, err := entranceSettingsArgs.Pack(rate, recipient)
	if err != nil {
		return nil, fmt.Errorf("pack entrance fee settings: %w", err)
	}
	payload, err := managerConfigArgs.Pack([]common.Address{feeAddress}, [][]byte{settings})
	if err != nil {
		return nil, fmt.Errorf("pack fee config: %w", err)
	}
	return payload, nil
}

// BuildPolicyConfig packs the policy manager payload for a registered
// allow-list.
func BuildPolicyConfig(policyAddress common.Address, listID *big.Int) ([]byte, error) {
	if err := payloadArguments(); err != nil {
		return nil, fmt.Errorf("payload abi types: %w", err)
	}

	settings, err := policySettingsArgs.Pack([]*big.Int{listID}, [][]byte{})
	if err != nil {
		return nil, fmt.Errorf("pack policy settings: %w", err)
	}
	payload, err := managerConfigArgs.Pack([]common.Address{policyAddress}, [][]byte{settings})
	if err != nil {
		return nil, fmt.Errorf("pack policy config: %w", err)
	}
	return payload, nil
}
