package swap

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/RonShih/onchainfund-platform/internal/chain"
	"github.com/RonShih/onchainfund-platform/internal/chainerr"
	"github.com/RonShih/onchainfund-platform/internal/contracts"
)

// TxSubmitter signs, sends, and waits for one transaction. Satisfied by
// *chain.Submitter.
type TxSubmitter interface {
	From() common.Address
	Submit(ctx context.Context, to common.Address, data []byte, opts chain.SubmitOpts) (*types.Receipt, error)
}

// callOnIntegrationAction is the integration manager's action id for
// routing a call to an exchange adapter.
var callOnIntegrationAction = big.NewInt(0)

// tradeGasLimit is the fixed gas limit for callOnExtension orders.
// Estimation is skipped because the nested adapter call makes estimates
// unreliable on some providers.
const tradeGasLimit = 500000

var (
	orderArgsOnce sync.Once
	orderDataArgs abi.Arguments
	callArgsArgs  abi.Arguments
	orderArgsErr  error
)

func tradeArgs() (abi.Arguments, abi.Arguments, error) {
	orderArgsOnce.Do(func() {
		addressSliceTy, err := abi.NewType("address[]", "", nil)
		if err != nil {
			orderArgsErr = err
			return
		}
		uint256Ty, err := abi.NewType("uint256", "", nil)
		if err != nil {
			orderArgsErr = err
			return
		}
		addressTy, err := abi.NewType("address", "", nil)
		if err != nil {
			orderArgsErr = err
			return
		}
		bytes4Ty, err := abi.NewType("bytes4", "", nil)
		if err != nil {
			orderArgsErr = err
			return
		}
		bytesTy, err := abi.NewType("bytes", "", nil)
		if err != nil {
			orderArgsErr = err
			return
		}
		orderDataArgs = abi.Arguments{
			{Name: "path", Type: addressSliceTy},
			{Name: "outgoingAssetAmount", Type: uint256Ty},
			{Name: "minIncomingAssetAmount", Type: uint256Ty},
		}
		callArgsArgs = abi.Arguments{
			{Name: "adapter", Type: addressTy},
			{Name: "selector", Type: bytes4Ty},
			{Name: "integrationData", Type: bytesTy},
		}
	})
	return orderDataArgs, callArgsArgs, orderArgsErr
}

// Order is one swap to be executed through the vault's integration
// manager. Amounts are in each asset's smallest unit.
type Order struct {
	Comptroller common.Address
	Path        []common.Address
	AmountIn    *big.Int
	MinOut      *big.Int
}

// Trader routes swap orders through the integration manager's Uniswap
// v2 exchange adapter on behalf of a vault.
type Trader struct {
	submitter          TxSubmitter
	integrationManager common.Address
	adapter            common.Address
	logger             *zap.Logger
}

func NewTrader(submitter TxSubmitter, integrationManager, adapter common.Address, logger *zap.Logger) *Trader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trader{
		submitter:          submitter,
		integrationManager: integrationManager,
		adapter:            adapter,
		logger:             logger,
	}
}

// Execute submits the order as a callOnExtension transaction against
// the vault's comptroller and returns the mined receipt.
func (t *Trader) Execute(ctx context.Context, order Order) (*types.Receipt, error) {
	if len(order.Path) < 2 {
		return nil, chainerr.NewValidation("path", "needs at least two hops")
	}
	if order.AmountIn == nil || order.AmountIn.Sign() <= 0 {
		return nil, chainerr.NewValidation("amount", "must be greater than zero")
	}
	if order.MinOut == nil || order.MinOut.Sign() < 0 {
		return nil, chainerr.NewValidation("min_out", "must not be negative")
	}

	data, err := t.packOrder(order)
	if err != nil {
		return nil, err
	}
	receipt, err := t.submitter.Submit(ctx, order.Comptroller, data, chain.SubmitOpts{GasLimit: tradeGasLimit})
	if err != nil {
		return receipt, chainerr.Classify(err)
	}
	t.logger.Info("swap order executed",
		zap.String("comptroller", order.Comptroller.Hex()),
		zap.String("amount_in", order.AmountIn.String()),
		zap.String("min_out", order.MinOut.String()),
		zap.String("tx", receipt.TxHash.Hex()))
	return receipt, nil
}

func (t *Trader) packOrder(order Order) ([]byte, error) {
	orderData, callData, err := tradeArgs()
	if err != nil {
		return nil, err
	}
	integrationData, err := orderData.Pack(order.Path, order.AmountIn, order.MinOut)
	if err != nil {
		return nil, fmt.Errorf("pack integration data: %w", err)
	}
	selector := contracts.Selector(contracts.TakeOrderSignature)
	callArgs, err := callData.Pack(t.adapter, selector, integrationData)
	if err != nil {
		return nil, fmt.Errorf("pack call args: %w", err)
	}
	comptrollerABI, err := contracts.ComptrollerABI()
	if err != nil {
		return nil, err
	}
	data, err := comptrollerABI.Pack("callOnExtension", t.integrationManager, callOnIntegrationAction, callArgs)
	if err != nil {
		return nil, fmt.Errorf("pack callOnExtension: %w", err)
	}
	return data, nil
}
