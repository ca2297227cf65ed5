package vault

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/RonShih/onchainfund-platform/internal/chain"
	"github.com/RonShih/onchainfund-platform/internal/chainerr"
	"github.com/RonShih/onchainfund-platform/internal/contracts"
	"github.com/RonShih/onchainfund-platform/internal/model"
)

// TxSubmitter signs, sends, and waits for one transaction. Satisfied by
// *chain.Submitter.
type TxSubmitter interface {
	From() common.Address
	Submit(ctx context.Context, to common.Address, data []byte, opts chain.SubmitOpts) (*types.Receipt, error)
}

// Deposit slippage guard: the minimum acceptable share quantity is 99%
// of the expected issuance at the last observed share price.
const (
	depositSlippageNum = 99
	depositSlippageDen = 100
)

// Trader performs the deposit-side vault transactions for one account.
type Trader struct {
	submitter TxSubmitter
	logger    *zap.Logger
}

func NewTrader(submitter TxSubmitter, logger *zap.Logger) *Trader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trader{submitter: submitter, logger: logger}
}

// Approve grants the vault's comptroller an allowance of exactly amount
// of the denomination asset. When the snapshot already shows a
// sufficient allowance the call is skipped and (nil, nil) is returned.
func (t *Trader) Approve(ctx context.Context, info *model.VaultInfo, amount *big.Int) (*types.Receipt, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, chainerr.NewValidation("amount", "must be greater than zero")
	}
	if info.CallerAllowance != nil && info.CallerAllowance.Cmp(amount) >= 0 {
		t.logger.Info("existing allowance covers deposit, skipping approve",
			zap.String("allowance", info.CallerAllowance.String()),
			zap.String("amount", amount.String()))
		return nil, nil
	}

	erc20ABI, err := contracts.ERC20ABI()
	if err != nil {
		return nil, err
	}
	data, err := erc20ABI.Pack("approve", info.ComptrollerAddress, amount)
	if err != nil {
		return nil, fmt.Errorf("pack approve: %w", err)
	}
	receipt, err := t.submitter.Submit(ctx, info.DenominationAsset.Address, data, chain.SubmitOpts{})
	if err != nil {
		return receipt, chainerr.Classify(err)
	}
	t.logger.Info("allowance granted",
		zap.String("spender", info.ComptrollerAddress.Hex()),
		zap.String("amount", amount.String()),
		zap.String("tx", receipt.TxHash.Hex()))
	return receipt, nil
}

// Deposit buys vault shares for amount of the denomination asset. The
// minimum share quantity is derived from the snapshot's share price
// with the 1% slippage allowance, floored at one wei of shares so the
// on-chain zero-minimum check can never trip.
func (t *Trader) Deposit(ctx context.Context, info *model.VaultInfo, amount *big.Int) (*types.Receipt, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, chainerr.NewValidation("amount", "must be greater than zero")
	}
	if info.CallerDenomBalance != nil && info.CallerDenomBalance.Cmp(amount) < 0 {
		return nil, chainerr.NewValidation("amount", "exceeds %s balance", info.DenominationAsset.Symbol)
	}

	minShares := MinSharesFor(amount, info.ShareValue)

	comptrollerABI, err := contracts.ComptrollerABI()
	if err != nil {
		return nil, err
	}
	data, err := comptrollerABI.Pack("buyShares", amount, minShares)
	if err != nil {
		return nil, fmt.Errorf("pack buyShares: %w", err)
	}
	receipt, err := t.submitter.Submit(ctx, info.ComptrollerAddress, data, chain.SubmitOpts{})
	if err != nil {
		return receipt, chainerr.Classify(err)
	}
	t.logger.Info("shares purchased",
		zap.String("vault", info.VaultAddress.Hex()),
		zap.String("amount", amount.String()),
		zap.String("min_shares", minShares.String()),
		zap.String("tx", receipt.TxHash.Hex()))
	return receipt, nil
}

// Redeem redeems shares in kind, paying out the caller's proportional
// slice of every vault holding. No assets are skipped or added.
func (t *Trader) Redeem(ctx context.Context, info *model.VaultInfo, shares *big.Int) (*types.Receipt, error) {
	if shares == nil || shares.Sign() <= 0 {
		return nil, chainerr.NewValidation("shares", "must be greater than zero")
	}
	if info.CallerShareBalance != nil && info.CallerShareBalance.Cmp(shares) < 0 {
		return nil, chainerr.NewValidation("shares", "exceeds share balance")
	}

	comptrollerABI, err := contracts.ComptrollerABI()
	if err != nil {
		return nil, err
	}
	data, err := comptrollerABI.Pack("redeemSharesInKind",
		t.submitter.From(), shares, []common.Address{}, []common.Address{})
	if err != nil {
		return nil, fmt.Errorf("pack redeemSharesInKind: %w", err)
	}
	receipt, err := t.submitter.Submit(ctx, info.ComptrollerAddress, data, chain.SubmitOpts{})
	if err != nil {
		return receipt, chainerr.Classify(err)
	}
	t.logger.Info("shares redeemed",
		zap.String("vault", info.VaultAddress.Hex()),
		zap.String("shares", shares.String()),
		zap.String("tx", receipt.TxHash.Hex()))
	return receipt, nil
}

// MinSharesFor computes the slippage-guarded minimum share issuance for
// a deposit: floor(amount * 1e18 / sharePrice) * 99 / 100, never below
// one. A nil or zero share price falls back to the unit price.
func MinSharesFor(amount, sharePrice *big.Int) *big.Int {
	price := sharePrice
	if price == nil || price.Sign() == 0 {
		price = contracts.SharesUnit
	}
	expected := new(big.Int).Mul(amount, contracts.SharesUnit)
	expected.Div(expected, price)
	min := expected.Mul(expected, big.NewInt(depositSlippageNum))
	min.Div(min, big.NewInt(depositSlippageDen))
	if min.Sign() == 0 {
		return big.NewInt(1)
	}
	return min
}
