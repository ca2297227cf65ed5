package vault

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RonShih/onchainfund-platform/internal/chain"
	"github.com/RonShih/onchainfund-platform/internal/chainerr"
	"github.com/RonShih/onchainfund-platform/internal/contracts"
	"github.com/RonShih/onchainfund-platform/internal/model"
)

type fakeSubmitter struct {
	from    common.Address
	err     error
	lastTo  common.Address
	lastTx  []byte
	submits int
}

func (f *fakeSubmitter) From() common.Address { return f.from }

func (f *fakeSubmitter) Submit(_ context.Context, to common.Address, data []byte, _ chain.SubmitOpts) (*types.Receipt, error) {
	f.submits++
	f.lastTo = to
	f.lastTx = data
	if f.err != nil {
		return nil, f.err
	}
	return &types.Receipt{TxHash: common.HexToHash("0xbeef")}, nil
}

func snapshot() *model.VaultInfo {
	return &model.VaultInfo{
		VaultAddress:       testVault,
		ComptrollerAddress: testComptroller,
		DenominationAsset: model.TokenMeta{
			Address:  testDenom,
			Symbol:   "ASVT",
			Decimals: 18,
		},
		ShareValue:         big.NewInt(2e18),
		CallerShareBalance: scaled(10),
		CallerDenomBalance: scaled(100),
		CallerAllowance:    scaled(50),
	}
}

func TestMinSharesFor(t *testing.T) {
	// 100 units at share price 2.0 expects 50 shares, less 1% slippage.
	got := MinSharesFor(scaled(100), big.NewInt(2e18))
	want := new(big.Int).Mul(big.NewInt(495), new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil))
	assert.Equal(t, 0, got.Cmp(want), "got %s want %s", got, want)

	// Unit share price passes the amount through at 99%.
	got = MinSharesFor(scaled(1), contracts.SharesUnit)
	want = new(big.Int).Mul(big.NewInt(99), new(big.Int).Exp(big.NewInt(10), big.NewInt(16), nil))
	assert.Equal(t, 0, got.Cmp(want))

	// Tiny deposits floor at one wei of shares instead of zero.
	assert.Equal(t, int64(1), MinSharesFor(big.NewInt(1), contracts.SharesUnit).Int64())

	// Nil and zero share prices fall back to the unit price.
	assert.Equal(t, 0, MinSharesFor(scaled(1), nil).Cmp(want))
	assert.Equal(t, 0, MinSharesFor(scaled(1), big.NewInt(0)).Cmp(want))
}

func scaled(units int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(units), contracts.SharesUnit)
}

func TestApproveSkipsWhenCovered(t *testing.T) {
	submitter := &fakeSubmitter{from: testCaller}
	trader := NewTrader(submitter, nil)

	receipt, err := trader.Approve(context.Background(), snapshot(), scaled(50))
	require.NoError(t, err)
	assert.Nil(t, receipt, "sufficient allowance must short-circuit")
	assert.Zero(t, submitter.submits)
}

func TestApproveSubmitsExactAmount(t *testing.T) {
	submitter := &fakeSubmitter{from: testCaller}
	trader := NewTrader(submitter, nil)

	amount := scaled(60)
	receipt, err := trader.Approve(context.Background(), snapshot(), amount)
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, testDenom, submitter.lastTo, "approve goes to the denomination asset")

	erc20ABI, err := contracts.ERC20ABI()
	require.NoError(t, err)
	values, err := erc20ABI.Methods["approve"].Inputs.Unpack(submitter.lastTx[4:])
	require.NoError(t, err)
	assert.Equal(t, testComptroller, values[0].(common.Address))
	assert.Equal(t, 0, amount.Cmp(values[1].(*big.Int)), "the exact amount is approved, never unlimited")
}

func TestApproveRejectsNonPositiveAmount(t *testing.T) {
	trader := NewTrader(&fakeSubmitter{from: testCaller}, nil)

	_, err := trader.Approve(context.Background(), snapshot(), big.NewInt(0))
	require.Error(t, err)
	assert.True(t, chainerr.IsValidation(err))

	_, err = trader.Approve(context.Background(), snapshot(), nil)
	require.Error(t, err)
}

func TestDepositPacksMinShares(t *testing.T) {
	submitter := &fakeSubmitter{from: testCaller}
	trader := NewTrader(submitter, nil)

	amount := scaled(10)
	receipt, err := trader.Deposit(context.Background(), snapshot(), amount)
	require.NoError(t, err)
	require.NotNil(t, receipt)
	assert.Equal(t, testComptroller, submitter.lastTo)

	comptrollerABI, err := contracts.ComptrollerABI()
	require.NoError(t, err)
	values, err := comptrollerABI.Methods["buyShares"].Inputs.Unpack(submitter.lastTx[4:])
	require.NoError(t, err)
	assert.Equal(t, 0, amount.Cmp(values[0].(*big.Int)))
	assert.Equal(t, 0, MinSharesFor(amount, big.NewInt(2e18)).Cmp(values[1].(*big.Int)))
}

func TestDepositRejectsOverBalance(t *testing.T) {
	submitter := &fakeSubmitter{from: testCaller}
	trader := NewTrader(submitter, nil)

	_, err := trader.Deposit(context.Background(), snapshot(), scaled(101))
	require.Error(t, err)
	assert.True(t, chainerr.IsValidation(err))
	assert.Zero(t, submitter.submits)
}

func TestDepositClassifiesRevert(t *testing.T) {
	submitter := &fakeSubmitter{
		from: testCaller,
		err:  errors.New("execution reverted: ERC20: insufficient allowance"),
	}
	trader := NewTrader(submitter, nil)

	_, err := trader.Deposit(context.Background(), snapshot(), scaled(10))
	require.Error(t, err)

	var rejected *chainerr.ChainRejected
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, chainerr.CategoryInsufficientAllowance, rejected.Category)
}

func TestRedeemPacksInKindArgs(t *testing.T) {
	submitter := &fakeSubmitter{from: testCaller}
	trader := NewTrader(submitter, nil)

	shares := scaled(3)
	receipt, err := trader.Redeem(context.Background(), snapshot(), shares)
	require.NoError(t, err)
	require.NotNil(t, receipt)

	comptrollerABI, err := contracts.ComptrollerABI()
	require.NoError(t, err)
	values, err := comptrollerABI.Methods["redeemSharesInKind"].Inputs.Unpack(submitter.lastTx[4:])
	require.NoError(t, err)
	assert.Equal(t, testCaller, values[0].(common.Address), "payouts go to the caller")
	assert.Equal(t, 0, shares.Cmp(values[1].(*big.Int)))
	assert.Empty(t, values[2].([]common.Address))
	assert.Empty(t, values[3].([]common.Address))
}

func TestRedeemRejectsOverBalance(t *testing.T) {
	submitter := &fakeSubmitter{from: testCaller}
	trader := NewTrader(submitter, nil)

	_, err := trader.Redeem(context.Background(), snapshot(), scaled(11))
	require.Error(t, err)
	assert.True(t, chainerr.IsValidation(err))
	assert.Zero(t, submitter.submits)
}
