package vault

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RonShih/onchainfund-platform/internal/model"
)

type fakeReserves struct {
	reserves model.PoolReserves
}

func (f *fakeReserves) Reserves(_ context.Context) model.PoolReserves {
	return f.reserves
}

func TestEnrichComputesPoolPricedGAV(t *testing.T) {
	baseToken := testDenom
	quoteToken := testCaller // any distinct address works as the quote token

	reader := &fakeReader{
		values: map[string][]interface{}{
			callKey(baseToken, "balanceOf"):  {scaled(200)},
			callKey(baseToken, "decimals"):   {uint8(18)},
			callKey(quoteToken, "balanceOf"): {new(big.Int).SetUint64(1e15)}, // 0.001
			callKey(quoteToken, "decimals"):  {uint8(18)},
		},
		errs: map[string]error{},
	}
	reserves := &fakeReserves{reserves: model.PoolReserves{
		ReserveBase:  decimal.NewFromInt(5000),
		ReserveQuote: decimal.RequireFromString("0.005"),
	}}
	enricher := NewPoolEnricher(reader, reserves, baseToken, quoteToken, nil)

	info := &model.VaultInfo{
		VaultAddress: testVault,
		TotalSupply:  scaled(600),
	}
	enricher.Enrich(context.Background(), info)

	require.Equal(t, model.FigureOK, info.CustomGAV.Status)
	// 200 base + 0.001 quote at 1,000,000 base per quote = 1200.
	assert.True(t, info.CustomGAV.Value.Equal(decimal.NewFromInt(1200)), "got %s", info.CustomGAV.Value)
	require.Equal(t, model.FigureOK, info.CustomShareValue.Status)
	assert.True(t, info.CustomShareValue.Value.Equal(decimal.NewFromInt(2)), "got %s", info.CustomShareValue.Value)
}

func TestEnrichMarksDegradedReserves(t *testing.T) {
	baseToken := testDenom
	quoteToken := testCaller

	reader := &fakeReader{
		values: map[string][]interface{}{
			callKey(baseToken, "balanceOf"):  {scaled(10)},
			callKey(baseToken, "decimals"):   {uint8(18)},
			callKey(quoteToken, "balanceOf"): {big.NewInt(0)},
			callKey(quoteToken, "decimals"):  {uint8(18)},
		},
		errs: map[string]error{},
	}
	reserves := &fakeReserves{reserves: model.PoolReserves{
		ReserveBase:  decimal.NewFromInt(5000),
		ReserveQuote: decimal.RequireFromString("0.006"),
		Degraded:     true,
		Reason:       "pair reserves unavailable",
	}}
	enricher := NewPoolEnricher(reader, reserves, baseToken, quoteToken, nil)

	info := &model.VaultInfo{VaultAddress: testVault, TotalSupply: scaled(10)}
	enricher.Enrich(context.Background(), info)

	assert.Equal(t, model.FigureDegraded, info.CustomGAV.Status)
	assert.Equal(t, "pair reserves unavailable", info.CustomGAV.Reason)
}

func TestEnrichUnavailableOnReadFailure(t *testing.T) {
	baseToken := testDenom
	quoteToken := testCaller

	reader := &fakeReader{
		values: map[string][]interface{}{},
		errs: map[string]error{
			callKey(baseToken, "balanceOf"): errors.New("rpc timeout"),
		},
	}
	reserves := &fakeReserves{reserves: model.PoolReserves{
		ReserveBase:  decimal.NewFromInt(5000),
		ReserveQuote: decimal.RequireFromString("0.006"),
	}}
	enricher := NewPoolEnricher(reader, reserves, baseToken, quoteToken, nil)

	info := &model.VaultInfo{VaultAddress: testVault}
	enricher.Enrich(context.Background(), info)

	assert.Equal(t, model.FigureUnavailable, info.CustomGAV.Status)
	assert.Equal(t, model.FigureUnavailable, info.CustomShareValue.Status)
}

func TestEnrichZeroSupplyFallsBackToUnitShare(t *testing.T) {
	baseToken := testDenom
	quoteToken := testCaller

	reader := &fakeReader{
		values: map[string][]interface{}{
			callKey(baseToken, "balanceOf"):  {scaled(5)},
			callKey(baseToken, "decimals"):   {uint8(18)},
			callKey(quoteToken, "balanceOf"): {big.NewInt(0)},
			callKey(quoteToken, "decimals"):  {uint8(18)},
		},
		errs: map[string]error{},
	}
	reserves := &fakeReserves{reserves: model.PoolReserves{
		ReserveBase:  decimal.NewFromInt(5000),
		ReserveQuote: decimal.RequireFromString("0.006"),
	}}
	enricher := NewPoolEnricher(reader, reserves, baseToken, quoteToken, nil)

	info := &model.VaultInfo{VaultAddress: testVault, TotalSupply: big.NewInt(0)}
	enricher.Enrich(context.Background(), info)

	require.Equal(t, model.FigureOK, info.CustomShareValue.Status)
	assert.True(t, info.CustomShareValue.Value.Equal(decimal.NewFromInt(1)))
}
