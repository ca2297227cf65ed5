package vault

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RonShih/onchainfund-platform/internal/contracts"
	"github.com/RonShih/onchainfund-platform/internal/model"
)

// ReservesSource yields the current base/quote reserves of the pricing
// pool. The swap quoter provides one backed by the pair contract with
// its hardcoded fallback.
type ReservesSource interface {
	Reserves(ctx context.Context) model.PoolReserves
}

// PoolEnricher recomputes the gross asset value from the vault's raw
// token holdings priced against the liquidity pool, independently of
// the comptroller's own valuation path. It fills the Custom* figures
// and never fails the surrounding fetch.
type PoolEnricher struct {
	reader   ContractReader
	reserves ReservesSource
	base     common.Address
	quote    common.Address
	logger   *zap.Logger
}

func NewPoolEnricher(reader ContractReader, reserves ReservesSource, base, quote common.Address, logger *zap.Logger) *PoolEnricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PoolEnricher{reader: reader, reserves: reserves, base: base, quote: quote, logger: logger}
}

func (e *PoolEnricher) Enrich(ctx context.Context, info *model.VaultInfo) {
	erc20ABI, err := contracts.ERC20ABI()
	if err != nil {
		info.CustomGAV = model.UnavailableFigure(err.Error())
		info.CustomShareValue = model.UnavailableFigure(err.Error())
		return
	}

	baseBal, err := e.tokenBalance(ctx, erc20ABI, e.base, info.VaultAddress)
	if err != nil {
		e.logger.Warn("enrichment skipped, base balance read failed",
			zap.String("vault", info.VaultAddress.Hex()), zap.Error(err))
		info.CustomGAV = model.UnavailableFigure("base asset balance unavailable")
		info.CustomShareValue = model.UnavailableFigure("base asset balance unavailable")
		return
	}
	quoteBal, err := e.tokenBalance(ctx, erc20ABI, e.quote, info.VaultAddress)
	if err != nil {
		e.logger.Warn("enrichment skipped, quote balance read failed",
			zap.String("vault", info.VaultAddress.Hex()), zap.Error(err))
		info.CustomGAV = model.UnavailableFigure("quote asset balance unavailable")
		info.CustomShareValue = model.UnavailableFigure("quote asset balance unavailable")
		return
	}

	reserves := e.reserves.Reserves(ctx)
	if reserves.ReserveQuote.IsZero() {
		info.CustomGAV = model.UnavailableFigure("pool quote reserve is zero")
		info.CustomShareValue = model.UnavailableFigure("pool quote reserve is zero")
		return
	}

	// Value the quote-asset holding in base-asset terms at the pool's
	// spot ratio, then add the base holding.
	price := reserves.ReserveBase.Div(reserves.ReserveQuote)
	gav := baseBal.Add(quoteBal.Mul(price))

	reason := ""
	if reserves.Degraded {
		reason = reserves.Reason
		if reason == "" {
			reason = "priced against fallback reserves"
		}
	}
	info.CustomGAV = figureFor(gav, reserves.Degraded, reason)

	if info.TotalSupply == nil || info.TotalSupply.Sign() == 0 {
		info.CustomShareValue = figureFor(decimal.NewFromInt(1), reserves.Degraded, reason)
		return
	}
	supply := decimal.NewFromBigInt(info.TotalSupply, -int32(contracts.SharesDecimals))
	info.CustomShareValue = figureFor(gav.Div(supply), reserves.Degraded, reason)
}

func (e *PoolEnricher) tokenBalance(ctx context.Context, erc20ABI abi.ABI, token, owner common.Address) (decimal.Decimal, error) {
	values, err := e.reader.CallMethod(ctx, token, erc20ABI, "balanceOf", owner)
	if err != nil {
		return decimal.Zero, err
	}
	raw, err := contracts.AsBigInt(values[0])
	if err != nil {
		return decimal.Zero, err
	}
	values, err = e.reader.CallMethod(ctx, token, erc20ABI, "decimals")
	if err != nil {
		return decimal.Zero, err
	}
	decimals, err := contracts.AsUint8(values[0])
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(raw, -int32(decimals)), nil
}

func figureFor(value decimal.Decimal, degraded bool, reason string) model.Figure {
	if degraded {
		return model.DegradedFigure(value, reason)
	}
	return model.OKFigure(value)
}
