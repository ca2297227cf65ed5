package swap

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RonShih/onchainfund-platform/internal/chainerr"
	"github.com/RonShih/onchainfund-platform/internal/contracts"
	"github.com/RonShih/onchainfund-platform/internal/model"
)

// Direction names which side of the pair is being sold.
type Direction int

const (
	// BaseToQuote sells the base asset for the quote asset.
	BaseToQuote Direction = iota
	// QuoteToBase sells the quote asset for the base asset.
	QuoteToBase
)

// Swap slippage guard: the minimum acceptable output is 98% of the
// quoted output.
const (
	swapSlippageNum = 98
	swapSlippageDen = 100
)

// Fallback reserves used when the pair contract cannot be read. They
// mirror the pool's seeded liquidity so quotes stay plausible.
var (
	fallbackReserveBase  = decimal.NewFromInt(5000)
	fallbackReserveQuote = decimal.RequireFromString("0.006")
)

// maxReserveDrain rejects trades that would take 99% or more of the
// output reserve; the constant-product price is meaningless out there.
var maxReserveDrain = decimal.RequireFromString("0.99")

// ContractReader is the read-only call surface the quoter needs.
// *chain.Client satisfies it.
type ContractReader interface {
	CallMethod(
		ctx context.Context,
		contract common.Address,
		parsed abi.ABI,
		method string,
		args ...interface{},
	) ([]interface{}, error)
}

// Quote is one priced swap.
type Quote struct {
	Direction Direction
	AmountIn  decimal.Decimal
	AmountOut decimal.Decimal
	// MinOut is AmountOut less the slippage allowance; it is what the
	// on-chain order is submitted with.
	MinOut   decimal.Decimal
	Reserves model.PoolReserves
}

// Quoter prices swaps against one Uniswap v2 style pair using the
// constant-product formula.
type Quoter struct {
	reader        ContractReader
	pair          common.Address
	base          common.Address
	baseDecimals  int32
	quoteDecimals int32
	logger        *zap.Logger
}

func NewQuoter(reader ContractReader, pair, base common.Address, baseDecimals, quoteDecimals int32, logger *zap.Logger) *Quoter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Quoter{
		reader:        reader,
		pair:          pair,
		base:          base,
		baseDecimals:  baseDecimals,
		quoteDecimals: quoteDecimals,
		logger:        logger,
	}
}

// Reserves reads the pair's current reserves, ordered (base, quote).
// When the pair cannot be read the hardcoded fallback pair is returned
// with the Degraded flag set; reserves are never an error.
func (q *Quoter) Reserves(ctx context.Context) model.PoolReserves {
	pairABI, err := contracts.PairABI()
	if err != nil {
		return q.fallback(err)
	}
	values, err := q.reader.CallMethod(ctx, q.pair, pairABI, "getReserves")
	if err != nil {
		return q.fallback(err)
	}
	reserve0, err := contracts.AsBigInt(values[0])
	if err != nil {
		return q.fallback(err)
	}
	reserve1, err := contracts.AsBigInt(values[1])
	if err != nil {
		return q.fallback(err)
	}
	values, err = q.reader.CallMethod(ctx, q.pair, pairABI, "token0")
	if err != nil {
		return q.fallback(err)
	}
	token0, err := contracts.AsAddress(values[0])
	if err != nil {
		return q.fallback(err)
	}

	baseRaw, quoteRaw := reserve0, reserve1
	if token0 != q.base {
		baseRaw, quoteRaw = reserve1, reserve0
	}
	return model.PoolReserves{
		ReserveBase:  decimal.NewFromBigInt(baseRaw, -q.baseDecimals),
		ReserveQuote: decimal.NewFromBigInt(quoteRaw, -q.quoteDecimals),
	}
}

func (q *Quoter) fallback(err error) model.PoolReserves {
	q.logger.Warn("pair reserves unavailable, using fallback pool",
		zap.String("pair", q.pair.Hex()), zap.Error(err))
	return model.PoolReserves{
		ReserveBase:  fallbackReserveBase,
		ReserveQuote: fallbackReserveQuote,
		Degraded:     true,
		Reason:       "pair reserves unavailable",
	}
}

// QuoteSwap prices selling amountIn in the given direction against the
// current reserves: out = Rout - (Rin * Rout) / (Rin + in). Trades that
// would drain 99% or more of the output reserve are rejected as
// insufficient liquidity.
func (q *Quoter) QuoteSwap(ctx context.Context, direction Direction, amountIn decimal.Decimal) (*Quote, error) {
	if amountIn.Sign() <= 0 {
		return nil, chainerr.NewValidation("amount", "must be greater than zero")
	}
	reserves := q.Reserves(ctx)

	reserveIn, reserveOut := reserves.ReserveBase, reserves.ReserveQuote
	if direction == QuoteToBase {
		reserveIn, reserveOut = reserves.ReserveQuote, reserves.ReserveBase
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, fmt.Errorf("pool has no liquidity")
	}

	out := reserveOut.Sub(reserveIn.Mul(reserveOut).Div(reserveIn.Add(amountIn)))
	if out.GreaterThanOrEqual(reserveOut.Mul(maxReserveDrain)) {
		return nil, fmt.Errorf("insufficient pool liquidity for %s", amountIn.String())
	}

	minOut := out.Mul(decimal.NewFromInt(swapSlippageNum)).Div(decimal.NewFromInt(swapSlippageDen))
	return &Quote{
		Direction: direction,
		AmountIn:  amountIn,
		AmountOut: out,
		MinOut:    minOut,
		Reserves:  reserves,
	}, nil
}
