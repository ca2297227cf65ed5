package chain

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// SignerFn signs a transaction on behalf of an account.
type SignerFn func(addr common.Address, tx *types.Transaction) (*types.Transaction, error)

// TxBackend is the slice of Client a Submitter needs. Kept minimal so
// tests can substitute a fake.
type TxBackend interface {
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// gasLimitMargin is the safety margin added to every estimated gas
// limit: estimate * 120 / 100.
const gasLimitMargin = 120

// receiptPollInterval is how often a submitted transaction is checked
// for inclusion.
const receiptPollInterval = 2 * time.Second

// SubmitOpts tunes a single submission.
type SubmitOpts struct {
	// GasLimit, when non-zero, is used as-is and skips estimation.
	GasLimit uint64
}

// Submitter signs and broadcasts transactions for one account and waits
// for their receipts. Failures are terminal; nothing is retried.
type Submitter struct {
	backend TxBackend
	from    common.Address
	chainID *big.Int
	sign    SignerFn
	logger  *zap.Logger
}

// NewSubmitter builds a Submitter bound to one account.
func NewSubmitter(backend TxBackend, from common.Address, chainID *big.Int, sign SignerFn, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{
		backend: backend,
		from:    from,
		chainID: chainID,
		sign:    sign,
		logger:  logger,
	}
}

// From returns the sending account.
func (s *Submitter) From() common.Address {
	return s.from
}

// Submit estimates gas with the 20% margin, fills EIP-1559 fees and the
// nonce, signs, broadcasts, and waits for the receipt. A mined receipt
// with a failed status is returned alongside an error so callers can
// still surface the transaction hash.
func (s *Submitter) Submit(ctx context.Context, to common.Address, data []byte, opts SubmitOpts) (*types.Receipt, error) {
	gasLimit := opts.GasLimit
	if gasLimit == 0 {
		estimate, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{
			From: s.from,
			To:   &to,
			Data: data,
		})
		if err != nil {
			return nil, fmt.Errorf("estimate gas: %w", err)
		}
		gasLimit = estimate * gasLimitMargin / 100
	}

	tip, err := s.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest tip: %w", err)
	}

	head, err := s.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("latest header: %w", err)
	}
	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	nonce, err := s.backend.PendingNonceAt(ctx, s.from)
	if err != nil {
		return nil, fmt.Errorf("pending nonce: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   s.chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gasLimit,
		To:        &to,
		Data:      data,
	})

	signed, err := s.sign(s.from, tx)
	if err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}

	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send transaction: %w", err)
	}

	s.logger.Info("transaction sent",
		zap.String("tx", signed.Hash().Hex()),
		zap.String("to", to.Hex()),
		zap.Uint64("gas_limit", gasLimit),
	)

	receipt, err := s.waitMined(ctx, signed.Hash())
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, fmt.Errorf("transaction %s reverted", signed.Hash().Hex())
	}

	s.logger.Info("transaction mined",
		zap.String("tx", signed.Hash().Hex()),
		zap.Uint64("block", receipt.BlockNumber.Uint64()),
		zap.Uint64("gas_used", receipt.GasUsed),
	)
	return receipt, nil
}

func (s *Submitter) waitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := s.backend.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
