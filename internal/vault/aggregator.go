package vault

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/RonShih/onchainfund-platform/internal/contracts"
	"github.com/RonShih/onchainfund-platform/internal/model"
)

// ContractReader performs read-only contract calls. *chain.Client
// satisfies it.
type ContractReader interface {
	CallMethod(
		ctx context.Context,
		contract common.Address,
		parsed abi.ABI,
		method string,
		args ...interface{},
	) ([]interface{}, error)
}

// Enricher recomputes supplementary valuation figures for a snapshot.
// Enrichment is best effort and never fails a fetch.
type Enricher interface {
	Enrich(ctx context.Context, info *model.VaultInfo)
}

// Aggregator builds complete VaultInfo snapshots out of the individual
// contract reads. All core reads for one snapshot either succeed
// together or the fetch fails; degraded valuation is the only partial
// state the snapshot can carry.
type Aggregator struct {
	reader   ContractReader
	enricher Enricher
	logger   *zap.Logger
}

func NewAggregator(reader ContractReader, enricher Enricher, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{reader: reader, enricher: enricher, logger: logger}
}

// Fetch assembles the snapshot for vaultHex as seen by caller. A
// syntactically invalid vault address is a no-op and yields no snapshot
// and no error.
func (a *Aggregator) Fetch(ctx context.Context, vaultHex string, caller common.Address) (*model.VaultInfo, error) {
	if !common.IsHexAddress(vaultHex) {
		a.logger.Debug("skipping fetch for malformed vault address", zap.String("input", vaultHex))
		return nil, nil
	}
	vaultAddr := common.HexToAddress(vaultHex)
	info := &model.VaultInfo{VaultAddress: vaultAddr}

	vaultABI, err := contracts.VaultProxyABI()
	if err != nil {
		return nil, err
	}
	comptrollerABI, err := contracts.ComptrollerABI()
	if err != nil {
		return nil, err
	}
	erc20ABI, err := contracts.ERC20ABI()
	if err != nil {
		return nil, err
	}

	// Phase 1: vault proxy reads, concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		values, err := a.reader.CallMethod(gctx, vaultAddr, vaultABI, "getAccessor")
		if err != nil {
			return fmt.Errorf("vault accessor: %w", err)
		}
		info.ComptrollerAddress, err = contracts.AsAddress(values[0])
		return err
	})
	g.Go(func() error {
		values, err := a.reader.CallMethod(gctx, vaultAddr, vaultABI, "name")
		if err != nil {
			return fmt.Errorf("vault name: %w", err)
		}
		info.Name, err = contracts.AsString(values[0])
		return err
	})
	g.Go(func() error {
		values, err := a.reader.CallMethod(gctx, vaultAddr, vaultABI, "symbol")
		if err != nil {
			return fmt.Errorf("vault symbol: %w", err)
		}
		info.Symbol, err = contracts.AsString(values[0])
		return err
	})
	g.Go(func() error {
		values, err := a.reader.CallMethod(gctx, vaultAddr, vaultABI, "totalSupply")
		if err != nil {
			return fmt.Errorf("vault total supply: %w", err)
		}
		info.TotalSupply, err = contracts.AsBigInt(values[0])
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Phase 2: comptroller reads. The denomination asset is required;
	// the valuation pair degrades instead of failing.
	values, err := a.reader.CallMethod(ctx, info.ComptrollerAddress, comptrollerABI, "getDenominationAsset")
	if err != nil {
		return nil, fmt.Errorf("denomination asset: %w", err)
	}
	denomAddr, err := contracts.AsAddress(values[0])
	if err != nil {
		return nil, err
	}
	info.DenominationAsset.Address = denomAddr

	if values, err = a.reader.CallMethod(ctx, info.ComptrollerAddress, comptrollerABI, "calcGav"); err != nil {
		a.logger.Warn("calcGav reverted, substituting zero",
			zap.String("vault", vaultAddr.Hex()), zap.Error(err))
		info.GrossAssetValue = big.NewInt(0)
		info.Degraded = true
	} else if info.GrossAssetValue, err = contracts.AsBigInt(values[0]); err != nil {
		return nil, err
	}

	if values, err = a.reader.CallMethod(ctx, info.ComptrollerAddress, comptrollerABI, "calcGrossShareValue"); err != nil {
		a.logger.Warn("calcGrossShareValue reverted, substituting unit price",
			zap.String("vault", vaultAddr.Hex()), zap.Error(err))
		info.ShareValue = new(big.Int).Set(contracts.SharesUnit)
		info.Degraded = true
	} else if info.ShareValue, err = contracts.AsBigInt(values[0]); err != nil {
		return nil, err
	}

	// Phase 3: denomination asset metadata and the caller's position,
	// concurrently. These are required for a usable snapshot.
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		values, err := a.reader.CallMethod(gctx, denomAddr, erc20ABI, "symbol")
		if err != nil {
			return fmt.Errorf("denom symbol: %w", err)
		}
		info.DenominationAsset.Symbol, err = contracts.AsString(values[0])
		return err
	})
	g.Go(func() error {
		values, err := a.reader.CallMethod(gctx, denomAddr, erc20ABI, "decimals")
		if err != nil {
			return fmt.Errorf("denom decimals: %w", err)
		}
		info.DenominationAsset.Decimals, err = contracts.AsUint8(values[0])
		return err
	})
	g.Go(func() error {
		values, err := a.reader.CallMethod(gctx, vaultAddr, vaultABI, "balanceOf", caller)
		if err != nil {
			return fmt.Errorf("caller share balance: %w", err)
		}
		info.CallerShareBalance, err = contracts.AsBigInt(values[0])
		return err
	})
	g.Go(func() error {
		values, err := a.reader.CallMethod(gctx, denomAddr, erc20ABI, "balanceOf", caller)
		if err != nil {
			return fmt.Errorf("caller denom balance: %w", err)
		}
		info.CallerDenomBalance, err = contracts.AsBigInt(values[0])
		return err
	})
	g.Go(func() error {
		values, err := a.reader.CallMethod(gctx, denomAddr, erc20ABI, "allowance", caller, info.ComptrollerAddress)
		if err != nil {
			return fmt.Errorf("caller allowance: %w", err)
		}
		info.CallerAllowance, err = contracts.AsBigInt(values[0])
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	info.CustomGAV = model.UnavailableFigure("enrichment not run")
	info.CustomShareValue = model.UnavailableFigure("enrichment not run")
	if a.enricher != nil {
		a.enricher.Enrich(ctx, info)
	}
	return info, nil
}
