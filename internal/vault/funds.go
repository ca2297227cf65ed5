package vault

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/RonShih/onchainfund-platform/internal/chain"
	"github.com/RonShih/onchainfund-platform/internal/contracts"
	"github.com/RonShih/onchainfund-platform/internal/model"
)

// LogSource serves the block height and event logs discovery needs.
// *chain.Client satisfies it.
type LogSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, fromBlock, toBlock uint64, addresses []common.Address, topic0 []common.Hash) ([]types.Log, error)
}

// discoverChunk bounds one eth_getLogs range. Sepolia providers
// commonly cap ranges around 10k blocks.
const discoverChunk = 5000

const (
	discoverRetries    = 3
	discoverRetryDelay = 500 * time.Millisecond
)

// Discoverer scans the factory's creation events over a trailing block
// window and hydrates each fund into a registry record.
type Discoverer struct {
	logs    LogSource
	reader  ContractReader
	factory common.Address
	chainID uint64
	logger  *zap.Logger
}

func NewDiscoverer(logs LogSource, reader ContractReader, factory common.Address, chainID uint64, logger *zap.Logger) *Discoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{logs: logs, reader: reader, factory: factory, chainID: chainID, logger: logger}
}

// Discover returns the funds created within the trailing window of
// blocks, newest first, de-duplicated by vault address. Funds whose
// hydration reads fail are returned with on-chain fields blank rather
// than dropped.
func (d *Discoverer) Discover(ctx context.Context, window uint64) ([]model.FundRecord, error) {
	factoryABI, err := contracts.FundFactoryABI()
	if err != nil {
		return nil, err
	}
	event, ok := factoryABI.Events["NewFundCreated"]
	if !ok {
		return nil, fmt.Errorf("factory abi is missing NewFundCreated")
	}

	latest, err := d.logs.LatestBlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest block: %w", err)
	}
	from := uint64(0)
	if window > 0 && latest > window {
		from = latest - window
	}

	var logs []types.Log
	for start := from; start <= latest; start += discoverChunk {
		end := start + discoverChunk - 1
		if end > latest {
			end = latest
		}
		var chunk []types.Log
		err := chain.WithRetry(ctx, discoverRetries, discoverRetryDelay, func(ctx context.Context) error {
			var err error
			chunk, err = d.logs.FilterLogs(ctx, start, end,
				[]common.Address{d.factory}, []common.Hash{event.ID})
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("filter logs [%d..%d]: %w", start, end, err)
		}
		logs = append(logs, chunk...)
		if end == latest {
			break
		}
	}
	d.logger.Info("scanned factory creation events",
		zap.Uint64("from", from), zap.Uint64("to", latest), zap.Int("events", len(logs)))

	seen := make(map[common.Address]bool, len(logs))
	records := make([]model.FundRecord, 0, len(logs))
	// Newest first.
	for i := len(logs) - 1; i >= 0; i-- {
		record, vaultAddr, err := d.decodeEvent(factoryABI, logs[i])
		if err != nil {
			d.logger.Warn("skipping undecodable creation event",
				zap.String("tx", logs[i].TxHash.Hex()), zap.Error(err))
			continue
		}
		if seen[vaultAddr] {
			continue
		}
		seen[vaultAddr] = true
		d.hydrate(ctx, &record, vaultAddr)
		records = append(records, record)
	}
	return records, nil
}

func (d *Discoverer) decodeEvent(factoryABI abi.ABI, log types.Log) (model.FundRecord, common.Address, error) {
	var record model.FundRecord
	values, err := factoryABI.Unpack("NewFundCreated", log.Data)
	if err != nil {
		return record, common.Address{}, err
	}
	vaultAddr, err := contracts.AsAddress(values[0])
	if err != nil {
		return record, common.Address{}, err
	}
	comptroller, err := contracts.AsAddress(values[1])
	if err != nil {
		return record, common.Address{}, err
	}
	record = model.FundRecord{
		ChainID:            d.chainID,
		VaultAddress:       vaultAddr.Hex(),
		ComptrollerAddress: comptroller.Hex(),
		BlockNumber:        log.BlockNumber,
		TxHash:             log.TxHash.Hex(),
	}
	if len(log.Topics) > 1 {
		record.Creator = common.HexToAddress(log.Topics[1].Hex()).Hex()
	}
	return record, vaultAddr, nil
}

// hydrate fills the on-chain display fields. Failures leave the field
// blank; a stale or unreadable fund still shows up in the registry.
func (d *Discoverer) hydrate(ctx context.Context, record *model.FundRecord, vaultAddr common.Address) {
	vaultABI, err := contracts.VaultProxyABI()
	if err != nil {
		return
	}
	comptrollerABI, err := contracts.ComptrollerABI()
	if err != nil {
		return
	}
	erc20ABI, err := contracts.ERC20ABI()
	if err != nil {
		return
	}

	if values, err := d.reader.CallMethod(ctx, vaultAddr, vaultABI, "name"); err == nil {
		record.Name, _ = contracts.AsString(values[0])
	}
	if values, err := d.reader.CallMethod(ctx, vaultAddr, vaultABI, "symbol"); err == nil {
		record.Symbol, _ = contracts.AsString(values[0])
	}
	if values, err := d.reader.CallMethod(ctx, vaultAddr, vaultABI, "totalSupply"); err == nil {
		if supply, err := contracts.AsBigInt(values[0]); err == nil {
			record.TotalSupply = supply.String()
		}
	}

	comptroller := common.HexToAddress(record.ComptrollerAddress)
	values, err := d.reader.CallMethod(ctx, comptroller, comptrollerABI, "getDenominationAsset")
	if err != nil {
		return
	}
	denomAddr, err := contracts.AsAddress(values[0])
	if err != nil {
		return
	}
	record.DenomAsset = denomAddr.Hex()
	if values, err := d.reader.CallMethod(ctx, denomAddr, erc20ABI, "symbol"); err == nil {
		record.DenomSymbol, _ = contracts.AsString(values[0])
	}
}
