package fund

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/RonShih/onchainfund-platform/internal/chain"
	"github.com/RonShih/onchainfund-platform/internal/chainerr"
	"github.com/RonShih/onchainfund-platform/internal/contracts"
)

// TxSubmitter signs, sends, and waits for one transaction. Satisfied by
// chain.Submitter; faked in tests.
type TxSubmitter interface {
	From() common.Address
	Submit(ctx context.Context, to common.Address, data []byte, opts chain.SubmitOpts) (*types.Receipt, error)
}

// Addresses are the deployment addresses the creator talks to.
type Addresses struct {
	Factory       common.Address
	EntranceFee   common.Address
	DepositPolicy common.Address
	ListRegistry  common.Address
}

// Result reports a completed creation. When Derived is false the
// transaction succeeded but the creation event could not be decoded;
// the vault and comptroller addresses are unknown and the transaction
// must be inspected manually.
type Result struct {
	TxHash      common.Hash
	Vault       common.Address
	Comptroller common.Address
	Derived     bool
	ListID      *big.Int
}

// Creator submits vault creation transactions against the factory.
type Creator struct {
	submitter TxSubmitter
	addrs     Addresses
	logger    *zap.Logger
}

// NewCreator builds a Creator.
func NewCreator(submitter TxSubmitter, addrs Addresses, logger *zap.Logger) *Creator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Creator{submitter: submitter, addrs: addrs, logger: logger}
}

// Create validates the form, assembles the fee and policy payloads
// (registering the deposit allow-list first when one is configured),
// and submits the single factory creation transaction.
//
// Known gap: when the allow-list registration succeeds but the creation
// transaction then fails, the registered list stays orphaned on-chain.
// The registry contract offers no rollback; the error message names the
// orphaned list id so the operator is at least aware of it.
func (c *Creator) Create(ctx context.Context, form *Form) (*Result, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	owner := c.submitter.From()

	feeConfig, err := BuildFeeConfig(form, c.addrs.EntranceFee, owner)
	if err != nil {
		return nil, err
	}

	policyConfig := []byte{}
	var listID *big.Int
	if form.Whitelist.Enabled && len(form.Whitelist.Addresses) > 0 {
		listID, err = c.registerList(ctx, owner, form.Whitelist.Addresses)
		if err != nil {
			return nil, fmt.Errorf("register deposit allow-list: %w", chainerr.Classify(err))
		}
		policyConfig, err = BuildPolicyConfig(c.addrs.DepositPolicy, listID)
		if err != nil {
			return nil, err
		}
	}

	factoryABI, err := contracts.FundFactoryABI()
	if err != nil {
		return nil, fmt.Errorf("factory abi: %w", err)
	}

	data, err := factoryABI.Pack("createNewFund",
		owner,
		form.Name,
		form.Symbol,
		form.DenominationAsset,
		form.LockupSeconds(),
		feeConfig,
		policyConfig,
	)
	if err != nil {
		return nil, fmt.Errorf("pack createNewFund: %w", err)
	}

	c.logger.Info("creating fund",
		zap.String("owner", owner.Hex()),
		zap.String("name", form.Name),
		zap.String("symbol", form.Symbol),
		zap.String("denomination_asset", form.DenominationAsset.Hex()),
		zap.Uint64("lockup_hours", form.ShareLockupHours),
		zap.Int("fee_config_bytes", len(feeConfig)),
		zap.Int("policy_config_bytes", len(policyConfig)),
	)

	receipt, err := c.submitter.Submit(ctx, c.addrs.Factory, data, chain.SubmitOpts{})
	if err != nil {
		classified := chainerr.Classify(err)
		if listID != nil {
			return nil, fmt.Errorf("fund creation failed, allow-list %s is orphaned on-chain: %w", listID, classified)
		}
		return nil, classified
	}

	result := &Result{TxHash: receipt.TxHash, ListID: listID}
	vault, comptroller, found := c.parseCreationEvent(factoryABI, receipt)
	if !found {
		// The contract interaction can succeed while client-side log
		// decoding fails; report success without derived addresses and
		// let the caller point at the explorer.
		c.logger.Warn("fund created but creation event not found in receipt",
			zap.String("tx", receipt.TxHash.Hex()))
		return result, nil
	}

	result.Vault = vault
	result.Comptroller = comptroller
	result.Derived = true
	return result, nil
}

// parseCreationEvent scans the receipt for the factory's NewFundCreated
// event and returns the vault and comptroller proxy addresses. The
// creator is the indexed topic; the two proxies sit in the data.
func (c *Creator) parseCreationEvent(factoryABI abi.ABI, receipt *types.Receipt) (common.Address, common.Address, bool) {
	created := factoryABI.Events["NewFundCreated"]
	for _, entry := range receipt.Logs {
		if entry.Address != c.addrs.Factory || len(entry.Topics) == 0 || entry.Topics[0] != created.ID {
			continue
		}
		values, err := factoryABI.Unpack("NewFundCreated", entry.Data)
		if err != nil || len(values) < 2 {
			continue
		}
		vault, errVault := contracts.AsAddress(values[0])
		comptroller, errComp := contracts.AsAddress(values[1])
		if errVault != nil || errComp != nil {
			continue
		}
		return vault, comptroller, true
	}
	return common.Address{}, common.Address{}, false
}

// registerList creates an immutable address list owned by the fund
// owner and returns the list id parsed from the registry's ListCreated
// event.
func (c *Creator) registerList(ctx context.Context, owner common.Address, items []common.Address) (*big.Int, error) {
	registryABI, err := contracts.AddressListRegistryABI()
	if err != nil {
		return nil, fmt.Errorf("registry abi: %w", err)
	}

	// Update type 0: the list is immutable after creation.
	data, err := registryABI.Pack("createList", owner, uint8(0), items)
	if err != nil {
		return nil, fmt.Errorf("pack createList: %w", err)
	}

	receipt, err := c.submitter.Submit(ctx, c.addrs.ListRegistry, data, chain.SubmitOpts{})
	if err != nil {
		return nil, err
	}

	created := registryABI.Events["ListCreated"]
	for _, entry := range receipt.Logs {
		if entry.Address != c.addrs.ListRegistry || len(entry.Topics) == 0 || entry.Topics[0] != created.ID {
			continue
		}
		values, err := registryABI.Unpack("ListCreated", entry.Data)
		if err != nil || len(values) == 0 {
			continue
		}
		id, err := contracts.AsBigInt(values[0])
		if err != nil {
			continue
		}
		return id, nil
	}
	return nil, fmt.Errorf("list created but ListCreated event not found in tx %s", receipt.TxHash.Hex())
}
