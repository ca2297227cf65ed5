package fund

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
)

var testAddrs = Addresses{
	Factory:       common.HexToAddress("0xfac0000000000000000000000000000000000001"),
	EntranceFee:   common.HexToAddress("0xfee0000000000000000000000000000000000002"),
	DepositPolicy: common.HexToAddress("0x9010000000000000000000000000000000000003"),
	ListRegistry:  common.HexToAddress("0x8e90000000000000000000000000000000000004"),
}

type submission struct {
	to   common.Address
	data []byte
}

// fakeSubmitter replays queued receipts or errors in submission order.
type fakeSubmitter struct {
	from     common.Address
	receipts []*types.Receipt
	errs     []error
	calls    []submission
}

func (f *fakeSubmitter) From() common.Address { return f.from }

func (f *fakeSubmitter) Submit(_ context.Context, to common.Address, data []byte, _ chain.SubmitOpts) (*types.Receipt, error) {
	i := len(f.calls)
	f.calls = append(f.calls, submission{to: to, data: data})
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.receipts) {
		return f.receipts[i], nil
	}
	return &types.Receipt{TxHash: common.HexToHash("0xbeef")}, nil
}

func validForm(account common.Address) *Form {
	form := DefaultForm(account)
	form.Name = "Alpha Fund"
	form.Symbol = "ALPHA"
	return &form
}

func creationReceipt(t *testing.T, vault, comptroller common.Address) *types.Receipt {
	t.Helper()
	factoryABI, err := contracts.FundFactoryABI()
	require.NoError(t, err)
	event := factoryABI.Events["NewFundCreated"]
	data, err := event.Inputs.NonIndexed().Pack(vault, comptroller)
	require.NoError(t, err)
	return &types.Receipt{
		TxHash: common.HexToHash("0xc0ffee"),
		Logs: []*types.Log{{
			Address: testAddrs.Factory,
			Topics:  []common.Hash{event.ID, common.HexToHash("0x1111")},
			Data:    data,
		}},
	}
}

func listCreatedReceipt(t *testing.T, id int64) *types.Receipt {
	t.Helper()
	registryABI, err := contracts.AddressListRegistryABI()
	require.NoError(t, err)
	event := registryABI.Events["ListCreated"]
	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(id), uint8(0))
	require.NoError(t, err)
	return &types.Receipt{
		TxHash: common.HexToHash("0x115d"),
		Logs: []*types.Log{{
			Address: testAddrs.ListRegistry,
			Topics:  []common.Hash{event.ID, common.HexToHash("0x1"), common.HexToHash("0x2")},
			Data:    data,
		}},
	}
}

func TestCreateDerivesAddresses(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	vault := common.HexToAddress("0xaaaa000000000000000000000000000000000001")
	comptroller := common.HexToAddress("0xbbbb000000000000000000000000000000000002")

	submitter := &fakeSubmitter{
		from:     owner,
		receipts: []*types.Receipt{creationReceipt(t, vault, comptroller)},
	}
	creator := NewCreator(submitter, testAddrs, nil)

	result, err := creator.Create(context.Background(), validForm(owner))
	require.NoError(t, err)
	require.Len(t, submitter.calls, 1)
	assert.Equal(t, testAddrs.Factory, submitter.calls[0].to)
	assert.True(t, result.Derived)
	assert.Equal(t, vault, result.Vault)
	assert.Equal(t, comptroller, result.Comptroller)
	assert.Nil(t, result.ListID)
}

func TestCreateDegradedWhenEventMissing(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	submitter := &fakeSubmitter{
		from:     owner,
		receipts: []*types.Receipt{{TxHash: common.HexToHash("0xdead")}},
	}
	creator := NewCreator(submitter, testAddrs, nil)

	result, err := creator.Create(context.Background(), validForm(owner))
	require.NoError(t, err, "a mined transaction without a decodable event is still a success")
	assert.False(t, result.Derived)
	assert.Equal(t, common.HexToHash("0xdead"), result.TxHash)
	assert.Equal(t, common.Address{}, result.Vault)
}

func TestCreateClassifiesRevert(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	submitter := &fakeSubmitter{
		from: owner,
		errs: []error{errors.New("execution reverted: Bad denomination asset")},
	}
	creator := NewCreator(submitter, testAddrs, nil)

	_, err := creator.Create(context.Background(), validForm(owner))
	require.Error(t, err)

	var rejected *chainerr.ChainRejected
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, chainerr.CategoryBadDenominationAsset, rejected.Category)
}

func TestCreateWithAllowList(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	vault := common.HexToAddress("0xaaaa000000000000000000000000000000000001")
	comptroller := common.HexToAddress("0xbbbb000000000000000000000000000000000002")

	form := validForm(owner)
	form.Whitelist.Enabled = true
	require.NoError(t, form.Whitelist.Add("0x2222222222222222222222222222222222222222"))

	submitter := &fakeSubmitter{
		from: owner,
		receipts: []*types.Receipt{
			listCreatedReceipt(t, 42),
			creationReceipt(t, vault, comptroller),
		},
	}
	creator := NewCreator(submitter, testAddrs, nil)

	result, err := creator.Create(context.Background(), form)
	require.NoError(t, err)
	require.Len(t, submitter.calls, 2)
	assert.Equal(t, testAddrs.ListRegistry, submitter.calls[0].to)
	assert.Equal(t, testAddrs.Factory, submitter.calls[1].to)
	require.NotNil(t, result.ListID)
	assert.Equal(t, int64(42), result.ListID.Int64())
	assert.True(t, result.Derived)
}

func TestCreateReportsOrphanedList(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")

	form := validForm(owner)
	form.Whitelist.Enabled = true
	require.NoError(t, form.Whitelist.Add("0x2222222222222222222222222222222222222222"))

	submitter := &fakeSubmitter{
		from:     owner,
		receipts: []*types.Receipt{listCreatedReceipt(t, 7), nil},
		errs:     []error{nil, errors.New("execution reverted")},
	}
	creator := NewCreator(submitter, testAddrs, nil)

	_, err := creator.Create(context.Background(), form)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allow-list 7 is orphaned")
}

func TestCreateValidatesBeforeSubmitting(t *testing.T) {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	submitter := &fakeSubmitter{from: owner}
	creator := NewCreator(submitter, testAddrs, nil)

	form := DefaultForm(owner) // missing name and symbol
	_, err := creator.Create(context.Background(), &form)
	require.Error(t, err)
	assert.True(t, chainerr.IsValidation(err))
	assert.Empty(t, submitter.calls, "nothing must be submitted on validation failure")
}
