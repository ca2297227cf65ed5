package fund

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RonShih/onchainfund-platform/internal/chainerr"
	"github.com/RonShih/onchainfund-platform/internal/contracts"
)

func TestWhitelistAdd(t *testing.T) {
	var wl Whitelist

	require.NoError(t, wl.Add("0x932b08d5553b7431FB579cF27565c7Cd2d4b8fE0"))
	require.Len(t, wl.Addresses, 1)

	// Same address in different casing is a duplicate.
	err := wl.Add("0x932B08D5553B7431FB579CF27565C7CD2D4B8FE0")
	require.Error(t, err)
	assert.True(t, chainerr.IsValidation(err))
	assert.Len(t, wl.Addresses, 1)

	err = wl.Add("not-an-address")
	require.Error(t, err)
	assert.True(t, chainerr.IsValidation(err))
}

func TestWhitelistChecksummed(t *testing.T) {
	var wl Whitelist
	require.NoError(t, wl.Add("0x932b08d5553b7431fb579cf27565c7cd2d4b8fe0"))

	got := wl.Checksummed()
	require.Len(t, got, 1)
	assert.Equal(t, "0x932b08d5553b7431FB579cF27565c7Cd2d4b8fE0", got[0])
}

func TestValidateRequiredFields(t *testing.T) {
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")

	form := DefaultForm(account)
	err := form.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")

	form.Name = "Alpha Fund"
	err = form.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol")

	form.Symbol = "ALPHA"
	require.NoError(t, form.Validate())

	form.DenominationAsset = common.Address{}
	err = form.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denomination")
}

func TestValidateFeeRange(t *testing.T) {
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")
	form := DefaultForm(account)
	form.Name = "Alpha Fund"
	form.Symbol = "ALPHA"

	form.ManagementFee.Rate = 101
	require.Error(t, form.Validate())

	// Out-of-range rates on disabled fees do not block submission.
	form.ManagementFee.Enabled = false
	require.NoError(t, form.Validate())
}

func TestRateToBps(t *testing.T) {
	cases := []struct {
		percent float64
		want    int64
	}{
		{0, 0},
		{1, 100},
		{10, 1000},
		{0.5, 50},
		{0.059, 5}, // floors
		{100, 10000},
	}
	for _, tc := range cases {
		got, err := RateToBps(tc.percent)
		require.NoError(t, err, "percent %v", tc.percent)
		assert.Equal(t, tc.want, got.Int64(), "percent %v", tc.percent)
	}

	_, err := RateToBps(-1)
	require.Error(t, err)
	_, err = RateToBps(100.01)
	require.Error(t, err)
}

func TestLockupSeconds(t *testing.T) {
	form := Form{ShareLockupHours: 24}
	assert.Equal(t, big.NewInt(86400), form.LockupSeconds())
}

func TestDefaultForm(t *testing.T) {
	account := common.HexToAddress("0x2222222222222222222222222222222222222222")
	form := DefaultForm(account)

	assert.Equal(t, contracts.DefaultDenominationAsset, form.DenominationAsset)
	assert.Equal(t, uint64(24), form.ShareLockupHours)
	assert.True(t, form.ManagementFee.Enabled)
	assert.Equal(t, float64(1), form.ManagementFee.Rate)
	assert.True(t, form.PerformanceFee.Enabled)
	assert.Equal(t, float64(10), form.PerformanceFee.Rate)
	assert.False(t, form.EntranceFee.Enabled)
	assert.Equal(t, account, form.EntranceFee.Recipient)
	assert.False(t, form.Whitelist.Enabled)
}
