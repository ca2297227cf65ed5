package wallet

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RonShih/onchainfund-platform/internal/chain"
	"github.com/RonShih/onchainfund-platform/internal/chainerr"
)

var (
	testAccount = common.HexToAddress("0x1111111111111111111111111111111111111111")
	otherAcct   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func sepoliaTarget() NetworkParams {
	return NetworkParams{ChainID: big.NewInt(11155111), Name: "Sepolia Testnet"}
}

// fakeProvider is a scriptable Provider with signing capability.
type fakeProvider struct {
	authorized   []common.Address
	requested    []common.Address
	requestErr   error
	chainID      *big.Int
	known        map[string]bool
	switchCalls  int
	addCalls     int
	subscribers  []chan<- Event
	rejectSwitch bool
	failAddChain bool
	staySwitched bool
}

func newFakeProvider(chainID int64) *fakeProvider {
	return &fakeProvider{
		chainID:      big.NewInt(chainID),
		known:        map[string]bool{},
		staySwitched: true,
	}
}

func (f *fakeProvider) Accounts(_ context.Context) ([]common.Address, error) {
	return f.authorized, nil
}

func (f *fakeProvider) RequestAccounts(_ context.Context) ([]common.Address, error) {
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return f.requested, nil
}

func (f *fakeProvider) ChainID(_ context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.chainID), nil
}

func (f *fakeProvider) SwitchChain(_ context.Context, chainID *big.Int) error {
	f.switchCalls++
	if f.rejectSwitch {
		return errors.New("switch refused")
	}
	if !f.known[chainID.String()] {
		return chainerr.ErrUnknownChain
	}
	if f.staySwitched {
		f.chainID = new(big.Int).Set(chainID)
	}
	return nil
}

func (f *fakeProvider) AddChain(_ context.Context, params NetworkParams) error {
	f.addCalls++
	if f.failAddChain {
		return errors.New("registration refused")
	}
	f.known[params.ChainID.String()] = true
	return nil
}

func (f *fakeProvider) Backend() *chain.Client { return nil }

func (f *fakeProvider) SignerFn(_ *big.Int) chain.SignerFn { return nil }

func (f *fakeProvider) Subscribe(ch chan<- Event) func() {
	f.subscribers = append(f.subscribers, ch)
	return func() {}
}

func (f *fakeProvider) push(event Event) {
	for _, ch := range f.subscribers {
		ch <- event
	}
}

// readOnly strips the TransactionSigner capability by exposing only the
// Provider interface's method set.
type readOnly struct{ Provider }

func TestConnectNilProvider(t *testing.T) {
	m := NewManager(nil, sepoliaTarget(), nil)
	defer m.Close()

	_, err := m.Connect(context.Background())
	assert.ErrorIs(t, err, chainerr.ErrWalletUnavailable)
}

func TestConnectHappyPath(t *testing.T) {
	provider := newFakeProvider(11155111)
	provider.requested = []common.Address{testAccount}
	m := NewManager(provider, sepoliaTarget(), nil)
	defer m.Close()

	session, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testAccount, session.Account)
	assert.Equal(t, "11155111", session.ChainID.String())
	assert.Zero(t, provider.switchCalls, "no switch needed when already on target")
	assert.Same(t, session, m.GetSession())
}

func TestConnectIncompatibleProvider(t *testing.T) {
	provider := newFakeProvider(11155111)
	provider.requested = []common.Address{testAccount}
	m := NewManager(&readOnly{provider}, sepoliaTarget(), nil)
	defer m.Close()

	_, err := m.Connect(context.Background())
	assert.ErrorIs(t, err, chainerr.ErrWalletIncompatible)

	session, resumeErr := m.Resume(context.Background())
	assert.NoError(t, resumeErr)
	assert.Nil(t, session)
}

func TestConnectRejectedAuthorization(t *testing.T) {
	provider := newFakeProvider(11155111)
	provider.requestErr = chainerr.ErrUserRejected
	m := NewManager(provider, sepoliaTarget(), nil)
	defer m.Close()

	_, err := m.Connect(context.Background())
	assert.ErrorIs(t, err, chainerr.ErrUserRejected)
}

func TestConnectEmptyAuthorization(t *testing.T) {
	provider := newFakeProvider(11155111)
	m := NewManager(provider, sepoliaTarget(), nil)
	defer m.Close()

	_, err := m.Connect(context.Background())
	assert.ErrorIs(t, err, chainerr.ErrUserRejected)
}

func TestConnectSwitchesKnownChain(t *testing.T) {
	provider := newFakeProvider(1)
	provider.requested = []common.Address{testAccount}
	provider.known["11155111"] = true
	m := NewManager(provider, sepoliaTarget(), nil)
	defer m.Close()

	session, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, provider.switchCalls)
	assert.Equal(t, "11155111", session.ChainID.String())
}

func TestConnectRegistersUnknownChain(t *testing.T) {
	provider := newFakeProvider(1)
	provider.requested = []common.Address{testAccount}
	m := NewManager(provider, sepoliaTarget(), nil)
	defer m.Close()

	_, err := m.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, provider.addCalls, "an unknown chain is registered once, then retried")
	assert.Equal(t, 2, provider.switchCalls)
}

func TestConnectNetworkMismatchWhenRegistrationFails(t *testing.T) {
	provider := newFakeProvider(1)
	provider.requested = []common.Address{testAccount}
	provider.failAddChain = true
	m := NewManager(provider, sepoliaTarget(), nil)
	defer m.Close()

	_, err := m.Connect(context.Background())
	assert.ErrorIs(t, err, chainerr.ErrNetworkMismatch)
}

func TestConnectNetworkMismatchWhenSwitchRefused(t *testing.T) {
	provider := newFakeProvider(1)
	provider.requested = []common.Address{testAccount}
	provider.rejectSwitch = true
	m := NewManager(provider, sepoliaTarget(), nil)
	defer m.Close()

	_, err := m.Connect(context.Background())
	assert.ErrorIs(t, err, chainerr.ErrNetworkMismatch)
}

func TestConnectNetworkMismatchWhenSwitchIsSilentlyIgnored(t *testing.T) {
	provider := newFakeProvider(1)
	provider.requested = []common.Address{testAccount}
	provider.known["11155111"] = true
	provider.staySwitched = false // claims success, stays on chain 1
	m := NewManager(provider, sepoliaTarget(), nil)
	defer m.Close()

	_, err := m.Connect(context.Background())
	assert.ErrorIs(t, err, chainerr.ErrNetworkMismatch, "the chain is re-verified after switching")
}

func TestResumeSilent(t *testing.T) {
	provider := newFakeProvider(11155111)
	provider.authorized = []common.Address{testAccount}
	m := NewManager(provider, sepoliaTarget(), nil)
	defer m.Close()

	session, err := m.Resume(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, testAccount, session.Account)
}

func TestResumeImpossibleIsNotAnError(t *testing.T) {
	cases := map[string]*Manager{
		"nil provider":  NewManager(nil, sepoliaTarget(), nil),
		"no authorized": NewManager(newFakeProvider(11155111), sepoliaTarget(), nil),
	}
	wrongChain := newFakeProvider(1)
	wrongChain.authorized = []common.Address{testAccount}
	cases["wrong chain"] = NewManager(wrongChain, sepoliaTarget(), nil)

	for name, m := range cases {
		session, err := m.Resume(context.Background())
		assert.NoError(t, err, name)
		assert.Nil(t, session, name)
		m.Close()
	}
}

func waitForSession(t *testing.T, m *Manager, want func(*testing.T) bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if want(t) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not reached before deadline")
}

func TestEmptyAccountsEventClearsSession(t *testing.T) {
	provider := newFakeProvider(11155111)
	provider.requested = []common.Address{testAccount}
	m := NewManager(provider, sepoliaTarget(), nil)
	defer m.Close()

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	provider.push(Event{Type: EventAccountsChanged})
	waitForSession(t, m, func(*testing.T) bool { return m.GetSession() == nil })
}

func TestAccountsChangedRebindsFirstAccount(t *testing.T) {
	provider := newFakeProvider(11155111)
	provider.requested = []common.Address{testAccount}
	m := NewManager(provider, sepoliaTarget(), nil)
	defer m.Close()

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	provider.push(Event{Type: EventAccountsChanged, Accounts: []common.Address{otherAcct, testAccount}})
	waitForSession(t, m, func(*testing.T) bool {
		session := m.GetSession()
		return session != nil && session.Account == otherAcct
	})
}

func TestChainChangedInvalidatesSession(t *testing.T) {
	provider := newFakeProvider(11155111)
	provider.requested = []common.Address{testAccount}
	m := NewManager(provider, sepoliaTarget(), nil)
	defer m.Close()

	_, err := m.Connect(context.Background())
	require.NoError(t, err)

	provider.push(Event{Type: EventChainChanged, ChainID: big.NewInt(1)})
	waitForSession(t, m, func(*testing.T) bool { return m.GetSession() == nil })
}

func TestSubmitterRequiresSession(t *testing.T) {
	provider := newFakeProvider(11155111)
	m := NewManager(provider, sepoliaTarget(), nil)
	defer m.Close()

	_, err := m.Submitter()
	assert.ErrorIs(t, err, chainerr.ErrWalletUnavailable)
}
