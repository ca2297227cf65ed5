package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"go.uber.org/zap"

	"github.com/RonShih/onchainfund-platform/internal/chain"
	"github.com/RonShih/onchainfund-platform/internal/chainerr"
	"github.com/RonShih/onchainfund-platform/internal/model"
)

// Manager owns the wallet session lifecycle: connect, silent resume,
// and reaction to pushed account/chain changes. The provider is an
// injected capability; the manager never reaches for ambient state.
type Manager struct {
	provider Provider
	target   NetworkParams
	logger   *zap.Logger

	mu      sync.RWMutex
	session *model.Session

	subOnce sync.Once
	unsub   func()
	done    chan struct{}
}

// NewManager builds a session manager for the required target network.
// provider may be nil; Connect will report the wallet as unavailable.
func NewManager(provider Provider, target NetworkParams, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		provider: provider,
		target:   target,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Connect requests account authorization and ensures the active chain
// is the target network, attempting one automatic switch (registering
// the network first if the provider does not know it). On success the
// session is stored and returned.
func (m *Manager) Connect(ctx context.Context) (*model.Session, error) {
	if m.provider == nil {
		return nil, chainerr.ErrWalletUnavailable
	}
	if _, ok := m.provider.(TransactionSigner); !ok {
		return nil, chainerr.ErrWalletIncompatible
	}

	accounts, err := m.provider.RequestAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, chainerr.ErrUserRejected
	}

	if err := m.ensureChain(ctx); err != nil {
		return nil, err
	}

	session := &model.Session{
		Account: accounts[0],
		ChainID: new(big.Int).Set(m.target.ChainID),
	}
	m.mu.Lock()
	m.session = session
	m.mu.Unlock()

	m.subscribeOnce()

	m.logger.Info("wallet connected",
		zap.String("account", session.Account.Hex()),
		zap.String("chain_id", session.ChainID.String()),
	)
	return session, nil
}

// Resume re-establishes a session without prompting, using accounts the
// provider already lists as authorized. It returns (nil, nil) when no
// silent reconnect is possible.
func (m *Manager) Resume(ctx context.Context) (*model.Session, error) {
	if m.provider == nil {
		return nil, nil
	}
	if _, ok := m.provider.(TransactionSigner); !ok {
		return nil, nil
	}

	accounts, err := m.provider.Accounts(ctx)
	if err != nil || len(accounts) == 0 {
		return nil, nil
	}

	chainID, err := m.provider.ChainID(ctx)
	if err != nil || chainID.Cmp(m.target.ChainID) != 0 {
		return nil, nil
	}

	session := &model.Session{
		Account: accounts[0],
		ChainID: new(big.Int).Set(chainID),
	}
	m.mu.Lock()
	m.session = session
	m.mu.Unlock()

	m.subscribeOnce()
	return session, nil
}

// ensureChain checks the provider's active chain against the target,
// switching (and registering the network first when unknown) when they
// differ.
func (m *Manager) ensureChain(ctx context.Context) error {
	chainID, err := m.provider.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("query chain id: %w", err)
	}
	if chainID.Cmp(m.target.ChainID) == 0 {
		return nil
	}

	switchErr := m.provider.SwitchChain(ctx, m.target.ChainID)
	if switchErr != nil {
		if !isUnknownChain(switchErr) {
			return fmt.Errorf("%w: %v", chainerr.ErrNetworkMismatch, switchErr)
		}
		if err := m.provider.AddChain(ctx, m.target); err != nil {
			return fmt.Errorf("%w: register network: %v", chainerr.ErrNetworkMismatch, err)
		}
		if err := m.provider.SwitchChain(ctx, m.target.ChainID); err != nil {
			return fmt.Errorf("%w: %v", chainerr.ErrNetworkMismatch, err)
		}
	}

	chainID, err = m.provider.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("query chain id: %w", err)
	}
	if chainID.Cmp(m.target.ChainID) != 0 {
		return chainerr.ErrNetworkMismatch
	}
	return nil
}

// GetSession returns the current session or nil.
func (m *Manager) GetSession() *model.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Backend returns the provider's RPC client.
func (m *Manager) Backend() *chain.Client {
	if m.provider == nil {
		return nil
	}
	return m.provider.Backend()
}

// SignerFn returns a signing function for the session's chain, or nil
// when there is no session.
func (m *Manager) SignerFn() chain.SignerFn {
	session := m.GetSession()
	if session == nil {
		return nil
	}
	signer, ok := m.provider.(TransactionSigner)
	if !ok {
		return nil
	}
	return signer.SignerFn(session.ChainID)
}

// Submitter builds a transaction submitter for the current session, or
// an error when no session is active.
func (m *Manager) Submitter() (*chain.Submitter, error) {
	session := m.GetSession()
	if session == nil {
		return nil, chainerr.ErrWalletUnavailable
	}
	sign := m.SignerFn()
	if sign == nil {
		return nil, chainerr.ErrWalletIncompatible
	}
	return chain.NewSubmitter(m.Backend(), session.Account, session.ChainID, sign, m.logger), nil
}

// Close stops event handling. The provider itself is owned by the
// caller.
func (m *Manager) Close() {
	close(m.done)
	if m.unsub != nil {
		m.unsub()
	}
}

func (m *Manager) subscribeOnce() {
	m.subOnce.Do(func() {
		ch := make(chan Event, 8)
		m.unsub = m.provider.Subscribe(ch)
		go m.handleEvents(ch)
	})
}

// handleEvents applies pushed wallet changes: an empty account list
// clears the session, a non-empty one rebinds to the first account, and
// any chain change invalidates the session outright. Continuing with a
// stale signer on the wrong chain is unsafe, so a chain change always
// forces a re-connect.
func (m *Manager) handleEvents(ch <-chan Event) {
	for {
		select {
		case <-m.done:
			return
		case event := <-ch:
			switch event.Type {
			case EventAccountsChanged:
				m.mu.Lock()
				if len(event.Accounts) == 0 {
					m.session = nil
					m.logger.Warn("wallet disconnected")
				} else if m.session != nil && m.session.Account != event.Accounts[0] {
					m.session = &model.Session{
						Account: event.Accounts[0],
						ChainID: new(big.Int).Set(m.session.ChainID),
					}
					m.logger.Info("account changed", zap.String("account", event.Accounts[0].Hex()))
				}
				m.mu.Unlock()
			case EventChainChanged:
				m.mu.Lock()
				if m.session != nil && (event.ChainID == nil || event.ChainID.Cmp(m.session.ChainID) != 0) {
					m.session = nil
					m.logger.Warn("chain changed, session invalidated",
						zap.String("chain_id", eventChainString(event)))
				}
				m.mu.Unlock()
			}
		}
	}
}

func eventChainString(event Event) string {
	if event.ChainID == nil {
		return "unknown"
	}
	return event.ChainID.String()
}

func isUnknownChain(err error) bool {
	return errors.Is(err, chainerr.ErrUnknownChain)
}
