package wallet

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/RonShih/onchainfund-platform/internal/chain"
	"github.com/RonShih/onchainfund-platform/internal/chainerr"
)

// KeystoreProvider implements Provider on top of a local encrypted
// keystore directory. The keystore plays the injected wallet's role:
// key files are the authorized accounts, the passphrase is the
// authorization prompt, and a registry of network definitions backs the
// chain switch/registration requests.
type KeystoreProvider struct {
	ks         *keystore.KeyStore
	passphrase string
	logger     *zap.Logger

	mu       sync.RWMutex
	client   *chain.Client
	active   NetworkParams
	networks map[uint64]NetworkParams

	subMu       sync.Mutex
	subscribers map[int]chan<- Event
	nextSubID   int
	watchOnce   sync.Once
	watchStop   chan struct{}
}

// NewKeystoreProvider opens the keystore directory and dials the
// initial network.
func NewKeystoreProvider(ctx context.Context, keystoreDir, passphrase string, initial NetworkParams, logger *zap.Logger) (*KeystoreProvider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if initial.ChainID == nil || initial.RPCURL == "" {
		return nil, fmt.Errorf("initial network requires chain id and rpc url")
	}

	client, err := chain.NewClient(ctx, initial.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", initial.RPCURL, err)
	}

	provider := &KeystoreProvider{
		ks:          keystore.NewKeyStore(keystoreDir, keystore.StandardScryptN, keystore.StandardScryptP),
		passphrase:  passphrase,
		logger:      logger,
		client:      client,
		active:      initial,
		networks:    map[uint64]NetworkParams{initial.ChainID.Uint64(): initial},
		subscribers: make(map[int]chan<- Event),
		watchStop:   make(chan struct{}),
	}
	return provider, nil
}

// Close tears down the RPC client and the keystore watcher.
func (p *KeystoreProvider) Close() {
	close(p.watchStop)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Close()
	}
}

// Accounts lists the keystore's accounts without unlocking anything.
func (p *KeystoreProvider) Accounts(_ context.Context) ([]common.Address, error) {
	list := p.ks.Accounts()
	addrs := make([]common.Address, 0, len(list))
	for _, account := range list {
		addrs = append(addrs, account.Address)
	}
	return addrs, nil
}

// RequestAccounts unlocks the first keystore account with the
// configured passphrase. A missing or wrong passphrase is the keystore
// equivalent of a dismissed authorization prompt.
func (p *KeystoreProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	list := p.ks.Accounts()
	if len(list) == 0 {
		return nil, fmt.Errorf("keystore has no accounts: %w", chainerr.ErrUserRejected)
	}
	if err := p.ks.Unlock(list[0], p.passphrase); err != nil {
		return nil, fmt.Errorf("unlock %s: %w", list[0].Address.Hex(), chainerr.ErrUserRejected)
	}
	return p.accountsLocked(), nil
}

func (p *KeystoreProvider) accountsLocked() []common.Address {
	list := p.ks.Accounts()
	addrs := make([]common.Address, 0, len(list))
	for _, account := range list {
		addrs = append(addrs, account.Address)
	}
	return addrs
}

// ChainID queries the active endpoint for its chain ID.
func (p *KeystoreProvider) ChainID(ctx context.Context) (*big.Int, error) {
	p.mu.RLock()
	client := p.client
	p.mu.RUnlock()
	return client.ChainID(ctx)
}

// SwitchChain re-dials the endpoint registered for chainID and emits a
// chainChanged event.
func (p *KeystoreProvider) SwitchChain(ctx context.Context, chainID *big.Int) error {
	p.mu.Lock()
	params, ok := p.networks[chainID.Uint64()]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("chain %s: %w", chainID, chainerr.ErrUnknownChain)
	}
	if p.active.ChainID != nil && p.active.ChainID.Cmp(chainID) == 0 {
		p.mu.Unlock()
		return nil
	}

	client, err := chain.NewClient(ctx, params.RPCURL)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("dial %s: %w", params.RPCURL, err)
	}
	old := p.client
	p.client = client
	p.active = params
	p.mu.Unlock()

	if old != nil {
		old.Close()
	}

	p.logger.Info("switched chain", zap.String("chain_id", chainID.String()), zap.String("network", params.Name))
	p.publish(Event{Type: EventChainChanged, ChainID: new(big.Int).Set(chainID)})
	return nil
}

// AddChain registers a network definition for later switching.
func (p *KeystoreProvider) AddChain(_ context.Context, params NetworkParams) error {
	if params.ChainID == nil || params.RPCURL == "" {
		return fmt.Errorf("network params require chain id and rpc url")
	}
	p.mu.Lock()
	p.networks[params.ChainID.Uint64()] = params
	p.mu.Unlock()
	return nil
}

// Backend returns the RPC client for the active chain.
func (p *KeystoreProvider) Backend() *chain.Client {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

// SignerFn returns a signing function backed by the keystore.
func (p *KeystoreProvider) SignerFn(chainID *big.Int) chain.SignerFn {
	return func(addr common.Address, tx *types.Transaction) (*types.Transaction, error) {
		return p.ks.SignTx(accounts.Account{Address: addr}, tx, chainID)
	}
}

// Subscribe registers a push-event channel. The keystore's own wallet
// events (key files added or removed) are translated into
// accountsChanged notifications.
func (p *KeystoreProvider) Subscribe(ch chan<- Event) func() {
	p.watchOnce.Do(p.startWatcher)

	p.subMu.Lock()
	id := p.nextSubID
	p.nextSubID++
	p.subscribers[id] = ch
	p.subMu.Unlock()

	return func() {
		p.subMu.Lock()
		delete(p.subscribers, id)
		p.subMu.Unlock()
	}
}

func (p *KeystoreProvider) startWatcher() {
	sink := make(chan accounts.WalletEvent, 16)
	sub := p.ks.Subscribe(sink)

	go func() {
		defer sub.Unsubscribe()
		for {
			select {
			case <-p.watchStop:
				return
			case err := <-sub.Err():
				if err != nil {
					p.logger.Warn("keystore subscription failed", zap.Error(err))
				}
				return
			case <-sink:
				p.publish(Event{Type: EventAccountsChanged, Accounts: p.accountsLocked()})
			}
		}
	}()
}

func (p *KeystoreProvider) publish(event Event) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	for _, ch := range p.subscribers {
		select {
		case ch <- event:
		default:
			// A stalled subscriber must not block wallet callbacks.
		}
	}
}
