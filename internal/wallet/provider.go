// Package wallet manages the wallet session: an injected provider
// capability, account authorization, chain checks, and push-driven
// account/chain change handling.
package wallet

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/RonShih/onchainfund-platform/internal/chain"
)

// EventType identifies a provider push notification.
type EventType string

const (
	// EventAccountsChanged fires when the authorized account list
	// changes. An empty account list means the wallet disconnected.
	EventAccountsChanged EventType = "accountsChanged"
	// EventChainChanged fires when the provider's active chain changes.
	EventChainChanged EventType = "chainChanged"
)

// Event is one push notification from a provider.
type Event struct {
	Type     EventType
	Accounts []common.Address
	ChainID  *big.Int
}

// NetworkParams describes a chain a provider can be switched to.
type NetworkParams struct {
	ChainID        *big.Int
	Name           string
	RPCURL         string
	ExplorerURL    string
	CurrencyName   string
	CurrencySymbol string
}

// Provider is the wallet capability injected into the session manager.
// It mirrors the request/response-plus-subscriptions wallet interface:
// account listing and authorization, chain query/switch/registration,
// and push events. Implementations that can also sign transactions
// additionally satisfy TransactionSigner; ones that cannot are rejected
// at connect time.
type Provider interface {
	// Accounts lists already-authorized accounts without prompting.
	Accounts(ctx context.Context) ([]common.Address, error)

	// RequestAccounts asks for account authorization. It returns
	// chainerr.ErrUserRejected when authorization is declined.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// ChainID returns the provider's active chain.
	ChainID(ctx context.Context) (*big.Int, error)

	// SwitchChain activates a registered chain. It returns
	// chainerr.ErrUnknownChain for chains the provider has no network
	// definition for.
	SwitchChain(ctx context.Context, chainID *big.Int) error

	// AddChain registers a network definition so a later SwitchChain
	// can activate it.
	AddChain(ctx context.Context, params NetworkParams) error

	// Backend returns the read/write RPC client for the active chain,
	// or nil for providers without one.
	Backend() *chain.Client

	// Subscribe registers a push-event channel and returns an
	// unsubscribe function.
	Subscribe(ch chan<- Event) (unsubscribe func())
}

// TransactionSigner is the extra capability a provider needs for any
// mutating operation.
type TransactionSigner interface {
	// SignerFn returns a signing function bound to chainID.
	SignerFn(chainID *big.Int) chain.SignerFn
}
