package provider

import (
	"context"
	"errors"

	"github.com/attestkit/attestkit/pkg/config"
	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrUserRejected is returned when the user declines a wallet prompt
	ErrUserRejected = errors.New("user rejected the request")

	// ErrUnrecognizedChain is returned when the wallet does not know the
	// requested chain and needs an add-chain request first
	ErrUnrecognizedChain = errors.New("unrecognized chain")
)

// Handler receives out-of-band wallet notifications. Either callback may be
// nil. Callbacks run on the provider's dispatch goroutine.
type Handler struct {
	ChainChanged    func(chainID int64)
	AccountsChanged func(accounts []common.Address)
}

// Provider is the capability surface of a chain-capable wallet. Implementations
// map wallet-side rejections onto ErrUserRejected and ErrUnrecognizedChain so
// callers can branch without knowing transport error codes.
type Provider interface {
	// RequestAccounts asks the wallet for authorized accounts, prompting the
	// user if needed. The call blocks until the prompt resolves.
	RequestAccounts(ctx context.Context) ([]common.Address, error)

	// ChainID reports the chain the wallet is currently on
	ChainID(ctx context.Context) (int64, error)

	// SwitchChain asks the wallet to move to the given chain
	SwitchChain(ctx context.Context, chainID int64) error

	// AddChain registers a chain descriptor with the wallet
	AddChain(ctx context.Context, chain *config.ChainConfig) error

	// Subscribe registers a notification handler and returns its release
	// function. Handlers stay registered until released.
	Subscribe(h Handler) (unsubscribe func())
}
