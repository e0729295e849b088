package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/attestkit/attestkit/pkg/config"
	"github.com/attestkit/attestkit/pkg/logger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

// Wallet-side JSON-RPC rejection codes (EIP-1193 / EIP-3085)
const (
	codeUserRejected      = 4001
	codeUnrecognizedChain = 4902
)

const defaultPollInterval = 4 * time.Second

// RPCProvider speaks the wallet JSON-RPC surface over a go-ethereum rpc client.
// Chain and account changes are detected by polling, since plain RPC transports
// have no push channel for wallet events.
type RPCProvider struct {
	mu           sync.RWMutex
	client       *rpc.Client
	limiter      *rate.Limiter
	handlers     map[uint64]Handler
	nextHandler  uint64
	pollInterval time.Duration
	stop         chan struct{}
	stopOnce     sync.Once

	lastChainID  int64
	lastAccounts []common.Address
}

// DialRPC connects to a wallet RPC endpoint. ratePerSecond caps outbound
// calls; 0 disables limiting.
func DialRPC(ctx context.Context, rawurl string, ratePerSecond float64) (*RPCProvider, error) {
	client, err := rpc.DialContext(ctx, rawurl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to provider RPC: %w", err)
	}

	var limiter *rate.Limiter
	if ratePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSecond), 1)
	}

	p := &RPCProvider{
		client:       client,
		limiter:      limiter,
		handlers:     make(map[uint64]Handler),
		pollInterval: defaultPollInterval,
		stop:         make(chan struct{}),
	}

	go p.pollLoop()

	logger.InfoCF("provider", "Connected to provider", map[string]any{
		"url": rawurl,
	})

	return p, nil
}

// RequestAccounts prompts the wallet for account access
func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	var raw []string
	if err := p.client.CallContext(ctx, &raw, "eth_requestAccounts"); err != nil {
		return nil, translateErr(err)
	}

	accounts := make([]common.Address, 0, len(raw))
	for _, a := range raw {
		accounts = append(accounts, common.HexToAddress(a))
	}

	p.mu.Lock()
	p.lastAccounts = accounts
	p.mu.Unlock()

	return accounts, nil
}

// ChainID queries the wallet's current chain
func (p *RPCProvider) ChainID(ctx context.Context) (int64, error) {
	if err := p.wait(ctx); err != nil {
		return 0, err
	}

	var raw hexutil.Big
	if err := p.client.CallContext(ctx, &raw, "eth_chainId"); err != nil {
		return 0, translateErr(err)
	}

	id := raw.ToInt().Int64()

	p.mu.Lock()
	p.lastChainID = id
	p.mu.Unlock()

	return id, nil
}

// SwitchChain asks the wallet to move to the given chain
func (p *RPCProvider) SwitchChain(ctx context.Context, chainID int64) error {
	if err := p.wait(ctx); err != nil {
		return err
	}

	param := map[string]string{
		"chainId": hexutil.EncodeUint64(uint64(chainID)),
	}
	if err := p.client.CallContext(ctx, nil, "wallet_switchEthereumChain", param); err != nil {
		return translateErr(err)
	}
	return nil
}

// AddChain registers the chain descriptor with the wallet
func (p *RPCProvider) AddChain(ctx context.Context, chain *config.ChainConfig) error {
	if err := p.wait(ctx); err != nil {
		return err
	}

	param := map[string]any{
		"chainId":   hexutil.EncodeUint64(uint64(chain.ChainID)),
		"chainName": chain.Name,
		"rpcUrls":   chain.RPCURLs,
		"nativeCurrency": map[string]any{
			"name":     chain.Currency.Name,
			"symbol":   chain.Currency.Symbol,
			"decimals": chain.Currency.Decimals,
		},
	}
	if chain.Explorer != "" {
		param["blockExplorerUrls"] = []string{chain.Explorer}
	}

	if err := p.client.CallContext(ctx, nil, "wallet_addEthereumChain", param); err != nil {
		return translateErr(err)
	}
	return nil
}

// Subscribe registers a notification handler
func (p *RPCProvider) Subscribe(h Handler) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextHandler
	p.nextHandler++
	p.handlers[id] = h

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.handlers, id)
	}
}

// Close stops the poll loop and releases the RPC connection
func (p *RPCProvider) Close() {
	p.stopOnce.Do(func() {
		close(p.stop)
		p.client.Close()
	})
}

func (p *RPCProvider) wait(ctx context.Context) error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// pollLoop watches for wallet-side chain and account changes and fans them
// out to subscribed handlers.
func (p *RPCProvider) pollLoop() {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.pollOnce()
		}
	}
}

func (p *RPCProvider) pollOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), p.pollInterval)
	defer cancel()

	var rawChain hexutil.Big
	if err := p.client.CallContext(ctx, &rawChain, "eth_chainId"); err != nil {
		logger.DebugCF("provider", "Chain poll failed", map[string]any{"error": err.Error()})
		return
	}
	chainID := rawChain.ToInt().Int64()

	var rawAccounts []string
	if err := p.client.CallContext(ctx, &rawAccounts, "eth_accounts"); err != nil {
		logger.DebugCF("provider", "Accounts poll failed", map[string]any{"error": err.Error()})
		return
	}
	accounts := make([]common.Address, 0, len(rawAccounts))
	for _, a := range rawAccounts {
		accounts = append(accounts, common.HexToAddress(a))
	}

	p.mu.Lock()
	chainChanged := p.lastChainID != 0 && chainID != p.lastChainID
	accountsChanged := !sameAccounts(p.lastAccounts, accounts)
	p.lastChainID = chainID
	if accountsChanged {
		p.lastAccounts = accounts
	}
	handlers := make([]Handler, 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	p.mu.Unlock()

	for _, h := range handlers {
		if chainChanged && h.ChainChanged != nil {
			h.ChainChanged(chainID)
		}
		if accountsChanged && h.AccountsChanged != nil {
			h.AccountsChanged(accounts)
		}
	}
}

func sameAccounts(a, b []common.Address) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// translateErr maps wallet JSON-RPC rejection codes onto the provider error
// taxonomy, keeping the original message for the log surface.
func translateErr(err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.ErrorCode() {
		case codeUserRejected:
			return fmt.Errorf("%w: %s", ErrUserRejected, rpcErr.Error())
		case codeUnrecognizedChain:
			return fmt.Errorf("%w: %s", ErrUnrecognizedChain, rpcErr.Error())
		}
	}
	return err
}
