package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/attestkit/attestkit/pkg/config"
	"github.com/attestkit/attestkit/pkg/logger"
	"github.com/attestkit/attestkit/pkg/provider"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// Status is the derived connection state of a session
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnected    Status = "connected"
	StatusWrongNetwork Status = "wrong_network"
)

// Session manages exactly one logical connection to a chain-capable wallet
// and keeps its network-compatibility flag accurate. All provider rejections
// are caught at the boundary and surfaced via LastError; no failure leaves
// the session unusable.
type Session struct {
	provider provider.Provider
	chain    *config.ChainConfig
	timeout  time.Duration

	mu       sync.Mutex
	account  *common.Address
	chainID  int64
	hasChain bool
	lastErr  string
	inflight *attempt
	closed   bool

	unsubscribe func()
}

// attempt is one in-flight connect handshake. Late Connect callers wait on
// done and share the result instead of racing a second wallet prompt.
type attempt struct {
	done chan struct{}
	err  error
}

type Option func(*Session)

// WithTimeout bounds each wallet-prompt await. Without it a hung prompt
// blocks the operation indefinitely.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.timeout = d
	}
}

// New creates a session bound to the given provider and target chain. The
// change-notification subscription is established once here and released by
// Close.
func New(p provider.Provider, chain *config.ChainConfig, opts ...Option) *Session {
	s := &Session{
		provider: p,
		chain:    chain,
	}
	for _, opt := range opts {
		opt(s)
	}

	if p != nil {
		s.unsubscribe = p.Subscribe(provider.Handler{
			ChainChanged:    s.onChainChanged,
			AccountsChanged: s.onAccountsChanged,
		})
	}

	return s
}

// Close releases the notification subscription. The session refuses further
// connects afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	unsub := s.unsubscribe
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Connect requests account access and snapshots the wallet's chain.
// Overlapping calls are serialized: a call arriving while a handshake is in
// flight waits for that handshake and returns its result.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.provider == nil {
		s.lastErr = ErrProviderUnavailable.Error()
		s.mu.Unlock()
		return ErrProviderUnavailable
	}
	if att := s.inflight; att != nil {
		s.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-att.done:
			return att.err
		}
	}
	att := &attempt{done: make(chan struct{})}
	s.inflight = att
	s.mu.Unlock()

	att.err = s.handshake(ctx)

	s.mu.Lock()
	s.inflight = nil
	s.mu.Unlock()
	close(att.done)

	return att.err
}

func (s *Session) handshake(ctx context.Context) error {
	attemptID := uuid.NewString()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	accounts, err := s.provider.RequestAccounts(ctx)
	if err != nil {
		return s.fail("connect", attemptID, err)
	}
	if len(accounts) == 0 {
		return s.fail("connect", attemptID, ErrNoAccounts)
	}

	chainID, err := s.provider.ChainID(ctx)
	if err != nil {
		return s.fail("connect", attemptID, err)
	}

	account := accounts[0]

	s.mu.Lock()
	s.account = &account
	s.chainID = chainID
	s.hasChain = true
	s.lastErr = ""
	status := s.statusLocked()
	s.mu.Unlock()

	logger.InfoCF("session", "Wallet connected", map[string]any{
		"attempt": attemptID,
		"account": account.Hex(),
		"chainId": chainID,
		"status":  string(status),
	})

	return nil
}

// Disconnect clears the cached account and chain snapshot. It is idempotent
// and performs no network I/O.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.account = nil
	s.chainID = 0
	s.hasChain = false
	s.lastErr = ""
	s.mu.Unlock()

	logger.InfoCF("session", "Wallet disconnected", nil)
}

// SwitchNetwork asks the provider to move to the target chain. If the
// provider does not know the chain, the full configured descriptor is added
// first and the switch retried. Account and chain state are not touched
// here; updates arrive through change notifications.
func (s *Session) SwitchNetwork(ctx context.Context) error {
	s.mu.Lock()
	if s.provider == nil {
		s.lastErr = ErrProviderUnavailable.Error()
		s.mu.Unlock()
		return ErrProviderUnavailable
	}
	s.mu.Unlock()

	err := s.provider.SwitchChain(ctx, s.chain.ChainID)
	if errors.Is(err, provider.ErrUnrecognizedChain) {
		logger.InfoCF("session", "Target chain unknown to wallet, requesting add", map[string]any{
			"chain":   s.chain.Name,
			"chainId": s.chain.ChainID,
		})
		if err = s.provider.AddChain(ctx, s.chain); err == nil {
			err = s.provider.SwitchChain(ctx, s.chain.ChainID)
		}
	}
	if err != nil {
		return s.fail("switch", "", err)
	}

	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()

	return nil
}

// Status derives the connection state. WrongNetwork holds exactly when an
// account is set and the last-known chain differs from the target.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	if s.account == nil {
		return StatusDisconnected
	}
	if s.hasChain && s.chainID != s.chain.ChainID {
		return StatusWrongNetwork
	}
	return StatusConnected
}

// Account returns the connected account, if any
func (s *Session) Account() (common.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.account == nil {
		return common.Address{}, false
	}
	return *s.account, true
}

// ChainID returns the last-known wallet chain, if any
func (s *Session) ChainID() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chainID, s.hasChain
}

// LastError returns the most recent failure message, empty after a
// successful transition
func (s *Session) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// onChainChanged re-evaluates the network flag against the delivered chain
// without re-requesting account access.
func (s *Session) onChainChanged(chainID int64) {
	s.mu.Lock()
	s.chainID = chainID
	s.hasChain = true
	if s.account != nil && chainID == s.chain.ChainID {
		s.lastErr = ""
	}
	status := s.statusLocked()
	s.mu.Unlock()

	logger.InfoCF("session", "Chain changed", map[string]any{
		"chainId": chainID,
		"status":  string(status),
	})
}

// onAccountsChanged treats an empty account list as a wallet-side disconnect
// and refreshes the handshake otherwise.
func (s *Session) onAccountsChanged(accounts []common.Address) {
	if len(accounts) == 0 {
		s.Disconnect()
		return
	}

	if err := s.Connect(context.Background()); err != nil {
		logger.WarnCF("session", "Account refresh failed", map[string]any{
			"error": err.Error(),
		})
	}
}

func (s *Session) fail(op, attemptID string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()

	fields := map[string]any{
		"op":    op,
		"error": err.Error(),
	}
	if attemptID != "" {
		fields["attempt"] = attemptID
	}
	logger.WarnCF("session", "Wallet request failed", fields)

	return err
}
