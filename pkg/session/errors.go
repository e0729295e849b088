package session

import "errors"

var (
	// ErrProviderUnavailable is returned when no chain provider was injected
	ErrProviderUnavailable = errors.New("no chain provider available")

	// ErrNoAccounts is returned when the provider authorizes zero accounts
	ErrNoAccounts = errors.New("provider returned no accounts")

	// ErrTimeout is returned when a configured timeout expires while waiting
	// on a wallet prompt
	ErrTimeout = errors.New("wallet request timed out")

	// ErrClosed is returned for operations on a closed session
	ErrClosed = errors.New("session closed")
)
