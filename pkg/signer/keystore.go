package signer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/attestkit/attestkit/pkg/logger"
	"github.com/attestkit/attestkit/pkg/registry"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrNoKey is returned when no key has been created yet
	ErrNoKey = errors.New("no signing key created yet")

	// ErrKeyExists is returned when trying to create a duplicate key
	ErrKeyExists = errors.New("signing key already exists")

	// ErrBadPassphrase is returned when the passphrase does not unlock the key
	ErrBadPassphrase = errors.New("invalid passphrase")
)

// Keystore wraps an encrypted on-disk key for the CLI write path
type Keystore struct {
	dir string
	ks  *keystore.KeyStore
}

// New opens (or creates) a keystore directory with standard scrypt parameters
func New(dir string) *Keystore {
	return newWithScrypt(dir, keystore.StandardScryptN, keystore.StandardScryptP)
}

func newWithScrypt(dir string, scryptN, scryptP int) *Keystore {
	os.MkdirAll(dir, 0o700)
	return &Keystore{
		dir: dir,
		ks:  keystore.NewKeyStore(dir, scryptN, scryptP),
	}
}

// Exists reports whether a key has been created
func (k *Keystore) Exists() bool {
	return len(k.ks.Accounts()) > 0
}

// Create generates a new encrypted key
func (k *Keystore) Create(passphrase string) (common.Address, error) {
	if k.Exists() {
		return common.Address{}, ErrKeyExists
	}

	account, err := k.ks.NewAccount(passphrase)
	if err != nil {
		return common.Address{}, fmt.Errorf("keystore operation failed: %w", err)
	}

	logger.InfoCF("signer", "Signing key created", map[string]any{
		"address": account.Address.Hex(),
	})

	return account.Address, nil
}

// Address returns the signing address
func (k *Keystore) Address() (common.Address, error) {
	accts := k.ks.Accounts()
	if len(accts) == 0 {
		return common.Address{}, ErrNoKey
	}
	return accts[0].Address, nil
}

// Unlock decrypts the key for signing
func (k *Keystore) Unlock(passphrase string) error {
	accts := k.ks.Accounts()
	if len(accts) == 0 {
		return ErrNoKey
	}
	if err := k.ks.Unlock(accts[0], passphrase); err != nil {
		return ErrBadPassphrase
	}
	return nil
}

// Lock re-encrypts the key
func (k *Keystore) Lock() error {
	accts := k.ks.Accounts()
	if len(accts) == 0 {
		return ErrNoKey
	}
	return k.ks.Lock(accts[0].Address)
}

// SignerFunc returns a transaction signer bound to the stored key. The key
// must be unlocked while the returned function is used.
func (k *Keystore) SignerFunc() registry.SignerFunc {
	return func(ctx context.Context, chainID int64, tx *types.Transaction) (*types.Transaction, error) {
		addr, err := k.Address()
		if err != nil {
			return nil, err
		}
		return k.ks.SignTx(
			accounts.Account{Address: addr},
			tx,
			big.NewInt(chainID),
		)
	}
}
