package signer

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
)

// light scrypt parameters keep key generation fast in tests
func newTestKeystore(t *testing.T) *Keystore {
	t.Helper()
	return newWithScrypt(t.TempDir(), keystore.LightScryptN, keystore.LightScryptP)
}

func TestCreateAndAddress(t *testing.T) {
	ks := newTestKeystore(t)

	if ks.Exists() {
		t.Fatal("fresh keystore reports a key")
	}
	if _, err := ks.Address(); !errors.Is(err, ErrNoKey) {
		t.Fatalf("Address = %v, want ErrNoKey", err)
	}

	created, err := ks.Create("hunter2")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !ks.Exists() {
		t.Error("keystore reports no key after Create")
	}

	addr, err := ks.Address()
	if err != nil {
		t.Fatalf("Address: %v", err)
	}
	if addr != created {
		t.Errorf("Address = %s, want %s", addr.Hex(), created.Hex())
	}

	if _, err := ks.Create("again"); !errors.Is(err, ErrKeyExists) {
		t.Errorf("second Create = %v, want ErrKeyExists", err)
	}
}

func TestUnlock(t *testing.T) {
	ks := newTestKeystore(t)
	if _, err := ks.Create("hunter2"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := ks.Unlock("wrong"); !errors.Is(err, ErrBadPassphrase) {
		t.Errorf("Unlock(wrong) = %v, want ErrBadPassphrase", err)
	}
	if err := ks.Unlock("hunter2"); err != nil {
		t.Errorf("Unlock: %v", err)
	}
	if err := ks.Lock(); err != nil {
		t.Errorf("Lock: %v", err)
	}
}
