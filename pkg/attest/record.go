package attest

import (
	"github.com/ethereum/go-ethereum/common"
)

// Status reports whether an attestation is still in force
type Status string

const (
	StatusValid   Status = "Valid"
	StatusRevoked Status = "Revoked"
)

// UnknownIssuedOn is the display sentinel for a missing issuance timestamp
const UnknownIssuedOn = "Unknown"

// NoDataSentinel is the canonical empty payload
const NoDataSentinel = "0x"

// Record is a raw on-chain attestation as returned by a fetch collaborator.
// The decoder treats it as read-only.
type Record struct {
	UID            common.Hash
	SchemaUID      common.Hash
	Recipient      common.Address
	Attester       common.Address
	RefUID         common.Hash
	Time           uint64
	ExpirationTime uint64
	RevocationTime uint64
	Revocable      bool
	Data           []byte
}

// Field is one decoded payload value, rendered for display
type Field struct {
	Name  string
	Value string
}

// Decoded is the display-ready form of a record. It is immutable once built:
// every failure mode still yields a complete value with RawPayloadHex set, so
// callers always have something to render.
type Decoded struct {
	SchemaString    string
	Fields          []Field
	RawPayloadHex   string
	Status          Status
	IssuedOnDisplay string
}

// Get returns the display value for a named field
func (d *Decoded) Get(name string) (string, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}
