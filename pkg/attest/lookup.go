package attest

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// SchemaInfo is the well-formed shape of a schema registry entry
type SchemaInfo struct {
	UID       common.Hash
	Resolver  common.Address
	Revocable bool
	Schema    string
}

// LookupResult is a tagged union over the shapes schema-lookup collaborators
// actually return: a named record when the SDK gives one, or a bag of
// positional values when it hands back an array-like structure. Exactly one
// side is populated; normalization happens once here, at the boundary.
type LookupResult struct {
	Named  *SchemaInfo
	Values []any
}

// LookupFunc resolves a schema UID to its registry entry
type LookupFunc func(ctx context.Context, schemaUID common.Hash) (LookupResult, error)
