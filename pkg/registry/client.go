package registry

import (
	"context"
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"time"

	"github.com/attestkit/attestkit/pkg/attest"
	"github.com/attestkit/attestkit/pkg/config"
	"github.com/attestkit/attestkit/pkg/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// SignerFunc signs a prepared transaction for the given chain
type SignerFunc func(ctx context.Context, chainID int64, tx *types.Transaction) (*types.Transaction, error)

const receiptPollInterval = 2 * time.Second

// Client talks to the EAS attestation contract and its schema registry. It is
// the concrete implementation of the issuance, fetch and schema-lookup
// collaborators.
type Client struct {
	eth      *ethclient.Client
	chainID  int64
	easAddr  common.Address
	regAddr  common.Address
	easABI   abi.ABI
	regABI   abi.ABI
	sentinel common.Address
}

// NewClient connects to the chain RPC and verifies it reports the configured
// chain ID before accepting it.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, cfg.Chain.RPCURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s RPC: %w", cfg.Chain.Name, err)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("failed to get chain ID for %s: %w", cfg.Chain.Name, err)
	}
	if chainID.Int64() != cfg.Chain.ChainID {
		eth.Close()
		return nil, fmt.Errorf("chain ID mismatch: expected %d, got %d", cfg.Chain.ChainID, chainID.Int64())
	}

	easABI, err := abi.JSON(strings.NewReader(easABIJSON))
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("invalid EAS ABI: %w", err)
	}
	regABI, err := abi.JSON(strings.NewReader(schemaRegistryABIJSON))
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("invalid schema registry ABI: %w", err)
	}

	logger.InfoCF("registry", "Connected to chain", map[string]any{
		"chain":   cfg.Chain.Name,
		"chainId": cfg.Chain.ChainID,
		"eas":     cfg.Contracts.EAS,
	})

	return &Client{
		eth:      eth,
		chainID:  cfg.Chain.ChainID,
		easAddr:  common.HexToAddress(cfg.Contracts.EAS),
		regAddr:  common.HexToAddress(cfg.Contracts.SchemaRegistry),
		easABI:   easABI,
		regABI:   regABI,
		sentinel: common.HexToAddress(cfg.Contracts.NotFoundSentinel),
	}, nil
}

// Close releases the RPC connection
func (c *Client) Close() {
	c.eth.Close()
}

// rawAttestation mirrors the EAS Attestation tuple. Field names and order
// must match the ABI components for the unpack conversion to apply.
type rawAttestation struct {
	Uid            [32]byte
	Schema         [32]byte
	Time           uint64
	ExpirationTime uint64
	RevocationTime uint64
	RefUID         [32]byte
	Recipient      common.Address
	Attester       common.Address
	Revocable      bool
	Data           []byte
}

// rawSchemaRecord mirrors the SchemaRecord tuple
type rawSchemaRecord struct {
	Uid       [32]byte
	Resolver  common.Address
	Revocable bool
	Schema    string
}

// GetAttestation fetches a record by UID. A record whose recipient equals the
// configured sentinel address is reported as not found.
func (c *Client) GetAttestation(ctx context.Context, uid common.Hash) (attest.Record, error) {
	out, err := c.call(ctx, c.easABI, c.easAddr, "getAttestation", uid)
	if err != nil {
		return attest.Record{}, err
	}
	return c.recordFromOutputs(uid, out)
}

// recordFromOutputs converts a getAttestation result and applies the
// not-found sentinel.
func (c *Client) recordFromOutputs(uid common.Hash, out []any) (attest.Record, error) {
	if len(out) != 1 {
		return attest.Record{}, fmt.Errorf("unexpected getAttestation output arity %d", len(out))
	}

	raw, ok := convertTuple[rawAttestation](out[0])
	if !ok {
		return attest.Record{}, fmt.Errorf("unexpected getAttestation output shape %T", out[0])
	}

	rec := attest.Record{
		UID:            common.Hash(raw.Uid),
		SchemaUID:      common.Hash(raw.Schema),
		Recipient:      raw.Recipient,
		Attester:       raw.Attester,
		RefUID:         common.Hash(raw.RefUID),
		Time:           raw.Time,
		ExpirationTime: raw.ExpirationTime,
		RevocationTime: raw.RevocationTime,
		Revocable:      raw.Revocable,
		Data:           raw.Data,
	}

	if rec.Recipient == c.sentinel {
		return attest.Record{}, fmt.Errorf("%w: %s", attest.ErrRecordNotFound, uid.Hex())
	}

	return rec, nil
}

// GetSchema resolves a schema UID to a lookup result. When the tuple unpacks
// into the expected named shape it is returned as such; anything else is
// handed over as positional values for the decoder to scan.
func (c *Client) GetSchema(ctx context.Context, uid common.Hash) (attest.LookupResult, error) {
	out, err := c.call(ctx, c.regABI, c.regAddr, "getSchema", uid)
	if err != nil {
		return attest.LookupResult{}, err
	}
	return lookupResultFromOutputs(out), nil
}

// SchemaLookup adapts the client into the decoder's lookup capability
func (c *Client) SchemaLookup() attest.LookupFunc {
	return func(ctx context.Context, schemaUID common.Hash) (attest.LookupResult, error) {
		return c.GetSchema(ctx, schemaUID)
	}
}

// lookupResultFromOutputs normalizes whatever shape the unpack produced into
// the decoder's tagged union. The named conversion is attempted first; on any
// mismatch the values are flattened positionally instead of failing.
func lookupResultFromOutputs(out []any) attest.LookupResult {
	if len(out) == 1 {
		if raw, ok := convertTuple[rawSchemaRecord](out[0]); ok {
			return attest.LookupResult{Named: &attest.SchemaInfo{
				UID:       common.Hash(raw.Uid),
				Resolver:  raw.Resolver,
				Revocable: raw.Revocable,
				Schema:    raw.Schema,
			}}
		}
		return attest.LookupResult{Values: flattenValue(out[0])}
	}

	var values []any
	for _, v := range out {
		values = append(values, flattenValue(v)...)
	}
	return attest.LookupResult{Values: values}
}

// convertTuple converts an unpacked anonymous tuple struct into T. The
// conversion only applies when field names, order and types line up, so a
// false return means the collaborator handed back a different shape.
func convertTuple[T any](v any) (T, bool) {
	var zero T
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || !rv.Type().ConvertibleTo(reflect.TypeOf(zero)) {
		return zero, false
	}
	return rv.Convert(reflect.TypeOf(zero)).Interface().(T), true
}

// flattenValue exposes a struct's fields (or a value itself) as a positional
// value list for the decoder's schema scan.
func flattenValue(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return []any{v}
	}

	values := make([]any, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		values = append(values, rv.Field(i).Interface())
	}
	return values
}

// attestationRequestData mirrors the EAS AttestationRequestData tuple for
// packing
type attestationRequestData struct {
	Recipient      common.Address
	ExpirationTime uint64
	Revocable      bool
	RefUID         [32]byte
	Data           []byte
	Value          *big.Int
}

type attestationRequest struct {
	Schema [32]byte
	Data   attestationRequestData
}

// Attest submits an attestation and returns its UID parsed from the
// confirmation logs, along with the transaction hash.
func (c *Client) Attest(
	ctx context.Context,
	from common.Address,
	schemaUID common.Hash,
	recipient common.Address,
	payload []byte,
	revocable bool,
	signer SignerFunc,
) (common.Hash, common.Hash, error) {
	req := attestationRequest{
		Schema: [32]byte(schemaUID),
		Data: attestationRequestData{
			Recipient: recipient,
			Revocable: revocable,
			Data:      payload,
			Value:     big.NewInt(0),
		},
	}

	calldata, err := c.easABI.Pack("attest", req)
	if err != nil {
		return common.Hash{}, common.Hash{}, fmt.Errorf("failed to pack attest call: %w", err)
	}

	receipt, err := c.submit(ctx, from, c.easAddr, calldata, signer)
	if err != nil {
		return common.Hash{}, common.Hash{}, err
	}

	uid, err := c.attestedUID(receipt)
	if err != nil {
		return common.Hash{}, receipt.TxHash, err
	}

	logger.InfoCF("registry", "Attestation issued", map[string]any{
		"uid": uid.Hex(),
		"tx":  receipt.TxHash.Hex(),
	})

	return uid, receipt.TxHash, nil
}

// RegisterSchema registers a schema definition and returns its UID
func (c *Client) RegisterSchema(
	ctx context.Context,
	from common.Address,
	schema string,
	resolver common.Address,
	revocable bool,
	signer SignerFunc,
) (common.Hash, common.Hash, error) {
	calldata, err := c.regABI.Pack("register", schema, resolver, revocable)
	if err != nil {
		return common.Hash{}, common.Hash{}, fmt.Errorf("failed to pack register call: %w", err)
	}

	receipt, err := c.submit(ctx, from, c.regAddr, calldata, signer)
	if err != nil {
		return common.Hash{}, common.Hash{}, err
	}

	uid, err := c.registeredUID(receipt)
	if err != nil {
		return common.Hash{}, receipt.TxHash, err
	}

	logger.InfoCF("registry", "Schema registered", map[string]any{
		"uid": uid.Hex(),
		"tx":  receipt.TxHash.Hex(),
	})

	return uid, receipt.TxHash, nil
}

func (c *Client) call(ctx context.Context, contractABI abi.ABI, to common.Address, method string, args ...any) ([]any, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	msg := ethereum.CallMsg{
		To:   &to,
		Data: data,
	}
	result, err := c.eth.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	out, err := contractABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s result: %w", method, err)
	}
	return out, nil
}

// submit prepares, signs and sends a transaction, then waits for its receipt
func (c *Client) submit(ctx context.Context, from, to common.Address, calldata []byte, signer SignerFunc) (*types.Receipt, error) {
	nonce, err := c.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &to,
		Data: calldata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate gas: %w", err)
	}

	tx := types.NewTransaction(nonce, to, big.NewInt(0), gasLimit, gasPrice, calldata)

	signedTx, err := signer(ctx, c.chainID, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signedTx); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	receipt, err := c.waitReceipt(ctx, signedTx.Hash())
	if err != nil {
		return nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted", signedTx.Hash().Hex())
	}
	return receipt, nil
}

func (c *Client) waitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for receipt of %s: %w", txHash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// attestedUID pulls the attestation UID out of the Attested event data
func (c *Client) attestedUID(receipt *types.Receipt) (common.Hash, error) {
	topic := c.easABI.Events["Attested"].ID
	for _, log := range receipt.Logs {
		if log.Address != c.easAddr || len(log.Topics) == 0 || log.Topics[0] != topic {
			continue
		}
		if len(log.Data) < 32 {
			return common.Hash{}, fmt.Errorf("short Attested event data: %d bytes", len(log.Data))
		}
		return common.BytesToHash(log.Data[:32]), nil
	}
	return common.Hash{}, fmt.Errorf("no Attested event in receipt %s", receipt.TxHash.Hex())
}

// registeredUID pulls the schema UID out of the Registered event topics
func (c *Client) registeredUID(receipt *types.Receipt) (common.Hash, error) {
	topic := c.regABI.Events["Registered"].ID
	for _, log := range receipt.Logs {
		if log.Address != c.regAddr || len(log.Topics) < 2 || log.Topics[0] != topic {
			continue
		}
		return log.Topics[1], nil
	}
	return common.Hash{}, fmt.Errorf("no Registered event in receipt %s", receipt.TxHash.Hex())
}
