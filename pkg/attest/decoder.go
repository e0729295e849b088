package attest

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/attestkit/attestkit/pkg/logger"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// typeMarkers are substrings that signal a Solidity-style type list. A lookup
// value containing one of these is almost certainly the schema definition
// rather than a resolver address or UID echoed back by the SDK.
var typeMarkers = []string{"uint", "int", "string", "bytes", "bool", "address", "(", ","}

// minSchemaCandidateLen filters out short values like "0x" or symbols when
// scanning positional lookup shapes
const minSchemaCandidateLen = 8

var uidPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// ValidateUID rejects identifiers of the wrong shape before any I/O happens
func ValidateUID(uid string) error {
	if !uidPattern.MatchString(uid) {
		return fmt.Errorf("%w: %q", ErrMalformedQuery, uid)
	}
	return nil
}

// ExtractSchemaString pulls the human-readable schema definition out of a
// lookup result. It is total: any shape yields a string, never a panic.
func ExtractSchemaString(res LookupResult) string {
	if res.Named != nil {
		return res.Named.Schema
	}

	candidates := collectStrings(res.Values)
	if len(candidates) == 0 {
		return ""
	}

	for _, c := range candidates {
		for _, marker := range typeMarkers {
			if strings.Contains(c, marker) {
				return c
			}
		}
	}
	return candidates[0]
}

func collectStrings(values []any) []string {
	var out []string
	for _, v := range values {
		switch val := v.(type) {
		case string:
			if len(val) > minSchemaCandidateLen {
				out = append(out, val)
			}
		case []any:
			out = append(out, collectStrings(val)...)
		}
	}
	return out
}

// Decode turns a raw record plus a schema lookup into a display-ready value.
// It never fails: lookup errors, unparseable schemas and payloads that do not
// match the schema's encoding all degrade to the hex fallback with empty
// Fields. Two calls with identical inputs and lookup behavior produce
// identical output.
func Decode(ctx context.Context, rec Record, lookup LookupFunc) Decoded {
	out := Decoded{
		RawPayloadHex:   NoDataSentinel,
		Status:          status(rec),
		IssuedOnDisplay: formatIssuedOn(rec.Time),
	}

	// An empty payload carries nothing to decode, so the schema lookup is
	// skipped entirely.
	if len(rec.Data) == 0 {
		return out
	}
	out.RawPayloadHex = hexutil.Encode(rec.Data)

	if lookup != nil {
		res, err := lookup(ctx, rec.SchemaUID)
		if err != nil {
			logger.WarnCF("attest", "Schema lookup failed, decoding in fallback mode", map[string]any{
				"uid":    rec.UID.Hex(),
				"schema": rec.SchemaUID.Hex(),
				"error":  err.Error(),
			})
		} else {
			out.SchemaString = ExtractSchemaString(res)
		}
	}

	if out.SchemaString == "" {
		return out
	}

	fields, err := decodeFields(out.SchemaString, rec.Data)
	if err != nil {
		logger.WarnCF("attest", "Payload decode failed, keeping hex fallback", map[string]any{
			"uid":    rec.UID.Hex(),
			"schema": out.SchemaString,
			"error":  err.Error(),
		})
		return out
	}

	out.Fields = fields
	return out
}

func status(rec Record) Status {
	if rec.RevocationTime != 0 {
		return StatusRevoked
	}
	return StatusValid
}

func formatIssuedOn(ts uint64) string {
	if ts == 0 {
		return UnknownIssuedOn
	}
	return time.Unix(int64(ts), 0).UTC().Format("2006-01-02 15:04:05 UTC")
}

// decodeFields parses a schema definition like "uint8 score, string name"
// into ABI arguments and unpacks the payload against them, preserving the
// declared field order.
func decodeFields(schema string, data []byte) ([]Field, error) {
	args, names, err := parseSchema(schema)
	if err != nil {
		return nil, err
	}

	values, err := args.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("payload does not match schema encoding: %w", err)
	}
	if len(values) != len(names) {
		return nil, fmt.Errorf("decoded %d values for %d fields", len(values), len(names))
	}

	fields := make([]Field, len(values))
	for i, v := range values {
		fields[i] = Field{Name: names[i], Value: displayValue(v)}
	}
	return fields, nil
}

func parseSchema(schema string) (abi.Arguments, []string, error) {
	var args abi.Arguments
	var names []string

	for i, decl := range splitTopLevel(schema) {
		tokens := strings.Fields(decl)
		if len(tokens) == 0 {
			continue
		}

		typ, err := abi.NewType(tokens[0], "", nil)
		if err != nil {
			return nil, nil, fmt.Errorf("bad field type %q: %w", tokens[0], err)
		}

		name := fmt.Sprintf("field%d", i)
		if len(tokens) > 1 {
			name = tokens[len(tokens)-1]
		}

		args = append(args, abi.Argument{Name: name, Type: typ})
		names = append(names, name)
	}

	if len(args) == 0 {
		return nil, nil, fmt.Errorf("schema %q declares no fields", schema)
	}
	return args, names, nil
}

// splitTopLevel splits on commas outside parentheses, so tuple types inside a
// declaration do not break field boundaries.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0

	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" {
		parts = append(parts, last)
	}
	return parts
}

// displayValue renders one decoded ABI value as display text: integers in
// base 10, byte content as hex, everything else via its natural text form.
func displayValue(v any) string {
	switch val := v.(type) {
	case *big.Int:
		return val.String()
	case common.Address:
		return val.Hex()
	case common.Hash:
		return val.Hex()
	case []byte:
		return hexutil.Encode(val)
	case bool:
		return strconv.FormatBool(val)
	case string:
		return val
	case uint8:
		return strconv.FormatUint(uint64(val), 10)
	case uint16:
		return strconv.FormatUint(uint64(val), 10)
	case uint32:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case int8:
		return strconv.FormatInt(int64(val), 10)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Array:
		// Fixed-size byte arrays (bytes32 and friends) come out of the ABI
		// decoder as [N]uint8
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			buf := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(buf), rv)
			return hexutil.Encode(buf)
		}
		return displaySequence(rv)
	case reflect.Slice:
		return displaySequence(rv)
	}

	// Composite values (tuples) get a best-effort serialized form
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", v)
}

func displaySequence(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		parts[i] = displayValue(rv.Index(i).Interface())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
