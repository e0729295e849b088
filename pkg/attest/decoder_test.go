package attest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func word(b byte) []byte {
	w := make([]byte, 32)
	w[31] = b
	return w
}

func TestValidateUID(t *testing.T) {
	valid := "0x" + strings.Repeat("ab", 32)
	if err := ValidateUID(valid); err != nil {
		t.Fatalf("ValidateUID(%q) = %v, want nil", valid, err)
	}

	for _, uid := range []string{
		"",
		"0x",
		"0xabc",
		strings.Repeat("ab", 32) + "00", // no prefix
		"0x" + strings.Repeat("zz", 32), // not hex
		"0x" + strings.Repeat("ab", 33), // too long
	} {
		if err := ValidateUID(uid); !errors.Is(err, ErrMalformedQuery) {
			t.Errorf("ValidateUID(%q) = %v, want ErrMalformedQuery", uid, err)
		}
	}
}

func TestExtractSchemaString_Named(t *testing.T) {
	res := LookupResult{Named: &SchemaInfo{Schema: "uint8 score"}}
	if got := ExtractSchemaString(res); got != "uint8 score" {
		t.Errorf("ExtractSchemaString = %q, want 'uint8 score'", got)
	}
}

func TestExtractSchemaString_PositionalPrefersTypeGrammar(t *testing.T) {
	res := LookupResult{Values: []any{
		"short",
		"hello-world-xyz",
		"uint8 score, string name",
	}}
	if got := ExtractSchemaString(res); got != "uint8 score, string name" {
		t.Errorf("ExtractSchemaString = %q, want the type-grammar candidate", got)
	}
}

func TestExtractSchemaString_PositionalFallsBackToFirstCandidate(t *testing.T) {
	res := LookupResult{Values: []any{"short", "hello-world-xyz", "zzz-qqq-kkk-www"}}
	if got := ExtractSchemaString(res); got != "hello-world-xyz" {
		t.Errorf("ExtractSchemaString = %q, want 'hello-world-xyz'", got)
	}
}

func TestExtractSchemaString_Nested(t *testing.T) {
	res := LookupResult{Values: []any{
		true,
		[]any{"uint256 deadline"},
	}}
	if got := ExtractSchemaString(res); got != "uint256 deadline" {
		t.Errorf("ExtractSchemaString = %q, want 'uint256 deadline'", got)
	}
}

func TestExtractSchemaString_TotalOverAnyShape(t *testing.T) {
	shapes := []LookupResult{
		{},
		{Values: []any{}},
		{Values: []any{1, true, []byte("uint8 score")}},
		{Values: []any{"tiny"}},
		{Named: &SchemaInfo{}},
	}
	for i, res := range shapes {
		first := ExtractSchemaString(res)
		second := ExtractSchemaString(res)
		if first != second {
			t.Errorf("shape %d: not idempotent: %q then %q", i, first, second)
		}
	}
	if got := ExtractSchemaString(LookupResult{Values: []any{1, true}}); got != "" {
		t.Errorf("no-candidate shape = %q, want empty", got)
	}
}

func TestDecode_EmptyPayloadSkipsLookup(t *testing.T) {
	lookupCalls := 0
	lookup := func(ctx context.Context, schemaUID common.Hash) (LookupResult, error) {
		lookupCalls++
		return LookupResult{}, errors.New("must not be called")
	}

	rec := Record{UID: common.HexToHash("0xaa")}
	got := Decode(context.Background(), rec, lookup)

	if lookupCalls != 0 {
		t.Errorf("lookup called %d times, want 0", lookupCalls)
	}
	if len(got.Fields) != 0 {
		t.Errorf("Fields = %v, want empty", got.Fields)
	}
	if got.RawPayloadHex != NoDataSentinel {
		t.Errorf("RawPayloadHex = %q, want %q", got.RawPayloadHex, NoDataSentinel)
	}
	if got.Status != StatusValid {
		t.Errorf("Status = %q, want Valid", got.Status)
	}
	if got.IssuedOnDisplay != UnknownIssuedOn {
		t.Errorf("IssuedOnDisplay = %q, want %q", got.IssuedOnDisplay, UnknownIssuedOn)
	}
}

func TestDecode_LookupFailureIsNotFatal(t *testing.T) {
	lookup := func(ctx context.Context, schemaUID common.Hash) (LookupResult, error) {
		return LookupResult{}, errors.New("registry down")
	}

	rec := Record{Data: word(95)}
	got := Decode(context.Background(), rec, lookup)

	if got.SchemaString != "" {
		t.Errorf("SchemaString = %q, want empty", got.SchemaString)
	}
	if len(got.Fields) != 0 {
		t.Errorf("Fields = %v, want empty", got.Fields)
	}
	if got.RawPayloadHex == NoDataSentinel || got.RawPayloadHex == "" {
		t.Errorf("RawPayloadHex = %q, want payload hex", got.RawPayloadHex)
	}
}

func TestDecode_SingleField(t *testing.T) {
	lookup := func(ctx context.Context, schemaUID common.Hash) (LookupResult, error) {
		return LookupResult{Named: &SchemaInfo{Schema: "uint8 score"}}, nil
	}

	rec := Record{Data: word(95)}
	got := Decode(context.Background(), rec, lookup)

	if got.Status != StatusValid {
		t.Errorf("Status = %q, want Valid", got.Status)
	}
	if len(got.Fields) != 1 {
		t.Fatalf("Fields len = %d, want 1", len(got.Fields))
	}
	if got.Fields[0].Name != "score" || got.Fields[0].Value != "95" {
		t.Errorf("Fields[0] = %+v, want score=95", got.Fields[0])
	}
}

func TestDecode_MultiFieldPreservesOrder(t *testing.T) {
	schema := "uint8 score, string name, bool passed"
	args, _, err := parseSchema(schema)
	if err != nil {
		t.Fatalf("parseSchema: %v", err)
	}
	payload, err := args.Pack(uint8(95), "alice", true)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	lookup := func(ctx context.Context, schemaUID common.Hash) (LookupResult, error) {
		return LookupResult{Named: &SchemaInfo{Schema: schema}}, nil
	}

	got := Decode(context.Background(), Record{Data: payload}, lookup)

	want := []Field{
		{Name: "score", Value: "95"},
		{Name: "name", Value: "alice"},
		{Name: "passed", Value: "true"},
	}
	if !reflect.DeepEqual(got.Fields, want) {
		t.Errorf("Fields = %+v, want %+v", got.Fields, want)
	}
	if v, ok := got.Get("name"); !ok || v != "alice" {
		t.Errorf("Get(name) = %q, %v", v, ok)
	}
}

func TestDecode_PayloadMismatchFallsBackToHex(t *testing.T) {
	lookup := func(ctx context.Context, schemaUID common.Hash) (LookupResult, error) {
		return LookupResult{Named: &SchemaInfo{Schema: "uint256 a, uint256 b"}}, nil
	}

	// One word cannot satisfy a two-field encoding
	rec := Record{Data: word(1)}
	got := Decode(context.Background(), rec, lookup)

	if len(got.Fields) != 0 {
		t.Errorf("Fields = %v, want empty", got.Fields)
	}
	if got.RawPayloadHex == "" || got.RawPayloadHex == NoDataSentinel {
		t.Errorf("RawPayloadHex = %q, want payload hex", got.RawPayloadHex)
	}
	if got.SchemaString != "uint256 a, uint256 b" {
		t.Errorf("SchemaString = %q, want schema kept for fallback display", got.SchemaString)
	}
}

func TestDecode_GarbageSchemaFallsBackToHex(t *testing.T) {
	lookup := func(ctx context.Context, schemaUID common.Hash) (LookupResult, error) {
		return LookupResult{Named: &SchemaInfo{Schema: "not a real type list!!"}}, nil
	}

	got := Decode(context.Background(), Record{Data: word(1)}, lookup)
	if len(got.Fields) != 0 {
		t.Errorf("Fields = %v, want empty", got.Fields)
	}
}

func TestDecode_RevocationStatus(t *testing.T) {
	cases := []struct {
		revocationTime uint64
		want           Status
	}{
		{0, StatusValid},
		{1700000000, StatusRevoked},
	}
	for _, tc := range cases {
		rec := Record{RevocationTime: tc.revocationTime}
		if got := Decode(context.Background(), rec, nil); got.Status != tc.want {
			t.Errorf("revocationTime=%d: Status = %q, want %q", tc.revocationTime, got.Status, tc.want)
		}
	}
}

func TestDecode_IssuedOnDisplay(t *testing.T) {
	got := Decode(context.Background(), Record{Time: 1700000000}, nil)
	if got.IssuedOnDisplay != "2023-11-14 22:13:20 UTC" {
		t.Errorf("IssuedOnDisplay = %q", got.IssuedOnDisplay)
	}

	got = Decode(context.Background(), Record{}, nil)
	if got.IssuedOnDisplay != UnknownIssuedOn {
		t.Errorf("IssuedOnDisplay = %q, want %q", got.IssuedOnDisplay, UnknownIssuedOn)
	}
}

func TestDecode_Deterministic(t *testing.T) {
	lookup := func(ctx context.Context, schemaUID common.Hash) (LookupResult, error) {
		return LookupResult{Named: &SchemaInfo{Schema: "uint8 score"}}, nil
	}
	rec := Record{
		UID:  common.HexToHash("0xaa"),
		Time: 1700000000,
		Data: word(95),
	}

	first := Decode(context.Background(), rec, lookup)
	second := Decode(context.Background(), rec, lookup)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("decode not deterministic:\n%+v\n%+v", first, second)
	}
}

func TestDisplayValue(t *testing.T) {
	addr := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	cases := []struct {
		in   any
		want string
	}{
		{uint8(95), "95"},
		{true, "true"},
		{"alice", "alice"},
		{addr, addr.Hex()},
		{[]byte{0xde, 0xad}, "0xdead"},
		{[2]byte{0xbe, 0xef}, "0xbeef"},
		{[]any{uint8(1), uint8(2)}, "[1, 2]"},
	}
	for _, tc := range cases {
		if got := displayValue(tc.in); got != tc.want {
			t.Errorf("displayValue(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitTopLevel(t *testing.T) {
	got := splitTopLevel("uint8 a, (uint8, bool) pair, string s")
	want := []string{"uint8 a", "(uint8, bool) pair", "string s"}
	if fmt.Sprintf("%v", got) != fmt.Sprintf("%v", want) {
		t.Errorf("splitTopLevel = %v, want %v", got, want)
	}
}
