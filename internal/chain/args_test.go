package chain

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

func mustType(t *testing.T, typ string) abi.Type {
	t.Helper()

	ty, err := abi.NewType(typ, "", nil)
	if err != nil {
		t.Fatalf("abi.NewType(%q) error = %v", typ, err)
	}
	return ty
}

func TestConvertArgs(t *testing.T) {
	usdc := common.HexToAddress("0x8FB1E3fC51F3b789dED7557E680551d93Ea9d892")

	inputs := abi.Arguments{
		{Name: "token", Type: mustType(t, "address")},
		{Name: "vault", Type: mustType(t, "address")},
		{Name: "paused", Type: mustType(t, "bool")},
		{Name: "name", Type: mustType(t, "string")},
		{Name: "decimals", Type: mustType(t, "uint8")},
		{Name: "supply", Type: mustType(t, "uint256")},
		{Name: "offset", Type: mustType(t, "int64")},
	}
	values := []any{
		"0x8FB1E3fC51F3b789dED7557E680551d93Ea9d892",
		usdc,
		"true",
		"Nodus",
		json.Number("6"),
		"1000000000000000000000",
		json.Number("-5"),
	}

	got, err := ConvertArgs(inputs, values)
	if err != nil {
		t.Fatalf("ConvertArgs() error = %v", err)
	}

	if got[0] != usdc || got[1] != usdc {
		t.Errorf("addresses = %v, %v, want %v", got[0], got[1], usdc)
	}
	if got[2] != true {
		t.Errorf("paused = %v, want true", got[2])
	}
	if got[3] != "Nodus" {
		t.Errorf("name = %v, want Nodus", got[3])
	}
	if got[4] != uint8(6) {
		t.Errorf("decimals = %#v, want uint8(6)", got[4])
	}
	supply, ok := got[5].(*big.Int)
	if !ok || supply.String() != "1000000000000000000000" {
		t.Errorf("supply = %#v, want *big.Int 1e21", got[5])
	}
	if got[6] != int64(-5) {
		t.Errorf("offset = %#v, want int64(-5)", got[6])
	}

	// Результат должен упаковываться.
	if _, err := inputs.Pack(got...); err != nil {
		t.Errorf("Pack() error = %v", err)
	}
}

func TestConvertArgs_Bytes(t *testing.T) {
	inputs := abi.Arguments{
		{Name: "salt", Type: mustType(t, "bytes32")},
		{Name: "data", Type: mustType(t, "bytes")},
		{Name: "owners", Type: mustType(t, "address[]")},
	}
	salt := "0x" + "11223344556677889900112233445566778899001122334455667788990011aa"
	values := []any{
		salt,
		"0xdeadbeef",
		[]any{"0x8FB1E3fC51F3b789dED7557E680551d93Ea9d892", common.HexToAddress("0x01")},
	}

	got, err := ConvertArgs(inputs, values)
	if err != nil {
		t.Fatalf("ConvertArgs() error = %v", err)
	}

	fixed, ok := got[0].([32]byte)
	if !ok || common.Hash(fixed) != common.HexToHash(salt) {
		t.Errorf("salt = %#v", got[0])
	}
	if b, ok := got[1].([]byte); !ok || len(b) != 4 {
		t.Errorf("data = %#v", got[1])
	}
	owners, ok := got[2].([]common.Address)
	if !ok || len(owners) != 2 || owners[1] != common.HexToAddress("0x01") {
		t.Errorf("owners = %#v", got[2])
	}

	if _, err := inputs.Pack(got...); err != nil {
		t.Errorf("Pack() error = %v", err)
	}
}

func TestConvertArgs_Errors(t *testing.T) {
	tests := []struct {
		name  string
		typ   string
		value any
		want  error
	}{
		{"bad address", "address", "0x123", ErrInvalidArg},
		{"number as address", "address", json.Number("1"), ErrInvalidArg},
		{"bad bool", "bool", "yes please", ErrInvalidArg},
		{"negative uint", "uint256", json.Number("-1"), ErrInvalidArg},
		{"uint8 overflow", "uint8", json.Number("256"), ErrInvalidArg},
		{"int8 overflow", "int8", json.Number("128"), ErrInvalidArg},
		{"fractional", "uint256", 1.5, ErrInvalidArg},
		{"not a number", "uint256", "abc", ErrInvalidArg},
		{"short bytes32", "bytes32", "0x01", ErrInvalidArg},
		{"list expected", "address[]", "0x01", ErrInvalidArg},
		{"array size", "address[2]", []any{"0x8FB1E3fC51F3b789dED7557E680551d93Ea9d892"}, ErrInvalidArg},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inputs := abi.Arguments{{Name: "x", Type: mustType(t, tt.typ)}}
			_, err := ConvertArgs(inputs, []any{tt.value})
			if !errors.Is(err, tt.want) {
				t.Errorf("ConvertArgs() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConvertArgs_Count(t *testing.T) {
	inputs := abi.Arguments{{Name: "token", Type: mustType(t, "address")}}

	_, err := ConvertArgs(inputs, nil)
	if !errors.Is(err, ErrArgCount) {
		t.Errorf("ConvertArgs() error = %v, want ErrArgCount", err)
	}
}

func TestConvertArgs_Int8Bounds(t *testing.T) {
	inputs := abi.Arguments{{Name: "x", Type: mustType(t, "int8")}}

	got, err := ConvertArgs(inputs, []any{json.Number("-128")})
	if err != nil {
		t.Fatalf("ConvertArgs() error = %v", err)
	}
	if got[0] != int8(-128) {
		t.Errorf("got %#v, want int8(-128)", got[0])
	}
}
