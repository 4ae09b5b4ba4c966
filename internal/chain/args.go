package chain

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ConvertArgs приводит разрешённые значения шага к Go типам,
// которые ожидает упаковщик ABI go-ethereum.
//
// Поддерживаются address, bool, string, bytes, bytesN, intN/uintN,
// а также массивы и слайсы этих типов.
func ConvertArgs(inputs abi.Arguments, values []any) ([]any, error) {
	if len(inputs) != len(values) {
		return nil, fmt.Errorf("%w: constructor takes %d, got %d", ErrArgCount, len(inputs), len(values))
	}

	out := make([]any, len(values))
	for i, input := range inputs {
		v, err := convertValue(input.Type, values[i])
		if err != nil {
			name := input.Name
			if name == "" {
				name = "#" + strconv.Itoa(i)
			}
			return nil, fmt.Errorf("arg %s (%s): %w", name, input.Type.String(), err)
		}
		out[i] = v
	}
	return out, nil
}

func convertValue(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.AddressTy:
		return toAddress(v)
	case abi.BoolTy:
		return toBool(v)
	case abi.StringTy:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprint(v), nil
	case abi.IntTy, abi.UintTy:
		return toInteger(t, v)
	case abi.BytesTy:
		return toBytes(v)
	case abi.FixedBytesTy:
		return toFixedBytes(t, v)
	case abi.SliceTy, abi.ArrayTy:
		return toList(t, v)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, t.String())
	}
}

func toAddress(v any) (common.Address, error) {
	switch x := v.(type) {
	case common.Address:
		return x, nil
	case *common.Address:
		if x == nil {
			return common.Address{}, fmt.Errorf("%w: nil address", ErrInvalidArg)
		}
		return *x, nil
	case string:
		s := strings.TrimSpace(x)
		if !common.IsHexAddress(s) {
			return common.Address{}, fmt.Errorf("%w: %q is not an address", ErrInvalidArg, x)
		}
		return common.HexToAddress(s), nil
	default:
		return common.Address{}, fmt.Errorf("%w: %T is not an address", ErrInvalidArg, v)
	}
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return false, fmt.Errorf("%w: %q is not a bool", ErrInvalidArg, x)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: %T is not a bool", ErrInvalidArg, v)
	}
}

// toBigInt разбирает целое из json.Number, строки (десятичной или 0x)
// и числовых Go типов.
func toBigInt(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("%w: nil integer", ErrInvalidArg)
		}
		return new(big.Int).Set(x), nil
	case json.Number:
		return parseBigInt(x.String())
	case string:
		return parseBigInt(x)
	case int:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: %v is not an integer", ErrInvalidArg, x)
		}
		n, _ := big.NewFloat(x).Int(nil)
		return n, nil
	default:
		return nil, fmt.Errorf("%w: %T is not an integer", ErrInvalidArg, v)
	}
}

func parseBigInt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	n, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an integer", ErrInvalidArg, s)
	}
	return n, nil
}

func toInteger(t abi.Type, v any) (any, error) {
	n, err := toBigInt(v)
	if err != nil {
		return nil, err
	}

	if t.T == abi.UintTy {
		if n.Sign() < 0 {
			return nil, fmt.Errorf("%w: negative value %s for %s", ErrInvalidArg, n, t.String())
		}
		if n.BitLen() > t.Size {
			return nil, fmt.Errorf("%w: %s overflows %s", ErrInvalidArg, n, t.String())
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
		lower := new(big.Int).Neg(limit)
		if n.Cmp(limit) >= 0 || n.Cmp(lower) < 0 {
			return nil, fmt.Errorf("%w: %s overflows %s", ErrInvalidArg, n, t.String())
		}
	}

	// uint8..uint64 и int8..int64 упаковываются из нативных типов,
	// остальные размеры из *big.Int.
	rt := t.GetType()
	rv := reflect.New(rt).Elem()
	switch rt.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		rv.SetUint(n.Uint64())
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		rv.SetInt(n.Int64())
	default:
		return n, nil
	}
	return rv.Interface(), nil
}

func toBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" || s == "0x" {
			return []byte{}, nil
		}
		if !strings.HasPrefix(s, "0x") {
			s = "0x" + s
		}
		b, err := hexutil.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not hex bytes", ErrInvalidArg, x)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("%w: %T is not bytes", ErrInvalidArg, v)
	}
}

func toFixedBytes(t abi.Type, v any) (any, error) {
	b, err := toBytes(v)
	if err != nil {
		return nil, err
	}
	if len(b) != t.Size {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrInvalidArg, t.String(), t.Size, len(b))
	}

	rv := reflect.New(t.GetType()).Elem()
	reflect.Copy(rv, reflect.ValueOf(b))
	return rv.Interface(), nil
}

func toList(t abi.Type, v any) (any, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a list", ErrInvalidArg, v)
	}

	var rv reflect.Value
	if t.T == abi.ArrayTy {
		if len(items) != t.Size {
			return nil, fmt.Errorf("%w: %s needs %d items, got %d", ErrInvalidArg, t.String(), t.Size, len(items))
		}
		rv = reflect.New(t.GetType()).Elem()
	} else {
		rv = reflect.MakeSlice(t.GetType(), len(items), len(items))
	}

	for i, item := range items {
		conv, err := convertValue(*t.Elem, item)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		rv.Index(i).Set(reflect.ValueOf(conv))
	}
	return rv.Interface(), nil
}
