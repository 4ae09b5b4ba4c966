package engine

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ArgsHash вычисляет отпечаток деплоя: имя контракта и разрешённые аргументы.
// По нему адресная книга находит уже задеплоенный идентичный контракт.
//
// Хэшируется JSON вида [contract, [kind, value]...]: строки экранированы,
// у каждого значения есть тип, поэтому разные списки аргументов
// не могут дать одинаковую байтовую строку.
func ArgsHash(contract string, args []any) string {
	fields := make([]any, 0, len(args)+1)
	fields = append(fields, contract)
	for _, arg := range args {
		fields = append(fields, canonical(arg))
	}

	// canonical возвращает только строки, bool и срезы: Marshal не падает.
	data, _ := json.Marshal(fields)
	return crypto.Keccak256Hash(data).Hex()
}

// canonical превращает аргумент в пару [kind, value].
// Регистр меняется только у common.Address: строки сохраняются как есть.
func canonical(v any) []any {
	switch a := v.(type) {
	case common.Address:
		return []any{"address", strings.ToLower(a.Hex())}
	case string:
		return []any{"string", a}
	case bool:
		return []any{"bool", a}
	case json.Number:
		return []any{"number", a.String()}
	case *big.Int:
		return []any{"number", a.String()}
	case int, int64, uint64, float64:
		return []any{"number", fmt.Sprint(a)}
	case []any:
		items := make([]any, len(a))
		for i, item := range a {
			items[i] = canonical(item)
		}
		return []any{"list", items}
	case nil:
		return []any{"null", ""}
	default:
		return []any{fmt.Sprintf("%T", a), fmt.Sprint(a)}
	}
}
